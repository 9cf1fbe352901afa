// Package cli holds what every entwine command needs: global flags, the game directory,
// the root lock, progress rendering and telemetry.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/meza/entwine/internal/catalog"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/httpclient"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/lifecycle"
	"github.com/meza/entwine/internal/loaders"
	"github.com/meza/entwine/internal/logger"
	"github.com/meza/entwine/internal/mods"
	"github.com/meza/entwine/internal/perf"
	"github.com/meza/entwine/internal/progress"
	"github.com/meza/entwine/internal/rootlock"
	"github.com/meza/entwine/internal/settings"
	"github.com/meza/entwine/internal/telemetry"
	"github.com/meza/entwine/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

const (
	FlagGameDir = "game-dir"
	FlagQuiet   = "quiet"
	FlagDebug   = "debug"
	FlagPerf    = "perf"
	// FlagPerfOutDir is read by main before cobra runs.
	FlagPerfOutDir = "perf-out-dir"
)

type Globals struct {
	GameDir string
	Quiet   bool
	Debug   bool
}

func ReadGlobals(cmd *cobra.Command) (Globals, error) {
	gameDir, err := cmd.Flags().GetString(FlagGameDir)
	if err != nil {
		return Globals{}, err
	}
	quiet, err := cmd.Flags().GetBool(FlagQuiet)
	if err != nil {
		return Globals{}, err
	}
	debug, err := cmd.Flags().GetBool(FlagDebug)
	if err != nil {
		return Globals{}, err
	}
	return Globals{GameDir: gameDir, Quiet: quiet, Debug: debug}, nil
}

// Env carries the collaborators a command runs against. Tests build one over afero.NewMemMapFs.
type Env struct {
	Fs          afero.Fs
	Doer        httpclient.Doer
	Settings    *settings.Store
	Logger      *logger.Logger
	In          io.Reader
	Out         io.Writer
	Interactive bool
	GameDirFlag string
	// Latest overrides the remote latest-version lookup.
	Latest loaders.LatestVersionSource
}

// NewEnv wires the real filesystem, HTTP client and settings file.
func NewEnv(cmd *cobra.Command, globals Globals) Env {
	log := logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), globals.Quiet, globals.Debug)
	telemetry.SetLogger(log)
	fs := afero.NewOsFs()
	return Env{
		Fs:          fs,
		Doer:        httpclient.NewDefaultClient(),
		Settings:    settings.NewStore(fs),
		Logger:      log,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Interactive: tui.ShouldUseTUI(globals.Quiet, cmd.InOrStdin(), cmd.OutOrStdout()),
		GameDirFlag: globals.GameDir,
	}
}

// ResolveRoot finds the game directory from the flag, the environment or the saved settings
// and checks that the game is really there.
func (env Env) ResolveRoot() (string, error) {
	saved, err := env.Settings.Load()
	if err != nil {
		return "", err
	}
	root, err := settings.ResolveGameDir(env.GameDirFlag, environment.GameDir(), saved)
	if err != nil {
		return "", err
	}
	if err := settings.ValidateGameDir(env.Fs, root); err != nil {
		return "", err
	}
	telemetry.SetPerfBaseDir(root)
	return root, nil
}

// WithRootLock holds the root lock for the duration of fn and releases it on Ctrl-C too.
func (env Env) WithRootLock(root string, fn func() error) (err error) {
	lock, err := rootlock.Acquire(env.Fs, root)
	if err != nil {
		return err
	}
	cancel := lifecycle.OnShutdown(func() { _ = lock.Release() })
	defer func() {
		cancel()
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

// WithProgress runs work behind a spinner on a terminal, otherwise it logs each step.
func (env Env) WithProgress(title string, work func(progress.Sink) error) error {
	if env.Interactive {
		return tui.RunWithProgress(env.In, env.Out, title, work)
	}
	return work(progress.LoggerSink{Logger: env.Logger})
}

func (env Env) Fetcher() *httpclient.Fetcher {
	return httpclient.NewFetcher(env.Doer)
}

func (env Env) Orchestrator(sink progress.Sink) *loaders.Orchestrator {
	latest := env.Latest
	if latest == nil {
		latest = loaders.NewRemoteLatest(env.Fetcher(), environment.SilkVersionURL())
	}
	return loaders.NewOrchestrator(loaders.Deps{
		Fs:      env.Fs,
		Fetcher: env.Fetcher(),
		Latest:  latest,
		Sink:    sink,
	})
}

func (env Env) Catalog() *catalog.Client {
	return catalog.NewClient(env.Doer)
}

func (env Env) Mods() *mods.Manager {
	return mods.NewManager(env.Fs)
}

// Outcome is what a command reports back for telemetry.
type Outcome struct {
	Arguments map[string]interface{}
	Extra     map[string]interface{}
}

// RunFunc is the body of a command.
type RunFunc func(ctx context.Context, env Env) (Outcome, error)

// Recorder receives the telemetry payload of each command.
var Recorder = telemetry.RecordCommand

// EnvFactory builds the Env for a command. Tests replace it.
var EnvFactory = NewEnv

// Run reads the global flags, wraps fn in an app.command span and records the outcome.
func Run(cmd *cobra.Command, name string, fn RunFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := perf.StartSpan(ctx, "app.command."+name)
	started := time.Now()

	globals, err := ReadGlobals(cmd)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		span.End()
		return err
	}

	env := EnvFactory(cmd, globals)
	outcome, err := fn(ctx, env)
	span.SetAttributes(attribute.Bool("success", err == nil))
	span.End()

	payload := telemetry.CommandTelemetry{
		Command:     name,
		Success:     err == nil,
		Error:       err,
		Arguments:   outcome.Arguments,
		Extra:       outcome.Extra,
		Duration:    time.Since(started),
		Interactive: env.Interactive,
	}
	if err != nil {
		payload.ExitCode = 1
	}
	if env.Logger != nil {
		env.Logger.Debug("command finished", "command", name, "duration", payload.Duration, "exit", payload.ExitCode)
	}
	Recorder(payload)
	return err
}

// Println writes a result line. Results are shown even with --quiet.
func (env Env) Println(message string) {
	fmt.Fprintln(env.Out, message)
}

// PrintJSON writes value as indented JSON for --json output.
func (env Env) PrintJSON(value any) error {
	encoder := json.NewEncoder(env.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// UseEnvForTesting makes every command run against env and returns a restore func.
func UseEnvForTesting(env Env) func() {
	previousFactory := EnvFactory
	EnvFactory = func(*cobra.Command, Globals) Env { return env }
	return func() { EnvFactory = previousFactory }
}

// UseRecorderForTesting captures command telemetry and returns a restore func.
func UseRecorderForTesting(record func(telemetry.CommandTelemetry)) func() {
	previous := Recorder
	Recorder = record
	return func() { Recorder = previous }
}

// AddGlobalFlags registers the flags ReadGlobals expects.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP(FlagGameDir, "g", "", i18n.T("cmd.root.flag.game_dir"))
	flags.BoolP(FlagQuiet, "q", false, i18n.T("cmd.root.flag.quiet"))
	flags.Bool(FlagDebug, false, i18n.T("cmd.root.flag.debug"))
	flags.Bool(FlagPerf, false, i18n.T("cmd.root.flag.perf"))
	flags.String(FlagPerfOutDir, "", i18n.T("cmd.root.flag.perf_out_dir"))
}

// NewMemoryEnv builds a non-interactive Env over fs that writes all output to out.
// The settings file lives under /config.
func NewMemoryEnv(fs afero.Fs, out io.Writer) Env {
	return Env{
		Fs:       fs,
		Doer:     httpclient.NewDefaultClient(),
		Settings: settings.NewStoreAt(fs, filepath.Join(string(filepath.Separator), "config", "entwine", "settings.json")),
		Logger:   logger.New(out, out, false, false),
		Out:      out,
		Latest:   loaders.StaticLatest(loaders.FallbackSilkVersion),
	}
}
