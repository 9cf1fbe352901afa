package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/joho/godotenv/autoload"
	"github.com/meza/entwine/cmd/entwine"
	"github.com/meza/entwine/internal/environment"
	"github.com/meza/entwine/internal/lifecycle"
	"github.com/meza/entwine/internal/perf"
	"github.com/meza/entwine/internal/telemetry"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const (
	perfLifecycleStartup  = "app.lifecycle.startup"
	perfLifecycleExecute  = "app.lifecycle.execute"
	perfLifecycleShutdown = "app.lifecycle.shutdown"
)

type shutdownTrigger string

const (
	shutdownTriggerExit   shutdownTrigger = "exit"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(context.Context) error
	telemetryInit     func()
	telemetryShutdown func(context.Context)
	register          func(lifecycle.Handler) lifecycle.HandlerID
	unregister        func(lifecycle.HandlerID)
	args              []string
	cwd               string
	fs                afero.Fs
	stderr            io.Writer
}

type perfExportConfig struct {
	enabled bool
	baseDir string
	outDir  string
	debug   bool
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	os.Exit(runWithDeps(runDeps{
		execute:           entwine.Execute,
		telemetryInit:     telemetry.Init,
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		args:              os.Args[1:],
		cwd:               cwd,
		fs:                afero.NewOsFs(),
		stderr:            os.Stderr,
	}))
}

func runWithDeps(deps runDeps) int {
	ctx := context.Background()
	perfConfig := perfExportConfigFromArgs(deps.args, deps.cwd)
	if perfConfig.enabled {
		if err := perf.Init(perf.Config{Enabled: true}); err != nil {
			perfConfig.enabled = false
		}
	}

	_, startup := perf.StartSpan(ctx, perfLifecycleStartup)
	deps.telemetryInit()

	var once sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		once.Do(func() {
			attributes := []attribute.KeyValue{attribute.String("trigger", string(trigger))}
			if sig != nil {
				attributes = append(attributes, attribute.String("signal", sig.String()))
			}
			shutdownCtx, span := perf.StartSpan(ctx, perfLifecycleShutdown, perf.WithAttributes(attributes...))
			deps.telemetryShutdown(shutdownCtx)
			span.End()
			exportPerf(deps, perfConfig)
		})
	}
	handlerID := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startup.End()

	executeCtx, execute := perf.StartSpan(ctx, perfLifecycleExecute)
	err := deps.execute(executeCtx)
	execute.SetAttributes(attribute.Bool("success", err == nil))
	execute.End()

	shutdown(shutdownTriggerExit, nil)
	deps.unregister(handlerID)

	if err != nil {
		return 1
	}
	return 0
}

func exportPerf(deps runDeps, config perfExportConfig) {
	if !config.enabled || deps.fs == nil {
		return
	}
	spans, err := perf.GetSpans()
	if err != nil {
		return
	}
	path, err := perf.ExportToFile(deps.fs, config.outDir, config.baseDir, spans)
	if deps.stderr == nil {
		return
	}
	if err != nil {
		_, _ = fmt.Fprintf(deps.stderr, "perf export failed: %v\n", err)
		return
	}
	if config.debug {
		_, _ = fmt.Fprintf(deps.stderr, "perf data written to %s\n", path)
		if dropped := perf.DroppedSpans(); dropped > 0 {
			_, _ = fmt.Fprintf(deps.stderr, "perf recording limit reached, %d spans dropped\n", dropped)
		}
	}
}

// perfExportConfigFromArgs scans the raw arguments before cobra parses them. Spans are written
// to the game directory, or to the working directory when none is given.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	config := perfExportConfig{}
	gameDir := environment.GameDir()
	outDir := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(arg, "=")
		next := func() string {
			if hasValue {
				return value
			}
			if i+1 < len(args) {
				i++
				return args[i]
			}
			return ""
		}

		switch name {
		case "--perf":
			config.enabled = !hasValue || value == "true"
		case "--debug":
			config.debug = !hasValue || value == "true"
		case "--game-dir", "-g":
			gameDir = next()
		case "--perf-out-dir":
			outDir = next()
		}
	}

	config.baseDir = absolute(cwd, gameDir)
	if gameDir == "" {
		config.baseDir = absolute(cwd, ".")
	}
	config.outDir = config.baseDir
	if outDir != "" {
		config.outDir = absolute(config.baseDir, outDir)
	}
	return config
}

func absolute(base string, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
