// Package launcher starts the game, either through Steam or by running its executable.
package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// Command is a process to start without waiting for it to exit.
type Command struct {
	Name string
	Args []string
	Dir  string
}

type Runner interface {
	Start(command Command) error
}

// ExecRunner starts commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Start(command Command) error {
	cmd := exec.Command(command.Name, command.Args...) // #nosec G204 -- the command is built from fixed launcher values.
	cmd.Dir = command.Dir
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

type Launcher struct {
	fs     afero.Fs
	runner Runner
	goos   string
}

func New(fs afero.Fs, runner Runner) *Launcher {
	return &Launcher{fs: fs, runner: runner, goos: runtime.GOOS}
}

func SteamURL() string {
	return "steam://rungameid/" + constants.SteamAppID
}

// OpenCommand is the platform's way of handing a URL to its default handler.
func OpenCommand(goos string, url string) Command {
	switch goos {
	case "windows":
		return Command{Name: "cmd", Args: []string{"/C", "start", "", url}}
	case "darwin":
		return Command{Name: "open", Args: []string{url}}
	default:
		return Command{Name: "xdg-open", Args: []string{url}}
	}
}

func (launcher *Launcher) Launch(ctx context.Context, method models.LaunchMethod, root string) error {
	_, span := perf.StartSpan(ctx, "launcher.launch",
		perf.WithAttributes(attribute.String("method", string(method)), attribute.String("root", root)),
	)
	defer span.End()

	switch method {
	case models.LaunchExecutable:
		executable := filepath.Join(root, constants.GameExecutable)
		exists, err := afero.Exists(launcher.fs, executable)
		if err != nil {
			return globalerrors.IoErrorWrap(err, "inspect", executable)
		}
		if !exists {
			return &globalerrors.NotFoundError{Subject: "Game executable", Path: executable}
		}
		if err := launcher.runner.Start(Command{Name: executable, Dir: root}); err != nil {
			return fmt.Errorf("failed to start %s: %w", executable, err)
		}
		return nil
	case models.LaunchSteam, "":
		if err := launcher.runner.Start(OpenCommand(launcher.goos, SteamURL())); err != nil {
			return fmt.Errorf("failed to launch %s through Steam: %w", constants.GameName, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown launch method %q", method)
	}
}
