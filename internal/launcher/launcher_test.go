package launcher

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/meza/entwine/internal/constants"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	started []Command
	err     error
}

func (runner *recordingRunner) Start(command Command) error {
	runner.started = append(runner.started, command)
	return runner.err
}

var root = filepath.FromSlash("/games/SpiderHeck")

func TestSteamURL(t *testing.T) {
	assert.Equal(t, "steam://rungameid/1329500", SteamURL())
}

func TestOpenCommand(t *testing.T) {
	assert.Equal(t, Command{Name: "xdg-open", Args: []string{SteamURL()}}, OpenCommand("linux", SteamURL()))
	assert.Equal(t, Command{Name: "open", Args: []string{SteamURL()}}, OpenCommand("darwin", SteamURL()))
	assert.Equal(t, Command{Name: "cmd", Args: []string{"/C", "start", "", SteamURL()}}, OpenCommand("windows", SteamURL()))
}

func TestLaunchThroughSteam(t *testing.T) {
	runner := &recordingRunner{}
	launcher := New(afero.NewMemMapFs(), runner)
	launcher.goos = "linux"

	require.NoError(t, launcher.Launch(context.Background(), models.LaunchSteam, root))
	assert.Equal(t, []Command{{Name: "xdg-open", Args: []string{"steam://rungameid/1329500"}}}, runner.started)
}

func TestLaunchExecutable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, constants.GameExecutable), []byte("MZ"), 0755))
	runner := &recordingRunner{}

	require.NoError(t, New(fs, runner).Launch(context.Background(), models.LaunchExecutable, root))
	assert.Equal(t, []Command{{Name: filepath.Join(root, constants.GameExecutable), Dir: root}}, runner.started)
}

func TestLaunchExecutableMissing(t *testing.T) {
	runner := &recordingRunner{}

	err := New(afero.NewMemMapFs(), runner).Launch(context.Background(), models.LaunchExecutable, root)
	assert.ErrorIs(t, err, &globalerrors.NotFoundError{})
	assert.Empty(t, runner.started)
}

func TestLaunchReportsRunnerFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("xdg-open: not found")}

	err := New(afero.NewMemMapFs(), runner).Launch(context.Background(), models.LaunchSteam, root)
	assert.ErrorContains(t, err, "through Steam")
	assert.ErrorContains(t, err, "xdg-open: not found")
}

func TestLaunchUnknownMethod(t *testing.T) {
	err := New(afero.NewMemMapFs(), &recordingRunner{}).Launch(context.Background(), "telepathy", root)
	assert.ErrorContains(t, err, "unknown launch method")
}
