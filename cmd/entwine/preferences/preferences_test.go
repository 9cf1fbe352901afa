package preferences

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/meza/entwine/internal/cli"
	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/meza/entwine/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (cli.Env, *bytes.Buffer) {
	t.Helper()
	t.Setenv("ENTWINE_TEST", "true")
	var out bytes.Buffer
	return cli.NewMemoryEnv(afero.NewMemMapFs(), &out), &out
}

func TestShowDefaults(t *testing.T) {
	env, out := setup(t)

	require.NoError(t, runShow(env, false))
	assert.Contains(t, out.String(), "cmd.settings.show.launch, Arg 1: {Count: 0, Data: &map[method:steam]}")
	assert.Contains(t, out.String(), "cmd.settings.show.game_dir, Arg 1: {Count: 0, Data: &map[path:cmd.settings.show.unset]}")
	assert.Contains(t, out.String(), "cmd.settings.show.file")
}

func TestShowJSON(t *testing.T) {
	env, out := setup(t)

	require.NoError(t, runShow(env, true))
	var decoded models.AppSettings
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, models.DefaultAppSettings(), decoded)
}

func TestSetLaunch(t *testing.T) {
	env, out := setup(t)

	require.NoError(t, runSetLaunch(env, "Executable"))
	saved, err := env.Settings.Load()
	require.NoError(t, err)
	assert.Equal(t, models.LaunchExecutable, saved.LaunchMethod)
	assert.Contains(t, out.String(), "cmd.settings.set_launch.done")

	assert.ErrorContains(t, runSetLaunch(env, "epic"), "unknown launch method")
}

func TestSetGameDir(t *testing.T) {
	env, out := setup(t)
	root := testutil.GameRoot(t, env.Fs, filepath.FromSlash("/games/SpiderHeck"))

	require.NoError(t, runSetGameDir(env, root))
	saved, err := env.Settings.Load()
	require.NoError(t, err)
	assert.Equal(t, root, saved.GamePath)
	assert.Equal(t, models.LaunchSteam, saved.LaunchMethod)
	assert.Contains(t, out.String(), "cmd.settings.set_game_dir.done")
}

func TestSetGameDirRejectsNonGameDirectory(t *testing.T) {
	env, _ := setup(t)
	require.NoError(t, env.Fs.MkdirAll(filepath.FromSlash("/games/empty"), 0755))

	var notFound *globalerrors.NotFoundError
	assert.ErrorAs(t, runSetGameDir(env, filepath.FromSlash("/games/empty")), &notFound)

	saved, err := env.Settings.Load()
	require.NoError(t, err)
	assert.Empty(t, saved.GamePath)
}
