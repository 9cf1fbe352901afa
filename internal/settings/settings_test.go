package settings

import (
	"path/filepath"
	"testing"

	"github.com/meza/entwine/internal/globalerrors"
	"github.com/meza/entwine/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settingsPath = filepath.FromSlash("/home/user/.config/entwine/settings.json")

func TestDefaultLocationIsUnderXDGConfig(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	assert.Equal(t, "settings.json", filepath.Base(store.Path()))
	assert.Equal(t, "entwine", filepath.Base(filepath.Dir(store.Path())))
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	loaded, err := NewStoreAt(afero.NewMemMapFs(), settingsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAppSettings(), loaded)
}

func TestSaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStoreAt(fs, settingsPath)

	require.NoError(t, store.Save(models.AppSettings{LaunchMethod: models.LaunchExecutable, GamePath: "/games/SpiderHeck"}))

	data, err := afero.ReadFile(fs, settingsPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"launchMethod":"executable","gamePath":"/games/SpiderHeck"}`, string(data))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.LaunchExecutable, loaded.LaunchMethod)
	assert.Equal(t, "/games/SpiderHeck", loaded.GamePath)
}

func TestLoadAcceptsFilesWithoutGamePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{"launchMethod":"steam"}`), 0644))

	loaded, err := NewStoreAt(fs, settingsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAppSettings(), loaded)
}

func TestLoadFallsBackToSteamForUnknownLaunchMethod(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{"launchMethod":"carrier-pigeon"}`), 0644))

	loaded, err := NewStoreAt(fs, settingsPath).Load()
	require.NoError(t, err)
	assert.Equal(t, models.LaunchSteam, loaded.LaunchMethod)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, settingsPath, []byte(`{`), 0644))

	_, err := NewStoreAt(fs, settingsPath).Load()
	assert.ErrorContains(t, err, "failed to parse")
}

func TestUpdate(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStoreAt(fs, settingsPath)

	updated, err := store.Update(func(current *models.AppSettings) {
		current.GamePath = "/games/SpiderHeck"
	})
	require.NoError(t, err)
	assert.Equal(t, models.LaunchSteam, updated.LaunchMethod)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestResolveGameDir(t *testing.T) {
	saved := models.AppSettings{GamePath: "/saved"}

	dir, err := ResolveGameDir(" /flag ", "/env", saved)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/flag"), dir)

	dir, err = ResolveGameDir("", "/env", saved)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/env"), dir)

	dir, err = ResolveGameDir("", "", saved)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/saved"), dir)

	_, err = ResolveGameDir("", " ", models.AppSettings{})
	assert.ErrorIs(t, err, ErrNoGameDir)
}

func TestValidateGameDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/games/SpiderHeck")
	require.NoError(t, fs.MkdirAll(root, 0755))

	assert.ErrorIs(t, ValidateGameDir(fs, root), &globalerrors.NotFoundError{})
	assert.ErrorIs(t, ValidateGameDir(fs, filepath.FromSlash("/missing")), &globalerrors.NotFoundError{})

	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "SpiderHeck.exe"), []byte("MZ"), 0755))
	assert.NoError(t, ValidateGameDir(fs, root))
}
