package fileutils

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/meza/entwine/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicCreatesWhenMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))

	require.NoError(t, WriteFileAtomic(fs, path, []byte("ok"), 0644))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.False(t, FileExists(fs, path+".entwine.tmp"))
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, afero.WriteFile(fs, path, []byte("old"), 0644))

	require.NoError(t, WriteFileAtomic(fs, path, []byte("new"), 0644))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestWriteFileAtomicLeavesNoTargetWhenRenameIntoMissingTargetFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, base.MkdirAll(filepath.Dir(path), 0755))
	fs := testutil.FailingFs{Fs: base, FailRenameFrom: []string{".entwine.tmp"}}

	err := WriteFileAtomic(fs, path, []byte("new"), 0644)
	assert.ErrorIs(t, err, testutil.ErrInjected)

	assert.False(t, FileExists(base, path), "target should not be created on failure")
	assert.False(t, FileExists(base, path+".entwine.tmp"), "temp file should be cleaned up")
}

func TestWriteFileAtomicKeepsOldContentWhenTempWriteFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0644))
	fs := testutil.FailingFs{Fs: base, FailWrite: []string{".entwine.tmp"}}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), 0644))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
}

func TestWriteFileAtomicRestoresBackupWhenSwapFails(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0644))
	fs := testutil.FailingFs{Fs: base, FailRenameFrom: []string{".entwine.tmp"}}

	assert.Error(t, WriteFileAtomic(fs, path, []byte("new"), 0644))

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
	assert.False(t, FileExists(base, path+".entwine.bak"))
	assert.False(t, FileExists(base, path+".entwine.tmp"))
}

func TestWriteFileAtomicReportsBackupFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	path := filepath.FromSlash("/game/doorstop_config.ini")
	require.NoError(t, afero.WriteFile(base, path, []byte("old"), 0644))
	fs := testutil.FailingFs{
		Fs:             base,
		FailRenameFrom: []string{".entwine.tmp"},
		FailRenameTo:   []string{".entwine.bak"},
	}

	assert.ErrorIs(t, WriteFileAtomic(fs, path, []byte("new"), 0644), testutil.ErrInjected)

	data, err := afero.ReadFile(base, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
	assert.False(t, FileExists(base, path+".entwine.tmp"))
}

func TestNextSiblingPathSkipsTakenSlots(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := filepath.FromSlash("/game/file")
	require.NoError(t, afero.WriteFile(fs, target+".entwine.tmp", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fs, target+".entwine.tmp.1", []byte("x"), 0644))

	path, err := NextSiblingPath(fs, target, ".tmp")
	require.NoError(t, err)
	assert.Equal(t, target+".entwine.tmp.2", path)
}

func TestNextSiblingPathFailsWhenNoSlotAvailable(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := filepath.FromSlash("/game/file")
	base := target + ".entwine.tmp"
	require.NoError(t, afero.WriteFile(fs, base, []byte("x"), 0644))
	for i := 1; i < 100; i++ {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("%s.%d", base, i), []byte("x"), 0644))
	}

	_, err := NextSiblingPath(fs, target, ".tmp")
	assert.Error(t, err)
}

func TestRemoveIfExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, RemoveIfExists(fs, "/missing"))
	require.NoError(t, afero.WriteFile(fs, "/present", []byte("x"), 0644))
	assert.NoError(t, RemoveIfExists(fs, "/present"))
	assert.False(t, FileExists(fs, "/present"))
}
