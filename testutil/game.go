package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// GameRoot creates an installation root that passes game directory validation.
func GameRoot(t testing.TB, fs afero.Fs, root string) string {
	t.Helper()
	require.NoError(t, fs.MkdirAll(root, 0755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "SpiderHeck.exe"), []byte("game"), 0644))
	return root
}
