package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harborbank/tellerauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestLoadPepperGeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	cryptox.SetPepperPath(path)

	require.NoError(t, cryptox.LoadPepper())

	generated, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	// A second load picks up the persisted value instead of regenerating.
	cryptox.SetPepperPath(path)
	require.NoError(t, cryptox.LoadPepper())

	persisted, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, generated, persisted)
}

func TestLoadPepperFailsOnBadPath(t *testing.T) {
	// A regular file where the parent directory should be makes the load
	// fail instead of exiting later mid-request.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	restore := filepath.Join(t.TempDir(), "pepper")
	cryptox.SetPepperPath(filepath.Join(blocker, "pepper"))
	t.Cleanup(func() { cryptox.SetPepperPath(restore) })

	require.Error(t, cryptox.LoadPepper())
}
