package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore(t *testing.T) {
	store := NewProfileStore(filepath.Join(t.TempDir(), "profile"))

	dir, err := store.Dir()
	require.NoError(t, err)
	assert.DirExists(t, dir)

	cookies := filepath.Join(dir, "Cookies")
	require.NoError(t, os.WriteFile(cookies, []byte("session=1"), 0600))

	require.NoError(t, store.ClearAllCookies(context.Background()))
	assert.NoFileExists(t, cookies)
	assert.DirExists(t, dir)
}

func TestProfileStoreHonoursContext(t *testing.T) {
	store := NewProfileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.ClearAllCookies(ctx), context.Canceled)
}
