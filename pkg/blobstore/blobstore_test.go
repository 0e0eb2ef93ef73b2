package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "doctors", "a"), 0o755))
	obj := filepath.Join(root, "doctors", "a", "scan.png")
	require.NoError(t, os.WriteFile(obj, []byte("png"), 0o600))

	store := NewLocal(root)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "doctors/a/scan.png"))
	_, err := os.Stat(obj)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "doctors/a/scan.png"), "missing objects are fine")
	assert.Error(t, store.Delete(ctx, "../etc/passwd"))
	assert.Error(t, store.Delete(ctx, ""))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.Delete(cancelled, "x"), context.Canceled)
}

func TestMemoryKeys(t *testing.T) {
	m := &Memory{}
	require.NoError(t, m.Delete(context.Background(), "a"))
	require.NoError(t, m.Delete(context.Background(), "b"))

	keys := m.Keys()
	assert.Equal(t, []string{"a", "b"}, keys)
	keys[0] = "changed"
	assert.Equal(t, "a", m.Keys()[0])
}
