package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/roastery-portal/pkg/contentstore"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	key := "hellers_portal_content"

	_, err = backend.Get(ctx, key)
	assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)

	require.NoError(t, backend.Put(ctx, key, []byte(`{"version":"1.0"}`)))
	got, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0"}`, string(got))

	// overwrite replaces the whole blob
	require.NoError(t, backend.Put(ctx, key, []byte(`{}`)))
	got, err = backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	// no temp files are left behind
	files, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(tmp, key+".json"))
	assert.True(t, os.IsNotExist(err), "expected file removed, stat err=%v", err)

	assert.NoError(t, backend.Delete(ctx, key))
}

func TestFSBackend_MaxBytes(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir(), MaxBytes: 8})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "k", []byte("12345678")))
	err = backend.Put(ctx, "k", []byte("123456789"))
	assert.ErrorIs(t, err, contentstore.ErrQuotaExceeded)

	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(got))
}

func TestFSBackend_InvalidKey(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		assert.Error(t, backend.Put(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
