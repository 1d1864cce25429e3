package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/roastery-portal/pkg/contentstore"
)

func TestMemoryBackend_BasicOps(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)

	require.NoError(t, b.Put(ctx, "k", []byte("hello")))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	// returned slices do not alias stored data
	got[0] = 'j'
	again, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(again))

	require.NoError(t, b.Delete(ctx, "k"))
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)

	// deleting a missing key is fine
	assert.NoError(t, b.Delete(ctx, "k"))
}

func TestMemoryBackend_Capacity(t *testing.T) {
	b := New(WithCapacity(16))
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "k", []byte("0123456789")))

	err := b.Put(ctx, "k", []byte("0123456789abcdef"))
	assert.ErrorIs(t, err, contentstore.ErrQuotaExceeded)

	// the previous value survives a refused write
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
	assert.Equal(t, 10, b.Size("k"))
}
