package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first claim succeeds, duplicate is rejected", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "terminal-1:receipt-42", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, "terminal-1:receipt-42", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("distinct keys do not interfere", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "terminal-2:receipt-42", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "short-lived", time.Millisecond)
		require.NoError(t, err)
		assert.True(t, claimed)

		time.Sleep(5 * time.Millisecond)

		claimed, err = store.MarkProcessed(ctx, "short-lived", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	claimed, err := store.MarkProcessed(ctx, "failed-posting", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, store.Release(ctx, "failed-posting"))

	claimed, err = store.MarkProcessed(ctx, "failed-posting", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
