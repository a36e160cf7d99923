package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func TestRegistryStore_PartitionLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRegistryStore(pool)
	ctx := context.Background()

	partition := &domain.RegistryPartition{
		TokenType:         "token-type-1",
		CollectionCount:   1,
		TotalBackedTokens: 500,
		CreatedAt:         1700000000000,
	}

	err := store.InsertPartition(ctx, partition)
	require.NoError(t, err)
	assert.Equal(t, int64(1), partition.Version)

	retrieved, err := store.GetPartition(ctx, "token-type-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), retrieved.CollectionCount)
	assert.Equal(t, uint64(500), retrieved.TotalBackedTokens)

	retrieved.CollectionCount = 2
	retrieved.TotalBackedTokens = 900
	err = store.UpdatePartition(ctx, retrieved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), retrieved.Version)

	final, err := store.GetPartition(ctx, "token-type-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), final.CollectionCount)
	assert.Equal(t, uint64(900), final.TotalBackedTokens)
}

func TestRegistryStore_GetPartitionNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRegistryStore(pool)

	_, err := store.GetPartition(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistryStore_InsertPartitionDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRegistryStore(pool)
	ctx := context.Background()

	p := &domain.RegistryPartition{TokenType: "token-type-dup", CreatedAt: 1}
	err := store.InsertPartition(ctx, p)
	require.NoError(t, err)

	err = store.InsertPartition(ctx, &domain.RegistryPartition{TokenType: "token-type-dup", CreatedAt: 2})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRegistryStore_UpdatePartitionVersionConflict(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRegistryStore(pool)
	ctx := context.Background()

	p := &domain.RegistryPartition{TokenType: "token-type-race", CreatedAt: 1}
	err := store.InsertPartition(ctx, p)
	require.NoError(t, err)

	first, err := store.GetPartition(ctx, "token-type-race")
	require.NoError(t, err)
	second, err := store.GetPartition(ctx, "token-type-race")
	require.NoError(t, err)

	first.TotalBackedTokens = 100
	err = store.UpdatePartition(ctx, first)
	require.NoError(t, err)

	second.TotalBackedTokens = 200
	err = store.UpdatePartition(ctx, second)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestRegistryStore_RegisterCollection(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRegistryStore(pool)
	ctx := context.Background()

	err := store.RegisterCollection(ctx, "token-type-1", "collection-1", "ledger-1")
	require.NoError(t, err)

	ledgerID, err := store.GetLedgerID(ctx, "token-type-1", "collection-1")
	require.NoError(t, err)
	assert.Equal(t, "ledger-1", ledgerID)

	// Same pair is rejected.
	err = store.RegisterCollection(ctx, "token-type-1", "collection-1", "ledger-other")
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same collection under a different token type is fine.
	err = store.RegisterCollection(ctx, "token-type-2", "collection-1", "ledger-2")
	require.NoError(t, err)

	_, err = store.GetLedgerID(ctx, "token-type-1", "collection-unknown")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
