package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func testLedger(id string) *domain.CollectionLedger {
	return &domain.CollectionLedger{
		LedgerID:     id,
		TokenType:    "token-type-" + id,
		CollectionID: "collection-" + id,
		DescriptorID: "descriptor-" + id,
		TokensPerNFT: 5,
		TotalNFTs:    100,
		TotalTokens:  500,
		Creator:      domain.Address("CreatorAddr123"),
		IsActive:     true,
		CreatedAt:    1700000000000,
	}
}

func TestLedgerStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	ledger := testLedger("ledger-001")

	err := store.Insert(ctx, ledger)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ledger.Version)

	retrieved, err := store.GetByID(ctx, "ledger-001")
	require.NoError(t, err)

	assert.Equal(t, ledger.LedgerID, retrieved.LedgerID)
	assert.Equal(t, ledger.TokenType, retrieved.TokenType)
	assert.Equal(t, ledger.CollectionID, retrieved.CollectionID)
	assert.Equal(t, ledger.DescriptorID, retrieved.DescriptorID)
	assert.Equal(t, ledger.TokensPerNFT, retrieved.TokensPerNFT)
	assert.Equal(t, ledger.TotalNFTs, retrieved.TotalNFTs)
	assert.Equal(t, ledger.TotalTokens, retrieved.TotalTokens)
	assert.Equal(t, ledger.Creator, retrieved.Creator)
	assert.True(t, retrieved.IsActive)
	assert.Equal(t, int64(1), retrieved.Version)
}

func TestLedgerStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, testLedger("ledger-dup"))
	require.NoError(t, err)

	err = store.Insert(ctx, testLedger("ledger-dup"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestLedgerStore_InsertDuplicateBinding(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, testLedger("ledger-a"))
	require.NoError(t, err)

	// Different ledger id, same (token_type, collection_id) binding.
	other := testLedger("ledger-b")
	other.TokenType = "token-type-ledger-a"
	other.CollectionID = "collection-ledger-a"
	err = store.Insert(ctx, other)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestLedgerStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLedgerStore_GetByCollection(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	ledger := testLedger("ledger-col")
	err := store.Insert(ctx, ledger)
	require.NoError(t, err)

	retrieved, err := store.GetByCollection(ctx, ledger.TokenType, ledger.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.LedgerID, retrieved.LedgerID)

	_, err = store.GetByCollection(ctx, ledger.TokenType, "other-collection")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLedgerStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	ledger := testLedger("ledger-upd")
	err := store.Insert(ctx, ledger)
	require.NoError(t, err)

	ledger.TotalNFTs = 110
	ledger.TotalTokens = 550
	err = store.Update(ctx, ledger)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ledger.Version)

	retrieved, err := store.GetByID(ctx, "ledger-upd")
	require.NoError(t, err)
	assert.Equal(t, uint64(110), retrieved.TotalNFTs)
	assert.Equal(t, uint64(550), retrieved.TotalTokens)
	assert.Equal(t, int64(2), retrieved.Version)
}

func TestLedgerStore_UpdateVersionConflict(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)
	ctx := context.Background()

	ledger := testLedger("ledger-race")
	err := store.Insert(ctx, ledger)
	require.NoError(t, err)

	// Two readers hold the same version.
	first, err := store.GetByID(ctx, "ledger-race")
	require.NoError(t, err)
	second, err := store.GetByID(ctx, "ledger-race")
	require.NoError(t, err)

	first.TotalNFTs = 101
	err = store.Update(ctx, first)
	require.NoError(t, err)

	second.TotalNFTs = 102
	err = store.Update(ctx, second)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestLedgerStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewLedgerStore(pool)

	ledger := testLedger("ledger-missing")
	ledger.Version = 1
	err := store.Update(context.Background(), ledger)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
