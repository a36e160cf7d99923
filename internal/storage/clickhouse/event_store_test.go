package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func TestEventStore_AppendAndGetByLedgerID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(conn)
	ctx := context.Background()

	events := []*domain.DomainEvent{
		{
			EventType:    domain.EventTokenizedCollectionCreated,
			TokenType:    "token-type-1",
			LedgerID:     "ledger-1",
			CollectionID: "collection-1",
			DescriptorID: "descriptor-1",
			Creator:      domain.Address("CreatorAddr123"),
			NFTAmount:    100,
			TokenAmount:  500,
			TokensPerNFT: 5,
			Timestamp:    1700000000000,
		},
		{
			EventType:    domain.EventTokenizedCollectionExtended,
			TokenType:    "token-type-1",
			LedgerID:     "ledger-1",
			CollectionID: "collection-1",
			DescriptorID: "descriptor-1",
			Creator:      domain.Address("CreatorAddr123"),
			NFTAmount:    10,
			TokenAmount:  50,
			TokensPerNFT: 5,
			Timestamp:    1700000001000,
		},
		{
			EventType:    domain.EventTokenizedCollectionCreated,
			TokenType:    "token-type-1",
			LedgerID:     "ledger-other",
			CollectionID: "collection-2",
			DescriptorID: "descriptor-1",
			Creator:      domain.Address("CreatorAddr123"),
			NFTAmount:    20,
			TokenAmount:  200,
			TokensPerNFT: 10,
			Timestamp:    1700000002000,
		},
	}
	for _, e := range events {
		require.NoError(t, store.Append(ctx, e))
	}

	retrieved, err := store.GetByLedgerID(ctx, "ledger-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	// Ordered by timestamp ascending.
	assert.Equal(t, domain.EventTokenizedCollectionCreated, retrieved[0].EventType)
	assert.Equal(t, domain.EventTokenizedCollectionExtended, retrieved[1].EventType)
	assert.Equal(t, uint64(100), retrieved[0].NFTAmount)
	assert.Equal(t, uint64(500), retrieved[0].TokenAmount)
	assert.Equal(t, domain.Address("CreatorAddr123"), retrieved[0].Creator)
}

func TestEventStore_GetByTokenType(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(conn)
	ctx := context.Background()

	err := store.Append(ctx, &domain.DomainEvent{
		EventType: domain.EventTokenCreated,
		TokenType: "token-type-a",
		Creator:   domain.Address("CreatorAddr123"),
		Timestamp: 1700000000000,
	})
	require.NoError(t, err)

	err = store.Append(ctx, &domain.DomainEvent{
		EventType: domain.EventTokenCreated,
		TokenType: "token-type-b",
		Creator:   domain.Address("CreatorAddr123"),
		Timestamp: 1700000001000,
	})
	require.NoError(t, err)

	retrieved, err := store.GetByTokenType(ctx, "token-type-a")
	require.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Equal(t, "token-type-a", retrieved[0].TokenType)

	empty, err := store.GetByTokenType(ctx, "token-type-none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventStore_AppendInvalid(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewEventStore(conn)
	ctx := context.Background()

	err := store.Append(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Append(ctx, &domain.DomainEvent{EventType: "BOGUS"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
