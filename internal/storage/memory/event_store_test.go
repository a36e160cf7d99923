package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func TestEventStore_AppendAndGet(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.DomainEvent{
		{EventType: domain.EventTokenizedCollectionExtended, TokenType: "type-a", LedgerID: "ledger-1", Timestamp: 2000},
		{EventType: domain.EventTokenizedCollectionCreated, TokenType: "type-a", LedgerID: "ledger-1", Timestamp: 1000},
		{EventType: domain.EventTokenizedCollectionCreated, TokenType: "type-a", LedgerID: "ledger-2", Timestamp: 1500},
		{EventType: domain.EventTokenCreated, TokenType: "type-b", DescriptorID: "desc-b", Timestamp: 500},
	}
	for _, e := range events {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	byLedger, err := store.GetByLedgerID(ctx, "ledger-1")
	if err != nil {
		t.Fatalf("GetByLedgerID failed: %v", err)
	}
	if len(byLedger) != 2 {
		t.Fatalf("expected 2 events for ledger-1, got %d", len(byLedger))
	}
	if byLedger[0].EventType != domain.EventTokenizedCollectionCreated {
		t.Errorf("events not ordered by timestamp: first is %s", byLedger[0].EventType)
	}

	byType, err := store.GetByTokenType(ctx, "type-a")
	if err != nil {
		t.Fatalf("GetByTokenType failed: %v", err)
	}
	if len(byType) != 3 {
		t.Errorf("expected 3 events for type-a, got %d", len(byType))
	}
}

func TestEventStore_AppendInvalid(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	err := store.Append(ctx, &domain.DomainEvent{EventType: "BOGUS"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
