package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func TestRegistryStore_PartitionLifecycle(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	if _, err := store.GetPartition(ctx, "type-a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing partition, got %v", err)
	}

	p := &domain.RegistryPartition{
		TokenType: "type-a",
		CreatedAt: 1704067200000,
	}
	if err := store.InsertPartition(ctx, p); err != nil {
		t.Fatalf("InsertPartition failed: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("InsertPartition should set Version to 1, got %d", p.Version)
	}

	err := store.InsertPartition(ctx, &domain.RegistryPartition{TokenType: "type-a"})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	p.CollectionCount = 1
	p.TotalBackedTokens = 500
	if err := store.UpdatePartition(ctx, p); err != nil {
		t.Fatalf("UpdatePartition failed: %v", err)
	}

	got, err := store.GetPartition(ctx, "type-a")
	if err != nil {
		t.Fatalf("GetPartition failed: %v", err)
	}
	if got.TotalBackedTokens != 500 {
		t.Errorf("TotalBackedTokens mismatch: got %d, want 500", got.TotalBackedTokens)
	}
	if got.Version != 2 {
		t.Errorf("Version mismatch: got %d, want 2", got.Version)
	}
}

func TestRegistryStore_UpdatePartitionVersionConflict(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	if err := store.InsertPartition(ctx, &domain.RegistryPartition{TokenType: "type-a"}); err != nil {
		t.Fatalf("InsertPartition failed: %v", err)
	}

	first, _ := store.GetPartition(ctx, "type-a")
	second, _ := store.GetPartition(ctx, "type-a")

	first.TotalBackedTokens = 100
	if err := store.UpdatePartition(ctx, first); err != nil {
		t.Fatalf("First update failed: %v", err)
	}

	second.TotalBackedTokens = 200
	if err := store.UpdatePartition(ctx, second); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("Expected ErrVersionConflict, got %v", err)
	}
}

func TestRegistryStore_RegisterCollection(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	if err := store.RegisterCollection(ctx, "type-a", "coll-1", "ledger-1"); err != nil {
		t.Fatalf("RegisterCollection failed: %v", err)
	}

	// Same collection under the same token type is rejected.
	err := store.RegisterCollection(ctx, "type-a", "coll-1", "ledger-other")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Same collection under a different token type is independent.
	if err := store.RegisterCollection(ctx, "type-b", "coll-1", "ledger-2"); err != nil {
		t.Fatalf("RegisterCollection under other token type failed: %v", err)
	}

	id, err := store.GetLedgerID(ctx, "type-a", "coll-1")
	if err != nil {
		t.Fatalf("GetLedgerID failed: %v", err)
	}
	if id != "ledger-1" {
		t.Errorf("GetLedgerID mismatch: got %s, want ledger-1", id)
	}

	if _, err := store.GetLedgerID(ctx, "type-a", "coll-unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
