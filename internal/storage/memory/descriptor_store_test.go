package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

func TestDescriptorStore_InsertAndGet(t *testing.T) {
	store := NewDescriptorStore()
	ctx := context.Background()

	d := &domain.TokenDescriptor{
		DescriptorID: "desc-1",
		Name:         "Backing Token",
		Symbol:       "BACK",
		Description:  "fungible backing for collection items",
		IconURI:      "https://example.com/icon.png",
		Decimals:     9,
		MaxSupply:    domain.MaxBackedSupply,
		Creator:      "creator-1",
		CreatedAt:    1704067200000,
	}

	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "desc-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "BACK" {
		t.Errorf("Symbol mismatch: got %s, want BACK", got.Symbol)
	}
	if got.Decimals != 9 {
		t.Errorf("Decimals mismatch: got %d, want 9", got.Decimals)
	}
}

func TestDescriptorStore_DuplicateKey(t *testing.T) {
	store := NewDescriptorStore()
	ctx := context.Background()

	d := &domain.TokenDescriptor{DescriptorID: "desc-1", Symbol: "BACK"}
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	if err := store.Insert(ctx, d); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDescriptorStore_NotFound(t *testing.T) {
	store := NewDescriptorStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
