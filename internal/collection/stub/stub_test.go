package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/artfilabs/tokenizer/internal/collection"
	"github.com/artfilabs/tokenizer/internal/domain"
)

func TestCollectionLifecycle(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	creator := domain.Address("CreatorAddr123")

	cap := svc.CreateCollection(creator, 100)
	if cap.Creator() != creator {
		t.Errorf("expected creator %s, got %s", creator, cap.Creator())
	}

	supply, err := svc.CurrentSupply(ctx, cap)
	if err != nil {
		t.Fatalf("CurrentSupply failed: %v", err)
	}
	if supply != 100 {
		t.Errorf("expected supply 100, got %d", supply)
	}

	if err := svc.MintItems(ctx, cap, 10); err != nil {
		t.Fatalf("MintItems failed: %v", err)
	}
	supply, _ = svc.CurrentSupply(ctx, cap)
	if supply != 110 {
		t.Errorf("expected supply 110, got %d", supply)
	}

	if err := svc.FreezeMinting(ctx, cap); err != nil {
		t.Fatalf("FreezeMinting failed: %v", err)
	}
	err = svc.MintItems(ctx, cap, 1)
	if !errors.Is(err, collection.ErrCollectionFrozen) {
		t.Errorf("expected ErrCollectionFrozen, got %v", err)
	}
}

func TestDistinctCollectionIDs(t *testing.T) {
	svc := NewService()
	creator := domain.Address("CreatorAddr123")

	a := svc.CreateCollection(creator, 1)
	b := svc.CreateCollection(creator, 1)
	if a.CollectionID() == b.CollectionID() {
		t.Errorf("collection ids must be unique, got %s twice", a.CollectionID())
	}
}

func TestUnknownCapability(t *testing.T) {
	svc := NewService()
	other := NewService()
	cap := other.CreateCollection(domain.Address("CreatorAddr123"), 1)

	_, err := svc.CurrentSupply(context.Background(), cap)
	if !errors.Is(err, collection.ErrUnknownCapability) {
		t.Errorf("expected ErrUnknownCapability, got %v", err)
	}
}
