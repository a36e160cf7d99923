package idhash

import (
	"testing"

	"github.com/artfilabs/tokenizer/internal/domain"
)

func TestComputeLedgerID(t *testing.T) {
	tests := []struct {
		name         string
		tokenType    string
		collectionID string
		creator      domain.Address
	}{
		{
			name:         "typical inputs",
			tokenType:    "descriptor-abc",
			collectionID: "collection-123",
			creator:      domain.Address("CreatorAddr111"),
		},
		{
			name:         "empty collection",
			tokenType:    "descriptor-abc",
			collectionID: "",
			creator:      domain.Address("CreatorAddr111"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLedgerID(tt.tokenType, tt.collectionID, tt.creator)
			if len(got) != 64 {
				t.Errorf("ComputeLedgerID() length = %d, want 64", len(got))
			}

			// Same inputs must produce the same id
			got2 := ComputeLedgerID(tt.tokenType, tt.collectionID, tt.creator)
			if got != got2 {
				t.Errorf("ComputeLedgerID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeLedgerID_DifferentInputs(t *testing.T) {
	base := ComputeLedgerID("type-a", "coll-1", "creator-1")

	if got := ComputeLedgerID("type-b", "coll-1", "creator-1"); got == base {
		t.Error("different token type should produce different id")
	}
	if got := ComputeLedgerID("type-a", "coll-2", "creator-1"); got == base {
		t.Error("different collection should produce different id")
	}
	if got := ComputeLedgerID("type-a", "coll-1", "creator-2"); got == base {
		t.Error("different creator should produce different id")
	}
}

func TestComputeDescriptorID(t *testing.T) {
	base := ComputeDescriptorID("BACK", "Backing Token", "creator-1", 1704067200000)
	if len(base) != 64 {
		t.Fatalf("ComputeDescriptorID() length = %d, want 64", len(base))
	}

	same := ComputeDescriptorID("BACK", "Backing Token", "creator-1", 1704067200000)
	if base != same {
		t.Error("ComputeDescriptorID() not deterministic")
	}

	if got := ComputeDescriptorID("BACK", "Backing Token", "creator-1", 1704067200001); got == base {
		t.Error("different timestamp should produce different id")
	}
	if got := ComputeDescriptorID("OTHER", "Backing Token", "creator-1", 1704067200000); got == base {
		t.Error("different symbol should produce different id")
	}
}
