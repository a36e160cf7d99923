// Package idhash derives deterministic identifiers for ledgers and
// token descriptors using SHA256.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/artfilabs/tokenizer/internal/domain"
)

// ComputeLedgerID computes a deterministic ledger id.
// Formula: SHA256(token_type|collection_id|creator)
// Returns hex-encoded hash (64 characters).
//
// The (token_type, collection_id) pair is unique in the registry, so the
// derived id is collision-free across live ledgers.
func ComputeLedgerID(tokenType, collectionID string, creator domain.Address) string {
	data := fmt.Sprintf("%s|%s|%s", tokenType, collectionID, creator)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeDescriptorID computes a deterministic token descriptor id.
// Formula: SHA256(symbol|name|creator|created_at)
// Returns hex-encoded hash (64 characters).
func ComputeDescriptorID(symbol, name string, creator domain.Address, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", symbol, name, creator, createdAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
