// Package collection defines the slice of the unique-item collection
// system the tokenizer consumes. Collections live outside this module;
// the tokenizer only holds capabilities to them.
package collection

import (
	"context"
	"errors"

	"github.com/artfilabs/tokenizer/internal/domain"
)

// Collection system errors surfaced through the Service interface.
var (
	// ErrCollectionFrozen is returned when minting into a collection
	// whose own mint switch has been frozen.
	ErrCollectionFrozen = errors.New("collection minting is frozen")

	// ErrUnknownCapability is returned when a capability was not issued
	// by this collection system.
	ErrUnknownCapability = errors.New("unknown collection capability")
)

// CreatorCap is an opaque authorization token proving its holder created
// a specific collection. Capabilities are issued by the collection
// system; the tokenizer never constructs one and never trusts
// caller-supplied identity claims over what the capability carries.
type CreatorCap interface {
	// CollectionID returns the collection this capability governs.
	CollectionID() string

	// Creator returns the address the capability was issued to.
	Creator() domain.Address
}

// Service is the external unique-item collection system.
type Service interface {
	// CurrentSupply returns the number of items currently minted in the
	// capability's collection.
	CurrentSupply(ctx context.Context, cap CreatorCap) (uint64, error)

	// MintItems issues amount new unique items into the capability's
	// collection. Fails with ErrCollectionFrozen if the collection no
	// longer accepts mints.
	MintItems(ctx context.Context, cap CreatorCap, amount uint64) error

	// FreezeMinting permanently stops item minting for the capability's
	// collection. Irreversible.
	FreezeMinting(ctx context.Context, cap CreatorCap) error
}
