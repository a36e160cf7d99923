// Package stub provides an in-memory unique-item collection system for
// tests and the --use-memory server mode.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/artfilabs/tokenizer/internal/collection"
	"github.com/artfilabs/tokenizer/internal/domain"
)

// creatorCap implements collection.CreatorCap. Only this package mints
// values of the concrete type, which keeps capabilities unforgeable
// within the module.
type creatorCap struct {
	collectionID string
	creator      domain.Address
}

func (c *creatorCap) CollectionID() string    { return c.collectionID }
func (c *creatorCap) Creator() domain.Address { return c.creator }

// record is the stub's view of one collection.
type record struct {
	creator domain.Address
	supply  uint64
	frozen  bool
}

// Service is an in-memory implementation of collection.Service.
type Service struct {
	mu          sync.Mutex
	collections map[string]*record
	nextID      int
}

// NewService creates a new stub collection system.
func NewService() *Service {
	return &Service{
		collections: make(map[string]*record),
	}
}

var _ collection.Service = (*Service)(nil)

// CreateCollection registers a new collection with an initial item
// supply and returns the creator capability for it.
func (s *Service) CreateCollection(creator domain.Address, initialSupply uint64) collection.CreatorCap {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("collection-%04d", s.nextID)
	s.collections[id] = &record{creator: creator, supply: initialSupply}
	return &creatorCap{collectionID: id, creator: creator}
}

// CurrentSupply returns the item count of the capability's collection.
func (s *Service) CurrentSupply(_ context.Context, cap collection.CreatorCap) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[cap.CollectionID()]
	if !ok {
		return 0, collection.ErrUnknownCapability
	}
	return rec.supply, nil
}

// MintItems issues amount new items. Fails if the collection is frozen.
func (s *Service) MintItems(_ context.Context, cap collection.CreatorCap, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[cap.CollectionID()]
	if !ok {
		return collection.ErrUnknownCapability
	}
	if rec.frozen {
		return collection.ErrCollectionFrozen
	}
	rec.supply += amount
	return nil
}

// FreezeMinting permanently disables item minting for the collection.
func (s *Service) FreezeMinting(_ context.Context, cap collection.CreatorCap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[cap.CollectionID()]
	if !ok {
		return collection.ErrUnknownCapability
	}
	rec.frozen = true
	return nil
}
