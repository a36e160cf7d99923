package memory

import (
	"context"
	"sync"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// RegistryStore is an in-memory implementation of storage.RegistryStore.
type RegistryStore struct {
	mu          sync.RWMutex
	partitions  map[string]*domain.RegistryPartition // keyed by token_type
	collections map[string]string                    // (token_type|collection_id) -> ledger_id
}

// NewRegistryStore creates a new in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		partitions:  make(map[string]*domain.RegistryPartition),
		collections: make(map[string]string),
	}
}

// GetPartition retrieves a partition by token type. Returns ErrNotFound if not exists.
func (s *RegistryStore) GetPartition(_ context.Context, tokenType string) (*domain.RegistryPartition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.partitions[tokenType]
	if !exists {
		return nil, storage.ErrNotFound
	}

	partCopy := *p
	return &partCopy, nil
}

// InsertPartition adds a new partition with Version 1.
func (s *RegistryStore) InsertPartition(_ context.Context, p *domain.RegistryPartition) error {
	if p == nil || p.TokenType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partitions[p.TokenType]; exists {
		return storage.ErrDuplicateKey
	}

	partCopy := *p
	partCopy.Version = 1
	s.partitions[p.TokenType] = &partCopy

	p.Version = 1
	return nil
}

// UpdatePartition writes the partition back, matching on p.Version and
// bumping it by one.
func (s *RegistryStore) UpdatePartition(_ context.Context, p *domain.RegistryPartition) error {
	if p == nil || p.TokenType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.partitions[p.TokenType]
	if !exists {
		return storage.ErrNotFound
	}
	if current.Version != p.Version {
		return storage.ErrVersionConflict
	}

	partCopy := *p
	partCopy.Version = p.Version + 1
	s.partitions[p.TokenType] = &partCopy

	p.Version = partCopy.Version
	return nil
}

// RegisterCollection binds a collection to a ledger inside a partition.
func (s *RegistryStore) RegisterCollection(_ context.Context, tokenType, collectionID, ledgerID string) error {
	if tokenType == "" || collectionID == "" || ledgerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := collectionKey(tokenType, collectionID)
	if _, exists := s.collections[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.collections[key] = ledgerID
	return nil
}

// GetLedgerID retrieves the ledger id registered for (token_type, collection_id).
func (s *RegistryStore) GetLedgerID(_ context.Context, tokenType, collectionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.collections[collectionKey(tokenType, collectionID)]
	if !exists {
		return "", storage.ErrNotFound
	}
	return id, nil
}

var _ storage.RegistryStore = (*RegistryStore)(nil)
