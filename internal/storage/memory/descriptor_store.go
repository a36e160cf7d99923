package memory

import (
	"context"
	"sync"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// DescriptorStore is an in-memory implementation of storage.DescriptorStore.
type DescriptorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenDescriptor // keyed by descriptor_id
}

// NewDescriptorStore creates a new in-memory descriptor store.
func NewDescriptorStore() *DescriptorStore {
	return &DescriptorStore{
		data: make(map[string]*domain.TokenDescriptor),
	}
}

// Insert adds a new descriptor. Returns ErrDuplicateKey if descriptor_id exists.
func (s *DescriptorStore) Insert(_ context.Context, d *domain.TokenDescriptor) error {
	if d == nil || d.DescriptorID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.DescriptorID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	descCopy := *d
	s.data[d.DescriptorID] = &descCopy
	return nil
}

// GetByID retrieves a descriptor by its ID. Returns ErrNotFound if not exists.
func (s *DescriptorStore) GetByID(_ context.Context, descriptorID string) (*domain.TokenDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[descriptorID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	descCopy := *d
	return &descCopy, nil
}

var _ storage.DescriptorStore = (*DescriptorStore)(nil)
