package memory

import (
	"context"
	"sync"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
type LedgerStore struct {
	mu           sync.RWMutex
	data         map[string]*domain.CollectionLedger // keyed by ledger_id
	byCollection map[string]string                   // (token_type|collection_id) -> ledger_id
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		data:         make(map[string]*domain.CollectionLedger),
		byCollection: make(map[string]string),
	}
}

func collectionKey(tokenType, collectionID string) string {
	return tokenType + "|" + collectionID
}

// Insert adds a new ledger with Version 1. Returns ErrDuplicateKey if ledger_id exists.
func (s *LedgerStore) Insert(_ context.Context, l *domain.CollectionLedger) error {
	if l == nil || l.LedgerID == "" || l.TokenType == "" || l.CollectionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[l.LedgerID]; exists {
		return storage.ErrDuplicateKey
	}
	key := collectionKey(l.TokenType, l.CollectionID)
	if _, exists := s.byCollection[key]; exists {
		return storage.ErrDuplicateKey
	}

	ledgerCopy := *l
	ledgerCopy.Version = 1
	s.data[l.LedgerID] = &ledgerCopy
	s.byCollection[key] = l.LedgerID

	l.Version = 1
	return nil
}

// GetByID retrieves a ledger by its ID. Returns ErrNotFound if not exists.
func (s *LedgerStore) GetByID(_ context.Context, ledgerID string) (*domain.CollectionLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.data[ledgerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	ledgerCopy := *l
	return &ledgerCopy, nil
}

// GetByCollection retrieves the ledger bound to (token_type, collection_id).
func (s *LedgerStore) GetByCollection(_ context.Context, tokenType, collectionID string) (*domain.CollectionLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byCollection[collectionKey(tokenType, collectionID)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	ledgerCopy := *s.data[id]
	return &ledgerCopy, nil
}

// Update writes the ledger back, matching on l.Version and bumping it by one.
func (s *LedgerStore) Update(_ context.Context, l *domain.CollectionLedger) error {
	if l == nil || l.LedgerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[l.LedgerID]
	if !exists {
		return storage.ErrNotFound
	}
	if current.Version != l.Version {
		return storage.ErrVersionConflict
	}

	ledgerCopy := *l
	ledgerCopy.Version = l.Version + 1
	s.data[l.LedgerID] = &ledgerCopy

	l.Version = ledgerCopy.Version
	return nil
}

var _ storage.LedgerStore = (*LedgerStore)(nil)
