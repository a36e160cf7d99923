package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events []*domain.DomainEvent
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Append adds a new event.
func (s *EventStore) Append(_ context.Context, e *domain.DomainEvent) error {
	if e == nil || !e.EventType.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.events = append(s.events, &eventCopy)
	return nil
}

// GetByLedgerID retrieves all events for a ledger, ordered by timestamp ASC.
func (s *EventStore) GetByLedgerID(_ context.Context, ledgerID string) ([]*domain.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DomainEvent
	for _, e := range s.events {
		if e.LedgerID == ledgerID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// GetByTokenType retrieves all events in a partition, ordered by timestamp ASC.
func (s *EventStore) GetByTokenType(_ context.Context, tokenType string) ([]*domain.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DomainEvent
	for _, e := range s.events {
		if e.TokenType == tokenType {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.EventStore = (*EventStore)(nil)
