package storage

import (
	"context"

	"github.com/artfilabs/tokenizer/internal/domain"
)

// DescriptorStore provides access to token_descriptors storage.
// Descriptors are written once and never updated.
type DescriptorStore interface {
	// Insert adds a new descriptor. Returns ErrDuplicateKey if descriptor_id exists.
	Insert(ctx context.Context, d *domain.TokenDescriptor) error

	// GetByID retrieves a descriptor by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, descriptorID string) (*domain.TokenDescriptor, error)
}

// LedgerStore provides access to collection_ledgers storage.
type LedgerStore interface {
	// Insert adds a new ledger with Version 1. Returns ErrDuplicateKey if ledger_id exists.
	Insert(ctx context.Context, l *domain.CollectionLedger) error

	// GetByID retrieves a ledger by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, ledgerID string) (*domain.CollectionLedger, error)

	// GetByCollection retrieves the ledger bound to (token_type, collection_id).
	// Returns ErrNotFound if not exists.
	GetByCollection(ctx context.Context, tokenType, collectionID string) (*domain.CollectionLedger, error)

	// Update writes the ledger back, matching on l.Version and bumping it
	// by one. Returns ErrVersionConflict if a concurrent writer got there
	// first, ErrNotFound if the ledger does not exist.
	Update(ctx context.Context, l *domain.CollectionLedger) error
}

// RegistryStore provides access to the tokenization registry: one
// partition per token type plus the collection -> ledger index inside it.
type RegistryStore interface {
	// GetPartition retrieves a partition by token type. Returns ErrNotFound if not exists.
	GetPartition(ctx context.Context, tokenType string) (*domain.RegistryPartition, error)

	// InsertPartition adds a new partition with Version 1. Returns
	// ErrDuplicateKey if the token type already has one.
	InsertPartition(ctx context.Context, p *domain.RegistryPartition) error

	// UpdatePartition writes the partition back, matching on p.Version and
	// bumping it by one. Returns ErrVersionConflict on a concurrent
	// writer, ErrNotFound if the partition does not exist.
	UpdatePartition(ctx context.Context, p *domain.RegistryPartition) error

	// RegisterCollection binds a collection to a ledger inside a
	// partition. Returns ErrDuplicateKey if the collection is already
	// registered for this token type.
	RegisterCollection(ctx context.Context, tokenType, collectionID, ledgerID string) error

	// GetLedgerID retrieves the ledger id registered for
	// (token_type, collection_id). Returns ErrNotFound if not exists.
	GetLedgerID(ctx context.Context, tokenType, collectionID string) (string, error)
}

// EventStore provides access to domain_events storage. Append-only:
// events are never updated or deleted.
type EventStore interface {
	// Append adds a new event.
	Append(ctx context.Context, e *domain.DomainEvent) error

	// GetByLedgerID retrieves all events for a ledger, ordered by timestamp ASC.
	GetByLedgerID(ctx context.Context, ledgerID string) ([]*domain.DomainEvent, error)

	// GetByTokenType retrieves all events in a partition, ordered by timestamp ASC.
	GetByTokenType(ctx context.Context, tokenType string) ([]*domain.DomainEvent, error)
}
