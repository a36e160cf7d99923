package clickhouse

import (
	"context"
	"fmt"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse. Domain
// events are append-only analytics data consumed by external indexers,
// which matches MergeTree's no-update model.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Append adds a new event.
func (s *EventStore) Append(ctx context.Context, e *domain.DomainEvent) error {
	if e == nil || !e.EventType.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO domain_events (
			event_type, token_type, ledger_id, collection_id, descriptor_id,
			creator, nft_amount, token_amount, tokens_per_nft, old_ratio, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		string(e.EventType),
		e.TokenType,
		e.LedgerID,
		e.CollectionID,
		e.DescriptorID,
		string(e.Creator),
		e.NFTAmount,
		e.TokenAmount,
		e.TokensPerNFT,
		e.OldRatio,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

// GetByLedgerID retrieves all events for a ledger, ordered by timestamp ASC.
func (s *EventStore) GetByLedgerID(ctx context.Context, ledgerID string) ([]*domain.DomainEvent, error) {
	query := eventSelect + ` WHERE ledger_id = ? ORDER BY timestamp_ms ASC`
	return s.queryEvents(ctx, query, ledgerID)
}

// GetByTokenType retrieves all events in a partition, ordered by timestamp ASC.
func (s *EventStore) GetByTokenType(ctx context.Context, tokenType string) ([]*domain.DomainEvent, error) {
	query := eventSelect + ` WHERE token_type = ? ORDER BY timestamp_ms ASC`
	return s.queryEvents(ctx, query, tokenType)
}

const eventSelect = `
	SELECT event_type, token_type, ledger_id, collection_id, descriptor_id,
	       creator, nft_amount, token_amount, tokens_per_nft, old_ratio, timestamp_ms
	FROM domain_events
`

func (s *EventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.DomainEvent, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query domain events: %w", err)
	}
	defer rows.Close()

	var result []*domain.DomainEvent
	for rows.Next() {
		var (
			e         domain.DomainEvent
			eventType string
			creator   string
		)
		err := rows.Scan(
			&eventType,
			&e.TokenType,
			&e.LedgerID,
			&e.CollectionID,
			&e.DescriptorID,
			&creator,
			&e.NFTAmount,
			&e.TokenAmount,
			&e.TokensPerNFT,
			&e.OldRatio,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		e.EventType = domain.EventType(eventType)
		e.Creator = domain.Address(creator)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domain events: %w", err)
	}

	return result, nil
}
