package postgres

import (
	"context"
	"fmt"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// RegistryStore implements storage.RegistryStore using PostgreSQL.
// Partitions live in registry_partitions; the collection -> ledger index
// lives in registry_collections with a composite primary key.
type RegistryStore struct {
	pool *Pool
}

// NewRegistryStore creates a new RegistryStore.
func NewRegistryStore(pool *Pool) *RegistryStore {
	return &RegistryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RegistryStore = (*RegistryStore)(nil)

// GetPartition retrieves a partition by token type. Returns ErrNotFound if not exists.
func (s *RegistryStore) GetPartition(ctx context.Context, tokenType string) (*domain.RegistryPartition, error) {
	query := `
		SELECT token_type, collection_count, total_backed_tokens, created_at, version
		FROM registry_partitions
		WHERE token_type = $1
	`

	var (
		p                 domain.RegistryPartition
		collectionCount   int64
		totalBackedTokens int64
	)
	err := s.pool.QueryRow(ctx, query, tokenType).Scan(
		&p.TokenType,
		&collectionCount,
		&totalBackedTokens,
		&p.CreatedAt,
		&p.Version,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get registry partition: %w", err)
	}

	p.CollectionCount = uint64(collectionCount)
	p.TotalBackedTokens = uint64(totalBackedTokens)
	return &p, nil
}

// InsertPartition adds a new partition with Version 1.
func (s *RegistryStore) InsertPartition(ctx context.Context, p *domain.RegistryPartition) error {
	query := `
		INSERT INTO registry_partitions (
			token_type, collection_count, total_backed_tokens, created_at, version
		) VALUES ($1, $2, $3, $4, 1)
	`

	_, err := s.pool.Exec(ctx, query,
		p.TokenType,
		int64(p.CollectionCount),
		int64(p.TotalBackedTokens),
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert registry partition: %w", err)
	}

	p.Version = 1
	return nil
}

// UpdatePartition writes the partition back, matching on p.Version and
// bumping it by one.
func (s *RegistryStore) UpdatePartition(ctx context.Context, p *domain.RegistryPartition) error {
	query := `
		UPDATE registry_partitions
		SET collection_count = $1,
		    total_backed_tokens = $2,
		    version = version + 1
		WHERE token_type = $3 AND version = $4
	`

	tag, err := s.pool.Exec(ctx, query,
		int64(p.CollectionCount),
		int64(p.TotalBackedTokens),
		p.TokenType,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("update registry partition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPartition(ctx, p.TokenType); err != nil {
			return err
		}
		return storage.ErrVersionConflict
	}

	p.Version++
	return nil
}

// RegisterCollection binds a collection to a ledger inside a partition.
func (s *RegistryStore) RegisterCollection(ctx context.Context, tokenType, collectionID, ledgerID string) error {
	query := `
		INSERT INTO registry_collections (token_type, collection_id, ledger_id)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, tokenType, collectionID, ledgerID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("register collection: %w", err)
	}
	return nil
}

// GetLedgerID retrieves the ledger id registered for (token_type, collection_id).
func (s *RegistryStore) GetLedgerID(ctx context.Context, tokenType, collectionID string) (string, error) {
	query := `
		SELECT ledger_id
		FROM registry_collections
		WHERE token_type = $1 AND collection_id = $2
	`

	var ledgerID string
	err := s.pool.QueryRow(ctx, query, tokenType, collectionID).Scan(&ledgerID)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get registered ledger id: %w", err)
	}
	return ledgerID, nil
}
