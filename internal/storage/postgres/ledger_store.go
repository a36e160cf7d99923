package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// LedgerStore implements storage.LedgerStore using PostgreSQL.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// Insert adds a new ledger with Version 1. Returns ErrDuplicateKey if
// ledger_id or the (token_type, collection_id) binding exists.
func (s *LedgerStore) Insert(ctx context.Context, l *domain.CollectionLedger) error {
	query := `
		INSERT INTO collection_ledgers (
			ledger_id, token_type, collection_id, descriptor_id,
			tokens_per_nft, total_nfts, total_tokens,
			creator, is_active, created_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
	`

	_, err := s.pool.Exec(ctx, query,
		l.LedgerID,
		l.TokenType,
		l.CollectionID,
		l.DescriptorID,
		int64(l.TokensPerNFT),
		int64(l.TotalNFTs),
		int64(l.TotalTokens),
		string(l.Creator),
		l.IsActive,
		l.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert collection ledger: %w", err)
	}

	l.Version = 1
	return nil
}

// GetByID retrieves a ledger by its ID. Returns ErrNotFound if not exists.
func (s *LedgerStore) GetByID(ctx context.Context, ledgerID string) (*domain.CollectionLedger, error) {
	query := ledgerSelect + ` WHERE ledger_id = $1`

	row := s.pool.QueryRow(ctx, query, ledgerID)
	l, err := scanLedger(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger by id: %w", err)
	}
	return l, nil
}

// GetByCollection retrieves the ledger bound to (token_type, collection_id).
func (s *LedgerStore) GetByCollection(ctx context.Context, tokenType, collectionID string) (*domain.CollectionLedger, error) {
	query := ledgerSelect + ` WHERE token_type = $1 AND collection_id = $2`

	row := s.pool.QueryRow(ctx, query, tokenType, collectionID)
	l, err := scanLedger(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ledger by collection: %w", err)
	}
	return l, nil
}

// Update writes the ledger back, matching on l.Version and bumping it by
// one. Returns ErrVersionConflict if a concurrent writer got there first.
func (s *LedgerStore) Update(ctx context.Context, l *domain.CollectionLedger) error {
	query := `
		UPDATE collection_ledgers
		SET tokens_per_nft = $1,
		    total_nfts = $2,
		    total_tokens = $3,
		    is_active = $4,
		    version = version + 1
		WHERE ledger_id = $5 AND version = $6
	`

	tag, err := s.pool.Exec(ctx, query,
		int64(l.TokensPerNFT),
		int64(l.TotalNFTs),
		int64(l.TotalTokens),
		l.IsActive,
		l.LedgerID,
		l.Version,
	)
	if err != nil {
		return fmt.Errorf("update collection ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a version race.
		if _, err := s.GetByID(ctx, l.LedgerID); err != nil {
			return err
		}
		return storage.ErrVersionConflict
	}

	l.Version++
	return nil
}

const ledgerSelect = `
	SELECT ledger_id, token_type, collection_id, descriptor_id,
	       tokens_per_nft, total_nfts, total_tokens,
	       creator, is_active, created_at, version
	FROM collection_ledgers
`

// scanLedger scans a single row into CollectionLedger.
func scanLedger(row pgx.Row) (*domain.CollectionLedger, error) {
	var (
		l            domain.CollectionLedger
		tokensPerNFT int64
		totalNFTs    int64
		totalTokens  int64
		creator      string
	)

	err := row.Scan(
		&l.LedgerID,
		&l.TokenType,
		&l.CollectionID,
		&l.DescriptorID,
		&tokensPerNFT,
		&totalNFTs,
		&totalTokens,
		&creator,
		&l.IsActive,
		&l.CreatedAt,
		&l.Version,
	)
	if err != nil {
		return nil, err
	}

	l.TokensPerNFT = uint64(tokensPerNFT)
	l.TotalNFTs = uint64(totalNFTs)
	l.TotalTokens = uint64(totalTokens)
	l.Creator = domain.Address(creator)
	return &l, nil
}
