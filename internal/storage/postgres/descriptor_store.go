package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// DescriptorStore implements storage.DescriptorStore using PostgreSQL.
type DescriptorStore struct {
	pool *Pool
}

// NewDescriptorStore creates a new DescriptorStore.
func NewDescriptorStore(pool *Pool) *DescriptorStore {
	return &DescriptorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DescriptorStore = (*DescriptorStore)(nil)

// Insert adds a new descriptor. Returns ErrDuplicateKey if descriptor_id exists.
func (s *DescriptorStore) Insert(ctx context.Context, d *domain.TokenDescriptor) error {
	query := `
		INSERT INTO token_descriptors (
			descriptor_id, name, symbol, description, icon_uri, decimals, max_supply, creator, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		d.DescriptorID,
		d.Name,
		d.Symbol,
		d.Description,
		d.IconURI,
		d.Decimals,
		int64(d.MaxSupply),
		string(d.Creator),
		d.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token descriptor: %w", err)
	}
	return nil
}

// GetByID retrieves a descriptor by its ID. Returns ErrNotFound if not exists.
func (s *DescriptorStore) GetByID(ctx context.Context, descriptorID string) (*domain.TokenDescriptor, error) {
	query := `
		SELECT descriptor_id, name, symbol, description, icon_uri, decimals, max_supply, creator, created_at
		FROM token_descriptors
		WHERE descriptor_id = $1
	`

	row := s.pool.QueryRow(ctx, query, descriptorID)
	d, err := scanDescriptor(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token descriptor by id: %w", err)
	}
	return d, nil
}

// scanDescriptor scans a single row into TokenDescriptor.
func scanDescriptor(row pgx.Row) (*domain.TokenDescriptor, error) {
	var (
		d         domain.TokenDescriptor
		maxSupply int64
		creator   string
	)

	err := row.Scan(
		&d.DescriptorID,
		&d.Name,
		&d.Symbol,
		&d.Description,
		&d.IconURI,
		&d.Decimals,
		&maxSupply,
		&creator,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.MaxSupply = uint64(maxSupply)
	d.Creator = domain.Address(creator)
	return &d, nil
}
