package tokenization

import (
	"context"
	"errors"
	"fmt"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/safemath"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// CollectionInfo is the read-model view of one tokenized collection.
type CollectionInfo struct {
	LedgerID     string         `json:"ledger_id"`
	TokenType    string         `json:"token_type"`
	CollectionID string         `json:"collection_id"`
	DescriptorID string         `json:"descriptor_id"`
	TokensPerNFT uint64         `json:"tokens_per_nft"`
	TotalNFTs    uint64         `json:"total_nfts"`
	TotalTokens  uint64         `json:"total_tokens"`
	Creator      domain.Address `json:"creator"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    int64          `json:"created_at"`
}

// GetCollectionInfo returns the full state of a ledger.
func (s *Service) GetCollectionInfo(ctx context.Context, ledgerID string) (*CollectionInfo, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return collectionInfoFrom(ledger), nil
}

// GetCollectionInfoByCollection returns the full ledger state for a
// registered (token type, collection) pair, without requiring the
// caller to know the ledger ID.
func (s *Service) GetCollectionInfoByCollection(ctx context.Context, tokenType, collectionID string) (*CollectionInfo, error) {
	ledger, err := s.ledgers.GetByCollection(ctx, tokenType, collectionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return collectionInfoFrom(ledger), nil
}

func collectionInfoFrom(ledger *domain.CollectionLedger) *CollectionInfo {
	return &CollectionInfo{
		LedgerID:     ledger.LedgerID,
		TokenType:    ledger.TokenType,
		CollectionID: ledger.CollectionID,
		DescriptorID: ledger.DescriptorID,
		TokensPerNFT: ledger.TokensPerNFT,
		TotalNFTs:    ledger.TotalNFTs,
		TotalTokens:  ledger.TotalTokens,
		Creator:      ledger.Creator,
		IsActive:     ledger.IsActive,
		CreatedAt:    ledger.CreatedAt,
	}
}

// GetRegistryStats returns per-token-type registry aggregates. A token
// type with no registered collections yields zero stats, not an error.
func (s *Service) GetRegistryStats(ctx context.Context, tokenType string) (*domain.RegistryStats, error) {
	partition, err := s.registry.GetPartition(ctx, tokenType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &domain.RegistryStats{TokenType: tokenType}, nil
		}
		return nil, fmt.Errorf("get partition: %w", err)
	}
	return &domain.RegistryStats{
		TokenType:         partition.TokenType,
		CollectionCount:   partition.CollectionCount,
		TotalBackedTokens: partition.TotalBackedTokens,
	}, nil
}

// IsCollectionRegistered reports whether the collection is bound to the
// token type.
func (s *Service) IsCollectionRegistered(ctx context.Context, tokenType, collectionID string) (bool, error) {
	_, err := s.registry.GetLedgerID(ctx, tokenType, collectionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get ledger id: %w", err)
	}
	return true, nil
}

// GetTokenizedCollectionID resolves the ledger ID for a registered
// (token type, collection) pair.
func (s *Service) GetTokenizedCollectionID(ctx context.Context, tokenType, collectionID string) (string, error) {
	ledgerID, err := s.registry.GetLedgerID(ctx, tokenType, collectionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNotRegistered
		}
		return "", fmt.Errorf("get ledger id: %w", err)
	}
	return ledgerID, nil
}

// GetTokensPerNFT returns the ledger's current exchange ratio.
func (s *Service) GetTokensPerNFT(ctx context.Context, ledgerID string) (uint64, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}
	return ledger.TokensPerNFT, nil
}

// IsCollectionActive reports whether the ledger still accepts mints.
func (s *Service) IsCollectionActive(ctx context.Context, ledgerID string) (bool, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return false, err
	}
	return ledger.IsActive, nil
}

// CalculateRedemptionCost returns the fungible tokens needed to redeem
// nftCount items at the ledger's current ratio.
func (s *Service) CalculateRedemptionCost(ctx context.Context, ledgerID string, nftCount uint64) (uint64, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}
	cost, err := safemath.Mul(nftCount, ledger.TokensPerNFT)
	if err != nil {
		return 0, ErrOverflow
	}
	return cost, nil
}

// CalculateNFTsRedeemable returns how many whole items tokenAmount can
// redeem at the ledger's current ratio. The division truncates.
func (s *Service) CalculateNFTsRedeemable(ctx context.Context, ledgerID string, tokenAmount uint64) (uint64, error) {
	ledger, err := s.getLedger(ctx, ledgerID)
	if err != nil {
		return 0, err
	}
	if ledger.TokensPerNFT == 0 {
		return 0, ErrInvalidTokenRatio
	}
	n, err := safemath.Div(tokenAmount, ledger.TokensPerNFT)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GetEventsByLedger returns the ledger's event history, oldest first.
func (s *Service) GetEventsByLedger(ctx context.Context, ledgerID string) ([]*domain.DomainEvent, error) {
	return s.events.GetByLedgerID(ctx, ledgerID)
}

// GetEventsByTokenType returns a partition's event history, oldest first.
func (s *Service) GetEventsByTokenType(ctx context.Context, tokenType string) ([]*domain.DomainEvent, error) {
	return s.events.GetByTokenType(ctx, tokenType)
}
