// Package tokenization implements the collection tokenizer: it binds
// fungible-token types to unique-item collections, mints backing supply
// proportional to collection size, and keeps per-token-type registry
// aggregates under the global supply cap.
package tokenization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artfilabs/tokenizer/internal/collection"
	"github.com/artfilabs/tokenizer/internal/currency"
	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/idhash"
	"github.com/artfilabs/tokenizer/internal/observability"
	"github.com/artfilabs/tokenizer/internal/safemath"
	"github.com/artfilabs/tokenizer/internal/storage"
)

// commitRetries bounds the storage commit re-attempts when optimistic
// writes race a concurrent writer.
const commitRetries = 3

// Service is the tokenization operations layer. All quantity math routes
// through safemath; every precondition is checked before the first
// mutation, so a failed operation leaves no partial state.
//
// The service holds no locks. Writes use the stores' optimistic
// versioning. External effects (item issuance, currency mints) run
// exactly once, after the registration uniqueness gate; when the
// subsequent storage commit hits storage.ErrVersionConflict the service
// re-reads the fresh record and folds the already-issued batch in,
// never re-running the external effects.
type Service struct {
	registry    storage.RegistryStore
	ledgers     storage.LedgerStore
	descriptors storage.DescriptorStore
	events      storage.EventStore

	collections collection.Service
	currencies  currency.Service

	now func() int64
}

// Options for creating a Service.
type Options struct {
	RegistryStore   storage.RegistryStore
	LedgerStore     storage.LedgerStore
	DescriptorStore storage.DescriptorStore
	EventStore      storage.EventStore

	Collections collection.Service
	Currencies  currency.Service

	// Now returns the current Unix timestamp in milliseconds. Defaults
	// to the wall clock.
	Now func() int64
}

// New creates a new Service.
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Service{
		registry:    opts.RegistryStore,
		ledgers:     opts.LedgerStore,
		descriptors: opts.DescriptorStore,
		events:      opts.EventStore,
		collections: opts.Collections,
		currencies:  opts.Currencies,
		now:         now,
	}
}

// CreateTokenRequest creates a new fungible-token type bound to an
// existing collection.
type CreateTokenRequest struct {
	Caller       domain.Address
	Cap          collection.CreatorCap
	TokensPerNFT uint64

	// Token metadata
	Name        string
	Symbol      string
	Description string
	IconURI     string
	Decimals    int
}

// CreateTokenResult reports the identifiers and quantities created.
type CreateTokenResult struct {
	TokenType    string // partition key, equals DescriptorID
	DescriptorID string
	LedgerID     string
	TotalNFTs    uint64
	TotalTokens  uint64

	// Authority is the exclusive treasury authority for the new token
	// type. The caller keeps it; extension mints require it back.
	Authority currency.TreasuryAuthority
}

// CreateTokenForCollection creates a new token type for the capability's
// collection and mints the initial backing supply to the caller:
// collection item count times TokensPerNFT.
func (s *Service) CreateTokenForCollection(ctx context.Context, req CreateTokenRequest) (res *CreateTokenResult, err error) {
	defer s.record("create_token_for_collection", time.Now(), &err)

	if req.Caller != req.Cap.Creator() {
		return nil, ErrNotCreator
	}
	if req.TokensPerNFT == 0 {
		return nil, ErrInvalidTokenRatio
	}
	if req.Decimals < 0 || req.Decimals > domain.MaxDecimals {
		return nil, ErrInvalidDecimals
	}

	initialNFTs, err := s.collections.CurrentSupply(ctx, req.Cap)
	if err != nil {
		return nil, fmt.Errorf("read collection supply: %w", err)
	}
	if initialNFTs == 0 {
		return nil, ErrInvalidMintAmount
	}

	totalTokens, err := safemath.Mul(initialNFTs, req.TokensPerNFT)
	if err != nil {
		return nil, ErrOverflow
	}
	if totalTokens > domain.MaxBackedSupply {
		return nil, ErrMaxSupplyExceeded
	}

	now := s.now()
	creator := req.Cap.Creator()
	collectionID := req.Cap.CollectionID()
	descriptorID := idhash.ComputeDescriptorID(req.Symbol, req.Name, creator, now)
	tokenType := descriptorID
	ledgerID := idhash.ComputeLedgerID(tokenType, collectionID, creator)

	// Registration is the uniqueness gate. It must precede the currency
	// effects so a duplicate attempt aborts before anything is minted.
	if err := s.registry.RegisterCollection(ctx, tokenType, collectionID, ledgerID); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("register collection: %w", err)
	}

	authority, err := s.currencies.CreateCurrency(ctx, currency.Definition{
		TokenType:   tokenType,
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		IconURI:     req.IconURI,
		Decimals:    req.Decimals,
		MaxSupply:   domain.MaxBackedSupply,
	})
	if err != nil {
		return nil, fmt.Errorf("create currency: %w", err)
	}
	if err := s.currencies.Mint(ctx, authority, totalTokens, req.Caller); err != nil {
		return nil, fmt.Errorf("mint initial supply: %w", err)
	}

	// The token type is fresh, so the partition and ledger cannot exist
	// yet and these inserts cannot race.
	partition := &domain.RegistryPartition{
		TokenType:         tokenType,
		CollectionCount:   1,
		TotalBackedTokens: totalTokens,
		CreatedAt:         now,
	}
	if err := s.registry.InsertPartition(ctx, partition); err != nil {
		return nil, fmt.Errorf("insert partition: %w", err)
	}

	descriptor := &domain.TokenDescriptor{
		DescriptorID: descriptorID,
		Name:         req.Name,
		Symbol:       req.Symbol,
		Description:  req.Description,
		IconURI:      req.IconURI,
		Decimals:     req.Decimals,
		MaxSupply:    domain.MaxBackedSupply,
		Creator:      creator,
		CreatedAt:    now,
	}
	if err := s.descriptors.Insert(ctx, descriptor); err != nil {
		return nil, fmt.Errorf("insert descriptor: %w", err)
	}

	ledger := &domain.CollectionLedger{
		LedgerID:     ledgerID,
		TokenType:    tokenType,
		CollectionID: collectionID,
		DescriptorID: descriptorID,
		TokensPerNFT: req.TokensPerNFT,
		TotalNFTs:    initialNFTs,
		TotalTokens:  totalTokens,
		Creator:      creator,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.ledgers.Insert(ctx, ledger); err != nil {
		return nil, fmt.Errorf("insert ledger: %w", err)
	}

	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenCreated,
		TokenType:    tokenType,
		DescriptorID: descriptorID,
		Creator:      creator,
		Timestamp:    now,
	})
	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenizedCollectionCreated,
		TokenType:    tokenType,
		LedgerID:     ledgerID,
		CollectionID: collectionID,
		DescriptorID: descriptorID,
		Creator:      creator,
		NFTAmount:    initialNFTs,
		TokenAmount:  totalTokens,
		TokensPerNFT: req.TokensPerNFT,
		Timestamp:    now,
	})

	observability.SetPartitionStats(tokenType, partition.CollectionCount, partition.TotalBackedTokens)

	return &CreateTokenResult{
		TokenType:    tokenType,
		DescriptorID: descriptorID,
		LedgerID:     ledgerID,
		TotalNFTs:    initialNFTs,
		TotalTokens:  totalTokens,
		Authority:    authority,
	}, nil
}

// TokenizeRequest binds an existing token type to a further collection.
type TokenizeRequest struct {
	Caller       domain.Address
	Cap          collection.CreatorCap
	TokenType    string
	TokensPerNFT uint64
	Authority    currency.TreasuryAuthority
}

// TokenizeResult reports the ledger created for the collection.
type TokenizeResult struct {
	LedgerID    string `json:"ledger_id"`
	TotalNFTs   uint64 `json:"total_nfts"`
	TotalTokens uint64 `json:"total_tokens"`
}

// TokenizeExistingCollection registers a further collection under an
// already-created token type, minting its initial backing supply to the
// caller.
func (s *Service) TokenizeExistingCollection(ctx context.Context, req TokenizeRequest) (res *TokenizeResult, err error) {
	defer s.record("tokenize_existing_collection", time.Now(), &err)

	if req.Caller != req.Cap.Creator() {
		return nil, ErrNotCreator
	}
	if req.TokensPerNFT == 0 {
		return nil, ErrInvalidTokenRatio
	}
	if req.Authority == nil || req.Authority.TokenType() != req.TokenType {
		return nil, ErrAuthorityMismatch
	}

	descriptor, err := s.descriptors.GetByID(ctx, req.TokenType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("get descriptor: %w", err)
	}

	collectionID := req.Cap.CollectionID()
	if _, err := s.registry.GetLedgerID(ctx, req.TokenType, collectionID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}

	initialNFTs, err := s.collections.CurrentSupply(ctx, req.Cap)
	if err != nil {
		return nil, fmt.Errorf("read collection supply: %w", err)
	}
	if initialNFTs == 0 {
		return nil, ErrInvalidMintAmount
	}

	totalTokens, err := safemath.Mul(initialNFTs, req.TokensPerNFT)
	if err != nil {
		return nil, ErrOverflow
	}

	now := s.now()
	partition, err := s.registry.GetPartition(ctx, req.TokenType)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("get partition: %w", err)
		}
		// Lazily created on first use of the token type.
		partition = &domain.RegistryPartition{TokenType: req.TokenType, CreatedAt: now}
	}

	newAggregate, err := safemath.Add(partition.TotalBackedTokens, totalTokens)
	if err != nil || newAggregate > domain.MaxBackedSupply {
		return nil, ErrMaxSupplyExceeded
	}

	creator := req.Cap.Creator()
	ledgerID := idhash.ComputeLedgerID(req.TokenType, collectionID, creator)

	// Registration is the uniqueness gate. It must precede the currency
	// mint so a duplicate attempt aborts before anything is issued.
	if err := s.registry.RegisterCollection(ctx, req.TokenType, collectionID, ledgerID); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("register collection: %w", err)
	}

	if err := s.currencies.Mint(ctx, req.Authority, totalTokens, req.Caller); err != nil {
		return nil, fmt.Errorf("mint initial supply: %w", err)
	}

	// The mint above ran exactly once; a conflicting writer means the
	// fresh aggregate must absorb the already-issued supply, still under
	// the cap.
	partition.CollectionCount++
	partition.TotalBackedTokens = newAggregate
	partition, err = s.commitPartition(ctx, partition, func(p *domain.RegistryPartition) error {
		p.CollectionCount++
		sum, ferr := safemath.Add(p.TotalBackedTokens, totalTokens)
		if ferr != nil || sum > domain.MaxBackedSupply {
			return ErrMaxSupplyExceeded
		}
		p.TotalBackedTokens = sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger := &domain.CollectionLedger{
		LedgerID:     ledgerID,
		TokenType:    req.TokenType,
		CollectionID: collectionID,
		DescriptorID: descriptor.DescriptorID,
		TokensPerNFT: req.TokensPerNFT,
		TotalNFTs:    initialNFTs,
		TotalTokens:  totalTokens,
		Creator:      creator,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.ledgers.Insert(ctx, ledger); err != nil {
		return nil, fmt.Errorf("insert ledger: %w", err)
	}

	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenizedCollectionCreated,
		TokenType:    req.TokenType,
		LedgerID:     ledgerID,
		CollectionID: collectionID,
		DescriptorID: descriptor.DescriptorID,
		Creator:      creator,
		NFTAmount:    initialNFTs,
		TokenAmount:  totalTokens,
		TokensPerNFT: req.TokensPerNFT,
		Timestamp:    now,
	})

	observability.SetPartitionStats(req.TokenType, partition.CollectionCount, partition.TotalBackedTokens)

	return &TokenizeResult{
		LedgerID:    ledgerID,
		TotalNFTs:   initialNFTs,
		TotalTokens: totalTokens,
	}, nil
}

// MintRequest extends an already-tokenized collection.
type MintRequest struct {
	Caller    domain.Address
	Cap       collection.CreatorCap
	LedgerID  string
	Amount    uint64
	Authority currency.TreasuryAuthority
}

// MintResult reports the new totals after an extension.
type MintResult struct {
	TokensMinted uint64 `json:"tokens_minted"`
	TotalNFTs    uint64 `json:"total_nfts"`
	TotalTokens  uint64 `json:"total_tokens"`
}

// MintAdditional issues Amount new items into the backing collection and
// mints the matching fungible supply at the ledger's current ratio.
// Item issuance is attempted first; if it fails, nothing is minted and
// no state changes.
func (s *Service) MintAdditional(ctx context.Context, req MintRequest) (res *MintResult, err error) {
	defer s.record("mint_additional", time.Now(), &err)

	ledger, err := s.getLedger(ctx, req.LedgerID)
	if err != nil {
		return nil, err
	}
	if req.Cap.CollectionID() != ledger.CollectionID {
		return nil, ErrCollectionMismatch
	}
	if req.Caller != req.Cap.Creator() {
		return nil, ErrNotCreator
	}
	if req.Amount == 0 {
		return nil, ErrInvalidMintAmount
	}
	if !ledger.IsActive {
		return nil, ErrCollectionNotActive
	}
	if req.Authority == nil || req.Authority.TokenType() != ledger.TokenType {
		return nil, ErrAuthorityMismatch
	}

	tokensToMint, err := safemath.Mul(req.Amount, ledger.TokensPerNFT)
	if err != nil {
		return nil, ErrOverflow
	}

	partition, err := s.registry.GetPartition(ctx, ledger.TokenType)
	if err != nil {
		return nil, fmt.Errorf("get partition: %w", err)
	}
	newAggregate, err := safemath.Add(partition.TotalBackedTokens, tokensToMint)
	if err != nil || newAggregate > domain.MaxBackedSupply {
		return nil, ErrMaxSupplyExceeded
	}

	newTotalNFTs, err := safemath.Add(ledger.TotalNFTs, req.Amount)
	if err != nil {
		return nil, ErrOverflow
	}
	newTotalTokens, err := safemath.Add(ledger.TotalTokens, tokensToMint)
	if err != nil {
		return nil, ErrOverflow
	}

	// Item issuance goes first: a frozen or unauthorized collection
	// aborts the whole operation before any fungible mint.
	if err := s.collections.MintItems(ctx, req.Cap, req.Amount); err != nil {
		return nil, fmt.Errorf("mint collection items: %w", err)
	}
	if err := s.currencies.Mint(ctx, req.Authority, tokensToMint, req.Caller); err != nil {
		return nil, fmt.Errorf("mint backing tokens: %w", err)
	}

	// The batch is already issued; a conflicting writer means the fresh
	// records must absorb it, re-checking activity and the cap.
	ledger.TotalNFTs = newTotalNFTs
	ledger.TotalTokens = newTotalTokens
	ledger, err = s.commitLedger(ctx, ledger, func(l *domain.CollectionLedger) error {
		if !l.IsActive {
			return ErrCollectionNotActive
		}
		nfts, ferr := safemath.Add(l.TotalNFTs, req.Amount)
		if ferr != nil {
			return ErrOverflow
		}
		tokens, ferr := safemath.Add(l.TotalTokens, tokensToMint)
		if ferr != nil {
			return ErrOverflow
		}
		l.TotalNFTs = nfts
		l.TotalTokens = tokens
		return nil
	})
	if err != nil {
		return nil, err
	}

	partition.TotalBackedTokens = newAggregate
	partition, err = s.commitPartition(ctx, partition, func(p *domain.RegistryPartition) error {
		sum, ferr := safemath.Add(p.TotalBackedTokens, tokensToMint)
		if ferr != nil || sum > domain.MaxBackedSupply {
			return ErrMaxSupplyExceeded
		}
		p.TotalBackedTokens = sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenizedCollectionExtended,
		TokenType:    ledger.TokenType,
		LedgerID:     ledger.LedgerID,
		CollectionID: ledger.CollectionID,
		DescriptorID: ledger.DescriptorID,
		Creator:      ledger.Creator,
		NFTAmount:    req.Amount,
		TokenAmount:  tokensToMint,
		TokensPerNFT: ledger.TokensPerNFT,
		Timestamp:    now,
	})

	observability.SetPartitionStats(ledger.TokenType, partition.CollectionCount, partition.TotalBackedTokens)

	return &MintResult{
		TokensMinted: tokensToMint,
		TotalNFTs:    ledger.TotalNFTs,
		TotalTokens:  ledger.TotalTokens,
	}, nil
}

// FreezeRequest permanently stops minting for one ledger.
type FreezeRequest struct {
	Caller   domain.Address
	Cap      collection.CreatorCap
	LedgerID string
}

// FreezeMinting signals freeze to the collection system and deactivates
// the ledger. Irreversible; a second freeze fails with
// ErrCollectionNotActive.
func (s *Service) FreezeMinting(ctx context.Context, req FreezeRequest) (err error) {
	defer s.record("freeze_minting", time.Now(), &err)

	ledger, err := s.getLedger(ctx, req.LedgerID)
	if err != nil {
		return err
	}
	if req.Cap.CollectionID() != ledger.CollectionID {
		return ErrCollectionMismatch
	}
	if req.Caller != req.Cap.Creator() {
		return ErrNotCreator
	}
	if !ledger.IsActive {
		return ErrCollectionNotActive
	}

	if err := s.collections.FreezeMinting(ctx, req.Cap); err != nil {
		return fmt.Errorf("freeze collection: %w", err)
	}

	ledger.IsActive = false
	ledger, err = s.commitLedger(ctx, ledger, func(l *domain.CollectionLedger) error {
		if !l.IsActive {
			return ErrCollectionNotActive
		}
		l.IsActive = false
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenizedCollectionFrozen,
		TokenType:    ledger.TokenType,
		LedgerID:     ledger.LedgerID,
		CollectionID: ledger.CollectionID,
		DescriptorID: ledger.DescriptorID,
		Creator:      ledger.Creator,
		TokensPerNFT: ledger.TokensPerNFT,
		Timestamp:    s.now(),
	})

	return nil
}

// RatioRequest changes the ratio applied to future mint batches.
type RatioRequest struct {
	Caller   domain.Address
	Cap      collection.CreatorCap
	LedgerID string
	NewRatio uint64
}

// UpdateTokenRatio sets the tokens-per-NFT ratio for future mints.
// Existing totals are never rescaled. The caller must hold the
// collection capability and match the ledger's recorded creator.
func (s *Service) UpdateTokenRatio(ctx context.Context, req RatioRequest) (err error) {
	defer s.record("update_token_ratio", time.Now(), &err)

	ledger, err := s.getLedger(ctx, req.LedgerID)
	if err != nil {
		return err
	}
	if req.Cap.CollectionID() != ledger.CollectionID {
		return ErrCollectionMismatch
	}
	if req.Caller != req.Cap.Creator() {
		return ErrNotCreator
	}
	// Second, independent check against the stored creator.
	if req.Caller != ledger.Creator {
		return ErrNotCreator
	}
	if req.NewRatio == 0 {
		return ErrInvalidTokenRatio
	}
	if !ledger.IsActive {
		return ErrCollectionNotActive
	}

	oldRatio := ledger.TokensPerNFT
	ledger.TokensPerNFT = req.NewRatio
	ledger, err = s.commitLedger(ctx, ledger, func(l *domain.CollectionLedger) error {
		if !l.IsActive {
			return ErrCollectionNotActive
		}
		oldRatio = l.TokensPerNFT
		l.TokensPerNFT = req.NewRatio
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, &domain.DomainEvent{
		EventType:    domain.EventTokenRatioUpdated,
		TokenType:    ledger.TokenType,
		LedgerID:     ledger.LedgerID,
		CollectionID: ledger.CollectionID,
		DescriptorID: ledger.DescriptorID,
		Creator:      ledger.Creator,
		TokensPerNFT: req.NewRatio,
		OldRatio:     oldRatio,
		Timestamp:    s.now(),
	})

	return nil
}

// getLedger maps a missing ledger to ErrNotRegistered.
func (s *Service) getLedger(ctx context.Context, ledgerID string) (*domain.CollectionLedger, error) {
	ledger, err := s.ledgers.GetByID(ctx, ledgerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

// commitLedger writes the ledger back, retrying a bounded number of
// times on version conflicts. On each conflict the record is re-read
// and fold re-applies the operation's delta to the fresh copy. Returns
// the committed record.
func (s *Service) commitLedger(ctx context.Context, ledger *domain.CollectionLedger, fold func(*domain.CollectionLedger) error) (*domain.CollectionLedger, error) {
	for attempt := 0; ; attempt++ {
		err := s.ledgers.Update(ctx, ledger)
		if err == nil {
			return ledger, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) || attempt == commitRetries {
			return nil, fmt.Errorf("update ledger: %w", err)
		}
		fresh, err := s.ledgers.GetByID(ctx, ledger.LedgerID)
		if err != nil {
			return nil, fmt.Errorf("reread ledger: %w", err)
		}
		if err := fold(fresh); err != nil {
			return nil, err
		}
		ledger = fresh
	}
}

// commitPartition is commitLedger for registry partitions. A Version of
// zero means the partition has not been persisted yet; that insert can
// still lose to a concurrent first writer, which counts as a conflict.
func (s *Service) commitPartition(ctx context.Context, partition *domain.RegistryPartition, fold func(*domain.RegistryPartition) error) (*domain.RegistryPartition, error) {
	for attempt := 0; ; attempt++ {
		var err error
		if partition.Version == 0 {
			err = s.registry.InsertPartition(ctx, partition)
		} else {
			err = s.registry.UpdatePartition(ctx, partition)
		}
		if err == nil {
			return partition, nil
		}
		retriable := errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, storage.ErrDuplicateKey)
		if !retriable || attempt == commitRetries {
			return nil, fmt.Errorf("write partition: %w", err)
		}
		fresh, err := s.registry.GetPartition(ctx, partition.TokenType)
		if err != nil {
			return nil, fmt.Errorf("reread partition: %w", err)
		}
		if err := fold(fresh); err != nil {
			return nil, err
		}
		partition = fresh
	}
}

// emit appends a domain event. Events are fire-and-forget notifications;
// an append failure never rolls back the mutation it describes.
func (s *Service) emit(ctx context.Context, e *domain.DomainEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		observability.RecordEventAppendError(string(e.EventType))
		return
	}
	observability.RecordEventEmitted(string(e.EventType))
}

// record reports operation metrics.
func (s *Service) record(op string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	observability.RecordOperation(op, status, time.Since(start).Seconds())
}
