// Package stub provides an in-memory fungible-currency system for tests
// and the --use-memory server mode.
package stub

import (
	"context"
	"sync"

	"github.com/artfilabs/tokenizer/internal/currency"
	"github.com/artfilabs/tokenizer/internal/domain"
)

// treasuryAuthority implements currency.TreasuryAuthority. Only this
// package mints values of the concrete type.
type treasuryAuthority struct {
	tokenType string
}

func (a *treasuryAuthority) TokenType() string { return a.tokenType }

// tokenState tracks minted supply and balances for one token type.
type tokenState struct {
	def      currency.Definition
	minted   uint64
	balances map[domain.Address]uint64
}

// Service is an in-memory implementation of currency.Service.
type Service struct {
	mu     sync.Mutex
	tokens map[string]*tokenState
}

// NewService creates a new stub currency system.
func NewService() *Service {
	return &Service{
		tokens: make(map[string]*tokenState),
	}
}

var _ currency.Service = (*Service)(nil)

// CreateCurrency registers a new token type and returns its treasury
// authority.
func (s *Service) CreateCurrency(_ context.Context, def currency.Definition) (currency.TreasuryAuthority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[def.TokenType]; exists {
		return nil, currency.ErrDuplicateTokenType
	}
	s.tokens[def.TokenType] = &tokenState{
		def:      def,
		balances: make(map[domain.Address]uint64),
	}
	return &treasuryAuthority{tokenType: def.TokenType}, nil
}

// Mint issues amount units of the authority's token type to recipient.
func (s *Service) Mint(_ context.Context, authority currency.TreasuryAuthority, amount uint64, recipient domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tokens[authority.TokenType()]
	if !ok {
		return currency.ErrUnknownAuthority
	}
	state.minted += amount
	state.balances[recipient] += amount
	return nil
}

// MintedSupply returns the total minted supply for a token type. Zero if
// the token type does not exist.
func (s *Service) MintedSupply(tokenType string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tokens[tokenType]
	if !ok {
		return 0
	}
	return state.minted
}

// Balance returns the recipient's balance for a token type.
func (s *Service) Balance(tokenType string, addr domain.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tokens[tokenType]
	if !ok {
		return 0
	}
	return state.balances[addr]
}
