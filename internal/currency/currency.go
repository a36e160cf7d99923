// Package currency defines the slice of the fungible-currency system the
// tokenizer consumes: creating token types and minting supply under an
// exclusive treasury authority.
package currency

import (
	"context"
	"errors"

	"github.com/artfilabs/tokenizer/internal/domain"
)

// Currency system errors surfaced through the Service interface.
var (
	// ErrUnknownAuthority is returned when a treasury authority was not
	// issued by this currency system.
	ErrUnknownAuthority = errors.New("unknown treasury authority")

	// ErrDuplicateTokenType is returned when creating a currency for a
	// token type that already exists.
	ErrDuplicateTokenType = errors.New("token type already exists")
)

// TreasuryAuthority is the exclusive mint authority for one token type.
// Authorities are issued once per token type by CreateCurrency; holding
// one proves the right to mint.
type TreasuryAuthority interface {
	// TokenType returns the token type this authority mints.
	TokenType() string
}

// Definition describes a new fungible token type.
type Definition struct {
	TokenType   string // stable token-type key (descriptor id)
	Name        string
	Symbol      string
	Description string
	IconURI     string
	Decimals    int
	MaxSupply   uint64
}

// Service is the external fungible-currency system.
type Service interface {
	// CreateCurrency registers a new token type and returns its
	// exclusive treasury authority. Fails with ErrDuplicateTokenType if
	// the token type already exists.
	CreateCurrency(ctx context.Context, def Definition) (TreasuryAuthority, error)

	// Mint issues amount fungible units of the authority's token type to
	// the recipient.
	Mint(ctx context.Context, authority TreasuryAuthority, amount uint64, recipient domain.Address) error
}
