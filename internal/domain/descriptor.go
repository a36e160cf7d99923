package domain

// MaxDecimals is the largest allowed precision for a fungible token type.
const MaxDecimals = 9

// TokenDescriptor describes one fungible-token type's identity.
// Written once during token creation and immutable afterwards.
// Corresponds to token_descriptors table in PostgreSQL.
type TokenDescriptor struct {
	DescriptorID string  // PRIMARY KEY, deterministic hash
	Name         string  // human-readable token name
	Symbol       string  // ticker symbol
	Description  string  // free-form description
	IconURI      string  // icon reference (URI)
	Decimals     int     // precision, 0..MaxDecimals
	MaxSupply    uint64  // supply cap carried in currency metadata
	Creator      Address // address that created the token type
	CreatedAt    int64   // Unix timestamp in milliseconds
}
