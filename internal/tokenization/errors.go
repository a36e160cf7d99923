package tokenization

import "errors"

// Operation failures. Every failure is a precondition check raised
// before any mutation; callers match with errors.Is.
var (
	// ErrNotCreator is returned when the caller is not the authorized
	// collection or ledger creator.
	ErrNotCreator = errors.New("caller is not the collection creator")

	// ErrCollectionMismatch is returned when the supplied capability's
	// collection does not match the ledger's bound collection.
	ErrCollectionMismatch = errors.New("capability does not match ledger collection")

	// ErrAuthorityMismatch is returned when the supplied treasury
	// authority mints a different token type than the ledger's.
	ErrAuthorityMismatch = errors.New("treasury authority does not match ledger token type")

	// ErrCollectionNotActive is returned when an operation requires an
	// active ledger but minting has been frozen.
	ErrCollectionNotActive = errors.New("collection minting is not active")

	// ErrInvalidMintAmount is returned when a zero item amount is supplied.
	ErrInvalidMintAmount = errors.New("mint amount must be greater than zero")

	// ErrInvalidTokenRatio is returned when a zero tokens-per-NFT ratio
	// is supplied.
	ErrInvalidTokenRatio = errors.New("token ratio must be greater than zero")

	// ErrInvalidDecimals is returned when requested decimals exceed the
	// allowed maximum.
	ErrInvalidDecimals = errors.New("decimals exceed maximum of 9")

	// ErrAlreadyRegistered is returned on a duplicate
	// (token type, collection) registration attempt.
	ErrAlreadyRegistered = errors.New("collection already registered for this token type")

	// ErrNotRegistered is returned when looking up an unregistered
	// (token type, collection) pair or an unknown ledger.
	ErrNotRegistered = errors.New("collection is not registered for this token type")

	// ErrOverflow is returned when a quantity calculation would exceed
	// the maximum representable value.
	ErrOverflow = errors.New("token quantity overflow")

	// ErrMaxSupplyExceeded is returned when an operation would push a
	// partition's aggregate beyond the global backed-supply cap.
	ErrMaxSupplyExceeded = errors.New("max backed supply exceeded")
)
