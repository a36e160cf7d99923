package domain

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address is a base58-encoded 32-byte ed25519 public key identifying an
// account (collection creators, mint recipients).
type Address string

// String returns the base58 representation.
func (a Address) String() string {
	return string(a)
}

// Validate checks that the address decodes to a canonical 32-byte
// ed25519 point.
func (a Address) Validate() error {
	raw, err := base58.Decode(string(a))
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address must be 32 bytes, got %d", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("address is not a valid ed25519 point: %w", err)
	}
	return nil
}

// AddressFromBytes encodes a raw 32-byte public key as an Address.
func AddressFromBytes(raw []byte) (Address, error) {
	if len(raw) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(raw))
	}
	return Address(base58.Encode(raw)), nil
}
