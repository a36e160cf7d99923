package domain

// EventType identifies a domain event variant.
type EventType string

const (
	EventTokenCreated                EventType = "TOKEN_CREATED"
	EventTokenizedCollectionCreated  EventType = "TOKENIZED_COLLECTION_CREATED"
	EventTokenizedCollectionExtended EventType = "TOKENIZED_COLLECTION_EXTENDED"
	EventTokenizedCollectionFrozen   EventType = "TOKENIZED_COLLECTION_FROZEN"
	EventTokenRatioUpdated           EventType = "TOKEN_RATIO_UPDATED"
)

// String returns the string representation of EventType.
func (t EventType) String() string {
	return string(t)
}

// IsValid checks if the event type is a known variant.
func (t EventType) IsValid() bool {
	switch t {
	case EventTokenCreated,
		EventTokenizedCollectionCreated,
		EventTokenizedCollectionExtended,
		EventTokenizedCollectionFrozen,
		EventTokenRatioUpdated:
		return true
	}
	return false
}

// DomainEvent records one mutation of the tokenization registry. Events
// are append-only notifications for external indexers; the core never
// reads them back. Fields not relevant to a variant are left zero.
// Corresponds to domain_events table in ClickHouse.
type DomainEvent struct {
	EventType    EventType `json:"event_type"`               // variant discriminator
	TokenType    string    `json:"token_type"`               // token-type partition key
	LedgerID     string    `json:"ledger_id,omitempty"`      // affected ledger (empty for TOKEN_CREATED)
	CollectionID string    `json:"collection_id,omitempty"`  // affected collection (empty for TOKEN_CREATED)
	DescriptorID string    `json:"descriptor_id"`            // token descriptor
	Creator      Address   `json:"creator"`                  // acting creator address
	NFTAmount    uint64    `json:"nft_amount,omitempty"`     // items minted in this batch (Created/Extended)
	TokenAmount  uint64    `json:"token_amount,omitempty"`   // fungible units minted in this batch (Created/Extended)
	TokensPerNFT uint64    `json:"tokens_per_nft,omitempty"` // ratio in force after the event
	OldRatio     uint64    `json:"old_ratio,omitempty"`      // previous ratio (RATIO_UPDATED only)
	Timestamp    int64     `json:"timestamp"`                // Unix timestamp in milliseconds
}
