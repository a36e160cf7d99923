package domain

// CollectionLedger binds one unique-item collection to one fungible-token
// type and tracks the running mint totals. Exactly one ledger exists per
// (collection, token type) pair. TotalTokens is the sum of per-batch
// products (amount * ratio at mint time); a ratio update never rescales
// totals already accrued.
// Corresponds to collection_ledgers table in PostgreSQL.
type CollectionLedger struct {
	LedgerID     string  // PRIMARY KEY, deterministic hash
	TokenType    string  // token-type partition key (descriptor id)
	CollectionID string  // bound unique-item collection
	DescriptorID string  // bound TokenDescriptor
	TokensPerNFT uint64  // ratio for future mint batches, always > 0
	TotalNFTs    uint64  // items backing this ledger
	TotalTokens  uint64  // sum of historical mint batches
	Creator      Address // collection creator, authorization anchor
	IsActive     bool    // monotonic: true -> false only
	CreatedAt    int64   // Unix timestamp in milliseconds
	Version      int64   // optimistic concurrency version, starts at 1
}
