package domain

// MaxBackedSupply is the global cap on the aggregate backed-token total
// of a registry partition: one billion whole tokens at 9 decimals.
const MaxBackedSupply uint64 = 1_000_000_000 * 1_000_000_000

// RegistryPartition is the slice of the tokenization registry dedicated
// to one token type. Partitions are created lazily on first use of a
// token type and never removed.
// Corresponds to registry_partitions table in PostgreSQL.
type RegistryPartition struct {
	TokenType         string // PRIMARY KEY, token-type partition key
	CollectionCount   uint64 // registered collections in this partition
	TotalBackedTokens uint64 // sum of TotalTokens across the partition's ledgers
	CreatedAt         int64  // Unix timestamp in milliseconds
	Version           int64  // optimistic concurrency version, starts at 1
}

// RegistryStats is the read-only view of a partition returned by queries.
type RegistryStats struct {
	TokenType         string `json:"token_type"`
	CollectionCount   uint64 `json:"collection_count"`
	TotalBackedTokens uint64 `json:"total_backed_tokens"`
}
