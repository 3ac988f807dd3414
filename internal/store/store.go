package store

import (
	"context"
	"time"

	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

// TimeRange bounds a query on the source-chain event time. Either side may be
// nil for an open range. Callers expand calendar dates to day boundaries
// before building a TimeRange.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// RouteFilter narrows the route rollup query.
type RouteFilter struct {
	Range TimeRange
	// MinAmount/MaxAmount bound amount_in as [min, max); either may be nil.
	MinAmount *float64
	MaxAmount *float64
}

// RouteRow is one aggregated route: all transactions sharing a
// (token_in, token_out) pair. Symbol/chain fall back to the UNKNOWN and N/A
// placeholders when the referenced token row is missing, so the rollup always
// accounts for the full transaction volume.
type RouteRow struct {
	TokenInID    int64
	TokenOutID   int64
	SourceSymbol string
	SourceChain  string
	DestSymbol   string
	DestChain    string
	Volume       float64
	AvgSlippage  float64
	TxCount      int64
	AvgTxSize    float64
}

// DailyRow is one calendar day of aggregated volume and count.
type DailyRow struct {
	Day     time.Time
	Volume  float64
	TxCount int64
}

// TxStats summarizes a filtered transaction set.
type TxStats struct {
	TxCount int64
	Volume  float64
}

// Store defines the interface for database operations
type Store interface {
	// GetTokenByAssetID retrieves a token by its asset identifier, nil when absent
	GetTokenByAssetID(ctx context.Context, assetID string) (*schema.Token, error)
	// GetOrCreateToken returns the token for an asset id, creating it from the
	// parsed identity on first sighting
	GetOrCreateToken(ctx context.Context, assetID string) (*schema.Token, error)
	// GetOrCreateTokens is the batched variant: one read for existing rows, one
	// bulk insert for the rest. IDs are populated on every returned token.
	GetOrCreateTokens(ctx context.Context, assetIDs []string) (map[string]*schema.Token, error)
	// ListTokens returns every token row (repair pass input)
	ListTokens(ctx context.Context) ([]*schema.Token, error)
	// UpdateTokenIdentity overwrites a token's parsed fields (repair pass only;
	// tokens are otherwise immutable)
	UpdateTokenIdentity(ctx context.Context, tokenID int64, chain, address *string, symbol string) error

	// ExistingDepositKeys returns the subset of keys already stored
	ExistingDepositKeys(ctx context.Context, keys []string) (map[string]struct{}, error)
	// CreateTransactions bulk-inserts transactions in a single database
	// transaction, silently skipping deposit_key conflicts. Returns the number
	// of rows actually inserted.
	CreateTransactions(ctx context.Context, txs []*schema.BridgeTransaction) (int64, error)
	// OldestTransactionTime returns the minimum stored created_at, nil when the
	// table is empty. Drives the resumable ingestion cursor.
	OldestTransactionTime(ctx context.Context) (*time.Time, error)
	// EarliestTransactionTime is an alias for the read side (dashboard date pickers)
	EarliestTransactionTime(ctx context.Context) (*time.Time, error)

	// RefreshPairStats recomputes the per-pair aggregation cache from
	// bridge_transactions. Safe to re-run at any time.
	RefreshPairStats(ctx context.Context) error
	// PairStats returns the cached per-pair rows
	PairStats(ctx context.Context) ([]*schema.PairStat, error)

	// AvailableSymbols returns distinct known symbols, grouped case-insensitively
	// and uppercased, sorted
	AvailableSymbols(ctx context.Context) ([]string, error)
	// TokensForSymbol returns all token rows whose symbol matches
	// case-insensitively
	TokensForSymbol(ctx context.Context, symbol string) ([]*schema.Token, error)
	// SlippageValues returns the raw slippage samples for a pair within a range
	SlippageValues(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) ([]float64, error)
	// PairCount returns the transaction count for a pair within a range
	PairCount(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) (int64, error)
	// PairVolume returns the summed amount_in for a pair within a range
	PairVolume(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) (float64, error)
	// RouteRollup groups all transactions by token pair with outer-joined token
	// metadata, sorted by volume descending
	RouteRollup(ctx context.Context, filter RouteFilter) ([]RouteRow, error)
	// DailyStats groups transactions touching any of the tokens by calendar day
	DailyStats(ctx context.Context, tokenIDs []int64, rng TimeRange) ([]DailyRow, error)
	// PairDailyStats groups one pair's transactions by calendar day
	PairDailyStats(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) ([]DailyRow, error)
	// TransactionStats sums count/volume over transactions touching any of the
	// tokens; nil tokenIDs means the whole table
	TransactionStats(ctx context.Context, tokenIDs []int64, rng TimeRange) (TxStats, error)
}
