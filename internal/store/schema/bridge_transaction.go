package schema

import (
	"time"

	"gorm.io/datatypes"
)

// BridgeTransaction represents the bridge_transactions table - one immutable
// row per bridged transfer. DepositKey (deposit address + memo composite) is
// the sole deduplication identity; a previously-seen key is never re-inserted
// or updated.
type BridgeTransaction struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenInID references the origin token
	TokenInID int64 `gorm:"column:token_in_id;not null;index"`
	// TokenOutID references the destination token
	TokenOutID int64 `gorm:"column:token_out_id;not null;index"`
	// AmountIn is the USD-denominated amount deposited
	AmountIn float64 `gorm:"column:amount_in;not null"`
	// AmountOut is the USD-denominated amount received
	AmountOut float64 `gorm:"column:amount_out;not null"`
	// Slippage is the derived percentage lost between in and out
	Slippage float64 `gorm:"column:slippage;not null"`
	// DepositAddress is the bare deposit address without the memo part
	DepositAddress string `gorm:"column:deposit_address;index;type:text"`
	// DepositKey is the deposit address + memo composite natural key
	DepositKey string `gorm:"column:deposit_key;not null;uniqueIndex;type:text"`
	// Status is the upstream transaction status
	Status string `gorm:"column:status;index;type:text"`
	// IntentHashes holds the upstream intent hash list as a JSON array
	IntentHashes datatypes.JSON `gorm:"column:intent_hashes"`
	// CreatedAt is the source-chain event time, authoritative for all time-windowed queries
	CreatedAt time.Time `gorm:"column:created_at;not null;index;type:timestamptz"`
	// FetchedAt is the timestamp when this row was ingested
	FetchedAt time.Time `gorm:"column:fetched_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the BridgeTransaction model
func (BridgeTransaction) TableName() string {
	return "bridge_transactions"
}

// PairStat represents the pair_stats table - the derived per-token-pair
// aggregation cache. Fully rebuildable from bridge_transactions at any time;
// a read optimization, never the source of truth.
type PairStat struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenInID + TokenOutID form the composite unique key
	TokenInID  int64 `gorm:"column:token_in_id;not null;uniqueIndex:idx_pair_stats_pair,priority:1"`
	TokenOutID int64 `gorm:"column:token_out_id;not null;uniqueIndex:idx_pair_stats_pair,priority:2"`
	// AvgSlippage is nil until at least one transaction exists for the pair
	AvgSlippage *float64  `gorm:"column:avg_slippage"`
	TxCount     int64     `gorm:"column:tx_count;not null;default:0"`
	LastUpdated time.Time `gorm:"column:last_updated;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the PairStat model
func (PairStat) TableName() string {
	return "pair_stats"
}
