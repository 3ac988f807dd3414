package schema

import (
	"time"
)

// Token represents the tokens table - one row per distinct asset identifier
// seen during ingestion. A single logical asset (symbol) maps to many rows,
// one per chain, so cross-chain views join on symbol rather than id.
type Token struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Symbol is the resolved ticker symbol, "UNKNOWN" when the asset id could not be parsed
	Symbol string `gorm:"column:symbol;not null;index;type:text"`
	// AssetID is the full protocol-specific identifier, the immutable natural key
	AssetID string `gorm:"column:asset_id;not null;uniqueIndex;type:text"`
	// Chain is the chain code the token lives on (nil when unparseable)
	Chain *string `gorm:"column:chain;index;type:text"`
	// Address is the contract address, or "native" for a chain's own asset
	Address *string `gorm:"column:address;type:text"`
	// CreatedAt is the timestamp when this token was first sighted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
