package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intentscan/bridge-indexer/internal/assetid"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

// naPlaceholder is shown for chain metadata of missing/unparsed tokens.
const naPlaceholder = "N/A"

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Open connects to PostgreSQL, retrying with exponential backoff so the
// service survives a database that comes up slightly later than it does.
func Open(dsn string) (*gorm.DB, error) {
	var db *gorm.DB

	operation := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 1 * time.Minute

	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the three tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Token{},
		&schema.BridgeTransaction{},
		&schema.PairStat{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// insertBatchSize keeps bulk inserts well under PostgreSQL's 65535-parameter
// extended-protocol limit (BridgeTransaction carries 11 bound fields).
const insertBatchSize = 1000

// applyRange adds the created_at bounds of a TimeRange to a query.
func applyRange(q *gorm.DB, rng TimeRange) *gorm.DB {
	if rng.Start != nil {
		q = q.Where("created_at >= ?", *rng.Start)
	}
	if rng.End != nil {
		q = q.Where("created_at <= ?", *rng.End)
	}
	return q
}

// GetTokenByAssetID retrieves a token by its asset identifier
func (s *pgStore) GetTokenByAssetID(ctx context.Context, assetID string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// GetOrCreateToken returns the token for an asset id, creating it on first
// sighting. A concurrent creator winning the insert race is not an error; the
// existing row is fetched and returned.
func (s *pgStore) GetOrCreateToken(ctx context.Context, assetID string) (*schema.Token, error) {
	tokens, err := s.GetOrCreateTokens(ctx, []string{assetID})
	if err != nil {
		return nil, err
	}
	token, ok := tokens[assetID]
	if !ok {
		return nil, fmt.Errorf("token not resolved for asset id %q", assetID)
	}
	return token, nil
}

// GetOrCreateTokens resolves a batch of asset ids to token rows: one read for
// the existing rows, one bulk insert (ON CONFLICT DO NOTHING) for the rest,
// then a refetch so every returned token carries its generated id even when a
// concurrent ingestor won the insert race.
func (s *pgStore) GetOrCreateTokens(ctx context.Context, assetIDs []string) (map[string]*schema.Token, error) {
	result := make(map[string]*schema.Token, len(assetIDs))
	if len(assetIDs) == 0 {
		return result, nil
	}

	var existing []*schema.Token
	if err := s.db.WithContext(ctx).Where("asset_id IN ?", assetIDs).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch existing tokens: %w", err)
	}
	for _, t := range existing {
		result[t.AssetID] = t
	}

	var missing []*schema.Token
	queued := make(map[string]struct{})
	for _, assetID := range assetIDs {
		if _, ok := result[assetID]; ok {
			continue
		}
		if _, ok := queued[assetID]; ok {
			continue
		}
		queued[assetID] = struct{}{}
		identity := assetid.Parse(assetID)
		missing = append(missing, &schema.Token{
			Symbol:  identity.Symbol,
			AssetID: assetID,
			Chain:   identity.Chain,
			Address: identity.Address,
		})
	}
	if len(missing) == 0 {
		return result, nil
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}},
		DoNothing: true,
	}).Create(&missing).Error; err != nil {
		return nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	// Refetch the just-inserted ids; conflict losers pick up the winner's row.
	missingIDs := make([]string, 0, len(missing))
	for _, t := range missing {
		missingIDs = append(missingIDs, t.AssetID)
	}
	var created []*schema.Token
	if err := s.db.WithContext(ctx).Where("asset_id IN ?", missingIDs).Find(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to refetch created tokens: %w", err)
	}
	for _, t := range created {
		result[t.AssetID] = t
	}

	return result, nil
}

// ListTokens returns every token row
func (s *pgStore) ListTokens(ctx context.Context) ([]*schema.Token, error) {
	var tokens []*schema.Token
	if err := s.db.WithContext(ctx).Order("id").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// UpdateTokenIdentity overwrites a token's parsed fields
func (s *pgStore) UpdateTokenIdentity(ctx context.Context, tokenID int64, chain, address *string, symbol string) error {
	err := s.db.WithContext(ctx).Model(&schema.Token{}).
		Where("id = ?", tokenID).
		Updates(map[string]interface{}{
			"chain":   chain,
			"address": address,
			"symbol":  symbol,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update token %d: %w", tokenID, err)
	}
	return nil
}

// ExistingDepositKeys returns the subset of keys already stored. One query
// regardless of batch size.
func (s *pgStore) ExistingDepositKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	var found []string
	err := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Where("deposit_key IN ?", keys).
		Pluck("deposit_key", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check deposit keys: %w", err)
	}
	for _, k := range found {
		existing[k] = struct{}{}
	}
	return existing, nil
}

// CreateTransactions bulk-inserts transactions, skipping deposit_key
// conflicts. The whole batch commits in one database transaction.
func (s *pgStore) CreateTransactions(ctx context.Context, txs []*schema.BridgeTransaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deposit_key"}},
			DoNothing: true,
		}).CreateInBatches(txs, insertBatchSize)
		if res.Error != nil {
			return fmt.Errorf("failed to insert transactions: %w", res.Error)
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// OldestTransactionTime returns the minimum stored created_at
func (s *pgStore) OldestTransactionTime(ctx context.Context) (*time.Time, error) {
	var oldest *time.Time
	err := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Select("MIN(created_at)").
		Scan(&oldest).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get oldest transaction time: %w", err)
	}
	return oldest, nil
}

// EarliestTransactionTime returns the minimum stored created_at
func (s *pgStore) EarliestTransactionTime(ctx context.Context) (*time.Time, error) {
	return s.OldestTransactionTime(ctx)
}

// RefreshPairStats recomputes the aggregation cache in a single grouped
// upsert. Pure derived data, safe to re-run or rebuild from scratch.
func (s *pgStore) RefreshPairStats(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO pair_stats (token_in_id, token_out_id, avg_slippage, tx_count, last_updated)
		SELECT token_in_id, token_out_id, AVG(slippage), COUNT(id), NOW()
		FROM bridge_transactions
		GROUP BY token_in_id, token_out_id
		ON CONFLICT (token_in_id, token_out_id) DO UPDATE SET
			avg_slippage = EXCLUDED.avg_slippage,
			tx_count = EXCLUDED.tx_count,
			last_updated = EXCLUDED.last_updated
	`).Error
	if err != nil {
		return fmt.Errorf("failed to refresh pair stats: %w", err)
	}
	return nil
}

// PairStats returns the cached per-pair rows
func (s *pgStore) PairStats(ctx context.Context) ([]*schema.PairStat, error) {
	var stats []*schema.PairStat
	if err := s.db.WithContext(ctx).Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get pair stats: %w", err)
	}
	return stats, nil
}

// AvailableSymbols returns distinct known symbols, grouped case-insensitively
func (s *pgStore) AvailableSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.db.WithContext(ctx).Model(&schema.Token{}).
		Where("symbol <> ?", assetid.UnknownSymbol).
		Distinct().
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get symbols: %w", err)
	}

	// Upstream casing differs per chain ("USDt" vs "USDT"); collapse to one
	// uppercased entry per logical symbol.
	seen := make(map[string]struct{}, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		upper := strings.ToUpper(sym)
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		unique = append(unique, upper)
	}
	sort.Strings(unique)
	return unique, nil
}

// TokensForSymbol returns all token rows matching the symbol case-insensitively
func (s *pgStore) TokensForSymbol(ctx context.Context, symbol string) ([]*schema.Token, error) {
	var tokens []*schema.Token
	err := s.db.WithContext(ctx).
		Where("UPPER(symbol) = ?", strings.ToUpper(symbol)).
		Order("chain").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens for symbol %q: %w", symbol, err)
	}
	return tokens, nil
}

// SlippageValues returns the raw slippage samples for a pair within a range
func (s *pgStore) SlippageValues(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) ([]float64, error) {
	var values []float64
	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Where("token_in_id = ? AND token_out_id = ?", tokenInID, tokenOutID)
	q = applyRange(q, rng)
	if err := q.Pluck("slippage", &values).Error; err != nil {
		return nil, fmt.Errorf("failed to get slippage values: %w", err)
	}
	return values, nil
}

// PairCount returns the transaction count for a pair within a range
func (s *pgStore) PairCount(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Where("token_in_id = ? AND token_out_id = ?", tokenInID, tokenOutID)
	q = applyRange(q, rng)
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pair transactions: %w", err)
	}
	return count, nil
}

// PairVolume returns the summed amount_in for a pair within a range
func (s *pgStore) PairVolume(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) (float64, error) {
	var volume *float64
	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Where("token_in_id = ? AND token_out_id = ?", tokenInID, tokenOutID)
	q = applyRange(q, rng)
	if err := q.Select("SUM(amount_in)").Scan(&volume).Error; err != nil {
		return 0, fmt.Errorf("failed to sum pair volume: %w", err)
	}
	if volume == nil {
		return 0, nil
	}
	return *volume, nil
}

// RouteRollup groups all transactions by token pair. Tokens are outer-joined
// so transactions referencing a missing token still contribute their volume
// (shown under the UNKNOWN/N/A placeholders) - the rollup total always equals
// the raw transaction total.
func (s *pgStore) RouteRollup(ctx context.Context, filter RouteFilter) ([]RouteRow, error) {
	q := s.db.WithContext(ctx).Table("bridge_transactions AS bt").
		Select(`bt.token_in_id,
			bt.token_out_id,
			COALESCE(src.symbol, ?) AS source_symbol,
			COALESCE(src.chain, ?) AS source_chain,
			COALESCE(dst.symbol, ?) AS dest_symbol,
			COALESCE(dst.chain, ?) AS dest_chain,
			SUM(bt.amount_in) AS volume,
			AVG(bt.slippage) AS avg_slippage,
			COUNT(bt.id) AS tx_count,
			AVG(bt.amount_in) AS avg_tx_size`,
			assetid.UnknownSymbol, naPlaceholder, assetid.UnknownSymbol, naPlaceholder).
		Joins("LEFT JOIN tokens AS src ON src.id = bt.token_in_id").
		Joins("LEFT JOIN tokens AS dst ON dst.id = bt.token_out_id")

	if filter.Range.Start != nil {
		q = q.Where("bt.created_at >= ?", *filter.Range.Start)
	}
	if filter.Range.End != nil {
		q = q.Where("bt.created_at <= ?", *filter.Range.End)
	}
	if filter.MinAmount != nil {
		q = q.Where("bt.amount_in >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		q = q.Where("bt.amount_in < ?", *filter.MaxAmount)
	}

	var rows []RouteRow
	err := q.Group("bt.token_in_id, bt.token_out_id, src.symbol, src.chain, dst.symbol, dst.chain").
		Order("volume DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate routes: %w", err)
	}
	return rows, nil
}

// DailyStats groups transactions touching any of the tokens by calendar day
func (s *pgStore) DailyStats(ctx context.Context, tokenIDs []int64, rng TimeRange) ([]DailyRow, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}

	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Select("date_trunc('day', created_at) AS day, SUM(amount_in) AS volume, COUNT(id) AS tx_count").
		Where("token_in_id IN ? OR token_out_id IN ?", tokenIDs, tokenIDs)
	q = applyRange(q, rng)

	var rows []DailyRow
	err := q.Group("date_trunc('day', created_at)").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily stats: %w", err)
	}
	return rows, nil
}

// PairDailyStats groups one pair's transactions by calendar day
func (s *pgStore) PairDailyStats(ctx context.Context, tokenInID, tokenOutID int64, rng TimeRange) ([]DailyRow, error) {
	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{}).
		Select("date_trunc('day', created_at) AS day, SUM(amount_in) AS volume, COUNT(id) AS tx_count").
		Where("token_in_id = ? AND token_out_id = ?", tokenInID, tokenOutID)
	q = applyRange(q, rng)

	var rows []DailyRow
	err := q.Group("date_trunc('day', created_at)").
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pair daily stats: %w", err)
	}
	return rows, nil
}

// TransactionStats sums count/volume over a filtered transaction set
func (s *pgStore) TransactionStats(ctx context.Context, tokenIDs []int64, rng TimeRange) (TxStats, error) {
	q := s.db.WithContext(ctx).Model(&schema.BridgeTransaction{})
	if tokenIDs != nil {
		if len(tokenIDs) == 0 {
			return TxStats{}, nil
		}
		q = q.Where("token_in_id IN ? OR token_out_id IN ?", tokenIDs, tokenIDs)
	}
	q = applyRange(q, rng)

	var result struct {
		TxCount int64
		Volume  *float64
	}
	err := q.Select("COUNT(id) AS tx_count, SUM(amount_in) AS volume").Scan(&result).Error
	if err != nil {
		return TxStats{}, fmt.Errorf("failed to aggregate transaction stats: %w", err)
	}

	stats := TxStats{TxCount: result.TxCount}
	if result.Volume != nil {
		stats.Volume = *result.Volume
	}
	return stats, nil
}
