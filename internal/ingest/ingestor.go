package ingest

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/intentscan/bridge-indexer/internal/explorer"
	"github.com/intentscan/bridge-indexer/internal/logger"
	"github.com/intentscan/bridge-indexer/internal/store"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

// Config tunes a single ingestion run.
type Config struct {
	// PageSize is the number of transactions requested per explorer page
	PageSize int
	// MaxPages caps the pages fetched in one run, 0 means unbounded
	MaxPages int
}

// Result summarizes one completed run.
type Result struct {
	RunID             string
	PagesFetched      int
	Inserted          int64
	SkippedDuplicates int
	SkippedMalformed  int
	Cursor            *time.Time
}

// Ingestor walks the explorer history backwards from the oldest stored
// transaction and persists every page it has not seen before. Runs are
// idempotent: interrupt one anywhere and the next run resumes from the
// database state alone.
type Ingestor struct {
	store    store.Store
	explorer explorer.Client
	cfg      Config
}

func New(s store.Store, c explorer.Client, cfg Config) *Ingestor {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	return &Ingestor{store: s, explorer: c, cfg: cfg}
}

// Run executes one ingestion pass. It never returns a panic to the caller;
// a panic inside the loop is logged with its stack and surfaced as an error
// so the scheduler survives to trigger the next run.
func (in *Ingestor) Run(ctx context.Context) (result Result, err error) {
	result.RunID = uuid.New().String()
	log := logger.Default().With(zap.String("runID", result.RunID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("ingestion run panicked",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("ingestion run panicked: %v", r)
		}
	}()

	cursor, err := in.store.OldestTransactionTime(ctx)
	if err != nil {
		return result, fmt.Errorf("load ingestion cursor: %w", err)
	}
	if cursor != nil {
		log.Info("resuming ingestion", zap.Time("cursor", *cursor))
	} else {
		log.Info("starting ingestion from latest")
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if in.cfg.MaxPages > 0 && result.PagesFetched >= in.cfg.MaxPages {
			log.Info("page cap reached", zap.Int("pages", result.PagesFetched))
			break
		}

		txs, fetchErr := in.explorer.FetchPage(ctx, in.cfg.PageSize, cursor)
		if fetchErr != nil {
			// The explorer signals exhaustion with an error status rather
			// than an empty page, so a failed fetch ends the run cleanly.
			log.Warn("fetch failed, treating as end of data", zap.Error(fetchErr))
			break
		}
		result.PagesFetched++

		if len(txs) == 0 {
			log.Info("empty page, history exhausted")
			break
		}

		pageOldest, perr := in.processPage(ctx, log, txs, &result)
		if perr != nil {
			return result, perr
		}

		if pageOldest == nil {
			// every record on the page was malformed; without a parsed
			// timestamp the cursor cannot advance
			log.Warn("page yielded no usable timestamps, stopping")
			break
		}
		if cursor != nil && !pageOldest.Before(*cursor) {
			// a bound that fails to move strictly backwards would refetch
			// the same page forever
			log.Info("cursor no longer advancing, history exhausted",
				zap.Time("cursor", *cursor), zap.Time("pageOldest", *pageOldest))
			break
		}
		cursor = pageOldest
		result.Cursor = cursor

		if len(txs) < in.cfg.PageSize {
			log.Info("short page, history exhausted", zap.Int("size", len(txs)))
			break
		}
	}

	if err := in.store.RefreshPairStats(ctx); err != nil {
		return result, fmt.Errorf("refresh pair stats: %w", err)
	}

	log.Info("ingestion run finished",
		zap.Int("pages", result.PagesFetched),
		zap.Int64("inserted", result.Inserted),
		zap.Int("skippedDuplicates", result.SkippedDuplicates),
		zap.Int("skippedMalformed", result.SkippedMalformed))
	return result, nil
}

// processPage persists one fetched page and returns the oldest event time
// seen on it, nil when no record parsed.
func (in *Ingestor) processPage(ctx context.Context, log *zap.Logger, txs []explorer.Transaction, result *Result) (*time.Time, error) {
	type parsed struct {
		tx        explorer.Transaction
		createdAt time.Time
	}

	var oldest *time.Time
	keys := make([]string, 0, len(txs))
	candidates := make([]parsed, 0, len(txs))
	assetIDs := make([]string, 0, len(txs)*2)

	for _, tx := range txs {
		if tx.DepositKey == "" || tx.OriginAsset == "" || tx.DestinationAsset == "" {
			log.Warn("skipping malformed record",
				zap.String("depositKey", tx.DepositKey),
				zap.String("createdAt", tx.CreatedAt))
			result.SkippedMalformed++
			continue
		}
		createdAt, err := explorer.ParseCreatedAt(tx.CreatedAt)
		if err != nil {
			log.Warn("skipping record with bad timestamp",
				zap.String("depositKey", tx.DepositKey),
				zap.String("createdAt", tx.CreatedAt),
				zap.Error(err))
			result.SkippedMalformed++
			continue
		}
		if oldest == nil || createdAt.Before(*oldest) {
			t := createdAt
			oldest = &t
		}
		keys = append(keys, tx.DepositKey)
		candidates = append(candidates, parsed{tx: tx, createdAt: createdAt})
		assetIDs = append(assetIDs, tx.OriginAsset, tx.DestinationAsset)
	}
	if len(candidates) == 0 {
		return oldest, nil
	}

	existing, err := in.store.ExistingDepositKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("check existing deposit keys: %w", err)
	}

	tokens, err := in.store.GetOrCreateTokens(ctx, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve tokens: %w", err)
	}

	rows := make([]*schema.BridgeTransaction, 0, len(candidates))
	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.tx.DepositKey]; ok {
			result.SkippedDuplicates++
			continue
		}
		if _, ok := seen[c.tx.DepositKey]; ok {
			result.SkippedDuplicates++
			continue
		}
		seen[c.tx.DepositKey] = struct{}{}

		tokenIn, okIn := tokens[c.tx.OriginAsset]
		tokenOut, okOut := tokens[c.tx.DestinationAsset]
		if !okIn || !okOut {
			log.Warn("skipping record with unresolved token",
				zap.String("depositKey", c.tx.DepositKey),
				zap.String("originAsset", c.tx.OriginAsset),
				zap.String("destinationAsset", c.tx.DestinationAsset))
			result.SkippedMalformed++
			continue
		}

		rows = append(rows, &schema.BridgeTransaction{
			TokenInID:      tokenIn.ID,
			TokenOutID:     tokenOut.ID,
			AmountIn:       c.tx.AmountInUSD,
			AmountOut:      c.tx.AmountOutUSD,
			Slippage:       Slippage(c.tx.AmountInUSD, c.tx.AmountOutUSD),
			DepositAddress: c.tx.DepositAddress,
			DepositKey:     c.tx.DepositKey,
			Status:         c.tx.Status,
			IntentHashes:   datatypes.JSON(c.tx.IntentHashes),
			CreatedAt:      c.createdAt,
			FetchedAt:      now,
		})
	}

	if len(rows) > 0 {
		inserted, err := in.store.CreateTransactions(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("insert transactions: %w", err)
		}
		// rows lost to a concurrent writer racing the same deposit keys
		// count as duplicates, not failures
		result.SkippedDuplicates += len(rows) - int(inserted)
		result.Inserted += inserted
	}

	return oldest, nil
}

// Slippage is the percentage lost between the deposited and received USD
// amounts. Zero when the input amount is not positive.
func Slippage(amountIn, amountOut float64) float64 {
	if amountIn <= 0 {
		return 0
	}
	return (amountIn - amountOut) / amountIn * 100
}
