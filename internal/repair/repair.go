package repair

import (
	"context"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/intentscan/bridge-indexer/internal/assetid"
	"github.com/intentscan/bridge-indexer/internal/logger"
	"github.com/intentscan/bridge-indexer/internal/store"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

// Config tunes a repair pass.
type Config struct {
	// Workers bounds the concurrent re-parse pool
	Workers int
	// DryRun reports changes without writing them
	DryRun bool
}

// Change records one token whose stored identity disagrees with a fresh
// parse of its asset id.
type Change struct {
	TokenID    int64
	AssetID    string
	OldSymbol  string
	NewSymbol  string
	OldChain   *string
	NewChain   *string
	OldAddress *string
	NewAddress *string
}

// Result summarizes a repair pass.
type Result struct {
	Scanned int
	Changes []Change
	Applied int
}

// Run re-parses every stored token and overwrites rows whose chain, address
// or symbol drifted from what the current parser produces. Safe to re-run;
// a second pass over repaired data finds nothing to change.
func Run(ctx context.Context, st store.Store, cfg Config) (Result, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}

	tokens, err := st.ListTokens(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list tokens: %w", err)
	}

	var mu sync.Mutex
	var changes []Change

	pool := pond.NewPool(cfg.Workers, pond.WithContext(ctx))
	for _, tok := range tokens {
		tok := tok
		pool.Submit(func() {
			if change, changed := diff(tok); changed {
				mu.Lock()
				changes = append(changes, change)
				mu.Unlock()
			}
		})
	}
	pool.StopAndWait()

	result := Result{Scanned: len(tokens), Changes: changes}
	if cfg.DryRun {
		for _, c := range changes {
			logger.Info("would repair token",
				zap.Int64("tokenID", c.TokenID),
				zap.String("assetID", c.AssetID),
				zap.String("oldSymbol", c.OldSymbol),
				zap.String("newSymbol", c.NewSymbol))
		}
		return result, nil
	}

	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := st.UpdateTokenIdentity(ctx, c.TokenID, c.NewChain, c.NewAddress, c.NewSymbol); err != nil {
			return result, fmt.Errorf("update token %d: %w", c.TokenID, err)
		}
		result.Applied++
		logger.Info("repaired token",
			zap.Int64("tokenID", c.TokenID),
			zap.String("assetID", c.AssetID),
			zap.String("symbol", c.NewSymbol))
	}
	return result, nil
}

func diff(tok *schema.Token) (Change, bool) {
	identity := assetid.Parse(tok.AssetID)
	if tok.Symbol == identity.Symbol &&
		strPtrEqual(tok.Chain, identity.Chain) &&
		strPtrEqual(tok.Address, identity.Address) {
		return Change{}, false
	}
	return Change{
		TokenID:    tok.ID,
		AssetID:    tok.AssetID,
		OldSymbol:  tok.Symbol,
		NewSymbol:  identity.Symbol,
		OldChain:   tok.Chain,
		NewChain:   identity.Chain,
		OldAddress: tok.Address,
		NewAddress: identity.Address,
	}, true
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
