package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/intentscan/bridge-indexer/internal/assetid"
	"github.com/intentscan/bridge-indexer/internal/store"
)

// DateRange is an inclusive calendar-date window. Either side may be nil.
// Bounds are expanded to day boundaries before they reach the store, so a
// range of one date covers that entire day.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) storeRange() store.TimeRange {
	var out store.TimeRange
	if r.Start != nil {
		t := startOfDay(*r.Start)
		out.Start = &t
	}
	if r.End != nil {
		t := startOfDay(*r.End).AddDate(0, 0, 1).Add(-time.Nanosecond)
		out.End = &t
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Matrix is a square chain-by-chain view for one symbol. Cells index as
// [source][destination]. The diagonal is always zero; an off-diagonal nil
// means no transactions matched, which is distinct from a measured zero.
type Matrix struct {
	Symbol string
	Chains []string
	Cells  [][]*float64
}

// Route is one aggregated source-to-destination flow.
type Route struct {
	SourceSymbol string
	SourceChain  string
	DestSymbol   string
	DestChain    string
	Volume       float64
	AvgSlippage  float64
	TxCount      int64
	AvgTxSize    float64
	ZeroFee      bool
}

// Endpoint names one side of a route by symbol and chain, both matched
// case-insensitively.
type Endpoint struct {
	Symbol string
	Chain  string
}

// DailyPoint is one calendar day of volume and count.
type DailyPoint struct {
	Date    time.Time
	Volume  float64
	TxCount int64
}

// Engine answers the read-side questions over the store. All methods return
// explicit empty values for unknown symbols or empty windows, never errors.
type Engine struct {
	store store.Store
}

func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// chainIndex resolves a symbol to its chains and the token ids behind each
// chain, built once per query. Tokens without a parsed chain are excluded
// from matrix views.
func (e *Engine) chainIndex(ctx context.Context, symbol string) ([]string, map[string][]int64, error) {
	tokens, err := e.store.TokensForSymbol(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	byChain := make(map[string][]int64)
	for _, tok := range tokens {
		if tok.Chain == nil || *tok.Chain == "" {
			continue
		}
		chain := strings.ToUpper(*tok.Chain)
		byChain[chain] = append(byChain[chain], tok.ID)
	}
	chains := make([]string, 0, len(byChain))
	for chain := range byChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)
	return chains, byChain, nil
}

// SlippageMatrix aggregates slippage per chain pair with the given selector.
func (e *Engine) SlippageMatrix(ctx context.Context, symbol string, rng DateRange, sel Selector) (*Matrix, error) {
	return e.buildMatrix(ctx, symbol, func(ctx context.Context, srcIDs, dstIDs []int64) (*float64, error) {
		var values []float64
		for _, in := range srcIDs {
			for _, out := range dstIDs {
				vs, err := e.store.SlippageValues(ctx, in, out, rng.storeRange())
				if err != nil {
					return nil, err
				}
				values = append(values, vs...)
			}
		}
		v, ok := sel.Apply(values)
		if !ok {
			return nil, nil
		}
		return &v, nil
	})
}

// CountMatrix aggregates transaction counts per chain pair.
func (e *Engine) CountMatrix(ctx context.Context, symbol string, rng DateRange) (*Matrix, error) {
	return e.buildMatrix(ctx, symbol, func(ctx context.Context, srcIDs, dstIDs []int64) (*float64, error) {
		var total int64
		for _, in := range srcIDs {
			for _, out := range dstIDs {
				n, err := e.store.PairCount(ctx, in, out, rng.storeRange())
				if err != nil {
					return nil, err
				}
				total += n
			}
		}
		if total == 0 {
			return nil, nil
		}
		v := float64(total)
		return &v, nil
	})
}

// VolumeMatrix aggregates deposited volume per chain pair. A pair with
// transactions but zero summed volume shows 0 rather than missing.
func (e *Engine) VolumeMatrix(ctx context.Context, symbol string, rng DateRange) (*Matrix, error) {
	return e.buildMatrix(ctx, symbol, func(ctx context.Context, srcIDs, dstIDs []int64) (*float64, error) {
		var total float64
		var count int64
		for _, in := range srcIDs {
			for _, out := range dstIDs {
				n, err := e.store.PairCount(ctx, in, out, rng.storeRange())
				if err != nil {
					return nil, err
				}
				if n == 0 {
					continue
				}
				count += n
				v, err := e.store.PairVolume(ctx, in, out, rng.storeRange())
				if err != nil {
					return nil, err
				}
				total += v
			}
		}
		if count == 0 {
			return nil, nil
		}
		return &total, nil
	})
}

func (e *Engine) buildMatrix(ctx context.Context, symbol string, cell func(ctx context.Context, srcIDs, dstIDs []int64) (*float64, error)) (*Matrix, error) {
	chains, byChain, err := e.chainIndex(ctx, symbol)
	if err != nil {
		return nil, err
	}

	m := &Matrix{
		Symbol: strings.ToUpper(symbol),
		Chains: chains,
		Cells:  make([][]*float64, len(chains)),
	}
	zero := 0.0
	for i, src := range chains {
		m.Cells[i] = make([]*float64, len(chains))
		for j, dst := range chains {
			if i == j {
				z := zero
				m.Cells[i][j] = &z
				continue
			}
			v, err := cell(ctx, byChain[src], byChain[dst])
			if err != nil {
				return nil, err
			}
			m.Cells[i][j] = v
		}
	}
	return m, nil
}

// Routes returns every aggregated route sorted by volume descending,
// optionally bounded by an amount_in window [min, max).
func (e *Engine) Routes(ctx context.Context, rng DateRange, minAmount, maxAmount *float64) ([]Route, error) {
	rows, err := e.store.RouteRollup(ctx, store.RouteFilter{
		Range:     rng.storeRange(),
		MinAmount: minAmount,
		MaxAmount: maxAmount,
	})
	if err != nil {
		return nil, err
	}
	routes := make([]Route, 0, len(rows))
	for _, row := range rows {
		r := Route{
			SourceSymbol: row.SourceSymbol,
			SourceChain:  row.SourceChain,
			DestSymbol:   row.DestSymbol,
			DestChain:    row.DestChain,
			Volume:       row.Volume,
			AvgSlippage:  row.AvgSlippage,
			TxCount:      row.TxCount,
			AvgTxSize:    row.AvgTxSize,
		}
		if strings.EqualFold(row.SourceSymbol, row.DestSymbol) {
			r.ZeroFee = assetid.IsZeroFeeRoute(row.SourceSymbol, row.SourceChain, row.DestChain)
		}
		routes = append(routes, r)
	}
	return routes, nil
}

// DailySeries returns per-day volume and count for every transaction
// touching the symbol on either side.
func (e *Engine) DailySeries(ctx context.Context, symbol string, rng DateRange) ([]DailyPoint, error) {
	ids, err := e.tokenIDs(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []DailyPoint{}, nil
	}
	rows, err := e.store.DailyStats(ctx, ids, rng.storeRange())
	if err != nil {
		return nil, err
	}
	return toDailyPoints(rows), nil
}

// RouteDailySeries returns per-day volume and count for one route.
func (e *Engine) RouteDailySeries(ctx context.Context, src, dst Endpoint, rng DateRange) ([]DailyPoint, error) {
	srcIDs, dstIDs, err := e.endpointIDs(ctx, src, dst)
	if err != nil {
		return nil, err
	}

	merged := make(map[time.Time]*DailyPoint)
	for _, in := range srcIDs {
		for _, out := range dstIDs {
			rows, err := e.store.PairDailyStats(ctx, in, out, rng.storeRange())
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				day := row.Day.UTC()
				p, ok := merged[day]
				if !ok {
					p = &DailyPoint{Date: day}
					merged[day] = p
				}
				p.Volume += row.Volume
				p.TxCount += row.TxCount
			}
		}
	}

	out := make([]DailyPoint, 0, len(merged))
	for _, p := range merged {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// RouteSlippage applies the selector to one route's slippage samples.
// ok is false when the route has no transactions in the window.
func (e *Engine) RouteSlippage(ctx context.Context, src, dst Endpoint, sel Selector, rng DateRange) (float64, bool, error) {
	srcIDs, dstIDs, err := e.endpointIDs(ctx, src, dst)
	if err != nil {
		return 0, false, err
	}
	var values []float64
	for _, in := range srcIDs {
		for _, out := range dstIDs {
			vs, err := e.store.SlippageValues(ctx, in, out, rng.storeRange())
			if err != nil {
				return 0, false, err
			}
			values = append(values, vs...)
		}
	}
	v, ok := sel.Apply(values)
	return v, ok, nil
}

// TokenStats sums count and volume over every transaction touching the symbol.
func (e *Engine) TokenStats(ctx context.Context, symbol string, rng DateRange) (store.TxStats, error) {
	ids, err := e.tokenIDs(ctx, symbol)
	if err != nil {
		return store.TxStats{}, err
	}
	if len(ids) == 0 {
		return store.TxStats{}, nil
	}
	return e.store.TransactionStats(ctx, ids, rng.storeRange())
}

// OverallStats sums count and volume over the whole table.
func (e *Engine) OverallStats(ctx context.Context, rng DateRange) (store.TxStats, error) {
	return e.store.TransactionStats(ctx, nil, rng.storeRange())
}

// AvailableSymbols returns every known symbol, uppercased and sorted.
func (e *Engine) AvailableSymbols(ctx context.Context) ([]string, error) {
	return e.store.AvailableSymbols(ctx)
}

// EarliestDate returns the date of the oldest stored transaction, nil when
// the store is empty.
func (e *Engine) EarliestDate(ctx context.Context) (*time.Time, error) {
	t, err := e.store.EarliestTransactionTime(ctx)
	if err != nil || t == nil {
		return nil, err
	}
	d := startOfDay(*t)
	return &d, nil
}

func (e *Engine) tokenIDs(ctx context.Context, symbol string) ([]int64, error) {
	tokens, err := e.store.TokensForSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		ids = append(ids, tok.ID)
	}
	return ids, nil
}

func (e *Engine) endpointIDs(ctx context.Context, src, dst Endpoint) ([]int64, []int64, error) {
	srcIDs, err := e.endpointTokenIDs(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	dstIDs, err := e.endpointTokenIDs(ctx, dst)
	if err != nil {
		return nil, nil, err
	}
	return srcIDs, dstIDs, nil
}

func (e *Engine) endpointTokenIDs(ctx context.Context, ep Endpoint) ([]int64, error) {
	tokens, err := e.store.TokensForSymbol(ctx, ep.Symbol)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, tok := range tokens {
		if tok.Chain != nil && strings.EqualFold(*tok.Chain, ep.Chain) {
			ids = append(ids, tok.ID)
		}
	}
	return ids, nil
}

func toDailyPoints(rows []store.DailyRow) []DailyPoint {
	out := make([]DailyPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, DailyPoint{Date: row.Day.UTC(), Volume: row.Volume, TxCount: row.TxCount})
	}
	return out
}
