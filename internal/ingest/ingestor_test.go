package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentscan/bridge-indexer/internal/assetid"
	"github.com/intentscan/bridge-indexer/internal/explorer"
	"github.com/intentscan/bridge-indexer/internal/store"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

// fakeExplorer serves a pre-built history slice the way the real API does:
// newest first, pages bounded by the endTimestamp cursor.
type fakeExplorer struct {
	history      []explorer.Transaction // sorted newest first
	fetches      int
	failAfter    int  // fetches beyond this index return an error, 0 disables
	ignoreCursor bool // serve pages as if endTimestamp were never sent
}

func (f *fakeExplorer) FetchPage(_ context.Context, pageSize int, endTimestamp *time.Time) ([]explorer.Transaction, error) {
	f.fetches++
	if f.failAfter > 0 && f.fetches > f.failAfter {
		return nil, errors.New("upstream gone")
	}
	var page []explorer.Transaction
	for _, tx := range f.history {
		ts, err := explorer.ParseCreatedAt(tx.CreatedAt)
		if err == nil && !f.ignoreCursor && endTimestamp != nil && !ts.Before(*endTimestamp) {
			continue
		}
		page = append(page, tx)
		if len(page) == pageSize {
			break
		}
	}
	return page, nil
}

// fakeStore keeps everything in maps and records enough to assert on.
type fakeStore struct {
	store.Store // panic on anything the ingestor should never call

	tokens       map[string]*schema.Token
	transactions map[string]*schema.BridgeTransaction
	nextTokenID  int64

	refreshCalls int
	insertCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:       map[string]*schema.Token{},
		transactions: map[string]*schema.BridgeTransaction{},
	}
}

func (f *fakeStore) GetOrCreateTokens(_ context.Context, assetIDs []string) (map[string]*schema.Token, error) {
	out := make(map[string]*schema.Token, len(assetIDs))
	for _, id := range assetIDs {
		if tok, ok := f.tokens[id]; ok {
			out[id] = tok
			continue
		}
		identity := assetid.Parse(id)
		f.nextTokenID++
		tok := &schema.Token{
			ID:      f.nextTokenID,
			AssetID: id,
			Symbol:  identity.Symbol,
			Chain:   identity.Chain,
			Address: identity.Address,
		}
		f.tokens[id] = tok
		out[id] = tok
	}
	return out, nil
}

func (f *fakeStore) ExistingDepositKeys(_ context.Context, keys []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, k := range keys {
		if _, ok := f.transactions[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTransactions(_ context.Context, txs []*schema.BridgeTransaction) (int64, error) {
	f.insertCalls++
	var inserted int64
	for _, tx := range txs {
		if _, ok := f.transactions[tx.DepositKey]; ok {
			continue
		}
		f.transactions[tx.DepositKey] = tx
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) OldestTransactionTime(_ context.Context) (*time.Time, error) {
	var oldest *time.Time
	for _, tx := range f.transactions {
		if oldest == nil || tx.CreatedAt.Before(*oldest) {
			t := tx.CreatedAt
			oldest = &t
		}
	}
	return oldest, nil
}

func (f *fakeStore) RefreshPairStats(_ context.Context) error {
	f.refreshCalls++
	return nil
}

func historyTx(i int, createdAt time.Time) explorer.Transaction {
	return explorer.Transaction{
		DepositKey:       fmt.Sprintf("deposit-%d:memo", i),
		OriginAsset:      "nep141:eth.omft.near",
		DestinationAsset: "nep141:arb-0xaf88d065e77c8cc2239327c5edb3a432268e5831.omft.near",
		AmountInUSD:      1000,
		AmountOutUSD:     998,
		CreatedAt:        createdAt.Format(time.RFC3339),
		DepositAddress:   fmt.Sprintf("deposit-%d", i),
		Status:           "SUCCESS",
		IntentHashes:     []byte(`["0xdeadbeef"]`),
	}
}

// buildHistory returns n transactions one minute apart, newest first.
func buildHistory(n int) []explorer.Transaction {
	base := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	out := make([]explorer.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = historyTx(i, base.Add(-time.Duration(i)*time.Minute))
	}
	return out
}

func TestRunIngestsFullHistory(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExplorer{history: buildHistory(25)}
	in := New(st, ex, Config{PageSize: 10})

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(25), result.Inserted)
	assert.Len(t, st.transactions, 25)
	// 10 + 10 + 5, the short final page terminates the walk
	assert.Equal(t, 3, result.PagesFetched)
	assert.Equal(t, 1, st.refreshCalls)
}

func TestRunIsIdempotent(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExplorer{history: buildHistory(15)}
	in := New(st, ex, Config{PageSize: 10})

	_, err := in.Run(context.Background())
	require.NoError(t, err)

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Inserted)
	assert.Len(t, st.transactions, 15)
}

func TestRunResumesFromStoredCursor(t *testing.T) {
	history := buildHistory(30)
	st := newFakeStore()

	// first run capped at one page, as if interrupted
	in := New(st, &fakeExplorer{history: history}, Config{PageSize: 10, MaxPages: 1})
	result, err := in.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.Inserted)

	// second run resumes from database state, not an in-memory cursor
	ex := &fakeExplorer{history: history}
	in = New(st, ex, Config{PageSize: 10})
	result, err = in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.Inserted)
	assert.Len(t, st.transactions, 30)
}

func TestRunSkipsMalformedRecords(t *testing.T) {
	history := buildHistory(5)
	history[1].DepositKey = ""
	history[2].CreatedAt = "garbage"
	history[3].OriginAsset = ""

	st := newFakeStore()
	in := New(st, &fakeExplorer{history: history}, Config{PageSize: 10})

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Inserted)
	assert.Equal(t, 3, result.SkippedMalformed)
}

func TestRunDeduplicatesWithinPage(t *testing.T) {
	history := buildHistory(4)
	history[2].DepositKey = history[0].DepositKey

	st := newFakeStore()
	in := New(st, &fakeExplorer{history: history}, Config{PageSize: 10})

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Inserted)
	assert.Equal(t, 1, result.SkippedDuplicates)
}

func TestRunStopsOnStuckCursor(t *testing.T) {
	// an upstream that ignores the cursor keeps serving the same page; the
	// non-advancing bound must terminate the walk instead of looping
	st := newFakeStore()
	ex := &fakeExplorer{history: buildHistory(6), ignoreCursor: true}
	in := New(st, ex, Config{PageSize: 3})

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	// page 2 repeats page 1, its oldest timestamp equals the cursor
	assert.Equal(t, int64(3), result.Inserted)
	assert.Equal(t, 2, ex.fetches)
	assert.Equal(t, 3, result.SkippedDuplicates)
	assert.Equal(t, 1, st.refreshCalls)
}

func TestRunTreatsFetchErrorAsEndOfData(t *testing.T) {
	st := newFakeStore()
	ex := &fakeExplorer{history: buildHistory(30), failAfter: 2}
	in := New(st, ex, Config{PageSize: 10})

	result, err := in.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.Inserted)
	assert.Equal(t, 1, st.refreshCalls)
}

func TestRunComputesSlippage(t *testing.T) {
	history := buildHistory(1)
	history[0].AmountInUSD = 200
	history[0].AmountOutUSD = 150

	st := newFakeStore()
	in := New(st, &fakeExplorer{history: history}, Config{PageSize: 10})

	_, err := in.Run(context.Background())
	require.NoError(t, err)

	tx := st.transactions[history[0].DepositKey]
	require.NotNil(t, tx)
	assert.InDelta(t, 25.0, tx.Slippage, 1e-9)
}

func TestSlippage(t *testing.T) {
	assert.InDelta(t, 0.2, Slippage(1000, 998), 1e-9)
	assert.Equal(t, 0.0, Slippage(0, 998))
	assert.Equal(t, 0.0, Slippage(-5, 10))
	assert.InDelta(t, -1.0, Slippage(100, 101), 1e-9)
}
