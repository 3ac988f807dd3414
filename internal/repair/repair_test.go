package repair

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentscan/bridge-indexer/internal/store"
	"github.com/intentscan/bridge-indexer/internal/store/schema"
)

type fakeStore struct {
	store.Store

	mu     sync.Mutex
	tokens []*schema.Token
}

func (f *fakeStore) ListTokens(context.Context) ([]*schema.Token, error) {
	return f.tokens, nil
}

func (f *fakeStore) UpdateTokenIdentity(_ context.Context, tokenID int64, chain, address *string, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tok := range f.tokens {
		if tok.ID == tokenID {
			tok.Chain = chain
			tok.Address = address
			tok.Symbol = symbol
			return nil
		}
	}
	return nil
}

func strptr(s string) *string { return &s }

func seedStore() *fakeStore {
	return &fakeStore{
		tokens: []*schema.Token{
			// correct row, repair must not touch it
			{ID: 1, AssetID: "nep141:eth.omft.near", Symbol: "ETH", Chain: strptr("eth"), Address: strptr("native")},
			// symbol drifted, stored before the mapping existed
			{ID: 2, AssetID: "nep141:arb-0xaf88d065e77c8cc2239327c5edb3a432268e5831.omft.near", Symbol: "UNKNOWN", Chain: strptr("arb"), Address: strptr("0xaf88d065e77c8cc2239327c5edb3a432268e5831")},
			// chain never parsed
			{ID: 3, AssetID: "nep141:wrap.near", Symbol: "WNEAR", Chain: nil, Address: nil},
		},
	}
}

func TestRunRepairsDriftedTokens(t *testing.T) {
	st := seedStore()

	result, err := Run(context.Background(), st, Config{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Scanned)
	assert.Len(t, result.Changes, 2)
	assert.Equal(t, 2, result.Applied)

	assert.Equal(t, "USDC", st.tokens[1].Symbol)
	require.NotNil(t, st.tokens[2].Chain)
	assert.Equal(t, "NEAR", *st.tokens[2].Chain)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	st := seedStore()

	result, err := Run(context.Background(), st, Config{Workers: 4, DryRun: true})
	require.NoError(t, err)

	assert.Len(t, result.Changes, 2)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, "UNKNOWN", st.tokens[1].Symbol)
	assert.Nil(t, st.tokens[2].Chain)
}

func TestRunIsIdempotent(t *testing.T) {
	st := seedStore()

	_, err := Run(context.Background(), st, Config{})
	require.NoError(t, err)

	result, err := Run(context.Background(), st, Config{})
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
	assert.Equal(t, 0, result.Applied)
}
