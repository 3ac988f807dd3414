package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentscan/bridge-indexer/internal/adapter"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(adapter.NewHTTPClient(5*time.Second), Config{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		StartDate:       "2025-10-01",
		RequestInterval: time.Millisecond,
	})
}

func TestFetchPageRequestShape(t *testing.T) {
	var gotAuth string
	var gotQuery map[string][]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	})

	cursor := time.Date(2025, 10, 15, 12, 30, 45, 0, time.UTC)
	_, err := client.FetchPage(context.Background(), 1000, &cursor)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"1000"}, gotQuery["numberOfTransactions"])
	assert.Equal(t, []string{"2025-10-01T00:00:00Z"}, gotQuery["startTimestamp"])
	assert.Equal(t, []string{"SUCCESS"}, gotQuery["statuses"])
	assert.Equal(t, []string{"next"}, gotQuery["direction"])
	assert.Equal(t, []string{"2025-10-15T12:30:45Z"}, gotQuery["endTimestamp"])
}

func TestFetchPageOmitsCursorOnFirstCall(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.FetchPage(context.Background(), 500, nil)
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "endTimestamp")
}

func TestFetchPageDecodesBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"depositAddressAndMemo":"addr1:memo1","originAsset":"nep141:wrap.near","destinationAsset":"nep141:eth.omft.near","amountInUsd":1000,"amountOutUsd":995,"createdAt":"2025-10-14T08:00:00Z","depositAddress":"addr1","status":"SUCCESS","intentHashes":["0xabc"]}
		]`))
	})

	txs, err := client.FetchPage(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "addr1:memo1", txs[0].DepositKey)
	assert.Equal(t, 1000.0, txs[0].AmountInUSD)
	assert.Equal(t, 995.0, txs[0].AmountOutUSD)
	assert.JSONEq(t, `["0xabc"]`, string(txs[0].IntentHashes))
}

func TestFetchPageDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"depositAddressAndMemo":"k1"},{"depositAddressAndMemo":"k2"}]}`))
	})

	txs, err := client.FetchPage(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "k2", txs[1].DepositKey)
}

func TestFetchPageNon200IsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.FetchPage(context.Background(), 10, nil)
	assert.Error(t, err)
}

func TestParseCreatedAt(t *testing.T) {
	ts, err := ParseCreatedAt("2025-10-14T08:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 14, 8, 0, 0, 0, time.UTC), ts)

	ts, err = ParseCreatedAt("2025-10-14T08:00:00.250Z")
	require.NoError(t, err)
	assert.Equal(t, 250*int(time.Millisecond), ts.Nanosecond())

	_, err = ParseCreatedAt("not-a-timestamp")
	assert.Error(t, err)

	_, err = ParseCreatedAt("")
	assert.Error(t, err)
}
