package coingecko

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Meza27/cryptoadvisor/internal/clientdata"
	"github.com/Meza27/cryptoadvisor/internal/domain"
)

const cacheSchema = `
CREATE TABLE coingecko_markets (key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE coingecko_search (key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE coingecko_chart (key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
`

func newCacheRepo(t *testing.T) *clientdata.Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(cacheSchema)
	require.NoError(t, err)

	return clientdata.NewRepository(db)
}

const marketsPayload = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png",
	 "current_price":64000.0,"total_volume":25000000000.0,"market_cap":1250000000000.0,
	 "ath":73000.0,"atl":67.81,"price_change_percentage_24h":2.5,
	 "ath_change_percentage":-12.3,"atl_change_percentage":94000.0},
	{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png",
	 "current_price":3100.0,"total_volume":12000000000.0,"market_cap":380000000000.0,
	 "ath":4878.26,"atl":0.43,"price_change_percentage_24h":-1.2,
	 "ath_change_percentage":-36.4,"atl_change_percentage":710000.0}
]`

func TestFetchTopByMarketCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	snapshots, err := client.FetchTopByMarketCap(2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "bitcoin", snapshots[0].ID)
	assert.Equal(t, "btc", snapshots[0].Symbol)
	assert.Equal(t, 64000.0, snapshots[0].CurrentPrice)
	assert.Equal(t, 2.5, snapshots[0].PriceChangePercentage24h)
	assert.Equal(t, "ethereum", snapshots[1].ID)
}

func TestFetchTopByMarketCapInvalidSize(t *testing.T) {
	client := NewClient("http://unused", nil, zerolog.Nop())

	_, err := client.FetchTopByMarketCap(0)
	assert.Error(t, err)
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64000.0}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	snap, err := client.FetchSnapshot("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", snap.ID)
	assert.Equal(t, 64000.0, snap.CurrentPrice)
}

func TestFetchSnapshotUnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := client.FetchSnapshot("does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveIdentifierExactSymbolMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("query"))
		w.Write([]byte(`{"coins":[
			{"id":"batcat","symbol":"BTCAT","name":"BatCat"},
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	// Exact symbol match beats the first listed hit, case-insensitively.
	id, err := client.ResolveIdentifier("BTC")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", id)
}

func TestResolveIdentifierExactNameMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"coins":[
			{"id":"wrapped-solana","symbol":"wsol","name":"Wrapped Solana"},
			{"id":"solana","symbol":"sol","name":"Solana"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	id, err := client.ResolveIdentifier("solana")
	require.NoError(t, err)
	assert.Equal(t, "solana", id)
}

func TestResolveIdentifierFirstHitFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"coins":[
			{"id":"dogecoin","symbol":"doge","name":"Dogecoin"},
			{"id":"dogelon-mars","symbol":"elon","name":"Dogelon Mars"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	id, err := client.ResolveIdentifier("dog")
	require.NoError(t, err)
	assert.Equal(t, "dogecoin", id)
}

func TestResolveIdentifierNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"coins":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := client.ResolveIdentifier("zzzznothing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveIdentifierEmptyQuery(t *testing.T) {
	client := NewClient("http://unused", nil, zerolog.Nop())

	_, err := client.ResolveIdentifier("   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchPriceHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`{"prices":[[1700000000000,63000.5],[1700086400000,64000.0]]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	points, err := client.FetchPriceHistory("bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1700000000000), points[0].Timestamp)
	assert.Equal(t, 63000.5, points[0].Price)
}

func TestCacheHitSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newCacheRepo(t), zerolog.Nop())

	first, err := client.FetchTopByMarketCap(2)
	require.NoError(t, err)

	second, err := client.FetchTopByMarketCap(2)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
}

func TestStaleFallbackOnAPIError(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	repo := newCacheRepo(t)
	client := NewClient(srv.URL, repo, zerolog.Nop())

	// Seed an already expired entry and make the API fail. The stale
	// copy should still be served.
	fail.Store(true)
	require.NoError(t, repo.Store(clientdata.TableMarkets, "top:2", []domain.MarketSnapshot{{ID: "bitcoin"}}, -time.Hour))

	snapshots, err := client.FetchTopByMarketCap(2)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "bitcoin", snapshots[0].ID)
}

func TestErrorWithoutCacheFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())

	_, err := client.FetchTopByMarketCap(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
