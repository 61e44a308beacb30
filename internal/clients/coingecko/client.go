// Package coingecko provides market data fetching and caching for the CoinGecko API.
package coingecko

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/clientdata"
	"github.com/Meza27/cryptoadvisor/internal/domain"
)

// Client for the CoinGecko public API.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new CoinGecko client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "coingecko").Logger(),
		cacheRepo: cacheRepo,
	}
}

// searchResponse mirrors the /search endpoint payload.
type searchResponse struct {
	Coins []searchCoin `json:"coins"`
}

type searchCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ResolveIdentifier maps a user supplied symbol or name to a CoinGecko coin id.
// An exact case-insensitive symbol or name match wins, otherwise the first
// search hit is used. Returns domain.ErrNotFound when nothing matches.
func (c *Client) ResolveIdentifier(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", domain.ErrNotFound
	}

	cacheKey := strings.ToLower(q)

	var result searchResponse
	endpoint := c.baseURL + "/search?query=" + url.QueryEscape(q)
	if err := c.getJSON(endpoint, clientdata.TableSearch, cacheKey, clientdata.TTLSearch, &result); err != nil {
		return "", err
	}

	if len(result.Coins) == 0 {
		return "", domain.ErrNotFound
	}

	lower := strings.ToLower(q)
	for _, coin := range result.Coins {
		if strings.ToLower(coin.Symbol) == lower || strings.ToLower(coin.Name) == lower {
			return coin.ID, nil
		}
	}

	return result.Coins[0].ID, nil
}

// FetchSnapshot returns the current market snapshot for a single coin id.
// Returns domain.ErrNotFound when the id is unknown to CoinGecko.
func (c *Client) FetchSnapshot(id string) (*domain.MarketSnapshot, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}

	endpoint := c.baseURL + "/coins/markets?" + url.Values{
		"vs_currency":             {"usd"},
		"ids":                     {id},
		"price_change_percentage": {"24h"},
	}.Encode()

	var snapshots []domain.MarketSnapshot
	if err := c.getJSON(endpoint, clientdata.TableMarkets, "id:"+id, clientdata.TTLMarkets, &snapshots); err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		return nil, domain.ErrNotFound
	}

	return &snapshots[0], nil
}

// FetchTopByMarketCap returns the top n coins ordered by market cap descending.
func (c *Client) FetchTopByMarketCap(n int) ([]domain.MarketSnapshot, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid page size: %d", n)
	}

	endpoint := c.baseURL + "/coins/markets?" + url.Values{
		"vs_currency":             {"usd"},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(n)},
		"page":                    {"1"},
		"price_change_percentage": {"24h"},
	}.Encode()

	var snapshots []domain.MarketSnapshot
	cacheKey := "top:" + strconv.Itoa(n)
	if err := c.getJSON(endpoint, clientdata.TableMarkets, cacheKey, clientdata.TTLMarkets, &snapshots); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// chartResponse mirrors the /coins/{id}/market_chart payload.
// Each price entry is a [timestamp_ms, price] pair.
type chartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchPriceHistory returns daily price points for the last days days.
func (c *Client) FetchPriceHistory(id string, days int) ([]domain.PricePoint, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	if days <= 0 {
		days = 7
	}

	endpoint := c.baseURL + "/coins/" + url.PathEscape(id) + "/market_chart?" + url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}.Encode()

	var result chartResponse
	cacheKey := id + ":" + strconv.Itoa(days)
	if err := c.getJSON(endpoint, clientdata.TableChart, cacheKey, clientdata.TTLChart, &result); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(result.Prices))
	for _, pair := range result.Prices {
		points = append(points, domain.PricePoint{
			Timestamp: int64(pair[0]),
			Price:     pair[1],
		})
	}

	return points, nil
}

// getJSON fetches endpoint with cache-first behavior and decodes into out.
// If the API fails, stale cached data is used if available (stale data > no data).
func (c *Client) getJSON(endpoint, table, cacheKey string, ttl time.Duration, out interface{}) error {
	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(table, cacheKey)
		if err == nil && data != nil {
			if err := json.Unmarshal(data, out); err == nil {
				c.log.Debug().
					Str("table", table).
					Str("key", cacheKey).
					Msg("Cache hit")
				return nil
			}
		}
	}

	c.log.Debug().Str("url", endpoint).Msg("Fetching from API")

	resp, err := c.client.Get(endpoint)
	if err != nil {
		if c.loadStale(table, cacheKey, out) {
			c.log.Warn().
				Err(err).
				Str("key", cacheKey).
				Msg("API request failed, using stale cached data")
			return nil
		}
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		if c.loadStale(table, cacheKey, out) {
			c.log.Warn().
				Int("status", resp.StatusCode).
				Str("key", cacheKey).
				Msg("API error, using stale cached data")
			return nil
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body := json.NewDecoder(resp.Body)

	// Decode into a raw message first so the successful payload can be cached verbatim.
	var raw json.RawMessage
	if err := body.Decode(&raw); err != nil {
		if c.loadStale(table, cacheKey, out) {
			c.log.Warn().
				Err(err).
				Str("key", cacheKey).
				Msg("Failed to parse API response, using stale cached data")
			return nil
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(table, cacheKey, raw, ttl); err != nil {
			c.log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache API response")
		}
	}

	return nil
}

// loadStale retrieves cached data even if expired and decodes it into out.
func (c *Client) loadStale(table, cacheKey string, out interface{}) bool {
	if c.cacheRepo == nil {
		return false
	}

	data, err := c.cacheRepo.Get(table, cacheKey)
	if err != nil || data == nil {
		return false
	}

	return json.Unmarshal(data, out) == nil
}
