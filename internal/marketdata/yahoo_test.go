package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := &config.Market{
		BaseURL:        server.URL,
		RateLimit:      100,
		RateLimitBurst: 10,
		CacheTTL:       60,
	}
	return NewClient(cfg, zap.NewNop()), server
}

func serveJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func chartBody(closes []float64) string {
	body := `{"chart":{"result":[{"meta":{"regularMarketPrice":0},"indicators":{"quote":[{"close":[`
	for i, c := range closes {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf("%g", c)
	}
	return body + `]}]}}]}}`
}

func TestQuoteSymbol(t *testing.T) {
	testCases := []struct {
		name     string
		symbol   string
		market   string
		expected string
	}{
		{"India gets NSE suffix", "infy", models.MarketIndia, "INFY.NS"},
		{"Australia gets ASX suffix", "bhp", models.MarketAustralia, "BHP.AX"},
		{"US stays bare", "AAPL", models.MarketUS, "AAPL"},
		{"Whitespace trimmed", " aapl ", models.MarketUS, "AAPL"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, QuoteSymbol(tc.symbol, tc.market))
		})
	}
}

func TestLastPrice(t *testing.T) {
	var requests int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		serveJSON(w, chartBody([]float64{108, 109, 110}))
	})

	price, err := client.LastPrice(context.Background(), "AAPL", models.MarketUS)
	require.NoError(t, err)
	assert.Equal(t, 110.0, price)

	// Second call within the TTL is served from cache.
	price, err = client.LastPrice(context.Background(), "AAPL", models.MarketUS)
	require.NoError(t, err)
	assert.Equal(t, 110.0, price)
	assert.Equal(t, 1, requests)
}

func TestLastPriceSkipsTrailingZeroClose(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		serveJSON(w, chartBody([]float64{108, 110, 0}))
	})

	price, err := client.LastPrice(context.Background(), "AAPL", models.MarketUS)
	require.NoError(t, err)
	assert.Equal(t, 110.0, price)
}

func TestLastPriceUnavailable(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "HTTP error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "Empty result set",
			handler: func(w http.ResponseWriter, r *http.Request) {
				serveJSON(w, `{"chart":{"result":[]}}`)
			},
		},
		{
			name: "No usable closes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				serveJSON(w, chartBody([]float64{0, 0}))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, tc.handler)
			_, err := client.LastPrice(context.Background(), "MISSING", models.MarketUS)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestTrueRangeAvg(t *testing.T) {
	t.Run("Averages the last 14 ranges", func(t *testing.T) {
		highs, lows := "[", "["
		for i := 0; i < 20; i++ {
			if i > 0 {
				highs += ","
				lows += ","
			}
			highs += "105"
			lows += "100"
		}
		highs += "]"
		lows += "]"
		body := fmt.Sprintf(`{"chart":{"result":[{"meta":{},"indicators":{"quote":[{"high":%s,"low":%s}]}}]}}`, highs, lows)

		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "3mo", r.URL.Query().Get("range"))
			serveJSON(w, body)
		})

		avg, err := client.TrueRangeAvg(context.Background(), "AAPL", models.MarketUS)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, avg, 1e-9)
	})

	t.Run("Insufficient history is unavailable", func(t *testing.T) {
		body := `{"chart":{"result":[{"meta":{},"indicators":{"quote":[{"high":[105,106],"low":[100,101]}]}}]}}`
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			serveJSON(w, body)
		})

		_, err := client.TrueRangeAvg(context.Background(), "AAPL", models.MarketUS)
		assert.True(t, errors.Is(err, ErrUnavailable))
	})
}
