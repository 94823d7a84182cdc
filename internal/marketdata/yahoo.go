// Package marketdata looks up last-traded prices and recent volatility from
// the Yahoo Finance chart API. Every failure mode (network, unknown symbol,
// insufficient history) is reported as ErrUnavailable so callers can degrade
// to partial results instead of erroring out.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned whenever a price cannot be obtained, for any
// reason. It is the only error the client surfaces.
var ErrUnavailable = errors.New("market price unavailable")

// Client fetches prices from the Yahoo chart endpoint, rate limited and with
// a short TTL cache so a report over many open positions in the same symbol
// does one request.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price   float64
	fetched time.Time
}

// NewClient creates a market data client from the configuration.
func NewClient(cfg *config.Market, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "trade-journal/1.0").
		SetTimeout(8 * time.Second)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		ttl:     time.Duration(cfg.CacheTTL) * time.Second,
		cache:   make(map[string]cachedPrice),
	}
}

// QuoteSymbol maps a journal symbol and market to the Yahoo ticker. NSE
// tickers need a ".NS" suffix and ASX tickers ".AX"; US tickers are used
// bare.
func QuoteSymbol(symbol, market string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch market {
	case models.MarketIndia:
		return symbol + ".NS"
	case models.MarketAustralia:
		return symbol + ".AX"
	default:
		return symbol
	}
}

// chartResponse mirrors the subset of the Yahoo v8 chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High  []float64 `json:"high"`
					Low   []float64 `json:"low"`
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// LastPrice returns the most recent traded price for a symbol over a recent
// trading-history window. Results are cached for the configured TTL.
func (c *Client) LastPrice(ctx context.Context, symbol, market string) (float64, error) {
	ticker := QuoteSymbol(symbol, market)

	c.mu.RLock()
	if cached, ok := c.cache[ticker]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		return cached.price, nil
	}
	c.mu.RUnlock()

	chart, err := c.fetchChart(ctx, ticker, "5d")
	if err != nil {
		return 0, err
	}

	price := lastClose(chart)
	if price <= 0 {
		price = chart.Chart.Result[0].Meta.RegularMarketPrice
	}
	if price <= 0 {
		c.logger.Debug("No usable price in chart response", zap.String("ticker", ticker))
		return 0, ErrUnavailable
	}

	c.mu.Lock()
	c.cache[ticker] = cachedPrice{price: price, fetched: time.Now()}
	c.mu.Unlock()

	return price, nil
}

// TrueRangeAvg returns a 14-bar average of the daily high-low range over the
// last three months, used as a volatility proxy for risk sizing. At least 15
// bars of history are required.
func (c *Client) TrueRangeAvg(ctx context.Context, symbol, market string) (float64, error) {
	ticker := QuoteSymbol(symbol, market)

	chart, err := c.fetchChart(ctx, ticker, "3mo")
	if err != nil {
		return 0, err
	}

	quote := chart.Chart.Result[0].Indicators.Quote
	if len(quote) == 0 {
		return 0, ErrUnavailable
	}
	highs, lows := quote[0].High, quote[0].Low
	n := len(highs)
	if len(lows) < n {
		n = len(lows)
	}
	if n < 15 {
		return 0, ErrUnavailable
	}

	const window = 14
	sum := 0.0
	for i := n - window; i < n; i++ {
		tr := highs[i] - lows[i]
		if tr < 0 {
			tr = -tr
		}
		sum += tr
	}
	avg := sum / window
	if avg <= 0 {
		return 0, ErrUnavailable
	}
	return avg, nil
}

func (c *Client) fetchChart(ctx context.Context, ticker, window string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrUnavailable
	}

	var chart chartResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    window,
		}).
		SetResult(&chart).
		Get(fmt.Sprintf("/v8/finance/chart/%s", ticker))
	if err != nil {
		c.logger.Debug("Chart request failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, ErrUnavailable
	}
	if resp.IsError() {
		c.logger.Debug("Chart request rejected",
			zap.String("ticker", ticker),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, ErrUnavailable
	}
	if len(chart.Chart.Result) == 0 {
		return nil, ErrUnavailable
	}
	return &chart, nil
}

func lastClose(chart *chartResponse) float64 {
	quote := chart.Chart.Result[0].Indicators.Quote
	if len(quote) == 0 {
		return 0
	}
	closes := quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] > 0 {
			return closes[i]
		}
	}
	return 0
}
