package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"DivergenceSentinel/internal/calculator"
	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/symbol"
)

// DefaultLookback is the number of most recent daily bars kept for analysis.
const DefaultLookback = 150

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, _ string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	price := m.Price
	if price <= 0 {
		price = 10
	}
	return generateMockBars(price, days, time.Now()), nil
}

// generateMockBars returns count weekday bars ending at end: a slow decline
// with a two-month swing, so that lows and divergences appear.
func generateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	dates := make([]time.Time, 0, count)
	for d := tradingDate(end); len(dates) < count; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.08*math.Sin(x/7) - 0.001*x)
		bars[i] = model.OHLCV{
			Time:   dates[count-1-i],
			Open:   p * 0.999,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1000000 * (1 + 0.3*math.Cos(x/5)),
		}
	}
	return bars
}

// Collector fetches daily bars, validates them and keeps the most recent Lookback rows.
type Collector struct {
	Fetcher  Fetcher
	Lookback int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookback int) *Collector {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Collector{Fetcher: fetcher, Lookback: lookback}
}

// Collect returns a validated series for code. Provider failures come back as
// *FetchError, malformed data as *model.DataQualityError.
func (c *Collector) Collect(ctx context.Context, code string) (*model.PriceSeries, error) {
	canonical := symbol.Canonical(code)
	if !symbol.IsValidCode(canonical) {
		return nil, fmt.Errorf("%w: %q", symbol.ErrInvalidCode, code)
	}

	bars, err := c.Fetcher.FetchDailyBars(ctx, canonical, c.Lookback)
	if err != nil {
		return nil, &FetchError{Source: c.Fetcher.Name(), Symbol: canonical, Err: err}
	}
	if err := calculator.Validate(bars); err != nil {
		return nil, fmt.Errorf("%s from %s: %w", canonical, c.Fetcher.Name(), err)
	}
	if len(bars) > c.Lookback {
		bars = bars[len(bars)-c.Lookback:]
	}

	return &model.PriceSeries{
		Symbol:    canonical,
		Source:    c.Fetcher.Name(),
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}
