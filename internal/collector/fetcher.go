package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"DivergenceSentinel/internal/model"
)

// Fetcher defines the interface for fetching daily bars of a canonical code (e.g. sh600519).
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// FetchError wraps a failure of the data provider so hosts can tell it apart
// from bad data.
type FetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Symbol, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is, or wraps, a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// FallbackFetcher tries each fetcher in order and returns the first success.
type FallbackFetcher []Fetcher

func (f FallbackFetcher) Name() string {
	if len(f) == 0 {
		return "none"
	}
	return f[0].Name()
}

func (f FallbackFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	var errs []error
	for _, fetcher := range f {
		bars, err := fetcher.FetchDailyBars(ctx, symbol, days)
		if err == nil {
			return bars, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[WARN] %s fetch for %s failed: %v", fetcher.Name(), symbol, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no fetcher configured")
	}
	return nil, errors.Join(errs...)
}

// getJSON issues a GET against endpoint and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, source, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s fetch: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d, body: %s", source, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s decode: %w", source, err)
	}
	return nil
}

// newHTTPClient creates a client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// chinaZone is the exchange time zone. A fixed offset avoids depending on tzdata.
var chinaZone = time.FixedZone("CST", 8*3600)

// tradingDate truncates t to midnight of its trading day in China time.
func tradingDate(t time.Time) time.Time {
	t = t.In(chinaZone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, chinaZone)
}
