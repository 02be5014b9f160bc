package collector

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/symbol"
)

// TencentFetcher implements Fetcher using the Tencent forward-adjusted (qfq) kline API.
type TencentFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewTencentFetcher creates a new fetcher with optional proxy support.
func NewTencentFetcher(proxyURL string) *TencentFetcher {
	return &TencentFetcher{
		BaseURL: "https://web.ifzq.gtimg.cn",
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *TencentFetcher) Name() string { return "tencent" }

// tencentKline is the response shape. Each row is
// [date, open, close, high, low, volume, ...] with string or number cells.
type tencentKline struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data map[string]struct {
		QfqDay [][]any `json:"qfqday"`
		Day    [][]any `json:"day"`
	} `json:"data"`
}

func (f *TencentFetcher) FetchDailyBars(ctx context.Context, code string, days int) ([]model.OHLCV, error) {
	code = symbol.Canonical(code)
	if prefix, _ := symbol.Split(code); prefix == "" {
		return nil, fmt.Errorf("tencent: %w: %q has no exchange prefix", symbol.ErrInvalidCode, code)
	}
	endpoint := fmt.Sprintf("%s/appstock/app/fqkline/get?param=%s,day,,,%d,qfq", f.BaseURL, code, days)

	var kline tencentKline
	if err := getJSON(ctx, f.Client, f.Name(), endpoint, &kline); err != nil {
		return nil, err
	}
	if kline.Code != 0 {
		return nil, fmt.Errorf("tencent api error %d: %s", kline.Code, kline.Msg)
	}
	entry, ok := kline.Data[code]
	if !ok {
		return nil, fmt.Errorf("tencent: no data for %s", code)
	}
	rows := entry.QfqDay
	if len(rows) == 0 {
		// Indices and funds without adjustment only carry "day".
		rows = entry.Day
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("tencent: no bars for %s", code)
	}

	bars := make([]model.OHLCV, 0, len(rows))
	for i, r := range rows {
		if len(r) < 6 {
			return nil, fmt.Errorf("tencent: row %d has %d fields", i, len(r))
		}
		ds, _ := r[0].(string)
		date, err := time.ParseInLocation("2006-01-02", ds, chinaZone)
		if err != nil {
			return nil, fmt.Errorf("tencent: row %d date: %w", i, err)
		}
		// Cells that fail to parse become NaN and are rejected by validation.
		bars = append(bars, model.OHLCV{
			Time:   date,
			Open:   cellFloat(r[1]),
			Close:  cellFloat(r[2]),
			High:   cellFloat(r[3]),
			Low:    cellFloat(r[4]),
			Volume: cellFloat(r[5]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func cellFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
