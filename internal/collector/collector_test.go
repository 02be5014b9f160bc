package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/symbol"
)

func TestTencentFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appstock/app/fqkline/get" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("param"); got != "sh600519,day,,,3,qfq" {
			t.Errorf("unexpected param %q", got)
		}
		fmt.Fprint(w, `{"code":0,"msg":"","data":{"sh600519":{"qfqday":[
			["2024-01-03","1700.00","1690.50","1705.00","1680.00","30000.00"],
			["2024-01-02","1715.00","1685.01","1718.19","1678.10","32160.00",{"nd":"2023"}],
			["2024-01-04","1690.00","1695.00","1700.00","1688.00",28000]
		]}}}`)
	}))
	defer srv.Close()

	f := &TencentFetcher{BaseURL: srv.URL, Client: srv.Client()}
	bars, err := f.FetchDailyBars(context.Background(), "600519", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	first := bars[0]
	if first.Time.Format("2006-01-02") != "2024-01-02" {
		t.Errorf("bars not sorted: first date %s", first.Time)
	}
	if first.Open != 1715 || first.Close != 1685.01 || first.High != 1718.19 || first.Low != 1678.10 || first.Volume != 32160 {
		t.Errorf("unexpected column mapping: %+v", first)
	}
	if bars[2].Volume != 28000 {
		t.Errorf("numeric cells should parse, got %v", bars[2].Volume)
	}
}

func TestTencentFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("param") {
		case "sz000001,day,,,10,qfq":
			fmt.Fprint(w, `{"code":1,"msg":"param error","data":{}}`)
		case "sz300750,day,,,10,qfq":
			fmt.Fprint(w, `{"code":0,"msg":"","data":{"sz300750":{"qfqday":[]}}}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	f := &TencentFetcher{BaseURL: srv.URL, Client: srv.Client()}
	for _, code := range []string{"000001", "300750", "601318", "430047"} {
		if _, err := f.FetchDailyBars(context.Background(), code, 10); err == nil {
			t.Errorf("%s: expected error", code)
		}
	}
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	ts := func(d string) int64 {
		tm, _ := time.ParseInLocation("2006-01-02 15:04", d+" 09:30", chinaZone)
		return tm.Unix()
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/000001.SZ" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],"indicators":{"quote":[{
			"open":[10.0,null,10.4],"high":[10.5,null,10.8],"low":[9.9,null,10.2],
			"close":[10.2,null,10.6],"volume":[100000,null,120000]}]}}],"error":null}}`,
			ts("2024-01-02"), ts("2024-01-03"), ts("2024-01-04"))
	}))
	defer srv.Close()

	f := &YahooFetcher{BaseURL: srv.URL, Client: srv.Client()}
	bars, err := f.FetchDailyBars(context.Background(), "000001", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar to be skipped, got %d bars", len(bars))
	}
	if got := bars[1].Time.Format("2006-01-02"); got != "2024-01-04" {
		t.Errorf("unexpected date %s", got)
	}
	if bars[1].Time.Hour() != 0 {
		t.Errorf("dates should be truncated to the trading day, got %s", bars[1].Time)
	}
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{10, "1mo"}, {60, "3mo"}, {150, "1y"}, {300, "2y"}, {1000, "5y"},
	}
	for _, tt := range tests {
		if got := yahooRange(tt.days); got != tt.want {
			t.Errorf("yahooRange(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestCollector_TrimsToLookback(t *testing.T) {
	c := NewCollector(&MockFetcher{DailyData: generateMockBars(20, 200, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))}, 150)
	series, err := c.Collect(context.Background(), "600519")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Symbol != "sh600519" || series.Source != "mock" {
		t.Errorf("unexpected series meta: %s %s", series.Symbol, series.Source)
	}
	if len(series.Bars) != 150 {
		t.Fatalf("expected 150 bars, got %d", len(series.Bars))
	}
	if got := series.Bars[149].Time.Format("2006-01-02"); got != "2024-06-28" {
		t.Errorf("expected the most recent bars to be kept, last is %s", got)
	}
}

func TestCollector_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewCollector(&MockFetcher{}, 0).Collect(ctx, "abc"); !errors.Is(err, symbol.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}

	down := NewCollector(&MockFetcher{Err: errors.New("connection refused")}, 0)
	if _, err := down.Collect(ctx, "000001"); !IsFetchError(err) {
		t.Errorf("expected FetchError, got %v", err)
	}

	bad := generateMockBars(20, 30, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))
	bad[5].Close = math.NaN()
	_, err := NewCollector(&MockFetcher{DailyData: bad}, 0).Collect(ctx, "000001")
	if !model.IsDataQuality(err) || IsFetchError(err) {
		t.Errorf("expected data-quality error, got %v", err)
	}
}

func TestFallbackFetcher(t *testing.T) {
	good := &MockFetcher{Price: 15}
	f := FallbackFetcher{&MockFetcher{Err: errors.New("boom")}, good}
	bars, err := f.FetchDailyBars(context.Background(), "sh600519", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 40 {
		t.Errorf("expected 40 bars, got %d", len(bars))
	}

	all := FallbackFetcher{&MockFetcher{Err: errors.New("a")}, &MockFetcher{Err: errors.New("b")}}
	if _, err := all.FetchDailyBars(context.Background(), "sh600519", 40); err == nil {
		t.Error("expected error when every fetcher fails")
	}
}

func TestGenerateMockBars_Valid(t *testing.T) {
	bars := generateMockBars(10, 150, time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("dates not increasing at %d", i)
		}
		if wd := bars[i].Time.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend bar at %d", i)
		}
	}
}
