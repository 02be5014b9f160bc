package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the raw daily bars fetched for one symbol.
type PriceSeries struct {
	Symbol    string
	Source    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes returns the close prices in bar order.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Dates returns the bar dates in bar order.
func Dates(bars []OHLCV) []time.Time {
	out := make([]time.Time, len(bars))
	for i, b := range bars {
		out[i] = b.Time
	}
	return out
}
