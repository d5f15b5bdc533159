package models

import (
	"time"
)

// Data sources for market data responses. Synthetic data is served by the
// fallback generator when the upstream provider fails; callers can tell the
// two apart but both count as success.
const (
	SourceFinnhub   = "finnhub"
	SourceSynthetic = "synthetic"
)

// Quote holds a live price snapshot for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Current       float64   `json:"current"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source,omitempty"` // "finnhub" or "synthetic"
}

// CompanyProfile holds descriptive company data for a symbol.
type CompanyProfile struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Currency string `json:"currency"`
	LogoURL  string `json:"logo_url,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Candle is a single (timestamp, close) point in a historical series.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// CandleSeries is an ordered (oldest first) historical price series.
type CandleSeries struct {
	Symbol     string          `json:"symbol"`
	Resolution string          `json:"resolution"`
	Candles    []Candle        `json:"candles"`
	Overlays   []MovingAverage `json:"overlays,omitempty"`
	Source     string          `json:"source,omitempty"`
}

// Closes returns the close prices of the series in order.
func (s *CandleSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// MovingAverage is a trailing simple moving average overlay aligned 1:1 with
// the candle series it was computed from. Values are nil until the window
// has filled.
type MovingAverage struct {
	Window int        `json:"window"`
	Values []*float64 `json:"values"`
}
