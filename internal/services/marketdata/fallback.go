package marketdata

import (
	"math"
	"math/rand"
	"time"

	"github.com/bobmcallan/trademind/internal/models"
)

// Base price band for synthetic data. The seed scales into [BaseFloor,
// BaseFloor+BaseRange), so every symbol gets a stable baseline between 100
// and 500.
const (
	baseFloor = 100.0
	baseRange = 400.0
)

// FallbackGenerator produces synthetic market data when the upstream
// provider fails. The base price for a symbol is seeded from the symbol
// string and is stable across calls within the process; per-call daily
// moves and per-step walk deltas are not seeded, so repeated calls share a
// baseline but diverge beyond it.
type FallbackGenerator struct {
	rnd func() float64 // uniform [0,1), swappable for tests
}

// NewFallbackGenerator creates a generator using the shared math/rand source
// for the non-deterministic components.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{rnd: rand.Float64}
}

// symbolSeed hashes a symbol into a stable value in [0,1). The hash is a
// 31-multiplier string hash folded to int32, pushed through sin to spread
// consecutive symbols across the band.
func symbolSeed(symbol string) float64 {
	var hash int32
	for _, r := range symbol {
		hash = hash*31 + int32(r)
	}
	x := math.Sin(float64(hash)) * 10000
	return x - math.Floor(x)
}

// BasePrice returns the symbol's stable synthetic baseline in [100, 500).
func (g *FallbackGenerator) BasePrice(symbol string) float64 {
	return baseFloor + symbolSeed(symbol)*baseRange
}

// Quote synthesizes a plausible quote around the symbol's baseline. The
// baseline doubles as the previous close and open; the daily change is a
// random move in [-4, 6).
func (g *FallbackGenerator) Quote(symbol string) *models.Quote {
	base := g.BasePrice(symbol)
	change := g.rnd()*10 - 4
	current := base + change

	return &models.Quote{
		Symbol:        symbol,
		Current:       current,
		Change:        change,
		ChangePct:     (change / base) * 100,
		Open:          base,
		High:          current + 2,
		Low:           current - 2,
		PreviousClose: base,
		Timestamp:     time.Now().UTC(),
		Source:        models.SourceSynthetic,
	}
}

// Profile synthesizes a default company profile for an unknown symbol.
func (g *FallbackGenerator) Profile(symbol string) *models.CompanyProfile {
	return &models.CompanyProfile{
		Symbol:   symbol,
		Name:     symbol + " Inc.",
		Industry: "Technology",
		Currency: "USD",
		Source:   models.SourceSynthetic,
	}
}

// History synthesizes a daily close series over [from, to): one candle per
// day, starting exactly at the symbol's seeded baseline and random-walking
// from the second point on with steps in [-2.5, 2.5), floored at 1.
//
// Only the starting price is reproducible across calls; the walk itself is
// plausible-looking but not replayable.
func (g *FallbackGenerator) History(symbol, resolution string, from, to time.Time) *models.CandleSeries {
	days := int(to.Sub(from).Hours() / 24)
	if days < 1 {
		days = 1
	}

	series := &models.CandleSeries{
		Symbol:     symbol,
		Resolution: resolution,
		Candles:    make([]models.Candle, 0, days),
		Source:     models.SourceSynthetic,
	}

	price := g.BasePrice(symbol)
	for i := 0; i < days; i++ {
		if i > 0 {
			price += (g.rnd() - 0.5) * 5
			if price < 1 {
				price = 1
			}
		}
		series.Candles = append(series.Candles, models.Candle{
			Timestamp: from.Add(time.Duration(i) * 24 * time.Hour).UTC(),
			Close:     price,
		})
	}

	return series
}
