// Package interfaces defines service contracts for TradeMind
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/trademind/internal/models"
)

// MarketFeedClient fetches live market data from a remote provider.
// Implementations are stateless and may fail; callers are expected to own
// the fallback policy.
type MarketFeedClient interface {
	// GetQuote retrieves a live quote for a symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetProfile retrieves descriptive company data for a symbol.
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)

	// GetCandles retrieves a historical close-price series for a symbol,
	// oldest first. Resolution is provider notation (e.g. "D" for daily).
	GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) (*models.CandleSeries, error)
}

// AdvisorClient generates a position recommendation from an external model.
// The ledger treats the result as an opaque annotation.
type AdvisorClient interface {
	// AnalyzePosition produces advice for a position given its entry price,
	// current price, and sector.
	AnalyzePosition(ctx context.Context, symbol string, buyPrice, currentPrice float64, sector string) (*models.Advice, error)
}
