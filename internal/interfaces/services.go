package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/trademind/internal/models"
)

// OversellPolicy controls how the ledger treats a sell larger than the held
// quantity.
type OversellPolicy string

const (
	// OversellClamp silently clamps quantity at zero. This matches the
	// observed UI behavior: a stale quantity view should not block the
	// action. It also means a sell can be recorded for units never held.
	OversellClamp OversellPolicy = "clamp"

	// OversellReject rejects the sell with an invalid-argument error.
	OversellReject OversellPolicy = "reject"
)

// OpenRequest carries the inputs for opening a new position.
type OpenRequest struct {
	Symbol    string
	Name      string
	Sector    string
	Quantity  float64
	UnitPrice float64
	// CurrentPrice seeds the holding's last-known market price. Optional;
	// zero means "not yet observed".
	CurrentPrice float64
}

// LedgerService owns the authoritative state of holdings and their
// transaction logs. All mutations against a given holding are serialized.
type LedgerService interface {
	// Open creates a holding from an initial buy and records the synthetic
	// BUY transaction that makes the log match the materialized view.
	Open(ctx context.Context, ownerID string, req OpenRequest) (*models.Holding, error)

	// ApplyBuy blends a new buy into the weighted-average cost basis.
	ApplyBuy(ctx context.Context, holdingID string, quantity, unitPrice float64) (*models.Transaction, *models.Holding, error)

	// ApplySell reduces quantity; average cost is never recomputed on sells.
	ApplySell(ctx context.Context, holdingID string, quantity, unitPrice float64) (*models.Transaction, *models.Holding, error)

	// Remove deletes a holding and its transactions. Idempotent.
	Remove(ctx context.Context, holdingID string) error

	// Get returns a consistent snapshot of a holding.
	Get(ctx context.Context, holdingID string) (*models.Holding, error)

	// List returns the owner's holdings, newest first.
	List(ctx context.Context, ownerID string) ([]*models.Holding, error)

	// Transactions returns a holding's log, most recent first.
	Transactions(ctx context.Context, holdingID string) ([]*models.Transaction, error)

	// SetPrices records the latest observed market prices on a holding.
	SetPrices(ctx context.Context, holdingID string, current, previousClose float64) (*models.Holding, error)

	// SetAdvice attaches collaborator-produced advice to a holding.
	SetAdvice(ctx context.Context, holdingID string, advice *models.Advice) (*models.Holding, error)
}

// MarketDataService serves quotes, profiles, and history with a uniform API
// regardless of whether the upstream provider or the synthetic fallback
// produced the data. Calls never propagate upstream failure.
type MarketDataService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	GetHistory(ctx context.Context, symbol, resolution string, from, to time.Time) (*models.CandleSeries, error)

	// RefreshQuotes fetches quotes for all symbols concurrently. A failed
	// symbol falls back to synthetic data like any other call; the map always
	// has one entry per distinct input symbol.
	RefreshQuotes(ctx context.Context, symbols []string) map[string]*models.Quote
}

// AdvisorService produces position advice, absorbing collaborator failures
// into degraded-but-usable results.
type AdvisorService interface {
	// Analyze returns advice for a position. It never returns an error:
	// an unavailable advisor yields UNKNOWN or HOLD advice instead.
	Analyze(ctx context.Context, symbol string, buyPrice, currentPrice float64, sector string) *models.Advice
}
