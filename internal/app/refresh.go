package app

import (
	"context"
	"time"

	"github.com/bobmcallan/trademind/internal/common"
)

// StartRefresher launches the background price refresher. Every interval it
// pulls quotes for all held symbols concurrently and writes the results back
// onto the holdings. Single-tenant deployments keep all holdings under the
// default owner, which is the scope the refresher covers.
func (a *App) StartRefresher(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.refreshCancel = cancel

	interval := a.Config.Market.GetRefreshInterval()
	a.Logger.Info().Dur("interval", interval).Msg("Starting price refresher")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				a.Logger.Debug().Msg("Price refresher stopped")
				return
			case <-ticker.C:
				a.RefreshPrices(ctx)
			}
		}
	}()
}

// RefreshPrices fetches current quotes for every held symbol and updates the
// holdings' observed prices. Failed symbols get synthetic quotes from the
// market data fallback, so every holding comes out with a usable price.
func (a *App) RefreshPrices(ctx context.Context) {
	holdings, err := a.Ledger.List(ctx, common.DefaultOwnerID)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Price refresh skipped, holdings unavailable")
		return
	}
	if len(holdings) == 0 {
		return
	}

	symbols := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		symbols = append(symbols, holding.Symbol)
	}

	quotes := a.Market.RefreshQuotes(ctx, symbols)

	updated := 0
	for _, holding := range holdings {
		quote, ok := quotes[holding.Symbol]
		if !ok {
			continue
		}
		if _, err := a.Ledger.SetPrices(ctx, holding.ID, quote.Current, quote.PreviousClose); err != nil {
			a.Logger.Warn().Err(err).Str("symbol", holding.Symbol).Msg("Failed to record refreshed price")
			continue
		}
		updated++
	}

	a.Logger.Debug().Int("holdings", len(holdings)).Int("updated", updated).Msg("Price refresh complete")
}
