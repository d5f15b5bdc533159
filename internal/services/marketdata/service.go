// Package marketdata provides fail-soft market data access with a
// deterministic synthetic fallback.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// Service implements MarketDataService with provider-primary and
// synthetic-fallback. Upstream failures never propagate to callers: every
// path yields usable data, and the Source field records which path served it.
type Service struct {
	feed     interfaces.MarketFeedClient // may be nil when no API key is configured
	fallback *FallbackGenerator
	logger   *common.Logger
}

// NewService creates a new market data service.
// feed may be nil, in which case every call serves synthetic data.
func NewService(feed interfaces.MarketFeedClient, logger *common.Logger) *Service {
	return &Service{
		feed:     feed,
		fallback: NewFallbackGenerator(),
		logger:   logger,
	}
}

// GetQuote retrieves a live quote, serving a synthetic one on any upstream
// failure.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.feed != nil {
		quote, err := s.feed.GetQuote(ctx, symbol)
		if err == nil && quote != nil {
			return quote, nil
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed, serving synthetic quote")
	}
	return s.fallback.Quote(symbol), nil
}

// GetProfile retrieves a company profile, synthesizing a default profile on
// any upstream failure.
func (s *Service) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	if s.feed != nil {
		profile, err := s.feed.GetProfile(ctx, symbol)
		if err == nil && profile != nil {
			return profile, nil
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Profile fetch failed, serving synthetic profile")
	}
	return s.fallback.Profile(symbol), nil
}

// GetHistory retrieves a historical close series, generating a synthetic
// random-walk series on any upstream failure. The synthetic series always
// starts at the symbol's seeded baseline.
func (s *Service) GetHistory(ctx context.Context, symbol, resolution string, from, to time.Time) (*models.CandleSeries, error) {
	if s.feed != nil {
		series, err := s.feed.GetCandles(ctx, symbol, resolution, from, to)
		if err == nil && series != nil {
			return series, nil
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed, serving synthetic series")
	}
	return s.fallback.History(symbol, resolution, from, to), nil
}

// RefreshQuotes fans out one quote fetch per distinct symbol and joins on
// completion. Failure domains are isolated per symbol: a failed fetch falls
// back to synthetic data without affecting the others.
func (s *Service) RefreshQuotes(ctx context.Context, symbols []string) map[string]*models.Quote {
	results := make(map[string]*models.Quote, len(symbols))
	seen := make(map[string]bool, len(symbols))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			quote, _ := s.GetQuote(ctx, sym) // never errors
			mu.Lock()
			results[sym] = quote
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}

// Ensure Service implements MarketDataService
var _ interfaces.MarketDataService = (*Service)(nil)
