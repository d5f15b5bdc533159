// Package advisor wraps the external advice generator with a fail-soft
// policy: analysis is advisory metadata and must never fail a request.
package advisor

import (
	"context"
	"time"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// Service implements AdvisorService over an optional AdvisorClient.
type Service struct {
	client interfaces.AdvisorClient // may be nil when no API key is configured
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new advisor service.
// client may be nil, in which case analysis always yields UNKNOWN advice.
func NewService(client interfaces.AdvisorClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Analyze produces advice for a position. Failures degrade instead of
// erroring: no client yields UNKNOWN, a failed analysis yields a cautious
// HOLD.
func (s *Service) Analyze(ctx context.Context, symbol string, buyPrice, currentPrice float64, sector string) *models.Advice {
	if s.client == nil {
		return &models.Advice{
			Action:     models.AdviceUnknown,
			Reasoning:  "Advisor not configured. Cannot generate advice.",
			Confidence: 0,
			UpdatedAt:  s.now(),
		}
	}

	advice, err := s.client.AnalyzePosition(ctx, symbol, buyPrice, currentPrice, sector)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Position analysis failed, defaulting to HOLD")
		return &models.Advice{
			Action:     models.AdviceHold,
			Reasoning:  "Advisor temporarily unavailable. Holding is safer.",
			Confidence: 0,
			UpdatedAt:  s.now(),
		}
	}

	advice.UpdatedAt = s.now()
	return advice
}

// Ensure Service implements AdvisorService
var _ interfaces.AdvisorService = (*Service)(nil)
