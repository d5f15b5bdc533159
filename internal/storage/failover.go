// Package storage composes the persistence tiers: a remote SurrealDB primary
// and a local BadgerHold fallback. The failover store keeps the API usable
// when the remote tier is down, at the cost of serving the local cache's
// possibly stale view.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// Failover is a PortfolioStore that prefers the primary tier and redirects to
// the fallback when the primary is unreachable or exceeds its deadline.
// Writes that land on the primary are mirrored into the fallback best-effort
// so the cache stays warm for the next outage.
type Failover struct {
	primary  interfaces.PortfolioStore // may be nil when no remote is configured
	fallback interfaces.PortfolioStore
	timeout  time.Duration
	logger   *common.Logger
}

// NewFailover composes a primary and fallback store. timeout bounds each
// primary operation before the fallback takes over.
func NewFailover(primary, fallback interfaces.PortfolioStore, timeout time.Duration, logger *common.Logger) *Failover {
	return &Failover{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// primaryCtx bounds a primary-tier operation.
func (f *Failover) primaryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, f.timeout)
}

// redirected reports whether an error means "try the fallback tier".
// ErrNotFound is an authoritative answer from a healthy primary, not an
// outage.
func redirected(err error) bool {
	return err != nil && !errors.Is(err, models.ErrNotFound)
}

func (f *Failover) SaveHolding(ctx context.Context, holding *models.Holding) error {
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		err := f.primary.SaveHolding(pctx, holding)
		cancel()
		if err == nil {
			f.mirrorHolding(ctx, holding)
			return nil
		}
		f.logger.Warn().Err(err).Str("holding_id", holding.ID).Msg("Primary store unavailable, writing holding to fallback")
	}

	if err := f.fallback.SaveHolding(ctx, holding); err != nil {
		return fmt.Errorf("%w: save holding: %v", models.ErrPersistenceUnavailable, err)
	}
	return nil
}

func (f *Failover) GetHolding(ctx context.Context, holdingID string) (*models.Holding, error) {
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		holding, err := f.primary.GetHolding(pctx, holdingID)
		cancel()
		if err == nil {
			f.mirrorHolding(ctx, holding)
			return holding, nil
		}
		if !redirected(err) {
			return nil, err
		}
		f.logger.Warn().Err(err).Str("holding_id", holdingID).Msg("Primary store unavailable, reading holding from fallback")
	}

	holding, err := f.fallback.GetHolding(ctx, holdingID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get holding: %v", models.ErrPersistenceUnavailable, err)
	}
	return holding, nil
}

func (f *Failover) ListHoldingsForOwner(ctx context.Context, ownerID string) ([]*models.Holding, error) {
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		holdings, err := f.primary.ListHoldingsForOwner(pctx, ownerID)
		cancel()
		if err == nil {
			for _, holding := range holdings {
				f.mirrorHolding(ctx, holding)
			}
			return holdings, nil
		}
		f.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("Primary store unavailable, listing holdings from fallback")
	}

	holdings, err := f.fallback.ListHoldingsForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list holdings: %v", models.ErrPersistenceUnavailable, err)
	}
	return holdings, nil
}

func (f *Failover) DeleteHolding(ctx context.Context, holdingID string) error {
	var primaryErr error
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		primaryErr = f.primary.DeleteHolding(pctx, holdingID)
		cancel()
		if primaryErr != nil {
			f.logger.Warn().Err(primaryErr).Str("holding_id", holdingID).Msg("Primary store unavailable, deleting holding from fallback only")
		}
	}

	// The fallback copy goes regardless so a stale cache cannot resurrect a
	// deleted position.
	if err := f.fallback.DeleteHolding(ctx, holdingID); err != nil {
		if f.primary != nil && primaryErr == nil {
			return nil
		}
		return fmt.Errorf("%w: delete holding: %v", models.ErrPersistenceUnavailable, err)
	}
	return nil
}

func (f *Failover) AppendTransaction(ctx context.Context, ownerID string, tx *models.Transaction) error {
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		err := f.primary.AppendTransaction(pctx, ownerID, tx)
		cancel()
		if err == nil {
			if mirrorErr := f.fallback.AppendTransaction(ctx, ownerID, tx); mirrorErr != nil {
				f.logger.Debug().Err(mirrorErr).Str("transaction_id", tx.ID).Msg("Failed to mirror transaction to fallback")
			}
			return nil
		}
		f.logger.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Primary store unavailable, writing transaction to fallback")
	}

	if err := f.fallback.AppendTransaction(ctx, ownerID, tx); err != nil {
		return fmt.Errorf("%w: append transaction: %v", models.ErrPersistenceUnavailable, err)
	}
	return nil
}

func (f *Failover) ListTransactionsForHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error) {
	if f.primary != nil {
		pctx, cancel := f.primaryCtx(ctx)
		txs, err := f.primary.ListTransactionsForHolding(pctx, holdingID)
		cancel()
		if err == nil {
			return txs, nil
		}
		f.logger.Warn().Err(err).Str("holding_id", holdingID).Msg("Primary store unavailable, listing transactions from fallback")
	}

	txs, err := f.fallback.ListTransactionsForHolding(ctx, holdingID)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", models.ErrPersistenceUnavailable, err)
	}
	return txs, nil
}

// mirrorHolding refreshes the fallback cache copy. Mirror failures are
// logged, never surfaced.
func (f *Failover) mirrorHolding(ctx context.Context, holding *models.Holding) {
	if err := f.fallback.SaveHolding(ctx, holding); err != nil {
		f.logger.Debug().Err(err).Str("holding_id", holding.ID).Msg("Failed to mirror holding to fallback")
	}
}

func (f *Failover) Close() error {
	var errs []error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.fallback.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Ensure Failover implements PortfolioStore
var _ interfaces.PortfolioStore = (*Failover)(nil)
