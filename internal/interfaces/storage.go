package interfaces

import (
	"context"

	"github.com/bobmcallan/trademind/internal/models"
)

// PortfolioStore durably persists holdings and their transaction logs.
//
// Three implementations exist: the SurrealDB remote store, the BadgerHold
// local cache, and the failover store that composes the two (remote primary,
// local fallback).
type PortfolioStore interface {
	// SaveHolding inserts or updates a holding.
	SaveHolding(ctx context.Context, holding *models.Holding) error

	// GetHolding retrieves a holding by id. Returns models.ErrNotFound when
	// the id is unknown.
	GetHolding(ctx context.Context, holdingID string) (*models.Holding, error)

	// ListHoldingsForOwner returns an owner's holdings, newest first.
	ListHoldingsForOwner(ctx context.Context, ownerID string) ([]*models.Holding, error)

	// DeleteHolding removes a holding and all of its transactions.
	// Deleting an unknown id is not an error.
	DeleteHolding(ctx context.Context, holdingID string) error

	// AppendTransaction durably records a ledger entry.
	AppendTransaction(ctx context.Context, ownerID string, tx *models.Transaction) error

	// ListTransactionsForHolding returns a holding's log, most recent first.
	ListTransactionsForHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error)

	Close() error
}

// OwnerResolver recovers the owner of a holding when only the holding id is
// available. The local store implements this with an explicit secondary
// index, falling back to a bucket scan as a degraded-mode heuristic.
type OwnerResolver interface {
	FindOwnerForHolding(ctx context.Context, holdingID string) (string, error)
}
