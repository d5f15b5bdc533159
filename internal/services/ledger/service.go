// Package ledger owns the authoritative position state: holdings and their
// append-only transaction logs. Quantity and average cost on a holding are a
// materialized view of the log, maintained under per-holding serialization so
// concurrent mutations cannot interleave read-modify-write cycles.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// Service implements LedgerService over a PortfolioStore.
type Service struct {
	store  interfaces.PortfolioStore
	logger *common.Logger
	policy interfaces.OversellPolicy
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-holding mutation locks
}

// Option configures optional service behavior.
type Option func(*Service)

// WithOversellPolicy overrides the default clamp behavior for sells that
// exceed the held quantity.
func WithOversellPolicy(policy interfaces.OversellPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithClock overrides the time source for testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new ledger service.
func NewService(store interfaces.PortfolioStore, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		policy: interfaces.OversellClamp,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// holdingLock returns the mutation lock for a holding, creating it on first
// use.
func (s *Service) holdingLock(holdingID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[holdingID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[holdingID] = lock
	}
	return lock
}

func (s *Service) dropLock(holdingID string) {
	s.mu.Lock()
	delete(s.locks, holdingID)
	s.mu.Unlock()
}

// Open creates a holding from an initial buy. The opening buy is recorded as
// a transaction so the log replays to the materialized view from day one.
func (s *Service) Open(ctx context.Context, ownerID string, req interfaces.OpenRequest) (*models.Holding, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrInvalidArgument)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %v", models.ErrInvalidArgument, req.Quantity)
	}
	if req.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive, got %v", models.ErrInvalidArgument, req.UnitPrice)
	}
	if ownerID == "" {
		ownerID = common.DefaultOwnerID
	}

	now := s.now()
	holding := &models.Holding{
		ID:                 uuid.New().String(),
		OwnerID:            ownerID,
		Symbol:             symbol,
		Name:               req.Name,
		Sector:             req.Sector,
		Quantity:           req.Quantity,
		AverageCost:        req.UnitPrice,
		LastKnownPrice:     req.CurrentPrice,
		PreviousClosePrice: req.CurrentPrice,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.SaveHolding(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to save holding %s: %w", symbol, err)
	}

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		HoldingID: holding.ID,
		Kind:      models.TransactionBuy,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Timestamp: now,
	}
	if err := s.store.AppendTransaction(ctx, ownerID, tx); err != nil {
		return nil, fmt.Errorf("failed to record opening transaction for %s: %w", symbol, err)
	}

	s.logger.Info().
		Str("holding_id", holding.ID).
		Str("symbol", symbol).
		Float64("quantity", req.Quantity).
		Float64("unit_price", req.UnitPrice).
		Msg("Opened position")

	return holding, nil
}

// ApplyBuy blends a buy into the weighted-average cost basis:
//
//	newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
func (s *Service) ApplyBuy(ctx context.Context, holdingID string, quantity, unitPrice float64) (*models.Transaction, *models.Holding, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive, got %v", models.ErrInvalidArgument, quantity)
	}
	if unitPrice <= 0 {
		return nil, nil, fmt.Errorf("%w: unit price must be positive, got %v", models.ErrInvalidArgument, unitPrice)
	}

	lock := s.holdingLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.store.GetHolding(ctx, holdingID)
	if err != nil {
		return nil, nil, err
	}

	totalQty := holding.Quantity + quantity
	holding.AverageCost = (holding.Quantity*holding.AverageCost + quantity*unitPrice) / totalQty
	holding.Quantity = totalQty
	holding.UpdatedAt = s.now()

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		HoldingID: holdingID,
		Kind:      models.TransactionBuy,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Timestamp: holding.UpdatedAt,
	}

	if err := s.store.SaveHolding(ctx, holding); err != nil {
		return nil, nil, fmt.Errorf("failed to save holding %s: %w", holding.Symbol, err)
	}
	if err := s.store.AppendTransaction(ctx, holding.OwnerID, tx); err != nil {
		return nil, nil, fmt.Errorf("failed to record buy for %s: %w", holding.Symbol, err)
	}

	s.logger.Info().
		Str("holding_id", holdingID).
		Str("symbol", holding.Symbol).
		Float64("quantity", quantity).
		Float64("unit_price", unitPrice).
		Float64("average_cost", holding.AverageCost).
		Msg("Applied buy")

	return tx, holding, nil
}

// ApplySell reduces the held quantity. Average cost is never recomputed on a
// sell; it describes what the remaining units cost to acquire. A sell larger
// than the position is clamped to zero under the default policy and rejected
// under OversellReject.
func (s *Service) ApplySell(ctx context.Context, holdingID string, quantity, unitPrice float64) (*models.Transaction, *models.Holding, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive, got %v", models.ErrInvalidArgument, quantity)
	}
	if unitPrice <= 0 {
		return nil, nil, fmt.Errorf("%w: unit price must be positive, got %v", models.ErrInvalidArgument, unitPrice)
	}

	lock := s.holdingLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.store.GetHolding(ctx, holdingID)
	if err != nil {
		return nil, nil, err
	}

	if quantity > holding.Quantity {
		if s.policy == interfaces.OversellReject {
			return nil, nil, fmt.Errorf("%w: sell of %v exceeds held quantity %v", models.ErrInvalidArgument, quantity, holding.Quantity)
		}
		s.logger.Warn().
			Str("holding_id", holdingID).
			Str("symbol", holding.Symbol).
			Float64("requested", quantity).
			Float64("held", holding.Quantity).
			Msg("Sell exceeds held quantity, clamping position to zero")
	}

	remaining := holding.Quantity - quantity
	if remaining < 0 {
		remaining = 0
	}
	holding.Quantity = remaining
	holding.UpdatedAt = s.now()

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		HoldingID: holdingID,
		Kind:      models.TransactionSell,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Timestamp: holding.UpdatedAt,
	}

	if err := s.store.SaveHolding(ctx, holding); err != nil {
		return nil, nil, fmt.Errorf("failed to save holding %s: %w", holding.Symbol, err)
	}
	if err := s.store.AppendTransaction(ctx, holding.OwnerID, tx); err != nil {
		return nil, nil, fmt.Errorf("failed to record sell for %s: %w", holding.Symbol, err)
	}

	s.logger.Info().
		Str("holding_id", holdingID).
		Str("symbol", holding.Symbol).
		Float64("quantity", quantity).
		Float64("unit_price", unitPrice).
		Float64("remaining", holding.Quantity).
		Msg("Applied sell")

	return tx, holding, nil
}

// Remove deletes a holding and its transaction log. Removing an unknown
// holding is not an error.
func (s *Service) Remove(ctx context.Context, holdingID string) error {
	lock := s.holdingLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.DeleteHolding(ctx, holdingID); err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", holdingID, err)
	}

	s.dropLock(holdingID)
	s.logger.Info().Str("holding_id", holdingID).Msg("Removed position")
	return nil
}

// Get returns a snapshot of a holding.
func (s *Service) Get(ctx context.Context, holdingID string) (*models.Holding, error) {
	return s.store.GetHolding(ctx, holdingID)
}

// List returns the owner's holdings, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Holding, error) {
	if ownerID == "" {
		ownerID = common.DefaultOwnerID
	}
	return s.store.ListHoldingsForOwner(ctx, ownerID)
}

// Transactions returns a holding's log, most recent first.
func (s *Service) Transactions(ctx context.Context, holdingID string) ([]*models.Transaction, error) {
	if _, err := s.store.GetHolding(ctx, holdingID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsForHolding(ctx, holdingID)
}

// SetPrices records the latest observed market prices on a holding. Price
// refreshes go through the same per-holding lock as trades so they cannot
// clobber a concurrent mutation.
func (s *Service) SetPrices(ctx context.Context, holdingID string, current, previousClose float64) (*models.Holding, error) {
	lock := s.holdingLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.store.GetHolding(ctx, holdingID)
	if err != nil {
		return nil, err
	}

	holding.LastKnownPrice = current
	holding.PreviousClosePrice = previousClose
	holding.UpdatedAt = s.now()

	if err := s.store.SaveHolding(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to save prices for %s: %w", holding.Symbol, err)
	}
	return holding, nil
}

// SetAdvice attaches advice to a holding.
func (s *Service) SetAdvice(ctx context.Context, holdingID string, advice *models.Advice) (*models.Holding, error) {
	lock := s.holdingLock(holdingID)
	lock.Lock()
	defer lock.Unlock()

	holding, err := s.store.GetHolding(ctx, holdingID)
	if err != nil {
		return nil, err
	}

	holding.Advice = advice
	holding.UpdatedAt = s.now()

	if err := s.store.SaveHolding(ctx, holding); err != nil {
		return nil, fmt.Errorf("failed to save advice for %s: %w", holding.Symbol, err)
	}
	return holding, nil
}

// Replay rebuilds quantity and average cost from a transaction log, oldest
// first. It is the reference semantics the materialized view must agree with.
func Replay(txs []*models.Transaction) (quantity, averageCost float64) {
	for _, tx := range txs {
		switch tx.Kind {
		case models.TransactionBuy:
			total := quantity + tx.Quantity
			averageCost = (quantity*averageCost + tx.Quantity*tx.UnitPrice) / total
			quantity = total
		case models.TransactionSell:
			quantity -= tx.Quantity
			if quantity < 0 {
				quantity = 0
			}
		}
	}
	return quantity, averageCost
}

// Ensure Service implements LedgerService
var _ interfaces.LedgerService = (*Service)(nil)
