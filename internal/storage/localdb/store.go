// Package localdb implements the local PortfolioStore over BadgerHold. It
// serves as the durable fallback cache when the remote SurrealDB tier is
// unreachable, and as the sole store when no remote is configured.
package localdb

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// ledgerRecord is the flat on-disk shape of a transaction. BadgerHold
// queries match on top-level field names, so the record carries its own
// columns instead of embedding models.Transaction.
type ledgerRecord struct {
	ID        string
	OwnerID   string
	HoldingID string
	Kind      models.TransactionKind
	Quantity  float64
	UnitPrice float64
	Timestamp time.Time
}

func (r *ledgerRecord) toModel() *models.Transaction {
	return &models.Transaction{
		ID:        r.ID,
		HoldingID: r.HoldingID,
		Kind:      r.Kind,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Timestamp: r.Timestamp,
	}
}

// ownerIndexRecord maps a holding id back to its owner so single-holding
// operations do not need the owner in hand.
type ownerIndexRecord struct {
	HoldingID string
	OwnerID   string
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Local portfolio store opened")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) SaveHolding(_ context.Context, holding *models.Holding) error {
	if err := s.db.Upsert(holding.ID, holding); err != nil {
		return fmt.Errorf("failed to save holding %s: %w", holding.ID, err)
	}
	index := &ownerIndexRecord{HoldingID: holding.ID, OwnerID: holding.OwnerID}
	if err := s.db.Upsert(holding.ID, index); err != nil {
		return fmt.Errorf("failed to index holding %s: %w", holding.ID, err)
	}
	return nil
}

func (s *Store) GetHolding(_ context.Context, holdingID string) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.Get(holdingID, &holding)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get holding %s: %w", holdingID, err)
	}
	return &holding, nil
}

func (s *Store) ListHoldingsForOwner(_ context.Context, ownerID string) ([]*models.Holding, error) {
	var holdings []models.Holding
	query := badgerhold.Where("OwnerID").Eq(ownerID).SortBy("CreatedAt").Reverse()
	if err := s.db.Find(&holdings, query); err != nil {
		return nil, fmt.Errorf("failed to list holdings for %s: %w", ownerID, err)
	}

	result := make([]*models.Holding, len(holdings))
	for i := range holdings {
		result[i] = &holdings[i]
	}
	return result, nil
}

func (s *Store) DeleteHolding(_ context.Context, holdingID string) error {
	if err := s.db.Delete(holdingID, models.Holding{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding %s: %w", holdingID, err)
	}
	if err := s.db.Delete(holdingID, ownerIndexRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding index %s: %w", holdingID, err)
	}
	if err := s.db.DeleteMatching(&ledgerRecord{}, badgerhold.Where("HoldingID").Eq(holdingID)); err != nil {
		return fmt.Errorf("failed to delete ledger entries for %s: %w", holdingID, err)
	}
	s.logger.Debug().Str("holding_id", holdingID).Msg("Holding deleted")
	return nil
}

func (s *Store) AppendTransaction(_ context.Context, ownerID string, tx *models.Transaction) error {
	record := &ledgerRecord{
		ID:        tx.ID,
		OwnerID:   ownerID,
		HoldingID: tx.HoldingID,
		Kind:      tx.Kind,
		Quantity:  tx.Quantity,
		UnitPrice: tx.UnitPrice,
		Timestamp: tx.Timestamp,
	}
	if err := s.db.Upsert(tx.ID, record); err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s *Store) ListTransactionsForHolding(_ context.Context, holdingID string) ([]*models.Transaction, error) {
	var records []ledgerRecord
	query := badgerhold.Where("HoldingID").Eq(holdingID).SortBy("Timestamp").Reverse()
	if err := s.db.Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", holdingID, err)
	}

	txs := make([]*models.Transaction, len(records))
	for i := range records {
		txs[i] = records[i].toModel()
	}
	return txs, nil
}

// FindOwnerForHolding resolves the owner of a holding through the explicit
// index, scanning the holdings table when the index entry is missing. The
// scan path exists for databases written before the index was introduced.
func (s *Store) FindOwnerForHolding(ctx context.Context, holdingID string) (string, error) {
	var index ownerIndexRecord
	err := s.db.Get(holdingID, &index)
	if err == nil {
		return index.OwnerID, nil
	}
	if err != badgerhold.ErrNotFound {
		return "", fmt.Errorf("failed to read holding index %s: %w", holdingID, err)
	}

	holding, err := s.GetHolding(ctx, holdingID)
	if err != nil {
		return "", err
	}
	return holding.OwnerID, nil
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements PortfolioStore and OwnerResolver
var (
	_ interfaces.PortfolioStore = (*Store)(nil)
	_ interfaces.OwnerResolver  = (*Store)(nil)
)
