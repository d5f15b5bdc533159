// Package surreal implements the remote PortfolioStore over SurrealDB.
package surreal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

const (
	holdingTable = "holding"
	ledgerTable  = "ledger_entry"
)

// Store is the SurrealDB-backed PortfolioStore.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// holdingRecord is the on-wire shape of a holding. Key duplicates the record
// id because the record id itself comes back as a RecordID value, not a
// string.
type holdingRecord struct {
	Key                string         `json:"key"`
	OwnerID            string         `json:"owner_id"`
	Symbol             string         `json:"symbol"`
	Name               string         `json:"name"`
	Sector             string         `json:"sector"`
	Quantity           float64        `json:"quantity"`
	AverageCost        float64        `json:"average_cost"`
	LastKnownPrice     float64        `json:"last_known_price"`
	PreviousClosePrice float64        `json:"previous_close_price"`
	Advice             *models.Advice `json:"advice,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func toHoldingRecord(h *models.Holding) holdingRecord {
	return holdingRecord{
		Key:                h.ID,
		OwnerID:            h.OwnerID,
		Symbol:             h.Symbol,
		Name:               h.Name,
		Sector:             h.Sector,
		Quantity:           h.Quantity,
		AverageCost:        h.AverageCost,
		LastKnownPrice:     h.LastKnownPrice,
		PreviousClosePrice: h.PreviousClosePrice,
		Advice:             h.Advice,
		CreatedAt:          h.CreatedAt,
		UpdatedAt:          h.UpdatedAt,
	}
}

func (r *holdingRecord) toModel() *models.Holding {
	return &models.Holding{
		ID:                 r.Key,
		OwnerID:            r.OwnerID,
		Symbol:             r.Symbol,
		Name:               r.Name,
		Sector:             r.Sector,
		Quantity:           r.Quantity,
		AverageCost:        r.AverageCost,
		LastKnownPrice:     r.LastKnownPrice,
		PreviousClosePrice: r.PreviousClosePrice,
		Advice:             r.Advice,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// ledgerRecord is the on-wire shape of a transaction. It carries the owner
// so per-owner purges stay possible.
type ledgerRecord struct {
	Key       string                 `json:"key"`
	OwnerID   string                 `json:"owner_id"`
	HoldingID string                 `json:"holding_id"`
	Kind      models.TransactionKind `json:"kind"`
	Quantity  float64                `json:"quantity"`
	UnitPrice float64                `json:"unit_price"`
	Timestamp time.Time              `json:"timestamp"`
}

func (r *ledgerRecord) toModel() *models.Transaction {
	return &models.Transaction{
		ID:        r.Key,
		HoldingID: r.HoldingID,
		Kind:      r.Kind,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Timestamp: r.Timestamp,
	}
}

// NewStore connects to SurrealDB and ensures the portfolio tables exist.
func NewStore(logger *common.Logger, config common.RemoteStorageConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// SurrealDB v3 errors on querying tables that were never defined.
	for _, table := range []string{holdingTable, ledgerTable} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB portfolio store initialized")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) SaveHolding(ctx context.Context, holding *models.Holding) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(holdingTable, holding.ID),
		"record": toHoldingRecord(holding),
	}

	if _, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save holding %s: %w", holding.ID, err)
	}
	return nil
}

func (s *Store) GetHolding(ctx context.Context, holdingID string) (*models.Holding, error) {
	record, err := surrealdb.Select[holdingRecord](ctx, s.db, surrealmodels.NewRecordID(holdingTable, holdingID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select holding %s: %w", holdingID, err)
	}
	if record == nil || record.Key == "" {
		return nil, models.ErrNotFound
	}
	return record.toModel(), nil
}

func (s *Store) ListHoldingsForOwner(ctx context.Context, ownerID string) ([]*models.Holding, error) {
	sql := "SELECT * FROM holding WHERE owner_id = $owner_id ORDER BY created_at DESC"
	vars := map[string]any{"owner_id": ownerID}

	results, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for %s: %w", ownerID, err)
	}

	var holdings []*models.Holding
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			holdings = append(holdings, (*results)[0].Result[i].toModel())
		}
	}
	return holdings, nil
}

func (s *Store) DeleteHolding(ctx context.Context, holdingID string) error {
	if _, err := surrealdb.Delete[holdingRecord](ctx, s.db, surrealmodels.NewRecordID(holdingTable, holdingID)); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete holding %s: %w", holdingID, err)
	}

	sql := "DELETE ledger_entry WHERE holding_id = $holding_id"
	vars := map[string]any{"holding_id": holdingID}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to delete ledger entries for %s: %w", holdingID, err)
	}
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, ownerID string, tx *models.Transaction) error {
	record := ledgerRecord{
		Key:       tx.ID,
		OwnerID:   ownerID,
		HoldingID: tx.HoldingID,
		Kind:      tx.Kind,
		Quantity:  tx.Quantity,
		UnitPrice: tx.UnitPrice,
		Timestamp: tx.Timestamp,
	}
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(ledgerTable, tx.ID),
		"record": record,
	}

	if _, err := surrealdb.Query[[]ledgerRecord](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s *Store) ListTransactionsForHolding(ctx context.Context, holdingID string) ([]*models.Transaction, error) {
	sql := "SELECT * FROM ledger_entry WHERE holding_id = $holding_id ORDER BY timestamp DESC"
	vars := map[string]any{"holding_id": holdingID}

	results, err := surrealdb.Query[[]ledgerRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", holdingID, err)
	}

	txs := make([]*models.Transaction, 0)
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			txs = append(txs, (*results)[0].Result[i].toModel())
		}
	}
	return txs, nil
}

func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}

// Ensure Store implements PortfolioStore
var _ interfaces.PortfolioStore = (*Store)(nil)
