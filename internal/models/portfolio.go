// Package models defines data structures for TradeMind
package models

import (
	"time"
)

// AdviceAction is the recommendation state attached to a holding.
type AdviceAction string

const (
	AdviceBuy       AdviceAction = "BUY"
	AdviceSell      AdviceAction = "SELL"
	AdviceHold      AdviceAction = "HOLD"
	AdviceAnalyzing AdviceAction = "ANALYZING"
	AdviceUnknown   AdviceAction = "UNKNOWN"
)

// Advice is the last computed recommendation for a holding. It is advisory
// metadata owned by the external analysis collaborator, never authoritative
// financial data.
type Advice struct {
	Action     AdviceAction `json:"action"`
	Reasoning  string       `json:"reasoning"`
	Confidence int          `json:"confidence"` // 0-100
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Holding represents a tracked position in one symbol for one owner.
//
// Quantity and AverageCost are a materialized view of the holding's
// transaction log: replaying all transactions oldest-first must reproduce
// them exactly (within floating-point tolerance).
type Holding struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Sector  string `json:"sector"`

	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`

	// Market observations, refreshed independently of the ledger.
	LastKnownPrice     float64 `json:"last_known_price"`
	PreviousClosePrice float64 `json:"previous_close_price"`

	Advice *Advice `json:"advice,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketValue returns the current market value of the position.
func (h *Holding) MarketValue() float64 {
	return h.Quantity * h.LastKnownPrice
}

// CostBasis returns the remaining cost basis (average cost x units held).
func (h *Holding) CostBasis() float64 {
	return h.Quantity * h.AverageCost
}

// UnrealizedReturn returns the unrealized P/L against average cost.
func (h *Holding) UnrealizedReturn() float64 {
	return h.MarketValue() - h.CostBasis()
}

// DayChange returns the per-unit move since the previous close.
func (h *Holding) DayChange() float64 {
	return h.LastKnownPrice - h.PreviousClosePrice
}

// TransactionKind discriminates buy and sell events.
type TransactionKind string

const (
	TransactionBuy  TransactionKind = "BUY"
	TransactionSell TransactionKind = "SELL"
)

// Valid reports whether the kind is one of the known values.
func (k TransactionKind) Valid() bool {
	return k == TransactionBuy || k == TransactionSell
}

// Transaction is an immutable, append-only ledger entry. Quantity and
// UnitPrice are always positive; the kind determines the direction.
type Transaction struct {
	ID        string          `json:"id"`
	HoldingID string          `json:"holding_id"`
	Kind      TransactionKind `json:"kind"`
	Quantity  float64         `json:"quantity"`
	UnitPrice float64         `json:"unit_price"`
	Timestamp time.Time       `json:"timestamp"`
}
