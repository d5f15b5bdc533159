package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

// handleHoldings handles /api/holdings: POST opens a position, GET lists them.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleHoldingCreate(w, r)
	case http.MethodGet:
		s.handleHoldingList(w, r)
	default:
		RequireMethod(w, r, http.MethodPost, http.MethodGet)
	}
}

// handleHoldingCreate handles POST /api/holdings, opening a new position.
// Company name and sector come from the market profile when the request
// leaves them blank; the current price is seeded from a live quote.
func (s *Server) handleHoldingCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol    string  `json:"symbol"`
		Name      string  `json:"name"`
		Sector    string  `json:"sector"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if req.Name == "" || req.Sector == "" {
		if profile, err := s.app.Market.GetProfile(ctx, symbol); err == nil {
			if req.Name == "" {
				req.Name = profile.Name
			}
			if req.Sector == "" {
				req.Sector = profile.Industry
			}
		}
	}

	quote, err := s.app.Market.GetQuote(ctx, symbol)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	holding, err := s.app.Ledger.Open(ctx, common.ResolveOwnerID(ctx), interfaces.OpenRequest{
		Symbol:       symbol,
		Name:         req.Name,
		Sector:       req.Sector,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		CurrentPrice: quote.Current,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if quote.PreviousClose > 0 {
		if updated, err := s.app.Ledger.SetPrices(ctx, holding.ID, quote.Current, quote.PreviousClose); err == nil {
			holding = updated
		}
	}

	WriteJSON(w, http.StatusCreated, holding)
}

// handleHoldingList handles GET /api/holdings, listing the owner's positions
// newest first.
func (s *Server) handleHoldingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holdings, err := s.app.Ledger.List(ctx, common.ResolveOwnerID(ctx))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if holdings == nil {
		holdings = []*models.Holding{}
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// handleHolding handles /api/holdings/{id}: GET fetches, DELETE removes.
func (s *Server) handleHolding(w http.ResponseWriter, r *http.Request) {
	holdingID := PathParam(r, "/api/holdings/", "")
	if holdingID == "" {
		WriteError(w, http.StatusBadRequest, "holding id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		holding, err := s.app.Ledger.Get(r.Context(), holdingID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, holding)

	case http.MethodPatch:
		s.handleHoldingPatch(w, r, holdingID)

	case http.MethodDelete:
		if err := s.app.Ledger.Remove(r.Context(), holdingID); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// handleHoldingPatch applies collaborator updates to a holding: observed
// market prices and externally produced advice. Ledger fields (quantity,
// average cost) only move through transactions.
func (s *Server) handleHoldingPatch(w http.ResponseWriter, r *http.Request, holdingID string) {
	var req struct {
		CurrentPrice  *float64       `json:"current_price"`
		PreviousClose *float64       `json:"previous_close"`
		Advice        *models.Advice `json:"advice"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPrice == nil && req.Advice == nil {
		WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx := r.Context()
	holding, err := s.app.Ledger.Get(ctx, holdingID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if req.CurrentPrice != nil {
		previousClose := holding.PreviousClosePrice
		if req.PreviousClose != nil {
			previousClose = *req.PreviousClose
		}
		holding, err = s.app.Ledger.SetPrices(ctx, holdingID, *req.CurrentPrice, previousClose)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
	}

	if req.Advice != nil {
		holding, err = s.app.Ledger.SetAdvice(ctx, holdingID, req.Advice)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, holding)
}

// handleHoldingTransactions handles /api/holdings/{id}/transactions:
// POST applies a buy or sell, GET lists the log most recent first.
func (s *Server) handleHoldingTransactions(w http.ResponseWriter, r *http.Request) {
	holdingID := PathParam(r, "/api/holdings/", "/transactions")
	if holdingID == "" {
		WriteError(w, http.StatusBadRequest, "holding id is required")
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.handleTransactionCreate(w, r, holdingID)
	case http.MethodGet:
		txs, err := s.app.Ledger.Transactions(r.Context(), holdingID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		if txs == nil {
			txs = []*models.Transaction{}
		}
		WriteJSON(w, http.StatusOK, txs)
	default:
		RequireMethod(w, r, http.MethodPost, http.MethodGet)
	}
}

// transactionResponse pairs the recorded entry with the holding it produced.
type transactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Holding     *models.Holding     `json:"holding"`
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request, holdingID string) {
	var req struct {
		Kind      models.TransactionKind `json:"kind"`
		Quantity  float64                `json:"quantity"`
		UnitPrice float64                `json:"unit_price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if !req.Kind.Valid() {
		WriteError(w, http.StatusBadRequest, "kind must be BUY or SELL")
		return
	}

	ctx := r.Context()
	var (
		tx      *models.Transaction
		holding *models.Holding
		err     error
	)
	if req.Kind == models.TransactionBuy {
		tx, holding, err = s.app.Ledger.ApplyBuy(ctx, holdingID, req.Quantity, req.UnitPrice)
	} else {
		tx, holding, err = s.app.Ledger.ApplySell(ctx, holdingID, req.Quantity, req.UnitPrice)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, transactionResponse{Transaction: tx, Holding: holding})
}

// handleHoldingAdvice handles POST /api/holdings/{id}/advice, running position
// analysis and attach the result. Analysis failures degrade to HOLD advice,
// so this endpoint only errors when the holding itself is unavailable.
func (s *Server) handleHoldingAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	holdingID := PathParam(r, "/api/holdings/", "/advice")
	if holdingID == "" {
		WriteError(w, http.StatusBadRequest, "holding id is required")
		return
	}

	ctx := r.Context()
	holding, err := s.app.Ledger.Get(ctx, holdingID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	advice := s.app.Advisor.Analyze(ctx, holding.Symbol, holding.AverageCost, holding.LastKnownPrice, holding.Sector)

	updated, err := s.app.Ledger.SetAdvice(ctx, holdingID, advice)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}
