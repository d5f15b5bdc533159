package server

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/bobmcallan/trademind/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Holdings
	mux.HandleFunc("/api/holdings/", s.routeHoldings)
	mux.HandleFunc("/api/holdings", s.handleHoldings)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
	mux.HandleFunc("/api/market/profile/", s.handleMarketProfile)
	mux.HandleFunc("/api/market/history/", s.handleMarketHistory)
}

// routeHoldings dispatches /api/holdings/{id}[/transactions|/advice].
func (s *Server) routeHoldings(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/holdings/")

	switch {
	case strings.HasSuffix(rest, "/transactions"):
		s.handleHoldingTransactions(w, r)
	case strings.HasSuffix(rest, "/advice"):
		s.handleHoldingAdvice(w, r)
	case !strings.Contains(rest, "/") && rest != "":
		s.handleHolding(w, r)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
		"go_version": runtime.Version(),
	})
}
