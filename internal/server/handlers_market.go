package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/trademind/internal/signals"
)

// handleMarketQuote handles GET /api/market/quote/{symbol}.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/market/quote/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quote, err := s.app.Market.GetQuote(r.Context(), strings.ToUpper(symbol))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleMarketProfile handles GET /api/market/profile/{symbol}.
func (s *Server) handleMarketProfile(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/market/profile/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	profile, err := s.app.Market.GetProfile(r.Context(), strings.ToUpper(symbol))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// handleMarketHistory handles GET /api/market/history/{symbol}.
//
// Query parameters:
//
//	resolution  candle resolution, default "D"
//	from, to    unix seconds, default one year ending now
//	sma         comma-separated moving-average windows to overlay
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/market/history/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	query := r.URL.Query()
	resolution := query.Get("resolution")
	if resolution == "" {
		resolution = "D"
	}

	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	if v := query.Get("from"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "from must be unix seconds")
			return
		}
		from = time.Unix(sec, 0)
	}
	if v := query.Get("to"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "to must be unix seconds")
			return
		}
		to = time.Unix(sec, 0)
	}
	if !to.After(from) {
		WriteError(w, http.StatusBadRequest, "from must precede to")
		return
	}

	var windows []int
	if raw := query.Get("sma"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			window, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || window <= 0 {
				WriteError(w, http.StatusBadRequest, "sma windows must be positive integers")
				return
			}
			windows = append(windows, window)
		}
	}

	series, err := s.app.Market.GetHistory(r.Context(), strings.ToUpper(symbol), resolution, from, to)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if len(windows) > 0 {
		series.Overlays = signals.Overlay(series, windows...)
		crossover := signals.DetectCrossover(series.Closes(), signals.ShortWindow, signals.LongWindow)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"series":    series,
			"crossover": crossover,
		})
		return
	}

	WriteJSON(w, http.StatusOK, series)
}
