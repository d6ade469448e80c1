package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"plata/internal/core"
)

// yearMonth parses year and month query parameters, defaulting to the
// current calendar month. An out-of-range month falls back to the
// current one.
func yearMonth(r *http.Request) (int, int) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	year, month := yearMonth(r)

	transactions, err := s.store.ListTransactions(r.Context(), core.Filter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	totals := core.MonthlyTotals(transactions, year, month)
	writeJSON(w, http.StatusOK, struct {
		Year       int                  `json:"year"`
		Month      int                  `json:"month"`
		Totals     core.MonthTotals     `json:"totals"`
		Balance    float64              `json:"balance"`
		Categories []core.CategoryTotal `json:"categories"`
		Series     []core.SeriesPoint   `json:"series"`
	}{
		Year:       year,
		Month:      month,
		Totals:     totals,
		Balance:    totals.IncomeTotal - totals.ExpenseTotal,
		Categories: core.CategoryBreakdown(transactions, year, month),
		Series:     core.YearlySeries(transactions, year),
	})
}

func (s *Server) handleStatsBalance(w http.ResponseWriter, r *http.Request) {
	year, month := yearMonth(r)

	transactions, err := s.store.ListTransactions(r.Context(), core.Filter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Year   int                 `json:"year"`
		Month  int                 `json:"month"`
		Points []core.BalancePoint `json:"points"`
	}{
		Year:   year,
		Month:  month,
		Points: core.RollingBalance(transactions, year, month),
	})
}
