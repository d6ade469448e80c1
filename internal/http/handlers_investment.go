package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"plata/internal/core"
	"plata/internal/market"
	"plata/internal/storage"
)

type purchaseRequest struct {
	PurchaseTime  *time.Time `json:"purchase_time"`
	InvestedValue float64    `json:"invested_value"`
	BitcoinPrice  float64    `json:"bitcoin_price"`
	USDCOPRate    float64    `json:"usd_cop_rate"`
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.store.ListPurchases(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List purchases failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	out := make([]purchaseJSON, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	p := core.BitcoinPurchase{
		InvestedValue: req.InvestedValue,
		BitcoinPrice:  req.BitcoinPrice,
		USDCOPRate:    req.USDCOPRate,
	}
	if req.PurchaseTime != nil {
		p.PurchaseTime = *req.PurchaseTime
	}

	created, err := s.investments.AddPurchase(r.Context(), p)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
		slog.ErrorContext(r.Context(), "Create purchase failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseJSON(created))
}

func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	if err := s.investments.DeletePurchase(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Compra no encontrada")
			return
		}
		slog.ErrorContext(r.Context(), "Delete purchase failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeMessage(w, http.StatusOK, "Compra eliminada")
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.marketCache.Snapshot())
}

func (s *Server) handleInvestment(w http.ResponseWriter, r *http.Request) {
	report, err := s.investments.Report(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Investment report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	purchases := make([]valuedPurchaseJSON, 0, len(report.Purchases))
	for _, v := range report.Purchases {
		purchases = append(purchases, toValuedPurchaseJSON(v))
	}
	writeJSON(w, http.StatusOK, struct {
		Summary   core.InvestmentSummary `json:"summary"`
		Purchases []valuedPurchaseJSON   `json:"purchases"`
		Market    market.Snapshot        `json:"market"`
	}{
		Summary:   report.Summary,
		Purchases: purchases,
		Market:    report.Market,
	})
}
