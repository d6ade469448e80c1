package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"plata/internal/core"
	"plata/internal/storage"
)

type transactionRequest struct {
	Title         string  `json:"title"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	PaymentMethod string  `json:"payment_method"`
	CategoryID    *int64  `json:"category_id"`
	Date          string  `json:"date"`
	ReceiptImage  string  `json:"receipt_image"`
}

func (req transactionRequest) toCore() core.Transaction {
	return core.Transaction{
		Title:         strings.TrimSpace(req.Title),
		Amount:        req.Amount,
		Type:          core.TransactionType(req.Type),
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		CategoryID:    req.CategoryID,
		Date:          req.Date,
		ReceiptImage:  req.ReceiptImage,
	}
}

// filterFromQuery builds a store filter from the list query parameters.
// month=YYYY-MM expands to an inclusive date range covering the month.
func filterFromQuery(r *http.Request) core.Filter {
	q := r.URL.Query()
	f := core.Filter{
		Category:      q.Get("category"),
		Type:          core.TransactionType(q.Get("type")),
		PaymentMethod: core.PaymentMethod(q.Get("payment_method")),
		DateFrom:      q.Get("date_from"),
		DateTo:        q.Get("date_to"),
		Search:        q.Get("search"),
	}
	if month := q.Get("month"); len(month) == 7 {
		f.DateFrom = month + "-01"
		f.DateTo = month + "-31"
	}
	return f
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.store.ListTransactions(r.Context(), filterFromQuery(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionListJSON(transactions))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	t, err := s.store.GetTransaction(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Transacción no encontrada")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Get transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	created, err := s.transactions.Create(r.Context(), req.toCore())
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Formato de solicitud inválido")
		return
	}

	updated, err := s.transactions.Update(r.Context(), id, req.toCore())
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transacción no encontrada")
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido")
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transacción no encontrada")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	writeMessage(w, http.StatusOK, "Transacción eliminada")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// validationMessage maps domain validation errors to user-facing
// messages. The second return is false for non-validation errors.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "El título es obligatorio", true
	case errors.Is(err, core.ErrInvalidAmount):
		return "El monto debe ser mayor que cero", true
	case errors.Is(err, core.ErrInvalidType):
		return "Tipo de transacción inválido", true
	case errors.Is(err, core.ErrInvalidPaymentMethod):
		return "Método de pago inválido", true
	case errors.Is(err, core.ErrInvalidDate):
		return "Fecha inválida, usa el formato AAAA-MM-DD", true
	case errors.Is(err, core.ErrEmptyCategoryName):
		return "El nombre de la categoría es obligatorio", true
	case errors.Is(err, core.ErrInvalidColor):
		return "Color inválido, usa el formato #RRGGBB", true
	case errors.Is(err, core.ErrInvalidInvestedValue):
		return "El valor invertido debe ser mayor que cero", true
	}
	return "", false
}
