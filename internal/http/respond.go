package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"plata/internal/core"
	"plata/internal/services"
)

type transactionJSON struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Type          string    `json:"type"`
	PaymentMethod string    `json:"payment_method"`
	CategoryID    *int64    `json:"category_id"`
	CategoryName  string    `json:"category_name,omitempty"`
	CategoryColor string    `json:"category_color,omitempty"`
	Date          string    `json:"date"`
	ReceiptImage  string    `json:"receipt_image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type categoryJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type purchaseJSON struct {
	ID            int64     `json:"id"`
	PurchaseTime  time.Time `json:"purchase_time"`
	InvestedValue float64   `json:"invested_value"`
	BitcoinPrice  float64   `json:"bitcoin_price"`
	USDCOPRate    float64   `json:"usd_cop_rate"`
	BitcoinAmount float64   `json:"bitcoin_amount"`
}

type valuedPurchaseJSON struct {
	purchaseJSON
	CurrentValue float64 `json:"current_value"`
	GainLoss     float64 `json:"gain_loss"`
	GainLossPct  float64 `json:"gain_loss_pct"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:            t.ID,
		Title:         t.Title,
		Amount:        t.Amount,
		Type:          string(t.Type),
		PaymentMethod: string(t.PaymentMethod),
		CategoryID:    t.CategoryID,
		CategoryName:  t.CategoryName,
		CategoryColor: t.CategoryColor,
		Date:          t.Date,
		ReceiptImage:  t.ReceiptImage,
		CreatedAt:     t.CreatedAt,
	}
}

func toTransactionListJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color}
}

func toPurchaseJSON(p core.BitcoinPurchase) purchaseJSON {
	return purchaseJSON{
		ID:            p.ID,
		PurchaseTime:  p.PurchaseTime,
		InvestedValue: p.InvestedValue,
		BitcoinPrice:  p.BitcoinPrice,
		USDCOPRate:    p.USDCOPRate,
		BitcoinAmount: p.BitcoinAmount(),
	}
}

func toValuedPurchaseJSON(v services.ValuedPurchase) valuedPurchaseJSON {
	return valuedPurchaseJSON{
		purchaseJSON: toPurchaseJSON(v.Purchase),
		CurrentValue: v.Valuation.CurrentValue,
		GainLoss:     v.Valuation.GainLoss,
		GainLossPct:  v.Valuation.GainLossPct,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
