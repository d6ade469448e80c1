package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Title:         "Mercado",
		Amount:        50_000,
		Type:          Expense,
		PaymentMethod: Debit,
		Date:          "2025-06-10",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"empty title", func(tr *Transaction) { tr.Title = "   " }, ErrEmptyTitle},
		{"zero amount", func(tr *Transaction) { tr.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount = -1 }, ErrInvalidAmount},
		{"bad type", func(tr *Transaction) { tr.Type = "transfer" }, ErrInvalidType},
		{"bad payment method", func(tr *Transaction) { tr.PaymentMethod = "cash" }, ErrInvalidPaymentMethod},
		{"bad date", func(tr *Transaction) { tr.Date = "10/06/2025" }, ErrInvalidDate},
		{"empty date", func(tr *Transaction) { tr.Date = "" }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := good
			tt.mutate(&tr)
			if err := tr.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Hogar", Color: "#EF4444"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "Hogar"}).Validate(); err != nil {
		t.Fatalf("color is optional, got %v", err)
	}
	if err := (Category{Name: ""}).Validate(); !errors.Is(err, ErrEmptyCategoryName) {
		t.Fatalf("expected ErrEmptyCategoryName, got %v", err)
	}
	for _, color := range []string{"EF4444", "#EF444", "#GGGGGG", "#EF44441"} {
		if err := (Category{Name: "x", Color: color}).Validate(); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("color %q: expected ErrInvalidColor, got %v", color, err)
		}
	}
}

func TestBitcoinPurchaseValidate(t *testing.T) {
	good := BitcoinPurchase{
		PurchaseTime:  time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		InvestedValue: 1_000_000,
		BitcoinPrice:  60000,
		USDCOPRate:    4000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.PurchaseTime = time.Time{}
	if err := bad.Validate(); !errors.Is(err, ErrZeroPurchaseTime) {
		t.Fatalf("expected ErrZeroPurchaseTime, got %v", err)
	}

	bad = good
	bad.InvestedValue = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidInvestedValue) {
		t.Fatalf("expected ErrInvalidInvestedValue, got %v", err)
	}
}
