package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Debit  PaymentMethod = "debit"
	Credit PaymentMethod = "credit"
)

type (
	TransactionType string

	PaymentMethod string

	// Transaction is a single income or expense record. Amount is always
	// positive in COP; Type decides the sign in aggregations. Date is a
	// calendar date in YYYY-MM-DD form, which keeps the store's ordering
	// and range filters plain string comparisons.
	Transaction struct {
		ID            int64
		Title         string
		Amount        float64
		Type          TransactionType
		PaymentMethod PaymentMethod
		CategoryID    *int64
		Date          string
		ReceiptImage  string
		CreatedAt     time.Time

		// Joined from categories for display; empty when uncategorized.
		CategoryName  string
		CategoryColor string
	}

	Category struct {
		ID    int64
		Name  string
		Color string
	}

	// BitcoinPurchase records capital invested in COP together with the
	// market conditions at purchase time. The amount of Bitcoin bought is
	// derived, never stored.
	BitcoinPurchase struct {
		ID            int64
		PurchaseTime  time.Time
		InvestedValue float64
		BitcoinPrice  float64
		USDCOPRate    float64
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyTitle           = errors.New("empty title")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyCategoryName    = errors.New("empty category name")
	ErrInvalidColor         = errors.New("invalid color")
	ErrInvalidInvestedValue = errors.New("invalid invested value")
	ErrZeroPurchaseTime     = errors.New("purchase time cannot be zero")
)

// ParseDate validates a YYYY-MM-DD calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func (tt TransactionType) Validate() error {
	switch tt {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (pm PaymentMethod) Validate() error {
	switch pm {
	case Debit, Credit:
		return nil
	}
	return ErrInvalidPaymentMethod
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.PaymentMethod.Validate(); err != nil {
		return err
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if c.Color != "" && !validHexColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (p BitcoinPurchase) Validate() error {
	if p.PurchaseTime.IsZero() {
		return ErrZeroPurchaseTime
	}
	if p.InvestedValue <= 0 {
		return ErrInvalidInvestedValue
	}
	return nil
}

// BitcoinAmount returns the amount of Bitcoin this purchase bought.
// Non-finite when the stored rate or price is zero; callers guard
// against zero market data before relying on the result.
func (p BitcoinPurchase) BitcoinAmount() float64 {
	return ComputeBitcoinAmount(p.InvestedValue, p.USDCOPRate, p.BitcoinPrice)
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// monthBounds returns the inclusive string range covering year+month.
// The upper bound uses day 31 for every month; with YYYY-MM-DD string
// comparison that over-wide bound never matches a real date outside the
// month.
func monthBounds(year, month int) (string, string) {
	return fmt.Sprintf("%04d-%02d-01", year, month), fmt.Sprintf("%04d-%02d-31", year, month)
}
