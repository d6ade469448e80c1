package core

import (
	"sort"
	"strings"
)

// Filter selects transactions by the conjunction of its non-zero
// fields. An empty field means no constraint.
type Filter struct {
	Category      string
	Type          TransactionType
	PaymentMethod PaymentMethod
	DateFrom      string
	DateTo        string
	Search        string
}

// Matches reports whether t satisfies every predicate present in f.
func (f Filter) Matches(t Transaction) bool {
	if f.Category != "" && t.CategoryName != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
		return false
	}
	if f.DateFrom != "" && t.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && t.Date > f.DateTo {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// FilterTransactions returns the transactions matching f, ordered by
// date descending then creation time descending. The ordering is part
// of the contract: consumers render the result as-is.
func FilterTransactions(ts []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TypeTotal carries the aggregated amount and record count for one
// transaction type.
type TypeTotal struct {
	Type  TransactionType `json:"type"`
	Total float64         `json:"total"`
	Count int             `json:"count"`
}

// MonthTotals summarizes one calendar month.
type MonthTotals struct {
	IncomeTotal  float64 `json:"income_total"`
	ExpenseTotal float64 `json:"expense_total"`
	IncomeCount  int     `json:"income_count"`
	ExpenseCount int     `json:"expense_count"`
}

// MonthlyTotals sums amounts by type over the given calendar month.
// A month with no transactions yields all-zero totals.
func MonthlyTotals(ts []Transaction, year, month int) MonthTotals {
	from, to := monthBounds(year, month)
	var m MonthTotals
	for _, t := range ts {
		if t.Date < from || t.Date > to {
			continue
		}
		switch t.Type {
		case Income:
			m.IncomeTotal += t.Amount
			m.IncomeCount++
		case Expense:
			m.ExpenseTotal += t.Amount
			m.ExpenseCount++
		}
	}
	return m
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryBreakdown groups the month's categorized transactions by
// category, ordered by total descending. Transactions without a
// category are excluded.
func CategoryBreakdown(ts []Transaction, year, month int) []CategoryTotal {
	from, to := monthBounds(year, month)
	index := make(map[string]int)
	var out []CategoryTotal
	for _, t := range ts {
		if t.CategoryID == nil || t.Date < from || t.Date > to {
			continue
		}
		i, ok := index[t.CategoryName]
		if !ok {
			i = len(out)
			index[t.CategoryName] = i
			out = append(out, CategoryTotal{Name: t.CategoryName, Color: t.CategoryColor})
		}
		out[i].Total += t.Amount
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// SeriesPoint is one month+type bucket of a yearly series.
type SeriesPoint struct {
	Month int             `json:"month"`
	Type  TransactionType `json:"type"`
	Total float64         `json:"total"`
}

// YearlySeries groups the year's transactions by calendar month and
// type, ordered by month ascending with income before expense within a
// month.
func YearlySeries(ts []Transaction, year int) []SeriesPoint {
	type bucket struct{ income, expense float64 }
	var months [13]bucket
	var seen [13]struct{ income, expense bool }
	for _, t := range ts {
		d, err := ParseDate(t.Date)
		if err != nil || d.Year() != year {
			continue
		}
		m := int(d.Month())
		switch t.Type {
		case Income:
			months[m].income += t.Amount
			seen[m].income = true
		case Expense:
			months[m].expense += t.Amount
			seen[m].expense = true
		}
	}
	var out []SeriesPoint
	for m := 1; m <= 12; m++ {
		if seen[m].income {
			out = append(out, SeriesPoint{Month: m, Type: Income, Total: months[m].income})
		}
		if seen[m].expense {
			out = append(out, SeriesPoint{Month: m, Type: Expense, Total: months[m].expense})
		}
	}
	return out
}

// BalancePoint is the cumulative balance at the end of one day.
type BalancePoint struct {
	Day     int     `json:"day"`
	Balance float64 `json:"balance"`
}

// RollingBalance computes the day-by-day cumulative net balance
// (income minus expense) for the given month. It emits one point per
// calendar day, including days with no transactions.
func RollingBalance(ts []Transaction, year, month int) []BalancePoint {
	days := daysInMonth(year, month)
	nets := make([]float64, days+1)
	from, to := monthBounds(year, month)
	for _, t := range ts {
		if t.Date < from || t.Date > to {
			continue
		}
		d, err := ParseDate(t.Date)
		if err != nil {
			continue
		}
		day := d.Day()
		if t.Type == Income {
			nets[day] += t.Amount
		} else {
			nets[day] -= t.Amount
		}
	}
	out := make([]BalancePoint, 0, days)
	var running float64
	for day := 1; day <= days; day++ {
		running += nets[day]
		out = append(out, BalancePoint{Day: day, Balance: running})
	}
	return out
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 0
}
