// Package core holds the pure domain model and the valuation and
// aggregation engine. Nothing here performs I/O; every function is a
// deterministic transformation of its inputs, which keeps the whole
// engine trivially testable.
package core

// InvestmentSummary is the portfolio-level view of all Bitcoin
// purchases valued at current market conditions. All monetary fields
// are COP.
type InvestmentSummary struct {
	TotalInvested float64 `json:"total_invested"`
	TotalBitcoin  float64 `json:"total_bitcoin"`
	CurrentValue  float64 `json:"current_value"`
	GainLoss      float64 `json:"gain_loss"`
	GainLossPct   float64 `json:"gain_loss_pct"`
}

// PurchaseResult values a single purchase at current market conditions.
type PurchaseResult struct {
	CurrentValue float64 `json:"current_value"`
	GainLoss     float64 `json:"gain_loss"`
	GainLossPct  float64 `json:"gain_loss_pct"`
}

// ComputeBitcoinAmount converts an invested COP amount into Bitcoin:
// COP / (COP/USD) = USD, USD / (USD/BTC) = BTC. The result is
// non-finite if rate or price is zero; callers must guard against zero
// market data before invoking.
func ComputeBitcoinAmount(investedValue, usdCopRate, bitcoinPrice float64) float64 {
	return investedValue / usdCopRate / bitcoinPrice
}

// SummarizePurchases folds all purchases into an InvestmentSummary at
// the given current market price and exchange rate. The percentage is
// zero-guarded: an empty (or zero-invested) portfolio reports 0%,
// never NaN.
func SummarizePurchases(purchases []BitcoinPurchase, currentPriceUSD, currentRate float64) InvestmentSummary {
	var s InvestmentSummary
	for _, p := range purchases {
		s.TotalInvested += p.InvestedValue
		s.TotalBitcoin += p.BitcoinAmount()
	}
	s.CurrentValue = s.TotalBitcoin * currentPriceUSD * currentRate
	s.GainLoss = s.CurrentValue - s.TotalInvested
	if s.TotalInvested > 0 {
		s.GainLossPct = s.GainLoss / s.TotalInvested * 100
	}
	return s
}

// PurchasePerformance values one purchase at current market conditions.
// Unlike SummarizePurchases there is no zero-guard on the percentage:
// the store rejects non-positive invested values, so a division by zero
// here means corrupt data and the non-finite result is propagated
// rather than masked.
func PurchasePerformance(p BitcoinPurchase, currentPriceUSD, currentRate float64) PurchaseResult {
	currentValue := p.BitcoinAmount() * currentPriceUSD * currentRate
	gainLoss := currentValue - p.InvestedValue
	return PurchaseResult{
		CurrentValue: currentValue,
		GainLoss:     gainLoss,
		GainLossPct:  gainLoss / p.InvestedValue * 100,
	}
}
