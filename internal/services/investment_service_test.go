package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"plata/internal/core"
	"plata/internal/market"
)

type fakePurchaseStore struct {
	purchases []core.BitcoinPurchase
	nextID    int64
	failWith  error
}

func (f *fakePurchaseStore) CreatePurchase(ctx context.Context, p core.BitcoinPurchase) (core.BitcoinPurchase, error) {
	if f.failWith != nil {
		return core.BitcoinPurchase{}, f.failWith
	}
	f.nextID++
	p.ID = f.nextID
	f.purchases = append(f.purchases, p)
	return p, nil
}

func (f *fakePurchaseStore) ListPurchases(ctx context.Context) ([]core.BitcoinPurchase, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.purchases, nil
}

func (f *fakePurchaseStore) DeletePurchase(ctx context.Context, id int64) error {
	return f.failWith
}

type stubProvider struct {
	price, rate         float64
	priceErr, rateErr   error
	histPrice, histRate float64
}

func (s *stubProvider) CurrentPrice(ctx context.Context) (float64, error) {
	return s.price, s.priceErr
}

func (s *stubProvider) CurrentRate(ctx context.Context) (float64, error) {
	return s.rate, s.rateErr
}

func (s *stubProvider) HistoricalPrice(ctx context.Context, at time.Time) (float64, error) {
	return s.histPrice, s.priceErr
}

func (s *stubProvider) HistoricalRate(ctx context.Context, at time.Time) (float64, error) {
	return s.histRate, s.rateErr
}

func warmCache(price, rate float64) *market.Cache {
	c := market.NewCache()
	c.Update(price, rate, time.Now())
	return c
}

func TestInvestmentService_AddPurchaseKeepsExplicitValues(t *testing.T) {
	store := &fakePurchaseStore{}
	svc := NewInvestmentService(store, &stubProvider{histPrice: 99999, histRate: 9999}, market.NewCache(), nil)

	p := core.BitcoinPurchase{
		PurchaseTime:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		InvestedValue: 1000000,
		BitcoinPrice:  60000,
		USDCOPRate:    4000,
	}
	created, err := svc.AddPurchase(context.Background(), p)
	if err != nil {
		t.Fatalf("AddPurchase() error = %v", err)
	}
	if created.BitcoinPrice != 60000 || created.USDCOPRate != 4000 {
		t.Errorf("explicit values overwritten: price=%v rate=%v", created.BitcoinPrice, created.USDCOPRate)
	}
}

func TestInvestmentService_AddPurchaseBackfillsFromHistory(t *testing.T) {
	store := &fakePurchaseStore{}
	svc := NewInvestmentService(store, &stubProvider{histPrice: 45000, histRate: 3900}, market.NewCache(), nil)

	created, err := svc.AddPurchase(context.Background(), core.BitcoinPurchase{
		PurchaseTime:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		InvestedValue: 500000,
	})
	if err != nil {
		t.Fatalf("AddPurchase() error = %v", err)
	}
	if created.BitcoinPrice != 45000 {
		t.Errorf("BitcoinPrice = %v, want 45000", created.BitcoinPrice)
	}
	if created.USDCOPRate != 3900 {
		t.Errorf("USDCOPRate = %v, want 3900", created.USDCOPRate)
	}
}

func TestInvestmentService_AddPurchaseFallsBackToSnapshot(t *testing.T) {
	store := &fakePurchaseStore{}
	provider := &stubProvider{priceErr: errors.New("api down"), rateErr: errors.New("api down")}
	svc := NewInvestmentService(store, provider, warmCache(70000, 4100), nil)

	created, err := svc.AddPurchase(context.Background(), core.BitcoinPurchase{
		PurchaseTime:  time.Now(),
		InvestedValue: 250000,
	})
	if err != nil {
		t.Fatalf("AddPurchase() error = %v", err)
	}
	if created.BitcoinPrice != 70000 {
		t.Errorf("BitcoinPrice = %v, want cached 70000", created.BitcoinPrice)
	}
	if created.USDCOPRate != 4100 {
		t.Errorf("USDCOPRate = %v, want cached 4100", created.USDCOPRate)
	}
}

func TestInvestmentService_AddPurchaseDefaultRate(t *testing.T) {
	store := &fakePurchaseStore{}
	provider := &stubProvider{histPrice: 50000, rateErr: errors.New("api down")}
	svc := NewInvestmentService(store, provider, market.NewCache(), nil)

	created, err := svc.AddPurchase(context.Background(), core.BitcoinPurchase{
		PurchaseTime:  time.Now(),
		InvestedValue: 100000,
	})
	if err != nil {
		t.Fatalf("AddPurchase() error = %v", err)
	}
	if created.USDCOPRate != market.DefaultUSDCOPRate {
		t.Errorf("USDCOPRate = %v, want default %v", created.USDCOPRate, market.DefaultUSDCOPRate)
	}
}

func TestInvestmentService_AddPurchaseNoPriceAnywhere(t *testing.T) {
	store := &fakePurchaseStore{}
	provider := &stubProvider{priceErr: errors.New("api down")}
	svc := NewInvestmentService(store, provider, market.NewCache(), nil)

	_, err := svc.AddPurchase(context.Background(), core.BitcoinPurchase{
		PurchaseTime:  time.Now(),
		InvestedValue: 100000,
	})
	if err == nil {
		t.Fatal("AddPurchase() error = nil, want failure with no price available")
	}
	if len(store.purchases) != 0 {
		t.Error("purchase stored without a price")
	}
}

func TestInvestmentService_AddPurchaseInvalid(t *testing.T) {
	svc := NewInvestmentService(&fakePurchaseStore{}, &stubProvider{}, market.NewCache(), nil)

	_, err := svc.AddPurchase(context.Background(), core.BitcoinPurchase{
		PurchaseTime:  time.Now(),
		InvestedValue: 0,
	})
	if !errors.Is(err, core.ErrInvalidInvestedValue) {
		t.Errorf("AddPurchase() error = %v, want ErrInvalidInvestedValue", err)
	}
}

func TestInvestmentService_Report(t *testing.T) {
	store := &fakePurchaseStore{purchases: []core.BitcoinPurchase{
		{ID: 1, PurchaseTime: time.Now(), InvestedValue: 1000000, BitcoinPrice: 50000, USDCOPRate: 4000},
		{ID: 2, PurchaseTime: time.Now(), InvestedValue: 2000000, BitcoinPrice: 80000, USDCOPRate: 4000},
	}}
	svc := NewInvestmentService(store, &stubProvider{}, warmCache(100000, 4000), nil)

	report, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Summary.TotalInvested != 3000000 {
		t.Errorf("TotalInvested = %v, want 3000000", report.Summary.TotalInvested)
	}
	if len(report.Purchases) != 2 {
		t.Fatalf("len(Purchases) = %d, want 2", len(report.Purchases))
	}
	// 1M at 50k and 2M at 80k, both at rate 4000.
	wantBTC := 1000000.0/4000/50000 + 2000000.0/4000/80000
	if math.Abs(report.Summary.TotalBitcoin-wantBTC) > 1e-12 {
		t.Errorf("TotalBitcoin = %v, want %v", report.Summary.TotalBitcoin, wantBTC)
	}
	if report.Market.BitcoinPriceUSD != 100000 {
		t.Errorf("Market.BitcoinPriceUSD = %v, want 100000", report.Market.BitcoinPriceUSD)
	}
	// First purchase doubled: bought at 50k, now 100k.
	first := report.Purchases[0].Valuation
	if math.Abs(first.GainLossPct-100) > 1e-9 {
		t.Errorf("first purchase GainLossPct = %v, want 100", first.GainLossPct)
	}
}

func TestInvestmentService_ReportEmpty(t *testing.T) {
	svc := NewInvestmentService(&fakePurchaseStore{}, &stubProvider{}, market.NewCache(), nil)

	report, err := svc.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Summary.GainLossPct != 0 {
		t.Errorf("GainLossPct = %v, want 0 for empty portfolio", report.Summary.GainLossPct)
	}
	if len(report.Purchases) != 0 {
		t.Errorf("Purchases = %v, want empty", report.Purchases)
	}
}
