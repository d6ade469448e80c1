package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plata/internal/amqp"
	"plata/internal/core"
	"plata/internal/market"
)

// PurchaseStore is the slice of the repository the service needs.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, p core.BitcoinPurchase) (core.BitcoinPurchase, error)
	ListPurchases(ctx context.Context) ([]core.BitcoinPurchase, error)
	DeletePurchase(ctx context.Context, id int64) error
}

// ValuedPurchase pairs a stored purchase with its derived Bitcoin
// amount and its performance at current market conditions.
type ValuedPurchase struct {
	Purchase      core.BitcoinPurchase
	BitcoinAmount float64
	Valuation     core.PurchaseResult
}

// InvestmentReport is the full portfolio view served to clients.
type InvestmentReport struct {
	Summary   core.InvestmentSummary
	Purchases []ValuedPurchase
	Market    market.Snapshot
}

// InvestmentService manages Bitcoin purchases, backfilling missing
// market conditions from the provider at record time.
type InvestmentService struct {
	store     PurchaseStore
	provider  market.Provider
	cache     *market.Cache
	publisher SyncPublisher
}

func NewInvestmentService(store PurchaseStore, provider market.Provider, cache *market.Cache, publisher SyncPublisher) *InvestmentService {
	return &InvestmentService{
		store:     store,
		provider:  provider,
		cache:     cache,
		publisher: publisher,
	}
}

// AddPurchase records a purchase. A zero price or rate is filled from
// the historical market data for the purchase time, falling back to the
// cached current snapshot, then to the default exchange rate. Purchases
// are never stored with a zero price.
func (s *InvestmentService) AddPurchase(ctx context.Context, p core.BitcoinPurchase) (core.BitcoinPurchase, error) {
	if p.PurchaseTime.IsZero() {
		p.PurchaseTime = time.Now()
	}
	if err := p.Validate(); err != nil {
		return core.BitcoinPurchase{}, err
	}

	snap := s.cache.Snapshot()

	if p.BitcoinPrice == 0 {
		price, err := s.provider.HistoricalPrice(ctx, p.PurchaseTime)
		if err != nil {
			slog.WarnContext(ctx, "Historical price lookup failed, using cached snapshot",
				"purchase_time", p.PurchaseTime, "error", err)
			price = snap.BitcoinPriceUSD
		}
		if price == 0 {
			return core.BitcoinPurchase{}, fmt.Errorf("no bitcoin price available for %s", p.PurchaseTime.Format("2006-01-02"))
		}
		p.BitcoinPrice = price
	}

	if p.USDCOPRate == 0 {
		rate, err := s.provider.HistoricalRate(ctx, p.PurchaseTime)
		if err != nil || rate == 0 {
			if err != nil {
				slog.WarnContext(ctx, "Historical rate lookup failed, using cached snapshot",
					"purchase_time", p.PurchaseTime, "error", err)
			}
			rate = snap.USDCOPRate
		}
		if rate == 0 {
			rate = market.DefaultUSDCOPRate
		}
		p.USDCOPRate = rate
	}

	created, err := s.store.CreatePurchase(ctx, p)
	if err != nil {
		return core.BitcoinPurchase{}, fmt.Errorf("save bitcoin purchase: %w", err)
	}

	s.publish(ctx, created.ID)
	return created, nil
}

func (s *InvestmentService) DeletePurchase(ctx context.Context, id int64) error {
	if err := s.store.DeletePurchase(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, id)
	return nil
}

// Report values the whole portfolio against the cached market snapshot.
func (s *InvestmentService) Report(ctx context.Context) (InvestmentReport, error) {
	purchases, err := s.store.ListPurchases(ctx)
	if err != nil {
		return InvestmentReport{}, fmt.Errorf("list bitcoin purchases: %w", err)
	}

	snap := s.cache.Snapshot()
	report := InvestmentReport{
		Summary: core.SummarizePurchases(purchases, snap.BitcoinPriceUSD, snap.USDCOPRate),
		Market:  snap,
	}
	for _, p := range purchases {
		report.Purchases = append(report.Purchases, ValuedPurchase{
			Purchase:      p,
			BitcoinAmount: p.BitcoinAmount(),
			Valuation:     core.PurchasePerformance(p, snap.BitcoinPriceUSD, snap.USDCOPRate),
		})
	}
	return report, nil
}

func (s *InvestmentService) publish(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, amqp.KindPurchase, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish purchase sync message",
			"id", id, "error", err)
	}
}
