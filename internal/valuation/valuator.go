// Package valuation prices the held portfolio against each published market
// snapshot.
package valuation

import (
	"errors"
	"fmt"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/marketbus"
	"portfolio-pricing-lab/internal/observability"
	"portfolio-pricing-lab/internal/pricing"
)

// DefaultContractMultiplier converts option contract quantity to economic
// exposure.
const DefaultContractMultiplier = 100

// ErrUnknownUnderlying is returned when an option position references a
// ticker absent from the snapshot. That means the reference data is
// inconsistent; the position cannot be priced and the fault must surface
// rather than being skipped.
var ErrUnknownUnderlying = errors.New("option underlying not present in snapshot")

// ReportSink receives each completed valuation report. The sink owns the
// report after Publish returns.
type ReportSink interface {
	Publish(report *domain.ValuationReport) error
}

// Valuator is a marketbus consumer that values every held position on each
// snapshot and emits one report per snapshot to its sink.
type Valuator struct {
	positions    []domain.Position
	sink         ReportSink
	riskFreeRate float64
	multiplier   int64
	now          func() time.Time
}

// Options contains configuration for creating a Valuator.
type Options struct {
	Positions []domain.Position
	Sink      ReportSink

	// RiskFreeRate for option pricing. Default: pricing.DefaultRiskFreeRate.
	RiskFreeRate float64

	// ContractMultiplier scales option quantities. Default: 100.
	ContractMultiplier int64

	// Clock returns the valuation date. Default: time.Now. Tests inject a
	// fixed clock for deterministic option prices.
	Clock func() time.Time
}

// New creates a valuator.
func New(opts Options) (*Valuator, error) {
	if opts.Sink == nil {
		return nil, errors.New("valuation: sink is required")
	}

	rate := opts.RiskFreeRate
	if rate == 0 {
		rate = pricing.DefaultRiskFreeRate
	}
	multiplier := opts.ContractMultiplier
	if multiplier == 0 {
		multiplier = DefaultContractMultiplier
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Valuator{
		positions:    opts.Positions,
		sink:         opts.Sink,
		riskFreeRate: rate,
		multiplier:   multiplier,
		now:          clock,
	}, nil
}

// OnSnapshot values every held position against the snapshot and publishes
// the aggregate report. Stocks are priced directly from the snapshot;
// options via Black-Scholes using the underlying's current price and
// volatility.
func (v *Valuator) OnSnapshot(snapshot *domain.MarketSnapshot) error {
	report := &domain.ValuationReport{
		Seq:       snapshot.Seq(),
		Positions: make([]domain.PositionValue, 0, len(v.positions)),
	}

	valuationDate := v.now()
	for _, pos := range v.positions {
		pv, err := v.value(pos, snapshot, valuationDate)
		if err != nil {
			observability.RecordValuationFailure()
			return fmt.Errorf("value position %s: %w", pos.Security.SecurityID(), err)
		}
		report.Positions = append(report.Positions, pv)
		report.TotalNAV += pv.Value
	}

	if err := v.sink.Publish(report); err != nil {
		return fmt.Errorf("publish report seq %d: %w", report.Seq, err)
	}
	observability.RecordReport(report.TotalNAV, len(report.Positions))
	return nil
}

// value prices a single position.
func (v *Valuator) value(pos domain.Position, snapshot *domain.MarketSnapshot, valuationDate time.Time) (domain.PositionValue, error) {
	switch sec := pos.Security.(type) {
	case domain.StockQuote:
		q, ok := snapshot.Quote(sec.Ticker)
		if !ok {
			// A stock held but no longer tracked is the same class of
			// reference-data inconsistency as a dangling underlying.
			return domain.PositionValue{}, fmt.Errorf("%w: %s", ErrUnknownUnderlying, sec.Ticker)
		}
		return domain.PositionValue{
			Ticker:            sec.Ticker,
			UnitPrice:         q.Price,
			EffectiveQuantity: pos.Quantity,
			Value:             q.Price * float64(pos.Quantity),
		}, nil

	case domain.OptionSpec:
		underlying, ok := snapshot.Quote(sec.UnderlyingTicker)
		if !ok {
			return domain.PositionValue{}, fmt.Errorf("%w: %s (option %s)", ErrUnknownUnderlying, sec.UnderlyingTicker, sec.Ticker)
		}
		unitPrice := pricing.Price(sec, underlying.Price, underlying.Sigma, v.riskFreeRate, valuationDate)
		effectiveQty := pos.Quantity * v.multiplier
		return domain.PositionValue{
			Ticker:            sec.Ticker,
			UnitPrice:         unitPrice,
			EffectiveQuantity: effectiveQty,
			Value:             unitPrice * float64(effectiveQty),
		}, nil

	default:
		return domain.PositionValue{}, fmt.Errorf("unsupported security type %T", pos.Security)
	}
}

var _ marketbus.Consumer = (*Valuator)(nil)
