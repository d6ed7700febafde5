// Package marketbus owns the current market snapshot and drives its
// evolution on a fixed or jittered cadence.
package marketbus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/evolve"
	"portfolio-pricing-lab/internal/observability"
)

// DefaultTickInterval is the cadence between market updates.
const DefaultTickInterval = 1 * time.Second

// ErrAlreadyRunning is returned when Run is called on a bus that is running.
var ErrAlreadyRunning = errors.New("market bus already running")

// ErrSubscribeWhileRunning is returned when Subscribe is called after Run.
// The notification order contract only covers consumers registered before
// the loop starts.
var ErrSubscribeWhileRunning = errors.New("cannot subscribe while bus is running")

// Consumer receives every published snapshot, synchronously, in subscription
// order, from the bus goroutine. Implementations must not block for long or
// they delay the next tick.
type Consumer interface {
	OnSnapshot(snapshot *domain.MarketSnapshot) error
}

// Bus evolves every tracked stock once per tick and publishes the resulting
// immutable snapshot. Publication is an atomic pointer swap: readers observe
// either the fully-old or fully-new snapshot, never a mixture.
type Bus struct {
	evolver   *evolve.Evolver
	interval  time.Duration
	jitter    time.Duration
	jitterRng *rand.Rand
	logger    *log.Logger

	current atomic.Pointer[domain.MarketSnapshot]

	mu        sync.Mutex
	consumers []Consumer
	running   bool
}

// Options contains configuration for creating a Bus.
type Options struct {
	// Evolver advances quotes each tick. Required. Its random source is
	// owned by the bus goroutine and must not be shared.
	Evolver *evolve.Evolver

	// Interval between ticks. Default: DefaultTickInterval.
	Interval time.Duration

	// Jitter, when positive, randomizes each wait uniformly within
	// [Interval, Interval+Jitter].
	Jitter time.Duration

	// JitterSeed seeds the interval randomizer. Only used when Jitter > 0;
	// zero means seed from the current time.
	JitterSeed int64

	Logger *log.Logger
}

// New creates a bus holding initial as snapshot zero. The initial snapshot is
// published immediately so readers and late wiring see a consistent state
// before the first tick.
func New(initial *domain.MarketSnapshot, opts Options) (*Bus, error) {
	if opts.Evolver == nil {
		return nil, errors.New("marketbus: evolver is required")
	}
	if initial == nil {
		return nil, errors.New("marketbus: initial snapshot is required")
	}

	interval := opts.Interval
	if interval == 0 {
		interval = DefaultTickInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	b := &Bus{
		evolver:  opts.Evolver,
		interval: interval,
		jitter:   opts.Jitter,
		logger:   logger,
	}
	if opts.Jitter > 0 {
		seed := opts.JitterSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		b.jitterRng = rand.New(rand.NewSource(seed))
	}
	b.current.Store(initial)
	return b, nil
}

// Subscribe registers a consumer to receive every future snapshot, in
// registration order. Must be called before Run.
func (b *Bus) Subscribe(c Consumer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrSubscribeWhileRunning
	}
	b.consumers = append(b.consumers, c)
	return nil
}

// Snapshot returns the most recently published snapshot. Safe to call from
// any goroutine.
func (b *Bus) Snapshot() *domain.MarketSnapshot {
	return b.current.Load()
}

// Run drives the tick loop until ctx is cancelled. It blocks, so callers
// start it in its own goroutine. Cancellation is cooperative: the loop checks
// ctx once per inter-tick wait and exits without publishing a partial tick.
func (b *Bus) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	consumers := b.consumers
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.logger.Printf("Market bus started: %d stocks, %d consumers, interval %v",
		b.current.Load().Len(), len(consumers), b.interval)

	timer := time.NewTimer(b.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Printf("Market bus stopping at seq %d", b.current.Load().Seq())
			return ctx.Err()
		case <-timer.C:
			start := time.Now()
			snap := b.tick()
			b.notify(consumers, snap)
			observability.RecordTick(snap.Seq(), snap.Len(), time.Since(start).Seconds())
			timer.Reset(b.nextWait())
		}
	}
}

// tick evolves every quote with a fresh independent draw and atomically
// publishes the resulting snapshot.
func (b *Bus) tick() *domain.MarketSnapshot {
	prev := b.current.Load()

	next := make(map[string]domain.StockQuote, prev.Len())
	// Sorted iteration keeps draw consumption deterministic for a seeded
	// source, so a run is reproducible.
	for _, ticker := range prev.Tickers() {
		q, _ := prev.Quote(ticker)
		next[ticker] = b.evolver.Next(q)
	}

	snap := domain.NewMarketSnapshot(prev.Seq()+1, next)
	b.current.Store(snap)
	return snap
}

// notify invokes every consumer in subscription order. A consumer failing or
// panicking is logged and counted; remaining consumers are still notified and
// the loop keeps ticking.
func (b *Bus) notify(consumers []Consumer, snap *domain.MarketSnapshot) {
	for i, c := range consumers {
		if err := b.notifyOne(c, snap); err != nil {
			b.logger.Printf("Consumer %d failed on seq %d: %v", i, snap.Seq(), err)
		}
	}
}

func (b *Bus) notifyOne(c Consumer, snap *domain.MarketSnapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordConsumerError("panic")
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()

	if err := c.OnSnapshot(snap); err != nil {
		observability.RecordConsumerError("error")
		return err
	}
	return nil
}

// nextWait returns the next inter-tick wait, jittered when configured.
func (b *Bus) nextWait() time.Duration {
	if b.jitterRng == nil {
		return b.interval
	}
	return b.interval + time.Duration(b.jitterRng.Int63n(int64(b.jitter)+1))
}
