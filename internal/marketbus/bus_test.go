package marketbus

import (
	"context"
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"testing"
	"time"

	"portfolio-pricing-lab/internal/domain"
	"portfolio-pricing-lab/internal/evolve"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testEvolver(seed int64) *evolve.Evolver {
	return evolve.NewEvolver(evolve.DefaultParams(), rand.New(rand.NewSource(seed)))
}

func initialSnapshot() *domain.MarketSnapshot {
	return domain.NewMarketSnapshot(0, map[string]domain.StockQuote{
		"AAPL": {Ticker: "AAPL", CompanyName: "Apple Inc", Price: 150.0, Mu: 0.1, Sigma: 0.3},
		"TSLA": {Ticker: "TSLA", CompanyName: "Tesla Inc", Price: 250.0, Mu: 0.2, Sigma: 0.6},
	})
}

// collector records every delivered snapshot and signals when it has seen
// enough of them.
type collector struct {
	mu     sync.Mutex
	seqs   []uint64
	enough chan struct{}
	want   int
}

func newCollector(want int) *collector {
	return &collector{enough: make(chan struct{}), want: want}
}

func (c *collector) OnSnapshot(snap *domain.MarketSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs = append(c.seqs, snap.Seq())
	if len(c.seqs) == c.want {
		close(c.enough)
	}
	return nil
}

func (c *collector) sequences() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, len(c.seqs))
	copy(out, c.seqs)
	return out
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.enough:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %d snapshots, got %d", c.want, len(c.sequences()))
	}
}

func TestBus_SequenceStrictlyIncreasingNoGaps(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(1),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	col := newCollector(50)
	if err := bus.Subscribe(col); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()

	col.wait(t)
	cancel()
	<-done

	seqs := col.sequences()
	if seqs[0] != 1 {
		t.Errorf("first delivered seq = %d, want 1", seqs[0])
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] != seqs[i-1]+1 {
			t.Fatalf("sequence gap or duplicate at index %d: %d after %d", i, seqs[i], seqs[i-1])
		}
	}
}

func TestBus_NoSnapshotAfterCancellation(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(2),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	col := newCollector(10)
	bus.Subscribe(col)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()

	col.wait(t)
	cancel()

	runErr := <-done
	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", runErr)
	}

	// The loop has exited; nothing may be published anymore.
	lastSeq := bus.Snapshot().Seq()
	lastDelivered := len(col.sequences())
	time.Sleep(20 * time.Millisecond)

	if got := bus.Snapshot().Seq(); got != lastSeq {
		t.Errorf("snapshot published after cancellation: seq %d -> %d", lastSeq, got)
	}
	if got := len(col.sequences()); got != lastDelivered {
		t.Errorf("consumer notified after cancellation: %d -> %d deliveries", lastDelivered, got)
	}
}

func TestBus_FailingConsumerDoesNotStopOthers(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(3),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	failing := consumerFunc(func(*domain.MarketSnapshot) error {
		return errors.New("boom")
	})
	panicking := consumerFunc(func(*domain.MarketSnapshot) error {
		panic("boom")
	})
	col := newCollector(20)

	// Faulty consumers registered first: the healthy one must still see
	// every snapshot, in order.
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(col)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()

	col.wait(t)
	cancel()
	<-done

	seqs := col.sequences()
	for i := 1; i < len(seqs); i++ {
		if seqs[i] != seqs[i-1]+1 {
			t.Fatalf("healthy consumer missed a snapshot: %d after %d", seqs[i], seqs[i-1])
		}
	}
}

func TestBus_SnapshotImmutableAcrossTicks(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(4),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	type seen struct {
		snap  *domain.MarketSnapshot
		price float64
	}
	var (
		mu   sync.Mutex
		held []seen
	)
	col := newCollector(10)
	bus.Subscribe(consumerFunc(func(s *domain.MarketSnapshot) error {
		q, _ := s.Quote("AAPL")
		mu.Lock()
		held = append(held, seen{snap: s, price: q.Price})
		mu.Unlock()
		return nil
	}))
	bus.Subscribe(col)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()
	col.wait(t)
	cancel()
	<-done

	// Earlier snapshots must still read the same values they were
	// published with.
	mu.Lock()
	defer mu.Unlock()
	for i, h := range held {
		q, _ := h.snap.Quote("AAPL")
		if q.Price != h.price {
			t.Errorf("snapshot %d mutated after publish: %f != %f", i, q.Price, h.price)
		}
	}
}

func TestBus_SubscribeWhileRunningRejected(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(5),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(done)
	}()

	// Wait until the loop is marked running.
	deadline := time.Now().Add(time.Second)
	for {
		if err := bus.Subscribe(newCollector(1)); err != nil {
			if !errors.Is(err, ErrSubscribeWhileRunning) {
				t.Fatalf("unexpected error: %v", err)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("bus never reported running")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}

func TestBus_SecondRunRejected(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:  testEvolver(6),
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	// Wait until the loop is marked running before the second Run attempt,
	// otherwise this call would become the running loop itself.
	deadline := time.Now().Add(time.Second)
	for bus.Subscribe(newCollector(1)) == nil {
		if time.Now().After(deadline) {
			t.Fatal("bus never reported running")
		}
		time.Sleep(time.Millisecond)
	}

	if err := bus.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Run returned %v, want ErrAlreadyRunning", err)
	}
}

func TestNew_RequiresEvolverAndSnapshot(t *testing.T) {
	if _, err := New(initialSnapshot(), Options{}); err == nil {
		t.Error("expected error for missing evolver")
	}
	if _, err := New(nil, Options{Evolver: testEvolver(7)}); err == nil {
		t.Error("expected error for missing initial snapshot")
	}
}

func TestBus_JitteredWaitStaysInBounds(t *testing.T) {
	bus, err := New(initialSnapshot(), Options{
		Evolver:    testEvolver(8),
		Interval:   10 * time.Millisecond,
		Jitter:     5 * time.Millisecond,
		JitterSeed: 99,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 1000; i++ {
		w := bus.nextWait()
		if w < 10*time.Millisecond || w > 15*time.Millisecond {
			t.Fatalf("wait %v outside [10ms, 15ms]", w)
		}
	}
}

// consumerFunc adapts a function to the Consumer interface.
type consumerFunc func(*domain.MarketSnapshot) error

func (f consumerFunc) OnSnapshot(s *domain.MarketSnapshot) error { return f(s) }
