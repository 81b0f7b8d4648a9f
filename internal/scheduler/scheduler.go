// Package scheduler drives the run timeline: it places orders at a fixed
// cadence, schedules each order's pickup at a random delay, and returns
// the finished run's sorted ledger. It corresponds to the teacher's
// controller — one struct coordinating a worker pool and a shared piece of
// mutable state through a small number of long-lived goroutines — adapted
// from dispatching arbitrary jobs to firing pickups against a kitchen
// engine.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"go.uber.org/zap"
)

// Config configures a single run.
type Config struct {
	RateMicros      int64         // interval between successive placements
	MinPickupMicros int64         // inclusive lower bound of the pickup delay window
	MaxPickupMicros int64         // exclusive upper bound of the pickup delay window
	Seed            *int64        // nil means a nondeterministic source is used
	PoolSize        int           // pickup worker count
	GracePeriod     time.Duration // bound on the post-placement wait for pickups
	Observer        Observer      // optional; nil disables instrumentation
}

// DefaultGracePeriod matches the spec's suggested post-run wait.
const DefaultGracePeriod = 60 * time.Second

func (c Config) validate() error {
	if c.RateMicros <= 0 {
		return errors.New("scheduler: RateMicros must be positive")
	}
	if c.MinPickupMicros < 0 || c.MaxPickupMicros <= c.MinPickupMicros {
		return errors.New("scheduler: pickup window must satisfy 0 <= min < max")
	}
	if c.PoolSize <= 0 {
		return errors.New("scheduler: PoolSize must be positive")
	}
	return nil
}

// Scheduler is the C4 driver: it owns no order state itself (the engine
// does) and mutates nothing but the ledger and the pickup pool.
type Scheduler struct {
	engine *kitchen.Engine
	ledger *kitchen.Ledger
	pool   *pickupPool
	config Config
	rng    *rand.Rand
	logger *zap.Logger

	pending  sync.WaitGroup
	resultWg sync.WaitGroup
}

// NewScheduler builds a scheduler bound to engine and ledger. Both are
// run-scoped; nothing here is a process-wide singleton.
func NewScheduler(engine *kitchen.Engine, ledger *kitchen.Ledger, config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var source rand.Source
	if config.Seed != nil {
		source = rand.NewSource(*config.Seed)
	} else {
		source = rand.NewSource(time.Now().UnixNano())
	}

	return &Scheduler{
		engine: engine,
		ledger: ledger,
		pool:   newPickupPool(config.PoolSize*4, logger),
		config: config,
		rng:    rand.New(source),
		logger: logger,
	}, nil
}

// Run places every order in sequence at the configured cadence, schedules
// each one's pickup, waits (bounded by GracePeriod) for pickups to settle,
// and returns the run's sorted ledger.
//
// The placement loop is the only intentionally serial part of the run: the
// next order is never placed until the previous place() call has fully
// returned, which keeps the `now` passed into the engine monotonically
// nondecreasing without any extra bookkeeping.
func (s *Scheduler) Run(ctx context.Context, orders []kitchen.Order) ([]kitchen.LedgerEntry, error) {
	if err := s.pool.Start(s.config.PoolSize, s.engine); err != nil {
		return nil, fmt.Errorf("scheduler: starting pickup pool: %w", err)
	}

	s.resultWg.Add(1)
	go s.resultLoop()

	origin := time.Now().UnixMicro()
	for i, order := range orders {
		if err := ctx.Err(); err != nil {
			s.abort()
			return nil, err
		}

		placeAt := origin + int64(i)*s.config.RateMicros
		sleepUntil(placeAt)

		entries, err := s.engine.Place(order, placeAt)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("scheduler: placing order %s: %w", order.ID, err)
		}
		s.ledger.AppendAll(entries)
		s.observe(entries)

		delay := s.drawDelay()
		pickupAt := placeAt + delay
		s.pending.Add(1)
		task := PickupTask{
			OrderID:          order.ID,
			LogicalTimestamp: pickupAt,
			Delay:            time.Duration(delay) * time.Microsecond,
		}
		if err := s.pool.Submit(task); err != nil {
			s.pending.Done()
			s.logger.Warn("failed to submit pickup task", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if !waitWithTimeout(&s.pending, s.config.GracePeriod) {
		s.logger.Warn("grace period elapsed with pickups still outstanding; abandoning them",
			zap.Duration("grace_period", s.config.GracePeriod))
	}

	s.pool.Stop()
	s.resultWg.Wait()

	return s.ledger.Sorted(), nil
}

// abort shuts the pool down immediately without waiting out the grace
// period; used when the run itself failed and there is no point letting
// scheduled pickups continue firing against a dead run.
func (s *Scheduler) abort() {
	s.pool.Stop()
	s.resultWg.Wait()
}

func (s *Scheduler) resultLoop() {
	defer s.resultWg.Done()
	for {
		result, err := s.pool.ReceiveResult()
		if err != nil {
			if errors.Is(err, ErrPoolClosed) {
				return
			}
			s.logger.Error("failed to receive pickup result", zap.Error(err))
			continue
		}
		s.handleResult(result)
	}
}

func (s *Scheduler) handleResult(result PickupResult) {
	defer s.pending.Done()

	if result.Err != nil {
		s.logger.Error("pickup failed", zap.String("order_id", result.OrderID), zap.Error(result.Err))
		return
	}
	if result.Entry == nil {
		// Order was already removed (discarded earlier, or picked up by a
		// duplicate schedule); nothing to append. Not an error.
		s.logger.Debug("pickup fired with no matching residency", zap.String("order_id", result.OrderID))
		return
	}
	s.ledger.Append(*result.Entry)
	s.observe([]kitchen.LedgerEntry{*result.Entry})
	if s.config.Observer != nil {
		s.config.Observer.RecordExit(result.Freshness.Ratio, result.Entry.Action == kitchen.ActionDiscard)
	}
}

// observe reports each entry and the engine's resulting occupancy to the
// configured Observer, a no-op when none was configured.
func (s *Scheduler) observe(entries []kitchen.LedgerEntry) {
	if s.config.Observer == nil {
		return
	}
	for _, e := range entries {
		s.config.Observer.RecordLedgerEntry(e)
	}
	s.config.Observer.RecordOccupancy(s.engine.Occupancy())
}

func (s *Scheduler) drawDelay() int64 {
	span := s.config.MaxPickupMicros - s.config.MinPickupMicros
	return s.config.MinPickupMicros + s.rng.Int63n(span)
}

// sleepUntil blocks the calling goroutine until the wall clock reaches
// targetMicros. Sleeping relative to a fixed origin (rather than sleeping
// `rate` on every iteration) avoids compounding drift from the work done
// between placements.
func sleepUntil(targetMicros int64) {
	d := time.Until(time.UnixMicro(targetMicros))
	if d > 0 {
		time.Sleep(d)
	}
}

// waitWithTimeout waits for wg to finish, returning false if timeout
// elapses first. On timeout the spawned goroutine stays blocked in
// wg.Wait until wg finishes; pickups abandoned by the pool's Stop never
// call Done, so in that case the goroutine outlives the run.
func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
