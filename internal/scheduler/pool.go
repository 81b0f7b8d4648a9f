package scheduler

import (
	"errors"
	"sync"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"go.uber.org/zap"
)

var (
	// ErrPoolClosed means the pool has been stopped and no longer accepts
	// tasks or yields results.
	ErrPoolClosed = errors.New("scheduler: pickup pool is closed")
	// ErrPoolNotStarted means Submit was called before Start.
	ErrPoolNotStarted = errors.New("scheduler: pickup pool not started")
)

// pickupPool runs a fixed set of pickupWorker goroutines that fire
// scheduled pickups against a shared engine. Pickups never block each
// other; they only ever serialize on the engine's own lock.
type pickupPool struct {
	workers  []*pickupWorker
	taskCh   chan PickupTask
	resultCh chan PickupResult
	stopCh   chan struct{}
	wg       sync.WaitGroup
	started  bool
	stopped  bool
	mu       sync.Mutex
	logger   *zap.Logger
}

func newPickupPool(bufferSize int, logger *zap.Logger) *pickupPool {
	return &pickupPool{
		taskCh:   make(chan PickupTask, bufferSize),
		resultCh: make(chan PickupResult, bufferSize),
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start launches workerCount pickup workers against engine.
func (p *pickupPool) Start(workerCount int, engine *kitchen.Engine) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("scheduler: pickup pool already started")
	}

	for i := 0; i < workerCount; i++ {
		w := newPickupWorker(i, p.taskCh, p.resultCh, p.stopCh, engine, p.logger)
		p.workers = append(p.workers, w)

		p.wg.Add(1)
		go func(w *pickupWorker) {
			defer p.wg.Done()
			w.Run()
		}(w)
	}

	p.started = true
	return nil
}

// Submit enqueues a pickup task. Races with Stop are resolved the same way
// the teacher's worker pool resolves them: Submit double-checks stopCh in
// a select alongside the send, so a Stop that wins the race is observed as
// ErrPoolClosed rather than a send on a closed channel.
func (p *pickupPool) Submit(task PickupTask) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrPoolNotStarted
	}
	if p.stopped {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	taskCh := p.taskCh
	stopCh := p.stopCh
	p.mu.Unlock()

	select {
	case taskCh <- task:
		return nil
	case <-stopCh:
		return ErrPoolClosed
	}
}

// ReceiveResult blocks for the next fired pickup, or returns ErrPoolClosed
// once the pool has been stopped. Results still buffered when Stop is
// called may be left unread.
func (p *pickupPool) ReceiveResult() (PickupResult, error) {
	select {
	case result, ok := <-p.resultCh:
		if !ok {
			return PickupResult{}, ErrPoolClosed
		}
		return result, nil
	case <-p.stopCh:
		return PickupResult{}, ErrPoolClosed
	}
}

// Stop closes stopCh, which makes every worker abandon its current wait and
// any tasks still queued, waits for all workers to exit, then closes the
// result channel. The task channel is left open, so a Submit racing with
// Stop never sends on a closed channel.
func (p *pickupPool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	close(p.resultCh)
}
