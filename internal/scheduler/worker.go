package scheduler

import (
	"context"
	"time"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"go.uber.org/zap"
)

// pickupWorker is one goroutine of the pickup pool. Each worker loops over
// its shared task channel, waits out a task's delay, then asks the engine
// to resolve the pickup at the task's logical timestamp.
//
// The wait is expressed as a context timeout the way the teacher's worker
// bounds task execution — but here expiry isn't a cancellation signal, it
// is the trigger: a pickup task's whole "work" is sleeping until its fire
// time, then making one Pickup call. stopCh lets the pool abandon a
// worker's current wait (and its remaining queued tasks) once the run's
// grace period elapses, rather than letting every buffered pickup run to
// completion before Stop returns.
type pickupWorker struct {
	id       int
	taskCh   <-chan PickupTask
	resultCh chan<- PickupResult
	stopCh   <-chan struct{}
	engine   *kitchen.Engine
	logger   *zap.Logger
}

func newPickupWorker(id int, taskCh <-chan PickupTask, resultCh chan<- PickupResult, stopCh <-chan struct{}, engine *kitchen.Engine, logger *zap.Logger) *pickupWorker {
	return &pickupWorker{id: id, taskCh: taskCh, resultCh: resultCh, stopCh: stopCh, engine: engine, logger: logger}
}

// Run takes tasks from taskCh until stopCh fires (or taskCh is closed),
// firing each pickup after its delay elapses.
func (w *pickupWorker) Run() {
	for {
		select {
		case <-w.stopCh:
			return
		case task, ok := <-w.taskCh:
			if !ok {
				return
			}
			if !w.wait(task.Delay) {
				return
			}
			entry, fresh, err := w.engine.Pickup(task.OrderID, task.LogicalTimestamp)
			result := PickupResult{OrderID: task.OrderID, Entry: entry, Freshness: fresh, Err: err}

			select {
			case w.resultCh <- result:
			case <-w.stopCh:
				// Pool is shutting down and the result consumer may have
				// already stopped draining resultCh. Blocking here could
				// deadlock Stop's wg.Wait, so the result is dropped — but
				// unlike a bare default case, this only fires once we know
				// the pool is stopping, and it's logged rather than silent.
				w.logger.Warn("dropping completed pickup result: pool is shutting down",
					zap.String("order_id", task.OrderID))
			}
		}
	}
}

// wait blocks for delay, returning false if stopCh fires first.
func (w *pickupWorker) wait(delay time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), delay)
	defer cancel()
	select {
	case <-ctx.Done():
		return true
	case <-w.stopCh:
		return false
	}
}
