package scheduler

import (
	"time"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
)

// PickupTask is a scheduled pickup awaiting its fire time. Delay is a
// real-time wait; LogicalTimestamp is the microsecond timestamp the
// resulting ledger entry must carry — the pickup's logical instant, not
// whatever real time the goroutine happened to be scheduled at.
type PickupTask struct {
	OrderID          string
	LogicalTimestamp int64
	Delay            time.Duration
}

// PickupResult is what a pickup worker reports back after a task fires.
// Entry is nil when the order had already been removed (discarded or
// picked up earlier) — that is not an error, just nothing to append.
type PickupResult struct {
	OrderID   string
	Entry     *kitchen.LedgerEntry
	Freshness kitchen.Freshness
	Err       error
}

// Observer receives a callback for every ledger entry and occupancy
// snapshot the run produces. It is an optional, structurally-typed seam —
// metrics.Collector satisfies it without this package importing metrics —
// so a caller that doesn't care about instrumentation can simply leave it
// nil.
type Observer interface {
	RecordLedgerEntry(kitchen.LedgerEntry)
	RecordOccupancy(map[kitchen.Area]int)
	RecordExit(ratio float64, spoiled bool)
}
