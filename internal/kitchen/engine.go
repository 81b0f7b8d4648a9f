package kitchen

import (
	"fmt"
	"sync"
)

// Engine owns the three bounded storage areas and enforces their capacity
// and temperature-compatibility invariants. It exposes place/pickup/move/
// discard as atomic operations, each serialized against all the others by
// a single exclusive lock; none of them write the ledger themselves — the
// caller (the scheduler) does, from the entries each call returns.
type Engine struct {
	mu          sync.Mutex
	freshness   FreshnessModel
	index       *EvictionIndex
	residencies map[string]*Residency // order-id -> residency; sole source of truth
}

// NewEngine returns an empty engine using the given freshness model.
func NewEngine(model FreshnessModel) *Engine {
	return &Engine{
		freshness:   model,
		index:       NewEvictionIndex(),
		residencies: make(map[string]*Residency),
	}
}

func (e *Engine) hasRoom(area Area) bool {
	return e.index.Count(area) < capacityOf(area)
}

// addLocked inserts order into area as a new residency entered at `now`.
// Caller must hold e.mu and must have already verified capacity and
// temperature compatibility.
func (e *Engine) addLocked(order Order, area Area, now int64) *Residency {
	r := &Residency{Order: order, Area: area, EnteredAt: now}
	e.residencies[order.ID] = r
	e.index.Insert(r)
	return r
}

func (e *Engine) removeLocked(orderID string, area Area) {
	delete(e.residencies, orderID)
	e.index.Remove(area, orderID)
}

// Place runs the five-branch placement decision procedure for order at
// time now and returns the one or two ledger entries it produced (a
// discard-then-place or move-then-place pair share `now` and are returned
// in the order they must appear on a tied sort).
//
// Precondition: order.ID is not currently resident; violating it is an
// engine invariant error, not a recoverable condition.
func (e *Engine) Place(order Order, now int64) ([]LedgerEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.residencies[order.ID]; exists {
		return nil, fmt.Errorf("%w: order %s is already resident", ErrInvariant, order.ID)
	}

	ideal := order.IdealArea()

	// Branch 1: ideal area has room.
	if e.hasRoom(ideal) {
		e.addLocked(order, ideal, now)
		return []LedgerEntry{{TimestampMicros: now, OrderID: order.ID, Action: ActionPlace, Target: ideal}}, nil
	}

	// Branch 2: room-tempered order, shelf (its ideal) is full.
	if order.Temp == Room {
		victim, ok := e.index.LeastFreshOnShelf(e.freshness, now)
		if !ok {
			return nil, fmt.Errorf("%w: shelf full and empty while placing %s", ErrInvariant, order.ID)
		}
		e.removeLocked(victim.Order.ID, Shelf)
		e.addLocked(order, Shelf, now)
		return []LedgerEntry{
			{TimestampMicros: now, OrderID: victim.Order.ID, Action: ActionDiscard, Target: Shelf},
			{TimestampMicros: now, OrderID: order.ID, Action: ActionPlace, Target: Shelf},
		}, nil
	}

	// Branch 3: hot/cold order, ideal full, shelf has room.
	if e.hasRoom(Shelf) {
		e.addLocked(order, Shelf, now)
		return []LedgerEntry{{TimestampMicros: now, OrderID: order.ID, Action: ActionPlace, Target: Shelf}}, nil
	}

	// Branch 4: shelf also full. Only viable when the ideal area has
	// freed a slot and a shelf resident matching that ideal area exists.
	// Under the single engine-wide lock nothing can have changed ideal's
	// occupancy since the branch-1 check above failed in this same call,
	// so in practice this branch never fires — it is kept because the
	// decision procedure names it explicitly and a future relaxation of
	// the locking model (see the scheduler's concurrency notes) could
	// make it reachable again.
	if e.hasRoom(ideal) {
		if candidate, ok := e.index.ShelfCandidateFor(ideal, e.freshness, now); ok {
			e.removeLocked(candidate.Order.ID, Shelf)
			candidate.Area = ideal
			e.index.Insert(candidate)
			e.residencies[candidate.Order.ID] = candidate

			e.addLocked(order, Shelf, now)
			return []LedgerEntry{
				{TimestampMicros: now, OrderID: candidate.Order.ID, Action: ActionMove, Target: ideal},
				{TimestampMicros: now, OrderID: order.ID, Action: ActionPlace, Target: Shelf},
			}, nil
		}
	}

	// Branch 5: shelf full, no movable resident — evict the least fresh.
	victim, ok := e.index.LeastFreshOnShelf(e.freshness, now)
	if !ok {
		return nil, fmt.Errorf("%w: shelf full and empty while placing %s", ErrInvariant, order.ID)
	}
	e.removeLocked(victim.Order.ID, Shelf)
	e.addLocked(order, Shelf, now)
	return []LedgerEntry{
		{TimestampMicros: now, OrderID: victim.Order.ID, Action: ActionDiscard, Target: Shelf},
		{TimestampMicros: now, OrderID: order.ID, Action: ActionPlace, Target: Shelf},
	}, nil
}

// Pickup removes orderID's residency if still present. A missing order is
// not an error: it returns (nil, Freshness{}, nil) and the scheduler simply
// continues. A resident whose freshness has reached zero or below is
// discarded instead of picked up. The Freshness return carries the ratio
// observed at exit, for callers (metrics) that want it; it is zero-value
// when there was no residency to remove.
func (e *Engine) Pickup(orderID string, now int64) (*LedgerEntry, Freshness, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.residencies[orderID]
	if !ok {
		return nil, Freshness{}, nil
	}

	fresh := e.freshness.Compute(r.Order, r.Area, r.EnteredAt, now)
	e.removeLocked(orderID, r.Area)

	action := ActionPickup
	if fresh.Spoiled {
		action = ActionDiscard
	}
	return &LedgerEntry{TimestampMicros: now, OrderID: orderID, Action: action, Target: r.Area}, fresh, nil
}

// Move relocates orderID from its current area to target, preserving its
// original entered-at timestamp — freshness keeps accruing from the
// original entry point, only the degradation rate changes. Exposed for
// direct tests and potential future callers; Place's own branch 4 applies
// the same logic inline under its already-held lock rather than calling
// through this method (sync.Mutex is not reentrant).
func (e *Engine) Move(orderID string, target Area, now int64) (*LedgerEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.residencies[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s has no residency to move", ErrInvariant, orderID)
	}
	if !e.hasRoom(target) {
		return nil, fmt.Errorf("%w: target area %s has no room for %s", ErrInvariant, target, orderID)
	}
	if (target == Heater && r.Order.Temp != Hot) || (target == Cooler && r.Order.Temp != Cold) {
		return nil, fmt.Errorf("%w: order %s (%s) cannot move into %s", ErrInvariant, orderID, r.Order.Temp, target)
	}

	e.index.Remove(r.Area, orderID)
	r.Area = target
	e.index.Insert(r)

	return &LedgerEntry{TimestampMicros: now, OrderID: orderID, Action: ActionMove, Target: target}, nil
}

// Discard removes orderID's residency unconditionally. Exposed for direct
// tests; Place's branches 2 and 5 inline the same removal under their
// already-held lock.
func (e *Engine) Discard(orderID string, now int64) (*LedgerEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.residencies[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s has no residency to discard", ErrInvariant, orderID)
	}
	e.removeLocked(orderID, r.Area)
	return &LedgerEntry{TimestampMicros: now, OrderID: orderID, Action: ActionDiscard, Target: r.Area}, nil
}

// Occupancy returns a snapshot of each area's current resident count. Used
// for logging/metrics; acquires the same lock the mutating operations use.
func (e *Engine) Occupancy() map[Area]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return map[Area]int{
		Heater: e.index.Count(Heater),
		Cooler: e.index.Count(Cooler),
		Shelf:  e.index.Count(Shelf),
	}
}
