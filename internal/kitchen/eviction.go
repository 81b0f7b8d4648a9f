package kitchen

// EvictionIndex maintains, per storage area, the set of currently resident
// orders and answers the two priority queries the placement decision needs:
// the least-fresh shelf resident, and the least-fresh shelf resident whose
// ideal area matches a given target.
//
// Because the priority key (freshness) depends on `now` and on whether the
// order currently sits in its ideal area, a priority queue keyed at
// insertion time would drift out of date. Per-area occupancy is bounded by
// twelve, so this index recomputes the key by scanning the area at decision
// time instead of maintaining a heap — simpler, and the bound on capacity
// makes the scan trivially cheap.
//
// The index holds no lock of its own: it is a lookup convenience over
// residencies the storage engine owns, and it is only ever consulted from
// inside the engine's own critical section.
type EvictionIndex struct {
	residents map[Area]map[string]*Residency
}

// NewEvictionIndex returns an empty index with all three areas initialized.
func NewEvictionIndex() *EvictionIndex {
	return &EvictionIndex{
		residents: map[Area]map[string]*Residency{
			Heater: make(map[string]*Residency),
			Cooler: make(map[string]*Residency),
			Shelf:  make(map[string]*Residency),
		},
	}
}

// Insert records a residency under its current area.
func (idx *EvictionIndex) Insert(r *Residency) {
	idx.residents[r.Area][r.Order.ID] = r
}

// Remove drops the residency for orderID out of area. A no-op if absent.
func (idx *EvictionIndex) Remove(area Area, orderID string) {
	delete(idx.residents[area], orderID)
}

// Count returns the current number of residents in area.
func (idx *EvictionIndex) Count(area Area) int {
	return len(idx.residents[area])
}

// leastFresh scans the given area's residents and returns the one with the
// minimum freshness ratio at now, ties broken by earliest entered-at then
// lexicographically by order ID. Returns false if the area is empty.
func (idx *EvictionIndex) leastFresh(area Area, model FreshnessModel, now int64) (*Residency, bool) {
	var best *Residency
	var bestRatio float64

	for _, r := range idx.residents[area] {
		ratio := model.Compute(r.Order, r.Area, r.EnteredAt, now).Ratio
		if best == nil || isWorse(r, ratio, best, bestRatio) {
			best = r
			bestRatio = ratio
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func isWorse(candidate *Residency, candidateRatio float64, current *Residency, currentRatio float64) bool {
	if candidateRatio != currentRatio {
		return candidateRatio < currentRatio
	}
	if candidate.EnteredAt != current.EnteredAt {
		return candidate.EnteredAt < current.EnteredAt
	}
	return candidate.Order.ID < current.Order.ID
}

// LeastFreshOnShelf returns the shelf residency with the minimum freshness
// ratio at now. Returns false if the shelf is empty.
func (idx *EvictionIndex) LeastFreshOnShelf(model FreshnessModel, now int64) (*Residency, bool) {
	return idx.leastFresh(Shelf, model, now)
}

// ShelfCandidateFor returns the least-fresh shelf resident whose ideal area
// equals target. Returns false if no shelf resident has that ideal area.
func (idx *EvictionIndex) ShelfCandidateFor(target Area, model FreshnessModel, now int64) (*Residency, bool) {
	var best *Residency
	var bestRatio float64

	for _, r := range idx.residents[Shelf] {
		if idealArea(r.Order.Temp) != target {
			continue
		}
		ratio := model.Compute(r.Order, r.Area, r.EnteredAt, now).Ratio
		if best == nil || isWorse(r, ratio, best, bestRatio) {
			best = r
			bestRatio = ratio
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
