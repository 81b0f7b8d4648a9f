package kitchen

import "errors"

// ErrInvariant marks an engine invariant violation: capacity breach,
// area/temperature mismatch, or a duplicate place. These indicate a
// programming error in the caller, not a recoverable runtime condition —
// the run aborts.
var ErrInvariant = errors.New("kitchen: engine invariant violation")
