// Package testcase persists and reloads the test-case file format used by
// --save-test/--load-test/replay: a snapshot of the orders and timing
// parameters fetched from the challenge server, plus the result of
// submitting (or re-submitting) them.
package testcase

import "github.com/cloudkitchen/fulfillment-runner/internal/kitchen"

// File is the JSON document written by --save-test and read back by
// --load-test/replay. Field names match spec §6 exactly; unknown fields are
// ignored on read because encoding/json already does that for unrecognized
// keys.
type File struct {
	TestID          string          `json:"testId"`
	Orders          []kitchen.Order `json:"orders"`
	RateMicros      int64           `json:"rateMicros"`
	MinPickupMicros int64           `json:"minPickupMicros"`
	MaxPickupMicros int64           `json:"maxPickupMicros"`
	Seed            *int64          `json:"seed,omitempty"`
	Result          string          `json:"result,omitempty"`
	Timestamp       int64           `json:"timestamp,omitempty"`
	RerunTimestamp  int64           `json:"rerun_timestamp,omitempty"`
}
