package client

import "github.com/cloudkitchen/fulfillment-runner/internal/kitchen"

// solveOptions mirrors the original ChallengeOptions DTO: the run's timing
// parameters, echoed back to the server alongside the ledger.
type solveOptions struct {
	Rate int64 `json:"rate"`
	Min  int64 `json:"min"`
	Max  int64 `json:"max"`
}

// solveAction mirrors the original ChallengeAction DTO — the wire shape of
// one kitchen.LedgerEntry.
type solveAction struct {
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
	Action    string `json:"action"`
	Target    string `json:"target"`
}

// solveRequest is the POST /solve body.
type solveRequest struct {
	Options solveOptions  `json:"options"`
	Actions []solveAction `json:"actions"`
}

// Options carries the run parameters /solve must echo back.
type Options struct {
	RateMicros      int64
	MinPickupMicros int64
	MaxPickupMicros int64
}

func toSolveRequest(opts Options, ledger []kitchen.LedgerEntry) solveRequest {
	actions := make([]solveAction, len(ledger))
	for i, e := range ledger {
		actions[i] = solveAction{
			Timestamp: e.TimestampMicros,
			ID:        e.OrderID,
			Action:    string(e.Action),
			Target:    string(e.Target),
		}
	}
	return solveRequest{
		Options: solveOptions{Rate: opts.RateMicros, Min: opts.MinPickupMicros, Max: opts.MaxPickupMicros},
		Actions: actions,
	}
}
