package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Run_PlacesAndPicksUpEveryOrder(t *testing.T) {
	engine := kitchen.NewEngine(kitchen.NewFreshnessModel())
	ledger := kitchen.NewLedger()
	seed := int64(42)

	cfg := Config{
		RateMicros:      1_000,
		MinPickupMicros: 2_000,
		MaxPickupMicros: 3_000,
		Seed:            &seed,
		PoolSize:        4,
		GracePeriod:     2 * time.Second,
	}
	s, err := NewScheduler(engine, ledger, cfg, nil)
	require.NoError(t, err)

	orders := []kitchen.Order{
		{ID: "h1", Temp: kitchen.Hot, Budget: 120},
		{ID: "c1", Temp: kitchen.Cold, Budget: 120},
		{ID: "r1", Temp: kitchen.Room, Budget: 120},
	}

	entries, err := s.Run(context.Background(), orders)
	require.NoError(t, err)

	byOrder := map[string][]kitchen.Action{}
	for _, e := range entries {
		byOrder[e.OrderID] = append(byOrder[e.OrderID], e.Action)
	}

	for _, o := range orders {
		actions := byOrder[o.ID]
		require.Lenf(t, actions, 2, "order %s should have exactly a place and a terminal action", o.ID)
		assert.Equal(t, kitchen.ActionPlace, actions[0])
		assert.Contains(t, []kitchen.Action{kitchen.ActionPickup, kitchen.ActionDiscard}, actions[1])
	}
}

func TestScheduler_Run_LedgerIsTimestampSorted(t *testing.T) {
	engine := kitchen.NewEngine(kitchen.NewFreshnessModel())
	ledger := kitchen.NewLedger()
	seed := int64(7)

	cfg := Config{
		RateMicros:      500,
		MinPickupMicros: 1_000,
		MaxPickupMicros: 1_500,
		Seed:            &seed,
		PoolSize:        2,
		GracePeriod:     2 * time.Second,
	}
	s, err := NewScheduler(engine, ledger, cfg, nil)
	require.NoError(t, err)

	orders := make([]kitchen.Order, 5)
	for i := range orders {
		orders[i] = kitchen.Order{ID: string(rune('a' + i)), Temp: kitchen.Room, Budget: 60}
	}

	entries, err := s.Run(context.Background(), orders)
	require.NoError(t, err)

	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].TimestampMicros, entries[i].TimestampMicros)
	}
}

func TestConfig_Validate_RejectsBadPickupWindow(t *testing.T) {
	cfg := Config{RateMicros: 1000, MinPickupMicros: 5000, MaxPickupMicros: 1000, PoolSize: 1}
	_, err := NewScheduler(kitchen.NewEngine(kitchen.NewFreshnessModel()), kitchen.NewLedger(), cfg, nil)
	assert.Error(t, err)
}
