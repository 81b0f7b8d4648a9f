package kitchen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshnessModel_Compute(t *testing.T) {
	model := NewFreshnessModel()
	hot := Order{ID: "h1", Temp: Hot, Budget: 120}

	cases := []struct {
		name      string
		order     Order
		area      Area
		enteredAt int64
		now       int64
		wantRatio float64
		wantSpoiled bool
	}{
		{"fresh in ideal area", hot, Heater, 0, 60_000_000, 0.5, false},
		{"fresh in non-ideal area degrades 2x", hot, Shelf, 0, 30_000_000, 0.5, false},
		{"exactly at budget is spoiled", hot, Heater, 0, 120_000_000, 0, true},
		{"past budget clamps to zero", hot, Heater, 0, 999_000_000, 0, true},
		{"sub-second age truncates to zero", hot, Heater, 0, 999_999, 1, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := model.Compute(c.order, c.area, c.enteredAt, c.now)
			assert.InDelta(t, c.wantRatio, got.Ratio, 1e-9)
			assert.Equal(t, c.wantSpoiled, got.Spoiled)
		})
	}
}

func TestFreshnessModel_RemainingSecondsCanGoNegative(t *testing.T) {
	model := NewFreshnessModel()
	order := Order{ID: "r1", Temp: Room, Budget: 5}

	got := model.Compute(order, Shelf, 0, 10_000_000)
	require.True(t, got.Spoiled)
	assert.Equal(t, -5.0, got.RemainingSeconds)
}

func TestFreshnessModel_CustomTruncationUnit(t *testing.T) {
	// Default (whole-second) resolution would truncate 5.3s down to 5s;
	// a tenth-second resolution keeps the extra 0.3s of accrued age.
	defaultModel := NewFreshnessModel()
	fineModel := FreshnessModel{TruncationMicros: 100_000}
	order := Order{ID: "c1", Temp: Cold, Budget: 10}

	coarse := defaultModel.Compute(order, Cooler, 0, 5_300_000)
	fine := fineModel.Compute(order, Cooler, 0, 5_300_000)

	assert.InDelta(t, 0.5, coarse.Ratio, 1e-9)
	assert.InDelta(t, 0.47, fine.Ratio, 1e-9)
}
