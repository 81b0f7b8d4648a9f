package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
)

func TestNewCollector_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)
	require.NotNil(t, collector)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"kitchen_actions_total",
		"kitchen_area_occupancy",
		"kitchen_freshness_at_exit",
		"kitchen_spoiled_pickups_total",
	} {
		assert.True(t, names[want], "expected metric %s to be registered", want)
	}
}

func TestCollector_RecordLedgerEntry_IncrementsByActionAndArea(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	collector.RecordLedgerEntry(kitchen.LedgerEntry{Action: kitchen.ActionPlace, Target: kitchen.Heater})
	collector.RecordLedgerEntry(kitchen.LedgerEntry{Action: kitchen.ActionPlace, Target: kitchen.Heater})
	collector.RecordLedgerEntry(kitchen.LedgerEntry{Action: kitchen.ActionDiscard, Target: kitchen.Shelf})

	assert.Equal(t, float64(2), counterValue(t, collector.actionsTotal.WithLabelValues("place", "heater")))
	assert.Equal(t, float64(1), counterValue(t, collector.actionsTotal.WithLabelValues("discard", "shelf")))
}

func TestCollector_RecordOccupancy_SetsGaugePerArea(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	collector.RecordOccupancy(map[kitchen.Area]int{kitchen.Heater: 3, kitchen.Shelf: 12})

	assert.Equal(t, float64(3), gaugeValue(t, collector.areaOccupancy.WithLabelValues("heater")))
	assert.Equal(t, float64(12), gaugeValue(t, collector.areaOccupancy.WithLabelValues("shelf")))
}

func TestCollector_RecordExit_CountsSpoiledPickupsSeparately(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	collector.RecordExit(0.8, false)
	collector.RecordExit(0.0, true)

	assert.Equal(t, float64(1), counterValue(t, collector.spoiledPickups))
}

func TestServer_HealthzAndMetricsEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	s := NewServer("unused:0", reg, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartAndStop(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	s := NewServer("127.0.0.1:0", reg, nil)

	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
