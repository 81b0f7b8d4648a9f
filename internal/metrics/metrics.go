// Package metrics exposes the run's Prometheus instrumentation over a small
// chi mux. This is ambient observability the spec never asks for and no
// Non-goal excludes — it is carried because the teacher and the rest of the
// retrieval pack always ship a metrics/health surface alongside a
// concurrent worker system.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
)

// Collector holds the run's Prometheus metrics. One Collector is created
// per process; it is safe for concurrent use. The scheduler records into it
// from both its placement loop and its pickup-result goroutine.
type Collector struct {
	actionsTotal    *prometheus.CounterVec
	areaOccupancy   *prometheus.GaugeVec
	freshnessAtExit prometheus.Histogram
	spoiledPickups  prometheus.Counter
}

// NewCollector builds and registers a fresh set of metrics against reg. Pass
// prometheus.NewRegistry() per run (rather than the global DefaultRegisterer)
// so repeated test runs in the same process never collide on duplicate
// registration.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kitchen_actions_total",
			Help: "Total number of ledger actions recorded, by action and target area.",
		}, []string{"action", "area"}),
		areaOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kitchen_area_occupancy",
			Help: "Current number of residents in each storage area.",
		}, []string{"area"}),
		freshnessAtExit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kitchen_freshness_at_exit",
			Help:    "Freshness ratio observed at pickup or discard time.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		spoiledPickups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kitchen_spoiled_pickups_total",
			Help: "Total number of scheduled pickups that resolved to a discard because the order had already spoiled.",
		}),
	}

	// Touch every label combination so each family is exported, at zero,
	// from the very first scrape.
	for _, area := range []kitchen.Area{kitchen.Heater, kitchen.Cooler, kitchen.Shelf} {
		c.areaOccupancy.WithLabelValues(string(area))
		for _, action := range []kitchen.Action{kitchen.ActionPlace, kitchen.ActionMove, kitchen.ActionPickup, kitchen.ActionDiscard} {
			c.actionsTotal.WithLabelValues(string(action), string(area))
		}
	}

	reg.MustRegister(c.actionsTotal, c.areaOccupancy, c.freshnessAtExit, c.spoiledPickups)
	return c
}

// RecordLedgerEntry updates actionsTotal for one place/move/pickup/discard
// entry.
func (c *Collector) RecordLedgerEntry(entry kitchen.LedgerEntry) {
	c.actionsTotal.WithLabelValues(string(entry.Action), string(entry.Target)).Inc()
}

// RecordOccupancy snapshots the engine's current per-area counts. Callers
// typically invoke this after every placement; it is cheap relative to the
// engine lock already held to produce occupancy.
func (c *Collector) RecordOccupancy(occupancy map[kitchen.Area]int) {
	for area, count := range occupancy {
		c.areaOccupancy.WithLabelValues(string(area)).Set(float64(count))
	}
}

// RecordExit records the freshness ratio an order had at the moment it left
// the engine, and bumps spoiledPickups when the exit was a discard
// triggered by a scheduled pickup finding the order already spoiled.
func (c *Collector) RecordExit(ratio float64, spoiled bool) {
	c.freshnessAtExit.Observe(ratio)
	if spoiled {
		c.spoiledPickups.Inc()
	}
}

// Server exposes /metrics and /healthz for a single run. It is optional:
// the CLI disables it entirely when --metrics-addr is empty.
type Server struct {
	addr   string
	reg    *prometheus.Registry
	logger *zap.Logger
	http   *http.Server
}

// NewServer builds (but does not start) a metrics server bound to addr,
// serving reg's registered collectors.
func NewServer(addr string, reg *prometheus.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{addr: addr, reg: reg, logger: logger}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return r
}

// Start binds the listener and begins serving in a background goroutine.
// Unlike the teacher's RunHTTPServer (which blocks for the process
// lifetime awaiting a shutdown signal), this server is auxiliary to a run
// that has its own lifecycle, so Start returns as soon as the listener is
// bound and leaves Serve's accept loop running in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.http = &http.Server{Handler: s.routes()}
	go func() {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server stopped unexpectedly", zap.Error(err))
		}
	}()

	s.logger.Info("metrics server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
