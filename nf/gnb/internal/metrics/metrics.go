// Package metrics exposes the gNB scheduler core's Prometheus metrics,
// following the rest of the pack's promauto-registered-at-package-load
// convention (common/metrics/metrics.go).
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/your-org/5g-network/internal/sched/harq"
)

var (
	SlotDeadlineMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_sched_slot_deadline_misses_total",
			Help: "Total number of slot ticks whose scheduling pass missed its deadline",
		},
		[]string{"cell"},
	)

	DLGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_sched_dl_grants_total",
			Help: "Total number of downlink grants issued",
		},
		[]string{"cell"},
	)

	ULGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_sched_ul_grants_total",
			Help: "Total number of uplink grants issued",
		},
		[]string{"cell"},
	)

	SkippedUEsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_sched_skipped_ues_total",
			Help: "Total number of UE grant attempts skipped due to resource exhaustion",
		},
		[]string{"cell"},
	)

	HARQOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_sched_harq_outcomes_total",
			Help: "HARQ process outcomes by direction and result",
		},
		[]string{"cell", "direction", "outcome"},
	)

	ActiveUEs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gnb_sched_active_ues",
			Help: "Number of UE contexts currently registered with the scheduler",
		},
		[]string{"cell"},
	)

	MobilityProcedures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_mobility_procedures_total",
			Help: "Mobility controller procedure outcomes",
		},
		[]string{"kind", "outcome"},
	)
)

// DeadlineMissCounter implements cell.DeadlineMissCounter, bridging the
// scheduler core's narrow capability interface to this package's
// Prometheus vector.
type DeadlineMissCounter struct {
	CellLabel string
}

// IncSlotDeadlineMiss implements cell.DeadlineMissCounter.
func (d DeadlineMissCounter) IncSlotDeadlineMiss() {
	SlotDeadlineMisses.WithLabelValues(d.CellLabel).Inc()
}

// HARQOutcomeCounter implements cell.HARQOutcomeObserver, bridging the
// scheduler core's narrow capability interface to this package's
// Prometheus vector.
type HARQOutcomeCounter struct {
	CellLabel string
}

// ObserveHARQOutcome implements cell.HARQOutcomeObserver.
func (h HARQOutcomeCounter) ObserveHARQOutcome(direction string, outcome harq.Outcome) {
	HARQOutcomes.WithLabelValues(h.CellLabel, direction, outcome.String()).Inc()
}

// Server is a standalone Prometheus metrics HTTP endpoint, separate
// from the gNB's control-plane SBI surface so that a scrape outage
// never affects the slot-synchronous scheduling loop.
type Server struct {
	port   int
	server *http.Server
	logger *zap.Logger
}

// NewServer constructs a metrics server bound to port.
func NewServer(port int, logger *zap.Logger) *Server {
	return &Server{port: port, logger: logger}
}

// Start runs the metrics HTTP server until Stop is called or it fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info("starting metrics server", zap.Int("port", s.port))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the metrics server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
