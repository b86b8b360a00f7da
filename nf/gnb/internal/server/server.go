// Package server wires the gNB scheduler core (internal/sched/cell,
// internal/sched/mobility) into a runnable network function: a
// slot-tick driver goroutine plus a chi-routed HTTP surface for health,
// status, and the simulated lower-PHY event injection a standalone
// gNB process needs in place of a real radio unit (mirroring
// nf/upf/internal/dataplane/simulated's approach to a PHY-less
// deployment).
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/5g-network/internal/sched/cell"
	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/mobility"
	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
	"github.com/your-org/5g-network/internal/sched/ue"
	gnbconfig "github.com/your-org/5g-network/nf/gnb/internal/config"
	gnbmetrics "github.com/your-org/5g-network/nf/gnb/internal/metrics"
	gnbpcap "github.com/your-org/5g-network/nf/gnb/internal/sched"
)

// Server runs one gNB cell's scheduling loop and exposes its control
// surface over HTTP.
type Server struct {
	config     *gnbconfig.Config
	cell       *cell.Cell
	mobility   *mobility.Controller
	router     *chi.Mux
	httpServer *http.Server
	logger     *zap.Logger

	mu      sync.Mutex
	current slot.Point
	stop    chan struct{}
	slotDur time.Duration

	pcapSink *gnbpcap.FileSink
	pcapFile *os.File
}

func numerologyFromString(s string) slot.Numerology {
	switch s {
	case "15kHz":
		return slot.SCS15kHz
	case "60kHz":
		return slot.SCS60kHz
	case "120kHz":
		return slot.SCS120kHz
	default:
		return slot.SCS30kHz
	}
}

func slotDuration(n slot.Numerology) time.Duration {
	return 10 * time.Millisecond / time.Duration(n.SlotsPerFrame())
}

func cellConfigFromYAML(c gnbconfig.CellConfig) ue.CellConfig {
	return ue.CellConfig{
		NRB:                c.NRB,
		PDSCHSymbols:       rbsetSymbolRange(c.PDSCHSymbolStart, c.PDSCHSymbolStop),
		PUSCHSymbols:       rbsetSymbolRange(c.PUSCHSymbolStart, c.PUSCHSymbolStop),
		PDSCHNofRBs:        ue.RBRange{Min: 1, Max: c.NRB},
		PUSCHNofRBs:        ue.RBRange{Min: 1, Max: c.NRB},
		K1FeedbackDelay:    c.K1FeedbackDelay,
		K2ULDelay:          c.K2ULDelay,
		MaxULGrantsPerSlot: c.MaxULGrantsPerSlot,
		MaxPUCCHsPerSlot:   c.MaxPUCCHsPerSlot,
		RAResponseWindow:   c.RAResponseWindow,
		MaxDLRetx:          c.MaxDLRetx,
		MaxULRetx:          c.MaxULRetx,
		BLERTarget:         c.BLERTarget,
		LinkAdaptDelta:     c.LinkAdaptDelta,
		TargetPUSCHSINR:    c.TargetPUSCHSINR,
		CQIDropThreshold:   c.CQIDropThreshold,
		RIDropThreshold:    c.RIDropThreshold,
		SSBPeriodSlots:     c.SSBPeriodSlots,
		SSBBeams:           c.SSBBeams,
		SSBSymbols:         rbsetSymbolRange(0, 4),
		SIB1PeriodSlots:    c.SIB1PeriodSlots,
		SIB1Symbols:        rbsetSymbolRange(0, 4),
	}
}

// New constructs a Server from a loaded configuration.
func New(cfg *gnbconfig.Config, logger *zap.Logger) (*Server, error) {
	numerology := numerologyFromString(cfg.Cell.Numerology)
	coresets := []grid.CORESETConfig{{ID: 0, NumCCEs: cfg.Cell.CoresetNumCCEs}}
	g := grid.New(cfg.Cell.NRB, cfg.Cell.GridDepth, coresets)
	harqMgr := harq.NewManager()

	c := cell.New(0, cellConfigFromYAML(cfg.Cell), g, harqMgr, logger)
	c.SetDeadlineMissCounter(gnbmetrics.DeadlineMissCounter{CellLabel: cfg.NF.Name})
	c.SetHARQOutcomeObserver(gnbmetrics.HARQOutcomeCounter{CellLabel: cfg.NF.Name})

	procTimeout := time.Duration(cfg.Cell.MobilityProcTimeoutSeconds) * time.Second
	mob := mobility.New(procTimeout, logger)

	s := &Server{
		config:   cfg,
		cell:     c,
		mobility: mob,
		router:   chi.NewRouter(),
		logger:   logger,
		current:  slot.New(numerology, 0, 0),
		stop:     make(chan struct{}),
		slotDur:  slotDuration(numerology),
	}

	if cfg.PCAP.Enabled {
		f, err := os.OpenFile(cfg.PCAP.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("gnb server: opening pcap sink: %w", err)
		}
		sink := gnbpcap.NewFileSink(f, logger)
		c.SetPCAPSink(sink)
		s.pcapSink = sink
		s.pcapFile = f
	}

	s.setupRoutes()
	return s, nil
}

func rbsetSymbolRange(start, stop uint8) rbset.SymbolRange {
	return rbset.SymbolRange{Start: start, Stop: stop}
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	// Simulated lower-PHY ingress (spec.md §6): in the absence of a
	// real radio unit, these endpoints let an external test harness
	// drive on_new_prach_window_data / on_new_uplink_symbol events.
	s.router.Route("/phy", func(r chi.Router) {
		r.Post("/prach", s.handlePRACH)
		r.Post("/msg3-complete", s.handleMsg3Complete)
		r.Post("/uplink-feedback", s.handleUplinkFeedback)
		r.Post("/csi-report", s.handleCSIReport)
	})

	s.router.Route("/mobility", func(r chi.Router) {
		r.Post("/reestablish", s.handleReestablish)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"nf":      s.config.NF.Name,
		"cell":    s.cell.Index,
		"slot":    cur.String(),
		"num_ues": len(s.cell.Scheduler().ActiveUEIndices()),
	})
}

type prachRequest struct {
	RARNTI        uint16 `json:"ra_rnti"`
	PreambleIndex uint8  `json:"preamble_index"`
	TempCRNTI     uint16 `json:"temp_crnti"`
}

func (s *Server) handlePRACH(w http.ResponseWriter, r *http.Request) {
	var req prachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	now := s.current
	s.mu.Unlock()

	ok := s.cell.PostPRACH(&ue.PendingRAR{
		RARNTI:        req.RARNTI,
		PreambleIndex: req.PreambleIndex,
		DetectedSlot:  now,
		WindowExpiry:  now.Add(s.config.Cell.RAResponseWindow),
		TempCRNTI:     req.TempCRNTI,
	})
	if !ok {
		http.Error(w, "inbox full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type msg3CompleteRequest struct {
	PCI          uint16 `json:"pci"`
	CRNTI        uint16 `json:"crnti"`
	AMFUEID      string `json:"amf_ue_id"`
	HasActiveDRB bool   `json:"has_active_drb"`
}

// handleMsg3Complete is the simulated-ingress counterpart of contention
// resolution succeeding (Msg3 decoded, Msg4/RRC Setup delivered, spec.md
// §8 scenario S1): it is the point at which a UE stops being a bare
// pending preamble and becomes a real UE Context the scheduler's DL/UL
// passes will actually consider. It registers the UE with both the
// mobility repository (so a later reestablishment request can find it)
// and the UE Scheduler (so runDLPass/runULPass can allocate to it).
func (s *Server) handleMsg3Complete(w http.ResponseWriter, r *http.Request) {
	var req msg3CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec := s.mobility.CreateUE(mobility.UEIdentity{PCI: req.PCI, CRNTI: req.CRNTI})
	rec.AMFUEID = req.AMFUEID
	rec.HasActiveDRB = req.HasActiveDRB

	s.cell.Scheduler().AddUEWithEntity(rec.UEIndex, req.CRNTI,
		s.config.Cell.NumDLHARQProcesses, s.config.Cell.NumULHARQProcesses)

	s.logger.Info("random access completed, UE context created",
		zap.Uint16("ue_index", rec.UEIndex), zap.Uint16("crnti", req.CRNTI))
	writeJSON(w, http.StatusCreated, map[string]any{"ue_index": rec.UEIndex})
}

type uplinkFeedbackRequest struct {
	UEIndex  uint16  `json:"ue_index"`
	SlotSFN  uint16  `json:"slot_sfn"`
	SlotIdx  uint16  `json:"slot_idx"`
	IsUplink bool    `json:"is_uplink"`
	BitIndex int     `json:"bit_index"`
	ACK      bool    `json:"ack"`
	CRCOK    bool    `json:"crc_ok"`
	SINR     float32 `json:"sinr"`
}

func (s *Server) handleUplinkFeedback(w http.ResponseWriter, r *http.Request) {
	var req uplinkFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dlValue := harq.NACK
	if req.ACK {
		dlValue = harq.ACK
	}

	fb := &cell.UplinkFeedback{
		UEIndex:  req.UEIndex,
		Slot:     slot.New(s.current.Numerology(), uint32(req.SlotSFN), uint32(req.SlotIdx)),
		IsUplink: req.IsUplink,
		BitIndex: req.BitIndex,
		DLValue:  dlValue,
		ULCRCOK:  req.CRCOK,
		SINR:     req.SINR,
		HaveSINR: true,
	}
	if !s.cell.PostFeedback(fb) {
		http.Error(w, "inbox full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type csiReportRequest struct {
	UEIndex     uint16 `json:"ue_index"`
	WidebandCQI uint8  `json:"wideband_cqi"`
	RI          uint8  `json:"ri"`
	PMI         uint8  `json:"pmi"`
}

func (s *Server) handleCSIReport(w http.ResponseWriter, r *http.Request) {
	var req csiReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok := s.cell.PostCSIReport(&cell.CSIReport{
		UEIndex:     req.UEIndex,
		WidebandCQI: req.WidebandCQI,
		RI:          req.RI,
		PMI:         req.PMI,
	})
	if !ok {
		http.Error(w, "inbox full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type reestablishRequest struct {
	OldPCI   uint16 `json:"old_pci"`
	OldCRNTI uint16 `json:"old_crnti"`
	NewCRNTI uint16 `json:"new_crnti"`
}

func (s *Server) handleReestablish(w http.ResponseWriter, r *http.Request) {
	var req reestablishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newUE := s.mobility.CreateUE(mobility.UEIdentity{PCI: req.OldPCI, CRNTI: req.NewCRNTI})
	res, err := s.mobility.Reestablish(r.Context(), mobility.UEIdentity{PCI: req.OldPCI, CRNTI: req.OldCRNTI}, newUE.UEIndex, time.Now())
	if err != nil {
		gnbmetrics.MobilityProcedures.WithLabelValues("reestablishment", "rejected").Inc()
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.applyReestablishOutcome(res)
	gnbmetrics.MobilityProcedures.WithLabelValues("reestablishment", res.Outcome.String()).Inc()
	writeJSON(w, http.StatusOK, res)
}

// applyReestablishOutcome is the bridge spec.md §4.5 / scenario S2
// requires between the mobility decision and the scheduler's UE pool:
// mobility.Controller only tracks RRC/AMF state, so it is this bridge's
// job to actually create the new UE's scheduler-side context, carry the
// old UE's radio context (channel state, pending bytes, search spaces)
// across on acceptance, and destroy whichever UE the decision says no
// longer exists.
func (s *Server) applyReestablishOutcome(res mobility.ReestablishResult) {
	sch := s.cell.Scheduler()

	if _, exists := sch.UE(res.NewUEIndex); !exists {
		var crnti uint16
		if rec, ok := s.mobility.UE(res.NewUEIndex); ok {
			crnti = rec.Identity.CRNTI
		}
		sch.AddUEWithEntity(res.NewUEIndex, crnti,
			s.config.Cell.NumDLHARQProcesses, s.config.Cell.NumULHARQProcesses)
	}

	switch {
	case res.TransferDRBs:
		// Rule 4 (scenario S2): the old UE had an active DRB, so its
		// scheduler-side radio context moves to the new UE index before
		// the old index is destroyed.
		if oldCtx, ok := sch.UE(res.OldUEIndex); ok {
			if newCtx, ok := sch.UE(res.NewUEIndex); ok {
				newCtx.Channel = oldCtx.Channel
				newCtx.PendingDLBytes = oldCtx.PendingDLBytes
				newCtx.PendingULBytes = oldCtx.PendingULBytes
				newCtx.DLSearchSpaces = oldCtx.DLSearchSpaces
				newCtx.ULSearchSpaces = oldCtx.ULSearchSpaces
				newCtx.MCSTable = oldCtx.MCSTable
				newCtx.DLGrantLimit = oldCtx.DLGrantLimit
				newCtx.ULGrantLimit = oldCtx.ULGrantLimit
				newCtx.EnterNonFallback()
			}
		}
		sch.RemoveUE(res.OldUEIndex)
	case res.OldUEIndex != 0 && !res.ReleaseViaAMF:
		// Rule 2: never registered, released locally without the AMF.
		sch.RemoveUE(res.OldUEIndex)
	}
	// Rule 3 (ReleaseViaAMF) leaves the old UE's scheduler context in
	// place until an explicit AMF release command arrives; rule 1 (no
	// OldUEIndex, unknown UE) has no old context to touch.
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start runs the HTTP server and the slot-tick driver loop until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.runSlotLoop(ctx)

	s.logger.Info("starting gNB control surface", zap.String("address", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gnb server: %w", err)
	}
	return nil
}

// runSlotLoop is the OTA timing source's stand-in: it drives one
// SlotTick per slot duration, the "radio unit's OTA timing
// notification" spec.md §5 says triggers the per-cell scheduler task.
func (s *Server) runSlotLoop(ctx context.Context) {
	ticker := time.NewTicker(s.slotDur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			t := s.current
			s.mu.Unlock()

			res, err := s.cell.SlotTick(ctx, t)
			if err != nil {
				s.logger.Error("slot tick failed, halting cell", zap.Error(err), zap.String("slot", t.String()))
				return
			}
			gnbmetrics.DLGrantsTotal.WithLabelValues(s.config.NF.Name).Add(float64(len(res.DLGrants)))
			gnbmetrics.ULGrantsTotal.WithLabelValues(s.config.NF.Name).Add(float64(len(res.ULGrants)))
			gnbmetrics.SkippedUEsTotal.WithLabelValues(s.config.NF.Name).Add(float64(len(res.SkippedUEs)))
			gnbmetrics.ActiveUEs.WithLabelValues(s.config.NF.Name).Set(float64(len(s.cell.Scheduler().ActiveUEIndices())))

			if released := s.mobility.CheckTimeouts(time.Now()); len(released) > 0 {
				for _, idx := range released {
					s.cell.Scheduler().RemoveUE(idx)
				}
			}

			s.mu.Lock()
			s.current = t.Add(1)
			s.mu.Unlock()
		}
	}
}

// Stop gracefully stops the slot loop and HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stop)
	if s.pcapSink != nil {
		s.pcapSink.Close()
	}
	if s.pcapFile != nil {
		s.pcapFile.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
