// Package mobility implements the RRC Mobility & Fallback Controller
// (spec.md §4.5): the per-UE state machine that decides, for every
// reestablishment request and handover event, whether to accept it or
// fall back to a fresh RRC setup.
package mobility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/5g-network/internal/sched/errs"
)

// Outcome describes the action the controller took for an event,
// reported to the caller so it can drive the RRC/NGAP messaging
// surfaces named in spec.md §6.
type Outcome uint8

const (
	// OutcomeRRCSetup means a fresh context was created and an RRC
	// Setup (not Reestablishment) should be sent.
	OutcomeRRCSetup Outcome = iota
	// OutcomeRRCReestablish means the old context's DRBs were
	// transferred and an RRC Reestablishment should be sent.
	OutcomeRRCReestablish
	// OutcomeHandoverComplete means a handover's target-side context
	// is now active and the source has been released.
	OutcomeHandoverComplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRRCSetup:
		return "rrc-setup"
	case OutcomeRRCReestablish:
		return "rrc-reestablish"
	case OutcomeHandoverComplete:
		return "handover-complete"
	default:
		return "unknown"
	}
}

// UEIdentity is the (PCI, C-RNTI) pair a reestablishment request names
// to locate the old UE in the cell repository (spec.md §4.5).
type UEIdentity struct {
	PCI   uint16
	CRNTI uint16
}

// ProcedureKind distinguishes the two mobility procedures that may be
// in flight for a UE at once — used to enforce the concurrent-procedure
// rejection decided in DESIGN.md (spec.md §9 Open Question).
type ProcedureKind uint8

const (
	ProcedureNone ProcedureKind = iota
	ProcedureReestablishment
	ProcedureHandover
)

// UERecord is the mobility task's view of one UE: enough to apply the
// reestablishment algorithm and track in-flight procedures, without
// duplicating the full scheduler-side UE Context.
type UERecord struct {
	UEIndex      uint16
	Identity     UEIdentity
	AMFUEID      string // empty until registration completes
	HasActiveDRB bool
	inFlight     ProcedureKind
	procedureID  string // correlation id of the in-flight procedure, if any
	deadline     time.Time
}

// ReestablishResult is what the controller decided for one
// reestablishment request, and the data the caller needs to carry it
// out.
type ReestablishResult struct {
	Outcome       Outcome
	NewUEIndex    uint16
	OldUEIndex    uint16
	TransferDRBs  bool
	ReleaseViaAMF bool
	AMFUEID       string
	ProcedureID   string
}

// Controller owns the cell's UE repository for mobility purposes and
// implements spec.md §4.5's reestablishment and handover algorithms.
// It is the single writer of RRC state (spec.md §5): all mutation
// happens on this task, never from the per-cell scheduler.
type Controller struct {
	ues          map[uint16]*UERecord
	byIdentity   map[UEIdentity]uint16
	nextUEIndex  uint16
	procTimeout  time.Duration
	logger       *zap.Logger
	tracer       trace.Tracer
}

// New constructs a Controller. procTimeout is the deadline (spec.md
// §4.5: "typically 1-5 seconds") applied to every asynchronous
// procedure it starts.
func New(procTimeout time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		ues:         make(map[uint16]*UERecord),
		byIdentity:  make(map[UEIdentity]uint16),
		procTimeout: procTimeout,
		logger:      logger,
		tracer:      otel.Tracer("sched-mobility"),
	}
}

// CreateUE registers a brand-new UE context (random-access completion
// or inter-DU handover arrival, spec.md §3) and returns its index.
func (c *Controller) CreateUE(identity UEIdentity) *UERecord {
	c.nextUEIndex++
	idx := c.nextUEIndex
	rec := &UERecord{UEIndex: idx, Identity: identity}
	c.ues[idx] = rec
	c.byIdentity[identity] = idx
	return rec
}

// UE returns the record for ueIndex, if one exists.
func (c *Controller) UE(ueIndex uint16) (*UERecord, bool) {
	r, ok := c.ues[ueIndex]
	return r, ok
}

func (c *Controller) releaseUE(ueIndex uint16) {
	if rec, ok := c.ues[ueIndex]; ok {
		delete(c.byIdentity, rec.Identity)
	}
	delete(c.ues, ueIndex)
}

// beginProcedure marks rec as having an in-flight procedure, rejecting
// the request outright if one is already running (spec.md §9 Open
// Question, resolved: concurrent reestablishment and handover targeting
// the same UE are mutually exclusive — the second request is rejected
// rather than interleaved with the first, since both mutate the same
// UE context and DRB list and srsRAN's mobility state machines are not
// designed for concurrent re-entry).
func (c *Controller) beginProcedure(rec *UERecord, kind ProcedureKind, now time.Time) error {
	if rec.inFlight != ProcedureNone {
		return fmt.Errorf("mobility: ue %d already running %v: %w", rec.UEIndex, rec.inFlight, errs.ErrConcurrentMobilityProcedure)
	}
	rec.inFlight = kind
	rec.procedureID = uuid.NewString()
	rec.deadline = now.Add(c.procTimeout)
	c.logger.Debug("mobility procedure started",
		zap.Uint16("ue_index", rec.UEIndex),
		zap.String("procedure", kind.String()),
		zap.String("procedure_id", rec.procedureID),
	)
	return nil
}

func (c *Controller) endProcedure(rec *UERecord) {
	rec.inFlight = ProcedureNone
	rec.procedureID = ""
	rec.deadline = time.Time{}
}

// Reestablish runs spec.md §4.5's four-rule reestablishment algorithm
// against the UE identified by old. newIndex is the brand-new UE index
// already created for the incoming preamble (reestablishment always
// arrives on a new RA attempt, per srsRAN's du_processor reestablishment
// handling).
func (c *Controller) Reestablish(ctx context.Context, old UEIdentity, newIndex uint16, now time.Time) (ReestablishResult, error) {
	ctx, span := c.tracer.Start(ctx, "Controller.Reestablish")
	defer span.End()
	span.SetAttributes(attribute.Int("old_crnti", int(old.CRNTI)), attribute.Int("new_ue_index", int(newIndex)))

	oldIdx, found := c.byIdentity[old]
	if !found {
		// Rule 1: unknown UE -> reject with RRC Setup, remove nothing.
		c.logger.Info("reestablishment against unknown UE, falling back to RRC setup",
			zap.Uint16("old_crnti", old.CRNTI))
		return ReestablishResult{Outcome: OutcomeRRCSetup, NewUEIndex: newIndex}, nil
	}
	oldRec := c.ues[oldIdx]

	if err := c.beginProcedure(oldRec, ProcedureReestablishment, now); err != nil {
		return ReestablishResult{}, err
	}
	procID := oldRec.procedureID
	defer c.endProcedure(oldRec)

	if oldRec.AMFUEID == "" {
		// Rule 2: never completed registration -> reject, remove
		// locally without involving the AMF.
		c.releaseUE(oldIdx)
		c.logger.Info("reestablishment against unregistered UE, local release",
			zap.Uint16("old_ue_index", oldIdx), zap.String("procedure_id", procID))
		return ReestablishResult{Outcome: OutcomeRRCSetup, NewUEIndex: newIndex, OldUEIndex: oldIdx, ProcedureID: procID}, nil
	}

	if !oldRec.HasActiveDRB {
		// Rule 3: registered but no DRB -> reject, AMF-mediated release.
		c.logger.Info("reestablishment against UE with no active DRB, requesting AMF release",
			zap.Uint16("old_ue_index", oldIdx), zap.String("amf_ue_id", oldRec.AMFUEID), zap.String("procedure_id", procID))
		return ReestablishResult{
			Outcome:       OutcomeRRCSetup,
			NewUEIndex:    newIndex,
			OldUEIndex:    oldIdx,
			ReleaseViaAMF: true,
			AMFUEID:       oldRec.AMFUEID,
			ProcedureID:   procID,
		}, nil
	}

	// Rule 4: has a DRB -> accept, transfer context, release old C-RNTI.
	newRec, ok := c.ues[newIndex]
	if ok {
		newRec.AMFUEID = oldRec.AMFUEID
		newRec.HasActiveDRB = true
	}
	c.releaseUE(oldIdx)
	c.logger.Info("reestablishment accepted, DRB context transferred",
		zap.Uint16("old_ue_index", oldIdx), zap.Uint16("new_ue_index", newIndex), zap.String("procedure_id", procID))
	return ReestablishResult{
		Outcome:      OutcomeRRCReestablish,
		NewUEIndex:   newIndex,
		OldUEIndex:   oldIdx,
		TransferDRBs: true,
		ProcedureID:  procID,
	}, nil
}

// HandoverResult is what an inter-DU or intra-DU handover produced.
type HandoverResult struct {
	Outcome       Outcome
	SourceUEIndex uint16
	TargetUEIndex uint16
	ProcedureID   string
}

// BeginInterDUHandover starts a cross-DU handover: the source UE stays
// alive until the caller later reports the target's Reconfiguration
// Complete via CompleteInterDUHandover (spec.md §4.5).
func (c *Controller) BeginInterDUHandover(sourceIdx uint16, target UEIdentity, now time.Time) (targetIdx uint16, err error) {
	sourceRec, ok := c.ues[sourceIdx]
	if !ok {
		return 0, fmt.Errorf("mobility: unknown source ue %d", sourceIdx)
	}
	if err := c.beginProcedure(sourceRec, ProcedureHandover, now); err != nil {
		return 0, err
	}
	targetRec := c.CreateUE(target)
	targetRec.procedureID = sourceRec.procedureID
	targetRec.AMFUEID = sourceRec.AMFUEID
	targetRec.HasActiveDRB = sourceRec.HasActiveDRB
	return targetRec.UEIndex, nil
}

// CompleteInterDUHandover releases the source UE and cancels its HARQ
// processes once the target signals Reconfiguration Complete, the
// caller's responsibility per spec.md §4.5 (the controller only tracks
// RRC/context state; the scheduler-side HARQ cancellation is driven by
// the caller observing this result).
func (c *Controller) CompleteInterDUHandover(sourceIdx uint16) HandoverResult {
	var procID string
	if rec, ok := c.ues[sourceIdx]; ok {
		procID = rec.procedureID
		c.endProcedure(rec)
	}
	c.releaseUE(sourceIdx)
	return HandoverResult{Outcome: OutcomeHandoverComplete, SourceUEIndex: sourceIdx, ProcedureID: procID}
}

// IntraDUHandover performs a synchronous source-to-target cell transfer
// within one DU: the UE keeps its index but moves cell/identity, and
// link adaptation is expected to re-arm from scratch on the caller's
// side (spec.md §4.5: "re-arms link adaptation from scratch").
func (c *Controller) IntraDUHandover(ueIndex uint16, newIdentity UEIdentity, now time.Time) (HandoverResult, error) {
	rec, ok := c.ues[ueIndex]
	if !ok {
		return HandoverResult{}, fmt.Errorf("mobility: unknown ue %d", ueIndex)
	}
	if err := c.beginProcedure(rec, ProcedureHandover, now); err != nil {
		return HandoverResult{}, err
	}
	procID := rec.procedureID
	defer c.endProcedure(rec)

	delete(c.byIdentity, rec.Identity)
	rec.Identity = newIdentity
	c.byIdentity[newIdentity] = ueIndex

	return HandoverResult{Outcome: OutcomeHandoverComplete, SourceUEIndex: ueIndex, TargetUEIndex: ueIndex, ProcedureID: procID}, nil
}

// CheckTimeouts releases every UE whose in-flight procedure's deadline
// has elapsed as of now, logging the stage at which it fired (spec.md
// §4.5: "on expiry the controller releases the affected UE and logs
// the stage at which the timeout fired"). Returns the released UE
// indices.
func (c *Controller) CheckTimeouts(now time.Time) []uint16 {
	var released []uint16
	for idx, rec := range c.ues {
		if rec.inFlight == ProcedureNone || rec.deadline.IsZero() || now.Before(rec.deadline) {
			continue
		}
		c.logger.Warn("mobility procedure timed out, releasing UE",
			zap.Uint16("ue_index", idx),
			zap.String("stage", rec.inFlight.String()),
			zap.String("procedure_id", rec.procedureID),
		)
		released = append(released, idx)
		c.releaseUE(idx)
	}
	return released
}

func (k ProcedureKind) String() string {
	switch k {
	case ProcedureReestablishment:
		return "reestablishment"
	case ProcedureHandover:
		return "handover"
	default:
		return "none"
	}
}
