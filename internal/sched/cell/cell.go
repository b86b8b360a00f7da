// Package cell composes the Resource Grid, HARQ Manager, PDCCH
// Allocator and UE Scheduler into one per-cell scheduling task, and
// implements the single-writer-per-cell cooperative concurrency model
// spec.md §5 describes: exactly one slot-tick pass runs to completion
// without suspension, while a bounded inbox carries cross-task messages
// (uplink feedback, mobility events) that are drained only at the start
// of a slot.
package cell

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/slot"
	"github.com/your-org/5g-network/internal/sched/ue"
)

// inboxDepth bounds the per-cell message queue; a full inbox applies
// back-pressure to the caller rather than growing unbounded (spec.md §5:
// "bounded message queues").
const inboxDepth = 4096

// UplinkFeedback is a decoded HARQ-ACK or CRC outcome arriving for slot
// t, dispatched to the HARQ Manager and the originating UE's
// link-adaptation estimator (spec.md §2, §6 on_new_uplink_symbol).
type UplinkFeedback struct {
	UEIndex  uint16
	Slot     slot.Point
	IsUplink bool // true: CRC on a PUSCH; false: HARQ-ACK bits on PUCCH/PUSCH
	BitIndex int
	DLValue  harq.AckValue
	ULCRCOK  bool
	SINR     float32
	HaveSINR bool
}

// CSIReport updates a UE's channel-state cache ahead of the next slot's
// scheduling decisions (spec.md §2).
type CSIReport struct {
	UEIndex     uint16
	WidebandCQI uint8
	RI          uint8
	PMI         uint8
}

// message is the cell inbox's internal envelope; exactly one of the
// embedded pointers is non-nil.
type message struct {
	feedback *UplinkFeedback
	csi      *CSIReport
	prach    *ue.PendingRAR
}

// DeadlineMissCounter is a narrow capability interface a collaborator
// can implement to observe slot deadline misses (spec.md §7); kept
// minimal rather than handing the cell a full metrics client, per
// spec.md §9's "duck-typed callbacks ... collapse to narrow capability
// interfaces".
type DeadlineMissCounter interface {
	IncSlotDeadlineMiss()
}

type noopDeadlineMissCounter struct{}

func (noopDeadlineMissCounter) IncSlotDeadlineMiss() {}

// PCAPSink accepts committed per-slot scheduling decisions for offline
// capture (spec.md §6's PCAP sidechannel). Implementations must not
// block the caller: a full or slow sink drops records rather than
// stall the scheduling task that feeds it.
type PCAPSink interface {
	WriteSlotResult(res *ue.SchedResult)
}

type noopPCAPSink struct{}

func (noopPCAPSink) WriteSlotResult(*ue.SchedResult) {}

// HARQOutcomeObserver is a narrow capability interface a collaborator
// can implement to count HARQ process outcomes by direction, without
// handing the cell a full metrics client.
type HARQOutcomeObserver interface {
	ObserveHARQOutcome(direction string, outcome harq.Outcome)
}

type noopHARQOutcomeObserver struct{}

func (noopHARQOutcomeObserver) ObserveHARQOutcome(string, harq.Outcome) {}

// Cell is the single-writer-per-cell scheduling task: one Grid, one
// HARQ Manager, one UE Scheduler, and a bounded inbox for cross-task
// messages (spec.md §5).
type Cell struct {
	Index uint16

	grid    *grid.Grid
	harqMgr *harq.Manager
	sched   *ue.Scheduler

	inbox chan message

	deadlineMiss DeadlineMissCounter
	pcap         PCAPSink
	harqObserver HARQOutcomeObserver

	logger *zap.Logger
	tracer trace.Tracer
}

// New constructs a Cell. cfg, g and harqMgr must already be configured
// for the cell's bandwidth part and feedback timing.
func New(index uint16, cfg ue.CellConfig, g *grid.Grid, harqMgr *harq.Manager, logger *zap.Logger) *Cell {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cell{
		Index:        index,
		grid:         g,
		harqMgr:      harqMgr,
		sched:        ue.NewScheduler(cfg, g, harqMgr, logger),
		inbox:        make(chan message, inboxDepth),
		deadlineMiss: noopDeadlineMissCounter{},
		pcap:         noopPCAPSink{},
		harqObserver: noopHARQOutcomeObserver{},
		logger:       logger.With(zap.Uint16("cell_index", index)),
		tracer:       otel.Tracer("sched-cell"),
	}
}

// SetDeadlineMissCounter overrides the no-op counter with a real
// metrics collaborator.
func (c *Cell) SetDeadlineMissCounter(counter DeadlineMissCounter) {
	if counter != nil {
		c.deadlineMiss = counter
	}
}

// SetPCAPSink overrides the no-op capture sink with a real collaborator.
func (c *Cell) SetPCAPSink(sink PCAPSink) {
	if sink != nil {
		c.pcap = sink
	}
}

// SetHARQOutcomeObserver overrides the no-op observer with a real
// metrics collaborator.
func (c *Cell) SetHARQOutcomeObserver(observer HARQOutcomeObserver) {
	if observer != nil {
		c.harqObserver = observer
	}
}

// Scheduler exposes the underlying UE Scheduler so callers can register
// UE contexts; this is the one piece of state the cell task and the
// caller share, but writes to it are still expected only between slot
// ticks, per the single-writer invariant.
func (c *Cell) Scheduler() *ue.Scheduler { return c.sched }

// PostFeedback enqueues uplink feedback for dispatch at the start of
// the next drained slot (spec.md §5: "Feedback arriving for slot t is
// applied to the HARQ Manager before scheduling decisions for any slot
// > t are taken"). Returns false if the inbox is full — the caller
// should treat this as a transient condition and retry, per spec.md §7.
func (c *Cell) PostFeedback(fb *UplinkFeedback) bool {
	select {
	case c.inbox <- message{feedback: fb}:
		return true
	default:
		return false
	}
}

// PostCSIReport enqueues a channel-state update.
func (c *Cell) PostCSIReport(r *CSIReport) bool {
	select {
	case c.inbox <- message{csi: r}:
		return true
	default:
		return false
	}
}

// PostPRACH enqueues a detected preamble for RAR/Msg3 scheduling.
func (c *Cell) PostPRACH(r *ue.PendingRAR) bool {
	select {
	case c.inbox <- message{prach: r}:
		return true
	default:
		return false
	}
}

// drainInbox applies every queued message before the slot's scheduling
// passes run, non-blocking per spec.md §5 ("each step is non-blocking").
func (c *Cell) drainInbox(t slot.Point) {
	for {
		select {
		case m := <-c.inbox:
			c.applyMessage(t, m)
		default:
			return
		}
	}
}

func (c *Cell) applyMessage(t slot.Point, m message) {
	switch {
	case m.feedback != nil:
		c.applyFeedback(m.feedback)
	case m.csi != nil:
		c.applyCSI(m.csi)
	case m.prach != nil:
		c.sched.AddPendingRAR(m.prach)
	}
}

func (c *Cell) applyFeedback(fb *UplinkFeedback) {
	ueCtx, ok := c.sched.UE(fb.UEIndex)
	if !ok {
		c.logger.Warn("feedback for unknown UE, dropping", zap.Uint16("ue_index", fb.UEIndex))
		return
	}
	if ueCtx.HARQ == nil {
		return
	}

	if fb.HaveSINR {
		ueCtx.Channel.RecordPUSCHSINR(fb.SINR)
	}

	if fb.IsUplink {
		proc, ok := ueCtx.HARQ.FindULWaitingACK(fb.Slot)
		if !ok {
			return
		}
		outcome := ueCtx.HARQ.ULCRCInfo(proc, fb.ULCRCOK)
		c.applyULOutcome(ueCtx, outcome)
		return
	}

	proc, ok := ueCtx.HARQ.FindDLWaitingACK(fb.Slot, fb.BitIndex)
	if !ok {
		return
	}
	done, outcome := ueCtx.HARQ.DLAckInfo(proc, fb.BitIndex, fb.DLValue)
	if done {
		c.applyDLOutcome(ueCtx, outcome)
	}
}

func (c *Cell) applyDLOutcome(ueCtx *ue.Context, outcome harq.Outcome) {
	c.harqObserver.ObserveHARQOutcome("dl", outcome)
	switch outcome {
	case harq.OutcomeACKed:
		ueCtx.DLLinkAdapt.OnSuccess()
	case harq.OutcomeRetxArmed:
		ueCtx.DLLinkAdapt.OnFailure()
	case harq.OutcomeAbandoned:
		ueCtx.DLLinkAdapt.OnFailure()
		c.logger.Warn("DL HARQ process abandoned after max retransmissions",
			zap.Uint16("ue_index", ueCtx.UEIndex))
	}
}

func (c *Cell) applyULOutcome(ueCtx *ue.Context, outcome harq.Outcome) {
	c.harqObserver.ObserveHARQOutcome("ul", outcome)
	switch outcome {
	case harq.OutcomeACKed:
		ueCtx.ULLinkAdapt.OnSuccess()
	case harq.OutcomeRetxArmed:
		ueCtx.ULLinkAdapt.OnFailure()
	case harq.OutcomeAbandoned:
		ueCtx.ULLinkAdapt.OnFailure()
		c.logger.Warn("UL HARQ process abandoned after max retransmissions",
			zap.Uint16("ue_index", ueCtx.UEIndex))
	}
}

// applyCSI updates a UE's channel-state cache and, when the new report
// shows a sharp CQI or rank drop relative to the cached value, cancels
// its in-flight DL HARQ retransmissions (spec.md §4.2, scenario S6):
// chasing a stale channel estimate wastes RBs the UE can no longer
// decode at, so the process is abandoned without failure propagation
// and its bytes are re-queued for a fresh transmission at the new,
// lower MCS.
func (c *Cell) applyCSI(r *CSIReport) {
	ueCtx, ok := c.sched.UE(r.UEIndex)
	if !ok {
		return
	}

	cfg := c.sched.Config()
	prevCQI, prevRI := ueCtx.Channel.WidebandCQI, ueCtx.Channel.RI
	cqiDrop := prevCQI > r.WidebandCQI && prevCQI-r.WidebandCQI >= cfg.CQIDropThreshold
	riDrop := prevRI > r.RI && prevRI-r.RI >= cfg.RIDropThreshold

	ueCtx.Channel.WidebandCQI = r.WidebandCQI
	ueCtx.Channel.RI = r.RI
	ueCtx.Channel.PMI = r.PMI

	if (cqiDrop || riDrop) && ueCtx.HARQ != nil {
		requeued := ueCtx.HARQ.CancelDLOnChannelDrop()
		for _, tbs := range requeued {
			ueCtx.PendingDLBytes += tbs
			c.harqObserver.ObserveHARQOutcome("dl", harq.OutcomeCancelled)
		}
		if len(requeued) > 0 {
			c.logger.Info("CQI/RI drop cancelled in-flight DL retransmissions",
				zap.Uint16("ue_index", r.UEIndex),
				zap.Uint8("prev_cqi", prevCQI), zap.Uint8("new_cqi", r.WidebandCQI),
				zap.Int("processes_cancelled", len(requeued)))
		}
	}
}

// SlotTick runs one full slot-boundary pass: it advances the resource
// grid's write cursor, drains the inbox, and runs the four UE Scheduler
// passes plus the HARQ feedback-timeout pass to completion without
// suspension (spec.md §5). A pass that
// returns an error (invariant violation, not a runtime condition) is
// surfaced so the caller can halt and restart the cell per spec.md §7.
func (c *Cell) SlotTick(ctx context.Context, t slot.Point) (*ue.SchedResult, error) {
	ctx, span := c.tracer.Start(ctx, "Cell.SlotTick")
	defer span.End()
	span.SetAttributes(attribute.Int("cell_index", int(c.Index)), attribute.String("slot", t.String()))

	c.grid.SlotIndication(t)
	c.drainInbox(t)

	res, err := c.sched.RunSlot(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("cell %d: slot %s: %w", c.Index, t, err)
	}
	c.applyHARQTimeouts(res)
	c.pcap.WriteSlotResult(res)
	return res, nil
}

// applyHARQTimeouts drives link adaptation and HARQ-outcome observation
// off the slot's timed-out processes exactly the way applyFeedback does
// for a real ACK/NACK/CRC indication (spec.md §4.2's timeout rule).
func (c *Cell) applyHARQTimeouts(res *ue.SchedResult) {
	for _, ev := range res.TimedOutDL {
		if ueCtx, ok := c.sched.UE(ev.UEIndex); ok {
			c.logger.Debug("DL HARQ feedback timed out, treated as NACK",
				zap.Uint16("ue_index", ev.UEIndex), zap.String("slot", res.Slot.String()))
			c.applyDLOutcome(ueCtx, ev.Outcome)
		}
	}
	for _, ev := range res.TimedOutUL {
		if ueCtx, ok := c.sched.UE(ev.UEIndex); ok {
			c.logger.Debug("UL HARQ feedback timed out, treated as NACK",
				zap.Uint16("ue_index", ev.UEIndex), zap.String("slot", res.Slot.String()))
			c.applyULOutcome(ueCtx, ev.Outcome)
		}
	}
}

// ReportDeadlineMiss records that a slot's scheduling pass could not
// complete before the next OTA tick (spec.md §7: "Slot deadline miss:
// counter++, slot skipped, continue"). The caller is responsible for
// detecting the miss (e.g. a watchdog around SlotTick) since the cell
// itself never blocks.
func (c *Cell) ReportDeadlineMiss(t slot.Point) {
	c.deadlineMiss.IncSlotDeadlineMiss()
	c.logger.Error("slot deadline missed, skipping", zap.String("slot", t.String()))
}
