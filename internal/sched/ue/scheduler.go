package ue

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	sched "github.com/your-org/5g-network/internal/sched"
	"github.com/your-org/5g-network/internal/sched/dci"
	"github.com/your-org/5g-network/internal/sched/errs"
	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/pdcch"
	"github.com/your-org/5g-network/internal/sched/slot"
)

// Scheduler runs the four ordered per-slot passes spec.md §4.4
// describes: (a) system signals/RA, (b) DL UE selection, (c) UL UE
// selection, (d) UCI placement. One Scheduler instance owns one cell.
type Scheduler struct {
	cfg     CellConfig
	grid    *grid.Grid
	harqMgr *harq.Manager

	ues   map[uint16]*Context
	order []uint16 // insertion order, used as a stable final tie-break

	pendingRAR []*PendingRAR

	// Per-slot budget counters, keyed by slot since the grid's write
	// window spans several slots concurrently.
	pucchCount map[slot.Point]int

	logger *zap.Logger
	tracer trace.Tracer
}

// NewScheduler constructs a Scheduler bound to one cell's resource grid
// and HARQ manager.
func NewScheduler(cfg CellConfig, g *grid.Grid, harqMgr *harq.Manager, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:        cfg,
		grid:       g,
		harqMgr:    harqMgr,
		ues:        make(map[uint16]*Context),
		pucchCount: make(map[slot.Point]int),
		logger:     logger,
		tracer:     otel.Tracer("sched-ue"),
	}
}

// AddUEWithEntity is a convenience constructor used by callers that
// don't need to build the UE Context by hand: it allocates a HARQ
// entity with nDL/nUL processes, wraps it in a fresh Context, registers
// it, and returns the entity so the caller can still inspect it.
func (s *Scheduler) AddUEWithEntity(ueIndex, crnti uint16, nDL, nUL int) *harq.Entity {
	entity := s.harqMgr.CreateEntity(ueIndex, nDL, nUL)
	s.AddUE(NewContext(ueIndex, crnti, entity))
	return entity
}

// AddUE registers a UE context with the scheduler.
func (s *Scheduler) AddUE(c *Context) {
	if _, exists := s.ues[c.UEIndex]; !exists {
		s.order = append(s.order, c.UEIndex)
	}
	s.ues[c.UEIndex] = c
}

// RemoveUE drops a UE context and its HARQ entity.
func (s *Scheduler) RemoveUE(ueIndex uint16) {
	delete(s.ues, ueIndex)
	s.harqMgr.RemoveEntity(ueIndex)
	for i, idx := range s.order {
		if idx == ueIndex {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// UE returns the UE context for ueIndex, if registered.
func (s *Scheduler) UE(ueIndex uint16) (*Context, bool) {
	c, ok := s.ues[ueIndex]
	return c, ok
}

// Config returns the cell-wide scheduler tunables this Scheduler was
// constructed with.
func (s *Scheduler) Config() CellConfig { return s.cfg }

// ActiveUEIndices returns the indices of every registered, non-Inactive
// UE, in the scheduler's stable insertion order.
func (s *Scheduler) ActiveUEIndices() []uint16 {
	var out []uint16
	for _, idx := range s.order {
		if c := s.ues[idx]; c != nil && c.State != Inactive {
			out = append(out, idx)
		}
	}
	return out
}

// AddPendingRAR enqueues a detected preamble for RAR/Msg3 scheduling in
// pass (a) of a future slot.
func (s *Scheduler) AddPendingRAR(r *PendingRAR) {
	s.pendingRAR = append(s.pendingRAR, r)
}

// sortedActiveUEs orders registered, active UEs by the tie-break rule
// spec.md §9's Open Question resolves: pending-bytes descending, then
// least-recently-served ascending, then UE index ascending for a
// deterministic, stable round-robin-after-weighting order.
func (s *Scheduler) sortedActiveUEs(now slot.Point, dl bool) []*Context {
	var out []*Context
	for _, idx := range s.order {
		c := s.ues[idx]
		if c == nil || c.State == Inactive {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var aBytes, bBytes uint32
		var aLast, bLast slot.Point
		if dl {
			aBytes, bBytes = a.PendingDLBytes, b.PendingDLBytes
			aLast, bLast = a.lastServedDL, b.lastServedDL
		} else {
			aBytes, bBytes = a.PendingULBytes, b.PendingULBytes
			aLast, bLast = a.lastServedUL, b.lastServedUL
		}
		if aBytes != bBytes {
			return aBytes > bBytes
		}
		da := now.Sub(aLast)
		db := now.Sub(bLast)
		if da != db {
			return da > db // larger gap since last served goes first
		}
		return a.UEIndex < b.UEIndex
	})
	return out
}

// RunSlot executes the four ordered passes for slot t, then the HARQ
// feedback-timeout pass, and returns the committed decision. t must
// already have been exposed by the grid's SlotIndication.
func (s *Scheduler) RunSlot(ctx context.Context, t slot.Point) (*SchedResult, error) {
	ctx, span := s.tracer.Start(ctx, "Scheduler.RunSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot", t.String()))

	sa, err := s.grid.Allocator(t)
	if err != nil {
		return nil, err
	}

	res := &SchedResult{Slot: t}

	s.runBroadcastPass(t, sa, res)
	s.runRAPass(t, sa, res)
	s.runDLPass(t, sa, res)
	s.runULPass(t, sa, res)
	s.runUCIPass(t, sa, res)
	s.runHARQTimeoutPass(t, res)

	return res, nil
}

// runBroadcastPass books the standards-mandated SSB and SIB1 broadcast
// footprint ahead of everything else in pass (a), since these
// allocations are not subject to UE scheduling priority. No more than
// sched.MaxSSBPerSlot beams are booked in one slot.
func (s *Scheduler) runBroadcastPass(t slot.Point, sa *grid.SlotAllocator, res *SchedResult) {
	if s.cfg.SSBPeriodSlots > 0 && uint32(t.SlotIndex())%s.cfg.SSBPeriodSlots == 0 {
		beams := s.cfg.SSBBeams
		if int(beams) > sched.MaxSSBPerSlot {
			beams = uint8(sched.MaxSSBPerSlot)
		}
		for i := uint8(0); i < beams; i++ {
			rbs, ok := sa.FindFree(grid.Downlink, s.cfg.SSBSymbols, 1)
			if !ok {
				break
			}
			if !sa.Reserve(grid.Downlink, rbs, s.cfg.SSBSymbols, 0, 0) {
				break
			}
			res.SSBGrants = append(res.SSBGrants, SSBGrant{
				Index:   i,
				RBs:     rbs,
				Symbols: s.cfg.SSBSymbols,
			})
		}
	}

	if s.cfg.SIB1PeriodSlots > 0 && uint32(t.SlotIndex())%s.cfg.SIB1PeriodSlots == 0 {
		rbs, ok := sa.FindFree(grid.Downlink, s.cfg.SIB1Symbols, 4)
		if ok && sa.Reserve(grid.Downlink, rbs, s.cfg.SIB1Symbols, 0, 0) {
			res.SIBGrants = append(res.SIBGrants, SIBGrant{
				RBs:     rbs,
				Symbols: s.cfg.SIB1Symbols,
			})
		}
	}
}

// runRAPass services pending RARs (pass a): allocates a RAR PDSCH plus
// its embedded Msg3 UL grant for each outstanding preamble whose
// response window has not expired, dropping and logging expired ones.
// No more than sched.MaxRARPerSlot preambles are serviced in one slot;
// the rest carry over to the next.
func (s *Scheduler) runRAPass(t slot.Point, sa *grid.SlotAllocator, res *SchedResult) {
	var remaining []*PendingRAR
	for _, r := range s.pendingRAR {
		if r.Expired(t) {
			s.logger.Warn("RA response window expired, dropping preamble",
				zap.Uint16("ra_rnti", r.RARNTI),
				zap.Uint8("preamble", r.PreambleIndex),
			)
			continue
		}

		if len(res.RARGrants) >= sched.MaxRARPerSlot {
			remaining = append(remaining, r)
			continue
		}

		rbs, ok := sa.FindFree(grid.Downlink, s.cfg.PDSCHSymbols, 1)
		if !ok {
			remaining = append(remaining, r)
			continue
		}
		if !sa.Reserve(grid.Downlink, rbs, s.cfg.PDSCHSymbols, 0, 0) {
			remaining = append(remaining, r)
			continue
		}
		res.RARGrants = append(res.RARGrants, RARGrant{
			RARNTI:      r.RARNTI,
			PreambleIdx: r.PreambleIndex,
			TempCRNTI:   r.TempCRNTI,
			RBs:         rbs,
			Symbols:     s.cfg.PDSCHSymbols,
		})

		msg3Slot := t.Add(s.cfg.K2ULDelay)
		msg3Sa, err := s.grid.Allocator(msg3Slot)
		if err != nil {
			continue
		}
		ulRBs, ok := msg3Sa.FindFree(grid.Uplink, s.cfg.PUSCHSymbols, 1)
		if !ok || !msg3Sa.Reserve(grid.Uplink, ulRBs, s.cfg.PUSCHSymbols, 0, 0) {
			continue
		}
		res.Msg3Grants = append(res.Msg3Grants, Msg3Grant{
			TempCRNTI: r.TempCRNTI,
			Slot:      msg3Slot,
			RBs:       ulRBs,
			Symbols:   s.cfg.PUSCHSymbols,
		})
	}
	s.pendingRAR = remaining
}

// runDLPass is pass (b): for each active UE in priority order, replay
// any armed retransmission first, else size a new grant from pending
// bytes, place it in PDCCH and the resource grid, and arm the HARQ
// process and its feedback bookkeeping.
func (s *Scheduler) runDLPass(t slot.Point, sa *grid.SlotAllocator, res *SchedResult) {
	for _, c := range s.sortedActiveUEs(t, true) {
		if c.HARQ == nil {
			continue
		}

		retx, isRetx := c.HARQ.FirstRetxEligibleDL()
		var proc *harq.DLProcess
		var mcs uint8
		var nRB uint16
		var newData bool

		if isRetx {
			proc = retx
			mcs = proc.LastMCS
			nRB = proc.LastRBs.Len()
			newData = false
		} else {
			if c.PendingDLBytes == 0 {
				continue
			}
			baseMCS := BaseMCSFromCQI(c.Channel.WidebandCQI, c.MCSTable)
			mcs = c.DLLinkAdapt.EffectiveMCS(baseMCS, MaxMCSIndex(c.MCSTable))
			nRB = RequiredRBCount(c.PendingDLBytes, mcs, s.cfg.PDSCHSymbols.Len(), c.MCSTable, s.cfg.PDSCHNofRBs.Max)
			nRB = c.DLGrantLimit.Clamp(s.cfg.PDSCHNofRBs.Clamp(nRB))
			if nRB == 0 {
				continue
			}
			p, err := c.HARQ.AllocateNewDL(s.cfg.MaxDLRetx)
			if err != nil {
				res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
				continue
			}
			proc = p
			newData = true
		}

		rbs, ok := sa.FindFree(grid.Downlink, s.cfg.PDSCHSymbols, nRB)
		if !ok {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}

		ss, al, err := s.selectDLSearchSpaceAndLevel(c, t)
		if err != nil {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}
		_, _, err = pdcch.Allocate(sa, ss, c.CRNTI, uint32(t.SlotIndex()), al)
		if err != nil {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}

		if !sa.Reserve(grid.Downlink, rbs, s.cfg.PDSCHSymbols, c.UEIndex, proc.ID) {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}

		tbsBytes := TBSBytes(mcs, nRB, s.cfg.PDSCHSymbols.Len(), c.MCSTable)
		feedbackSlot := t.Add(s.cfg.K1FeedbackDelay)
		expectedBits := 1
		c.HARQ.StartDLTx(proc, t, feedbackSlot, mcs, rbs, tbsBytes, expectedBits, isRetx)

		fmt10 := Format1_0{
			MCS:         mcs,
			RV:          proc.RV,
			NDI:         proc.NDI,
			HARQProcess: proc.ID,
		}
		c.lastServedDL = t
		if newData {
			if tbsBytes >= c.PendingDLBytes {
				c.PendingDLBytes = 0
			} else {
				c.PendingDLBytes -= tbsBytes
			}
		}

		res.DLGrants = append(res.DLGrants, DLGrant{
			UEIndex:      c.UEIndex,
			CRNTI:        c.CRNTI,
			RBs:          rbs,
			Symbols:      s.cfg.PDSCHSymbols,
			MCS:          mcs,
			TBSBytes:     tbsBytes,
			HARQProcess:  proc.ID,
			NewData:      newData,
			FeedbackSlot: feedbackSlot,
			DCI:          dci.NewFallbackDL(fmt10),
		})
	}
}

// selectDLSearchSpaceAndLevel picks the first eligible DL search space
// with a configured aggregation level for c's current channel quality,
// restricting to common search spaces while in fallback (spec.md §4.4b).
func (s *Scheduler) selectDLSearchSpaceAndLevel(c *Context, t slot.Point) (pdcch.SearchSpace, pdcch.AggregationLevel, error) {
	spaces := c.EffectiveDLSearchSpaces()
	var lastErr error
	for _, ss := range spaces {
		al, err := pdcch.SelectAggregationLevel(c.Channel.WidebandCQI, dci.Format10, 40, ss)
		if err != nil {
			lastErr = err
			continue
		}
		return ss, al, nil
	}
	if lastErr == nil {
		lastErr = errs.ErrNoPDCCHCandidate
	}
	return pdcch.SearchSpace{}, 0, lastErr
}

// runULPass is pass (c), the uplink mirror of pass (b): it additionally
// enforces the per-slot UL grant budget and attaches the per-UE TPC
// command (spec.md §4.4c).
func (s *Scheduler) runULPass(t slot.Point, sa *grid.SlotAllocator, res *SchedResult) {
	granted := 0
	for _, c := range s.sortedActiveUEs(t, false) {
		if granted >= s.cfg.MaxULGrantsPerSlot {
			break
		}
		if c.HARQ == nil {
			continue
		}

		retx, isRetx := c.HARQ.FirstRetxEligibleUL()
		var proc *harq.ULProcess
		var mcs uint8
		var nRB uint16
		var newData bool

		if isRetx {
			proc = retx
			mcs = proc.LastMCS
			nRB = proc.LastRBs.Len()
			newData = false
		} else {
			if c.PendingULBytes == 0 {
				continue
			}
			baseMCS := BaseMCSFromCQI(c.Channel.WidebandCQI, c.MCSTable)
			mcs = c.ULLinkAdapt.EffectiveMCS(baseMCS, MaxMCSIndex(c.MCSTable))
			nRB = RequiredRBCount(c.PendingULBytes, mcs, s.cfg.PUSCHSymbols.Len(), c.MCSTable, s.cfg.PUSCHNofRBs.Max)
			nRB = c.ULGrantLimit.Clamp(s.cfg.PUSCHNofRBs.Clamp(nRB))
			if nRB == 0 {
				continue
			}
			p, err := c.HARQ.AllocateNewUL(s.cfg.MaxULRetx)
			if err != nil {
				res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
				continue
			}
			proc = p
			newData = true
		}

		rbs, ok := sa.FindFree(grid.Uplink, s.cfg.PUSCHSymbols, nRB)
		if !ok {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}
		if !sa.Reserve(grid.Uplink, rbs, s.cfg.PUSCHSymbols, c.UEIndex, proc.ID) {
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}

		tbsBytes := TBSBytes(mcs, nRB, s.cfg.PUSCHSymbols.Len(), c.MCSTable)
		c.HARQ.StartULTx(proc, t, mcs, rbs, tbsBytes, isRetx)

		lastSINR, haveSINR := c.Channel.LastPUSCHSINR()
		var sinrPtr *float32
		if haveSINR {
			sinrPtr = &lastSINR
		}
		tpc := c.PowerCtrl.NextTPC(sinrPtr)

		c.lastServedUL = t
		if newData {
			if tbsBytes >= c.PendingULBytes {
				c.PendingULBytes = 0
			} else {
				c.PendingULBytes -= tbsBytes
			}
		}

		fmt00 := Format0_0{
			MCS:         mcs,
			RV:          proc.RV,
			NDI:         proc.NDI,
			HARQProcess: proc.ID,
			TPC:         int8(tpc),
		}
		res.ULGrants = append(res.ULGrants, ULGrant{
			UEIndex:     c.UEIndex,
			CRNTI:       c.CRNTI,
			RBs:         rbs,
			Symbols:     s.cfg.PUSCHSymbols,
			MCS:         mcs,
			TBSBytes:    tbsBytes,
			HARQProcess: proc.ID,
			NewData:     newData,
			TPC:         tpc,
			DCI:         dci.NewFallbackUL(fmt00),
		})
		granted++
	}
}

// runUCIPass is pass (d): every UE with HARQ-ACK due at slot t gets it
// multiplexed onto a PUSCH already granted to it this slot whenever one
// exists (spec.md §4.4d), otherwise a dedicated PUCCH resource, subject
// to the per-slot PUCCH budget.
func (s *Scheduler) runUCIPass(t slot.Point, sa *grid.SlotAllocator, res *SchedResult) {
	for _, idx := range s.order {
		c := s.ues[idx]
		if c == nil || c.State == Inactive || c.HARQ == nil {
			continue
		}
		waiting := c.HARQ.DLProcessesWaitingACK(t)
		if len(waiting) == 0 {
			continue
		}
		procIDs := make([]uint8, len(waiting))
		for i, p := range waiting {
			procIDs[i] = p.ID
		}

		if pusch := sa.GrantsFor(grid.Uplink, c.UEIndex); len(pusch) > 0 {
			s.multiplexUCIOntoGrant(res, c.UEIndex, procIDs)
			continue
		}

		if s.pucchCount[t] >= s.cfg.MaxPUCCHsPerSlot {
			s.logger.Debug("PUCCH budget exhausted, UCI deferred",
				zap.String("slot", t.String()),
				zap.Uint16("ue_index", c.UEIndex),
			)
			res.SkippedUEs = append(res.SkippedUEs, c.UEIndex)
			continue
		}

		format := PUCCHFormat0or1
		if len(procIDs) > 2 {
			format = PUCCHFormat2
		}
		res.PUCCHGrants = append(res.PUCCHGrants, PUCCHGrant{
			UEIndex:       c.UEIndex,
			Slot:          t,
			Format:        format,
			HARQProcesses: procIDs,
		})
		s.pucchCount[t]++
	}
}

// runHARQTimeoutPass finalizes every DL/UL HARQ process whose feedback
// was due at slot t but never arrived — whether because no PUCCH/PUSCH
// resource could be booked for it (the PUCCH budget was exhausted in
// runUCIPass) or because a resource was booked but the expected
// HARQ-ACK/CRC indication simply never reached drainInbox. Treating a
// missed deadline as a full NACK (spec.md §4.2) is what keeps a UE's
// fixed-size HARQ-process pool from leaking a process that can never be
// reused. Any feedback queued for slot t was already applied earlier in
// this tick's drainInbox, so a process still PendingFeedback with
// FeedbackSlot == t here is genuinely overdue, never one that is about
// to be acked.
func (s *Scheduler) runHARQTimeoutPass(t slot.Point, res *SchedResult) {
	for _, idx := range s.order {
		c := s.ues[idx]
		if c == nil || c.HARQ == nil {
			continue
		}
		for _, p := range c.HARQ.DLProcesses() {
			if p.State != harq.PendingFeedback || !p.FeedbackSlot.Equal(t) {
				continue
			}
			if done, outcome := c.HARQ.TimeoutDL(p, t); done {
				res.TimedOutDL = append(res.TimedOutDL, HARQTimeoutEvent{UEIndex: c.UEIndex, Outcome: outcome})
			}
		}
		for _, p := range c.HARQ.ULProcesses() {
			if p.State != harq.PendingFeedback || !p.FeedbackSlot.Equal(t) {
				continue
			}
			if done, outcome := c.HARQ.TimeoutUL(p, t); done {
				res.TimedOutUL = append(res.TimedOutUL, HARQTimeoutEvent{UEIndex: c.UEIndex, Outcome: outcome})
			}
		}
	}
}

// multiplexUCIOntoGrant attaches HARQ-ACK process ids to a UE's
// already-committed PUSCH grant for this slot instead of booking a
// separate PUCCH resource.
func (s *Scheduler) multiplexUCIOntoGrant(res *SchedResult, ueIndex uint16, procIDs []uint8) {
	for i := range res.ULGrants {
		if res.ULGrants[i].UEIndex == ueIndex {
			res.ULGrants[i].UCIOnPUSCH = append(res.ULGrants[i].UCIOnPUSCH, procIDs...)
			return
		}
	}
}
