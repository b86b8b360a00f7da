// Package harq implements the HARQ Manager (spec.md §4.2): per-UE pools
// of downlink and uplink HARQ processes that track in-flight transport
// blocks and drive retransmission decisions from ACK/NACK or CRC
// feedback.
package harq

import (
	"fmt"

	"github.com/your-org/5g-network/internal/sched/errs"
	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
)

// State is one of the four HARQ process states spec.md §3 names.
type State uint8

const (
	Empty State = iota
	PendingFeedback
	AwaitingRetx
	Done
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case PendingFeedback:
		return "pending-feedback"
	case AwaitingRetx:
		return "awaiting-retx"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// AckValue is one bit of HARQ-ACK feedback.
type AckValue uint8

const (
	ACK AckValue = iota
	NACK
	DTX // no signal received: treated like a NACK (spec.md §4.2).
)

// Outcome is what happened when a process's feedback completed,
// reported to the caller exactly once per completion so link adaptation
// and RLF accounting fire exactly once (spec.md §4.2).
type Outcome uint8

const (
	// OutcomeACKed: the transport block was fully acknowledged; the
	// process returns to Empty.
	OutcomeACKed Outcome = iota
	// OutcomeRetxArmed: at least one NACK/DTX arrived and max_retx was
	// not yet reached; the process moves to AwaitingRetx.
	OutcomeRetxArmed
	// OutcomeAbandoned: max_retx NACKs were reached; the process is
	// abandoned (back to Empty) and the caller must increment the
	// higher-layer radio-link-failure counter.
	OutcomeAbandoned
	// OutcomeCancelled: cancel_retxs was invoked; no failure propagates.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeACKed:
		return "acked"
	case OutcomeRetxArmed:
		return "retx_armed"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DLProcess is one downlink HARQ process (spec.md §3).
type DLProcess struct {
	ID           uint8
	State        State
	LastTBSBytes uint32
	LastMCS      uint8
	LastRBs      rbset.Interval
	RV           uint8
	NDI          bool
	TxSlot       slot.Point
	FeedbackSlot slot.Point
	RetxCount    uint8
	MaxRetx      uint8

	expected int
	received []*AckValue
}

// rvSequence is the standard RV cycling order (TS 38.212 Table
// 5.4.2.1-2): 0, 2, 3, 1.
var rvSequence = [4]uint8{0, 2, 3, 1}

func nextRV(rv uint8) uint8 {
	for i, v := range rvSequence {
		if v == rv {
			return rvSequence[(i+1)%len(rvSequence)]
		}
	}
	return rvSequence[0]
}

// ULProcess is one uplink HARQ process. Uplink feedback is a single
// CRC outcome per transmission, no spatial bundling.
type ULProcess struct {
	ID           uint8
	State        State
	LastTBSBytes uint32
	LastMCS      uint8
	LastRBs      rbset.Interval
	RV           uint8
	NDI          bool
	TxSlot       slot.Point
	FeedbackSlot slot.Point
	RetxCount    uint8
	MaxRetx      uint8
}

// Entity is the per-UE HARQ entity: one DL pool and one UL pool.
type Entity struct {
	UEIndex uint16
	dl      []*DLProcess
	ul      []*ULProcess
}

// NewEntity allocates a HARQ entity with nDL downlink and nUL uplink
// processes, all starting Empty (spec.md §3: "typically 8 DL, 16 UL").
func NewEntity(ueIndex uint16, nDL, nUL int) *Entity {
	e := &Entity{UEIndex: ueIndex}
	e.dl = make([]*DLProcess, nDL)
	for i := range e.dl {
		e.dl[i] = &DLProcess{ID: uint8(i), State: Empty}
	}
	e.ul = make([]*ULProcess, nUL)
	for i := range e.ul {
		e.ul[i] = &ULProcess{ID: uint8(i), State: Empty}
	}
	return e
}

// DLProcesses returns the entity's downlink process pool.
func (e *Entity) DLProcesses() []*DLProcess { return e.dl }

// ULProcesses returns the entity's uplink process pool.
func (e *Entity) ULProcesses() []*ULProcess { return e.ul }

// PendingFeedbackCount returns the number of DL processes currently
// waiting on feedback, used to check spec.md §8 invariant 2 against the
// configured pool size.
func (e *Entity) PendingFeedbackCount() int {
	n := 0
	for _, p := range e.dl {
		if p.State == PendingFeedback {
			n++
		}
	}
	return n
}

// AllocateNewDL returns the first Empty DL process, if any, preparing it
// for a brand-new (non-retransmission) transport block.
func (e *Entity) AllocateNewDL(maxRetx uint8) (*DLProcess, error) {
	for _, p := range e.dl {
		if p.State == Empty {
			p.MaxRetx = maxRetx
			p.RetxCount = 0
			p.RV = 0
			p.NDI = !p.NDI
			return p, nil
		}
	}
	return nil, fmt.Errorf("harq: no empty DL process for ue %d: %w", e.UEIndex, errs.ErrHARQProcessBusy)
}

// AllocateNewUL is the uplink counterpart of AllocateNewDL.
func (e *Entity) AllocateNewUL(maxRetx uint8) (*ULProcess, error) {
	for _, p := range e.ul {
		if p.State == Empty {
			p.MaxRetx = maxRetx
			p.RetxCount = 0
			p.RV = 0
			p.NDI = !p.NDI
			return p, nil
		}
	}
	return nil, fmt.Errorf("harq: no empty UL process for ue %d: %w", e.UEIndex, errs.ErrHARQProcessBusy)
}

// FirstRetxEligibleDL returns the first DL process in AwaitingRetx
// state, used by the UE Scheduler's pass (b).3 to prioritize
// retransmissions over new data.
func (e *Entity) FirstRetxEligibleDL() (*DLProcess, bool) {
	for _, p := range e.dl {
		if p.State == AwaitingRetx {
			return p, true
		}
	}
	return nil, false
}

// FirstRetxEligibleUL is the uplink counterpart.
func (e *Entity) FirstRetxEligibleUL() (*ULProcess, bool) {
	for _, p := range e.ul {
		if p.State == AwaitingRetx {
			return p, true
		}
	}
	return nil, false
}

// StartDLTx transitions process into PendingFeedback, recording the
// transmission's scheduling parameters and how many HARQ-ACK bits are
// expected back at feedbackSlot (spatial bundling, spec.md §4.2).
func (e *Entity) StartDLTx(p *DLProcess, txSlot, feedbackSlot slot.Point, mcs uint8, rbs rbset.Interval, tbsBytes uint32, expectedBits int, isRetx bool) {
	if !isRetx {
		p.RV = 0
	} else {
		p.RV = nextRV(p.RV)
	}
	p.State = PendingFeedback
	p.TxSlot = txSlot
	p.FeedbackSlot = feedbackSlot
	p.LastMCS = mcs
	p.LastRBs = rbs
	p.LastTBSBytes = tbsBytes
	p.expected = expectedBits
	p.received = make([]*AckValue, expectedBits)
}

// StartULTx is the uplink counterpart of StartDLTx (CRC feedback carries
// no bundling, so there is no expected-bit count to track).
func (e *Entity) StartULTx(p *ULProcess, txSlot slot.Point, mcs uint8, rbs rbset.Interval, tbsBytes uint32, isRetx bool) {
	if !isRetx {
		p.RV = 0
	} else {
		p.RV = nextRV(p.RV)
	}
	p.State = PendingFeedback
	p.TxSlot = txSlot
	p.FeedbackSlot = txSlot
	p.LastMCS = mcs
	p.LastRBs = rbs
	p.LastTBSBytes = tbsBytes
}

// FindDLWaitingACK returns the DL process, among those pending feedback
// at uciSlot, occupying bitIndex — UCI bits are assigned to processes in
// ascending process-ID order among all processes whose FeedbackSlot
// equals uciSlot (spec.md §6's "UCI bits multiplexed ... must all
// originate from grants whose expected feedback slot equals t").
func (e *Entity) FindDLWaitingACK(uciSlot slot.Point, bitIndex int) (*DLProcess, bool) {
	i := 0
	for _, p := range e.dl {
		if p.State == PendingFeedback && p.FeedbackSlot.Equal(uciSlot) {
			if i == bitIndex {
				return p, true
			}
			i++
		}
	}
	return nil, false
}

// DLProcessesWaitingACK returns every DL process whose feedback is due
// at uciSlot, in the same ascending-ID order FindDLWaitingACK indexes
// by — used by the UE Scheduler's UCI-placement pass (spec.md §4.4d).
func (e *Entity) DLProcessesWaitingACK(uciSlot slot.Point) []*DLProcess {
	var out []*DLProcess
	for _, p := range e.dl {
		if p.State == PendingFeedback && p.FeedbackSlot.Equal(uciSlot) {
			out = append(out, p)
		}
	}
	return out
}

// FindULWaitingACK returns the UL process expecting a CRC indication at
// puschSlot.
func (e *Entity) FindULWaitingACK(puschSlot slot.Point) (*ULProcess, bool) {
	for _, p := range e.ul {
		if p.State == PendingFeedback && p.FeedbackSlot.Equal(puschSlot) {
			return p, true
		}
	}
	return nil, false
}

// DLAckInfo records one HARQ-ACK bit for process p at bitIndex. Once
// every expected bit has arrived, the process's outcome is finalized and
// reported exactly once: a single NACK or DTX anywhere in the bundle
// forces retransmission; only a full-ACK bundle frees the process
// (spec.md §4.2). Re-delivering the same bit index is idempotent
// (spec.md §8 invariant 5): it overwrites the stored value and
// re-evaluates, producing the same terminal state.
func (e *Entity) DLAckInfo(p *DLProcess, bitIndex int, val AckValue) (done bool, outcome Outcome) {
	if p.State != PendingFeedback || bitIndex < 0 || bitIndex >= len(p.received) {
		return false, OutcomeACKed
	}
	v := val
	p.received[bitIndex] = &v

	for _, r := range p.received {
		if r == nil {
			return false, OutcomeACKed
		}
	}

	allACK := true
	for _, r := range p.received {
		if *r != ACK {
			allACK = false
			break
		}
	}
	return true, e.finalizeDL(p, allACK)
}

// TimeoutDL treats a DL process's still-missing feedback at the current
// slot as a full NACK and finalizes it, per spec.md §4.2's timeout rule.
// Returns false if p is not awaiting feedback at currentSlot or already
// complete.
func (e *Entity) TimeoutDL(p *DLProcess, currentSlot slot.Point) (bool, Outcome) {
	if p.State != PendingFeedback || !p.FeedbackSlot.Equal(currentSlot) {
		return false, OutcomeACKed
	}
	return true, e.finalizeDL(p, false)
}

func (e *Entity) finalizeDL(p *DLProcess, ack bool) Outcome {
	if ack {
		p.State = Empty
		p.received = nil
		return OutcomeACKed
	}
	p.RetxCount++
	if p.RetxCount >= p.MaxRetx {
		p.State = Empty
		p.received = nil
		return OutcomeAbandoned
	}
	p.State = AwaitingRetx
	p.received = nil
	return OutcomeRetxArmed
}

// ULCRCInfo records a CRC outcome for uplink process p, finalizing it
// immediately (no bundling). Re-delivering the same CRC result is
// idempotent: a process already back in Empty/AwaitingRetx from a prior
// identical indication is left unchanged.
func (e *Entity) ULCRCInfo(p *ULProcess, crcOK bool) Outcome {
	if p.State != PendingFeedback {
		return OutcomeACKed
	}
	if crcOK {
		p.State = Empty
		return OutcomeACKed
	}
	p.RetxCount++
	if p.RetxCount >= p.MaxRetx {
		p.State = Empty
		return OutcomeAbandoned
	}
	p.State = AwaitingRetx
	return OutcomeRetxArmed
}

// TimeoutUL is the uplink counterpart of TimeoutDL.
func (e *Entity) TimeoutUL(p *ULProcess, currentSlot slot.Point) (bool, Outcome) {
	if p.State != PendingFeedback || !p.FeedbackSlot.Equal(currentSlot) {
		return false, OutcomeACKed
	}
	return true, e.ULCRCInfo(p, false)
}

// CancelRetxs clears a pending retransmission without propagating
// failure — used when channel state degrades sharply or the UE enters
// fallback mode (spec.md §4.2).
func (e *Entity) CancelRetxs(p *DLProcess) {
	if p.State == AwaitingRetx || p.State == PendingFeedback {
		p.State = Empty
		p.received = nil
	}
}

// CancelRetxsUL is the uplink counterpart of CancelRetxs.
func (e *Entity) CancelRetxsUL(p *ULProcess) {
	if p.State == AwaitingRetx || p.State == PendingFeedback {
		p.State = Empty
	}
}

// CancelDLOnChannelDrop cancels every in-flight DL process (AwaitingRetx
// or PendingFeedback) in response to a sharp CQI/rank drop (spec.md
// §4.2, scenario S6), returning the transport-block size each cancelled
// process was carrying so the caller can re-queue those bytes for a
// fresh first transmission at the new, lower MCS.
func (e *Entity) CancelDLOnChannelDrop() []uint32 {
	var requeued []uint32
	for _, p := range e.dl {
		if p.State == AwaitingRetx || p.State == PendingFeedback {
			requeued = append(requeued, p.LastTBSBytes)
			e.CancelRetxs(p)
		}
	}
	return requeued
}

// CancelAll cancels every in-flight DL and UL process, used when a UE
// transitions between fallback and non-fallback mode (spec.md §4.4).
func (e *Entity) CancelAll() {
	for _, p := range e.dl {
		e.CancelRetxs(p)
	}
	for _, p := range e.ul {
		e.CancelRetxsUL(p)
	}
}

// Manager owns one HARQ Entity per UE.
type Manager struct {
	entities map[uint16]*Entity
}

// NewManager constructs an empty HARQ Manager.
func NewManager() *Manager {
	return &Manager{entities: make(map[uint16]*Entity)}
}

// CreateEntity allocates a new HARQ entity for ueIndex with nDL/nUL
// processes.
func (m *Manager) CreateEntity(ueIndex uint16, nDL, nUL int) *Entity {
	e := NewEntity(ueIndex, nDL, nUL)
	m.entities[ueIndex] = e
	return e
}

// Entity returns the HARQ entity for ueIndex, if one exists.
func (m *Manager) Entity(ueIndex uint16) (*Entity, bool) {
	e, ok := m.entities[ueIndex]
	return e, ok
}

// RemoveEntity drops the HARQ entity for ueIndex (UE context released).
func (m *Manager) RemoveEntity(ueIndex uint16) {
	delete(m.entities, ueIndex)
}
