package ue

import (
	"github.com/your-org/5g-network/internal/sched/dci"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
)

// DLGrant is spec.md §3's DL grant: {UE, RBs, symbols, MCS, DM-RS info,
// HARQ-id, precoding}. DM-RS/precoding detail lives in the DCI payload.
type DLGrant struct {
	UEIndex     uint16
	CRNTI       uint16
	RBs         rbset.Interval
	Symbols     rbset.SymbolRange
	MCS         uint8
	TBSBytes    uint32
	HARQProcess uint8
	NewData     bool
	FeedbackSlot slot.Point
	DCI         dci.DL
}

// ULGrant is spec.md §3's UL grant: {UE, RBs, symbols, MCS, DM-RS info,
// HARQ-id, UCI-multiplexing info}.
type ULGrant struct {
	UEIndex     uint16
	CRNTI       uint16
	RBs         rbset.Interval
	Symbols     rbset.SymbolRange
	MCS         uint8
	TBSBytes    uint32
	HARQProcess uint8
	NewData     bool
	TPC         TPCCommand
	// UCIOnPUSCH lists the DL HARQ processes whose ACK bits were
	// multiplexed onto this PUSCH instead of a PUCCH (spec.md §4.4d).
	UCIOnPUSCH []uint8
	CSIOnPUSCH bool
	DCI        dci.UL
}

// PUCCHFormat selects the PUCCH resource format a UCI placement uses
// (spec.md §4.4d): format 0/1 for up to 2 HARQ-ACK bits, format 2 for
// more or when CSI part 1 is attached.
type PUCCHFormat uint8

const (
	PUCCHFormat0or1 PUCCHFormat = iota
	PUCCHFormat2
)

// PUCCHGrant carries HARQ-ACK (and optionally CSI) bits for one UE at
// one slot.
type PUCCHGrant struct {
	UEIndex      uint16
	Slot         slot.Point
	Format       PUCCHFormat
	HARQProcesses []uint8
	CSIPart1     bool
}

// RARGrant is spec.md §3's pending-RAR-driven RAR PDSCH allocation.
type RARGrant struct {
	RARNTI       uint16
	PreambleIdx  uint8
	TempCRNTI    uint16
	RBs          rbset.Interval
	Symbols      rbset.SymbolRange
}

// Msg3Grant is the UL grant carried inside a RAR for contention
// resolution.
type Msg3Grant struct {
	TempCRNTI uint16
	Slot      slot.Point
	RBs       rbset.Interval
	Symbols   rbset.SymbolRange
}

// SSBGrant/SIBGrant book the standards-mandated broadcast positions
// (spec.md §4.4a). Left minimal: the core only needs to reserve the
// resource-grid footprint, not generate payload bits.
type SSBGrant struct {
	Index   uint8
	RBs     rbset.Interval
	Symbols rbset.SymbolRange
}

type SIBGrant struct {
	RBs     rbset.Interval
	Symbols rbset.SymbolRange
}

// SchedResult is the per-slot committed decision handed to the PHY
// (spec.md §6): dl_sched_result / ul_sched_result combined into one
// struct for the Go API, split by accessor if a caller needs the wire
// shape separately.
type SchedResult struct {
	Slot        slot.Point
	SSBGrants   []SSBGrant
	SIBGrants   []SIBGrant
	RARGrants   []RARGrant
	Msg3Grants  []Msg3Grant
	DLGrants    []DLGrant
	ULGrants    []ULGrant
	PUCCHGrants []PUCCHGrant
	// SkippedUEs records UE indices whose DL/UL grant was skipped this
	// slot due to resource exhaustion (spec.md §7: absorbed locally,
	// retried next slot).
	SkippedUEs []uint16
	// TimedOutDL and TimedOutUL record every HARQ process finalized this
	// slot because its expected feedback never arrived (spec.md §4.2's
	// timeout-as-NACK rule); the caller applies the outcome to link
	// adaptation and RLF accounting the same way it would a real
	// NACK/CRC-failure indication.
	TimedOutDL []HARQTimeoutEvent
	TimedOutUL []HARQTimeoutEvent
}

// HARQTimeoutEvent reports a HARQ process's outcome after its feedback
// deadline was missed.
type HARQTimeoutEvent struct {
	UEIndex uint16
	Outcome harq.Outcome
}
