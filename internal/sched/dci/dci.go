// Package dci models Downlink Control Information as a closed, tagged
// union dispatched by exhaustive match, per spec.md §9's guidance for
// "visitor-style polymorphism" and grounded in srsRAN's
// dci_dl_info/dci_ul_info variants (scheduler_slot_handler.h).
package dci

// Format identifies one of the four DCI formats the scheduler emits.
// The set is closed: no fifth format is added at runtime.
type Format uint8

const (
	// Format00 is a fallback UL grant (TS 38.212 §7.3.1.1.1).
	Format00 Format = iota
	// Format01 is a non-fallback UL grant.
	Format01
	// Format10 is a fallback DL grant (used for RAR/Msg4/paging too).
	Format10
	// Format11 is a non-fallback DL grant.
	Format11
)

func (f Format) String() string {
	switch f {
	case Format00:
		return "0_0"
	case Format01:
		return "0_1"
	case Format10:
		return "1_0"
	case Format11:
		return "1_1"
	default:
		return "unknown"
	}
}

// PayloadBits returns the number of bits the given format's payload
// occupies for a UE with frequencyDomainBits resource-allocation bits.
// Fallback formats (0_0/1_0) carry a compact, UE-agnostic payload;
// non-fallback formats (0_1/1_1) add MCS-table selection, antenna port
// and precoding fields, so their payload grows with UE capability.
// This is the "DCI payload size" spec.md §4.3 says the PDCCH aggregation
// mapping depends on.
func (f Format) PayloadBits(frequencyDomainBits int) int {
	const fixedOverhead = 16 // identifier, HARQ process, RV, NDI, TPC, padding
	switch f {
	case Format00, Format10:
		return fixedOverhead + frequencyDomainBits
	case Format01, Format11:
		return fixedOverhead + frequencyDomainBits + 10 // precoding/antenna/MCS-table fields
	default:
		return fixedOverhead + frequencyDomainBits
	}
}

// DL is the tagged union of downlink control information. Exactly one
// of Fmt10/Fmt11 is populated, selected by Format.
type DL struct {
	Format Format
	Fmt10  *Format1_0
	Fmt11  *Format1_1
}

// Format1_0 is the fallback DL grant payload (used for RAR, Msg4,
// paging and any UE still in fallback mode per spec.md §3's UE-context
// invariant).
type Format1_0 struct {
	FreqDomainAssignment uint32
	TimeDomainAssignment uint8
	VRBToPRBMapping      bool
	MCS                  uint8
	NDI                  bool
	RV                   uint8
	HARQProcess          uint8
	TPCPUCCH             int8
	PUCCHResourceIndic   uint8
	PDSCHToHARQFeedback  uint8
}

// Format1_1 is the non-fallback DL grant payload, carrying the
// additional antenna-port/precoding/MCS-table fields a UE-dedicated
// PDSCH configuration enables.
type Format1_1 struct {
	Format1_0
	MCSTable          uint8 // index into {qam64, qam256, qam64LowSE}
	AntennaPorts      uint8
	PrecodingInfo     uint8
	TransmissionLayers uint8
}

// NewFallbackDL builds a DL DCI in format 1_0.
func NewFallbackDL(f Format1_0) DL {
	fc := f
	return DL{Format: Format10, Fmt10: &fc}
}

// NewDedicatedDL builds a DL DCI in format 1_1.
func NewDedicatedDL(f Format1_1) DL {
	fc := f
	return DL{Format: Format11, Fmt11: &fc}
}

// HARQProcess returns the HARQ process id this grant targets, regardless
// of which format variant is populated.
func (d DL) HARQProcess() uint8 {
	switch d.Format {
	case Format10:
		return d.Fmt10.HARQProcess
	case Format11:
		return d.Fmt11.HARQProcess
	default:
		return 0
	}
}

// MCS returns the scheduled MCS index, regardless of format variant.
func (d DL) MCS() uint8 {
	switch d.Format {
	case Format10:
		return d.Fmt10.MCS
	case Format11:
		return d.Fmt11.MCS
	default:
		return 0
	}
}

// UL is the tagged union of uplink control information.
type UL struct {
	Format Format
	Fmt00  *Format0_0
	Fmt01  *Format0_1
}

// Format0_0 is the fallback UL grant payload.
type Format0_0 struct {
	FreqDomainAssignment uint32
	TimeDomainAssignment uint8
	FrequencyHopping     bool
	MCS                  uint8
	NDI                  bool
	RV                   uint8
	HARQProcess          uint8
	TPC                  int8
}

// Format0_1 is the non-fallback UL grant payload.
type Format0_1 struct {
	Format0_0
	MCSTable     uint8
	AntennaPorts uint8
	SRSRequest   uint8
}

// NewFallbackUL builds an UL DCI in format 0_0.
func NewFallbackUL(f Format0_0) UL {
	fc := f
	return UL{Format: Format00, Fmt00: &fc}
}

// NewDedicatedUL builds an UL DCI in format 0_1.
func NewDedicatedUL(f Format0_1) UL {
	fc := f
	return UL{Format: Format01, Fmt01: &fc}
}

// HARQProcess returns the HARQ process id this grant targets.
func (u UL) HARQProcess() uint8 {
	switch u.Format {
	case Format00:
		return u.Fmt00.HARQProcess
	case Format01:
		return u.Fmt01.HARQProcess
	default:
		return 0
	}
}
