package ue

import "github.com/your-org/5g-network/internal/sched/rbset"

// CellConfig holds the scheduler tunables that apply to every UE on one
// cell (spec.md §3's Cell Configuration and §4.4's clamps/limits).
type CellConfig struct {
	NRB              uint16
	PDSCHSymbols     rbset.SymbolRange
	PUSCHSymbols     rbset.SymbolRange
	PDSCHNofRBs      RBRange
	PUSCHNofRBs      RBRange
	K1FeedbackDelay  uint32 // slots between a DL grant and its expected HARQ-ACK
	K2ULDelay        uint32 // slots between scheduling decision and a UL/Msg3 PUSCH
	MaxULGrantsPerSlot int
	MaxPUCCHsPerSlot   int
	RAResponseWindow   uint32
	MaxDLRetx          uint8
	MaxULRetx          uint8
	BLERTarget         float32
	LinkAdaptDelta     float32
	TargetPUSCHSINR    float32

	// CQIDropThreshold and RIDropThreshold are the "configured threshold"
	// spec.md §4.2 references: a CSI report whose wideband CQI or rank
	// falls this far below the cached value in-flight DL HARQ processes
	// were last scheduled against triggers cancel_retxs rather than
	// chasing a stale channel estimate (spec.md §8 scenario S6).
	CQIDropThreshold uint8
	RIDropThreshold  uint8

	// SSBPeriodSlots and SIB1PeriodSlots bound how often the broadcast
	// pass books SSB beams and the SIB1 repetition, mirroring the
	// standards-mandated periodicities the original scheduler reads
	// from cell configuration rather than deriving.
	SSBPeriodSlots   uint32
	SSBBeams         uint8
	SSBSymbols       rbset.SymbolRange
	SIB1PeriodSlots  uint32
	SIB1Symbols      rbset.SymbolRange
}

// DefaultCellConfig returns a reasonable set of defaults matching
// common srsRAN gNB deployment configs, used where the caller does not
// override a field.
func DefaultCellConfig(nRB uint16) CellConfig {
	return CellConfig{
		NRB:                nRB,
		PDSCHSymbols:       rbset.SymbolRange{Start: 1, Stop: 14},
		PUSCHSymbols:       rbset.SymbolRange{Start: 0, Stop: 14},
		PDSCHNofRBs:        RBRange{Min: 1, Max: nRB},
		PUSCHNofRBs:        RBRange{Min: 1, Max: nRB},
		K1FeedbackDelay:    4,
		K2ULDelay:          4,
		MaxULGrantsPerSlot: 8,
		MaxPUCCHsPerSlot:   8,
		RAResponseWindow:   10,
		MaxDLRetx:          4,
		MaxULRetx:          4,
		BLERTarget:         0.1,
		LinkAdaptDelta:     0.1,
		TargetPUSCHSINR:    10.0,
		CQIDropThreshold:   4,
		RIDropThreshold:    1,
		SSBPeriodSlots:     20,
		SSBBeams:           1,
		SSBSymbols:         rbset.SymbolRange{Start: 0, Stop: 4},
		SIB1PeriodSlots:    20,
		SIB1Symbols:        rbset.SymbolRange{Start: 0, Stop: 4},
	}
}
