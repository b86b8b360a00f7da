package ue

// Package-level constants for the standards-derived PRB/TBS
// approximation spec.md §4.4.(b).3 calls for: "from pending DL bytes,
// compute required RB count via a standards-derived PRB/TBS table
// using the UE's MCS table ... the DM-RS overhead, and the allowed
// PDSCH symbol range."

const (
	subcarriersPerRB = 12
	// dmrsOverheadREsPerRB is a flat per-RB DM-RS overhead deduction
	// (TS 38.214 §5.1.3.2 accounts for this precisely per DM-RS
	// configuration; this is a fixed approximation of one DM-RS symbol
	// worth of REs per RB).
	dmrsOverheadREsPerRB = subcarriersPerRB
)

// spectralEfficiency returns an approximate bits-per-RE spectral
// efficiency for mcs index in table, monotonically increasing with mcs
// and with the table's modulation order, approximating TS 38.214 Table
// 5.1.3.1-1/2/3 closely enough to drive RB-count sizing.
func spectralEfficiency(mcs uint8, table MCSTable) float64 {
	maxMCS := float64(MaxMCSIndex(table))
	if maxMCS == 0 {
		return 0
	}
	var maxBitsPerRE float64
	switch table {
	case MCSTableQAM256:
		maxBitsPerRE = 7.4063 // 256QAM, code rate ~0.93
	case MCSTableQAM64LowSE:
		maxBitsPerRE = 2.5703 // 64QAM, low spectral-efficiency table
	default:
		maxBitsPerRE = 5.5547 // 64QAM
	}
	frac := float64(mcs) / maxMCS
	return frac * maxBitsPerRE
}

// TBSBytes returns the approximate transport block size, in bytes, for
// nRB resource blocks over nSymbols OFDM symbols at mcs in table.
func TBSBytes(mcs uint8, nRB uint16, nSymbols uint8, table MCSTable) uint32 {
	se := spectralEfficiency(mcs, table)
	resPerRB := float64(nSymbols)*subcarriersPerRB - dmrsOverheadREsPerRB
	if resPerRB < 0 {
		resPerRB = 0
	}
	bits := se * resPerRB * float64(nRB)
	return uint32(bits / 8)
}

// RequiredRBCount returns the smallest RB count whose TBS can carry
// pendingBytes at mcs/nSymbols/table, bounded by maxRB (the bandwidth
// part width).
func RequiredRBCount(pendingBytes uint32, mcs uint8, nSymbols uint8, table MCSTable, maxRB uint16) uint16 {
	if pendingBytes == 0 {
		return 0
	}
	for n := uint16(1); n <= maxRB; n++ {
		if TBSBytes(mcs, n, nSymbols, table) >= pendingBytes {
			return n
		}
	}
	return maxRB
}
