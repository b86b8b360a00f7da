// Package pdcch implements the PDCCH Allocator (spec.md §4.3): it books
// blind-decode candidates within CORESETs under aggregation-level and
// overlap constraints, tie-breaking by lowest candidate index.
package pdcch

import (
	"fmt"

	"github.com/your-org/5g-network/internal/sched/dci"
	"github.com/your-org/5g-network/internal/sched/errs"
	"github.com/your-org/5g-network/internal/sched/grid"
)

// AggregationLevel is the number of CCEs a PDCCH candidate spans. Only
// the five 3GPP-defined values are valid.
type AggregationLevel uint8

const (
	AL1  AggregationLevel = 1
	AL2  AggregationLevel = 2
	AL4  AggregationLevel = 4
	AL8  AggregationLevel = 8
	AL16 AggregationLevel = 16
)

// allLevelsAscending is the fixed, closed set of aggregation levels in
// increasing robustness order.
var allLevelsAscending = [5]AggregationLevel{AL1, AL2, AL4, AL8, AL16}

// SearchSpace names one PDCCH search space: the CORESET it books
// candidates in, the per-aggregation-level candidate counts 3GPP
// configures for it, and whether it belongs to the cell's common
// configuration (usable by a UE in fallback mode, spec.md §3/§4.4).
type SearchSpace struct {
	ID             uint8
	CoresetID      uint8
	NumCandidates  map[AggregationLevel]uint8
	Common         bool
	SupportsRAR    bool // type-1 CSS
	SupportsPaging bool // type-3/RA CSS
}

// candidatesAt returns the number of candidates configured for al in
// this search space (0 if al is not configured for it).
func (s SearchSpace) candidatesAt(al AggregationLevel) uint8 {
	return s.NumCandidates[al]
}

// hashConstants are the three 3GPP-specified multipliers PDCCH
// candidate hashing cycles through per CORESET (TS 38.213 §10.1,
// A_p for p = 0,1,2).
var hashConstants = [3]uint32{39827, 39829, 39839}

const hashModulus = 65537

// computeY evaluates the Y_{p,n_s} recurrence (TS 38.213 §10.1) for
// RNTI `rnti`, slot-within-frame `slotInFrame`, CORESET `coresetID`.
// Y_{p,-1} = rnti; Y_{p,n_s} = (A_p * Y_{p,n_s-1}) mod D.
func computeY(rnti uint16, slotInFrame uint32, coresetID uint8) uint32 {
	ap := hashConstants[int(coresetID)%len(hashConstants)]
	y := uint64(rnti)
	for i := uint32(0); i <= slotInFrame; i++ {
		y = (uint64(ap) * y) % hashModulus
	}
	return uint32(y)
}

// candidateStartCCE evaluates the first-CCE formula of TS 38.213
// §10.1 for candidate index m at aggregation level al, n_CI = 0.
func candidateStartCCE(y uint32, m uint8, al AggregationLevel, numCCE, numCandidates uint8) (uint8, bool) {
	if al == 0 || numCandidates == 0 {
		return 0, false
	}
	floorNCCEoverL := numCCE / uint8(al)
	if floorNCCEoverL == 0 {
		return 0, false
	}
	term := (uint32(m) * uint32(numCCE)) / (uint32(al) * uint32(numCandidates))
	idx := (y + term) % uint32(floorNCCEoverL)
	start := uint8(idx) * uint8(al)
	if int(start)+int(al) > int(numCCE) {
		return 0, false
	}
	return start, true
}

// Allocate finds a free candidate for rnti in search space ss at
// aggregation level al within slot allocator sa, booking it on success.
// Candidates are tried in ascending candidate-index order, so the
// lowest free index wins ties, per spec.md §4.3.
func Allocate(sa *grid.SlotAllocator, ss SearchSpace, rnti uint16, slotInFrame uint32, al AggregationLevel) (startCCE uint8, candidateIdx uint8, err error) {
	numCCE, ok := sa.CoresetNumCCE(ss.CoresetID)
	if !ok {
		return 0, 0, fmt.Errorf("pdcch: unknown coreset %d", ss.CoresetID)
	}
	numCandidates := ss.candidatesAt(al)
	if numCandidates == 0 {
		return 0, 0, fmt.Errorf("pdcch: aggregation level %d not configured for search space %d: %w", al, ss.ID, errs.ErrNoPDCCHCandidate)
	}

	y := computeY(rnti, slotInFrame, ss.CoresetID)
	for m := uint8(0); m < numCandidates; m++ {
		start, ok := candidateStartCCE(y, m, al, numCCE, numCandidates)
		if !ok {
			continue
		}
		if sa.ReservePDCCH(ss.CoresetID, start, uint8(al)) {
			return start, m, nil
		}
	}
	return 0, 0, fmt.Errorf("pdcch: no free candidate for rnti %d in search space %d at AL%d: %w", rnti, ss.ID, al, errs.ErrNoPDCCHCandidate)
}

// cqiToBaseLevel maps an effective wideband CQI (0..15) to the
// aggregation level a clean channel can get away with; worse channel
// (lower CQI) needs a higher, more robust aggregation level. The table
// itself is monotonic non-increasing in CQI.
func cqiToBaseLevel(cqi uint8) AggregationLevel {
	switch {
	case cqi >= 10:
		return AL1
	case cqi >= 7:
		return AL2
	case cqi >= 4:
		return AL4
	case cqi >= 1:
		return AL8
	default:
		return AL16
	}
}

// levelIndex returns the index of al within allLevelsAscending.
func levelIndex(al AggregationLevel) int {
	for i, v := range allLevelsAscending {
		if v == al {
			return i
		}
	}
	return 0
}

// SelectAggregationLevel picks the aggregation level for a UE with
// effective wideband CQI `cqi`, carrying a DCI of the given format and
// payload size, restricted to the levels search space ss actually
// configures candidates for (spec.md §4.3: "depends on the DCI payload
// size ... and the per-aggregation-level candidate count"). A larger
// payload needs one extra step of robustness to hold its code rate.
func SelectAggregationLevel(cqi uint8, format dci.Format, payloadBits int, ss SearchSpace) (AggregationLevel, error) {
	base := cqiToBaseLevel(cqi)
	idx := levelIndex(base)

	const largePayloadThreshold = 50
	if payloadBits > largePayloadThreshold && idx < len(allLevelsAscending)-1 {
		idx++
	}

	// Walk up to the next more robust configured level if the computed
	// one has no candidates in this search space; never walk down below
	// what CQI/payload demanded (robustness never decreases here).
	for ; idx < len(allLevelsAscending); idx++ {
		al := allLevelsAscending[idx]
		if ss.candidatesAt(al) > 0 {
			return al, nil
		}
	}
	return 0, fmt.Errorf("pdcch: no aggregation level configured for search space %d: %w", ss.ID, errs.ErrNoPDCCHCandidate)
}
