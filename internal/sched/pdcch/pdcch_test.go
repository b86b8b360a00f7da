package pdcch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schederrs "github.com/your-org/5g-network/internal/sched/errs"
	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/slot"
)

func ssAL4Only(capacity uint8) (grid.CORESETConfig, SearchSpace) {
	coreset := grid.CORESETConfig{ID: 0, NumCCEs: capacity}
	ss := SearchSpace{
		ID:            1,
		CoresetID:     0,
		NumCandidates: map[AggregationLevel]uint8{AL4: capacity / 4},
	}
	return coreset, ss
}

// TestAllocate_S5PDCCHExhaustion reproduces spec.md scenario S5: one
// CORESET with room for two AL=4 candidates (8 CCEs), three UEs all
// needing AL=4 — only two can be scheduled in the slot.
func TestAllocate_S5PDCCHExhaustion(t *testing.T) {
	coreset, ss := ssAL4Only(8)
	g := grid.New(52, 4, []grid.CORESETConfig{coreset})
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)
	sa, err := g.Allocator(t0)
	require.NoError(t, err)

	rntis := []uint16{0x4601, 0x4602, 0x4603}
	scheduled := 0
	var lastErr error
	for _, rnti := range rntis {
		_, _, err := Allocate(sa, ss, rnti, uint32(t0.SlotIndex()), AL4)
		if err == nil {
			scheduled++
		} else {
			lastErr = err
		}
	}

	assert.Equal(t, 2, scheduled, "only two of three UEs should fit in an 8-CCE CORESET at AL4")
	require.Error(t, lastErr)
	assert.True(t, errors.Is(lastErr, schederrs.ErrNoPDCCHCandidate))
}

func TestAllocate_TieBreaksByLowestCandidateIndex(t *testing.T) {
	coreset := grid.CORESETConfig{ID: 0, NumCCEs: 16}
	ss := SearchSpace{
		ID:            1,
		CoresetID:     0,
		NumCandidates: map[AggregationLevel]uint8{AL1: 8},
	}
	g := grid.New(52, 4, []grid.CORESETConfig{coreset})
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)
	sa, err := g.Allocator(t0)
	require.NoError(t, err)

	start1, idx1, err := Allocate(sa, ss, 0x4601, 0, AL1)
	require.NoError(t, err)

	// With every CCE free, candidate 0 is the lowest index and must win;
	// the CCE it booked must then read as occupied.
	assert.Equal(t, uint8(0), idx1, "lowest free candidate index must win")
	ok := sa.PDCCHFree(0, start1, 1)
	assert.False(t, ok, "just-booked CCE must read as occupied")
}

func TestSelectAggregationLevel_MonotonicInCQI(t *testing.T) {
	ss := SearchSpace{
		ID: 1,
		NumCandidates: map[AggregationLevel]uint8{
			AL1: 6, AL2: 6, AL4: 4, AL8: 2, AL16: 1,
		},
	}
	goodAL, err := SelectAggregationLevel(15, 0, 20, ss)
	require.NoError(t, err)
	badAL, err := SelectAggregationLevel(1, 0, 20, ss)
	require.NoError(t, err)

	assert.LessOrEqual(t, goodAL, badAL, "better CQI must never require a higher (less robust) aggregation level")
}

func TestSelectAggregationLevel_SkipsUnconfiguredLevel(t *testing.T) {
	ss := SearchSpace{
		ID:            1,
		NumCandidates: map[AggregationLevel]uint8{AL8: 2},
	}
	al, err := SelectAggregationLevel(15, 0, 20, ss)
	require.NoError(t, err)
	assert.Equal(t, AL8, al)
}
