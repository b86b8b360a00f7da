package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
)

func newTestGrid() *Grid {
	return New(52, 10, []CORESETConfig{{ID: 0, NumCCEs: 16}})
}

func TestGrid_ReserveThenOverlapFails(t *testing.T) {
	g := newTestGrid()
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)

	ok, err := g.Reserve(t0, Downlink, rbset.Interval{Start: 0, Stop: 10}, rbset.SymbolRange{Start: 0, Stop: 14}, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Reserve(t0, Downlink, rbset.Interval{Start: 5, Stop: 15}, rbset.SymbolRange{Start: 0, Stop: 14}, 2, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrid_OutsideWindowErrors(t *testing.T) {
	g := newTestGrid()
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)

	_, err := g.Reserve(t0.Add(20), Downlink, rbset.Interval{Start: 0, Stop: 1}, rbset.SymbolRange{Start: 0, Stop: 14}, 1, 0)
	assert.Error(t, err)
}

func TestGrid_SlotIndicationClearsExpiredSlot(t *testing.T) {
	g := newTestGrid()
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)

	ok, err := g.Reserve(t0, Downlink, rbset.Interval{Start: 0, Stop: 10}, rbset.SymbolRange{Start: 0, Stop: 14}, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// Advance one slot at a time until t0 falls out of the window and is
	// reused as the new tail slot; by then it must read as empty again.
	for i := 0; i < g.Depth(); i++ {
		g.SlotIndication(t0.Add(uint32(i + 1)))
	}

	sa, err := g.Allocator(t0.Add(uint32(g.Depth())))
	require.NoError(t, err)
	assert.True(t, sa.Free(Downlink, rbset.Interval{Start: 0, Stop: 10}, rbset.SymbolRange{Start: 0, Stop: 14}))
}

func TestGrid_PDCCHBooking(t *testing.T) {
	g := newTestGrid()
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)

	sa, err := g.Allocator(t0)
	require.NoError(t, err)

	assert.True(t, sa.ReservePDCCH(0, 0, 4))
	assert.False(t, sa.ReservePDCCH(0, 2, 4), "overlapping CCE range must fail")
	assert.True(t, sa.ReservePDCCH(0, 4, 4))
}

func TestGrid_RingStaysConsistentAcrossManyAdvances(t *testing.T) {
	g := newTestGrid()
	t0 := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(t0)

	cur := t0
	for i := 0; i < 50; i++ {
		cur = cur.Add(1)
		g.SlotIndication(cur)
		future := cur.Add(uint32(g.Depth() - 1))
		sa, err := g.Allocator(future)
		require.NoError(t, err)
		assert.True(t, sa.Slot.Equal(future))
	}
}
