package ue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/pdcch"
	"github.com/your-org/5g-network/internal/sched/slot"
)

func testSearchSpace() pdcch.SearchSpace {
	return pdcch.SearchSpace{
		ID:        0,
		CoresetID: 0,
		Common:    true,
		NumCandidates: map[pdcch.AggregationLevel]uint8{
			pdcch.AL1: 4,
			pdcch.AL2: 2,
			pdcch.AL4: 2,
			pdcch.AL8: 1,
		},
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *grid.Grid, *harq.Manager, slot.Point) {
	t.Helper()
	coresets := []grid.CORESETConfig{{ID: 0, NumCCEs: 32}}
	g := grid.New(50, 8, coresets)
	start := slot.New(slot.SCS30kHz, 0, 0)
	g.SlotIndication(start)

	harqMgr := harq.NewManager()
	cfg := DefaultCellConfig(50)
	sched := NewScheduler(cfg, g, harqMgr, nil)
	return sched, g, harqMgr, start
}

func addTestUE(sched *Scheduler, harqMgr *harq.Manager, ueIndex, crnti uint16) *Context {
	entity := harqMgr.CreateEntity(ueIndex, 8, 16)
	c := NewContext(ueIndex, crnti, entity)
	c.DLSearchSpaces = []pdcch.SearchSpace{testSearchSpace()}
	c.ULSearchSpaces = []pdcch.SearchSpace{testSearchSpace()}
	c.Channel.WidebandCQI = 10
	c.DLGrantLimit = RBRange{Min: 1, Max: 50}
	c.ULGrantLimit = RBRange{Min: 1, Max: 50}
	sched.AddUE(c)
	return c
}

// TestScheduler_FreshUERAFlow mirrors scenario S1: a freshly-detected
// preamble gets a RAR+Msg3 grant, and once the UE context exists its
// fallback DL data is scheduled using only common search spaces.
func TestScheduler_FreshUERAFlow(t *testing.T) {
	sched, _, harqMgr, start := newTestScheduler(t)

	sched.AddPendingRAR(&PendingRAR{
		RARNTI:        1,
		PreambleIndex: 3,
		DetectedSlot:  start,
		WindowExpiry:  start.Add(10),
		TempCRNTI:     100,
	})

	res, err := sched.RunSlot(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.RARGrants, 1)
	assert.Equal(t, uint16(100), res.RARGrants[0].TempCRNTI)
	require.Len(t, res.Msg3Grants, 1)
	assert.Empty(t, sched.pendingRAR)

	c := addTestUE(sched, harqMgr, 1, 100)
	assert.True(t, c.IsFallback())
	c.PendingDLBytes = 50

	res2, err := sched.RunSlot(context.Background(), start.Add(1))
	require.NoError(t, err)
	require.Len(t, res2.DLGrants, 1)
	assert.Equal(t, uint16(1), res2.DLGrants[0].UEIndex)
	assert.Less(t, c.PendingDLBytes, uint32(50))
}

// TestScheduler_EnterFallbackCancelsHARQ checks the UE state-machine
// rule that moving a UE back into fallback cancels its in-flight HARQ
// processes without failure propagation. The CQI-drop cancellation of
// scenario S6 is exercised by cell's TestCell_CQIDropCancelsRetx.
func TestScheduler_EnterFallbackCancelsHARQ(t *testing.T) {
	sched, _, harqMgr, start := newTestScheduler(t)
	c := addTestUE(sched, harqMgr, 1, 100)
	c.EnterNonFallback()
	c.PendingDLBytes = 200

	res, err := sched.RunSlot(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.DLGrants, 1)

	proc, ok := c.HARQ.FindDLWaitingACK(res.DLGrants[0].FeedbackSlot, 0)
	require.True(t, ok)
	assert.Equal(t, harq.PendingFeedback, proc.State)

	c.EnterFallback()
	assert.Equal(t, harq.Empty, proc.State)
}

// TestScheduler_NoOverlappingGrants checks invariant 1: two UEs
// scheduled in the same DL pass never receive overlapping RB/symbol
// reservations.
func TestScheduler_NoOverlappingGrants(t *testing.T) {
	sched, _, harqMgr, start := newTestScheduler(t)
	c1 := addTestUE(sched, harqMgr, 1, 100)
	c2 := addTestUE(sched, harqMgr, 2, 101)
	c1.PendingDLBytes = 40
	c2.PendingDLBytes = 40

	res, err := sched.RunSlot(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.DLGrants, 2)

	a, b := res.DLGrants[0].RBs, res.DLGrants[1].RBs
	assert.False(t, a.Overlaps(b))
}

// TestScheduler_HARQPoolBoundRespected checks invariant 2: the number
// of DL processes pending feedback for a UE never exceeds its
// configured pool size, even across many consecutive slots of new
// data.
func TestScheduler_HARQPoolBoundRespected(t *testing.T) {
	sched, g, harqMgr, start := newTestScheduler(t)
	c := addTestUE(sched, harqMgr, 1, 100)
	c.PendingDLBytes = 1_000_000

	cur := start
	for i := 0; i < 20; i++ {
		_, err := sched.RunSlot(context.Background(), cur)
		require.NoError(t, err)
		assert.LessOrEqual(t, c.HARQ.PendingFeedbackCount(), 8)
		cur = cur.Add(1)
		g.SlotIndication(cur)
	}
}

func TestScheduler_RemoveUE(t *testing.T) {
	sched, _, harqMgr, _ := newTestScheduler(t)
	addTestUE(sched, harqMgr, 1, 100)
	sched.RemoveUE(1)
	_, ok := sched.UE(1)
	assert.False(t, ok)
	_, ok = harqMgr.Entity(1)
	assert.False(t, ok)
}
