package cell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/5g-network/internal/sched/grid"
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/pdcch"
	"github.com/your-org/5g-network/internal/sched/slot"
	"github.com/your-org/5g-network/internal/sched/ue"
)

func newTestCell(t *testing.T) (*Cell, slot.Point) {
	t.Helper()
	coresets := []grid.CORESETConfig{{ID: 0, NumCCEs: 32}}
	g := grid.New(50, 8, coresets)
	harqMgr := harq.NewManager()
	cfg := ue.DefaultCellConfig(50)
	c := New(0, cfg, g, harqMgr, nil)

	start := slot.New(slot.SCS30kHz, 0, 0)
	return c, start
}

func testSearchSpace() pdcch.SearchSpace {
	return pdcch.SearchSpace{
		ID:        0,
		CoresetID: 0,
		Common:    true,
		NumCandidates: map[pdcch.AggregationLevel]uint8{
			pdcch.AL1: 4,
			pdcch.AL4: 2,
		},
	}
}

func TestCell_SlotTickRunsSchedulerPasses(t *testing.T) {
	c, start := newTestCell(t)

	c.sched.AddUEWithEntity(1, 100, 8, 16)

	res, err := c.SlotTick(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, start, res.Slot)
}

func TestCell_FeedbackAppliedBeforeNextSlot(t *testing.T) {
	c, start := newTestCell(t)

	c.sched.AddUEWithEntity(1, 100, 8, 16)
	uCtx, ok := c.sched.UE(1)
	require.True(t, ok)
	uCtx.DLSearchSpaces = []pdcch.SearchSpace{testSearchSpace()}
	uCtx.Channel.WidebandCQI = 10
	uCtx.DLGrantLimit = ue.RBRange{Min: 1, Max: 50}
	uCtx.PendingDLBytes = 40

	res, err := c.SlotTick(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.DLGrants, 1)

	feedbackSlot := res.DLGrants[0].FeedbackSlot
	ok = c.PostFeedback(&UplinkFeedback{
		UEIndex: 1,
		Slot:    feedbackSlot,
		DLValue: harq.ACK,
	})
	require.True(t, ok)

	cur := start
	for !cur.Equal(feedbackSlot) {
		cur = cur.Add(1)
		_, err := c.SlotTick(context.Background(), cur)
		require.NoError(t, err)
	}

	_, found := uCtx.HARQ.FindDLWaitingACK(feedbackSlot, 0)
	assert.False(t, found, "ACK should already have been applied")
}

// TestCell_CQIDropCancelsRetx mirrors scenario S6: a DL HARQ process
// transmitted against CQI=12 meets a CSI report showing CQI=4 before its
// feedback arrives; the process is cancelled rather than retransmitted,
// and its bytes are re-queued for a fresh first transmission.
func TestCell_CQIDropCancelsRetx(t *testing.T) {
	c, start := newTestCell(t)

	c.sched.AddUEWithEntity(1, 100, 8, 16)
	uCtx, ok := c.sched.UE(1)
	require.True(t, ok)
	uCtx.DLSearchSpaces = []pdcch.SearchSpace{testSearchSpace()}
	uCtx.Channel.WidebandCQI = 12
	uCtx.DLGrantLimit = ue.RBRange{Min: 1, Max: 50}
	uCtx.PendingDLBytes = 40

	res, err := c.SlotTick(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.DLGrants, 1)

	feedbackSlot := res.DLGrants[0].FeedbackSlot
	proc, found := uCtx.HARQ.FindDLWaitingACK(feedbackSlot, 0)
	require.True(t, found)
	assert.Equal(t, harq.PendingFeedback, proc.State)
	require.Zero(t, uCtx.PendingDLBytes)

	ok = c.PostCSIReport(&CSIReport{UEIndex: 1, WidebandCQI: 4})
	require.True(t, ok)

	// Apply the report on its own first: the next DL pass reuses the
	// freed process for the re-queued bytes, so the cancelled state is
	// only observable between the inbox drain and that pass.
	c.drainInbox(start.Add(1))
	assert.Equal(t, harq.Empty, proc.State)
	assert.NotZero(t, uCtx.PendingDLBytes, "bytes should be re-queued for a fresh transmission")

	res2, err := c.SlotTick(context.Background(), start.Add(1))
	require.NoError(t, err)
	require.Len(t, res2.DLGrants, 1)
	assert.True(t, res2.DLGrants[0].NewData, "re-queued bytes go out as a new first transmission")
	assert.Less(t, res2.DLGrants[0].MCS, res.DLGrants[0].MCS, "the new first transmission uses the lower post-drop MCS")
}

// TestCell_MissingFeedbackTimesOut mirrors spec.md §8 invariant 2: a DL
// HARQ process whose feedback never arrives (no PostFeedback call, e.g.
// because the PUCCH budget was exhausted or the uplink report was simply
// never decoded) must not stay pending-feedback forever — by the time
// the slot loop reaches the process's feedback slot, it is finalized as
// a timeout and frees the HARQ-process pool slot.
func TestCell_MissingFeedbackTimesOut(t *testing.T) {
	c, start := newTestCell(t)

	c.sched.AddUEWithEntity(1, 100, 8, 16)
	uCtx, ok := c.sched.UE(1)
	require.True(t, ok)
	uCtx.DLSearchSpaces = []pdcch.SearchSpace{testSearchSpace()}
	uCtx.Channel.WidebandCQI = 10
	uCtx.DLGrantLimit = ue.RBRange{Min: 1, Max: 50}
	uCtx.PendingDLBytes = 40

	res, err := c.SlotTick(context.Background(), start)
	require.NoError(t, err)
	require.Len(t, res.DLGrants, 1)

	feedbackSlot := res.DLGrants[0].FeedbackSlot
	proc, found := uCtx.HARQ.FindDLWaitingACK(feedbackSlot, 0)
	require.True(t, found)

	cur := start
	for !cur.Equal(feedbackSlot) {
		cur = cur.Add(1)
		_, err := c.SlotTick(context.Background(), cur)
		require.NoError(t, err)
	}

	assert.Equal(t, harq.AwaitingRetx, proc.State, "missed feedback deadline should arm a retransmission, not leak the process")
}

func TestCell_InboxBackpressure(t *testing.T) {
	c, _ := newTestCell(t)
	c.sched.AddUEWithEntity(1, 100, 8, 16)

	ok := true
	for i := 0; i < inboxDepth+10 && ok; i++ {
		ok = c.PostCSIReport(&CSIReport{UEIndex: 1, WidebandCQI: 5})
	}
	assert.False(t, ok, "inbox should apply back-pressure once full")
}
