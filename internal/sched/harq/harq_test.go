package harq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
)

func TestEntity_FullAckFreesProcess(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, err := e.AllocateNewDL(4)
	require.NoError(t, err)

	tx := slot.New(slot.SCS30kHz, 0, 0)
	fb := tx.Add(4)
	e.StartDLTx(p, tx, fb, 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 2, false)

	done, _ := e.DLAckInfo(p, 0, ACK)
	assert.False(t, done, "must wait for all bundled bits")

	done, outcome := e.DLAckInfo(p, 1, ACK)
	require.True(t, done)
	assert.Equal(t, OutcomeACKed, outcome)
	assert.Equal(t, Empty, p.State)
}

func TestEntity_SingleNackForcesRetx(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, err := e.AllocateNewDL(4)
	require.NoError(t, err)

	tx := slot.New(slot.SCS30kHz, 0, 0)
	fb := tx.Add(4)
	e.StartDLTx(p, tx, fb, 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 2, false)

	_, _ = e.DLAckInfo(p, 0, ACK)
	done, outcome := e.DLAckInfo(p, 1, NACK)
	require.True(t, done)
	assert.Equal(t, OutcomeRetxArmed, outcome)
	assert.Equal(t, AwaitingRetx, p.State)
	assert.Equal(t, uint8(1), p.RetxCount)
}

func TestEntity_DTXForcesRetx(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, _ := e.AllocateNewDL(4)
	tx := slot.New(slot.SCS30kHz, 0, 0)
	e.StartDLTx(p, tx, tx.Add(4), 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 1, false)

	done, outcome := e.DLAckInfo(p, 0, DTX)
	require.True(t, done)
	assert.Equal(t, OutcomeRetxArmed, outcome)
}

func TestEntity_AbandonAfterMaxRetx(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, _ := e.AllocateNewDL(2)
	tx := slot.New(slot.SCS30kHz, 0, 0)

	e.StartDLTx(p, tx, tx.Add(4), 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 1, false)
	done, outcome := e.DLAckInfo(p, 0, NACK)
	require.True(t, done)
	assert.Equal(t, OutcomeRetxArmed, outcome)

	e.StartDLTx(p, tx.Add(8), tx.Add(12), 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 1, true)
	done, outcome = e.DLAckInfo(p, 0, NACK)
	require.True(t, done)
	assert.Equal(t, OutcomeAbandoned, outcome)
	assert.Equal(t, Empty, p.State)
}

func TestEntity_IdempotentCRCIndication(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, _ := e.AllocateNewUL(4)
	tx := slot.New(slot.SCS30kHz, 0, 0)
	e.StartULTx(p, tx, 10, rbset.Interval{Start: 0, Stop: 10}, 1000, false)

	outcome1 := e.ULCRCInfo(p, false)
	assert.Equal(t, OutcomeRetxArmed, outcome1)
	state1 := p.State

	// Re-delivering an indication against a process no longer pending
	// feedback is idempotent: same terminal state, no second retx count.
	outcome2 := e.ULCRCInfo(p, false)
	assert.Equal(t, state1, p.State)
	assert.Equal(t, uint8(1), p.RetxCount)
	_ = outcome2
}

func TestEntity_TimeoutTreatedAsNack(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, _ := e.AllocateNewDL(4)
	tx := slot.New(slot.SCS30kHz, 0, 0)
	fb := tx.Add(4)
	e.StartDLTx(p, tx, fb, 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 2, false)

	done, outcome := e.TimeoutDL(p, fb)
	require.True(t, done)
	assert.Equal(t, OutcomeRetxArmed, outcome)
}

func TestEntity_CancelRetxsNoFailurePropagation(t *testing.T) {
	e := NewEntity(1, 8, 16)
	p, _ := e.AllocateNewDL(4)
	tx := slot.New(slot.SCS30kHz, 0, 0)
	e.StartDLTx(p, tx, tx.Add(4), 10, rbset.Interval{Start: 0, Stop: 10}, 1000, 1, false)
	_, _ = e.DLAckInfo(p, 0, NACK)
	require.Equal(t, AwaitingRetx, p.State)

	e.CancelRetxs(p)
	assert.Equal(t, Empty, p.State)
}

func TestEntity_PendingFeedbackCountRespectsPoolSize(t *testing.T) {
	e := NewEntity(1, 8, 16)
	tx := slot.New(slot.SCS30kHz, 0, 0)
	for i := 0; i < 8; i++ {
		p, err := e.AllocateNewDL(4)
		require.NoError(t, err)
		e.StartDLTx(p, tx, tx.Add(4), 10, rbset.Interval{Start: 0, Stop: 1}, 100, 1, false)
	}
	assert.Equal(t, 8, e.PendingFeedbackCount())

	_, err := e.AllocateNewDL(4)
	assert.Error(t, err, "pool exhausted, no 9th process available")
}

func TestManager_CreateAndRemoveEntity(t *testing.T) {
	m := NewManager()
	e := m.CreateEntity(5, 8, 16)
	require.NotNil(t, e)

	got, ok := m.Entity(5)
	require.True(t, ok)
	assert.Same(t, e, got)

	m.RemoveEntity(5)
	_, ok = m.Entity(5)
	assert.False(t, ok)
}
