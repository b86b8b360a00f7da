package mobility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/5g-network/internal/sched/errs"
)

// TestReestablish_S2WithDRB mirrors scenario S2: an attached UE with an
// active DRB gets its context transferred on reestablishment, and its
// old index is destroyed.
func TestReestablish_S2WithDRB(t *testing.T) {
	c := New(5*time.Second, nil)
	old := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})
	old.AMFUEID = "amf-1"
	old.HasActiveDRB = true

	newUE := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x9001})

	res, err := c.Reestablish(context.Background(), UEIdentity{PCI: 0, CRNTI: 0x4601}, newUE.UEIndex, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRRCReestablish, res.Outcome)
	assert.True(t, res.TransferDRBs)
	assert.False(t, res.ReleaseViaAMF)

	_, stillThere := c.UE(old.UEIndex)
	assert.False(t, stillThere)

	transferred, ok := c.UE(newUE.UEIndex)
	require.True(t, ok)
	assert.Equal(t, "amf-1", transferred.AMFUEID)
	assert.True(t, transferred.HasActiveDRB)
}

// TestReestablish_S3WithoutDRB mirrors scenario S3: a registered UE with
// no DRB is rejected with RRC Setup and an AMF-mediated release is
// requested; the old context lingers until the caller applies the AMF's
// release command.
func TestReestablish_S3WithoutDRB(t *testing.T) {
	c := New(5*time.Second, nil)
	old := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})
	old.AMFUEID = "amf-1"
	old.HasActiveDRB = false

	newUE := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x9002})

	res, err := c.Reestablish(context.Background(), UEIdentity{PCI: 0, CRNTI: 0x4601}, newUE.UEIndex, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRRCSetup, res.Outcome)
	assert.True(t, res.ReleaseViaAMF)
	assert.Equal(t, "amf-1", res.AMFUEID)

	_, stillThere := c.UE(old.UEIndex)
	assert.True(t, stillThere, "old context lingers until AMF release command")
}

// TestReestablish_S4UnknownUE mirrors scenario S4: a reestablishment
// request naming an identity with no matching UE falls back to RRC
// Setup without removing any existing UE.
func TestReestablish_S4UnknownUE(t *testing.T) {
	c := New(5*time.Second, nil)
	existing := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})
	newUE := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x9003})

	res, err := c.Reestablish(context.Background(), UEIdentity{PCI: 0, CRNTI: 0x4603}, newUE.UEIndex, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRRCSetup, res.Outcome)

	_, ok := c.UE(existing.UEIndex)
	assert.True(t, ok)
	_, ok = c.UE(newUE.UEIndex)
	assert.True(t, ok)
}

func TestReestablish_UnregisteredUELocalRelease(t *testing.T) {
	c := New(5*time.Second, nil)
	old := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})
	newUE := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x9004})

	res, err := c.Reestablish(context.Background(), UEIdentity{PCI: 0, CRNTI: 0x4601}, newUE.UEIndex, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRRCSetup, res.Outcome)
	assert.False(t, res.ReleaseViaAMF)

	_, ok := c.UE(old.UEIndex)
	assert.False(t, ok, "unregistered old UE is released locally")
}

func TestReestablish_ConcurrentWithHandoverRejected(t *testing.T) {
	c := New(5*time.Second, nil)
	old := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})
	old.AMFUEID = "amf-1"
	old.HasActiveDRB = true
	newUE := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x9005})

	now := time.Now()
	_, err := c.BeginInterDUHandover(old.UEIndex, UEIdentity{PCI: 1, CRNTI: 0xAAAA}, now)
	require.NoError(t, err)

	_, err = c.Reestablish(context.Background(), UEIdentity{PCI: 0, CRNTI: 0x4601}, newUE.UEIndex, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConcurrentMobilityProcedure))
}

func TestCheckTimeouts_ReleasesStalledProcedure(t *testing.T) {
	c := New(1*time.Second, nil)
	old := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})

	now := time.Now()
	_, err := c.BeginInterDUHandover(old.UEIndex, UEIdentity{PCI: 1, CRNTI: 0xBBBB}, now)
	require.NoError(t, err)

	released := c.CheckTimeouts(now.Add(2 * time.Second))
	assert.Contains(t, released, old.UEIndex)
	_, ok := c.UE(old.UEIndex)
	assert.False(t, ok)
}

func TestIntraDUHandover_MovesIdentity(t *testing.T) {
	c := New(5*time.Second, nil)
	ue := c.CreateUE(UEIdentity{PCI: 0, CRNTI: 0x4601})

	res, err := c.IntraDUHandover(ue.UEIndex, UEIdentity{PCI: 1, CRNTI: 0x4601}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandoverComplete, res.Outcome)

	rec, ok := c.UE(ue.UEIndex)
	require.True(t, ok)
	assert.Equal(t, uint16(1), rec.Identity.PCI)
}
