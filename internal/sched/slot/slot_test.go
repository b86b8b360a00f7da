package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_AddWraps(t *testing.T) {
	p := New(SCS30kHz, 1023, 19) // last slot of last frame
	next := p.Add(1)
	assert.Equal(t, uint16(0), next.SFN())
	assert.Equal(t, uint16(0), next.SlotIndex())
}

func TestPoint_SubWithinWindow(t *testing.T) {
	a := New(SCS15kHz, 0, 0)
	b := a.Add(5)
	require.Equal(t, int32(5), b.Sub(a))
	require.Equal(t, int32(-5), a.Sub(b))
}

func TestPoint_SubAcrossSFNWrap(t *testing.T) {
	a := New(SCS15kHz, 1023, 9)
	b := a.Add(3)
	assert.Equal(t, int32(3), b.Sub(a))
	assert.True(t, b.After(a))
	assert.True(t, a.Before(b))
}

func TestPoint_Equal(t *testing.T) {
	a := New(SCS60kHz, 5, 10)
	b := New(SCS60kHz, 5, 10)
	assert.True(t, a.Equal(b))
}

func TestNumerology_SlotsPerFrame(t *testing.T) {
	assert.Equal(t, uint32(10), SCS15kHz.SlotsPerFrame())
	assert.Equal(t, uint32(20), SCS30kHz.SlotsPerFrame())
	assert.Equal(t, uint32(40), SCS60kHz.SlotsPerFrame())
	assert.Equal(t, uint32(80), SCS120kHz.SlotsPerFrame())
}
