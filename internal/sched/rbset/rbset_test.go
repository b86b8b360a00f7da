package rbset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_ReserveNoOverlap(t *testing.T) {
	b := NewBitmap(52)
	ok := b.Reserve(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 0, Stop: 14})
	require.True(t, ok)

	// Disjoint RB range at the same symbols must still succeed.
	ok = b.Reserve(Interval{Start: 10, Stop: 20}, SymbolRange{Start: 0, Stop: 14})
	assert.True(t, ok)
}

func TestBitmap_ReserveOverlapFails(t *testing.T) {
	b := NewBitmap(52)
	require.True(t, b.Reserve(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 0, Stop: 14}))

	ok := b.Reserve(Interval{Start: 5, Stop: 15}, SymbolRange{Start: 0, Stop: 14})
	assert.False(t, ok, "overlapping reservation must fail atomically")

	// Failed reservation must not have partially marked the grid.
	assert.True(t, b.Free(Interval{Start: 10, Stop: 15}, SymbolRange{Start: 0, Stop: 14}))
}

func TestBitmap_SymbolDisjointRBsOverlapOK(t *testing.T) {
	b := NewBitmap(52)
	require.True(t, b.Reserve(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 0, Stop: 7}))
	ok := b.Reserve(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 7, Stop: 14})
	assert.True(t, ok)
}

func TestBitmap_Reset(t *testing.T) {
	b := NewBitmap(52)
	require.True(t, b.Reserve(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 0, Stop: 14}))
	b.Reset()
	assert.True(t, b.Free(Interval{Start: 0, Stop: 10}, SymbolRange{Start: 0, Stop: 14}))
}

func TestInterval_Overlaps(t *testing.T) {
	a := Interval{Start: 0, Stop: 10}
	b := Interval{Start: 9, Stop: 20}
	c := Interval{Start: 10, Stop: 20}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
}
