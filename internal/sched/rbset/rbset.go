// Package rbset provides the half-open resource-block interval type and
// the per-slot RB x OFDM-symbol reservation bitmap spec.md §3 and §4.1
// describe.
package rbset

import "fmt"

// SymbolsPerSlot is fixed by TS 38.211 to 14 OFDM symbols per slot
// regardless of numerology.
const SymbolsPerSlot = 14

// Interval is a half-open contiguous RB range [Start, Stop), 0 <= Start
// < Stop <= N_rb, per spec.md §3.
type Interval struct {
	Start uint16
	Stop  uint16
}

// Len returns the number of RBs the interval spans.
func (i Interval) Len() uint16 { return i.Stop - i.Start }

// Empty reports whether the interval spans zero RBs.
func (i Interval) Empty() bool { return i.Stop <= i.Start }

// Overlaps reports whether i and other share at least one RB.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.Stop && other.Start < i.Stop
}

// Contains reports whether other is fully inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.Stop <= i.Stop
}

func (i Interval) String() string { return fmt.Sprintf("[%d,%d)", i.Start, i.Stop) }

// SymbolRange is a half-open OFDM symbol range [Start, Stop) within one
// slot, 0 <= Start < Stop <= SymbolsPerSlot.
type SymbolRange struct {
	Start uint8
	Stop  uint8
}

// Len returns the number of symbols the range spans.
func (r SymbolRange) Len() uint8 { return r.Stop - r.Start }

// Bitmap is a dense RB x OFDM-symbol reservation grid for one slot in
// one direction (DL or UL). Cell (rb, sym) is reserved if bit
// rb*SymbolsPerSlot+sym is set. This is the "allocation bitmap" spec.md
// §4.1 and §8 invariant 1 refer to.
type Bitmap struct {
	nRB   uint16
	cells []bool
}

// NewBitmap allocates a cleared bitmap for a cell with nRB resource
// blocks.
func NewBitmap(nRB uint16) *Bitmap {
	return &Bitmap{nRB: nRB, cells: make([]bool, int(nRB)*SymbolsPerSlot)}
}

// Reset clears every reservation, reusing the backing array.
func (b *Bitmap) Reset() {
	for i := range b.cells {
		b.cells[i] = false
	}
}

func (b *Bitmap) index(rb uint16, sym uint8) int {
	return int(rb)*SymbolsPerSlot + int(sym)
}

// Free reports whether every (rb, sym) cell covered by rbs x symbols is
// unreserved.
func (b *Bitmap) Free(rbs Interval, symbols SymbolRange) bool {
	if rbs.Stop > b.nRB || symbols.Stop > SymbolsPerSlot || rbs.Empty() {
		return false
	}
	for rb := rbs.Start; rb < rbs.Stop; rb++ {
		for s := symbols.Start; s < symbols.Stop; s++ {
			if b.cells[b.index(rb, s)] {
				return false
			}
		}
	}
	return true
}

// Reserve atomically marks rbs x symbols as reserved, failing (and
// leaving the bitmap untouched) if any covered cell is already set —
// the "reserve" operation of spec.md §4.1.
func (b *Bitmap) Reserve(rbs Interval, symbols SymbolRange) bool {
	if !b.Free(rbs, symbols) {
		return false
	}
	for rb := rbs.Start; rb < rbs.Stop; rb++ {
		for s := symbols.Start; s < symbols.Stop; s++ {
			b.cells[b.index(rb, s)] = true
		}
	}
	return true
}

// NRB returns the bitmap's resource-block width.
func (b *Bitmap) NRB() uint16 { return b.nRB }

// FindFree returns the lowest-offset contiguous RB run of width length
// that is entirely free across symbols, first-fit.
func (b *Bitmap) FindFree(symbols SymbolRange, length uint16) (Interval, bool) {
	if length == 0 || length > b.nRB {
		return Interval{}, false
	}
	for start := uint16(0); start+length <= b.nRB; start++ {
		iv := Interval{Start: start, Stop: start + length}
		if b.Free(iv, symbols) {
			return iv, true
		}
	}
	return Interval{}, false
}
