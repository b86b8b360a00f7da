// Package grid implements the Resource Grid (spec.md §4.1): a
// fixed-depth ring of per-slot allocators that is the single source of
// truth for what will be transmitted on a cell.
package grid

import (
	"fmt"

	"github.com/your-org/5g-network/internal/sched/rbset"
	"github.com/your-org/5g-network/internal/sched/slot"
)

// Direction distinguishes downlink from uplink allocation.
type Direction int

const (
	Downlink Direction = iota
	Uplink
)

func (d Direction) String() string {
	if d == Downlink {
		return "DL"
	}
	return "UL"
}

// CORESETConfig names one control-resource set and its CCE capacity for
// PDCCH booking purposes (spec.md §4.3).
type CORESETConfig struct {
	ID      uint8
	NumCCEs uint8
}

// GrantRecord is an appended record of one reservation made against a
// slot allocator; it lets the scheduler re-derive "what was granted"
// without re-deriving PDCCH/PDSCH structures from the bitmap.
type GrantRecord struct {
	UEIndex     uint16
	Direction   Direction
	RBs         rbset.Interval
	Symbols     rbset.SymbolRange
	HARQProcess uint8
}

// SlotAllocator owns the DL/UL RB bitmaps, PDCCH CCE bookings and
// appended grant log for one slot.
type SlotAllocator struct {
	Slot   slot.Point
	dl     *rbset.Bitmap
	ul     *rbset.Bitmap
	pdcch  map[uint8][]bool // coreset id -> CCE occupancy
	Grants []GrantRecord
}

func newSlotAllocator(nRB uint16, coresets []CORESETConfig) *SlotAllocator {
	sa := &SlotAllocator{
		dl:    rbset.NewBitmap(nRB),
		ul:    rbset.NewBitmap(nRB),
		pdcch: make(map[uint8][]bool, len(coresets)),
	}
	for _, c := range coresets {
		sa.pdcch[c.ID] = make([]bool, c.NumCCEs)
	}
	return sa
}

func (sa *SlotAllocator) reset(s slot.Point) {
	sa.Slot = s
	sa.dl.Reset()
	sa.ul.Reset()
	for id := range sa.pdcch {
		occ := sa.pdcch[id]
		for i := range occ {
			occ[i] = false
		}
	}
	sa.Grants = sa.Grants[:0]
}

func (sa *SlotAllocator) bitmap(dir Direction) *rbset.Bitmap {
	if dir == Downlink {
		return sa.dl
	}
	return sa.ul
}

// Reserve books rbs x symbols in the given direction, appending a grant
// record on success. Fails atomically (no partial reservation) if any
// target cell is already set.
func (sa *SlotAllocator) Reserve(dir Direction, rbs rbset.Interval, symbols rbset.SymbolRange, ueIndex uint16, harqProcess uint8) bool {
	if !sa.bitmap(dir).Reserve(rbs, symbols) {
		return false
	}
	sa.Grants = append(sa.Grants, GrantRecord{
		UEIndex:     ueIndex,
		Direction:   dir,
		RBs:         rbs,
		Symbols:     symbols,
		HARQProcess: harqProcess,
	})
	return true
}

// Free reports whether rbs x symbols is available in direction dir
// without reserving it.
func (sa *SlotAllocator) Free(dir Direction, rbs rbset.Interval, symbols rbset.SymbolRange) bool {
	return sa.bitmap(dir).Free(rbs, symbols)
}

// FindFree returns the lowest-offset free contiguous RB run of the
// requested width in direction dir across symbols.
func (sa *SlotAllocator) FindFree(dir Direction, symbols rbset.SymbolRange, length uint16) (rbset.Interval, bool) {
	return sa.bitmap(dir).FindFree(symbols, length)
}

// GrantsFor returns the grant records booked for ueIndex in direction
// dir at this slot, used to detect an already-scheduled PUSCH when
// deciding HARQ-ACK/CSI multiplexing (spec.md §4.4d).
func (sa *SlotAllocator) GrantsFor(dir Direction, ueIndex uint16) []GrantRecord {
	var out []GrantRecord
	for _, g := range sa.Grants {
		if g.Direction == dir && g.UEIndex == ueIndex {
			out = append(out, g)
		}
	}
	return out
}

// ReservePDCCH books `numCCE` contiguous CCEs starting at `start` within
// `coreset`. Returns false if out of range or any CCE already booked.
func (sa *SlotAllocator) ReservePDCCH(coreset uint8, start, numCCE uint8) bool {
	occ, ok := sa.pdcch[coreset]
	if !ok || int(start)+int(numCCE) > len(occ) {
		return false
	}
	for i := start; i < start+numCCE; i++ {
		if occ[i] {
			return false
		}
	}
	for i := start; i < start+numCCE; i++ {
		occ[i] = true
	}
	return true
}

// CoresetNumCCE returns the configured CCE capacity of coreset, if
// known to this slot allocator.
func (sa *SlotAllocator) CoresetNumCCE(coreset uint8) (uint8, bool) {
	occ, ok := sa.pdcch[coreset]
	if !ok {
		return 0, false
	}
	return uint8(len(occ)), true
}

// PDCCHFree reports whether the given CCE range is free in coreset
// without booking it.
func (sa *SlotAllocator) PDCCHFree(coreset uint8, start, numCCE uint8) bool {
	occ, ok := sa.pdcch[coreset]
	if !ok || int(start)+int(numCCE) > len(occ) {
		return false
	}
	for i := start; i < start+numCCE; i++ {
		if occ[i] {
			return false
		}
	}
	return true
}

// Grid is the per-cell ring buffer of future slot allocators. Depth
// must exceed the maximum feedback delay by at least one slot (spec.md
// §4.1).
type Grid struct {
	depth    int
	nRB      uint16
	coresets []CORESETConfig
	ring     []*SlotAllocator
	cur      slot.Point
	base     int // physical ring index currently representing `cur`
	started  bool
}

// New constructs a Grid with the given RB width, ring depth, and
// CORESET configurations used for PDCCH booking capacity.
func New(nRB uint16, depth int, coresets []CORESETConfig) *Grid {
	if depth < 1 {
		depth = 1
	}
	ring := make([]*SlotAllocator, depth)
	for i := range ring {
		ring[i] = newSlotAllocator(nRB, coresets)
	}
	return &Grid{depth: depth, nRB: nRB, coresets: coresets, ring: ring}
}

// Depth returns the ring's slot depth.
func (g *Grid) Depth() int { return g.depth }

func (g *Grid) ringIndex(t slot.Point) (int, bool) {
	if !g.started {
		return 0, false
	}
	off := t.Sub(g.cur)
	if off < 0 || int(off) >= g.depth {
		return 0, false
	}
	return (g.base + int(off)) % g.depth, true
}

// SlotIndication advances the grid's write cursor to t, clearing the
// slot that newly enters the window (t + depth - 1) and exposing
// t..t+depth-1 for read/write, per spec.md §4.1. The very first call
// initializes the whole window at once.
func (g *Grid) SlotIndication(t slot.Point) {
	if !g.started {
		g.started = true
		g.cur = t
		g.base = 0
		for i := 0; i < g.depth; i++ {
			g.ring[i].reset(t.Add(uint32(i)))
		}
		return
	}

	steps := int(t.Sub(g.cur))
	if steps <= 0 {
		// Non-monotonic indication (e.g. duplicate tick); ignore.
		return
	}
	// Rotate the ring forward `steps` slots, clearing each newly
	// entering slot. Catch-up after a skipped slot (spec.md §7) simply
	// runs this loop more than once.
	for i := 0; i < steps; i++ {
		newSlot := g.cur.Add(uint32(g.depth))
		g.ring[g.base].reset(newSlot)
		g.base = (g.base + 1) % g.depth
		g.cur = g.cur.Add(1)
	}
}

// Current returns the slot point the grid was last indicated with.
func (g *Grid) Current() slot.Point { return g.cur }

// Allocator returns the slot allocator for t, if t falls within the
// grid's current [cur, cur+depth) window.
func (g *Grid) Allocator(t slot.Point) (*SlotAllocator, error) {
	idx, ok := g.ringIndex(t)
	if !ok {
		return nil, fmt.Errorf("grid: slot %s outside window [%s,%s)", t, g.cur, g.cur.Add(uint32(g.depth)))
	}
	return g.ring[idx], nil
}

// Reserve books rbs x symbols for ueIndex/harqProcess at slot t in
// direction dir. Fails if t is outside the window or the cells are
// already reserved.
func (g *Grid) Reserve(t slot.Point, dir Direction, rbs rbset.Interval, symbols rbset.SymbolRange, ueIndex uint16, harqProcess uint8) (bool, error) {
	sa, err := g.Allocator(t)
	if err != nil {
		return false, err
	}
	return sa.Reserve(dir, rbs, symbols, ueIndex, harqProcess), nil
}
