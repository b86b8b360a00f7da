// Package slot implements the gNB's slot-point arithmetic: the
// (system-frame-number, slot-in-frame) pair every scheduler decision is
// keyed on.
package slot

import "fmt"

// NumFrames is the SFN wrap-around modulus (3GPP TS 38.331: SFN cycles
// 0..1023).
const NumFrames = 1024

// Numerology identifies one of the four supported subcarrier spacings.
// The slots-per-frame count follows directly from it (TS 38.211 §4.3.2).
type Numerology uint8

const (
	SCS15kHz Numerology = iota
	SCS30kHz
	SCS60kHz
	SCS120kHz
)

// SlotsPerFrame returns the number of slots in one 10ms radio frame for
// this numerology.
func (n Numerology) SlotsPerFrame() uint32 {
	switch n {
	case SCS15kHz:
		return 10
	case SCS30kHz:
		return 20
	case SCS60kHz:
		return 40
	case SCS120kHz:
		return 80
	default:
		return 10
	}
}

// Point is a totally-ordered (SFN, slot-in-frame) pair that wraps modulo
// NumFrames frames. Comparisons are only well-defined within a sliding
// window narrower than half the total period, matching spec.md's "Slot
// Point" data type.
type Point struct {
	numerology Numerology
	sfn        uint16 // 0..1023
	slot       uint16 // 0..SlotsPerFrame-1
}

// New constructs a Point, normalizing sfn/slotIdx into range.
func New(numerology Numerology, sfn uint32, slotIdx uint32) Point {
	spf := numerology.SlotsPerFrame()
	total := sfn*spf + slotIdx
	return fromCount(numerology, total)
}

func fromCount(numerology Numerology, count uint32) Point {
	spf := numerology.SlotsPerFrame()
	period := spf * NumFrames
	count %= period
	return Point{
		numerology: numerology,
		sfn:        uint16(count / spf),
		slot:       uint16(count % spf),
	}
}

func (p Point) count() uint32 {
	return uint32(p.sfn)*p.numerology.SlotsPerFrame() + uint32(p.slot)
}

// SFN returns the system frame number component.
func (p Point) SFN() uint16 { return p.sfn }

// SlotIndex returns the slot-in-frame component.
func (p Point) SlotIndex() uint16 { return p.slot }

// Numerology returns the numerology this point was created with.
func (p Point) Numerology() Numerology { return p.numerology }

// Add returns the slot point `n` slots ahead of p, wrapping modulo the
// full (SFN, slot) period.
func (p Point) Add(n uint32) Point {
	return fromCount(p.numerology, p.count()+n)
}

// Sub returns the signed number of slots from `other` to p: positive
// when p is after `other`, negative when it is before, assuming the two
// are less than half a period apart — the sliding-window assumption
// spec.md §3 requires for comparisons to be well-defined.
func (p Point) Sub(other Point) int32 {
	period := int64(p.numerology.SlotsPerFrame()) * NumFrames
	diff := int64(p.count()) - int64(other.count())
	if diff < 0 {
		diff += period
	}
	if diff > period/2 {
		diff -= period
	}
	return int32(diff)
}

// Before reports whether p occurs strictly before other within the
// sliding window.
func (p Point) Before(other Point) bool { return p.Sub(other) < 0 }

// After reports whether p occurs strictly after other within the
// sliding window.
func (p Point) After(other Point) bool { return p.Sub(other) > 0 }

// Equal reports value equality (numerology, sfn, slot all match).
func (p Point) Equal(other Point) bool {
	return p.numerology == other.numerology && p.sfn == other.sfn && p.slot == other.slot
}

func (p Point) String() string {
	return fmt.Sprintf("%d.%d", p.sfn, p.slot)
}
