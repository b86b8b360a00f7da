// Package ue implements the UE Scheduler (spec.md §4.4): per-slot UE
// selection, link adaptation, uplink power control, and the UE context
// lifecycle state machine.
package ue

import (
	"github.com/your-org/5g-network/internal/sched/harq"
	"github.com/your-org/5g-network/internal/sched/pdcch"
	"github.com/your-org/5g-network/internal/sched/slot"
)

// State is the UE's position in the scheduler's lifecycle state machine
// (spec.md §4.4): {inactive} -> {active, fallback} -> {active,
// non-fallback} -> {inactive}.
type State uint8

const (
	Inactive State = iota
	ActiveFallback
	ActiveNonFallback
)

// MCSTable selects which PDSCH/PUSCH MCS index table a UE is configured
// with (spec.md §4.4, TS 38.214 §5.1.3.1).
type MCSTable uint8

const (
	MCSTableQAM64 MCSTable = iota
	MCSTableQAM256
	MCSTableQAM64LowSE
)

// RBRange is an inclusive-bounds RB-count clamp, e.g. a cell's
// pdsch_nof_rbs range or a UE's pdsch_grant_size_limits.
type RBRange struct {
	Min uint16
	Max uint16
}

// Clamp restricts n to [r.Min, r.Max].
func (r RBRange) Clamp(n uint16) uint16 {
	if n < r.Min {
		return r.Min
	}
	if r.Max > 0 && n > r.Max {
		return r.Max
	}
	return n
}

// ChannelState is the per-UE channel-state cache spec.md §3 names:
// wideband CQI, rank indicator, precoding-matrix indicator, and a short
// PUSCH SINR history for power control.
type ChannelState struct {
	WidebandCQI uint8
	RI          uint8
	PMI         uint8
	PUSCHSINR   []float32 // most recent last
}

// RecordPUSCHSINR appends a PUSCH SINR sample, keeping a bounded
// history.
func (c *ChannelState) RecordPUSCHSINR(snr float32) {
	const maxHistory = 8
	c.PUSCHSINR = append(c.PUSCHSINR, snr)
	if len(c.PUSCHSINR) > maxHistory {
		c.PUSCHSINR = c.PUSCHSINR[len(c.PUSCHSINR)-maxHistory:]
	}
}

// LastPUSCHSINR returns the most recent PUSCH SINR sample and whether
// one exists.
func (c *ChannelState) LastPUSCHSINR() (float32, bool) {
	if len(c.PUSCHSINR) == 0 {
		return 0, false
	}
	return c.PUSCHSINR[len(c.PUSCHSINR)-1], true
}

// Context is the per-UE scheduler context (spec.md §3's "UE Context").
type Context struct {
	UEIndex uint16
	CRNTI   uint16
	State   State

	DLSearchSpaces []pdcch.SearchSpace
	ULSearchSpaces []pdcch.SearchSpace

	MCSTable     MCSTable
	DLGrantLimit RBRange
	ULGrantLimit RBRange

	Channel ChannelState

	PendingDLBytes uint32
	PendingULBytes uint32

	HARQ *harq.Entity

	DLLinkAdapt *LinkAdaptation
	ULLinkAdapt *LinkAdaptation
	PowerCtrl   *PowerControl

	lastServedDL slot.Point
	lastServedUL slot.Point
}

// NewContext constructs a UE context. A newly-created UE is always in
// fallback mode (spec.md §3's invariant), since fallback is exited only
// after successful contention resolution and security activation.
func NewContext(ueIndex uint16, crnti uint16, entity *harq.Entity) *Context {
	return &Context{
		UEIndex:     ueIndex,
		CRNTI:       crnti,
		State:       ActiveFallback,
		HARQ:        entity,
		DLLinkAdapt: NewLinkAdaptation(0.1, 0.1),
		ULLinkAdapt: NewLinkAdaptation(0.1, 0.1),
		PowerCtrl:   NewPowerControl(10.0),
	}
}

// IsFallback reports whether the UE is currently restricted to common
// search spaces (spec.md §4.4).
func (c *Context) IsFallback() bool { return c.State == ActiveFallback }

// EffectiveDLSearchSpaces returns the search spaces this UE may use for
// DL PDCCH in its current state: the full dedicated set when not in
// fallback, or only the common-cell search spaces flagged Common,
// SupportsRAR, or SupportsPaging when in fallback (spec.md §4.4.(b).1:
// "SearchSpace#0/#1 excluded; type-1 CSS for RAR, type-3 CSS, and the
// RA/paging SS allowed").
func (c *Context) EffectiveDLSearchSpaces() []pdcch.SearchSpace {
	if !c.IsFallback() {
		return c.DLSearchSpaces
	}
	var out []pdcch.SearchSpace
	for _, ss := range c.DLSearchSpaces {
		if ss.Common || ss.SupportsRAR || ss.SupportsPaging {
			out = append(out, ss)
		}
	}
	return out
}

// EnterFallback transitions the UE into fallback mode, cancelling all
// non-fallback-mode HARQ retransmissions (spec.md §4.4).
func (c *Context) EnterFallback() {
	if c.State == ActiveFallback {
		return
	}
	c.State = ActiveFallback
	if c.HARQ != nil {
		c.HARQ.CancelAll()
	}
}

// EnterNonFallback transitions the UE out of fallback mode, cancelling
// all fallback-mode HARQ retransmissions.
func (c *Context) EnterNonFallback() {
	if c.State == ActiveNonFallback {
		return
	}
	c.State = ActiveNonFallback
	if c.HARQ != nil {
		c.HARQ.CancelAll()
	}
}

// Deactivate moves the UE to Inactive (context release path).
func (c *Context) Deactivate() { c.State = Inactive }
