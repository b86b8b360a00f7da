package ue

// LinkAdaptation maintains the outer-loop MCS offset for one direction
// (DL or UL) of one UE (spec.md §4.4). Every ACK/NACK or CRC outcome
// nudges the offset by a bounded additive step so the effective MCS
// converges on the configured BLER target.
type LinkAdaptation struct {
	blerTarget float32
	delta      float32
	offset     float32
	maxOffset  float32
}

// NewLinkAdaptation constructs an outer-loop controller targeting
// blerTarget (e.g. 0.1 for 10%) with step size delta.
func NewLinkAdaptation(blerTarget, delta float32) *LinkAdaptation {
	return &LinkAdaptation{blerTarget: blerTarget, delta: delta, maxOffset: 15}
}

// OnSuccess applies the up-step after an ACK/CRC-OK: offset += delta.
func (l *LinkAdaptation) OnSuccess() {
	l.offset += l.delta
	l.clamp()
}

// OnFailure applies the down-step after a NACK/CRC-fail:
// offset -= delta * BLER_target/(1-BLER_target) (spec.md §4.4).
func (l *LinkAdaptation) OnFailure() {
	down := l.delta * (l.blerTarget / (1 - l.blerTarget))
	l.offset -= down
	l.clamp()
}

func (l *LinkAdaptation) clamp() {
	if l.offset > l.maxOffset {
		l.offset = l.maxOffset
	}
	if l.offset < -l.maxOffset {
		l.offset = -l.maxOffset
	}
}

// Offset returns the current outer-loop offset.
func (l *LinkAdaptation) Offset() float32 { return l.offset }

// EffectiveMCS computes base_mcs(CQI) - offset, clamped to [0, maxMCS]
// (spec.md §4.4).
func (l *LinkAdaptation) EffectiveMCS(baseMCS uint8, maxMCS uint8) uint8 {
	eff := int(baseMCS) - int(l.offset)
	if eff < 0 {
		eff = 0
	}
	if eff > int(maxMCS) {
		eff = int(maxMCS)
	}
	return uint8(eff)
}

// BaseMCSFromCQI maps a wideband CQI index (0..15, TS 38.214 table
// 5.2.2.1-3/4) to a base MCS index for the given table. The mapping is
// monotonic non-decreasing in CQI (spec.md §8 invariant 6).
func BaseMCSFromCQI(cqi uint8, table MCSTable) uint8 {
	maxMCS := MaxMCSIndex(table)
	// Linear interpolation across the 0..15 CQI range onto 0..maxMCS,
	// a standards-inspired monotonic approximation of the CQI->MCS
	// tables in TS 38.214.
	scaled := int(cqi) * int(maxMCS) / 15
	if scaled > int(maxMCS) {
		scaled = int(maxMCS)
	}
	return uint8(scaled)
}

// MaxMCSIndex returns the highest valid MCS index for the given table
// (TS 38.214 §5.1.3.1 tables: 28 for qam64/qam64LowSE, 27 for qam256).
func MaxMCSIndex(table MCSTable) uint8 {
	switch table {
	case MCSTableQAM256:
		return 27
	default:
		return 28
	}
}
