package ue

import "github.com/your-org/5g-network/internal/sched/slot"

// PendingRAR is spec.md §3's "Pending RAR": one per detected preamble,
// holding the RA-RNTI, the PRACH reception slot, the response-window
// expiry, and the temporary C-RNTI to assign on success.
type PendingRAR struct {
	RARNTI        uint16
	PreambleIndex uint8
	DetectedSlot  slot.Point
	WindowExpiry  slot.Point
	TempCRNTI     uint16
}

// Expired reports whether the RA response window has elapsed as of
// `now` without the RAR having been scheduled yet.
func (r PendingRAR) Expired(now slot.Point) bool {
	return now.After(r.WindowExpiry) || now.Equal(r.WindowExpiry)
}
