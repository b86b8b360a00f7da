// Package errs defines the scheduler core's sentinel errors. Per
// spec.md §7/§9, resource-exhaustion and transient radio conditions are
// explicit outcomes, never exceptions: callers check with errors.Is and
// either skip-and-retry-next-slot or drop, according to the taxonomy in
// spec.md §7.
package errs

import "errors"

var (
	// ErrNoPDCCHCandidate means the PDCCH Allocator found no free CCE
	// candidate at the requested aggregation level in any eligible
	// search space (spec.md §4.3).
	ErrNoPDCCHCandidate = errors.New("sched: no free PDCCH candidate")

	// ErrNoResourceGrid means the Resource Grid had no free RBs/symbols
	// satisfying the request (spec.md §4.1).
	ErrNoResourceGrid = errors.New("sched: resource grid exhausted")

	// ErrPUCCHBudget means the per-slot PUCCH budget (max_pucchs_per_slot)
	// was exhausted for the feedback slot in question (spec.md §4.4b.6).
	ErrPUCCHBudget = errors.New("sched: PUCCH budget exhausted for slot")

	// ErrULGrantBudget means max_ul_grants_per_slot was exhausted.
	ErrULGrantBudget = errors.New("sched: UL grant budget exhausted for slot")

	// ErrRAWindowExpired means a pending RAR's response window elapsed
	// before a RAR PDSCH + Msg3 grant could be allocated (spec.md §4.4a).
	ErrRAWindowExpired = errors.New("sched: RA response window expired")

	// ErrHARQProcessBusy means the requested HARQ process is not in a
	// state compatible with the requested operation (spec.md §3's grant
	// invariant: empty for new data, awaiting-retx for retransmission).
	ErrHARQProcessBusy = errors.New("sched: HARQ process not in compatible state")

	// ErrUENotFound means no UE context exists for the given handle.
	ErrUENotFound = errors.New("sched: UE context not found")

	// ErrUnknownReestablishUE means a reestablishment request referenced
	// an (old PCI, old C-RNTI) pair with no matching UE (spec.md §4.5
	// rule 1).
	ErrUnknownReestablishUE = errors.New("sched: reestablishment target UE unknown")

	// ErrConcurrentMobilityProcedure means a mobility procedure was
	// requested for a UE that already has one in flight (spec.md §9 open
	// question, resolved in DESIGN.md: reject rather than interleave).
	ErrConcurrentMobilityProcedure = errors.New("sched: concurrent mobility procedure for UE")
)
