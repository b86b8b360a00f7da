// Package sched provides the PCAP sidechannel collaborator the gNB
// server wires into its Cell: a write-only sink for committed
// scheduling decisions that never applies back-pressure to the slot
// loop.
package sched

import (
	"encoding/binary"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/5g-network/internal/sched/slot"
	"github.com/your-org/5g-network/internal/sched/ue"
)

// FileSink and NopPCAPSink below satisfy the cell package's PCAPSink
// capability interface structurally; they must not block the caller, a
// full or slow sink drops records rather than stall the scheduling task
// that feeds it.

// NopPCAPSink discards everything; the default when no capture sink is
// configured.
type NopPCAPSink struct{}

// WriteSlotResult satisfies cell.PCAPSink.
func (NopPCAPSink) WriteSlotResult(*ue.SchedResult) {}

// recordQueueDepth bounds the number of pending records buffered ahead
// of the drain goroutine.
const recordQueueDepth = 1024

// FileSink writes a fixed per-grant record to an io.Writer (typically a
// PCAP-like capture file) on a dedicated goroutine, decoupling the
// slot-tick caller from file I/O latency. Records are dropped, not
// queued, once recordQueueDepth is exceeded.
type FileSink struct {
	w       io.Writer
	records chan slotRecord
	done    chan struct{}
	logger  *zap.Logger

	closeOnce sync.Once
}

type slotRecord struct {
	slot     slot.Point
	dlGrants int
	ulGrants int
}

// NewFileSink starts the drain goroutine and returns a ready-to-use
// sink. Close stops the goroutine and flushes nothing further.
func NewFileSink(w io.Writer, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileSink{
		w:       w,
		records: make(chan slotRecord, recordQueueDepth),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go s.drain()
	return s
}

// WriteSlotResult implements PCAPSink. Non-blocking: a full queue drops
// the record silently, consistent with the sink's back-pressure-ignored
// contract.
func (s *FileSink) WriteSlotResult(res *ue.SchedResult) {
	if res == nil {
		return
	}
	rec := slotRecord{
		slot:     res.Slot,
		dlGrants: len(res.DLGrants),
		ulGrants: len(res.ULGrants),
	}
	select {
	case s.records <- rec:
	default:
		s.logger.Debug("pcap sink queue full, dropping slot record", zap.String("slot", res.Slot.String()))
	}
}

func (s *FileSink) drain() {
	var header [16]byte
	for {
		select {
		case rec, ok := <-s.records:
			if !ok {
				return
			}
			binary.BigEndian.PutUint32(header[0:4], uint32(rec.slot.SFN()))
			binary.BigEndian.PutUint32(header[4:8], uint32(rec.slot.SlotIndex()))
			binary.BigEndian.PutUint32(header[8:12], uint32(rec.dlGrants))
			binary.BigEndian.PutUint32(header[12:16], uint32(rec.ulGrants))
			if _, err := s.w.Write(header[:]); err != nil {
				s.logger.Warn("pcap sink write failed", zap.Error(err))
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the drain goroutine. Safe to call more than once.
func (s *FileSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
