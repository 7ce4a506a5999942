package zusiclient

import (
	"cmp"
	"sync/atomic"
)

// Phase is the fine-grained step of the connection lifecycle.
//
// The progress phases are totally ordered: Closed < Open < Hello < AckHello < NeededData
// < AckNeeded < Operation. Dispose is a teardown request and has no place in that order.
// Compare phases with Compare or Rank, never with the numeric values.
type Phase uint32

const (
	// PhaseClosed indicates that no transport is open.
	PhaseClosed Phase = 0
	// PhaseOpen indicates that the transport is connected and the reader is about to start.
	PhaseOpen Phase = 1
	// PhaseHello indicates that HELLO is being sent.
	PhaseHello Phase = 2
	// PhaseAckHello indicates that the client waits for ACK_HELLO.
	PhaseAckHello Phase = 3
	// PhaseNeededData indicates that NEEDED_DATA is being sent.
	PhaseNeededData Phase = 5
	// PhaseAckNeeded indicates that the client waits for ACK_NEEDED_DATA.
	PhaseAckNeeded Phase = 6
	// PhaseOperation indicates that the handshake completed and data is flowing.
	PhaseOperation Phase = 7
	// PhaseDispose requests the teardown of the current connection.
	PhaseDispose Phase = 8
)

var progressOrder = [...]Phase{
	PhaseClosed,
	PhaseOpen,
	PhaseHello,
	PhaseAckHello,
	PhaseNeededData,
	PhaseAckNeeded,
	PhaseOperation,
}

// String returns string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseOpen:
		return "open"
	case PhaseHello:
		return "hello"
	case PhaseAckHello:
		return "ack-hello"
	case PhaseNeededData:
		return "needed-data"
	case PhaseAckNeeded:
		return "ack-needed"
	case PhaseOperation:
		return "operation"
	case PhaseDispose:
		return "dispose"
	default:
		return "unknown"
	}
}

// Rank returns the position of p in the progress order, or -1 for Dispose and unknown phases.
func (p Phase) Rank() int {
	for i, phase := range progressOrder {
		if phase == p {
			return i
		}
	}

	return -1
}

// IsProgress returns if p is one of the progress phases Closed..Operation.
func (p Phase) IsProgress() bool { return p.Rank() >= 0 }

// Compare returns -1, 0 or +1 depending on whether p is before, equal to or after other in
// the progress order. Phases without a rank sort before Closed.
func (p Phase) Compare(other Phase) int {
	return cmp.Compare(p.Rank(), other.Rank())
}

// Next returns the successor of p in the progress order.
// It returns false for Operation, Dispose and unknown phases.
func (p Phase) Next() (Phase, bool) {
	rank := p.Rank()
	if rank < 0 || rank+1 >= len(progressOrder) {
		return p, false
	}

	return progressOrder[rank+1], true
}

// AtomicPhase is a phase cell shared by the driver and the reader goroutine.
type AtomicPhase struct {
	v atomic.Uint32
}

// Load returns the current phase.
func (a *AtomicPhase) Load() Phase {
	return Phase(a.v.Load())
}

// Advance moves the phase from `from` to its direct successor `to`.
//
// It fails if the current phase is not `from` or `to` is not the successor of `from`,
// so a concurrent teardown request is never overwritten and no phase is skipped.
func (a *AtomicPhase) Advance(from Phase, to Phase) bool {
	if next, ok := from.Next(); !ok || next != to {
		return false
	}

	return a.v.CompareAndSwap(uint32(from), uint32(to))
}

// Dispose moves the phase from `from` to Dispose. It fails if the current phase is not `from`.
func (a *AtomicPhase) Dispose(from Phase) bool {
	if from == PhaseDispose {
		return false
	}

	return a.v.CompareAndSwap(uint32(from), uint32(PhaseDispose))
}

// RequestDispose moves any progress phase after Closed to Dispose and returns the
// replaced phase. It is the only transition the reader goroutine performs.
func (a *AtomicPhase) RequestDispose() (Phase, bool) {
	for {
		cur := a.Load()
		if cur == PhaseClosed || !cur.IsProgress() {
			return cur, false
		}
		if a.v.CompareAndSwap(uint32(cur), uint32(PhaseDispose)) {
			return cur, true
		}
	}
}

// ForceDispose sets the phase to Dispose regardless of the current phase and returns the
// replaced phase.
func (a *AtomicPhase) ForceDispose() Phase {
	return Phase(a.v.Swap(uint32(PhaseDispose)))
}

// Reset moves the phase from Dispose back to Closed.
func (a *AtomicPhase) Reset() bool {
	return a.v.CompareAndSwap(uint32(PhaseDispose), uint32(PhaseClosed))
}
