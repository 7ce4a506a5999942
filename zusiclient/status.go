package zusiclient

// Status is the coarse connection status exposed to polling callers.
type Status uint8

const (
	// StatusClosed indicates that no connection is open.
	StatusClosed Status = iota
	// StatusConnecting indicates that a connection is being established or the handshake is running.
	StatusConnecting
	// StatusOnline indicates that the handshake completed and data is flowing.
	StatusOnline
	// StatusFaulty indicates a phase outside the expected range, for example during teardown.
	StatusFaulty
)

// String returns string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusOnline:
		return "online"
	case StatusFaulty:
		return "faulty"
	default:
		return "unknown"
	}
}

// StatusOf projects a phase onto the externally visible status.
func StatusOf(p Phase) Status {
	switch {
	case p == PhaseClosed:
		return StatusClosed
	case p == PhaseOperation:
		return StatusOnline
	case p.Compare(PhaseClosed) > 0 && p.Compare(PhaseOperation) < 0:
		return StatusConnecting
	default:
		return StatusFaulty
	}
}
