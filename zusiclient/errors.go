package zusiclient

import "errors"

var (
	// ErrAlreadyStarted indicates that Start was called while the client is running.
	ErrAlreadyStarted = errors.New("client already started")

	// ErrDialerNil indicates that Start was called without a dialer.
	ErrDialerNil = errors.New("dialer is nil")

	// ErrInvalidAddress indicates an empty host or a port out of range.
	ErrInvalidAddress = errors.New("invalid server address")

	// ErrInvalidClientName indicates an empty client name.
	ErrInvalidClientName = errors.New("client name is empty")
)

var (
	// ErrAckTimeout indicates that the server did not acknowledge a handshake message in time.
	ErrAckTimeout = errors.New("handshake acknowledgement timeout")

	// ErrShortWrite indicates that the transport accepted no bytes of a pending message.
	ErrShortWrite = errors.New("short write")
)

// ErrConfigNil indicates that an option was applied to a nil configuration.
var ErrConfigNil = errors.New("client config is nil")
