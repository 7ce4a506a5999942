package zusi

import "errors"

var (
	// ErrMalformed indicates that the received byte stream is not a valid node tree.
	// The stream cannot be resynchronised after this error.
	ErrMalformed = errors.New("malformed zusi message")

	// ErrBufferOverflow indicates that a single message does not fit into the receive buffer.
	ErrBufferOverflow = errors.New("zusi message exceeds receive buffer")

	// ErrSendBufferFull indicates that an encoded message does not fit into the send buffer.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrRejected indicates that the server answered a handshake message with a non-zero result.
	ErrRejected = errors.New("handshake rejected by server")

	// ErrInvalidValue indicates that an attribute value could not be stored into its target.
	ErrInvalidValue = errors.New("invalid attribute value")
)

var (
	// ErrNeededDataFull indicates that the needed data capacity of the session is exhausted.
	ErrNeededDataFull = errors.New("needed data capacity exceeded")

	// ErrDuplicateNeededData indicates that the (subgroup, id) pair is already registered.
	ErrDuplicateNeededData = errors.New("needed data already registered")

	// ErrNilTarget indicates that a needed data entry was registered without a target.
	ErrNilTarget = errors.New("needed data target is nil")
)
