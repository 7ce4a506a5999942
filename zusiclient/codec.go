package zusiclient

import "github.com/arloliu/go-zusi/zusi"

// Codec is the protocol codec consumed by the client.
//
// The driver goroutine uses Reset, the encoders, SendBuffer, MarkSent and AckLevel.
// The reader goroutine uses RecvBuffer and Decode. Register may be called from any
// goroutine. *zusi.Session implements Codec.
type Codec interface {
	// Reset prepares the codec for a new connection.
	Reset()
	// Register validates a needed data entry; it fails on duplicates or exhausted capacity.
	Register(subgroup uint16, id uint16, target zusi.Target) error
	// EncodeHello appends a HELLO message to the send buffer.
	EncodeHello(name string, version string) error
	// EncodeNeededData appends a NEEDED_DATA message to the send buffer.
	EncodeNeededData(entries []zusi.NeededData) error
	// SendBuffer returns the pending bytes to write.
	SendBuffer() []byte
	// MarkSent removes n written bytes from the send buffer.
	MarkSent(n int)
	// RecvBuffer returns the buffer the next read fills.
	RecvBuffer() []byte
	// Decode consumes n bytes read into RecvBuffer.
	Decode(n int) error
	// AckLevel returns how far the server acknowledged the handshake.
	AckLevel() zusi.AckLevel
}

var _ Codec = (*zusi.Session)(nil)
