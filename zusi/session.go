package zusi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// AckLevel tracks how far the server has acknowledged the handshake.
type AckLevel uint32

const (
	// AckNone means no handshake message has been acknowledged yet.
	AckNone AckLevel = iota
	// AckHelloOK means the server accepted HELLO.
	AckHelloOK
	// AckNeededDataOK means the server accepted NEEDED_DATA.
	AckNeededDataOK
)

// String returns string representation of the acknowledgement level.
func (l AckLevel) String() string {
	switch l {
	case AckNone:
		return "none"
	case AckHelloOK:
		return "hello-ok"
	case AckNeededDataOK:
		return "needed-data-ok"
	default:
		return "unknown"
	}
}

const (
	// DefaultRecvBufferSize is the default size of the receive buffer in bytes.
	DefaultRecvBufferSize = 1024
	// DefaultSendBufferSize is the default size of the send buffer in bytes.
	DefaultSendBufferSize = 512
	// DefaultMaxNeededData is the default number of needed data entries a session accepts.
	DefaultMaxNeededData = 128
)

// ServerInfo is the server identification received with ACK_HELLO.
type ServerInfo struct {
	ZusiVersion string
	ConnInfo    string
}

// Session is the codec state of one Zusi client.
//
// The send buffer is owned by the goroutine writing to the network and the receive buffer
// by the goroutine reading from it. AckLevel, ServerInfo and Register are safe for
// concurrent use.
type Session struct {
	sendBuf []byte
	sendCap int

	recvBuf  []byte
	recvFill int

	ackLevel   atomic.Uint32
	serverInfo atomic.Pointer[ServerInfo]

	regMu         sync.Mutex
	maxNeededData int
	targets       *xsync.MapOf[uint32, Target]

	handler DataHandler
}

// NewSession creates a session with the given buffer sizes and needed data capacity.
// Non-positive values select the defaults. handler may be nil.
func NewSession(recvSize int, sendSize int, maxNeededData int, handler DataHandler) *Session {
	if recvSize <= 0 {
		recvSize = DefaultRecvBufferSize
	}
	if sendSize <= 0 {
		sendSize = DefaultSendBufferSize
	}
	if maxNeededData <= 0 {
		maxNeededData = DefaultMaxNeededData
	}

	return &Session{
		sendBuf:       make([]byte, 0, sendSize),
		sendCap:       sendSize,
		recvBuf:       make([]byte, recvSize),
		maxNeededData: maxNeededData,
		targets:       xsync.NewMapOf[uint32, Target](),
		handler:       handler,
	}
}

func targetKey(subgroup uint16, id uint16) uint32 {
	return uint32(subgroup)<<16 | uint32(id)
}

// Register validates and records a needed data entry so that decoded values of
// (subgroup, id) are stored into target.
func (s *Session) Register(subgroup uint16, id uint16, target Target) error {
	if target == nil {
		return ErrNilTarget
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	if s.targets.Size() >= s.maxNeededData {
		return fmt.Errorf("%w: capacity %d", ErrNeededDataFull, s.maxNeededData)
	}

	if _, loaded := s.targets.LoadOrStore(targetKey(subgroup, id), target); loaded {
		return fmt.Errorf("%w: subgroup 0x%04x id 0x%04x", ErrDuplicateNeededData, subgroup, id)
	}

	return nil
}

// Reset prepares the session for a new connection. Registered targets are kept.
func (s *Session) Reset() {
	s.sendBuf = s.sendBuf[:0]
	s.recvFill = 0
	s.ackLevel.Store(uint32(AckNone))
	s.serverInfo.Store(nil)
}

// AckLevel returns the current acknowledgement level.
func (s *Session) AckLevel() AckLevel {
	return AckLevel(s.ackLevel.Load())
}

// ServerInfo returns the server identification of the last accepted ACK_HELLO, or nil.
func (s *Session) ServerInfo() *ServerInfo {
	return s.serverInfo.Load()
}

// EncodeHello appends a HELLO message to the send buffer.
func (s *Session) EncodeHello(name string, version string) error {
	return s.encode(NewHello(name, version))
}

// EncodeNeededData appends a NEEDED_DATA message listing entries to the send buffer.
// An empty list produces a NEEDED_DATA message without subgroups.
func (s *Session) EncodeNeededData(entries []NeededData) error {
	return s.encode(NewNeededDataMsg(entries))
}

func (s *Session) encode(msg *Node) error {
	if size := msg.Size(); len(s.sendBuf)+size > s.sendCap {
		return fmt.Errorf("%w: need %d bytes, %d available", ErrSendBufferFull, size, s.sendCap-len(s.sendBuf))
	}
	s.sendBuf = msg.AppendBinary(s.sendBuf)

	return nil
}

// SendBuffer returns the pending bytes that have not been sent yet.
func (s *Session) SendBuffer() []byte {
	return s.sendBuf
}

// MarkSent removes the first n pending bytes after they were written to the network.
func (s *Session) MarkSent(n int) {
	if n <= 0 {
		return
	}
	if n >= len(s.sendBuf) {
		s.sendBuf = s.sendBuf[:0]
		return
	}

	remain := copy(s.sendBuf, s.sendBuf[n:])
	s.sendBuf = s.sendBuf[:remain]
}

// RecvBuffer returns the free part of the receive buffer that the next network read fills.
func (s *Session) RecvBuffer() []byte {
	return s.recvBuf[s.recvFill:]
}

// Decode consumes n bytes that were read into RecvBuffer.
//
// Every complete message is processed: acknowledgements advance the acknowledgement level,
// data attributes are stored into their registered targets. Incomplete trailing bytes are
// kept for the next call.
//
// ErrMalformed and ErrBufferOverflow discard the buffered bytes; other errors are reported
// after all complete messages were processed.
func (s *Session) Decode(n int) error {
	if n < 0 || s.recvFill+n > len(s.recvBuf) {
		return fmt.Errorf("%w: invalid byte count %d", ErrBufferOverflow, n)
	}
	s.recvFill += n

	var errs []error
	pos := 0
	for pos < s.recvFill {
		msg, size, err := ParseNode(s.recvBuf[pos:s.recvFill])
		if err != nil {
			s.recvFill = 0
			return errors.Join(append(errs, err)...)
		}
		if msg == nil {
			break
		}

		if err := s.process(msg); err != nil {
			errs = append(errs, err)
		}
		pos += size
	}

	s.recvFill = copy(s.recvBuf, s.recvBuf[pos:s.recvFill])
	if s.recvFill == len(s.recvBuf) {
		s.recvFill = 0
		errs = append(errs, fmt.Errorf("%w: %d bytes", ErrBufferOverflow, len(s.recvBuf)))
	}

	return errors.Join(errs...)
}

func (s *Session) process(msg *Node) error {
	switch msg.ID {
	case NodeConnection:
		if ack := msg.Child(NodeAckHello); ack != nil {
			return s.processAckHello(ack)
		}

	case NodeClient:
		var errs []error
		for _, child := range msg.Nodes {
			switch child.ID {
			case NodeAckNeededData:
				errs = append(errs, s.processAckNeededData(child))
			case NodeHello, NodeAckHello, NodeNeededData:
				// not expected from the server
			default:
				errs = append(errs, s.dispatchData(child))
			}
		}

		return errors.Join(errs...)
	}

	return nil
}

func (s *Session) processAckHello(ack *Node) error {
	result, ok := ack.Attr(attrAckHelloResult)
	if !ok || len(result.Data) != 1 {
		return fmt.Errorf("%w: ACK_HELLO without result", ErrMalformed)
	}
	if result.Data[0] != resultAccepted {
		return fmt.Errorf("%w: ACK_HELLO result %d", ErrRejected, result.Data[0])
	}

	info := &ServerInfo{}
	if attr, ok := ack.Attr(attrAckHelloZusiVersion); ok {
		info.ZusiVersion = string(attr.Data)
	}
	if attr, ok := ack.Attr(attrAckHelloConnInfo); ok {
		info.ConnInfo = string(attr.Data)
	}
	s.serverInfo.Store(info)

	s.ackLevel.CompareAndSwap(uint32(AckNone), uint32(AckHelloOK))

	return nil
}

func (s *Session) processAckNeededData(ack *Node) error {
	result, ok := ack.Attr(attrAckNeededResult)
	if !ok || len(result.Data) != 1 {
		return fmt.Errorf("%w: ACK_NEEDED_DATA without result", ErrMalformed)
	}
	if result.Data[0] != resultAccepted {
		return fmt.Errorf("%w: ACK_NEEDED_DATA result %d", ErrRejected, result.Data[0])
	}

	// an acknowledgement of NEEDED_DATA is only meaningful after HELLO was accepted
	s.ackLevel.CompareAndSwap(uint32(AckHelloOK), uint32(AckNeededDataOK))

	return nil
}

// dispatchData stores the attributes of a data subgroup into their targets.
// Nested nodes of the subgroup are skipped.
func (s *Session) dispatchData(group *Node) error {
	var errs []error
	for _, attr := range group.Attributes {
		target, ok := s.targets.Load(targetKey(group.ID, attr.ID))
		if !ok {
			continue
		}

		if err := target.Set(attr.Data); err != nil {
			errs = append(errs, fmt.Errorf("subgroup 0x%04x id 0x%04x: %w", group.ID, attr.ID, err))
			continue
		}

		if s.handler != nil {
			s.handler(group.ID, attr.ID, target)
		}
	}

	return errors.Join(errs...)
}
