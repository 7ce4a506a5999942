package zusiclient

import (
	"encoding/binary"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/arloliu/go-zusi/zusi"
	"github.com/stretchr/testify/require"
)

const (
	testZusiVersion = "3.6.0.0"
	testSpeed       = float32(22.5)
	testPressure    = float32(5.0)
)

// testServer is a scripted Zusi server on loopback TCP.
type testServer struct {
	ln   net.Listener
	port int

	ackHello    atomic.Bool
	ackNeeded   atomic.Bool
	rejectHello atomic.Bool
	badData     atomic.Bool
	onConnect func(conn net.Conn)

	hellos   atomic.Int32
	accepted atomic.Int32
	needed   chan []zusi.NeededData

	mu     sync.Mutex
	closed bool
	conns  []net.Conn
	wg     sync.WaitGroup
}

func newTestServer(t *testing.T, ackHello bool, ackNeeded bool) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)

	s := &testServer{
		ln:     ln,
		port:   tcpAddr.Port,
		needed: make(chan []zusi.NeededData, 16),
	}
	s.ackHello.Store(ackHello)
	s.ackNeeded.Store(ackNeeded)

	return s
}

func (s *testServer) start() {
	s.wg.Add(1)
	go s.acceptLoop()
}

func (s *testServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()

			return
		}
		s.conns = append(s.conns, conn)
		s.wg.Add(1)
		s.mu.Unlock()

		s.accepted.Add(1)
		go s.serve(conn)
	}
}

func (s *testServer) serve(conn net.Conn) {
	defer s.wg.Done()

	if s.onConnect != nil {
		s.onConnect(conn)
	}

	var buf []byte
	chunk := make([]byte, 1024)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				msg, size, perr := zusi.ParseNode(buf)
				if perr != nil {
					return
				}
				if msg == nil {
					break
				}
				buf = buf[size:]
				s.handle(conn, msg)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *testServer) handle(conn net.Conn, msg *zusi.Node) {
	if zusi.IsHello(msg) {
		s.hellos.Add(1)
		if s.ackHello.Load() {
			var result byte
			if s.rejectHello.Load() {
				result = 1
			}
			_, _ = conn.Write(zusi.NewAckHello(testZusiVersion, "0", result).ToBytes())
		}

		return
	}

	entries, ok := zusi.ParseNeededData(msg)
	if !ok {
		return
	}

	select {
	case s.needed <- entries:
	default:
	}

	if s.ackNeeded.Load() {
		speed := floatAttr(zusi.IDSpeed, testSpeed)
		if s.badData.Load() {
			// a float attribute carrying a word
			speed = zusi.Attribute{ID: zusi.IDSpeed, Data: []byte{0x01, 0x00}}
		}

		var out []byte
		out = zusi.NewAckNeededData(0).AppendBinary(out)
		out = zusi.NewDataMsg(zusi.SubgroupCabDisplay,
			speed,
			floatAttr(zusi.IDBrakePipePressure, testPressure),
		).AppendBinary(out)
		_, _ = conn.Write(out)
	}
}

// dropConns closes all accepted connections, the server keeps listening.
func (s *testServer) dropConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *testServer) close() {
	s.mu.Lock()
	s.closed = true
	_ = s.ln.Close()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
	s.mu.Unlock()

	s.wg.Wait()
}

func floatAttr(id uint16, v float32) zusi.Attribute {
	return zusi.Attribute{ID: id, Data: binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))}
}
