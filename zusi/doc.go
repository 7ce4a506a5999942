// Package zusi implements the Zusi 3 TCP protocol codec used by a driver's desk (Fahrpult) client.
//
// The protocol exchanges trees of nodes and attributes in a little-endian binary format:
//
//   - Node start: uint32 0x00000000 followed by a uint16 node ID.
//   - Node end: uint32 0xFFFFFFFF.
//   - Attribute: uint32 length (2 + data length), uint16 attribute ID, data.
//
// A client connects, sends HELLO, waits for ACK_HELLO, sends NEEDED_DATA listing the data IDs
// it wants per subgroup, waits for ACK_NEEDED_DATA and then receives data messages.
//
// Session holds the codec state of one client: the send buffer filled by the HELLO and
// NEEDED_DATA encoders, the receive buffer filled from the network, the acknowledgement
// level advanced by Decode, and the registered targets that decoded data values are
// written into.
//
// Usage Example:
//
//	speed := &zusi.Float{}
//	sess := zusi.NewSession(1024, 512, 128, func(subgroup, id uint16, target zusi.Target) {
//	    // called on the decoding goroutine after target was updated
//	})
//	_ = sess.Register(zusi.SubgroupCabDisplay, zusi.IDSpeed, speed)
//
//	_ = sess.EncodeHello("Fahrpult", "1.0")
//	n, _ := conn.Write(sess.SendBuffer())
//	sess.MarkSent(n)
//
//	n, _ = conn.Read(sess.RecvBuffer())
//	_ = sess.Decode(n)
//	if sess.AckLevel() >= zusi.AckHelloOK {
//	    // ...
//	}
package zusi
