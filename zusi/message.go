package zusi

import "encoding/binary"

// Top-level node IDs.
const (
	// NodeConnection is the top-level node of the connection handshake (HELLO, ACK_HELLO).
	NodeConnection uint16 = 0x0001
	// NodeClient is the top-level node of the driver's desk application messages.
	NodeClient uint16 = 0x0002
)

// Second-level node IDs.
const (
	// NodeHello is the HELLO message sent by the client.
	NodeHello uint16 = 0x0001
	// NodeAckHello is the acknowledgement of HELLO sent by the server.
	NodeAckHello uint16 = 0x0002
	// NodeNeededData is the NEEDED_DATA subscription message sent by the client.
	NodeNeededData uint16 = 0x0003
	// NodeAckNeededData is the acknowledgement of NEEDED_DATA sent by the server.
	NodeAckNeededData uint16 = 0x0004
)

// Data subgroups, used as node IDs inside NEEDED_DATA and data messages.
const (
	// SubgroupCabDisplay carries the cab display values (Führerstandsanzeigen).
	SubgroupCabDisplay uint16 = 0x000A
	// SubgroupCabOperation carries the cab operation events (Führerstands-Bedienung).
	SubgroupCabOperation uint16 = 0x000B
	// SubgroupProgramData carries the program data.
	SubgroupProgramData uint16 = 0x000C
)

// Cab display data IDs, all transferred as single precision floats.
const (
	// IDSpeed is the speed in m/s.
	IDSpeed uint16 = 0x0001
	// IDBrakePipePressure is the brake pipe pressure in bar.
	IDBrakePipePressure uint16 = 0x0002
	// IDBrakeCylinderPressure is the brake cylinder pressure in bar.
	IDBrakeCylinderPressure uint16 = 0x0003
	// IDMainReservoirPressure is the main reservoir pressure in bar.
	IDMainReservoirPressure uint16 = 0x0004
)

// Attribute IDs of the handshake messages.
const (
	attrHelloProtocolVersion uint16 = 0x0001
	attrHelloClientType      uint16 = 0x0002
	attrHelloClientName      uint16 = 0x0003
	attrHelloClientVersion   uint16 = 0x0004

	attrAckHelloZusiVersion uint16 = 0x0001
	attrAckHelloConnInfo    uint16 = 0x0002
	attrAckHelloResult      uint16 = 0x0003

	attrNeededDataID    uint16 = 0x0001
	attrAckNeededResult uint16 = 0x0001

	resultAccepted byte = 0x00
)

const (
	// ProtocolVersion is the protocol version announced in HELLO.
	ProtocolVersion uint16 = 0x0002
	// ClientTypeFahrpult is the client type of a driver's desk.
	ClientTypeFahrpult uint16 = 0x0002
)

// NeededData is one data subscription of a NEEDED_DATA message.
type NeededData struct {
	Subgroup uint16
	ID       uint16
}

// NewHello builds a HELLO message announcing the client name and version.
func NewHello(name string, version string) *Node {
	hello := NewNode(NodeHello).
		AddWord(attrHelloProtocolVersion, ProtocolVersion).
		AddWord(attrHelloClientType, ClientTypeFahrpult).
		AddString(attrHelloClientName, name).
		AddString(attrHelloClientVersion, version)

	return NewNode(NodeConnection, hello)
}

// NewAckHello builds an ACK_HELLO message as sent by the server.
func NewAckHello(zusiVersion string, connInfo string, result byte) *Node {
	ack := NewNode(NodeAckHello).
		AddString(attrAckHelloZusiVersion, zusiVersion).
		AddString(attrAckHelloConnInfo, connInfo).
		AddByte(attrAckHelloResult, result)

	return NewNode(NodeConnection, ack)
}

// NewNeededDataMsg builds a NEEDED_DATA message.
//
// Subgroup nodes appear in order of their first entry, IDs in entry order.
func NewNeededDataMsg(entries []NeededData) *Node {
	needed := NewNode(NodeNeededData)

	groups := make(map[uint16]*Node)
	for _, entry := range entries {
		group, ok := groups[entry.Subgroup]
		if !ok {
			group = NewNode(entry.Subgroup)
			groups[entry.Subgroup] = group
			needed.AddNode(group)
		}
		group.AddWord(attrNeededDataID, entry.ID)
	}

	return NewNode(NodeClient, needed)
}

// NewAckNeededData builds an ACK_NEEDED_DATA message as sent by the server.
func NewAckNeededData(result byte) *Node {
	return NewNode(NodeClient, NewNode(NodeAckNeededData).AddByte(attrAckNeededResult, result))
}

// NewDataMsg builds a data message of the given subgroup carrying attrs.
func NewDataMsg(subgroup uint16, attrs ...Attribute) *Node {
	group := NewNode(subgroup)
	group.Attributes = append(group.Attributes, attrs...)

	return NewNode(NodeClient, group)
}

// ParseNeededData extracts the subscriptions from a NEEDED_DATA message in wire order.
func ParseNeededData(msg *Node) ([]NeededData, bool) {
	if msg == nil || msg.ID != NodeClient {
		return nil, false
	}

	needed := msg.Child(NodeNeededData)
	if needed == nil {
		return nil, false
	}

	var entries []NeededData
	for _, group := range needed.Nodes {
		for _, attr := range group.Attributes {
			if attr.ID != attrNeededDataID || len(attr.Data) != 2 {
				continue
			}
			entries = append(entries, NeededData{Subgroup: group.ID, ID: binary.LittleEndian.Uint16(attr.Data)})
		}
	}

	return entries, true
}

// IsHello reports whether msg is a HELLO message.
func IsHello(msg *Node) bool {
	return msg != nil && msg.ID == NodeConnection && msg.Child(NodeHello) != nil
}
