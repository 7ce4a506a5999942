package zusi

import (
	"encoding/binary"
	"fmt"
)

const (
	nodeStartMarker uint32 = 0x00000000
	nodeEndMarker   uint32 = 0xFFFFFFFF

	// lengthFieldSize is the size of the length/marker field in bytes.
	lengthFieldSize = 4
	// idFieldSize is the size of a node or attribute ID in bytes.
	idFieldSize = 2
	// MaxNodeDepth is the maximum nesting depth accepted by ParseNode.
	MaxNodeDepth = 16
	// MaxAttributeSize is the maximum attribute data size accepted by ParseNode.
	MaxAttributeSize = 1 << 16
)

// Attribute is a leaf of a Zusi node tree.
//
// Data of a parsed attribute references the parsed buffer and is only valid until the
// buffer is reused.
type Attribute struct {
	ID   uint16
	Data []byte
}

// Node is an element of a Zusi node tree.
type Node struct {
	ID         uint16
	Attributes []Attribute
	Nodes      []*Node
}

// NewNode creates a node with the given ID and children.
func NewNode(id uint16, children ...*Node) *Node {
	return &Node{ID: id, Nodes: children}
}

// AddNode appends child nodes and returns n.
func (n *Node) AddNode(children ...*Node) *Node {
	n.Nodes = append(n.Nodes, children...)
	return n
}

// AddAttr appends an attribute with raw data and returns n.
func (n *Node) AddAttr(id uint16, data []byte) *Node {
	n.Attributes = append(n.Attributes, Attribute{ID: id, Data: data})
	return n
}

// AddByte appends a single byte attribute and returns n.
func (n *Node) AddByte(id uint16, v byte) *Node {
	return n.AddAttr(id, []byte{v})
}

// AddWord appends a little-endian uint16 attribute and returns n.
func (n *Node) AddWord(id uint16, v uint16) *Node {
	return n.AddAttr(id, binary.LittleEndian.AppendUint16(nil, v))
}

// AddString appends a string attribute and returns n.
func (n *Node) AddString(id uint16, v string) *Node {
	return n.AddAttr(id, []byte(v))
}

// Attr returns the first attribute with the given ID.
func (n *Node) Attr(id uint16) (Attribute, bool) {
	for _, attr := range n.Attributes {
		if attr.ID == id {
			return attr, true
		}
	}

	return Attribute{}, false
}

// Child returns the first child node with the given ID, or nil.
func (n *Node) Child(id uint16) *Node {
	for _, child := range n.Nodes {
		if child.ID == id {
			return child
		}
	}

	return nil
}

// Size returns the encoded size of the node in bytes.
func (n *Node) Size() int {
	size := lengthFieldSize + idFieldSize + lengthFieldSize
	for _, attr := range n.Attributes {
		size += lengthFieldSize + idFieldSize + len(attr.Data)
	}
	for _, child := range n.Nodes {
		size += child.Size()
	}

	return size
}

// AppendBinary appends the encoded node to b. Attributes are written before child nodes.
func (n *Node) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, nodeStartMarker)
	b = binary.LittleEndian.AppendUint16(b, n.ID)

	for _, attr := range n.Attributes {
		b = binary.LittleEndian.AppendUint32(b, uint32(idFieldSize+len(attr.Data))) //nolint:gosec
		b = binary.LittleEndian.AppendUint16(b, attr.ID)
		b = append(b, attr.Data...)
	}

	for _, child := range n.Nodes {
		b = child.AppendBinary(b)
	}

	return binary.LittleEndian.AppendUint32(b, nodeEndMarker)
}

// ToBytes returns the encoded node.
func (n *Node) ToBytes() []byte {
	return n.AppendBinary(make([]byte, 0, n.Size()))
}

// ParseNode parses one complete top-level node from data.
//
// It returns the node and the number of bytes consumed. If data holds an incomplete node,
// it returns a nil node, zero and a nil error. Attribute data references data.
func ParseNode(data []byte) (*Node, int, error) {
	if len(data) < lengthFieldSize {
		return nil, 0, nil
	}

	if marker := binary.LittleEndian.Uint32(data); marker != nodeStartMarker {
		return nil, 0, fmt.Errorf("%w: expect node start, got 0x%08x", ErrMalformed, marker)
	}

	p := &nodeParser{data: data}
	node, err := p.parseNode(0)
	if err != nil || node == nil {
		return nil, 0, err
	}

	return node, p.pos, nil
}

type nodeParser struct {
	data []byte
	pos  int
}

// parseNode parses a node starting at the current position. A nil node with a nil error
// means the data ended before the node was complete.
func (p *nodeParser) parseNode(depth int) (*Node, error) {
	if depth >= MaxNodeDepth {
		return nil, fmt.Errorf("%w: node depth exceeds %d", ErrMalformed, MaxNodeDepth)
	}

	if len(p.data)-p.pos < lengthFieldSize+idFieldSize {
		return nil, nil
	}

	node := &Node{ID: binary.LittleEndian.Uint16(p.data[p.pos+lengthFieldSize:])}
	p.pos += lengthFieldSize + idFieldSize

	for {
		if len(p.data)-p.pos < lengthFieldSize {
			return nil, nil
		}

		length := binary.LittleEndian.Uint32(p.data[p.pos:])
		switch {
		case length == nodeEndMarker:
			p.pos += lengthFieldSize
			return node, nil

		case length == nodeStartMarker:
			child, err := p.parseNode(depth + 1)
			if err != nil || child == nil {
				return nil, err
			}
			node.Nodes = append(node.Nodes, child)

		case length < idFieldSize || length > MaxAttributeSize+idFieldSize:
			return nil, fmt.Errorf("%w: invalid attribute length %d in node 0x%04x", ErrMalformed, length, node.ID)

		default:
			end := p.pos + lengthFieldSize + int(length)
			if end > len(p.data) {
				return nil, nil
			}

			node.Attributes = append(node.Attributes, Attribute{
				ID:   binary.LittleEndian.Uint16(p.data[p.pos+lengthFieldSize:]),
				Data: p.data[p.pos+lengthFieldSize+idFieldSize : end],
			})
			p.pos = end
		}
	}
}
