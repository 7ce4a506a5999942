package zusi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNode_ToBytes(t *testing.T) {
	require := require.New(t)

	node := NewNode(NodeClient, NewNode(NodeAckNeededData).AddByte(0x0001, 0x00))

	expected := []byte{
		0x00, 0x00, 0x00, 0x00, 0x02, 0x00, // node start 0x0002
		0x00, 0x00, 0x00, 0x00, 0x04, 0x00, // node start 0x0004
		0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, // attr 0x0001, length 3, value 0
		0xFF, 0xFF, 0xFF, 0xFF, // node end
		0xFF, 0xFF, 0xFF, 0xFF, // node end
	}

	require.Equal(expected, node.ToBytes())
	require.Equal(len(expected), node.Size())
}

func TestNewHello_Bytes(t *testing.T) {
	require := require.New(t)

	expected := []byte{
		0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x04, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00, // protocol version 2
		0x04, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02, 0x00, // client type Fahrpult
		0x04, 0x00, 0x00, 0x00, 0x03, 0x00, 'F', 'P', // client name
		0x05, 0x00, 0x00, 0x00, 0x04, 0x00, '1', '.', '0', // client version
		0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}

	require.Equal(expected, NewHello("FP", "1.0").ToBytes())
}

func TestParseNode(t *testing.T) {
	require := require.New(t)

	msg := NewAckHello("3.5.0.0", "0", 0)
	data := msg.ToBytes()

	node, size, err := ParseNode(data)
	require.NoError(err)
	require.Equal(len(data), size)
	require.Equal(NodeConnection, node.ID)

	ack := node.Child(NodeAckHello)
	require.NotNil(ack)
	attr, ok := ack.Attr(attrAckHelloZusiVersion)
	require.True(ok)
	require.Equal("3.5.0.0", string(attr.Data))

	_, ok = ack.Attr(0x00FF)
	require.False(ok)
	require.Nil(node.Child(0x00FF))
}

func TestParseNode_Incomplete(t *testing.T) {
	require := require.New(t)

	data := NewNeededDataMsg([]NeededData{{SubgroupCabDisplay, IDSpeed}}).ToBytes()

	for i := 0; i < len(data); i++ {
		node, size, err := ParseNode(data[:i])
		require.NoError(err, "prefix %d", i)
		require.Nil(node, "prefix %d", i)
		require.Zero(size, "prefix %d", i)
	}

	// trailing bytes of a following message are not consumed
	data = append(data, 0x00, 0x00)
	node, size, err := ParseNode(data)
	require.NoError(err)
	require.NotNil(node)
	require.Equal(len(data)-2, size)
}

func TestParseNode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "attribute at top level",
			data: []byte{0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00},
		},
		{
			name: "attribute length too small",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01},
		},
		{
			name: "attribute length too large",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x10, 0x00, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseNode(tt.data)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}

	t.Run("too deep", func(t *testing.T) {
		var data []byte
		for i := 0; i <= MaxNodeDepth; i++ {
			data = append(data, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00)
		}
		_, _, err := ParseNode(data)
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestNeededDataMsg_Order(t *testing.T) {
	require := require.New(t)

	entries := []NeededData{
		{SubgroupCabDisplay, IDBrakePipePressure},
		{SubgroupProgramData, 0x0001},
		{SubgroupCabDisplay, IDSpeed},
		{SubgroupCabOperation, 0x0002},
	}

	node, _, err := ParseNode(NewNeededDataMsg(entries).ToBytes())
	require.NoError(err)

	needed := node.Child(NodeNeededData)
	require.NotNil(needed)
	require.Len(needed.Nodes, 3)
	require.Equal(SubgroupCabDisplay, needed.Nodes[0].ID)
	require.Equal(SubgroupProgramData, needed.Nodes[1].ID)
	require.Equal(SubgroupCabOperation, needed.Nodes[2].ID)

	parsed, ok := ParseNeededData(node)
	require.True(ok)
	require.Equal([]NeededData{
		{SubgroupCabDisplay, IDBrakePipePressure},
		{SubgroupCabDisplay, IDSpeed},
		{SubgroupProgramData, 0x0001},
		{SubgroupCabOperation, 0x0002},
	}, parsed)

	_, ok = ParseNeededData(NewHello("a", "b"))
	require.False(ok)
	require.True(IsHello(NewHello("a", "b")))
	require.False(IsHello(node))
}
