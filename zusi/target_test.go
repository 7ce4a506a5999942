package zusi

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargets(t *testing.T) {
	require := require.New(t)

	f := &Float{}
	require.NoError(f.Set(binary.LittleEndian.AppendUint32(nil, math.Float32bits(27.5))))
	require.InDelta(27.5, f.Get(), 0.0001)
	require.ErrorIs(f.Set([]byte{1, 2}), ErrInvalidValue)

	w := &Word{}
	require.NoError(w.Set([]byte{0x34, 0x12}))
	require.Equal(uint16(0x1234), w.Get())
	require.ErrorIs(w.Set([]byte{1}), ErrInvalidValue)

	b := &Byte{}
	require.NoError(b.Set([]byte{0x7F}))
	require.Equal(byte(0x7F), b.Get())
	require.ErrorIs(b.Set(nil), ErrInvalidValue)

	i := &Int{}
	require.NoError(i.Set([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	require.Equal(int32(-1), i.Get())
	require.ErrorIs(i.Set([]byte{0}), ErrInvalidValue)

	s := &String{}
	require.Empty(s.Get())
	require.NoError(s.Set([]byte("Zusi")))
	require.Equal("Zusi", s.Get())

	raw := &Raw{}
	src := []byte{1, 2, 3}
	require.NoError(raw.Set(src))
	src[0] = 9
	require.Equal([]byte{1, 2, 3}, raw.Get())

	var got []byte
	fn := TargetFunc(func(data []byte) error {
		got = append(got, data...)
		return nil
	})
	require.NoError(fn.Set([]byte{4}))
	require.Equal([]byte{4}, got)
}
