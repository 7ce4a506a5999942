package zusi

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Target receives the value of a subscribed data attribute.
//
// Set is called on the decoding goroutine with the raw attribute data. data is only valid
// during the call. Implementations must be safe to read concurrently with Set.
type Target interface {
	Set(data []byte) error
}

// DataHandler is invoked after a subscribed attribute has been stored into its target.
//
// The handler runs synchronously on the decoding goroutine, one value at a time.
type DataHandler func(subgroup uint16, id uint16, target Target)

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(data []byte) error

// Set calls f(data).
func (f TargetFunc) Set(data []byte) error { return f(data) }

// Float holds a single precision float value.
type Float struct {
	bits atomic.Uint32
}

// Set stores the little-endian single precision float in data.
func (t *Float) Set(data []byte) error {
	if len(data) != 4 {
		return fmt.Errorf("%w: float expects 4 bytes, got %d", ErrInvalidValue, len(data))
	}
	t.bits.Store(binary.LittleEndian.Uint32(data))

	return nil
}

// Get returns the last stored value.
func (t *Float) Get() float32 { return math.Float32frombits(t.bits.Load()) }

// Word holds an unsigned 16-bit value.
type Word struct {
	v atomic.Uint32
}

// Set stores the little-endian uint16 in data.
func (t *Word) Set(data []byte) error {
	if len(data) != 2 {
		return fmt.Errorf("%w: word expects 2 bytes, got %d", ErrInvalidValue, len(data))
	}
	t.v.Store(uint32(binary.LittleEndian.Uint16(data)))

	return nil
}

// Get returns the last stored value.
func (t *Word) Get() uint16 { return uint16(t.v.Load()) } //nolint:gosec

// Byte holds an unsigned 8-bit value.
type Byte struct {
	v atomic.Uint32
}

// Set stores the single byte in data.
func (t *Byte) Set(data []byte) error {
	if len(data) != 1 {
		return fmt.Errorf("%w: byte expects 1 byte, got %d", ErrInvalidValue, len(data))
	}
	t.v.Store(uint32(data[0]))

	return nil
}

// Get returns the last stored value.
func (t *Byte) Get() byte { return byte(t.v.Load()) } //nolint:gosec

// Int holds a signed 32-bit value.
type Int struct {
	v atomic.Int32
}

// Set stores the little-endian int32 in data.
func (t *Int) Set(data []byte) error {
	if len(data) != 4 {
		return fmt.Errorf("%w: int expects 4 bytes, got %d", ErrInvalidValue, len(data))
	}
	t.v.Store(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec

	return nil
}

// Get returns the last stored value.
func (t *Int) Get() int32 { return t.v.Load() }

// String holds a string value.
type String struct {
	v atomic.Pointer[string]
}

// Set stores data as a string.
func (t *String) Set(data []byte) error {
	s := string(data)
	t.v.Store(&s)

	return nil
}

// Get returns the last stored value, or an empty string.
func (t *String) Get() string {
	if s := t.v.Load(); s != nil {
		return *s
	}

	return ""
}

// Raw holds a copy of the raw attribute data.
type Raw struct {
	mu   sync.RWMutex
	data []byte
}

// Set stores a copy of data.
func (t *Raw) Set(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = append(t.data[:0], data...)

	return nil
}

// Get returns a copy of the last stored data.
func (t *Raw) Get() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]byte(nil), t.data...)
}
