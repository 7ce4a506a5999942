package zusiclient

import (
	"sync"

	"github.com/arloliu/go-zusi/zusi"
)

// NeededData is a registered data subscription.
type NeededData struct {
	Subgroup uint16
	ID       uint16
	Target   zusi.Target
}

// registry keeps the needed data entries in insertion order.
// The codec validates every entry before it is appended.
type registry struct {
	mu      sync.Mutex
	entries []NeededData
}

func (r *registry) add(codec Codec, entry NeededData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := codec.Register(entry.Subgroup, entry.ID, entry.Target); err != nil {
		return err
	}
	r.entries = append(r.entries, entry)

	return nil
}

// subscriptions returns the entries in the form the codec encodes into NEEDED_DATA.
func (r *registry) subscriptions() []zusi.NeededData {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]zusi.NeededData, len(r.entries))
	for i, entry := range r.entries {
		subs[i] = zusi.NeededData{Subgroup: entry.Subgroup, ID: entry.ID}
	}

	return subs
}

func (r *registry) list() []NeededData {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]NeededData(nil), r.entries...)
}
