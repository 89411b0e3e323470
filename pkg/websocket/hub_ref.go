package websocket

import "sync/atomic"

// HubRef is the handlers' handle on the active hub. The run loop may be
// replaced wholesale after a panic, so anything long-lived dereferences this
// on every use rather than capturing a *Hub at startup.
type HubRef struct {
	current atomic.Pointer[Hub]
}

func NewHubRef(h *Hub) *HubRef {
	r := &HubRef{}
	r.current.Store(h)
	return r
}

// Get returns the active hub. ok is false only if the ref was never seeded.
func (r *HubRef) Get() (*Hub, bool) {
	h := r.current.Load()
	return h, h != nil
}

// Set swaps in a replacement hub. Clients registered on the old hub are not
// migrated; they reconnect and land on the new one.
func (r *HubRef) Set(h *Hub) {
	r.current.Store(h)
}
