package handlers

import (
	"sync"

	ws "pontifex-go/pkg/websocket"
)

// The hub is resolved through a provider for every use so handlers always see
// the current instance, even after the server swaps in a fresh hub following
// a panic in its run loop.
var (
	hubProviderMu sync.RWMutex
	hubProvider   func() (*ws.Hub, bool)
)

func SetHubProvider(p func() (*ws.Hub, bool)) {
	hubProviderMu.Lock()
	defer hubProviderMu.Unlock()
	hubProvider = p
}

func getHub() (*ws.Hub, bool) {
	hubProviderMu.RLock()
	p := hubProvider
	hubProviderMu.RUnlock()
	if p == nil {
		return nil, false
	}
	return p()
}
