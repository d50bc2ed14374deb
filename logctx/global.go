package logctx

import "sync"

// The global store holds process-wide diagnostic properties shared by every
// logical flow, e.g. host name or deployment identifiers. Per-call context
// carried on a context.Context overrides global values on key collision.
var global = struct {
	mu    sync.RWMutex
	props map[string]string
}{props: make(map[string]string)}

// SetGlobal sets a process-wide diagnostic property.
func SetGlobal(key, value string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.props[key] = value
}

// RemoveGlobal deletes a process-wide diagnostic property.
func RemoveGlobal(key string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	delete(global.props, key)
}

// ResetGlobal drops every process-wide diagnostic property. Intended for
// tests and configuration reloads.
func ResetGlobal() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.props = make(map[string]string)
}

func appendGlobal(dst map[string]string) map[string]string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if len(global.props) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(global.props))
	}
	for k, v := range global.props {
		dst[k] = v
	}
	return dst
}
