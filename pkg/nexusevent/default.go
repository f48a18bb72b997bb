package nexusevent

import "sync"

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = New()
	}
	return defaultReg
}

// ResetDefault discards the process-wide registry. The next Default call creates a new one.
func ResetDefault() {
	defaultMu.Lock()
	defaultReg = nil
	defaultMu.Unlock()
}
