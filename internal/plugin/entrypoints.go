package plugin

import (
	"fmt"
	"sort"
	"sync"
)

var (
	entrypointsMu sync.RWMutex
	entrypoints   = make(map[string]RegisterFunc)
)

// RegisterEntrypoint publishes a registration entry point under the given
// name. Plugin packages call it from init(); the host binary pulls them in
// with blank imports, and discovery binds manifest entry fields against this
// table. Registering the same name twice panics, matching the usual
// package-level registry contract.
func RegisterEntrypoint(name string, fn RegisterFunc) {
	if name == "" {
		panic("plugin: entrypoint name must not be empty")
	}
	if fn == nil {
		panic("plugin: entrypoint func must not be nil")
	}

	entrypointsMu.Lock()
	defer entrypointsMu.Unlock()
	if _, exists := entrypoints[name]; exists {
		panic(fmt.Sprintf("plugin: entrypoint %q already registered", name))
	}
	entrypoints[name] = fn
}

// Entrypoint looks up a registration entry point by name.
func Entrypoint(name string) (RegisterFunc, bool) {
	entrypointsMu.RLock()
	defer entrypointsMu.RUnlock()
	fn, ok := entrypoints[name]
	return fn, ok
}

// Entrypoints returns the registered entry point names in sorted order.
func Entrypoints() []string {
	entrypointsMu.RLock()
	defer entrypointsMu.RUnlock()
	names := make([]string, 0, len(entrypoints))
	for name := range entrypoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetEntrypoints clears the table. Tests only.
func ResetEntrypoints() {
	entrypointsMu.Lock()
	defer entrypointsMu.Unlock()
	entrypoints = make(map[string]RegisterFunc)
}
