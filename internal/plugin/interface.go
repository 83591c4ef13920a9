package plugin

import (
	"context"

	"github.com/raidos23/casl/internal/hostctx"
)

// HostVersion is the version plugins check their RequiresHost constraint
// against, with greater-or-equal semantics.
const HostVersion = "2.1.0"

// Phase names the point in the build pipeline a plugin set runs at.
type Phase string

const (
	// PhasePre runs before the compiler is invoked.
	PhasePre Phase = "pre"
	// PhasePost runs after the compiler has produced artifacts.
	PhasePost Phase = "post"
)

// Plugin is a loaded, callable unit bound to exactly one Descriptor. It is
// owned by the registry and invoked only by the execution engine.
//
// Run performs the plugin's work against the provided context. It signals
// failure by returning an error; panics are caught at the engine boundary and
// converted to runtime errors, and the hook must never exit the process.
// Implementations should observe rc.Context() so timeouts and cancellation
// can interrupt long work cooperatively.
type Plugin interface {
	Descriptor() Descriptor
	Run(ctx context.Context, rc *hostctx.Context) error
}

// Manager is the callback surface handed to a registration entry point. A
// candidate package's entry point must call AddPlugin exactly once with its
// constructed plugin instance.
type Manager interface {
	AddPlugin(p Plugin) error
}

// RegisterFunc is a registration entry point: the Go-native rendition of the
// original "import the package and call its register function by path". The
// manifest's entry field names which RegisterFunc discovery invokes.
type RegisterFunc func(m Manager) error
