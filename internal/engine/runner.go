package engine

import (
	"context"
	"fmt"

	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/plugin"
)

// Runner executes a single plugin and shields the host from its
// failure modes.
type Runner interface {
	Run(ctx context.Context, p plugin.Plugin, rc *hostctx.Context) error
}

// InProcessRunner calls the plugin directly on the worker goroutine.
// Panics are converted to errors; timeouts rely on the plugin honoring
// its context.
type InProcessRunner struct{}

func (InProcessRunner) Run(ctx context.Context, p plugin.Plugin, rc *hostctx.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin panicked: %v", r)
		}
	}()
	return p.Run(ctx, rc)
}

// SandboxRunner executes the plugin on a dedicated goroutine with a
// watchdog. When the context expires the runner returns immediately
// and the plugin goroutine is abandoned; the buffered channel lets it
// finish without leaking a blocked send.
type SandboxRunner struct{}

func (SandboxRunner) Run(ctx context.Context, p plugin.Plugin, rc *hostctx.Context) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("plugin panicked: %v", r)
			}
		}()
		done <- p.Run(ctx, rc)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
