package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/raidos23/casl/internal/config"
	"github.com/raidos23/casl/internal/hostctx"
	"github.com/raidos23/casl/internal/logger"
	"github.com/raidos23/casl/internal/plugin"
	"github.com/raidos23/casl/internal/registry"
	"github.com/raidos23/casl/internal/report"
	"github.com/raidos23/casl/internal/resolver"
	caslerrors "github.com/raidos23/casl/pkg/errors"
)

// State tracks the engine lifecycle across one Run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateAborted   State = "aborted"
)

// Options configures an Engine.
type Options struct {
	Registry *registry.Registry
	Config   *config.Config
	Logger   *logger.Logger

	// Runner overrides the execution strategy. When nil, the config's
	// sandbox flag picks between SandboxRunner and InProcessRunner.
	Runner Runner

	// Workers bounds level-internal parallelism. Zero means one worker
	// per CPU.
	Workers int
}

// Engine schedules and executes one phase's plugins level by level.
type Engine struct {
	reg     *registry.Registry
	cfg     *config.Config
	log     *logger.Logger
	runner  Runner
	workers int

	mu    sync.Mutex
	state State
}

// New validates options and builds an engine in the idle state.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.New("engine requires a registry")
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	runner := opts.Runner
	if runner == nil {
		if cfg.SandboxEnabled() {
			runner = SandboxRunner{}
		} else {
			runner = InProcessRunner{}
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.ParallelismLimit()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Engine{
		reg:     opts.Registry,
		cfg:     cfg,
		log:     log,
		runner:  runner,
		workers: workers,
		state:   StateIdle,
	}, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run resolves the plan and executes it. Plugin failures are recorded
// in the report, not returned as errors; Run errors only when the plan
// cannot be built or the context is cancelled mid-flight.
func (e *Engine) Run(ctx context.Context, rc *hostctx.Context) (*report.Report, error) {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, errors.New("engine is already running")
	}
	e.state = StateRunning
	e.mu.Unlock()

	rep := report.New(e.reg.TagIndex())

	if !e.cfg.GloballyEnabled() {
		e.log.WithPhase(string(e.reg.Phase())).Info("pipeline disabled, nothing to run")
		e.setState(StateCompleted)
		return rep, nil
	}

	snapshot := e.reg.Snapshot()
	plan, err := resolver.Resolve(snapshot, e.cfg, e.reg.Phase(), e.log)
	if err != nil {
		e.setState(StateAborted)
		return rep, err
	}

	requires := make(map[string][]string, len(snapshot))
	for _, r := range snapshot {
		requires[r.Descriptor.ID] = r.Descriptor.Requires
	}

	skipDependents := e.cfg.Policy() == config.FailPolicySkip

	var failedMu sync.Mutex
	failed := make(map[string]struct{})

	markFailed := func(id string) {
		failedMu.Lock()
		failed[id] = struct{}{}
		failedMu.Unlock()
	}
	hasFailedDep := func(id string) (string, bool) {
		failedMu.Lock()
		defer failedMu.Unlock()
		for _, dep := range requires[id] {
			if _, bad := failed[dep]; bad {
				return dep, true
			}
		}
		return "", false
	}

	sem := make(chan struct{}, e.workers)

	for levelIdx, level := range plan.Levels {
		if ctx.Err() != nil {
			e.skipRemaining(rep, plan.Levels[levelIdx:], "run cancelled")
			e.setState(StateCancelled)
			return rep, ctx.Err()
		}

		var wg sync.WaitGroup
		for _, id := range level {
			if skipDependents {
				if dep, bad := hasFailedDep(id); bad {
					rep.Append(report.Entry{
						PluginID: id,
						Kind:     caslerrors.KindSkipped,
						Message:  fmt.Sprintf("dependency %s did not succeed", dep),
					})
					// Dependents further down skip too.
					markFailed(id)
					e.log.WithPlugin(id).Warnf("skipped: dependency %s did not succeed", dep)
					continue
				}
			}

			p, ok := e.reg.Get(id)
			if !ok {
				rep.Append(report.Entry{
					PluginID: id,
					Kind:     caslerrors.KindRuntimeError,
					Message:  "plugin disappeared from registry",
				})
				markFailed(id)
				continue
			}

			wg.Add(1)
			go func(id string, p plugin.Plugin) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				entry := e.runOne(ctx, id, p, rc)
				rep.Append(entry)
				if !entry.Success {
					markFailed(id)
				}
			}(id, p)
		}
		wg.Wait()
	}

	e.setState(StateCompleted)
	return rep, nil
}

func (e *Engine) runOne(ctx context.Context, id string, p plugin.Plugin, rc *hostctx.Context) report.Entry {
	timeout := e.cfg.PluginTimeout(id)

	// Zero means unlimited: the plugin runs bounded only by run-level
	// cancellation.
	pctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log := e.log.WithPlugin(id)
	if timeout > 0 {
		log.Debugf("starting (timeout %s)", timeout)
	} else {
		log.Debug("starting (no timeout)")
	}

	start := time.Now()
	err := e.runner.Run(pctx, p, rc.WithContext(pctx))
	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.Debugf("finished in %s", elapsed.Round(time.Millisecond))
		return report.Entry{PluginID: id, Success: true, Duration: elapsed}

	case errors.Is(err, context.DeadlineExceeded):
		log.Error(err, "timed out")
		return report.Entry{
			PluginID: id,
			Duration: elapsed,
			Kind:     caslerrors.KindTimeout,
			Message:  fmt.Sprintf("exceeded %s timeout", timeout),
		}

	default:
		runErr := caslerrors.NewRunError(id, err)
		log.Error(runErr, "failed")
		return report.Entry{
			PluginID: id,
			Duration: elapsed,
			Kind:     caslerrors.KindRuntimeError,
			Message:  err.Error(),
		}
	}
}

func (e *Engine) skipRemaining(rep *report.Report, levels [][]string, reason string) {
	for _, level := range levels {
		for _, id := range level {
			rep.Append(report.Entry{
				PluginID: id,
				Kind:     caslerrors.KindSkipped,
				Message:  reason,
			})
		}
	}
}
