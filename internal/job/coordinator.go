// Package job coordinates compilation jobs: one isolated worker per
// request, a deadline watchdog, single-assignment settlement, and
// guaranteed worker termination on every exit path.
package job

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/assets"
	"github.com/meshforge/meshforge/internal/core"
	"github.com/meshforge/meshforge/internal/hostenv"
	"github.com/meshforge/meshforge/internal/kernel"
	"github.com/meshforge/meshforge/internal/worker"
)

// spawnFunc creates a fresh isolated worker. Tests substitute it to run
// jobs against stub runners.
type spawnFunc func(ctx context.Context) (*worker.Handle, error)

// Coordinator is the sole owner of the compilation-job lifecycle.
type Coordinator struct {
	cfg   core.EngineConfig
	log   *zap.Logger
	spawn spawnFunc

	verifyOnce sync.Once
	verifyErr  error

	spawned atomic.Int64
}

// NewCoordinator builds a coordinator over the kernel install described by
// cfg. Each job gets its own worker with a fresh host environment; the only
// state shared between jobs is the read-only asset bundle.
func NewCoordinator(cfg core.EngineConfig, log *zap.Logger) *Coordinator {
	resolver := assets.NewResolver(assets.DefaultCandidates(cfg.KernelDir), log)
	c := &Coordinator{cfg: cfg, log: log}
	c.spawn = func(ctx context.Context) (*worker.Handle, error) {
		env := hostenv.NewEnvironment(ctx, resolver, log)
		return worker.Spawn(ctx, kernel.NewRunner(env, log), log), nil
	}
	return c
}

// Execute runs one compilation job to its single settled outcome.
func (c *Coordinator) Execute(ctx context.Context, scriptText string) ([]byte, error) {
	return c.ExecuteObserved(ctx, scriptText, nil)
}

// ExecuteObserved is Execute with a progress callback for callers that
// stream job lifecycle events. The callback never settles anything; it is
// purely informational.
func (c *Coordinator) ExecuteObserved(ctx context.Context, scriptText string, observe func(event string)) ([]byte, error) {
	if strings.TrimSpace(scriptText) == "" {
		return nil, core.Errorf(core.KindInvalidInput, "script text is empty")
	}
	if err := c.verifyInstall(); err != nil {
		return nil, core.Errorf(core.KindConfiguration, "%v", err)
	}

	timeout := c.cfg.Timeout()
	j := newJob(scriptText, timeout)

	h, err := c.spawn(ctx)
	if err != nil {
		return nil, core.Errorf(core.KindWorkerCrashed, "spawning worker: %v", err)
	}
	c.spawned.Add(1)
	notify(observe, "spawned")

	s := newSettlement()

	// Backstop: whatever path returns, the worker does not outlive the job.
	defer h.Terminate(worker.ReasonExit)

	watchdog := time.AfterFunc(timeout, func() {
		if s.settle(nil, core.Errorf(core.KindTimeout, "job %s exceeded deadline of %s", j.ID, timeout)) {
			c.log.Warn("job timed out",
				zap.String("job", j.ID), zap.String("worker", h.ID()))
			h.Terminate(worker.ReasonTimeout)
		}
	})
	defer watchdog.Stop()

	go c.pump(h, s, observe)

	if err := h.Post(j.message()); err != nil {
		if s.settle(nil, core.Errorf(core.KindWorkerCrashed, "posting job: %v", err)) {
			h.Terminate(worker.ReasonCrash)
		}
	}

	out := s.wait()
	return out.bytes, out.err
}

// SpawnCount reports how many workers this coordinator has ever spawned.
func (c *Coordinator) SpawnCount() int64 {
	return c.spawned.Load()
}

// verifyInstall checks the kernel module and asset bundle once, at first
// use. Absence is a configuration condition, not a per-request one.
func (c *Coordinator) verifyInstall() error {
	c.verifyOnce.Do(func() {
		_, c.verifyErr = kernel.Locate(c.cfg.KernelDir)
	})
	return c.verifyErr
}

// pump drains worker messages until the job settles. Only the first
// terminal-shaped message is acted on; earlier non-terminal messages are
// observed and ignored.
func (c *Coordinator) pump(h *worker.Handle, s *settlement, observe func(string)) {
	for {
		select {
		case m := <-h.Messages():
			if c.handleMessage(h, s, m, observe) {
				return
			}
		case err := <-h.Errors():
			if s.settle(nil, core.Errorf(core.KindWorkerCrashed, "%v", err)) {
				h.Terminate(worker.ReasonCrash)
			}
			return
		case <-h.Done():
			// The worker exited; drain anything it emitted on the way out
			// before concluding it died silently.
			for {
				select {
				case m := <-h.Messages():
					if c.handleMessage(h, s, m, observe) {
						return
					}
				case err := <-h.Errors():
					if s.settle(nil, core.Errorf(core.KindWorkerCrashed, "%v", err)) {
						h.Terminate(worker.ReasonCrash)
					}
					return
				default:
					if s.settle(nil, core.Errorf(core.KindWorkerExited, "worker exited without a terminal message")) {
						h.Terminate(worker.ReasonExit)
					}
					return
				}
			}
		}
	}
}

// handleMessage applies one worker message, reporting whether it settled
// the job.
func (c *Coordinator) handleMessage(h *worker.Handle, s *settlement, m core.Message, observe func(string)) bool {
	switch {
	case m.Result != nil:
		data, err := extract(m.Result)
		if err != nil {
			if s.settle(nil, err) {
				h.Terminate(worker.ReasonError)
			}
		} else if s.settle(data, nil) {
			h.Terminate(worker.ReasonSuccess)
		}
		return true
	case m.Error != "":
		if s.settle(nil, &core.Error{Kind: core.KindWorkerReported, Message: m.Error}) {
			h.Terminate(worker.ReasonError)
		}
		return true
	default:
		notify(observe, m.Progress)
		return false
	}
}

func notify(observe func(string), event string) {
	if observe != nil && event != "" {
		observe(event)
	}
}
