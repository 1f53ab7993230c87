// Package worker owns the lifecycle of one isolated compilation context:
// spawn, message correlation, and guaranteed termination.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/core"
	"github.com/meshforge/meshforge/internal/hostenv"
)

// Runner executes a single job inside the worker context and releases its
// resources afterwards.
type Runner interface {
	Run(ctx context.Context, msg core.JobMessage) (*core.ResultPayload, error)
	Close(ctx context.Context) error
}

// Reported marks an error the hosted kernel surfaced itself, as opposed to
// a fault in the worker machinery. Its message text reaches the caller
// unmodified.
type Reported interface {
	error
	Reported()
}

// Handle is the coordinator's exclusive grip on one spawned worker. A
// worker hosts exactly one job and is terminated exactly once, on every
// exit path.
type Handle struct {
	id     string
	scope  *hostenv.MessageScope
	runner Runner
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
	errs     chan error

	unsubscribe func()

	mu     sync.Mutex
	state  State
	reason Reason
}

// Spawn creates a fresh worker context around the given runner and starts
// listening for its single job message. No state is carried over from any
// prior job.
func Spawn(ctx context.Context, runner Runner, log *zap.Logger) *Handle {
	wctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		scope:  hostenv.NewMessageScope(),
		runner: runner,
		log:    log,
		ctx:    wctx,
		cancel: cancel,
		done:   make(chan struct{}),
		errs:   make(chan error, 1),
		state:  StateSpawned,
	}
	h.unsubscribe = h.scope.Subscribe(h.handle)
	return h
}

// ID identifies the worker in logs and progress events.
func (h *Handle) ID() string { return h.id }

// Post delivers the worker's single job message.
func (h *Handle) Post(msg core.JobMessage) error {
	return h.scope.Deliver(msg)
}

// Messages exposes outbound worker messages in emission order.
func (h *Handle) Messages() <-chan core.Message { return h.scope.Messages() }

// Errors carries out-of-band worker faults (panics, runtime faults).
func (h *Handle) Errors() <-chan error { return h.errs }

// Done is closed when the worker context has exited, whether or not a
// terminal message was emitted first.
func (h *Handle) Done() <-chan struct{} { return h.done }

// State returns the worker's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// TerminalReason returns why the worker terminated, or ReasonNone while it
// is still live.
func (h *Handle) TerminalReason() Reason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Terminate moves the worker to its terminal state, cancels any in-flight
// kernel invocation, and releases the runner. Only the first call has
// effect; it reports whether this call performed the termination.
func (h *Handle) Terminate(reason Reason) bool {
	h.mu.Lock()
	if h.state == StateTerminated {
		h.mu.Unlock()
		return false
	}
	h.state = StateTerminated
	h.reason = reason
	h.mu.Unlock()

	h.cancel()
	h.unsubscribe()
	h.scope.Close()
	go func() {
		if err := h.runner.Close(context.Background()); err != nil {
			h.log.Warn("releasing worker runner failed",
				zap.String("worker", h.id), zap.Error(err))
		}
		h.doneOnce.Do(func() { close(h.done) })
	}()
	return true
}

// handle runs the worker's single job. It emits at most one terminal
// message; worker faults go out-of-band through the error channel.
func (h *Handle) handle(msg core.JobMessage) {
	defer h.doneOnce.Do(func() { close(h.done) })
	defer h.unsubscribe()
	defer func() {
		if p := recover(); p != nil {
			select {
			case h.errs <- fmt.Errorf("worker panic: %v", p):
			default:
			}
		}
	}()

	if !h.activate() {
		return
	}

	h.scope.Emit(core.Message{Progress: "compiling"})

	payload, err := h.runner.Run(h.ctx, msg)
	switch {
	case err != nil:
		if h.ctx.Err() != nil {
			// Pre-empted by termination; the job is already settled.
			return
		}
		var rep Reported
		if errors.As(err, &rep) {
			h.scope.Emit(core.Message{Error: rep.Error()})
			return
		}
		select {
		case h.errs <- err:
		default:
		}
	case payload != nil:
		h.scope.Emit(core.Message{Result: payload})
	}
}

// activate transitions spawned → active. A worker terminated before its job
// arrived stays terminated.
func (h *Handle) activate() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateSpawned {
		return false
	}
	h.state = StateActive
	return true
}
