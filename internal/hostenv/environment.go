package hostenv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// Fetcher resolves a logical resource name to bytes. ErrAssetNotFound marks
// a clean miss; any other error is a genuine I/O failure.
type Fetcher interface {
	Lookup(name string) ([]byte, error)
}

// ErrAssetNotFound is returned by a Fetcher when no candidate location holds
// the requested resource.
var ErrAssetNotFound = errors.New("asset not found")

// Environment is the per-worker host environment the kernel loads against.
// It is constructed fresh for every worker context and injected into the
// kernel-loading routine; nothing in it is shared across workers, so one
// job can never observe another's state.
type Environment struct {
	fetcher Fetcher
	runtime wazero.Runtime
	log     *zap.Logger

	installOnce sync.Once
	installErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewEnvironment creates an isolated environment backed by a fresh wasm
// runtime. The runtime closes mid-execution when ctx is cancelled, which is
// how a deadline forcibly terminates a running kernel.
func NewEnvironment(ctx context.Context, fetcher Fetcher, log *zap.Logger) *Environment {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	return &Environment{
		fetcher: fetcher,
		runtime: wazero.NewRuntimeWithConfig(ctx, cfg),
		log:     log,
	}
}

// Install instantiates the system-interface host module the kernel imports.
// It is idempotent: the kernel module re-initializing within the same worker
// lifetime sees the primitives installed exactly once.
func (e *Environment) Install(ctx context.Context) error {
	e.installOnce.Do(func() {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			e.installErr = fmt.Errorf("installing system interface: %w", err)
		}
	})
	return e.installErr
}

// Fetch resolves a resource name to a Response. It never returns an error:
// unresolved names degrade to the zero-length sentinel, and genuine I/O
// failures surface through the Response accessors.
func (e *Environment) Fetch(name string) Response {
	data, err := e.fetcher.Lookup(ParseLocator(name, "").Name())
	switch {
	case err == nil:
		return NewBufferResponse(data)
	case errors.Is(err, ErrAssetNotFound):
		return EmptyResponse()
	default:
		return NewFailedResponse(fmt.Errorf("fetching %q: %w", name, err))
	}
}

// Instantiate performs buffer-based module compilation from a fetched
// response. Streaming instantiation is infeasible without a live network
// response, so the body is resolved to a complete buffer first.
func (e *Environment) Instantiate(ctx context.Context, resp Response) (wazero.CompiledModule, error) {
	buf, err := resp.ArrayBuffer()
	if err != nil {
		return nil, fmt.Errorf("resolving module body: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("module body is empty")
	}
	compiled, err := e.runtime.CompileModule(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("compiling module: %w", err)
	}
	return compiled, nil
}

// Runtime exposes the environment's isolated wasm runtime for invocation.
func (e *Environment) Runtime() wazero.Runtime {
	return e.runtime
}

// Close releases the runtime and everything instantiated in it. Safe to
// call more than once.
func (e *Environment) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.closeErr = e.runtime.Close(ctx)
	})
	return e.closeErr
}
