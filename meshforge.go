// Package meshforge executes textual geometry-description scripts against
// an embedded WebAssembly geometry-compilation kernel, each run in an
// isolated, time-bounded worker context, and returns the resulting binary
// mesh artifact.
package meshforge

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/job"
)

// Engine is the compilation execution engine consumed by the design tool.
type Engine struct {
	coord *job.Coordinator
}

// NewEngine creates an engine over the kernel install described by cfg.
func NewEngine(cfg Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{coord: job.NewCoordinator(cfg, log)}
}

// RenderResult pairs the produced mesh bytes with the script that produced
// them.
type RenderResult struct {
	Bytes      []byte
	ScriptText string
}

// Execute compiles scriptText and returns the raw mesh artifact bytes, or a
// *meshforge.Error describing exactly one settled failure.
func (e *Engine) Execute(ctx context.Context, scriptText string) ([]byte, error) {
	return e.coord.Execute(ctx, scriptText)
}

// Render is the service boundary consumed by the request handler: on
// success the artifact bytes plus the originating script.
func (e *Engine) Render(ctx context.Context, scriptText string) (*RenderResult, error) {
	data, err := e.coord.Execute(ctx, scriptText)
	if err != nil {
		return nil, err
	}
	return &RenderResult{Bytes: data, ScriptText: scriptText}, nil
}

// RenderObserved is Render with a progress callback for callers streaming
// job lifecycle events.
func (e *Engine) RenderObserved(ctx context.Context, scriptText string, observe func(event string)) (*RenderResult, error) {
	data, err := e.coord.ExecuteObserved(ctx, scriptText, observe)
	if err != nil {
		return nil, err
	}
	return &RenderResult{Bytes: data, ScriptText: scriptText}, nil
}
