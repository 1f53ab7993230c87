package kernel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/core"
	"github.com/meshforge/meshforge/internal/hostenv"
)

// argv0 is the program name the kernel sees as its first argument.
const argv0 = "openscad"

// Error is a failure the kernel itself surfaced: a compile error, a
// geometry-rule violation, or a nonzero exit. The message text is the
// kernel's own, passed through unmodified.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Reported marks the failure as kernel-surfaced for the worker layer.
func (e *Error) Reported() {}

// Runner executes the kernel module once inside a worker's host
// environment. Each job gets a private scratch filesystem, so concurrent
// jobs cannot observe each other's inputs or outputs.
type Runner struct {
	env *hostenv.Environment
	log *zap.Logger
}

// NewRunner wraps a per-worker environment.
func NewRunner(env *hostenv.Environment, log *zap.Logger) *Runner {
	return &Runner{env: env, log: log}
}

// Run loads the kernel through the environment's fetch and buffer-based
// instantiation primitives, stages the job's inputs on a private
// filesystem, invokes the kernel with the job's argument vector, and
// collects the declared output files.
//
// A *Error return means the kernel reported the failure itself. A
// cancelled or expired ctx returns the context error: by then the
// coordinator has already settled the job and the result is discarded.
func (r *Runner) Run(ctx context.Context, msg core.JobMessage) (*core.ResultPayload, error) {
	if err := r.env.Install(ctx); err != nil {
		return nil, err
	}

	compiled, err := r.env.Instantiate(ctx, r.env.Fetch(ModuleFile))
	if err != nil {
		return nil, fmt.Errorf("loading kernel module: %w", err)
	}
	defer compiled.Close(ctx)

	scratch, err := os.MkdirTemp("", "meshforge-job-")
	if err != nil {
		return nil, fmt.Errorf("creating job filesystem: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := r.stageInputs(scratch, msg.Inputs); err != nil {
		return nil, err
	}
	r.stageBundle(scratch)

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(append([]string{argv0}, msg.Args...)...).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(scratch, "/"))

	mod, err := r.env.Runtime().InstantiateModule(ctx, compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exit *sys.ExitError
		if errors.As(err, &exit) {
			if exit.ExitCode() == 0 {
				return r.collectOutputs(scratch, msg.OutputPaths)
			}
			return nil, &Error{Message: kernelMessage(&stderr, err)}
		}
		return nil, fmt.Errorf("invoking kernel: %w", err)
	}

	return r.collectOutputs(scratch, msg.OutputPaths)
}

// Close releases the runner's environment.
func (r *Runner) Close(ctx context.Context) error {
	return r.env.Close(ctx)
}

// stageInputs writes the job's virtual input files under the scratch root.
func (r *Runner) stageInputs(scratch string, inputs []core.InputFile) error {
	for _, in := range inputs {
		target := filepath.Join(scratch, filepath.FromSlash(strings.TrimPrefix(in.Path, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("staging input %s: %w", in.Path, err)
		}
		if err := os.WriteFile(target, []byte(in.Content), 0o644); err != nil {
			return fmt.Errorf("staging input %s: %w", in.Path, err)
		}
	}
	return nil
}

// stageBundle copies the optional supporting resources the kernel may probe
// into the job filesystem. Unresolved entries stay absent.
func (r *Runner) stageBundle(scratch string) {
	for _, name := range bundleFiles {
		data, err := r.env.Fetch(name).ArrayBuffer()
		if err != nil || len(data) == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(scratch, name), data, 0o644); err != nil {
			r.log.Warn("staging bundle resource failed",
				zap.String("name", name), zap.Error(err))
		}
	}
}

// collectOutputs reads the declared output paths back from the job
// filesystem, preserving order. Paths the kernel did not produce are
// skipped; an empty set is the extractor's concern, not an invocation
// failure.
func (r *Runner) collectOutputs(scratch string, paths []string) (*core.ResultPayload, error) {
	payload := &core.ResultPayload{}
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(scratch, filepath.FromSlash(strings.TrimPrefix(p, "/"))))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("collecting output %s: %w", p, err)
		}
		payload.Outputs = append(payload.Outputs, core.OutputFile{Path: p, Data: data})
	}
	return payload, nil
}

// kernelMessage extracts the kernel's own failure text, falling back to the
// exit error when the kernel wrote nothing.
func kernelMessage(stderr *bytes.Buffer, err error) string {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return msg
	}
	return err.Error()
}
