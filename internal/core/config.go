package core

import "time"

// DefaultRenderTimeout bounds a single compilation job.
const DefaultRenderTimeout = 120 * time.Second

// EngineConfig holds runtime configuration for the compilation engine.
type EngineConfig struct {
	// KernelDir is the versioned install location of the kernel
	// distribution (the directory holding the kernel module and its
	// asset bundle).
	KernelDir string
	// RenderTimeout is the per-job deadline. Zero means
	// DefaultRenderTimeout.
	RenderTimeout time.Duration
}

// Timeout returns the effective per-job deadline.
func (c EngineConfig) Timeout() time.Duration {
	if c.RenderTimeout <= 0 {
		return DefaultRenderTimeout
	}
	return c.RenderTimeout
}
