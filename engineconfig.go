package meshforge

import "github.com/meshforge/meshforge/internal/core"

// Config holds runtime configuration for the engine.
type Config = core.EngineConfig

// DefaultRenderTimeout is the per-job deadline applied when none is
// configured.
const DefaultRenderTimeout = core.DefaultRenderTimeout
