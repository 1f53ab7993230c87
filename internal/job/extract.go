package job

import "github.com/meshforge/meshforge/internal/core"

// extract converts a validated result payload into transportable bytes. The
// kernel emits a single output file, so the first entry is taken whatever
// its path says. Failure kinds are preserved through this stage, never
// collapsed.
func extract(p *core.ResultPayload) ([]byte, error) {
	if p == nil || len(p.Outputs) == 0 {
		return nil, core.Errorf(core.KindNoOutput, "kernel produced no output files")
	}
	return p.Outputs[0].Data, nil
}
