package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/meshforge/meshforge/internal/core"
)

// InputPath is the fixed virtual filename the script is staged under.
const InputPath = "/input.scad"

// OutputPath is the fixed artifact path the kernel is asked to produce.
const OutputPath = "/output.stl"

// CompilationJob is one compilation request, from script submission through
// byte output. It is created per request, owned exclusively by the
// coordinator, and destroyed on its terminal outcome.
type CompilationJob struct {
	ID          string
	ScriptText  string
	Args        []string
	OutputPaths []string
	SubmittedAt time.Time
	Deadline    time.Time
}

func newJob(scriptText string, timeout time.Duration) *CompilationJob {
	now := time.Now()
	return &CompilationJob{
		ID:          uuid.NewString(),
		ScriptText:  scriptText,
		Args:        []string{InputPath, "-o", OutputPath},
		OutputPaths: []string{OutputPath},
		SubmittedAt: now,
		Deadline:    now.Add(timeout),
	}
}

// message builds the single job message posted to the worker.
func (j *CompilationJob) message() core.JobMessage {
	return core.JobMessage{
		Inputs:      []core.InputFile{{Path: InputPath, Content: j.ScriptText}},
		Args:        j.Args,
		OutputPaths: j.OutputPaths,
	}
}
