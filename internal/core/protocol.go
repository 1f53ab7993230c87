package core

// InputFile is one virtual file handed to the kernel before invocation.
type InputFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// JobMessage is the single message posted to a worker for one compilation.
// The kernel receives the inputs on its private filesystem, is invoked with
// Args, and is expected to produce the files named in OutputPaths.
type JobMessage struct {
	Inputs      []InputFile `json:"inputs"`
	Args        []string    `json:"args"`
	OutputPaths []string    `json:"outputPaths"`
}

// OutputFile is one (path, bytes) pair produced by the kernel.
type OutputFile struct {
	Path string
	Data []byte
}

// ResultPayload is the successful terminal payload of a worker. It is
// produced once by the worker and consumed exactly once by the coordinator.
type ResultPayload struct {
	Outputs []OutputFile
}

// Message is one worker-to-coordinator message. A message carrying Result or
// Error is terminal and ends the job; a message carrying only Progress is
// informational and never settles anything.
type Message struct {
	Result   *ResultPayload
	Error    string
	Progress string
}

// Terminal reports whether the message ends a job.
func (m Message) Terminal() bool {
	return m.Result != nil || m.Error != ""
}
