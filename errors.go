package meshforge

import "github.com/meshforge/meshforge/internal/core"

// Error is a settled failure carrying a tagged kind and a human-readable
// message.
type Error = core.Error

// ErrorKind classifies settled failures.
type ErrorKind = core.ErrorKind

const (
	KindInvalidInput   = core.KindInvalidInput
	KindConfiguration  = core.KindConfiguration
	KindTimeout        = core.KindTimeout
	KindWorkerReported = core.KindWorkerReported
	KindWorkerCrashed  = core.KindWorkerCrashed
	KindWorkerExited   = core.KindWorkerExited
	KindNoOutput       = core.KindNoOutput
)

// KindOf extracts the ErrorKind from an engine error.
func KindOf(err error) (ErrorKind, bool) {
	return core.KindOf(err)
}
