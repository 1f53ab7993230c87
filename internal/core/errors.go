package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the engine can settle with.
type ErrorKind int

const (
	// KindInvalidInput rejects an empty or malformed script before any
	// worker is spawned.
	KindInvalidInput ErrorKind = iota
	// KindConfiguration means the kernel module or its asset bundle is
	// missing from the install location.
	KindConfiguration
	// KindTimeout means the job deadline expired before a terminal message.
	KindTimeout
	// KindWorkerReported carries a compile or geometry-rule failure the
	// kernel itself surfaced.
	KindWorkerReported
	// KindWorkerCrashed means an uncaught fault inside the worker.
	KindWorkerCrashed
	// KindWorkerExited means the worker finished without a terminal message.
	KindWorkerExited
	// KindNoOutput means the kernel ran to completion but produced an empty
	// output set.
	KindNoOutput
)

// String returns the stable name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConfiguration:
		return "configuration_error"
	case KindTimeout:
		return "timeout"
	case KindWorkerReported:
		return "worker_reported_error"
	case KindWorkerCrashed:
		return "worker_crashed"
	case KindWorkerExited:
		return "worker_exited_unexpectedly"
	case KindNoOutput:
		return "no_output_produced"
	default:
		return fmt.Sprintf("error_kind_%d", int(k))
	}
}

// Error is a settled failure: a kind plus a human-readable message. Every
// failure the engine returns is one of these; nothing escapes as an
// unhandled asynchronous fault.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// KindOf extracts the ErrorKind from err. The second return is false when
// err is not an engine error.
func KindOf(err error) (ErrorKind, bool) {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}
