package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/core"
)

// stubRunner scripts a Runner's behavior for one job.
type stubRunner struct {
	payload *core.ResultPayload
	err     error
	block   bool // ignore the job until ctx is cancelled
	panics  bool

	closed atomic.Int32
}

func (r *stubRunner) Run(ctx context.Context, msg core.JobMessage) (*core.ResultPayload, error) {
	if r.panics {
		panic("stub fault")
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.payload, r.err
}

func (r *stubRunner) Close(ctx context.Context) error {
	r.closed.Add(1)
	return nil
}

// reportedErr mimics a kernel-surfaced failure.
type reportedErr struct{ msg string }

func (e *reportedErr) Error() string { return e.msg }
func (e *reportedErr) Reported()     {}

func spawnStub(t *testing.T, r Runner) *Handle {
	t.Helper()
	h := Spawn(context.Background(), r, zap.NewNop())
	t.Cleanup(func() { h.Terminate(ReasonExit) })
	return h
}

func waitTerminal(t *testing.T, h *Handle) core.Message {
	t.Helper()
	for {
		select {
		case m := <-h.Messages():
			if m.Terminal() {
				return m
			}
		case err := <-h.Errors():
			t.Fatalf("unexpected out-of-band error: %v", err)
		case <-time.After(2 * time.Second):
			t.Fatal("no terminal message")
		}
	}
}

func TestWorker_StartsSpawned(t *testing.T) {
	h := spawnStub(t, &stubRunner{})
	if got := h.State(); got != StateSpawned {
		t.Errorf("state = %v, want spawned", got)
	}
	if got := h.TerminalReason(); got != ReasonNone {
		t.Errorf("reason = %v, want none before termination", got)
	}
}

func TestWorker_SuccessEmitsResult(t *testing.T) {
	payload := &core.ResultPayload{Outputs: []core.OutputFile{{Path: "/output.stl", Data: []byte("solid")}}}
	h := spawnStub(t, &stubRunner{payload: payload})

	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	m := waitTerminal(t, h)
	if m.Result == nil {
		t.Fatalf("terminal message carries no result: %+v", m)
	}
	if string(m.Result.Outputs[0].Data) != "solid" {
		t.Errorf("result bytes = %q", m.Result.Outputs[0].Data)
	}
}

func TestWorker_ProgressPrecedesResult(t *testing.T) {
	h := spawnStub(t, &stubRunner{payload: &core.ResultPayload{}})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case m := <-h.Messages():
		if m.Terminal() {
			t.Fatal("first message should be progress, not terminal")
		}
		if m.Progress != "compiling" {
			t.Errorf("progress = %q", m.Progress)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no progress message")
	}
}

func TestWorker_ReportedErrorBecomesTerminalMessage(t *testing.T) {
	h := spawnStub(t, &stubRunner{err: &reportedErr{msg: "ERROR: syntax error in line 2"}})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	m := waitTerminal(t, h)
	if m.Error != "ERROR: syntax error in line 2" {
		t.Errorf("kernel text must reach the terminal message unmodified, got %q", m.Error)
	}
}

func TestWorker_MachineryFaultGoesOutOfBand(t *testing.T) {
	h := spawnStub(t, &stubRunner{err: errors.New("runtime fault")})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case err := <-h.Errors():
		if err.Error() != "runtime fault" {
			t.Errorf("fault = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no out-of-band fault")
	}
}

func TestWorker_PanicGoesOutOfBand(t *testing.T) {
	h := spawnStub(t, &stubRunner{panics: true})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case err := <-h.Errors():
		if err == nil {
			t.Fatal("nil out-of-band error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panic never surfaced")
	}

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached done after panic")
	}
}

func TestWorker_SilentExitClosesDone(t *testing.T) {
	// A runner returning (nil, nil) emits nothing; only Done fires.
	h := spawnStub(t, &stubRunner{})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("done never closed")
	}
	select {
	case m := <-h.Messages():
		if m.Terminal() {
			t.Errorf("silent exit should not produce a terminal message, got %+v", m)
		}
	default:
	}
}

func TestWorker_TerminateOnlyOnce(t *testing.T) {
	r := &stubRunner{}
	h := Spawn(context.Background(), r, zap.NewNop())

	if !h.Terminate(ReasonTimeout) {
		t.Fatal("first Terminate should win")
	}
	if h.Terminate(ReasonSuccess) {
		t.Error("second Terminate should be a no-op")
	}
	if got := h.TerminalReason(); got != ReasonTimeout {
		t.Errorf("reason = %v, the first termination's reason must stick", got)
	}
	if got := h.State(); got != StateTerminated {
		t.Errorf("state = %v", got)
	}

	<-h.Done()
	if r.closed.Load() != 1 {
		t.Errorf("runner closed %d times, want 1", r.closed.Load())
	}
}

func TestWorker_TerminateCancelsInFlightRun(t *testing.T) {
	h := spawnStub(t, &stubRunner{block: true})
	if err := h.Post(core.JobMessage{}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	// Give the job a moment to enter Run before pulling the plug.
	time.Sleep(10 * time.Millisecond)
	h.Terminate(ReasonTimeout)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled run never released the worker")
	}
	// Pre-empted runs stay silent; the coordinator has already settled.
	select {
	case m := <-h.Messages():
		if m.Terminal() {
			t.Errorf("cancelled run must not emit a terminal message, got %+v", m)
		}
	default:
	}
}

func TestWorker_PostAfterTerminateFails(t *testing.T) {
	h := Spawn(context.Background(), &stubRunner{}, zap.NewNop())
	h.Terminate(ReasonExit)
	if err := h.Post(core.JobMessage{}); err == nil {
		t.Error("post to a terminated worker should fail")
	}
}

func TestWorker_DistinctIDs(t *testing.T) {
	a := spawnStub(t, &stubRunner{})
	b := spawnStub(t, &stubRunner{})
	if a.ID() == b.ID() {
		t.Error("workers should have distinct identities")
	}
}

func TestStateAndReason_Strings(t *testing.T) {
	if StateSpawned.String() != "spawned" || StateActive.String() != "active" || StateTerminated.String() != "terminated" {
		t.Error("state names drifted")
	}
	reasons := map[Reason]string{
		ReasonNone: "none", ReasonSuccess: "success", ReasonError: "error",
		ReasonTimeout: "timeout", ReasonCrash: "crash", ReasonExit: "exit",
	}
	for r, want := range reasons {
		if r.String() != want {
			t.Errorf("Reason(%d) = %q, want %q", int(r), r.String(), want)
		}
	}
}
