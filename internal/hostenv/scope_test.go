package hostenv

import (
	"testing"
	"time"

	"github.com/meshforge/meshforge/internal/core"
)

func TestMessageScope_DeliverReachesSubscriber(t *testing.T) {
	s := NewMessageScope()
	got := make(chan core.JobMessage, 1)
	unsubscribe := s.Subscribe(func(m core.JobMessage) { got <- m })
	defer unsubscribe()

	msg := core.JobMessage{Args: []string{"/input.scad", "-o", "/output.stl"}}
	if err := s.Deliver(msg); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	select {
	case m := <-got:
		if len(m.Args) != 3 || m.Args[0] != "/input.scad" {
			t.Errorf("handler saw %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestMessageScope_SecondDeliveryRejected(t *testing.T) {
	s := NewMessageScope()
	// No subscriber, so the first message stays buffered.
	if err := s.Deliver(core.JobMessage{}); err != nil {
		t.Fatalf("first Deliver: %v", err)
	}
	if err := s.Deliver(core.JobMessage{}); err == nil {
		t.Error("second Deliver should fail")
	}
}

func TestMessageScope_DeliverAfterClose(t *testing.T) {
	s := NewMessageScope()
	s.Close()
	if err := s.Deliver(core.JobMessage{}); err == nil {
		t.Error("Deliver after Close should fail")
	}
}

func TestMessageScope_EmitOrderPreserved(t *testing.T) {
	s := NewMessageScope()
	s.Emit(core.Message{Progress: "spawned"})
	s.Emit(core.Message{Progress: "compiling"})
	s.Emit(core.Message{Result: &core.ResultPayload{}})

	want := []string{"spawned", "compiling"}
	for _, p := range want {
		m := <-s.Messages()
		if m.Progress != p {
			t.Errorf("got progress %q, want %q", m.Progress, p)
		}
	}
	if m := <-s.Messages(); !m.Terminal() {
		t.Error("final message should be terminal")
	}
}

func TestMessageScope_EmitDropsWhenFull(t *testing.T) {
	s := NewMessageScope()
	for i := 0; i < outBuffer+8; i++ {
		s.Emit(core.Message{Progress: "tick"})
	}
	// The scope must not block or panic; exactly the buffered prefix
	// survives.
	count := 0
	for {
		select {
		case <-s.Messages():
			count++
		default:
			if count != outBuffer {
				t.Errorf("buffered %d messages, want %d", count, outBuffer)
			}
			return
		}
	}
}

func TestMessageScope_EmitAfterCloseIsNoop(t *testing.T) {
	s := NewMessageScope()
	s.Close()
	s.Emit(core.Message{Progress: "late"})
	select {
	case m := <-s.Messages():
		t.Errorf("message %+v emitted after close", m)
	default:
	}
}

func TestMessageScope_CloseIsIdempotent(t *testing.T) {
	s := NewMessageScope()
	s.Close()
	s.Close()
}

func TestMessageScope_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewMessageScope()
	got := make(chan core.JobMessage, 1)
	unsubscribe := s.Subscribe(func(m core.JobMessage) { got <- m })
	unsubscribe()
	unsubscribe() // second call is a no-op

	// The dedicated goroutine may still be between its select arms; give
	// it a moment to observe the stop.
	time.Sleep(10 * time.Millisecond)
	if err := s.Deliver(core.JobMessage{}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	select {
	case <-got:
		t.Error("handler ran after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}
