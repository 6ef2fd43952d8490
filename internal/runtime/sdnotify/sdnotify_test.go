package sdnotify

import (
	"context"
	"sync"
	"testing"
	"time"

	"hwbot/pkg/logx"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) send(_ bool, state string) (bool, error) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
	return true, nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func TestReadyStatusStopping(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	n := New(logx.Nop())
	n.send = rec.send

	n.Ready()
	n.Status("cycle ok\nnotified=1")
	n.Status("   ")
	n.Stopping()

	got := rec.snapshot()
	want := []string{"READY=1", "STATUS=cycle ok notified=1", "STOPPING=1"}
	if len(got) != len(want) {
		t.Fatalf("states = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunWatchdogDisabledReturns(t *testing.T) {
	t.Parallel()
	n := New(logx.Nop())
	n.watchdog = func(bool) (time.Duration, error) { return 0, nil }

	done := make(chan struct{})
	go func() {
		n.RunWatchdog(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog should return when watchdog is disabled")
	}
}

func TestRunWatchdogPings(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	n := New(logx.Nop())
	n.send = rec.send
	n.watchdog = func(bool) (time.Duration, error) { return 20 * time.Millisecond, nil }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	n.RunWatchdog(ctx)

	got := rec.snapshot()
	if len(got) == 0 || got[0] != "WATCHDOG=1" {
		t.Fatalf("expected watchdog pings, got %q", got)
	}
}
