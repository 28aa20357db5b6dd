package tagcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/unkn0wn-root/tagcache/store"
)

func newTestSweeper(t *testing.T, env *testEnv, instance string, interval time.Duration) *Sweeper {
	t.Helper()
	opts := env.options(instance)
	opts.SweepInterval = interval
	s, err := NewSweeper(opts)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSweeperRunOnce(t *testing.T) {
	env := newEnv(t)
	c := env.cache(t, "app")
	s := newTestSweeper(t, env, "app", time.Hour)

	mustSet(t, c, "dead", "v", EntryOptions{SlidingExpiration: time.Second})
	mustSet(t, c, "alive", "v", EntryOptions{SlidingExpiration: time.Minute})
	mustTag(t, c, "dead", "t", "u")
	mustTag(t, c, "alive", "t")

	env.clock.Advance(2 * time.Second)
	n, err := s.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}

	want := []string{"app:alive", "app:alive:tags", "app:expires-at", "app:tag:t"}
	if diff := cmp.Diff(want, env.mr.Keys()); diff != "" {
		t.Fatalf("keys after sweep (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, env.hooks.swept); diff != "" {
		t.Fatalf("SweepCompleted (-want +got):\n%s", diff)
	}
}

func TestSweeperFirstPassIsImmediate(t *testing.T) {
	env := newEnv(t)
	env.hooks.sweepCh = make(chan int, 1)
	c := env.cache(t, "")
	mustSet(t, c, "k", "v", EntryOptions{AbsoluteExpirationRelativeToNow: time.Millisecond})
	env.clock.Advance(time.Second)

	s := newTestSweeper(t, env, "", time.Hour)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case n := <-env.hooks.sweepCh:
		if n != 1 {
			t.Fatalf("first pass removed %d, want 1", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("first pass did not run before the interval")
	}
	if keys := env.mr.Keys(); len(keys) != 0 {
		t.Fatalf("leftover keys: %v", keys)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrSweeperStarted) {
		t.Fatalf("second Start = %v", err)
	}
}

func TestSweeperStartFailsWithoutConnection(t *testing.T) {
	s, err := NewSweeper(Options{Dial: func(context.Context) (store.Store, error) {
		return nil, errors.New("unreachable")
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Start(ctx); err == nil {
		t.Fatalf("Start succeeded without a connection")
	}
	if s.started.Load() {
		t.Fatalf("loop started after a failed connect")
	}
}

func TestSweeperSurvivesFailedPass(t *testing.T) {
	env := newEnv(t)
	env.hooks.sweepCh = make(chan int, 1)
	env.hooks.failCh = make(chan error, 1)
	s := newTestSweeper(t, env, "app", 5*time.Millisecond)
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	env.mr.SetError("ERR boom")
	select {
	case err := <-env.hooks.failCh:
		var oe *OpError
		if !errors.As(err, &oe) || oe.Op != "sweep" {
			t.Fatalf("SweepFailed got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no failed pass reported")
	}

	env.mr.SetError("")
	// drain a completion that may predate the failure, then wait for a fresh one
	select {
	case <-env.hooks.sweepCh:
	default:
	}
	select {
	case <-env.hooks.sweepCh:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop stopped after a failed pass")
	}
}

func TestSweeperStopsOnContext(t *testing.T) {
	env := newEnv(t)
	s := newTestSweeper(t, env, "", time.Millisecond)
	cctx, cancel := context.WithCancel(ctx)
	if err := s.Start(cctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop ignored cancellation")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.RunOnce(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("RunOnce after Close = %v", err)
	}
}
