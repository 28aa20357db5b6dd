package tagcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recHooks struct {
	mu          sync.Mutex
	swept       []int
	failed      []error
	invalidated [][2]int
	healed      []string
	connFailed  int

	sweepCh chan int   // optional, receives SweepCompleted counts
	failCh  chan error // optional, receives SweepFailed errors
}

func (h *recHooks) SweepCompleted(n int, _ time.Duration) {
	h.mu.Lock()
	h.swept = append(h.swept, n)
	h.mu.Unlock()
	if h.sweepCh != nil {
		select {
		case h.sweepCh <- n:
		default:
		}
	}
}

func (h *recHooks) SweepFailed(err error) {
	h.mu.Lock()
	h.failed = append(h.failed, err)
	h.mu.Unlock()
	if h.failCh != nil {
		select {
		case h.failCh <- err:
		default:
		}
	}
}

func (h *recHooks) TagsInvalidated(tags, removed int) {
	h.mu.Lock()
	h.invalidated = append(h.invalidated, [2]int{tags, removed})
	h.mu.Unlock()
}

func (h *recHooks) SelfHeal(key, reason string) {
	h.mu.Lock()
	h.healed = append(h.healed, key+"/"+reason)
	h.mu.Unlock()
}

func (h *recHooks) ConnectFailed(error) {
	h.mu.Lock()
	h.connFailed++
	h.mu.Unlock()
}

type testEnv struct {
	mr     *miniredis.Miniredis
	client *redis.Client
	clock  *fakeClock
	hooks  *recHooks
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &testEnv{mr: mr, client: client, clock: newFakeClock(), hooks: &recHooks{}}
}

func (e *testEnv) options(instance string) Options {
	return Options{
		InstanceName: instance,
		Client:       e.client,
		Now:          e.clock.Now,
		Hooks:        e.hooks,
	}
}

func (e *testEnv) cache(t *testing.T, instance string) *RedisCache {
	t.Helper()
	c, err := New(e.options(instance))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func mustSet(t *testing.T, c Cache, key, val string, opts EntryOptions) {
	t.Helper()
	if err := c.Set(context.Background(), key, []byte(val), opts); err != nil {
		t.Fatalf("Set(%q): %v", key, err)
	}
}

func mustTag(t *testing.T, c Cache, key string, tags ...string) {
	t.Helper()
	ok, err := c.Tag(context.Background(), key, tags...)
	if err != nil || !ok {
		t.Fatalf("Tag(%q, %v) = %v, %v", key, tags, ok, err)
	}
}

func expectHit(t *testing.T, c Cache, key, want string) {
	t.Helper()
	got, ok, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if !ok {
		t.Fatalf("Get(%q): miss, want %q", key, want)
	}
	if string(got) != want {
		t.Fatalf("Get(%q) = %q, want %q", key, got, want)
	}
}

func expectMiss(t *testing.T, c Cache, key string) {
	t.Helper()
	got, ok, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if ok {
		t.Fatalf("Get(%q) = %q, want miss", key, got)
	}
}

type logRecord struct {
	level, msg string
	fields     Fields
}

type recLogger struct {
	mu   sync.Mutex
	recs []logRecord
}

func (l *recLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.recs = append(l.recs, logRecord{level, msg, f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, f Fields) { l.add("debug", msg, f) }
func (l *recLogger) Info(msg string, f Fields)  { l.add("info", msg, f) }
func (l *recLogger) Warn(msg string, f Fields)  { l.add("warn", msg, f) }
func (l *recLogger) Error(msg string, f Fields) { l.add("error", msg, f) }
