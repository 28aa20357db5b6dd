// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := tagcache.New(tagcache.Options{
//	    InstanceName: "app",
//	    Client:       rdb,
//	    Hooks:        hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/tagcache"
)

// Hooks forwards events to inner on worker goroutines. Events are dropped
// when the queue is full, so a slow sink never stalls the cache.
type Hooks struct {
	inner   tagcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ tagcache.Hooks = (*Hooks)(nil)

func New(inner tagcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns the number of events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// lost the race with Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) SweepCompleted(n int, took time.Duration) {
	h.try(func() { h.inner.SweepCompleted(n, took) })
}
func (h *Hooks) SweepFailed(err error)    { h.try(func() { h.inner.SweepFailed(err) }) }
func (h *Hooks) ConnectFailed(err error)  { h.try(func() { h.inner.ConnectFailed(err) }) }
func (h *Hooks) SelfHeal(k, r string)     { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) TagsInvalidated(t, n int) { h.try(func() { h.inner.TagsInvalidated(t, n) }) }
