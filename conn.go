package tagcache

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/unkn0wn-root/tagcache/store"
	rs "github.com/unkn0wn-root/tagcache/store/goredis"
)

type live struct{ st store.Store }

// connector lazily opens one store per cache instance.
// Readers take the lock-free path once a store is published. The first callers
// queue on a one-slot semaphore so at most one dial is in flight, and a
// cancelled waiter leaves without holding the slot.
type connector struct {
	dial   DialFunc
	cur    atomic.Pointer[live]
	sem    *semaphore.Weighted
	closed atomic.Bool
	log    Logger
	hooks  Hooks
}

func newConnector(opts Options, log Logger, hooks Hooks) (*connector, error) {
	dial, err := dialFunc(opts)
	if err != nil {
		return nil, err
	}
	return &connector{
		dial:  dial,
		sem:   semaphore.NewWeighted(1),
		log:   log,
		hooks: hooks,
	}, nil
}

func dialFunc(opts Options) (DialFunc, error) {
	switch {
	case opts.Dial != nil:
		return opts.Dial, nil
	case opts.Client != nil:
		client := opts.Client
		return func(context.Context) (store.Store, error) {
			return rs.New(rs.Config{Client: client})
		}, nil
	case opts.Redis != nil:
		ro := *opts.Redis
		return func(context.Context) (store.Store, error) {
			return rs.New(rs.Config{Client: redis.NewUniversalClient(&ro), CloseClient: true})
		}, nil
	}
	return nil, ErrNoBackend
}

// get returns the live store, dialing it on first use. ctx bounds both the
// wait for the dial slot and the dial itself; context.Background() gives the
// blocking variant.
func (c *connector) get(ctx context.Context) (store.Store, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if l := c.cur.Load(); l != nil {
		return l.st, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if c.closed.Load() {
		return nil, ErrClosed
	}
	if l := c.cur.Load(); l != nil {
		return l.st, nil
	}

	st, err := c.dial(ctx)
	if err == nil {
		if err = st.Ping(ctx); err != nil {
			_ = st.Close()
		}
	}
	if err != nil {
		c.log.Warn("connect failed", Fields{"err": err})
		c.hooks.ConnectFailed(err)
		return nil, err
	}
	c.cur.Store(&live{st: st})
	if c.closed.Load() {
		// close gave up waiting for the slot; whoever swaps first closes it
		_ = c.release()
		return nil, ErrClosed
	}
	c.log.Debug("connected", nil)
	return st, nil
}

// close marks the connector closed, waits for an in-flight dial and releases
// the published store. If ctx ends before the dial slot frees up, the store
// published so far is still released and the in-flight dial closes its own
// result. Safe to call more than once.
func (c *connector) close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return errors.Join(err, c.release())
	}
	defer c.sem.Release(1)
	return c.release()
}

func (c *connector) release() error {
	if l := c.cur.Swap(nil); l != nil {
		return l.st.Close()
	}
	return nil
}
