package tagcache

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/tagcache/internal/batch"
	"github.com/unkn0wn-root/tagcache/internal/script"
	"github.com/unkn0wn-root/tagcache/store"
)

// RedisCache is the Redis-backed Cache. Safe for concurrent use.
type RedisCache struct {
	conn  *connector
	eng   engine
	log   Logger
	hooks Hooks
}

var _ Cache = (*RedisCache)(nil)

// New builds a cache. No network I/O happens until the first operation or Connect.
func New(opts Options) (*RedisCache, error) {
	log, hooks := ambient(opts)
	conn, err := newConnector(opts, log, hooks)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		conn:  conn,
		eng:   newEngine(opts),
		log:   log,
		hooks: hooks,
	}, nil
}

// Connect establishes the shared connection. Calling it again is a no-op.
func (c *RedisCache) Connect(ctx context.Context) error {
	_, err := c.conn.get(ctx)
	return opErr("connect", "", err)
}

func (c *RedisCache) Close(ctx context.Context) error {
	return c.conn.close(ctx)
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	st, err := c.conn.get(ctx)
	if err != nil {
		return nil, false, opErr("get", key, err)
	}
	b, err := store.Bytes(st.Eval(ctx, c.eng.scripts.Get,
		[]string{c.eng.keys.Index(), c.eng.keys.Entry(key)},
		c.eng.now().UnixMilli()))
	if errors.Is(err, store.ErrNil) {
		c.log.Debug("get miss", Fields{"key": key})
		return nil, false, nil
	}
	if err != nil {
		return nil, false, opErr("get", key, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	if value == nil {
		return ErrNilValue
	}
	now := c.eng.now()
	abs, sld, err := policy(now, opts)
	if err != nil {
		return err
	}
	st, err := c.conn.get(ctx)
	if err != nil {
		return opErr("set", key, err)
	}
	_, err = st.Eval(ctx, c.eng.scripts.Set,
		[]string{c.eng.keys.Index(), c.eng.keys.Entry(key)},
		now.UnixMilli(), abs, sld, value)
	if err != nil {
		return opErr("set", key, err)
	}
	c.log.Debug("set", Fields{"key": key, "absexp": abs, "sldexp": sld, "size": len(value)})
	return nil
}

// Refresh never changes the stored policy; it only recomputes the next
// expiration from it. Entries already due are evicted, not renewed.
func (c *RedisCache) Refresh(ctx context.Context, key string) (RefreshResult, error) {
	st, err := c.conn.get(ctx)
	if err != nil {
		return RefreshNotFound, opErr("refresh", key, err)
	}
	n, err := store.Int64(st.Eval(ctx, c.eng.scripts.Refresh,
		[]string{c.eng.keys.Index(), c.eng.keys.Entry(key)},
		c.eng.now().UnixMilli()))
	if err != nil {
		return RefreshNotFound, opErr("refresh", key, err)
	}
	var r RefreshResult
	switch n {
	case script.RefreshImmortal:
		r = RefreshImmortal
	case script.RefreshRefreshed:
		r = Refreshed
	default:
		r = RefreshNotFound
	}
	c.log.Debug("refresh", Fields{"key": key, "result": r.String()})
	return r, nil
}

func (c *RedisCache) Remove(ctx context.Context, key string) error {
	st, err := c.conn.get(ctx)
	if err != nil {
		return opErr("remove", key, err)
	}
	n, err := store.Int64(st.Eval(ctx, c.eng.scripts.Remove,
		[]string{c.eng.keys.Index(), c.eng.keys.Entry(key)}))
	if err != nil {
		return opErr("remove", key, err)
	}
	c.log.Debug("remove", Fields{"key": key, "existed": n > 0})
	return nil
}

// Tag attaches tags to key, one script per batch.Limit tags. It stops and
// reports false as soon as the entry is found absent; chunks applied before
// that stay applied.
func (c *RedisCache) Tag(ctx context.Context, key string, tags ...string) (bool, error) {
	if len(tags) == 0 {
		return false, nil
	}
	st, err := c.conn.get(ctx)
	if err != nil {
		return false, opErr("tag", key, err)
	}

	idx, entry := c.eng.keys.Index(), c.eng.keys.Entry(key)
	now := c.eng.now().UnixMilli()
	tagged := true
	err = batch.Each(tags, batch.Limit, func(chunk []string) error {
		ks := make([]string, 0, len(chunk)+2)
		ks = append(ks, idx, entry)
		ks = append(ks, c.eng.keys.Tags(chunk)...)
		n, err := store.Int64(st.Eval(ctx, c.eng.scripts.Tag, ks, now))
		if err != nil {
			return err
		}
		if n == 0 {
			tagged = false
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return false, opErr("tag", key, err)
	}
	c.log.Debug("tag", Fields{"key": key, "tags": len(tags), "tagged": tagged})
	return tagged, nil
}

var errStop = errors.New("stop")

func (c *RedisCache) InvalidateTag(ctx context.Context, tag string) (int, error) {
	return c.InvalidateTags(ctx, []string{tag})
}

// InvalidateTags removes every entry carrying any of tags. Each tag is
// invalidated atomically; a failure leaves earlier chunks applied and the
// returned count covers them.
func (c *RedisCache) InvalidateTags(ctx context.Context, tags []string) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	st, err := c.conn.get(ctx)
	if err != nil {
		return 0, opErr("invalidate", firstOf(tags), err)
	}

	idx := c.eng.keys.Index()
	removed := 0
	err = batch.Each(tags, batch.Limit, func(chunk []string) error {
		ks := make([]string, 0, len(chunk)+1)
		ks = append(ks, idx)
		ks = append(ks, c.eng.keys.Tags(chunk)...)
		n, err := store.Int64(st.Eval(ctx, c.eng.scripts.Invalidate, ks))
		if err != nil {
			return err
		}
		removed += int(n)
		return nil
	})
	if err != nil {
		return removed, opErr("invalidate", firstOf(tags), err)
	}
	c.log.Debug("invalidate", Fields{"tags": len(tags), "removed": removed})
	c.hooks.TagsInvalidated(len(tags), removed)
	return removed, nil
}

func (c *RedisCache) Sweep(ctx context.Context) (int, error) {
	st, err := c.conn.get(ctx)
	if err != nil {
		return 0, opErr("sweep", "", err)
	}
	n, err := c.eng.sweepExpired(ctx, st, c.eng.now())
	if err != nil {
		return 0, opErr("sweep", "", err)
	}
	c.log.Debug("sweep", Fields{"removed": n})
	return n, nil
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
