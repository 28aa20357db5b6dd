package tagcache

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/tagcache/internal/keys"
	"github.com/unkn0wn-root/tagcache/internal/script"
	"github.com/unkn0wn-root/tagcache/store"
)

const noExpiry = -1

var loadScripts = sync.OnceValue(func() *script.Set {
	return script.MustLoad(script.DefaultParams())
})

// engine binds the key layout, the clock and the scripts. It owns no
// connection; RedisCache and Sweeper hand it one.
type engine struct {
	keys    keys.Codec
	scripts *script.Set
	now     func() time.Time
}

func newEngine(opts Options) engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return engine{
		keys:    keys.New(opts.InstanceName),
		scripts: loadScripts(),
		now:     now,
	}
}

// sweepExpired evicts every entry due at or before now. Get and Refresh run the
// same Lua routine inline; this is the keyless entry point.
func (e engine) sweepExpired(ctx context.Context, st store.Store, now time.Time) (int, error) {
	n, err := store.Int64(st.Eval(ctx, e.scripts.Expire, []string{e.keys.Index()}, now.UnixMilli()))
	return int(n), err
}

// policy resolves opts against now into the stored (absexp, sldexp) pair in
// unix milliseconds, noExpiry meaning none.
func policy(now time.Time, opts EntryOptions) (abs, sld int64, err error) {
	if !opts.AbsoluteExpiration.IsZero() && opts.AbsoluteExpirationRelativeToNow != 0 {
		return 0, 0, ErrAmbiguousExpiration
	}
	if opts.AbsoluteExpirationRelativeToNow < 0 || opts.SlidingExpiration < 0 {
		return 0, 0, ErrInvalidExpiration
	}

	abs, sld = noExpiry, noExpiry
	switch {
	case !opts.AbsoluteExpiration.IsZero():
		// pre-epoch instants are long gone; keep them clear of the sentinel
		abs = max(opts.AbsoluteExpiration.UnixMilli(), 0)
	case opts.AbsoluteExpirationRelativeToNow > 0:
		abs = now.Add(opts.AbsoluteExpirationRelativeToNow).UnixMilli()
	}
	if opts.SlidingExpiration > 0 {
		sld = ceilMillis(opts.SlidingExpiration)
	}
	return abs, sld, nil
}

// ceilMillis keeps sub-millisecond windows from collapsing to "expire now".
func ceilMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d > time.Duration(ms)*time.Millisecond {
		ms++
	}
	return ms
}
