// Package tagcache implements a tag-aware, expiring byte cache on top of Redis.
//
// Every operation runs as a server-side Lua script, so each call is atomic
// with respect to other clients. Entries support absolute expiration (an
// instant or an offset from now), sliding expiration, or both, in which case
// the absolute instant is a hard upper bound.
//
// Keys (optionally under "<instance>:"):
//
//	<key>          - entry hash: crtd, absexp, sldexp, data
//	<key>:tags     - tags owning the entry
//	tag:<name>     - entries owned by the tag
//	expires-at     - sorted set of entry -> next expiration (unix ms)
//
// Expired entries are evicted lazily by every Get and Refresh, and
// periodically by a Sweeper for keys nobody reads again.
//
// Tag lists longer than 1000 are split into several scripts. Each chunk is
// atomic on its own, but a reader may observe a partially applied bulk call.
//
// Typical use:
//
//	c, _ := tagcache.New(tagcache.Options{InstanceName: "app", Redis: &redis.UniversalOptions{Addrs: []string{":6379"}}})
//	_ = c.Set(ctx, "user:1", b, tagcache.EntryOptions{SlidingExpiration: time.Minute})
//	_, _ = c.Tag(ctx, "user:1", "users")
//	n, _ := c.InvalidateTag(ctx, "users")
package tagcache
