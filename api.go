package tagcache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tagcache/store"
)

// Cache is the byte-level, tag-aware expiring cache.
// Every method is one (or, for long tag lists, a few) atomic round trips.
type Cache interface {
	// Get returns the payload of key. A miss is (nil, false, nil).
	// Due entries anywhere in the instance are evicted first, and a sliding
	// window on key is renewed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites key together with its whole expiration policy.
	Set(ctx context.Context, key string, value []byte, opts EntryOptions) error

	// Refresh renews the sliding window of key using its stored policy.
	Refresh(ctx context.Context, key string) (RefreshResult, error)

	// Remove deletes key and its tag memberships. Missing keys are a no-op.
	Remove(ctx context.Context, key string) error

	// Tag attaches tags to a live key. Reports false when key is absent.
	Tag(ctx context.Context, key string, tags ...string) (bool, error)

	// InvalidateTag removes every key carrying tag and reports how many were removed.
	InvalidateTag(ctx context.Context, tag string) (int, error)
	InvalidateTags(ctx context.Context, tags []string) (int, error)

	// Sweep evicts every due entry once.
	Sweep(ctx context.Context) (int, error)

	Close(ctx context.Context) error
}

// EntryOptions is the expiration policy of one entry.
// Zero fields mean "none"; the zero value never expires.
type EntryOptions struct {
	AbsoluteExpiration              time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
}

// RefreshResult is the outcome of Refresh.
type RefreshResult int

const (
	RefreshNotFound RefreshResult = iota
	RefreshImmortal               // entry exists but has no expiration
	Refreshed
)

// Found reports whether the entry still exists.
func (r RefreshResult) Found() bool { return r != RefreshNotFound }

func (r RefreshResult) String() string {
	switch r {
	case RefreshImmortal:
		return "immortal"
	case Refreshed:
		return "refreshed"
	default:
		return "not_found"
	}
}

// DialFunc opens a store. The result is pinged before use.
type DialFunc func(ctx context.Context) (store.Store, error)

// Options configure a RedisCache or a Sweeper.
// Exactly one backend source is used, in order: Dial, Client, Redis.
type Options struct {
	// InstanceName namespaces every physical key ("<name>:..."). Optional.
	InstanceName string

	Dial   DialFunc
	Client redis.UniversalClient   // shared; never closed by the cache
	Redis  *redis.UniversalOptions // a client is built lazily and owned by the cache

	Logger        Logger           // if nil, NopLogger is used
	Hooks         Hooks            // if nil, NopHooks is used
	Now           func() time.Time // clock; default time.Now
	SweepInterval time.Duration    // sweeper only; 0 => 60s
}
