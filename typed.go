package tagcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/tagcache/codec"
	"github.com/unkn0wn-root/tagcache/internal/wire"
)

// TypedOptions configure a Typed view. Cache and Codec are required.
type TypedOptions[V any] struct {
	Cache  Cache
	Codec  codec.Codec[V]
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Typed stores values of V through a Cache. Values are framed with the codec id,
// so a payload written by another codec (or by raw Set) reads as a miss and is
// removed instead of being mis-decoded.
type Typed[V any] struct {
	c     Cache
	codec codec.Codec[V]
	id    byte
	log   Logger
	hooks Hooks
}

func NewTyped[V any](opts TypedOptions[V]) (*Typed[V], error) {
	if opts.Cache == nil {
		return nil, fmt.Errorf("tagcache: typed cache requires a Cache")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("tagcache: typed cache requires a Codec")
	}
	return &Typed[V]{
		c:     opts.Cache,
		codec: opts.Codec,
		id:    codec.ID(opts.Codec),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}, nil
}

// Cache returns the underlying byte cache (for Tag, Refresh, InvalidateTags...).
func (t *Typed[V]) Cache() Cache { return t.c }

func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	payload, err := wire.Decode(t.id, raw)
	if err != nil {
		reason := "corrupt"
		if errors.Is(err, wire.ErrCodec) {
			reason = "codec_mismatch"
		}
		t.heal(ctx, key, reason, err)
		return zero, false, nil
	}
	v, err := t.codec.Decode(payload)
	if err != nil {
		t.heal(ctx, key, "value_decode", err)
		return zero, false, nil
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V, opts EntryOptions) error {
	payload, err := t.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("tagcache: encode %q: %w", key, err)
	}
	return t.c.Set(ctx, key, wire.Encode(t.id, payload), opts)
}

func (t *Typed[V]) Remove(ctx context.Context, key string) error {
	return t.c.Remove(ctx, key)
}

// heal is best effort; a failed remove only delays the cleanup to the next read.
func (t *Typed[V]) heal(ctx context.Context, key, reason string, cause error) {
	if err := t.c.Remove(ctx, key); err != nil {
		t.log.Warn("self-heal remove failed", Fields{"key": key, "err": err})
	}
	t.log.Warn("self-heal: dropped undecodable value", Fields{"key": key, "reason": reason, "err": cause})
	t.hooks.SelfHeal(key, reason)
}
