// Package redigo adapts a github.com/gomodule/redigo pool to store.Store.
package redigo

import (
	"context"
	"errors"
	"sync"

	"github.com/gomodule/redigo/redis"

	"github.com/unkn0wn-root/tagcache/store"
)

var ErrNilPool = errors.New("redigo store: nil pool")

type Store struct {
	pool      *redis.Pool
	closePool bool
	scripts   sync.Map // *store.Script -> *redis.Script
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Pool      *redis.Pool
	ClosePool bool // set true only if this store exclusively owns the pool
}

func New(cfg Config) (*Store, error) {
	if cfg.Pool == nil {
		return nil, ErrNilPool
	}
	return &Store{pool: cfg.Pool, closePool: cfg.ClosePool}, nil
}

// NewPool returns a pool dialing addr over TCP with opts (auth, db, timeouts).
func NewPool(addr string, maxIdle int, opts ...redis.DialOption) *redis.Pool {
	return &redis.Pool{
		MaxIdle: maxIdle,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr, opts...)
		},
	}
}

func (s *Store) Eval(ctx context.Context, sc *store.Script, keys []string, args ...any) (any, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	keysAndArgs := make([]any, 0, len(keys)+len(args))
	for _, k := range keys {
		keysAndArgs = append(keysAndArgs, k)
	}
	keysAndArgs = append(keysAndArgs, args...)

	// redigo's Script does EVALSHA and retries with EVAL on NOSCRIPT.
	v, err := s.script(sc, len(keys)).DoContext(ctx, conn, keysAndArgs...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, store.ErrNil
	}
	return v, nil
}

// script returns the redigo handle for sc, hashing its source once per key count.
func (s *Store) script(sc *store.Script, nkeys int) *redis.Script {
	type id struct {
		sc    *store.Script
		nkeys int
	}
	k := id{sc, nkeys}
	if v, ok := s.scripts.Load(k); ok {
		return v.(*redis.Script)
	}
	v, _ := s.scripts.LoadOrStore(k, redis.NewScript(nkeys, sc.Source()))
	return v.(*redis.Script)
}

func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = redis.DoContext(conn, ctx, "PING")
	return err
}

func (s *Store) Close() error {
	if s.closePool {
		return s.pool.Close()
	}
	return nil
}
