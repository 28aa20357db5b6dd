package goredis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tagcache/store"
)

var ErrNilClient = errors.New("goredis store: nil client")

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ store.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Eval tries EVALSHA first and falls back to EVAL when the server has not
// cached the script yet (NOSCRIPT), the same way goredis.Script.Run does.
func (s *Store) Eval(ctx context.Context, sc *store.Script, keys []string, args ...any) (any, error) {
	v, err := s.rdb.EvalSha(ctx, sc.Hash(), keys, args...).Result()
	if err != nil && goredis.HasErrorPrefix(err, "NOSCRIPT") {
		v, err = s.rdb.Eval(ctx, sc.Source(), keys, args...).Result()
	}
	if err == goredis.Nil {
		return nil, store.ErrNil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close() error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
