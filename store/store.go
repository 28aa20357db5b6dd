// Package store defines the single capability tagcache needs from a backend:
// run a named Lua script atomically against a list of keys and scalar arguments.
//
// Implementations must normalize replies:
//   - Lua false / nil bulk      -> (nil, ErrNil)
//   - Lua string / bulk string  -> string or []byte
//   - Lua number / integer      -> int64
//
// Transport errors are returned unchanged.
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
)

// ErrNil is returned by Eval when the script replied with nil.
var ErrNil = errors.New("store: nil reply")

// Store executes scripts. Must be safe for concurrent use.
type Store interface {
	// Eval runs s with keys and args. The store runs it without interleaving
	// foreign commands.
	Eval(ctx context.Context, s *Script, keys []string, args ...any) (any, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}

// Script is a Lua source with its precomputed SHA1 (as used by EVALSHA).
type Script struct {
	name string
	src  string
	hash string
}

// NewScript returns a Script for src. name is used in logs and errors only.
func NewScript(name, src string) *Script {
	sum := sha1.Sum([]byte(src))
	return &Script{name: name, src: src, hash: hex.EncodeToString(sum[:])}
}

func (s *Script) Name() string   { return s.name }
func (s *Script) Source() string { return s.src }
func (s *Script) Hash() string   { return s.hash }
