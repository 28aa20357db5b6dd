package tagcache

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousExpiration is returned by Set when both an absolute instant and
	// an absolute offset from now are supplied.
	ErrAmbiguousExpiration = errors.New("tagcache: AbsoluteExpiration and AbsoluteExpirationRelativeToNow are mutually exclusive")
	// ErrInvalidExpiration is returned by Set for negative durations.
	ErrInvalidExpiration = errors.New("tagcache: expiration durations must not be negative")
	// ErrNilValue is returned by Set for a nil payload. An empty, non-nil slice is fine.
	ErrNilValue = errors.New("tagcache: nil value")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("tagcache: closed")
	// ErrNoBackend is returned by New when Options name no way to reach the store.
	ErrNoBackend = errors.New("tagcache: one of Options.Dial, Options.Client or Options.Redis is required")
)

// OpError wraps a store or connection failure of a foreground operation.
type OpError struct {
	Op  string // "get", "set", "refresh", "remove", "tag", "invalidate", "sweep", "connect"
	Key string // logical key or tag; empty for sweep/connect
	Err error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("tagcache: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tagcache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) || errors.Is(err, ErrClosed) {
		return err
	}
	return &OpError{Op: op, Key: key, Err: err}
}
