package redigo

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/unkn0wn-root/tagcache/store"
)

func TestRedigoStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := New(Config{Pool: NewPool(mr.Addr(), 2), ClosePool: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	set := store.NewScript("set", "redis.call('HSET', KEYS[1], 'data', ARGV[1]) return redis.call('HGET', KEYS[1], 'data')")
	b, err := store.Bytes(s.Eval(ctx, set, []string{"h"}, "payload"))
	if err != nil || string(b) != "payload" {
		t.Fatalf("bulk reply: %q %v", b, err)
	}

	count := store.NewScript("count", "return #KEYS + #ARGV")
	n, err := store.Int64(s.Eval(ctx, count, []string{"a", "b", "c"}, 1))
	if err != nil || n != 4 {
		t.Fatalf("integer reply: %d %v", n, err)
	}

	miss := store.NewScript("miss", "return redis.call('GET', KEYS[1])")
	if _, err := s.Eval(ctx, miss, []string{"absent"}); !errors.Is(err, store.ErrNil) {
		t.Fatalf("nil reply: want ErrNil, got %v", err)
	}
}

func TestNilPool(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilPool) {
		t.Fatalf("want ErrNilPool, got %v", err)
	}
}

func TestScriptHandleReused(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s, err := New(Config{Pool: NewPool(mr.Addr(), 2), ClosePool: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	sc := store.NewScript("echo", "return ARGV[1]")
	for i := 0; i < 3; i++ {
		if _, err := s.Eval(ctx, sc, []string{"k"}, "x"); err != nil {
			t.Fatalf("Eval: %v", err)
		}
	}
	if a, b := s.script(sc, 1), s.script(sc, 1); a != b {
		t.Fatalf("script handle rebuilt between calls")
	}
	if s.script(sc, 1) == s.script(sc, 2) {
		t.Fatalf("key count must select a distinct handle")
	}
	n := 0
	s.scripts.Range(func(any, any) bool { n++; return true })
	if n != 2 {
		t.Fatalf("cached %d handles, want 2", n)
	}
}
