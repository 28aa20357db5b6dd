package store

import (
	"errors"
	"testing"
)

func TestBytes(t *testing.T) {
	if b, err := Bytes("abc", nil); err != nil || string(b) != "abc" {
		t.Fatalf("string reply: %q %v", b, err)
	}
	if b, err := Bytes([]byte("x"), nil); err != nil || string(b) != "x" {
		t.Fatalf("bytes reply: %q %v", b, err)
	}
	if _, err := Bytes(nil, nil); !errors.Is(err, ErrNil) {
		t.Fatalf("nil reply: want ErrNil, got %v", err)
	}
	if _, err := Bytes(int64(1), nil); err == nil {
		t.Fatalf("integer reply should not convert to bytes")
	}
	boom := errors.New("boom")
	if _, err := Bytes("x", boom); !errors.Is(err, boom) {
		t.Fatalf("error must pass through, got %v", err)
	}
}

func TestInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, "7", []byte("7")} {
		n, err := Int64(v, nil)
		if err != nil || n != 7 {
			t.Fatalf("Int64(%T) = %d, %v", v, n, err)
		}
	}
	if _, err := Int64(nil, nil); !errors.Is(err, ErrNil) {
		t.Fatalf("nil reply: want ErrNil, got %v", err)
	}
	if _, err := Int64(3.5, nil); err == nil {
		t.Fatalf("float reply should fail")
	}
}

func TestScriptHash(t *testing.T) {
	// sha1("return 1")
	s := NewScript("one", "return 1")
	if s.Hash() != "e0e1f9fabfc9d4800c877a703b823ac0578ff8db" {
		t.Fatalf("unexpected hash %s", s.Hash())
	}
	if s.Name() != "one" || s.Source() != "return 1" {
		t.Fatalf("accessors: %q %q", s.Name(), s.Source())
	}
}
