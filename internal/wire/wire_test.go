package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func mustDecode(t *testing.T, id byte, b []byte) []byte {
	t.Helper()
	p, err := Decode(id, b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return p
}

func TestRoundTripEmptyAndNonEmpty(t *testing.T) {
	cases := [][]byte{nil, {}, []byte("hello"), {0, 1, 2, 3, 4}}
	for _, payload := range cases {
		enc := Encode(7, payload)
		p := mustDecode(t, 7, enc)
		if !bytes.Equal(p, payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, payload)
		}
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := Encode(1, []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(1, enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(1, []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(1, badMagic); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(1, badVer); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on bad version")
	}

	// vlen is at offset 6..9 (4 magic +1 ver +1 codec)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[6:10], uint32(len("abc")+1))
	if _, err := Decode(1, tooLong); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, err := Decode(1, enc[:len(enc)-1]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := Decode(1, []byte("not-a-frame")); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on foreign bytes")
	}
}

func TestCodecMismatch(t *testing.T) {
	enc := Encode(1, []byte("abc"))
	if _, err := Decode(2, enc); !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestZeroCopyPayload(t *testing.T) {
	enc := Encode(1, []byte("Z"))
	p := mustDecode(t, 1, enc)
	p[0] = 'Q'
	if p2 := mustDecode(t, 1, enc); p2[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}
