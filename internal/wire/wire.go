// Package wire frames typed values before they are stored as opaque payloads.
//
//	magic(4) | ver(1) | codec(1) | vlen(u32 be) | payload(vlen)
//
// The codec byte lets a reader notice that a payload was written by a
// different codec (e.g. after a deploy switched JSON -> msgpack) and treat
// it as corrupt instead of mis-decoding it.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("tagcache: corrupt value")
	ErrCodec   = errors.New("tagcache: value written by another codec")
	magic4     = [...]byte{'T', 'A', 'G', 'V'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

func Encode(codecID byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(codecID)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode returns a sub-slice of b (no copy). Trailing bytes are rejected.
func Decode(codecID byte, b []byte) ([]byte, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}
	if b[5] != codecID {
		return nil, ErrCodec
	}
	vlen := int(binary.BigEndian.Uint32(b[6:hdrLen]))
	if vlen != len(b)-hdrLen {
		return nil, ErrCorrupt
	}
	return b[hdrLen:], nil
}
