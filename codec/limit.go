package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned by LimitCodec.Decode for payloads over MaxDecode.
var ErrTooLarge = errors.New("codec: payload too large")

// LimitCodec caps the size of stored payloads it will decode. Encode is passed
// through to Inner. A MaxDecode of zero or less turns the cap off.
//
// Typed treats an ErrTooLarge like any other decode failure: the entry is
// removed and the read reports a miss.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

// CodecID forwards the id of Inner so wrapping does not change the frame id.
func (c LimitCodec[V]) CodecID() byte { return ID(c.Inner) }

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
