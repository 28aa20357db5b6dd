package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes entry payloads with fxamacker/cbor. Build it with NewCBOR;
// the zero value has no modes and panics on use.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR builds a CBOR codec. With canonical set, encoding follows the RFC 8949
// core deterministic rules, so equal values always produce equal payloads.
// Timestamps are written as RFC 3339 strings with nanoseconds in both modes.
func NewCBOR[V any](canonical bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if canonical {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR for fixed options known to be valid; it panics otherwise.
func MustCBOR[V any](canonical bool) CBOR[V] {
	c, err := NewCBOR[V](canonical)
	if err != nil {
		panic(err)
	}
	return c
}

func (CBOR[V]) CodecID() byte { return IDCBOR }

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
