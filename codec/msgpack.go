package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack encodes entry payloads with vmihailenco/msgpack. Field names come
// from `msgpack` struct tags, not `json` ones. The zero value is ready to use.
type Msgpack[V any] struct{}

func (Msgpack[V]) CodecID() byte { return IDMsgpack }

func (Msgpack[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
