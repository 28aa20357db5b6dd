package codec

import "google.golang.org/protobuf/proto"

// Protobuf encodes proto messages. Decode fills a fresh message from alloc,
// e.g. func() *pb.Session { return new(pb.Session) }.
type Protobuf[T proto.Message] struct {
	alloc func() T
}

func NewProtobuf[T proto.Message](alloc func() T) Protobuf[T] {
	return Protobuf[T]{alloc: alloc}
}

func (Protobuf[T]) CodecID() byte { return IDProtobuf }

func (Protobuf[T]) Encode(v T) ([]byte, error) { return proto.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.alloc()
	return m, proto.Unmarshal(b, m)
}
