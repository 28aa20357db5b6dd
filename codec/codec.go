package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Identified is implemented by codecs that stamp their frames with a stable id,
// so values written by one codec are never decoded by another.
// Codecs without it use id 0.
type Identified interface {
	CodecID() byte
}

// IDs of the built-in codecs. Stored in every frame; never renumber.
const (
	IDJSON     byte = 1
	IDMsgpack  byte = 2
	IDCBOR     byte = 3
	IDProtobuf byte = 4
	IDBytes    byte = 5
	IDString   byte = 6
)

// ID returns the id of c, or 0 when c does not implement Identified.
func ID(c any) byte {
	if id, ok := c.(Identified); ok {
		return id.CodecID()
	}
	return 0
}
