package codec

// Bytes stores []byte payloads as is. Typed still frames them with the codec id.
type Bytes struct{}

func (Bytes) CodecID() byte { return IDBytes }

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores strings as their raw bytes, without UTF-8 validation.
type String struct{}

func (String) CodecID() byte { return IDString }

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
