package codec

import (
	"github.com/ssargent/canvaslog/pkg/canvas"
)

// Version is the format version this codec reads and writes. The framing
// layer negotiates with it; the codec never interprets it.
const Version = canvas.CurrentVersion

// RecordCodec converts canvas records to and from their payload bytes.
// It holds no state and is safe for concurrent use.
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Decode parses payload as a record of type tag. The payload must be
// exactly one record; leftover bytes are an error. The returned record does
// not share memory with payload.
func (c *RecordCodec) Decode(tag canvas.Tag, payload []byte) (canvas.Record, error) {
	return decode(tag, payload)
}

// Encode writes rec into out and returns the number of bytes written.
// out must hold at least EncodedLen(rec) bytes.
func (c *RecordCodec) Encode(rec canvas.Record, out []byte) (int, error) {
	return encode(rec, out)
}

// Append encodes rec onto the end of dst, growing it as needed.
func (c *RecordCodec) Append(dst []byte, rec canvas.Record) ([]byte, error) {
	n := encodedLen(rec)
	start := len(dst)
	dst = grow(dst, n)

	written, err := encode(rec, dst[start:start+n])
	if err != nil {
		return dst[:start], err
	}
	return dst[:start+written], nil
}

// EncodedLen returns the exact payload size of rec.
func (c *RecordCodec) EncodedLen(rec canvas.Record) int {
	return encodedLen(rec)
}

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) >= n {
		return b[:len(b)+n]
	}
	nb := make([]byte, len(b)+n, 2*len(b)+n)
	copy(nb, b)
	return nb
}
