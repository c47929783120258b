package codec

import (
	"encoding/binary"
	"unicode/utf8"
)

// reader consumes a payload from the front.
type reader struct {
	buf []byte
}

func (r *reader) remaining() int {
	return len(r.buf)
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf) {
		return nil, invalidValueLength()
	}
	b := r.buf[:n:n]
	r.buf = r.buf[n:]
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// shortString reads a string behind a 1-byte length prefix.
func (r *reader) shortString() (string, error) {
	n, err := r.u8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return utf8String(b)
}

// rest consumes every remaining byte.
func (r *reader) rest() []byte {
	b := r.buf
	r.buf = nil
	return b
}

// finish fails if any payload bytes were left unread.
func (r *reader) finish() error {
	if len(r.buf) != 0 {
		return invalidValueLength()
	}
	return nil
}

// writer fills a caller-owned buffer from the front.
type writer struct {
	buf []byte
	n   int
}

func (w *writer) reserve(n int) ([]byte, error) {
	if len(w.buf)-w.n < n {
		return nil, invalidValueLength()
	}
	b := w.buf[w.n : w.n+n]
	w.n += n
	return b, nil
}

func (w *writer) bytes(p []byte) error {
	b, err := w.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

func (w *writer) u8(v uint8) error {
	b, err := w.reserve(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (w *writer) u32(v uint32) error {
	b, err := w.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (w *writer) u64(v uint64) error {
	b, err := w.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	return nil
}

// shortString writes s behind a 1-byte length prefix. Strings that do not
// fit the prefix are rejected, never truncated.
func (w *writer) shortString(s string) error {
	if len(s) > 0xFF {
		return invalidField(binary.LittleEndian.AppendUint64(nil, uint64(len(s))))
	}
	if err := validUTF8(s); err != nil {
		return err
	}
	if err := w.u8(uint8(len(s))); err != nil {
		return err
	}
	return w.bytes([]byte(s))
}

func utf8String(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", invalidUTF8(firstInvalidUTF8(b))
	}
	return string(b), nil
}

func validUTF8(s string) error {
	if !utf8.ValidString(s) {
		return invalidUTF8(firstInvalidUTF8([]byte(s)))
	}
	return nil
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
