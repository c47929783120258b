package codec

import (
	"errors"
	"fmt"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// Kind classifies codec failures.
type Kind uint8

const (
	// KindUnexpectedType means the tag is not a known record type.
	KindUnexpectedType Kind = iota + 1
	// KindInvalidValueLength means the payload (or output buffer) is too short
	// for a fixed-width field, or has bytes left over.
	KindInvalidValueLength
	// KindInvalidUTF8 means a string field is not valid UTF-8.
	KindInvalidUTF8
	// KindInvalidField means a field holds a value the format forbids.
	KindInvalidField
	// KindIO wraps a failure of the surrounding stream.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindUnexpectedType:
		return "unexpected_type"
	case KindInvalidValueLength:
		return "invalid_value_length"
	case KindInvalidUTF8:
		return "invalid_utf8"
	case KindInvalidField:
		return "invalid_field"
	case KindIO:
		return "io"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is returned by every codec operation that fails.
type Error struct {
	Kind Kind

	// Tag is the rejected tag for KindUnexpectedType.
	Tag canvas.Tag
	// Field holds the offending raw bytes for KindInvalidField.
	Field []byte
	// Offset is the position of the first bad byte inside the string for
	// KindInvalidUTF8.
	Offset int
	// Err is the underlying failure for KindIO.
	Err error
}

// Sentinels for errors.Is. A codec error matches the sentinel of its Kind.
var (
	ErrUnexpectedType     = &Error{Kind: KindUnexpectedType}
	ErrInvalidValueLength = &Error{Kind: KindInvalidValueLength}
	ErrInvalidUTF8        = &Error{Kind: KindInvalidUTF8}
	ErrInvalidField       = &Error{Kind: KindInvalidField}
	ErrIO                 = &Error{Kind: KindIO}
)

// ErrNilRecord is returned when encoding a nil record.
var ErrNilRecord = errors.New("codec: nil record")

// ErrUnsupportedRecord is returned when encoding a record in a form other
// than the value types of package canvas, such as a pointer to one.
var ErrUnsupportedRecord = errors.New("codec: unsupported record form")

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnexpectedType:
		return fmt.Sprintf("codec: unexpected type 0x%04X", uint16(e.Tag))
	case KindInvalidValueLength:
		return "codec: value too small"
	case KindInvalidUTF8:
		return fmt.Sprintf("codec: invalid utf-8 at byte %d", e.Offset)
	case KindInvalidField:
		return fmt.Sprintf("codec: invalid data in record (%x)", e.Field)
	case KindIO:
		return fmt.Sprintf("codec: io: %v", e.Err)
	}
	return "codec: " + e.Kind.String()
}

// Is reports whether target is a codec error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IOError wraps a stream failure so callers can handle all record errors
// through one type.
func IOError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIO, Err: err}
}

// KindOf returns the kind of a codec error, or 0 if err is not one.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

func unexpectedType(tag canvas.Tag) error {
	return &Error{Kind: KindUnexpectedType, Tag: tag}
}

func invalidValueLength() error {
	return &Error{Kind: KindInvalidValueLength}
}

func invalidField(raw []byte) error {
	return &Error{Kind: KindInvalidField, Field: raw}
}

func invalidUTF8(offset int) error {
	return &Error{Kind: KindInvalidUTF8, Offset: offset}
}
