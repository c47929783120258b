package canvas

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	metaIDUniqueBit = 1 << 31
	metaIDIndexMask = metaIDUniqueBit - 1
	metaIDNone      = metaIDIndexMask
)

var (
	// ErrMetaIDOutOfRange is returned when a table index collides with the
	// reserved "no identifier" value.
	ErrMetaIDOutOfRange = errors.New("meta id index out of range")

	// ErrMetaIDLength is returned when a serialized MetaIDIndex is not 4 bytes.
	ErrMetaIDLength = errors.New("meta id index must be 4 bytes")
)

// MetaIDIndex references an identity in a side table. Bit 31 marks
// session-scoped (unique) identities and the low 31 bits are the table
// index, except for the all-ones index which means "no identifier".
type MetaIDIndex struct {
	v uint32
}

var (
	// NoMetaID refers to no identity.
	NoMetaID = MetaIDIndex{v: metaIDNone}

	// NoUniqueMetaID refers to no identity and carries the unique flag.
	NoUniqueMetaID = MetaIDIndex{v: metaIDUniqueBit | metaIDNone}
)

// NewMetaIDIndex builds a reference to table slot index.
func NewMetaIDIndex(index uint32, unique bool) (MetaIDIndex, error) {
	if index >= metaIDNone {
		return NoMetaID, fmt.Errorf("%w: %d", ErrMetaIDOutOfRange, index)
	}
	if unique {
		index |= metaIDUniqueBit
	}
	return MetaIDIndex{v: index}, nil
}

// IsUnique reports whether the reference points into the session-scoped table.
func (m MetaIDIndex) IsUnique() bool {
	return m.v&metaIDUniqueBit != 0
}

// IsNone reports whether the reference is one of the two "no identifier" values.
func (m MetaIDIndex) IsNone() bool {
	return m.v&metaIDIndexMask == metaIDNone
}

// Index returns the table slot.
func (m MetaIDIndex) Index() uint32 {
	return m.v & metaIDIndexMask
}

// MarshalBinary encodes the reference as 4 little-endian bytes.
func (m MetaIDIndex) MarshalBinary() ([]byte, error) {
	return binary.LittleEndian.AppendUint32(nil, m.v), nil
}

// UnmarshalBinary decodes a reference written by MarshalBinary.
func (m *MetaIDIndex) UnmarshalBinary(data []byte) error {
	if len(data) != 4 {
		return fmt.Errorf("%w: got %d", ErrMetaIDLength, len(data))
	}
	m.v = binary.LittleEndian.Uint32(data)
	return nil
}

func (m MetaIDIndex) String() string {
	switch {
	case m.IsNone() && m.IsUnique():
		return "none(unique)"
	case m.IsNone():
		return "none"
	case m.IsUnique():
		return fmt.Sprintf("unique#%d", m.Index())
	}
	return fmt.Sprintf("#%d", m.Index())
}
