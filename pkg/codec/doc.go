// Package codec serializes canvas records to and from their binary payloads.
//
// A payload never carries its own type or length: the framing layer stores
// the record's canvas.Tag and the payload length next to it, and hands the
// codec exactly one payload at a time.
//
// # Payload Layouts
//
// All integers are little-endian.
//
//	CanvasMeta          [NameLen(1)][Name][PlatformLen(1)][Platform][Time(8)][Width(4)][Height(4)]
//	PaletteInsert       [Offset(4)][RGBA(4)]...
//	PaletteRemove       [Offset(4)] or [Offset(4)][Length(4)]
//	PlacementInsert     [Time(8)][Pos(8)][Col(4)]
//	PlacementInsertFill [Time(8)][Start(8)][End(8)][Col(4)]
//	PlacementRemove     [Time(8)][Pos(8)]
//	PlacementRemoveFill [Time(8)][Start(8)][End(8)]
//	IdentifierNumeric   [ID(8)]
//	IdentifierString    [UTF-8 bytes]
//	IdentifierSecret    [raw bytes]
//
// Quiet placement records use the layout of their counterpart.
//
// Variable-length trailing fields take the rest of the payload, so the
// payload length is the only length signal. PaletteInsert payloads must
// therefore hold a whole number of colors.
//
// PaletteRemove omits its length when it is 1 (short form). Decoding accepts
// both forms for any length, and rejects an explicit length of 0.
//
// # Usage
//
//	c := codec.NewRecordCodec()
//
//	rec := canvas.PlacementInsert{Time: 1234, Pos: 21, Col: 5}
//	payload, err := c.Append(nil, rec)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := c.Decode(rec.Tag(), payload)
//
// # Error Handling
//
// Every failure is an *Error whose Kind says what went wrong; use errors.Is
// with ErrUnexpectedType, ErrInvalidValueLength, ErrInvalidUTF8 or
// ErrInvalidField, or errors.As to inspect the offending bytes. Strings too
// long for their 1-byte length prefix fail to encode instead of being
// truncated.
//
// # Thread Safety
//
// RecordCodec instances are safe for concurrent use. Encode only writes to
// the buffer it is given and keeps no reference to it.
package codec
