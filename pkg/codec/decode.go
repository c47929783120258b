package codec

import (
	"encoding/binary"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// decode parses payload as a record of type tag. Quiet tags are parsed by
// the same routine as their counterpart and only differ in the result type.
func decode(tag canvas.Tag, payload []byte) (canvas.Record, error) {
	switch tag {
	case canvas.TagCanvasMeta:
		return record(decodeCanvasMeta(payload))
	case canvas.TagPaletteInsert:
		return record(decodePaletteInsert(payload))
	case canvas.TagPaletteRemove:
		return record(decodePaletteRemove(payload))
	case canvas.TagPlacementInsert:
		return record(decodePlacementInsert(payload))
	case canvas.TagPlacementInsertQuiet:
		rec, err := decodePlacementInsert(payload)
		return record(canvas.PlacementInsertQuiet(rec), err)
	case canvas.TagPlacementInsertFill:
		return record(decodePlacementInsertFill(payload))
	case canvas.TagPlacementInsertFillQuiet:
		rec, err := decodePlacementInsertFill(payload)
		return record(canvas.PlacementInsertFillQuiet(rec), err)
	case canvas.TagPlacementRemove:
		return record(decodePlacementRemove(payload))
	case canvas.TagPlacementRemoveQuiet:
		rec, err := decodePlacementRemove(payload)
		return record(canvas.PlacementRemoveQuiet(rec), err)
	case canvas.TagPlacementRemoveFill:
		return record(decodePlacementRemoveFill(payload))
	case canvas.TagPlacementRemoveFillQuiet:
		rec, err := decodePlacementRemoveFill(payload)
		return record(canvas.PlacementRemoveFillQuiet(rec), err)
	case canvas.TagIdentifierNumeric:
		return record(decodeIdentifierNumeric(payload))
	case canvas.TagIdentifierString:
		return record(decodeIdentifierString(payload))
	case canvas.TagIdentifierSecret:
		return decodeIdentifierSecret(payload), nil
	}
	return nil, unexpectedType(tag)
}

// record drops the partially parsed value when err is set.
func record[T canvas.Record](rec T, err error) (canvas.Record, error) {
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeCanvasMeta(payload []byte) (canvas.CanvasMeta, error) {
	r := reader{buf: payload}
	var rec canvas.CanvasMeta
	var err error

	if rec.Name, err = r.shortString(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	if rec.Platform, err = r.shortString(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	if rec.Time, err = r.u64(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	if rec.Size.Width, err = r.u32(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	if rec.Size.Height, err = r.u32(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	if err := r.finish(); err != nil {
		return canvas.CanvasMeta{}, err
	}
	return rec, nil
}

func decodePaletteInsert(payload []byte) (canvas.PaletteInsert, error) {
	r := reader{buf: payload}

	offset, err := r.u32()
	if err != nil {
		return canvas.PaletteInsert{}, err
	}
	// The color count is implied by the payload length, so a partial
	// trailing entry is malformed rather than ignorable.
	if r.remaining()%canvas.ColorSize != 0 {
		return canvas.PaletteInsert{}, invalidValueLength()
	}

	var colors []canvas.Color
	if n := r.remaining() / canvas.ColorSize; n > 0 {
		colors = make([]canvas.Color, n)
		for i := range colors {
			b, err := r.take(canvas.ColorSize)
			if err != nil {
				return canvas.PaletteInsert{}, err
			}
			copy(colors[i][:], b)
		}
	}

	return canvas.PaletteInsert{Offset: offset, Colors: colors}, nil
}

func decodePaletteRemove(payload []byte) (canvas.PaletteRemove, error) {
	r := reader{buf: payload}

	offset, err := r.u32()
	if err != nil {
		return canvas.PaletteRemove{}, err
	}

	length := canvas.DefaultPaletteRemoveLength
	switch r.remaining() {
	case 0:
		// Short form: length omitted.
	case 4:
		if length, err = r.u32(); err != nil {
			return canvas.PaletteRemove{}, err
		}
		if length == 0 {
			return canvas.PaletteRemove{}, invalidField(binary.LittleEndian.AppendUint32(nil, length))
		}
	default:
		return canvas.PaletteRemove{}, invalidValueLength()
	}

	return canvas.PaletteRemove{Offset: offset, Length: length}, nil
}

func decodePlacementInsert(payload []byte) (canvas.PlacementInsert, error) {
	r := reader{buf: payload}
	var rec canvas.PlacementInsert
	var err error

	if rec.Time, err = r.u64(); err != nil {
		return canvas.PlacementInsert{}, err
	}
	if rec.Pos, err = r.u64(); err != nil {
		return canvas.PlacementInsert{}, err
	}
	if rec.Col, err = r.u32(); err != nil {
		return canvas.PlacementInsert{}, err
	}
	if err := r.finish(); err != nil {
		return canvas.PlacementInsert{}, err
	}
	return rec, nil
}

func decodePlacementInsertFill(payload []byte) (canvas.PlacementInsertFill, error) {
	r := reader{buf: payload}
	var rec canvas.PlacementInsertFill
	var err error

	if rec.Time, err = r.u64(); err != nil {
		return canvas.PlacementInsertFill{}, err
	}
	if rec.Pos, err = readBounds(&r); err != nil {
		return canvas.PlacementInsertFill{}, err
	}
	if rec.Col, err = r.u32(); err != nil {
		return canvas.PlacementInsertFill{}, err
	}
	if err := r.finish(); err != nil {
		return canvas.PlacementInsertFill{}, err
	}
	return rec, nil
}

func decodePlacementRemove(payload []byte) (canvas.PlacementRemove, error) {
	r := reader{buf: payload}
	var rec canvas.PlacementRemove
	var err error

	if rec.Time, err = r.u64(); err != nil {
		return canvas.PlacementRemove{}, err
	}
	if rec.Pos, err = r.u64(); err != nil {
		return canvas.PlacementRemove{}, err
	}
	if err := r.finish(); err != nil {
		return canvas.PlacementRemove{}, err
	}
	return rec, nil
}

func decodePlacementRemoveFill(payload []byte) (canvas.PlacementRemoveFill, error) {
	r := reader{buf: payload}
	var rec canvas.PlacementRemoveFill
	var err error

	if rec.Time, err = r.u64(); err != nil {
		return canvas.PlacementRemoveFill{}, err
	}
	if rec.Pos, err = readBounds(&r); err != nil {
		return canvas.PlacementRemoveFill{}, err
	}
	if err := r.finish(); err != nil {
		return canvas.PlacementRemoveFill{}, err
	}
	return rec, nil
}

func readBounds(r *reader) (canvas.Bounds, error) {
	start, err := r.u64()
	if err != nil {
		return canvas.Bounds{}, err
	}
	end, err := r.u64()
	if err != nil {
		return canvas.Bounds{}, err
	}
	return canvas.Bounds{Start: start, End: end}, nil
}

func decodeIdentifierNumeric(payload []byte) (canvas.IdentifierNumeric, error) {
	r := reader{buf: payload}
	id, err := r.u64()
	if err != nil {
		return 0, err
	}
	if err := r.finish(); err != nil {
		return 0, err
	}
	return canvas.IdentifierNumeric(id), nil
}

func decodeIdentifierString(payload []byte) (canvas.IdentifierString, error) {
	r := reader{buf: payload}
	s, err := utf8String(r.rest())
	if err != nil {
		return "", err
	}
	return canvas.IdentifierString(s), nil
}

func decodeIdentifierSecret(payload []byte) canvas.IdentifierSecret {
	r := reader{buf: payload}
	rest := r.rest()
	if len(rest) == 0 {
		return nil
	}
	secret := make(canvas.IdentifierSecret, len(rest))
	copy(secret, rest)
	return secret
}
