package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// Fixed payload sizes.
const (
	canvasMetaFixedLen     = 1 + 1 + 8 + 4 + 4
	paletteInsertFixedLen  = 4
	paletteRemoveShortLen  = 4
	paletteRemoveLongLen   = 8
	placementInsertLen     = 8 + 8 + 4
	placementInsertFillLen = 8 + 16 + 4
	placementRemoveLen     = 8 + 8
	placementRemoveFillLen = 8 + 16
	identifierNumericLen   = 8
)

// encodedLen is the exact number of bytes encode writes for rec.
func encodedLen(rec canvas.Record) int {
	switch v := rec.(type) {
	case canvas.CanvasMeta:
		return canvasMetaFixedLen + len(v.Name) + len(v.Platform)
	case canvas.PaletteInsert:
		return paletteInsertFixedLen + len(v.Colors)*canvas.ColorSize
	case canvas.PaletteRemove:
		if v.Length == canvas.DefaultPaletteRemoveLength {
			return paletteRemoveShortLen
		}
		return paletteRemoveLongLen
	case canvas.PlacementInsert, canvas.PlacementInsertQuiet:
		return placementInsertLen
	case canvas.PlacementInsertFill, canvas.PlacementInsertFillQuiet:
		return placementInsertFillLen
	case canvas.PlacementRemove, canvas.PlacementRemoveQuiet:
		return placementRemoveLen
	case canvas.PlacementRemoveFill, canvas.PlacementRemoveFillQuiet:
		return placementRemoveFillLen
	case canvas.IdentifierNumeric:
		return identifierNumericLen
	case canvas.IdentifierString:
		return len(v)
	case canvas.IdentifierSecret:
		return len(v)
	}
	return 0
}

// encode writes rec into out and returns the number of bytes written.
// Quiet records are written exactly like their counterpart.
func encode(rec canvas.Record, out []byte) (int, error) {
	w := writer{buf: out}
	var err error

	switch v := rec.(type) {
	case canvas.CanvasMeta:
		err = encodeCanvasMeta(&w, v)
	case canvas.PaletteInsert:
		err = encodePaletteInsert(&w, v)
	case canvas.PaletteRemove:
		err = encodePaletteRemove(&w, v)
	case canvas.PlacementInsert:
		err = encodePlacementInsert(&w, v)
	case canvas.PlacementInsertQuiet:
		err = encodePlacementInsert(&w, canvas.PlacementInsert(v))
	case canvas.PlacementInsertFill:
		err = encodePlacementInsertFill(&w, v)
	case canvas.PlacementInsertFillQuiet:
		err = encodePlacementInsertFill(&w, canvas.PlacementInsertFill(v))
	case canvas.PlacementRemove:
		err = encodePlacementRemove(&w, v)
	case canvas.PlacementRemoveQuiet:
		err = encodePlacementRemove(&w, canvas.PlacementRemove(v))
	case canvas.PlacementRemoveFill:
		err = encodePlacementRemoveFill(&w, v)
	case canvas.PlacementRemoveFillQuiet:
		err = encodePlacementRemoveFill(&w, canvas.PlacementRemoveFill(v))
	case canvas.IdentifierNumeric:
		err = w.u64(uint64(v))
	case canvas.IdentifierString:
		if err = validUTF8(string(v)); err == nil {
			err = w.bytes([]byte(v))
		}
	case canvas.IdentifierSecret:
		err = w.bytes(v)
	case nil:
		err = ErrNilRecord
	default:
		// Tag is not called here: rec may be a nil pointer.
		err = fmt.Errorf("%w: %T", ErrUnsupportedRecord, rec)
	}

	if err != nil {
		return 0, err
	}
	return w.n, nil
}

func encodeCanvasMeta(w *writer, rec canvas.CanvasMeta) error {
	if err := w.shortString(rec.Name); err != nil {
		return err
	}
	if err := w.shortString(rec.Platform); err != nil {
		return err
	}
	if err := w.u64(rec.Time); err != nil {
		return err
	}
	if err := w.u32(rec.Size.Width); err != nil {
		return err
	}
	return w.u32(rec.Size.Height)
}

func encodePaletteInsert(w *writer, rec canvas.PaletteInsert) error {
	if err := w.u32(rec.Offset); err != nil {
		return err
	}
	for _, c := range rec.Colors {
		if err := w.bytes(c[:]); err != nil {
			return err
		}
	}
	return nil
}

func encodePaletteRemove(w *writer, rec canvas.PaletteRemove) error {
	if rec.Length == 0 {
		return invalidField(binary.LittleEndian.AppendUint32(nil, rec.Length))
	}
	if err := w.u32(rec.Offset); err != nil {
		return err
	}
	// The default length is implied by its absence.
	if rec.Length == canvas.DefaultPaletteRemoveLength {
		return nil
	}
	return w.u32(rec.Length)
}

func encodePlacementInsert(w *writer, rec canvas.PlacementInsert) error {
	if err := w.u64(rec.Time); err != nil {
		return err
	}
	if err := w.u64(rec.Pos); err != nil {
		return err
	}
	return w.u32(rec.Col)
}

func encodePlacementInsertFill(w *writer, rec canvas.PlacementInsertFill) error {
	if err := w.u64(rec.Time); err != nil {
		return err
	}
	if err := writeBounds(w, rec.Pos); err != nil {
		return err
	}
	return w.u32(rec.Col)
}

func encodePlacementRemove(w *writer, rec canvas.PlacementRemove) error {
	if err := w.u64(rec.Time); err != nil {
		return err
	}
	return w.u64(rec.Pos)
}

func encodePlacementRemoveFill(w *writer, rec canvas.PlacementRemoveFill) error {
	if err := w.u64(rec.Time); err != nil {
		return err
	}
	return writeBounds(w, rec.Pos)
}

func writeBounds(w *writer, b canvas.Bounds) error {
	if err := w.u64(b.Start); err != nil {
		return err
	}
	return w.u64(b.End)
}
