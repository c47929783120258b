package canvas

const (
	// MaxShortString is the longest string a 1-byte length prefix can describe.
	MaxShortString = 255

	// ColorSize is the width of one RGBA palette entry.
	ColorSize = 4

	// DefaultPaletteRemoveLength is the length implied when a PaletteRemove
	// payload omits its length field.
	DefaultPaletteRemoveLength uint32 = 1
)

// Record is one event in a canvas log. The set of implementations is closed;
// switch on the concrete type to handle each kind.
type Record interface {
	// Tag returns the type tag the record is written under.
	Tag() Tag

	isRecord()
}

// Color is a single RGBA palette entry.
type Color [ColorSize]byte

// Size is a canvas width and height.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Bounds is a pair of packed positions delimiting a rectangular fill.
type Bounds struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// CanvasMeta describes the canvas the log belongs to.
type CanvasMeta struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Time     uint64 `json:"time"`
	Size     Size   `json:"size"`
}

// PaletteInsert writes Colors into the palette starting at Offset.
type PaletteInsert struct {
	Offset uint32  `json:"offset"`
	Colors []Color `json:"colors"`
}

// PaletteRemove drops Length palette entries starting at Offset.
// Length must not be zero.
type PaletteRemove struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

// PlacementInsert places color Col at the packed position Pos.
type PlacementInsert struct {
	Time uint64 `json:"time"`
	Pos  uint64 `json:"pos"`
	Col  uint32 `json:"col"`
}

// PlacementInsertQuiet is a PlacementInsert that clients should not announce.
type PlacementInsertQuiet PlacementInsert

// PlacementInsertFill fills the area between Pos.Start and Pos.End with Col.
type PlacementInsertFill struct {
	Time uint64 `json:"time"`
	Pos  Bounds `json:"pos"`
	Col  uint32 `json:"col"`
}

// PlacementInsertFillQuiet is the silent form of PlacementInsertFill.
type PlacementInsertFillQuiet PlacementInsertFill

// PlacementRemove undoes the placement at Pos.
type PlacementRemove struct {
	Time uint64 `json:"time"`
	Pos  uint64 `json:"pos"`
}

// PlacementRemoveQuiet is the silent form of PlacementRemove.
type PlacementRemoveQuiet PlacementRemove

// PlacementRemoveFill undoes placements between Pos.Start and Pos.End.
type PlacementRemoveFill struct {
	Time uint64 `json:"time"`
	Pos  Bounds `json:"pos"`
}

// PlacementRemoveFillQuiet is the silent form of PlacementRemoveFill.
type PlacementRemoveFillQuiet PlacementRemoveFill

func (CanvasMeta) Tag() Tag               { return TagCanvasMeta }
func (PaletteInsert) Tag() Tag            { return TagPaletteInsert }
func (PaletteRemove) Tag() Tag            { return TagPaletteRemove }
func (PlacementInsert) Tag() Tag          { return TagPlacementInsert }
func (PlacementInsertQuiet) Tag() Tag     { return TagPlacementInsertQuiet }
func (PlacementInsertFill) Tag() Tag      { return TagPlacementInsertFill }
func (PlacementInsertFillQuiet) Tag() Tag { return TagPlacementInsertFillQuiet }
func (PlacementRemove) Tag() Tag          { return TagPlacementRemove }
func (PlacementRemoveQuiet) Tag() Tag     { return TagPlacementRemoveQuiet }
func (PlacementRemoveFill) Tag() Tag      { return TagPlacementRemoveFill }
func (PlacementRemoveFillQuiet) Tag() Tag { return TagPlacementRemoveFillQuiet }

func (CanvasMeta) isRecord()               {}
func (PaletteInsert) isRecord()            {}
func (PaletteRemove) isRecord()            {}
func (PlacementInsert) isRecord()          {}
func (PlacementInsertQuiet) isRecord()     {}
func (PlacementInsertFill) isRecord()      {}
func (PlacementInsertFillQuiet) isRecord() {}
func (PlacementRemove) isRecord()          {}
func (PlacementRemoveQuiet) isRecord()     {}
func (PlacementRemoveFill) isRecord()      {}
func (PlacementRemoveFillQuiet) isRecord() {}

// IsSilent reports whether r is one of the four quiet placement variants.
func IsSilent(r Record) bool {
	return r.Tag().IsSilent()
}

// Quiet returns the silent counterpart of a placement record. Records that
// have no quiet form, or are already quiet, are returned unchanged.
func Quiet(r Record) Record {
	switch v := r.(type) {
	case PlacementInsert:
		return PlacementInsertQuiet(v)
	case PlacementInsertFill:
		return PlacementInsertFillQuiet(v)
	case PlacementRemove:
		return PlacementRemoveQuiet(v)
	case PlacementRemoveFill:
		return PlacementRemoveFillQuiet(v)
	}
	return r
}

// Loud is the inverse of Quiet.
func Loud(r Record) Record {
	switch v := r.(type) {
	case PlacementInsertQuiet:
		return PlacementInsert(v)
	case PlacementInsertFillQuiet:
		return PlacementInsertFill(v)
	case PlacementRemoveQuiet:
		return PlacementRemove(v)
	case PlacementRemoveFillQuiet:
		return PlacementRemoveFill(v)
	}
	return r
}
