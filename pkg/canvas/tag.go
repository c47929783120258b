package canvas

import "fmt"

// CurrentVersion is the record format version understood by this package.
const CurrentVersion uint16 = 0

// Tag is the 16-bit type identifier carried alongside every record payload.
type Tag uint16

// Record type tags. This is the only place tag values are assigned.
const (
	TagCanvasMeta               Tag = 0x0000
	TagPaletteInsert            Tag = 0x0010
	TagPaletteRemove            Tag = 0x0011
	TagPlacementInsert          Tag = 0x0020
	TagPlacementInsertQuiet     Tag = 0x0021
	TagPlacementInsertFill      Tag = 0x0022
	TagPlacementInsertFillQuiet Tag = 0x0023
	TagPlacementRemove          Tag = 0x0024
	TagPlacementRemoveQuiet     Tag = 0x0025
	TagPlacementRemoveFill      Tag = 0x0026
	TagPlacementRemoveFillQuiet Tag = 0x0027
	TagIdentifierNumeric        Tag = 0x0030
	TagIdentifierString         Tag = 0x0031
	TagIdentifierSecret         Tag = 0x0032
)

var tagNames = map[Tag]string{
	TagCanvasMeta:               "CanvasMeta",
	TagPaletteInsert:            "PaletteInsert",
	TagPaletteRemove:            "PaletteRemove",
	TagPlacementInsert:          "PlacementInsert",
	TagPlacementInsertQuiet:     "PlacementInsertQuiet",
	TagPlacementInsertFill:      "PlacementInsertFill",
	TagPlacementInsertFillQuiet: "PlacementInsertFillQuiet",
	TagPlacementRemove:          "PlacementRemove",
	TagPlacementRemoveQuiet:     "PlacementRemoveQuiet",
	TagPlacementRemoveFill:      "PlacementRemoveFill",
	TagPlacementRemoveFillQuiet: "PlacementRemoveFillQuiet",
	TagIdentifierNumeric:        "IdentifierNumeric",
	TagIdentifierString:         "IdentifierString",
	TagIdentifierSecret:         "IdentifierSecret",
}

// Tags returns every known tag in ascending order.
func Tags() []Tag {
	return []Tag{
		TagCanvasMeta,
		TagPaletteInsert,
		TagPaletteRemove,
		TagPlacementInsert,
		TagPlacementInsertQuiet,
		TagPlacementInsertFill,
		TagPlacementInsertFillQuiet,
		TagPlacementRemove,
		TagPlacementRemoveQuiet,
		TagPlacementRemoveFill,
		TagPlacementRemoveFillQuiet,
		TagIdentifierNumeric,
		TagIdentifierString,
		TagIdentifierSecret,
	}
}

// Known reports whether t is one of the defined record tags.
func (t Tag) Known() bool {
	_, ok := tagNames[t]
	return ok
}

// IsSilent reports whether t is one of the notification-suppressing
// placement tags.
func (t Tag) IsSilent() bool {
	switch t {
	case TagPlacementInsertQuiet,
		TagPlacementInsertFillQuiet,
		TagPlacementRemoveQuiet,
		TagPlacementRemoveFillQuiet:
		return true
	}
	return false
}

// TagByName returns the tag whose String form is name.
func TagByName(name string) (Tag, bool) {
	for tag, n := range tagNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(0x%04X)", uint16(t))
}
