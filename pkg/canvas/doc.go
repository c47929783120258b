// Package canvas defines the records of a collaborative pixel-canvas event log.
//
// A log is a sequence of typed records: canvas metadata, palette changes,
// pixel placements and removals (single and rectangular fill), and contributor
// identifiers. Every record type carries a fixed 16-bit Tag; the tag values
// are assigned once in this package and used unchanged by the codec.
//
// The four placement families each have a "quiet" variant. A quiet record has
// the same fields and wire layout as its counterpart and only differs in tag,
// telling clients not to announce the change:
//
//	rec := canvas.PlacementInsert{Time: 1234, Pos: 21, Col: 5}
//	quiet := canvas.Quiet(rec) // canvas.PlacementInsertQuiet
//	canvas.IsSilent(quiet)     // true
//
// Records are plain values. They hold no resources and are safe to share
// between goroutines as long as nobody mutates slice fields in place.
package canvas
