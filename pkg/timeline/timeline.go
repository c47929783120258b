package timeline

import (
	"errors"
	"io"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/store"
)

// Timeline indexes the timed records of a log by event time. Each time
// maps to the offsets of the frames carrying it, in log order.
type Timeline struct {
	tree *BPlusTree[uint64, []int64]
}

// New creates an empty timeline.
func New() *Timeline {
	return &Timeline{tree: NewBPlusTree[uint64, []int64](DefaultOrder)}
}

// EventTime returns the time carried by rec. Palette edits and
// identifiers have none.
func EventTime(rec canvas.Record) (uint64, bool) {
	switch v := rec.(type) {
	case canvas.CanvasMeta:
		return v.Time, true
	case canvas.PlacementInsert:
		return v.Time, true
	case canvas.PlacementInsertQuiet:
		return v.Time, true
	case canvas.PlacementInsertFill:
		return v.Time, true
	case canvas.PlacementInsertFillQuiet:
		return v.Time, true
	case canvas.PlacementRemove:
		return v.Time, true
	case canvas.PlacementRemoveQuiet:
		return v.Time, true
	case canvas.PlacementRemoveFill:
		return v.Time, true
	case canvas.PlacementRemoveFillQuiet:
		return v.Time, true
	}
	return 0, false
}

// Add indexes the frame at offset under t.
func (tl *Timeline) Add(t uint64, offset int64) {
	tl.tree.Upsert(t, func(offsets []int64, _ bool) []int64 {
		return append(offsets, offset)
	})
}

// Index adds entry if its record carries a time and reports whether it did.
func (tl *Timeline) Index(entry store.Entry) bool {
	if entry.Record == nil {
		return false
	}
	t, ok := EventTime(entry.Record)
	if ok {
		tl.Add(t, entry.Offset)
	}
	return ok
}

// Between returns the offsets of frames timed within [from, to], ordered
// by time and then by log position.
func (tl *Timeline) Between(from, to uint64) []int64 {
	var offsets []int64
	tl.tree.Range(from, to, func(_ uint64, at []int64) bool {
		offsets = append(offsets, at...)
		return true
	})
	return offsets
}

// Span returns the earliest and latest indexed times.
func (tl *Timeline) Span() (first, last uint64, ok bool) {
	tl.tree.Range(0, ^uint64(0), func(t uint64, _ []int64) bool {
		if !ok {
			first, ok = t, true
		}
		last = t
		return true
	})
	return first, last, ok
}

// Len returns the number of distinct times indexed.
func (tl *Timeline) Len() int {
	return tl.tree.Len()
}

// Build reads reader to the end and indexes every timed record. Frames the
// codec rejects are skipped; corruption stops the build with an error.
func Build(reader *store.LogReader) (*Timeline, error) {
	tl := New()
	for {
		entry, err := reader.ReadNext()
		if errors.Is(err, io.EOF) {
			return tl, nil
		}
		var codecErr *codec.Error
		if err != nil && !errors.As(err, &codecErr) {
			return tl, err
		}
		tl.Index(entry)
	}
}
