package identity

import (
	"errors"
	"io"

	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/store"
)

// ReplayResult counts what Replay saw.
type ReplayResult struct {
	Identifiers int // Identifier records ingested
	Skipped     int // Frames the codec rejected
}

// Replay reads reader to the end and registers every identifier record it
// carries. The log does not record uniqueness, so every identity is
// registered as persistent. Registration is idempotent, so replaying a log
// twice changes nothing. Corruption stops the replay with an error.
func (t *Table) Replay(reader *store.LogReader) (ReplayResult, error) {
	var result ReplayResult
	for {
		entry, err := reader.ReadNext()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		var codecErr *codec.Error
		if errors.As(err, &codecErr) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, err
		}

		_, ok, err := t.Ingest(entry.Record)
		if err != nil {
			return result, err
		}
		if ok {
			result.Identifiers++
		}
	}
}
