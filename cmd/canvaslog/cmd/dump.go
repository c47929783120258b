package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/api"
	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/identity"
	"github.com/ssargent/canvaslog/pkg/store"
	"github.com/ssargent/canvaslog/pkg/timeline"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the records in a log",
	Long: `Print the records of the configured log, or of the log or zstd
archive given with --file. Frames whose payload does not decode are
shown with the decode error. Reading stops at a corrupted frame.

With --since or --until only records carrying an event time are shown,
ordered by that time.

Examples:
  canvaslog dump
  canvaslog dump --offset 1024 --limit 10
  canvaslog dump --file canvas.log.zst --json
  canvaslog dump --since 1648817050000 --until 1648817060000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.LogPath()
		}
		offset, _ := cmd.Flags().GetInt64("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		reader, err := store.NewLogReader(store.LogReaderConfig{
			FilePath:       path,
			StartOffset:    offset,
			MaxPayloadSize: cfg.Log.MaxPayloadSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer reader.Close()

		out := cmd.OutOrStdout()
		encoder := json.NewEncoder(out)
		emit := func(entry store.Entry, err error) error {
			if asJSON {
				return encoder.Encode(api.NewRecordView(entry, err))
			}
			_, werr := fmt.Fprintln(out, formatEntry(entry, err))
			return werr
		}

		if cmd.Flags().Changed("since") || cmd.Flags().Changed("until") {
			since, _ := cmd.Flags().GetUint64("since")
			until, _ := cmd.Flags().GetUint64("until")
			return dumpBetween(cmd, reader, since, until, limit, emit)
		}

		for n := 0; limit <= 0 || n < limit; n++ {
			entry, err := reader.ReadNext()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, store.ErrCorruption) {
				return err
			}
			var codecErr *codec.Error
			if err != nil && !errors.As(err, &codecErr) {
				return err
			}

			if err := emit(entry, err); err != nil {
				return err
			}
		}
		return nil
	},
}

// dumpBetween prints the timed records within [since, until] in time order.
func dumpBetween(cmd *cobra.Command, reader *store.LogReader, since, until uint64, limit int, emit func(store.Entry, error) error) error {
	if reader.Compressed() {
		return fmt.Errorf("time filtering needs an uncompressed log: %w", store.ErrSeekCompressed)
	}

	tl, err := timeline.Build(reader)
	if errors.Is(err, store.ErrCorruption) {
		cmd.PrintErrf("Warning: %v; later records are not shown\n", err)
	} else if err != nil {
		return err
	}

	offsets := tl.Between(since, until)
	if limit > 0 && len(offsets) > limit {
		offsets = offsets[:limit]
	}
	for _, offset := range offsets {
		if err := reader.Seek(offset); err != nil {
			return err
		}
		entry, err := reader.ReadNext()
		if err != nil {
			return err
		}
		if err := emit(entry, nil); err != nil {
			return err
		}
	}
	return nil
}

// formatEntry renders one entry as a line of text. Secrets are shown as
// session ids.
func formatEntry(entry store.Entry, err error) string {
	prefix := fmt.Sprintf("%10d  %-24s", entry.Offset, entry.Tag)
	if err != nil {
		return fmt.Sprintf("%s  error: %v", prefix, err)
	}

	switch rec := entry.Record.(type) {
	case canvas.IdentifierSecret:
		if id, err := identity.SessionID(rec); err == nil {
			return fmt.Sprintf("%s  session %s", prefix, id)
		}
		return fmt.Sprintf("%s  %d secret bytes", prefix, len(rec))
	case canvas.IdentifierString:
		return fmt.Sprintf("%s  %q", prefix, string(rec))
	case canvas.IdentifierNumeric:
		return fmt.Sprintf("%s  %d", prefix, uint64(rec))
	case canvas.PaletteInsert:
		colors := make([]string, len(rec.Colors))
		for i, c := range rec.Colors {
			colors[i] = fmt.Sprintf("#%02X%02X%02X%02X", c[0], c[1], c[2], c[3])
		}
		return fmt.Sprintf("%s  {Offset:%d Colors:%v}", prefix, rec.Offset, colors)
	}
	return fmt.Sprintf("%s  %+v", prefix, entry.Record)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().String("file", "", "Log or archive to read (default: the configured log)")
	dumpCmd.Flags().Int64("offset", 0, "Frame offset to start from")
	dumpCmd.Flags().Int("limit", 0, "Maximum number of records to print (0 = all)")
	dumpCmd.Flags().Bool("json", false, "Print one JSON object per record")
	dumpCmd.Flags().Uint64("since", 0, "Only timed records at or after this time, in time order")
	dumpCmd.Flags().Uint64("until", ^uint64(0), "Only timed records at or before this time, in time order")
}
