package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/codec"
	"github.com/ssargent/canvaslog/pkg/config"
	"github.com/ssargent/canvaslog/pkg/store"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a log for damage",
	Long: `Read every frame of the log and report record counts, frames the
codec rejects and the first corrupted frame. With --repair a corrupted
tail is truncated so appends can continue. With --reindex the
identifiers in the log are registered with the identity table, which
rebuilds a lost table.

Examples:
  canvaslog verify
  canvaslog verify --repair
  canvaslog verify --reindex`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.LogPath()
		}
		repair, _ := cmd.Flags().GetBool("repair")
		reindex, _ := cmd.Flags().GetBool("reindex")

		if repair {
			result, err := store.Recover(path)
			if err != nil {
				return err
			}
			loggerFrom(cmd).Info("log recovered",
				zap.String("log", path),
				zap.Int64("validated", result.RecordsValidated),
				zap.Int64("invalid", result.RecordsInvalid),
				zap.Int64("truncated", result.BytesTruncated),
				zap.Duration("duration", result.RecoveryTime),
			)
			cmd.Printf("Frames validated: %d\n", result.RecordsValidated)
			cmd.Printf("Frames rejected by codec: %d\n", result.RecordsInvalid)
			cmd.Printf("Bytes truncated: %d (%d -> %d)\n", result.BytesTruncated, result.FileSizeBefore, result.FileSizeAfter)
			if reindex {
				return reindexIdentities(cmd, cfg, path)
			}
			return nil
		}

		reader, err := store.NewLogReader(store.LogReaderConfig{
			FilePath:       path,
			MaxPayloadSize: cfg.Log.MaxPayloadSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer reader.Close()

		counts := make(map[canvas.Tag]int)
		var frames, rejected, unknown int
		var corruption error
		for {
			entry, err := reader.ReadNext()
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, store.ErrCorruption) {
				corruption = err
				break
			}
			var codecErr *codec.Error
			if err != nil && !errors.As(err, &codecErr) {
				return err
			}

			frames++
			if !entry.Tag.Known() {
				unknown++
			}
			if err != nil {
				rejected++
				cmd.Printf("Rejected frame at offset %d (%s): %v\n", entry.Offset, entry.Tag, err)
				continue
			}
			counts[entry.Tag]++
		}

		cmd.Printf("Log: %s\n", path)
		cmd.Printf("Frames: %d\n", frames)
		for _, tag := range canvas.Tags() {
			if n := counts[tag]; n > 0 {
				cmd.Printf("  %-24s %d\n", tag, n)
			}
		}
		cmd.Printf("Rejected by codec: %d (unknown types: %d)\n", rejected, unknown)

		if corruption != nil {
			cmd.Printf("Corruption: %v\n", corruption)
			return fmt.Errorf("log is damaged; run 'canvaslog verify --repair' to truncate at offset %d", reader.Offset())
		}
		cmd.Println("Log is intact")
		if reindex {
			return reindexIdentities(cmd, cfg, path)
		}
		return nil
	},
}

// reindexIdentities registers every identifier in the log at path with the
// configured identity table.
func reindexIdentities(cmd *cobra.Command, cfg *config.Config, path string) error {
	reader, err := store.NewLogReader(store.LogReaderConfig{
		FilePath:       path,
		MaxPayloadSize: cfg.Log.MaxPayloadSize,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer reader.Close()

	table, err := openIdentities(cfg)
	if err != nil {
		return err
	}
	defer table.Close()

	result, err := table.Replay(reader)
	if err != nil {
		return fmt.Errorf("reindex stopped at offset %d: %w", reader.Offset(), err)
	}
	persistent, _ := table.Len()

	loggerFrom(cmd).Info("identities reindexed",
		zap.String("log", path),
		zap.Int("identifiers", result.Identifiers),
		zap.Int("skipped", result.Skipped),
		zap.Int("table", persistent),
	)
	cmd.Printf("Identifiers replayed: %d (table holds %d)\n", result.Identifiers, persistent)
	return nil
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().String("file", "", "Log or archive to check (default: the configured log)")
	verifyCmd.Flags().Bool("repair", false, "Truncate a corrupted tail")
	verifyCmd.Flags().Bool("reindex", false, "Register every identifier in the log with the identity table")
}
