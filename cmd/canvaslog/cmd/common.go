package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/config"
	"github.com/ssargent/canvaslog/pkg/identity"
	"github.com/ssargent/canvaslog/pkg/logging"
	"github.com/ssargent/canvaslog/pkg/metrics"
	"github.com/ssargent/canvaslog/pkg/store"
)

func appMetrics() *metrics.Metrics {
	if container == nil {
		return nil
	}
	return container.GetMetrics()
}

// openLog repairs a torn tail left by a crash and opens the log for appending.
func openLog(cmd *cobra.Command, cfg *config.Config) (*store.LogWriter, error) {
	logger := loggerFrom(cmd)

	result, err := store.Recover(cfg.LogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to recover log: %w", err)
	}
	if result.BytesTruncated > 0 {
		logger.Warn("truncated torn log tail",
			zap.String("log", cfg.LogPath()),
			zap.Int64("bytes", result.BytesTruncated),
			zap.Int64("size", result.FileSizeAfter),
		)
		cmd.PrintErrf("Recovered %s: truncated %d bytes of torn data\n", cfg.LogPath(), result.BytesTruncated)
	}

	writer, err := store.NewLogWriter(store.LogWriterConfig{
		FilePath:       cfg.LogPath(),
		FsyncInterval:  cfg.Log.FsyncInterval,
		BufferSize:     cfg.Log.BufferSize,
		MaxPayloadSize: cfg.Log.MaxPayloadSize,
		Logger:         logger,
		Metrics:        appMetrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return writer, nil
}

func openIdentities(cfg *config.Config) (*identity.Table, error) {
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return identity.Open(cfg.IdentityPath())
}

// appendRecords appends records to the configured log and reports each offset.
func appendRecords(cmd *cobra.Command, records ...canvas.Record) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	writer, err := openLog(cmd, cfg)
	if err != nil {
		return err
	}
	defer writer.Close()

	logger := loggerFrom(cmd)
	for _, rec := range records {
		offset, err := writer.Append(rec)
		if err != nil {
			logger.Error("append failed", append(logging.Record(rec), zap.Error(err))...)
			return fmt.Errorf("failed to append %s: %w", rec.Tag(), err)
		}
		cmd.Printf("Appended %s at offset %d\n", rec.Tag(), offset)
	}
	return nil
}

// addRecordFlags registers the flags shared by the placement commands.
func addRecordFlags(c *cobra.Command) {
	c.Flags().Uint64("time", 0, "Event time (default: now, in Unix milliseconds)")
	c.Flags().Bool("quiet", false, "Write the silent variant of the record")
}

func eventTime(cmd *cobra.Command) uint64 {
	if cmd.Flags().Changed("time") {
		t, _ := cmd.Flags().GetUint64("time")
		return t
	}
	return uint64(time.Now().UnixMilli())
}

func maybeQuiet(cmd *cobra.Command, rec canvas.Record) canvas.Record {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return canvas.Quiet(rec)
	}
	return rec
}

func parseUint64(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return uint32(v), nil
}

// parseColor accepts RRGGBB or RRGGBBAA, with or without a leading '#'.
// Alpha defaults to opaque.
func parseColor(s string) (canvas.Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return canvas.Color{}, fmt.Errorf("invalid color %q: want RRGGBB or RRGGBBAA", s)
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return canvas.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	c := canvas.Color{0, 0, 0, 0xFF}
	copy(c[:], raw)
	return c, nil
}
