package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/store"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <dst>",
	Short: "Write a zstd archive of the log",
	Long: `Compress the configured log into <dst>. Archives can be read by
dump and verify with --file.

Example:
  canvaslog archive canvas.log.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		if err := store.Archive(cfg.LogPath(), args[0]); err != nil {
			return err
		}

		src, err := os.Stat(cfg.LogPath())
		if err != nil {
			return err
		}
		dst, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Archived %s (%d bytes) to %s (%d bytes)\n", cfg.LogPath(), src.Size(), args[0], dst.Size())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
