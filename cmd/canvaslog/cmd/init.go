/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/canvas"
	"github.com/ssargent/canvaslog/pkg/config"
	"github.com/ssargent/canvaslog/pkg/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a canvas log",
	Long: `Create a canvas log and write its CanvasMeta record.

If the log already holds records nothing is written unless --force is
given, in which case a further CanvasMeta is appended.

Examples:
  canvaslog init --name place --platform reddit --width 2000 --height 2000
  canvaslog init --name place --width 1000 --height 1000 --write-config`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		platform, _ := cmd.Flags().GetString("platform")
		width, _ := cmd.Flags().GetUint32("width")
		height, _ := cmd.Flags().GetUint32("height")
		force, _ := cmd.Flags().GetBool("force")
		writeConfig, _ := cmd.Flags().GetBool("write-config")

		if writeConfig {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}
			if config.ConfigExists(configPath) {
				cmd.Printf("Configuration already exists at %s\n", configPath)
			} else {
				bootstrapped, err := config.BootstrapConfig(configPath, cfg.DataDir)
				if err != nil {
					return err
				}
				cmd.Printf("Configuration created at %s\n", configPath)
				cmd.Printf("API key for writes: %s\n", bootstrapped.Security.APIKey)
			}
		}

		writer, err := openLog(cmd, cfg)
		if err != nil {
			return err
		}
		defer writer.Close()

		if writer.Size() > store.FileHeaderSize && !force {
			cmd.Printf("Log %s already initialized. Use --force to append another CanvasMeta.\n", cfg.LogPath())
			return nil
		}

		meta := canvas.CanvasMeta{
			Name:     name,
			Platform: platform,
			Time:     eventTime(cmd),
			Size:     canvas.Size{Width: width, Height: height},
		}
		offset, err := writer.Append(meta)
		if err != nil {
			return err
		}

		cmd.Printf("Initialized canvas %q (%dx%d) in %s at offset %d\n", name, width, height, cfg.LogPath(), offset)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("name", "canvas", "Canvas name (at most 255 bytes)")
	initCmd.Flags().String("platform", "", "Platform the canvas runs on (at most 255 bytes)")
	initCmd.Flags().Uint32("width", 1000, "Canvas width")
	initCmd.Flags().Uint32("height", 1000, "Canvas height")
	initCmd.Flags().Uint64("time", 0, "Creation time (default: now, in Unix milliseconds)")
	initCmd.Flags().Bool("force", false, "Append a CanvasMeta even if the log has records")
	initCmd.Flags().Bool("write-config", false, "Write a configuration file with a generated API key if none exists")
}
