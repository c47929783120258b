/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/canvaslog/pkg/config"
	"github.com/ssargent/canvaslog/pkg/di"
	"github.com/ssargent/canvaslog/pkg/logging"
)

type contextKey string

const (
	configKey contextKey = "config"
	loggerKey contextKey = "logger"
)

var container *di.Container

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canvaslog",
	Short: "canvaslog - collaborative canvas event logs",
	Long: `canvaslog writes, inspects and serves binary event logs of a
collaborative pixel canvas: canvas metadata, palette edits, pixel
placements and the identities behind them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := logging.NewNop()
		if container != nil {
			logger, err = container.NewLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
		}

		// Store in command context
		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		ctx = context.WithValue(ctx, loggerKey, logger)
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location, if present)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides config)")
}

// loadConfig reads the config file if there is one and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	// Commands that can write the config accept one that does not exist yet.
	canCreate := cmd.Flags().Lookup("write-config") != nil

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) || (explicit && !canCreate) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}

func loggerFrom(cmd *cobra.Command) *zap.Logger {
	if logger, ok := cmd.Context().Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return logging.NewNop()
}
