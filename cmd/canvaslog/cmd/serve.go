/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/canvaslog/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the canvaslog REST API server.

Reads are open. Appends need the API key from the configuration, sent
as X-API-Key; without a configured key the write routes are disabled.

Examples:
  canvaslog serve
  canvaslog serve --bind 0.0.0.0 --port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		if container == nil {
			return errors.New("dependency container not set")
		}
		logger := loggerFrom(cmd)

		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		table, err := openIdentities(cfg)
		if err != nil {
			return err
		}
		defer table.Close()

		writer, err := openLog(cmd, cfg)
		if err != nil {
			return err
		}
		defer writer.Close()

		if cfg.Security.APIKey == "" {
			logger.Warn("no API key configured, write routes are disabled")
		}

		server := api.NewServer(writer, table, api.ServerConfig{
			Bind:           cfg.Server.Bind,
			Port:           cfg.Server.Port,
			APIKey:         cfg.Security.APIKey,
			LogPath:        cfg.LogPath(),
			MaxPayloadSize: cfg.Log.MaxPayloadSize,
			Gatherer:       container.GetRegistry(),
		}, container.GetMetrics(), logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, server)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "Address to bind (overrides config)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
}
