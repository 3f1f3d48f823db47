package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"samtv/internal"
	"samtv/internal/config"
	"samtv/internal/logger"
	"samtv/internal/server"
)

var (
	serveAddress string
	serveDebug   bool
	serveTest    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST bridge",
	Long: `Run an HTTP server that forwards key presses to the configured TVs, so home automation
systems can control them with plain POST requests.

  POST /samsung/remote/key/{key}      send one key to the default TV
  POST /api/v1/tvs/{tv_id}/keys       send {"keys": [...], "delay_ms": 500}
  POST /api/v1/tvs/{tv_id}/action     send a device action request
  GET  /api/v1/keys | /api/v1/tvs | /api/v1/health`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOptionalConfig()
		if err != nil {
			return err
		}
		if cfg == nil {
			if err := config.SaveConfig(config.NewDefaultConfig(), configPath); err != nil {
				return fmt.Errorf("failed to create default config file: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Created default configuration file %s. Please edit it with your TV settings.\n", configPath)
			return nil
		}

		logger.SetSilentMode(false)
		logger.SetLevel(cfg.Logging.Level)
		if serveDebug {
			logger.SetLevel(logger.LOG_DEBUG)
		}
		log = logger.New()

		address := cfg.Server.Address
		if cmd.Flags().Changed("address") {
			address = serveAddress
		}

		options := internal.NewModeOptions(internal.WithDebug(serveDebug), internal.WithTest(serveTest))
		api, err := server.NewAPIServer(cfg, options)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			if err := api.Start(address); err != nil {
				return fmt.Errorf("API server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			log.Info().Msg("Shutting down API server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return api.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.Error().Err(err).Msg("API server stopped with error")
			return err
		}

		log.Info().Msg("API server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddress, "address", "a", ":8080", "Listen address (overrides server.address)")
	serveCmd.Flags().BoolVarP(&serveDebug, "debug", "d", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&serveTest, "test", false, "Enable test mode (simulate TVs without network access)")
}
