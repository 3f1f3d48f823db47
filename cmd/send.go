package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"samtv/internal"
	"samtv/internal/logger"
	"samtv/internal/samsung"
)

var (
	sendHost    string
	sendPort    int
	sendAppName string
	sendDelay   time.Duration
	sendTV      string
	sendDebug   bool
	sendTest    bool
)

var sendCmd = &cobra.Command{
	Use:   "send [key...]",
	Short: "Send one or more keys to a TV",
	Long: `Send a sequence of remote control keys to a Samsung TV.
Keys may be given with or without the KEY_ prefix (KEY_VOLUP or VOLUP) and are sent in order,
with --delay between them. The TV is taken from --host or from the configuration file.`,
	Example: `  samtv send --host 10.0.0.5 KEY_VOLUP KEY_VOLUP
  samtv send --tv bedroom --delay 500ms HOME RIGHT PANNEL_ENTER`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendDebug || sendTest {
			logger.SetSilentMode(false)
			if sendDebug {
				logger.SetLevel(logger.LOG_DEBUG)
			}
			log = logger.New()
		}

		remoteConfig, err := resolveRemoteConfig(cmd, sendTV)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("delay") {
			remoteConfig.KeyDelay = sendDelay
		}

		options := internal.NewModeOptions(internal.WithDebug(sendDebug), internal.WithTest(sendTest))
		remote := samsung.NewRemote(remoteConfig, options, logger.Component("samsung"))

		if sendTest {
			dialer := samsung.NewSimulatedDialer()
			dialer.OnSend(func(frame []byte) {
				cmd.Printf("simulated frame:\n%s\n", frame)
			})
			remote.SetDialer(dialer)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info().
			Str("url", remote.URL()).
			Strs("keys", args).
			Msg("Sending keys")

		if err := remote.SendKeys(ctx, args); err != nil {
			if errors.Is(err, samsung.ErrEmptyQueue) {
				log.Warn().Msg("No keys to send")
				return nil
			}
			log.Error().Err(err).Msg("Failed to send keys")
			return err
		}

		cmd.Printf("Sent %d key(s) to %s\n", len(args), remoteConfig.Host)
		return nil
	},
}

// resolveRemoteConfig merges the host, port and app-name flags of cmd over the
// configuration file's TV settings
func resolveRemoteConfig(cmd *cobra.Command, tvID string) (samsung.RemoteConfig, error) {
	remoteConfig := samsung.NewRemoteConfig("")

	cfg, err := loadOptionalConfig()
	if err != nil {
		return remoteConfig, err
	}

	if cfg != nil && (tvID != "" || !cmd.Flags().Changed("host")) {
		tv, err := cfg.DefaultTV()
		if tvID != "" {
			tv, err = cfg.TV(tvID)
		}
		if err != nil {
			return remoteConfig, err
		}
		remoteConfig = cfg.RemoteConfigFor(*tv)
	} else if tvID != "" {
		return remoteConfig, fmt.Errorf("--tv requires a configuration file (%s not found)", configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		remoteConfig.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		remoteConfig.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("app-name") {
		remoteConfig.AppName, _ = flags.GetString("app-name")
	}

	if remoteConfig.Host == "" {
		return remoteConfig, fmt.Errorf("no TV host given: use --host or add a tv to %s", configPath)
	}
	return remoteConfig, nil
}

func init() {
	sendCmd.Flags().StringVarP(&sendHost, "host", "H", "", "TV host address (prefer an IP address)")
	sendCmd.Flags().IntVarP(&sendPort, "port", "p", samsung.DefaultPort, "TV remote control port")
	sendCmd.Flags().StringVarP(&sendAppName, "app-name", "n", samsung.DefaultAppName, "Application name shown on the TV")
	sendCmd.Flags().DurationVar(&sendDelay, "delay", samsung.DefaultKeyDelay, "Delay after each key")
	sendCmd.Flags().StringVar(&sendTV, "tv", "", "TV ID from the configuration file")
	sendCmd.Flags().BoolVarP(&sendDebug, "debug", "d", false, "Enable debug logging")
	sendCmd.Flags().BoolVar(&sendTest, "test", false, "Enable test mode (simulate the TV without network access)")
}
