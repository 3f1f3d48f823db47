package cmd

import (
	"github.com/spf13/cobra"
	"samtv/cmd/cli"
	"samtv/internal"
	"samtv/internal/logger"
	"samtv/internal/samsung"
)

var (
	tuiDebug bool
	tuiTest  bool
	tuiTV    string
	tuiHost  string
	tuiPort  int
	tuiApp   string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive remote",
	Long: `Launch a terminal remote control for a Samsung TV. Key presses are sent as you type them.
The TV is taken from --host or from the configuration file (--tv or the default TV).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logging would draw over the TUI unless it is asked for
		if tuiDebug || tuiTest {
			logger.SetSilentMode(false)
			if tuiDebug {
				logger.SetLevel(logger.LOG_DEBUG)
			}
		} else {
			logger.SetSilentMode(true)
		}
		log = logger.New()

		remoteConfig, err := resolveRemoteConfig(cmd, tuiTV)
		if err != nil {
			return err
		}

		options := internal.NewModeOptions(internal.WithDebug(tuiDebug), internal.WithTest(tuiTest))
		remote := samsung.NewRemote(remoteConfig, options, logger.Component("remote"))

		id := tuiTV
		if id == "" {
			id = remoteConfig.Host
		}

		log.Info().
			Bool("debug", tuiDebug).
			Bool("test", tuiTest).
			Str("host", remoteConfig.Host).
			Msg("Starting interactive remote")

		if err := cli.StartTUI(samsung.NewRemoteDevice(id, remote), tuiDebug, tuiTest); err != nil {
			log.Error().Err(err).Msg("Failed to start TUI")
			return err
		}

		return nil
	},
}

func init() {
	tuiCmd.Flags().BoolVarP(&tuiDebug, "debug", "d", false, "Enable debug logging")
	tuiCmd.Flags().BoolVar(&tuiTest, "test", false, "Enable test mode (simulate the TV without network access)")
	tuiCmd.Flags().StringVar(&tuiTV, "tv", "", "Configured TV id to control")
	tuiCmd.Flags().StringVarP(&tuiHost, "host", "H", "", "TV host address (prefer an IP address)")
	tuiCmd.Flags().IntVarP(&tuiPort, "port", "p", samsung.DefaultPort, "TV remote control port")
	tuiCmd.Flags().StringVarP(&tuiApp, "app-name", "n", samsung.DefaultAppName, "Application name shown on the TV")
}
