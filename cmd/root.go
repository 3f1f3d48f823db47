package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"samtv/internal/config"
	"samtv/internal/logger"
)

var (
	verbose    bool
	configPath string
	log        = logger.New()
)

var rootCmd = &cobra.Command{
	Use:   "samtv",
	Short: "samtv - Samsung TV remote control",
	Long: `samtv controls Samsung Smart TVs (2016 and later) over the websocket remote control channel.
It can send key sequences from the command line, run a small REST bridge for home automation
systems, or act as an interactive remote in the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetSilentMode(false)
			logger.SetLevel(logger.LOG_DEBUG)
		}
		log = logger.New()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to configuration file")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadOptionalConfig loads the config file if it exists
func loadOptionalConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}
