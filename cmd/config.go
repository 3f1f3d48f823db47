package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"samtv/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long:  `Generate or validate samtv configuration files.`,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with example settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		if err := config.SaveConfig(config.NewDefaultConfig(), path); err != nil {
			return fmt.Errorf("failed to save default config: %w", err)
		}

		cmd.Printf("Default configuration saved to: %s\n", path)
		cmd.Println("Please edit the file with your TV addresses.")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and required fields.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		cmd.Printf("Configuration file is valid: %s\n", path)
		cmd.Printf("Server address: %s\n", cfg.Server.Address)
		cmd.Printf("Configured TVs: %d\n", len(cfg.TVs))

		for _, tv := range cfg.TVs {
			rc := cfg.RemoteConfigFor(tv)
			marker := ""
			if tv.Default {
				marker = " (default)"
			}
			cmd.Printf("  - %s at %s:%d as %q%s\n", tv.ID, rc.Host, rc.Port, rc.AppName, marker)
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configGenerateCmd)
	configCmd.AddCommand(configValidateCmd)
}
