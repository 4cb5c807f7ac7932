// Package app implements the main application commands.
package app

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Onboard360/Onboard360/internal/config"
	"github.com/Onboard360/Onboard360/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	envFile    string // Optional dotenv file loaded before the config

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "onboard360",
		Short: "Onboard360 is an admin console for directory backed user onboarding",
		Long: `Onboard360 is an admin console for directory backed user onboarding.
It stores directory connection profiles, browses organizational units and
synchronizes directory user accounts into the local database.`,
		Args:         cobra.OnlyValidArgs,
		SilenceUsage: true,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory holding main.toml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this dotenv file")
}

// loadConfig reads the env file, the config and sets up the global logger.
func loadConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err //nolint: wrapcheck
		}
	}

	var err error
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
