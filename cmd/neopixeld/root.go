package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neopixel-controller/internal/config"
)

// These variables will be set by the build script
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "neopixeld",
	Short:        "Command driven animation daemon for addressable LED strips",
	SilenceUsage: true,
	RunE:         runDaemon,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s, built %s)", version, commit, date)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyLogging()
	return cfg, nil
}
