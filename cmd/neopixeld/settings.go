package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neopixel-controller/internal/agent"
	"neopixel-controller/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the persisted settings and their fingerprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := agent.OpenStore(cfg)
		out := cmd.OutOrStdout()

		saved, err := store.LoadSaved()
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "No settings saved in %s, defaults apply.\n", store.Path())
			saved = store.Defaults()
		} else if err != nil {
			return err
		}

		fmt.Fprintf(out, "File:        %s\n", store.Path())
		fmt.Fprintf(out, "%s\n", saved.Summary())
		fmt.Fprintf(out, "Fingerprint: %s\n", settings.Fingerprint(saved))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
