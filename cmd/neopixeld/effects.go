package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neopixel-controller/internal/agent"
	"neopixel-controller/internal/lua"
	"neopixel-controller/internal/palette"
)

var effectsCmd = &cobra.Command{
	Use:   "effects",
	Short: "List the available effects and colors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg := agent.BuildRegistry(lua.NewLibrary(cfg.ScriptsDir))

		out := cmd.OutOrStdout()
		for _, e := range reg.List() {
			if e.NeedsColor {
				fmt.Fprintf(out, "%-16s color\n", e.Mode)
			} else {
				fmt.Fprintf(out, "%s\n", e.Mode)
			}
		}
		fmt.Fprintln(out)
		for _, name := range palette.Names() {
			c, _ := palette.Lookup(name)
			fmt.Fprintf(out, "%-8s %s\n", name, c.Hex())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(effectsCmd)
}
