package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"neopixel-controller/internal/agent"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon (default)",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Printf("Starting neopixeld version: %s, commit: %s, built: %s", version, commit, date)

	a, err := agent.NewAgent(cfg)
	if err != nil {
		return err
	}

	go a.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	a.Shutdown()
	log.Println("Shut down gracefully.")
	return nil
}
