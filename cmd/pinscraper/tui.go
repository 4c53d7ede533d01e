package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"pinscraper/pkg/api"
	"pinscraper/pkg/scraper"
	"pinscraper/pkg/ui/tui"
)

var tuiDriver string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI",
	Long: `Open an interactive terminal UI with a search form, live progress and the
list of downloaded images.

Logs go to the configured log file only, so they do not disturb the screen.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiDriver, "driver", "", "browser driver: chrome, static or simulated")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"driver": tuiDriver})
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg, true)
	if err != nil {
		return err
	}

	svc, err := scraper.NewServiceFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	terminal := tui.NewTUI(svc, api.FormDefaults(cfg), cfg.TUI.MaxScrolls)
	quitOnSignal := context.AfterFunc(ctx, terminal.Stop)
	runErr := terminal.Start()
	quitOnSignal()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Run did not stop in time")
	}
	return runErr
}
