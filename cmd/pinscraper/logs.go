package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

var followLogs bool

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the log file",
	Long: `Print the configured log file (logging.file). With --follow keep printing
new lines as they are written, across rotations, until interrupted.`,
	Example: `  pinscraper logs
  pinscraper logs -f`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "follow the log file")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	if cfg.Logging.File == "" {
		return fmt.Errorf("no log file configured, set logging.file or PINSCRAPER_LOG_FILE")
	}

	t, err := tail.TailFile(cfg.Logging.File, tail.Config{
		Follow:    followLogs,
		ReOpen:    followLogs,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer t.Cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintln(out, line.Text)
		}
	}
}
