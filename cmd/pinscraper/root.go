package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pinscraper",
	Short: "Search Pinterest and download the images it shows",
	Long: `pinscraper searches Pinterest for a query, scrolls the results and downloads
the content images that pass the quality check into a folder.

It can run as:
  - a one-shot command line download (pinscraper scrape)
  - an HTTP API with a web page (pinscraper serve)
  - a dependency-free simulated server for demos (pinscraper simulate)
  - an interactive terminal UI (pinscraper tui)`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		switch cmd.Name() {
		case "version", "help", "completion", "tui", "logs", "show":
		default:
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .pinscraper.yaml or ~/.config/pinscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs and every saved image")

	rootCmd.SetVersionTemplate(`pinscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the global flags and flags merged
// on top.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case verbose:
		flags["log-level"] = "debug"
	case logLevel != "":
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the console logger, or a file-only one when the
// terminal belongs to a progress display.
func setupLogger(cfg *config.Config, fileOnly bool) (logger.Logger, error) {
	var (
		l   logger.Logger
		err error
	)
	if fileOnly {
		l, err = logger.NewFileOnly(&cfg.Logging)
	} else {
		l, err = logger.New(&cfg.Logging)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetLogger(l)
	return l, nil
}
