package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"pinscraper/pkg/api"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/models"
	"pinscraper/pkg/progress"
	"pinscraper/pkg/scraper"
	"pinscraper/pkg/ui"
)

var (
	numImages    int
	outputDir    string
	imageQuality string
	scrapeDriver string
	headless     bool
	maxScrolls   int
	notifyOnDone bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Download images for a search query",
	Long: `Search Pinterest for a query and download the images that pass the quality
check into a folder.

The run stops when the requested number of images is saved or when the
scroll limit is reached. Press Ctrl+C to stop early: images saved so far
are kept.`,
	Example: `  # Download 20 images of at least 400x400
  pinscraper scrape "mountain cabins" -n 20

  # HD images into a nested folder
  pinscraper scrape "mid century chairs" -n 50 -Q 800x600 -o downloads/chairs

  # Try it without a browser
  pinscraper scrape cats --driver simulated`,
	Args: queryArg,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&numImages, "num", "n", 0, "number of images to download (default from config)")
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "folder to save images into (default from config)")
	scrapeCmd.Flags().StringVarP(&imageQuality, "quality", "Q", "", "minimum image size as WIDTHxHEIGHT")
	scrapeCmd.Flags().StringVar(&scrapeDriver, "driver", "", "browser driver: chrome, static or simulated")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	scrapeCmd.Flags().IntVar(&maxScrolls, "max-scrolls", 0, "maximum number of scrolls (default from config)")
	scrapeCmd.Flags().BoolVar(&notifyOnDone, "notify", false, "send a desktop notification when the run ends")
}

// queryArg accepts exactly one positional argument. A multi-word query has
// to be quoted so a mistyped flag value cannot end up in the query.
func queryArg(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return fmt.Errorf("missing search query")
	case len(args) > 1:
		return fmt.Errorf("expected one search query, got %d arguments %q; quote multi-word queries", len(args), args)
	}
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"driver":      scrapeDriver,
		"max-scrolls": maxScrolls,
		"notify":      notifyOnDone,
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	// The progress bar owns the terminal unless debugging
	log, err := setupLogger(cfg, !verbose)
	if err != nil {
		return err
	}

	req, err := scrapeForm(args[0]).Resolve(api.FormDefaults(cfg))
	if err != nil {
		return fmt.Errorf("%s", errors.Reason(err))
	}

	ui.PrintInfo("Query", req.Query)
	ui.PrintInfo("Images", strconv.Itoa(req.TargetCount))
	ui.PrintInfo("Folder", req.Destination)
	ui.PrintInfo("Driver", cfg.Browser.Driver)

	svc, err := scraper.NewServiceFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Start(req); err != nil {
		return err
	}
	updates, unsubscribe := svc.Subscribe()
	stopOnSignal := context.AfterFunc(ctx, func() { _ = svc.Stop() })
	defer stopOnSignal()

	var out io.Writer = ui.Output()
	if ui.IsQuietMode() {
		out = io.Discard
	}
	final := ui.NewProgressDisplay(out, req.TargetCount, verbose).Watch(updates)
	unsubscribe()
	svc.Wait()

	ui.NewNotifier(cfg.Notifications).NotifyRun(final)

	if final.Status == progress.StatusError {
		return fmt.Errorf("%s", final.Message)
	}
	return nil
}

// scrapeForm builds the form the web page would send from the flags
func scrapeForm(query string) models.ScrapeForm {
	form := models.ScrapeForm{SearchQuery: query, ImageQuality: imageQuality}
	if numImages != 0 {
		form.NumImages = json.Number(strconv.Itoa(numImages))
	}
	if outputDir != "" {
		form.FolderName = &outputDir
	}
	return form
}
