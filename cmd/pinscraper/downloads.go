package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"pinscraper/pkg/storage"
	"pinscraper/pkg/ui"
)

var downloadsCmd = &cobra.Command{
	Use:   "downloads [folder]",
	Short: "List downloaded images",
	Long:  `List the images in a folder, newest first. The folder defaults to the configured output directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDownloads,
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
}

func runDownloads(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	dir := cfg.Output.BaseDirectory
	if len(args) == 1 {
		dir = args[0]
	}

	files, err := storage.List(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		ui.PrintWarning("No images in " + dir)
		return nil
	}

	var total int64
	out := cmd.OutOrStdout()
	for _, f := range files {
		total += f.Size
		modified := time.Unix(int64(f.Modified), 0).Format("2006-01-02 15:04")
		fmt.Fprintf(out, "  %-40s %10s  %s\n", f.Name, ui.FormatBytes(f.Size), ui.Dim(modified))
	}
	fmt.Fprintln(out)
	ui.PrintInfo(dir, fmt.Sprintf("%d images, %s", len(files), ui.FormatBytes(total)))
	return nil
}
