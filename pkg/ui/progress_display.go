package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"pinscraper/pkg/progress"
)

const descriptionWidth = 40

// ProgressDisplay renders a run's snapshots as a terminal progress bar
type ProgressDisplay struct {
	bar       *progressbar.ProgressBar
	w         io.Writer
	total     int
	shown     int
	startTime time.Time
	isDebug   bool
}

// NewProgressDisplay creates a display for a run of total images. In debug
// mode every saved image is also listed on its own line.
func NewProgressDisplay(w io.Writer, total int, debug bool) *ProgressDisplay {
	if total < 1 {
		total = 1
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "━",
			SaucerPadding: "─",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &ProgressDisplay{
		bar:       bar,
		w:         w,
		total:     total,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// Update renders snap
func (p *ProgressDisplay) Update(snap progress.Snapshot) {
	if snap.Total > 0 && snap.Total != p.total {
		p.total = snap.Total
		p.bar.ChangeMax(snap.Total)
	}
	p.bar.Describe(truncate(snap.Message, descriptionWidth))
	_ = p.bar.Set(snap.Current)

	if p.isDebug {
		for ; p.shown < len(snap.DownloadedImages); p.shown++ {
			img := snap.DownloadedImages[p.shown]
			fmt.Fprintf(p.w, "\n%s %s %s", Green("✓"), img.Name, Dim(img.URL))
		}
	}
}

// Watch renders snapshots from updates until the run ends and returns the
// terminal snapshot. If updates closes first the last snapshot seen is
// returned.
func (p *ProgressDisplay) Watch(updates <-chan progress.Snapshot) progress.Snapshot {
	var last progress.Snapshot
	for snap := range updates {
		last = snap
		p.Update(snap)
		if snap.Status.Terminal() {
			p.Complete(snap)
			return snap
		}
	}
	return last
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(snap progress.Snapshot) {
	elapsed := time.Since(p.startTime)

	switch snap.Status {
	case progress.StatusCompleted:
		_ = p.bar.Finish()
		fmt.Fprintf(p.w, "\n\n%s %s\n", Green("✓"), snap.Message)
		fmt.Fprintf(p.w, "  %s %d/%d images for '%s' in %s\n",
			Dim("•"),
			len(snap.DownloadedImages),
			snap.Total,
			snap.Query,
			formatDuration(elapsed),
		)
	case progress.StatusStopped:
		fmt.Fprintf(p.w, "\n\n%s %s (%d images kept)\n", Yellow("■"), snap.Message, len(snap.DownloadedImages))
	default:
		fmt.Fprintf(p.w, "\n\n%s %s\n", Red("✗"), snap.Message)
		if snap.Error != nil {
			fmt.Fprintf(p.w, "  %s %s\n", Dim("•"), *snap.Error)
		}
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
