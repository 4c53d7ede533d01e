package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pinscraper/internal/imagegen"
	"pinscraper/pkg/browser"
	"pinscraper/pkg/config"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/fetcher"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/progress"
)

// newImageServer serves:
//
//	/img/{n}.jpg    a 300x300 JPEG, distinct per n
//	/same/{n}.jpg   the same 300x300 image for every n
//	/noise/{n}.jpg  300x300 JPEG noise, distinct per n
//	/small/{n}.jpg  a 50x50 JPEG
//	/text/{n}.jpg   a body that is not an image
//	anything else   404
func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimSuffix(filepath.Base(r.URL.Path), ".jpg"))
		w.Write(imagegen.JPEG(300, 300, int64(n)))
	})
	mux.HandleFunc("/same/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(imagegen.JPEG(300, 300, 7))
	})
	mux.HandleFunc("/noise/", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimSuffix(filepath.Base(r.URL.Path), ".jpg"))
		w.Write(imagegen.Encode(imagegen.Noise(300, 300, int64(n)), "jpeg"))
	})
	mux.HandleFunc("/small/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(imagegen.JPEG(50, 50, 1))
	})
	mux.HandleFunc("/text/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not an image"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func urls(base, kind string, ids ...int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%s/%s/%d.jpg", base, kind, id))
	}
	return out
}

func testOptions() Options {
	return Options{
		SearchURL:  "https://www.pinterest.com/search/pins/?q=%s",
		MaxScrolls: 3,
	}
}

func newRequest(t *testing.T, query string, target int) models.Request {
	return models.Request{
		Query:       query,
		TargetCount: target,
		Destination: filepath.Join(t.TempDir(), "downloads"),
		MinWidth:    200,
		MinHeight:   200,
		Headless:    true,
	}
}

func newTestScraper(launcher browser.Launcher, f Fetcher, opts Options) *Scraper {
	return New(launcher, f, progress.NewStore(), opts, logger.NewNopLogger())
}

func runOnce(t *testing.T, s *Scraper, req models.Request) progress.Snapshot {
	t.Helper()
	_, err := s.Store().Begin(req)
	require.NoError(t, err)
	return s.Run(context.Background(), req)
}

func imageNames(images []models.AcceptedImage) []string {
	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Name)
	}
	return names
}

func TestRunStopsAtTarget(t *testing.T) {
	server := newImageServer(t)
	session := browser.NewFake(urls(server.URL, "img", 1, 2, 3, 4, 5))
	launcher := &browser.FakeLauncher{Session: session}
	s := newTestScraper(launcher, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), testOptions())

	req := newRequest(t, "mountain cabins", 3)
	snap := runOnce(t, s, req)

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, "Download complete! 3 images saved.", snap.Message)
	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 100, snap.Percentage)
	assert.Nil(t, snap.Error)
	assert.NotNil(t, snap.FinishedAt)

	require.Len(t, snap.DownloadedImages, 3)
	assert.Equal(t, []string{"mountain_cabins_1.jpg", "mountain_cabins_2.jpg", "mountain_cabins_3.jpg"}, imageNames(snap.DownloadedImages))
	for i, img := range snap.DownloadedImages {
		assert.Equal(t, fmt.Sprintf("%s/img/%d.jpg", server.URL, i+1), img.URL)
		assert.Equal(t, filepath.Join(req.Destination, img.Name), img.Path)
		_, err := os.Stat(img.Path)
		assert.NoError(t, err)
	}

	assert.Empty(t, session.Scripts, "target reached without scrolling")
	assert.Equal(t, 1, session.Scans())
	assert.Equal(t, 1, session.QuitCount())
	assert.Equal(t, []string{"https://www.pinterest.com/search/pins/?q=mountain%20cabins"}, session.Visited)
	assert.True(t, launcher.LastOptions().Headless)
}

func TestRunCompletesShortAtScrollCeiling(t *testing.T) {
	server := newImageServer(t)
	session := browser.NewFake(
		urls(server.URL, "img", 1, 2),
		urls(server.URL, "img", 1, 2, 3),
		urls(server.URL, "img", 1, 2, 3, 4),
	)
	s := newTestScraper(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), testOptions())

	snap := runOnce(t, s, newRequest(t, "cats", 10))

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, "Download complete! 4 images saved.", snap.Message)
	assert.Len(t, snap.DownloadedImages, 4)
	assert.Equal(t, 4, snap.Current)
	assert.Equal(t, 40, snap.Percentage)
	assert.Nil(t, snap.Error)

	assert.Equal(t, 3, session.Scans())
	assert.Len(t, session.Scripts, 3)
	for _, script := range session.Scripts {
		assert.Equal(t, browser.ScrollToBottomScript, script)
	}
	assert.Equal(t, 1, session.QuitCount())
}

func TestRequestMaxScrollsOverridesOptions(t *testing.T) {
	session := browser.NewFake([]string{})
	s := newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	req := newRequest(t, "cats", 5)
	req.MaxScrolls = 5
	snap := runOnce(t, s, req)

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, 5, session.Scans())
	assert.Empty(t, snap.DownloadedImages)
}

func TestRunLaunchFailure(t *testing.T) {
	launcher := &browser.FakeLauncher{Err: fmt.Errorf("executable file not found in $PATH")}
	s := newTestScraper(launcher, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	snap := runOnce(t, s, newRequest(t, "cats", 5))

	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Equal(t, "Failed to setup browser", snap.Message)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Chrome driver not found", *snap.Error)
	assert.Empty(t, snap.DownloadedImages)
	assert.Equal(t, 1, launcher.Launches())
}

func TestRunDropsFailedCandidates(t *testing.T) {
	server := newImageServer(t)
	var page []string
	page = append(page, server.URL+"/missing/1.jpg")
	page = append(page, urls(server.URL, "small", 1)...)
	page = append(page, urls(server.URL, "text", 1)...)
	page = append(page, urls(server.URL, "img", 1, 2)...)
	session := browser.NewFake(page)
	s := newTestScraper(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), testOptions())

	req := newRequest(t, "cats", 2)
	snap := runOnce(t, s, req)

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Nil(t, snap.Error, "dropped candidates never surface as errors")
	require.Len(t, snap.DownloadedImages, 2)
	assert.Equal(t, []string{"cats_1.jpg", "cats_2.jpg"}, imageNames(snap.DownloadedImages))
	assert.Equal(t, server.URL+"/img/1.jpg", snap.DownloadedImages[0].URL)

	entries, err := os.ReadDir(req.Destination)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "rejected payloads are not written")
}

func TestRunSkipsFilteredAndMissingSources(t *testing.T) {
	session := &browser.Fake{Pages: [][]browser.Element{{
		browser.NewElement(map[string]string{"alt": "no source"}),
		browser.NewElement(map[string]string{"src": "data:image/gif;base64,R0lGOD"}),
		browser.NewElement(map[string]string{"src": "https://i.pinimg.com/75x75/avatar.jpg"}),
		browser.NewElement(map[string]string{"src": "/relative.jpg"}),
		browser.NewElement(map[string]string{"src": "https://i.pinimg.com/736x/a.png"}),
		browser.NewElement(map[string]string{"src": "https://i.pinimg.com/736x/a.png"}),
		browser.NewElement(map[string]string{"src": "https://i.pinimg.com/736x/b.webp"}),
	}}}
	s := newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	snap := runOnce(t, s, newRequest(t, "cats", 5))

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.Equal(t, []string{"cats_1.png", "cats_2.webp"}, imageNames(snap.DownloadedImages))
}

func TestRunNavigationError(t *testing.T) {
	session := browser.NewFake()
	session.NavigateErr = fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	s := newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	snap := runOnce(t, s, newRequest(t, "cats", 5))

	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Equal(t, "Error during scraping: net::ERR_NAME_NOT_RESOLVED", snap.Message)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "net::ERR_NAME_NOT_RESOLVED", *snap.Error)
	assert.Equal(t, 1, session.QuitCount(), "session released on error")
}

func TestRunScrollError(t *testing.T) {
	session := browser.NewFake([]string{})
	session.ScriptErr = fmt.Errorf("javascript disabled")
	s := newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	snap := runOnce(t, s, newRequest(t, "cats", 1))

	assert.Equal(t, progress.StatusError, snap.Status)
	assert.Contains(t, snap.Message, "javascript disabled")
	assert.Equal(t, 1, session.QuitCount())
}

func TestRunCreatesNestedDestination(t *testing.T) {
	session := browser.NewFake([]string{"https://i.pinimg.com/736x/a.jpg"})
	s := newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions())

	req := newRequest(t, "cats", 1)
	req.Destination = filepath.Join(t.TempDir(), "a", "b", "c")
	snap := runOnce(t, s, req)

	require.Equal(t, progress.StatusCompleted, snap.Status)
	_, err := os.Stat(filepath.Join(req.Destination, "cats_1.jpg"))
	assert.NoError(t, err)
}

func TestRunDedupeSimilar(t *testing.T) {
	server := newImageServer(t)
	page := append(urls(server.URL, "same", 1, 2), urls(server.URL, "noise", 3)...)
	session := browser.NewFake(page)
	opts := testOptions()
	opts.DedupeSimilar = true
	opts.SimilarityThreshold = 0
	s := newTestScraper(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), opts)

	snap := runOnce(t, s, newRequest(t, "cats", 2))

	require.Len(t, snap.DownloadedImages, 2)
	assert.Equal(t, server.URL+"/same/1.jpg", snap.DownloadedImages[0].URL)
	assert.Equal(t, server.URL+"/noise/3.jpg", snap.DownloadedImages[1].URL)
}

func TestRunDedupeIgnoresImagesThatFailedToSave(t *testing.T) {
	server := newImageServer(t)
	session := browser.NewFake([]string{server.URL + "/same/1.png", server.URL + "/same/2.jpg"})
	opts := testOptions()
	opts.DedupeSimilar = true
	opts.SimilarityThreshold = 0
	s := newTestScraper(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), opts)

	req := newRequest(t, "cats", 1)
	// a directory in the way makes the first save fail
	require.NoError(t, os.MkdirAll(filepath.Join(req.Destination, "cats_1.png"), 0755))

	snap := runOnce(t, s, req)

	assert.Equal(t, progress.StatusCompleted, snap.Status)
	require.Len(t, snap.DownloadedImages, 1)
	assert.Equal(t, server.URL+"/same/2.jpg", snap.DownloadedImages[0].URL)
	assert.Equal(t, "cats_1.jpg", snap.DownloadedImages[0].Name)
}

func TestRunLogsSummary(t *testing.T) {
	server := newImageServer(t)
	session := browser.NewFake(urls(server.URL, "noise", 1, 2, 2))
	opts := testOptions()
	opts.DedupeSimilar = true
	tl := logger.NewTestLogger()
	s := New(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), progress.NewStore(), opts, tl)

	req := newRequest(t, "cats", 5)
	runOnce(t, s, req)

	var summary, scan *logger.LogMessage
	for _, msg := range tl.GetMessages() {
		msg := msg
		switch msg.Message {
		case "Scraping completed":
			summary = &msg
		case "Candidate scan finished":
			scan = &msg
		}
	}
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Fields["saved"])
	assert.Equal(t, req.Destination, summary.Fields["folder"])
	require.NotNil(t, scan)
	assert.Equal(t, 2, scan.Fields["unique_urls"])
	assert.Equal(t, 2, scan.Fields["hashes"])
}

func TestIdenticalInputsGiveIdenticalDecisions(t *testing.T) {
	server := newImageServer(t)
	page := append(urls(server.URL, "small", 1), urls(server.URL, "img", 1, 2)...)

	var results [][]string
	for i := 0; i < 2; i++ {
		session := browser.NewFake(page)
		s := newTestScraper(&browser.FakeLauncher{Session: session}, fetcher.NewClient(5*time.Second, "test-agent", logger.NewNopLogger()), testOptions())
		snap := runOnce(t, s, newRequest(t, "cats", 5))
		var got []string
		for _, img := range snap.DownloadedImages {
			got = append(got, img.URL)
		}
		results = append(results, got)
	}
	assert.Equal(t, results[0], results[1])
}

// blockingFetcher blocks every fetch until its context is cancelled.
type blockingFetcher struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{started: make(chan struct{})}
}

func (b *blockingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func waitStarted(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}
}

func TestServiceRejectsConcurrentRun(t *testing.T) {
	session := browser.NewFake([]string{"https://i.pinimg.com/736x/a.jpg"})
	blocker := newBlockingFetcher()
	svc := NewService(newTestScraper(&browser.FakeLauncher{Session: session}, blocker, testOptions()), logger.NewNopLogger())

	first := newRequest(t, "cats", 3)
	runID, err := svc.Start(first)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	waitStarted(t, blocker.started)

	_, err = svc.Start(newRequest(t, "dogs", 5))
	assert.ErrorIs(t, err, errors.ErrBusy)

	snap := svc.Read()
	assert.Equal(t, runID, snap.RunID)
	assert.Equal(t, "cats", snap.Query)
	assert.Equal(t, progress.StatusRunning, snap.Status)

	require.NoError(t, svc.Stop())
	svc.Wait()
}

func TestServiceStopCancelsRun(t *testing.T) {
	session := browser.NewFake([]string{"https://i.pinimg.com/736x/a.jpg", "https://i.pinimg.com/736x/b.jpg"})
	blocker := newBlockingFetcher()
	svc := NewService(newTestScraper(&browser.FakeLauncher{Session: session}, blocker, testOptions()), logger.NewNopLogger())

	_, err := svc.Start(newRequest(t, "cats", 2))
	require.NoError(t, err)
	waitStarted(t, blocker.started)

	require.NoError(t, svc.Stop())
	svc.Wait()

	snap := svc.Read()
	assert.Equal(t, progress.StatusStopped, snap.Status)
	assert.Equal(t, "Scraping stopped by user", snap.Message)
	assert.Nil(t, snap.Error)
	assert.Empty(t, snap.DownloadedImages)
	assert.Equal(t, 1, session.QuitCount())

	assert.ErrorIs(t, svc.Stop(), errors.ErrNotRunning)
}

func TestServiceStopDuringSettlePause(t *testing.T) {
	session := browser.NewFake([]string{"https://i.pinimg.com/736x/a.jpg"})
	opts := testOptions()
	opts.SettleDelay = time.Hour
	svc := NewService(newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, opts), logger.NewNopLogger())

	_, err := svc.Start(newRequest(t, "cats", 1))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.HasPrefix(svc.Read().Message, "Searching for")
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Stop())
	svc.Wait()

	assert.Equal(t, progress.StatusStopped, svc.Read().Status)
	assert.Equal(t, 0, session.Scans())
}

func TestServiceStopWaitsForStartingRun(t *testing.T) {
	svc := NewService(newTestScraper(&browser.FakeLauncher{}, &fetcher.Simulated{}, testOptions()), logger.NewNopLogger())

	// Hold the service lock between claiming the store and launching the
	// worker, the way Start does.
	svc.mu.Lock()
	_, err := svc.Store().Begin(newRequest(t, "cats", 1))
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() { result <- svc.Stop() }()

	select {
	case err := <-result:
		svc.mu.Unlock()
		t.Fatalf("Stop returned %v before the worker was launched", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, svc.runner.Launch(func(ctx context.Context) {
		<-ctx.Done()
		svc.Store().Finish(progress.StatusStopped, "Scraping stopped by user", nil)
	}))
	svc.mu.Unlock()

	require.NoError(t, <-result)
	svc.Wait()
	assert.Equal(t, progress.StatusStopped, svc.Read().Status)
}

func TestServiceStopWhenIdle(t *testing.T) {
	svc := NewService(newTestScraper(&browser.FakeLauncher{}, &fetcher.Simulated{}, testOptions()), logger.NewNopLogger())
	assert.ErrorIs(t, svc.Stop(), errors.ErrNotRunning)
	assert.Equal(t, progress.StatusIdle, svc.Read().Status)
}

func TestServiceRunsBackToBack(t *testing.T) {
	session := browser.NewFake([]string{"https://i.pinimg.com/736x/a.jpg", "https://i.pinimg.com/736x/b.jpg"})
	svc := NewService(newTestScraper(&browser.FakeLauncher{Session: session}, &fetcher.Simulated{Width: 300, Height: 300}, testOptions()), logger.NewNopLogger())

	firstID, err := svc.Start(newRequest(t, "cats", 2))
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, progress.StatusCompleted, svc.Read().Status)

	secondID, err := svc.Start(newRequest(t, "dogs", 1))
	require.NoError(t, err)
	svc.Wait()

	assert.NotEqual(t, firstID, secondID)
	snap := svc.Read()
	assert.Equal(t, "dogs", snap.Query)
	assert.Equal(t, []string{"dogs_1.jpg"}, imageNames(snap.DownloadedImages))
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "skipped", Skipped.String())
}

func TestNewServiceFromConfigSimulated(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Driver = config.DriverSimulated
	cfg.Server.SimulatedStepDelay = 0
	cfg.Server.SimulatedImageDelay = 0
	cfg.Download.RequestsPerMinute = 6000

	svc, err := NewServiceFromConfig(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	req := newRequest(t, "mountain cabins", 7)
	_, err = svc.Start(req)
	require.NoError(t, err)
	svc.Wait()

	snap := svc.Read()
	assert.Equal(t, progress.StatusCompleted, snap.Status)
	require.Len(t, snap.DownloadedImages, 7)
	assert.Equal(t, "mountain_cabins_7.png", snap.DownloadedImages[6].Name)
	for _, img := range snap.DownloadedImages {
		assert.True(t, strings.HasPrefix(img.URL, "https://images.simulated.invalid/"))
	}
}

func TestNewServiceFromConfigUnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Driver = "netscape"
	_, err := NewServiceFromConfig(cfg, logger.NewNopLogger())
	assert.Error(t, err)
}
