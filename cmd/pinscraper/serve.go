package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"pinscraper/pkg/api"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/progress"
	"pinscraper/pkg/scraper"
	"pinscraper/pkg/simserver"
	"pinscraper/pkg/ui"
)

var (
	serveHost   string
	servePort   int
	serveDriver string
	simPort     int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and web page",
	Long: `Run the HTTP API that the web page talks to.

Endpoints:
  GET  /                                  web page
  POST /api/scrape                        start a run
  GET  /api/progress                      progress of the current run
  POST /api/stop                          stop the current run
  GET  /api/downloads                     images in the output folder
  GET  /api/downloads/:name/thumbnail     JPEG thumbnail of an image
  GET  /health                            liveness

When progress.redis_addr is configured every progress change is also
mirrored into redis.`,
	Example: `  pinscraper serve
  pinscraper serve --port 9000 --driver static`,
	RunE: runServe,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the dependency-free simulated server",
	Long: `Run a plain net/http server that needs no browser and no network access.

Runs go through the real scrape loop against a synthetic results page and
write real PNG files, so the web page can be demonstrated anywhere.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to listen on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config, 5000)")
	serveCmd.Flags().StringVar(&serveDriver, "driver", "", "browser driver: chrome, static or simulated")

	simulateCmd.Flags().StringVar(&serveHost, "host", "", "address to listen on")
	simulateCmd.Flags().IntVarP(&simPort, "port", "p", 0, "port to listen on (default from config, 8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"host":   serveHost,
		"port":   servePort,
		"driver": serveDriver,
	})
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}

	svc, err := scraper.NewServiceFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stopMirror := startMirror(ctx, cfg, svc, log); stopMirror != nil {
		defer stopMirror()
	}

	addr := api.Addr(cfg.Server.Host, cfg.Server.Port)
	ui.PrintInfo("Driver", cfg.Browser.Driver)
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintSuccess(fmt.Sprintf("Listening on http://%s", addr))

	return api.NewServer(addr, svc, cfg, log).Run(ctx)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"host":           serveHost,
		"driver":         config.DriverSimulated,
		"simulated-port": simPort,
	})
	if err != nil {
		return err
	}
	log, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}

	svc, err := scraper.NewServiceFromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := api.Addr(cfg.Server.Host, cfg.Server.SimulatedPort)
	ui.PrintInfo("Mode", "simulated")
	ui.PrintSuccess(fmt.Sprintf("Listening on http://%s", addr))

	return simserver.New(svc, cfg, cfg.Server.SimulatedPort, log).Run(ctx, addr)
}

// startMirror mirrors progress into redis when configured. It returns nil
// when mirroring is off.
func startMirror(ctx context.Context, cfg *config.Config, svc *scraper.Service, log logger.Logger) func() {
	if cfg.Progress.RedisAddr == "" {
		return nil
	}
	mirror := progress.NewRedisMirror(cfg.Progress, log)
	logger.LogComponentStart(log, "progress mirror", map[string]interface{}{
		"addr":    cfg.Progress.RedisAddr,
		"key":     cfg.Progress.RedisKey,
		"channel": cfg.Progress.RedisChannel,
	})
	return progress.Mirror(ctx, svc.Store(), mirror)
}
