// Package logger provides the structured logging interface used across pinscraper.
//
// It wraps zerolog behind the Logger interface so packages can take a logger
// as a dependency and tests can substitute NewNopLogger or NewTestLogger.
//
//	log, err := logger.New(&cfg.Logging)
//	log.InfoWithFields("Scrape started", map[string]interface{}{
//	    "query": "mountain cabins",
//	    "target": 10,
//	})
//
// Console output is colored and goes to stderr. When a log file is configured,
// JSON lines are appended to it as well; the TUI uses NewFileOnly so the
// terminal stays clean while it renders.
package logger
