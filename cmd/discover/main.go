// Command discover crawls the faculty sites looking for pages that
// publish course schedules and writes a site inventory report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"uba-horarios/internal/config"
	"uba-horarios/internal/discovery"
	"uba-horarios/internal/logger"
	"uba-horarios/internal/scraper"
)

var (
	maxPagesFlag = flag.Int("max-pages", 0, "Maximum number of pages to visit (default: DISCOVERY_MAX_PAGES)")
	dataDirFlag  = flag.String("data-dir", "", "Override the data directory (default: DATA_DIR)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}
	maxPages := cfg.DiscoveryMaxPages
	if *maxPagesFlag > 0 {
		maxPages = *maxPagesFlag
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMinDelay, cfg.ScraperMaxDelay, cfg.ScraperMaxRetries)
	crawler := discovery.NewCrawler(client, log, maxPages)

	report, err := crawler.Run(ctx, discovery.DefaultSeeds)
	if err != nil {
		log.WithError(err).Error("Discovery crawl failed")
		os.Exit(1)
	}

	path, err := discovery.SaveReport(cfg.DataDir, report)
	if err != nil {
		log.WithError(err).Error("Failed to save site inventory")
		os.Exit(1)
	}

	log.WithFields(map[string]any{
		"pages":        report.Summary.TotalPages,
		"with_courses": report.Summary.PagesWithCourse,
		"priority":     len(report.Priority),
		"path":         path,
	}).Info("Site inventory saved")
}
