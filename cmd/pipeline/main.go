// Command pipeline runs a full scrape-normalize-unify-index cycle:
// it fetches the obligatory course list, scrapes every department
// sequentially, resolves scraped names against the catalog, deduplicates
// the result and rebuilds the retrieval index.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uba-horarios/internal/catalog"
	"uba-horarios/internal/config"
	"uba-horarios/internal/coursename"
	"uba-horarios/internal/logger"
	"uba-horarios/internal/rag"
	"uba-horarios/internal/scraper"
	"uba-horarios/internal/scraper/exactas"
	"uba-horarios/internal/storage"
	"uba-horarios/internal/unifier"
)

var (
	skipScrapeFlag = flag.Bool("skip-scrape", false, "Reindex from the latest unified snapshot instead of scraping")
	dataDirFlag    = flag.String("data-dir", "", "Override the data directory (default: DATA_DIR)")
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

	log := logger.New(cfg.LogLevel).WithModule("pipeline")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("Pipeline failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.WithField("period", cfg.PeriodCode()).Info("Starting pipeline run")

	db, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var records []*storage.CourseRecord
	if *skipScrapeFlag {
		records, err = loadLatestSnapshot(cfg)
		if err != nil {
			return err
		}
		log.WithField("records", len(records)).Info("Reusing latest unified snapshot")
		return buildIndex(ctx, cfg, log, records)
	}

	client := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMinDelay, cfg.ScraperMaxDelay, cfg.ScraperMaxRetries)

	cat, err := loadCatalog(ctx, client, cfg, log)
	if err != nil {
		return err
	}

	matcher := coursename.NewMatcher(cat.Names())
	log.WithFields(map[string]any{
		"courses":    len(cat.Courses),
		"variants":   matcher.Size(),
		"collisions": len(matcher.Collisions()),
	}).Info("Course name matcher ready")
	for _, col := range matcher.Collisions() {
		log.WithFields(map[string]any{
			"variant":  col.Variant,
			"existing": col.Existing,
			"new":      col.New,
		}).Warn("Variant key collision, later catalog entry wins")
	}

	records, runLog := scrapeDepartments(ctx, client, cfg, log, matcher)
	if len(records) == 0 {
		return errors.New("no records scraped from any department")
	}

	result := unifier.Unify(records)
	log.WithFields(map[string]any{
		"scraped":   len(records),
		"unified":   len(result.Records),
		"discarded": result.Discarded,
	}).Info("Unification completed")
	for _, dup := range result.Duplicates {
		log.WithFields(map[string]any{
			"kept":       dup.Kept,
			"discarded":  dup.Discarded,
			"similarity": dup.Similarity,
		}).Debug("Duplicate group resolved")
	}

	// Run rows carry the per-department duplicate counts, so they are
	// recorded after unification.
	discarded := discardedByDepartment(records)
	for _, run := range runLog {
		run.Duplicates = discarded[run.Department]
		if err := db.RecordRun(ctx, run); err != nil {
			log.WithError(err).Warn("Failed to record run")
		}
	}

	path, err := storage.SaveUnifiedSnapshot(cfg.DataDir, result.Records)
	if err != nil {
		return fmt.Errorf("save unified snapshot: %w", err)
	}
	log.WithField("path", path).Info("Unified snapshot saved")

	if err := db.SaveCourses(ctx, result.Records); err != nil {
		return fmt.Errorf("persist courses: %w", err)
	}

	return buildIndex(ctx, cfg, log, result.Records)
}

// loadCatalog scrapes the LCD obligatory course list for the configured
// period and persists it as materias.json. If the scrape fails, the last
// saved catalog is used; without either, the run aborts.
func loadCatalog(ctx context.Context, client *scraper.Client, cfg *config.Config, log *logger.Logger) (*catalog.Catalog, error) {
	byPeriod, err := exactas.ScrapeObligatorias(ctx, client, cfg.ScraperBaseURLs["lcd"], cfg.Year)
	if err != nil {
		log.WithError(err).Warn("Obligatory course list unavailable, falling back to saved catalog")
		return catalog.Load(cfg.CatalogPath())
	}

	var courses []catalog.Course
	for periodTitle, list := range byPeriod {
		if exactas.PeriodCode(periodTitle) != cfg.PeriodCode() {
			continue
		}
		for _, c := range list {
			courses = append(courses, catalog.Course{Name: c.Name, Cycle: c.Cycle})
		}
	}
	if len(courses) == 0 {
		log.WithField("period", cfg.PeriodCode()).Warn("No obligatory courses for period, falling back to saved catalog")
		return catalog.Load(cfg.CatalogPath())
	}

	cat := &catalog.Catalog{Courses: courses}
	if err := cat.Save(cfg.CatalogPath()); err != nil {
		log.WithError(err).Warn("Failed to save catalog")
	}
	return cat, nil
}

// scrapeDepartments fetches every department in sequence. A failing
// department is logged and skipped, the rest of the run continues.
// The returned run entries still lack their duplicate counts.
func scrapeDepartments(ctx context.Context, client *scraper.Client, cfg *config.Config, log *logger.Logger, matcher *coursename.Matcher) ([]*storage.CourseRecord, []storage.Run) {
	departments := []struct {
		code   string
		scrape func() ([]*storage.CourseRecord, error)
	}{
		{"DM", func() ([]*storage.CourseRecord, error) {
			return exactas.ScrapeDM(ctx, client, cfg.ScraperBaseURLs["dm"], cfg.Year, cfg.Semester)
		}},
		{"IC", func() ([]*storage.CourseRecord, error) {
			return exactas.ScrapeIC(ctx, client, cfg.ScraperBaseURLs["ic"], cfg.Year)
		}},
		{"DC", func() ([]*storage.CourseRecord, error) {
			return exactas.ScrapeDC(ctx, client, dcScheduleURL(cfg), cfg.Year)
		}},
	}

	var (
		all    []*storage.CourseRecord
		runLog []storage.Run
	)
	for _, dept := range departments {
		started := time.Now()

		records, err := dept.scrape()
		if err != nil {
			log.WithError(err).WithField("department", dept.code).Error("Department scrape failed")
			continue
		}

		resolveNames(records, matcher)

		if path, err := storage.SaveDepartmentSnapshot(cfg.DataDir, dept.code, records); err != nil {
			log.WithError(err).WithField("department", dept.code).Warn("Failed to save department snapshot")
		} else {
			log.WithFields(map[string]any{
				"department": dept.code,
				"records":    len(records),
				"path":       path,
			}).Info("Department scraped")
		}

		runLog = append(runLog, storage.Run{
			PeriodCode: cfg.PeriodCode(),
			Department: dept.code,
			Records:    len(records),
			StartedAt:  started,
			FinishedAt: time.Now(),
		})

		all = append(all, records...)
	}
	return all, runLog
}

// discardedByDepartment counts records the unifier marked as duplicates,
// grouped by department code.
func discardedByDepartment(records []*storage.CourseRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.IsDuplicateOf != "" {
			counts[r.Department.Code]++
		}
	}
	return counts
}

// resolveNames rewrites scraped names to their catalog form, keeping the
// raw name and how the match was made on each record.
func resolveNames(records []*storage.CourseRecord, matcher *coursename.Matcher) {
	for _, r := range records {
		match := matcher.Resolve(r.Name)
		r.OriginalName = r.Name
		r.MatchKind = matchKindLabel(match.Kind)
		if match.Name != "" {
			r.Name = match.Name
		}
		r.ID = storage.MakeRecordID(r.Department.Code, r.Name, r.Period.Code)
	}
}

func matchKindLabel(kind coursename.MatchKind) string {
	switch kind {
	case coursename.MatchExact:
		return "exacto"
	case coursename.MatchEquivalence:
		return "equivalencia"
	case coursename.MatchFuzzy:
		return "difuso"
	case coursename.MatchGuess:
		return "heuristico"
	default:
		return ""
	}
}

// dcScheduleURL builds the DC announcement post URL for the period, e.g.
// ya-se-encuentran-publicadas-las-materias-del-segundo-cuatrimestre-de-2025.
func dcScheduleURL(cfg *config.Config) string {
	if cfg.DCScheduleURL != "" {
		return cfg.DCScheduleURL
	}
	ordinal := "primer"
	if cfg.Semester == 2 {
		ordinal = "segundo"
	}
	return fmt.Sprintf("%sya-se-encuentran-publicadas-las-materias-del-%s-cuatrimestre-de-%d/",
		cfg.ScraperBaseURLs["dc"], ordinal, cfg.Year)
}

func loadLatestSnapshot(cfg *config.Config) ([]*storage.CourseRecord, error) {
	path, err := storage.LatestUnifiedSnapshot(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("no unified snapshot in %s, run without -skip-scrape first", cfg.DataDir)
	}
	return storage.LoadSnapshot(path)
}

// buildIndex rebuilds the retrieval index from the unified records.
func buildIndex(ctx context.Context, cfg *config.Config, log *logger.Logger, records []*storage.CourseRecord) error {
	vectorDB, err := rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}

	searcher := rag.NewHybridSearcher(vectorDB, rag.NewBM25Index(log), log)
	searcher.SetBM25Weight(cfg.BM25Weight)
	if err := searcher.Initialize(ctx, records); err != nil {
		return fmt.Errorf("build retrieval index: %w", err)
	}

	log.WithFields(map[string]any{
		"bm25_docs":      searcher.BM25Index().Count(),
		"vector_docs":    searcher.VectorDB().Count(),
		"vector_enabled": searcher.VectorDB().IsEnabled(),
	}).Info("Retrieval index ready")
	return nil
}
