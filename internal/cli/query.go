// Package cli implements the course query command: free-text questions
// against the retrieval index built by the pipeline.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"uba-horarios/internal/config"
	"uba-horarios/internal/logger"
	"uba-horarios/internal/rag"
	"uba-horarios/internal/storage"
)

var (
	flagQuery       string
	flagTopK        int
	flagDetail      bool
	flagInteractive bool
	flagStats       bool
	flagDataDir     string
)

// NewRootCmd creates the query command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consultar",
		Short: "Consulta los horarios de materias de la Licenciatura en Ciencia de Datos",
		Long: `Busca materias, horarios y docentes en el índice construido por el
pipeline de scraping. Combina búsqueda por palabras clave (BM25) con
búsqueda semántica cuando hay una API key de embeddings configurada.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&flagQuery, "consulta", "c", "", "Consulta específica")
	cmd.Flags().IntVarP(&flagTopK, "k", "k", 3, "Número de resultados (default: SEARCH_TOP_K)")
	cmd.Flags().BoolVarP(&flagDetail, "detalle", "d", false, "Mostrar información detallada")
	cmd.Flags().BoolVarP(&flagInteractive, "interactivo", "i", false, "Modo interactivo")
	cmd.Flags().BoolVarP(&flagStats, "stats", "s", false, "Mostrar estadísticas del índice")
	cmd.Flags().StringVar(&flagDataDir, "directorio", "", "Directorio de datos (default: DATA_DIR)")

	return cmd
}

// session holds everything a query needs: the searcher plus the full
// records for detailed output.
type session struct {
	searcher *rag.HybridSearcher
	byID     map[string]*storage.CourseRecord
	records  []*storage.CourseRecord
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}

	if flagStats {
		printStats(cmd, sess, loadRecentRuns(ctx, cfg, log))
		if flagQuery == "" && !flagInteractive {
			return nil
		}
		cmd.Println()
	}

	topK := resolveTopK(cmd, cfg)

	if flagInteractive {
		return interactive(ctx, cmd, sess, topK)
	}

	if flagQuery != "" {
		return oneShot(ctx, cmd, sess, flagQuery, topK, flagDetail)
	}

	if !flagStats {
		_ = cmd.Help()
		cmd.Println("\nEjemplos:")
		cmd.Println("  consultar -c 'horarios de análisis matemático'")
		cmd.Println("  consultar -i   # modo interactivo")
		cmd.Println("  consultar -s   # estadísticas")
	}
	return nil
}

// openSession loads the latest unified snapshot and builds the searcher.
func openSession(ctx context.Context, cfg *config.Config, log *logger.Logger) (*session, error) {
	snapshotPath, err := storage.LatestUnifiedSnapshot(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if snapshotPath == "" {
		return nil, fmt.Errorf("no hay datos unificados en %s: ejecutá primero el pipeline", cfg.DataDir)
	}

	records, err := storage.LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}

	vectorDB, err := rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
	if err != nil {
		return nil, err
	}
	searcher := rag.NewHybridSearcher(vectorDB, rag.NewBM25Index(log), log)
	searcher.SetBM25Weight(cfg.BM25Weight)
	if err := searcher.Initialize(ctx, records); err != nil {
		return nil, err
	}

	byID := make(map[string]*storage.CourseRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	return &session{searcher: searcher, byID: byID, records: records}, nil
}

func oneShot(ctx context.Context, cmd *cobra.Command, sess *session, query string, topK int, detail bool) error {
	cmd.Printf("Consulta: %q\n", query)
	cmd.Println(strings.Repeat("-", 60))

	results, err := sess.searcher.Search(ctx, query, topK)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		cmd.Println("No se encontraron resultados relevantes")
		return nil
	}

	for i, res := range results {
		printResult(cmd, sess, i+1, res, detail)
	}
	return nil
}

// resolveTopK prefers an explicit -k over the configured default.
func resolveTopK(cmd *cobra.Command, cfg *config.Config) int {
	if cmd.Flags().Changed("k") {
		return flagTopK
	}
	return cfg.SearchTopK
}

// loadRecentRuns fetches the run history for the stats view, best effort:
// stats still print without it.
func loadRecentRuns(ctx context.Context, cfg *config.Config, log *logger.Logger) []storage.Run {
	db, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Debug("Run history unavailable")
		return nil
	}
	defer func() { _ = db.Close() }()

	runs, err := db.RecentRuns(ctx, 6)
	if err != nil {
		log.WithError(err).Debug("Run history unavailable")
		return nil
	}
	return runs
}

func interactive(ctx context.Context, cmd *cobra.Command, sess *session, topK int) error {
	cmd.Println("Modo interactivo - escribí 'salir' para terminar")
	cmd.Println(strings.Repeat("=", 60))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("\nConsulta: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "", "salir", "exit", "quit":
			cmd.Println("Hasta luego")
			return scanner.Err()
		}

		results, err := sess.searcher.Search(ctx, query, topK)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		if len(results) == 0 {
			cmd.Println("No se encontraron resultados relevantes")
			continue
		}

		cmd.Printf("\n%d resultados relevantes:\n", len(results))
		cmd.Println(strings.Repeat("-", 40))
		for i, res := range results {
			printResult(cmd, sess, i+1, res, true)
		}
	}
	return scanner.Err()
}

func printResult(cmd *cobra.Command, sess *session, position int, res rag.SearchResult, detail bool) {
	cmd.Printf("\n%d. %s (score: %.3f)\n", position, res.Name, res.Similarity)

	record := sess.byID[res.ID]
	if record == nil {
		return
	}

	if !detail {
		summary := firstLine(rag.BuildDocument(record))
		cmd.Printf("   %s | %s %s\n", summary, record.Department.Code, record.Period.Code)
		return
	}

	if events := record.AllEvents(); len(events) > 0 {
		cmd.Println("   Horarios:")
		for _, ev := range events {
			line := fmt.Sprintf("     %s %s-%s", ev.Day, ev.StartTime, ev.EndTime)
			if ev.ActivityType != "" {
				line += " (" + ev.ActivityType + ")"
			}
			if ev.Room != "" {
				line += " aula " + ev.Room
			}
			cmd.Println(line)
		}
	}
	if len(res.Instructors) > 0 {
		cmd.Printf("   Docentes: %s\n", strings.Join(res.Instructors, ", "))
	}
	if len(record.Prereqs) > 0 {
		cmd.Printf("   Correlativas: %s\n", strings.Join(record.Prereqs, ", "))
	}
	if record.SourceURL != "" {
		cmd.Printf("   Fuente: %s\n", record.SourceURL)
	}
}

func printStats(cmd *cobra.Command, sess *session, runs []storage.Run) {
	cmd.Println("ESTADÍSTICAS DEL ÍNDICE")
	cmd.Println(strings.Repeat("=", 40))

	byDept := make(map[string]int)
	byPeriod := make(map[string]int)
	for _, r := range sess.records {
		byDept[r.Department.Code]++
		byPeriod[r.Period.Code]++
	}

	cmd.Printf("Materias indexadas: %d\n", len(sess.records))
	cmd.Printf("Documentos BM25: %d\n", sess.searcher.BM25Index().Count())
	if sess.searcher.VectorDB().IsEnabled() {
		cmd.Printf("Documentos vectoriales: %d\n", sess.searcher.VectorDB().Count())
	} else {
		cmd.Println("Búsqueda semántica: deshabilitada (sin API key)")
	}

	cmd.Println("\nPor departamento:")
	for _, dept := range sortedKeys(byDept) {
		cmd.Printf("  %-4s %d\n", dept, byDept[dept])
	}
	cmd.Println("\nPor período:")
	for _, period := range sortedKeys(byPeriod) {
		cmd.Printf("  %-8s %d\n", period, byPeriod[period])
	}

	if len(runs) > 0 {
		cmd.Println("\nÚltimas ejecuciones:")
		for _, run := range runs {
			cmd.Printf("  %s  %-4s %d registros, %d duplicados (%s)\n",
				run.FinishedAt.Format("2006-01-02 15:04"), run.Department,
				run.Records, run.Duplicates, run.PeriodCode)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 150 {
		s = s[:150] + "..."
	}
	return s
}
