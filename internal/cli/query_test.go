package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"uba-horarios/internal/config"
	"uba-horarios/internal/logger"
	"uba-horarios/internal/rag"
	"uba-horarios/internal/storage"
)

func TestRootCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	for _, name := range []string{"consulta", "k", "detalle", "interactivo", "stats", "directorio"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
	if cmd.Flags().ShorthandLookup("c") == nil || cmd.Flags().ShorthandLookup("i") == nil {
		t.Error("missing shorthand flags")
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := firstLine("hola\nmundo"); got != "hola" {
		t.Errorf("firstLine = %q", got)
	}
	long := strings.Repeat("a", 200)
	if got := firstLine(long); len(got) != 153 || !strings.HasSuffix(got, "...") {
		t.Errorf("long line not truncated: %d chars", len(got))
	}
}

func testSession(t *testing.T) *session {
	t.Helper()

	log := logger.NewWithWriter("error", io.Discard)
	records := []*storage.CourseRecord{
		{
			ID:         "dm_analisis_ii_2c_2025",
			Name:       "analisis ii",
			Department: storage.Department{Code: "DM"},
			Period:     storage.Period{Code: "2C 2025"},
			Instructors: []storage.Instructor{
				{Name: "García", Role: "profesor"},
			},
		},
		{
			ID:         "dc_algoritmos_i_2c_2025",
			Name:       "algoritmos y estructuras de datos i",
			Department: storage.Department{Code: "DC"},
			Period:     storage.Period{Code: "2C 2025"},
		},
	}

	searcher := rag.NewHybridSearcher(nil, rag.NewBM25Index(log), log)
	if err := searcher.Initialize(context.Background(), records); err != nil {
		t.Fatal(err)
	}

	byID := make(map[string]*storage.CourseRecord)
	for _, r := range records {
		byID[r.ID] = r
	}
	return &session{searcher: searcher, byID: byID, records: records}
}

func TestPrintStats(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	printStats(cmd, testSession(t), nil)

	text := out.String()
	for _, want := range []string{
		"Materias indexadas: 2",
		"Documentos BM25: 2",
		"deshabilitada",
		"DM",
		"2C 2025",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("stats output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Últimas ejecuciones") {
		t.Error("run history printed without runs")
	}
}

func TestPrintStatsWithRuns(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	runs := []storage.Run{
		{
			PeriodCode: "2C 2025",
			Department: "DM",
			Records:    42,
			Duplicates: 3,
			FinishedAt: time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC),
		},
	}
	printStats(cmd, testSession(t), runs)

	text := out.String()
	for _, want := range []string{"Últimas ejecuciones", "42 registros, 3 duplicados", "2025-08-30"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats output missing %q:\n%s", want, text)
		}
	}
}

func TestResolveTopK(t *testing.T) {
	cmd := NewRootCmd()
	cfg := &config.Config{SearchTopK: 7}

	if got := resolveTopK(cmd, cfg); got != 7 {
		t.Errorf("unset flag: got %d, want the configured 7", got)
	}

	if err := cmd.Flags().Set("k", "4"); err != nil {
		t.Fatal(err)
	}
	if got := resolveTopK(cmd, cfg); got != 4 {
		t.Errorf("explicit flag: got %d, want 4", got)
	}
}

func TestOneShotQuery(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	sess := testSession(t)
	if err := oneShot(context.Background(), cmd, sess, "algoritmos", 3, false); err != nil {
		t.Fatalf("oneShot: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "algoritmos y estructuras de datos i") {
		t.Errorf("output missing match:\n%s", text)
	}
	if !strings.Contains(text, "DC 2C 2025") {
		t.Errorf("output missing metadata:\n%s", text)
	}
}

func TestOneShotNoResults(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := oneShot(context.Background(), cmd, testSession(t), "arquitectura naval", 3, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No se encontraron resultados") {
		t.Errorf("output = %s", out.String())
	}
}
