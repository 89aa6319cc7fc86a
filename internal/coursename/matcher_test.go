package coursename

import "testing"

var testCatalog = []string{
	"Análisis II",
	"Algoritmos y Estructuras de Datos I",
	"Laboratorio de Datos",
	"Química",
	"Física",
	"Análisis Matemático A",
	"Intr. a la Estadística y Ciencia de Datos",
}

func TestResolveExact(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testCatalog)

	tests := []struct {
		input string
		want  string
	}{
		{"Análisis II", "analisis ii"},
		{"Análisis 2", "analisis ii"}, // arabic variant indexed
		{"analisis ii", "analisis ii"},
		{"Laboratorio de Datos", "laboratorio de datos"},
		{"Laboratorio de Dato", "laboratorio de datos"}, // singular variant
		{"Química", "quimica"},
		{"Quimica", "quimica"},
	}

	for _, tt := range tests {
		got := m.Resolve(tt.input)
		if got.Kind != MatchExact || got.Name != tt.want {
			t.Errorf("Resolve(%q) = {%v %q}, want exact %q", tt.input, got.Kind, got.Name, tt.want)
		}
	}
}

func TestResolveCBCEquivalence(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testCatalog)

	// "Química General e Inorgánica" is indexed during build via the
	// equivalence table, so it resolves exactly.
	got := m.Resolve("Química General e Inorgánica")
	if got.Kind != MatchExact || got.Name != "quimica" {
		t.Errorf("Resolve(Química General e Inorgánica) = {%v %q}", got.Kind, got.Name)
	}

	// "Física 3" is not indexed; the leading token falls back through the
	// equivalence table to the catalog course.
	got = m.Resolve("Física 3")
	if got.Kind != MatchEquivalence || got.Name != "fisica" {
		t.Errorf("Resolve(Física 3) = {%v %q}, want equivalence fisica", got.Kind, got.Name)
	}

	// Reverse equivalence: "Análisis I" maps back to the catalog's
	// "analisis matematico".
	got = m.Resolve("Análisis I")
	if got.Name != "analisis matematico" {
		t.Errorf("Resolve(Análisis I) = {%v %q}, want analisis matematico", got.Kind, got.Name)
	}
}

func TestResolveFuzzy(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testCatalog)

	// Shares 2 of 3 tokens with the indexed "laboratorio datos" variant:
	// score 2/3 > 0.6 with 2 shared tokens.
	got := m.Resolve("Laboratorio Datos Avanzado")
	if got.Kind != MatchFuzzy || got.Name != "laboratorio de datos" {
		t.Fatalf("Resolve(Laboratorio Datos Avanzado) = {%v %q}, want fuzzy laboratorio de datos", got.Kind, got.Name)
	}
	if got.Score <= 0.6 {
		t.Errorf("fuzzy score = %v, want > 0.6", got.Score)
	}

	// Only 1 shared token: below the floor, falls through to a guess.
	got = m.Resolve("Laboratorio Cuántico Experimental")
	if got.Kind != MatchGuess {
		t.Errorf("Resolve(Laboratorio Cuántico Experimental) = {%v %q}, want guess", got.Kind, got.Name)
	}
}

func TestResolveGuessAndEmpty(t *testing.T) {
	t.Parallel()

	m := NewMatcher(testCatalog)

	got := m.Resolve("Taller de Cerámica 2")
	if got.Kind != MatchGuess || got.Name != "taller de ceramica ii" {
		t.Errorf("unmatched name = {%v %q}, want guess with canonical form", got.Kind, got.Name)
	}

	got = m.Resolve("   ")
	if got.Kind != MatchEmpty || got.Name != "" {
		t.Errorf("blank input = {%v %q}, want empty match", got.Kind, got.Name)
	}
}

func TestCollisionsReported(t *testing.T) {
	t.Parallel()

	// "Algoritmos I" and "Algoritmo 1" produce overlapping variants through
	// the plural and numeral swaps but normalize to different canonicals.
	m := NewMatcher([]string{"Algoritmos I", "Algoritmo 1"})

	collisions := m.Collisions()
	if len(collisions) == 0 {
		t.Fatal("expected collisions to be reported")
	}
	for _, c := range collisions {
		if c.Variant == "" || c.Existing == c.New {
			t.Errorf("malformed collision record: %+v", c)
		}
	}

	if len(NewMatcher(testCatalog).Collisions()) != 0 {
		t.Error("disjoint catalog should produce no collisions")
	}
}

func TestEquivalenceKeyCollisionsReported(t *testing.T) {
	t.Parallel()

	// "Química"'s CBC equivalence key already belongs to the other catalog
	// course, so the overwrite must be reported like any variant collision.
	m := NewMatcher([]string{"Química General e Inorgánica", "Química"})

	found := false
	for _, c := range m.Collisions() {
		if c.Variant == "quimica general e inorganica" && c.New == "quimica" {
			found = true
			if c.Existing != "quimica general e inorganica" {
				t.Errorf("Existing = %q", c.Existing)
			}
		}
	}
	if !found {
		t.Errorf("equivalence-key overwrite not reported: %+v", m.Collisions())
	}
}

func TestResolveDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	// Both catalog names overlap the query equally; the lexicographically
	// smaller variant must win every time.
	m := NewMatcher([]string{"Modelado Continuo Avanzado", "Modelado Continuo Basico"})

	first := m.Resolve("Modelado Continuo Experimental")
	if first.Kind != MatchFuzzy {
		t.Fatalf("want fuzzy match, got %v", first.Kind)
	}
	for range 10 {
		if got := m.Resolve("Modelado Continuo Experimental"); got.Name != first.Name {
			t.Fatalf("nondeterministic resolution: %q then %q", first.Name, got.Name)
		}
	}
	if first.Name != "modelado continuo avanzado" {
		t.Errorf("tie should break lexicographically, got %q", first.Name)
	}
}

func TestCleanWebName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{
			"Física 1 (Lic. en Cs. Físicas) - Electiva de Introducción",
			"Física 1",
		},
		{
			"Algoritmos I (solicitar equivalencia)",
			"Algoritmos I",
		},
		{
			"Laboratorio de Datos (2do cuatrimestre)",
			"Laboratorio de Datos",
		},
		{
			"<b>Análisis II</b>",
			"Análisis II",
		},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanWebName(tt.input); got != tt.want {
			t.Errorf("CleanWebName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
