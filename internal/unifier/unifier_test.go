package unifier

import (
	"testing"

	"uba-horarios/internal/schedule"
	"uba-horarios/internal/storage"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Análisis II", "analisis ii"},
		{"Señales y Sistemas", "senales y sistemas"},
		{"Física (teórica)", "fisica teorica"},
		{"  Química   General  ", "quimica general"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestComparisonKeyDropsNoise(t *testing.T) {
	t.Parallel()

	if ComparisonKey("Análisis II") != ComparisonKey("Análisis 2") {
		t.Error("roman and arabic levels should share a key")
	}
	if ComparisonKey("Análisis Matemático A") != ComparisonKey("Análisis Matemático") {
		t.Error("variant letters should be noise")
	}
	if ComparisonKey("Análisis") == ComparisonKey("Álgebra") {
		t.Error("different courses must not collide")
	}
}

func record(id, name string, events int) *storage.CourseRecord {
	r := &storage.CourseRecord{ID: id, Name: name}
	for range events {
		r.Events = append(r.Events, schedule.Event{Day: "lunes", StartTime: "09:00", EndTime: "11:00"})
	}
	return r
}

func TestUnifyKeepsMostComplete(t *testing.T) {
	t.Parallel()

	full := record("ic_analisis_ii", "Análisis II", 2)
	empty := record("dm_analisis_2", "Análisis 2", 0)
	other := record("dc_algoritmos_i", "Algoritmos I", 1)

	result := Unify([]*storage.CourseRecord{empty, full, other})

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if result.Records[0].ID != "ic_analisis_ii" {
		t.Errorf("kept %q, want the record with events", result.Records[0].ID)
	}
	if len(result.Records[0].Events) != 2 {
		t.Errorf("kept record has %d events, want 2", len(result.Records[0].Events))
	}
	if result.Discarded != 1 {
		t.Errorf("Discarded = %d, want 1", result.Discarded)
	}

	if len(result.Duplicates) != 1 {
		t.Fatalf("got %d duplicate groups, want 1", len(result.Duplicates))
	}
	dup := result.Duplicates[0]
	if dup.Kept != "Análisis II" || len(dup.Discarded) != 1 || dup.Discarded[0] != "Análisis 2" {
		t.Errorf("duplicate group = %+v", dup)
	}
	if dup.Similarity <= 0.5 {
		t.Errorf("Similarity = %v, want high for near-identical names", dup.Similarity)
	}
	if empty.IsDuplicateOf != "ic_analisis_ii" {
		t.Errorf("discarded record IsDuplicateOf = %q", empty.IsDuplicateOf)
	}
	if full.IsDuplicateOf != "" {
		t.Errorf("kept record should not be marked a duplicate, got %q", full.IsDuplicateOf)
	}
}

func TestUnifyTieKeepsFirst(t *testing.T) {
	t.Parallel()

	a := record("first", "Química", 1)
	b := record("second", "Quimica", 1)

	result := Unify([]*storage.CourseRecord{a, b})
	if len(result.Records) != 1 || result.Records[0].ID != "first" {
		t.Errorf("tie should keep the earliest record, got %+v", result.Records)
	}
}

func TestCompletenessScore(t *testing.T) {
	t.Parallel()

	r := record("x", "Análisis II", 1)
	r.OfficeHours = []schedule.Event{{Day: "viernes", StartTime: "14:00", EndTime: "15:00"}}
	r.Prereqs = []string{"Análisis I"}
	r.Instructors = []storage.Instructor{{Name: "García", Role: "profesor"}}
	r.ScheduleURL = "https://web.dm.uba.ar/horarios"

	if got := CompletenessScore(r); got != 9 {
		t.Errorf("full record score = %d, want 9", got)
	}
	if got := CompletenessScore(record("y", "Vacía", 0)); got != 0 {
		t.Errorf("empty record score = %d, want 0", got)
	}

	// Section events count as class schedules.
	s := &storage.CourseRecord{
		ID:   "z",
		Name: "Con comisiones",
		Sections: []storage.Section{{
			Type:   "teorica",
			Events: []schedule.Event{{Day: "lunes", StartTime: "09:00", EndTime: "11:00"}},
		}},
	}
	if got := CompletenessScore(s); got != 3 {
		t.Errorf("sectioned record score = %d, want 3", got)
	}
}
