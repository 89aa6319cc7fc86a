package storage

import (
	"regexp"
	"strings"
	"time"

	"uba-horarios/internal/schedule"
)

// Instructor is a course teacher or assistant.
type Instructor struct {
	Name string `json:"nombre"`
	Role string `json:"rol"` // "profesor" or "auxiliar"
}

// Period identifies the academic term a record belongs to.
type Period struct {
	Semester string `json:"cuatrimestre,omitempty"`
	Bimester string `json:"bimestre,omitempty"`
	Year     int    `json:"año"`
	Code     string `json:"codigo"` // e.g. "2C 2025"
}

// Department identifies the source department of a record.
type Department struct {
	Code string `json:"codigo"` // DM, DC, IC, ...
	Name string `json:"nombre"`
	URL  string `json:"url_origen"`
}

// Section is one comisión of a DM course: a typed class slot with its
// own schedule, teachers and room.
type Section struct {
	Name        string           `json:"nombre"`
	Type        string           `json:"tipo"` // teorica, practica, laboratorio, teorico_practico
	Events      []schedule.Event `json:"horarios"`
	Instructors []Instructor     `json:"docentes,omitempty"`
	Room        string           `json:"aula,omitempty"`
	RawSchedule string           `json:"horarios_raw,omitempty"`
}

// CourseRecord is one scraped course offering. Records from different
// departments may describe the same course; the unifier merges them.
type CourseRecord struct {
	ID           string           `json:"id"`
	Name         string           `json:"nombre"`
	OriginalName string           `json:"nombre_original,omitempty"`
	MatchKind    string           `json:"tipo_match,omitempty"` // exacto, equivalencia, difuso, heuristico
	Period       Period           `json:"periodo"`
	Department   Department       `json:"departamento"`
	Events       []schedule.Event `json:"horarios,omitempty"`
	OfficeHours  []schedule.Event `json:"consultas,omitempty"`
	Sections     []Section        `json:"comisiones,omitempty"`
	Instructors  []Instructor     `json:"docentes,omitempty"`
	Prereqs      []string         `json:"correlativas,omitempty"`
	ScheduleURL  string           `json:"url_horarios,omitempty"`
	SourceURL    string           `json:"fuente_url"`
	Notes        string           `json:"observaciones,omitempty"`
	ScrapedAt    time.Time        `json:"fecha_extraccion"`

	// IsDuplicateOf is set by the unifier on discarded records: the ID of
	// the record that was kept in their place.
	IsDuplicateOf string `json:"es_duplicado_de,omitempty"`
}

// AllEvents returns the record's events, flattening DM sections.
func (r *CourseRecord) AllEvents() []schedule.Event {
	if len(r.Sections) == 0 {
		return r.Events
	}
	var events []schedule.Event
	events = append(events, r.Events...)
	for _, s := range r.Sections {
		events = append(events, s.Events...)
	}
	return events
}

var idSlugRE = regexp.MustCompile(`[^a-z0-9]+`)

// MakeRecordID builds a stable record identifier from department code,
// course name and period code, e.g. "dm_analisis_ii_2c_2025".
func MakeRecordID(deptCode, name, periodCode string) string {
	slug := func(s string) string {
		s = idSlugRE.ReplaceAllString(strings.ToLower(s), "_")
		return strings.Trim(s, "_")
	}
	return slug(deptCode) + "_" + slug(name) + "_" + slug(periodCode)
}
