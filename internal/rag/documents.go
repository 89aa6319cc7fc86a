package rag

import (
	"fmt"
	"strings"

	"uba-horarios/internal/storage"
)

// BuildDocument renders a course record as the searchable text that gets
// embedded and indexed. Everything a student might query by goes in:
// name, department, period, instructors, schedule and prerequisites.
func BuildDocument(r *storage.CourseRecord) string {
	var b strings.Builder

	b.WriteString("Materia: ")
	b.WriteString(r.Name)
	if r.OriginalName != "" && r.OriginalName != r.Name {
		b.WriteString(" (")
		b.WriteString(r.OriginalName)
		b.WriteString(")")
	}
	b.WriteString("\n")

	if r.Department.Name != "" {
		fmt.Fprintf(&b, "Departamento: %s\n", r.Department.Name)
	} else if r.Department.Code != "" {
		fmt.Fprintf(&b, "Departamento: %s\n", r.Department.Code)
	}
	if r.Period.Code != "" {
		fmt.Fprintf(&b, "Período: %s\n", r.Period.Code)
	}

	if names := instructorNames(r); len(names) > 0 {
		fmt.Fprintf(&b, "Docentes: %s\n", strings.Join(names, ", "))
	}

	if events := r.AllEvents(); len(events) > 0 {
		b.WriteString("Horarios:")
		for _, ev := range events {
			b.WriteString(" ")
			b.WriteString(ev.Day)
			if ev.StartTime != "" {
				fmt.Fprintf(&b, " %s-%s", ev.StartTime, ev.EndTime)
			}
			if ev.ActivityType != "" {
				fmt.Fprintf(&b, " (%s)", ev.ActivityType)
			}
			b.WriteString(".")
		}
		b.WriteString("\n")
	}

	for _, sec := range r.Sections {
		if sec.Name != "" {
			fmt.Fprintf(&b, "Comisión: %s %s\n", sec.Name, sec.Type)
		}
	}

	if len(r.Prereqs) > 0 {
		fmt.Fprintf(&b, "Correlativas: %s\n", strings.Join(r.Prereqs, ", "))
	}
	if r.Notes != "" {
		fmt.Fprintf(&b, "Observaciones: %s\n", r.Notes)
	}

	return b.String()
}

// instructorNames collects the course-level and section-level instructor
// names, deduplicated in first-seen order.
func instructorNames(r *storage.CourseRecord) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(ins []storage.Instructor) {
		for _, t := range ins {
			if t.Name == "" || seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			names = append(names, t.Name)
		}
	}

	add(r.Instructors)
	for _, sec := range r.Sections {
		add(sec.Instructors)
	}
	return names
}

// documentMetadata builds the chromem metadata map stored alongside each
// course document.
func documentMetadata(r *storage.CourseRecord) map[string]string {
	return map[string]string{
		"id":          r.ID,
		"name":        r.Name,
		"department":  r.Department.Code,
		"period_code": r.Period.Code,
		"instructors": strings.Join(instructorNames(r), ", "),
	}
}
