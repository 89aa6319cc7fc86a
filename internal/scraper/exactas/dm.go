// Package exactas contains the scrapers for the Exactas department pages
// that publish Licenciatura en Ciencia de Datos schedules: Matemática (DM),
// Computación (DC), Instituto de Cálculo (IC) and the obligatory course
// list of the degree itself.
package exactas

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"uba-horarios/internal/schedule"
	"uba-horarios/internal/scraper"
	"uba-horarios/internal/storage"
)

const dmSchedulePath = "index.php/docencia/materias/horarios"

// dmSectionTypes maps the CSS class of a row's first cell to the class type.
var dmSectionTypes = map[string]string{
	"fondoT": "teorica",
	"fondoP": "practica",
	"fondoL": "laboratorio",
	"fondoA": "teorico_practico",
}

var dmDepartment = storage.Department{
	Code: "DM",
	Name: "Departamento de Matemática",
	URL:  "https://web.dm.uba.ar/",
}

// ScrapeDM scrapes the Matemática schedule page for one term.
// URL: {base}index.php/docencia/materias/horarios?ano={year}&cuatrimestre={sem}
func ScrapeDM(ctx context.Context, client *scraper.Client, baseURL string, year, semester int) ([]*storage.CourseRecord, error) {
	url := fmt.Sprintf("%s%s?ano=%d&cuatrimestre=%d", baseURL, dmSchedulePath, year, semester)

	doc, err := client.GetDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DM schedules: %w", err)
	}

	periodCode := fmt.Sprintf("%dC %d", semester, year)
	return parseDMPage(doc, url, year, semester, periodCode), nil
}

// parseDMPage extracts one record per table.horarios. The caption holds the
// course name; each row is a comisión typed by its CSS class.
func parseDMPage(doc *goquery.Document, sourceURL string, year, semester int, periodCode string) []*storage.CourseRecord {
	records := make([]*storage.CourseRecord, 0)
	scrapedAt := time.Now()

	doc.Find("table.horarios").Each(func(i int, table *goquery.Selection) {
		name := strings.TrimSpace(table.Find("caption").First().Text())
		if len(name) < 3 {
			return
		}

		var sections []storage.Section
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			if section, ok := parseDMRow(row); ok {
				sections = append(sections, section)
			}
		})
		if len(sections) == 0 {
			return
		}

		records = append(records, &storage.CourseRecord{
			ID:           storage.MakeRecordID("DM", name, periodCode),
			Name:         name,
			OriginalName: name,
			Period: storage.Period{
				Semester: fmt.Sprintf("%d", semester),
				Year:     year,
				Code:     periodCode,
			},
			Department: dmDepartment,
			Sections:   sections,
			SourceURL:  sourceURL,
			ScrapedAt:  scrapedAt,
		})
	})

	return records
}

// parseDMRow parses one comisión row: type cell, schedule cell, teacher
// cell, room cell. Rows whose first cell carries no known type class are
// skipped (headers, separators).
func parseDMRow(row *goquery.Selection) (storage.Section, bool) {
	cells := row.Find("td")
	if cells.Length() < 4 {
		return storage.Section{}, false
	}

	typeCell := cells.Eq(0)
	classAttr, _ := typeCell.Attr("class")

	var sectionType string
	for _, class := range strings.Fields(classAttr) {
		if t, ok := dmSectionTypes[class]; ok {
			sectionType = t
			break
		}
	}
	if sectionType == "" {
		return storage.Section{}, false
	}

	rawSchedule := strings.TrimSpace(cells.Eq(1).Text())
	room := strings.TrimSpace(strings.ReplaceAll(cells.Eq(3).Text(), "Aula:", ""))

	return storage.Section{
		Name:        strings.TrimSpace(typeCell.Text()),
		Type:        sectionType,
		Events:      schedule.ParseWithActivity(rawSchedule, sectionType),
		Instructors: parseInstructors(cells.Eq(2).Text()),
		Room:        room,
		RawSchedule: rawSchedule,
	}, true
}

var instructorSplitRE = regexp.MustCompile(`\s*-\s*|\s*,\s*`)

// parseInstructors splits a teacher cell on dashes and commas.
func parseInstructors(raw string) []storage.Instructor {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var instructors []storage.Instructor
	for _, name := range instructorSplitRE.Split(raw, -1) {
		name = strings.TrimSpace(name)
		if len(name) > 2 {
			instructors = append(instructors, storage.Instructor{Name: name, Role: "profesor"})
		}
	}
	return instructors
}
