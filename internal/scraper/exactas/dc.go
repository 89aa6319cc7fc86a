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

var dcDepartment = storage.Department{
	Code: "DC",
	Name: "Departamento de Computación",
	URL:  "https://www.dc.uba.ar/",
}

var (
	dcActivityRE = regexp.MustCompile(`(?i)\b(Teórica|Práctica|Laboratorio|Teórico-práctico|Teórico/Práctica)\s*:\s*`)
	dcShiftRE    = regexp.MustCompile(`(?i)\s+(TM|TN|TT|Turno\s+\w+|Labo\s+\w+)$`)
	dcSemesterRE = regexp.MustCompile(`(\d)C`)
)

// dcActivityTypes maps the activity labels on the DC announcement page to
// the shared class types.
var dcActivityTypes = map[string]string{
	"teórica":          "teorica",
	"teorica":          "teorica",
	"práctica":         "practica",
	"practica":         "practica",
	"laboratorio":      "laboratorio",
	"teórico-práctico": "teorico_practico",
	"teórico/práctica": "teorico_practico",
}

// ScrapeDC scrapes a Computación schedule announcement post. DC publishes
// each term as a WordPress post holding one table per course group.
func ScrapeDC(ctx context.Context, client *scraper.Client, pageURL string, year int) ([]*storage.CourseRecord, error) {
	doc, err := client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DC schedules: %w", err)
	}

	return parseDCPage(doc, pageURL, year), nil
}

func parseDCPage(doc *goquery.Document, sourceURL string, year int) []*storage.CourseRecord {
	records := make([]*storage.CourseRecord, 0)
	scrapedAt := time.Now()

	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			var cells []string
			row.Find("td, th").Each(func(k int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if record := parseDCRow(cells, sourceURL, year, scrapedAt); record != nil {
				records = append(records, record)
			}
		})
	})

	return records
}

// parseDCRow parses one table row: course, period, degree track, teachers,
// schedule text, optional notes. Header and short rows are skipped.
func parseDCRow(cells []string, sourceURL string, year int, scrapedAt time.Time) *storage.CourseRecord {
	if len(cells) < 5 {
		return nil
	}

	rawName := cells[0]
	if len(rawName) < 3 || strings.EqualFold(rawName, "MATERIA") {
		return nil
	}

	periodCode := cells[1]
	name := cleanDCName(rawName)

	semester := "1"
	if m := dcSemesterRE.FindStringSubmatch(periodCode); m != nil {
		semester = m[1]
	}

	notes := ""
	if len(cells) > 5 {
		notes = cells[5]
	}

	return &storage.CourseRecord{
		ID:           storage.MakeRecordID("DC", name, periodCode),
		Name:         name,
		OriginalName: rawName,
		Period: storage.Period{
			Semester: semester,
			Year:     year,
			Code:     periodCode,
		},
		Department:  dcDepartment,
		Events:      parseDCSchedule(cells[4]),
		Instructors: parseInstructors(cells[3]),
		Notes:       notes,
		SourceURL:   sourceURL,
		ScrapedAt:   scrapedAt,
	}
}

// cleanDCName strips the track and shift decorations DC appends to course
// names ("Algoritmos III / TM", "Intro. a la Programación TN").
func cleanDCName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if idx := strings.Index(name, "/"); idx >= 0 {
		name = name[:idx]
	}
	name = dcShiftRE.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// parseDCSchedule parses a schedule cell where segments are labeled by
// activity ("Teórica: Lunes de 17 a 22 Práctica: ..."). Unlabeled text is
// treated as the theory schedule.
func parseDCSchedule(raw string) []schedule.Event {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	matches := dcActivityRE.FindAllStringSubmatchIndex(raw, -1)
	if matches == nil {
		return schedule.ParseWithActivity(raw, "teorica")
	}

	var events []schedule.Event
	for i, m := range matches {
		label := strings.ToLower(raw[m[2]:m[3]])
		activity, ok := dcActivityTypes[label]
		if !ok {
			activity = "teorica"
		}

		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		segment := strings.TrimSpace(raw[m[1]:end])
		events = append(events, schedule.ParseWithActivity(segment, activity)...)
	}
	return events
}
