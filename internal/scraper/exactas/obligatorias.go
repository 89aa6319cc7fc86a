package exactas

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uba-horarios/internal/scraper"
)

// ObligatoryCourse is one row of the degree's obligatory course list.
type ObligatoryCourse struct {
	Name        string `json:"materia"`
	Department  string `json:"departamento"`
	ScheduleURL string `json:"url_horarios,omitempty"`
	Cycle       string `json:"ciclo,omitempty"`
}

// departmentCodes maps the department names on the LCD page to short codes.
var departmentCodes = map[string]string{
	"Departamento de Matemática":  "DM",
	"Departamento de Computación": "DC",
	"Departamento de Física":      "DF",
	"Instituto de Cálculo":        "IC",
	"Departamento de Fisiología, Biología Molecular y Celular":           "FB",
	"Departamento de Ciencias de la Atmósfera y los Océanos":             "AT",
	"Departamento de Química Inorgánica, Analítica y Química Física":     "QI",
}

var (
	obligSemesterRE = regexp.MustCompile(`(?i)(\d)(?:er|do)\s+cuatrimestre\s+(\d{4})`)
	obligSummerRE   = regexp.MustCompile(`(?i)verano\s+(\d{4})`)
)

// ScrapeObligatorias scrapes the LCD obligatory course list, keyed by the
// period heading each table sits under ("1er cuatrimestre 2025", ...).
// Only periods of the given year are kept.
func ScrapeObligatorias(ctx context.Context, client *scraper.Client, pageURL string, year int) (map[string][]ObligatoryCourse, error) {
	doc, err := client.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch obligatory course list: %w", err)
	}

	return parseObligatoriasPage(doc, year), nil
}

func parseObligatoriasPage(doc *goquery.Document, year int) map[string][]ObligatoryCourse {
	byPeriod := make(map[string][]ObligatoryCourse)
	yearStr := fmt.Sprintf("%d", year)

	doc.Find("h2").Each(func(i int, heading *goquery.Selection) {
		periodTitle := strings.TrimSpace(heading.Text())
		if !strings.Contains(periodTitle, yearStr) {
			return
		}

		// Walk the siblings under this period heading: cycle subheadings
		// (CBC, Segundo Ciclo, ...) apply to the tables that follow them,
		// until the next period starts.
		var courses []ObligatoryCourse
		cycle := ""
		heading.NextAll().EachWithBreak(func(j int, sib *goquery.Selection) bool {
			switch goquery.NodeName(sib) {
			case "h2":
				return false
			case "h3", "h4":
				cycle = strings.TrimSpace(sib.Text())
			case "table":
				courses = append(courses, parseObligatoriasTable(sib, cycle)...)
			}
			return true
		})

		if len(courses) > 0 {
			byPeriod[periodTitle] = courses
		}
	})

	return byPeriod
}

func parseObligatoriasTable(table *goquery.Selection, cycle string) []ObligatoryCourse {
	var courses []ObligatoryCourse
	table.Find("tr").Each(func(j int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		name := strings.TrimSpace(cells.Eq(0).Text())
		if name == "" {
			return
		}
		deptName := strings.TrimSpace(cells.Eq(1).Text())
		scheduleURL, _ := cells.Eq(2).Find("a").First().Attr("href")

		dept := deptName
		if code, ok := departmentCodes[deptName]; ok {
			dept = code
		}

		courses = append(courses, ObligatoryCourse{
			Name:        name,
			Department:  dept,
			ScheduleURL: scheduleURL,
			Cycle:       cycle,
		})
	})
	return courses
}

// PeriodCode converts a period heading to the short code used on records:
// "2do cuatrimestre 2025" -> "2C 2025", "Verano 2025" -> "V 2025".
func PeriodCode(periodTitle string) string {
	if m := obligSemesterRE.FindStringSubmatch(periodTitle); m != nil {
		return fmt.Sprintf("%sC %s", m[1], m[2])
	}
	if m := obligSummerRE.FindStringSubmatch(periodTitle); m != nil {
		return "V " + m[1]
	}
	return periodTitle
}
