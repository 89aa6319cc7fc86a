package exactas

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"uba-horarios/internal/schedule"
	"uba-horarios/internal/scraper"
	"uba-horarios/internal/storage"
)

const icCoursesPath = "materias/"

var icDepartment = storage.Department{
	Code: "IC",
	Name: "Instituto de Cálculo",
	URL:  "https://ic.fcen.uba.ar/",
}

var (
	icSemesterRE = regexp.MustCompile(`(?i)(\d+)(?:er|do)\s+cuatrimestre\s+(\d{4})`)
	icBimesterRE = regexp.MustCompile(`(?i)(\d+)(?:er|to)\s+bimestre\s+(\d{4})`)
	icYearRE     = regexp.MustCompile(`(\d{4})`)

	icPeriodSuffixRE = regexp.MustCompile(`(?i)\s+\d+(?:er|do|to)\s+(?:cuatrimestre|bimestre)\s+\d{4}$`)
	icYearSuffixRE   = regexp.MustCompile(`\s+\d{4}$`)
	icParensSuffixRE = regexp.MustCompile(`\s+\([^)]*\)$`)
)

// ScrapeIC scrapes the Instituto de Cálculo course listing.
// Each course is an <a class="academicitem"> card with the schedule and
// teachers in academicinfo divs.
func ScrapeIC(ctx context.Context, client *scraper.Client, baseURL string, defaultYear int) ([]*storage.CourseRecord, error) {
	url := baseURL + icCoursesPath

	doc, err := client.GetDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch IC courses: %w", err)
	}

	return parseICPage(doc, url, defaultYear), nil
}

func parseICPage(doc *goquery.Document, sourceURL string, defaultYear int) []*storage.CourseRecord {
	records := make([]*storage.CourseRecord, 0)
	scrapedAt := time.Now()

	doc.Find("a.academicitem").Each(func(i int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find("div.academictitle").First().Text())
		if len(name) < 3 {
			return
		}

		rawSchedule := strings.TrimSpace(item.Find("div.academicinfo.dateicon").First().Text())
		rawTeachers := strings.TrimSpace(item.Find("div.academicinfo.teachericon").First().Text())

		period := parseICPeriod(name, defaultYear)
		cleanName := cleanICName(name)

		records = append(records, &storage.CourseRecord{
			ID:           storage.MakeRecordID("IC", cleanName, period.Code),
			Name:         cleanName,
			OriginalName: name,
			Period:       period,
			Department:   icDepartment,
			Events:       schedule.Parse(rawSchedule),
			Instructors:  parseICInstructors(rawTeachers),
			SourceURL:    sourceURL,
			ScrapedAt:    scrapedAt,
		})
	})

	return records
}

// parseICPeriod extracts the academic period embedded in course titles like
// "Estadística Aplicada 2do cuatrimestre 2025". Falls back to the bare year.
func parseICPeriod(name string, defaultYear int) storage.Period {
	if m := icSemesterRE.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		return storage.Period{
			Semester: m[1],
			Year:     year,
			Code:     fmt.Sprintf("%sC %s", m[1], m[2]),
		}
	}
	if m := icBimesterRE.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[2])
		return storage.Period{
			Bimester: m[1],
			Year:     year,
			Code:     fmt.Sprintf("%sB %s", m[1], m[2]),
		}
	}
	if m := icYearRE.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		return storage.Period{Year: year, Code: m[1]}
	}
	return storage.Period{Year: defaultYear, Code: strconv.Itoa(defaultYear)}
}

// cleanICName removes the trailing period, year and degree annotations
// that IC embeds in course titles.
func cleanICName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = icPeriodSuffixRE.ReplaceAllString(name, "")
	name = icYearSuffixRE.ReplaceAllString(name, "")
	name = icParensSuffixRE.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

var (
	icTeacherSplitRE = regexp.MustCompile(`\s*[,;]\s*|Auxiliares?:\s*`)
	icParensRE       = regexp.MustCompile(`[()]`)
)

// parseICInstructors splits an IC teacher line. Names after an
// "Auxiliares:" marker get the auxiliar role.
func parseICInstructors(raw string) []storage.Instructor {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	hasAux := strings.Contains(strings.ToLower(raw), "auxiliar")

	clean := strings.ReplaceAll(raw, "(Auxiliares:", ", Auxiliares:")
	clean = strings.ReplaceAll(clean, "(Auxiliar:", ", Auxiliar:")
	clean = icParensRE.ReplaceAllString(clean, "")

	var instructors []storage.Instructor
	for _, name := range icTeacherSplitRE.Split(clean, -1) {
		name = strings.TrimSpace(name)
		if len(name) <= 2 || strings.Contains(strings.ToLower(name), "auxiliar") {
			continue
		}
		role := "profesor"
		if hasAux {
			role = "auxiliar"
		}
		instructors = append(instructors, storage.Instructor{Name: name, Role: role})
	}
	return instructors
}
