// Package discovery crawls Exactas/UBA sites looking for pages with course
// content for the Licenciatura en Ciencia de Datos: schedules, prerequisite
// charts and syllabi. The result is an inventory report that feeds the
// per-department scraper configuration.
package discovery

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"uba-horarios/internal/logger"
	"uba-horarios/internal/scraper"
)

// DefaultSeeds are the known entry points for LCD course content.
var DefaultSeeds = []string{
	"https://lcd.exactas.uba.ar/materias/",
	"https://lcd.exactas.uba.ar/materias-optativas/",
	"https://materias.dc.uba.ar/",
	"https://materias.dm.uba.ar/",
	"https://materias.ic.fcen.uba.ar/",
	"https://www.dc.uba.ar/",
	"https://www.dm.uba.ar/",
	"https://materias.df.uba.ar/",
}

// allowedDomains limits the crawl to university sites.
var allowedDomains = []string{
	"uba.ar",
	"exactas.uba.ar",
	"dc.uba.ar",
	"dm.uba.ar",
	"df.uba.ar",
	"ic.fcen.uba.ar",
}

// deprecatedHosts are known-dead mirrors that still get linked to.
var deprecatedHosts = []string{
	"cms.dm.uba.ar",
}

var interestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`materias?`),
	regexp.MustCompile(`horarios?`),
	regexp.MustCompile(`cursadas?`),
	regexp.MustCompile(`programas?`),
	regexp.MustCompile(`correlativas?`),
	regexp.MustCompile(`departamentos?`),
	regexp.MustCompile(`carreras?`),
	regexp.MustCompile(`calendario`),
	regexp.MustCompile(`docentes?`),
	regexp.MustCompile(`institutos?`),
	regexp.MustCompile(`plan.*estudios?`),
	regexp.MustCompile(`algoritmos?`),
	regexp.MustCompile(`estructuras?.*datos?`),
	regexp.MustCompile(`estadistica`),
	regexp.MustCompile(`probabilidad`),
	regexp.MustCompile(`programacion`),
	regexp.MustCompile(`bases?.*datos?`),
	regexp.MustCompile(`machine.*learning`),
	regexp.MustCompile(`data.*science`),
	regexp.MustCompile(`analisis.*matematico`),
	regexp.MustCompile(`algebra.*lineal`),
	regexp.MustCompile(`calculo`),
	regexp.MustCompile(`optimizacion`),
}

var disinterestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`concurso.*abierto`),
	regexp.MustCompile(`llamado.*docente`),
	regexp.MustCompile(`seminario.*doctorado`),
	regexp.MustCompile(`posgrado`),
	regexp.MustCompile(`extension`),
}

// coreSubjects are the LCD core courses used for preferential scoring.
var coreSubjects = []string{
	"algoritmos", "estructura", "datos",
	"analisis matematico", "algebra lineal", "calculo",
	"estadistica", "probabilidad",
	"programacion", "python",
	"bases datos", "sql",
	"machine learning", "data science",
	"optimizacion", "investigacion operativa",
}

// lcdDepartments weight pages hosted by or mentioning the departments that
// teach the LCD curriculum.
var lcdDepartments = []string{
	"computacion", "dc", "matematica", "dm", "instituto", "calculo", "ic",
}

var (
	yearRE      = regexp.MustCompile(`20(\d{2})`)
	timeRangeRE = regexp.MustCompile(`\d{1,2}:\d{2}\s*[-a]\s*\d{1,2}:\d{2}`)
	hourRE      = regexp.MustCompile(`\d{1,2}\s*hs?\s*[-a]\s*\d{1,2}\s*hs?`)
)

var weekdays = []string{"lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// PageInfo is the analysis of one crawled page.
type PageInfo struct {
	URL              string    `json:"url"`
	Title            string    `json:"titulo"`
	CMS              string    `json:"cms"`
	HasCourses       bool      `json:"tiene_materias"`
	HasSchedules     bool      `json:"tiene_horarios"`
	HasPrereqs       bool      `json:"tiene_correlativas"`
	HasPrograms      bool      `json:"tiene_programas"`
	EstimatedCourses int       `json:"cantidad_materias_estimada"`
	Score            int       `json:"score"`
	Current          bool      `json:"es_actual"`
	YearDetected     int       `json:"ano_detectado,omitempty"`
	Links            []string  `json:"links_encontrados,omitempty"`
	Error            string    `json:"error,omitempty"`
	FetchedAt        time.Time `json:"timestamp"`
}

// Crawler walks course-related pages breadth-first, bounded by a page
// budget. Crawling is sequential: one in-flight request at a time through
// the rate-limited client.
type Crawler struct {
	client   *scraper.Client
	logger   *logger.Logger
	maxPages int
}

// NewCrawler creates a discovery crawler. maxPages bounds the number of
// pages fetched in one run.
func NewCrawler(client *scraper.Client, log *logger.Logger, maxPages int) *Crawler {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Crawler{
		client:   client,
		logger:   log.WithModule("discovery"),
		maxPages: maxPages,
	}
}

// Run crawls from the seed URLs and returns the inventory report.
// Fetch errors on individual pages are recorded in the report, not
// returned; only context cancellation aborts the run.
func (c *Crawler) Run(ctx context.Context, seeds []string) (*Report, error) {
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}

	visited := make(map[string]bool)
	queue := make([]string, 0, len(seeds))
	for _, s := range seeds {
		queue = append(queue, s)
	}

	pages := make(map[string]*PageInfo)
	processed := 0

	for len(queue) > 0 && processed < c.maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := queue[0]
		queue = queue[1:]

		if visited[pageURL] || !c.allowed(pageURL) {
			continue
		}
		visited[pageURL] = true
		processed++

		info := c.visit(ctx, pageURL)
		pages[pageURL] = info

		for _, link := range info.Links {
			if !visited[link] {
				queue = append(queue, link)
			}
		}

		if processed%5 == 0 {
			c.logger.WithFields(map[string]any{
				"processed": processed,
				"queued":    len(queue),
			}).Info("Discovery progress")
		}
	}

	c.logger.WithField("pages", len(pages)).Info("Discovery completed")
	return buildReport(pages), nil
}

// allowed reports whether the URL is inside the university domains and not
// a deprecated mirror.
func (c *Crawler) allowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Host)

	for _, dead := range deprecatedHosts {
		if strings.Contains(host, dead) {
			return false
		}
	}
	for _, domain := range allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (c *Crawler) visit(ctx context.Context, pageURL string) *PageInfo {
	info := &PageInfo{URL: pageURL, FetchedAt: time.Now()}

	doc, err := c.client.GetDocument(ctx, pageURL)
	if err != nil {
		c.logger.WithError(err).WithField("url", pageURL).Warn("Failed to fetch page")
		info.Error = err.Error()
		return info
	}

	html, err := doc.Html()
	if err != nil {
		info.Error = err.Error()
		return info
	}

	analyzePage(info, doc, html)
	info.Links = c.extractLinks(doc, pageURL)
	return info
}

// analyzePage fills the content indicators and relevance score.
func analyzePage(info *PageInfo, doc *goquery.Document, html string) {
	lowered := strings.ToLower(html)

	info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	info.CMS = detectCMS(doc, lowered)

	courseCount := 0
	for _, kw := range []string{"materia", "asignatura", "cátedra", "curso"} {
		courseCount += strings.Count(lowered, kw)
	}
	if courseCount > 3 {
		info.HasCourses = true
		info.EstimatedCourses = courseCount
	}

	if timeRangeRE.MatchString(lowered) || hourRE.MatchString(lowered) {
		info.HasSchedules = true
	} else {
		for _, day := range weekdays {
			if strings.Contains(lowered, day) {
				info.HasSchedules = true
				break
			}
		}
	}

	for _, kw := range []string{"correlativa", "prerrequisito", "requiere haber"} {
		if strings.Contains(lowered, kw) {
			info.HasPrereqs = true
			break
		}
	}
	for _, kw := range []string{"programa", "temario", "bibliografía", "contenido"} {
		if strings.Contains(lowered, kw) {
			info.HasPrograms = true
			break
		}
	}

	info.Current, info.YearDetected = detectRecency(lowered, info.URL)
	info.Score = scoreContent(lowered, info.URL, info.Current)
}

// scoreContent is the LCD relevance heuristic: core subjects weigh most,
// then hosting department, then schedule and prerequisite signals.
func scoreContent(lowered, pageURL string, current bool) int {
	score := 0
	loweredURL := strings.ToLower(pageURL)

	for _, subject := range coreSubjects {
		if strings.Contains(lowered, subject) {
			score += 20
		}
	}
	for _, dept := range lcdDepartments {
		if strings.Contains(loweredURL, dept) || strings.Contains(lowered, dept) {
			score += 15
		}
	}

	if strings.Contains(lowered, "horario") {
		score += 10
	}
	if strings.Contains(lowered, "correlativa") {
		score += 10
	}
	if strings.Contains(lowered, "programa") {
		score += 5
	}

	// Multiple weekdays suggest a full schedule grid
	for _, day := range weekdays[:5] {
		if strings.Contains(lowered, day) {
			score += 3
		}
	}

	if current {
		score += 20
	}
	return score
}

// detectRecency finds the most recent year mentioned in the URL or content.
// Pages without any year are assumed current unless they look archived.
func detectRecency(lowered, pageURL string) (bool, int) {
	latest := 0
	for _, m := range yearRE.FindAllStringSubmatch(pageURL+" "+lowered, -1) {
		year := 2000 + int(m[1][0]-'0')*10 + int(m[1][1]-'0')
		if year > latest && year <= time.Now().Year()+1 {
			latest = year
		}
	}
	if latest > 0 {
		return latest >= time.Now().Year()-2, latest
	}

	for _, stale := range []string{"archivo", "historical", "backup", "deprecated"} {
		if strings.Contains(lowered, stale) {
			return false, 0
		}
	}
	return true, 0
}

// detectCMS identifies the site generator, which determines how hard the
// page is to scrape.
func detectCMS(doc *goquery.Document, lowered string) string {
	switch {
	case strings.Contains(lowered, "mobirise") || strings.Contains(lowered, "mbr-"):
		return "mobirise"
	case strings.Contains(lowered, "wp-content") || strings.Contains(lowered, "wordpress"):
		return "wordpress"
	case strings.Contains(lowered, "drupal"):
		return "drupal"
	case strings.Contains(lowered, "joomla") || strings.Contains(lowered, "/media/jui/"):
		return "joomla"
	case strings.Contains(lowered, "csrf-token") || strings.Contains(lowered, "laravel"):
		return "laravel"
	case strings.Contains(lowered, "plone") || strings.Contains(lowered, "/portal_css/"):
		return "plone"
	case doc.Find("script").Length() < 5:
		return "estatico"
	default:
		return "desconocido"
	}
}

// extractLinks returns the relevant same-domain links on the page.
func (c *Crawler) extractLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		resolved.Fragment = ""
		full := resolved.String()

		if seen[full] || !c.allowed(full) {
			return
		}
		// Long URLs with stacked parameters are almost always navigation noise
		if len(full) > 200 || strings.Count(full, "?") > 1 {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		target := strings.ToLower(href)

		for _, p := range disinterestPatterns {
			if p.MatchString(target) || p.MatchString(text) {
				return
			}
		}

		if !isRelevantLink(target, text) {
			return
		}

		seen[full] = true
		links = append(links, full)
	})

	return links
}

func isRelevantLink(target, text string) bool {
	for _, p := range interestPatterns {
		if p.MatchString(target) || p.MatchString(text) {
			return true
		}
	}
	for _, dept := range lcdDepartments {
		if strings.Contains(target, dept) || strings.Contains(text, dept) {
			return true
		}
	}
	for _, subject := range coreSubjects {
		if strings.Contains(target, subject) || strings.Contains(text, subject) {
			return true
		}
	}
	return false
}
