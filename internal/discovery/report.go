package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// priorityThreshold is the minimum combined score for a page to make the
// priority list.
const priorityThreshold = 15

// Summary aggregates the crawl outcome.
type Summary struct {
	TotalPages      int       `json:"total_sitios"`
	Succeeded       int       `json:"sitios_exitosos"`
	PagesWithCourse int       `json:"sitios_con_materias"`
	GeneratedAt     time.Time `json:"timestamp"`
}

// PrioritySite is a page worth pointing a scraper at, ranked by score.
type PrioritySite struct {
	URL          string `json:"url"`
	Title        string `json:"titulo"`
	Score        int    `json:"score"`
	CMS          string `json:"cms"`
	Current      bool   `json:"es_actual"`
	YearDetected int    `json:"ano_detectado,omitempty"`
}

// Report is the persisted inventory of discovered sites.
type Report struct {
	Summary  Summary              `json:"resumen"`
	ByCMS    map[string][]string  `json:"por_tecnologia"`
	Priority []PrioritySite       `json:"sitios_prioritarios"`
	Pages    map[string]*PageInfo `json:"sitios_detalle"`
}

func buildReport(pages map[string]*PageInfo) *Report {
	report := &Report{
		Summary: Summary{
			TotalPages:  len(pages),
			GeneratedAt: time.Now(),
		},
		ByCMS: make(map[string][]string),
		Pages: pages,
	}

	for _, info := range pages {
		if info.Error != "" {
			continue
		}
		report.Summary.Succeeded++
		report.ByCMS[info.CMS] = append(report.ByCMS[info.CMS], info.URL)

		if !info.HasCourses {
			continue
		}
		report.Summary.PagesWithCourse++

		combined := info.EstimatedCourses + info.Score
		if combined > priorityThreshold {
			report.Priority = append(report.Priority, PrioritySite{
				URL:          info.URL,
				Title:        info.Title,
				Score:        combined,
				CMS:          info.CMS,
				Current:      info.Current,
				YearDetected: info.YearDetected,
			})
		}
	}

	for cms := range report.ByCMS {
		sort.Strings(report.ByCMS[cms])
	}
	sort.Slice(report.Priority, func(i, j int) bool {
		if report.Priority[i].Score != report.Priority[j].Score {
			return report.Priority[i].Score > report.Priority[j].Score
		}
		return report.Priority[i].URL < report.Priority[j].URL
	})

	return report
}

// SaveReport writes the inventory as JSON under dataDir and returns the
// file path.
func SaveReport(dataDir string, report *Report) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := filepath.Join(dataDir, "inventario_sitios.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}
