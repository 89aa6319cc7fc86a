// Package catalog loads the official list of degree courses. The catalog is
// the ground truth that scraped names are matched against; without it the
// pipeline cannot run, so loading fails loudly.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"uba-horarios/internal/errors"
)

// Course is one entry of the official course list.
type Course struct {
	Name  string `json:"materia"`
	Cycle string `json:"ciclo"`
}

// Catalog holds the official course list in file order.
type Catalog struct {
	Courses []Course
}

// Load reads the course catalog from a JSON file.
// A missing or unreadable file returns ErrCatalogUnavailable.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrCatalogUnavailable, path, err)
	}
	return Parse(data)
}

// Parse decodes catalog JSON. Entries without a course name are rejected.
func Parse(data []byte) (*Catalog, error) {
	var courses []Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrCatalogUnavailable, err)
	}
	if len(courses) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", errors.ErrCatalogUnavailable)
	}
	for i, c := range courses {
		if c.Name == "" {
			return nil, errors.NewValidationError("materia", fmt.Sprintf("entry %d has no course name", i))
		}
	}
	return &Catalog{Courses: courses}, nil
}

// Save writes the catalog to a JSON file, creating the directory if needed.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	data, err := json.MarshalIndent(c.Courses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

// Names returns the course names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Courses))
	for i, course := range c.Courses {
		names[i] = course.Name
	}
	return names
}

// ByCycle groups course counts by degree cycle.
func (c *Catalog) ByCycle() map[string]int {
	counts := make(map[string]int)
	for _, course := range c.Courses {
		cycle := course.Cycle
		if cycle == "" {
			cycle = "Sin ciclo"
		}
		counts[cycle]++
	}
	return counts
}
