// Package unifier merges per-department course records into one catalog-wide
// list, detecting the same course published by several departments and
// keeping the most complete record.
package unifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"uba-horarios/internal/storage"
)

var (
	nonAlnumRE   = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpaceRE = regexp.MustCompile(`\s+`)

	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// noiseTokens are level suffixes that make the same course look different
// across departments ("Análisis II" vs "Análisis 2").
var noiseTokens = map[string]bool{
	"i": true, "ii": true, "iii": true, "iv": true,
	"1": true, "2": true, "3": true, "4": true,
	"a": true, "b": true, "c": true,
}

// NormalizeName folds a course name for comparison: lowercase, combining
// marks removed via NFD, ñ to n, punctuation to spaces, single-spaced.
func NormalizeName(name string) string {
	name = strings.ToLower(name)

	if stripped, _, err := transform.String(accentStripper, name); err == nil {
		name = stripped
	}
	name = strings.ReplaceAll(name, "ñ", "n")

	name = nonAlnumRE.ReplaceAllString(name, " ")
	name = multiSpaceRE.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ComparisonKey is NormalizeName with level-suffix noise tokens removed.
// Records sharing a key are treated as duplicates of one course.
func ComparisonKey(name string) string {
	var kept []string
	for _, tok := range strings.Fields(NormalizeName(name)) {
		if !noiseTokens[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// CompletenessScore ranks how much information a record carries. Class
// schedules weigh most, then office hours and prerequisites, then teachers
// and the schedule page link.
func CompletenessScore(r *storage.CourseRecord) int {
	score := 0
	if len(r.AllEvents()) > 0 {
		score += 3
	}
	if len(r.OfficeHours) > 0 {
		score += 2
	}
	if len(r.Prereqs) > 0 {
		score += 2
	}
	if len(r.Instructors) > 0 || hasSectionInstructors(r) {
		score++
	}
	if r.ScheduleURL != "" {
		score++
	}
	return score
}

func hasSectionInstructors(r *storage.CourseRecord) bool {
	for _, s := range r.Sections {
		if len(s.Instructors) > 0 {
			return true
		}
	}
	return false
}

// DuplicateGroup reports one set of records that resolved to the same
// course. Similarity is the Jaro-Winkler distance between the kept name
// and the closest discarded name.
type DuplicateGroup struct {
	Key        string   `json:"clave"`
	Kept       string   `json:"materia_conservada"`
	KeptID     string   `json:"id_conservado"`
	Discarded  []string `json:"descartadas"`
	Similarity float64  `json:"similitud"`
}

// Result is the outcome of a Unify run.
type Result struct {
	Records    []*storage.CourseRecord
	Duplicates []DuplicateGroup
	Discarded  int
}

// Unify deduplicates records by comparison key, keeping the most complete
// record of each group. Input order is preserved for the kept records;
// on equal scores the earliest record wins.
func Unify(records []*storage.CourseRecord) Result {
	groups := make(map[string][]*storage.CourseRecord)
	order := make([]string, 0, len(records))

	for _, r := range records {
		key := ComparisonKey(r.Name)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	var result Result
	for _, key := range order {
		group := groups[key]
		best := group[0]
		bestScore := CompletenessScore(best)
		for _, r := range group[1:] {
			if score := CompletenessScore(r); score > bestScore {
				best = r
				bestScore = score
			}
		}
		result.Records = append(result.Records, best)

		if len(group) > 1 {
			result.Discarded += len(group) - 1
			result.Duplicates = append(result.Duplicates, makeDuplicateGroup(key, best, group))
		}
	}

	return result
}

func makeDuplicateGroup(key string, best *storage.CourseRecord, group []*storage.CourseRecord) DuplicateGroup {
	dup := DuplicateGroup{
		Key:    key,
		Kept:   best.Name,
		KeptID: best.ID,
	}
	for _, r := range group {
		if r == best {
			continue
		}
		r.IsDuplicateOf = best.ID
		dup.Discarded = append(dup.Discarded, r.Name)
		if sim := matchr.JaroWinkler(best.Name, r.Name, false); sim > dup.Similarity {
			dup.Similarity = sim
		}
	}
	return dup
}
