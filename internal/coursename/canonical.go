// Package coursename normalizes course names scraped from department pages
// to the official catalog form, using a variant index with CBC equivalences
// and token-overlap fuzzy matching as fallback.
package coursename

import (
	"regexp"
	"sort"
	"strings"
)

// Rule rewrites one abbreviation or numeral form. Rules are applied in
// table order, longest pattern first, in a single pass over the name.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// abbreviationRules expands the abbreviations seen on Exactas pages.
// Ordered longest-first so "Intro." wins over "Intr." and neither leaves
// a partial expansion behind.
var abbreviationRules = buildRules([]struct {
	pattern     string
	replacement string
}{
	{`\bIntroducción\b`, "introduccion"},
	{`\bEstadíst\.`, "estadistica"},
	{`\bUnivers\.`, "universidad"},
	{`\bLicenc\.`, "licenciatura"},
	{`\bBiológ\.`, "biologia"},
	{`\bIntro\.`, "introduccion"},
	{`\bCienc\.`, "ciencias"},
	{`\bMatem\.`, "matematica"},
	{`\bFisic\.`, "fisica"},
	{`\bIntr\.`, "introduccion"},
	{`\bEstad\.`, "estadistica"},
	{`\bDepto\.`, "departamento"},
	{`\bDpto\.`, "departamento"},
	{`\bBiol\.`, "biologia"},
	{`\bComp\.`, "computacional"},
	{`\bProb\.`, "probabilidad"},
	{`\bEstr\.`, "estructuras"},
	{`\bUniv\.`, "universidad"},
	{`\bMat\.`, "matematica"},
	{`\bFís\.`, "fisica"},
	{`\bLic\.`, "licenciatura"},
	{`\bAlg\.`, "algoritmos"},
	{`\bEst\.`, "estadistica"},
	{`\bCs\.`, "ciencias"},
})

// romanRules lowercase existing roman numerals (case-insensitive).
var romanRules = buildRules([]struct {
	pattern     string
	replacement string
}{
	{`\bIII\b`, "iii"},
	{`\bII\b`, "ii"},
	{`\bIV\b`, "iv"},
	{`\bVI\b`, "vi"},
	{`\bV\b`, "v"},
})

// arabicRules convert arabic numerals to lowercase roman, and drop the
// bare variant letter ("Análisis Matemático A").
var arabicRules = []Rule{
	{regexp.MustCompile(`\b1\b`), "i"},
	{regexp.MustCompile(`\b2\b`), "ii"},
	{regexp.MustCompile(`\b3\b`), "iii"},
	{regexp.MustCompile(`\b4\b`), "iv"},
	{regexp.MustCompile(`\b5\b`), "v"},
	{regexp.MustCompile(`\b6\b`), "vi"},
	{regexp.MustCompile(`\bA\b`), ""},
}

func buildRules(specs []struct {
	pattern     string
	replacement string
}) []Rule {
	sort.SliceStable(specs, func(i, j int) bool {
		return len(specs[i].pattern) > len(specs[j].pattern)
	})
	rules := make([]Rule, len(specs))
	for i, s := range specs {
		rules[i] = Rule{
			Pattern:     regexp.MustCompile(`(?i)` + s.pattern),
			Replacement: s.replacement,
		}
	}
	return rules
}

var (
	parensRE     = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	trailingDot  = regexp.MustCompile(`\.\s*$`)
	multiSpaceRE = regexp.MustCompile(`\s+`)
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n",
	"Á", "a", "À", "a", "Ä", "a", "Â", "a",
	"É", "e", "È", "e", "Ë", "e", "Ê", "e",
	"Í", "i", "Ì", "i", "Ï", "i", "Î", "i",
	"Ó", "o", "Ò", "o", "Ö", "o", "Ô", "o",
	"Ú", "u", "Ù", "u", "Ü", "u", "Û", "u",
	"Ñ", "n",
)

// Canonical converts a course name to the standard degree form: parenthetical
// text and trailing dots removed, abbreviations expanded, numerals as
// lowercase roman, accents folded, lowercase, single-spaced.
// Canonical is idempotent.
func Canonical(name string) string {
	name = strings.TrimSpace(name)
	name = parensRE.ReplaceAllString(name, " ")
	name = trailingDot.ReplaceAllString(name, "")

	for _, r := range abbreviationRules {
		name = r.Pattern.ReplaceAllString(name, r.Replacement)
	}
	for _, r := range romanRules {
		name = r.Pattern.ReplaceAllString(name, r.Replacement)
	}
	for _, r := range arabicRules {
		name = r.Pattern.ReplaceAllString(name, r.Replacement)
	}

	name = strings.ToLower(accentReplacer.Replace(name))
	name = multiSpaceRE.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
