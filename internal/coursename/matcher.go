package coursename

import (
	"regexp"
	"sort"
	"strings"
)

// MatchKind tags how a web name was resolved.
type MatchKind int

const (
	// MatchEmpty means the input was blank.
	MatchEmpty MatchKind = iota
	// MatchExact means a variant-index hit.
	MatchExact
	// MatchEquivalence means a CBC equivalence resolved the name.
	MatchEquivalence
	// MatchFuzzy means token-overlap matching resolved the name.
	MatchFuzzy
	// MatchGuess means no catalog entry matched; Name is the canonicalized
	// input, usable but unverified.
	MatchGuess
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchEquivalence:
		return "equivalence"
	case MatchFuzzy:
		return "fuzzy"
	case MatchGuess:
		return "guess"
	default:
		return "empty"
	}
}

// Match is the result of resolving a scraped course name.
type Match struct {
	Kind  MatchKind
	Name  string  // canonical catalog name, or best guess
	Score float64 // token-overlap score, set for fuzzy matches
}

// Collision records two catalog courses whose variants normalize to the
// same matching key. Later entries win, mirroring index build order.
type Collision struct {
	Variant  string
	Existing string
	New      string
}

// cbcEquivalences maps generic CBC course names to the specific catalog
// courses they stand for, in both directions.
var cbcEquivalences = map[string][]string{
	"quimica":            {"quimica general e inorganica", "quimica general"},
	"fisica":             {"fisica i", "fisica 1", "fisica uno"},
	"analisis matematico": {"analisis matematico a", "analisis i"},
	"algebra":            {"algebra i", "algebra 1"},

	"quimica general e inorganica": {"quimica"},
	"quimica general":              {"quimica"},
	"fisica i":                     {"fisica"},
	"fisica 1":                     {"fisica"},
	"analisis matematico a":        {"analisis matematico"},
	"algebra i":                    {"algebra"},
}

// stopwords are dropped when building the filtered variant of a name.
var stopwords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "el": true,
	"los": true, "en": true, "a": true, "al": true, "y": true,
	"o": true, "intro": true, "introduccion": true,
}

// pluralSwaps generate singular/plural variants for tokens that appear in
// both forms across department pages.
var pluralSwaps = [][2]string{
	{"estructura", "estructuras"},
	{"dato", "datos"},
	{"algoritmo", "algoritmos"},
}

var romanToArabic = [][2]string{
	{"iii", "3"}, {"ii", "2"}, {"iv", "4"}, {"v", "5"}, {"vi", "6"}, {"i", "1"},
}

var arabicToRoman = [][2]string{
	{"3", "iii"}, {"2", "ii"}, {"4", "iv"}, {"5", "v"}, {"6", "vi"}, {"1", "i"},
}

var (
	nonWordRE     = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	dashSplitRE   = regexp.MustCompile(`\s+-\s+`)
	keywordParens = regexp.MustCompile(`(?i)\s*\([^)]*(?:Lic\.|solicitar|equivalencia)[^)]*\)`)
	tailParensRE  = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	htmlTagRE     = regexp.MustCompile(`<[^>]+>`)
)

// matchingKey reduces a name to the form used for index lookups:
// lowercase, accents folded, punctuation replaced by spaces.
func matchingKey(name string) string {
	name = strings.ToLower(accentReplacer.Replace(name))
	name = nonWordRE.ReplaceAllString(name, " ")
	name = multiSpaceRE.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// CleanWebName strips the decorations department pages attach to course
// names: " - Electiva..." suffixes, parenthesized degree notes, HTML tags.
func CleanWebName(name string) string {
	name = dashSplitRE.Split(name, 2)[0]
	name = keywordParens.ReplaceAllString(name, "")
	name = tailParensRE.ReplaceAllString(name, "")
	name = htmlTagRE.ReplaceAllString(name, "")
	name = multiSpaceRE.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// variants generates the matching keys under which a catalog name is
// indexed: the plain key, a stopword-filtered key, singular/plural swaps,
// and roman/arabic numeral swaps.
func variants(name string) []string {
	key := matchingKey(name)
	if key == "" {
		return nil
	}

	seen := map[string]bool{key: true}
	out := []string{key}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	tokens := strings.Fields(key)
	var kept []string
	for _, tok := range tokens {
		if !stopwords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) >= 2 {
		add(strings.Join(kept, " "))
	}

	for _, swap := range pluralSwaps {
		add(strings.ReplaceAll(key, swap[0], swap[1]))
		add(strings.ReplaceAll(key, swap[1], swap[0]))
	}

	add(swapNumerals(key, romanToArabic))
	add(swapNumerals(key, arabicToRoman))

	return out
}

func swapNumerals(key string, table [][2]string) string {
	tokens := strings.Fields(key)
	changed := false
	for i, tok := range tokens {
		for _, pair := range table {
			if tok == pair[0] {
				tokens[i] = pair[1]
				changed = true
				break
			}
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(tokens, " ")
}

// Matcher resolves scraped course names against the official catalog.
type Matcher struct {
	index      map[string]string // matching key -> canonical name
	sortedKeys []string
	collisions []Collision
}

// NewMatcher builds the variant index from the official course names.
// Variant collisions are recorded rather than silently overwritten;
// call Collisions to inspect them.
func NewMatcher(catalogNames []string) *Matcher {
	m := &Matcher{index: make(map[string]string)}

	for _, original := range catalogNames {
		canonical := Canonical(original)
		for _, v := range variants(original) {
			m.insert(v, canonical)
		}

		canonicalKey := matchingKey(canonical)
		if equivs, ok := cbcEquivalences[canonicalKey]; ok {
			for _, equiv := range equivs {
				m.insert(matchingKey(equiv), canonical)
			}
		}
	}

	m.sortedKeys = make([]string, 0, len(m.index))
	for k := range m.index {
		m.sortedKeys = append(m.sortedKeys, k)
	}
	sort.Strings(m.sortedKeys)

	return m
}

// insert adds one variant key, recording a collision when the key already
// maps to a different catalog course. Last write wins either way.
func (m *Matcher) insert(key, canonical string) {
	if existing, ok := m.index[key]; ok && existing != canonical {
		m.collisions = append(m.collisions, Collision{
			Variant:  key,
			Existing: existing,
			New:      canonical,
		})
	}
	m.index[key] = canonical
}

// Collisions returns the variant collisions found during index construction.
func (m *Matcher) Collisions() []Collision {
	return m.collisions
}

// Size returns the number of indexed variants.
func (m *Matcher) Size() int {
	return len(m.index)
}

// Resolve maps a raw web name to its canonical catalog form. Resolution
// tries, in order: exact variant-index lookup, CBC equivalences, fuzzy
// token overlap, and finally direct canonicalization as a best guess.
func (m *Matcher) Resolve(webName string) Match {
	clean := CleanWebName(webName)
	if clean == "" {
		return Match{Kind: MatchEmpty}
	}

	key := matchingKey(clean)
	if canonical, ok := m.index[key]; ok {
		return Match{Kind: MatchExact, Name: canonical}
	}

	if canonical, ok := m.resolveEquivalence(key); ok {
		return Match{Kind: MatchEquivalence, Name: canonical}
	}

	if canonical, score, ok := m.resolveFuzzy(key); ok {
		return Match{Kind: MatchFuzzy, Name: canonical, Score: score}
	}

	return Match{Kind: MatchGuess, Name: Canonical(clean)}
}

// resolveEquivalence looks the key up in the CBC table, first whole, then
// by its leading token ("fisica 1" resolves through "fisica").
func (m *Matcher) resolveEquivalence(key string) (string, bool) {
	if equivs, ok := cbcEquivalences[key]; ok {
		for _, equiv := range equivs {
			if canonical, ok := m.index[matchingKey(equiv)]; ok {
				return canonical, true
			}
		}
	}

	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return "", false
	}
	base := tokens[0]

	if equivs, ok := cbcEquivalences[base]; ok {
		for _, equiv := range equivs {
			if canonical, ok := m.index[matchingKey(equiv)]; ok {
				return canonical, true
			}
		}
	}

	for _, equivKey := range equivalenceKeys {
		for _, equiv := range cbcEquivalences[equivKey] {
			if equiv == base {
				if canonical, ok := m.index[matchingKey(equivKey)]; ok {
					return canonical, true
				}
			}
		}
	}

	return "", false
}

// resolveFuzzy finds the indexed variant with the best token overlap.
// A candidate needs more than 60% overlap and at least two shared tokens.
// Equal scores break toward the lexicographically smallest variant, so
// resolution is deterministic.
func (m *Matcher) resolveFuzzy(key string) (string, float64, bool) {
	queryTokens := tokenSet(key)
	if len(queryTokens) < 2 {
		return "", 0, false
	}

	var (
		bestKey   string
		bestScore float64
	)
	for _, candidate := range m.sortedKeys {
		candidateTokens := tokenSet(candidate)

		shared := 0
		for tok := range queryTokens {
			if candidateTokens[tok] {
				shared++
			}
		}
		size := len(queryTokens)
		if len(candidateTokens) > size {
			size = len(candidateTokens)
		}
		score := float64(shared) / float64(size)

		if score > 0.6 && shared >= 2 && score > bestScore {
			bestScore = score
			bestKey = candidate
		}
	}

	if bestKey == "" {
		return "", 0, false
	}
	return m.index[bestKey], bestScore, true
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

var equivalenceKeys = func() []string {
	keys := make([]string, 0, len(cbcEquivalences))
	for k := range cbcEquivalences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()
