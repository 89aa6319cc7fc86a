package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"uba-horarios/internal/logger"
	"uba-horarios/internal/storage"
)

// BM25Index provides keyword search over course records using BM25.
// It works without any API key, so it is the retrieval floor when
// embeddings are unavailable.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	corpus      []string           // Document content, aligned with docIDs
	docIDs      []string           // Record ID per document index
	metadata    map[string]docMeta // Record ID -> metadata
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// docMeta stores the display metadata for an indexed course
type docMeta struct {
	Name        string
	Department  string
	PeriodCode  string
	Instructors []string
}

// BM25Result represents a BM25 search result
type BM25Result struct {
	ID          string
	Name        string
	Department  string
	PeriodCode  string
	Instructors []string
	Score       float64 // BM25 score (higher is better)
	Rank        int     // Rank position (1-indexed)
}

// NewBM25Index creates an empty BM25 index
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{
		metadata: make(map[string]docMeta),
		logger:   log,
	}
}

// Initialize builds the BM25 index from unified course records.
// One document per course: the same text the vector store embeds.
func (idx *BM25Index) Initialize(records []*storage.CourseRecord) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.corpus = nil
	idx.docIDs = nil
	idx.metadata = make(map[string]docMeta)
	idx.bm25Okapi = nil

	for _, r := range records {
		content := BuildDocument(r)
		if strings.TrimSpace(content) == "" {
			continue
		}
		idx.corpus = append(idx.corpus, content)
		idx.docIDs = append(idx.docIDs, r.ID)
		idx.metadata[r.ID] = docMeta{
			Name:        r.Name,
			Department:  r.Department.Code,
			PeriodCode:  r.Period.Code,
			Instructors: instructorNames(r),
		}
	}

	if len(idx.corpus) == 0 {
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	bm25Okapi, err := bm25.NewBM25Okapi(idx.corpus, tokenizeSpanish, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.bm25Okapi = bm25Okapi
	idx.initialized = true

	idx.logger.WithField("docs", len(idx.corpus)).Info("BM25 index initialized")
	return nil
}

// Search performs BM25 keyword search, returning results sorted by score.
func (idx *BM25Index) Search(query string, topN int) ([]BM25Result, error) {
	if idx == nil || !idx.IsEnabled() {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tokenizedQuery := tokenizeSpanish(query)
	if len(tokenizedQuery) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokenizedQuery)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	type scoredDoc struct {
		docIndex int
		score    float64
	}
	var scoredDocs []scoredDoc
	for docIndex, score := range scores {
		if score > 0 {
			scoredDocs = append(scoredDocs, scoredDoc{docIndex: docIndex, score: score})
		}
	}

	sort.Slice(scoredDocs, func(i, j int) bool {
		return scoredDocs[i].score > scoredDocs[j].score
	})

	if topN > 0 && len(scoredDocs) > topN {
		scoredDocs = scoredDocs[:topN]
	}

	results := make([]BM25Result, 0, len(scoredDocs))
	for i, sd := range scoredDocs {
		id := idx.docIDs[sd.docIndex]
		meta := idx.metadata[id]
		results = append(results, BM25Result{
			ID:          id,
			Name:        meta.Name,
			Department:  meta.Department,
			PeriodCode:  meta.PeriodCode,
			Instructors: meta.Instructors,
			Score:       sd.score,
			Rank:        i + 1,
		})
	}

	return results, nil
}

// IsEnabled returns true if the index is initialized
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of documents in the index
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.corpus)
}

// spanishAccentReplacer folds accented vowels so "algebra" matches
// "Álgebra" and "estadistica" matches "Estadística".
var spanishAccentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// tokenizeSpanish tokenizes Spanish course text:
// lowercase, fold accents, split on anything that is not a letter or digit.
func tokenizeSpanish(text string) []string {
	text = spanishAccentReplacer.Replace(strings.ToLower(text))

	var tokens []string
	var word strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		tokens = append(tokens, word.String())
	}
	return tokens
}
