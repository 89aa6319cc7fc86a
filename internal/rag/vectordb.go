// Package rag implements hybrid course retrieval: BM25 keyword search over
// the unified course list fused with chromem-go vector search backed by
// Gemini embeddings.
package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"uba-horarios/internal/genai"
	"uba-horarios/internal/logger"
	"uba-horarios/internal/storage"
)

const (
	// CourseCollectionName is the name of the course collection in chromem
	CourseCollectionName = "materias"

	// DefaultSearchResults is the default number of results for semantic search
	DefaultSearchResults = 5

	// MaxSearchResults is the maximum number of results for semantic search
	MaxSearchResults = 50

	// MinSimilarityThreshold is the minimum cosine similarity to include a
	// result. Matches below it are considered noise.
	MinSimilarityThreshold float32 = 0.3

	// HighRelevanceThreshold marks results worth surfacing even beyond the
	// requested count.
	HighRelevanceThreshold float32 = 0.7
)

// VectorDB wraps chromem-go for semantic search over course records.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// SearchResult is one retrieved course with its relevance score.
type SearchResult struct {
	ID          string   // Course record ID
	Name        string   // Normalized course name
	Department  string   // Department code
	PeriodCode  string   // e.g. "2C 2025"
	Instructors []string // Instructor names
	Content     string   // Indexed document text
	Similarity  float32  // Cosine similarity or rank-based confidence (0-1)
}

// NewVectorDB creates a persistent vector database for course search.
// persistDir is the base data directory (e.g. "./data").
// Returns nil when apiKey is empty: semantic search is disabled and the
// caller falls back to keyword-only retrieval.
func NewVectorDB(persistDir, apiKey string, log *logger.Logger) (*VectorDB, error) {
	if apiKey == "" {
		log.Info("Gemini API key not configured, semantic search disabled")
		return nil, nil
	}

	embeddingFunc := genai.NewEmbeddingFunc(apiKey)

	chromemPath := filepath.Join(persistDir, "chromem", "materias")
	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: embeddingFunc,
		logger:        log,
	}, nil
}

// Initialize opens the collection and indexes the given records unless a
// persisted index already exists on disk.
func (v *VectorDB) Initialize(ctx context.Context, records []*storage.CourseRecord) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get/create collection: %w", err)
	}
	v.collection = collection

	if existing := collection.Count(); existing > 0 {
		v.logger.WithField("count", existing).Info("Loaded existing course embeddings from disk")
		v.initialized = true
		return nil
	}

	if len(records) > 0 {
		if err := v.addRecordsInternal(ctx, records); err != nil {
			return fmt.Errorf("failed to add courses: %w", err)
		}
		v.logger.WithField("count", len(records)).Info("Indexed courses for semantic search")
	}

	v.initialized = true
	return nil
}

// AddRecords indexes course records, embedding each one.
func (v *VectorDB) AddRecords(ctx context.Context, records []*storage.CourseRecord) error {
	if v == nil || v.collection == nil || len(records) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.addRecordsInternal(ctx, records)
}

// addRecordsInternal assumes the lock is held. One document per course,
// keyed by the record ID so re-indexing a period overwrites in place.
func (v *VectorDB) addRecordsInternal(ctx context.Context, records []*storage.CourseRecord) error {
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		content := BuildDocument(r)
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:       r.ID,
			Content:  content,
			Metadata: documentMetadata(r),
		})
	}

	if len(docs) == 0 {
		return nil
	}

	if err := v.collection.AddDocuments(ctx, docs, 4); err != nil { // 4 concurrent embeddings
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// DeleteRecord removes a course document from the vector store.
func (v *VectorDB) DeleteRecord(ctx context.Context, id string) error {
	if v == nil || v.collection == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.collection.Delete(ctx, nil, nil, id); err != nil {
		// The document may simply not exist
		v.logger.WithError(err).WithField("id", id).Debug("Failed to delete document")
	}
	return nil
}

// Search performs semantic search over the indexed courses.
//
// nResults is the fallback count. When highly relevant results (similarity
// >= 0.7) exist, all of them are returned even if that exceeds nResults.
// Results below MinSimilarityThreshold are dropped.
func (v *VectorDB) Search(ctx context.Context, query string, nResults int) ([]SearchResult, error) {
	if v == nil || v.collection == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if nResults <= 0 {
		nResults = DefaultSearchResults
	}
	if nResults > MaxSearchResults {
		nResults = MaxSearchResults
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	// chromem-go errors when nResults exceeds the document count
	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}
	queryLimit := MaxSearchResults
	if queryLimit > docCount {
		queryLimit = docCount
	}

	results, err := v.collection.Query(ctx, query, queryLimit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, result := range results {
		if result.Similarity < MinSimilarityThreshold {
			continue
		}
		sr := SearchResult{
			ID:         result.ID,
			Content:    result.Content,
			Similarity: result.Similarity,
		}
		if id, ok := result.Metadata["id"]; ok && id != "" {
			sr.ID = id
		}
		sr.Name = result.Metadata["name"]
		sr.Department = result.Metadata["department"]
		sr.PeriodCode = result.Metadata["period_code"]
		if teachers := result.Metadata["instructors"]; teachers != "" {
			sr.Instructors = strings.Split(teachers, ", ")
		}
		searchResults = append(searchResults, sr)
	}

	sort.Slice(searchResults, func(i, j int) bool {
		return searchResults[i].Similarity > searchResults[j].Similarity
	})

	// All highly relevant results are kept, the rest is capped at nResults.
	highRelevanceCount := 0
	for _, sr := range searchResults {
		if sr.Similarity >= HighRelevanceThreshold {
			highRelevanceCount++
		} else {
			break
		}
	}

	finalCount := nResults
	if highRelevanceCount > finalCount {
		finalCount = highRelevanceCount
	}
	if finalCount > len(searchResults) {
		finalCount = len(searchResults)
	}
	return searchResults[:finalCount], nil
}

// Count returns the number of documents in the collection.
func (v *VectorDB) Count() int {
	if v == nil || v.collection == nil {
		return 0
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.collection.Count()
}

// IsEnabled returns true if the vector database is initialized and ready.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.initialized && v.collection != nil
}

// Close releases the vector database. chromem-go persists on every
// operation so there is nothing to flush.
func (v *VectorDB) Close() error {
	return nil
}
