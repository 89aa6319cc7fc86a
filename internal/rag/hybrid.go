package rag

import (
	"context"
	"sync"

	"uba-horarios/internal/logger"
	"uba-horarios/internal/storage"
)

// HybridSearcher combines BM25 keyword search and vector semantic search
// using Reciprocal Rank Fusion. Either side may be absent: without an API
// key the searcher runs on BM25 alone.
type HybridSearcher struct {
	vectorDB   *VectorDB
	bm25Index  *BM25Index
	bm25Weight float64
	logger     *logger.Logger
}

// NewHybridSearcher creates a hybrid searcher. A nil vectorDB means
// keyword-only search; a nil bm25Index means vector-only search.
func NewHybridSearcher(vectorDB *VectorDB, bm25Index *BM25Index, log *logger.Logger) *HybridSearcher {
	return &HybridSearcher{
		vectorDB:   vectorDB,
		bm25Index:  bm25Index,
		bm25Weight: DefaultBM25Weight,
		logger:     log,
	}
}

// SetBM25Weight overrides the BM25 share of the fused score.
// Values outside [0,1] are clamped at fusion time.
func (h *HybridSearcher) SetBM25Weight(weight float64) {
	if h == nil {
		return
	}
	h.bm25Weight = weight
}

// Initialize builds both indexes from the unified course records.
// BM25 is synchronous and CPU-only; the vector side may call the
// embedding API.
func (h *HybridSearcher) Initialize(ctx context.Context, records []*storage.CourseRecord) error {
	if h == nil {
		return nil
	}

	if h.bm25Index != nil {
		if err := h.bm25Index.Initialize(records); err != nil {
			return err
		}
	}

	if h.vectorDB != nil {
		if err := h.vectorDB.Initialize(ctx, records); err != nil {
			return err
		}
	}

	return nil
}

// Search runs both retrieval methods and fuses their rankings.
//
// Fallback behavior:
//   - both disabled: empty results
//   - one side disabled or empty: the other side alone, with rank-based
//     confidence standing in for similarity on BM25-only results
func (h *HybridSearcher) Search(ctx context.Context, query string, topN int) ([]SearchResult, error) {
	if h == nil {
		return nil, nil
	}

	vectorEnabled := h.vectorDB.IsEnabled()
	bm25Enabled := h.bm25Index.IsEnabled()

	if !vectorEnabled && !bm25Enabled {
		return nil, nil
	}

	// Fetch more than requested so the fusion has overlap to work with
	fetchN := topN * 3
	if fetchN < 15 {
		fetchN = 15
	}

	var (
		bm25Results   []BM25Result
		vectorResults []SearchResult
		bm25Err       error
		vectorErr     error
		wg            sync.WaitGroup
	)

	if bm25Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm25Results, bm25Err = h.bm25Index.Search(query, fetchN)
		}()
	}

	if vectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = h.vectorDB.Search(ctx, query, fetchN)
		}()
	}

	wg.Wait()

	// Keep whatever side succeeded
	if bm25Err != nil {
		h.logger.WithError(bm25Err).Warn("BM25 search failed")
	}
	if vectorErr != nil {
		h.logger.WithError(vectorErr).Warn("Vector search failed")
	}

	if !bm25Enabled || len(bm25Results) == 0 {
		if len(vectorResults) > topN {
			vectorResults = vectorResults[:topN]
		}
		return vectorResults, nil
	}

	if !vectorEnabled || len(vectorResults) == 0 {
		results := make([]SearchResult, 0, min(len(bm25Results), topN))
		for _, r := range bm25Results {
			if len(results) >= topN {
				break
			}
			results = append(results, SearchResult{
				ID:          r.ID,
				Name:        r.Name,
				Department:  r.Department,
				PeriodCode:  r.PeriodCode,
				Instructors: r.Instructors,
				Similarity:  computeRankConfidence(r.Rank),
			})
		}
		return results, nil
	}

	hybridResults := FuseRRF(bm25Results, vectorResults, h.bm25Weight, topN)

	h.logger.WithFields(map[string]any{
		"bm25_count":   len(bm25Results),
		"vector_count": len(vectorResults),
		"fused_count":  len(hybridResults),
		"query":        query,
	}).Debug("Hybrid search completed")

	return ToSearchResults(hybridResults), nil
}

// computeRankConfidence maps a BM25 rank to a 0-1 confidence score.
// BM25 scores are unbounded and query-dependent, so rank position is
// the only honest proxy for relevance.
//
// Formula: 1 / (1 + 0.05 * rank)
//   - rank 1 → 0.95
//   - rank 5 → 0.80
//   - rank 10 → 0.67
func computeRankConfidence(rank int) float32 {
	if rank <= 0 {
		return 0
	}
	return float32(1.0 / (1.0 + 0.05*float64(rank)))
}

// IsEnabled returns true if at least one search method is available.
func (h *HybridSearcher) IsEnabled() bool {
	if h == nil {
		return false
	}
	return h.vectorDB.IsEnabled() || h.bm25Index.IsEnabled()
}

// VectorDB returns the underlying vector database, possibly nil.
func (h *HybridSearcher) VectorDB() *VectorDB {
	if h == nil {
		return nil
	}
	return h.vectorDB
}

// BM25Index returns the underlying BM25 index, possibly nil.
func (h *HybridSearcher) BM25Index() *BM25Index {
	if h == nil {
		return nil
	}
	return h.bm25Index
}
