package rag

import (
	"sort"
)

const (
	// RRFConstant is the k in the RRF formula 1 / (k + rank).
	// 60 is the standard value: top ranks dominate without lower
	// ranks being ignored entirely.
	RRFConstant = 60

	// DefaultBM25Weight is the BM25 share of the fused score.
	// 0.4 means keyword search contributes 40% and vector search 60%.
	DefaultBM25Weight = 0.4

	// DefaultVectorWeight is the vector search share of the fused score
	DefaultVectorWeight = 0.6
)

// HybridResult is a course found by keyword search, vector search or both.
type HybridResult struct {
	ID          string
	Name        string
	Department  string
	PeriodCode  string
	Instructors []string
	Content     string  // From vector search
	BM25Score   float64 // BM25 score (0 if not found in BM25)
	VectorSim   float32 // Vector similarity (0 if not found in vector)
	RRFScore    float64 // Combined RRF score
	BM25Rank    int     // Rank in BM25 results (0 if not found)
	VectorRank  int     // Rank in vector results (0 if not found)
}

// FuseRRF combines BM25 and vector results with Reciprocal Rank Fusion:
// score(d) = Σ w_i / (RRFConstant + rank_i) over the sources that found d.
// bm25Weight is clamped to [0,1]; the vector weight is its complement.
// Returns at most topN results sorted by fused score, descending.
func FuseRRF(bm25Results []BM25Result, vectorResults []SearchResult, bm25Weight float64, topN int) []HybridResult {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	resultMap := make(map[string]*HybridResult)

	for i, r := range bm25Results {
		rank := i + 1
		score := bm25Weight / float64(RRFConstant+rank)
		resultMap[r.ID] = &HybridResult{
			ID:          r.ID,
			Name:        r.Name,
			Department:  r.Department,
			PeriodCode:  r.PeriodCode,
			Instructors: r.Instructors,
			BM25Score:   r.Score,
			BM25Rank:    rank,
			RRFScore:    score,
		}
	}

	for i, r := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)

		if existing, ok := resultMap[r.ID]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.Content = r.Content
			existing.RRFScore += score
			if existing.Name == "" {
				existing.Name = r.Name
			}
			if len(existing.Instructors) == 0 {
				existing.Instructors = r.Instructors
			}
		} else {
			resultMap[r.ID] = &HybridResult{
				ID:          r.ID,
				Name:        r.Name,
				Department:  r.Department,
				PeriodCode:  r.PeriodCode,
				Instructors: r.Instructors,
				Content:     r.Content,
				VectorSim:   r.Similarity,
				VectorRank:  rank,
				RRFScore:    score,
			}
		}
	}

	results := make([]HybridResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].ID < results[j].ID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// FuseRRFWithDefaults fuses with the default 0.4/0.6 BM25/vector split.
func FuseRRFWithDefaults(bm25Results []BM25Result, vectorResults []SearchResult, topN int) []HybridResult {
	return FuseRRF(bm25Results, vectorResults, DefaultBM25Weight, topN)
}

// ToSearchResults converts fused results back to SearchResults.
// Courses found by vector search keep their true similarity; BM25-only
// hits get the RRF score scaled against the best fused score.
func ToSearchResults(hybridResults []HybridResult) []SearchResult {
	if len(hybridResults) == 0 {
		return nil
	}

	maxScore := hybridResults[0].RRFScore

	results := make([]SearchResult, len(hybridResults))
	for i, hr := range hybridResults {
		var similarity float32
		if hr.VectorSim > 0 {
			similarity = hr.VectorSim
		} else if maxScore > 0 {
			similarity = float32(hr.RRFScore / maxScore)
		}

		results[i] = SearchResult{
			ID:          hr.ID,
			Name:        hr.Name,
			Department:  hr.Department,
			PeriodCode:  hr.PeriodCode,
			Instructors: hr.Instructors,
			Content:     hr.Content,
			Similarity:  similarity,
		}
	}
	return results
}
