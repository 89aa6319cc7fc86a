package rag

import (
	"math"
	"testing"
)

func TestFuseRRFCombinesBothSources(t *testing.T) {
	t.Parallel()

	bm25Results := []BM25Result{
		{ID: "a", Name: "analisis ii", Score: 12.5, Rank: 1},
		{ID: "b", Name: "algebra i", Score: 8.1, Rank: 2},
	}
	vectorResults := []SearchResult{
		{ID: "b", Name: "algebra i", Similarity: 0.82, Content: "Materia: algebra i"},
		{ID: "c", Name: "probabilidad", Similarity: 0.65},
	}

	fused := FuseRRF(bm25Results, vectorResults, 0.4, 10)
	if len(fused) != 3 {
		t.Fatalf("fused %d results, want 3", len(fused))
	}

	// "b" appears in both sources so it must rank first:
	// 0.4/62 + 0.6/61 > 0.4/61 and > 0.6/62
	if fused[0].ID != "b" {
		t.Errorf("top fused = %s, want b", fused[0].ID)
	}
	wantB := 0.4/62.0 + 0.6/61.0
	if math.Abs(fused[0].RRFScore-wantB) > 1e-9 {
		t.Errorf("RRFScore(b) = %v, want %v", fused[0].RRFScore, wantB)
	}
	if fused[0].BM25Rank != 2 || fused[0].VectorRank != 1 {
		t.Errorf("ranks = %d/%d", fused[0].BM25Rank, fused[0].VectorRank)
	}
	if fused[0].Content == "" {
		t.Error("vector content should carry through fusion")
	}
}

func TestFuseRRFWeightClamping(t *testing.T) {
	t.Parallel()

	bm25Results := []BM25Result{{ID: "a", Score: 1, Rank: 1}}
	vectorResults := []SearchResult{{ID: "v", Similarity: 0.9}}

	// Weight 2 clamps to 1: vector contributes nothing
	fused := FuseRRF(bm25Results, vectorResults, 2, 10)
	for _, r := range fused {
		if r.ID == "v" && r.RRFScore != 0 {
			t.Errorf("vector-only result should score 0 at bm25Weight=1, got %v", r.RRFScore)
		}
	}
}

func TestFuseRRFWeightShiftsRanking(t *testing.T) {
	t.Parallel()

	bm25Results := []BM25Result{{ID: "kw", Rank: 1}}
	vectorResults := []SearchResult{{ID: "sem", Similarity: 0.9}}

	heavy := FuseRRF(bm25Results, vectorResults, 0.9, 10)
	if heavy[0].ID != "kw" {
		t.Errorf("bm25Weight=0.9 top = %s, want the keyword hit", heavy[0].ID)
	}

	light := FuseRRF(bm25Results, vectorResults, 0.1, 10)
	if light[0].ID != "sem" {
		t.Errorf("bm25Weight=0.1 top = %s, want the vector hit", light[0].ID)
	}
}

func TestFuseRRFTopN(t *testing.T) {
	t.Parallel()

	bm25Results := []BM25Result{
		{ID: "a", Rank: 1}, {ID: "b", Rank: 2}, {ID: "c", Rank: 3},
	}
	fused := FuseRRFWithDefaults(bm25Results, nil, 2)
	if len(fused) != 2 {
		t.Errorf("topN=2 returned %d results", len(fused))
	}
	if fused[0].ID != "a" {
		t.Errorf("top = %s", fused[0].ID)
	}
}

func TestToSearchResults(t *testing.T) {
	t.Parallel()

	hybrid := []HybridResult{
		{ID: "a", Name: "analisis", VectorSim: 0.85, RRFScore: 0.02},
		{ID: "b", Name: "algebra", RRFScore: 0.01},
	}

	results := ToSearchResults(hybrid)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Similarity != 0.85 {
		t.Errorf("vector similarity should be preserved, got %v", results[0].Similarity)
	}
	if results[1].Similarity != 0.5 {
		t.Errorf("BM25-only similarity should scale against max RRF, got %v", results[1].Similarity)
	}

	if got := ToSearchResults(nil); got != nil {
		t.Errorf("empty input should return nil, got %v", got)
	}
}

func TestComputeRankConfidence(t *testing.T) {
	t.Parallel()

	if got := computeRankConfidence(0); got != 0 {
		t.Errorf("rank 0 = %v", got)
	}
	if got := computeRankConfidence(1); math.Abs(float64(got)-1.0/1.05) > 1e-6 {
		t.Errorf("rank 1 = %v", got)
	}
	if computeRankConfidence(1) <= computeRankConfidence(10) {
		t.Error("confidence must decrease with rank")
	}
}
