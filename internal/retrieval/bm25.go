package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// BM25Config configures the term-based retriever's chunking and scoring.
type BM25Config struct {
	ChunkSize     int
	Overlap       int
	ContextWindow int
	K1            float64
	B             float64
	ScoreFloor    float64
}

func defaultBM25Config() BM25Config {
	return BM25Config{ChunkSize: 500, Overlap: 100, ContextWindow: 80, K1: 1.5, B: 0.75, ScoreFloor: 0.1}
}

func parseBM25Config(config map[string]any) BM25Config {
	cfg := defaultBM25Config()
	if config == nil {
		return cfg
	}
	if v, ok := intFrom(config["chunk_size"]); ok {
		cfg.ChunkSize = v
	}
	if v, ok := intFrom(config["overlap"]); ok {
		cfg.Overlap = v
	}
	if v, ok := intFrom(config["context_window"]); ok {
		cfg.ContextWindow = v
	}
	if v, ok := floatFrom(config["k1"]); ok {
		cfg.K1 = v
	}
	if v, ok := floatFrom(config["b"]); ok {
		cfg.B = v
	}
	if v, ok := floatFrom(config["score_floor"]); ok {
		cfg.ScoreFloor = v
	}
	return cfg
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// BM25Retriever scores sliding-window chunks of the transcript against a
// claim's tokens using the standard BM25 formula. No corpus library
// implements BM25 scoring (see DESIGN.md), so this math is stdlib-only;
// the surrounding chunking/indexing shape mirrors
// VectorStoreDocumentRetriever (index-once, query-by-text).
type BM25Retriever struct {
	cfg       BM25Config
	transcript string
	chunks    []chunk
	docFreq   []map[string]int // per-chunk term frequency
	docLen    []int
	avgDocLen float64
	idf       map[string]float64
}

func NewBM25Retriever(transcript string, cfg BM25Config) (*BM25Retriever, error) {
	chunks := slidingWindowChunks(transcript, cfg.ChunkSize, cfg.Overlap)

	r := &BM25Retriever{cfg: cfg, transcript: transcript, chunks: chunks}
	r.index()
	return r, nil
}

func (r *BM25Retriever) index() {
	r.docFreq = make([]map[string]int, len(r.chunks))
	r.docLen = make([]int, len(r.chunks))

	df := make(map[string]int) // number of chunks containing term
	totalLen := 0

	for i, c := range r.chunks {
		tokens := tokenize(c.Text)
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		r.docFreq[i] = counts
		r.docLen[i] = len(tokens)
		totalLen += len(tokens)

		for term := range counts {
			df[term]++
		}
	}

	n := len(r.chunks)
	if n > 0 {
		r.avgDocLen = float64(totalLen) / float64(n)
	}

	r.idf = make(map[string]float64, len(df))
	for term, freq := range df {
		r.idf[term] = math.Log(1 + (float64(n)-float64(freq)+0.5)/(float64(freq)+0.5))
	}
}

func (r *BM25Retriever) score(queryTokens []string, chunkIdx int) float64 {
	counts := r.docFreq[chunkIdx]
	dl := float64(r.docLen[chunkIdx])
	if r.avgDocLen == 0 {
		return 0
	}

	var score float64
	for _, term := range queryTokens {
		tf := float64(counts[term])
		if tf == 0 {
			continue
		}
		idf := r.idf[term]
		numerator := tf * (r.cfg.K1 + 1)
		denominator := tf + r.cfg.K1*(1-r.cfg.B+r.cfg.B*dl/r.avgDocLen)
		score += idf * numerator / denominator
	}
	return score
}

func (r *BM25Retriever) Retrieve(_ context.Context, claimText string, topK int, _ map[string]any) ([]EvidenceSpan, error) {
	queryTokens := tokenize(claimText)
	if len(queryTokens) == 0 || len(r.chunks) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(r.chunks))
	for i := range r.chunks {
		s := r.score(queryTokens, i)
		if s < r.cfg.ScoreFloor {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	spans := make([]EvidenceSpan, 0, len(candidates))
	for _, c := range candidates {
		chunkText := r.chunks[c.idx].Text
		text, start, end := expandSpan(r.transcript, r.chunks[c.idx].Start, runeLen(chunkText), r.cfg.ContextWindow)
		normScore := math.Min(1, c.score/10)
		spans = append(spans, EvidenceSpan{Text: text, StartIdx: start, EndIdx: end, Score: normScore})
	}
	return spans, nil
}

func intFrom(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func floatFrom(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
