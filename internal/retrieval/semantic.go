package retrieval

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Embedder is the narrow embedding contract this package needs; it mirrors
// models.Embedder without importing the models package, so retrieval stays
// decoupled from the concrete model registry (vectorstore.Retriever plays
// the same decoupling role for rag.VectorStoreDocumentRetriever).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// SemanticConfig configures the embedding retriever.
type SemanticConfig struct {
	MinSentenceLen int
	FieldPrefixes  map[string]string
}

func parseSemanticConfig(config map[string]any) SemanticConfig {
	cfg := SemanticConfig{MinSentenceLen: 10}
	if config == nil {
		return cfg
	}
	if v, ok := intFrom(config["min_sentence_len"]); ok {
		cfg.MinSentenceLen = v
	}
	if prefixes, ok := config["field_prefixes"].(map[string]any); ok {
		cfg.FieldPrefixes = make(map[string]string, len(prefixes))
		for k, v := range prefixes {
			if s, ok := v.(string); ok {
				cfg.FieldPrefixes[k] = s
			}
		}
	}
	return cfg
}

var sentenceSplitPattern = regexp.MustCompile(`(?s)[.!?]+\s+`)

type sentenceSpan struct {
	Text  string
	Start int
	End   int
}

// SemanticRetriever splits the transcript into sentences (no overlap) and
// scores each against the claim's embedding using cosine similarity.
type SemanticRetriever struct {
	cfg       SemanticConfig
	embedder  Embedder
	sentences []sentenceSpan
	vectors   [][]float64
}

func NewSemanticRetriever(transcript string, cfg SemanticConfig, embedder Embedder) (*SemanticRetriever, error) {
	r := &SemanticRetriever{cfg: cfg, embedder: embedder}
	r.sentences = splitIntoSentenceSpans(transcript, cfg.MinSentenceLen)

	if embedder != nil {
		r.vectors = make([][]float64, len(r.sentences))
		for i, s := range r.sentences {
			vec, err := embedder.Embed(context.Background(), s.Text)
			if err != nil {
				return nil, err
			}
			r.vectors[i] = vec
		}
	}
	return r, nil
}

func splitIntoSentenceSpans(transcript string, minLen int) []sentenceSpan {
	if minLen <= 0 {
		minLen = 10
	}

	var spans []sentenceSpan
	idxs := sentenceSplitPattern.FindAllStringIndex(transcript, -1)

	start := 0
	for _, loc := range idxs {
		end := loc[0] + len(strings.TrimRight(transcript[loc[0]:loc[1]], " \t\n\f\r"))
		text := transcript[start:end]
		if len(strings.TrimSpace(text)) >= minLen {
			spans = append(spans, sentenceSpan{Text: strings.TrimSpace(text), Start: start, End: end})
		}
		start = loc[1]
	}
	if start < len(transcript) {
		text := transcript[start:]
		if len(strings.TrimSpace(text)) >= minLen {
			spans = append(spans, sentenceSpan{Text: strings.TrimSpace(text), Start: start, End: len(transcript)})
		}
	}
	return spans
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, claimText string, topK int, metadata map[string]any) ([]EvidenceSpan, error) {
	if r.embedder == nil || len(r.sentences) == 0 {
		return nil, nil
	}

	queryText := claimText
	if field, ok := metadata["field"].(string); ok {
		if prefix, ok := r.cfg.FieldPrefixes[field]; ok && prefix != "" {
			queryText = prefix + queryText
		}
	}

	queryVec, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(r.sentences))
	for i, vec := range r.vectors {
		scores[i] = scored{idx: i, score: cosineSimilarity(queryVec, vec)}
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if topK > 0 && len(scores) > topK {
		scores = scores[:topK]
	}

	spans := make([]EvidenceSpan, 0, len(scores))
	for _, s := range scores {
		sent := r.sentences[s.idx]
		spans = append(spans, EvidenceSpan{Text: sent.Text, StartIdx: sent.Start, EndIdx: sent.End, Score: clamp01(s.score)})
	}
	return spans, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
