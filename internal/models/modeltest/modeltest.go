// Package modeltest provides deterministic, non-ML stand-ins for the
// models.Embedder, models.NLIClassifier, and models.NegationTagger contracts.
// Real models must never be loaded in tests (SPEC_FULL.md §8); these fakes
// let validator and retriever tests exercise the contracts without a
// network call or a model runtime.
package modeltest

import (
	"context"
	"math"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/models"
)

// HashEmbedder produces a bag-of-words style vector so that cosine
// similarity behaves sensibly for texts sharing vocabulary, without pulling
// in a real embedding model.
type HashEmbedder struct {
	Dims int
}

func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{Dims: 64} }

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dims := h.Dims
	if dims <= 0 {
		dims = 64
	}
	vec := make([]float64, dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		idx := fnv32(tok) % uint32(dims)
		vec[idx] += 1
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// KeywordNLI classifies a premise/hypothesis pair using simple lexical
// heuristics: explicit negation markers drive "contradiction", high word
// overlap drives "entailment", otherwise "neutral".
type KeywordNLI struct {
	NegationWords []string
}

func NewKeywordNLI() *KeywordNLI {
	return &KeywordNLI{NegationWords: []string{"denies", "no ", "not ", "without", "never"}}
}

func (k *KeywordNLI) Classify(_ context.Context, premise, hypothesis string) (models.NLIResult, error) {
	lp, lh := strings.ToLower(premise), strings.ToLower(hypothesis)
	premiseNeg := k.isNegated(lp)
	hypothesisNeg := k.isNegated(lh)

	overlap := jaccard(lp, lh)

	if premiseNeg != hypothesisNeg && overlap > 0.2 {
		return models.NLIResult{Label: models.NLIContradiction, Confidence: 0.6 + 0.4*overlap}, nil
	}
	if overlap > 0.35 {
		return models.NLIResult{Label: models.NLIEntailment, Confidence: overlap}, nil
	}
	return models.NLIResult{Label: models.NLINeutral, Confidence: 1 - overlap}, nil
}

func (k *KeywordNLI) isNegated(text string) bool {
	for _, w := range k.NegationWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func jaccard(a, b string) float64 {
	wa := map[string]struct{}{}
	for _, w := range strings.Fields(a) {
		wa[w] = struct{}{}
	}
	wb := map[string]struct{}{}
	for _, w := range strings.Fields(b) {
		wb[w] = struct{}{}
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// MarkerNegationTagger tags negation using a fixed marker vocabulary,
// splitting text into sentences on '.', '!', '?'.
type MarkerNegationTagger struct {
	Markers []string
}

func NewMarkerNegationTagger() *MarkerNegationTagger {
	return &MarkerNegationTagger{Markers: []string{"denies", "no evidence of", "without", "not present", "ruled out"}}
}

func (m *MarkerNegationTagger) Negations(_ context.Context, text string) ([]models.NegatedEntity, error) {
	var out []models.NegatedEntity
	sentences := splitSentences(text)
	pos := 0
	for _, s := range sentences {
		start := strings.Index(text[pos:], s)
		abs := pos
		if start >= 0 {
			abs = pos + start
		}
		low := strings.ToLower(s)
		for _, marker := range m.Markers {
			if idx := strings.Index(low, marker); idx >= 0 {
				entity := strings.TrimSpace(s[idx+len(marker):])
				out = append(out, models.NegatedEntity{
					Entity:   entity,
					Sentence: s,
					Start:    abs,
					End:      abs + len(s),
				})
				break
			}
		}
		pos = abs + len(s)
	}
	return out, nil
}

func (m *MarkerNegationTagger) IsNegated(_ context.Context, text string) (bool, error) {
	low := strings.ToLower(text)
	for _, marker := range m.Markers {
		if strings.Contains(low, marker) {
			return true, nil
		}
	}
	return false, nil
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
