package validation

import (
	"context"
	"strings"
)

// fakeEmbedder hashes words into a fixed-size bag-of-words vector so cosine
// similarity is deterministic without a real model. Mirrors
// internal/models/modeltest.HashEmbedder.
type fakeEmbedder struct{ dims int }

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, f.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var hash uint32 = 2166136261
		for _, b := range []byte(word) {
			hash ^= uint32(b)
			hash *= 16777619
		}
		vec[int(hash)%f.dims]++
	}
	return vec, nil
}

var negationMarkers = []string{"denies", "no evidence of", "without", "not present", "ruled out", "no "}

// fakeNegationTagger is a marker-vocabulary stand-in for a real negation
// detection model, mirroring internal/models/modeltest.MarkerNegationTagger.
type fakeNegationTagger struct{}

func (fakeNegationTagger) IsNegated(_ context.Context, text string) (bool, error) {
	lower := strings.ToLower(text)
	for _, marker := range negationMarkers {
		if strings.Contains(lower, marker) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeNegationTagger) Negations(ctx context.Context, text string) ([]NegatedEntity, error) {
	var entities []NegatedEntity
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		negated, _ := f.IsNegated(ctx, sentence)
		if !negated {
			continue
		}
		words := strings.Fields(sentence)
		entity := sentence
		if len(words) > 0 {
			entity = words[len(words)-1]
		}
		entities = append(entities, NegatedEntity{Entity: entity, Sentence: sentence})
	}
	return entities, nil
}

// fakeNLI classifies via negation-marker and word-overlap heuristics,
// mirroring internal/models/modeltest.KeywordNLI.
type fakeNLI struct{}

func (fakeNLI) Classify(ctx context.Context, premise, hypothesis string) (NLIResult, error) {
	tagger := fakeNegationTagger{}
	premiseNeg, _ := tagger.IsNegated(ctx, premise)
	hypothesisNeg, _ := tagger.IsNegated(ctx, hypothesis)

	premiseWords := toSet(strings.Fields(strings.ToLower(premise)))
	hypothesisWords := toSet(strings.Fields(strings.ToLower(hypothesis)))
	overlap := 0
	for w := range hypothesisWords.Iter() {
		if premiseWords.Contains(w) {
			overlap++
		}
	}
	var jaccard float64
	if !hypothesisWords.IsEmpty() {
		jaccard = float64(overlap) / float64(hypothesisWords.Size())
	}

	if premiseNeg != hypothesisNeg && jaccard > 0.5 {
		return NLIResult{Label: NLIContradiction, Confidence: 0.95}, nil
	}
	if jaccard > 0.6 {
		return NLIResult{Label: NLIEntailment, Confidence: jaccard}, nil
	}
	return NLIResult{Label: NLINeutral, Confidence: 1 - jaccard}, nil
}
