package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// HybridValidatorConfig configures the weighted blend of BM25 and
// embedding scores.
type HybridValidatorConfig struct {
	MinEvidenceScore float64
	BM25Weight       float64
	LiteralBoost     float64
	BoostTerms       map[string]struct{}
}

func parseHybridValidatorConfig(config map[string]any) HybridValidatorConfig {
	cfg := HybridValidatorConfig{MinEvidenceScore: 0.3, BM25Weight: 0.5, LiteralBoost: 0.2}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["min_evidence_score"]); ok {
		cfg.MinEvidenceScore = v
	}
	if v, ok := floatFrom(config["bm25_weight"]); ok {
		cfg.BM25Weight = v
	}
	if v, ok := floatFrom(config["literal_boost"]); ok {
		cfg.LiteralBoost = v
	}
	cfg.BoostTerms = stringSetFrom(config["boost_terms"])
	return cfg
}

// HybridValidator blends BM25 evidence scores with embedding cosine
// similarity, boosting literal substring matches and configured boost
// terms. Grounded on
// original_source/sourcecheck/validators/hybrid_bm25_minilm_validator.py.
type HybridValidator struct {
	cfg      HybridValidatorConfig
	embedder Embedder
}

func NewHybridValidator(cfg HybridValidatorConfig, embedder Embedder) *HybridValidator {
	return &HybridValidator{cfg: cfg, embedder: embedder}
}

func (v *HybridValidator) Name() string { return "hybrid_validator" }

func (v *HybridValidator) Validate(ctx context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence spans found in transcript")
	}

	minilmWeight := 1 - v.cfg.BM25Weight
	var claimVec []float64
	if v.embedder != nil {
		claimVec, _ = v.embedder.Embed(ctx, c.Text)
	}

	scores := make([]float64, len(evidence))
	for i, ev := range evidence {
		minilmScore := 0.0
		if v.embedder != nil && claimVec != nil {
			if evVec, err := v.embedder.Embed(ctx, ev.Text); err == nil {
				minilmScore = cosineSimilarity(claimVec, evVec)
			}
		}
		score := v.cfg.BM25Weight*ev.Score + minilmWeight*minilmScore

		if strings.Contains(strings.ToLower(ev.Text), strings.ToLower(c.Text)) {
			score = minFloat(1.0, score+v.cfg.LiteralBoost)
		}
		if len(v.cfg.BoostTerms) > 0 {
			lower := strings.ToLower(ev.Text)
			for term := range v.cfg.BoostTerms {
				if strings.Contains(lower, term) {
					score = minFloat(1.0, score+v.cfg.LiteralBoost)
					break
				}
			}
		}
		scores[i] = score
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	best := scores[0]

	if best >= v.cfg.MinEvidenceScore {
		return Result{
			Validator: v.Name(),
			Verdict:   Supported,
			Explanation: fmt.Sprintf(
				"hybrid score %.3f (bm25 weight=%.1f) exceeds threshold %.3f", best, v.cfg.BM25Weight, v.cfg.MinEvidenceScore),
			Score: floatPtr(best),
		}
	}
	return Result{
		Validator: v.Name(),
		Verdict:   InsufficientEvidence,
		Explanation: fmt.Sprintf(
			"best hybrid score %.3f (bm25 weight=%.1f) below threshold %.3f", best, v.cfg.BM25Weight, v.cfg.MinEvidenceScore),
		Score: floatPtr(best),
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

var _ Validator = (*HybridValidator)(nil)
