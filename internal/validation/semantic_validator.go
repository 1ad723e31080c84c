package validation

import (
	"context"
	"fmt"
	"sort"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// SemanticValidatorConfig configures the embedding-similarity threshold.
type SemanticValidatorConfig struct {
	EmbeddingThreshold float64
}

func parseSemanticValidatorConfig(config map[string]any) SemanticValidatorConfig {
	cfg := SemanticValidatorConfig{EmbeddingThreshold: 0.7}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["embedding_threshold"]); ok {
		cfg.EmbeddingThreshold = v
	}
	return cfg
}

// SemanticValidator scores a claim against each evidence span by cosine
// similarity of their embeddings; supported iff the best similarity meets
// EmbeddingThreshold. Grounded on
// original_source/sourcecheck/validators/minilm_validator.py.
type SemanticValidator struct {
	cfg      SemanticValidatorConfig
	embedder Embedder
}

func NewSemanticValidator(cfg SemanticValidatorConfig, embedder Embedder) *SemanticValidator {
	return &SemanticValidator{cfg: cfg, embedder: embedder}
}

func (v *SemanticValidator) Name() string { return "semantic_validator" }

func (v *SemanticValidator) Validate(ctx context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence spans found in transcript")
	}
	if v.embedder == nil {
		return insufficientEvidence(v.Name(), "no embedding model configured")
	}

	claimVec, err := v.embedder.Embed(ctx, c.Text)
	if err != nil {
		return insufficientEvidence(v.Name(), fmt.Sprintf("embedding error: %v", err))
	}

	scores := make([]float64, len(evidence))
	for i, ev := range evidence {
		evVec, err := v.embedder.Embed(ctx, ev.Text)
		if err != nil {
			continue
		}
		scores[i] = cosineSimilarity(claimVec, evVec)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	best := scores[0]

	if best >= v.cfg.EmbeddingThreshold {
		return Result{
			Validator:   v.Name(),
			Verdict:     Supported,
			Explanation: fmt.Sprintf("semantic similarity %.3f exceeds threshold %.3f", best, v.cfg.EmbeddingThreshold),
			Score:       floatPtr(best),
		}
	}
	return Result{
		Validator:   v.Name(),
		Verdict:     InsufficientEvidence,
		Explanation: fmt.Sprintf("best semantic similarity %.3f below threshold %.3f", best, v.cfg.EmbeddingThreshold),
		Score:       floatPtr(best),
	}
}

var _ Validator = (*SemanticValidator)(nil)
