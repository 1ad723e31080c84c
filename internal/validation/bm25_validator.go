package validation

import (
	"context"
	"fmt"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// BM25ValidatorConfig configures the threshold the BM25 validator applies
// to retriever-supplied evidence scores.
type BM25ValidatorConfig struct {
	MinEvidenceCount int
	MinEvidenceScore float64
}

func parseBM25ValidatorConfig(config map[string]any) BM25ValidatorConfig {
	cfg := BM25ValidatorConfig{MinEvidenceCount: 1, MinEvidenceScore: 0.3}
	if config == nil {
		return cfg
	}
	if v, ok := intFrom(config["min_evidence_count"]); ok {
		cfg.MinEvidenceCount = v
	}
	if v, ok := floatFrom(config["min_evidence_score"]); ok {
		cfg.MinEvidenceScore = v
	}
	return cfg
}

// BM25Validator marks a claim supported iff at least MinEvidenceCount
// evidence spans score at or above MinEvidenceScore. Grounded on spec.md
// §4.4.2 and original_source/sourcecheck/validators/minilm_validator.py's
// threshold-comparison shape (the BM25 analog never needed its own source
// file in the original since it shares the threshold-compare pattern).
type BM25Validator struct {
	cfg BM25ValidatorConfig
}

func NewBM25Validator(cfg BM25ValidatorConfig) *BM25Validator {
	return &BM25Validator{cfg: cfg}
}

func (v *BM25Validator) Name() string { return "bm25_validator" }

func (v *BM25Validator) Validate(_ context.Context, _ claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence spans found in transcript")
	}

	count := 0
	var sum float64
	for _, ev := range evidence {
		sum += ev.Score
		if ev.Score >= v.cfg.MinEvidenceScore {
			count++
		}
	}
	avg := sum / float64(len(evidence))

	if count >= v.cfg.MinEvidenceCount {
		return Result{
			Validator: v.Name(),
			Verdict:   Supported,
			Explanation: fmt.Sprintf(
				"%d/%d spans scored >= %.2f (avg=%.2f)", count, len(evidence), v.cfg.MinEvidenceScore, avg),
			Score: floatPtr(avg),
		}
	}
	return Result{
		Validator: v.Name(),
		Verdict:   InsufficientEvidence,
		Explanation: fmt.Sprintf(
			"only %d/%d spans scored >= %.2f (need %d, avg=%.2f)",
			count, len(evidence), v.cfg.MinEvidenceScore, v.cfg.MinEvidenceCount, avg),
		Score: floatPtr(avg),
	}
}

var _ Validator = (*BM25Validator)(nil)
