package validation

import (
	"context"
	"fmt"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// NLIValidatorConfig configures the entailment/contradiction thresholds.
type NLIValidatorConfig struct {
	RefuteThreshold  float64
	SupportThreshold float64
	MaxEvidenceSpans int
}

func parseNLIValidatorConfig(config map[string]any) NLIValidatorConfig {
	cfg := NLIValidatorConfig{RefuteThreshold: 0.9, SupportThreshold: 0.3, MaxEvidenceSpans: 5}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["confidence_threshold"]); ok {
		cfg.RefuteThreshold, cfg.SupportThreshold = v, v
	}
	if v, ok := floatFrom(config["refute_threshold"]); ok {
		cfg.RefuteThreshold = v
	}
	if v, ok := floatFrom(config["support_threshold"]); ok {
		cfg.SupportThreshold = v
	}
	if v, ok := intFrom(config["max_evidence_spans"]); ok {
		cfg.MaxEvidenceSpans = v
	}
	return cfg
}

// NLIValidator classifies each (evidence span as premise, claim as
// hypothesis) pair into entailment/neutral/contradiction and applies the
// ordered decision rule from spec.md §4.4.7: double-negation agreement,
// then first high-confidence contradiction (terminal refuted), else the
// best entailment meeting threshold. Grounded on
// original_source/sourcecheck/validators/nli_validator.py.
type NLIValidator struct {
	cfg      NLIValidatorConfig
	nli      NLIClassifier
	negation NegationTagger
}

func NewNLIValidator(cfg NLIValidatorConfig, nli NLIClassifier) *NLIValidator {
	return &NLIValidator{cfg: cfg, nli: nli}
}

// WithNegationTagger attaches an optional negation tagger used to detect
// double-negative agreement before running NLI classification.
func (v *NLIValidator) WithNegationTagger(tagger NegationTagger) *NLIValidator {
	v.negation = tagger
	return v
}

func (v *NLIValidator) Name() string { return "nli_validator" }

func (v *NLIValidator) isNegated(ctx context.Context, text string) bool {
	if v.negation == nil {
		return false
	}
	negated, err := v.negation.IsNegated(ctx, text)
	return err == nil && negated
}

func (v *NLIValidator) Validate(ctx context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence spans to validate claim against")
	}
	if v.nli == nil {
		return insufficientEvidence(v.Name(), "no NLI classifier configured")
	}

	claimNegated := v.isNegated(ctx, c.Text)

	verdict := InsufficientEvidence
	explanation := ""
	var bestConfidence float64

	spans := evidence
	if len(spans) > v.cfg.MaxEvidenceSpans {
		spans = spans[:v.cfg.MaxEvidenceSpans]
	}

	for _, ev := range spans {
		if claimNegated && v.isNegated(ctx, ev.Text) {
			verdict = Supported
			explanation = "double negative: both claim and evidence express negation, indicating agreement"
			bestConfidence = 1.0
			break
		}

		result, err := v.nli.Classify(ctx, ev.Text, c.Text)
		if err != nil {
			continue
		}

		if result.Label == NLIContradiction && result.Confidence >= v.cfg.RefuteThreshold {
			verdict = Refuted
			explanation = fmt.Sprintf("claim contradicts evidence (confidence=%.2f, threshold=%.2f)", result.Confidence, v.cfg.RefuteThreshold)
			bestConfidence = result.Confidence
			break
		}

		if result.Label == NLIEntailment && result.Confidence >= v.cfg.SupportThreshold && result.Confidence > bestConfidence {
			verdict = Supported
			explanation = fmt.Sprintf("claim supported by evidence (confidence=%.2f, threshold=%.2f)", result.Confidence, v.cfg.SupportThreshold)
			bestConfidence = result.Confidence
		}
	}

	if explanation == "" {
		explanation = fmt.Sprintf("no strong entailment or contradiction found (support_threshold=%.2f, refute_threshold=%.2f)", v.cfg.SupportThreshold, v.cfg.RefuteThreshold)
	}

	return Result{Validator: v.Name(), Verdict: verdict, Explanation: explanation, Score: floatPtr(bestConfidence)}
}

var _ Validator = (*NLIValidator)(nil)
