package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// NegationRefuterConfig configures the similarity threshold and optional
// domain boost terms.
type NegationRefuterConfig struct {
	MatchThreshold float64
	BoostWords     map[string]struct{}
}

func parseNegationRefuterConfig(config map[string]any) NegationRefuterConfig {
	cfg := NegationRefuterConfig{MatchThreshold: 0.7}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["match_threshold"]); ok {
		cfg.MatchThreshold = v
	}
	cfg.BoostWords = stringSetFrom(config["boost_words"])
	return cfg
}

// NegationRefuter looks for negated entities anywhere in the transcript
// (via a NegationTagger), scores the claim's semantic similarity against
// each negated entity's sentence, and refutes the claim when the best
// match clears MatchThreshold — unless the claim itself is also negated,
// in which case that's double-negation agreement. Grounded on
// original_source/checker/validators/negation_refuter.py.
type NegationRefuter struct {
	cfg      NegationRefuterConfig
	negation NegationTagger
	embedder Embedder
}

func NewNegationRefuter(cfg NegationRefuterConfig, negation NegationTagger, embedder Embedder) *NegationRefuter {
	return &NegationRefuter{cfg: cfg, negation: negation, embedder: embedder}
}

func (v *NegationRefuter) Name() string { return "negation_refuter" }

func (v *NegationRefuter) entityMatchScore(ctx context.Context, claimText, entitySentence string) float64 {
	if v.embedder == nil {
		return 0
	}
	claimVec, err := v.embedder.Embed(ctx, claimText)
	if err != nil {
		return 0
	}
	entVec, err := v.embedder.Embed(ctx, entitySentence)
	if err != nil {
		return 0
	}
	score := cosineSimilarity(claimVec, entVec)

	if len(v.cfg.BoostWords) > 0 {
		lower := strings.ToLower(entitySentence)
		for term := range v.cfg.BoostWords {
			if strings.Contains(lower, term) {
				score = minFloat(1.0, score+0.3)
				break
			}
		}
	}
	return score
}

func (v *NegationRefuter) Validate(ctx context.Context, c claim.Claim, _ []retrieval.EvidenceSpan, transcript string) Result {
	if v.negation == nil {
		return insufficientEvidence(v.Name(), "no negation tagger configured")
	}

	claimNegated, _ := v.negation.IsNegated(ctx, c.Text)

	negated, err := v.negation.Negations(ctx, transcript)
	if err != nil {
		return insufficientEvidence(v.Name(), fmt.Sprintf("negation detection error: %v", err))
	}

	var bestScore float64
	var bestEntity string
	for _, ent := range negated {
		if strings.Contains(ent.Sentence, "?") {
			continue
		}
		score := v.entityMatchScore(ctx, c.Text, ent.Sentence)
		if score > bestScore {
			bestScore = score
			bestEntity = ent.Entity
		}
	}

	if bestScore >= v.cfg.MatchThreshold {
		if claimNegated {
			return Result{
				Validator:   v.Name(),
				Verdict:     Supported,
				Explanation: fmt.Sprintf("double negative: both claim and transcript express negation, indicating agreement (score=%.2f)", bestScore),
				Score:       floatPtr(bestScore),
			}
		}
		return Result{
			Validator:   v.Name(),
			Verdict:     Refuted,
			Explanation: fmt.Sprintf("claim contradicts negated entity in transcript: %q (score=%.2f)", bestEntity, bestScore),
			Score:       floatPtr(bestScore),
		}
	}

	return insufficientEvidence(v.Name(), "no negated entities matched claim")
}

var _ Validator = (*NegationRefuter)(nil)
