package arbitration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/logging"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/internal/validation"
)

func floatPtr(f float64) *float64 { return &f }

func TestParseConfig(t *testing.T) {
	t.Run("defaults to priority_based", func(t *testing.T) {
		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, PriorityBased, cfg.Strategy)
		assert.Equal(t, []validation.Verdict{validation.Refuted, validation.Supported, validation.InsufficientEvidence}, cfg.VerdictPriority)
	})

	t.Run("unknown strategy errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{"strategy": "bogus"})
		assert.Error(t, err)
	})

	t.Run("weighted_voting without weights errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{"strategy": "weighted_voting"})
		assert.Error(t, err)
	})

	t.Run("weighted_voting with weights parses", func(t *testing.T) {
		cfg, err := ParseConfig(map[string]any{
			"strategy":        "weighted_voting",
			"default_weights": map[string]any{"bm25_validator": 3.0, "nli_validator": 1.0},
		})
		require.NoError(t, err)
		assert.Equal(t, 3.0, cfg.DefaultWeights["bm25_validator"])
	})

	t.Run("negative weight errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{
			"strategy":        "weighted_voting",
			"default_weights": map[string]any{"bm25_validator": -1.0},
		})
		assert.Error(t, err)
	})

	t.Run("invalid verdict in priority errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{"verdict_priority": []any{"maybe"}})
		assert.Error(t, err)
	})

	t.Run("conflict rule missing action errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{
			"conflict_resolution": []any{
				map[string]any{"validators": []any{"a", "b"}},
			},
		})
		assert.Error(t, err)
	})

	t.Run("conflict rule with fewer than two validators errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{
			"conflict_resolution": []any{
				map[string]any{"action": "check_lexical_overlap", "validators": []any{"a"}, "threshold": 0.5},
			},
		})
		assert.Error(t, err)
	})

	t.Run("check_lexical_overlap without threshold errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{
			"conflict_resolution": []any{
				map[string]any{"action": "check_lexical_overlap", "validators": []any{"a", "b"}},
			},
		})
		assert.Error(t, err)
	})

	t.Run("check_lexical_overlap with out-of-range threshold errors", func(t *testing.T) {
		_, err := ParseConfig(map[string]any{
			"conflict_resolution": []any{
				map[string]any{"action": "check_lexical_overlap", "validators": []any{"a", "b"}, "threshold": 1.5},
			},
		})
		assert.Error(t, err)
	})

	t.Run("valid conflict rule parses", func(t *testing.T) {
		cfg, err := ParseConfig(map[string]any{
			"conflict_resolution": []any{
				map[string]any{
					"action":          "check_lexical_overlap",
					"validators":      []any{"bm25_validator", "nli_validator"},
					"threshold":       0.6,
					"result_if_above": "supported",
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, cfg.ConflictRules, 1)
		assert.Equal(t, 0.6, cfg.ConflictRules[0].Threshold)
		assert.Equal(t, validation.Supported, cfg.ConflictRules[0].ResultIfAbove)
	})
}

func TestEngine_Arbitrate_noResults(t *testing.T) {
	e := NewEngine(Config{Strategy: PriorityBased}, nil)
	d := e.Arbitrate(claim.Claim{Text: "x"}, nil, nil)
	assert.Equal(t, validation.InsufficientEvidence, d.Verdict)
}

func TestEngine_Arbitrate_singleResult(t *testing.T) {
	e := NewEngine(Config{Strategy: PriorityBased}, nil)
	results := []validation.Result{{Validator: "bm25_validator", Verdict: validation.Supported, Explanation: "ok", Score: floatPtr(0.8)}}
	d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
	assert.Equal(t, validation.Supported, d.Verdict)
	assert.Equal(t, "bm25_validator", d.Validator)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, 0.8, *d.Confidence)
}

func TestEngine_Arbitrate_priorityDominance(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	results := []validation.Result{
		{Validator: "semantic_validator", Verdict: validation.Supported},
		{Validator: "nli_validator", Verdict: validation.Refuted},
	}
	d := e.Arbitrate(claim.Claim{Text: "x"}, results, []retrieval.EvidenceSpan{{Text: "some evidence"}})
	assert.Equal(t, validation.Refuted, d.Verdict, "refuted dominates under the default priority order with no conflict rule configured")
}

// S4: weighted_voting with validator A=supported weight 3 vs validator B=refuted weight 1.
func TestEngine_Arbitrate_weightedVoting(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"strategy": "weighted_voting",
		"default_weights": map[string]any{
			"a": 3.0,
			"b": 1.0,
		},
	})
	require.NoError(t, err)
	e := NewEngine(cfg, logging.NopLogger{})

	results := []validation.Result{
		{Validator: "a", Verdict: validation.Supported, Score: floatPtr(1.0)},
		{Validator: "b", Verdict: validation.Refuted, Score: floatPtr(1.0)},
	}
	d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
	assert.Equal(t, validation.Supported, d.Verdict)
	require.NotNil(t, d.QualityScore)
	// one of two validators agrees with "supported", and a refutation was overridden.
	assert.Equal(t, 0.45, *d.QualityScore)
}

// S5: check_lexical_overlap rule fires, Jaccard(claim, best_span) = 5/6 ≈ 0.83 >= threshold 0.6.
func TestEngine_Arbitrate_conflictRuleLexicalOverlap(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"conflict_resolution": []any{
			map[string]any{
				"action":          "check_lexical_overlap",
				"validators":      []any{"bm25_validator", "nli_validator"},
				"threshold":       0.6,
				"result_if_above": "supported",
			},
		},
	})
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	results := []validation.Result{
		{Validator: "bm25_validator", Verdict: validation.Supported},
		{Validator: "nli_validator", Verdict: validation.Refuted},
	}
	evidence := []retrieval.EvidenceSpan{{Text: "patient reports severe chest pain today"}}
	c := claim.Claim{Text: "patient reports severe chest pain"}

	d := e.Arbitrate(c, results, evidence)
	assert.Equal(t, validation.Supported, d.Verdict)
	assert.Contains(t, d.Explanation, "lexical overlap")
	assert.Equal(t, "arbitration_engine", d.Validator)
}

func TestEngine_Arbitrate_conflictRuleBelowThresholdFallsToRefuted(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"conflict_resolution": []any{
			map[string]any{
				"action":     "check_lexical_overlap",
				"validators": []any{"bm25_validator", "nli_validator"},
				"threshold":  0.9,
			},
		},
	})
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	results := []validation.Result{
		{Validator: "bm25_validator", Verdict: validation.Supported},
		{Validator: "nli_validator", Verdict: validation.Refuted},
	}
	evidence := []retrieval.EvidenceSpan{{Text: "vitals are within normal limits"}}
	c := claim.Claim{Text: "patient reports severe chest pain"}

	d := e.Arbitrate(c, results, evidence)
	assert.Equal(t, validation.Refuted, d.Verdict)
}

func TestEngine_Arbitrate_unanimous(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{"strategy": "unanimous"})
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	t.Run("all agree", func(t *testing.T) {
		results := []validation.Result{
			{Validator: "a", Verdict: validation.Supported},
			{Validator: "b", Verdict: validation.Supported},
		}
		d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
		assert.Equal(t, validation.Supported, d.Verdict)
	})

	t.Run("disagree falls to insufficient", func(t *testing.T) {
		results := []validation.Result{
			{Validator: "a", Verdict: validation.Supported},
			{Validator: "b", Verdict: validation.Refuted},
		}
		d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
		assert.Equal(t, validation.InsufficientEvidence, d.Verdict)
	})
}

func TestEngine_Arbitrate_majority(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{"strategy": "majority"})
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	t.Run("clear winner", func(t *testing.T) {
		results := []validation.Result{
			{Validator: "a", Verdict: validation.Supported},
			{Validator: "b", Verdict: validation.Supported},
			{Validator: "c", Verdict: validation.Refuted},
		}
		d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
		assert.Equal(t, validation.Supported, d.Verdict)
	})

	t.Run("tie falls to insufficient", func(t *testing.T) {
		results := []validation.Result{
			{Validator: "a", Verdict: validation.Supported},
			{Validator: "b", Verdict: validation.Refuted},
		}
		d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
		assert.Equal(t, validation.InsufficientEvidence, d.Verdict)
	})
}

func TestEngine_Arbitrate_firstWins(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{"strategy": "first_wins"})
	require.NoError(t, err)
	e := NewEngine(cfg, nil)

	results := []validation.Result{
		{Validator: "a", Verdict: validation.Refuted, Explanation: "no match"},
		{Validator: "b", Verdict: validation.Supported},
	}
	d := e.Arbitrate(claim.Claim{Text: "x"}, results, nil)
	assert.Equal(t, validation.Refuted, d.Verdict)
	assert.Equal(t, "a", d.Validator)
}

func TestEngine_Arbitrate_capsEvidenceAtFive(t *testing.T) {
	e := NewEngine(Config{Strategy: PriorityBased, VerdictPriority: []validation.Verdict{validation.Refuted, validation.Supported, validation.InsufficientEvidence}}, nil)
	evidence := make([]retrieval.EvidenceSpan, 0, 8)
	for i := 0; i < 8; i++ {
		evidence = append(evidence, retrieval.EvidenceSpan{Text: "span"})
	}
	results := []validation.Result{
		{Validator: "a", Verdict: validation.Supported},
		{Validator: "b", Verdict: validation.Supported},
	}
	d := e.Arbitrate(claim.Claim{Text: "x"}, results, evidence)
	assert.Len(t, d.Evidence, 5)
}

func TestLexicalOverlap(t *testing.T) {
	overlap := lexicalOverlap("patient reports severe chest pain", "patient reports severe chest pain today")
	assert.InDelta(t, 0.83, overlap, 0.01)

	assert.Equal(t, 0.0, lexicalOverlap("", "anything"))
}
