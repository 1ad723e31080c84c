// Package validation runs a claim through a named, pluggable check against
// its retrieved evidence and the full transcript. Grounded on the
// ai/rag document-refiner interfaces (pure function of inputs, no shared
// mutable state) and on original_source/checker/validators and
// original_source/sourcecheck/validators for per-validator semantics.
package validation

import (
	"context"
	"fmt"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// Verdict is the fixed outcome set every validator and the arbitration
// engine communicate in.
type Verdict string

const (
	Supported            Verdict = "supported"
	Refuted              Verdict = "refuted"
	InsufficientEvidence Verdict = "insufficient_evidence"
)

// Result is one validator's opinion about one claim. Immutable once built.
type Result struct {
	Validator   string
	Verdict     Verdict
	Explanation string
	Score       *float64
	Metadata    map[string]any
}

func insufficientEvidence(name, explanation string) Result {
	return Result{Validator: name, Verdict: InsufficientEvidence, Explanation: explanation}
}

// Validator is the contract every pluggable check implements. Validators
// must be stateless across calls, though they may hold shared read-only
// model handles (c.f. internal/models.Registry's lazy singletons).
type Validator interface {
	Name() string
	Validate(ctx context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, transcript string) Result
}

// Factory constructs a Validator bound to a specific config.
type Factory func(config map[string]any) (Validator, error)

// Registry is a fixed table from validator name to Factory. Registration of
// a duplicate name panics; lookup of an unknown name is an error.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("validation: validator %q already registered", name))
	}
	r.factories[name] = factory
}

func (r *Registry) New(name string, config map[string]any) (Validator, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("validation: unknown validator %q", name)
	}
	return factory(config)
}

// NewDefaultRegistry returns a Registry pre-populated with all built-in
// validators. embedder, nli, and negation are optional shared model handles
// (c.f. internal/models.Registry); validators that need one of them but
// were not given it fail closed with insufficient_evidence at call time
// rather than panicking at registration time.
func NewDefaultRegistry(embedder Embedder, nli NLIClassifier, negation NegationTagger) *Registry {
	reg := NewRegistry()
	reg.Register("always_true", func(config map[string]any) (Validator, error) {
		return NewAlwaysTrueValidator(), nil
	})
	reg.Register("bm25_validator", func(config map[string]any) (Validator, error) {
		return NewBM25Validator(parseBM25ValidatorConfig(config)), nil
	})
	reg.Register("semantic_validator", func(config map[string]any) (Validator, error) {
		return NewSemanticValidator(parseSemanticValidatorConfig(config), embedder), nil
	})
	reg.Register("hybrid_validator", func(config map[string]any) (Validator, error) {
		return NewHybridValidator(parseHybridValidatorConfig(config), embedder), nil
	})
	reg.Register("regex_validator", func(config map[string]any) (Validator, error) {
		return NewRegexValidator(parseRegexValidatorConfig(config)), nil
	})
	reg.Register("speaker_attribution_validator", func(config map[string]any) (Validator, error) {
		return NewSpeakerAttributionValidator(), nil
	})
	reg.Register("nli_validator", func(config map[string]any) (Validator, error) {
		return NewNLIValidator(parseNLIValidatorConfig(config), nli).WithNegationTagger(negation), nil
	})
	reg.Register("negation_refuter", func(config map[string]any) (Validator, error) {
		return NewNegationRefuter(parseNegationRefuterConfig(config), negation, embedder), nil
	})
	reg.Register("lexical_coverage_validator", func(config map[string]any) (Validator, error) {
		return NewLexicalCoverageValidator(parseLexicalCoverageConfig(config)), nil
	})
	reg.Register("temporal_drift_validator", func(config map[string]any) (Validator, error) {
		return NewTemporalDriftValidator(parseTemporalDriftConfig(config)), nil
	})
	return reg
}

func floatPtr(v float64) *float64 { return &v }

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

func boolFrom(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func stringSetFrom(v any) map[string]struct{} {
	out := map[string]struct{}{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			out[s] = struct{}{}
		}
	}
	return out
}
