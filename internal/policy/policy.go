// Package policy declares the per-run configuration the Checker consumes:
// which validators run against which fields, which retriever indexes the
// transcript, how arbitration resolves conflicts, which quality modules run
// and in what order, and how the overall score is computed. Parsing from a
// YAML/JSON file is explicitly out of scope (spec.md §1); Policies is built
// directly by the caller and validated once at construction, mirroring the
// XConfig.validate() convention used throughout this codebase.
package policy

import "fmt"

// ValidatorRef names one validator declared for a field, with its optional
// per-instance config. Name is always set; Config may be nil.
type ValidatorRef struct {
	Name   string
	Config map[string]any
}

// QualityModuleRef names one quality module and its config, run in the
// order declared.
type QualityModuleRef struct {
	Name   string
	Config map[string]any
}

// ScoringMethod selects how Policies.Scoring computes the overall claim
// score.
type ScoringMethod string

const (
	ScoringSimple          ScoringMethod = "simple"
	ScoringQualityWeighted ScoringMethod = "quality_weighted"
)

// Policies is the full per-run pipeline configuration.
type Policies struct {
	Version string

	// Validators maps a schema field name to the ordered list of
	// validators run against claims from that field.
	Validators map[string][]ValidatorRef

	Retriever       string
	RetrieverConfig map[string]any

	// Aggregation is passed through to arbitration.ParseConfig unchanged;
	// policy does not interpret it.
	Aggregation map[string]any

	QualityModules          []QualityModuleRef
	QualityConfidencePenalty float64

	ScoringMethod ScoringMethod

	MaxEvidenceSpans int
	MaxCacheSize     int
}

// Validate checks the invariants Validate callers rely on before
// construction succeeds: a known scoring method, a non-negative cache size
// and span count, and that every declared quality module and validator
// reference has a non-empty name. It does not check that referenced
// validator/quality-module/retriever names are registered — that is a
// lookup-time concern per spec.md §6's registration interfaces.
func (p Policies) Validate() error {
	switch p.ScoringMethod {
	case "", ScoringSimple, ScoringQualityWeighted:
	default:
		return fmt.Errorf("policy: invalid scoring method %q", p.ScoringMethod)
	}

	if p.MaxEvidenceSpans < 0 {
		return fmt.Errorf("policy: settings.max_evidence_spans must be non-negative, got %d", p.MaxEvidenceSpans)
	}
	if p.MaxCacheSize < 0 {
		return fmt.Errorf("policy: max_cache_size must be non-negative, got %d", p.MaxCacheSize)
	}

	for field, refs := range p.Validators {
		for i, ref := range refs {
			if ref.Name == "" {
				return fmt.Errorf("policy: validators[%q][%d] has an empty name", field, i)
			}
		}
	}
	for i, ref := range p.QualityModules {
		if ref.Name == "" {
			return fmt.Errorf("policy: quality_modules[%d] has an empty name", i)
		}
	}

	return nil
}

// EffectiveScoringMethod returns ScoringMethod, defaulting to
// quality_weighted per spec.md §4.8.
func (p Policies) EffectiveScoringMethod() ScoringMethod {
	if p.ScoringMethod == "" {
		return ScoringQualityWeighted
	}
	return p.ScoringMethod
}

// EffectiveMaxEvidenceSpans returns MaxEvidenceSpans, defaulting to 5.
func (p Policies) EffectiveMaxEvidenceSpans() int {
	if p.MaxEvidenceSpans == 0 {
		return 5
	}
	return p.MaxEvidenceSpans
}

// EffectiveQualityConfidencePenalty returns QualityConfidencePenalty,
// defaulting to 0.9.
func (p Policies) EffectiveQualityConfidencePenalty() float64 {
	if p.QualityConfidencePenalty == 0 {
		return 0.9
	}
	return p.QualityConfidencePenalty
}

// ValidatorsFor returns the declared validator references for field, or nil
// if the field has none declared.
func (p Policies) ValidatorsFor(field string) []ValidatorRef {
	return p.Validators[field]
}
