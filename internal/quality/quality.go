// Package quality post-processes an arbitrated Disposition to attach
// QualityIssues and a multiplicative quality penalty, without altering the
// verdict itself. Grounded on original_source/sourcecheck/quality (base.py's
// QualityModule ABC and registry.py's flat name→class table), structured the
// Go way as a narrow interface plus the same fixed-table Registry already
// used in internal/retrieval and internal/validation.
package quality

import (
	"fmt"

	"github.com/tangerg-labs/transcriptverify/internal/report"
)

// Analysis is one module's findings for a single Disposition: the issues it
// raised and the multiplicative penalty factor derived from their
// severities.
type Analysis struct {
	Issues       []report.QualityIssue
	QualityScore float64
}

// Module analyzes one Disposition against the full transcript. Modules must
// be stateless across calls.
type Module interface {
	Name() string
	ShouldAnalyze(d report.Disposition) bool
	Analyze(d report.Disposition, transcript string) Analysis
}

// Factory constructs a Module bound to a specific config.
type Factory func(config map[string]any) (Module, error)

// Registry is a fixed table from quality module name to Factory.
// Registration of a duplicate name panics, a construction-time-fatal
// convention for programmer error; lookup of an unknown name returns an
// error since it can be driven by policy input.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a Factory under name. Panics if name is already registered.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("quality: module %q already registered", name))
	}
	r.factories[name] = factory
}

// New builds a Module by name.
func (r *Registry) New(name string, config map[string]any) (Module, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("quality: unknown module %q", name)
	}
	return factory(config)
}

// NewDefaultRegistry registers the two built-in quality modules under the
// names the policy layer addresses them by.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("semantic_quality", func(config map[string]any) (Module, error) {
		return NewSemanticQualityModule(parseSemanticQualityConfig(config)), nil
	})
	reg.Register("temporal_numeric_drift", func(config map[string]any) (Module, error) {
		return NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(config)), nil
	})
	return reg
}

func floatFrom(config map[string]any, key string, def float64) float64 {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

func intFrom(config map[string]any, key string, def int) int {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return def
}

func boolFrom(config map[string]any, key string, def bool) bool {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func stringFrom(config map[string]any, key string, def string) string {
	if config == nil {
		return def
	}
	v, ok := config[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// defaultShouldAnalyze implements the gating rule common to every built-in
// module: analyze when no quality/confidence metrics exist yet, or when
// quality score is below minQualityScore, or confidence is below
// minConfidence, or (optionally) the verdict is insufficient_evidence.
func defaultShouldAnalyze(d report.Disposition, minQualityScore, minConfidence float64, analyzeInsufficient bool) bool {
	if d.QualityScore == nil && d.Confidence == nil {
		return true
	}
	if d.QualityScore != nil && *d.QualityScore < minQualityScore {
		return true
	}
	if d.Confidence != nil && *d.Confidence < minConfidence {
		return true
	}
	if analyzeInsufficient && d.Verdict == "insufficient_evidence" {
		return true
	}
	return false
}

// severityPenalty is the fixed severity→factor mapping shared by every
// quality module.
func severityPenalty(severity report.Severity) float64 {
	return report.PenaltyFactor(severity)
}
