// Package report holds the pipeline's output shapes: the per-claim
// Disposition the arbitration engine produces and the quality modules
// mutate, the QualityIssue they attach, and the VerificationReport the
// checker assembles once per run. Grounded on the field list in spec.md §3
// and structured as plain value-like structs, the same way
// ai/rag/document.go models a Document — data carriers with no behavior of
// their own beyond a constructor.
package report

import (
	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/internal/validation"
)

// Severity is the fixed set a QualityIssue is tagged with; it maps to a
// fixed penalty factor at the quality-module boundary (high=0.5, medium=0.8,
// low=0.9).
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// PenaltyFactor returns the fixed multiplicative penalty for a severity
// level. Unknown severities are treated as low (least destructive default).
func PenaltyFactor(s Severity) float64 {
	switch s {
	case SeverityHigh:
		return 0.5
	case SeverityMedium:
		return 0.8
	default:
		return 0.9
	}
}

// QualityIssue is one concern a quality module raised against a Disposition.
// Immutable once built.
type QualityIssue struct {
	Type            string
	Severity        Severity
	Detail          string
	EvidenceSnippet string
	ClaimSnippet    string
	Suggestion      string
}

// Disposition is the orchestrator's final record for one claim: the
// arbitrated verdict, the evidence retained to support it, every
// contributing ValidatorResult, and the quality signals layered on after
// arbitration. Confidence and QualityScore default to 1.0 when arbitration
// leaves them unset, then quality modules multiply QualityScore by their
// penalty factors.
type Disposition struct {
	Claim            claim.Claim
	Verdict          validation.Verdict
	Evidence         []retrieval.EvidenceSpan
	Validator        string
	Explanation      string
	ValidatorResults []validation.Result
	Confidence       *float64
	QualityScore     *float64
	QualityIssues    []QualityIssue
}

// NewDisposition builds a Disposition with Confidence and QualityScore left
// unset; callers that already know a confidence value (e.g. a single
// validator's score) should set Confidence directly.
func NewDisposition(c claim.Claim, verdict validation.Verdict, evidence []retrieval.EvidenceSpan, validatorName, explanation string, results []validation.Result) Disposition {
	return Disposition{
		Claim:            c,
		Verdict:          verdict,
		Evidence:         evidence,
		Validator:        validatorName,
		Explanation:      explanation,
		ValidatorResults: results,
	}
}

// ApplyQualityPenalty folds one module's findings into the running quality
// score and issue list. qualityScore initializes to 1.0 on first call.
func (d *Disposition) ApplyQualityPenalty(issues []QualityIssue, factor float64) {
	if d.QualityScore == nil {
		base := 1.0
		d.QualityScore = &base
	}
	*d.QualityScore *= factor
	d.QualityIssues = append(d.QualityIssues, issues...)
}

// VerificationReport is the pipeline's final output, built once per run.
type VerificationReport struct {
	Dispositions  []Disposition
	SourceFields  any
	OverallScore  float64
	QualityScore  float64
	MissingClaims []string
	Issues        []QualityIssue
	Metadata      map[string]any
}
