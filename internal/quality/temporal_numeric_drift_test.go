package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/report"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/internal/validation"
)

func TestTemporalNumericDriftModule_ShouldAnalyze(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))

	d := baseDisposition("x", "y")
	assert.True(t, m.ShouldAnalyze(d))

	low := 0.5
	d.QualityScore = &low
	assert.True(t, m.ShouldAnalyze(d))

	high := 0.99
	d.QualityScore = &high
	assert.False(t, m.ShouldAnalyze(d))
}

func TestTemporalNumericDriftModule_temporalDrift(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	d := baseDisposition("Patient fell.", "Patient fell yesterday at the clinic.")
	analysis := m.Analyze(d, "")
	require.NotEmpty(t, analysis.Issues)
	assert.Equal(t, "temporal_drift", analysis.Issues[0].Type)
	assert.Equal(t, report.SeverityMedium, analysis.Issues[0].Severity)
}

func TestTemporalNumericDriftModule_unitMismatch(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	d := report.Disposition{
		Claim:   claim.Claim{Text: "administered 5 mg of medication"},
		Verdict: validation.Supported,
		Evidence: []retrieval.EvidenceSpan{
			{Text: "gave patient 5 g of medication", Score: 0.9},
		},
	}
	analysis := m.Analyze(d, "")
	require.NotEmpty(t, analysis.Issues)
	var found bool
	for _, issue := range analysis.Issues {
		if issue.Type == "unit_mismatch" {
			found = true
			assert.Equal(t, report.SeverityHigh, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestTemporalNumericDriftModule_valueMismatch(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	d := report.Disposition{
		Claim:   claim.Claim{Text: "patient is 10 years old"},
		Verdict: validation.Supported,
		Evidence: []retrieval.EvidenceSpan{
			{Text: "patient is 45 years old", Score: 0.9},
		},
	}
	analysis := m.Analyze(d, "")
	var found bool
	for _, issue := range analysis.Issues {
		if issue.Type == "numeric_mismatch" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTemporalNumericDriftModule_matchingNumberNoIssue(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	d := report.Disposition{
		Claim:   claim.Claim{Text: "patient is 45 years old"},
		Verdict: validation.Supported,
		Evidence: []retrieval.EvidenceSpan{
			{Text: "the 45 year old patient presented with abdominal pain", Score: 0.9},
		},
	}
	analysis := m.Analyze(d, "")
	for _, issue := range analysis.Issues {
		assert.NotEqual(t, "numeric_mismatch", issue.Type)
		assert.NotEqual(t, "unit_mismatch", issue.Type)
	}
}

func TestTemporalNumericDriftModule_noEvidence(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	d := baseDisposition("5 mg given", "")
	d.Evidence = nil
	analysis := m.Analyze(d, "")
	assert.Empty(t, analysis.Issues)
	assert.Equal(t, 1.0, analysis.QualityScore)
}

func TestExtractNumericValues(t *testing.T) {
	m := NewTemporalNumericDriftModule(parseTemporalNumericDriftConfig(nil))
	structured, bare := m.extractNumericValues("patient lost 15% of blood volume, about 500 ml, cost $2 million")
	assert.Contains(t, bare, "15")
	assert.Contains(t, bare, "500")
	assert.Contains(t, bare, "2")

	foundPercent := false
	for _, s := range structured {
		if s.unit == "%" && s.value == "15" {
			foundPercent = true
		}
	}
	assert.True(t, foundPercent)
}
