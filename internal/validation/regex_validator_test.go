package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

func TestRegexValidator_Validate(t *testing.T) {
	v := NewRegexValidator(parseRegexValidatorConfig(nil))

	t.Run("matches within evidence span", func(t *testing.T) {
		c := claim.Claim{Field: "identifiers", Text: "56-year-old female"}
		evidence := []retrieval.EvidenceSpan{{Text: "a 56-year-old female presents", StartIdx: 100}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Supported, result.Verdict)
	})

	t.Run("falls back to transcript search", func(t *testing.T) {
		c := claim.Claim{Field: "vitals", Text: "heart rate recorded"}
		transcript := "Vitals: HR 88, BP 120/80, temp 98.6."
		result := v.Validate(context.Background(), c, nil, transcript)
		assert.Equal(t, Supported, result.Verdict)
	})

	t.Run("no matches anywhere is insufficient", func(t *testing.T) {
		c := claim.Claim{Field: "phrase", Text: "unrelated claim"}
		result := v.Validate(context.Background(), c, nil, "nothing relevant here")
		assert.Equal(t, InsufficientEvidence, result.Verdict)
	})

	t.Run("transcript search disabled stays insufficient", func(t *testing.T) {
		cfg := parseRegexValidatorConfig(nil)
		cfg.SearchTranscriptIfNoEvidence = false
		v := NewRegexValidator(cfg)
		c := claim.Claim{Field: "vitals", Text: "heart rate"}
		result := v.Validate(context.Background(), c, nil, "HR 88")
		assert.Equal(t, InsufficientEvidence, result.Verdict)
	})
}
