package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

func TestTemporalDriftValidator_Validate(t *testing.T) {
	v := NewTemporalDriftValidator(parseTemporalDriftConfig(nil))

	t.Run("no temporal expressions is supported", func(t *testing.T) {
		c := claim.Claim{Text: "Patient fell."}
		evidence := []retrieval.EvidenceSpan{{Text: "the patient presented with a minor injury"}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Supported, result.Verdict)
	})

	t.Run("matching temporal expressions supported", func(t *testing.T) {
		c := claim.Claim{Text: "Patient fell yesterday."}
		evidence := []retrieval.EvidenceSpan{{Text: "the patient fell yesterday evening"}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Supported, result.Verdict)
	})

	t.Run("large drift refuted", func(t *testing.T) {
		c := claim.Claim{Text: "Patient fell yesterday."}
		evidence := []retrieval.EvidenceSpan{{Text: "the patient fell last month"}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Refuted, result.Verdict)
	})

	t.Run("temporal in claim absent from evidence with high overlap supported", func(t *testing.T) {
		c := claim.Claim{Text: "patient reports severe headache yesterday"}
		evidence := []retrieval.EvidenceSpan{{Text: "patient reports severe headache"}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Supported, result.Verdict)
	})

	t.Run("temporal in claim absent from evidence with low overlap insufficient", func(t *testing.T) {
		c := claim.Claim{Text: "patient fell yesterday"}
		evidence := []retrieval.EvidenceSpan{{Text: "vitals are within normal limits"}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, InsufficientEvidence, result.Verdict)
	})

	t.Run("no evidence is insufficient", func(t *testing.T) {
		result := v.Validate(context.Background(), claim.Claim{Text: "x"}, nil, "")
		assert.Equal(t, InsufficientEvidence, result.Verdict)
	})

	t.Run("unit mismatch on high relevance evidence is critical refuted", func(t *testing.T) {
		c := claim.Claim{Text: "administered 5mg of medication"}
		evidence := []retrieval.EvidenceSpan{{Text: "gave patient 5mcg of medication", Score: 0.9}}
		result := v.Validate(context.Background(), c, evidence, "")
		assert.Equal(t, Refuted, result.Verdict)
		require.NotNil(t, result.Metadata)
		assert.Equal(t, true, result.Metadata["critical"])
	})
}

func TestExtractTemporal(t *testing.T) {
	times := extractTemporal("the patient fell 3 days ago")
	assert.Contains(t, times, -3.0)

	future := extractTemporal("follow up in 2 weeks")
	assert.Contains(t, future, 14.0)
}
