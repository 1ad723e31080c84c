package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangerg-labs/transcriptverify/internal/schema"
)

func TestExtractSingleValue(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"chief_complaint": {Path: "chief_complaint", ExtractionMethod: schema.SingleValue},
	}}
	doc := map[string]any{"chief_complaint": "Chest pain for 2 days"}

	claims, err := NewExtractor(s).Extract(doc)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "chief_complaint", claims[0].Field)
	assert.Equal(t, "Chest pain for 2 days", claims[0].Text)
	assert.Equal(t, "single_value", claims[0].Metadata["extraction_method"])
}

func TestExtractEmptyValueProducesNoClaim(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"notes": {Path: "notes", ExtractionMethod: schema.SingleValue},
	}}
	doc := map[string]any{"notes": "   "}

	claims, err := NewExtractor(s).Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestExtractSkipMethod(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"noise": {Path: "noise", ExtractionMethod: schema.Skip},
	}}
	doc := map[string]any{"noise": "should never appear"}

	claims, err := NewExtractor(s).Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestExtractDelimited(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"medications": {Path: "medications", ExtractionMethod: schema.Delimited, Delimiter: ";"},
	}}

	t.Run("splits on delimiter", func(t *testing.T) {
		doc := map[string]any{"medications": "aspirin; metformin ; lisinopril"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 3)
		assert.Equal(t, "aspirin", claims[0].Text)
		assert.Equal(t, "metformin", claims[1].Text)
	})

	t.Run("falls back to single value when delimiter absent", func(t *testing.T) {
		doc := map[string]any{"medications": "aspirin only"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, "single_value", claims[0].Metadata["fallback"])
	})
}

func TestExtractBulletList(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"plan": {Path: "plan", ExtractionMethod: schema.BulletList},
	}}

	doc := map[string]any{"plan": "- Start lisinopril\n- Follow up in 2 weeks"}
	claims, err := NewExtractor(s).Extract(doc)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "Start lisinopril", claims[0].Text)
}

func TestExtractSentenceSplit(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"hpi": {Path: "hpi", ExtractionMethod: schema.SentenceSplit},
	}}
	doc := map[string]any{"hpi": "Patient reports chest pain. Pain started two days ago."}

	claims, err := NewExtractor(s).Extract(doc)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Contains(t, claims[0].Text, "chest pain")
	assert.Contains(t, claims[1].Text, "two days ago")
}

func TestExtractStructuredFallback(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"vitals": {Path: "vitals", ExtractionMethod: schema.Structured, Pattern: `BP (\d+/\d+)`},
	}}

	t.Run("matches pattern", func(t *testing.T) {
		doc := map[string]any{"vitals": "BP 120/80, HR 72"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, "120/80", claims[0].Text)
	})

	t.Run("falls back when no match", func(t *testing.T) {
		doc := map[string]any{"vitals": "no numbers here"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 1)
		assert.Equal(t, "pattern_failed", claims[0].Metadata["fallback"])
	})
}

func TestSplitCompoundClaims(t *testing.T) {
	s := schema.Schema{Fields: map[string]schema.FieldSpec{
		"hpi": {Path: "hpi", ExtractionMethod: schema.SingleValue, SplitCompoundClaims: true},
	}}

	t.Run("splits two independent clauses", func(t *testing.T) {
		doc := map[string]any{"hpi": "Patient reports severe chest pain today and the patient denies any shortness of breath"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 2)
		assert.True(t, claims[0].Metadata["compound_split"].(bool))
	})

	t.Run("does not split when one side is too short", func(t *testing.T) {
		doc := map[string]any{"hpi": "Patient reports pain and cough"}
		claims, err := NewExtractor(s).Extract(doc)
		require.NoError(t, err)
		require.Len(t, claims, 1)
	})
}
