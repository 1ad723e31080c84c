package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRetriever struct {
	lastQuery string
	spans     []EvidenceSpan
}

func (r *recordingRetriever) Retrieve(_ context.Context, claimText string, _ int, _ map[string]any) ([]EvidenceSpan, error) {
	r.lastQuery = claimText
	return r.spans, nil
}

func TestContextAwareRetriever_ExpandsTerseClaims(t *testing.T) {
	inner := &recordingRetriever{spans: []EvidenceSpan{{Text: "evidence", Score: 0.5}}}
	cfg := ContextAwareConfig{
		FieldRelationships: map[string][]string{"follow_up": {"symptoms"}},
		TerseThreshold:      20,
		MaxContextLength:    200,
	}
	r := NewContextAwareRetriever(inner, cfg)

	metadata := map[string]any{
		"field":          "follow_up",
		"related_claims": map[string]string{"symptoms": "patient reports chest pain"},
	}

	_, err := r.Retrieve(context.Background(), "Yes", 3, metadata)
	require.NoError(t, err)
	assert.Equal(t, "Yes. patient reports chest pain", inner.lastQuery)
}

func TestContextAwareRetriever_LeavesLongClaimsAlone(t *testing.T) {
	inner := &recordingRetriever{}
	cfg := ContextAwareConfig{TerseThreshold: 5, MaxContextLength: 200}
	r := NewContextAwareRetriever(inner, cfg)

	claim := "The patient reports a detailed history of symptoms"
	_, err := r.Retrieve(context.Background(), claim, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, claim, inner.lastQuery)
}

func TestContextAwareRetriever_NoRelationshipConfigured(t *testing.T) {
	inner := &recordingRetriever{}
	cfg := ContextAwareConfig{TerseThreshold: 20}
	r := NewContextAwareRetriever(inner, cfg)

	metadata := map[string]any{"field": "unrelated_field"}
	_, err := r.Retrieve(context.Background(), "No", 3, metadata)
	require.NoError(t, err)
	assert.Equal(t, "No", inner.lastQuery)
}

func TestContextAwareRetriever_TruncatesToMaxContextLength(t *testing.T) {
	inner := &recordingRetriever{}
	cfg := ContextAwareConfig{
		FieldRelationships: map[string][]string{"a": {"b"}},
		TerseThreshold:      20,
		MaxContextLength:    10,
	}
	r := NewContextAwareRetriever(inner, cfg)

	metadata := map[string]any{
		"field":          "a",
		"related_claims": map[string]string{"b": "a very long piece of related context text"},
	}
	_, err := r.Retrieve(context.Background(), "Hi", 3, metadata)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(inner.lastQuery), 10)
}

func TestParseContextAwareConfig(t *testing.T) {
	cfg := parseContextAwareConfig(map[string]any{
		"terse_threshold":     15,
		"max_context_length":  100,
		"field_relationships": map[string]any{"a": []any{"b", "c"}},
	})
	assert.Equal(t, 15, cfg.TerseThreshold)
	assert.Equal(t, 100, cfg.MaxContextLength)
	assert.Equal(t, []string{"b", "c"}, cfg.FieldRelationships["a"])

	defaults := parseContextAwareConfig(nil)
	assert.Equal(t, 20, defaults.TerseThreshold)
	assert.Equal(t, 200, defaults.MaxContextLength)
}
