package retrieval

import (
	"context"
	"strings"
)

// ContextAwareConfig configures how terse claims borrow context from related
// fields before being handed to the wrapped retriever.
type ContextAwareConfig struct {
	FieldRelationships map[string][]string
	TerseThreshold      int
	MaxContextLength    int
}

func parseContextAwareConfig(config map[string]any) ContextAwareConfig {
	cfg := ContextAwareConfig{TerseThreshold: 20, MaxContextLength: 200}
	if config == nil {
		return cfg
	}
	if v, ok := intFrom(config["terse_threshold"]); ok {
		cfg.TerseThreshold = v
	}
	if v, ok := intFrom(config["max_context_length"]); ok {
		cfg.MaxContextLength = v
	}
	if rels, ok := config["field_relationships"].(map[string]any); ok {
		cfg.FieldRelationships = make(map[string][]string, len(rels))
		for field, v := range rels {
			list, ok := v.([]any)
			if !ok {
				continue
			}
			names := make([]string, 0, len(list))
			for _, item := range list {
				if s, ok := item.(string); ok {
					names = append(names, s)
				}
			}
			cfg.FieldRelationships[field] = names
		}
	}
	return cfg
}

// ContextAwareRetriever wraps another Retriever and, for claims shorter than
// TerseThreshold characters, appends the text of related-field claims
// (found in metadata["related_claims"]) after the claim, as
// "claim. context1 context2", before delegating, so a claim like
// "Yes" inherits enough surrounding context to be searchable. Grounded on
// rag.ContextualCompressionRetriever, which wraps an inner retriever to
// post-process its query rather than its results.
type ContextAwareRetriever struct {
	inner Retriever
	cfg   ContextAwareConfig
}

func NewContextAwareRetriever(inner Retriever, cfg ContextAwareConfig) *ContextAwareRetriever {
	return &ContextAwareRetriever{inner: inner, cfg: cfg}
}

func (r *ContextAwareRetriever) Retrieve(ctx context.Context, claimText string, topK int, metadata map[string]any) ([]EvidenceSpan, error) {
	query := claimText
	if len(claimText) < r.cfg.TerseThreshold {
		query = r.expand(claimText, metadata)
	}
	return r.inner.Retrieve(ctx, query, topK, metadata)
}

func (r *ContextAwareRetriever) expand(claimText string, metadata map[string]any) string {
	field, _ := metadata["field"].(string)
	related, ok := metadata["related_claims"].(map[string]string)
	if !ok || field == "" {
		return claimText
	}

	fieldNames, ok := r.cfg.FieldRelationships[field]
	if !ok {
		return claimText
	}

	var sb strings.Builder
	sb.WriteString(claimText)
	sep := ". "
	for _, name := range fieldNames {
		text, ok := related[name]
		if !ok || text == "" {
			continue
		}
		sb.WriteString(sep)
		sb.WriteString(text)
		sep = " "
		if r.cfg.MaxContextLength > 0 && sb.Len() >= r.cfg.MaxContextLength {
			break
		}
	}

	out := sb.String()
	if r.cfg.MaxContextLength > 0 && len(out) > r.cfg.MaxContextLength {
		out = out[:r.cfg.MaxContextLength]
	}
	return out
}
