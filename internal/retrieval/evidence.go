// Package retrieval builds a transcript index once and answers top-k
// evidence queries against it. Grounded on the
// rag.DocumentRetriever interface (ai/rag/interface.go), generalized from
// "retrieve documents for a query" to "retrieve transcript spans for a
// claim", and on original_source/sourcecheck/retrieval for chunking and
// scoring semantics.
package retrieval

import "context"

// EvidenceSpan is a contiguous excerpt of the transcript with a relevance
// score in [0,1].
type EvidenceSpan struct {
	Text     string
	StartIdx int
	EndIdx   int
	Score    float64
}

// Retriever answers top-k evidence queries against a transcript that was
// indexed once at construction time. Implementations must be pure with
// respect to the indexed transcript and idempotent per call.
type Retriever interface {
	Retrieve(ctx context.Context, claimText string, topK int, metadata map[string]any) ([]EvidenceSpan, error)
}

// Factory constructs a Retriever bound to a specific transcript and config.
type Factory func(transcript string, config map[string]any) (Retriever, error)
