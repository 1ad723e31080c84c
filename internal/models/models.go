// Package models declares the external machine-learning contracts the
// pipeline depends on: sentence embeddings, natural-language-inference
// classification, and negation tagging. Concrete backends are out of scope
// (spec.md §1) — this package only fixes the input/output contract and a
// process-wide lazy singleton for acquiring handles, mirroring the
// "construct once, pass by reference" treatment of chat.Model.
package models

import (
	"context"
	"sync"
)

// Embedder turns text into a fixed-size vector. Implementations must be
// safe for concurrent use; the pipeline treats a handle as read-only after
// construction.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NLILabel is the closed set of natural-language-inference outcomes.
type NLILabel string

const (
	NLIEntailment    NLILabel = "entailment"
	NLINeutral       NLILabel = "neutral"
	NLIContradiction NLILabel = "contradiction"
)

// NLIResult is the classification of a (premise, hypothesis) pair.
type NLIResult struct {
	Label      NLILabel
	Confidence float64
}

// NLIClassifier classifies a premise/hypothesis pair.
type NLIClassifier interface {
	Classify(ctx context.Context, premise, hypothesis string) (NLIResult, error)
}

// NegatedEntity is a span of text the tagger has identified as negated,
// together with the sentence it occurs in.
type NegatedEntity struct {
	Entity   string
	Sentence string
	Start    int
	End      int
}

// NegationTagger finds negated entities within a document and can answer
// whether a short span of text is itself phrased as a negation.
type NegationTagger interface {
	Negations(ctx context.Context, text string) ([]NegatedEntity, error)
	IsNegated(ctx context.Context, text string) (bool, error)
}

// Registry lazily constructs and caches the process-wide model handles.
// Validators obtain references through it instead of constructing their own,
// so a real (or test-double) model is loaded at most once per process.
type Registry struct {
	embedderOnce sync.Once
	embedder     Embedder
	embedderErr  error
	newEmbedder  func() (Embedder, error)

	nliOnce sync.Once
	nli     NLIClassifier
	nliErr  error
	newNLI  func() (NLIClassifier, error)

	negOnce sync.Once
	neg     NegationTagger
	negErr  error
	newNeg  func() (NegationTagger, error)
}

// NewRegistry builds a Registry from factory functions. Any factory may be
// nil; calling the corresponding accessor then returns an error instead of
// constructing a handle.
func NewRegistry(newEmbedder func() (Embedder, error), newNLI func() (NLIClassifier, error), newNeg func() (NegationTagger, error)) *Registry {
	return &Registry{newEmbedder: newEmbedder, newNLI: newNLI, newNeg: newNeg}
}

func (r *Registry) Embedder() (Embedder, error) {
	r.embedderOnce.Do(func() {
		if r.newEmbedder == nil {
			r.embedderErr = errNoFactory("embedder")
			return
		}
		r.embedder, r.embedderErr = r.newEmbedder()
	})
	return r.embedder, r.embedderErr
}

func (r *Registry) NLIClassifier() (NLIClassifier, error) {
	r.nliOnce.Do(func() {
		if r.newNLI == nil {
			r.nliErr = errNoFactory("nli classifier")
			return
		}
		r.nli, r.nliErr = r.newNLI()
	})
	return r.nli, r.nliErr
}

func (r *Registry) NegationTagger() (NegationTagger, error) {
	r.negOnce.Do(func() {
		if r.newNeg == nil {
			r.negErr = errNoFactory("negation tagger")
			return
		}
		r.neg, r.negErr = r.newNeg()
	})
	return r.neg, r.negErr
}

type noFactoryError struct{ kind string }

func (e noFactoryError) Error() string { return "models: no factory configured for " + e.kind }

func errNoFactory(kind string) error { return noFactoryError{kind: kind} }
