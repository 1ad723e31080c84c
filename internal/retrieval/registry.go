package retrieval

import "fmt"

// Registry is a fixed table from retriever name to Factory. Registration of
// a duplicate name panics at static-init time (a programmer error); lookup
// of an unknown name returns an error, fatal to the construction that asked
// for it — per SPEC_FULL.md §6 and Design Notes §9 ("avoid dynamic scan of
// modules; unknown plugin at lookup is a hard error").
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. It panics if the name is already
// registered.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("retrieval: retriever %q already registered", name))
	}
	r.factories[name] = factory
}

// New constructs a Retriever by name, bound to the given transcript and
// config.
func (r *Registry) New(name, transcript string, config map[string]any) (Retriever, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("retrieval: unknown retriever %q", name)
	}
	return factory(transcript, config)
}

// NewDefaultRegistry returns a Registry pre-populated with the built-in
// retrievers: bm25, semantic, and context_aware (the latter wraps whichever
// inner retriever its config names).
func NewDefaultRegistry(embedder Embedder) *Registry {
	reg := NewRegistry()
	reg.Register("bm25", func(transcript string, config map[string]any) (Retriever, error) {
		return NewBM25Retriever(transcript, parseBM25Config(config))
	})
	reg.Register("semantic", func(transcript string, config map[string]any) (Retriever, error) {
		return NewSemanticRetriever(transcript, parseSemanticConfig(config), embedder)
	})
	reg.Register("context_aware", func(transcript string, config map[string]any) (Retriever, error) {
		innerName, _ := config["retriever"].(string)
		if innerName == "" {
			innerName = "bm25"
		}
		inner, err := reg.New(innerName, transcript, config)
		if err != nil {
			return nil, err
		}
		return NewContextAwareRetriever(inner, parseContextAwareConfig(config)), nil
	})
	return reg
}
