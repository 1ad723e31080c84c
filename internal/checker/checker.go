// Package checker orchestrates the full verification pipeline: claim
// extraction, evidence retrieval (through a cached retriever), per-field
// validation, arbitration, quality analysis, and the completeness/missing-
// claims audit, producing one VerificationReport per call. Grounded on
// original_source/sourcecheck/checker.py's Checker, restructured as a
// validated Config plus a Checker built once and reused across calls
// (c.f. rag.PipelineConfig.validate / rag.Pipeline.Execute).
package checker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tangerg-labs/transcriptverify/internal/arbitration"
	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/logging"
	"github.com/tangerg-labs/transcriptverify/internal/policy"
	"github.com/tangerg-labs/transcriptverify/internal/quality"
	"github.com/tangerg-labs/transcriptverify/internal/report"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/internal/rubric"
	"github.com/tangerg-labs/transcriptverify/internal/schema"
	"github.com/tangerg-labs/transcriptverify/internal/validation"
)

// Config is the full construction-time configuration for a Checker.
// NewChecker eagerly validates the policy (including its aggregation
// config) and requires all three registries; Schema is not validated. Once
// built, a Checker's registries and policy are immutable for its lifetime.
type Config struct {
	Schema   schema.Schema
	Policies policy.Policies

	Retrievers     *retrieval.Registry
	Validators     *validation.Registry
	QualityModules *quality.Registry

	Logger logging.Logger

	// DisableRetrieverCache turns off the retriever cache entirely; the
	// zero value (false) caches, matching
	// original_source/sourcecheck/checker.py's cache_retrievers=True
	// default.
	DisableRetrieverCache bool
}

// Checker runs the verification pipeline against a fixed schema, policy, and
// set of plugin registries. Distinct Verify calls on the same Checker may
// run concurrently; the only shared mutable state is the retriever cache.
type Checker struct {
	schema   schema.Schema
	policies policy.Policies

	retrievers     *retrieval.Registry
	validators     *validation.Registry
	qualityModules *quality.Registry

	engine *arbitration.Engine
	logger logging.Logger
	cache  *retrieverCache
}

// NewChecker validates cfg and builds a Checker. Returns an error for any
// malformed policy or missing registry, matching the "configuration errors
// are fatal at construction" rule in spec.md §7.
func NewChecker(cfg Config) (*Checker, error) {
	if err := cfg.Policies.Validate(); err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}
	if cfg.Retrievers == nil {
		return nil, fmt.Errorf("checker: Retrievers registry is required")
	}
	if cfg.Validators == nil {
		return nil, fmt.Errorf("checker: Validators registry is required")
	}
	if cfg.QualityModules == nil {
		return nil, fmt.Errorf("checker: QualityModules registry is required")
	}

	arbitrationCfg, err := arbitration.ParseConfig(cfg.Policies.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("checker: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Checker{
		schema:         cfg.Schema,
		policies:       cfg.Policies,
		retrievers:     cfg.Retrievers,
		validators:     cfg.Validators,
		qualityModules: cfg.QualityModules,
		engine:         arbitration.NewEngine(arbitrationCfg, logger),
		logger:         logger,
		cache:          newRetrieverCache(!cfg.DisableRetrieverCache, cfg.Policies.MaxCacheSize),
	}, nil
}

// ClearCache zeroes the retriever cache and its hit/miss counters.
func (c *Checker) ClearCache() {
	c.cache.Clear()
}

// CacheStats reports the retriever cache's current counters.
func (c *Checker) CacheStats() CacheStats {
	return c.cache.Stats()
}

// Verify runs the full pipeline against transcript and document, producing a
// VerificationReport. document is either a nested map[string]any or a plain
// string; meta is echoed verbatim into the report. Verify is single-threaded
// cooperative: claims are processed one at a time, in extraction order —
// concurrency lives at the batch level (VerifyBatch), not within one call.
func (c *Checker) Verify(ctx context.Context, transcript string, document any, meta map[string]any) (*report.VerificationReport, error) {
	runID := uuid.NewString()

	extractor := claim.NewExtractor(c.schema)
	claims, err := extractor.Extract(document)
	if err != nil {
		return nil, fmt.Errorf("checker: extracting claims: %w", err)
	}
	c.logger.Debugf("checker: run %s extracted %d claims", runID, len(claims))

	for i := range claims {
		if claims[i].Metadata == nil {
			claims[i].Metadata = map[string]any{}
		}
		claims[i].Metadata["summary"] = document
	}

	retriever, err := c.resolveRetriever(transcript)
	if err != nil {
		return nil, fmt.Errorf("checker: resolving retriever: %w", err)
	}

	topK := c.policies.EffectiveMaxEvidenceSpans()

	dispositions := make([]report.Disposition, 0, len(claims))
	for _, cl := range claims {
		refs := c.policies.ValidatorsFor(cl.Field)
		if len(refs) == 0 {
			continue
		}

		evidence, err := retriever.Retrieve(ctx, cl.Text, topK, cl.Metadata)
		if err != nil {
			return nil, fmt.Errorf("checker: retrieving evidence for field %q: %w", cl.Field, err)
		}

		results := make([]validation.Result, 0, len(refs))
		for _, ref := range refs {
			results = append(results, c.runValidator(ctx, ref, cl, evidence, transcript))
		}

		d := c.engine.Arbitrate(cl, results, evidence)
		c.runQualityModules(&d, transcript)
		dispositions = append(dispositions, d)
	}

	summary := documentSummary(document)
	missingClaims := rubric.DetectMissingClaims(transcript, summary)
	_, completeness := rubric.Completeness(summary, c.schema)

	var overall float64
	if len(dispositions) > 0 {
		overall = round3(clamp01(0.7*c.claimScore(dispositions) + 0.3*completeness))
	}
	c.logger.Infof("checker: run %s complete: overall=%.3f dispositions=%d missing=%d", runID, overall, len(dispositions), len(missingClaims))

	return &report.VerificationReport{
		Dispositions:  dispositions,
		SourceFields:  document,
		OverallScore:  overall,
		QualityScore:  reportQualityScore(dispositions),
		MissingClaims: missingClaims,
		Issues:        nil,
		Metadata:      meta,
	}, nil
}

// BatchItem is one transcript/document pair submitted to VerifyBatch.
type BatchItem struct {
	Transcript string
	Document   any
	Meta       map[string]any
}

// BatchResult is one BatchItem's outcome. VerifyBatch stores it at the
// item's index in the submitted slice, since items complete out of order.
type BatchResult struct {
	Report *report.VerificationReport
	Err    error
}

// VerifyBatch runs Verify for every item concurrently and returns results
// in the same order as items, one per input. Each individual Verify call
// remains single-threaded; the concurrency here is across transcripts, the
// same independent-item-fan-out-with-barrier shape rag.Pipeline.retrieveByQueries
// uses for its own batch of independent retrieval calls. A single item's
// error does not cancel the others — every item runs to completion and its
// own error (if any) is reported in its BatchResult.
func (c *Checker) VerifyBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	var g errgroup.Group
	g.SetLimit(max(1, len(items)))
	for i, item := range items {
		g.Go(func() error {
			rep, err := c.Verify(ctx, item.Transcript, item.Document, item.Meta)
			results[i] = BatchResult{Report: rep, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Checker) resolveRetriever(transcript string) (retrieval.Retriever, error) {
	name := c.policies.Retriever
	if name == "" {
		name = "bm25"
	}
	config := c.policies.RetrieverConfig

	return c.cache.getOrBuild(transcript, name, config, func() (retrieval.Retriever, error) {
		return c.retrievers.New(name, transcript, config)
	})
}

// runValidator constructs the named validator and runs it, converting both a
// construction error and a runtime panic into an insufficient_evidence
// Result per spec.md §7 — ported from the single try/except wrapping both
// create_validator and validate in original_source/sourcecheck/checker.py.
func (c *Checker) runValidator(ctx context.Context, ref policy.ValidatorRef, cl claim.Claim, evidence []retrieval.EvidenceSpan, transcript string) (result validation.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = validation.Result{
				Validator:   ref.Name,
				Verdict:     validation.InsufficientEvidence,
				Explanation: fmt.Sprintf("Validator error: %v", r),
			}
		}
	}()

	v, err := c.validators.New(ref.Name, ref.Config)
	if err != nil {
		return validation.Result{
			Validator:   ref.Name,
			Verdict:     validation.InsufficientEvidence,
			Explanation: fmt.Sprintf("Validator error: %v", err),
		}
	}
	return v.Validate(ctx, cl, evidence, transcript)
}

// runQualityModules runs every declared quality module against d in order,
// then applies the one-shot confidence penalty for temporal/numeric drift
// issues — ported from original_source/sourcecheck/checker.py, including its
// narrower "temporal_drift" / "numeric_drift" type check (the multi-evidence
// numeric module emits "unit_mismatch" / "numeric_mismatch" /
// "insufficient_numeric_evidence", so in practice only temporal_drift
// issues trigger this penalty; kept as the original specifies it).
func (c *Checker) runQualityModules(d *report.Disposition, transcript string) {
	for _, ref := range c.policies.QualityModules {
		c.runQualityModule(d, ref, transcript)
	}

	if hasDriftIssue(d.QualityIssues) {
		base := 1.0
		if d.Confidence != nil {
			base = *d.Confidence
		}
		penalized := base * c.policies.EffectiveQualityConfidencePenalty()
		d.Confidence = &penalized
	}
}

func (c *Checker) runQualityModule(d *report.Disposition, ref policy.QualityModuleRef, transcript string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debugf("quality module %s panicked: %v", ref.Name, r)
		}
	}()

	m, err := c.qualityModules.New(ref.Name, ref.Config)
	if err != nil {
		c.logger.Debugf("quality module %s unavailable: %v", ref.Name, err)
		return
	}
	if !m.ShouldAnalyze(*d) {
		return
	}

	analysis := m.Analyze(*d, transcript)
	if analysis.QualityScore < 1.0 {
		d.ApplyQualityPenalty(analysis.Issues, analysis.QualityScore)
	} else {
		d.QualityIssues = append(d.QualityIssues, analysis.Issues...)
	}
}

func hasDriftIssue(issues []report.QualityIssue) bool {
	for _, issue := range issues {
		if issue.Type == "temporal_drift" || issue.Type == "numeric_drift" {
			return true
		}
	}
	return false
}

// claimScore implements policy's scoring.method over dispositions: "simple"
// counts supported verdicts; "quality_weighted" (the default) weights each
// supported claim by its quality_score.
func (c *Checker) claimScore(dispositions []report.Disposition) float64 {
	switch c.policies.EffectiveScoringMethod() {
	case policy.ScoringSimple:
		supported := 0
		for _, d := range dispositions {
			if d.Verdict == validation.Supported {
				supported++
			}
		}
		return float64(supported) / float64(len(dispositions))
	default:
		var sum float64
		for _, d := range dispositions {
			base := 0.0
			if d.Verdict == validation.Supported {
				base = 1.0
			}
			qualityFactor := 1.0
			if d.QualityScore != nil {
				qualityFactor = *d.QualityScore
			}
			sum += base * qualityFactor
		}
		return sum / float64(len(dispositions))
	}
}

// reportQualityScore is the mean of every disposition's quality_score
// (1.0 if none have one).
func reportQualityScore(dispositions []report.Disposition) float64 {
	var sum float64
	var n int
	for _, d := range dispositions {
		if d.QualityScore != nil {
			sum += *d.QualityScore
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return round3(sum / float64(n))
}

func documentSummary(document any) map[string]any {
	if m, ok := document.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
