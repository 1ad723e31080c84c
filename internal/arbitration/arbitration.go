// Package arbitration fuses the independent ValidatorResults collected for
// one Claim into a single Disposition, under a configured aggregation
// strategy and optional conflict-resolution rules. Grounded line-for-line on
// original_source/checker/arbitration.py's ArbitrationEngine, restructured
// as a validated Config plus an Engine built once and reused across claims
// (c.f. rag.PipelineConfig.validate / rag.Pipeline).
package arbitration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/logging"
	"github.com/tangerg-labs/transcriptverify/internal/report"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/internal/validation"
	"github.com/tangerg-labs/transcriptverify/pkg/sets"
)

// Strategy names the five supported aggregation strategies.
type Strategy string

const (
	WeightedVoting Strategy = "weighted_voting"
	PriorityBased  Strategy = "priority_based"
	Unanimous      Strategy = "unanimous"
	Majority       Strategy = "majority"
	FirstWins      Strategy = "first_wins"
)

var validStrategies = map[Strategy]bool{
	WeightedVoting: true,
	PriorityBased:  true,
	Unanimous:      true,
	Majority:       true,
	FirstWins:      true,
}

var validVerdicts = map[validation.Verdict]bool{
	validation.Supported:            true,
	validation.Refuted:              true,
	validation.InsufficientEvidence: true,
}

const maxEvidenceSpans = 5

// ConflictRule is one config-driven rule the engine checks when the
// validators named in it disagree. Action is currently limited to
// "check_lexical_overlap"; unrecognized actions are accepted at construction
// (so future actions can ship config-only) but never fire.
type ConflictRule struct {
	Validators    []string
	Action        string
	Threshold     float64
	ResultIfAbove validation.Verdict
}

// Config drives an Engine's behavior. Zero-value Config resolves to
// PriorityBased with the default verdict priority.
type Config struct {
	Strategy         Strategy
	DefaultWeights   map[string]float64
	VerdictPriority  []validation.Verdict
	ConflictRules    []ConflictRule
	ExplainConflicts bool
	MinConfidence    float64
}

// ParseConfig builds a Config from a generic policy map, applying the same
// defaults as the original: priority_based strategy, refuted-first priority
// order, conflict explanations on. Returns an error for any malformed field,
// matching the original's eager validate_config at construction time.
func ParseConfig(raw map[string]any) (Config, error) {
	cfg := Config{
		Strategy:         PriorityBased,
		VerdictPriority:  []validation.Verdict{validation.Refuted, validation.Supported, validation.InsufficientEvidence},
		ExplainConflicts: true,
	}
	if raw == nil {
		return cfg, nil
	}

	if v, ok := raw["strategy"]; ok {
		s, ok := v.(string)
		if !ok {
			return Config{}, fmt.Errorf("arbitration: strategy must be a string, got %T", v)
		}
		cfg.Strategy = Strategy(s)
	}
	if !validStrategies[cfg.Strategy] {
		return Config{}, fmt.Errorf("arbitration: invalid strategy %q, must be one of weighted_voting, priority_based, unanimous, majority, first_wins", cfg.Strategy)
	}

	if v, ok := raw["default_weights"]; ok {
		weights, err := parseWeights(v)
		if err != nil {
			return Config{}, err
		}
		cfg.DefaultWeights = weights
	}
	if cfg.Strategy == WeightedVoting && len(cfg.DefaultWeights) == 0 {
		return Config{}, fmt.Errorf("arbitration: weighted_voting strategy requires non-empty default_weights configuration")
	}

	if v, ok := raw["verdict_priority"]; ok {
		priority, err := parsePriority(v)
		if err != nil {
			return Config{}, err
		}
		cfg.VerdictPriority = priority
	}

	if v, ok := raw["conflict_resolution"]; ok {
		rules, err := parseConflictRules(v)
		if err != nil {
			return Config{}, err
		}
		cfg.ConflictRules = rules
	}

	if v, ok := raw["explain_conflicts"]; ok {
		b, ok := v.(bool)
		if !ok {
			return Config{}, fmt.Errorf("arbitration: explain_conflicts must be a bool, got %T", v)
		}
		cfg.ExplainConflicts = b
	}

	if v, ok := raw["min_confidence"]; ok {
		f, ok := asFloat(v)
		if !ok {
			return Config{}, fmt.Errorf("arbitration: min_confidence must be a number, got %T", v)
		}
		cfg.MinConfidence = f
	}

	return cfg, nil
}

func parseWeights(v any) (map[string]float64, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arbitration: default_weights must be a map, got %T", v)
	}
	weights := make(map[string]float64, len(raw))
	for name, wv := range raw {
		f, ok := asFloat(wv)
		if !ok || f < 0 {
			return nil, fmt.Errorf("arbitration: invalid weight for validator %q: %v, weights must be non-negative numbers", name, wv)
		}
		weights[name] = f
	}
	return weights, nil
}

func parsePriority(v any) ([]validation.Verdict, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("arbitration: verdict_priority must be a list, got %T", v)
	}
	priority := make([]validation.Verdict, 0, len(raw))
	for _, pv := range raw {
		s, ok := pv.(string)
		if !ok {
			return nil, fmt.Errorf("arbitration: verdict_priority entries must be strings, got %T", pv)
		}
		verdict := validation.Verdict(s)
		if !validVerdicts[verdict] {
			return nil, fmt.Errorf("arbitration: invalid verdict in priority order: %q", s)
		}
		priority = append(priority, verdict)
	}
	return priority, nil
}

func parseConflictRules(v any) ([]ConflictRule, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("arbitration: conflict_resolution must be a list, got %T", v)
	}
	rules := make([]ConflictRule, 0, len(raw))
	for i, rv := range raw {
		rm, ok := rv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("arbitration: conflict rule %d must be a map", i)
		}
		action, ok := rm["action"].(string)
		if !ok || action == "" {
			return nil, fmt.Errorf("arbitration: conflict rule %d missing required 'action' field", i)
		}
		validatorsRaw, ok := rm["validators"]
		if !ok {
			return nil, fmt.Errorf("arbitration: conflict rule %d missing required 'validators' field", i)
		}
		validatorsList, ok := validatorsRaw.([]any)
		if !ok {
			return nil, fmt.Errorf("arbitration: conflict rule %d: 'validators' must be a list", i)
		}
		if len(validatorsList) < 2 {
			return nil, fmt.Errorf("arbitration: conflict rule %d: 'validators' must contain at least 2 validators, got %v", i, validatorsList)
		}
		names := make([]string, 0, len(validatorsList))
		for _, nv := range validatorsList {
			s, ok := nv.(string)
			if !ok {
				return nil, fmt.Errorf("arbitration: conflict rule %d: validator names must be strings", i)
			}
			names = append(names, s)
		}

		rule := ConflictRule{Validators: names, Action: action, ResultIfAbove: validation.Supported}

		if action == "check_lexical_overlap" {
			thresholdRaw, ok := rm["threshold"]
			if !ok {
				return nil, fmt.Errorf("arbitration: conflict rule %d: 'check_lexical_overlap' action requires 'threshold' field", i)
			}
			threshold, ok := asFloat(thresholdRaw)
			if !ok || threshold < 0 || threshold > 1 {
				return nil, fmt.Errorf("arbitration: conflict rule %d: 'threshold' must be a number between 0 and 1, got %v", i, thresholdRaw)
			}
			rule.Threshold = threshold
			if riaRaw, ok := rm["result_if_above"]; ok {
				ria, ok := riaRaw.(string)
				if !ok {
					return nil, fmt.Errorf("arbitration: conflict rule %d: 'result_if_above' must be a string", i)
				}
				rule.ResultIfAbove = validation.Verdict(ria)
			}
		}

		rules = append(rules, rule)
	}
	return rules, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Engine arbitrates between validator results for a claim according to its
// Config.
type Engine struct {
	cfg    Config
	logger logging.Logger
}

// NewEngine builds an Engine from an already-parsed Config. Use ParseConfig
// first if config came from a generic map.
func NewEngine(cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if len(cfg.VerdictPriority) == 0 {
		cfg.VerdictPriority = []validation.Verdict{validation.Refuted, validation.Supported, validation.InsufficientEvidence}
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Arbitrate resolves validatorResults for claim into a Disposition. Evidence
// is the full retrieved span list for the claim; the Disposition retains at
// most the first 5.
func (e *Engine) Arbitrate(c claim.Claim, validatorResults []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	cappedEvidence := evidence
	if len(cappedEvidence) > maxEvidenceSpans {
		cappedEvidence = cappedEvidence[:maxEvidenceSpans]
	}

	if len(validatorResults) == 0 {
		return report.Disposition{
			Claim:       c,
			Verdict:     validation.InsufficientEvidence,
			Evidence:    cappedEvidence,
			Validator:   "arbitration_engine",
			Explanation: "No validator results to arbitrate",
		}
	}

	if len(validatorResults) == 1 {
		vr := validatorResults[0]
		d := report.Disposition{
			Claim:            c,
			Verdict:          vr.Verdict,
			Evidence:         cappedEvidence,
			Validator:        vr.Validator,
			Explanation:      vr.Explanation,
			ValidatorResults: validatorResults,
			Confidence:       vr.Score,
		}
		return d
	}

	hasConflict := distinctVerdicts(validatorResults).Size() > 1

	if hasConflict && len(e.cfg.ConflictRules) > 0 {
		if resolved, ok := e.applyConflictRules(c, validatorResults, cappedEvidence); ok {
			return resolved
		}
	}

	var disposition report.Disposition
	switch e.cfg.Strategy {
	case WeightedVoting:
		disposition = e.weightedVoting(c, validatorResults, cappedEvidence)
	case Unanimous:
		disposition = e.unanimous(c, validatorResults, cappedEvidence)
	case Majority:
		disposition = e.majority(c, validatorResults, cappedEvidence)
	case FirstWins:
		disposition = e.firstWins(c, validatorResults, cappedEvidence)
	default:
		disposition = e.priorityBased(c, validatorResults, cappedEvidence)
	}

	quality := e.qualityScore(validatorResults, disposition.Verdict)
	disposition.QualityScore = &quality

	var weightsLogged map[string]float64
	if e.cfg.Strategy == WeightedVoting {
		weightsLogged = e.cfg.DefaultWeights
	}
	e.logger.Debugf(
		"arbitration decision: field=%s strategy=%s verdicts=%v final=%s quality=%.3f conflict=%v weights=%v",
		c.Field, e.cfg.Strategy, verdictsByValidator(validatorResults), disposition.Verdict, quality, hasConflict, weightsLogged,
	)

	return disposition
}

func distinctVerdicts(results []validation.Result) sets.Set[validation.Verdict] {
	set := sets.NewHashSet[validation.Verdict](len(results))
	for _, vr := range results {
		set.Add(vr.Verdict)
	}
	return set
}

func verdictsByValidator(results []validation.Result) map[string]validation.Verdict {
	m := make(map[string]validation.Verdict, len(results))
	for _, vr := range results {
		m[vr.Validator] = vr.Verdict
	}
	return m
}

func (e *Engine) applyConflictRules(c claim.Claim, validatorResults []validation.Result, evidence []retrieval.EvidenceSpan) (report.Disposition, bool) {
	for _, rule := range e.cfg.ConflictRules {
		if len(rule.Validators) < 2 {
			continue
		}

		matched := make([]validation.Result, 0, len(rule.Validators))
		for _, name := range rule.Validators {
			for _, vr := range validatorResults {
				if vr.Validator == name {
					matched = append(matched, vr)
					break
				}
			}
		}
		if len(matched) != len(rule.Validators) {
			continue
		}
		if distinctVerdicts(matched).Size() <= 1 {
			continue
		}

		if rule.Action != "check_lexical_overlap" || len(evidence) == 0 {
			continue
		}

		overlap := lexicalOverlap(c.Text, evidence[0].Text)
		conflictDesc := describeConflict(matched)

		var verdict validation.Verdict
		var explanation string
		if overlap >= rule.Threshold {
			verdict = rule.ResultIfAbove
			explanation = fmt.Sprintf(
				"Conflict resolved via lexical overlap: %s. Overlap %.2f >= %v threshold, accepting as %s.",
				conflictDesc, overlap, rule.Threshold, verdict,
			)
		} else {
			hasRefuted := false
			for _, vr := range matched {
				if vr.Verdict == validation.Refuted {
					hasRefuted = true
					break
				}
			}
			if hasRefuted {
				verdict = validation.Refuted
			} else {
				verdict = validation.InsufficientEvidence
			}
			explanation = fmt.Sprintf(
				"Conflict resolved via lexical overlap: %s. Overlap %.2f < %v threshold, accepting as %s.",
				conflictDesc, overlap, rule.Threshold, verdict,
			)
		}

		return report.Disposition{
			Claim:            c,
			Verdict:          verdict,
			Evidence:         evidence,
			Validator:        "arbitration_engine",
			Explanation:      explanation,
			ValidatorResults: validatorResults,
		}, true
	}
	return report.Disposition{}, false
}

func describeConflict(matched []validation.Result) string {
	parts := make([]string, 0, len(matched))
	for _, vr := range matched {
		parts = append(parts, fmt.Sprintf("%s=%s", vr.Validator, vr.Verdict))
	}
	return strings.Join(parts, " vs ")
}

func lexicalOverlap(a, b string) float64 {
	words1 := toWordSet(a)
	words2 := toWordSet(b)
	if words1.IsEmpty() || words2.IsEmpty() {
		return 0
	}

	intersection := sets.Intersection(words1, words2).Size()
	union := sets.Union(words1, words2)
	if union.IsEmpty() {
		return 0
	}
	return float64(intersection) / float64(union.Size())
}

func toWordSet(s string) sets.Set[string] {
	words := strings.Fields(strings.ToLower(s))
	set := sets.NewHashSet[string](len(words))
	set.AddAll(words...)
	return set
}

func (e *Engine) qualityScore(results []validation.Result, finalVerdict validation.Verdict) float64 {
	if len(results) <= 1 {
		return 1.0
	}

	agreementCount := 0
	overriddenRefutation := false
	for _, vr := range results {
		if vr.Verdict == finalVerdict {
			agreementCount++
		}
		if vr.Verdict == validation.Refuted && finalVerdict != validation.Refuted {
			overriddenRefutation = true
		}
	}

	rate := float64(agreementCount) / float64(len(results))
	if overriddenRefutation {
		rate *= 0.9
	}
	return round3(rate)
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}

func (e *Engine) weightedVoting(c claim.Claim, results []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	scores := map[validation.Verdict]float64{
		validation.Supported:            0,
		validation.Refuted:              0,
		validation.InsufficientEvidence: 0,
	}
	for _, vr := range results {
		weight := 1.0
		if w, ok := e.cfg.DefaultWeights[vr.Validator]; ok {
			weight = w
		}
		confidence := 1.0
		if vr.Score != nil {
			confidence = *vr.Score
		}
		scores[vr.Verdict] += weight * confidence
	}

	final := highestScoringVerdict(scores)

	explanation := fmt.Sprintf("Weighted voting result: %s. Scores: %v. ", final, scores)
	if e.cfg.ExplainConflicts {
		explanation += fmt.Sprintf("Validators (name, verdict, weight, confidence): %s", describeWeighted(results, e.cfg.DefaultWeights))
	}

	return report.Disposition{
		Claim:            c,
		Verdict:          final,
		Evidence:         evidence,
		Validator:        "arbitration_engine",
		Explanation:      explanation,
		ValidatorResults: results,
	}
}

func highestScoringVerdict(scores map[validation.Verdict]float64) validation.Verdict {
	order := []validation.Verdict{validation.Supported, validation.Refuted, validation.InsufficientEvidence}
	best := order[0]
	bestScore := scores[best]
	for _, v := range order[1:] {
		if scores[v] > bestScore {
			best = v
			bestScore = scores[v]
		}
	}
	return best
}

func describeWeighted(results []validation.Result, weights map[string]float64) string {
	parts := make([]string, 0, len(results))
	for _, vr := range results {
		weight := 1.0
		if w, ok := weights[vr.Validator]; ok {
			weight = w
		}
		confidence := 1.0
		if vr.Score != nil {
			confidence = *vr.Score
		}
		parts = append(parts, fmt.Sprintf("(%s, %s, %v, %v)", vr.Validator, vr.Verdict, weight, confidence))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *Engine) priorityBased(c claim.Claim, results []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	for _, priorityVerdict := range e.cfg.VerdictPriority {
		for _, vr := range results {
			if vr.Verdict != priorityVerdict {
				continue
			}
			explanation := vr.Explanation
			if e.cfg.ExplainConflicts && len(results) > 1 {
				explanation += fmt.Sprintf(" (Priority-based selection. Other validators: %s)", describeOthers(results, vr))
			}
			return report.Disposition{
				Claim:            c,
				Verdict:          vr.Verdict,
				Evidence:         evidence,
				Validator:        vr.Validator,
				Explanation:      explanation,
				ValidatorResults: results,
				Confidence:       vr.Score,
			}
		}
	}
	return report.Disposition{
		Claim:            c,
		Verdict:          validation.InsufficientEvidence,
		Evidence:         evidence,
		Validator:        "arbitration_engine",
		Explanation:      "No validators provided conclusive verdict",
		ValidatorResults: results,
	}
}

func describeOthers(results []validation.Result, exclude validation.Result) string {
	parts := make([]string, 0, len(results))
	for _, vr := range results {
		if vr.Validator == exclude.Validator && vr.Verdict == exclude.Verdict && vr.Explanation == exclude.Explanation {
			continue
		}
		parts = append(parts, fmt.Sprintf("(%s, %s)", vr.Validator, vr.Verdict))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *Engine) unanimous(c claim.Claim, results []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	distinct := distinctVerdicts(results)
	var verdict validation.Verdict
	var explanation string
	if distinct.Size() == 1 {
		verdict = results[0].Verdict
		explanation = fmt.Sprintf("Unanimous verdict: %s from all %d validators", verdict, len(results))
	} else {
		verdict = validation.InsufficientEvidence
		explanation = fmt.Sprintf("No unanimous verdict. Counts: %v", countVerdicts(results))
	}
	return report.Disposition{
		Claim:            c,
		Verdict:          verdict,
		Evidence:         evidence,
		Validator:        "arbitration_engine",
		Explanation:      explanation,
		ValidatorResults: results,
	}
}

func (e *Engine) majority(c claim.Claim, results []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	counts := countVerdicts(results)

	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	winners := make([]validation.Verdict, 0, 1)
	for v, n := range counts {
		if n == maxCount {
			winners = append(winners, v)
		}
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })

	var verdict validation.Verdict
	var explanation string
	if len(winners) == 1 {
		verdict = winners[0]
		explanation = fmt.Sprintf("Majority vote: %s (%d/%d validators)", verdict, maxCount, len(results))
	} else {
		verdict = validation.InsufficientEvidence
		explanation = fmt.Sprintf("Tie in majority vote: %v", counts)
	}
	return report.Disposition{
		Claim:            c,
		Verdict:          verdict,
		Evidence:         evidence,
		Validator:        "arbitration_engine",
		Explanation:      explanation,
		ValidatorResults: results,
	}
}

func countVerdicts(results []validation.Result) map[validation.Verdict]int {
	counts := make(map[validation.Verdict]int)
	for _, vr := range results {
		counts[vr.Verdict]++
	}
	return counts
}

func (e *Engine) firstWins(c claim.Claim, results []validation.Result, evidence []retrieval.EvidenceSpan) report.Disposition {
	vr := results[0]
	explanation := vr.Explanation
	if e.cfg.ExplainConflicts && len(results) > 1 {
		parts := make([]string, 0, len(results)-1)
		for _, other := range results[1:] {
			parts = append(parts, fmt.Sprintf("(%s, %s)", other.Validator, other.Verdict))
		}
		explanation += fmt.Sprintf(" (First-wins strategy. Other validators: [%s])", strings.Join(parts, ", "))
	}
	return report.Disposition{
		Claim:            c,
		Verdict:          vr.Verdict,
		Evidence:         evidence,
		Validator:        vr.Validator,
		Explanation:      explanation,
		ValidatorResults: results,
		Confidence:       vr.Score,
	}
}
