package validation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
	"github.com/tangerg-labs/transcriptverify/pkg/sets"
)

// LexicalCoverageConfig configures the coverage threshold and fabrication
// penalty.
type LexicalCoverageConfig struct {
	MinCoverage     float64
	FabricationWeight float64
	MaxPenalty      float64
	EntityBoost     float64
}

func parseLexicalCoverageConfig(config map[string]any) LexicalCoverageConfig {
	cfg := LexicalCoverageConfig{MinCoverage: 0.20, FabricationWeight: 0.5, MaxPenalty: 0.5, EntityBoost: 0.20}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["min_coverage"]); ok {
		cfg.MinCoverage = v
	}
	if v, ok := floatFrom(config["fabrication_penalty"]); ok {
		cfg.FabricationWeight = v
	}
	if v, ok := floatFrom(config["max_penalty"]); ok {
		cfg.MaxPenalty = v
	}
	if v, ok := floatFrom(config["entity_boost"]); ok {
		cfg.EntityBoost = v
	}
	return cfg
}

var lexicalWordPattern = regexp.MustCompile(`[a-z0-9']+`)

var lexicalStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "is": {}, "was": {}, "were": {}, "are": {}, "been": {}, "be": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "must": {}, "can": {}, "of": {}, "with": {}, "from": {}, "by": {}, "as": {},
}

var ageNumberPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

var genderTerms = map[string][]string{
	"male":   {"male", "man", "men", "boy", "gentleman", "he", "his", "him"},
	"female": {"female", "woman", "women", "girl", "lady", "she", "her", "hers"},
}

// LexicalCoverageValidator flags claims whose tokens are poorly covered by
// the aggregated evidence text, with an entity-match boost for paraphrased
// age/gender mentions and a capped penalty for fabricated two-word
// phrases. Grounded on
// original_source/sourcecheck/validators/lexical_coverage_validator.py.
type LexicalCoverageValidator struct {
	cfg LexicalCoverageConfig
}

func NewLexicalCoverageValidator(cfg LexicalCoverageConfig) *LexicalCoverageValidator {
	return &LexicalCoverageValidator{cfg: cfg}
}

func (v *LexicalCoverageValidator) Name() string { return "lexical_coverage_validator" }

func (v *LexicalCoverageValidator) tokenize(text string) []string {
	var out []string
	for _, w := range lexicalWordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := lexicalStopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

func (v *LexicalCoverageValidator) Validate(_ context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence available for lexical coverage analysis")
	}

	var parts []string
	for _, ev := range evidence {
		if t := strings.TrimSpace(ev.Text); t != "" {
			parts = append(parts, t)
		}
	}
	evidenceText := strings.Join(parts, " ")
	if strings.TrimSpace(evidenceText) == "" {
		return insufficientEvidence(v.Name(), "evidence provided but contains no text content")
	}

	coverage := v.coverage(c.Text, evidenceText)
	fabricated := v.fabricatedPhrases(c.Text, evidenceText)

	adjusted := coverage
	if len(fabricated) > 0 {
		claimWordCount := len(strings.Fields(c.Text)) - 1
		if claimWordCount < 1 {
			claimWordCount = 1
		}
		ratio := float64(len(fabricated)) / float64(claimWordCount)
		penalty := minFloat(v.cfg.FabricationWeight*ratio, v.cfg.MaxPenalty)
		adjusted = coverage * (1 - penalty)
	}

	meta := map[string]any{
		"coverage":          coverage,
		"adjusted_coverage":  adjusted,
		"fabricated_phrases": fabricated,
		"fabricated_count":   len(fabricated),
	}

	if adjusted < v.cfg.MinCoverage {
		return Result{
			Validator:   v.Name(),
			Verdict:     Refuted,
			Explanation: fmt.Sprintf("low lexical coverage (%.2f, adjusted %.2f)", coverage, adjusted),
			Score:       floatPtr(adjusted),
			Metadata:    meta,
		}
	}
	return Result{
		Validator:   v.Name(),
		Verdict:     Supported,
		Explanation: fmt.Sprintf("adequate lexical coverage (%.2f)", coverage),
		Score:       floatPtr(adjusted),
		Metadata:    meta,
	}
}

func (v *LexicalCoverageValidator) coverage(claimText, evidenceText string) float64 {
	claimWords := toSet(v.tokenize(claimText))
	evidenceWords := toSet(v.tokenize(evidenceText))
	if claimWords.IsEmpty() {
		return 1.0
	}

	overlap := 0
	for w := range claimWords.Iter() {
		if evidenceWords.Contains(w) {
			overlap++
		}
	}
	coverage := float64(overlap) / float64(claimWords.Size())

	if ageMatch(claimText, evidenceText) && genderMatch(claimText, evidenceText) {
		coverage = minFloat(coverage+v.cfg.EntityBoost, 1.0)
	}
	return coverage
}

func (v *LexicalCoverageValidator) fabricatedPhrases(claimText, evidenceText string) []string {
	words := v.tokenize(claimText)
	evidenceLower := strings.ToLower(evidenceText)

	var fabricated []string
	for i := 0; i < len(words)-1; i++ {
		phrase := words[i] + " " + words[i+1]
		if strings.Contains(evidenceLower, phrase) {
			continue
		}
		if !strings.Contains(evidenceLower, words[i]) && !strings.Contains(evidenceLower, words[i+1]) {
			fabricated = append(fabricated, phrase)
		}
	}
	return fabricated
}

func ageMatch(claimText, evidenceText string) bool {
	claimAges := ages(claimText)
	evidenceAges := ages(evidenceText)
	return claimAges.ContainsAny(evidenceAges.ToSlice()...)
}

func ages(text string) sets.Set[int] {
	out := sets.NewHashSet[int]()
	for _, m := range ageNumberPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 120 {
			continue
		}
		out.Add(n)
	}
	return out
}

func genderMatch(claimText, evidenceText string) bool {
	claimLower := strings.ToLower(claimText)
	evidenceLower := strings.ToLower(evidenceText)
	for _, terms := range genderTerms {
		claimHas, evidenceHas := false, false
		for _, term := range terms {
			if strings.Contains(claimLower, term) {
				claimHas = true
			}
			if strings.Contains(evidenceLower, term) {
				evidenceHas = true
			}
		}
		if claimHas && evidenceHas {
			return true
		}
	}
	return false
}

func toSet(words []string) sets.Set[string] {
	out := sets.NewHashSet[string](len(words))
	out.AddAll(words...)
	return out
}

var _ Validator = (*LexicalCoverageValidator)(nil)
