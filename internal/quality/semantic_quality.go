package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/report"
)

// SemanticQualityConfig configures SemanticQualityModule. Grounded on
// original_source/sourcecheck/quality/semantic_quality.py's constructor
// defaults.
type SemanticQualityConfig struct {
	MinQualityScore     float64
	MinConfidence       float64
	AnalyzeInsufficient bool
	MaxIssues           int
	MinPhraseLength     int
}

func parseSemanticQualityConfig(config map[string]any) SemanticQualityConfig {
	return SemanticQualityConfig{
		MinQualityScore:     floatFrom(config, "min_quality_score", 0.95),
		MinConfidence:       floatFrom(config, "min_confidence", 0.75),
		AnalyzeInsufficient: boolFrom(config, "analyze_insufficient", true),
		MaxIssues:           intFrom(config, "max_issues", 3),
		MinPhraseLength:     intFrom(config, "min_phrase_length", 2),
	}
}

var (
	properNounPattern  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	measurementPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(x\s*\d+(?:\.\d+)?\s*)?(mg|cm|mm|kg|lb|g|ml|years?|months?|days?|hours?|minutes?|weeks?)`)
	quotedPhrasePattern = regexp.MustCompile(`"([^"]+)"`)

	contextualPhrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)for (?:my|his|her|their|the) \w+(?:\s+\w+)?`),
		regexp.MustCompile(`(?i)with (?:my|his|her|their|the) \w+(?:\s+\w+)?`),
		regexp.MustCompile(`(?i)about (?:my|his|her|their|the) \w+(?:\s+\w+)?`),
		regexp.MustCompile(`(?i)according to (?:the )?\w+`),
		regexp.MustCompile(`(?i)per (?:the )?\w+`),
	}

	descriptivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(wet|dry|deep|shallow|severe|mild|moderate|acute|chronic|large|small)\s+\w+`),
		regexp.MustCompile(`(?i)\b(hospital|clinic|emergency|urgent)\s+\w+`),
	}

	symptomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(dizziness|nausea|vomiting|headache|fever|chills|weakness|fatigue)\b`),
		regexp.MustCompile(`(?i)\b(pain|ache|discomfort|soreness)\s+(?:in|at|around)\s+\w+`),
	}

	properNounStopwords = map[string]bool{
		"The": true, "A": true, "An": true, "This": true, "That": true,
		"These": true, "Those": true, "I": true, "He": true, "She": true,
	}

	meaningfulStopwords = map[string]bool{
		"the": true, "a": true, "an": true, "it": true, "this": true, "that": true,
		"these": true, "those": true, "by": true, "at": true, "in": true, "on": true,
	}

	fabricationStopTerms = buildFabricationStopTerms()
)

func buildFabricationStopTerms() map[string]bool {
	words := []string{
		"there", "her", "his", "its", "the", "a", "an", "patient", "subject",
		"this", "that", "these", "those", "he", "she", "it", "they", "them",
		"their", "our", "your", "my", "i", "we", "you", "who", "which", "what",
		"when", "where", "why", "how", "is", "was", "are", "were", "been", "be",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "must", "can", "of", "in", "on", "at", "to",
		"for", "with", "from", "by", "about", "as", "into", "through", "during",
		"before", "after", "above", "below", "between", "under", "over", "again",
		"further", "then", "once", "here", "also", "all", "both", "each", "few",
		"more", "most", "other", "some", "such", "no", "nor", "not", "only", "own",
		"same", "so", "than", "too", "very", "just", "now",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// SemanticQualityModule detects likely omissions (important evidence detail
// missing from the claim) and fabrications (claim detail absent from
// evidence) with no ML dependency, using the same regex-heuristic family as
// the Python original.
type SemanticQualityModule struct {
	cfg SemanticQualityConfig
}

// NewSemanticQualityModule builds a SemanticQualityModule.
func NewSemanticQualityModule(cfg SemanticQualityConfig) *SemanticQualityModule {
	return &SemanticQualityModule{cfg: cfg}
}

func (m *SemanticQualityModule) Name() string { return "semantic_quality" }

func (m *SemanticQualityModule) ShouldAnalyze(d report.Disposition) bool {
	return defaultShouldAnalyze(d, m.cfg.MinQualityScore, m.cfg.MinConfidence, m.cfg.AnalyzeInsufficient)
}

func (m *SemanticQualityModule) Analyze(d report.Disposition, transcript string) Analysis {
	if !m.ShouldAnalyze(d) || len(d.Evidence) == 0 {
		return Analysis{QualityScore: 1.0}
	}

	claimText := d.Claim.Text
	evidenceText := d.Evidence[0].Text

	var issues []report.QualityIssue

	for _, detail := range m.findMissingImportantDetails(claimText, evidenceText) {
		if len(issues) >= m.cfg.MaxIssues {
			break
		}
		issues = append(issues, report.QualityIssue{
			Type:            "omission",
			Severity:        report.SeverityLow,
			Detail:          fmt.Sprintf("Claim omits important detail: '%s'", detail),
			EvidenceSnippet: snippetAround(evidenceText, detail, 40),
			ClaimSnippet:    truncate(claimText, 100),
			Suggestion:      fmt.Sprintf("Consider including: '%s'", detail),
		})
	}

	for _, detail := range m.fabricatedPhrases(claimText, evidenceText) {
		if len(issues) >= m.cfg.MaxIssues {
			break
		}
		issues = append(issues, report.QualityIssue{
			Type:            "fabrication",
			Severity:        report.SeverityHigh,
			Detail:          fmt.Sprintf("Claim includes detail not found in evidence: '%s'", detail),
			EvidenceSnippet: truncate(evidenceText, 100),
			ClaimSnippet:    snippetAround(claimText, detail, 40),
			Suggestion:      fmt.Sprintf("Verify or remove unsupported detail: '%s'", detail),
		})
	}

	if len(issues) > m.cfg.MaxIssues {
		issues = issues[:m.cfg.MaxIssues]
	}

	quality := 1.0
	for _, issue := range issues {
		quality *= severityPenalty(issue.Severity)
	}

	return Analysis{Issues: issues, QualityScore: quality}
}

func (m *SemanticQualityModule) findMissingImportantDetails(claim, evidence string) []string {
	claimLower := strings.ToLower(claim)
	var important []string

	for _, noun := range extractProperNouns(evidence) {
		if !strings.Contains(claimLower, strings.ToLower(noun)) && isMeaningful(noun) {
			important = append(important, noun)
		}
	}

	for _, match := range measurementPattern.FindAllStringSubmatch(evidence, -1) {
		num, multiplier, unit := match[1], match[2], match[3]
		var full string
		if multiplier == "" {
			full = fmt.Sprintf("%s %s", num, unit)
		} else {
			full = fmt.Sprintf("%s %s%s", num, multiplier, unit)
		}
		if !strings.Contains(claimLower, strings.ToLower(full)) {
			simple := fmt.Sprintf("%s %s", num, unit)
			if !strings.Contains(claimLower, strings.ToLower(simple)) {
				important = append(important, simple)
			}
		}
	}

	for _, match := range quotedPhrasePattern.FindAllStringSubmatch(evidence, -1) {
		quote := match[1]
		if !strings.Contains(claimLower, strings.ToLower(quote)) && len(strings.Fields(quote)) >= m.cfg.MinPhraseLength && isMeaningful(quote) {
			important = append(important, `"`+quote+`"`)
		}
	}

	for _, pattern := range contextualPhrasePatterns {
		for _, phrase := range pattern.FindAllString(evidence, -1) {
			if !strings.Contains(claimLower, strings.ToLower(phrase)) && isMeaningful(phrase) {
				important = append(important, phrase)
			}
		}
	}

	return dedupeCaseInsensitive(important)
}

func (m *SemanticQualityModule) fabricatedPhrases(claim, evidence string) []string {
	evidenceLower := strings.ToLower(evidence)
	var fabricated []string

	for _, noun := range extractProperNouns(claim) {
		lower := strings.ToLower(noun)
		if fabricationStopTerms[lower] {
			continue
		}
		if !strings.Contains(evidenceLower, lower) && isMeaningful(noun) {
			fabricated = append(fabricated, noun)
		}
	}

	for _, pattern := range descriptivePatterns {
		for _, phrase := range pattern.FindAllString(claim, -1) {
			if !strings.Contains(evidenceLower, strings.ToLower(phrase)) {
				fabricated = append(fabricated, phrase)
			}
		}
	}

	for _, pattern := range symptomPatterns {
		for _, phrase := range pattern.FindAllString(claim, -1) {
			if !strings.Contains(evidenceLower, strings.ToLower(phrase)) {
				fabricated = append(fabricated, phrase)
			}
		}
	}

	return dedupeCaseInsensitive(fabricated)
}

func extractProperNouns(text string) []string {
	var out []string
	for _, m := range properNounPattern.FindAllString(text, -1) {
		if properNounStopwords[m] || len(m) <= 2 {
			continue
		}
		out = append(out, m)
	}
	return out
}

func isMeaningful(phrase string) bool {
	phrase = strings.Trim(phrase, `"`)
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if !meaningfulStopwords[w] {
			return true
		}
	}
	return false
}

func dedupeCaseInsensitive(items []string) []string {
	seen := make(map[string]bool, len(items))
	unique := make([]string, 0, len(items))
	for _, item := range items {
		lower := strings.ToLower(item)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		unique = append(unique, item)
	}
	return unique
}

func snippetAround(text, phrase string, context int) string {
	search := strings.Trim(phrase, `"`)
	pos := strings.Index(strings.ToLower(text), strings.ToLower(search))
	if pos == -1 {
		return truncate(text, 100)
	}
	start := max(0, pos-context)
	end := min(len(text), pos+len(search)+context)
	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}

func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
