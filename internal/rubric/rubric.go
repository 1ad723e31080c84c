// Package rubric implements the two advisory audits that run once per
// verify call outside the claim-by-claim pipeline: a completeness score
// over required schema fields, and a conservative missing-claims scan of
// the transcript against the document. Grounded on
// original_source/checker/rubric/completeness.py and
// original_source/checker/rubric/auditor.py, ported function-for-function
// since both originals are already small, free functions — no object to
// generalize into a Go type.
package rubric

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/schema"
)

// Completeness reports the missing required fields and the completeness
// score (present/total, 1.0 if the schema declares no required fields).
// summary holds the document's resolved field values, keyed the same way as
// schema.Schema.Fields.
func Completeness(summary map[string]any, s schema.Schema) (missing []string, score float64) {
	required := s.RequiredFields()
	if len(required) == 0 {
		return nil, 1.0
	}

	for _, name := range required {
		if isEmptyField(summary[name], fieldPresent(summary, name)) {
			missing = append(missing, name)
		}
	}

	present := len(required) - len(missing)
	return missing, float64(present) / float64(len(required))
}

func fieldPresent(summary map[string]any, name string) bool {
	_, ok := summary[name]
	return ok
}

func isEmptyField(v any, present bool) bool {
	if !present {
		return true
	}
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	default:
		return false
	}
}

// medicalKeywords is the fixed keyword lexicon the missing-claims audit
// scans for. Deliberately small and domain-specific, matching the original
// stub's "future versions could use NLP" framing.
var medicalKeywords = []string{
	"allergy", "allergies", "medication", "surgery", "diagnosis",
	"symptom", "pain", "fever", "treatment",
}

// DetectMissingClaims scans transcript for medicalKeywords absent from the
// concatenation of summary's values, returning a short context snippet
// (±50 chars) for each hit. This is advisory only — spec.md requires it
// never alter dispositions.
func DetectMissingClaims(transcript string, summary map[string]any) []string {
	transcriptLower := strings.ToLower(transcript)
	summaryText := strings.ToLower(concatValues(summary))

	var missing []string
	for _, keyword := range medicalKeywords {
		if !strings.Contains(transcriptLower, keyword) || strings.Contains(summaryText, keyword) {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b\w*` + regexp.QuoteMeta(keyword) + `\w*\b`)
		loc := pattern.FindStringIndex(transcript)
		if loc == nil {
			continue
		}
		start := max0(loc[0] - 50)
		end := minInt(len(transcript), loc[1]+50)
		snippet := strings.TrimSpace(transcript[start:end])
		missing = append(missing, fmt.Sprintf("Possible missing info about '%s': ...%s...", keyword, snippet))
	}
	return missing
}

func concatValues(summary map[string]any) string {
	parts := make([]string, 0, len(summary))
	for _, v := range summary {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, " ")
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
