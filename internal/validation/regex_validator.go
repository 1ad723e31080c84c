package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// defaultPatternBank mirrors original_source/checker/validators/regex_validator.py's
// DEFAULT_PATTERNS: named groups of regexes for fields with near-exact
// phrasing (identifiers, tetanus status, vitals, generic structured
// phrases).
var defaultPatternBank = map[string][]string{
	"identifiers": {
		`(?i)\b\d{1,3}\s*-?\s*year\s*-?\s*old\b`,
		`(?i)\bage\s*(?:is|:)?\s*\d{1,3}\b`,
		`(?i)\b(male|female|man|woman)\b`,
		`(?i)\b\d{1,3}\s*yo\b`,
	},
	"tetanus": {
		`(?i)tetanus (?:shot|vaccination|vaccine) (?:status )?(?:is )?\d{1,2}\s*years?\s*ago\b`,
		`(?i)last tetanus (?:shot|vaccine|vaccination) (?:was )?\d{1,2}\s*years?\s*ago\b`,
		`(?i)tetanus (?:status )?(?:up to date|uptodate|up-to-date)`,
	},
	"vitals": {
		`(?i)\bhr[: ]?\s*\d{2,3}\b`,
		`(?i)\bbp[: ]?\s*\d{2,3}/\d{2,3}\b`,
		`(?i)\btemp[: ]?\s*\d{2}\.\d\b`,
	},
	"phrase": {
		`(?i)\bdischarg(?:ed|e)[: ]?\s*(?:home|admit|observation)\b`,
		`(?i)\bfollow[- ]?up (?:in|at) \d{1,3} (?:hours|days)\b`,
		`(?i)\bwound care instructions\b`,
		`(?i)\bsuture removal\b`,
	},
}

// RegexValidatorConfig configures the per-field pattern bank search.
type RegexValidatorConfig struct {
	Patterns                     map[string][]string
	SearchTranscriptIfNoEvidence bool
	MinMatches                   int
	MaxEvidenceSpans             int
}

func parseRegexValidatorConfig(config map[string]any) RegexValidatorConfig {
	cfg := RegexValidatorConfig{
		Patterns:                     defaultPatternBank,
		SearchTranscriptIfNoEvidence: true,
		MinMatches:                   1,
		MaxEvidenceSpans:             5,
	}
	if config == nil {
		return cfg
	}
	if v, ok := boolFrom(config["search_transcript_if_no_evidence"]); ok {
		cfg.SearchTranscriptIfNoEvidence = v
	}
	if v, ok := intFrom(config["min_matches"]); ok {
		cfg.MinMatches = v
	}
	if v, ok := intFrom(config["max_evidence_spans"]); ok {
		cfg.MaxEvidenceSpans = v
	}
	if provided, ok := config["patterns"].(map[string][]string); ok {
		merged := make(map[string][]string, len(defaultPatternBank))
		for k, v := range defaultPatternBank {
			merged[k] = v
		}
		for k, v := range provided {
			merged[k] = v
		}
		cfg.Patterns = merged
	}
	return cfg
}

// RegexValidator applies a per-field pattern bank to evidence spans
// (searching the full transcript as a fallback) for exact/near-exact
// structured facts. Grounded on
// original_source/checker/validators/regex_validator.py.
type RegexValidator struct {
	cfg      RegexValidatorConfig
	compiled map[string][]*regexp.Regexp
}

func NewRegexValidator(cfg RegexValidatorConfig) *RegexValidator {
	compiled := make(map[string][]*regexp.Regexp, len(cfg.Patterns))
	for field, patterns := range cfg.Patterns {
		for _, p := range patterns {
			if re, err := regexp.Compile(p); err == nil {
				compiled[field] = append(compiled[field], re)
			}
		}
	}
	return &RegexValidator{cfg: cfg, compiled: compiled}
}

func (v *RegexValidator) Name() string { return "regex_validator" }

func (v *RegexValidator) patternsForField(field string) []*regexp.Regexp {
	field = strings.ToLower(field)
	if p, ok := v.compiled[field]; ok {
		return p
	}
	switch {
	case strings.Contains(field, "identif"):
		return v.compiled["identifiers"]
	case strings.Contains(field, "tetanus"):
		return v.compiled["tetanus"]
	case strings.Contains(field, "vital"):
		return v.compiled["vitals"]
	case strings.Contains(field, "follow"), strings.Contains(field, "dispo"):
		return v.compiled["phrase"]
	}
	return v.compiled["phrase"]
}

type regexMatch struct {
	text       string
	start, end int
}

func (v *RegexValidator) Validate(_ context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, transcript string) Result {
	patterns := v.patternsForField(c.Field)
	var matches []regexMatch

	for _, ev := range evidence {
		for _, re := range patterns {
			for _, loc := range re.FindAllStringIndex(ev.Text, -1) {
				matches = append(matches, regexMatch{text: ev.Text[loc[0]:loc[1]], start: ev.StartIdx + loc[0], end: ev.StartIdx + loc[1]})
			}
		}
	}
	if len(matches) >= v.cfg.MinMatches {
		return v.supported(matches, "evidence spans")
	}

	if v.cfg.SearchTranscriptIfNoEvidence && len(patterns) > 0 && transcript != "" {
		for _, re := range patterns {
			for _, loc := range re.FindAllStringIndex(transcript, -1) {
				matches = append(matches, regexMatch{text: transcript[loc[0]:loc[1]], start: loc[0], end: loc[1]})
				if len(matches) >= v.cfg.MinMatches {
					break
				}
			}
			if len(matches) >= v.cfg.MinMatches {
				break
			}
		}
		if len(matches) >= v.cfg.MinMatches {
			return v.supported(matches, "transcript")
		}
	}

	explanation := "no regex matches found"
	if len(patterns) == 0 {
		explanation = "no patterns available for this field"
	}
	return insufficientEvidence(v.Name(), explanation)
}

func (v *RegexValidator) supported(matches []regexMatch, source string) Result {
	return Result{
		Validator:   v.Name(),
		Verdict:     Supported,
		Explanation: fmt.Sprintf("found %d regex match(es) in %s", len(matches), source),
		Metadata:    map[string]any{"match_count": len(matches)},
	}
}

var _ Validator = (*RegexValidator)(nil)
