// Package claim turns resolved document field values into atomic Claims,
// per the extraction methods and compound-split rule in SPEC_FULL.md §4.2.
// Grounded on original_source/sourcecheck/claimextractor/configurable.py for
// method semantics and fallback ordering, structured as a small struct
// with a validated config and a single entry point
// (c.f. rag.Pipeline.Execute).
package claim

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/samber/lo"

	"github.com/tangerg-labs/transcriptverify/internal/docpath"
	"github.com/tangerg-labs/transcriptverify/internal/schema"
)

// Claim is a single atomic assertion extracted from one document field.
type Claim struct {
	Field    string
	Text     string
	Metadata map[string]any
}

func newClaim(field, text string, metadata map[string]any) Claim {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Claim{Field: field, Text: strings.TrimSpace(text), Metadata: metadata}
}

// sentenceBoundary mirrors the lookaround regex given in spec.md §4.2; Go's
// RE2-backed regexp cannot express lookaround, so sentence splitting uses
// regexp2. The compound-clause patterns below need no lookaround and use
// the standard regexp package.
var sentenceBoundary = regexp2.MustCompile(`(?<=[.!?])\s+(?=[A-Z])|(?<=[.!?])$`, regexp2.None)

var bulletLinePattern = regexp.MustCompile(`(?m)^\s*-\s+`)

var conjunctionSplit = regexp.MustCompile(`(?i)\s+(and|but)\s+`)

var verbPattern = regexp.MustCompile(`(?i)\b(is|was|are|were|has|have|had|reports?|denies?|shows?|states?|says?|does|did|will|can|could|should|would)\b`)

// Extractor extracts claims from a document according to a Schema.
type Extractor struct {
	schema schema.Schema
}

// NewExtractor builds an Extractor for the given schema. The schema is not
// mutated and no validation failure is possible here — unknown/empty
// specs simply extract nothing, matching the Python original's permissive
// per-field fallback behavior.
func NewExtractor(s schema.Schema) *Extractor {
	return &Extractor{schema: s}
}

// Extract produces an ordered list of claims for every field declared in
// the schema. Go maps do not preserve declaration order, so fields are
// visited in alphabetical order of their names; use ExtractFields for a
// caller-chosen order.
func (e *Extractor) Extract(document any) ([]Claim, error) {
	return e.ExtractFields(document, sortedFieldNames(e.schema))
}

// ExtractFields extracts claims only for the named fields, in the given
// order. Unknown field names are silently skipped.
func (e *Extractor) ExtractFields(document any, fieldNames []string) ([]Claim, error) {
	var claims []Claim
	for _, name := range fieldNames {
		spec, ok := e.schema.Fields[name]
		if !ok {
			continue
		}
		fieldClaims, err := e.extractField(document, name, spec)
		if err != nil {
			return nil, fmt.Errorf("claim: field %q: %w", name, err)
		}
		claims = append(claims, fieldClaims...)
	}
	return claims, nil
}

func (e *Extractor) extractField(document any, name string, spec schema.FieldSpec) ([]Claim, error) {
	if spec.ExtractionMethod == schema.Skip {
		return nil, nil
	}

	value := e.resolve(document, spec)
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	text = strings.TrimSpace(text)

	method := spec.ExtractionMethod
	if method == "" {
		method = schema.SingleValue
	}

	var claims []Claim
	switch method {
	case schema.SingleValue:
		claims = []Claim{newClaim(name, text, meta(method, nil))}
	case schema.Delimited:
		claims = e.extractDelimited(name, text, spec)
	case schema.BulletList:
		claims = e.extractBulletList(name, text, spec)
	case schema.Structured:
		claims = e.extractStructured(name, text, spec)
	case schema.SentenceSplit:
		claims = e.extractSentences(name, text)
	default:
		claims = []Claim{newClaim(name, text, meta(method, nil))}
	}

	if spec.SplitCompoundClaims {
		claims = splitCompound(claims, minClaimLength(spec))
	}

	return claims, nil
}

func (e *Extractor) resolve(document any, spec schema.FieldSpec) any {
	if len(spec.FallbackPaths) > 0 {
		paths := append([]string{spec.Path}, spec.FallbackPaths...)
		return docpath.ResolveWithFallbacks(document, paths, nil)
	}
	return docpath.Get(document, docpath.Parse(spec.Path), nil)
}

func (e *Extractor) extractDelimited(name, text string, spec schema.FieldSpec) []Claim {
	delim := spec.Delimiter
	if delim == "" || !strings.Contains(text, delim) {
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "single_value"}))}
	}
	var claims []Claim
	for _, part := range strings.Split(text, delim) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		claims = append(claims, newClaim(name, part, meta(schema.Delimited, map[string]any{"delimiter": delim})))
	}
	return claims
}

func (e *Extractor) extractBulletList(name, text string, spec schema.FieldSpec) []Claim {
	if !bulletLinePattern.MatchString(text) {
		if strings.ContainsAny(text, ".!?") {
			return e.extractSentences(name, text)
		}
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "single_value"}))}
	}
	var claims []Claim
	for _, line := range strings.Split(text, "\n") {
		trimmed := bulletLinePattern.ReplaceAllString(line, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == "" {
			continue
		}
		claims = append(claims, newClaim(name, trimmed, meta(schema.BulletList, nil)))
	}
	return claims
}

func (e *Extractor) extractStructured(name, text string, spec schema.FieldSpec) []Claim {
	if spec.Pattern == "" {
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "pattern_failed"}))}
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "pattern_failed"}))}
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "pattern_failed"}))}
	}
	var value string
	if len(match) > 1 {
		value = strings.TrimSpace(strings.Join(match[1:], " "))
	} else {
		value = strings.TrimSpace(match[0])
	}
	if value == "" {
		value = strings.TrimSpace(match[0])
	}
	return []Claim{newClaim(name, value, meta(schema.Structured, map[string]any{"pattern": spec.Pattern}))}
}

func (e *Extractor) extractSentences(name, text string) []Claim {
	sentences := splitSentences(text)
	var claims []Claim
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		claims = append(claims, newClaim(name, s, meta(schema.SentenceSplit, nil)))
	}
	if len(claims) == 0 {
		return []Claim{newClaim(name, text, meta(schema.SingleValue, map[string]any{"fallback": "single_value"}))}
	}
	return claims
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	m, _ := sentenceBoundary.FindStringMatch(text)
	for m != nil {
		end := m.Index + m.Length
		if end > start {
			out = append(out, text[start:end])
		}
		start = end
		var err error
		m, err = sentenceBoundary.FindNextMatch(m)
		if err != nil {
			break
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func meta(method schema.ExtractionMethod, extra map[string]any) map[string]any {
	m := map[string]any{"extraction_method": string(method)}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func minClaimLength(spec schema.FieldSpec) int {
	if spec.MinClaimLength > 0 {
		return spec.MinClaimLength
	}
	return 5
}

// splitCompound further splits each claim at a coordinating conjunction
// ("and"/"but") only when both resulting sides look like independent
// clauses: each contains a verb and each has at least minWords words. If
// either side fails the test, the claim is left unsplit.
func splitCompound(claims []Claim, minWords int) []Claim {
	var out []Claim
	for _, c := range claims {
		loc := conjunctionSplit.FindStringIndex(c.Text)
		if loc == nil {
			out = append(out, c)
			continue
		}
		left := strings.TrimSpace(c.Text[:loc[0]])
		right := strings.TrimSpace(c.Text[loc[1]:])

		if isIndependentClause(left, minWords) && isIndependentClause(right, minWords) {
			leftMeta := cloneMeta(c.Metadata)
			leftMeta["compound_split"] = true
			rightMeta := cloneMeta(c.Metadata)
			rightMeta["compound_split"] = true
			out = append(out, newClaim(c.Field, left, leftMeta), newClaim(c.Field, right, rightMeta))
			continue
		}
		out = append(out, c)
	}
	return out
}

func isIndependentClause(text string, minWords int) bool {
	words := strings.Fields(text)
	if len(words) < minWords {
		return false
	}
	return verbPattern.MatchString(text)
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedFieldNames(s schema.Schema) []string {
	names := lo.Keys(s.Fields)
	sort.Strings(names)
	return names
}
