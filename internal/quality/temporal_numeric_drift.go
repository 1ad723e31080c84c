package quality

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/report"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// TemporalNumericDriftConfig configures TemporalNumericDriftModule.
// Grounded on original_source/sourcecheck/quality/temporal_numeric_drift.py's
// constructor defaults; the SpaCy/Pint-backed word-number and
// arbitrary-unit extraction in the original is replaced with a fixed regex
// + conversion-table approach (c.f. internal/validation's
// temporal_drift_validator.go unitMultiplier table) since no general unit
// library appears anywhere in the retrieved example corpus.
type TemporalNumericDriftConfig struct {
	MinQualityScore             float64
	TolerancePercent            float64
	CheckTemporal                bool
	CheckNumeric                  bool
	MaxIssues                    int
	NumericMismatchSeverity      report.Severity
	InsufficientEvidenceSeverity report.Severity
}

func parseTemporalNumericDriftConfig(config map[string]any) TemporalNumericDriftConfig {
	return TemporalNumericDriftConfig{
		MinQualityScore:              floatFrom(config, "min_quality_score", 0.95),
		TolerancePercent:              floatFrom(config, "tolerance_percent", 10),
		CheckTemporal:                 boolFrom(config, "check_temporal", true),
		CheckNumeric:                  boolFrom(config, "check_numeric", true),
		MaxIssues:                     intFrom(config, "max_issues", 3),
		NumericMismatchSeverity:       report.Severity(stringFrom(config, "numeric_mismatch_penalty", "high")),
		InsufficientEvidenceSeverity:  report.Severity(stringFrom(config, "insufficient_evidence_penalty", "medium")),
	}
}

var temporalDriftPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bthis morning\b`),
	regexp.MustCompile(`(?i)\bthis afternoon\b`),
	regexp.MustCompile(`(?i)\bthis evening\b`),
	regexp.MustCompile(`(?i)\btonight\b`),
	regexp.MustCompile(`(?i)\byesterday\b`),
	regexp.MustCompile(`(?i)\blast night\b`),
	regexp.MustCompile(`(?i)\blast week\b`),
	regexp.MustCompile(`(?i)\blast month\b`),
	regexp.MustCompile(`(?i)\blast year\b`),
	regexp.MustCompile(`(?i)\btoday\b`),
	regexp.MustCompile(`(?i)\btomorrow\b`),
	regexp.MustCompile(`(?i)\brecently\b`),
	regexp.MustCompile(`(?i)\bearlier today\b`),
}

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	moneyPattern   = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)\s*(million|billion|thousand|[MBK])?`)
	unitQuantityDriftPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(milligrams?|grams?|kilograms?|mg|kg|g|milliliters?|liters?|ml|l|years?|months?|days?|hours?|minutes?|weeks?)\b`)
	bareNumberPattern        = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
)

// unitNormalization maps a matched unit spelling to a canonical symbol.
var unitNormalization = map[string]string{
	"milligram": "mg", "milligrams": "mg", "mg": "mg",
	"gram": "g", "grams": "g", "g": "g",
	"kilogram": "kg", "kilograms": "kg", "kg": "kg",
	"milliliter": "ml", "milliliters": "ml", "ml": "ml",
	"liter": "l", "liters": "l", "l": "l",
	"year": "year", "years": "year",
	"month": "month", "months": "month",
	"day": "day", "days": "day",
	"hour": "hour", "hours": "hour",
	"minute": "minute", "minutes": "minute",
	"week": "week", "weeks": "week",
}

// unitConversionToBase converts one unit of the key into the canonical base
// unit for its dimension (grams for mass, liters for volume, days for
// duration); used only to report an approximate "Nx difference" on a unit
// mismatch, matching the original's _unit_conversion_factor helper.
var unitConversionToBase = map[string]float64{
	"mg": 0.001, "g": 1, "kg": 1000,
	"ml": 0.001, "l": 1,
	"year": 365, "month": 30, "week": 7, "day": 1, "hour": 1.0 / 24, "minute": 1.0 / 1440,
}

type structuredNumber struct {
	value string
	unit  string
}

// TemporalNumericDriftModule flags temporal-context omissions and numeric
// value/unit drift between a claim and its top evidence spans.
type TemporalNumericDriftModule struct {
	cfg TemporalNumericDriftConfig
}

// NewTemporalNumericDriftModule builds a TemporalNumericDriftModule.
func NewTemporalNumericDriftModule(cfg TemporalNumericDriftConfig) *TemporalNumericDriftModule {
	return &TemporalNumericDriftModule{cfg: cfg}
}

func (m *TemporalNumericDriftModule) Name() string { return "temporal_numeric_drift" }

func (m *TemporalNumericDriftModule) ShouldAnalyze(d report.Disposition) bool {
	if d.QualityScore == nil {
		return true
	}
	return *d.QualityScore < m.cfg.MinQualityScore
}

func (m *TemporalNumericDriftModule) Analyze(d report.Disposition, transcript string) Analysis {
	if !m.ShouldAnalyze(d) || len(d.Evidence) == 0 {
		return Analysis{QualityScore: 1.0}
	}

	claimText := d.Claim.Text
	evidenceText := d.Evidence[0].Text

	var issues []report.QualityIssue
	if m.cfg.CheckTemporal {
		issues = append(issues, m.detectTemporalDrift(claimText, evidenceText)...)
	}
	if m.cfg.CheckNumeric {
		issues = append(issues, m.detectNumericDriftMultiEvidence(claimText, d.Evidence)...)
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

func (m *TemporalNumericDriftModule) detectTemporalDrift(claim, evidence string) []report.QualityIssue {
	found := map[string]bool{}
	for _, pattern := range temporalDriftPhrases {
		for _, match := range pattern.FindAllString(evidence, -1) {
			found[strings.ToLower(match)] = true
		}
	}

	claimLower := strings.ToLower(claim)
	var issues []report.QualityIssue
	for temporal := range found {
		if strings.Contains(claimLower, temporal) {
			continue
		}
		issues = append(issues, report.QualityIssue{
			Type:            "temporal_drift",
			Severity:        report.SeverityMedium,
			Detail:          fmt.Sprintf("Evidence specifies temporal context '%s' but claim omits it", temporal),
			EvidenceSnippet: snippetAround(evidence, temporal, 40),
			ClaimSnippet:    truncate(claim, 100),
			Suggestion:      fmt.Sprintf("Consider adding temporal context: '%s'", temporal),
		})
	}
	return issues
}

func (m *TemporalNumericDriftModule) detectNumericDriftMultiEvidence(claim string, evidence []retrieval.EvidenceSpan) []report.QualityIssue {
	claimStructured, claimBare := m.extractNumericValues(claim)
	if len(claimStructured) == 0 && len(claimBare) == 0 {
		return nil
	}

	var highRelevance []retrieval.EvidenceSpan
	for _, ev := range evidence {
		if ev.Score > 0.5 {
			highRelevance = append(highRelevance, ev)
		}
	}
	if len(highRelevance) == 0 {
		return nil
	}

	var issues []report.QualityIssue

	for _, c := range claimStructured {
		found := false
		var bestMismatch *structuredNumber
		bestMismatchScore := -1.0
		var unitMismatch *structuredNumber
		unitMismatchScore := -1.0

	evidenceLoop:
		for _, ev := range highRelevance {
			evStructured, _ := m.extractNumericValues(ev.Text)
			for _, e := range evStructured {
				if e.unit == c.unit && m.valuesMatch(e.value, c.value) {
					found = true
					break evidenceLoop
				}
				if e.value == c.value && e.unit != c.unit {
					if unitMismatch == nil || ev.Score > unitMismatchScore {
						em := e
						unitMismatch = &em
						unitMismatchScore = ev.Score
					}
					continue
				}
				if e.unit == c.unit && !m.valuesMatch(e.value, c.value) {
					if bestMismatch == nil || ev.Score > bestMismatchScore {
						em := e
						bestMismatch = &em
						bestMismatchScore = ev.Score
					}
				}
			}
		}

		if found {
			continue
		}

		switch {
		case unitMismatch != nil:
			factor := m.unitConversionFactor(c.unit, unitMismatch.unit)
			issues = append(issues, report.QualityIssue{
				Type:     "unit_mismatch",
				Severity: report.SeverityHigh,
				Detail:   fmt.Sprintf("UNIT MISMATCH: Claim says '%s %s' but evidence says '%s %s'", c.value, c.unit, unitMismatch.value, unitMismatch.unit),
				Suggestion: fmt.Sprintf(
					"Verify the correct unit: '%s' or '%s' - this could be a %vx difference",
					unitMismatch.unit, c.unit, math.Abs(factor),
				),
			})
		case bestMismatch != nil:
			issues = append(issues, report.QualityIssue{
				Type:       "numeric_mismatch",
				Severity:   m.cfg.NumericMismatchSeverity,
				Detail:     fmt.Sprintf("Claim says '%s %s' but high-relevance evidence says '%s %s'", c.value, c.unit, bestMismatch.value, bestMismatch.unit),
				Suggestion: fmt.Sprintf("Verify the correct value: '%s' or '%s'", bestMismatch.value, c.value),
			})
		default:
			issues = append(issues, report.QualityIssue{
				Type:       "insufficient_numeric_evidence",
				Severity:   m.cfg.InsufficientEvidenceSeverity,
				Detail:     fmt.Sprintf("Claim mentions '%s %s' but no high-relevance evidence contains this number", c.value, c.unit),
				Suggestion: fmt.Sprintf("Verify '%s' or check if evidence supports a different value", c.value),
			})
		}
	}

	structuredValues := map[string]bool{}
	for _, c := range claimStructured {
		structuredValues[c.value] = true
	}
	for _, bareValue := range claimBare {
		if structuredValues[bareValue] {
			continue
		}
		found := false
		for _, ev := range highRelevance {
			_, evBare := m.extractNumericValues(ev.Text)
			if containsString(evBare, bareValue) {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, report.QualityIssue{
				Type:       "insufficient_numeric_evidence",
				Severity:   m.cfg.InsufficientEvidenceSeverity,
				Detail:     fmt.Sprintf("Claim mentions '%s' but no high-relevance evidence contains this number", bareValue),
				Suggestion: fmt.Sprintf("Verify '%s' or check if evidence supports a different value", bareValue),
			})
		}
	}

	return issues
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func (m *TemporalNumericDriftModule) extractNumericValues(text string) ([]structuredNumber, []string) {
	var structured []structuredNumber
	var bare []string
	seenBare := map[string]bool{}

	addBare := func(v string) {
		if !seenBare[v] {
			seenBare[v] = true
			bare = append(bare, v)
		}
	}

	for _, match := range percentPattern.FindAllStringSubmatch(text, -1) {
		structured = append(structured, structuredNumber{value: match[1], unit: "%"})
		addBare(match[1])
	}

	for _, match := range moneyPattern.FindAllStringSubmatch(text, -1) {
		value := match[1]
		unit := normalizeMoneyUnit(match[2])
		structured = append(structured, structuredNumber{value: value, unit: "$" + unit})
		addBare(value)
	}

	for _, match := range unitQuantityDriftPattern.FindAllStringSubmatch(text, -1) {
		value := match[1]
		unit, ok := unitNormalization[strings.ToLower(match[2])]
		if !ok {
			continue
		}
		structured = append(structured, structuredNumber{value: value, unit: unit})
		addBare(value)
	}

	for _, match := range bareNumberPattern.FindAllStringSubmatch(text, -1) {
		addBare(match[1])
	}

	return structured, bare
}

func normalizeMoneyUnit(raw string) string {
	switch strings.ToLower(raw) {
	case "m", "million":
		return "million"
	case "b", "billion":
		return "billion"
	case "k", "thousand":
		return "thousand"
	default:
		return ""
	}
}

func (m *TemporalNumericDriftModule) valuesMatch(a, b string) bool {
	va, errA := strconv.ParseFloat(a, 64)
	vb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a == b
	}
	if va == 0 && vb == 0 {
		return true
	}
	maxVal := math.Max(math.Abs(va), math.Abs(vb))
	diffPercent := math.Abs(va-vb) / maxVal * 100
	return diffPercent <= m.cfg.TolerancePercent
}

func (m *TemporalNumericDriftModule) unitConversionFactor(unit1, unit2 string) float64 {
	f1, ok1 := unitConversionToBase[unit1]
	f2, ok2 := unitConversionToBase[unit2]
	if !ok1 || !ok2 || f2 == 0 {
		return 1.0
	}
	return f1 / f2
}
