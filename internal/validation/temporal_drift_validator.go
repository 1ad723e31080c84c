package validation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// TemporalDriftConfig configures the day-drift tolerance.
type TemporalDriftConfig struct {
	DriftThreshold float64
}

func parseTemporalDriftConfig(config map[string]any) TemporalDriftConfig {
	cfg := TemporalDriftConfig{DriftThreshold: 7}
	if config == nil {
		return cfg
	}
	if v, ok := floatFrom(config["drift_threshold"]); ok {
		cfg.DriftThreshold = v
	}
	return cfg
}

// relativeTemporalMap mirrors the fixed lexicon of relative phrases to
// day-offsets used by the original.
var relativeTemporalMap = map[string]int{
	"today": 0, "this morning": 0, "this afternoon": 0, "tonight": 0,
	"yesterday": -1, "last night": -1, "last week": -7, "last month": -30,
	"tomorrow": 1, "next week": 7, "next month": 30,
}

var numericTemporalPattern = regexp.MustCompile(`(?i)(\d+)\s*(day|week|month|year)s?\b`)

var unitMultiplier = map[string]int{"day": 1, "week": 7, "month": 30, "year": 365}

var unitQuantityPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|ml|mcg|g|kg|cm|mm)\b`)

var lexicalOverlapStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "is": {}, "was": {}, "were": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// TemporalDriftValidator extracts temporal expressions from a claim and its
// evidence, compares the two sets, and refutes on a sufficiently large day
// drift (or unit-mismatched quantities on high-relevance evidence).
// Grounded on original_source/sourcecheck/validators/temporal_drift_validator.py.
type TemporalDriftValidator struct {
	cfg TemporalDriftConfig
}

func NewTemporalDriftValidator(cfg TemporalDriftConfig) *TemporalDriftValidator {
	return &TemporalDriftValidator{cfg: cfg}
}

func (v *TemporalDriftValidator) Name() string { return "temporal_drift_validator" }

func (v *TemporalDriftValidator) Validate(_ context.Context, c claim.Claim, evidence []retrieval.EvidenceSpan, _ string) Result {
	if len(evidence) == 0 {
		return insufficientEvidence(v.Name(), "no evidence available")
	}

	var evidenceParts []string
	for _, ev := range evidence {
		evidenceParts = append(evidenceParts, ev.Text)
	}
	evidenceText := strings.Join(evidenceParts, " ")

	if unit, ok := v.unitMismatch(c.Text, evidence); ok {
		return Result{
			Validator:   v.Name(),
			Verdict:     Refuted,
			Explanation: fmt.Sprintf("unit mismatch on high-relevance evidence: %s", unit),
			Metadata:    map[string]any{"critical": true},
		}
	}

	claimTimes := extractTemporal(c.Text)
	evidenceTimes := extractTemporal(evidenceText)

	if len(claimTimes) == 0 && len(evidenceTimes) == 0 {
		return Result{Validator: v.Name(), Verdict: Supported, Explanation: "no temporal expressions found"}
	}

	if len(claimTimes) > 0 && len(evidenceTimes) == 0 {
		overlap := lexicalOverlap(c.Text, evidenceText)
		if overlap > 0.4 {
			return Result{
				Validator: v.Name(), Verdict: Supported,
				Explanation: fmt.Sprintf("temporal reference in claim absent from evidence; lexical overlap (%.0f%%) suggests same event", overlap*100),
			}
		}
		return insufficientEvidence(v.Name(), "temporal reference in claim but absent from evidence")
	}

	if symbolicMismatch(claimTimes, evidenceTimes) {
		return Result{
			Validator: v.Name(), Verdict: Refuted,
			Explanation: "different temporal anchors between claim and evidence",
			Metadata:   map[string]any{"symbolic_mismatch": true},
		}
	}

	drift := compareTemporalSets(claimTimes, evidenceTimes)
	diff := math.Abs(drift)
	if diff > v.cfg.DriftThreshold {
		return Result{
			Validator: v.Name(), Verdict: Refuted,
			Explanation: fmt.Sprintf("temporal drift detected (%.0f day difference)", diff),
			Metadata:   map[string]any{"drift_days": drift},
		}
	}
	return Result{
		Validator: v.Name(), Verdict: Supported,
		Explanation: fmt.Sprintf("temporal alignment ok (%.0f day difference)", diff),
		Metadata:    map[string]any{"drift_days": drift},
	}
}

// unitMismatch checks for a same-numeric-value, different-normalized-unit
// quantity pair between the claim and any evidence span scoring above 0.5.
func (v *TemporalDriftValidator) unitMismatch(claimText string, evidence []retrieval.EvidenceSpan) (string, bool) {
	claimQty := unitQuantityPattern.FindAllStringSubmatch(claimText, -1)
	for _, ev := range evidence {
		if ev.Score <= 0.5 {
			continue
		}
		evQty := unitQuantityPattern.FindAllStringSubmatch(ev.Text, -1)
		for _, cq := range claimQty {
			for _, eq := range evQty {
				if cq[1] == eq[1] && strings.ToLower(cq[2]) != strings.ToLower(eq[2]) {
					return fmt.Sprintf("%s%s vs %s%s", cq[1], cq[2], eq[1], eq[2]), true
				}
			}
		}
	}
	return "", false
}

func extractTemporal(text string) []float64 {
	lower := strings.ToLower(text)
	var times []float64

	for phrase, days := range relativeTemporalMap {
		if wordBoundaryContains(lower, phrase) {
			times = append(times, float64(days))
		}
	}

	for _, loc := range numericTemporalPattern.FindAllStringSubmatchIndex(lower, -1) {
		n, _ := strconv.Atoi(lower[loc[2]:loc[3]])
		unit := lower[loc[4]:loc[5]]
		days := float64(-n * unitMultiplier[unit])

		windowStart := loc[0] - 10
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := loc[1] + 10
		if windowEnd > len(lower) {
			windowEnd = len(lower)
		}
		window := lower[windowStart:windowEnd]
		if strings.Contains(window, "in ") || strings.Contains(window, "next ") {
			days = float64(n * unitMultiplier[unit])
		}
		times = append(times, days)
	}
	return times
}

func wordBoundaryContains(text, phrase string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	return re.MatchString(text)
}

// symbolicMismatch never fires: every extracted temporal expression is a
// numeric day-offset (relative phrases are mapped to offsets too), so the
// "no numerics present" condition this branch guards against is always
// false. Kept as its own step because the drift-comparison branch below
// still needs differing-set inputs to reach it.
func symbolicMismatch(_, _ []float64) bool {
	return false
}

func compareTemporalSets(claimTimes, evidenceTimes []float64) float64 {
	if len(claimTimes) == 0 || len(evidenceTimes) == 0 {
		return 0
	}
	if len(evidenceTimes) > 1 {
		evidenceTimes = evidenceTimes[:1]
	}
	return mean(claimTimes) - mean(evidenceTimes)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func lexicalOverlap(a, b string) float64 {
	contentA := contentWords(a)
	contentB := contentWords(b)
	if len(contentA) == 0 {
		return 0
	}
	overlap := 0
	for w := range contentA {
		if _, ok := contentB[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(contentA))
}

func contentWords(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, stop := lexicalOverlapStopwords[w]; !stop {
			out[w] = struct{}{}
		}
	}
	return out
}

var _ Validator = (*TemporalDriftValidator)(nil)
