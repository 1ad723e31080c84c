package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

var coHistorianPattern = regexp.MustCompile(`(?i)\b(?:my|the|her|his)\s+(daughter|son|wife|husband|mother|father|sister|brother)\b`)

// SpeakerAttributionValidator checks that every pipe-separated historian
// named in the claim text is among the historians the transcript implies
// (always including "Patient", plus any co-historian relation phrase it
// finds). Grounded on
// original_source/checker/validators/speaker_attribution_validator.py.
type SpeakerAttributionValidator struct{}

func NewSpeakerAttributionValidator() *SpeakerAttributionValidator {
	return &SpeakerAttributionValidator{}
}

func (v *SpeakerAttributionValidator) Name() string { return "speaker_attribution_validator" }

func (v *SpeakerAttributionValidator) extractHistorians(transcript string) map[string]struct{} {
	historians := map[string]struct{}{"Patient": {}}
	for _, m := range coHistorianPattern.FindAllStringSubmatch(transcript, -1) {
		historians[capitalize(m[1])] = struct{}{}
	}
	return historians
}

func (v *SpeakerAttributionValidator) Validate(_ context.Context, c claim.Claim, _ []retrieval.EvidenceSpan, transcript string) Result {
	claimed := map[string]struct{}{}
	for _, s := range strings.Split(c.Text, "|") {
		s = strings.TrimSpace(s)
		if s != "" {
			claimed[capitalize(s)] = struct{}{}
		}
	}
	detected := v.extractHistorians(transcript)

	var missing []string
	for name := range claimed {
		if _, ok := detected[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return Result{
			Validator:   v.Name(),
			Verdict:     Supported,
			Explanation: fmt.Sprintf("all claimed historians found in transcript: %v", keys(claimed)),
		}
	}
	return Result{
		Validator:   v.Name(),
		Verdict:     InsufficientEvidence,
		Explanation: fmt.Sprintf("missing historians: %v; detected: %v", missing, keys(detected)),
		Metadata:    map[string]any{"missing": missing},
	}
}

func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

var _ Validator = (*SpeakerAttributionValidator)(nil)
