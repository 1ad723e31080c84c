package validation

import (
	"context"

	"github.com/tangerg-labs/transcriptverify/internal/claim"
	"github.com/tangerg-labs/transcriptverify/internal/retrieval"
)

// AlwaysTrueValidator is a diagnostic pass-through: it marks every claim
// supported regardless of evidence. Grounded on
// original_source/sourcecheck/validators/always_true.py.
type AlwaysTrueValidator struct{}

func NewAlwaysTrueValidator() *AlwaysTrueValidator {
	return &AlwaysTrueValidator{}
}

func (v *AlwaysTrueValidator) Name() string { return "always_true" }

func (v *AlwaysTrueValidator) Validate(_ context.Context, _ claim.Claim, _ []retrieval.EvidenceSpan, _ string) Result {
	return Result{
		Validator:   v.Name(),
		Verdict:     Supported,
		Explanation: "always_true validator unconditionally returns supported",
	}
}

var _ Validator = (*AlwaysTrueValidator)(nil)
