//go:build property

package cache

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/acgs-labs/charter/pkg/contracts"
)

func TestFingerprintProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	genStrings := gen.SliceOf(gen.AlphaString())

	properties.Property("permutation invariant", prop.ForAll(
		func(policyID, hash string, assertions, constraints []string) bool {
			a := &contracts.VerificationRequest{
				PolicyID:           policyID,
				ConstitutionalHash: hash,
				Assertions:         assertions,
				Constraints:        constraints,
				VerificationType:   "safety",
			}
			b := &contracts.VerificationRequest{
				PolicyID:           policyID,
				ConstitutionalHash: hash,
				Assertions:         reversed(assertions),
				Constraints:        reversed(constraints),
				VerificationType:   "safety",
			}
			fa, err := Fingerprint(a)
			if err != nil {
				return false
			}
			fb, err := Fingerprint(b)
			if err != nil {
				return false
			}
			return fa == fb
		},
		gen.AlphaString(), gen.AlphaString(), genStrings, genStrings,
	))

	properties.Property("deterministic", prop.ForAll(
		func(policyID string, assertions []string) bool {
			req := &contracts.VerificationRequest{
				PolicyID:           policyID,
				ConstitutionalHash: "cdd01ef066bc6cf2",
				Assertions:         assertions,
				VerificationType:   "safety",
			}
			f1, err := Fingerprint(req)
			if err != nil {
				return false
			}
			f2, err := Fingerprint(req)
			if err != nil {
				return false
			}
			return f1 == f2 && len(f1) == 64
		},
		gen.AlphaString(), genStrings,
	))

	properties.TestingRun(t)
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
