// Package cache deduplicates solver work: structurally identical requests
// map to the same fingerprint and replay the stored verdict.
package cache

import (
	"sort"

	"github.com/acgs-labs/charter/pkg/canonicalize"
	"github.com/acgs-labs/charter/pkg/contracts"
)

// fingerprintInput is the semantic content of a request. List fields are
// sorted before hashing so the fingerprint is independent of the order the
// caller supplied assertions and constraints in.
type fingerprintInput struct {
	PolicyID           string   `json:"policy_id"`
	ConstitutionalHash string   `json:"constitutional_hash"`
	Assertions         []string `json:"assertions"`
	Constraints        []string `json:"constraints"`
	VerificationType   string   `json:"verification_type"`
}

// Fingerprint returns the stable cache key for a request: the SHA-256 hex
// digest of its canonical JSON form.
func Fingerprint(req *contracts.VerificationRequest) (string, error) {
	return canonicalize.CanonicalHash(fingerprintInput{
		PolicyID:           req.PolicyID,
		ConstitutionalHash: req.ConstitutionalHash,
		Assertions:         sortedCopy(req.Assertions),
		Constraints:        sortedCopy(req.Constraints),
		VerificationType:   req.VerificationType,
	})
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
