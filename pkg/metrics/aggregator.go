// Package metrics derives running statistics from the accumulated
// verification history and exports operational instruments.
package metrics

import (
	"github.com/acgs-labs/charter/pkg/contracts"
)

// Compute derives aggregate statistics over a result set. An empty history
// yields all-zero rates; there is never a division by zero.
func Compute(results []contracts.VerificationResult, cacheSize int) contracts.AggregateStatistics {
	stats := contracts.AggregateStatistics{
		TotalVerifications: len(results),
		CacheSize:          cacheSize,
	}
	if len(results) == 0 {
		return stats
	}

	var sat, compliant int
	var totalMs float64
	for _, r := range results {
		if r.VerificationStatus == contracts.StatusSAT {
			sat++
		}
		if r.ConstitutionalCompliance {
			compliant++
		}
		totalMs += r.VerificationTimeMs
	}

	n := float64(len(results))
	stats.SuccessRate = float64(sat) / n
	stats.AverageVerificationTimeMs = totalMs / n
	stats.ConstitutionalComplianceRate = float64(compliant) / n
	return stats
}
