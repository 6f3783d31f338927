// Package assertion turns structured policy data and free-text requirement
// strings into the solver-ready assertion mini-language.
//
// The mini-language is a compatibility contract with existing policy
// authors and must not change shape:
//
//	declare <name> : <Bool|Real>
//	assert (and (>= <name> <lower>) (<= <name> <upper>))
//	assert (= <name> (<expr>))
//	assert (<op> <a> <b>)
package assertion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultComplianceThreshold applies when the policy data carries no
// explicit compliance_threshold.
const DefaultComplianceThreshold = 0.95

// scoreVariables are the four normalized policy dimensions, declared in this
// order on every generation.
var scoreVariables = []string{
	"safety_score",
	"fairness_score",
	"efficiency_score",
	"transparency_score",
}

const requirementsSuffix = "_requirements"

// Generate produces the complete assertion set for a policy. It is a pure
// function of its input: the same policy data always yields the same list
// in the same order.
func Generate(policy map[string]any) []string {
	threshold := complianceThreshold(policy)

	out := make([]string, 0, 16)
	for _, name := range scoreVariables {
		out = append(out, fmt.Sprintf("declare %s : Real", name))
		out = append(out, fmt.Sprintf("assert (and (>= %s 0.0) (<= %s 1.0))", name, name))
	}

	out = append(out, "declare compliance_threshold : Real")
	out = append(out, fmt.Sprintf("assert (= compliance_threshold %s)", formatNumber(threshold)))

	out = append(out, "declare overall_score : Real")
	out = append(out, fmt.Sprintf(
		"assert (= overall_score (/ (+ %s) 4.0))",
		strings.Join(scoreVariables, " "),
	))

	out = append(out, "declare constitutional_compliant : Bool")
	out = append(out, "assert (= constitutional_compliant (>= overall_score compliance_threshold))")

	// Category requirement lists (safety_requirements, fairness_requirements,
	// ...) are processed in sorted key order so generation stays deterministic
	// regardless of map iteration.
	keys := make([]string, 0, len(policy))
	for k := range policy {
		if strings.HasSuffix(k, requirementsSuffix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, req := range stringList(policy[k]) {
			out = append(out, Translate(req))
		}
	}
	return out
}

func complianceThreshold(policy map[string]any) float64 {
	v, ok := policy["compliance_threshold"]
	if !ok {
		return DefaultComplianceThreshold
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return DefaultComplianceThreshold
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
