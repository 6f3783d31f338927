package assertion

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// trivialAssertion is the permissive default for requirement text the
// grammar does not recognize. Policy authors rely on this lenient
// fallback; unrecognized phrasing is not a parsing failure.
const trivialAssertion = "(assert true)"

// grammar maps the recognized natural-language phrases to comparison
// operators, checked in order.
var grammar = []struct {
	phrase string
	op     string
}{
	{" must be greater than ", ">"},
	{" must be less than ", "<"},
	{" must equal ", "="},
}

// Translate converts one free-text requirement into a mini-language
// assertion. Requirement text is NFC-normalized first so visually identical
// Unicode spellings translate identically.
//
//	"response_time must be less than 5000" -> "(assert (< response_time 5000))"
//
// Malformed numeric literals never raise; they degrade to a trivially
// true assertion for that single requirement.
func Translate(requirement string) string {
	req := normalize(requirement)

	for _, g := range grammar {
		idx := strings.Index(req, g.phrase)
		if idx < 0 {
			continue
		}
		name := variableName(req[:idx])
		value := strings.TrimSpace(req[idx+len(g.phrase):])
		if name == "" {
			return trivialAssertion
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return trivialAssertion
		}
		return fmt.Sprintf("(assert (%s %s %s))", g.op, name, value)
	}
	return trivialAssertion
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// variableName converts a left-hand phrase into a solver variable name,
// replacing interior spaces with underscores.
func variableName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}
