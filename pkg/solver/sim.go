package solver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// Simulator is the deterministic fallback backend used when no native
// solver is linked. It exists so the pipeline stays exercisable without a
// heavy dependency; every outcome it produces is flagged with the
// "simulation" backend name and a "simulated:" output prefix.
//
// The check is honest but incomplete: interval propagation over the atomic
// comparisons detects direct contradictions (UNSAT), anything else yields a
// midpoint witness that is cross-checked with CEL. Expressions outside the
// supported fragment are treated as satisfied, matching the permissive
// translation contract upstream.
type Simulator struct{}

// NewSimulator returns the deterministic simulation backend.
func NewSimulator() *Simulator { return &Simulator{} }

func (s *Simulator) Name() string { return BackendSimulation }

// interval is the feasible range for one Real variable.
type interval struct {
	lo, hi             float64
	loStrict, hiStrict bool
}

func newInterval() *interval {
	return &interval{lo: math.Inf(-1), hi: math.Inf(1)}
}

func (iv *interval) tightenLo(v float64, strict bool) {
	if v > iv.lo || (v == iv.lo && strict && !iv.loStrict) {
		iv.lo, iv.loStrict = v, strict
	}
}

func (iv *interval) tightenHi(v float64, strict bool) {
	if v < iv.hi || (v == iv.hi && strict && !iv.hiStrict) {
		iv.hi, iv.hiStrict = v, strict
	}
}

func (iv *interval) empty() bool {
	if iv.lo > iv.hi {
		return true
	}
	return iv.lo == iv.hi && (iv.loStrict || iv.hiStrict)
}

// pick chooses a witness value inside the interval.
func (iv *interval) pick() float64 {
	loInf, hiInf := math.IsInf(iv.lo, -1), math.IsInf(iv.hi, 1)
	switch {
	case loInf && hiInf:
		return 0
	case loInf:
		if iv.hiStrict {
			return iv.hi - 1
		}
		return iv.hi
	case hiInf:
		if iv.loStrict {
			return iv.lo + 1
		}
		return iv.lo
	default:
		return (iv.lo + iv.hi) / 2
	}
}

// Solve runs the deterministic satisfiability heuristic.
func (s *Simulator) Solve(ctx context.Context, assertions []string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc := parseScript(assertions)

	intervals := make(map[string]*interval)
	for name, srt := range sc.decls {
		if srt == sortReal {
			intervals[name] = newInterval()
		}
	}

	var definitions []sexpr // (= name (expr)) derived values
	var deferred []sexpr    // checked against the witness after assignment

	for _, a := range sc.asserts {
		s.collect(a, intervals, &definitions, &deferred)
	}

	// Contradiction check across the propagated intervals.
	names := make([]string, 0, len(intervals))
	for name := range intervals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if intervals[name].empty() {
			return &Outcome{
				Status:  contracts.StatusUNSAT,
				Output:  fmt.Sprintf("simulated: unsat (no feasible value for %s)", name),
				Backend: BackendSimulation,
			}, nil
		}
	}

	// Candidate witness: interval midpoints, then derived definitions.
	assignment := make(map[string]any, len(intervals))
	for _, name := range names {
		assignment[name] = intervals[name].pick()
	}
	s.resolveDefinitions(definitions, sc, assignment)

	// Cross-check every deferred assertion under the witness.
	verified := true
	for _, a := range deferred {
		ok, supported := celEvalBool(assignment, a)
		if supported && !ok {
			verified = false
			break
		}
	}

	out := &Outcome{
		Status:  contracts.StatusSAT,
		Backend: BackendSimulation,
	}
	if verified {
		out.Witness = formatWitness(assignment)
		out.Output = "simulated: sat (interval check passed)"
	} else {
		// The heuristic could not construct a checked witness; the verdict
		// stays permissive but the witness is withheld.
		out.Output = "simulated: sat (heuristic, witness unverified)"
	}
	return out, nil
}

// collect walks one assertion, tightening intervals for atomic comparisons
// and routing everything else to definitions or the deferred check list.
func (s *Simulator) collect(e sexpr, intervals map[string]*interval, definitions, deferred *[]sexpr) {
	if e.isAtom() {
		return // bare atoms ("true", stray identifiers) constrain nothing
	}
	head := e.head()
	args := e.list[1:]

	if head == "and" {
		for _, a := range args {
			s.collect(a, intervals, definitions, deferred)
		}
		return
	}

	if len(args) == 2 {
		switch head {
		case ">=", "<=", ">", "<":
			if s.tighten(head, args[0], args[1], intervals) {
				return
			}
			*deferred = append(*deferred, e)
			return
		case "=":
			// (= name (expr)) defines a derived value; (= name literal)
			// pins an interval.
			if args[0].isAtom() && !args[1].isAtom() {
				*definitions = append(*definitions, e)
				return
			}
			if s.tighten(head, args[0], args[1], intervals) {
				return
			}
			*deferred = append(*deferred, e)
			return
		}
	}
	*deferred = append(*deferred, e)
}

// tighten applies a var-vs-literal comparison to the interval map. Returns
// false when the comparison is not of that shape.
func (s *Simulator) tighten(op string, left, right sexpr, intervals map[string]*interval) bool {
	name, value, flipped, ok := varAndLiteral(left, right)
	if !ok {
		return false
	}
	if flipped {
		op = flipOp(op)
	}
	iv, exists := intervals[name]
	if !exists {
		// Variables referenced without a declaration (translated
		// constraints) are implicitly Real.
		iv = newInterval()
		intervals[name] = iv
	}
	switch op {
	case ">=":
		iv.tightenLo(value, false)
	case ">":
		iv.tightenLo(value, true)
	case "<=":
		iv.tightenHi(value, false)
	case "<":
		iv.tightenHi(value, true)
	case "=":
		iv.tightenLo(value, false)
		iv.tightenHi(value, false)
	}
	return true
}

func varAndLiteral(left, right sexpr) (name string, value float64, flipped, ok bool) {
	if !left.isAtom() || !right.isAtom() {
		return "", 0, false, false
	}
	if v, err := strconv.ParseFloat(right.atom, 64); err == nil && !isNumeric(left.atom) {
		return left.atom, v, false, true
	}
	if v, err := strconv.ParseFloat(left.atom, 64); err == nil && !isNumeric(right.atom) {
		return right.atom, v, true, true
	}
	return "", 0, false, false
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func flipOp(op string) string {
	switch op {
	case ">=":
		return "<="
	case "<=":
		return ">="
	case ">":
		return "<"
	case "<":
		return ">"
	}
	return op
}

// resolveDefinitions evaluates derived-value definitions under the current
// assignment. Definitions may depend on each other (overall_score feeds
// constitutional_compliant), so evaluation iterates until stable.
func (s *Simulator) resolveDefinitions(definitions []sexpr, sc *script, assignment map[string]any) {
	for pass := 0; pass < len(definitions)+1; pass++ {
		changed := false
		for _, def := range definitions {
			name := def.list[1].atom
			expr := def.list[2]

			// Seed Bool targets so CEL sees a declaration for them.
			if sc.decls[name] == sortBool {
				if _, ok := assignment[name]; !ok {
					assignment[name] = false
				}
			}
			v, ok := celEval(assignment, expr)
			if !ok {
				continue
			}
			switch t := v.(type) {
			case float64:
				if cur, ok := assignment[name].(float64); !ok || cur != t {
					assignment[name] = t
					changed = true
				}
			case bool:
				if cur, ok := assignment[name].(bool); !ok || cur != t {
					assignment[name] = t
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}

func formatWitness(assignment map[string]any) map[string]string {
	out := make(map[string]string, len(assignment))
	for name, v := range assignment {
		switch t := v.(type) {
		case float64:
			out[name] = strconv.FormatFloat(t, 'g', -1, 64)
		case bool:
			out[name] = strconv.FormatBool(t)
		default:
			out[name] = fmt.Sprintf("%v", t)
		}
	}
	return out
}
