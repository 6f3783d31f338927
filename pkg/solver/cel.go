package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
)

// The simulation backend cross-checks its candidate witness by compiling
// each assertion to a CEL expression and evaluating it under the witness
// assignment. Rendering normalizes numeric atoms to doubles so CEL never
// sees mixed int/double comparisons.

var celBinaryOps = map[string]string{
	">=": ">=",
	"<=": "<=",
	">":  ">",
	"<":  "<",
	"=":  "==",
	"/":  "/",
	"-":  "-",
}

var celVariadicOps = map[string]string{
	"+":   "+",
	"*":   "*",
	"and": "&&",
	"or":  "||",
}

// celSource renders a parsed s-expression as CEL. The second return is
// false when the expression uses a construct the renderer does not cover;
// callers treat such assertions permissively.
func celSource(e sexpr) (string, bool) {
	if e.isAtom() {
		return celAtom(e.atom), true
	}
	head := e.head()
	args := e.list[1:]

	if op, ok := celBinaryOps[head]; ok && len(args) == 2 {
		left, lok := celSource(args[0])
		right, rok := celSource(args[1])
		if !lok || !rok {
			return "", false
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), true
	}
	if op, ok := celVariadicOps[head]; ok && len(args) >= 2 {
		parts := make([]string, len(args))
		for i, a := range args {
			src, ok := celSource(a)
			if !ok {
				return "", false
			}
			parts[i] = src
		}
		return "(" + strings.Join(parts, " "+op+" ") + ")", true
	}
	if head == "not" && len(args) == 1 {
		src, ok := celSource(args[0])
		if !ok {
			return "", false
		}
		return "!(" + src + ")", true
	}
	return "", false
}

func celAtom(atom string) string {
	if atom == "true" || atom == "false" {
		return atom
	}
	if _, err := strconv.ParseFloat(atom, 64); err == nil {
		if !strings.ContainsAny(atom, ".eE") {
			return atom + ".0"
		}
		return atom
	}
	return atom
}

// celEval compiles expr and evaluates it under the assignment. The ok
// return is false when the expression cannot be compiled or evaluated;
// the caller decides how permissive to be.
func celEval(assignment map[string]any, expr sexpr) (any, bool) {
	src, ok := celSource(expr)
	if !ok {
		return nil, false
	}

	vars := make([]*decls.VariableDecl, 0, len(assignment))
	for name, v := range assignment {
		switch v.(type) {
		case bool:
			vars = append(vars, decls.NewVariable(name, types.BoolType))
		default:
			vars = append(vars, decls.NewVariable(name, types.DoubleType))
		}
	}

	env, err := cel.NewEnv(cel.VariableDecls(vars...))
	if err != nil {
		return nil, false
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, false
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, false
	}
	out, _, err := prg.Eval(assignment)
	if err != nil {
		return nil, false
	}
	return out.Value(), true
}

// celEvalBool evaluates expr expecting a boolean result.
func celEvalBool(assignment map[string]any, expr sexpr) (bool, bool) {
	v, ok := celEval(assignment, expr)
	if !ok {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}
