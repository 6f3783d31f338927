//go:build z3

package solver

/*
#cgo LDFLAGS: -lz3
#include <stdlib.h>
#include <z3.h>
*/
import "C"

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/acgs-labs/charter/pkg/contracts"
)

// Z3 is the real constraint-solving backend, linked against libz3.
type Z3 struct{}

// NewZ3 returns the Z3 backend.
func NewZ3() (*Z3, error) { return &Z3{}, nil }

func (z *Z3) Name() string { return BackendZ3 }

// Solve translates the mini-language into SMT-LIB2, hands it to Z3 with a
// solver-side timeout derived from ctx, and classifies the verdict.
func (z *Z3) Solve(ctx context.Context, assertions []string) (*Outcome, error) {
	script, err := buildSMTLIB(assertions)
	if err != nil {
		return nil, err
	}

	cfg := C.Z3_mk_config()
	zctx := C.Z3_mk_context(cfg)
	C.Z3_del_config(cfg)
	defer C.Z3_del_context(zctx)

	solver := C.Z3_mk_solver(zctx)
	C.Z3_solver_inc_ref(zctx, solver)
	defer C.Z3_solver_dec_ref(zctx, solver)

	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Until(deadline)
		if budget <= 0 {
			return nil, context.DeadlineExceeded
		}
		params := C.Z3_mk_params(zctx)
		C.Z3_params_inc_ref(zctx, params)
		key := C.CString("timeout")
		sym := C.Z3_mk_string_symbol(zctx, key)
		C.free(unsafe.Pointer(key))
		C.Z3_params_set_uint(zctx, params, sym, C.uint(budget.Milliseconds()))
		C.Z3_solver_set_params(zctx, solver, params)
		C.Z3_params_dec_ref(zctx, params)
	}

	cscript := C.CString(script)
	C.Z3_solver_from_string(zctx, solver, cscript)
	C.free(unsafe.Pointer(cscript))
	if code := C.Z3_get_error_code(zctx); code != C.Z3_OK {
		msg := C.GoString(C.Z3_get_error_msg(zctx, code))
		return nil, fmt.Errorf("z3 parse error: %s", msg)
	}

	switch C.Z3_solver_check(zctx, solver) {
	case C.Z3_L_TRUE:
		return &Outcome{
			Status:  contracts.StatusSAT,
			Witness: extractModel(zctx, solver),
			Output:  "sat",
			Backend: BackendZ3,
		}, nil
	case C.Z3_L_FALSE:
		return &Outcome{
			Status:  contracts.StatusUNSAT,
			Output:  "unsat",
			Backend: BackendZ3,
		}, nil
	default:
		reason := strings.TrimSpace(C.GoString(C.Z3_solver_get_reason_unknown(zctx, solver)))
		if reason == "timeout" || reason == "canceled" {
			return nil, context.DeadlineExceeded
		}
		if reason == "" {
			reason = "unknown"
		}
		return nil, fmt.Errorf("z3 unknown: %s", reason)
	}
}

func extractModel(zctx C.Z3_context, solver C.Z3_solver) map[string]string {
	model := C.Z3_solver_get_model(zctx, solver)
	if model == nil {
		return nil
	}
	C.Z3_model_inc_ref(zctx, model)
	defer C.Z3_model_dec_ref(zctx, model)

	n := int(C.Z3_model_get_num_consts(zctx, model))
	if n == 0 {
		return nil
	}
	witness := make(map[string]string, n)
	for i := 0; i < n; i++ {
		decl := C.Z3_model_get_const_decl(zctx, model, C.uint(i))
		name := C.GoString(C.Z3_get_symbol_string(zctx, C.Z3_get_decl_name(zctx, decl)))
		interp := C.Z3_model_get_const_interp(zctx, model, decl)
		if interp == nil {
			continue
		}
		witness[name] = strings.TrimSpace(C.GoString(C.Z3_ast_to_string(zctx, interp)))
	}
	return witness
}

// buildSMTLIB renders the mini-language as an SMT-LIB2 script. Variables
// referenced without a declaration (translated constraints) are implicitly
// declared Real.
func buildSMTLIB(assertions []string) (string, error) {
	sc := parseScript(assertions)

	var b strings.Builder
	declared := make(map[string]bool, len(sc.decls))
	for _, name := range sc.order {
		sort := "Real"
		if sc.decls[name] == sortBool {
			sort = "Bool"
		}
		fmt.Fprintf(&b, "(declare-const %s %s)\n", name, sort)
		declared[name] = true
	}
	for _, a := range sc.asserts {
		for _, name := range freeVariables(a) {
			if !declared[name] {
				fmt.Fprintf(&b, "(declare-const %s Real)\n", name)
				declared[name] = true
			}
		}
	}
	for _, a := range sc.asserts {
		fmt.Fprintf(&b, "(assert %s)\n", a.String())
	}
	return b.String(), nil
}

var smtOperators = map[string]bool{
	"and": true, "or": true, "not": true,
	">=": true, "<=": true, ">": true, "<": true, "=": true,
	"+": true, "-": true, "*": true, "/": true,
}

func freeVariables(e sexpr) []string {
	var names []string
	var walk func(sexpr)
	walk = func(n sexpr) {
		if n.isAtom() {
			a := n.atom
			if a == "true" || a == "false" || smtOperators[a] {
				return
			}
			if _, err := strconv.ParseFloat(a, 64); err == nil {
				return
			}
			names = append(names, a)
			return
		}
		for _, c := range n.list[1:] {
			walk(c)
		}
	}
	walk(e)
	return names
}
