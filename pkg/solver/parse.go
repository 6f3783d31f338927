package solver

import (
	"fmt"
	"strings"
)

// The assertion mini-language:
//
//	declare <name> : <Bool|Real>
//	assert (<expr>)
//	(assert (<expr>))
//
// Both assert spellings appear in the wild (generated assertions use the
// bare keyword, translated constraints wrap the whole statement), so the
// parser accepts either.

type varSort int

const (
	sortReal varSort = iota
	sortBool
)

// sexpr is a parsed s-expression node: a leaf atom or a compound list.
type sexpr struct {
	atom string
	list []sexpr
}

func (e sexpr) isAtom() bool { return len(e.list) == 0 }

func (e sexpr) head() string {
	if len(e.list) > 0 {
		return e.list[0].atom
	}
	return ""
}

func (e sexpr) String() string {
	if e.isAtom() {
		return e.atom
	}
	parts := make([]string, len(e.list))
	for i, c := range e.list {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// script is a parsed assertion set.
type script struct {
	decls   map[string]varSort
	order   []string // declaration order
	asserts []sexpr
	skipped int // statements the parser could not understand
}

// parseScript parses the mini-language leniently: statements that do not
// parse are counted and skipped, mirroring the fallback-to-true translation
// contract upstream.
func parseScript(assertions []string) *script {
	s := &script{decls: make(map[string]varSort)}
	for _, line := range assertions {
		if err := s.parseStatement(line); err != nil {
			s.skipped++
		}
	}
	return s
}

func (s *script) parseStatement(line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "declare "):
		return s.parseDeclare(line)
	case strings.HasPrefix(line, "assert "):
		return s.parseAssert(strings.TrimSpace(strings.TrimPrefix(line, "assert ")))
	case strings.HasPrefix(line, "("):
		expr, err := parseSexpr(line)
		if err != nil {
			return err
		}
		if expr.head() != "assert" || len(expr.list) != 2 {
			return fmt.Errorf("expected (assert <expr>), got %q", line)
		}
		s.asserts = append(s.asserts, expr.list[1])
		return nil
	default:
		return fmt.Errorf("unrecognized statement %q", line)
	}
}

func (s *script) parseDeclare(line string) error {
	// declare <name> : <Sort>
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "declare" || fields[2] != ":" {
		return fmt.Errorf("malformed declaration %q", line)
	}
	name := fields[1]
	switch fields[3] {
	case "Real":
		s.declare(name, sortReal)
	case "Bool":
		s.declare(name, sortBool)
	default:
		return fmt.Errorf("unknown sort %q", fields[3])
	}
	return nil
}

func (s *script) declare(name string, sort varSort) {
	if _, ok := s.decls[name]; !ok {
		s.order = append(s.order, name)
	}
	s.decls[name] = sort
}

func (s *script) parseAssert(body string) error {
	if body == "true" {
		// Trivially true assertions constrain nothing.
		return nil
	}
	expr, err := parseSexpr(body)
	if err != nil {
		return err
	}
	s.asserts = append(s.asserts, expr)
	return nil
}

func parseSexpr(src string) (sexpr, error) {
	tokens := tokenize(src)
	expr, rest, err := parseTokens(tokens)
	if err != nil {
		return sexpr{}, err
	}
	if len(rest) != 0 {
		return sexpr{}, fmt.Errorf("trailing tokens after expression: %v", rest)
	}
	return expr, nil
}

func tokenize(src string) []string {
	src = strings.ReplaceAll(src, "(", " ( ")
	src = strings.ReplaceAll(src, ")", " ) ")
	return strings.Fields(src)
}

func parseTokens(tokens []string) (sexpr, []string, error) {
	if len(tokens) == 0 {
		return sexpr{}, nil, fmt.Errorf("unexpected end of input")
	}
	tok := tokens[0]
	tokens = tokens[1:]

	if tok == "(" {
		node := sexpr{list: []sexpr{}}
		for {
			if len(tokens) == 0 {
				return sexpr{}, nil, fmt.Errorf("unbalanced parentheses")
			}
			if tokens[0] == ")" {
				return node, tokens[1:], nil
			}
			child, rest, err := parseTokens(tokens)
			if err != nil {
				return sexpr{}, nil, err
			}
			node.list = append(node.list, child)
			tokens = rest
		}
	}
	if tok == ")" {
		return sexpr{}, nil, fmt.Errorf("unexpected close paren")
	}
	return sexpr{atom: tok}, tokens, nil
}
