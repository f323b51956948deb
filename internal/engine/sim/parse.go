package sim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// The reference engine understands a small subset of the BUGS language:
//
//	model {
//	  for (i in 1:N) {
//	    y[i] ~ dnorm(mu + beta * x[i], tau)
//	  }
//	  tau <- 1 / pow(sigma, 2)
//	  sigma ~ dunif(0, 10)
//	}
//
// Stochastic (~) and deterministic (<-) relations, nested for loops,
// arithmetic with + - * / ^, and the functions listed in funcs.

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNum
	tokPunct
)

type token struct {
	kind tokKind
	text string
	line int
}

func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	rs := []rune(src)
	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case c == '\n':
			line++
			i++
		case unicode.IsSpace(c):
			i++
		case c == '#':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case unicode.IsLetter(c):
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, string(rs[i:j]), line})
			i = j
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			if j < len(rs) && (rs[j] == 'e' || rs[j] == 'E') {
				k := j + 1
				if k < len(rs) && (rs[k] == '+' || rs[k] == '-') {
					k++
				}
				if k < len(rs) && unicode.IsDigit(rs[k]) {
					j = k
					for j < len(rs) && unicode.IsDigit(rs[j]) {
						j++
					}
				}
			}
			toks = append(toks, token{tokNum, string(rs[i:j]), line})
			i = j
		case c == '<' && i+1 < len(rs) && rs[i+1] == '-':
			toks = append(toks, token{tokPunct, "<-", line})
			i += 2
		case strings.ContainsRune("{}()[],:;~+-*/^", c):
			toks = append(toks, token{tokPunct, string(c), line})
			i++
		default:
			return nil, fmt.Errorf("syntax error on line %d near \"%c\"", line, c)
		}
	}
	toks = append(toks, token{tokEOF, "", line})
	return toks, nil
}

type expr interface{}

type numLit struct{ v float64 }

type varRef struct {
	name  string
	index []expr
	line  int
}

type unaryExpr struct{ x expr }

type binaryExpr struct {
	op   string
	l, r expr
}

type callExpr struct {
	fn   string
	args []expr
	line int
}

type stmt interface{}

type relation struct {
	lhs        varRef
	stochastic bool
	dist       string
	args       []expr
	value      expr
	line       int
}

type forLoop struct {
	counter  string
	from, to expr
	body     []stmt
	line     int
}

type program struct {
	stmts []stmt
	names []string
}

type parser struct {
	toks []token
	pos  int
}

func parseModel(src string) (*program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if t := p.next(); t.kind != tokIdent || t.text != "model" {
		return nil, p.errAt(t)
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	body, err := p.stmts()
	if err != nil {
		return nil, err
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errAt(t)
	}
	prog := &program{stmts: body}
	prog.names = collectNames(body)
	return prog, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t token) error {
	near := t.text
	if t.kind == tokEOF {
		near = "end of input"
	}
	return fmt.Errorf("syntax error on line %d near \"%s\"", t.line, near)
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *parser) expect(text string) error {
	t := p.next()
	if (t.kind != tokPunct && t.kind != tokIdent) || t.text != text {
		return p.errAt(t)
	}
	return nil
}

func (p *parser) stmts() ([]stmt, error) {
	var out []stmt
	for !p.is("}") && p.peek().kind != tokEOF {
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		for p.is(";") {
			p.next()
		}
	}
	return out, nil
}

func (p *parser) stmt() (stmt, error) {
	t := p.peek()
	if t.kind == tokIdent && t.text == "for" {
		return p.forLoop()
	}
	if t.kind != tokIdent {
		return nil, p.errAt(t)
	}
	lhs, err := p.varRef()
	if err != nil {
		return nil, err
	}
	rel := &relation{lhs: lhs, line: t.line}
	switch op := p.next(); {
	case op.kind == tokPunct && op.text == "~":
		rel.stochastic = true
		name := p.next()
		if name.kind != tokIdent {
			return nil, p.errAt(name)
		}
		rel.dist = name.text
		if err := p.expect("("); err != nil {
			return nil, err
		}
		if rel.args, err = p.args(")"); err != nil {
			return nil, err
		}
	case op.kind == tokPunct && op.text == "<-":
		if rel.value, err = p.expr(); err != nil {
			return nil, err
		}
	default:
		return nil, p.errAt(op)
	}
	return rel, nil
}

func (p *parser) forLoop() (stmt, error) {
	t := p.next()
	if err := p.expect("("); err != nil {
		return nil, err
	}
	counter := p.next()
	if counter.kind != tokIdent {
		return nil, p.errAt(counter)
	}
	if err := p.expect("in"); err != nil {
		return nil, err
	}
	from, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	to, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	body, err := p.stmts()
	if err != nil {
		return nil, err
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return &forLoop{counter: counter.text, from: from, to: to, body: body, line: t.line}, nil
}

func (p *parser) varRef() (varRef, error) {
	t := p.next()
	ref := varRef{name: t.text, line: t.line}
	if p.is("[") {
		p.next()
		idx, err := p.args("]")
		if err != nil {
			return varRef{}, err
		}
		if len(idx) == 0 {
			return varRef{}, p.errAt(p.toks[p.pos-1])
		}
		ref.index = idx
	}
	return ref, nil
}

// args parses a comma separated list terminated by closing.
func (p *parser) args(closing string) ([]expr, error) {
	var out []expr
	if p.is(closing) {
		p.next()
		return out, nil
	}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.is(",") {
			p.next()
			continue
		}
		if err := p.expect(closing); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *parser) expr() (expr, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.is("+") || p.is("-") {
		op := p.next().text
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) term() (expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.is("*") || p.is("/") {
		op := p.next().text
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) unary() (expr, error) {
	if p.is("-") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{x: x}, nil
	}
	return p.power()
}

func (p *parser) power() (expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.is("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{op: "^", l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokNum:
		p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errAt(t)
		}
		return &numLit{v: v}, nil
	case t.kind == tokIdent && t.text != "for" && t.text != "in":
		if p.toks[p.pos+1].kind == tokPunct && p.toks[p.pos+1].text == "(" {
			p.next()
			p.next()
			args, err := p.args(")")
			if err != nil {
				return nil, err
			}
			return &callExpr{fn: t.text, args: args, line: t.line}, nil
		}
		ref, err := p.varRef()
		if err != nil {
			return nil, err
		}
		return &ref, nil
	case t.kind == tokPunct && t.text == "(":
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errAt(t)
	}
}

// collectNames returns the sorted node array names used by the model,
// excluding loop counters.
func collectNames(body []stmt) []string {
	seen := map[string]bool{}
	var visitExpr func(e expr, counters map[string]bool)
	visitExpr = func(e expr, counters map[string]bool) {
		switch x := e.(type) {
		case *varRef:
			if !counters[x.name] {
				seen[x.name] = true
			}
			for _, i := range x.index {
				visitExpr(i, counters)
			}
		case *unaryExpr:
			visitExpr(x.x, counters)
		case *binaryExpr:
			visitExpr(x.l, counters)
			visitExpr(x.r, counters)
		case *callExpr:
			for _, a := range x.args {
				visitExpr(a, counters)
			}
		}
	}
	var visit func(ss []stmt, counters map[string]bool)
	visit = func(ss []stmt, counters map[string]bool) {
		for _, s := range ss {
			switch st := s.(type) {
			case *relation:
				lhs := st.lhs
				visitExpr(&lhs, counters)
				for _, a := range st.args {
					visitExpr(a, counters)
				}
				if st.value != nil {
					visitExpr(st.value, counters)
				}
			case *forLoop:
				visitExpr(st.from, counters)
				visitExpr(st.to, counters)
				inner := make(map[string]bool, len(counters)+1)
				for k := range counters {
					inner[k] = true
				}
				inner[st.counter] = true
				visit(st.body, inner)
			}
		}
	}
	visit(body, map[string]bool{})
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
