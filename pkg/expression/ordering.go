package expression

import (
	"fmt"
	"strings"
)

// JMESPath only orders numbers: `<`, `<=`, `>` and `>=` on anything else
// yield null. rewriteOrdering replaces every ordering comparison with an
// equivalent built on sort(), which orders strings lexically, orders numbers
// numerically and fails when the operands are not both numbers or both
// strings. The rewrite works on source spans, so each operand keeps its
// evaluation context (filters and projections included).

// sortTypeError is the signature of sort()'s argument type failure.
const sortTypeError = `"array[string]", "array[number]"`

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokQuoted
	tokLiteral
	tokNumber
	tokStar
	tokDot
	tokFilter
	tokFlatten
	tokLparen
	tokRparen
	tokLbracket
	tokRbracket
	tokLbrace
	tokRbrace
	tokComma
	tokColon
	tokCurrent
	tokExpref
	tokNot
	tokPipe
	tokOr
	tokAnd
	tokEQ
	tokNE
	tokLT
	tokLTE
	tokGT
	tokGTE
)

var bindingPowers = map[tokenKind]int{
	tokPipe:     1,
	tokOr:       2,
	tokAnd:      3,
	tokEQ:       5,
	tokNE:       5,
	tokLT:       5,
	tokLTE:      5,
	tokGT:       5,
	tokGTE:      5,
	tokFlatten:  9,
	tokStar:     20,
	tokFilter:   21,
	tokDot:      40,
	tokNot:      45,
	tokLbrace:   50,
	tokLbracket: 55,
	tokLparen:   60,
}

// Longest operators first.
var operators = []struct {
	text string
	kind tokenKind
}{
	{"||", tokOr}, {"&&", tokAnd}, {"==", tokEQ}, {"!=", tokNE}, {"<=", tokLTE}, {">=", tokGTE},
	{"|", tokPipe}, {"&", tokExpref}, {"!", tokNot}, {"<", tokLT}, {">", tokGT},
	{".", tokDot}, {"*", tokStar}, {",", tokComma}, {":", tokColon}, {"@", tokCurrent},
	{"(", tokLparen}, {")", tokRparen}, {"{", tokLbrace}, {"}", tokRbrace}, {"]", tokRbracket},
}

type token struct {
	kind       tokenKind
	start, end int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		start := i
		c := src[i]
		kind := tokEOF
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case isIdentStart(c):
			for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
				i++
			}
			kind = tokIdent
		case c == '-' || isDigit(c):
			i++
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			kind = tokNumber
		case c == '"' || c == '`':
			end, err := closing(src, i+1, c)
			if err != nil {
				return nil, err
			}
			i = end + 1
			kind = tokQuoted
			if c == '`' {
				kind = tokLiteral
			}
		case c == '\'':
			i++
			for i < len(src) && src[i] != '\'' {
				if src[i] == '\\' && i+1 < len(src) && src[i+1] == '\'' {
					i++
				}
				i++
			}
			if i >= len(src) {
				return nil, fmt.Errorf("unclosed delimiter ' at %d", start)
			}
			i++
			kind = tokLiteral
		case c == '[':
			i++
			kind = tokLbracket
			if i < len(src) && src[i] == '?' {
				i++
				kind = tokFilter
			} else if i < len(src) && src[i] == ']' {
				i++
				kind = tokFlatten
			}
		default:
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op.text) {
					kind = op.kind
					i += len(op.text)
					break
				}
			}
			if kind == tokEOF {
				return nil, fmt.Errorf("unexpected character %q at %d", c, i)
			}
		}
		toks = append(toks, token{kind: kind, start: start, end: i})
	}
	return append(toks, token{kind: tokEOF, start: len(src), end: len(src)}), nil
}

func closing(src string, i int, delim byte) (int, error) {
	for i < len(src) {
		if src[i] == '\\' {
			i += 2
			continue
		}
		if src[i] == delim {
			return i, nil
		}
		i++
	}
	return 0, fmt.Errorf("unclosed delimiter %c", delim)
}

// span is a parsed subexpression. op is set on ordering comparisons.
type span struct {
	start, end int
	op         string
	children   []*span
}

func (s *span) render(src string) string {
	if s.op != "" {
		left, right := s.children[0].render(src), s.children[1].render(src)
		first := fmt.Sprintf("sort([%s, %s])[0]", left, right)
		switch s.op {
		case "<":
			return fmt.Sprintf("(%s == %s && %s != %s)", first, left, left, right)
		case "<=":
			return fmt.Sprintf("(%s == %s)", first, left)
		case ">":
			return fmt.Sprintf("(%s == %s && %s != %s)", first, right, left, right)
		default:
			return fmt.Sprintf("(%s == %s)", first, right)
		}
	}

	var b strings.Builder
	pos := s.start
	for _, c := range s.children {
		b.WriteString(src[pos:c.start])
		b.WriteString(c.render(src))
		pos = c.end
	}
	b.WriteString(src[pos:s.end])
	return b.String()
}

// spanParser follows go-jmespath's Pratt parser, keeping only source spans.
type spanParser struct {
	src  string
	toks []token
	pos  int
}

func (p *spanParser) peek(n int) tokenKind {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i].kind
	}
	return tokEOF
}

func (p *spanParser) advance() token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *spanParser) match(kind tokenKind) error {
	if p.peek(0) != kind {
		return p.unexpected(p.toks[p.pos])
	}
	p.advance()
	return nil
}

func (p *spanParser) unexpected(tok token) error {
	return fmt.Errorf("unexpected token at %d", tok.start)
}

// node closes a span ending at the last consumed token.
func (p *spanParser) node(start int, children ...*span) *span {
	n := &span{start: start, end: p.toks[p.pos-1].end}
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	return n
}

func (p *spanParser) expression(bp int) (*span, error) {
	left, err := p.nud(p.advance())
	if err != nil {
		return nil, err
	}
	for bp < bindingPowers[p.peek(0)] {
		if left, err = p.led(p.advance(), left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *spanParser) nud(tok token) (*span, error) {
	switch tok.kind {
	case tokLiteral, tokIdent, tokQuoted, tokCurrent:
		return p.node(tok.start), nil
	case tokStar:
		if p.peek(0) == tokRbracket {
			return p.node(tok.start), nil
		}
		rhs, err := p.projection(bindingPowers[tokStar])
		return p.node(tok.start, rhs), err
	case tokFilter:
		return p.filter(tok.start, nil)
	case tokLbrace:
		return p.hash(tok.start)
	case tokFlatten:
		rhs, err := p.projection(bindingPowers[tokFlatten])
		return p.node(tok.start, rhs), err
	case tokLbracket:
		switch {
		case p.peek(0) == tokNumber || p.peek(0) == tokColon:
			return p.index(tok.start, nil)
		case p.peek(0) == tokStar && p.peek(1) == tokRbracket:
			p.advance()
			p.advance()
			rhs, err := p.projection(bindingPowers[tokStar])
			return p.node(tok.start, rhs), err
		default:
			return p.list(tok.start)
		}
	case tokExpref, tokNot:
		inner, err := p.expression(bindingPowers[tok.kind])
		return p.node(tok.start, inner), err
	case tokLparen:
		inner, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		if err := p.match(tokRparen); err != nil {
			return nil, err
		}
		return p.node(tok.start, inner), nil
	}
	return nil, p.unexpected(tok)
}

func (p *spanParser) led(tok token, left *span) (*span, error) {
	switch tok.kind {
	case tokDot:
		if p.peek(0) != tokStar {
			rhs, err := p.dotRHS(bindingPowers[tokDot])
			return p.node(left.start, left, rhs), err
		}
		p.advance()
		rhs, err := p.projection(bindingPowers[tokDot])
		return p.node(left.start, left, rhs), err
	case tokPipe, tokOr, tokAnd, tokEQ, tokNE:
		rhs, err := p.expression(bindingPowers[tok.kind])
		return p.node(left.start, left, rhs), err
	case tokLT, tokLTE, tokGT, tokGTE:
		rhs, err := p.expression(bindingPowers[tok.kind])
		if err != nil {
			return nil, err
		}
		n := p.node(left.start, left, rhs)
		n.op = p.src[tok.start:tok.end]
		return n, nil
	case tokLparen:
		args := []*span{left}
		for p.peek(0) != tokRparen {
			arg, err := p.expression(0)
			if err != nil {
				return nil, err
			}
			if p.peek(0) == tokComma {
				p.advance()
			}
			args = append(args, arg)
		}
		p.advance()
		return p.node(left.start, args...), nil
	case tokFilter:
		return p.filter(left.start, left)
	case tokFlatten:
		rhs, err := p.projection(bindingPowers[tokFlatten])
		return p.node(left.start, left, rhs), err
	case tokLbracket:
		if p.peek(0) == tokNumber || p.peek(0) == tokColon {
			return p.index(left.start, left)
		}
		if err := p.match(tokStar); err != nil {
			return nil, err
		}
		if err := p.match(tokRbracket); err != nil {
			return nil, err
		}
		rhs, err := p.projection(bindingPowers[tokStar])
		return p.node(left.start, left, rhs), err
	}
	return nil, p.unexpected(tok)
}

// index parses an index or a slice after an opening bracket.
func (p *spanParser) index(start int, left *span) (*span, error) {
	if p.peek(0) != tokColon && p.peek(1) != tokColon {
		p.advance()
		if err := p.match(tokRbracket); err != nil {
			return nil, err
		}
		return p.node(start, left), nil
	}
	for parts := 0; p.peek(0) != tokRbracket && parts < 3; {
		switch tok := p.advance(); tok.kind {
		case tokColon:
			parts++
		case tokNumber:
		default:
			return nil, p.unexpected(tok)
		}
	}
	if err := p.match(tokRbracket); err != nil {
		return nil, err
	}
	rhs, err := p.projection(bindingPowers[tokStar])
	return p.node(start, left, rhs), err
}

func (p *spanParser) filter(start int, left *span) (*span, error) {
	cond, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if err := p.match(tokRbracket); err != nil {
		return nil, err
	}
	var rhs *span
	if p.peek(0) != tokFlatten {
		rhs, err = p.projection(bindingPowers[tokFilter])
	}
	return p.node(start, left, cond, rhs), err
}

func (p *spanParser) dotRHS(bp int) (*span, error) {
	switch p.peek(0) {
	case tokQuoted, tokIdent, tokStar:
		return p.expression(bp)
	case tokLbracket:
		return p.list(p.advance().start)
	case tokLbrace:
		return p.hash(p.advance().start)
	}
	return nil, p.unexpected(p.toks[p.pos])
}

func (p *spanParser) projection(bp int) (*span, error) {
	switch k := p.peek(0); {
	case bindingPowers[k] < 10:
		return nil, nil
	case k == tokLbracket || k == tokFilter:
		return p.expression(bp)
	case k == tokDot:
		p.advance()
		return p.dotRHS(bp)
	}
	return nil, p.unexpected(p.toks[p.pos])
}

func (p *spanParser) list(start int) (*span, error) {
	var items []*span
	for {
		item, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek(0) == tokRbracket {
			break
		}
		if err := p.match(tokComma); err != nil {
			return nil, err
		}
	}
	p.advance()
	return p.node(start, items...), nil
}

func (p *spanParser) hash(start int) (*span, error) {
	var values []*span
	for {
		if k := p.peek(0); k != tokIdent && k != tokQuoted {
			return nil, p.unexpected(p.toks[p.pos])
		}
		p.advance()
		if err := p.match(tokColon); err != nil {
			return nil, err
		}
		value, err := p.expression(0)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		if p.peek(0) == tokComma {
			p.advance()
		} else if p.peek(0) == tokRbrace {
			p.advance()
			break
		}
	}
	return p.node(start, values...), nil
}

// rewriteOrdering reports whether expr holds an ordering comparison and, if
// so, returns it rewritten so that go-jmespath enforces typed ordering.
func rewriteOrdering(expr string) (string, bool, error) {
	toks, err := lex(expr)
	if err != nil {
		return "", false, err
	}
	ordered := false
	for _, t := range toks {
		switch t.kind {
		case tokLT, tokLTE, tokGT, tokGTE:
			ordered = true
		}
	}
	if !ordered {
		return expr, false, nil
	}

	p := &spanParser{src: expr, toks: toks}
	root, err := p.expression(0)
	if err != nil {
		return "", false, err
	}
	if p.peek(0) != tokEOF {
		return "", false, p.unexpected(p.toks[p.pos])
	}
	return root.render(expr), true, nil
}
