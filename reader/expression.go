package reader

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrExpression is returned when a band-algebra expression cannot be parsed
// or evaluated
type ErrExpression struct {
	Expression string
	Reason     string
}

func (e ErrExpression) Error() string {
	return fmt.Sprintf("invalid expression %q: %s", e.Expression, e.Reason)
}

// Expression is a parsed band-algebra expression: one or more comma-separated
// arithmetic sub-expressions over band names and numeric literals,
// e.g. "(B08-B04)/(B08+B04)" or "B02,B03,B04".
type Expression struct {
	source string
	terms  []exprNode
	labels []string
	bands  []string
}

type exprNode interface {
	eval(env map[string]float64) (float64, error)
}

type numNode float64

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

type bandNode string

func (n bandNode) eval(env map[string]float64) (float64, error) {
	v, ok := env[string(n)]
	if !ok {
		return 0, fmt.Errorf("unknown band %s", n)
	}
	return v, nil
}

type opNode struct {
	op          byte
	left, right exprNode
}

func (n opNode) eval(env map[string]float64) (float64, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown operator %c", n.op)
}

type negNode struct{ child exprNode }

func (n negNode) eval(env map[string]float64) (float64, error) {
	v, err := n.child.eval(env)
	return -v, err
}

// ParseExpression parses the expression and resolves the bands it refers to.
// Division by a literal zero is rejected here, so that expressions fail
// before any asset is read.
func ParseExpression(source string) (*Expression, error) {
	expr := Expression{source: source}
	seen := map[string]bool{}
	for _, sub := range strings.Split(source, ",") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			return nil, ErrExpression{source, "empty sub-expression"}
		}
		p := parser{src: sub}
		node, err := p.parseSum()
		if err != nil {
			return nil, ErrExpression{source, err.Error()}
		}
		p.skipSpaces()
		if p.pos != len(p.src) {
			return nil, ErrExpression{source, fmt.Sprintf("unexpected %q", p.src[p.pos:])}
		}
		expr.terms = append(expr.terms, node)
		expr.labels = append(expr.labels, sub)
		for _, band := range collectBands(node) {
			if !seen[band] {
				seen[band] = true
				expr.bands = append(expr.bands, band)
			}
		}
	}
	return &expr, nil
}

// RequiredBands returns the bands referenced by the expression, in order of
// first appearance
func (e *Expression) RequiredBands() []string {
	return e.bands
}

// Labels returns the source text of each sub-expression, used to name the
// output bands
func (e *Expression) Labels() []string {
	return e.labels
}

// Evaluate computes each sub-expression over n pixels. env maps each required
// band to its pixel values (len n). mask flags the valid pixels (nil for all
// valid): invalid pixels are left at zero without evaluating, so a nodata
// collar where a denominator is zero does not fail the whole read.
func (e *Expression) Evaluate(env map[string][]float64, mask []bool, n int) ([][]float64, error) {
	for _, band := range e.bands {
		if len(env[band]) != n {
			return nil, ErrExpression{e.source, fmt.Sprintf("expected %d values for band %s", n, band)}
		}
	}
	if mask != nil && len(mask) != n {
		return nil, ErrExpression{e.source, fmt.Sprintf("expected %d mask values", n)}
	}
	out := make([][]float64, len(e.terms))
	pixel := make(map[string]float64, len(e.bands))
	for t, term := range e.terms {
		out[t] = make([]float64, n)
		for i := 0; i < n; i++ {
			if mask != nil && !mask[i] {
				continue
			}
			for _, band := range e.bands {
				pixel[band] = env[band][i]
			}
			v, err := term.eval(pixel)
			if err != nil {
				return nil, ErrExpression{e.source, err.Error()}
			}
			out[t][i] = v
		}
	}
	return out, nil
}

func collectBands(node exprNode) []string {
	switch n := node.(type) {
	case bandNode:
		return []string{string(n)}
	case opNode:
		return append(collectBands(n.left), collectBands(n.right)...)
	case negNode:
		return collectBands(n.child)
	}
	return nil
}

// recursive-descent parser over one sub-expression
type parser struct {
	src string
	pos int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseSum() (exprNode, error) {
	node, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '+', '-':
			op := p.src[p.pos]
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			node = opNode{op, node, right}
		default:
			return node, nil
		}
	}
}

func (p *parser) parseProduct() (exprNode, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*', '/':
			op := p.src[p.pos]
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if op == '/' {
				if num, ok := right.(numNode); ok && num == 0 {
					return nil, fmt.Errorf("division by zero")
				}
			}
			node = opNode{op, node, right}
		default:
			return node, nil
		}
	}
}

func (p *parser) parseUnary() (exprNode, error) {
	if p.peek() == '-' {
		p.pos++
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negNode{child}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (exprNode, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		node, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return node, nil
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p.src[start:p.pos])
		}
		return numNode(v), nil
	case isIdentChar(c):
		start := p.pos
		for p.pos < len(p.src) && (isIdentChar(p.src[p.pos]) || p.src[p.pos] >= '0' && p.src[p.pos] <= '9') {
			p.pos++
		}
		return bandNode(p.src[start:p.pos]), nil
	case c == 0:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q", string(c))
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
