package exprtree

import "math"

// ============================================================
// Serializer: expression text and LaTeX
// ============================================================

// textStyle parameterises the renderer for plain text and LaTeX.
type textStyle struct {
	times    string
	paren    func(string) string
	div      func(a, b string) string // nil renders a / b infix
	constant func(float64) string
}

var exprStyle = textStyle{
	times:    " * ",
	paren:    func(s string) string { return "(" + s + ")" },
	constant: func(v float64) string { return FormatNumber(v, 6) },
}

var latexStyle = textStyle{
	times:    ` \cdot `,
	paren:    func(s string) string { return `\left(` + s + `\right)` },
	div:      func(a, b string) string { return `\cfrac{` + a + `}{` + b + `}` },
	constant: plainNumber,
}

// ToExpression renders n as an infix expression that Parse accepts and
// that evaluates to the same value. Parentheses appear only where operator
// precedence requires them, and a subtraction whose right operand carries
// its own minus sign is written as an addition of the unsigned operand, so
// "a - -b" renders as "a + b" rather than "a - b". Keeping the minus there
// would change the value on reparse.
func ToExpression(n Node) string {
	if n == nil {
		return "0"
	}
	return exprStyle.render(n)
}

// ToLatex renders root as a single aligned equation "target = ...". An
// empty target defaults to Y.
func ToLatex(root Node, target string) string {
	if target == "" {
		target = "Y"
	}
	body := "0"
	if root != nil {
		body = latexNode(root)
	}
	return `\begin{align*} \nonumber ` + target + ` &= ` + body + ` \end{align*}`
}

func latexNode(n Node) string { return latexStyle.render(n) }

// rank is the binding strength of n's rendered form: 1 for sums, 2 for
// products (including a scaled variable), 3 for atoms.
func rank(n Node) int {
	switch v := n.(type) {
	case *Variable:
		if v.Coefficient != 1 {
			return 2
		}
	case *Operator:
		if v.Op == OpAdd || v.Op == OpSub {
			return 1
		}
		return 2
	}
	return 3
}

func (s textStyle) render(n Node) string {
	switch v := n.(type) {
	case *Constant:
		return s.constant(v.Value)
	case *Variable:
		return s.variable(v.Name, v.Coefficient)
	case *Operator:
		return s.operator(v)
	}
	return "0"
}

func (s textStyle) variable(name string, coef float64) string {
	if coef == 1 {
		return name
	}
	return FormatNumber(coef, 6) + s.times + name
}

func (s textStyle) operator(o *Operator) string {
	if o.Op == OpDiv && s.div != nil {
		return s.div(s.render(o.Left), s.render(o.Right))
	}
	left := s.child(o, o.Left, false)
	switch o.Op {
	case OpAdd:
		return left + " + " + s.child(o, o.Right, true)
	case OpSub:
		if stripped, ok := s.unsigned(o.Right); ok {
			return left + " + " + stripped
		}
		return left + " - " + s.child(o, o.Right, true)
	case OpMul:
		return left + s.times + s.child(o, o.Right, true)
	case OpDiv:
		return left + " / " + s.child(o, o.Right, true)
	}
	return "0"
}

// child renders an operand of parent, parenthesised when it binds more
// loosely than the parent, or equally on the right of '-' or '/'.
func (s textStyle) child(parent *Operator, c Node, right bool) string {
	text := s.render(c)
	pr := 1
	if parent.Op == OpMul || parent.Op == OpDiv {
		pr = 2
	}
	cr := rank(c)
	if cr < pr || (right && cr == pr && (parent.Op == OpSub || parent.Op == OpDiv)) {
		return s.paren(text)
	}
	return text
}

// unsigned renders n without the minus sign it carries itself: a negative
// constant, a variable with a negative coefficient, or a product with a
// negative constant factor. ok is false when n carries no sign of its own.
func (s textStyle) unsigned(n Node) (string, bool) {
	switch v := n.(type) {
	case *Constant:
		if v.Value < 0 {
			return s.constant(math.Abs(v.Value)), true
		}
	case *Variable:
		if v.Coefficient < 0 {
			return s.variable(v.Name, math.Abs(v.Coefficient)), true
		}
	case *Operator:
		if v.Op != OpMul {
			break
		}
		if k, ok := v.Left.(*Constant); ok && k.Value < 0 {
			return s.scaled(math.Abs(k.Value), v, v.Right), true
		}
		if k, ok := v.Right.(*Constant); ok && k.Value < 0 {
			return s.scaled(math.Abs(k.Value), v, v.Left), true
		}
	}
	return "", false
}

// scaled renders k * rest for a product parent, dropping a unit factor.
func (s textStyle) scaled(k float64, parent *Operator, rest Node) string {
	text := s.child(parent, rest, true)
	if k == 1 {
		return text
	}
	return s.constant(k) + s.times + text
}
