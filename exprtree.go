// Package exprtree provides the symbolic expression-tree engine behind a
// formula editor for regression results.
//
// Design goals:
//   - Strictly binary AST: every operator has exactly two children
//   - Immutable trees: every transform returns a new tree, ids survive clones
//   - Deterministic output: stable ids, stable layout, stable text
//   - Side tables for derived data (weights, colors, layout boxes)
package exprtree

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Node is a vertex of the expression tree. The concrete types are
// *Constant, *Variable and *Operator.
type Node interface {
	ID() string
	Kind() Kind
	Clone() Node
	Children() []Node
	String() string
	LaTeX() string
	Equal(other Node) bool
	toJSON() map[string]interface{}
}

// Kind tags the three node variants.
type Kind int

const (
	KindConstant Kind = iota
	KindVariable
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	case KindOperator:
		return "operator"
	}
	return "unknown"
}

// Op is a binary arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	}
	return "?"
}

// Symbol returns the infix symbol of the operator.
func (o Op) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return "?"
}

// Label returns the display label used for operator nodes.
func (o Op) Label() string {
	switch o {
	case OpAdd:
		return "Addition"
	case OpSub:
		return "Subtraction"
	case OpMul:
		return "Multiplication"
	case OpDiv:
		return "Division"
	}
	return "?"
}

func opFromSymbol(s string) (Op, bool) {
	switch s {
	case "+":
		return OpAdd, true
	case "-":
		return OpSub, true
	case "*":
		return OpMul, true
	case "/":
		return OpDiv, true
	}
	return 0, false
}

func opFromName(s string) (Op, bool) {
	switch s {
	case "add":
		return OpAdd, true
	case "sub":
		return OpSub, true
	case "mul":
		return OpMul, true
	case "div":
		return OpDiv, true
	}
	return 0, false
}

// ============================================================
// IDGen: node id source
// ============================================================

// IDGen hands out node ids. It is threaded explicitly through every call
// that constructs nodes; there is no package-level counter. An IDGen is not
// safe for concurrent use.
type IDGen struct {
	seq uint64
}

// NewIDGen returns a generator starting at 1.
func NewIDGen() *IDGen { return &IDGen{} }

func (g *IDGen) next(prefix string) string {
	g.seq++
	return prefix + "_" + strconv.FormatUint(g.seq, 10)
}

// observe advances the generator past the numeric suffix of id, so ids
// decoded from elsewhere are never handed out again.
func (g *IDGen) observe(id string) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 {
		return
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err == nil && n > g.seq {
		g.seq = n
	}
}

// Constant creates a constant leaf.
func (g *IDGen) Constant(value float64) *Constant {
	return &Constant{id: g.next("c"), Value: value}
}

// Variable creates a variable leaf with coefficient 1.
func (g *IDGen) Variable(name string) *Variable {
	return &Variable{id: g.next("v"), Name: name, Coefficient: 1}
}

// ScaledVariable creates a variable leaf carrying coef.
func (g *IDGen) ScaledVariable(name string, coef float64) *Variable {
	return &Variable{id: g.next("v"), Name: name, Coefficient: coef}
}

// Operator creates an operator node. Both children must be non-nil.
func (g *IDGen) Operator(op Op, left, right Node) *Operator {
	if left == nil || right == nil {
		panic("exprtree: operator requires two children")
	}
	return &Operator{id: g.next("o"), Op: op, Left: left, Right: right}
}

// ============================================================
// Constant
// ============================================================

// Constant is a numeric leaf.
type Constant struct {
	id    string
	Value float64
}

func (c *Constant) ID() string       { return c.id }
func (c *Constant) Kind() Kind       { return KindConstant }
func (c *Constant) Clone() Node      { return &Constant{id: c.id, Value: c.Value} }
func (c *Constant) Children() []Node { return nil }
func (c *Constant) String() string   { return ToExpression(c) }
func (c *Constant) LaTeX() string    { return latexNode(c) }
func (c *Constant) Equal(other Node) bool {
	o, ok := other.(*Constant)
	return ok && o.Value == c.Value
}

// ============================================================
// Variable
// ============================================================

// Variable is a named leaf. Coefficient is the only place a scalar
// multiplier may live on a leaf.
type Variable struct {
	id          string
	Name        string
	Coefficient float64
}

func (v *Variable) ID() string       { return v.id }
func (v *Variable) Kind() Kind       { return KindVariable }
func (v *Variable) Children() []Node { return nil }
func (v *Variable) String() string   { return ToExpression(v) }
func (v *Variable) LaTeX() string    { return latexNode(v) }
func (v *Variable) Clone() Node {
	return &Variable{id: v.id, Name: v.Name, Coefficient: v.Coefficient}
}
func (v *Variable) Equal(other Node) bool {
	o, ok := other.(*Variable)
	return ok && o.Name == v.Name && o.Coefficient == v.Coefficient
}

// scaled returns a copy of v, same id, with its coefficient multiplied by k.
func (v *Variable) scaled(k float64) *Variable {
	return &Variable{id: v.id, Name: v.Name, Coefficient: v.Coefficient * k}
}

// ============================================================
// Operator
// ============================================================

// Operator is a binary node. Left and Right are never nil.
type Operator struct {
	id    string
	Op    Op
	Left  Node
	Right Node
}

func (o *Operator) ID() string       { return o.id }
func (o *Operator) Kind() Kind       { return KindOperator }
func (o *Operator) Children() []Node { return []Node{o.Left, o.Right} }
func (o *Operator) String() string   { return ToExpression(o) }
func (o *Operator) LaTeX() string    { return latexNode(o) }
func (o *Operator) Clone() Node {
	return &Operator{id: o.id, Op: o.Op, Left: o.Left.Clone(), Right: o.Right.Clone()}
}
func (o *Operator) Equal(other Node) bool {
	p, ok := other.(*Operator)
	return ok && p.Op == o.Op && o.Left.Equal(p.Left) && o.Right.Equal(p.Right)
}

// with returns a shallow copy of o with new children, keeping its id.
func (o *Operator) with(left, right Node) *Operator {
	return &Operator{id: o.id, Op: o.Op, Left: left, Right: right}
}

// ============================================================
// Tree utilities
// ============================================================

// Walk visits n and its descendants in pre-order, left before right.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(n Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, ch := range n.Children() {
		walk(ch, depth+1, fn)
	}
}

// Find returns the node with the given id, or nil.
func Find(root Node, id string) Node {
	var found Node
	Walk(root, func(n Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree.
func Count(root Node) int {
	c := 0
	Walk(root, func(Node, int) bool { c++; return true })
	return c
}

// Depth returns the depth of the deepest node; a lone leaf has depth 0.
func Depth(root Node) int {
	deepest := 0
	Walk(root, func(_ Node, d int) bool {
		if d > deepest {
			deepest = d
		}
		return true
	})
	return deepest
}

// WellFormed reports whether every operator in the tree has two non-nil
// children.
func WellFormed(root Node) bool {
	if root == nil {
		return false
	}
	ok := true
	Walk(root, func(n Node, _ int) bool {
		if op, isOp := n.(*Operator); isOp && (op.Left == nil || op.Right == nil) {
			ok = false
		}
		return ok
	})
	return ok
}

func isConst(n Node) bool {
	_, ok := n.(*Constant)
	return ok
}

func isConstValue(n Node, v float64) bool {
	c, ok := n.(*Constant)
	return ok && math.Abs(c.Value-v) < 1e-12
}

// constOnly reports whether the subtree contains no variables.
func constOnly(n Node) bool {
	switch v := n.(type) {
	case *Constant:
		return true
	case *Variable:
		return false
	case *Operator:
		return constOnly(v.Left) && constOnly(v.Right)
	}
	return true
}

// evalConst evaluates a variable-free subtree.
func evalConst(n Node) float64 {
	switch v := n.(type) {
	case *Constant:
		return v.Value
	case *Operator:
		a, b := evalConst(v.Left), evalConst(v.Right)
		switch v.Op {
		case OpAdd:
			return a + b
		case OpSub:
			return a - b
		case OpMul:
			return a * b
		case OpDiv:
			return a / b
		}
	}
	return 1
}
