package exprtree_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/njchilds90/exprtree"
)

func mustParse(t *testing.T, g *exprtree.IDGen, expr string) exprtree.Node {
	t.Helper()
	n, err := exprtree.Parse(g, expr)
	if err != nil {
		t.Fatalf("parse %q: %v", expr, err)
	}
	return n
}

// loaded parses, normalizes and simplifies expr, like Session.Load.
func loaded(t *testing.T, g *exprtree.IDGen, expr string) exprtree.Node {
	t.Helper()
	return exprtree.Simplify(g, exprtree.Normalize(mustParse(t, g, expr)))
}

func findVar(root exprtree.Node, name string) exprtree.Node {
	var found exprtree.Node
	exprtree.Walk(root, func(n exprtree.Node, _ int) bool {
		if v, ok := n.(*exprtree.Variable); ok && v.Name == name && found == nil {
			found = v
		}
		return found == nil
	})
	return found
}

func ids(root exprtree.Node) []string {
	var out []string
	exprtree.Walk(root, func(n exprtree.Node, _ int) bool {
		out = append(out, n.ID())
		return true
	})
	return out
}

var (
	testConsts = []float64{0, 1, -1, 2, 0.5, -3, 7.25, 10, 0.125}
	testCoefs  = []float64{1, 1, -1, 2, -0.5, 3}
	testNames  = []string{"x", "y", "z"}
	testOps    = []exprtree.Op{exprtree.OpAdd, exprtree.OpSub, exprtree.OpMul, exprtree.OpDiv}
	testEnv    = map[string]float64{"x": 1.7, "y": -2.3, "z": 0.9}
)

// randomTree builds a tree of at most the given depth.
func randomTree(r *rand.Rand, g *exprtree.IDGen, depth int) exprtree.Node {
	if depth == 0 || r.Intn(4) == 0 {
		if r.Intn(2) == 0 {
			return g.Constant(testConsts[r.Intn(len(testConsts))])
		}
		return g.ScaledVariable(testNames[r.Intn(len(testNames))], testCoefs[r.Intn(len(testCoefs))])
	}
	op := testOps[r.Intn(len(testOps))]
	return g.Operator(op, randomTree(r, g, depth-1), randomTree(r, g, depth-1))
}

// eval is a reference evaluator used only to check that rendering and
// rewriting preserve meaning.
func eval(n exprtree.Node, env map[string]float64) float64 {
	switch v := n.(type) {
	case *exprtree.Constant:
		return v.Value
	case *exprtree.Variable:
		return v.Coefficient * env[v.Name]
	case *exprtree.Operator:
		a, b := eval(v.Left, env), eval(v.Right, env)
		switch v.Op {
		case exprtree.OpAdd:
			return a + b
		case exprtree.OpSub:
			return a - b
		case exprtree.OpMul:
			return a * b
		case exprtree.OpDiv:
			return a / b
		}
	}
	return math.NaN()
}

// approxEqual reports whether a and b agree to a relative 1e-6, treating
// non-finite or huge values as incomparable.
func approxEqual(a, b float64) (equal, comparable bool) {
	for _, v := range []float64{a, b} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e9 {
			return false, false
		}
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-6*scale, true
}
