package exprtree

// ============================================================
// Normalize: coefficient sinking
// ============================================================

// Normalize returns a copy of n in which every Mul of a constant and a
// variable has been folded into the variable's coefficient. Nested Add and
// Mul chains are left binary.
func Normalize(n Node) Node {
	op, ok := n.(*Operator)
	if !ok {
		return n.Clone()
	}
	left, right := Normalize(op.Left), Normalize(op.Right)
	if op.Op == OpMul {
		if v, ok := sinkCoefficient(left, right); ok {
			return v
		}
	}
	return op.with(left, right)
}

// sinkCoefficient folds Constant×Variable (either order) into the variable.
func sinkCoefficient(a, b Node) (*Variable, bool) {
	if c, ok := a.(*Constant); ok {
		if v, ok := b.(*Variable); ok {
			return v.scaled(c.Value), true
		}
	}
	if c, ok := b.(*Constant); ok {
		if v, ok := a.(*Variable); ok {
			return v.scaled(c.Value), true
		}
	}
	return nil, false
}

// ============================================================
// Simplify: identity elimination
// ============================================================

// Simplify returns an algebraically reduced copy of n. Only identity rules
// are applied:
//
//	a+0 → a, 0+b → b
//	a-0 → a, 0-b → -b
//	a*0, 0*b → 0; 1*b → b; a*1 → a; constant×variable → scaled variable
//	0/b → 0, a/1 → a
//
// New nodes draw ids from g. A nil g uses a generator seeded past every id
// already in n. Simplify is idempotent.
func Simplify(g *IDGen, n Node) Node {
	if g == nil {
		g = seededIDGen(n)
	}
	return simplify(g, n)
}

func simplify(g *IDGen, n Node) Node {
	op, ok := n.(*Operator)
	if !ok {
		return n.Clone()
	}
	return simplifyOp(g, op, simplify(g, op.Left), simplify(g, op.Right))
}

// simplifyOp applies the identity rules to op with already-simplified
// children a and b.
func simplifyOp(g *IDGen, op *Operator, a, b Node) Node {
	switch op.Op {
	case OpAdd:
		if isConstValue(a, 0) {
			return b
		}
		if isConstValue(b, 0) {
			return a
		}
	case OpSub:
		if isConstValue(b, 0) {
			return a
		}
		if isConstValue(a, 0) {
			return negate(g, b)
		}
	case OpMul:
		if isConstValue(a, 0) || isConstValue(b, 0) {
			return g.Constant(0)
		}
		if isConstValue(a, 1) {
			return b
		}
		if isConstValue(b, 1) {
			return a
		}
		if v, ok := sinkCoefficient(a, b); ok {
			return v
		}
	case OpDiv:
		if isConstValue(a, 0) {
			return g.Constant(0)
		}
		if isConstValue(b, 1) {
			return a
		}
	}
	return op.with(a, b)
}

// negate returns -n: literal negation for constants, otherwise -1*n with
// the Mul rules applied so a variable absorbs the sign.
func negate(g *IDGen, n Node) Node {
	if c, ok := n.(*Constant); ok {
		return g.Constant(-c.Value)
	}
	minus := g.Operator(OpMul, g.Constant(-1), n)
	return simplifyOp(g, minus, minus.Left, n)
}

// seededIDGen returns a generator that will not reissue any id in root.
func seededIDGen(root Node) *IDGen {
	g := NewIDGen()
	Walk(root, func(n Node, _ int) bool {
		g.observe(n.ID())
		return true
	})
	return g
}
