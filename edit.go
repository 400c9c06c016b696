package exprtree

// ============================================================
// Tree editing
// ============================================================

// DeleteNodeByID removes the subtree rooted at targetID and returns the new
// tree. The removed node's sibling survives according to the parent
// operator:
//
//	Add, Mul: the sibling replaces the parent
//	Sub:      removing the left operand negates the right one
//	Div:      removing the numerator yields 0, removing the denominator
//	          leaves the numerator (as if divided by 1)
//
// The rebuilt path is simplified on the way up. Deleting the root yields
// Constant(0). An unknown id returns root unchanged. DeleteNodeByID never
// fails and never modifies root.
func DeleteNodeByID(g *IDGen, root Node, targetID string) Node {
	n, _ := deleteNode(g, root, targetID)
	return n
}

// deleteNode is DeleteNodeByID that also reports whether targetID existed.
func deleteNode(g *IDGen, root Node, targetID string) (Node, bool) {
	if root == nil {
		return nil, false
	}
	if g == nil {
		g = seededIDGen(root)
	}
	if root.ID() == targetID {
		return g.Constant(0), true
	}
	if Find(root, targetID) == nil {
		return root, false
	}
	n, _ := remove(g, root.Clone(), targetID)
	return n, true
}

func remove(g *IDGen, n Node, targetID string) (Node, bool) {
	op, ok := n.(*Operator)
	if !ok {
		return n, false
	}
	if op.Left.ID() == targetID {
		return simplify(g, afterChildRemoved(g, op.Op, op.Right, true)), true
	}
	if op.Right.ID() == targetID {
		return simplify(g, afterChildRemoved(g, op.Op, op.Left, false)), true
	}
	left, changedL := remove(g, op.Left, targetID)
	right, changedR := remove(g, op.Right, targetID)
	if !changedL && !changedR {
		return op, false
	}
	return simplify(g, op.with(left, right)), true
}

// afterChildRemoved returns what stands in for a parent whose left (or
// right) child has been removed, given the surviving sibling.
func afterChildRemoved(g *IDGen, op Op, other Node, removedLeft bool) Node {
	switch op {
	case OpSub:
		if removedLeft {
			return negate(g, other)
		}
	case OpDiv:
		if removedLeft {
			return g.Constant(0)
		}
	}
	return other
}
