package exprtree

import (
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================
// Layout metrics
// ============================================================

// Metrics are the base sizes layout works in. Zero fields take the
// defaults from DefaultMetrics.
type Metrics struct {
	NodeRadius  float64 `json:"node_radius,omitempty"`
	LeafWidth   float64 `json:"leaf_width,omitempty"`
	LeafHeight  float64 `json:"leaf_height,omitempty"`
	SiblingGap  float64 `json:"sibling_gap,omitempty"`
	VerticalGap float64 `json:"vertical_gap,omitempty"`
	DrawScale   float64 `json:"draw_scale,omitempty"`
	TextScale   float64 `json:"text_scale,omitempty"`
}

// DefaultMetrics returns the stock node sizes.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeRadius: 40,
		LeafWidth:  110,
		LeafHeight: 56,
		SiblingGap: 24,
		DrawScale:  1,
		TextScale:  2,
	}
}

// withDefaults fills zero fields and raises VerticalGap to at least twice
// the taller of an operator and a leaf.
func (m Metrics) withDefaults() Metrics {
	d := DefaultMetrics()
	if m.NodeRadius <= 0 {
		m.NodeRadius = d.NodeRadius
	}
	if m.LeafWidth <= 0 {
		m.LeafWidth = d.LeafWidth
	}
	if m.LeafHeight <= 0 {
		m.LeafHeight = d.LeafHeight
	}
	if m.SiblingGap <= 0 {
		m.SiblingGap = d.SiblingGap
	}
	if m.DrawScale <= 0 {
		m.DrawScale = d.DrawScale
	}
	if m.TextScale <= 0 {
		m.TextScale = d.TextScale
	}
	base := math.Max(m.NodeRadius*2, m.LeafHeight)
	m.VerticalGap = math.Max(m.VerticalGap, base*2)
	return m
}

// HalfWidth is half the rendered width of n. Operator pills grow with the
// length of their label.
func (m Metrics) HalfWidth(n Node) float64 {
	m = m.withDefaults()
	op, ok := n.(*Operator)
	if !ok {
		return m.LeafWidth / 2 * m.DrawScale
	}
	fontSize := 12 * m.TextScale
	pad := 12 * m.TextScale
	est := float64(len(op.Op.Label()))*fontSize*0.6 + 2*pad
	minW := m.NodeRadius * 2 * m.DrawScale
	return math.Max(minW/2, est/2)
}

// ============================================================
// Layout result
// ============================================================

// Box is a node's placement: center X, Y, rendered size, and the width of
// the subtree it heads.
type Box struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	SubtreeW float64 `json:"subtree_w"`
	Depth    int     `json:"depth"`
}

// Bounds is the horizontal extent of a layout.
type Bounds struct {
	MinX  float64 `json:"min_x"`
	MaxX  float64 `json:"max_x"`
	Depth int     `json:"depth"`
}

// TreeLayout is the side table produced by Layout, keyed by node id.
type TreeLayout struct {
	Width   float64        `json:"width"`
	Bounds  Bounds         `json:"bounds"`
	Boxes   map[string]Box `json:"boxes"`
	Metrics Metrics        `json:"metrics"`
}

// ============================================================
// Layout engine
// ============================================================

// lnode is the private, mutable working copy of a node during layout.
type lnode struct {
	n     Node
	kids  []*lnode
	x, y  float64
	selfW float64
	subW  float64
	half  float64
	depth int
}

// Layout places every node of root so that no two nodes on the same depth
// come closer than SiblingGap. The passes are:
//
//  1. measure subtree widths bottom-up
//  2. assign centers top-down, children packed left to right
//  3. push overlapping nodes (with their subtrees) right, per depth
//  4. recenter parents over their children bottom-up, nudging only the
//     parents apart where that reintroduces overlap
//
// and a final pass of step 3. The reported width is at least viewportW.
func Layout(root Node, viewportW float64, metrics Metrics) *TreeLayout {
	timer := prometheus.NewTimer(layoutDuration)
	defer timer.ObserveDuration()

	m := metrics.withDefaults()
	out := &TreeLayout{Boxes: map[string]Box{}, Metrics: m}
	if root == nil {
		out.Width = viewportW
		return out
	}

	top := build(root, 0, m)
	measure(top, m)
	assign(top, 0, m)

	var levels [][]*lnode
	collectLevels(top, &levels)

	resolveCollisions(levels, m.SiblingGap)
	recenterParents(levels, m.SiblingGap)
	resolveCollisions(levels, m.SiblingGap)

	minX, maxX := math.Inf(1), math.Inf(-1)
	for d, level := range levels {
		for _, ln := range level {
			minX = math.Min(minX, ln.x-ln.half)
			maxX = math.Max(maxX, ln.x+ln.half)
			out.Boxes[ln.n.ID()] = Box{
				X:        ln.x,
				Y:        ln.y,
				W:        ln.half * 2,
				H:        m.LeafHeight,
				SubtreeW: ln.subW,
				Depth:    d,
			}
		}
	}
	out.Bounds = Bounds{MinX: minX, MaxX: maxX, Depth: len(levels) - 1}
	out.Width = math.Max(maxX-minX, viewportW)
	return out
}

func build(n Node, depth int, m Metrics) *lnode {
	ln := &lnode{n: n, depth: depth, half: m.HalfWidth(n)}
	for _, ch := range n.Children() {
		ln.kids = append(ln.kids, build(ch, depth+1, m))
	}
	return ln
}

func measure(ln *lnode, m Metrics) float64 {
	ln.selfW = ln.half * 2
	if len(ln.kids) == 0 {
		ln.subW = ln.selfW
		return ln.subW
	}
	ln.subW = math.Max(ln.selfW, childrenBlock(ln, m))
	return ln.subW
}

// childrenBlock measures the children of ln and returns their packed width.
func childrenBlock(ln *lnode, m Metrics) float64 {
	sum := 0.0
	for _, k := range ln.kids {
		sum += measure(k, m)
	}
	return sum + m.SiblingGap*float64(len(ln.kids)-1)
}

func assign(ln *lnode, left float64, m Metrics) {
	center := left + ln.subW/2
	ln.x = center
	ln.y = float64(ln.depth) * m.VerticalGap
	if len(ln.kids) == 0 {
		return
	}
	block := m.SiblingGap * float64(len(ln.kids)-1)
	for _, k := range ln.kids {
		block += k.subW
	}
	cursor := center - block/2
	for _, k := range ln.kids {
		assign(k, cursor, m)
		cursor += k.subW + m.SiblingGap
	}
}

func collectLevels(ln *lnode, levels *[][]*lnode) {
	if len(*levels) <= ln.depth {
		*levels = append(*levels, nil)
	}
	(*levels)[ln.depth] = append((*levels)[ln.depth], ln)
	for _, k := range ln.kids {
		collectLevels(k, levels)
	}
}

func shiftSubtree(ln *lnode, dx float64) {
	ln.x += dx
	for _, k := range ln.kids {
		shiftSubtree(k, dx)
	}
}

// resolveCollisions sweeps each depth from top to bottom. Shifts only move
// nodes at the same or greater depth, so a swept level stays clean.
func resolveCollisions(levels [][]*lnode, gap float64) {
	for _, level := range levels {
		sweep(level, gap, shiftSubtree)
	}
}

// sweep walks one level left to right and moves every node that starts
// closer than gap to the running right edge.
func sweep(level []*lnode, gap float64, move func(*lnode, float64)) {
	nodes := append([]*lnode(nil), level...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].x < nodes[j].x })
	prevRight := math.Inf(-1)
	for _, ln := range nodes {
		left, right := ln.x-ln.half, ln.x+ln.half
		if left < prevRight+gap {
			dx := prevRight + gap - left
			move(ln, dx)
			prevRight = right + dx
		} else {
			prevRight = right
		}
	}
}

func recenterParents(levels [][]*lnode, gap float64) {
	for d := len(levels) - 1; d >= 0; d-- {
		for _, ln := range levels[d] {
			if len(ln.kids) == 0 {
				continue
			}
			first, last := ln.kids[0], ln.kids[len(ln.kids)-1]
			ln.x = (first.x + last.x) / 2
		}
		sweep(levels[d], gap, func(ln *lnode, dx float64) { ln.x += dx })
	}
}
