package exprtree

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ============================================================
// Impact maps
// ============================================================

// ImpactMap maps a leaf's LeafKey to a backend-supplied influence value.
type ImpactMap map[string]float64

// FlattenImpactTree flattens a nested impact tree (objects of objects whose
// leaves are numbers) into an ImpactMap. Non-numeric leaf values count as
// 0. Keys that occur more than once are returned in first-seen order; the
// last occurrence wins.
func FlattenImpactTree(tree map[string]interface{}) (ImpactMap, []string) {
	out := ImpactMap{}
	seen := map[string]bool{}
	var dups []string
	var walk func(m map[string]interface{})
	walk = func(m map[string]interface{}) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if sub, ok := m[k].(map[string]interface{}); ok {
				walk(sub)
				continue
			}
			if seen[k] {
				if !contains(dups, k) {
					dups = append(dups, k)
				}
			}
			seen[k] = true
			out[k] = impactValue(m[k])
		}
	}
	if tree != nil {
		walk(tree)
	}
	return out, dups
}

// ParseImpactTree decodes a JSON impact tree and flattens it.
func ParseImpactTree(data []byte) (ImpactMap, []string, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, nil, fmt.Errorf("impact tree: %w", err)
	}
	m, dups := FlattenImpactTree(tree)
	return m, dups, nil
}

func impactValue(v interface{}) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case json.Number:
		f, _ = x.Float64()
	case string:
		f, _ = strconv.ParseFloat(x, 64)
	case bool:
		if x {
			f = 1
		}
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// ============================================================
// Weight propagation
// ============================================================

// Weights is the side table produced by ComputeWeights. The tree itself is
// never annotated.
type Weights struct {
	Scale  float64
	Weight map[string]float64
	Color  map[string]Color
	// Order lists node ids in the pre-order they were visited.
	Order []string
	// Collisions lists impact keys matched by more than one distinct leaf.
	// Such leaves all received the same backend value.
	Collisions []string
}

// Of returns the weight of the node with the given id.
func (w *Weights) Of(id string) float64 { return w.Weight[id] }

// ComputeWeights assigns every node a signed influence. Leaves take their
// value from impacts when their LeafKey is present; otherwise a variable
// weighs its coefficient and a constant weighs 0. Operators combine their
// children:
//
//	Add: L + R
//	Sub: L - R
//	Mul: k*W for a constant-only side k and other side W; 0 when both sides
//	     are constant-only; (L + R) when both carry variables
//	Div: L / d for a constant-only denominator d (d == 0 counts as 1);
//	     otherwise L - R
//
// The Mul and Div rules for two variable-bearing sides are a linear proxy,
// not a true sensitivity.
func ComputeWeights(root Node, impacts ImpactMap) *Weights {
	w := &Weights{
		Weight: map[string]float64{},
		Color:  map[string]Color{},
	}
	if root == nil {
		w.Scale = 1
		return w
	}
	keyOwners := map[string]string{}
	var dfs func(n Node) float64
	dfs = func(n Node) float64 {
		w.Order = append(w.Order, n.ID())
		var v float64
		switch x := n.(type) {
		case *Constant, *Variable:
			key := LeafKey(n)
			if imp, ok := impacts[key]; ok {
				v = imp
				w.noteKey(keyOwners, key, n)
			} else if vr, ok := x.(*Variable); ok {
				v = vr.Coefficient
			}
		case *Operator:
			l, r := dfs(x.Left), dfs(x.Right)
			v = combine(x, l, r)
		}
		w.Weight[n.ID()] = v
		return v
	}
	dfs(root)

	abs := make([]float64, len(w.Order))
	for i, id := range w.Order {
		abs[i] = math.Abs(w.Weight[id])
	}
	w.Scale = quantile(abs, 0.95)
	if w.Scale == 0 {
		w.Scale = 1
		for _, a := range abs {
			if a > w.Scale {
				w.Scale = a
			}
		}
	}
	for _, id := range w.Order {
		w.Color[id] = WeightColor(w.Weight[id], w.Scale)
	}
	return w
}

// noteKey records that leaf n consumed impact key. A second leaf with the
// same key is a collision.
func (w *Weights) noteKey(owners map[string]string, key string, n Node) {
	prev, ok := owners[key]
	if !ok {
		owners[key] = n.ID()
		return
	}
	if prev != n.ID() && !contains(w.Collisions, key) {
		w.Collisions = append(w.Collisions, key)
	}
}

func combine(op *Operator, l, r float64) float64 {
	switch op.Op {
	case OpAdd:
		return l + r
	case OpSub:
		return l - r
	case OpMul:
		lc, rc := constOnly(op.Left), constOnly(op.Right)
		switch {
		case lc && rc:
			return 0
		case lc:
			return evalConst(op.Left) * r
		case rc:
			return evalConst(op.Right) * l
		}
		return l + r
	case OpDiv:
		if constOnly(op.Right) {
			d := evalConst(op.Right)
			if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				d = 1
			}
			return l / d
		}
		return l - r
	}
	return 0
}

// quantile returns the q-quantile of xs with linear interpolation.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	a := append([]float64(nil), xs...)
	sort.Float64s(a)
	pos := float64(len(a)-1) * q
	base := int(math.Floor(pos))
	rest := pos - float64(base)
	if base+1 < len(a) {
		return a[base] + rest*(a[base+1]-a[base])
	}
	return a[base]
}

// ============================================================
// Colors
// ============================================================

// Color is an HSL fill derived from a weight. Neutral marks an exact zero
// weight, rendered white.
type Color struct {
	Hue        float64
	Saturation float64
	Lightness  float64
	Neutral    bool
}

func (c Color) String() string {
	if c.Neutral {
		return "#ffffff"
	}
	return fmt.Sprintf("hsl(%s, %s%%, %s%%)",
		strconv.FormatFloat(c.Hue, 'f', -1, 64),
		strconv.FormatFloat(c.Saturation, 'f', -1, 64),
		strconv.FormatFloat(c.Lightness, 'f', -1, 64))
}

// WeightColor maps weight to a color on a shared scale: lightness runs from
// 95% at zero magnitude to 35% at or beyond scale. Positive weights are
// green, negative red.
func WeightColor(weight, scale float64) Color {
	s := math.Max(scale, 1e-9)
	t := math.Min(1, math.Max(0, math.Abs(weight)/s))
	l := 95 - 60*t
	switch {
	case weight > 0:
		return Color{Hue: 145, Saturation: 60, Lightness: l}
	case weight < 0:
		return Color{Hue: 0, Saturation: 65, Lightness: l}
	}
	return Color{Neutral: true, Lightness: 100}
}

// ============================================================
// Feature importance
// ============================================================

// FeatureImportance is one variable's share of the total absolute
// coefficient mass.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ComputeFeatureImportance sums |coefficient| per variable name and
// normalises the sums to 1, rounded to six decimals. The result is sorted
// by importance, ties kept in first-seen order.
func ComputeFeatureImportance(root Node) []FeatureImportance {
	var out []FeatureImportance
	index := map[string]int{}
	Walk(root, func(n Node, _ int) bool {
		v, ok := n.(*Variable)
		if !ok {
			return true
		}
		i, seen := index[v.Name]
		if !seen {
			i = len(out)
			index[v.Name] = i
			out = append(out, FeatureImportance{Feature: v.Name})
		}
		out[i].Importance += math.Abs(v.Coefficient)
		return true
	})
	total := 0.0
	for _, f := range out {
		total += f.Importance
	}
	if total > 0 {
		for i := range out {
			out[i].Importance = math.Round(out[i].Importance/total*1e6) / 1e6
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}
