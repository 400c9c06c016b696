package exprtree

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ParseTotal(t *testing.T) {
	ok := testutil.ToFloat64(parseTotal.WithLabelValues("ok"))
	bad := testutil.ToFloat64(parseTotal.WithLabelValues("mismatched_parenthesis"))

	if _, err := Parse(nil, "x + 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(nil, "(x"); err == nil {
		t.Fatal("want an error")
	}

	if got := testutil.ToFloat64(parseTotal.WithLabelValues("ok")) - ok; got != 1 {
		t.Errorf("want 1 ok parse, got %v", got)
	}
	if got := testutil.ToFloat64(parseTotal.WithLabelValues("mismatched_parenthesis")) - bad; got != 1 {
		t.Errorf("want 1 failed parse, got %v", got)
	}
}

func TestMetrics_Edits(t *testing.T) {
	before := testutil.ToFloat64(editsTotal.WithLabelValues("delete"))
	undos := testutil.ToFloat64(editsTotal.WithLabelValues("undo"))

	s := NewSession(Config{}, nil)
	if err := s.Load("a + b + c"); err != nil {
		t.Fatal(err)
	}
	root := s.Root().(*Operator)
	s.Delete(root.Right.ID())
	if got := testutil.ToFloat64(undoDepth); got != 1 {
		t.Errorf("want undo depth gauge 1, got %v", got)
	}
	s.Delete("missing")
	s.Undo()

	if got := testutil.ToFloat64(editsTotal.WithLabelValues("delete")) - before; got != 1 {
		t.Errorf("want 1 delete, got %v", got)
	}
	if got := testutil.ToFloat64(editsTotal.WithLabelValues("undo")) - undos; got != 1 {
		t.Errorf("want 1 undo, got %v", got)
	}
	if got := testutil.ToFloat64(undoDepth); got != 0 {
		t.Errorf("want undo depth gauge 0, got %v", got)
	}
}

func TestMetrics_LayoutDuration(t *testing.T) {
	Layout(nil, 0, Metrics{})
	if n := testutil.CollectAndCount(layoutDuration); n != 1 {
		t.Errorf("want 1 histogram series, got %d", n)
	}
}

func TestErrorLabel(t *testing.T) {
	cases := map[string]string{
		"(x":    "mismatched_parenthesis",
		"x +":   "malformed_expression",
		"x y":   "unreducible_expression",
		"x # y": "unknown_character",
	}
	for in, want := range cases {
		_, err := Parse(nil, in)
		if got := errorLabel(err); got != want {
			t.Errorf("%q: want %s, got %s", in, want, got)
		}
	}
	if got := errorLabel(nil); got != "ok" {
		t.Errorf("want ok, got %s", got)
	}
}

func TestIDGen_Observe(t *testing.T) {
	g := NewIDGen()
	g.observe("o_12")
	g.observe("v_3")
	g.observe("custom")
	g.observe("x_y")
	if got := g.next("c"); got != "c_13" {
		t.Errorf("want c_13, got %s", got)
	}
}

func TestQuantile(t *testing.T) {
	cases := []struct {
		xs   []float64
		q    float64
		want float64
	}{
		{nil, 0.95, 0},
		{[]float64{7}, 0.95, 7},
		{[]float64{3, 1, 2}, 0.5, 2},
		{[]float64{0, 10}, 0.95, 9.5},
	}
	for _, c := range cases {
		if got := quantile(c.xs, c.q); got != c.want {
			t.Errorf("quantile(%v, %v): want %v, got %v", c.xs, c.q, c.want, got)
		}
	}
}
