package exprtree_test

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/njchilds90/exprtree"
)

func call(tool string, params map[string]interface{}) exprtree.ToolResponse {
	return exprtree.HandleToolCall(context.Background(), exprtree.ToolRequest{Tool: tool, Params: params})
}

func TestTool_TokenizeAndRPN(t *testing.T) {
	resp := call("tokenize", map[string]interface{}{"expr": "-5 + x"})
	if resp.Error != "" || resp.String != "-5 + x" {
		t.Errorf("want -5 + x, got %+v", resp)
	}
	resp = call("rpn", map[string]interface{}{"expr": "-(x+1)"})
	if resp.String != "x 1 + u-" {
		t.Errorf("want x 1 + u-, got %+v", resp)
	}
	resp = call("rpn", map[string]interface{}{"expr": "(x"})
	if !strings.Contains(resp.Error, "mismatched parenthesis") {
		t.Errorf("want mismatched parenthesis, got %+v", resp)
	}
}

func TestTool_ParseSimplify(t *testing.T) {
	resp := call("parse", map[string]interface{}{"expr": "x*1 + 0"})
	if resp.String != "x * 1 + 0" {
		t.Errorf("want x * 1 + 0, got %q", resp.String)
	}
	tree, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("want a tree result, got %T", resp.Result)
	}

	resp = call("simplify", map[string]interface{}{"tree": tree})
	if resp.String != "x" {
		t.Errorf("want x, got %q", resp.String)
	}
	if resp.LaTeX != `\begin{align*} \nonumber Y &= x \end{align*}` {
		t.Errorf("unexpected LaTeX %s", resp.LaTeX)
	}

	resp = call("normalize", map[string]interface{}{"expr": "3*x"})
	if resp.String != "3 * x" {
		t.Errorf("want 3 * x, got %q", resp.String)
	}
	resp = call("optimize", map[string]interface{}{"expr": "3*x*1 + 0"})
	if resp.String != "3 * x" {
		t.Errorf("want 3 * x, got %q", resp.String)
	}
}

func TestTool_Delete(t *testing.T) {
	parsed := call("parse", map[string]interface{}{"expr": "3*x - 2*y + 5"})
	tree := parsed.Result.(map[string]interface{})
	norm := call("normalize", map[string]interface{}{"tree": tree})
	n, err := exprtree.FromJSON(nil, norm.Result.(map[string]interface{}))
	if err != nil {
		t.Fatal(err)
	}
	resp := call("delete", map[string]interface{}{
		"tree": norm.Result,
		"id":   findVar(n, "y").ID(),
	})
	if resp.String != "3 * x + 5" {
		t.Errorf("want 3 * x + 5, got %+v", resp)
	}
	resp = call("delete", map[string]interface{}{"tree": norm.Result, "id": "zzz"})
	if resp.Error != "" || resp.String != "3 * x - 2 * y + 5" {
		t.Errorf("want the tree unchanged for an unknown id, got %+v", resp)
	}
	if !reflect.DeepEqual(resp.Result, norm.Result) {
		t.Errorf("want ids kept for an unknown id, got %v", resp.Result)
	}
	resp = call("delete", map[string]interface{}{"tree": norm.Result})
	if resp.Error != "missing param: id" {
		t.Errorf("want missing param: id, got %+v", resp)
	}
}

func TestTool_WeightsLayout(t *testing.T) {
	resp := call("weights", map[string]interface{}{
		"expr":    "x + y",
		"impacts": map[string]interface{}{"x": 3.0},
	})
	m, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("want map result, got %+v", resp)
	}
	if w := m["weights"].(map[string]float64); w["o_3"] != 4 {
		t.Errorf("want root weight 4, got %v", w)
	}

	resp = call("layout", map[string]interface{}{
		"expr":     "x + y",
		"viewport": 500.0,
		"metrics":  map[string]interface{}{"sibling_gap": 10.0},
	})
	l, ok := resp.Result.(*exprtree.TreeLayout)
	if !ok {
		t.Fatalf("want *TreeLayout, got %T (%s)", resp.Result, resp.Error)
	}
	if l.Width != 500 || l.Metrics.SiblingGap != 10 || len(l.Boxes) != 3 {
		t.Errorf("unexpected layout %+v", l)
	}
	if _, err := json.Marshal(resp); err != nil {
		t.Errorf("layout response does not encode: %v", err)
	}
}

func TestTool_Text(t *testing.T) {
	resp := call("to_expression", map[string]interface{}{"expr": "a - -b"})
	if resp.String != "a + b" {
		t.Errorf("want a + b, got %q", resp.String)
	}
	resp = call("to_latex", map[string]interface{}{"expr": "a/b", "target": "r"})
	if resp.LaTeX != `\begin{align*} \nonumber r &= \cfrac{a}{b} \end{align*}` {
		t.Errorf("unexpected LaTeX %s", resp.LaTeX)
	}
	resp = call("feature_importance", map[string]interface{}{"expr": "3*x + y"})
	fi, ok := resp.Result.([]exprtree.FeatureImportance)
	if !ok || len(fi) != 2 || fi[0].Feature != "x" {
		t.Errorf("unexpected importance %+v", resp.Result)
	}
}

func TestTool_Errors(t *testing.T) {
	if resp := call("integrate", nil); resp.Error != "unknown tool: integrate" {
		t.Errorf("want unknown tool, got %+v", resp)
	}
	if resp := call("simplify", nil); resp.Error != "missing param: tree or expr" {
		t.Errorf("want missing param, got %+v", resp)
	}
	if resp := call("simplify", map[string]interface{}{"tree": "x"}); resp.Error != "param tree must be an object" {
		t.Errorf("want bad tree, got %+v", resp)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := exprtree.HandleToolCall(ctx, exprtree.ToolRequest{Tool: "spec"})
	if resp.Error == "" {
		t.Error("want an error for a cancelled context")
	}
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(exprtree.ToolSpec()), &spec); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range spec.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"tokenize", "rpn", "parse", "normalize", "simplify", "delete",
		"weights", "layout", "to_expression", "to_latex", "feature_importance", "spec"} {
		if !names[want] {
			t.Errorf("tool %s missing from spec", want)
		}
		if want == "spec" {
			continue
		}
		if resp := call(want, map[string]interface{}{"expr": "x + 1", "id": "v_1"}); resp.Error != "" {
			t.Errorf("%s: %s", want, resp.Error)
		}
	}
	if resp := call("spec", nil); resp.String != exprtree.ToolSpec() {
		t.Error("spec tool should return ToolSpec()")
	}
}
