package exprtree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================
// Tool Interface
// ============================================================

// ToolRequest names a tool and its parameters. Trees are passed either as
// "tree" (the JSON form produced by ToJSON) or as "expr" (expression text).
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs one tool call inside a trace span. Failures are
// reported in ToolResponse.Error, never as a panic.
func HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	ctx, span := otel.Tracer("exprtree").Start(ctx, "exprtree.HandleToolCall",
		trace.WithAttributes(
			attribute.String("tool", req.Tool),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context cancelled")
		return ToolResponse{Error: err.Error()}
	}

	resp := handleTool(req)
	if resp.Error != "" {
		span.RecordError(errors.New(resp.Error))
		span.SetStatus(codes.Error, resp.Error)
	}
	span.SetAttributes(attribute.Bool("ok", resp.Error == ""))
	return resp
}

func handleTool(req ToolRequest) ToolResponse {
	g := NewIDGen()

	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getTree := func() (Node, error) {
		if v, ok := req.Params["tree"]; ok {
			m, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("param tree must be an object")
			}
			return FromJSON(g, m)
		}
		expr, err := getString("expr")
		if err != nil {
			return nil, fmt.Errorf("missing param: tree or expr")
		}
		return Parse(g, expr)
	}
	getImpacts := func() (ImpactMap, []string, error) {
		v, ok := req.Params["impacts"]
		if !ok {
			return nil, nil, nil
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, nil, fmt.Errorf("param impacts must be an object")
		}
		impacts, dups := FlattenImpactTree(m)
		return impacts, dups, nil
	}
	getMetrics := func() (Metrics, error) {
		var m Metrics
		v, ok := req.Params["metrics"]
		if !ok {
			return m, nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return m, fmt.Errorf("param metrics: %w", err)
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return m, fmt.Errorf("param metrics: %w", err)
		}
		return m, nil
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, nil
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}

	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respond := func(n Node) ToolResponse {
		return ToolResponse{Result: ToMap(n), LaTeX: ToLatex(n, ""), String: ToExpression(n)}
	}

	switch req.Tool {
	case "tokenize":
		expr, err := getString("expr")
		if err != nil {
			return fail(err)
		}
		toks := Tokenize(expr)
		return ToolResponse{Result: toks, String: joinTokens(toks)}

	case "rpn":
		expr, err := getString("expr")
		if err != nil {
			return fail(err)
		}
		rpn, err := ToRPN(Tokenize(expr))
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: rpn, String: joinTokens(rpn)}

	case "parse":
		expr, err := getString("expr")
		if err != nil {
			return fail(err)
		}
		n, err := Parse(g, expr)
		if err != nil {
			return fail(err)
		}
		return respond(n)

	case "normalize":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		return respond(Normalize(n))

	case "simplify":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		return respond(Simplify(g, n))

	case "optimize":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		return respond(Simplify(g, Normalize(n)))

	case "delete":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		id, err := getString("id")
		if err != nil {
			return fail(err)
		}
		// An unknown id leaves the tree as it was.
		out, _ := deleteNode(g, n, id)
		return respond(out)

	case "weights":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		impacts, dups, err := getImpacts()
		if err != nil {
			return fail(err)
		}
		w := ComputeWeights(n, impacts)
		colors := make(map[string]string, len(w.Color))
		for id, c := range w.Color {
			colors[id] = c.String()
		}
		return ToolResponse{
			Result: map[string]interface{}{
				"scale":          w.Scale,
				"weights":        w.Weight,
				"colors":         colors,
				"order":          w.Order,
				"collisions":     w.Collisions,
				"duplicate_keys": dups,
			},
			String: ToExpression(n),
		}

	case "layout":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		viewport, err := getNumber("viewport")
		if err != nil {
			return fail(err)
		}
		m, err := getMetrics()
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: Layout(n, viewport, m), String: ToExpression(n)}

	case "to_expression":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		return ToolResponse{String: ToExpression(n)}

	case "to_latex":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		target, _ := req.Params["target"].(string)
		return ToolResponse{LaTeX: ToLatex(n, target)}

	case "feature_importance":
		n, err := getTree()
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: ComputeFeatureImportance(n), String: ToExpression(n)}

	case "spec":
		return ToolResponse{String: ToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

func joinTokens(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// ToolSpec returns the JSON schema of every tool HandleToolCall accepts.
func ToolSpec() string {
	tree := map[string]string{"tree": "object", "expr": "string"}
	with := func(extra map[string]string) map[string]string {
		out := map[string]string{"tree": "object", "expr": "string"}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}
	tools := []map[string]interface{}{
		ts("tokenize", "Split an expression into tokens", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("rpn", "Convert an expression to reverse Polish notation", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("parse", "Parse an expression into a tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("normalize", "Fold constant*variable products into coefficients", []string{}, tree),
		ts("simplify", "Apply identity rules (x+0, x*1, x*0, 0/x, ...)", []string{}, tree),
		ts("optimize", "Normalize then simplify", []string{}, tree),
		ts("delete", "Delete the subtree with the given node id; an unknown id returns the tree unchanged", []string{"id"}, with(map[string]string{"id": "string"})),
		ts("weights", "Per-node weights and colors. Optional impacts (nested object)", []string{}, with(map[string]string{"impacts": "object"})),
		ts("layout", "Node placement. Optional viewport (number), metrics (object)", []string{}, with(map[string]string{"viewport": "number", "metrics": "object"})),
		ts("to_expression", "Render as expression text", []string{}, tree),
		ts("to_latex", "Render as a LaTeX equation. Optional target (string)", []string{}, with(map[string]string{"target": "string"})),
		ts("feature_importance", "Normalized absolute coefficient mass per variable", []string{}, tree),
		ts("spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
