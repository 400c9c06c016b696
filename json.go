package exprtree

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// JSON Serialization
// ============================================================

func (c *Constant) toJSON() map[string]interface{} {
	return map[string]interface{}{"id": c.id, "type": "constant", "value": c.Value}
}

func (v *Variable) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"id":          v.id,
		"type":        "variable",
		"name":        v.Name,
		"coefficient": v.Coefficient,
	}
}

func (o *Operator) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"id":    o.id,
		"type":  "operator",
		"op":    o.Op.String(),
		"left":  o.Left.toJSON(),
		"right": o.Right.toJSON(),
	}
}

// ToJSON encodes n, ids included.
func ToJSON(n Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("nil node")
	}
	b, err := json.Marshal(n.toJSON())
	return string(b), err
}

// ToMap returns the decoded-JSON form of n, suitable for embedding in a
// larger document.
func ToMap(n Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	return n.toJSON()
}

// ParseJSON decodes a tree encoded by ToJSON.
func ParseJSON(g *IDGen, data []byte) (Node, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return FromJSON(g, m)
}

// FromJSON decodes a tree from its map form. Ids are kept as given; nodes
// without an id get a fresh one from g, and g is advanced past every id it
// sees so later edits cannot reissue them. An id given to two nodes is an
// error. A nil g uses a fresh generator.
func FromJSON(g *IDGen, data map[string]interface{}) (Node, error) {
	if g == nil {
		g = NewIDGen()
	}
	var pending []func()
	n, err := fromJSON(g, data, &pending, map[string]bool{})
	if err != nil {
		return nil, err
	}
	// Fresh ids are handed out only after every explicit id was observed.
	for _, assign := range pending {
		assign()
	}
	return n, nil
}

func fromJSON(g *IDGen, data map[string]interface{}, pending *[]func(), seen map[string]bool) (Node, error) {
	if data == nil {
		return nil, fmt.Errorf("node must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	id := ""
	if v, ok := data["id"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: 'id' must be a string", typ)
		}
		if seen[s] {
			return nil, fmt.Errorf("%s: duplicate id %q", typ, s)
		}
		seen[s] = true
		id = s
		g.observe(id)
	}

	subNumber := func(field string, def float64, required bool) (float64, error) {
		v, ok := data[field]
		if !ok {
			if required {
				return 0, fmt.Errorf("%s: missing %q", typ, field)
			}
			return def, nil
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("%s: %q must be a number", typ, field)
		}
		return f, nil
	}

	subNode := func(field string) (Node, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		n, err := fromJSON(g, m, pending, seen)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return n, nil
	}

	switch typ {
	case "constant":
		val, err := subNumber("value", 0, true)
		if err != nil {
			return nil, err
		}
		c := &Constant{id: id, Value: val}
		if id == "" {
			*pending = append(*pending, func() { c.id = g.next("c") })
		}
		return c, nil

	case "variable":
		nameAny, ok := data["name"]
		if !ok {
			return nil, fmt.Errorf("variable: missing 'name'")
		}
		name, ok := nameAny.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("variable: 'name' must be a non-empty string")
		}
		coef, err := subNumber("coefficient", 1, false)
		if err != nil {
			return nil, err
		}
		v := &Variable{id: id, Name: name, Coefficient: coef}
		if id == "" {
			*pending = append(*pending, func() { v.id = g.next("v") })
		}
		return v, nil

	case "operator":
		opAny, ok := data["op"]
		if !ok {
			return nil, fmt.Errorf("operator: missing 'op'")
		}
		opName, _ := opAny.(string)
		op, ok := opFromName(opName)
		if !ok {
			if op, ok = opFromSymbol(opName); !ok {
				return nil, fmt.Errorf("operator: unknown op %v", opAny)
			}
		}
		left, err := subNode("left")
		if err != nil {
			return nil, err
		}
		right, err := subNode("right")
		if err != nil {
			return nil, err
		}
		o := &Operator{id: id, Op: op, Left: left, Right: right}
		if id == "" {
			*pending = append(*pending, func() { o.id = g.next("o") })
		}
		return o, nil
	}
	return nil, fmt.Errorf("unknown node type: %s", typ)
}
