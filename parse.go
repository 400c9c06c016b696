package exprtree

import (
	"math"
	"strconv"
)

// ============================================================
// Parser: shunting-yard → RPN → AST
// ============================================================

func precedence(t Token) int {
	if t.Type == TokUnaryMinus {
		return 3
	}
	switch t.Text {
	case "*", "/":
		return 2
	case "+", "-":
		return 1
	}
	return 0
}

func isOperator(t Token) bool { return t.Type == TokOp || t.Type == TokUnaryMinus }

// markUnary rewrites every '-' in unary position into a TokUnaryMinus token.
// Negative number literals were already folded by Tokenize, so what remains
// here negates identifiers and parenthesised groups.
func markUnary(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == TokOp && t.Text == "-" {
			if len(out) == 0 {
				t.Type = TokUnaryMinus
			} else if prev := out[len(out)-1]; isOperator(prev) || prev.Type == TokLParen {
				t.Type = TokUnaryMinus
			}
		}
		out = append(out, t)
	}
	return out
}

// ToRPN converts infix tokens to reverse Polish notation.
func ToRPN(tokens []Token) ([]Token, error) {
	var out, stack []Token

	for _, t := range markUnary(tokens) {
		switch t.Type {
		case TokNumber, TokIdent:
			out = append(out, t)

		case TokOp, TokUnaryMinus:
			leftAssoc := t.Type != TokUnaryMinus
			p := precedence(t)
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if !isOperator(top) {
					break
				}
				q := precedence(top)
				if (leftAssoc && p <= q) || (!leftAssoc && p < q) {
					out = append(out, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)

		case TokLParen:
			stack = append(stack, t)

		case TokRParen:
			found := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type == TokLParen {
					found = true
					break
				}
				out = append(out, top)
			}
			if !found {
				return nil, parseErr(ErrMismatchedParenthesis, t, "missing '('")
			}

		case TokUnknown:
			return nil, parseErr(ErrUnknownCharacter, t, "")
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Type == TokLParen {
			return nil, parseErr(ErrMismatchedParenthesis, top, "missing ')'")
		}
		out = append(out, top)
	}
	return out, nil
}

// RPNToAST builds a tree from RPN tokens, drawing ids from g. Unary minus
// becomes Mul(Constant(-1), operand).
func RPNToAST(g *IDGen, rpn []Token) (Node, error) {
	if g == nil {
		g = NewIDGen()
	}
	var stack []Node
	pop := func() Node {
		if len(stack) == 0 {
			return nil
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	for _, t := range rpn {
		switch t.Type {
		case TokNumber:
			if math.IsInf(t.Num, 0) || math.IsNaN(t.Num) {
				return nil, parseErr(ErrMalformedExpression, t, "number out of range")
			}
			stack = append(stack, g.Constant(t.Num))
		case TokIdent:
			stack = append(stack, g.Variable(t.Text))
		case TokUnaryMinus:
			a := pop()
			if a == nil {
				return nil, parseErr(ErrMalformedExpression, t, "unary minus has no operand")
			}
			stack = append(stack, g.Operator(OpMul, g.Constant(-1), a))
		case TokOp:
			op, ok := opFromSymbol(t.Text)
			if !ok {
				return nil, parseErr(ErrMalformedExpression, t, "unknown operator")
			}
			b := pop()
			a := pop()
			if a == nil || b == nil {
				return nil, parseErr(ErrMalformedExpression, t, "operator needs two operands")
			}
			stack = append(stack, g.Operator(op, a, b))
		default:
			return nil, parseErr(ErrMalformedExpression, t, "unexpected token")
		}
	}

	if len(stack) != 1 {
		return nil, &ParseError{
			Kind: ErrUnreducibleExpression,
			Pos:  -1,
			Msg:  "expected a single expression, found " + strconv.Itoa(len(stack)),
		}
	}
	return stack[0], nil
}

// Parse tokenizes and parses expr. A nil g uses a fresh generator.
func Parse(g *IDGen, expr string) (Node, error) {
	rpn, err := ToRPN(Tokenize(expr))
	if err == nil {
		var n Node
		n, err = RPNToAST(g, rpn)
		if err == nil {
			parseTotal.WithLabelValues("ok").Inc()
			return n, nil
		}
	}
	parseTotal.WithLabelValues(errorLabel(err)).Inc()
	return nil, err
}
