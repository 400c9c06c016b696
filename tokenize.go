package exprtree

import (
	"strconv"
	"unicode/utf8"
)

// ============================================================
// Tokenizer
// ============================================================

// TokenType classifies a token.
type TokenType string

const (
	TokNumber     TokenType = "number"
	TokIdent      TokenType = "ident"
	TokLParen     TokenType = "("
	TokRParen     TokenType = ")"
	TokOp         TokenType = "op"
	TokUnaryMinus TokenType = "u-" // produced by ToRPN, never by Tokenize
	TokUnknown    TokenType = "unknown"
)

// Token is a lexical token. Num is set for TokNumber only.
type Token struct {
	Type TokenType `json:"type"`
	Text string    `json:"text"`
	Num  float64   `json:"num,omitempty"`
	Pos  int       `json:"pos"`
}

func (t Token) String() string {
	if t.Type == TokUnaryMinus {
		return "u-"
	}
	return t.Text
}

// Tokenize splits expr into tokens. It never fails: characters it cannot
// classify become TokUnknown tokens and are rejected by the parser, which
// can then report their position.
//
// A '-' directly followed by a digit (or by '.' and a digit) is folded into
// a negative number literal when it appears in unary position, that is at
// the start, after an operator, or after '('.
func Tokenize(expr string) []Token {
	var tokens []Token
	src := expr
	n := len(src)

	unaryContext := func() bool {
		if len(tokens) == 0 {
			return true
		}
		t := tokens[len(tokens)-1].Type
		return t == TokOp || t == TokLParen
	}

	for i := 0; i < n; {
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case ch == '-' && startsNumber(src, i+1) && unaryContext():
			j := scanNumber(src, i+1)
			tokens = append(tokens, numberToken(src[i:j], i))
			i = j

		case startsNumber(src, i):
			j := scanNumber(src, i)
			tokens = append(tokens, numberToken(src[i:j], i))
			i = j

		case isIdentStart(ch):
			j := i + 1
			for j < n && isIdentPart(src[j]) {
				j++
			}
			tokens = append(tokens, Token{Type: TokIdent, Text: src[i:j], Pos: i})
			i = j

		case ch == '(':
			tokens = append(tokens, Token{Type: TokLParen, Text: "(", Pos: i})
			i++

		case ch == ')':
			tokens = append(tokens, Token{Type: TokRParen, Text: ")", Pos: i})
			i++

		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			tokens = append(tokens, Token{Type: TokOp, Text: string(ch), Pos: i})
			i++

		default:
			_, size := utf8.DecodeRuneInString(src[i:])
			tokens = append(tokens, Token{Type: TokUnknown, Text: src[i : i+size], Pos: i})
			i += size
		}
	}
	return tokens
}

func numberToken(text string, pos int) Token {
	v, _ := strconv.ParseFloat(text, 64)
	return Token{Type: TokNumber, Text: text, Num: v, Pos: pos}
}

// startsNumber reports whether a numeric literal begins at src[i].
func startsNumber(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	if isDigit(src[i]) {
		return true
	}
	return src[i] == '.' && i+1 < len(src) && isDigit(src[i+1])
}

// scanNumber returns the end of the literal starting at src[i]: digits with
// at most one '.', then an optional exponent that is only consumed when
// digits follow it.
func scanNumber(src string, i int) int {
	j := i
	dot := false
	for j < len(src) {
		c := src[j]
		if isDigit(c) {
			j++
			continue
		}
		if c == '.' && !dot {
			dot = true
			j++
			continue
		}
		break
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && isDigit(src[k]) {
			for k < len(src) && isDigit(src[k]) {
				k++
			}
			j = k
		}
	}
	return j
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
