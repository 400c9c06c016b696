package exprtree_test

import (
	"testing"

	"github.com/njchilds90/exprtree"
)

func texts(toks []exprtree.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenize_Basic(t *testing.T) {
	got := exprtree.Tokenize("3*x - 2*y_1 + 5")
	want := []string{"3", "*", "x", "-", "2", "*", "y_1", "+", "5"}
	if !sameStrings(texts(got), want) {
		t.Errorf("want %v, got %v", want, texts(got))
	}
	if got[2].Type != exprtree.TokIdent || got[2].Pos != 2 {
		t.Errorf("want ident at 2, got %s at %d", got[2].Type, got[2].Pos)
	}
}

func TestTokenize_SignedLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"-5", []string{"-5"}},
		{"x-5", []string{"x", "-", "5"}},
		{"3-5", []string{"3", "-", "5"}},
		{"x*-2", []string{"x", "*", "-2"}},
		{"(-.5+x)", []string{"(", "-.5", "+", "x", ")"}},
		{"x--5", []string{"x", "-", "-5"}},
		{"-x", []string{"-", "x"}},
		{"(1)-2", []string{"(", "1", ")", "-", "2"}},
	}
	for _, c := range cases {
		got := texts(exprtree.Tokenize(c.in))
		if !sameStrings(got, c.want) {
			t.Errorf("%q: want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestTokenize_Numbers(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1.2346E+4", 12346},
		{"1e-3", 0.001},
		{"-2.5e2", -250},
	}
	for _, c := range cases {
		toks := exprtree.Tokenize(c.in)
		if len(toks) != 1 || toks[0].Type != exprtree.TokNumber {
			t.Errorf("%q: want one number token, got %v", c.in, toks)
			continue
		}
		if toks[0].Num != c.want {
			t.Errorf("%q: want %v, got %v", c.in, c.want, toks[0].Num)
		}
	}
}

func TestTokenize_ExponentNeedsDigits(t *testing.T) {
	got := texts(exprtree.Tokenize("2e+x"))
	want := []string{"2", "e", "+", "x"}
	if !sameStrings(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestTokenize_Unknown(t *testing.T) {
	toks := exprtree.Tokenize("x $ é")
	if len(toks) != 3 {
		t.Fatalf("want 3 tokens, got %v", toks)
	}
	if toks[1].Type != exprtree.TokUnknown || toks[1].Text != "$" {
		t.Errorf("want unknown $, got %s %q", toks[1].Type, toks[1].Text)
	}
	if toks[2].Text != "é" {
		t.Errorf("want whole rune, got %q", toks[2].Text)
	}
}
