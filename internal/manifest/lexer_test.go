package manifest_test

import (
	"testing"

	"github.com/legeana/lontra-go/internal/manifest"
)

func kinds(toks []manifest.Token) []manifest.TokenKind {
	out := make([]manifest.TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func tokenizeKinds(t *testing.T, src string) []manifest.TokenKind {
	t.Helper()
	toks, err := manifest.NewLexer(src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	return kinds(toks)
}

func TestLexerBasicTokens(t *testing.T) {
	got := tokenizeKinds(t, `symlink "foo"`)
	want := []manifest.TokenKind{
		manifest.TokUnquoted, manifest.TokSpace, manifest.TokDoubleQuoted, manifest.TokEOF,
	}
	if !kindsEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerKeywords(t *testing.T) {
	got := tokenizeKinds(t, "if else with")
	want := []manifest.TokenKind{
		manifest.TokIf, manifest.TokSpace,
		manifest.TokElse, manifest.TokSpace,
		manifest.TokWith, manifest.TokEOF,
	}
	if !kindsEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerSubstitutionAndAssign(t *testing.T) {
	got := tokenizeKinds(t, `x = $(echo hi)`)
	want := []manifest.TokenKind{
		manifest.TokUnquoted, manifest.TokSpace,
		manifest.TokAssign, manifest.TokSpace,
		manifest.TokSubstitutionBegin,
		manifest.TokUnquoted, manifest.TokSpace, manifest.TokUnquoted,
		manifest.TokSubstitutionEnd, manifest.TokEOF,
	}
	if !kindsEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerBraceAndNot(t *testing.T) {
	got := tokenizeKinds(t, "if !cond {\n}\n")
	want := []manifest.TokenKind{
		manifest.TokIf, manifest.TokSpace,
		manifest.TokNot, manifest.TokUnquoted, manifest.TokSpace,
		manifest.TokBegin, manifest.TokNewline,
		manifest.TokEnd, manifest.TokNewline,
		manifest.TokEOF,
	}
	if !kindsEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerComment(t *testing.T) {
	toks, err := manifest.NewLexer("foo # a comment\nbar").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, tok := range toks {
		if tok.Kind == manifest.TokUnquoted {
			texts = append(texts, tok.Text)
		}
	}
	if len(texts) != 2 || texts[0] != "foo" || texts[1] != "bar" {
		t.Fatalf("unexpected literals around comment: %v", texts)
	}
}

func TestLexerLineContinuation(t *testing.T) {
	toks, err := manifest.NewLexer("foo\\\nbar").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	// The backslash-newline is consumed silently and does not separate
	// the two halves into distinct tokens, nor does it emit a newline.
	if len(toks) != 2 {
		t.Fatalf("expected a single unquoted token plus EOF, got %d: %+v", len(toks), toks)
	}
	if toks[0].Kind != manifest.TokUnquoted || toks[0].Text != "foobar" {
		t.Fatalf("expected joined literal %q, got %+v", "foobar", toks[0])
	}
}

func TestLexerLineContinuationInQuoted(t *testing.T) {
	toks, err := manifest.NewLexer("\"foo\\\nbar\"").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 2 || toks[0].Kind != manifest.TokDoubleQuoted {
		t.Fatalf("expected one double-quoted token plus EOF, got %+v", toks)
	}
}

func TestLexerQuotedEscapes(t *testing.T) {
	toks, err := manifest.NewLexer(`'it\'s \\ literal'`).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 2 || toks[0].Kind != manifest.TokSingleQuoted {
		t.Fatalf("expected one single-quoted token, got %+v", toks)
	}
	if toks[0].Text != `it's \ literal` {
		t.Fatalf("got %q, want %q", toks[0].Text, `it's \ literal`)
	}
}

func TestLexerUnterminatedQuote(t *testing.T) {
	if _, err := manifest.NewLexer(`"unterminated`).Tokenize(); err == nil {
		t.Fatal("expected an unterminated-quote error")
	}
}

func TestLexerAdjacentLiteralsIsError(t *testing.T) {
	if _, err := manifest.NewLexer(`foo"bar"`).Tokenize(); err == nil {
		t.Fatal("expected an error for adjacent literals with no separator")
	}
	if _, err := manifest.NewLexer(`"foo"'bar'`).Tokenize(); err == nil {
		t.Fatal("expected an error for adjacent quoted literals with no separator")
	}
}

func kindsEqual(a, b []manifest.TokenKind) bool {
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
