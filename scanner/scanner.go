/*
Package scanner tokenizes a grammar-description source file into the
grammar.Token stream that grammar.Builder.Feed consumes. It is a thin
wrapper over text/scanner, in the same spirit as the Go-token scanner
this module's teacher ships, generalized to recognize `{...}` action
blocks as a single BLOCK token and bracket expressions the way spec.md
§6 describes.

The hand-written recursive-descent grammar-file parser that decides
*which* builder state to drive with each token is deliberately out of
scope (spec.md §1): this package only tokenizes; it does not decide
section structure. It resolves the one genuine ambiguity a tokenizer
alone must handle — a bare `[` can open either a section header
(`[lexicon]`) or a character-class literal (`[a-z]`) — by reading the
whole bracket run and checking its content against the three known
section names: a section name is returned as a three-token replay (`[`,
IDENT, `]`, the last two queued for the following Next calls), anything
else as a single literal token holding the whole bracket run.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package scanner

import (
	"io"
	"strings"
	"text/scanner"

	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/strpool"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.scanner")
}

var sectionNames = map[string]bool{"lexicon": true, "grammar": true, "arrays": true}

// Tokenizer produces grammar.Tokens from a grammar source file.
type Tokenizer struct {
	s       scanner.Scanner
	pool    *strpool.Pool
	source  string
	pending []grammar.Token
}

// New creates a Tokenizer reading from input, interning token values into
// pool.
func New(source string, input io.Reader, pool *strpool.Pool) *Tokenizer {
	t := &Tokenizer{pool: pool, source: source}
	t.s.Init(input)
	t.s.Filename = source
	t.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanChars | scanner.ScanComments | scanner.SkipComments
	t.s.Error = func(_ *scanner.Scanner, msg string) {
		tracer().Errorf("scanner: %s", msg)
	}
	return t
}

func (t *Tokenizer) pos() pegen.Pos {
	p := t.s.Pos()
	return pegen.Pos{Source: t.source, Line: p.Line, Col: p.Column}
}

// Next returns the next grammar.Token, or a Kind=grammar.End token at
// end of input.
func (t *Tokenizer) Next() grammar.Token {
	if len(t.pending) > 0 {
		tok := t.pending[0]
		t.pending = t.pending[1:]
		return tok
	}
	r := t.s.Scan()
	pos := t.pos()
	switch r {
	case scanner.EOF:
		return grammar.Token{Kind: grammar.End, Pos: pos}
	case scanner.Ident:
		return grammar.Token{Kind: grammar.Identifier, Value: t.pool.Alloc(t.s.TokenText()), Pos: pos}
	case scanner.Int, scanner.Float:
		return grammar.Token{Kind: grammar.Number, Value: t.pool.Alloc(t.s.TokenText()), Pos: pos}
	case scanner.String:
		return grammar.Token{Kind: grammar.DQString, Value: t.pool.Alloc(unquote(t.s.TokenText())), Pos: pos}
	case scanner.Char:
		return grammar.Token{Kind: grammar.SQString, Value: t.pool.Alloc(unquote(t.s.TokenText())), Pos: pos}
	case '{':
		return t.scanBlock(pos)
	case '[':
		return t.scanBracket(pos)
	default:
		return grammar.Token{Kind: grammar.Symbol, Value: t.pool.Alloc(string(r)), Pos: pos}
	}
}

// scanBlock reads raw text up to the matching '}' (nested braces are
// balanced; backslashes get no special treatment) and returns
// it as a single BLOCK token (spec.md §6: "{…} bodies are opaque text").
func (t *Tokenizer) scanBlock(pos pegen.Pos) grammar.Token {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		r := t.s.Next()
		if r == scanner.EOF {
			break
		}
		if r == '{' {
			depth++
		}
		if r == '}' {
			depth--
			if depth == 0 {
				break
			}
		}
		b.WriteRune(r)
	}
	return grammar.Token{Kind: grammar.Block, Value: t.pool.Alloc(b.String()), Pos: pos}
}

// scanBracket reads the rest of a bracket run up to ']'. If its content
// is one of the three section names it queues the IDENT and ']' tokens
// a section-header parse expects and returns the opening '[' as Symbol;
// otherwise it returns the entire run as a single SQString literal (a
// character class).
func (t *Tokenizer) scanBracket(pos pegen.Pos) grammar.Token {
	var b strings.Builder
	for {
		r := t.s.Next()
		if r == scanner.EOF {
			break
		}
		if r == ']' {
			break
		}
		b.WriteRune(r)
	}
	content := b.String()
	if sectionNames[content] {
		t.pending = append(t.pending,
			grammar.Token{Kind: grammar.Identifier, Value: t.pool.Alloc(content), Pos: pos},
			grammar.Token{Kind: grammar.Symbol, Value: t.pool.Alloc("]"), Pos: pos},
		)
		return grammar.Token{Kind: grammar.Symbol, Value: t.pool.Alloc("["), Pos: pos}
	}
	return grammar.Token{Kind: grammar.SQString, Value: t.pool.Alloc("[" + content + "]"), Pos: pos}
}

// unquote strips the surrounding quote characters TokenText() leaves in
// place for String/Char tokens.
func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
