package grammar

import (
	"strings"

	"github.com/dvoss/pegen/diag"
)

// state is one of the ten push-down states of the grammar builder
// (spec.md §4.1).
type state int

const (
	stBetween      state = iota // 0: between sections / between non-terminals
	stSectionName               // 1: section header body
	_reserved2                  // (non-terminal intro is folded into stBetween)
	stReturnType                // 3: return-type or colon
	stAlternation                // 4: production alternation (folded into stBody)
	stBody                      // 5: production body
	stNValue                    // 6: nvalue
	stNValueCloseGrammar        // 7: nvalue close
	stNValueCloseLexicon        // 8: ignored nvalue close (lexicon)
	stArrayDecl                 // 9: array declaration
)

// arraySub is the sub-step within the array-declaration state.
type arraySub int

const (
	arrWantName arraySub = iota
	arrWantOpenParen
	arrWantBackingName
	arrWantCloseParen
	arrWantColon
	arrWantLiteral
	arrWantCommaOrSemi
)

// Builder consumes a stream of tokens and populates a Context, one Feed
// call per token, exactly as an external recursive-descent parser would
// drive it (spec.md §1, §4.1). It owns no scanning logic of its own.
type Builder struct {
	ctx   *Context
	sink  diag.Sink
	state state
	fatal bool

	curSectionKind SectionKind
	pendingSection string
	section        *Section

	nt         *NonTerminal
	elements   []Token
	visibility Visibility
	action     string

	arrSub      arraySub
	arrName     string
	arrBacking  string
	arrKeywords []Token
}

// NewBuilder creates a Builder that populates ctx, reporting diagnostics
// to sink.
func NewBuilder(ctx *Context, sink diag.Sink) *Builder {
	return &Builder{ctx: ctx, sink: sink, state: stBetween}
}

// Fatal reports whether a stage-3 fatal error has stopped this builder
// from accepting further tokens (spec.md §7: "the grammar builder
// short-circuits on the first fatal error per file").
func (b *Builder) Fatal() bool {
	return b.fatal
}

func (b *Builder) fail(code diag.Code, tok Token, format string, args ...interface{}) {
	diag.Push(b.sink, code, tok.Pos, format, args...)
	if code.Severity() == diag.Fatal {
		b.fatal = true
	}
}

func isSym(tok Token, lit string) bool {
	return tok.Kind == Symbol && tok.Value.Value() == lit
}

// Feed advances the builder by one token. It returns the builder's fatal
// state for convenience (callers may also consult Fatal()).
func (b *Builder) Feed(tok Token) bool {
	if b.fatal {
		return true
	}
	switch b.state {
	case stBetween:
		b.feedBetween(tok)
	case stSectionName:
		b.feedSectionName(tok)
	case stReturnType:
		b.feedReturnType(tok)
	case stBody, stAlternation:
		b.feedBody(tok)
	case stNValue:
		b.feedNValue(tok)
	case stNValueCloseGrammar, stNValueCloseLexicon:
		b.feedNValueClose(tok)
	case stArrayDecl:
		b.feedArrayDecl(tok)
	}
	return b.fatal
}

func (b *Builder) feedBetween(tok Token) {
	switch {
	case isSym(tok, "["):
		b.state = stSectionName
		b.pendingSection = ""
	case tok.Kind == Identifier:
		b.startNonTerminal(tok)
		b.state = stReturnType
	default:
		b.fail(diag.ErrUnexpectedElement, tok, "unexpected element %v between sections", tok.Kind)
	}
}

func (b *Builder) feedSectionName(tok Token) {
	if b.pendingSection == "" {
		if tok.Kind != Identifier {
			b.fail(diag.ErrInvalidSection, tok, "expected section name")
			return
		}
		name := tok.Value.Value()
		switch name {
		case "lexicon":
			b.curSectionKind = Lexicon
		case "grammar":
			b.curSectionKind = GrammarSec
		case "arrays":
			b.curSectionKind = Arrays
		default:
			b.fail(diag.ErrInvalidSection, tok, "invalid section name %q", name)
			return
		}
		b.pendingSection = name
		return
	}
	if !isSym(tok, "]") {
		b.fail(diag.ErrExpectedBracket, tok, "expected ']' closing section header")
		return
	}
	b.pendingSection = ""
	b.section = b.ctx.Section(b.curSectionKind)
	if b.curSectionKind == Arrays {
		b.state = stArrayDecl
		b.arrSub = arrWantName
	} else {
		b.state = stBetween
	}
}

func (b *Builder) startNonTerminal(tok Token) {
	name := tok.Value.Value()
	b.nt = b.section.Intern(name, tok.Value)
	b.elements = nil
	b.visibility = VisDefault
	b.action = ""
}

func (b *Builder) feedReturnType(tok Token) {
	switch {
	case tok.Kind == Block:
		b.nt.ReturnType = b.ctx.Pool.Alloc(strings.TrimSpace(tok.Value.Value()))
	case isSym(tok, ":"):
		b.beginRule()
		b.state = stBody
	default:
		b.fail(diag.ErrUnexpectedElement, tok, "expected return-type block or ':'")
	}
}

func (b *Builder) beginRule() {
	b.elements = nil
	b.visibility = VisDefault
	b.action = ""
}

func (b *Builder) feedBody(tok Token) {
	switch {
	case tok.Kind == Identifier || tok.Kind == SQString || tok.Kind == DQString || tok.Kind == Number:
		b.appendElement(tok)
	case isSym(tok, "("):
		b.state = stNValue
	case isSym(tok, "+"):
		b.visibility = VisPublic
	case isSym(tok, "-"):
		b.visibility = VisPrivate
	case tok.Kind == Block:
		b.action = tok.Value.Value()
	case isSym(tok, ";"):
		b.finishRule()
		b.finishNonTerminal()
		b.state = stBetween
	case isSym(tok, "|"):
		b.finishRule()
		b.beginRule()
		b.state = stBody
	default:
		b.fail(diag.ErrUnexpectedElement, tok, "unexpected element %v in production body", tok.Kind)
	}
}

// appendElement appends tok to the current production, applying lexicon
// single-byte literal expansion: a multi-character single/double-quoted
// literal whose first character is not '[' and not '\\' is exploded into
// one element per source byte (spec.md §4.1).
func (b *Builder) appendElement(tok Token) {
	if b.section.Kind == Lexicon && tok.IsLiteral() {
		v := tok.Value.Value()
		if len(v) > 1 && v[0] != '[' && v[0] != '\\' {
			for i := 0; i < len(v); i++ {
				ch := v[i : i+1]
				b.elements = append(b.elements, Token{
					Value: b.ctx.Pool.Alloc(ch),
					Kind:  tok.Kind,
					Pos:   tok.Pos,
				})
			}
			return
		}
	}
	b.elements = append(b.elements, tok)
}

func (b *Builder) feedNValue(tok Token) {
	if len(b.elements) == 0 {
		b.fail(diag.ErrUnexpectedElement, tok, "nvalue with no preceding element")
		b.state = stBody
		return
	}
	if !tok.IsLiteral() {
		b.fail(diag.ErrUnexpectedElement, tok, "expected literal nvalue")
		return
	}
	if b.section.Kind == Lexicon {
		b.fail(diag.WarnValueNotAllowed, tok, "value not allowed in lexicon")
		b.state = stNValueCloseLexicon
		return
	}
	nv := tok
	b.elements[len(b.elements)-1].NValue = &nv
	b.state = stNValueCloseGrammar
}

func (b *Builder) feedNValueClose(tok Token) {
	if !isSym(tok, ")") {
		b.fail(diag.ErrExpectedParen, tok, "expected ')' closing nvalue")
		return
	}
	b.state = stBody
}

func (b *Builder) finishRule() {
	r := b.nt.AddRule(b.elements, strings.TrimSpace(b.action))
	r.Visibility = b.visibility
}

func (b *Builder) finishNonTerminal() {
	b.nt = nil
}

func (b *Builder) feedArrayDecl(tok Token) {
	switch b.arrSub {
	case arrWantName:
		if tok.Kind != Identifier {
			b.fail(diag.ErrUnexpectedElement, tok, "expected array name")
			return
		}
		b.arrName = tok.Value.Value()
		b.arrKeywords = nil
		b.arrSub = arrWantOpenParen
	case arrWantOpenParen:
		if !isSym(tok, "(") {
			b.fail(diag.ErrExpectedParen, tok, "expected '(' after array name")
			return
		}
		b.arrSub = arrWantBackingName
	case arrWantBackingName:
		if tok.Kind != Identifier {
			b.fail(diag.ErrUnexpectedElement, tok, "expected lexicon non-terminal name")
			return
		}
		b.arrBacking = tok.Value.Value()
		b.arrSub = arrWantCloseParen
	case arrWantCloseParen:
		if !isSym(tok, ")") {
			b.fail(diag.ErrExpectedParen, tok, "expected ')' after backing non-terminal")
			return
		}
		b.arrSub = arrWantColon
	case arrWantColon:
		if !isSym(tok, ":") {
			b.fail(diag.ErrExpectedColon, tok, "expected ':' in array declaration")
			return
		}
		b.arrSub = arrWantLiteral
	case arrWantLiteral:
		if !tok.IsLiteral() {
			b.fail(diag.ErrUnexpectedElement, tok, "expected literal keyword")
			return
		}
		b.arrKeywords = append(b.arrKeywords, tok)
		b.arrSub = arrWantCommaOrSemi
	case arrWantCommaOrSemi:
		switch {
		case isSym(tok, ","):
			b.arrSub = arrWantLiteral
		case isSym(tok, ";"):
			b.finishArray()
			b.arrSub = arrWantName
		default:
			b.fail(diag.ErrExpectedSemicolon, tok, "expected ',' or ';' in array declaration")
		}
	}
}

// finishArray installs the array's non-terminal in the ARRAYS section with
// a single rule listing every keyword literal as an element (mirroring
// the source grammar's "one production, many elements" shape rather than
// one rule per keyword), records its backing lexicon non-terminal, and
// registers the array name itself as a lexicon export so a scanned token
// can be reclassified to it (spec.md §4.1 state 9, §4.4 epilogue).
func (b *Builder) finishArray() {
	nameStr := b.ctx.Pool.Alloc(b.arrName)
	nt := b.ctx.Arrays.Intern(b.arrName, nameStr)
	b.ctx.Arrays.ArrayBacking[b.arrName] = b.arrBacking
	rule := nt.AddRule(b.arrKeywords, "")
	b.ctx.Lexicon.AddExport(b.arrName, rule)
	b.arrKeywords = nil
}
