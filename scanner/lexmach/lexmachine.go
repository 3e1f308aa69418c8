/*
Package lexmach adapts github.com/timtadh/lexmachine into a scanner that
classifies literal input into the lexicon's exported terminals, for
driving a compiled FSM directly during self-tests and the demonstration
CLI, without generating and compiling C code. It is grounded closely on
this module's teacher's own lexmachine adapter, generalized from a
fixed literal/keyword list to whatever a lexicon section happens to
export.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package lexmach

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/dvoss/pegen/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.scanner.lexmach")
}

// LMAdapter wraps a compiled lexmachine DFA built from one lexicon
// section's exports.
type LMAdapter struct {
	Lexer *lexmachine.Lexer
	ids   map[string]int
}

// NewLMAdapter builds a lexmachine lexer with one pattern per lexicon
// export that names a lexicon non-terminal (spec.md §4.4's exportID
// numbering supplies the token ids). Each pattern matches the export's
// name itself, so self-test input is written as a sequence of export
// names; the non-terminals' own productions are not used to classify it.
func NewLMAdapter(lexicon *grammar.Section) (*LMAdapter, error) {
	adapter := &LMAdapter{Lexer: lexmachine.NewLexer(), ids: make(map[string]int)}
	for _, name := range lexicon.Names() {
		id, ok := lexicon.ExportID(name)
		if !ok {
			continue
		}
		adapter.ids[name] = id
		adapter.Lexer.Add([]byte(literalPattern(name)), MakeToken(name, id))
	}
	adapter.Lexer.Add([]byte(`( |\t|\n|\r)+`), Skip)
	if err := adapter.Lexer.Compile(); err != nil {
		tracer().Errorf("compiling DFA: %v", err)
		return nil, err
	}
	return adapter, nil
}

// literalPattern backslash-escapes every byte of name so lexmachine
// matches it literally instead of interpreting it as a regex.
func literalPattern(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		b.WriteByte('\\')
		b.WriteByte(name[i])
	}
	return b.String()
}

// Scanner creates an LMScanner over input.
func (lm *LMAdapter) Scanner(input string) (*LMScanner, error) {
	s, err := lm.Lexer.Scanner([]byte(input))
	if err != nil {
		return nil, err
	}
	return &LMScanner{scanner: s, Error: logError}, nil
}

// LMScanner tokenizes one input string against a compiled LMAdapter.
type LMScanner struct {
	scanner *lexmachine.Scanner
	Error   func(error)
}

// SetErrorHandler overrides the scanner's error reporting function.
func (lms *LMScanner) SetErrorHandler(h func(error)) {
	if h == nil {
		lms.Error = logError
		return
	}
	lms.Error = h
}

func logError(e error) {
	tracer().Errorf("scanner error: %s", e.Error())
}

// Token is one scanned terminal: its lexicon export name, export id,
// and the literal text matched.
type Token struct {
	Name string
	ID   int
	Text string
}

// Next returns the next Token, or a Token with ID -1 at end of input.
func (lms *LMScanner) Next() (Token, error) {
	tok, err, eof := lms.scanner.Next()
	for err != nil {
		if ui, is := err.(*machines.UnconsumedInput); is {
			lms.Error(err)
			lms.scanner.TC = ui.FailTC
			tok, err, eof = lms.scanner.Next()
			continue
		}
		return Token{}, err
	}
	if eof {
		return Token{ID: -1}, nil
	}
	t := tok.(*lexmachine.Token)
	name, _ := t.Value.(string)
	return Token{Name: name, ID: t.Type, Text: string(t.Lexeme)}, nil
}

// Skip is a lexmachine action that discards the scanned match (used
// for whitespace).
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a lexmachine action that wraps a scanned match into a
// Token carrying name as its Value field.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, name, m), nil
	}
}
