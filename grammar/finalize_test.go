package grammar_test

import (
	"testing"

	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/grammar"
)

func TestFinalizeLexiconInstallsStartAndExports(t *testing.T) {
	ctx := grammar.NewContext()
	lex := ctx.Lexicon
	word := lex.Intern("word", ctx.Pool.Alloc("word"))
	word.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("w")}}, "")
	word.AddRule(nil, "") // empty production: becomes PRIVATE

	start := grammar.FinalizeLexicon(ctx)
	if start == nil {
		t.Fatal("expected a start non-terminal")
	}
	if start.ID != grammar.StartNonTermID {
		t.Fatalf("expected start id %d, got %d", grammar.StartNonTermID, start.ID)
	}
	if _, ok := lex.ExportID("w"); !ok {
		t.Fatal("expected \"w\" to be exported")
	}
	if word.Rules[0].Visibility != grammar.VisPublic {
		t.Fatalf("expected non-empty production PUBLIC, got %v", word.Rules[0].Visibility)
	}
	if word.Rules[1].Visibility != grammar.VisPrivate {
		t.Fatalf("expected empty production PRIVATE, got %v", word.Rules[1].Visibility)
	}
	if lex.Lookup("__tokens") == nil {
		t.Fatal("expected __tokens helper non-terminal")
	}
}

func TestFinalizeGrammarInstallsStart(t *testing.T) {
	ctx := grammar.NewContext()
	gram := ctx.Grammar
	gram.Intern("S", ctx.Pool.Alloc("S"))

	start := grammar.FinalizeGrammar(ctx)
	if start == nil || start.ID != grammar.StartNonTermID {
		t.Fatal("expected a start non-terminal with the reserved id")
	}
	if len(start.Rules) != 1 || start.Rules[0].Action != "$0" {
		t.Fatalf("expected one rule with action \"$0\", got %+v", start.Rules)
	}
}

func TestInferTypesPropagatesAndDefaults(t *testing.T) {
	ctx := grammar.NewContext()
	gram := ctx.Grammar
	leaf := gram.Intern("Leaf", ctx.Pool.Alloc("Leaf"))
	leaf.ReturnType = ctx.Pool.Alloc("Node*")
	leaf.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("x")}}, "")

	wrapper := gram.Intern("Wrapper", ctx.Pool.Alloc("Wrapper"))
	wrapper.AddRule([]grammar.Token{
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("Leaf")},
	}, "$0")

	terminalOnly := gram.Intern("TerminalOnly", ctx.Pool.Alloc("TerminalOnly"))
	terminalOnly.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("y")}}, "")

	sink := diag.NewCollector()
	grammar.InferTypes(gram, ctx.Pool, sink)

	if !wrapper.HasReturnType() || wrapper.ReturnType.Value() != "Node*" {
		t.Fatalf("expected Wrapper to inherit Leaf's type, got %q", wrapper.ReturnType.Value())
	}
	if !terminalOnly.HasReturnType() || terminalOnly.ReturnType.Value() != grammar.GenericType {
		t.Fatalf("expected TerminalOnly to default to %q, got %q", grammar.GenericType, terminalOnly.ReturnType.Value())
	}
	if sink.HasErrorOrWorse() {
		t.Fatalf("did not expect any error-level diagnostics, got %+v", sink.Records)
	}
}
