package fsm_test

import (
	"testing"

	"github.com/dvoss/pegen/fsm"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/itemset"
)

func buildAB(t *testing.T) (*fsm.Result, *grammar.Section) {
	ctx := grammar.NewContext()
	lex := ctx.Lexicon
	a := lex.Intern("a", ctx.Pool.Alloc("a"))
	ruleA := a.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("a")}}, "")
	lex.AddExport("a", ruleA)
	b := lex.Intern("b", ctx.Pool.Alloc("b"))
	ruleB := b.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("b")}}, "")
	lex.AddExport("b", ruleB)

	gram := ctx.Grammar
	s := gram.Intern("S", ctx.Pool.Alloc("S"))
	s.AddRule([]grammar.Token{
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("a")},
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("b")},
	}, "")

	start := grammar.FinalizeGrammar(ctx)
	grammar.InferTypes(gram, ctx.Pool, nil)
	itemset.Resolve(gram)

	ir := itemset.NewBuilder(gram, ctx.Pool, nil).Build(start)
	res := fsm.NewBuilder(gram, nil).Build(ir)
	return res, lex
}

func TestDriverAcceptsAB(t *testing.T) {
	res, lex := buildAB(t)
	d := fsm.NewDriver(res.States, lex)
	ok, err := d.Accept([]fsm.Terminal{{ID: 256, Text: "a"}, {ID: 257, Text: "b"}})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !ok {
		t.Fatalf("expected \"ab\" to be accepted")
	}
}

func TestDriverRejectsWrongOrder(t *testing.T) {
	res, lex := buildAB(t)
	d := fsm.NewDriver(res.States, lex)
	ok, err := d.Accept([]fsm.Terminal{{ID: 257, Text: "b"}, {ID: 256, Text: "a"}})
	if err == nil && ok {
		t.Fatalf("expected \"ba\" to be rejected")
	}
}
