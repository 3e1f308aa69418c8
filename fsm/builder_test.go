package fsm

import (
	"testing"

	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/itemset"
)

// TestIdMonotonicity builds a small lexicon and checks the finalized
// state list is strictly ascending by id (spec.md §8).
func TestIdMonotonicity(t *testing.T) {
	ctx := grammar.NewContext()
	sec := ctx.Lexicon
	letter := sec.Intern("letter", ctx.Pool.Alloc("letter"))
	letter.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("[a-z]")}}, "")
	word := sec.Intern("word", ctx.Pool.Alloc("word"))
	word.AddRule([]grammar.Token{
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("letter")},
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("word")},
	}, "")
	word.AddRule([]grammar.Token{{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("letter")}}, "")

	itemset.Resolve(sec)
	ib := itemset.NewBuilder(sec, ctx.Pool, nil)
	ir := ib.Build(word)

	sink := diag.NewCollector()
	fb := NewBuilder(sec, sink)
	res := fb.Build(ir)

	for i := 1; i < len(res.States); i++ {
		if res.States[i].ID <= res.States[i-1].ID {
			t.Fatalf("state ids not strictly ascending: %d then %d", res.States[i-1].ID, res.States[i].ID)
		}
	}
}

// TestShiftReduceConflictDetected exercises the classical dangling-ambiguity
// grammar from spec.md §8 scenario 4 and expects a shift/reduce conflict.
func TestShiftReduceConflictDetected(t *testing.T) {
	ctx := grammar.NewContext()
	sec := ctx.Grammar
	expr := sec.Intern("expr", ctx.Pool.Alloc("expr"))
	plus := grammar.Token{Kind: grammar.Symbol, Value: ctx.Pool.Alloc("+")}
	exprRef := grammar.Token{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("expr")}
	nLit := grammar.Token{Kind: grammar.SQString, Value: ctx.Pool.Alloc("n")}
	expr.AddRule([]grammar.Token{exprRef, plus, exprRef}, "")
	expr.AddRule([]grammar.Token{nLit}, "")

	itemset.Resolve(sec)
	ib := itemset.NewBuilder(sec, ctx.Pool, nil)
	ir := ib.Build(expr)

	sink := diag.NewCollector()
	fb := NewBuilder(sec, sink)
	fb.Build(ir)

	found := false
	for _, r := range sink.Records {
		if r.Code == diag.ErrShiftReduce {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a shift/reduce conflict to be reported, got: %v", sink.Records)
	}
}
