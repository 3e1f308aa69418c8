package itemset

import (
	"testing"

	"github.com/dvoss/pegen/charset"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/strpool"
)

func lit(pool *strpool.Pool, kind grammar.Kind, v string) grammar.Token {
	return grammar.Token{Value: pool.Alloc(v), Kind: kind}
}

// TestClosureIdempotence builds a trivial grammar and checks that running
// close twice leaves the same signature (spec.md §8 "closure idempotence").
func TestClosureIdempotence(t *testing.T) {
	ctx := grammar.NewContext()
	sec := ctx.Lexicon
	letter := sec.Intern("letter", ctx.Pool.Alloc("letter"))
	letter.AddRule([]grammar.Token{lit(ctx.Pool, grammar.SQString, "[a-z]")}, "")
	word := sec.Intern("word", ctx.Pool.Alloc("word"))
	word.AddRule([]grammar.Token{
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("letter")},
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("word")},
	}, "")
	word.AddRule([]grammar.Token{{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("letter")}}, "")

	Resolve(sec)

	b := NewBuilder(sec, ctx.Pool, nil)
	s := NewItemSet(0)
	for _, r := range word.Rules {
		s.Add(NewItem(r, 0))
	}
	b.close(s)
	s.Finalize()
	sig1 := s.Signature

	b.close(s) // idempotent: no-op
	s.Finalize()
	if s.Signature != sig1 {
		t.Fatalf("closure not idempotent: %q != %q", sig1, s.Signature)
	}
}

// TestFactorizationPartition checks the disjointness/union invariant from
// spec.md §8 for the classic [a-c]/[b-d] overlap scenario.
func TestFactorizationPartition(t *testing.T) {
	ctx := grammar.NewContext()
	sec := ctx.Lexicon
	a := sec.Intern("a", ctx.Pool.Alloc("a"))
	a.AddRule([]grammar.Token{lit(ctx.Pool, grammar.SQString, "[a-c]")}, "")
	b := sec.Intern("b", ctx.Pool.Alloc("b"))
	b.AddRule([]grammar.Token{lit(ctx.Pool, grammar.SQString, "[b-d]")}, "")
	start := sec.Intern("__start__", ctx.Pool.Alloc("__start__"))
	start.AddRule([]grammar.Token{{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("a")}}, "")
	start.AddRule([]grammar.Token{{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("b")}}, "")

	Resolve(sec)

	builder := NewBuilder(sec, ctx.Pool, nil)
	res := builder.Build(start)
	root := res.Sets[0]

	var literalFocuses []string
	for _, it := range root.Items {
		e, ok := it.FocusElement()
		if !ok || !e.IsLiteral() {
			continue
		}
		literalFocuses = append(literalFocuses, e.Value.Value())
	}
	if len(literalFocuses) == 0 {
		t.Fatalf("expected literal-focused items after factorization")
	}

	sets := make([]*charset.Set, len(literalFocuses))
	for i, pattern := range literalFocuses {
		cs, err := charset.Parse(pattern)
		if err != nil {
			t.Fatalf("charset.Parse(%q): %v", pattern, err)
		}
		sets[i] = cs
	}
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			if sets[i].Equals(sets[j]) {
				// items derived from the same factorized group share its charset
				continue
			}
			if !charset.Intersection(sets[i], sets[j]).IsEmpty() {
				t.Fatalf("factorized groups %q and %q are not disjoint", literalFocuses[i], literalFocuses[j])
			}
		}
	}

	union := charset.New()
	for _, cs := range sets {
		union.Or(cs)
	}
	wantA, _ := charset.Parse("[a-c]")
	wantB, _ := charset.Parse("[b-d]")
	want := charset.New()
	want.Or(wantA)
	want.Or(wantB)
	if !union.Equals(want) {
		t.Fatalf("factorized groups do not cover the original union: got %s, want %s", union.String(), want.String())
	}
}
