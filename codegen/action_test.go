package codegen

import (
	"strings"
	"testing"

	"github.com/dvoss/pegen/grammar"
)

func newCtx() *grammar.Context {
	return grammar.NewContext()
}

func TestRewriteActionSubstitutesSlots(t *testing.T) {
	ctx := newCtx()
	sec := ctx.Grammar
	b := sec.Intern("b", ctx.Pool.Alloc("b"))
	b.AddRule([]grammar.Token{{Kind: grammar.SQString, Value: ctx.Pool.Alloc("x")}}, "")

	a := sec.Intern("a", ctx.Pool.Alloc("a"))
	rule := a.AddRule([]grammar.Token{
		{Kind: grammar.Identifier, Value: ctx.Pool.Alloc("b"), NonTerm: b},
	}, "$0")

	res := RewriteAction(rule.Action, rule)
	if !strings.Contains(res.Body, "argv[bp-1]") {
		t.Fatalf("expected slot reference in %q", res.Body)
	}
	if len(res.Unused) != 0 {
		t.Fatalf("expected no unused slots, got %v", res.Unused)
	}
}

func TestRewriteActionDoubleDollarLeavesUnused(t *testing.T) {
	ctx := newCtx()
	sec := ctx.Grammar
	a := sec.Intern("a", ctx.Pool.Alloc("a"))
	rule := a.AddRule([]grammar.Token{
		{Kind: grammar.SQString, Value: ctx.Pool.Alloc("x")},
	}, "$$0")

	res := RewriteAction(rule.Action, rule)
	if len(res.Unused) != 1 || res.Unused[0] != 0 {
		t.Fatalf("expected slot 0 unused, got %v", res.Unused)
	}
}

func TestTemplateExpand(t *testing.T) {
	out := Expand([]byte("pre $0 mid $1 end $$"), Markers{M0: "NAME", M1: "STATES"})
	got := string(out)
	want := "pre NAME mid STATES end $"
	if got != want {
		t.Fatalf("Expand: got %q want %q", got, want)
	}
}
