package grammar

import (
	"github.com/dvoss/pegen"
	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/strpool"
)

// GenericType is the return-type text substituted for a non-terminal
// that carries no value, the same role as codegen's generic-pointer
// default (spec.md §4.1 "Type inference": "defaults to a generic
// pointer type").
const GenericType = "void*"

// FinalizeLexicon runs post-pass 1 (spec.md §4.1): every DEFAULT-
// visibility production of the very first lexicon non-terminal is
// reclassified (empty -> PRIVATE, non-empty -> PUBLIC with its first
// element registered as an export), then a synthetic __start__/
// __tokens pair is installed. Returns the new __start__, or nil if the
// lexicon section declared no non-terminals.
func FinalizeLexicon(ctx *Context) *NonTerminal {
	lex := ctx.Lexicon
	names := lex.Names()
	if len(names) == 0 {
		return nil
	}
	first := lex.Lookup(names[0])
	for _, r := range first.Rules {
		if r.Visibility != VisDefault {
			continue
		}
		if len(r.Elements) == 0 {
			r.Visibility = VisPrivate
			continue
		}
		r.Visibility = VisPublic
		lex.AddExport(r.Elements[0].Value.Value(), r)
	}
	return installStart(ctx, lex, first)
}

// FinalizeGrammar runs post-pass 2 (spec.md §4.1): a synthetic grammar
// __start__ is installed with one rule `firstNT END` and action `$0`,
// where firstNT is the first declared GRAMMAR non-terminal. Returns the
// new __start__, or nil if the grammar section declared no
// non-terminals.
func FinalizeGrammar(ctx *Context) *NonTerminal {
	gram := ctx.Grammar
	names := gram.Names()
	if len(names) == 0 {
		return nil
	}
	first := gram.Lookup(names[0])
	start := &NonTerminal{ID: StartNonTermID, Name: ctx.Pool.Alloc("__start__")}
	firstRef := Token{Kind: Identifier, Value: first.Name, NonTerm: first}
	start.AddRule([]Token{firstRef, Token{Kind: End}}, "$0")
	gram.InstallSynthetic("__start__", start)
	return start
}

// installStart builds the lexicon's __tokens accumulator and __start__
// non-terminal: __tokens -> __tokens firstNT | firstNT, __start__ ->
// __tokens END | END.
func installStart(ctx *Context, lex *Section, first *NonTerminal) *NonTerminal {
	tokens := lex.Intern("__tokens", ctx.Pool.Alloc("__tokens"))
	firstRef := Token{Kind: Identifier, Value: first.Name, NonTerm: first}
	tokensRef := Token{Kind: Identifier, Value: tokens.Name, NonTerm: tokens}
	tokens.AddRule([]Token{tokensRef, firstRef}, "")
	tokens.AddRule([]Token{firstRef}, "")

	start := &NonTerminal{ID: StartNonTermID, Name: ctx.Pool.Alloc("__start__")}
	start.AddRule([]Token{tokensRef, Token{Kind: End}}, "")
	start.AddRule([]Token{Token{Kind: End}}, "")
	lex.InstallSynthetic("__start__", start)
	return start
}

// ruleCandidate classifies one rule for type inference: a rule
// contributes a candidate type only when it contains exactly one
// non-self identifier reference to another non-terminal.
func ruleCandidate(nt *NonTerminal, r *Rule) (candidate string, has, pending, ambiguous bool) {
	var ref *NonTerminal
	count := 0
	for _, e := range r.Elements {
		if e.Kind == Identifier && e.NonTerm != nil && e.NonTerm != nt {
			count++
			ref = e.NonTerm
		}
	}
	switch {
	case count == 0:
		return "", false, false, false
	case count > 1:
		return "", false, false, true
	case !ref.HasReturnType():
		return "", false, true, false
	default:
		return ref.ReturnType.Value(), true, false, false
	}
}

// InferTypes assigns return types to GRAMMAR non-terminals lacking a
// declared one, per spec.md §4.1 "Type inference": iterate to a fixed
// point, a non-terminal inherits the unique candidate type contributed
// by its rules, defaults to GenericType when every rule is
// terminal-only or empty, reports WarnInconsistentType when distinct
// rules unambiguously name different types, and reports WarnInferFailed
// (matching original_source/src/psxt/Parser.h's ensureTypeConsistency,
// E_INFER_FAILED) and gives up immediately, without weighing the
// non-terminal's remaining rules, the moment any single rule contains
// more than one candidate reference.
func InferTypes(gram *Section, pool *strpool.Pool, sink diag.Sink) {
	nts := gram.NonTerminals()
	for _, nt := range nts {
		for i := range nt.Rules {
			r := nt.Rules[i]
			for j := range r.Elements {
				e := &r.Elements[j]
				if e.Kind == Identifier && e.NonTerm == nil {
					e.NonTerm = gram.Lookup(e.Value.Value())
				}
			}
		}
	}

	for {
		progress := false
		for _, nt := range nts {
			if nt.HasReturnType() {
				continue
			}
			candidates := make(map[string]bool)
			anyPending, failed := false, false
			for _, r := range nt.Rules {
				cand, has, pending, ambiguous := ruleCandidate(nt, r)
				if ambiguous {
					diag.Push(sink, diag.WarnInferFailed, pegen.Pos{},
						"ambiguous non-terminal reference in a rule of %q", nt.Name.Value())
					failed = true
					break
				}
				switch {
				case pending:
					anyPending = true
				case has:
					candidates[cand] = true
				}
			}
			switch {
			case failed:
				nt.ReturnType = pool.Alloc(GenericType)
				progress = true
			case len(candidates) > 1:
				diag.Push(sink, diag.WarnInconsistentType, pegen.Pos{},
					"inconsistent inferred type for %q", nt.Name.Value())
				nt.ReturnType = pool.Alloc(GenericType)
				progress = true
			case len(candidates) == 1:
				for t := range candidates {
					nt.ReturnType = pool.Alloc(t)
				}
				progress = true
			case anyPending:
				// wait for a referenced non-terminal to resolve first
			default:
				nt.ReturnType = pool.Alloc(GenericType)
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	for _, nt := range nts {
		if !nt.HasReturnType() {
			diag.Push(sink, diag.WarnInferFailed, pegen.Pos{},
				"could not infer return type for %q", nt.Name.Value())
			nt.ReturnType = pool.Alloc(GenericType)
		}
	}
}
