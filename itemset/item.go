/*
Package itemset builds LR(0)-style item-sets over a grammar section: the
closure, literal factorization, goto transitions and canonical signatures
described in spec.md §4.2 (C5).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package itemset

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.itemset")
}

// Item is an augmented production rule: a reference to the rule, the
// index of the element currently in focus (0..Len), an optional
// overridden focus element (set by literal factorization) and a
// non-owning transition pointer to the successor item-set reached by
// consuming the focused element.
type Item struct {
	Rule       *grammar.Rule
	Focus      int
	Override   *grammar.Token
	Transition *ItemSet
}

// NewItem creates an item for rule at the given focus.
func NewItem(rule *grammar.Rule, focus int) *Item {
	return &Item{Rule: rule, Focus: focus}
}

// AtEnd reports whether the item's focus has consumed every element
// (i.e. it is a reduce item).
func (it *Item) AtEnd() bool {
	return it.Focus >= it.Rule.Len()
}

// FocusElement returns the element currently in focus, honoring any
// override installed by factorization, and a second return value of
// false if the item is at end.
func (it *Item) FocusElement() (grammar.Token, bool) {
	if it.AtEnd() {
		return grammar.Token{}, false
	}
	if it.Override != nil {
		return *it.Override, true
	}
	return it.Rule.Elements[it.Focus], true
}

// Advance returns a new item with focus moved one element further,
// discarding any override (which only applies to the current focus).
func (it *Item) Advance() *Item {
	return &Item{Rule: it.Rule, Focus: it.Focus + 1}
}

// Clone returns a shallow copy of it, preserving any override.
func (it *Item) Clone() *Item {
	return &Item{Rule: it.Rule, Focus: it.Focus, Override: it.Override, Transition: it.Transition}
}

// Hash computes the item's structural hash, per spec.md §3:
// nonterm_id<<20 ^ rule_id<<10 ^ index. The focus element does not enter
// the hash directly: two items differing only by an override at the
// same (nonterm, rule, focus) triple are considered the same base item
// for hashing purposes, since Equal distinguishes them by focus element.
func (it *Item) Hash() uint64 {
	nt := uint64(it.Rule.NonTerm.ID)
	r := uint64(it.Rule.ID)
	return nt<<20 ^ r<<10 ^ uint64(it.Focus)
}

// Equal reports whether two items share the same rule, the same focus
// index, and a (deep-)equal focused element (or are both at end).
func (a *Item) Equal(b *Item) bool {
	if a.Rule != b.Rule || a.Focus != b.Focus {
		return false
	}
	ea, oka := a.FocusElement()
	eb, okb := b.FocusElement()
	if oka != okb {
		return false
	}
	if !oka {
		return true
	}
	return ea.DeepEqual(eb)
}
