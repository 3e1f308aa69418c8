package itemset

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// ItemSet is an ordered collection of items representing one LR parser
// state: a list of parent item-sets that transition into it, an
// assigned id (1-based within a section; the root is 0), a canonical
// signature and aggregate hash, and an untyped Reach slot.
type ItemSet struct {
	ID        int
	Items     []*Item
	Parents   []*ItemSet
	Signature string
	Aggregate uint64

	// Reach is not set by any package of this module: the fsm builder
	// takes reduce lookahead from reach.FollowTable per non-terminal, and
	// no per-item-set reach-set is built.
	Reach interface{}
}

// NewItemSet creates an empty item-set with the given id.
func NewItemSet(id int) *ItemSet {
	return &ItemSet{ID: id}
}

// Add appends it unless an equal item is already present (an item-set
// invariant: no two items in a set are equal).
func (s *ItemSet) Add(it *Item) bool {
	for _, existing := range s.Items {
		if existing.Equal(it) {
			return false
		}
	}
	s.Items = append(s.Items, it)
	return true
}

// AddParent records from as a parent of s, once.
func (s *ItemSet) AddParent(from *ItemSet) {
	for _, p := range s.Parents {
		if p == from {
			return
		}
	}
	s.Parents = append(s.Parents, from)
}

// Finalize computes the set's canonical signature and aggregate hash
// from its current item list: hashes are sorted ascending and joined
// as colon-separated hex text (spec.md §4.2 "Signature"), so that two
// item-sets sharing the same multiset of items always agree regardless
// of insertion order (the "Signature canonicity" testable property).
func (s *ItemSet) Finalize() {
	hashes := make([]uint64, len(s.Items))
	var sum uint64
	for i, it := range s.Items {
		h := it.Hash()
		hashes[i] = h
		sum += h
	}
	slices.Sort(hashes)
	parts := make([]string, len(hashes))
	for i, h := range hashes {
		parts[i] = fmt.Sprintf("%x", h)
	}
	s.Signature = strings.Join(parts, ":")
	s.Aggregate = sum
}

// Dump is a debugging helper.
func (s *ItemSet) Dump() {
	tracer().Debugf("--- itemset %03d (sig=%s) ---", s.ID, s.Signature)
	for _, it := range s.Items {
		tracer().Debugf("  %s#%d @%d", it.Rule.NonTerm.Name.Value(), it.Rule.ID, it.Focus)
	}
}
