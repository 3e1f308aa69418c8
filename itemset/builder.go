package itemset

import (
	"github.com/emirpasic/gods/lists/arraylist"
	"golang.org/x/exp/slices"

	"github.com/dvoss/pegen/charset"
	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/strpool"
)

// Result is the finalized, BFS-numbered item-set list for one section.
type Result struct {
	Section *grammar.Section
	Sets    []*ItemSet // index == ID
	BySig   map[string]*ItemSet
}

// Builder constructs the item-set graph for a single grammar section.
type Builder struct {
	section *grammar.Section
	pool    *strpool.Pool
	sink    diag.Sink
	bySig   map[string]*ItemSet
	queue   *arraylist.List // FIFO of pending item-sets awaiting step()
	nextID  int
}

// NewBuilder creates a Builder over section, reporting diagnostics to
// sink and interning factorization-derived patterns into pool.
func NewBuilder(section *grammar.Section, pool *strpool.Pool, sink diag.Sink) *Builder {
	return &Builder{section: section, pool: pool, sink: sink, bySig: make(map[string]*ItemSet), queue: arraylist.New(), nextID: 1}
}

// dequeue pops and returns the front of the BFS queue.
func (b *Builder) dequeue() *ItemSet {
	v, _ := b.queue.Get(0)
	b.queue.Remove(0)
	return v.(*ItemSet)
}

// Resolve walks every production element in the section and pre-resolves
// identifier-kind tokens to their non-terminal, leaving NonTerm nil for
// terminal references (spec.md §4.2 "Entry").
func Resolve(section *grammar.Section) {
	for _, nt := range section.NonTerminals() {
		for _, r := range nt.Rules {
			for i := range r.Elements {
				e := &r.Elements[i]
				if e.Kind == grammar.Identifier {
					e.NonTerm = section.Lookup(e.Value.Value())
				}
			}
		}
	}
}

// Build constructs item-set #0 from every production of start (at focus
// 0), closes it, and then drains the BFS queue of goto transitions until
// no new item-sets are discovered.
func (b *Builder) Build(start *grammar.NonTerminal) *Result {
	root := NewItemSet(0)
	for _, r := range start.Rules {
		root.Add(NewItem(r, 0))
	}
	b.close(root)
	b.factorize(root)
	root.Finalize()
	b.bySig[root.Signature] = root

	sets := []*ItemSet{root}
	b.queue.Add(root)
	for !b.queue.Empty() {
		cur := b.dequeue()
		sets = append(sets, b.step(cur)...)
	}

	return &Result{Section: b.section, Sets: sets, BySig: b.bySig}
}

// close adds, for every item whose focus is a non-terminal not yet
// present as a kernel item, one item per production of that non-terminal
// at focus 0. Closure is idempotent: re-running it over an already
// closed set adds nothing further.
func (b *Builder) close(s *ItemSet) {
	changed := true
	for changed {
		changed = false
		for _, it := range append([]*Item(nil), s.Items...) {
			e, ok := it.FocusElement()
			if !ok || e.NonTerm == nil {
				continue
			}
			for _, r := range e.NonTerm.Rules {
				if s.Add(NewItem(r, 0)) {
					changed = true
				}
			}
		}
	}
}

// factorize splits literal-focused items with overlapping character
// classes into disjoint groups, for lexicon sections only (spec.md
// §4.2 "Factorization"). It mutates s.Items in place, replacing the
// original literal-focused items with ones whose focus is overridden by
// a disjoint charset pattern.
func (b *Builder) factorize(s *ItemSet) {
	if b.section.Kind != grammar.Lexicon {
		return
	}
	type group struct {
		cs    *charset.Set
		items []*Item
	}
	var literalItems []*Item
	var kept []*Item
	for _, it := range s.Items {
		e, ok := it.FocusElement()
		if ok && e.IsLiteral() {
			literalItems = append(literalItems, it)
		} else {
			kept = append(kept, it)
		}
	}
	if len(literalItems) == 0 {
		return
	}

	groups := make([]group, 0, len(literalItems))
	for _, it := range literalItems {
		e, _ := it.FocusElement()
		cs, err := charset.Parse(e.Value.Value())
		if err != nil {
			tracer().Errorf("itemset: bad literal pattern %q: %v", e.Value.Value(), err)
			continue
		}
		groups = append(groups, group{cs: cs, items: []*Item{it}})
	}

	// Build-up: iteratively intersect every pair of groups at the
	// current frontier, pushing newly discovered non-empty
	// intersections as the next frontier, until no further splits are
	// possible (the bottom of the stack has only the original groups).
	stack := [][]group{append([]group(nil), groups...)}
	frontier := groups
	for {
		var next []group
		for i := 0; i < len(frontier); i++ {
			for j := i + 1; j < len(frontier); j++ {
				inter := charset.Intersection(frontier[i].cs, frontier[j].cs)
				if inter.IsEmpty() {
					continue
				}
				k := 0
				for k < len(next) && !next[k].cs.Equals(inter) {
					k++
				}
				if k == len(next) {
					next = append(next, group{cs: inter})
				}
				for _, it := range append(append([]*Item(nil), frontier[i].items...), frontier[j].items...) {
					if !slices.Contains(next[k].items, it) {
						next[k].items = append(next[k].items, it)
					}
				}
			}
		}
		if len(next) == 0 {
			break
		}
		stack = append(stack, next)
		frontier = next
	}

	// Pop-down: walk the stack top (most specific) to bottom, carving
	// disjoint pieces out of an "unconsumed" accumulator starting as
	// the full alphabet.
	unconsumed := charset.Any()
	var finalGroups []group
	for i := len(stack) - 1; i >= 0; i-- {
		for _, g := range stack[i] {
			inter := charset.Intersection(g.cs, unconsumed)
			if inter.IsEmpty() {
				continue
			}
			finalGroups = append(finalGroups, group{cs: inter, items: g.items})
			unconsumed = Intersection(unconsumed, inter.Clone().Not())
		}
	}

	var rebuilt []*Item
	for _, g := range finalGroups {
		patternStr := g.cs.String()
		patternTok := b.pool.Alloc(patternStr)
		for _, srcItem := range g.items {
			e, _ := srcItem.FocusElement()
			tok := e
			tok.Value = patternTok
			clone := srcItem.Clone()
			clone.Override = &tok
			rebuilt = append(rebuilt, clone)
		}
	}
	s.Items = append(kept, rebuilt...)
}

// Intersection is a small local alias kept for readability at call sites
// above (charset.Intersection already does exactly this).
func Intersection(a, b *charset.Set) *charset.Set {
	return charset.Intersection(a, b)
}

// step processes one item-set's outgoing transitions: for every distinct
// focus element, build the candidate successor, close and factorize it,
// and either rewire to an existing twin (by signature) or assign it the
// next id and enqueue it. Returns the newly discovered item-sets, if any.
func (b *Builder) step(cur *ItemSet) []*ItemSet {
	type bucket struct {
		elem  grammar.Token
		items []*Item
	}
	var buckets []bucket
	for _, it := range cur.Items {
		e, ok := it.FocusElement()
		if !ok {
			continue
		}
		placed := false
		for i := range buckets {
			if buckets[i].elem.DeepEqual(e) {
				buckets[i].items = append(buckets[i].items, it)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{elem: e, items: []*Item{it}})
		}
	}

	var discovered []*ItemSet
	for _, bk := range buckets {
		cand := NewItemSet(-1)
		for _, it := range bk.items {
			cand.Add(it.Advance())
		}
		b.close(cand)
		b.factorize(cand)
		cand.Finalize()

		if existing, ok := b.bySig[cand.Signature]; ok {
			b.rewire(bk.items, existing)
			existing.AddParent(cur)
			continue
		}
		cand.ID = b.nextID
		b.nextID++
		cand.AddParent(cur)
		b.bySig[cand.Signature] = cand
		b.rewire(bk.items, cand)
		b.queue.Add(cand)
		discovered = append(discovered, cand)
	}
	return discovered
}

// rewire points every item in items (all belonging to the same source
// item-set) at target.
func (b *Builder) rewire(items []*Item, target *ItemSet) {
	for _, it := range items {
		it.Transition = target
	}
}
