package fsm

import (
	"github.com/dvoss/pegen"
	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/itemset"
	"github.com/dvoss/pegen/reach"
)

// Result is the finalized, ascending-id-ordered FSM state list.
type Result struct {
	States []*State // index == ID
}

// Builder compiles one section's item-set graph into FSM states.
type Builder struct {
	section *grammar.Section
	sink    diag.Sink
	reach   *reach.Table
	follow  *reach.FollowTable
	built   map[int]*State
}

// NewBuilder creates a Builder for section, reporting conflicts to sink.
func NewBuilder(section *grammar.Section, sink diag.Sink) *Builder {
	reachTable := reach.NewTable()
	return &Builder{
		section: section,
		sink:    sink,
		reach:   reachTable,
		follow:  reach.NewFollowTable(section, reachTable),
		built:   make(map[int]*State),
	}
}

// Build walks ir depth-first from its root, memoizing built states by
// item-set id, and returns them in ascending id order (spec.md §4.3,
// §8 "Id monotonicity").
func (b *Builder) Build(ir *itemset.Result) *Result {
	if len(ir.Sets) == 0 {
		return &Result{}
	}
	b.walk(ir.Sets[0])

	out := make([]*State, 0, len(b.built))
	for id := 0; id < len(ir.Sets); id++ {
		if s, ok := b.built[id]; ok {
			out = append(out, s)
		}
	}
	return &Result{States: out}
}

func (b *Builder) walk(iset *itemset.ItemSet) *State {
	if s, ok := b.built[iset.ID]; ok {
		return s
	}
	s := newState(iset.ID)
	b.built[iset.ID] = s

	for _, it := range iset.Items {
		e, ok := it.FocusElement()
		if !ok {
			s.Reduces = append(s.Reduces, Reduce{Rule: it.Rule})
			continue
		}
		if e.Kind == grammar.Identifier {
			if e.NonTerm != nil {
				if it.Transition != nil {
					next := b.walk(it.Transition)
					s.addGoto(e.NonTerm, next.ID)
				}
				continue
			}
			if b.section.Kind == grammar.Lexicon {
				diag.Push(b.sink, diag.ErrUndefNonterm, e.Pos, "undefined non-terminal %q", e.Value.Value())
				continue
			}
			if _, exported := b.section.ExportID(e.Value.Value()); !exported {
				diag.Push(b.sink, diag.ErrUndefNonterm, e.Pos, "undefined non-terminal %q", e.Value.Value())
				continue
			}
			if it.Transition != nil {
				next := b.walk(it.Transition)
				s.addShift(e, next.ID, it.Rule)
			}
			continue
		}
		// Any other terminal (literal, symbol, nvalue-qualified element).
		if it.Transition != nil {
			next := b.walk(it.Transition)
			s.addShift(e, next.ID, it.Rule)
		}
	}

	b.checkConflicts(iset, s)
	return s
}

// checkConflicts applies spec.md §4.3's per-state conflict policy,
// computing lookahead via the reach-set table uniformly (replacing the
// loadFollow placeholder per spec.md §9's Open Question decision).
func (b *Builder) checkConflicts(iset *itemset.ItemSet, s *State) {
	switch len(s.Reduces) {
	case 0:
		return
	case 1:
		if len(s.Shifts) == 0 {
			s.Reduces[0].Follow = nil
			return
		}
		if b.section.Kind == grammar.Lexicon {
			// In LEXICON the single reduction is a fallback taken only
			// when no shift matches; no explicit follow computation is
			// needed, the emitter places it after the shift block.
			s.Reduces[0].Follow = nil
			return
		}
		follow := b.followFor(s.Reduces[0].Rule)
		s.Reduces[0].Follow = follow
		for _, sh := range s.Shifts {
			if tokenInFollow(sh.Token, follow) {
				diag.Push(b.sink, diag.ErrShiftReduce, sh.Token.Pos,
					"shift/reduce conflict in state %d on %q", iset.ID, sh.Token.Value.Value())
			}
		}
	default:
		if b.section.Kind == grammar.Lexicon {
			diag.Push(b.sink, diag.ErrReduceReduce, pos0(iset),
				"reduce/reduce conflict in lexicon state %d", iset.ID)
			return
		}
		follows := make([][]*grammar.Token, len(s.Reduces))
		for i := range s.Reduces {
			follows[i] = b.followFor(s.Reduces[i].Rule)
			s.Reduces[i].Follow = follows[i]
		}
		for i := range follows {
			for _, sh := range s.Shifts {
				if tokenInFollow(sh.Token, follows[i]) {
					diag.Push(b.sink, diag.ErrShiftReduce, sh.Token.Pos,
						"shift/reduce conflict in state %d on %q", iset.ID, sh.Token.Value.Value())
				}
			}
			for j := i + 1; j < len(follows); j++ {
				if followsOverlap(follows[i], follows[j]) {
					diag.Push(b.sink, diag.ErrReduceReduce, pos0(iset),
						"reduce/reduce conflict in state %d between rule %d and rule %d",
						iset.ID, s.Reduces[i].Rule.ID, s.Reduces[j].Rule.ID)
				}
			}
		}
	}
}

func pos0(iset *itemset.ItemSet) (p pegen.Pos) {
	if len(iset.Items) == 0 {
		return
	}
	if e, ok := iset.Items[0].FocusElement(); ok {
		return e.Pos
	}
	return
}

// followFor returns FOLLOW(rule.NonTerm): the reduce lookahead for rule,
// computed once per section and cached (spec.md §4.3 "Conditional
// REDUCEs" lookahead).
func (b *Builder) followFor(rule *grammar.Rule) []*grammar.Token {
	return b.follow.Of(rule.NonTerm)
}

func tokenInFollow(tok grammar.Token, follow []*grammar.Token) bool {
	for _, f := range follow {
		if f != nil && f.DeepEqual(tok) {
			return true
		}
	}
	return false
}

func followsOverlap(a, b []*grammar.Token) bool {
	for _, x := range a {
		if x == nil {
			continue
		}
		for _, y := range b {
			if y != nil && x.DeepEqual(*y) {
				return true
			}
		}
	}
	return false
}
