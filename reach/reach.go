/*
Package reach implements the reach-set graph (spec.md §3 "Reach-set
graph (C6)", §4.2 "Reach-set"): the lazily built, memoized structure the
FSM compiler consults to separate shift and reduce lookahead sets,
replacing the placeholder `loadFollow` the original generator left
unimplemented (spec.md §9 Open Questions).

Three node kinds share ownership, expressed here as a tagged variant
rather than an inheritance hierarchy (spec.md §9 "Polymorphism over node
kinds"):

  - Element wraps a token (nil Token means "exit": the production ends
    here with nothing further to consume).
  - Path is an ordered list of nodes produced by walking a rule's suffix.
  - Set is a list of paths, one per production of a non-terminal.

Every Set is interned in a Table by the owning non-terminal's name so
recursive grammars still produce a finite DAG instead of infinite
recursion. FollowTable builds on top of Table to compute the classical
FOLLOW-set the FSM builder needs for reduce lookahead.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package reach

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.reach")
}

// NodeKind tags a reach node's variant.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindPath
	KindSet
)

// Node is a tagged-variant reach-graph node. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Node struct {
	Kind NodeKind

	// KindElement:
	Token *grammar.Token // nil means "exit"

	// KindPath:
	Path []*Node

	// KindSet:
	Paths []*Node
}

// Exit is the shared sentinel element meaning "production ends here".
var Exit = &Node{Kind: KindElement, Token: nil}

func element(tok grammar.Token) *Node {
	t := tok
	return &Node{Kind: KindElement, Token: &t}
}

// Table interns reach-sets by key so recursive references converge
// instead of recursing forever.
type Table struct {
	sets map[string]*Node
}

// NewTable creates an empty reach-set table.
func NewTable() *Table {
	return &Table{sets: make(map[string]*Node)}
}

// ForNonTerminal returns (building and interning if necessary) the
// reach-set for nt: one path per production, each path the list of
// reach-nodes for that production's element sequence starting at
// element 0.
func (t *Table) ForNonTerminal(nt *grammar.NonTerminal) *Node {
	key := "nt:" + nt.Name.Value()
	if s, ok := t.sets[key]; ok {
		return s
	}
	// Pre-insert a placeholder so a cyclic reference (nt's own
	// productions referencing nt, directly or through others) resolves
	// to this same Set node rather than recursing indefinitely.
	placeholder := &Node{Kind: KindSet}
	t.sets[key] = placeholder
	for _, r := range nt.Rules {
		placeholder.Paths = append(placeholder.Paths, t.pathFrom(r.Elements, 0))
	}
	tracer().Debugf("reach: built set for non-terminal %q (%d paths)", nt.Name.Value(), len(placeholder.Paths))
	return placeholder
}

// pathFrom builds the Path node for elements[offset:], recursing into
// ForNonTerminal for every non-terminal element (offset may run past the
// end of elements, yielding a path containing only Exit).
func (t *Table) pathFrom(elements []grammar.Token, offset int) *Node {
	path := &Node{Kind: KindPath}
	for i := offset; i < len(elements); i++ {
		e := elements[i]
		if e.NonTerm != nil {
			path.Path = append(path.Path, t.ForNonTerminal(e.NonTerm))
		} else {
			path.Path = append(path.Path, element(e))
		}
	}
	if len(path.Path) == 0 {
		path.Path = append(path.Path, Exit)
	}
	return path
}

// FollowTable computes the classical FOLLOW-set for every non-terminal in
// a grammar section by fixed-point iteration: for every occurrence of a
// non-terminal B in a rule belonging to A, FOLLOW(B) gains FIRST of the
// elements after that occurrence, and additionally gains FOLLOW(A)
// whenever those trailing elements can derive nothing at all (pathFrom's
// Exit sentinel, surfaced as a nil entry by FirstTokens). This is what
// the FSM builder's conflict detection needs as reduce lookahead (spec.md
// §4.3), as opposed to ForNonTerminal's per-symbol FIRST-set.
//
// Only the leading element of a trailing sequence is consulted (matching
// FirstTokens), so a nullable non-terminal followed by further elements
// does not chain FOLLOW past it; none of this grammar's sections rely on
// multi-element nullable chains, so the simplification is not exercised.
type FollowTable struct {
	section *grammar.Section
	table   *Table
	follow  map[*grammar.NonTerminal][]*grammar.Token
}

// NewFollowTable creates a FollowTable over section, reusing table to
// compute the FIRST-sets that feed the fixed-point.
func NewFollowTable(section *grammar.Section, table *Table) *FollowTable {
	return &FollowTable{section: section, table: table}
}

// Of returns FOLLOW(nt), computing every non-terminal's FOLLOW-set in the
// section in one fixed-point pass on first use.
func (f *FollowTable) Of(nt *grammar.NonTerminal) []*grammar.Token {
	f.compute()
	return f.follow[nt]
}

func (f *FollowTable) compute() {
	if f.follow != nil {
		return
	}
	f.follow = make(map[*grammar.NonTerminal][]*grammar.Token)
	nts := f.section.NonTerminals()
	for changed := true; changed; {
		changed = false
		for _, nt := range nts {
			for _, r := range nt.Rules {
				for i, e := range r.Elements {
					if e.NonTerm == nil {
						continue
					}
					b := e.NonTerm
					suffix := FirstTokens(f.table.pathFrom(r.Elements, i+1))
					nullable := false
					for _, tok := range suffix {
						if tok == nil {
							nullable = true
							continue
						}
						if f.add(b, tok) {
							changed = true
						}
					}
					if nullable {
						for _, tok := range f.follow[nt] {
							if f.add(b, tok) {
								changed = true
							}
						}
					}
				}
			}
		}
	}
}

// add appends tok to FOLLOW(nt) unless an equal token is already present,
// reporting whether it changed the set.
func (f *FollowTable) add(nt *grammar.NonTerminal, tok *grammar.Token) bool {
	for _, existing := range f.follow[nt] {
		if existing.DeepEqual(*tok) {
			return false
		}
	}
	f.follow[nt] = append(f.follow[nt], tok)
	return true
}

// FirstTokens flattens a reach-set Node into the set of leading tokens
// reachable from it: for every path, its first element if that element
// is a leaf token; if the first element is itself a Set, recurse into
// its paths (this is how a nested non-terminal reference's reach
// contributes its own first tokens without re-walking the grammar).
// A nil *grammar.Token appearing in the result means "exit" is reachable
// (i.e. the sequence can end here), which callers fold into end-of-input
// handling.
func FirstTokens(set *Node) []*grammar.Token {
	seen := make(map[*Node]bool)
	var out []*grammar.Token
	var walkPath func(p *Node)
	var walkSet func(s *Node)

	walkSet = func(s *Node) {
		if seen[s] {
			return
		}
		seen[s] = true
		for _, p := range s.Paths {
			walkPath(p)
		}
	}
	walkPath = func(p *Node) {
		if len(p.Path) == 0 {
			return
		}
		head := p.Path[0]
		switch head.Kind {
		case KindElement:
			out = append(out, head.Token)
		case KindSet:
			walkSet(head)
		}
	}

	switch set.Kind {
	case KindSet:
		walkSet(set)
	case KindPath:
		walkPath(set)
	case KindElement:
		out = append(out, set.Token)
	}
	return out
}
