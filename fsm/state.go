/*
Package fsm compiles an item-set graph (itemset.Result) into a list of
FsmStates, the shift/goto/reduce action tables the code emitter walks
(spec.md §3 "FsmState", §4.3 "FSM compiler (C8)").

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fsm

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.fsm")
}

// Shift is a SHIFT(token, next_state, rule) action.
type Shift struct {
	Token     grammar.Token
	NextState int
	Rule      *grammar.Rule
}

// Goto is a GOTO(non_terminal, next_state) action, taken after a
// reduction exposes non-terminal at the top of the stack.
type Goto struct {
	NonTerm   *grammar.NonTerminal
	NextState int
}

// Reduce is a REDUCE(rule, follow_set) action. Follow is nil for the
// unconditional "single reduction, no shifts" case (spec.md §4.3).
type Reduce struct {
	Rule   *grammar.Rule
	Follow []*grammar.Token
}

// Jump is a JUMP(token, next_state) action: reserved for the emitter,
// never populated by this builder (spec.md §3).
type Jump struct {
	Token     grammar.Token
	NextState int
}

// State is one compiled FSM state, sharing its id with the item-set it
// was built from.
type State struct {
	ID      int
	Shifts  []Shift
	Gotos   []Goto
	Reduces []Reduce
	Jumps   []Jump
}

func newState(id int) *State {
	return &State{ID: id}
}

func (s *State) addShift(tok grammar.Token, next int, rule *grammar.Rule) {
	for _, existing := range s.Shifts {
		if existing.Token.DeepEqual(tok) {
			return
		}
	}
	s.Shifts = append(s.Shifts, Shift{Token: tok, NextState: next, Rule: rule})
}

func (s *State) addGoto(nt *grammar.NonTerminal, next int) {
	for _, existing := range s.Gotos {
		if existing.NextState == next {
			return
		}
	}
	s.Gotos = append(s.Gotos, Goto{NonTerm: nt, NextState: next})
}

// Dump is a debugging helper.
func (s *State) Dump() {
	tracer().Debugf("--- fsm state %03d ---", s.ID)
	for _, g := range s.Gotos {
		tracer().Debugf("  GOTO %s -> %d", g.NonTerm.Name.Value(), g.NextState)
	}
	for _, sh := range s.Shifts {
		tracer().Debugf("  SHIFT %s -> %d", sh.Token.Value.Value(), sh.NextState)
	}
	for _, r := range s.Reduces {
		tracer().Debugf("  REDUCE rule#%d (follow=%d)", r.Rule.ID, len(r.Follow))
	}
}
