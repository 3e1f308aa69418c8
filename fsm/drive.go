package fsm

import (
	"fmt"

	"github.com/dvoss/pegen/grammar"
)

// Terminal is one scanned input symbol fed to a Driver: a lexicon
// export id (or -1 at end of input) plus the literal text matched, so
// nvalue-qualified shifts/reduces can be checked.
type Terminal struct {
	ID   int
	Text string
}

// Driver walks a compiled state list the way a generated switch(state)
// loop would, without generating or compiling target-language code.
// It exists to self-test a built FSM end to end (spec.md §8's worked
// examples) and to back the demonstration CLI's interactive mode.
// Grounded on this module's teacher's SLR(1) parser loop
// (stack-of-(state,symbol) pairs, shift/reduce/goto dispatch) adapted
// from sparse ACTION/GOTO matrices to fsm.State's action lists.
type Driver struct {
	states  []*State
	lexicon *grammar.Section
	byID    map[int]*State
	stack   []frame
}

type frame struct {
	stateID int
	symID   int
}

// NewDriver creates a Driver over states, resolving SHIFT/REDUCE
// follow checks against lexicon's export ids.
func NewDriver(states []*State, lexicon *grammar.Section) *Driver {
	byID := make(map[int]*State, len(states))
	for _, s := range states {
		byID[s.ID] = s
	}
	return &Driver{states: states, lexicon: lexicon, byID: byID}
}

func (d *Driver) exportID(tok grammar.Token) int {
	if tok.Kind == grammar.End {
		return -1
	}
	if id, ok := d.lexicon.ExportID(tok.Value.Value()); ok {
		return id
	}
	return -1
}

// Accept drives the FSM from state 0 over a stream of Terminals
// (callers typically obtain these from scanner/lexmach), returning
// whether the input reduces to the start symbol.
func (d *Driver) Accept(input []Terminal) (bool, error) {
	d.stack = []frame{{stateID: 0}}
	pos := 0
	next := func() Terminal {
		if pos >= len(input) {
			return Terminal{ID: -1}
		}
		return input[pos]
	}
	tok := next()
loop:
	for {
		top := d.stack[len(d.stack)-1]
		st := d.byID[top.stateID]
		if st == nil {
			return false, fmt.Errorf("drive: no such state %d", top.stateID)
		}
		if r, ok := d.reduceFor(st, tok); ok {
			if r.Rule.NonTerm.ID == grammar.StartNonTermID && tok.ID == -1 {
				return true, nil
			}
			d.reduce(r)
			continue
		}
		if sh, ok := d.shiftFor(st, tok); ok {
			d.stack = append(d.stack, frame{stateID: sh.NextState, symID: tok.ID})
			pos++
			tok = next()
			continue
		}
		for _, r := range st.Reduces {
			if r.Follow == nil {
				if r.Rule.NonTerm.ID == grammar.StartNonTermID && tok.ID == -1 {
					return true, nil
				}
				d.reduce(r)
				continue loop
			}
		}
		return false, fmt.Errorf("drive: no action for token %q (id %d) in state %d", tok.Text, tok.ID, top.stateID)
	}
}

func (d *Driver) reduceFor(st *State, tok Terminal) (Reduce, bool) {
	for _, r := range st.Reduces {
		if r.Follow == nil {
			continue
		}
		for _, f := range r.Follow {
			if f == nil {
				continue
			}
			if d.exportID(*f) != tok.ID {
				continue
			}
			if f.NValue != nil && f.NValue.Value.Value() != tok.Text {
				continue
			}
			return r, true
		}
	}
	return Reduce{}, false
}

func (d *Driver) shiftFor(st *State, tok Terminal) (Shift, bool) {
	for _, sh := range st.Shifts {
		if d.exportID(sh.Token) != tok.ID {
			continue
		}
		if sh.Token.NValue != nil && sh.Token.NValue.Value.Value() != tok.Text {
			continue
		}
		return sh, true
	}
	return Shift{}, false
}

// reduce pops rule.Len() frames, then follows the exposed state's
// GOTO for the rule's non-terminal.
func (d *Driver) reduce(r Reduce) {
	n := r.Rule.Len()
	d.stack = d.stack[:len(d.stack)-n]
	top := d.stack[len(d.stack)-1]
	nextState := top.stateID
	if st := d.byID[top.stateID]; st != nil {
		for _, g := range st.Gotos {
			if g.NonTerm == r.Rule.NonTerm {
				nextState = g.NextState
				break
			}
		}
	}
	d.stack = append(d.stack, frame{stateID: nextState, symID: r.Rule.NonTerm.ID})
}
