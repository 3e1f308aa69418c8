package codegen

import (
	"fmt"

	"github.com/dvoss/pegen/charset"
	"github.com/dvoss/pegen/fsm"
	"github.com/dvoss/pegen/grammar"
)

// Emitter renders a finalized FSM section into the per-state switch and
// lexicon epilogue described in spec.md §4.4, grounded closely on
// original_source/src/gen/Cpp.h's GeneratorCpp (the only concrete
// generator implementation in the retrieval pack).
type Emitter struct {
	Lexicon *grammar.Section
	Arrays  *grammar.Section
}

// NewEmitter creates an Emitter that resolves export ids against lexicon
// and walks arrays for epilogue reclassification.
func NewEmitter(lexicon, arrays *grammar.Section) *Emitter {
	return &Emitter{Lexicon: lexicon, Arrays: arrays}
}

// exportID mirrors Generator::getExportId: END maps to -1, everything
// else is looked up in the lexicon section's export list.
func (em *Emitter) exportID(tok grammar.Token) int {
	if tok.Kind == grammar.End {
		return -1
	}
	if id, ok := em.Lexicon.ExportID(tok.Value.Value()); ok {
		return id
	}
	return -1
}

func isNullReturnType(nt *grammar.NonTerminal) bool {
	return nt.HasReturnType() && nt.ReturnType.Value() == "null"
}

// writeCondition renders a lookahead disjunction over follow, the way
// writeCondition in Cpp.h does: an nvalue-qualified token compares both
// export id and literal text, a plain token compares only the symbol id.
func (em *Emitter) writeCondition(w *Writer, follow []*grammar.Token) {
	first := true
	for _, tok := range follow {
		if tok == nil {
			continue
		}
		if !first {
			w.Line(" || ")
		}
		first = false
		if tok.NValue != nil {
			fmt.Fprintf(w, "token.equals(%d, %q)", em.exportID(*tok), tok.NValue.Value.Value())
		} else {
			fmt.Fprintf(w, "symbol == %d", em.exportID(*tok))
		}
	}
}

// writeReduction renders one REDUCE action's body: the bookkeeping
// assignments common to both sections, then (GRAMMAR only) the rewritten
// action expression, its cleanup for unused non-primitive slots, and the
// argv push (spec.md §4.4 "Conditional REDUCEs").
func (em *Emitter) writeReduction(w *Writer, r fsm.Reduce, section *grammar.Section) {
	rule := r.Rule
	nt := rule.NonTerm
	fmt.Fprintf(w, "nonterm = %d; release = %d; reduce = %d;", nt.ID, rule.Len(), int(rule.Visibility)+1)
	if rule.Visibility == grammar.VisPublic && len(rule.Elements) > 0 {
		fmt.Fprintf(w, " code = %d;", em.exportID(rule.Elements[0]))
	}
	if section.Kind == grammar.Lexicon {
		return
	}

	nullRet := isNullReturnType(nt)
	fmt.Fprintf(w, " rule = %d; shifted = %d;\n", rule.ID, rule.Len())

	rewritten := RewriteAction(rule.Action, rule)
	if !nullRet {
		w.Line("temp = (void*)(")
	}
	w.Line(rewritten.Body)
	if !nullRet {
		w.Line(");")
	} else {
		w.Line(";")
	}
	for _, idx := range rewritten.Unused {
		fmt.Fprintf(w, "if (argv[bp-%d]) release(argv[bp-%d]);\n", rule.Len()-idx, rule.Len()-idx)
	}
	if nullRet {
		w.Line("argv[bp-shifted] = null;")
	} else {
		w.Line("argv[bp-shifted] = temp;")
	}
}

// GenerateStates renders the switch(state) { case N: ... } body for
// states in section, following Cpp.h's generate(states, section) shape:
// GOTO actions first, then conditional REDUCEs, then the SHIFT block,
// then the default reduction.
func (em *Emitter) GenerateStates(w *Writer, states []*fsm.State, section *grammar.Section) {
	w.Line("switch (state) {")
	for _, st := range states {
		fmt.Fprintf(w, "case %d:\n", st.ID)

		if len(st.Gotos) > 0 {
			w.Line("if (reduce) {")
			w.Line("switch (nonterm) {")
			for _, g := range st.Gotos {
				fmt.Fprintf(w, "case %d: state = %d; break;\n", g.NonTerm.ID, g.NextState)
			}
			w.Line("}")
			w.Line("reduce = 0;")
			w.Line("break;")
			w.Line("}")
		}

		var defaultReduce *fsm.Reduce
		if section.Kind != grammar.Lexicon {
			for i := range st.Reduces {
				r := st.Reduces[i]
				if r.Follow == nil {
					defaultReduce = &st.Reduces[i]
					continue
				}
				w.Line("if (")
				em.writeCondition(w, r.Follow)
				w.Line(") {")
				em.writeReduction(w, r, section)
				w.Line("break;")
				w.Line("}")
			}
		}

		if len(st.Shifts) > 0 {
			w.Line("switch (symbol) {")
			switch section.Kind {
			case grammar.Lexicon:
				em.emitLexiconShifts(w, st)
			default:
				em.emitGrammarShifts(w, st)
			}
			w.Line("}")
		}

		if defaultReduce == nil && section.Kind == grammar.Lexicon && len(st.Reduces) > 0 {
			defaultReduce = &st.Reduces[0]
		}
		if defaultReduce != nil {
			if len(st.Shifts) > 0 {
				w.Line("if (shift) break;")
			}
			em.writeReduction(w, *defaultReduce, section)
		} else if len(st.Shifts) > 0 {
			w.Line("if (!shift) error = 1;")
		}
		w.Line("break;")
	}
	w.Line("}")
}

// emitLexiconShifts emits one `case BYTE:` per member of each shift's
// focused charset (the charset text installed by the item-set builder's
// factorization pass), grouping shifts that already share a successor.
func (em *Emitter) emitLexiconShifts(w *Writer, st *fsm.State) {
	done := make(map[int]bool)
	for _, sh := range st.Shifts {
		if done[sh.NextState] {
			continue
		}
		done[sh.NextState] = true
		for _, alt := range st.Shifts {
			if alt.NextState != sh.NextState {
				continue
			}
			if alt.Token.Kind == grammar.End {
				w.Line("case -1:")
			} else {
				cs, err := charset.Parse(alt.Token.Value.Value())
				if err == nil {
					for b := 0; b < 256; b++ {
						if cs.Contains(byte(b)) {
							fmt.Fprintf(w, "case %d: ", b)
						}
					}
				}
			}
		}
		fmt.Fprintf(w, "state = %d; shift = 1; break;\n", sh.NextState)
	}
}

// emitGrammarShifts emits one `case EXPORT_ID:` per distinct focused
// symbol, guarding nvalue-qualified alternatives with an inner equality
// check on the token's literal text (spec.md §4.4 "GRAMMAR" shift block).
func (em *Emitter) emitGrammarShifts(w *Writer, st *fsm.State) {
	seen := make(map[int]bool)
	for _, sh := range st.Shifts {
		if sh.Token.Kind == grammar.End {
			fmt.Fprintf(w, "case -1: state = %d; shift = 1; break;\n", sh.NextState)
			continue
		}
		id := em.exportID(sh.Token)
		if seen[id] {
			continue
		}
		seen[id] = true
		fmt.Fprintf(w, "case %d:\n", id)
		for _, alt := range st.Shifts {
			if em.exportID(alt.Token) != id {
				continue
			}
			if alt.Token.NValue != nil {
				fmt.Fprintf(w, "if (token.equals(%q)) { state = %d; shift = 1; break; }\n",
					alt.Token.NValue.Value.Value(), alt.NextState)
			} else {
				fmt.Fprintf(w, "state = %d; shift = 1;\n", alt.NextState)
			}
		}
		w.Line("break;")
	}
}

// Epilogue renders the $E marker's expansion (lexicon only): a table
// that reclassifies a just-shifted token to an array's export id when
// the token's backing non-terminal matches and its text equals one of
// the array's literal keywords (spec.md §4.4 "Epilogue").
func (em *Emitter) Epilogue(w *Writer) {
	if em.Arrays == nil {
		return
	}
	for _, arrName := range em.Arrays.Names() {
		nt := em.Arrays.Lookup(arrName)
		backing := em.Arrays.ArrayBacking[arrName]
		backingNT := em.Lexicon.Lookup(backing)
		if backingNT == nil || len(nt.Rules) == 0 {
			continue
		}
		backingID, _ := em.Lexicon.ExportID(backing)
		arrID, _ := em.Lexicon.ExportID(arrName)

		fmt.Fprintf(w, "if (token.type == %d) {\n", backingID)
		for _, kw := range nt.Rules[0].Elements {
			fmt.Fprintf(w, "if (token.equals(%q)) { return token.setType(%d); }\n", kw.Value.Value(), arrID)
		}
		w.Line("}")
	}
	w.Line("return token;")
}

// Emit renders the full marker-substituted template for one section.
func (em *Emitter) Emit(template []byte, outputName string, states []*fsm.State, section *grammar.Section, start *grammar.NonTerminal) []byte {
	var stateW, epW Writer
	em.GenerateStates(&stateW, states, section)

	startType := GenericPointerType
	if len(start.Rules) > 0 && len(start.Rules[0].Elements) > 0 {
		if nt := start.Rules[0].Elements[0].NonTerm; nt != nil && nt.HasReturnType() {
			if t := nt.ReturnType.Value(); t != "" && t != "null" {
				startType = t
			}
		}
	}
	startReturn := fmt.Sprintf("(%s)argv[0]", startType)
	if startType == "null" {
		startReturn = "null"
	}

	if section.Kind == grammar.Lexicon {
		em.Epilogue(&epW)
	}

	return Expand(template, Markers{
		M0: outputName,
		M1: string(stateW.Raw()),
		MT: startType,
		MR: startReturn,
		ME: string(epW.Raw()),
	})
}
