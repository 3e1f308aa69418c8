/*
Package codegen renders a finalized FSM (fsm.Result) plus a grammar
section into generated scanner/parser source, following an opaque
template punctuated by single-letter `$`-markers (spec.md §4.4 "Code
emitter (C9)").

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package codegen

import (
	"bytes"
	"fmt"
)

// Writer accumulates generated source text, in the same minimal style as
// the evmar-gen codegen.Writer this package is grounded on.
type Writer struct {
	bytes.Buffer
}

// Line emits a line of text.
func (w *Writer) Line(text string) {
	w.WriteString(text)
	w.WriteByte('\n')
}

// Linef emits a line of text via a fmt format string.
func (w *Writer) Linef(format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

// Raw returns the raw generated source.
func (w *Writer) Raw() []byte {
	return w.Bytes()
}

// Markers names the five template substitution points (spec.md §4.4).
type Markers struct {
	M0 string // base output name, supplied by the driver
	M1 string // the rendered per-state switch
	MT string // start non-terminal's first rule's first element return-type
	MR string // initial return expression
	ME string // epilogue (lexicon only)
}

// Expand scans template for `$` followed by one of 0/1/T/R/E and
// substitutes the corresponding Markers field; any other byte (including
// a lone trailing `$`) passes through unchanged, and `$$` escapes to a
// literal `$`.
func Expand(template []byte, m Markers) []byte {
	var out bytes.Buffer
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			out.WriteByte(c)
			continue
		}
		switch template[i+1] {
		case '0':
			out.WriteString(m.M0)
			i++
		case '1':
			out.WriteString(m.M1)
			i++
		case 'T':
			out.WriteString(m.MT)
			i++
		case 'R':
			out.WriteString(m.MR)
			i++
		case 'E':
			out.WriteString(m.ME)
			i++
		case '$':
			out.WriteByte('$')
			i++
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}
