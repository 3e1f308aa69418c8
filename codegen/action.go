package codegen

import (
	"fmt"
	"strings"

	"github.com/dvoss/pegen/grammar"
)

// GenericPointerType is the default static type assigned to an element
// with no declared non-terminal return-type (spec.md §4.4 "Action
// rewriting": "defaulting to the generic pointer").
const GenericPointerType = "void*"

// isNullType reports whether a declared type name denotes "no value",
// per original_source/Generator.h's isNull.
func isNullType(s string) bool {
	switch s {
	case "null", "nullptr", "NULL", "":
		return true
	default:
		return false
	}
}

// isPrimitiveType reports whether a declared type name is one of the
// pointer-free primitive kinds that need no cleanup when left unused
// (spec.md §4.4 "slots whose static type is one of the primitive
// pointer-free kinds ... are skipped"), per original_source's isConstPtr
// (named for a pre-existing quirk in the source: it conflates "no
// cleanup needed" with "constant-sized primitive").
func isPrimitiveType(s string) bool {
	switch s {
	case "null", "nullptr", "char", "short", "int", "long", "float", "double":
		return true
	default:
		return false
	}
}

// elementType returns the static type text for rule's element at index i:
// its resolved non-terminal's declared return-type if present, else
// GenericPointerType.
func elementType(rule *grammar.Rule, i int) string {
	if i < 0 || i >= len(rule.Elements) {
		return GenericPointerType
	}
	e := rule.Elements[i]
	if e.NonTerm != nil && e.NonTerm.HasReturnType() {
		t := e.NonTerm.ReturnType.Value()
		if t != "" {
			return t
		}
	}
	return GenericPointerType
}

// RewriteResult is the outcome of rewriting one rule's action text.
type RewriteResult struct {
	Body   string
	Unused []int // element indices left unconsumed (eligible for cleanup)
}

// RewriteAction scans action for `$k` and `$$k` markers and replaces
// them with an argv-slot expression cast to the referenced element's
// static type, per spec.md §4.4 "Action rewriting" and §9's directive to
// keep it "a pure function from (action text, rule, section) to
// (rendered body, set of unused-slot indices)".
//
// `$k` marks slot k as consumed (removed from the returned Unused set);
// `$$k` expands identically but leaves the slot in Unused regardless.
func RewriteAction(action string, rule *grammar.Rule) RewriteResult {
	max := rule.Len()
	unused := make(map[int]bool, max)
	for i := 0; i < max; i++ {
		unused[i] = true
	}

	var out strings.Builder
	runes := []byte(action)
	i := 0
	for i < len(runes) {
		c := runes[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		doubled := false
		j := i + 1
		if j < len(runes) && runes[j] == '$' {
			doubled = true
			j++
		}
		start := j
		for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
			j++
		}
		if j == start {
			// Not a marker (lone '$' or "$$" not followed by digits):
			// pass through verbatim.
			out.WriteByte(c)
			i++
			continue
		}
		var k int
		fmt.Sscanf(string(runes[start:j]), "%d", &k)
		if k >= 0 && k < max {
			t := elementType(rule, k)
			if isNullType(t) {
				fmt.Fprintf(&out, "argv[bp-%d]", max-k)
			} else {
				fmt.Fprintf(&out, "((%s)argv[bp-%d])", t, max-k)
			}
			if !doubled {
				delete(unused, k)
			}
		}
		i = j
	}

	var unusedList []int
	for idx := 0; idx < max; idx++ {
		if unused[idx] && !isPrimitiveType(elementType(rule, idx)) {
			unusedList = append(unusedList, idx)
		}
	}
	return RewriteResult{Body: out.String(), Unused: unusedList}
}
