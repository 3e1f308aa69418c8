/*
Package grammar is the in-memory grammar model: tokens, production rules,
non-terminals, sections and exports (spec.md §3), plus the builder that
populates the model from a token stream (spec.md §4.1).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package grammar

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen"
	"github.com/dvoss/pegen/strpool"
)

// tracer traces with key 'pegen.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("pegen.grammar")
}

// Kind categorizes a lexical fragment, per spec.md §3.
type Kind int

const (
	Identifier Kind = iota
	Number
	SQString
	DQString
	Symbol
	NValueKind
	Block
	End
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "IDENTIFIER"
	case Number:
		return "NUMBER"
	case SQString:
		return "SQSTRING"
	case DQString:
		return "DQSTRING"
	case Symbol:
		return "SYMBOL"
	case NValueKind:
		return "NVALUE"
	case Block:
		return "BLOCK"
	case End:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical fragment: an interned value, a kind, a source
// position, an optional nvalue qualifying it further, and an optional
// resolved non-terminal back-pointer (set once the element has been
// matched against a section's non-terminals).
type Token struct {
	Value   strpool.Str
	Kind    Kind
	Pos     pegen.Pos
	NValue  *Token
	NonTerm *NonTerminal
}

// Equal reports whether t and other have the same kind and value.
func (t Token) Equal(other Token) bool {
	return t.Kind == other.Kind && t.Value == other.Value
}

// DeepEqual reports whether t and other are Equal and additionally have
// matching nvalues (both absent, or both present and themselves equal).
func (t Token) DeepEqual(other Token) bool {
	if !t.Equal(other) {
		return false
	}
	if (t.NValue == nil) != (other.NValue == nil) {
		return false
	}
	if t.NValue == nil {
		return true
	}
	return t.NValue.Equal(*other.NValue)
}

// IsLiteral reports whether t is a quoted literal (the kind factorization
// and charset parsing operate on).
func (t Token) IsLiteral() bool {
	return t.Kind == SQString || t.Kind == DQString
}

// Visibility is a production rule's export tag.
type Visibility int

const (
	VisDefault Visibility = iota
	VisPublic
	VisPrivate
)

// Assoc is a reserved (not currently inferred) associativity tag.
type Assoc int

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)

// Rule is a production rule: an ordered element sequence plus visibility,
// precedence/associativity (reserved) and an opaque action string.
type Rule struct {
	ID         int
	NonTerm    *NonTerminal
	Visibility Visibility
	Precedence int
	Assoc      Assoc
	Elements   []Token
	Action     string
}

// Len returns the number of elements in the rule. Nvalues fold into their
// preceding element and are not counted.
func (r *Rule) Len() int {
	return len(r.Elements)
}

// sameElements reports whether two element sequences are structurally
// equal (deep-equal element by element).
func sameElements(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].DeepEqual(b[i]) {
			return false
		}
	}
	return true
}

// NonTerminal is a named grammar symbol defined by one or more production
// rules.
type NonTerminal struct {
	ID         int
	Name       strpool.Str
	ReturnType strpool.Str // zero value: no declared return type
	Rules      []*Rule
}

// HasReturnType reports whether nt has a declared (non-inferred, or
// already-inferred) return type.
func (nt *NonTerminal) HasReturnType() bool {
	return !nt.ReturnType.IsZero()
}

// AddRule appends r to nt, assigning it an id, unless a structurally
// equal rule (same element sequence) is already present, in which case
// the existing rule is returned and r is discarded (spec.md §3:
// "Rules with structurally equal element sequences are deduplicated at
// insertion").
func (nt *NonTerminal) AddRule(elements []Token, action string) *Rule {
	for _, existing := range nt.Rules {
		if sameElements(existing.Elements, elements) {
			return existing
		}
	}
	r := &Rule{
		ID:       len(nt.Rules),
		NonTerm:  nt,
		Elements: elements,
		Action:   action,
	}
	nt.Rules = append(nt.Rules, r)
	return r
}

// SectionKind is one of the three grammar-file section kinds.
type SectionKind int

const (
	Lexicon SectionKind = iota
	GrammarSec
	Arrays
)

func (k SectionKind) String() string {
	switch k {
	case Lexicon:
		return "lexicon"
	case GrammarSec:
		return "grammar"
	case Arrays:
		return "arrays"
	default:
		return "unknown"
	}
}

// Export pairs an exported name with the rule that introduced it, in
// export order.
type Export struct {
	Name string
	Rule *Rule
}

// StartNonTermID is the id reserved for a section's synthetic __start__
// non-terminal.
const StartNonTermID = 0

// Section owns an ordered mapping from name to non-terminal and an
// ordered export list.
type Section struct {
	Kind       SectionKind
	nonterms   *linkedhashmap.Map // string -> *NonTerminal, insertion order
	nextID     int                // per-section id counter, starting at 1 (0 reserved)
	Exports    []Export           // declaration order
	exportSeen map[string]bool

	// ArrayBacking maps an ARRAYS-section non-terminal's name to the name
	// of the lexicon non-terminal it reclassifies. Only meaningful when
	// Kind == Arrays.
	ArrayBacking map[string]string
}

// NewSection creates an empty section of the given kind.
func NewSection(kind SectionKind) *Section {
	return &Section{
		Kind:         kind,
		nonterms:     linkedhashmap.New(),
		nextID:       1,
		exportSeen:   make(map[string]bool),
		ArrayBacking: make(map[string]string),
	}
}

// Lookup returns the non-terminal named name, or nil if none exists.
func (s *Section) Lookup(name string) *NonTerminal {
	v, found := s.nonterms.Get(name)
	if !found {
		return nil
	}
	return v.(*NonTerminal)
}

// Intern returns the non-terminal named name, creating it (with a fresh
// id from the section's counter) if it does not already exist.
func (s *Section) Intern(name string, nameStr strpool.Str) *NonTerminal {
	if nt := s.Lookup(name); nt != nil {
		return nt
	}
	nt := &NonTerminal{ID: s.nextID, Name: nameStr}
	s.nextID++
	s.nonterms.Put(name, nt)
	tracer().Debugf("%s: interned non-terminal %q as id %d", s.Kind, name, nt.ID)
	return nt
}

// InstallSynthetic installs nt under name with the id nt already carries,
// without drawing from the regular counter (used for the synthetic
// __start__ non-terminals, which carry the reserved id 0).
func (s *Section) InstallSynthetic(name string, nt *NonTerminal) {
	s.nonterms.Put(name, nt)
}

// Names returns section non-terminal names in declaration order.
func (s *Section) Names() []string {
	keys := s.nonterms.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.(string)
	}
	return out
}

// NonTerminals returns the section's non-terminals in declaration order.
func (s *Section) NonTerminals() []*NonTerminal {
	names := s.Names()
	out := make([]*NonTerminal, len(names))
	for i, n := range names {
		out[i] = s.Lookup(n)
	}
	return out
}

// AddExport appends (name, rule) to the section's export list in
// declaration order, once per name.
func (s *Section) AddExport(name string, rule *Rule) {
	if s.exportSeen[name] {
		return
	}
	s.exportSeen[name] = true
	s.Exports = append(s.Exports, Export{Name: name, Rule: rule})
}

// ExportID returns the numeric id for an exported symbol, numbered
// starting at 256 in declaration order (spec.md §4.4 "Export numbering").
// The second return value is false if name was never exported.
func (s *Section) ExportID(name string) (int, bool) {
	for i, e := range s.Exports {
		if e.Name == name {
			return 256 + i, true
		}
	}
	return 0, false
}

// Context is the process-wide object owning all sections and the shared
// string pool.
type Context struct {
	Pool    *strpool.Pool
	Lexicon *Section
	Grammar *Section
	Arrays  *Section
}

// NewContext creates an empty grammar context with fresh sections and a
// fresh string pool.
func NewContext() *Context {
	return &Context{
		Pool:    strpool.New(),
		Lexicon: NewSection(Lexicon),
		Grammar: NewSection(GrammarSec),
		Arrays:  NewSection(Arrays),
	}
}

// Section returns the Context's section for kind.
func (c *Context) Section(kind SectionKind) *Section {
	switch kind {
	case Lexicon:
		return c.Lexicon
	case GrammarSec:
		return c.Grammar
	case Arrays:
		return c.Arrays
	default:
		return nil
	}
}
