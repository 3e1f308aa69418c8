/*
Package pegen is a parser-generator core: given an in-memory grammar model
(lexicon, grammar and keyword-array sections), it builds a deterministic
pushdown automaton and renders its transition table through a
language-specific template.

Package structure is as follows:

■ strpool: content-addressed, ref-counted string interning, shared by every
other package so that token and symbol values can be compared by identity.

■ charset: a bitmap over the byte alphabet (0..=255), with pattern parsing
(ranges, escapes, negation, "any") and set algebra, used to recognize and
factorize lexicon literals.

■ grammar: the in-memory grammar model (tokens, production rules,
non-terminals, sections) and the builder that populates it from a token
stream, including return-type inference and the synthetic start symbols.

■ itemset: augmented LR-style item sets built from a grammar — closure,
goto transitions, deduplication by canonical signature, and charset
factorization of overlapping lexicon literals.

■ reach: a lazy, memoized graph of which terminals a non-terminal can
produce first, and the FOLLOW-sets built on it that serve as lookahead
for the FSM builder's conflict detection. Reach-sets for item-set
positions are not built.

■ fsm: reduces the item-set graph to a table of numbered states with
SHIFT/GOTO/REDUCE/JUMP actions, detecting shift/reduce and reduce/reduce
conflicts.

■ codegen: renders a list of FSM states into a language template by
substituting single-letter `$`-markers and rewriting semantic-action
text.

■ diag: structured diagnostics (four-digit codes, severity, source
position) pushed into a sink rather than printed directly.

■ scanner: a stdlib-backed tokenizer for grammar-description source files
(feeding grammar.Builder.Feed) plus a lexmachine-backed adapter
(scanner/lexmach) that classifies self-test input against a lexicon's
exports for cmd/pegen's interactive mode.

The language-specific output templates and the decision of what a
generated scanner/parser does with the emitted tables are external
collaborators and stay out of scope beyond the thin demonstration driver
in cmd/pegen, which wires every package above into a runnable pipeline.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

*/
package pegen
