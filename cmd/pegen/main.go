/*
Command pegen is a thin demonstration and self-test driver for the
parser-generator core. Given a grammar-description source file it
tokenizes it (package scanner), drives the grammar builder (package
grammar), finalizes and infers types, builds the item-set graph and FSM
tables for the LEXICON and GRAMMAR sections (packages itemset/fsm), and
either renders generated source from those tables (package codegen) or,
in interactive mode, classifies typed-in self-test input against the
lexicon's exports with a lexmachine-backed scanner (package
scanner/lexmach) and drives the grammar FSM over the result (fsm.Driver)
to report acceptance.

This driver is the "external parser" spec.md names only by the contract
it must satisfy; none of its flag handling, file I/O or REPL loop is
part of the generator core itself.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/tracing"

	"github.com/dvoss/pegen/codegen"
	"github.com/dvoss/pegen/diag"
	"github.com/dvoss/pegen/fsm"
	"github.com/dvoss/pegen/grammar"
	"github.com/dvoss/pegen/itemset"
	"github.com/dvoss/pegen/scanner"
	"github.com/dvoss/pegen/scanner/lexmach"
)

func tracer() tracing.Trace {
	return tracing.Select("pegen.cmd")
}

// defaultTemplate is a minimal stand-in target-language template: real
// projects supply their own via -t, this one only proves the marker
// substitution end to end.
const defaultTemplate = `/* generated by pegen for $0, do not edit */
void* scan_$0(int state, int symbol, int reduce, int nonterm, void** argv, int bp) {
	void* temp;
	int rule, shifted, code, release;
	int error = 0, shift = 0;
$1
	return $R;
}

$T scan_$0_epilogue(void* token) {
$E
}
`

func main() {
	dump := flag.Bool("d", false, "dump built FSM states")
	interactive := flag.Bool("i", false, "enter interactive self-test mode")
	out := flag.String("o", "", "write generated source to this base path (suffixes .lexicon.c/.grammar.c are appended)")
	tmplPath := flag.String("t", "", "template file (defaults to a minimal built-in template)")
	traceLevel := flag.String("trace", "Error", "trace level [Debug|Info|Error]")
	flag.Parse()

	tracer().SetTraceLevel(tracing.TraceLevelFromString(*traceLevel))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pegen [flags] <grammar-file>")
		os.Exit(1)
	}

	pl, err := buildPipeline(flag.Arg(0))
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	if pl.Sink.HasErrorOrWorse() {
		for _, r := range pl.Sink.Records {
			pterm.Error.Println(r.String())
		}
	}

	switch {
	case *dump:
		dumpPipeline(pl)
	case *interactive:
		runREPL(pl)
	default:
		template := []byte(defaultTemplate)
		if *tmplPath != "" {
			b, err := os.ReadFile(*tmplPath)
			if err != nil {
				pterm.Error.Println(err.Error())
				os.Exit(2)
			}
			template = b
		}
		if err := emitAll(pl, template, *out); err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(2)
		}
	}
	os.Exit(diag.ExitCode(pl.Sink))
}

// Pipeline is everything a grammar-description file is compiled into.
type Pipeline struct {
	Ctx      *grammar.Context
	LexStart *grammar.NonTerminal
	GramStart *grammar.NonTerminal
	LexIR    *itemset.Result
	GramIR   *itemset.Result
	LexFSM   *fsm.Result
	GramFSM  *fsm.Result
	Sink     *diag.Collector
}

func buildPipeline(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx := grammar.NewContext()
	sink := diag.NewCollector()
	tz := scanner.New(path, f, ctx.Pool)
	b := grammar.NewBuilder(ctx, sink)
	for {
		t := tz.Next()
		fatal := b.Feed(t)
		if t.Kind == grammar.End || fatal {
			break
		}
	}
	if b.Fatal() {
		return &Pipeline{Ctx: ctx, Sink: sink}, fmt.Errorf("grammar builder stopped with a fatal error")
	}

	pl := &Pipeline{Ctx: ctx, Sink: sink}
	pl.LexStart = grammar.FinalizeLexicon(ctx)
	pl.GramStart = grammar.FinalizeGrammar(ctx)
	if pl.GramStart != nil {
		grammar.InferTypes(ctx.Grammar, ctx.Pool, sink)
	}

	if pl.LexStart != nil {
		itemset.Resolve(ctx.Lexicon)
		pl.LexIR = itemset.NewBuilder(ctx.Lexicon, ctx.Pool, sink).Build(pl.LexStart)
		pl.LexFSM = fsm.NewBuilder(ctx.Lexicon, sink).Build(pl.LexIR)
	}
	if pl.GramStart != nil {
		itemset.Resolve(ctx.Grammar)
		pl.GramIR = itemset.NewBuilder(ctx.Grammar, ctx.Pool, sink).Build(pl.GramStart)
		pl.GramFSM = fsm.NewBuilder(ctx.Grammar, sink).Build(pl.GramIR)
	}
	return pl, nil
}

func emitAll(pl *Pipeline, template []byte, out string) error {
	em := codegen.NewEmitter(pl.Ctx.Lexicon, pl.Ctx.Arrays)
	if pl.LexFSM != nil {
		src := em.Emit(template, "lexicon", pl.LexFSM.States, pl.Ctx.Lexicon, pl.LexStart)
		if err := writeOrPrint(src, out, ".lexicon.c"); err != nil {
			return err
		}
	}
	if pl.GramFSM != nil {
		src := em.Emit(template, "grammar", pl.GramFSM.States, pl.Ctx.Grammar, pl.GramStart)
		if err := writeOrPrint(src, out, ".grammar.c"); err != nil {
			return err
		}
	}
	return nil
}

func writeOrPrint(src []byte, out, suffix string) error {
	if out == "" {
		os.Stdout.Write(src)
		return nil
	}
	return os.WriteFile(out+suffix, src, 0o644)
}

func dumpPipeline(pl *Pipeline) {
	dumpSection("lexicon", pl.LexIR, pl.LexFSM)
	dumpSection("grammar", pl.GramIR, pl.GramFSM)
}

func dumpSection(name string, ir *itemset.Result, res *fsm.Result) {
	if ir == nil || res == nil {
		return
	}
	var items pterm.LeveledList
	items = append(items, pterm.LeveledListItem{Level: 0, Text: name})
	for _, st := range res.States {
		items = append(items, pterm.LeveledListItem{Level: 1, Text: fmt.Sprintf("state %d", st.ID)})
		for _, g := range st.Gotos {
			items = append(items, pterm.LeveledListItem{Level: 2, Text: fmt.Sprintf("GOTO %s -> %d", g.NonTerm.Name.Value(), g.NextState)})
		}
		for _, sh := range st.Shifts {
			items = append(items, pterm.LeveledListItem{Level: 2, Text: fmt.Sprintf("SHIFT %q -> %d", sh.Token.Value.Value(), sh.NextState)})
		}
		for _, r := range st.Reduces {
			items = append(items, pterm.LeveledListItem{Level: 2, Text: fmt.Sprintf("REDUCE rule#%d (follow=%d)", r.Rule.ID, len(r.Follow))})
		}
	}
	root := pterm.NewTreeFromLeveledList(items)
	pterm.DefaultTree.WithRoot(root).Render()
}

// runREPL reads lines of raw self-test input, classifies them against
// the lexicon's exports with a lexmachine scanner, and drives the
// grammar FSM over the resulting terminals.
func runREPL(pl *Pipeline) {
	if pl.GramFSM == nil {
		pterm.Error.Println("no GRAMMAR section to self-test")
		return
	}
	adapter, err := lexmach.NewLMAdapter(pl.Ctx.Lexicon)
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	rl, err := readline.New("pegen> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	defer rl.Close()

	driver := fsm.NewDriver(pl.GramFSM.States, pl.Ctx.Lexicon)
	pterm.Info.Println("enter self-test input, quit with <ctrl>D")
	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		terms, err := classify(adapter, line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		ok, err := driver.Accept(terms)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if ok {
			pterm.Success.Println("accepted")
		} else {
			pterm.Warning.Println("rejected")
		}
	}
}

func classify(adapter *lexmach.LMAdapter, line string) ([]fsm.Terminal, error) {
	sc, err := adapter.Scanner(line)
	if err != nil {
		return nil, err
	}
	var terms []fsm.Terminal
	for {
		tok, err := sc.Next()
		if err != nil {
			return nil, err
		}
		if tok.ID == -1 {
			return terms, nil
		}
		terms = append(terms, fsm.Terminal{ID: tok.ID, Text: tok.Name})
	}
}
