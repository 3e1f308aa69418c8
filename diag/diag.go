/*
Package diag implements structured diagnostics for the parser-generator
core: four-digit codes, severity, originating stage, a printf-style
message and an optional source position (per spec.md §7).

Builders push records into a Sink rather than printing directly, so the
"report all conflicts/errors in one run" behavior is preserved without
coupling the core to standard output (see the Design Notes' "Error
surfacing" suggestion).

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package diag

import (
	"fmt"

	"github.com/dvoss/pegen"
)

// Severity buckets a Code's first digit: 1-4 warning, 5-7 error, 8-9 fatal.
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Stage identifies which of the four processing stages raised a record:
// 1 load, 2 scanner, 3 parser, 4 generator.
type Stage int

const (
	StageLoad Stage = iota + 1
	StageScanner
	StageParser
	StageGenerator
)

// Code is a four-digit diagnostic code: first digit gravity, second digit
// stage, remaining two digits a sequence number within (gravity, stage).
type Code int

// Severity derives a Code's severity from its leading digit.
func (c Code) Severity() Severity {
	lead := int(c) / 1000
	switch {
	case lead >= 1 && lead <= 4:
		return Warning
	case lead >= 5 && lead <= 7:
		return Error
	default:
		return Fatal
	}
}

// Stage derives a Code's stage from its second digit.
func (c Code) Stage() Stage {
	return Stage((int(c) / 100) % 10)
}

// Known diagnostic codes, numbered per original_source/src/psxt/ErrorDefs.h
// and spec.md §7's taxonomy.
const (
	// Lexical/structural (stage 3, fatal).
	ErrUnexpectedEOF     Code = 8301
	ErrExpectedBracket   Code = 8302
	ErrExpectedParen     Code = 8303
	ErrExpectedColon     Code = 8304
	ErrExpectedSemicolon Code = 8305
	ErrUnexpectedElement Code = 8306
	ErrInvalidSection    Code = 8307

	// Semantic (stage 3, warning).
	WarnInvalidSelfRecursion Code = 1301
	WarnRequiredOnExported   Code = 1302
	WarnValueNotAllowed      Code = 1303
	WarnInferFailed          Code = 1304
	WarnInconsistentType     Code = 1305

	// Binding (stage 4, fatal).
	ErrUndefNonterm Code = 8401

	// Conflict (stage 4, fatal).
	ErrShiftReduce  Code = 8403
	ErrReduceReduce Code = 8404
)

// Record is one diagnostic occurrence.
type Record struct {
	Code    Code
	Pos     pegen.Pos
	Message string
}

func (r Record) String() string {
	if r.Pos.IsZero() {
		return fmt.Sprintf("[%d] %s: %s", r.Code, r.Code.Severity(), r.Message)
	}
	return fmt.Sprintf("%s: [%d] %s: %s", r.Pos, r.Code, r.Code.Severity(), r.Message)
}

// Sink receives diagnostic records as they are produced. Builders take a
// Sink rather than writing to stdout; the driver aggregates and prints.
type Sink interface {
	Report(Record)
}

// Collector is a Sink that simply accumulates every record it receives,
// in order. It is the default Sink used by tests and by callers that
// just want the final list.
type Collector struct {
	Records []Record
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Sink.
func (c *Collector) Report(r Record) {
	c.Records = append(c.Records, r)
}

// HasFatal reports whether any collected record is Fatal severity.
func (c *Collector) HasFatal() bool {
	for _, r := range c.Records {
		if r.Code.Severity() == Fatal {
			return true
		}
	}
	return false
}

// HasErrorOrWorse reports whether any collected record is Error or Fatal.
func (c *Collector) HasErrorOrWorse() bool {
	for _, r := range c.Records {
		if sev := r.Code.Severity(); sev == Error || sev == Fatal {
			return true
		}
	}
	return false
}

// Push is a convenience helper: format a message and report it against a
// code and position in one call.
func Push(sink Sink, code Code, pos pegen.Pos, format string, args ...interface{}) {
	if sink == nil {
		return
	}
	sink.Report(Record{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// ExitCode maps the worst severity seen in records to the process exit
// codes named in spec.md §6: 0 success, 2 semantic/grammar error. Usage
// errors (exit 1) are the driver's responsibility, not this package's.
func ExitCode(c *Collector) int {
	if c.HasErrorOrWorse() {
		return 2
	}
	return 0
}
