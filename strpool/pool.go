/*
Package strpool implements content-addressed, reference-counted string
interning. Every distinct byte sequence exists at most once per pool;
clients receive a *Str handle and compare handles by identity rather than
by value.

Usage

	pool := strpool.New()
	a := pool.Alloc("word")
	b := pool.Alloc("word")
	a == b          // true: same record
	pool.Free(a)
	pool.Free(b)    // refcount reaches zero, record is removed

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package strpool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cnf/structhash"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pegen.strpool'.
func tracer() tracing.Trace {
	return tracing.Select("pegen.strpool")
}

// Str is a handle to an interned string record. The zero value is not a
// valid handle; obtain one via Pool.Alloc.
//
// Two handles are equal (in the Go `==` sense) iff they were allocated
// for byte-identical content from the same pool: the pool never creates
// two records for the same bytes, so identity comparison also implements
// value comparison.
type Str struct {
	rec *record
}

type record struct {
	key   string
	value string
	count int
}

// bucket holds every record sharing a hash key, in allocation order.
// Ordinarily exactly one record, but a structhash collision between two
// distinct values pushes a second record into the same bucket rather than
// silently aliasing them.
type bucket []*record

func (b bucket) find(value string) *record {
	for _, r := range b {
		if r.value == value {
			return r
		}
	}
	return nil
}

// Value returns the interned bytes.
func (s Str) Value() string {
	if s.rec == nil {
		return ""
	}
	return s.rec.value
}

// IsZero reports whether s is the zero handle (no record backing it).
func (s Str) IsZero() bool {
	return s.rec == nil
}

// String implements fmt.Stringer.
func (s Str) String() string {
	return s.Value()
}

// Less orders two handles by their underlying bytes. Used to make
// signatures and dumps deterministic.
func (s Str) Less(other Str) bool {
	return s.Value() < other.Value()
}

// Pool is a content-addressed string pool. The zero value is not usable;
// create one with New.
type Pool struct {
	mu      sync.Mutex
	records map[string]bucket
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{records: make(map[string]bucket)}
}

// key computes the pool's bucket key for a byte sequence: the structhash
// digest of the value, used instead of the raw string as a defense
// against pathologically long keys dominating the map's bucket hashing.
// Records are still matched within a bucket by their actual bytes (see
// bucket.find), so a hash collision lands two different values in the
// same bucket instead of wrongly aliasing one to the other.
func key(value string) string {
	h, err := structhash.Hash(value, 1)
	if err != nil {
		// structhash.Hash never fails for a plain string; fall back to the
		// value itself so interning still works if it ever did.
		return value
	}
	return h
}

// Alloc returns the handle for value, creating a new record if this pool
// has never seen these bytes before. Every call increments the record's
// reference count; callers must pair it with a Free.
func (p *Pool) Alloc(value string) Str {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key(value)
	r := p.records[k].find(value)
	if r == nil {
		r = &record{key: k, value: value}
		p.records[k] = append(p.records[k], r)
		tracer().Debugf("strpool: new record %q", value)
	}
	r.count++
	return Str{rec: r}
}

// Free decrements s's reference count. When it reaches zero the record is
// removed from the pool and its bytes are released. Freeing a zero handle
// is a no-op.
func (p *Pool) Free(s Str) {
	if s.rec == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	r := s.rec
	r.count--
	if r.count <= 0 {
		p.removeRecord(r)
		tracer().Debugf("strpool: freed record %q", r.value)
	} else if r.count < 0 {
		tracer().Errorf("strpool: refcount underflow for %q", r.value)
	}
}

// removeRecord drops r from its bucket, deleting the bucket entirely once
// it empties out.
func (p *Pool) removeRecord(r *record) {
	b := p.records[r.key]
	for i, cand := range b {
		if cand == r {
			b = append(b[:i], b[i+1:]...)
			break
		}
	}
	if len(b) == 0 {
		delete(p.records, r.key)
	} else {
		p.records[r.key] = b
	}
}

// Clone increments s's reference count and returns s unchanged. Use this
// whenever a structure stores a copy of a handle it does not itself own
// (e.g. cloning an Item's focused element), so every structural handoff
// has a matching Free.
func (p *Pool) Clone(s Str) Str {
	if s.rec == nil {
		return s
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s.rec.count++
	return s
}

// RefCount returns the current reference count for s, or 0 for a zero
// handle or a record no longer owned by this pool.
func (p *Pool) RefCount(s Str) int {
	if s.rec == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return s.rec.count
}

// Size returns the number of distinct strings currently interned.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.records {
		n += len(b)
	}
	return n
}

// Leaks returns the values of all records still interned, sorted, for
// diagnostics at end-of-process: per spec.md §5, a non-empty result here
// indicates a reference-counting bug, not expected steady state.
func (p *Pool) Leaks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, b := range p.records {
		for _, r := range b {
			out = append(out, r.value)
		}
	}
	sort.Strings(out)
	return out
}

// Dump is a debugging helper.
func (p *Pool) Dump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	tracer().Debugf("--- string pool (%d records) -----------", p.sizeLocked())
	for _, b := range p.records {
		for _, r := range b {
			tracer().Debugf("%q refcount=%d", r.value, r.count)
		}
	}
}

func (p *Pool) sizeLocked() int {
	n := 0
	for _, b := range p.records {
		n += len(b)
	}
	return n
}

var _ fmt.Stringer = Str{}
