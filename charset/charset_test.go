package charset

import "testing"

func mustParse(t *testing.T, pattern string) *Set {
	t.Helper()
	s, err := Parse(pattern)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pattern, err)
	}
	return s
}

func TestParseSingleChar(t *testing.T) {
	s := mustParse(t, "a")
	if !s.Contains('a') {
		t.Fatalf("expected 'a' to be a member")
	}
	if s.Contains('b') {
		t.Fatalf("expected 'b' to not be a member")
	}
}

func TestParseRange(t *testing.T) {
	s := mustParse(t, "[a-z]")
	for c := byte('a'); c <= 'z'; c++ {
		if !s.Contains(c) {
			t.Fatalf("expected %q in [a-z]", c)
		}
	}
	if s.Contains('A') {
		t.Fatalf("did not expect 'A' in [a-z]")
	}
}

func TestParseEscapes(t *testing.T) {
	s := mustParse(t, `\n`)
	if !s.Contains('\n') {
		t.Fatalf("expected newline to be a member")
	}
	s2 := mustParse(t, `\x41`)
	if !s2.Contains('A') {
		t.Fatalf("expected \\x41 to mean 'A'")
	}
}

func TestAnyIsUniverse(t *testing.T) {
	s := mustParse(t, "[:any:]")
	for i := 0; i < 256; i++ {
		if !s.Contains(byte(i)) {
			t.Fatalf("expected byte %d in universal set", i)
		}
	}
	if !s.Equals(Any()) {
		t.Fatalf("expected [:any:] to equal Any()")
	}
}

func TestNegation(t *testing.T) {
	x := mustParse(t, "[x]")
	notX := mustParse(t, "[^x]")
	want := x.Clone().Not()
	if !notX.Equals(want) {
		t.Fatalf("[^x] should equal not([x])")
	}
}

func TestDoubleNotIsIdentity(t *testing.T) {
	s := mustParse(t, "[a-c]")
	twice := s.Clone().Not().Not()
	if !twice.Equals(s) {
		t.Fatalf("not(not(S)) should equal S")
	}
}

func TestAndCommutes(t *testing.T) {
	a := mustParse(t, "[a-m]")
	b := mustParse(t, "[d-z]")
	ab := Intersection(a, b)
	ba := Intersection(b, a)
	if !ab.Equals(ba) {
		t.Fatalf("and(S,T) should equal and(T,S)")
	}
}

func TestOrNotIsUniverse(t *testing.T) {
	s := mustParse(t, "[a-m]")
	u := Union(s, s.Clone().Not())
	if !u.Equals(Any()) {
		t.Fatalf("or(S, not(S)) should equal universe")
	}
}

func TestRoundTrip(t *testing.T) {
	patterns := []string{
		"[a-z]",
		"[^a-z]",
		"[abc]",
		"[a-cq-s]",
		"[:any:]",
		"[-]",
		"[,-.]",
		"a",
		`\n`,
		"[]",
	}
	for _, p := range patterns {
		s := mustParse(t, p)
		rendered := s.String()
		s2 := mustParse(t, rendered)
		if !s.Equals(s2) {
			t.Fatalf("round trip failed for %q: rendered %q, got different set", p, rendered)
		}
	}
}

func TestFactorizationPartitionExample(t *testing.T) {
	// [lexicon] a : [a-c] ; b : [b-d] ;  -- classical 3-way split.
	a := mustParse(t, "[a-c]")
	b := mustParse(t, "[b-d]")
	onlyA := Intersection(a, a.Clone().Not().Not()).Clone()
	_ = onlyA
	ab := Intersection(a, b)
	if ab.IsEmpty() {
		t.Fatalf("expected overlap between [a-c] and [b-d]")
	}
	union := Union(a, b)
	for c := byte('a'); c <= 'd'; c++ {
		if !union.Contains(c) {
			t.Fatalf("expected %q in union", c)
		}
	}
}
