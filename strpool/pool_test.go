package strpool

import "testing"

func TestAllocIdentity(t *testing.T) {
	p := New()
	a := p.Alloc("hello")
	b := p.Alloc("hello")
	if a != b {
		t.Fatalf("expected identical handles for equal content")
	}
	c := p.Alloc("world")
	if a == c {
		t.Fatalf("expected distinct handles for distinct content")
	}
}

func TestFreeRemovesRecord(t *testing.T) {
	p := New()
	a := p.Alloc("x")
	p.Alloc("x")
	if p.Size() != 1 {
		t.Fatalf("expected 1 record, got %d", p.Size())
	}
	p.Free(a)
	if p.Size() != 1 {
		t.Fatalf("record freed too early")
	}
	p.Free(a)
	if p.Size() != 0 {
		t.Fatalf("expected record to be gone, got %d left", p.Size())
	}
}

func TestCloneIncrementsRefcount(t *testing.T) {
	p := New()
	a := p.Alloc("y")
	b := p.Clone(a)
	if p.RefCount(a) != 2 {
		t.Fatalf("expected refcount 2, got %d", p.RefCount(a))
	}
	p.Free(a)
	if p.Size() != 1 {
		t.Fatalf("record should survive one free")
	}
	p.Free(b)
	if p.Size() != 0 {
		t.Fatalf("record should be gone after both frees")
	}
}

func TestLeaksEmptyWhenBalanced(t *testing.T) {
	p := New()
	a := p.Alloc("z")
	p.Free(a)
	if leaks := p.Leaks(); len(leaks) != 0 {
		t.Fatalf("expected no leaks, got %v", leaks)
	}
}

func TestZeroHandle(t *testing.T) {
	var z Str
	if !z.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}
	p := New()
	p.Free(z) // must not panic
	if p.Clone(z) != z {
		t.Fatalf("cloning zero handle should return zero handle")
	}
}
