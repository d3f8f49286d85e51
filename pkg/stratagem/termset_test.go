package stratagem

import "testing"

func TestTermSetUnionInterDiff(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	two, _ := adt.Term("succ", one)

	a, err := NewTermSet(adt, zero, one)
	if err != nil {
		t.Fatalf("NewTermSet: %v", err)
	}
	b, err := NewTermSet(adt, one, two)
	if err != nil {
		t.Fatalf("NewTermSet: %v", err)
	}

	u := a.Union(b).(*TermSetElement)
	if u.Len() != 3 || !u.Contains(zero) || !u.Contains(one) || !u.Contains(two) {
		t.Fatalf("Union = %s, want {zero, one, two}", u.String())
	}

	i := a.Inter(b).(*TermSetElement)
	if i.Len() != 1 || !i.Contains(one) {
		t.Fatalf("Inter = %s, want {one}", i.String())
	}

	d := a.Diff(b).(*TermSetElement)
	if d.Len() != 1 || !d.Contains(zero) {
		t.Fatalf("Diff = %s, want {zero}", d.String())
	}
}

func TestTermSetBottomShortCircuits(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")

	bottom, err := NewEmptyTermSet(adt)
	if err != nil {
		t.Fatalf("NewEmptyTermSet: %v", err)
	}
	if !bottom.Bottom() {
		t.Fatalf("expected the empty term set to report Bottom() == true")
	}

	singleton, err := NewTermSet(adt, zero)
	if err != nil {
		t.Fatalf("NewTermSet: %v", err)
	}

	if got := singleton.Union(bottom); got != LatticeElement(singleton) {
		t.Fatalf("x ∪ ⊥ must return x unchanged by identity")
	}
	if got := bottom.Union(singleton); got != LatticeElement(singleton) {
		t.Fatalf("⊥ ∪ y must return y unchanged by identity")
	}
	if got := singleton.Inter(bottom); !got.(*TermSetElement).Bottom() {
		t.Fatalf("x ∩ ⊥ must be ⊥")
	}
	if got := singleton.Diff(bottom); got != LatticeElement(singleton) {
		t.Fatalf("x \\ ⊥ must return x unchanged by identity")
	}
}

func TestTermSetUnionSelfIsIdentity(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	s, err := NewTermSet(adt, zero)
	if err != nil {
		t.Fatalf("NewTermSet: %v", err)
	}
	if got := s.Union(s); got != LatticeElement(s) {
		t.Fatalf("x ∪ x must return x unchanged by identity")
	}
}

func TestTermSetUnionIsCommutativeAndCached(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)

	a, _ := NewTermSet(adt, zero)
	b, _ := NewTermSet(adt, one)

	ab := a.Union(b)
	ba := b.Union(a)
	if !ab.Equal(ba) {
		t.Fatalf("Union must be commutative: %v vs %v", ab, ba)
	}
	// Same operand pair regardless of argument order should hit the same
	// cache entry and return the identical *TermSetElement.
	if ab != ba {
		t.Fatalf("expected canonicalised cache key to return the identical cached result")
	}
}

func TestTermSetRejectsNonGroundMember(t *testing.T) {
	adt, _ := natADT(t)
	if _, err := adt.DeclareVariable("n", "Nat"); err != nil {
		t.Fatalf("DeclareVariable: %v", err)
	}
	nVar, _ := adt.Var("n")
	if _, err := NewTermSet(adt, nVar); err == nil {
		t.Fatalf("expected an error building a term set from a non-ground term")
	}
}
