package stratagem

import (
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TermSetElement is the concrete LatticeElement used by the reachability
// driver (§3.1, §4.F): a deduplicated, canonically-ordered set of ground
// terms belonging to one ADT. ⊥ is the empty set; ∪, ∩ and \ are ordinary
// set union, intersection and difference over terms compared by Equal
// (which is a pointer comparison for hash-consed ground terms).
type TermSetElement struct {
	adt   *ADT
	terms []Term // sorted by String(), deduplicated
	seq   uint64 // construction order, used only to canonicalise cache keys
}

var termSetSeq uint64

func newTermSetElement(adt *ADT, terms []Term) *TermSetElement {
	return &TermSetElement{adt: adt, terms: terms, seq: atomic.AddUint64(&termSetSeq, 1)}
}

// NewTermSet builds a TermSetElement from a (possibly empty, possibly
// overlapping) list of ground terms, all belonging to adt. Duplicate
// terms collapse to one entry.
func NewTermSet(adt *ADT, terms ...Term) (*TermSetElement, error) {
	if adt == nil {
		return nil, newBadSignatureError("term set: ADT must not be nil")
	}
	seen := make(map[Term]bool, len(terms))
	dedup := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			return nil, newBadTermError("term set: element must not be nil")
		}
		if !t.IsGround() {
			return nil, newBadTermError("term set: element %s is not ground", t.String())
		}
		if t.ADT() != adt {
			return nil, newBadTermError("term set: element %s belongs to a different ADT", t.String())
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		dedup = append(dedup, t)
	}
	sort.Slice(dedup, func(i, j int) bool { return dedup[i].String() < dedup[j].String() })
	return newTermSetElement(adt, dedup), nil
}

// NewEmptyTermSet returns ⊥ for adt: the empty reachable-state set.
func NewEmptyTermSet(adt *ADT) (*TermSetElement, error) {
	return NewTermSet(adt)
}

// ADT returns the ADT every member term belongs to.
func (e *TermSetElement) ADT() *ADT { return e.adt }

// Terms returns the set's members in canonical order.
func (e *TermSetElement) Terms() []Term { return append([]Term(nil), e.terms...) }

// Len returns the number of members.
func (e *TermSetElement) Len() int { return len(e.terms) }

// Contains reports whether t is a member of the set.
func (e *TermSetElement) Contains(t Term) bool {
	for _, m := range e.terms {
		if m.Equal(t) {
			return true
		}
	}
	return false
}

func (e *TermSetElement) String() string {
	parts := make([]string, len(e.terms))
	for i, t := range e.terms {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Bottom reports whether this is the empty state set.
func (e *TermSetElement) Bottom() bool { return len(e.terms) == 0 }

// Equal reports whether e and other hold exactly the same members.
func (e *TermSetElement) Equal(other LatticeElement) bool {
	oe, ok := other.(*TermSetElement)
	if !ok {
		return false
	}
	if e == oe {
		return true
	}
	if len(e.terms) != len(oe.terms) {
		return false
	}
	for i := range e.terms {
		if !e.terms[i].Equal(oe.terms[i]) {
			return false
		}
	}
	return true
}

func mustTermSet(e LatticeElement) *TermSetElement {
	te, ok := e.(*TermSetElement)
	if !ok {
		panic("stratagem: TermSetElement operation given a LatticeElement of a different concrete type")
	}
	return te
}

// opCacheKey identifies a pending binary lattice operation by operand
// identity (§4.F: the original system keys its memoisation on operand
// identity via weak references; a bounded LRU cache here approximates
// that without requiring a portable weak-reference mechanism).
type opCacheKey struct {
	a, b *TermSetElement
}

const opCacheSize = 4096

var (
	unionCache, _ = lru.New[opCacheKey, *TermSetElement](opCacheSize)
	interCache, _ = lru.New[opCacheKey, *TermSetElement](opCacheSize)
	diffCache, _  = lru.New[opCacheKey, *TermSetElement](opCacheSize)
)

// canonicalPair orders a commutative operation's operands by construction
// sequence so that Union(x,y) and Union(y,x) hit the same cache entry.
func canonicalPair(a, b *TermSetElement) (*TermSetElement, *TermSetElement) {
	if a.seq <= b.seq {
		return a, b
	}
	return b, a
}

// Union is the lattice join: set union, short-circuited on identity and
// on either operand being ⊥, and memoised otherwise (§4.F).
func (e *TermSetElement) Union(other LatticeElement) LatticeElement {
	oe := mustTermSet(other)
	if e == oe {
		return e
	}
	if e.Bottom() {
		return oe
	}
	if oe.Bottom() {
		return e
	}
	lo, hi := canonicalPair(e, oe)
	key := opCacheKey{lo, hi}
	if cached, ok := unionCache.Get(key); ok {
		return cached
	}
	result := mergeTerms(lo, hi)
	unionCache.Add(key, result)
	return result
}

// Inter is the lattice meet: set intersection, short-circuited on
// identity and on either operand being ⊥, and memoised otherwise (§4.F).
func (e *TermSetElement) Inter(other LatticeElement) LatticeElement {
	oe := mustTermSet(other)
	if e == oe {
		return e
	}
	if e.Bottom() || oe.Bottom() {
		return emptyLike(e)
	}
	lo, hi := canonicalPair(e, oe)
	key := opCacheKey{lo, hi}
	if cached, ok := interCache.Get(key); ok {
		return cached
	}
	result := intersectTerms(lo, hi)
	interCache.Add(key, result)
	return result
}

// Diff is the relative complement e \ other, short-circuited when other
// is ⊥ (the result is e unchanged) or when the operands are identical
// (the result is ⊥), and memoised otherwise (§4.F). Diff is not
// commutative, so its cache key preserves operand order.
func (e *TermSetElement) Diff(other LatticeElement) LatticeElement {
	oe := mustTermSet(other)
	if e == oe {
		return emptyLike(e)
	}
	if oe.Bottom() {
		return e
	}
	if e.Bottom() {
		return e
	}
	key := opCacheKey{e, oe}
	if cached, ok := diffCache.Get(key); ok {
		return cached
	}
	result := subtractTerms(e, oe)
	diffCache.Add(key, result)
	return result
}

func emptyLike(e *TermSetElement) *TermSetElement {
	return newTermSetElement(e.adt, nil)
}

func mergeTerms(lo, hi *TermSetElement) *TermSetElement {
	seen := make(map[Term]bool, len(lo.terms)+len(hi.terms))
	merged := make([]Term, 0, len(lo.terms)+len(hi.terms))
	for _, t := range lo.terms {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range hi.terms {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].String() < merged[j].String() })
	return newTermSetElement(lo.adt, merged)
}

func intersectTerms(lo, hi *TermSetElement) *TermSetElement {
	inHi := make(map[Term]bool, len(hi.terms))
	for _, t := range hi.terms {
		inHi[t] = true
	}
	var result []Term
	for _, t := range lo.terms {
		if inHi[t] {
			result = append(result, t)
		}
	}
	return newTermSetElement(lo.adt, result)
}

func subtractTerms(a, b *TermSetElement) *TermSetElement {
	inB := make(map[Term]bool, len(b.terms))
	for _, t := range b.terms {
		inB[t] = true
	}
	var result []Term
	for _, t := range a.terms {
		if !inB[t] {
			result = append(result, t)
		}
	}
	return newTermSetElement(a.adt, result)
}
