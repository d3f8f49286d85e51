// Package stratagem implements the core of a symbolic model checker whose
// states are first-order terms over a user-defined many-sorted algebraic
// signature and whose transitions are rewrite rules orchestrated by
// ELAN/Stratego-style strategies.
//
// The package is organized the way the specification's component table
// lays it out: signatures and ADTs (this file, adt.go), terms and
// substitutions (term.go, substitution.go), the strategy AST
// (strategy.go), the linker (linker.go), the rewriter (rewriter.go), and
// the memoised lattice core with its fixed-point driver (lattice.go,
// termset.go, fixpoint.go). Construction is single-threaded and
// construction-then-freeze (§5). Nothing here is safe for concurrent use:
// building a term, which rewriting also does, writes to the ADT's
// hash-consing table.
package stratagem

import "fmt"

// sortDef is the internal record for a declared sort. A sort with an
// empty super name is a base sort.
type sortDef struct {
	name  string
	super string
}

// Operation describes a named function symbol of a signature: a
// (possibly empty, for constants) list of formal parameter sorts and a
// return sort. Generators are operations declared as constructors of
// their return sort; only generators may appear at the root of a
// canonical (fully rewritten) ground term.
type Operation struct {
	Name        string
	Params      []string
	Return      string
	IsGenerator bool
}

// Arity returns the number of formal parameters.
func (op Operation) Arity() int {
	return len(op.Params)
}

func (op Operation) String() string {
	return fmt.Sprintf("%s(%v): %s", op.Name, op.Params, op.Return)
}

// Signature is an ordered set of sorts plus operations (§3). It is built
// with a chainable, immutable-by-copy builder: every With* method returns
// a new Signature value, leaving the receiver untouched, so that a
// partially built signature can be safely reused as a base for several
// extensions. Invariant violations are recorded on the returned value and
// surfaced by Build.
type Signature struct {
	sorts     []sortDef
	sortIndex map[string]int
	reach     [][]bool // reach[i][j] == true iff sorts[i] isSubSortOf sorts[j]
	ops       []Operation
	opIndex   map[string]int
	err       error
}

// NewSignature returns an empty signature.
func NewSignature() *Signature {
	return &Signature{
		sortIndex: make(map[string]int),
		opIndex:   make(map[string]int),
	}
}

// clone makes a deep-enough copy for copy-on-write chaining: slices and
// maps are copied, sortDef/Operation values themselves are immutable.
func (s *Signature) clone() *Signature {
	ns := &Signature{
		sorts:     append([]sortDef(nil), s.sorts...),
		sortIndex: make(map[string]int, len(s.sortIndex)),
		ops:       append([]Operation(nil), s.ops...),
		opIndex:   make(map[string]int, len(s.opIndex)),
		err:       s.err,
	}
	for k, v := range s.sortIndex {
		ns.sortIndex[k] = v
	}
	for k, v := range s.opIndex {
		ns.opIndex[k] = v
	}
	ns.reach = make([][]bool, len(s.reach))
	for i, row := range s.reach {
		ns.reach[i] = append([]bool(nil), row...)
	}
	return ns
}

func (s *Signature) fail(err error) *Signature {
	ns := s.clone()
	ns.err = err
	return ns
}

// WithSort adds a sort to the signature. With no superSort argument the
// sort is a base sort; with one, it is declared a sub-sort of it. Adding
// a sort whose declared super-sort does not yet exist, or whose addition
// would close a cycle in the sub-sort relation, fails with
// BadSignatureError.
func (s *Signature) WithSort(name string, superSort ...string) *Signature {
	if s.err != nil {
		return s
	}
	if len(superSort) > 1 {
		return s.fail(newBadSignatureError("sort %q: at most one super-sort may be given", name))
	}
	if _, exists := s.sortIndex[name]; exists {
		return s.fail(newBadSignatureError("duplicate sort name %q", name))
	}

	super := ""
	superIdx := -1
	if len(superSort) == 1 {
		super = superSort[0]
		idx, ok := s.sortIndex[super]
		if !ok {
			return s.fail(newBadSignatureError("sort %q: unknown super-sort %q", name, super))
		}
		superIdx = idx
	}

	ns := s.clone()
	newIdx := len(ns.sorts)
	ns.sorts = append(ns.sorts, sortDef{name: name, super: super})
	ns.sortIndex[name] = newIdx

	// Extend the reachability matrix: every existing sort gets a new
	// column (initially false), the new sort gets a new row.
	for i := range ns.reach {
		ns.reach[i] = append(ns.reach[i], false)
	}
	newRow := make([]bool, newIdx+1)
	newRow[newIdx] = true
	if superIdx >= 0 {
		// name isSubSortOf super, and everything super reaches.
		newRow[superIdx] = true
		for j, reachable := range ns.reach[superIdx] {
			if reachable {
				newRow[j] = true
			}
		}
	}
	ns.reach = append(ns.reach, newRow)
	return ns
}

// WithOperation adds a non-generator operation to the signature.
func (s *Signature) WithOperation(name, ret string, params ...string) *Signature {
	return s.addOperation(name, ret, params, false)
}

// WithGenerator adds a generator (constructor) operation to the signature.
func (s *Signature) WithGenerator(name, ret string, params ...string) *Signature {
	return s.addOperation(name, ret, params, true)
}

func (s *Signature) addOperation(name, ret string, params []string, isGenerator bool) *Signature {
	if s.err != nil {
		return s
	}
	if _, exists := s.opIndex[name]; exists {
		return s.fail(newBadSignatureError("duplicate operation name %q", name))
	}
	if _, ok := s.sortIndex[ret]; !ok {
		return s.fail(newBadSignatureError("operation %q: unknown return sort %q", name, ret))
	}
	for _, p := range params {
		if _, ok := s.sortIndex[p]; !ok {
			return s.fail(newBadSignatureError("operation %q: unknown parameter sort %q", name, p))
		}
	}

	ns := s.clone()
	idx := len(ns.ops)
	ns.ops = append(ns.ops, Operation{
		Name:        name,
		Params:      append([]string(nil), params...),
		Return:      ret,
		IsGenerator: isGenerator,
	})
	ns.opIndex[name] = idx
	return ns
}

// Build finalizes the signature, returning the first invariant violation
// recorded by a With* call, if any.
func (s *Signature) Build() (*Signature, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

// HasSort reports whether name was declared.
func (s *Signature) HasSort(name string) bool {
	_, ok := s.sortIndex[name]
	return ok
}

// IsSubSortOf reports whether a is reflexively-transitively a sub-sort of
// b. Unknown sort names are never sub-sorts of anything.
func (s *Signature) IsSubSortOf(a, b string) bool {
	ai, ok := s.sortIndex[a]
	if !ok {
		return false
	}
	bi, ok := s.sortIndex[b]
	if !ok {
		return false
	}
	return s.reach[ai][bi]
}

// Operation looks up an operation by name.
func (s *Signature) Operation(name string) (Operation, bool) {
	idx, ok := s.opIndex[name]
	if !ok {
		return Operation{}, false
	}
	return s.ops[idx], true
}

// Operations returns all operations in declaration order.
func (s *Signature) Operations() []Operation {
	return append([]Operation(nil), s.ops...)
}

// Sorts returns all declared sort names in declaration order.
func (s *Signature) Sorts() []string {
	names := make([]string, len(s.sorts))
	for i, sd := range s.sorts {
		names[i] = sd.name
	}
	return names
}
