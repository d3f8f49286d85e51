package stratagem

import (
	"fmt"
	"strings"
)

// Term is either a Variable or an Application (§3). Every term carries
// the ADT it was built from; all sub-terms of an Application share that
// ADT with their parent (checked at construction time by ADT.Term).
type Term interface {
	// ADT returns the ADT this term belongs to.
	ADT() *ADT

	// Sort returns the term's sort: the variable's declared sort, or the
	// root operation's return sort.
	Sort() string

	// IsGround reports whether the term is variable-free.
	IsGround() bool

	// Equal reports structural equality. For two ground terms built
	// through the same ADT this reduces to a pointer comparison, since
	// ground terms are hash-consed.
	Equal(other Term) bool

	String() string
}

// Variable is a term that references a variable declaration.
type Variable struct {
	decl *VarDecl
	adt  *ADT
}

func (v *Variable) ADT() *ADT       { return v.adt }
func (v *Variable) Sort() string    { return v.decl.sort }
func (v *Variable) IsGround() bool  { return false }
func (v *Variable) String() string  { return v.decl.name }

// Decl returns the underlying variable declaration, whose pointer
// identity is what Substitution and Variable.Equal use to tell variables
// apart.
func (v *Variable) Decl() *VarDecl { return v.decl }

func (v *Variable) Equal(other Term) bool {
	ov, ok := other.(*Variable)
	return ok && ov.decl == v.decl
}

// Application is a term applying an operation to a list of sub-terms. Its
// arity equals the operation's arity (checked at construction).
type Application struct {
	adt    *ADT
	op     Operation
	args   []Term
	ground bool
}

func (a *Application) ADT() *ADT      { return a.adt }
func (a *Application) Sort() string   { return a.op.Return }
func (a *Application) IsGround() bool { return a.ground }

// Op returns the operation applied at the root.
func (a *Application) Op() Operation { return a.op }

// Args returns the sub-terms, in order.
func (a *Application) Args() []Term { return append([]Term(nil), a.args...) }

func (a *Application) String() string {
	if len(a.args) == 0 {
		return a.op.Name
	}
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = arg.String()
	}
	return a.op.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Equal reports structural equality. Ground Applications hash-consed
// through the same ADT compare equal precisely when they are the same
// pointer; the structural fallback below still holds for Applications
// that carry variables (patterns are never hash-consed) or that were
// built through different ADTs with an identical shape.
func (a *Application) Equal(other Term) bool {
	oa, ok := other.(*Application)
	if !ok {
		return false
	}
	if a == oa {
		return true
	}
	if a.op.Name != oa.op.Name || len(a.args) != len(oa.args) {
		return false
	}
	for i := range a.args {
		if !a.args[i].Equal(oa.args[i]) {
			return false
		}
	}
	return true
}

// Var looks up a declared variable and returns it as a Term.
func (a *ADT) Var(name string) (Term, error) {
	d, ok := a.varIndex[name]
	if !ok {
		return nil, newBadTermError("unknown variable %q", name)
	}
	return &Variable{decl: d, adt: a}, nil
}

// Term builds a well-formed Application of the named operation to args,
// verifying arity and that each argument's sort is a sub-sort of the
// corresponding formal parameter (§4.B). Ground applications are
// hash-consed: building the same ground term twice returns the same
// *Application pointer, which the fixed-point driver relies on for O(1)
// convergence checks (§4.G).
func (a *ADT) Term(opName string, args ...Term) (Term, error) {
	op, ok := a.sig.Operation(opName)
	if !ok {
		return nil, newBadTermError("unknown operation %q", opName)
	}
	if len(args) != op.Arity() {
		return nil, newBadTermError("operation %q: expected %d argument(s), got %d", opName, op.Arity(), len(args))
	}

	ground := true
	for i, arg := range args {
		if arg.ADT() != a {
			return nil, newBadTermError("operation %q: argument %d belongs to a different ADT", opName, i)
		}
		if !a.sig.IsSubSortOf(arg.Sort(), op.Params[i]) {
			return nil, newBadTermError("operation %q: argument %d has sort %q, expected a sub-sort of %q", opName, i, arg.Sort(), op.Params[i])
		}
		if !arg.IsGround() {
			ground = false
		}
	}

	app := &Application{adt: a, op: op, args: append([]Term(nil), args...), ground: ground}
	if !ground {
		return app, nil
	}

	key := hashConsKey(opName, args)
	if existing, ok := a.termTable[key]; ok {
		return existing, nil
	}
	a.termTable[key] = app
	return app, nil
}

// hashConsKey builds the one-level hash-consing key for a ground
// Application: the operation name plus the identities of its already
// hash-consed arguments. Because children are consed bottom-up before
// their parent is looked up, this key never needs to encode more than
// one level of structure.
func hashConsKey(opName string, args []Term) string {
	var b strings.Builder
	b.WriteString(opName)
	for _, arg := range args {
		b.WriteByte('|')
		fmt.Fprintf(&b, "%p", arg)
	}
	return b.String()
}

// occursIn reports whether variable v occurs anywhere in term t.
func occursIn(v *VarDecl, t Term) bool {
	switch tt := t.(type) {
	case *Variable:
		return tt.decl == v
	case *Application:
		for _, arg := range tt.args {
			if occursIn(v, arg) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
