package stratagem

// TransitionSystem is an ADT, an initial ground term built from that
// ADT, and an ordered map from strategy names to declarations (§3).
// Re-declaring a name, or building a TransitionSystem whose initial term
// belongs to a different ADT, fails immediately at construction time
// (§7: these are the construction errors that are not deferred to the
// linker).
type TransitionSystem struct {
	adt     *ADT
	initial Term
	order   []string
	decls   map[string]*DeclaredStrategy
}

// NewTransitionSystem creates a TransitionSystem over adt with the given
// initial ground term.
func NewTransitionSystem(adt *ADT, initial Term) (*TransitionSystem, error) {
	if adt == nil {
		return nil, newBadSignatureError("transition system: ADT must not be nil")
	}
	if initial == nil {
		return nil, newBadTermError("transition system: initial term must not be nil")
	}
	if initial.ADT() != adt {
		return nil, &BadTransitionSystemError{Errors: []*LinkerError{
			newLinkerError("initial term belongs to a different ADT"),
		}}
	}
	return &TransitionSystem{
		adt:     adt,
		initial: initial,
		decls:   make(map[string]*DeclaredStrategy),
	}, nil
}

// ADT returns the transition system's ADT.
func (ts *TransitionSystem) ADT() *ADT { return ts.adt }

// Initial returns the initial ground term.
func (ts *TransitionSystem) Initial() Term { return ts.initial }

// DeclareStrategy adds a named strategy declaration. Declaring a name
// that already exists on this TransitionSystem fails immediately,
// matching §8 scenario 5.
func (ts *TransitionSystem) DeclareStrategy(name string, formals []*StrategyParam, body Strategy, isTransition bool) error {
	if _, exists := ts.decls[name]; exists {
		return &BadTransitionSystemError{Errors: []*LinkerError{
			newLinkerError("duplicate strategy name %q", name),
		}}
	}
	if body == nil {
		return &BadTransitionSystemError{Errors: []*LinkerError{
			newLinkerError("strategy %q: body must not be nil", name),
		}}
	}
	ts.decls[name] = &DeclaredStrategy{
		Name:         name,
		Formals:      append([]*StrategyParam(nil), formals...),
		Body:         body,
		IsTransition: isTransition,
	}
	ts.order = append(ts.order, name)
	return nil
}

// Lookup returns the declaration registered under name.
func (ts *TransitionSystem) Lookup(name string) (*DeclaredStrategy, bool) {
	d, ok := ts.decls[name]
	return d, ok
}

// Declarations returns every declaration in declaration order — the
// order Link/Diagnose walks them in, which is what makes diagnostics
// deterministic (§8).
func (ts *TransitionSystem) Declarations() []*DeclaredStrategy {
	out := make([]*DeclaredStrategy, len(ts.order))
	for i, name := range ts.order {
		out[i] = ts.decls[name]
	}
	return out
}

const repeatDeclName = "__repeat"

// Repeat returns a strategy equivalent to Repeat(s) ≡
// Try(Sequence(s, Repeat(s))) (§4.E). Because that equation is literally
// self-referential at the AST level, it is realized the way §9's Design
// Notes prescribe: as a single declared strategy threaded through the
// name table (declared lazily, once, the first time Repeat is called on
// this TransitionSystem), rather than as an infinite Strategy value.
func (ts *TransitionSystem) Repeat(s Strategy) (Strategy, error) {
	if _, exists := ts.decls[repeatDeclName]; !exists {
		param := NewStrategyParam("s")
		body := Try(Sequence(VarStrategy(param), Call(repeatDeclName, VarStrategy(param))))
		if err := ts.DeclareStrategy(repeatDeclName, []*StrategyParam{param}, body, false); err != nil {
			return nil, err
		}
	}
	return Call(repeatDeclName, s), nil
}
