package stratagem

// Substitution is a finite mapping from variable declarations to ground
// terms (§3). Binding is well-sorted: a term may only be bound to a
// variable whose declared sort it is a sub-sort of.
type Substitution struct {
	bindings map[*VarDecl]Term
}

// NewSubstitution returns an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{bindings: make(map[*VarDecl]Term)}
}

// Lookup returns the term bound to v, if any.
func (s *Substitution) Lookup(v *VarDecl) (Term, bool) {
	t, ok := s.bindings[v]
	return t, ok
}

// Size returns the number of bindings.
func (s *Substitution) Size() int { return len(s.bindings) }

func (s *Substitution) clone() *Substitution {
	ns := &Substitution{bindings: make(map[*VarDecl]Term, len(s.bindings)+1)}
	for k, v := range s.bindings {
		ns.bindings[k] = v
	}
	return ns
}

// bind extends s with v ↦ t, enforcing well-sortedness (t.Sort() must be
// a sub-sort of v.Sort()) and re-binding consistency: if v is already
// bound, the new term must match the existing binding by identity (§4.B).
func (s *Substitution) bind(v *VarDecl, t Term) (*Substitution, bool) {
	if !t.ADT().sig.IsSubSortOf(t.Sort(), v.sort) {
		return s, false
	}
	if existing, ok := s.bindings[v]; ok {
		return s, existing.Equal(t)
	}
	ns := s.clone()
	ns.bindings[v] = t
	return ns, true
}

// Match unifies a pattern (which may contain variables) against a ground
// term, returning the substitution that makes them equal, or (nil, false)
// if no such substitution exists (§4.B: "match(pattern, ground) →
// Substitution | NoMatch").
func Match(pattern, ground Term) (*Substitution, bool) {
	return matchWith(pattern, ground, NewSubstitution())
}

func matchWith(pattern, ground Term, sub *Substitution) (*Substitution, bool) {
	switch p := pattern.(type) {
	case *Variable:
		if bound, ok := sub.Lookup(p.decl); ok {
			if !bound.Equal(ground) {
				return nil, false
			}
			return sub, true
		}
		ns, ok := sub.bind(p.decl, ground)
		if !ok {
			return nil, false
		}
		return ns, true

	case *Application:
		g, ok := ground.(*Application)
		if !ok || g.op.Name != p.op.Name || len(g.args) != len(p.args) {
			return nil, false
		}
		cur := sub
		for i := range p.args {
			var matched bool
			cur, matched = matchWith(p.args[i], g.args[i], cur)
			if !matched {
				return nil, false
			}
		}
		return cur, true

	default:
		return nil, false
	}
}

// Apply substitutes pattern bottom-up according to sub. Applying to a
// ground term is the identity (every sub-term is already var-free, so no
// binding is ever consulted). Applying to a pattern with a variable not
// covered by sub fails with UnboundVariableError (§4.B).
func Apply(sub *Substitution, pattern Term) (Term, error) {
	switch p := pattern.(type) {
	case *Variable:
		t, ok := sub.Lookup(p.decl)
		if !ok {
			return nil, &UnboundVariableError{Variable: p.decl.name}
		}
		return t, nil

	case *Application:
		if p.ground {
			return p, nil
		}
		args := make([]Term, len(p.args))
		for i, arg := range p.args {
			r, err := Apply(sub, arg)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return p.adt.Term(p.op.Name, args...)

	default:
		return nil, newBadTermError("apply: unrecognised term kind")
	}
}
