package stratagem

// Link statically validates every strategy declaration of ts (§4.D):
// that every DeclaredStrategyInstance resolves and is applied to the
// right number of actuals, that every variable strategy names a formal
// of its enclosing declaration, and that Not is only ever applied to one
// of the restricted forms. All violations are collected and returned
// together in one *BadTransitionSystemError (§7).
func Link(ts *TransitionSystem) error {
	return finalizeLinkErrors(collectLinkErrors(ts))
}

// Diagnose runs the same walk as Link. The original system drew a
// line between "linking" (name/arity/identity resolution) and
// "diagnostics" as two call sites into the declaration walker; nothing
// in §4.D's checklist is specific to one or the other, so both exported
// entry points here share one implementation (§9, Open Question: eager
// vs. deferred checking is intentionally left unified at this level —
// the genuinely eager checks, like duplicate strategy names, already
// happen earlier, at DeclareStrategy time).
func Diagnose(ts *TransitionSystem) error {
	return finalizeLinkErrors(collectLinkErrors(ts))
}

func finalizeLinkErrors(errs []*LinkerError) error {
	if len(errs) == 0 {
		return nil
	}
	return &BadTransitionSystemError{Errors: errs}
}

// collectLinkErrors walks every declaration in declaration order, and
// within each declaration walks its body in AST pre-order, so that
// repeated calls on the same TransitionSystem produce byte-identical
// error sets (§8: "diagnostics are deterministic").
func collectLinkErrors(ts *TransitionSystem) []*LinkerError {
	var errs []*LinkerError
	for _, d := range ts.Declarations() {
		formals := make(map[*StrategyParam]bool, len(d.Formals))
		for _, f := range d.Formals {
			formals[f] = true
		}
		errs = append(errs, walkLink(ts, d, d.Body, formals)...)
	}
	return errs
}

func walkLink(ts *TransitionSystem, d *DeclaredStrategy, s Strategy, formals map[*StrategyParam]bool) []*LinkerError {
	var errs []*LinkerError

	switch v := s.(type) {
	case variableStrategy:
		if !formals[v.param] {
			errs = append(errs, newLinkerError(
				"Strategy variable name '%s' is not in declaration. If you wanted to use a declared strategy you need to append parentheses to it, like this: %s()",
				v.param.name, v.param.name))
		}

	case declaredStrategyInstance:
		resolved, ok := ts.Lookup(v.name)
		if !ok {
			errs = append(errs, newLinkerError(
				"Usage of invalid strategy %s in declared strategy %s", v.name, d.Name))
		} else if len(v.actuals) != len(resolved.Formals) {
			errs = append(errs, newLinkerError(
				"Invalid number of parameters for strategy %s. Required Set{%d}, found Set{%d}",
				v.name, len(resolved.Formals), len(v.actuals)))
		}
		for _, a := range v.actuals {
			errs = append(errs, walkLink(ts, d, a, formals)...)
		}

	case notStrategy:
		if !okUnderNot(ts, v.s, nil) {
			errs = append(errs, notContextError(v.s))
		}
		errs = append(errs, walkLink(ts, d, v.s, formals)...)

	default:
		for _, c := range children(s) {
			errs = append(errs, walkLink(ts, d, c, formals)...)
		}
	}

	return errs
}

// notContextError builds the diagnostic for a strategy found directly
// under Not that is not one of the admitted forms (§4.D). A declared
// strategy invoked with actual parameters gets a message naming that
// specifically, since "append parentheses" advice would be misleading —
// the call already has parentheses, just non-empty ones.
func notContextError(s Strategy) *LinkerError {
	if v, ok := s.(declaredStrategyInstance); ok && len(v.actuals) > 0 {
		return newLinkerError(
			"Strategy Not does not accept declared strategies with parameters. Found %s", s.String())
	}
	return newLinkerError(
		"Strategy Not only accepts SimpleStrategy and Not strategies as parameters. Found %s", s.String())
}

// okUnderNot reports whether s is one of the forms admitted directly
// under Not (§4.D): a SimpleStrategy, a nested Not (recursively
// obeying the same rule), a variable strategy, or a zero-actual declared
// strategy instance whose body (recursively, following the declaration
// chain) obeys the rule. visiting guards against infinite recursion
// through mutually- or self-referential declarations.
func okUnderNot(ts *TransitionSystem, s Strategy, visiting map[string]bool) bool {
	switch v := s.(type) {
	case simpleStrategy:
		return true
	case variableStrategy:
		return true
	case notStrategy:
		return okUnderNot(ts, v.s, visiting)
	case declaredStrategyInstance:
		if len(v.actuals) != 0 {
			return false
		}
		if visiting[v.name] {
			return false
		}
		resolved, ok := ts.Lookup(v.name)
		if !ok {
			return false
		}
		next := make(map[string]bool, len(visiting)+1)
		for k := range visiting {
			next[k] = true
		}
		next[v.name] = true
		return okUnderNot(ts, resolved.Body, next)
	default:
		return false
	}
}
