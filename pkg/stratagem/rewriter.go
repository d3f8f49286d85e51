package stratagem

import (
	"context"
	"fmt"
)

// stratEnv binds a DeclaredStrategy's formal variable-strategy parameters
// to concrete, already-resolved actual strategies for the duration of one
// call (§4.E). Frames are not chained: a declaration's body only ever sees
// its own formals, never an enclosing caller's bindings, matching the
// linker's own rule that a variable strategy must name a formal of *its*
// declaration (§4.D).
type stratEnv struct {
	bindings map[*StrategyParam]Strategy
}

func newEnv() *stratEnv {
	return &stratEnv{bindings: make(map[*StrategyParam]Strategy)}
}

func (e *stratEnv) lookup(p *StrategyParam) (Strategy, bool) {
	s, ok := e.bindings[p]
	return s, ok
}

func (e *stratEnv) extend(params []*StrategyParam, values []Strategy) *stratEnv {
	ne := &stratEnv{bindings: make(map[*StrategyParam]Strategy, len(params))}
	for i, p := range params {
		ne.bindings[p] = values[i]
	}
	return ne
}

// resolve substitutes every variable-strategy leaf of s with its bound
// value in e, producing a closed strategy suitable for storing in a new
// call frame. Values already in e are closed by construction (every frame
// is built by resolving its actuals before being pushed), so resolve never
// needs to recurse into an already-bound value.
func resolve(e *stratEnv, s Strategy) Strategy {
	switch v := s.(type) {
	case variableStrategy:
		if bound, ok := e.lookup(v.param); ok {
			return bound
		}
		return s
	case choiceStrategy:
		return Choice(resolve(e, v.s1), resolve(e, v.s2))
	case sequenceStrategy:
		return Sequence(resolve(e, v.s1), resolve(e, v.s2))
	case unionStrategy:
		return Union(resolve(e, v.s1), resolve(e, v.s2))
	case ifThenElseStrategy:
		return IfThenElse(resolve(e, v.cond), resolve(e, v.then), resolve(e, v.els))
	case oneStrategy:
		return One(resolve(e, v.s), v.k)
	case notStrategy:
		return Not(resolve(e, v.s))
	case tryStrategy:
		return Try(resolve(e, v.s))
	case fixPointStrategy:
		return FixPointStrategy(resolve(e, v.s))
	case saturationStrategy:
		return SaturationStrategy(resolve(e, v.s), v.level)
	case declaredStrategyInstance:
		actuals := make([]Strategy, len(v.actuals))
		for i, a := range v.actuals {
			actuals[i] = resolve(e, a)
		}
		return declaredStrategyInstance{name: v.name, actuals: actuals}
	default:
		return s
	}
}

// Rewrite applies the named, zero-parameter strategy declared on ts to t,
// the public single-term entry point described in §6. It fails loudly
// (returns an error, not Fail) on anything the linker should already have
// ruled out — an unknown name, a parameterized top-level strategy, an
// undeclared callee, an arity mismatch, or a free variable strategy — on
// the assumption that Link has already been run over ts.
func Rewrite(ctx context.Context, ts *TransitionSystem, strategyName string, t Term) (Term, bool, error) {
	decl, ok := ts.Lookup(strategyName)
	if !ok {
		return nil, false, fmt.Errorf("stratagem: unknown strategy %q", strategyName)
	}
	if len(decl.Formals) != 0 {
		return nil, false, fmt.Errorf("stratagem: strategy %q takes parameters; invoke it via Call from another declaration", strategyName)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return eval(ctx, ts, newEnv(), decl.Body, t)
}

// eval is the term-level strategy evaluator (§4.E): apply(s,t) →
// Ok(t')|Fail for every combinator but Union, whose lattice lift is
// resolved by evalUnion.
func eval(ctx context.Context, ts *TransitionSystem, env *stratEnv, s Strategy, t Term) (Term, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	switch v := s.(type) {
	case identityStrategy:
		return t, true, nil

	case failStrategy:
		return nil, false, nil

	case simpleStrategy:
		for _, r := range v.rules {
			sub, ok := Match(r.LHS, t)
			if !ok {
				continue
			}
			res, err := Apply(sub, r.RHS)
			if err != nil {
				return nil, false, err
			}
			return res, true, nil
		}
		return nil, false, nil

	case choiceStrategy:
		res, ok, err := eval(ctx, ts, env, v.s1, t)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return res, true, nil
		}
		return eval(ctx, ts, env, v.s2, t)

	case sequenceStrategy:
		res, ok, err := eval(ctx, ts, env, v.s1, t)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		return eval(ctx, ts, env, v.s2, res)

	case unionStrategy:
		return evalUnion(ctx, ts, env, v, t)

	case ifThenElseStrategy:
		_, ok, err := eval(ctx, ts, env, v.cond, t)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return eval(ctx, ts, env, v.then, t)
		}
		return eval(ctx, ts, env, v.els, t)

	case oneStrategy:
		return evalOne(ctx, ts, env, v, t)

	case notStrategy:
		_, ok, err := eval(ctx, ts, env, v.s, t)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return nil, false, nil
		}
		return t, true, nil

	case tryStrategy:
		res, ok, err := eval(ctx, ts, env, v.s, t)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return res, true, nil
		}
		return t, true, nil

	case fixPointStrategy:
		return iterateFixPoint(ctx, ts, env, v.s, t)

	case saturationStrategy:
		return iterateSaturation(ctx, ts, env, v.s, v.level, t)

	case variableStrategy:
		bound, ok := env.lookup(v.param)
		if !ok {
			return nil, false, fmt.Errorf("stratagem: free variable strategy %q (run Link before Rewrite)", v.param.name)
		}
		return eval(ctx, ts, env, bound, t)

	case declaredStrategyInstance:
		decl, ok := ts.Lookup(v.name)
		if !ok {
			return nil, false, fmt.Errorf("stratagem: undeclared strategy %q (run Link before Rewrite)", v.name)
		}
		if len(v.actuals) != len(decl.Formals) {
			return nil, false, fmt.Errorf("stratagem: strategy %q: expected %d parameter(s), got %d (run Link before Rewrite)",
				v.name, len(decl.Formals), len(v.actuals))
		}
		resolvedActuals := make([]Strategy, len(v.actuals))
		for i, a := range v.actuals {
			resolvedActuals[i] = resolve(env, a)
		}
		callEnv := env.extend(decl.Formals, resolvedActuals)
		return eval(ctx, ts, callEnv, decl.Body, t)

	default:
		return nil, false, fmt.Errorf("stratagem: unrecognised strategy node %T", s)
	}
}

// evalOne applies s to the k-th (one-based) child of t, rebuilding t with
// that child replaced (§4.E). It fails on a non-Application term, an
// arity-0 term, or an out-of-range k — all Fail outcomes, not errors,
// since they describe a shape mismatch at the term being rewritten rather
// than a malformed strategy.
func evalOne(ctx context.Context, ts *TransitionSystem, env *stratEnv, v oneStrategy, t Term) (Term, bool, error) {
	app, ok := t.(*Application)
	if !ok || len(app.args) == 0 {
		return nil, false, nil
	}
	idx := v.k - 1
	if idx < 0 || idx >= len(app.args) {
		return nil, false, nil
	}
	newChild, ok, err := eval(ctx, ts, env, v.s, app.args[idx])
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	newArgs := append([]Term(nil), app.args...)
	newArgs[idx] = newChild
	rebuilt, err := app.adt.Term(app.op.Name, newArgs...)
	if err != nil {
		return nil, false, err
	}
	return rebuilt, true, nil
}

// evalUnion resolves Union(s1,s2) at the term level (§4.E). If exactly one
// branch succeeds, its result stands; if both fail, so does the union; if
// both succeed with the same ground term, that term is the (unambiguous)
// singleton result; if they differ, the union is a genuine two-element
// state set that the term-level contract cannot report, and
// ErrNonSingletonUnion surfaces that rather than silently picking one
// branch or claiming failure.
func evalUnion(ctx context.Context, ts *TransitionSystem, env *stratEnv, v unionStrategy, t Term) (Term, bool, error) {
	r1, ok1, err := eval(ctx, ts, env, v.s1, t)
	if err != nil {
		return nil, false, err
	}
	r2, ok2, err := eval(ctx, ts, env, v.s2, t)
	if err != nil {
		return nil, false, err
	}
	switch {
	case !ok1 && !ok2:
		return nil, false, nil
	case ok1 && !ok2:
		return r1, true, nil
	case !ok1 && ok2:
		return r2, true, nil
	default:
		if r1.Equal(r2) {
			return r1, true, nil
		}
		return nil, false, ErrNonSingletonUnion
	}
}

// iterateFixPoint repeatedly evaluates s on cur until it fails (the
// previous iterate stands) or produces a term identical, by hash-cons
// identity, to the previous one (§4.E, §4.G).
func iterateFixPoint(ctx context.Context, ts *TransitionSystem, env *stratEnv, s Strategy, t Term) (Term, bool, error) {
	cur := t
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		next, ok, err := eval(ctx, ts, env, s, cur)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return cur, true, nil
		}
		if termIdentical(next, cur) {
			return cur, true, nil
		}
		cur = next
	}
}

// iterateSaturation drives s to a fixed point the same way iterateFixPoint
// does, but at each outer step first lets the restriction of s to t's
// level-th child (One(s, level)) run to its own local fixed point before
// re-checking the unrestricted strategy (§4.G: "composes an outer fix with
// an inner fix restricted to operate only on the n-th child of a compound
// state representation — it is an optimisation, not new semantics"). The
// outer termination test is always against the unrestricted s, so the
// result is, exactly as §4.E requires, a genuine fixed point of s: the
// child-local pass only changes how cheaply that fixed point is reached,
// never what it converges to.
func iterateSaturation(ctx context.Context, ts *TransitionSystem, env *stratEnv, s Strategy, level int, t Term) (Term, bool, error) {
	cur := t
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		innerConverged, _, err := iterateFixPoint(ctx, ts, env, One(s, level), cur)
		if err != nil {
			return nil, false, err
		}
		cur = innerConverged

		next, ok, err := eval(ctx, ts, env, s, cur)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return cur, true, nil
		}
		if termIdentical(next, cur) {
			return cur, true, nil
		}
		cur = next
	}
}

// termIdentical reports convergence between fixed-point iterates. Ground
// Applications built through the same ADT are hash-consed, so pointer
// comparison is the fast path; Equal is the fallback for Variables or for
// terms crossing ADT boundaries, which the fixed-point driver never
// actually encounters but which keeps this total.
func termIdentical(a, b Term) bool {
	if ap, ok := a.(*Application); ok {
		if bp, ok2 := b.(*Application); ok2 {
			return ap == bp
		}
	}
	return a.Equal(b)
}
