package stratagem

import (
	"context"
	"fmt"
)

// FixPoint drives s to a fixed point starting from t (§4.G): s is applied
// repeatedly until it fails (the previous iterate is the answer) or
// reaches a term identical, by hash-cons identity, to the one before it.
// It is FixPointStrategy's top-level counterpart, usable without first
// wrapping s in a declared strategy. Cancelling ctx between iterations
// returns ErrCancelled.
func FixPoint(ctx context.Context, s Strategy, ts *TransitionSystem, t Term) (Term, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result, _, err := iterateFixPoint(ctx, ts, newEnv(), s, t)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, err
	}
	return result, nil
}

// Saturate is SaturationStrategy's top-level counterpart (§4.E, §4.G):
// it composes an outer fix over t with an inner fix confined to t's
// level-th child, the "optimisation, not new semantics" §4.G describes.
// The result is always a genuine fixed point of s — see iterateSaturation
// for why the child-local pass cannot change what the search converges to,
// only how it gets there. Cancelling ctx between steps returns
// ErrCancelled.
func Saturate(ctx context.Context, s Strategy, level int, ts *TransitionSystem, t Term) (Term, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result, _, err := iterateSaturation(ctx, ts, newEnv(), s, level, t)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, err
	}
	return result, nil
}

// Reach computes the reachable-state lattice fixed point of a declared,
// zero-parameter transition strategy over initial (§1: "computes the
// reachable state space"; §2: "the fixed-point driver (G) iterates t ⊔
// R(t) until stable"; §4.G: "fix(f)(x) iterates x_{i+1} := x_i ∪ f(x_i)").
// f(S) is the image of strategyName's body over every term currently in
// S, computed one term at a time through the same evaluator Rewrite uses;
// the accumulation and the convergence test are both lattice operations
// (§4.F), so Reach is what actually makes Component F's memoised ∪/∩/\
// earn their keep instead of sitting behind unit tests alone.
//
// Convergence is reached once a round contributes no term that is not
// already in the running set — computed as image \ (image ∩ S), the
// standard two-step expansion of set difference. Each round goes through
// ∩ and \, and a round that finds fresh terms through ∪ as well; an
// operation short-circuited on ⊥ (§4.F) does not consult its cache.
func Reach(ctx context.Context, ts *TransitionSystem, strategyName string, initial *TermSetElement) (*TermSetElement, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	decl, ok := ts.Lookup(strategyName)
	if !ok {
		return nil, fmt.Errorf("stratagem: unknown strategy %q", strategyName)
	}
	if len(decl.Formals) != 0 {
		return nil, fmt.Errorf("stratagem: strategy %q takes parameters; Reach requires a zero-parameter transition strategy", strategyName)
	}
	if initial == nil {
		return nil, newBadSignatureError("reach: initial term set must not be nil")
	}
	if initial.ADT() != ts.ADT() {
		return nil, newBadTermError("reach: initial term set belongs to a different ADT than ts")
	}

	cur := initial
	for {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		image, err := imageOf(ctx, ts, decl.Body, cur)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			return nil, err
		}
		overlap := image.Inter(cur).(*TermSetElement)
		fresh := image.Diff(overlap).(*TermSetElement)
		if fresh.Bottom() {
			return cur, nil
		}
		cur = cur.Union(fresh).(*TermSetElement)
	}
}

// imageOf applies body to every term currently in set, collecting the
// successful rewrites (§4.E's Fail outcomes simply contribute nothing to
// the image, the same way a SimpleStrategy with no matching rule drops
// out of a Union).
func imageOf(ctx context.Context, ts *TransitionSystem, body Strategy, set *TermSetElement) (*TermSetElement, error) {
	var out []Term
	for _, t := range set.Terms() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, ok, err := eval(ctx, ts, newEnv(), body, t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, res)
		}
	}
	return NewTermSet(set.ADT(), out...)
}
