package stratagem

import (
	"context"
	"testing"
)

func TestRewriteIdentityAndFail(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	ts, _ := NewTransitionSystem(adt, zero)
	if err := ts.DeclareStrategy("id", nil, Identity(), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	if err := ts.DeclareStrategy("fail", nil, Fail(), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	res, ok, err := Rewrite(context.Background(), ts, "id", zero)
	if err != nil || !ok || res != zero {
		t.Fatalf("Rewrite(id,zero) = (%v,%v,%v), want (zero,true,nil)", res, ok, err)
	}

	_, ok, err = Rewrite(context.Background(), ts, "fail", zero)
	if err != nil || ok {
		t.Fatalf("Rewrite(fail,zero) = (_,%v,%v), want (_,false,nil)", ok, err)
	}
}

func TestRewriteSimpleStrategyFirstMatchWins(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	two, _ := adt.Term("succ", one)

	ts, _ := NewTransitionSystem(adt, zero)
	rules := Simple(
		Rule{LHS: zero, RHS: one},
		Rule{LHS: zero, RHS: two}, // unreachable: first rule already matches zero
	)
	if err := ts.DeclareStrategy("inc", nil, rules, true); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	res, ok, err := Rewrite(context.Background(), ts, "inc", zero)
	if err != nil || !ok || res != one {
		t.Fatalf("Rewrite(inc,zero) = (%v,%v,%v), want (one,true,nil)", res, ok, err)
	}

	_, ok, err = Rewrite(context.Background(), ts, "inc", one)
	if err != nil || ok {
		t.Fatalf("inc must fail on succ(zero): no rule matches it")
	}
}

func TestRewriteSequenceIdentityLaws(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)

	ts, _ := NewTransitionSystem(adt, zero)
	rule := Simple(Rule{LHS: zero, RHS: one})
	if err := ts.DeclareStrategy("leftId", nil, Sequence(Identity(), rule), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	if err := ts.DeclareStrategy("rightId", nil, Sequence(rule, Identity()), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	r1, ok1, err1 := Rewrite(context.Background(), ts, "leftId", zero)
	r2, ok2, err2 := Rewrite(context.Background(), ts, "rightId", zero)
	if err1 != nil || err2 != nil || !ok1 || !ok2 || r1 != one || r2 != one {
		t.Fatalf("Sequence(Identity,s) and Sequence(s,Identity) must both behave like s: got (%v,%v,%v) (%v,%v,%v)",
			r1, ok1, err1, r2, ok2, err2)
	}
}

func TestRewriteTryNeverFails(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	ts, _ := NewTransitionSystem(adt, zero)
	if err := ts.DeclareStrategy("tryFail", nil, Try(Fail()), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	res, ok, err := Rewrite(context.Background(), ts, "tryFail", zero)
	if err != nil || !ok || res != zero {
		t.Fatalf("Try(Fail) must succeed with the original term: got (%v,%v,%v)", res, ok, err)
	}
}

func TestRewriteNotInvertsSuccess(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	ts, _ := NewTransitionSystem(adt, zero)
	ok1Name := "notOfFail"
	ok2Name := "notOfIdentity"
	if err := ts.DeclareStrategy(ok1Name, nil, Not(Fail()), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	if err := ts.DeclareStrategy(ok2Name, nil, Not(Identity()), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	res, ok, err := Rewrite(context.Background(), ts, ok1Name, zero)
	if err != nil || !ok || res != zero {
		t.Fatalf("Not(Fail) must succeed with the original term: got (%v,%v,%v)", res, ok, err)
	}
	_, ok, err = Rewrite(context.Background(), ts, ok2Name, zero)
	if err != nil || ok {
		t.Fatalf("Not(Identity) must fail")
	}
}

func TestRewriteOneRewritesSelectedChild(t *testing.T) {
	sig, err := NewSignature().
		WithSort("Nat").
		WithGenerator("zero", "Nat").
		WithGenerator("succ", "Nat", "Nat").
		WithGenerator("pair", "Nat", "Nat", "Nat").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	adt, err := NewADT("PeanoPair", sig)
	if err != nil {
		t.Fatalf("NewADT: %v", err)
	}
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	p, err := adt.Term("pair", zero, zero)
	if err != nil {
		t.Fatalf("Term(pair,zero,zero): %v", err)
	}

	ts, _ := NewTransitionSystem(adt, p)
	incSecond := One(Simple(Rule{LHS: zero, RHS: one}), 2)
	if err := ts.DeclareStrategy("incSecond", nil, incSecond, true); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	res, ok, err := Rewrite(context.Background(), ts, "incSecond", p)
	if err != nil || !ok {
		t.Fatalf("Rewrite(incSecond,pair(zero,zero)) failed: %v %v", ok, err)
	}
	app := res.(*Application)
	if app.args[0] != zero || app.args[1] != one {
		t.Fatalf("One(s,2) must only rewrite the second child, got %s", res.String())
	}
}

func TestRewriteUndeclaredStrategyErrors(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	ts, _ := NewTransitionSystem(adt, zero)
	if _, _, err := Rewrite(context.Background(), ts, "nope", zero); err == nil {
		t.Fatalf("expected an error for an unknown strategy name")
	}
}

func TestRewriteUnionAgreeingBranches(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	ts, _ := NewTransitionSystem(adt, zero)
	rule := Simple(Rule{LHS: zero, RHS: one})
	if err := ts.DeclareStrategy("u", nil, Union(rule, rule), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	res, ok, err := Rewrite(context.Background(), ts, "u", zero)
	if err != nil || !ok || res != one {
		t.Fatalf("Union of two agreeing branches must collapse to their shared result: got (%v,%v,%v)", res, ok, err)
	}
}

func TestRewriteUnionDisagreeingBranchesErrors(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	two, _ := adt.Term("succ", one)
	ts, _ := NewTransitionSystem(adt, zero)
	s := Union(Simple(Rule{LHS: zero, RHS: one}), Simple(Rule{LHS: zero, RHS: two}))
	if err := ts.DeclareStrategy("u", nil, s, false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	if _, _, err := Rewrite(context.Background(), ts, "u", zero); err != ErrNonSingletonUnion {
		t.Fatalf("expected ErrNonSingletonUnion, got %v", err)
	}
}

func TestRewriteDeclaredStrategyWithParameter(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)
	ts, _ := NewTransitionSystem(adt, zero)

	param := NewStrategyParam("s")
	if err := ts.DeclareStrategy("twice", []*StrategyParam{param}, Sequence(VarStrategy(param), VarStrategy(param)), false); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}
	rule := Simple(Rule{LHS: zero, RHS: one})
	if err := ts.DeclareStrategy("main", nil, Call("twice", rule), true); err != nil {
		t.Fatalf("DeclareStrategy: %v", err)
	}

	// twice(s) runs s then s again; the second application of "zero -> one"
	// fails on one (no rule matches succ(zero)), so overall this must fail.
	_, ok, err := Rewrite(context.Background(), ts, "main", zero)
	if err != nil || ok {
		t.Fatalf("twice(zero->one) applied to zero must fail on its second step: got (%v,%v)", ok, err)
	}
}

func TestFixPointConvergesOnFailure(t *testing.T) {
	adt, _ := natADT(t)
	zero, _ := adt.Term("zero")
	one, _ := adt.Term("succ", zero)

	ts, _ := NewTransitionSystem(adt, zero)
	rule := Simple(Rule{LHS: zero, RHS: one})

	res, err := FixPoint(context.Background(), rule, ts, zero)
	if err != nil {
		t.Fatalf("FixPoint: %v", err)
	}
	if res != one {
		t.Fatalf("FixPoint(zero->one, zero) should converge to succ(zero) after one successful step, got %s", res.String())
	}
}

func TestFixPointRespectsCancellation(t *testing.T) {
	sig, err := NewSignature().
		WithSort("Nat").
		WithGenerator("zero", "Nat").
		WithGenerator("succ", "Nat", "Nat").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	adt2, err := NewADT("Peano3", sig)
	if err != nil {
		t.Fatalf("NewADT: %v", err)
	}
	zero, _ := adt2.Term("zero")
	if _, err := adt2.DeclareVariable("n", "Nat"); err != nil {
		t.Fatalf("DeclareVariable: %v", err)
	}
	nVar, _ := adt2.Var("n")
	succN, err := adt2.Term("succ", nVar)
	if err != nil {
		t.Fatalf("Term(succ,n): %v", err)
	}
	ts, _ := NewTransitionSystem(adt2, zero)
	// A strategy that always succeeds and always grows: n -> succ(n).
	growForever := Simple(Rule{LHS: nVar, RHS: succN})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FixPoint(ctx, growForever, ts, zero); err != ErrCancelled {
		t.Fatalf("expected ErrCancelled on an already-cancelled context, got %v", err)
	}
}
