package stratagem

import (
	"strconv"
	"strings"
)

// Rule is a single rewrite equation: a left-hand pattern and a right-hand
// pattern, used inside a SimpleStrategy (§3).
type Rule struct {
	LHS Term
	RHS Term
}

func (r Rule) String() string {
	return r.LHS.String() + " -> " + r.RHS.String()
}

// Strategy is the tagged variant of the rewriting-strategy algebra (§3).
// Printing is canonical and stable — error messages in the linker quote
// Strategy.String() verbatim, so the format here must not change
// casually once observed by a test.
type Strategy interface {
	strategyNode()
	String() string
}

// StrategyParam is a formal variable-strategy parameter of a
// DeclaredStrategy. Two params are "the same" only by pointer identity,
// exactly as required by the linker's variable-strategy check (§3, §4.D)
// — there is deliberately no name-based Equal.
type StrategyParam struct {
	name string
}

// NewStrategyParam creates a fresh formal parameter.
func NewStrategyParam(name string) *StrategyParam {
	return &StrategyParam{name: name}
}

// Name returns the formal parameter's declared name, used only for
// diagnostics (identity, not name, is what matters for binding).
func (p *StrategyParam) Name() string { return p.name }

func (p *StrategyParam) String() string { return p.name }

// ---- concrete AST nodes ----

type failStrategy struct{}

func (failStrategy) strategyNode()   {}
func (failStrategy) String() string { return "Fail" }

// Fail is the strategy that always fails.
func Fail() Strategy { return failStrategy{} }

type identityStrategy struct{}

func (identityStrategy) strategyNode()   {}
func (identityStrategy) String() string { return "Identity" }

// Identity is the strategy that always succeeds, returning the term
// unchanged.
func Identity() Strategy { return identityStrategy{} }

type simpleStrategy struct {
	rules []Rule
}

func (simpleStrategy) strategyNode() {}
func (s simpleStrategy) String() string {
	parts := make([]string, len(s.rules))
	for i, r := range s.rules {
		parts[i] = r.String()
	}
	return "SimpleStrategy(" + strings.Join(parts, "; ") + ")"
}

// Simple builds a SimpleStrategy from a non-empty, ordered list of rules.
// It panics if rules is empty — a SimpleStrategy with no rules is not a
// well-formed strategy under §3 and constructing one is always a
// programming error, not a runtime condition to recover from.
func Simple(rules ...Rule) Strategy {
	if len(rules) == 0 {
		panic("stratagem: Simple requires at least one rule")
	}
	return simpleStrategy{rules: append([]Rule(nil), rules...)}
}

// Rules returns the ordered rule list of a SimpleStrategy, or (nil, false)
// if s is not one.
func Rules(s Strategy) ([]Rule, bool) {
	ss, ok := s.(simpleStrategy)
	if !ok {
		return nil, false
	}
	return ss.rules, true
}

type choiceStrategy struct{ s1, s2 Strategy }

func (choiceStrategy) strategyNode() {}
func (c choiceStrategy) String() string {
	return "Choice(" + c.s1.String() + ", " + c.s2.String() + ")"
}

// Choice evaluates s1; if it succeeds, its result is returned, otherwise
// s2 is evaluated.
func Choice(s1, s2 Strategy) Strategy { return choiceStrategy{s1: s1, s2: s2} }

type sequenceStrategy struct{ s1, s2 Strategy }

func (sequenceStrategy) strategyNode() {}
func (s sequenceStrategy) String() string {
	return "Sequence(" + s.s1.String() + ", " + s.s2.String() + ")"
}

// Sequence evaluates s1, then s2 on s1's result; it fails if either does.
func Sequence(s1, s2 Strategy) Strategy { return sequenceStrategy{s1: s1, s2: s2} }

type unionStrategy struct{ s1, s2 Strategy }

func (unionStrategy) strategyNode() {}
func (u unionStrategy) String() string {
	return "Union(" + u.s1.String() + ", " + u.s2.String() + ")"
}

// Union evaluates s1 and s2 and lifts both results into the lattice,
// returning their union (§4.E).
func Union(s1, s2 Strategy) Strategy { return unionStrategy{s1: s1, s2: s2} }

type ifThenElseStrategy struct{ cond, then, els Strategy }

func (ifThenElseStrategy) strategyNode() {}
func (i ifThenElseStrategy) String() string {
	return "IfThenElse(" + i.cond.String() + ", " + i.then.String() + ", " + i.els.String() + ")"
}

// IfThenElse evaluates cond on t; if it succeeds, then is evaluated on
// the *original* t (not on cond's result), otherwise els is (§4.E).
func IfThenElse(cond, then, els Strategy) Strategy {
	return ifThenElseStrategy{cond: cond, then: then, els: els}
}

type oneStrategy struct {
	s Strategy
	k int
}

func (oneStrategy) strategyNode() {}
func (o oneStrategy) String() string {
	return "One(" + o.s.String() + ", " + strconv.Itoa(o.k) + ")"
}

// One applies s to the k-th (one-based) child of the term, structurally
// replacing that child with the result; it fails on an arity-0 term.
// When k is omitted, child 1 is used (§9, Open Question: the omission
// default is fixed here as 1 and must be honoured uniformly by any
// collaborator, e.g. the Petri-net compiler, relying on it).
func One(s Strategy, k ...int) Strategy {
	idx := 1
	if len(k) > 0 {
		idx = k[0]
	}
	return oneStrategy{s: s, k: idx}
}

type notStrategy struct{ s Strategy }

func (notStrategy) strategyNode()   {}
func (n notStrategy) String() string { return "Not(" + n.s.String() + ")" }

// Not succeeds with the original term iff s fails. Subject to the
// Not-context restriction enforced by the linker (§4.D).
func Not(s Strategy) Strategy { return notStrategy{s: s} }

type tryStrategy struct{ s Strategy }

func (tryStrategy) strategyNode()   {}
func (t tryStrategy) String() string { return "Try(" + t.s.String() + ")" }

// Try is the library-supplied, always-succeeding variant of s:
// semantically apply(Try(s), t) = apply(Choice(s, Identity), t) (§4.E),
// but Try remains its own AST tag (§3) — in particular it is not one of
// the forms admitted under Not (§4.D).
func Try(s Strategy) Strategy { return tryStrategy{s: s} }

type fixPointStrategy struct{ s Strategy }

func (fixPointStrategy) strategyNode()   {}
func (f fixPointStrategy) String() string { return "FixPointStrategy(" + f.s.String() + ")" }

// FixPointStrategy repeatedly applies s until it fails or reaches a term
// equal (by hash-cons identity) to the previous iterate (§4.E, §4.G).
func FixPointStrategy(s Strategy) Strategy { return fixPointStrategy{s: s} }

type saturationStrategy struct {
	s     Strategy
	level int
}

func (saturationStrategy) strategyNode() {}
func (s saturationStrategy) String() string {
	return "Saturation(" + s.s.String() + ", " + strconv.Itoa(s.level) + ")"
}

// SaturationStrategy is semantically equivalent to FixPointStrategy(s) on
// a single term; it names the structural level at which the lattice
// representation performs the fixed-point search (§4.E, §4.G).
func SaturationStrategy(s Strategy, level int) Strategy {
	return saturationStrategy{s: s, level: level}
}

type variableStrategy struct{ param *StrategyParam }

func (variableStrategy) strategyNode()   {}
func (v variableStrategy) String() string { return v.param.name }

// VarStrategy references a formal parameter of the enclosing declared
// strategy. It must be the same *StrategyParam object as one of the
// enclosing declaration's formals (§3) — the linker rejects anything
// else (§4.D).
func VarStrategy(param *StrategyParam) Strategy { return variableStrategy{param: param} }

// Param returns the referenced formal, or (nil, false) if s is not a
// variable strategy.
func Param(s Strategy) (*StrategyParam, bool) {
	v, ok := s.(variableStrategy)
	if !ok {
		return nil, false
	}
	return v.param, true
}

type declaredStrategyInstance struct {
	name    string
	actuals []Strategy
}

func (declaredStrategyInstance) strategyNode() {}
func (d declaredStrategyInstance) String() string {
	parts := make([]string, len(d.actuals))
	for i, a := range d.actuals {
		parts[i] = a.String()
	}
	return d.name + "(" + strings.Join(parts, ", ") + ")"
}

// Call references a declared strategy by name with the given actual
// parameters (§3: DeclaredStrategyInstance). Actuals are themselves
// strategies — typically a VarStrategy passing a formal through, or a
// concrete strategy being supplied for the first time.
func Call(name string, actuals ...Strategy) Strategy {
	return declaredStrategyInstance{name: name, actuals: append([]Strategy(nil), actuals...)}
}

// CallInfo reports the name and actuals of a declared-strategy
// invocation, or ok=false if s is not one.
func CallInfo(s Strategy) (name string, actuals []Strategy, ok bool) {
	d, isCall := s.(declaredStrategyInstance)
	if !isCall {
		return "", nil, false
	}
	return d.name, append([]Strategy(nil), d.actuals...), true
}

// Repeat ≡ Try(Sequence(s, Repeat(s))) (§4.E). This equation is literally
// cyclic at the AST level, so Repeat cannot be a finite Strategy value on
// its own (§9, Design Notes): it is realized through a TransitionSystem's
// declared-strategy table, see (*TransitionSystem).Repeat.

// children lists the direct sub-strategies of s; the linker uses it to walk
// every combinator it has no dedicated case for.
func children(s Strategy) []Strategy {
	switch v := s.(type) {
	case choiceStrategy:
		return []Strategy{v.s1, v.s2}
	case sequenceStrategy:
		return []Strategy{v.s1, v.s2}
	case unionStrategy:
		return []Strategy{v.s1, v.s2}
	case ifThenElseStrategy:
		return []Strategy{v.cond, v.then, v.els}
	case oneStrategy:
		return []Strategy{v.s}
	case notStrategy:
		return []Strategy{v.s}
	case tryStrategy:
		return []Strategy{v.s}
	case fixPointStrategy:
		return []Strategy{v.s}
	case saturationStrategy:
		return []Strategy{v.s}
	case declaredStrategyInstance:
		return append([]Strategy(nil), v.actuals...)
	default:
		return nil
	}
}

// DeclaredStrategy is a named strategy declaration: a label, an ordered
// list of formal variable-strategy parameters, and a body (§3).
type DeclaredStrategy struct {
	Name         string
	Formals      []*StrategyParam
	Body         Strategy
	IsTransition bool
}

// ApplyOnce applies s to exactly one child of the state term (the first
// by convention, see One's default), matching the single-transition
// building block the Petri-net compiler synthesises over this API (§6).
func ApplyOnce(s Strategy) Strategy { return One(s, 1) }

// ApplyOnceAndThen applies s to one child and continues with next on the
// resulting term (§6).
func ApplyOnceAndThen(s, next Strategy) Strategy {
	return Sequence(ApplyOnce(s), next)
}
