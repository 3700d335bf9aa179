package dataflow

import "github.com/debtmap-go/debtmap/internal/cfg"

// UnknownCallPolicy controls how a call to a function of unresolved
// purity affects taint propagation (spec §4.3, configuration §6).
// Conservative is the documented default.
type UnknownCallPolicy int

const (
	Conservative UnknownCallPolicy = iota
	Optimistic
)

// Taint is the set of tainted variables plus the function-level
// return_tainted flag, per spec §4.3.
type Taint struct {
	Vars          varSet
	ReturnTainted bool
}

// Tainted reports whether v is in the taint set.
func (t Taint) Tainted(v cfg.VarID) bool { return t.Vars.has(v) }

// AnalyzeTaint seeds no variables initially — taint is introduced by
// whatever consumes this analysis by pre-marking untrusted sources in
// seed. It then runs to a fixed point: if any operand of an
// Assign/Declare's Rvalue is tainted, the target becomes tainted.
// Calls to known-Pure functions propagate taint only through their
// arguments; known-Impure calls always taint their result; Unknown
// calls follow policy. After the fixed point, dead stores are removed
// from the taint set since they cannot leak. return_tainted is true
// iff some tainted variable also escapes through a Return.
func AnalyzeTaint(g *cfg.ControlFlowGraph, seed []cfg.VarID, policy UnknownCallPolicy, escape Escape, live Liveness) Taint {
	tainted := newVarSet()
	for _, v := range seed {
		tainted[v] = true
	}

	for changed := true; changed; {
		changed = false
		for _, b := range g.Blocks {
			for _, stmt := range b.Stmts {
				if stmt.Kind != cfg.StmtAssign && stmt.Kind != cfg.StmtDeclare {
					continue
				}
				if tainted[stmt.Target] {
					continue
				}
				if targetTaints(stmt.Value, tainted, policy) {
					tainted[stmt.Target] = true
					changed = true
				}
			}
		}
	}

	deadSet := newVarSet()
	for _, v := range live.DeadStores {
		deadSet[v] = true
	}
	for v := range deadSet {
		delete(tainted, v)
	}

	returnTainted := false
	for v := range tainted {
		if escape.ReturnEscapes(v) {
			returnTainted = true
			break
		}
	}

	return Taint{Vars: tainted, ReturnTainted: returnTainted}
}

func targetTaints(rv cfg.Rvalue, tainted varSet, policy UnknownCallPolicy) bool {
	anyOperandTainted := func() bool {
		for _, op := range rv.Operands {
			if tainted[op] {
				return true
			}
		}
		return false
	}

	switch rv.Kind {
	case cfg.RCall, cfg.RMethodCall:
		switch rv.IsPure {
		case cfg.PurityPure:
			return anyOperandTainted()
		case cfg.PurityImpure:
			return true
		default: // Unknown
			if policy == Conservative {
				return true
			}
			return anyOperandTainted()
		}
	default:
		return anyOperandTainted()
	}
}
