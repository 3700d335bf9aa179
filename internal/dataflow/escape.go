package dataflow

import "github.com/debtmap-go/debtmap/internal/cfg"

// Escape is the set of variables that flow to a Return value or are
// passed to a non-pure method call, per spec §4.3. ReturnVars is the
// return component specifically — seeded from Return terminators and
// propagated backward, without the method-call-argument component —
// since taint's return_tainted flag is defined over that component
// alone, not the full escape set.
type Escape struct {
	Vars       varSet
	ReturnVars varSet
}

// Escapes reports whether v is in the full escape set.
func (e Escape) Escapes(v cfg.VarID) bool { return e.Vars.has(v) }

// ReturnEscapes reports whether v is in the escape set's return
// component: reachable backward from a Return terminator's value,
// excluding variables that only escape via a non-pure method-call
// argument.
func (e Escape) ReturnEscapes(v cfg.VarID) bool { return e.ReturnVars.has(v) }

// AnalyzeEscape seeds the return component from every Return
// terminator's value, then propagates backward across Assign/Declare:
// any variable referenced in the Rvalue of a definition of an
// already-escaping variable also escapes. Arguments to a MethodCall
// whose method is not classified Pure escape unconditionally, since
// the callee may retain or mutate them, but that component is kept
// out of ReturnVars.
func AnalyzeEscape(g *cfg.ControlFlowGraph) Escape {
	returning := newVarSet()

	for _, b := range g.Blocks {
		if b.Term.Kind == cfg.TermReturn && b.Term.Value != nil {
			returning[*b.Term.Value] = true
		}
	}

	defsOf := definitionIndex(g)

	for changed := true; changed; {
		changed = false
		for v := range returning {
			stmt, ok := defsOf[v]
			if !ok {
				continue
			}
			for _, op := range stmt.Value.Operands {
				if !returning[op] {
					returning[op] = true
					changed = true
				}
			}
		}
	}

	escaping := newVarSet()
	for v := range returning {
		escaping[v] = true
	}

	for _, b := range g.Blocks {
		for _, stmt := range b.Stmts {
			if stmt.Value.Kind != cfg.RMethodCall {
				continue
			}
			if stmt.Value.IsPure == cfg.PurityPure {
				continue
			}
			for _, op := range stmt.Value.Operands {
				if !escaping[op] {
					escaping[op] = true
				}
			}
		}
	}

	return Escape{Vars: escaping, ReturnVars: returning}
}

// definitionIndex maps each defined VarID to the statement that
// defines it. A FunctionId's variables are each defined exactly once
// under SSA, so this is a total function over defined variables.
func definitionIndex(g *cfg.ControlFlowGraph) map[cfg.VarID]cfg.Stmt {
	idx := make(map[cfg.VarID]cfg.Stmt)
	for _, b := range g.Blocks {
		for _, stmt := range b.Stmts {
			if stmt.Kind == cfg.StmtAssign || stmt.Kind == cfg.StmtDeclare {
				idx[stmt.Target] = stmt
			}
		}
	}
	return idx
}
