// Package dataflow runs liveness, escape, and taint analysis over a
// internal/cfg.ControlFlowGraph. Every analysis here is a pure
// function of the graph: no I/O, no shared state, safe to run
// concurrently across functions (spec §5).
package dataflow

import (
	"github.com/debtmap-go/debtmap/internal/cfg"
)

// Liveness holds the per-block live-in/live-out sets and the
// function-wide dead-store set, per spec §4.2.
type Liveness struct {
	LiveIn     map[cfg.BlockID]varSet
	LiveOut    map[cfg.BlockID]varSet
	DeadStores []cfg.VarID
}

type varSet map[cfg.VarID]bool

func newVarSet() varSet { return make(varSet) }

func (s varSet) clone() varSet {
	out := make(varSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s varSet) union(other varSet) bool {
	changed := false
	for k := range other {
		if !s[k] {
			s[k] = true
			changed = true
		}
	}
	return changed
}

func (s varSet) has(v cfg.VarID) bool { return s[v] }

// AnalyzeLiveness computes live_in/live_out for every block by
// backward fixed-point iteration, then derives dead stores: a
// definition of v in block B is dead if v is not in live_out[B] and no
// later instruction in B uses it first.
func AnalyzeLiveness(g *cfg.ControlFlowGraph) Liveness {
	use, def := useDefSets(g)

	liveIn := make(map[cfg.BlockID]varSet, len(g.Blocks))
	liveOut := make(map[cfg.BlockID]varSet, len(g.Blocks))
	for _, b := range g.Blocks {
		liveIn[b.ID] = newVarSet()
		liveOut[b.ID] = newVarSet()
	}

	order := reversePostOrder(g)

	for changed := true; changed; {
		changed = false
		for _, id := range order {
			out := newVarSet()
			for _, succ := range g.Successors(id) {
				out.union(liveIn[succ])
			}
			liveOut[id] = out

			in := out.clone()
			for v := range def[id] {
				delete(in, v)
			}
			in.union(use[id])

			if !setsEqual(liveIn[id], in) {
				liveIn[id] = in
				changed = true
			}
		}
	}

	var dead []cfg.VarID
	for _, b := range g.Blocks {
		dead = append(dead, deadStoresInBlock(b, liveOut[b.ID])...)
	}

	return Liveness{LiveIn: liveIn, LiveOut: liveOut, DeadStores: dead}
}

func setsEqual(a, b varSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// useDefSets computes per-block use/def sets following the spec's
// left-to-right rule: a use counts only if the variable isn't already
// defined earlier in the same block.
func useDefSets(g *cfg.ControlFlowGraph) (use, def map[cfg.BlockID]varSet) {
	use = make(map[cfg.BlockID]varSet, len(g.Blocks))
	def = make(map[cfg.BlockID]varSet, len(g.Blocks))

	for _, b := range g.Blocks {
		u, d := newVarSet(), newVarSet()
		for _, stmt := range b.Stmts {
			switch stmt.Kind {
			case cfg.StmtAssign:
				for _, op := range stmt.Value.Operands {
					if !d[op] {
						u[op] = true
					}
				}
				d[stmt.Target] = true
			case cfg.StmtDeclare:
				for _, op := range stmt.Value.Operands {
					if !d[op] {
						u[op] = true
					}
				}
				d[stmt.Target] = true
			case cfg.StmtExpr:
				for _, op := range stmt.Value.Operands {
					if !d[op] {
						u[op] = true
					}
				}
			}
		}
		switch b.Term.Kind {
		case cfg.TermBranch:
			if !d[b.Term.Cond] {
				u[b.Term.Cond] = true
			}
		case cfg.TermReturn:
			if b.Term.Value != nil && !d[*b.Term.Value] {
				u[*b.Term.Value] = true
			}
		case cfg.TermMatch:
			if !d[b.Term.Scrutinee] {
				u[b.Term.Scrutinee] = true
			}
		}
		use[b.ID] = u
		def[b.ID] = d
	}
	return use, def
}

// deadStoresInBlock finds definitions in b that are neither in
// live_out[b] nor used by a later statement in the same block.
func deadStoresInBlock(b *cfg.Block, liveOut varSet) []cfg.VarID {
	var dead []cfg.VarID
	for i, stmt := range b.Stmts {
		if stmt.Kind != cfg.StmtAssign && stmt.Kind != cfg.StmtDeclare {
			continue
		}
		if liveOut.has(stmt.Target) {
			continue
		}
		if usedLaterInBlock(b, i+1, stmt.Target) {
			continue
		}
		if usedInTerminator(b, stmt.Target) {
			continue
		}
		dead = append(dead, stmt.Target)
	}
	return dead
}

func usedLaterInBlock(b *cfg.Block, from int, v cfg.VarID) bool {
	for i := from; i < len(b.Stmts); i++ {
		for _, op := range b.Stmts[i].Value.Operands {
			if op == v {
				return true
			}
		}
		if b.Stmts[i].Source == v {
			return true
		}
	}
	return false
}

func usedInTerminator(b *cfg.Block, v cfg.VarID) bool {
	switch b.Term.Kind {
	case cfg.TermBranch:
		return b.Term.Cond == v
	case cfg.TermReturn:
		return b.Term.Value != nil && *b.Term.Value == v
	case cfg.TermMatch:
		return b.Term.Scrutinee == v
	}
	return false
}

// reversePostOrder walks the CFG from its entry block and returns
// block IDs in reverse postorder, which converges a backward dataflow
// fixed-point fastest. Blocks unreachable from entry are appended
// afterward so every block is still visited at least once.
func reversePostOrder(g *cfg.ControlFlowGraph) []cfg.BlockID {
	visited := make(map[cfg.BlockID]bool, len(g.Blocks))
	var post []cfg.BlockID

	var visit func(id cfg.BlockID)
	visit = func(id cfg.BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, succ := range g.Successors(id) {
			visit(succ)
		}
		post = append(post, id)
	}
	visit(g.Entry)

	for _, b := range g.Blocks {
		if !visited[b.ID] {
			visit(b.ID)
		}
	}

	out := make([]cfg.BlockID, len(post))
	for i, id := range post {
		out[len(post)-1-i] = id
	}
	return out
}
