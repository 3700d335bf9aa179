package dataflow

import (
	"testing"

	"github.com/debtmap-go/debtmap/internal/cfg"
	"github.com/debtmap-go/debtmap/pkg/parser"
)

func buildGraph(t *testing.T, src string) *cfg.ControlFlowGraph {
	t.Helper()
	p := parser.New()
	defer p.Close()

	result, err := p.Parse([]byte(src), parser.LangGo, "test.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	fns := parser.GetFunctions(result)
	if len(fns) == 0 {
		t.Fatalf("no functions found")
	}
	return cfg.Build(fns[0].Body, result.Source, result.Language, nil)
}

// TestLiveness_DeadStore mirrors spec scenario S6: `x := 1; x = x + 1;
// return x`. Neither definition of x is a dead store: the first feeds
// the second, and the second is returned.
func TestLiveness_DeadStore(t *testing.T) {
	g := buildGraph(t, `package main
func f() int {
	x := 1
	x = x + 1
	return x
}`)

	live := AnalyzeLiveness(g)

	if len(live.DeadStores) != 0 {
		t.Errorf("expected no dead stores, got %v", live.DeadStores)
	}
}

func TestLiveness_UnusedAssignmentIsDeadStore(t *testing.T) {
	g := buildGraph(t, `package main
func f() int {
	x := 1
	x = 2
	return 0
}`)

	live := AnalyzeLiveness(g)

	if len(live.DeadStores) == 0 {
		t.Error("expected at least one dead store for the unused reassignment")
	}
}

func TestLiveness_MonotonicConvergence(t *testing.T) {
	g := buildGraph(t, `package main
func f(n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum = sum + i
	}
	return sum
}`)

	// Running twice must be idempotent: liveness is a pure function of
	// the graph.
	first := AnalyzeLiveness(g)
	second := AnalyzeLiveness(g)

	if len(first.DeadStores) != len(second.DeadStores) {
		t.Error("liveness analysis is not idempotent across runs")
	}
}
