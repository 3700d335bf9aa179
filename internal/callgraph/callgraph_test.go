package callgraph

import (
	"testing"

	"github.com/debtmap-go/debtmap/internal/model"
)

func fid(file, name string, line int) model.FunctionID {
	return model.FunctionID{File: file, Name: name, Line: line}
}

func TestTransitiveCallees_DepthZeroIsEmpty(t *testing.T) {
	g := New()
	a, b := fid("a.go", "a", 1), fid("a.go", "b", 10)
	g.AddFunction(a, false, false, 1, 5)
	g.AddFunction(b, false, false, 1, 5)
	g.AddCall(a, b, Direct)

	if out := g.TransitiveCallees(a, 0); len(out) != 0 {
		t.Errorf("depth 0 should return empty, got %v", out)
	}
}

func TestTransitiveCallees_CycleProtected(t *testing.T) {
	g := New()
	a, b, c := fid("a.go", "a", 1), fid("a.go", "b", 10), fid("a.go", "c", 20)
	g.AddFunction(a, true, false, 1, 5)
	g.AddFunction(b, false, false, 1, 5)
	g.AddFunction(c, false, false, 1, 5)
	g.AddCall(a, b, Direct)
	g.AddCall(b, c, Direct)
	g.AddCall(c, a, Direct) // cycle back to a

	out := g.TransitiveCallees(a, 10)
	if len(out) == 0 {
		t.Fatal("expected transitive callees to include b and c")
	}
	seen := map[model.FunctionID]int{}
	for _, id := range out {
		seen[id]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("function %v visited %d times; BFS must not loop on a cycle", id, count)
		}
	}
}

func TestIsTestHelper(t *testing.T) {
	g := New()
	helper := fid("helper.go", "setupFixture", 1)
	test1 := fid("a_test.go", "TestOne", 1)
	test2 := fid("b_test.go", "TestTwo", 1)
	g.AddFunction(helper, false, false, 1, 5)
	g.AddFunction(test1, false, true, 1, 5)
	g.AddFunction(test2, false, true, 1, 5)
	g.AddCall(test1, helper, Direct)
	g.AddCall(test2, helper, Direct)

	if !g.IsTestHelper(helper) {
		t.Error("expected helper called only by test functions to be a test helper")
	}
}

func TestIsTestHelper_FalseWithNoCallers(t *testing.T) {
	g := New()
	orphan := fid("a.go", "orphan", 1)
	g.AddFunction(orphan, false, false, 1, 5)

	if g.IsTestHelper(orphan) {
		t.Error("a function with no callers is not a test helper")
	}
}

func TestFindFunctionAtLocation_NearestPrecedingStart(t *testing.T) {
	g := New()
	g.AddFunction(fid("a.go", "first", 1), false, false, 1, 5)
	g.AddFunction(fid("a.go", "second", 20), false, false, 1, 5)

	got, ok := g.FindFunctionAtLocation("a.go", 25)
	if !ok || got.Name != "second" {
		t.Errorf("FindFunctionAtLocation(25) = %v, want 'second'", got)
	}
}

func TestResolveName_SuffixThenBase(t *testing.T) {
	g := New()
	g.AddFunction(fid("a.go", "mod::T::m", 1), false, false, 1, 5)

	if matches := g.ResolveName("T::m"); len(matches) == 0 {
		t.Error("expected suffix match for 'T::m'")
	}
}
