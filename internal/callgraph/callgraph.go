// Package callgraph builds and queries a directed multigraph over
// FunctionIds (spec §4.6): add_function/add_call, O(1) caller/callee
// lookups, BFS transitive queries, location lookups, and the
// caller-classification heuristic chain.
package callgraph

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/debtmap-go/debtmap/internal/model"
)

// EdgeKind mirrors the spec's call-edge label.
type EdgeKind int

const (
	Direct EdgeKind = iota
	Delegate
	Dynamic
)

type edge struct {
	callee model.FunctionID
	kind   EdgeKind
}

type functionInfo struct {
	id         model.FunctionID
	isEntry    bool
	isTest     bool
	cyclomatic uint32
	length     int
	index      uint32 // stable roaring-bitmap index
}

// Graph is the call graph: adjacency maps plus indexes for entry/test
// flags and file-line lookups.
type Graph struct {
	functions map[model.FunctionID]*functionInfo
	callers   map[model.FunctionID][]edge
	callees   map[model.FunctionID][]edge
	byFile    map[string][]model.FunctionID
	byName    map[string][]model.FunctionID
	nextIndex uint32
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		functions: make(map[model.FunctionID]*functionInfo),
		callers:   make(map[model.FunctionID][]edge),
		callees:   make(map[model.FunctionID][]edge),
		byFile:    make(map[string][]model.FunctionID),
		byName:    make(map[string][]model.FunctionID),
	}
}

// AddFunction records a function. Re-adding the same FunctionID is a
// no-op (spec invariant: at most one FunctionMetrics record per id).
func (g *Graph) AddFunction(id model.FunctionID, isEntry, isTest bool, cyclomatic uint32, length int) {
	if _, ok := g.functions[id]; ok {
		return
	}
	idx := g.nextIndex
	g.nextIndex++
	g.functions[id] = &functionInfo{id: id, isEntry: isEntry, isTest: isTest, cyclomatic: cyclomatic, length: length, index: idx}
	g.byFile[id.File] = append(g.byFile[id.File], id)
	g.byName[id.Name] = append(g.byName[id.Name], id)
}

// AddCall records an edge. Both endpoints must already be known via
// AddFunction, per spec's "the core only constructs derived indexes".
func (g *Graph) AddCall(caller, callee model.FunctionID, kind EdgeKind) {
	g.callees[caller] = append(g.callees[caller], edge{callee: callee, kind: kind})
	g.callers[callee] = append(g.callers[callee], edge{callee: caller, kind: kind})
}

// CallersOf returns the direct callers of id.
func (g *Graph) CallersOf(id model.FunctionID) []model.FunctionID {
	edges := g.callers[id]
	out := make([]model.FunctionID, len(edges))
	for i, e := range edges {
		out[i] = e.callee
	}
	return out
}

// CalleesOf returns the direct callees of id.
func (g *Graph) CalleesOf(id model.FunctionID) []model.FunctionID {
	edges := g.callees[id]
	out := make([]model.FunctionID, len(edges))
	for i, e := range edges {
		out[i] = e.callee
	}
	return out
}

// IsTest reports whether id was added with is_test=true.
func (g *Graph) IsTest(id model.FunctionID) bool {
	fn, ok := g.functions[id]
	return ok && fn.isTest
}

// IsEntry reports whether id was added with is_entry=true.
func (g *Graph) IsEntry(id model.FunctionID) bool {
	fn, ok := g.functions[id]
	return ok && fn.isEntry
}

// Has reports whether id is known to the graph.
func (g *Graph) Has(id model.FunctionID) bool {
	_, ok := g.functions[id]
	return ok
}

// TransitiveCallees runs BFS over the callee adjacency with a
// roaring-bitmap visited set for cycle protection. depth 0 returns
// empty, matching the spec exactly.
func (g *Graph) TransitiveCallees(id model.FunctionID, maxDepth int) []model.FunctionID {
	return g.transitiveBFS(id, maxDepth, g.CalleesOf)
}

// TransitiveCallers is the mirror of TransitiveCallees over the caller
// adjacency.
func (g *Graph) TransitiveCallers(id model.FunctionID, maxDepth int) []model.FunctionID {
	return g.transitiveBFS(id, maxDepth, g.CallersOf)
}

func (g *Graph) transitiveBFS(start model.FunctionID, maxDepth int, next func(model.FunctionID) []model.FunctionID) []model.FunctionID {
	if maxDepth <= 0 {
		return nil
	}

	visited := roaring.New()
	if fn, ok := g.functions[start]; ok {
		visited.Add(fn.index)
	}

	type frontierEntry struct {
		id    model.FunctionID
		depth int
	}
	queue := []frontierEntry{{id: start, depth: 0}}
	var out []model.FunctionID

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, n := range next(cur.id) {
			fn, ok := g.functions[n]
			if ok && visited.Contains(fn.index) {
				continue
			}
			if ok {
				visited.Add(fn.index)
			}
			out = append(out, n)
			queue = append(queue, frontierEntry{id: n, depth: cur.depth + 1})
		}
	}
	return out
}

// FindFunctionAtLocation returns the function in file whose start line
// is the nearest one at or before line. The function's end line is not
// checked, so a line past the end of a function still maps to it.
func (g *Graph) FindFunctionAtLocation(file string, line int) (model.FunctionID, bool) {
	var best model.FunctionID
	found := false
	for _, id := range g.byFile[file] {
		if id.Line <= line && (!found || id.Line > best.Line) {
			best = id
			found = true
		}
	}
	return best, found
}

// ResolveName performs cross-file name matching: exact match first,
// then suffix-of-qualified-name, then base-name.
func (g *Graph) ResolveName(name string) []model.FunctionID {
	if exact, ok := g.byName[name]; ok {
		return exact
	}

	qualifiedNames := make([]string, 0, len(g.byName))
	for qualified := range g.byName {
		qualifiedNames = append(qualifiedNames, qualified)
	}
	sort.Strings(qualifiedNames)

	var suffixMatches []model.FunctionID
	for _, qualified := range qualifiedNames {
		if strings.HasSuffix(qualified, "::"+name) || strings.HasSuffix(qualified, "."+name) {
			suffixMatches = append(suffixMatches, g.byName[qualified]...)
		}
	}
	if len(suffixMatches) > 0 {
		return suffixMatches
	}

	base := baseName(name)
	if base != name {
		return g.byName[base]
	}
	return nil
}

func baseName(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// LookupByFileAndName finds a known function by file path and name,
// ignoring line number — used when a caller string carries no line
// (e.g. "file::func" from a diagnostic or a config override).
func (g *Graph) LookupByFileAndName(file, name string) (model.FunctionID, bool) {
	for _, id := range g.byFile[file] {
		if id.Name == name {
			return id, true
		}
	}
	return model.FunctionID{}, false
}

// IsTestHelper reports whether every caller of id is a test function
// and id has at least one caller.
func (g *Graph) IsTestHelper(id model.FunctionID) bool {
	callers := g.CallersOf(id)
	if len(callers) == 0 {
		return false
	}
	for _, c := range callers {
		if !g.IsTest(c) {
			return false
		}
	}
	return true
}
