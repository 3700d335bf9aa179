package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Cycle is one circular dependency path the aggregator reports.
type Cycle struct {
	Files []string
}

// DetectCycles finds circular dependencies in the module graph via
// Tarjan's SCC algorithm: every strongly connected component with
// more than one node is a cycle (spec §4.9 — "DFS on the module
// graph; each back-edge produces a cycle path"; Tarjan's algorithm is
// DFS-based and gives the same cycle membership without the
// unbounded-recursion risk flagged in spec §9).
func DetectCycles(edges []CrossFileEdge) []Cycle {
	g := simple.NewDirectedGraph()

	idOf := make(map[string]int64)
	nameOf := make(map[int64]string)
	nodeID := func(name string) int64 {
		if id, ok := idOf[name]; ok {
			return id
		}
		id := int64(len(idOf))
		idOf[name] = id
		nameOf[id] = name
		g.AddNode(simple.Node(id))
		return id
	}

	for _, e := range edges {
		from, to := nodeID(e.FromFile), nodeID(e.ToFile)
		if from == to {
			continue
		}
		if !g.HasEdgeFromTo(from, to) {
			g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}

	var cycles []Cycle
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) <= 1 {
			continue
		}
		var files []string
		for _, n := range scc {
			files = append(files, nameOf[n.ID()])
		}
		sort.Strings(files)
		cycles = append(cycles, Cycle{Files: files})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cyclesKey(cycles[i]) < cyclesKey(cycles[j])
	})

	return cycles
}

func cyclesKey(c Cycle) string {
	if len(c.Files) == 0 {
		return ""
	}
	return c.Files[0]
}
