// Package aggregate rolls per-function results up to the file and
// project level: god-object detection, duplication reports, circular
// dependency detection, and final ranking (spec §4.9).
package aggregate

import (
	"sort"

	"github.com/debtmap-go/debtmap/internal/coupling"
	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/internal/scorer"
)

// FileRollup is the per-file summary the aggregator produces.
type FileRollup struct {
	File          string             `json:"file"`
	TotalLines    int                `json:"total_lines"`
	FunctionCount int                `json:"function_count"`
	Functions     []model.FunctionID `json:"functions"`
	IsGodObject   bool               `json:"is_god_object"`
	Dependencies  FileDependencies   `json:"dependencies"`
}

// FileDependencies mirrors the spec §6 serialization contract: exact
// field names are stable across versions.
type FileDependencies struct {
	AfferentCoupling       int      `json:"afferent_coupling"`
	EfferentCoupling       int      `json:"efferent_coupling"`
	Instability            float64  `json:"instability"`
	TotalCoupling          int      `json:"total_coupling"`
	TopDependents          []string `json:"top_dependents,omitempty"`
	TopDependencies        []string `json:"top_dependencies,omitempty"`
	CouplingClassification string   `json:"coupling_classification"`
}

// GodObjectThresholds controls per-file size-based debt detection.
type GodObjectThresholds struct {
	MaxFileLines     int
	MaxFunctionCount int
}

// DefaultGodObjectThresholds matches common pmat-compatible defaults
// used elsewhere in this pipeline's configuration.
func DefaultGodObjectThresholds() GodObjectThresholds {
	return GodObjectThresholds{MaxFileLines: 1000, MaxFunctionCount: 50}
}

// CrossFileEdge is one cross-file call used to compute afferent/
// efferent coupling for the per-file rollup.
type CrossFileEdge struct {
	FromFile string
	ToFile   string
}

// Rollup computes one FileRollup per distinct file among fns, using
// crossFileEdges restricted to edges that cross a file boundary.
func Rollup(fns []model.FunctionMetrics, crossFileEdges []CrossFileEdge, thresholds GodObjectThresholds, topN int) map[string]*FileRollup {
	byFile := make(map[string]*FileRollup)

	for _, fn := range fns {
		r, ok := byFile[fn.ID.File]
		if !ok {
			r = &FileRollup{File: fn.ID.File}
			byFile[fn.ID.File] = r
		}
		r.TotalLines += fn.Length
		r.FunctionCount++
		r.Functions = append(r.Functions, fn.ID)
	}

	dependents := make(map[string]map[string]bool)   // file -> set of files that depend on it (afferent)
	dependencies := make(map[string]map[string]bool) // file -> set of files it depends on (efferent)

	for _, e := range crossFileEdges {
		if e.FromFile == e.ToFile {
			continue
		}
		if dependencies[e.FromFile] == nil {
			dependencies[e.FromFile] = make(map[string]bool)
		}
		dependencies[e.FromFile][e.ToFile] = true

		if dependents[e.ToFile] == nil {
			dependents[e.ToFile] = make(map[string]bool)
		}
		dependents[e.ToFile][e.FromFile] = true
	}

	for file, r := range byFile {
		r.IsGodObject = r.TotalLines > thresholds.MaxFileLines && r.FunctionCount > thresholds.MaxFunctionCount

		afferent := len(dependents[file])
		efferent := len(dependencies[file])
		class := coupling.Classify(coupling.Inputs{ProductionCallers: afferent, Callees: efferent})

		r.Dependencies = FileDependencies{
			AfferentCoupling:       afferent,
			EfferentCoupling:       efferent,
			Instability:            coupling.Derive(coupling.Inputs{ProductionCallers: afferent, Callees: efferent}).Instability,
			TotalCoupling:          afferent + efferent,
			TopDependents:          topKeys(dependents[file], topN),
			TopDependencies:        topKeys(dependencies[file], topN),
			CouplingClassification: class.SnakeCase(),
		}
	}

	return byFile
}

// topKeys returns up to n keys in sorted order, so output is
// deterministic regardless of map iteration order (spec §8,
// determinism invariant).
func topKeys(set map[string]bool, n int) []string {
	var out []string
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ScoredItem pairs a function's FinalScore with identity and priority
// for ranking (spec's DebtItem).
type ScoredItem struct {
	ID       model.FunctionID  `json:"id"`
	Score    scorer.FinalScore `json:"score"`
	Priority scorer.Priority   `json:"priority"`
}
