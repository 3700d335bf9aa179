// Package pipeline wires the per-function analyzers (internal/metrics,
// internal/cfg, internal/dataflow, internal/entropy, internal/pattern)
// together with the cross-function stages (internal/callgraph,
// internal/coupling, internal/scorer, internal/aggregate) into the
// single staged pipeline spec §2 describes. Everything upstream of
// Run is a pure per-function computation; Run is the only place the
// stages are composed, so it is the one package that knows the whole
// shape of the debt-scoring pipeline.
package pipeline

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/debtmap-go/debtmap/internal/aggregate"
	"github.com/debtmap-go/debtmap/internal/callgraph"
	"github.com/debtmap-go/debtmap/internal/cfg"
	"github.com/debtmap-go/debtmap/internal/coupling"
	"github.com/debtmap-go/debtmap/internal/dataflow"
	"github.com/debtmap-go/debtmap/internal/entropy"
	"github.com/debtmap-go/debtmap/internal/metrics"
	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/internal/pattern"
	"github.com/debtmap-go/debtmap/internal/scorer"
	"github.com/debtmap-go/debtmap/internal/semantic"
	"github.com/debtmap-go/debtmap/pkg/config"
	"github.com/debtmap-go/debtmap/pkg/parser"
)

// frameworkCallerLine is the synthetic line number used for a file's
// "dynamic dispatch" pseudo-caller — the node internal/semantic's
// indirect references (callbacks, decorators, dynamic dispatch) are
// attributed to, since those call sites have no concrete caller
// function in the AST.
const frameworkCallerLine = 0

// frameworkCallerName names the synthetic per-file caller used for
// edges internal/semantic discovers that the AST-level call graph
// can't attribute to a concrete function.
const frameworkCallerName = "<framework>"

// CoverageProvider supplies coverage(file, function) -> fraction per
// spec §6's coverage-provider contract. A nil provider means no
// coverage data is available for any function.
type CoverageProvider func(id model.FunctionID) (float64, bool)

// DebtAdjustmentProvider supplies the nonnegative debt_adjustment
// scalar spec §4.8 reserves 25% of the score for (god-object,
// duplication, TODO/FIXME density, ...). The aggregator computes most
// of these inputs; this hook lets a caller fold them back in per
// function before scoring.
type DebtAdjustmentProvider func(id model.FunctionID) float64

// Config bundles the per-run knobs the external configuration
// collaborator (spec §6) injects into the core.
type Config struct {
	Entropy         entropy.Config
	EntropyCacheCap int
	TaintPolicy     dataflow.UnknownCallPolicy
	GodObject       aggregate.GodObjectThresholds
	TopNDependents  int
}

// DefaultConfig mirrors the spec's documented defaults: entropy
// enabled, Conservative unknown-call taint policy (spec §9 open
// question), pmat-compatible god-object thresholds.
func DefaultConfig() Config {
	return Config{
		Entropy:         entropy.DefaultConfig(),
		EntropyCacheCap: 4096,
		TaintPolicy:     dataflow.Conservative,
		GodObject:       aggregate.DefaultGodObjectThresholds(),
		TopNDependents:  5,
	}
}

// ConfigFrom translates the external configuration collaborator's
// loaded settings (pkg/config, spec §6) into the pipeline's own Config,
// so a project's debtmap.toml actually reaches the entropy cache, taint
// policy, and god-object thresholds instead of only the file scanner.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Entropy: entropy.Config{
			Enabled:              cfg.Entropy.Enabled,
			MinTokensForAnalysis: cfg.Entropy.MinTokensForAnalysis,
			NgramN:               cfg.Entropy.NgramN,
		},
		EntropyCacheCap: cfg.Entropy.CacheSize,
		TaintPolicy:     cfg.ResolveUnknownCallPolicy(),
		GodObject: aggregate.GodObjectThresholds{
			MaxFileLines:     cfg.GodObject.MaxFileLines,
			MaxFunctionCount: cfg.GodObject.MaxFunctionCount,
		},
		TopNDependents: cfg.TopNDependents,
	}
}

// FunctionAnalysis is everything the pipeline computed for one
// function before scoring: the spec's per-stage outputs, retained
// only long enough to feed the scorer (spec §5's memory model — CFGs
// and analyses are dropped after scoring unless the caller retains
// them).
type FunctionAnalysis struct {
	Metrics  model.FunctionMetrics
	Tokens   []model.Token
	Signals  model.PatternSignals
	Graph    *cfg.ControlFlowGraph
	Liveness dataflow.Liveness
	Escape   dataflow.Escape
	Taint    dataflow.Taint
	Entropy  entropy.Score
	Pattern  pattern.Match
}

// ParsedFile is one file's AST adapter output: the parse result plus
// the language's inspector, used both for per-function extraction and
// for the call-graph seed (spec §6's "call graph seed" contract).
type ParsedFile struct {
	Result    *parser.ParseResult
	Inspector parser.Inspector
}

// ParseFiles runs the tree-sitter AST adapter (pkg/parser) over every
// path, skipping files whose language isn't recognized. Parse errors
// are per-file and non-fatal (spec §7 ParseError semantics): the
// caller continues with whatever files did parse.
func ParseFiles(paths []string) ([]ParsedFile, []error) {
	p := parser.New()
	defer p.Close()

	var out []ParsedFile
	var errs []error
	for _, path := range paths {
		result, err := p.ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, ParsedFile{
			Result:    result,
			Inspector: parser.NewTreeSitterInspector(result),
		})
	}
	return out, errs
}

// AnalyzeFile runs the per-function stages (metrics extraction, CFG
// construction, liveness/escape/taint, entropy, pattern
// classification) over every function in a single parsed file. Each
// function is independent and pure, matching spec §5's data-parallel
// scheduling model — callers may run AnalyzeFile concurrently across
// files.
func AnalyzeFile(f ParsedFile, entropyCache *entropy.Cache, cfgConf Config) []FunctionAnalysis {
	result := f.Result
	fns := parser.GetFunctions(result)
	out := make([]FunctionAnalysis, 0, len(fns))

	for _, fn := range fns {
		m, tokens, signals := metrics.Extract(fn, result)

		graph := cfg.Build(fn.Body, result.Source, result.Language, cfg.LookupPurity)

		live := dataflow.AnalyzeLiveness(graph)
		esc := dataflow.AnalyzeEscape(graph)
		taint := dataflow.AnalyzeTaint(graph, nil, cfgConf.TaintPolicy, esc, live)

		key := entropy.Key(tokens)
		sc := entropyCache.GetOrCompute(key, func() entropy.Score {
			return entropy.Analyze(tokens, signals.StructuralSimilarity, cfgConf.Entropy)
		})

		match := pattern.Classify(m, signals, sc)

		out = append(out, FunctionAnalysis{
			Metrics:  m,
			Tokens:   tokens,
			Signals:  signals,
			Graph:    graph,
			Liveness: live,
			Escape:   esc,
			Taint:    taint,
			Entropy:  sc,
			Pattern:  match,
		})
	}
	return out
}

// mapCallKind translates the AST adapter's call-edge classification
// into the spec's three-way call-graph edge label.
func mapCallKind(k parser.CallEdgeKind) callgraph.EdgeKind {
	switch k {
	case parser.CallIndirect:
		return callgraph.Delegate
	case parser.CallDynamic:
		return callgraph.Dynamic
	default:
		return callgraph.Direct
	}
}

// BuildCallGraph constructs the spec §4.6 call graph from every
// analyzed function plus each file's AST-derived call edges and
// internal/semantic's indirect-reference extraction (callbacks,
// decorators, dynamic dispatch that bypass a normal call site).
// Per spec §5, the call graph is built single-threaded from all
// per-function metadata after the parallel per-function analysis.
func BuildCallGraph(files []ParsedFile, perFile map[string][]FunctionAnalysis) *callgraph.Graph {
	g := callgraph.New()

	for _, fns := range perFile {
		for _, fa := range fns {
			isEntry := fa.Metrics.ID.Name == "main"
			g.AddFunction(fa.Metrics.ID, isEntry, fa.Metrics.IsTest, fa.Metrics.Cyclomatic, fa.Metrics.Length)
		}
	}

	for _, f := range files {
		path := f.Result.Path
		callerIDs := make(map[string]model.FunctionID)
		for _, fa := range perFile[path] {
			callerIDs[fa.Metrics.ID.Name] = fa.Metrics.ID
		}

		for _, edge := range f.Inspector.GetCallGraph() {
			callerID, ok := g.LookupByFileAndName(path, edge.CallerName)
			if !ok {
				callerID, ok = callerIDs[edge.CallerName]
			}
			if !ok {
				continue
			}
			for _, calleeID := range g.ResolveName(edge.CalleeName) {
				g.AddCall(callerID, calleeID, mapCallKind(edge.Kind))
			}
		}

		if extractor := semantic.ForLanguage(f.Result.Language); extractor != nil {
			refs := extractor.ExtractRefs(f.Result.Tree, f.Result.Source)
			extractor.Close()
			if len(refs) > 0 {
				frameworkID := model.FunctionID{File: path, Name: frameworkCallerName, Line: frameworkCallerLine}
				g.AddFunction(frameworkID, true, false, 0, 0)
				for _, ref := range refs {
					for _, calleeID := range g.ResolveName(ref.Name) {
						g.AddCall(frameworkID, calleeID, callgraph.Dynamic)
					}
				}
			}
		}
	}

	return g
}

// crossFileEdges derives the cross-file call edges aggregate.Rollup
// needs for afferent/efferent coupling, from the call graph plus the
// set of functions in each file.
func crossFileEdges(g *callgraph.Graph, fns []model.FunctionMetrics) []aggregate.CrossFileEdge {
	var out []aggregate.CrossFileEdge
	for _, fn := range fns {
		for _, callee := range g.CalleesOf(fn.ID) {
			if callee.File != fn.ID.File {
				out = append(out, aggregate.CrossFileEdge{FromFile: fn.ID.File, ToFile: callee.File})
			}
		}
	}
	return out
}

// priorityFor buckets a normalized score into the spec's four-tier
// priority used as a tie-breaker in final ranking (spec §4.9).
func priorityFor(normalized float64) scorer.Priority {
	switch {
	case normalized >= 50:
		return scorer.PriorityCritical
	case normalized >= 20:
		return scorer.PriorityHigh
	case normalized >= 8:
		return scorer.PriorityMedium
	default:
		return scorer.PriorityLow
	}
}

// Result is the pipeline's final output: ranked per-function debt
// items plus the per-file rollups spec §4.9 aggregates them into.
type Result struct {
	Items []aggregate.ScoredItem
	Files map[string]*aggregate.FileRollup
	Graph *callgraph.Graph
}

// Run executes the full staged pipeline (spec §2) over a set of
// already-parsed files: per-function analysis, call-graph
// construction, coupling classification, debt scoring, and final
// aggregation/ranking. coverage and debtAdjust may be nil, matching
// spec §7's CoverageError fallback (scorer transparently uses the
// no-coverage base formula) and a zero debt_adjustment respectively.
func Run(files []ParsedFile, conf Config, coverage CoverageProvider, debtAdjust DebtAdjustmentProvider) Result {
	entropyCache := entropy.NewCache(conf.EntropyCacheCap)

	perFile := make(map[string][]FunctionAnalysis, len(files))
	var allMetrics []model.FunctionMetrics
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for _, f := range files {
		p.Go(func() {
			fas := AnalyzeFile(f, entropyCache, conf)

			mu.Lock()
			perFile[f.Result.Path] = fas
			for _, fa := range fas {
				allMetrics = append(allMetrics, fa.Metrics)
			}
			mu.Unlock()
		})
	}
	p.Wait()

	graph := BuildCallGraph(files, perFile)

	var items []aggregate.ScoredItem
	for _, fas := range perFile {
		for _, fa := range fas {
			id := fa.Metrics.ID
			prodCallers, testCallers := 0, 0
			for _, caller := range graph.CallersOf(id) {
				// The caller is already a resolved FunctionID from the
				// call graph itself, so classify it directly rather
				// than round-tripping through ClassifyCaller's
				// string-parsing path (that path is for callers who
				// only have a bare name or diagnostic string, spec
				// §4.6 step 1).
				if graph.IsTest(caller) || graph.IsTestHelper(caller) {
					testCallers++
				} else {
					prodCallers++
				}
			}
			callees := len(graph.CalleesOf(id))

			in := coupling.Inputs{ProductionCallers: prodCallers, TestCallers: testCallers, Callees: callees}
			class := coupling.Classify(in)
			depFactor := coupling.DependencyFactor(in, class)

			var cov *float64
			if coverage != nil {
				if v, ok := coverage(id); ok {
					cov = &v
				}
			}

			var debtAdj float64
			if debtAdjust != nil {
				debtAdj = debtAdjust(id)
			}

			score := scorer.Score(scorer.Inputs{
				Cyclomatic:          fa.Metrics.Cyclomatic,
				Cognitive:           fa.Metrics.Cognitive,
				Coverage:            cov,
				DependencyFactor:    depFactor,
				Pattern:             fa.Pattern,
				EffectiveComplexity: fa.Entropy.EffectiveComplexity,
				EntropyEnabled:      conf.Entropy.Enabled,
				IsTest:              fa.Metrics.IsTest,
				DebtAdjustment:      debtAdj,
			})

			items = append(items, aggregate.ScoredItem{
				ID:       id,
				Score:    score,
				Priority: priorityFor(score.Normalized),
			})
		}
	}

	ranked := aggregate.Rank(items)

	edges := crossFileEdges(graph, allMetrics)
	rollups := aggregate.Rollup(allMetrics, edges, conf.GodObject, conf.TopNDependents)

	return Result{Items: ranked, Files: rollups, Graph: graph}
}
