// Package metrics extracts per-function AST-derived metrics: cyclomatic
// and cognitive complexity, nesting depth, length, parameter count, a
// token stream for entropy analysis, and the structural signals the
// pattern classifier consumes. Every function here is pure over an
// already-parsed AST — no file I/O, no shared state.
package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/pkg/parser"
)

// Extract computes FunctionMetrics, a token stream, and pattern signals
// for a single parsed function. It never fails on well-formed input;
// unrecognized constructs simply contribute nothing to the signals.
func Extract(fn parser.FunctionNode, result *parser.ParseResult) (model.FunctionMetrics, []model.Token, model.PatternSignals) {
	lang := toModelLang(result.Language)

	m := model.FunctionMetrics{
		ID: model.FunctionID{
			File: result.Path,
			Name: fn.Name,
			Line: int(fn.StartLine),
		},
		Language: lang,
		IsTest:   isTestFunction(fn.Name) || parser.DetectLanguage(result.Path) != parser.LangUnknown && isTestPath(result.Path),
		Location: model.Location{
			File:    result.Path,
			Line:    int(fn.StartLine),
			EndLine: int(fn.EndLine),
		},
		Length: int(fn.EndLine-fn.StartLine) + 1,
		Params: countParameters(fn, result),
	}

	if fn.Body == nil {
		m.Cyclomatic = 1
		return m, nil, model.PatternSignals{}
	}

	m.Cyclomatic = 1 + countDecisionPoints(fn.Body, result.Source, result.Language)
	m.Cognitive = cognitiveComplexity(fn.Body, result.Source, result.Language, 0)
	m.Nesting = maxNesting(fn.Body, result.Source, 0)

	tokens := tokenStream(fn.Body, result.Source, result.Language)
	signals := extractSignals(fn.Body, result.Source, result.Language)

	return m, tokens, signals
}

func toModelLang(l parser.Language) model.Language {
	return model.Language(l)
}

// isTestFunction recognizes common test-naming conventions across the
// supported languages: Go's Test*/Benchmark*/Example*, and the
// underscore-prefixed pytest/rspec-style test_*.
func isTestFunction(name string) bool {
	if hasPrefix(name, "Test") || hasPrefix(name, "test_") || hasPrefix(name, "test") {
		return true
	}
	if hasPrefix(name, "Benchmark") || hasPrefix(name, "Example") {
		return true
	}
	if hasPrefix(name, "should_") || hasPrefix(name, "it_") || hasPrefix(name, "spec_") {
		return true
	}
	return false
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// isTestPath applies the path heuristics of §4.6 caller classification:
// a function defined in a test file is itself test code regardless of
// its own name.
func isTestPath(path string) bool {
	for _, suffix := range []string{"_test.go", "_test.py", "_test.rb", ".test.ts", ".test.js", ".spec.ts", ".spec.js"} {
		if hasSuffix(path, suffix) {
			return true
		}
	}
	for _, marker := range []string{"/tests/", "/test/", "/__tests__/"} {
		if contains(path, marker) {
			return true
		}
	}
	return false
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// countParameters counts the named parameter nodes of a function.
func countParameters(fn parser.FunctionNode, result *parser.ParseResult) int {
	return len(parameterNodes(fn, result))
}

func parameterNodes(fn parser.FunctionNode, result *parser.ParseResult) []*sitter.Node {
	// The node that carries fn.Body is the function node's sibling field;
	// GetFunctions doesn't retain the original node, so we recover the
	// parameter list from the body's parent when available.
	if fn.Body == nil {
		return nil
	}
	parent := fn.Body.Parent()
	if parent == nil {
		return nil
	}
	paramsNode := parent.ChildByFieldName("parameters")
	if paramsNode == nil {
		paramsNode = parent.ChildByFieldName("parameter_list")
	}
	if paramsNode == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		out = append(out, paramsNode.NamedChild(i))
	}
	return out
}
