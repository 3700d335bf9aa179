package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/debtmap-go/debtmap/pkg/parser"
)

// countDecisionPoints counts branching statements for cyclomatic complexity.
func countDecisionPoints(node *sitter.Node, source []byte, lang parser.Language) uint32 {
	var count uint32

	decisionTypes := toSet(decisionNodeTypes(lang))

	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if decisionTypes[nodeType] {
			count++
		}
		if nodeType == "binary_expression" || nodeType == "logical_expression" {
			if op := binaryOperator(n, src); op == "&&" || op == "||" || op == "and" || op == "or" {
				count++
			}
		}
		return true
	})

	return count
}

// cognitiveComplexity computes cognitive complexity with nesting penalties.
func cognitiveComplexity(node *sitter.Node, source []byte, lang parser.Language, depth int) uint32 {
	info := cognitiveTypes(lang)
	return cognitiveRecursive(node, source, info, depth)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func decisionNodeTypes(lang parser.Language) []string {
	common := []string{
		"if_statement", "if_expression",
		"while_statement", "while_expression",
		"for_statement", "for_expression",
		"case_statement", "catch_clause",
		"ternary_expression", "conditional_expression",
	}

	switch lang {
	case parser.LangGo:
		return append(common, "select_statement", "type_switch_statement", "expression_switch_statement")
	case parser.LangRust:
		return append(common, "match_expression", "loop_expression", "if_let_expression")
	case parser.LangPython:
		return append(common, "elif_clause", "except_clause", "with_statement", "comprehension")
	case parser.LangTypeScript, parser.LangJavaScript, parser.LangTSX:
		return append(common, "switch_statement", "do_statement")
	case parser.LangJava, parser.LangCSharp:
		return append(common, "switch_statement", "switch_expression", "do_statement", "enhanced_for_statement")
	case parser.LangC, parser.LangCPP:
		return append(common, "switch_statement", "do_statement")
	case parser.LangRuby:
		return []string{"if", "elsif", "unless", "while", "until", "for", "case", "when", "rescue", "conditional"}
	case parser.LangPHP:
		return append(common, "switch_statement", "elseif_clause")
	default:
		return common
	}
}

func binaryOperator(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "&&", "||", "and", "or":
			return child.Type()
		}
		if child.IsNamed() && child.Type() == "operator" {
			return parser.GetNodeText(child, source)
		}
	}
	return ""
}

type cognitiveTypeInfo struct {
	nesting map[string]bool
	flat    map[string]bool
}

func cognitiveTypes(lang parser.Language) cognitiveTypeInfo {
	var nesting, flat []string

	switch lang {
	case parser.LangRuby:
		nesting = []string{"if", "unless", "while", "until", "for", "case", "begin"}
		flat = []string{"elsif", "else", "when", "rescue", "break", "next", "redo"}
	default:
		nesting = []string{
			"if_statement", "if_expression",
			"while_statement", "while_expression",
			"for_statement", "for_expression",
			"switch_statement", "match_expression",
			"try_statement",
		}
		flat = []string{
			"else_clause", "elif_clause", "elseif_clause",
			"break_statement", "continue_statement", "goto_statement",
		}
	}

	info := cognitiveTypeInfo{nesting: make(map[string]bool), flat: make(map[string]bool)}
	for _, t := range nesting {
		info.nesting[t] = true
	}
	for _, t := range flat {
		info.flat[t] = true
	}
	return info
}

func cognitiveRecursive(node *sitter.Node, source []byte, info cognitiveTypeInfo, depth int) uint32 {
	var complexity uint32

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		childType := child.Type()

		switch {
		case info.nesting[childType]:
			complexity++
			complexity += uint32(depth)
			complexity += cognitiveRecursive(child, source, info, depth+1)
		case info.flat[childType]:
			complexity++
			complexity += uint32(depth)
			complexity += cognitiveRecursive(child, source, info, depth)
		default:
			complexity += cognitiveRecursive(child, source, info, depth)
		}
	}

	return complexity
}

var nestingTypesSet = toSet([]string{
	"if_statement", "if_expression", "if", "unless",
	"while_statement", "while_expression", "while", "until",
	"for_statement", "for_expression", "for",
	"switch_statement", "match_expression", "case",
	"try_statement", "begin",
	"block", "body_statement",
})

// maxNesting finds the maximum control-construct nesting depth.
func maxNesting(node *sitter.Node, source []byte, depth int) int {
	maxDepth := depth

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		childType := child.Type()

		var childMax int
		if nestingTypesSet[childType] {
			childMax = maxNesting(child, source, depth+1)
		} else {
			childMax = maxNesting(child, source, depth)
		}
		if childMax > maxDepth {
			maxDepth = childMax
		}
	}

	return maxDepth
}
