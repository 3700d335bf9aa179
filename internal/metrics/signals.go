package metrics

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/pkg/parser"
)

// extractSignals derives the state-machine/coordinator/validation
// structural signals the pattern classifier (internal/pattern) ranks
// against complexity. These are heuristic by nature — spec.md leaves
// "confidence" computation to the implementer — and are deliberately
// cheap: a single pass over the body's statements and call sites.
func extractSignals(body *sitter.Node, source []byte, lang parser.Language) model.PatternSignals {
	var s model.PatternSignals

	branches := branchArms(body, source, lang)
	s.ValidationTotalBranches = len(branches)
	for _, b := range branches {
		if b.isEarlyReturn {
			s.ValidationEarlyReturns++
		}
	}
	s.StructuralSimilarity = averageArmSimilarity(branches)

	switchArms, switchScrutineeLooksLikeState := switchSignals(body, source, lang)
	s.StateEnumVariants = switchArms
	s.StateMachineConfidence = stateMachineConfidence(switchArms, switchScrutineeLooksLikeState)

	actions, comparisons := callAndComparisonCounts(body, source)
	s.CoordinatorActions = actions
	s.CoordinatorComparisons = comparisons
	s.CoordinatorConfidence = coordinatorConfidence(actions, comparisons, len(branches))

	return s
}

type branchArm struct {
	tokens        []model.Token
	isEarlyReturn bool
}

// branchArms collects the arm bodies of every branching construct in the
// function, used both for validation's early-return ratio and for
// structural-similarity scoring.
func branchArms(body *sitter.Node, source []byte, lang parser.Language) []branchArm {
	var arms []branchArm
	decisionTypes := toSet(decisionNodeTypes(lang))

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if decisionTypes[n.Type()] {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if !child.IsNamed() {
					continue
				}
				switch child.Type() {
				case "consequence", "block", "then", "body":
					arms = append(arms, newBranchArm(child, source))
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return arms
}

func newBranchArm(n *sitter.Node, source []byte) branchArm {
	return branchArm{
		tokens:        tokenStream(n, source, parser.LangUnknown),
		isEarlyReturn: containsEarlyReturn(n),
	}
}

func containsEarlyReturn(n *sitter.Node) bool {
	found := false
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found {
			return
		}
		if n.Type() == "return_statement" || n.Type() == "return" {
			found = true
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return found
}

// averageArmSimilarity averages normalized edit distance between every
// pair of branch arms' token lexeme sequences. 1.0 means near-identical
// arms (classic repetitive-validation shape); single-arm constructs
// contribute 0 per spec §4.5.
func averageArmSimilarity(arms []branchArm) float64 {
	if len(arms) < 2 {
		return 0
	}
	var total float64
	var pairs int
	for i := 0; i < len(arms); i++ {
		for j := i + 1; j < len(arms); j++ {
			total += tokenSimilarity(arms[i].tokens, arms[j].tokens)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// tokenSimilarity returns 1 - normalizedEditDistance over the lexemes of
// two token sequences.
func tokenSimilarity(a, b []model.Token) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	la, lb := lexemes(a), lexemes(b)
	dist := editDistance(la, lb)
	maxLen := len(la)
	if len(lb) > maxLen {
		maxLen = len(lb)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

func lexemes(tokens []model.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind.String() + ":" + t.Lexeme
	}
	return out
}

// editDistance is the classic Levenshtein distance over string slices.
func editDistance(a, b []string) int {
	n, m := len(a), len(b)
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// switchSignals counts switch/match arms and reports whether the
// scrutinee name looks like a state variable ("state", "status",
// "phase", "mode").
func switchSignals(body *sitter.Node, source []byte, lang parser.Language) (arms int, looksLikeState bool) {
	switchTypes := toSet([]string{
		"switch_statement", "expression_switch_statement", "type_switch_statement",
		"match_expression", "case",
	})

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if switchTypes[n.Type()] {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() == "case_clause" || child.Type() == "expression_case" ||
					child.Type() == "match_arm" || child.Type() == "case" {
					arms++
				}
			}
			if cond := n.ChildByFieldName("value"); cond != nil {
				looksLikeState = looksLikeState || scrutineeLooksLikeState(parser.GetNodeText(cond, source))
			}
			if cond := n.ChildByFieldName("condition"); cond != nil {
				looksLikeState = looksLikeState || scrutineeLooksLikeState(parser.GetNodeText(cond, source))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return arms, looksLikeState
}

func scrutineeLooksLikeState(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"state", "status", "phase", "mode"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func stateMachineConfidence(arms int, looksLikeState bool) float64 {
	if arms == 0 {
		return 0
	}
	confidence := 0.0
	switch {
	case arms >= 5:
		confidence = 0.8
	case arms >= 3:
		confidence = 0.6
	default:
		confidence = 0.3
	}
	if looksLikeState {
		confidence += 0.2
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// callAndComparisonCounts counts call expressions ("actions", in
// coordinator terms) and comparison operators across the function body.
func callAndComparisonCounts(body *sitter.Node, source []byte) (actions, comparisons int) {
	callTypes := toSet([]string{"call_expression", "method_invocation", "call"})
	comparisonOps := toSet([]string{"==", "!=", "<", ">", "<=", ">="})

	parser.WalkTyped(body, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if callTypes[nodeType] {
			actions++
		}
		if nodeType == "binary_expression" {
			for i := 0; i < int(n.ChildCount()); i++ {
				if comparisonOps[n.Child(i).Type()] {
					comparisons++
					break
				}
			}
		}
		return true
	})
	return actions, comparisons
}

func coordinatorConfidence(actions, comparisons, branches int) float64 {
	if actions < 3 {
		return 0
	}
	confidence := 0.5
	if actions >= 5 {
		confidence += 0.2
	}
	if comparisons >= 2 {
		confidence += 0.2
	}
	if branches <= 2 {
		// Coordinators delegate rather than branch heavily.
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
