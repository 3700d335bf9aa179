package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/pkg/parser"
)

// tokenStream walks a function body and emits an order-preserving,
// category-tagged token stream for the entropy analyzer. Leaves only:
// internal nodes (blocks, statements) don't carry lexical identity of
// their own and would just dilute the category distribution.
func tokenStream(body *sitter.Node, source []byte, lang parser.Language) []model.Token {
	var tokens []model.Token

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		childCount := int(n.ChildCount())
		if childCount == 0 {
			if kind, ok := classifyLeaf(n, source); ok {
				tokens = append(tokens, model.Token{Kind: kind, Lexeme: parser.GetNodeText(n, source)})
			}
			return
		}
		for i := 0; i < childCount; i++ {
			walk(n.Child(i))
		}
	}
	walk(body)

	return tokens
}

var keywordTypes = toSet([]string{
	"if", "else", "for", "while", "return", "break", "continue", "switch",
	"case", "default", "func", "def", "fn", "class", "struct", "interface",
	"try", "catch", "except", "finally", "match", "loop", "do", "goto",
	"import", "package", "use", "pub", "static", "const", "let", "var",
	"new", "delete", "throw", "yield", "async", "await", "in", "is", "as",
})

var operatorTypes = toSet([]string{
	"+", "-", "*", "/", "%", "==", "!=", "<", ">", "<=", ">=", "&&", "||",
	"!", "=", "+=", "-=", "*=", "/=", "&", "|", "^", "<<", ">>", "->", "=>",
	"and", "or", "not",
})

var structuralTypes = toSet([]string{
	"{", "}", "(", ")", "[", "]", ";", ",", ".", ":", "::",
})

// classifyLeaf maps a leaf node to a Token category. Returns ok=false for
// pure whitespace/comment noise which contributes nothing to entropy.
func classifyLeaf(n *sitter.Node, source []byte) (model.TokenKind, bool) {
	t := n.Type()
	switch {
	case t == "comment":
		return 0, false
	case keywordTypes[t]:
		return model.TokenKeyword, true
	case operatorTypes[t]:
		return model.TokenOperator, true
	case structuralTypes[t]:
		return model.TokenStructural, true
	case t == "identifier" || t == "field_identifier" || t == "type_identifier":
		return model.TokenIdentifier, true
	case t == "number" || t == "string" || t == "string_literal" ||
		t == "interpreted_string_literal" || t == "raw_string_literal" ||
		t == "true" || t == "false" || t == "nil" || t == "null" ||
		t == "integer" || t == "float" || t == "char_literal":
		return model.TokenLiteral, true
	case n.IsNamed():
		// Unrecognized but semantically-named leaf: treat as identifier-class
		// so it still contributes to entropy rather than vanishing silently.
		return model.TokenIdentifier, true
	default:
		return 0, false
	}
}
