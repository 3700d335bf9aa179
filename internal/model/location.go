// Package model holds the identity and location types shared by every
// stage of the debt scoring pipeline.
package model

import "fmt"

// Location identifies a code site within a source tree.
type Location struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`   // 0 when not tracked
	EndLine int    `json:"end_line,omitempty"` // 0 when not tracked
}

// String renders the location the way diagnostics quote it: file:line,
// or file:line:column when Column is set.
func (l Location) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// FunctionID is the stable identity of a function across runs, given
// stable parser output. Equality is structural (comparable struct).
type FunctionID struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// String renders a FunctionID as "file:name:line", the canonical form
// caller-classification string parsing expects.
func (f FunctionID) String() string {
	return fmt.Sprintf("%s:%s:%d", f.File, f.Name, f.Line)
}

// Language tags the source language a FunctionMetrics was extracted from.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangBash       Language = "bash"
	LangUnknown    Language = "unknown"
)
