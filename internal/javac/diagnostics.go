package javac

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// DiagnosticKind mirrors the javac diagnostic kinds the publisher maps to
// protocol severities.
type DiagnosticKind int

const (
	DiagError DiagnosticKind = iota
	DiagWarning
	DiagMandatoryWarning
	DiagNote
	DiagOther
)

// Diagnostic is one compiler finding, located by byte offsets into the
// file's content. The publisher converts offsets to protocol positions.
type Diagnostic struct {
	URI     string
	Kind    DiagnosticKind
	Code    string
	Message string
	Start   int
	End     int
}

// reportErrorsForParse collects syntax errors and unused-import warnings for
// one parsed file.
func reportErrorsForParse(p *ParseResult) []Diagnostic {
	var out []Diagnostic

	visit(p.root, func(n *tree_sitter.Node) bool {
		if n.IsError() {
			out = append(out, Diagnostic{
				URI:     p.URI,
				Kind:    DiagError,
				Code:    "compiler.err.syntax",
				Message: "Syntax error",
				Start:   int(n.StartByte()),
				End:     int(n.EndByte()),
			})
			return false
		}
		if n.IsMissing() {
			out = append(out, Diagnostic{
				URI:     p.URI,
				Kind:    DiagError,
				Code:    "compiler.err.expected",
				Message: "Expected " + n.Kind(),
				Start:   int(n.StartByte()),
				End:     int(n.EndByte()) + 1,
			})
			return false
		}
		return true
	})

	out = append(out, unusedImports(p)...)
	return out
}

// unusedImports flags non-static, non-wildcard imports whose simple name
// never appears in the body of the file.
func unusedImports(p *ParseResult) []Diagnostic {
	used := make(map[string]bool)
	visit(p.root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "import_declaration" {
			return false
		}
		switch n.Kind() {
		case "type_identifier", "identifier":
			used[nodeText(n, p.content)] = true
		}
		return true
	})

	var out []Diagnostic
	for _, imp := range p.Imports {
		if imp.Static || imp.Wildcard {
			continue
		}
		if !used[lastSegment(imp.Path)] {
			out = append(out, Diagnostic{
				URI:     p.URI,
				Kind:    DiagWarning,
				Code:    "unused",
				Message: "Unused import " + imp.Path,
				Start:   int(imp.node.StartByte()),
				End:     int(imp.node.EndByte()),
			})
		}
	}
	return out
}
