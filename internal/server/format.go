package server

import (
	"encoding/json"
	"strings"

	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
)

func (s *Server) handleFormatting(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DocumentFormattingParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	uri := p.TextDocument.URI
	if !s.store.IsJavaFile(uri) {
		return []protocol.TextEdit{}, nil
	}
	active := s.updateActiveFile(uri)
	if active == nil {
		return []protocol.TextEdit{}, nil
	}

	edits := make([]protocol.TextEdit, 0)
	edits = append(edits, s.fixImports(active)...)
	edits = append(edits, s.addOverrides(active)...)
	return edits, nil
}

// fixImports deletes every existing non-static import line and inserts the
// complete recomputed set at the first import, after the package
// declaration, or at the top of the file.
func (s *Server) fixImports(active *javac.CompileFile) []protocol.TextEdit {
	imports := active.FixImports()
	importSpans := active.ImportSpans()

	var edits []protocol.TextEdit
	for _, sp := range importSpans {
		line := sp.StartLine - 1
		edits = append(edits, protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: 0},
				End:   protocol.Position{Line: line + 1, Character: 0},
			},
		})
	}
	if len(imports) == 0 {
		return edits
	}

	insertLine := -1
	var text strings.Builder
	if len(importSpans) > 0 {
		insertLine = importSpans[0].StartLine - 1
	}
	if insertLine == -1 {
		if pkg, ok := active.Parse.PackageSpan(); ok {
			insertLine = pkg.EndLine
			text.WriteByte('\n')
		}
	}
	if insertLine == -1 {
		insertLine = 0
	}
	for _, imp := range imports {
		text.WriteString("import ")
		text.WriteString(imp)
		text.WriteString(";\n")
	}
	pos := protocol.Position{Line: insertLine, Character: 0}
	edits = append(edits, protocol.TextEdit{
		Range:   protocol.Range{Start: pos, End: pos},
		NewText: text.String(),
	})
	return edits
}

// addOverrides inserts "@Override\n" above each method that needs it,
// matching the method's indentation in spaces.
func (s *Server) addOverrides(active *javac.CompileFile) []protocol.TextEdit {
	var edits []protocol.TextEdit
	for _, m := range active.NeedsOverrideAnnotation() {
		sp := active.Parse.Span(active.Parse.Node(m))
		indent := sp.StartColumn - 1
		pos := protocol.Position{Line: sp.StartLine - 1, Character: 0}
		edits = append(edits, protocol.TextEdit{
			Range:   protocol.Range{Start: pos, End: pos},
			NewText: strings.Repeat(" ", indent) + "@Override\n",
		})
	}
	return edits
}
