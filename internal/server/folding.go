package server

import (
	"encoding/json"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
)

func (s *Server) handleFoldingRange(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.FoldingRangeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	uri := p.TextDocument.URI
	if !s.store.IsJavaFile(uri) {
		return []protocol.FoldingRange{}, nil
	}
	parse := s.updateCachedParse(uri)
	if parse == nil {
		return nil, protocol.NewRequestError(protocol.CodeInternalError, "cannot read %s", uri)
	}
	folds := parse.FoldingRanges()

	all := make([]protocol.FoldingRange, 0)

	// Adjacent or contiguous import declarations merge into one range.
	if len(folds.Imports) > 0 {
		merged := s.asFoldingRange(parse, folds.Imports[0], protocol.FoldImports)
		for _, i := range folds.Imports {
			r := s.asFoldingRange(parse, i, protocol.FoldImports)
			if r.StartLine <= merged.EndLine+1 {
				merged.EndLine = r.EndLine
				merged.EndCharacter = r.EndCharacter
			} else {
				all = append(all, merged)
				merged = r
			}
		}
		all = append(all, merged)
	}

	for _, t := range folds.Blocks {
		all = append(all, s.asFoldingRange(parse, t, protocol.FoldRegion))
	}
	for _, t := range folds.Comments {
		all = append(all, s.asFoldingRange(parse, t, protocol.FoldRegion))
	}
	return all, nil
}

func (s *Server) asFoldingRange(parse *javac.ParseResult, n *tree_sitter.Node, kind string) protocol.FoldingRange {
	sp := parse.Span(n)
	start := sp.StartByte

	// Fold type declarations from the opening brace, so the header stays
	// visible.
	if javac.IsClassNode(n) {
		if i := strings.IndexByte(parse.Content[start:sp.EndByte], '{'); i >= 0 {
			start += i
		}
	}
	startLine, startChar := parse.PositionOf(start)
	endLine := sp.EndLine
	endChar := sp.EndColumn

	// Keep the closing brace visible for classes and blocks.
	if javac.IsClassNode(n) || javac.IsBlockNode(n) {
		endLine--
	}
	return protocol.FoldingRange{
		StartLine:      startLine - 1,
		StartCharacter: startChar - 1,
		EndLine:        endLine - 1,
		EndCharacter:   endChar - 1,
		Kind:           kind,
	}
}
