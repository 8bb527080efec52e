package server

import (
	"encoding/json"

	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
)

// workspaceSymbolLimit caps workspace/symbol results.
const workspaceSymbolLimit = 50

func symbolKind(el *javac.Element) int {
	switch el.Kind {
	case javac.KindClass, javac.KindAnnotationType:
		return protocol.SymbolKindClass
	case javac.KindInterface:
		return protocol.SymbolKindInterface
	case javac.KindEnum:
		return protocol.SymbolKindEnum
	case javac.KindMethod, javac.KindConstructor:
		return protocol.SymbolKindMethod
	case javac.KindField:
		return protocol.SymbolKindField
	case javac.KindEnumConstant:
		return protocol.SymbolKindEnumMember
	case javac.KindTypeParameter:
		return protocol.SymbolKindTypeParameter
	default:
		return protocol.SymbolKindField
	}
}

// containerName is the enclosing class simple name, or the package name for
// top-level declarations, else empty.
func containerName(el *javac.Element) string {
	if chain := el.OwnerChain(); chain != "" {
		return lastName(chain)
	}
	return el.PackageName
}

func (s *Server) asSymbolInformation(el *javac.Element, span javac.Span) protocol.SymbolInformation {
	return protocol.SymbolInformation{
		Name:          el.Name,
		Kind:          symbolKind(el),
		ContainerName: containerName(el),
		Location:      protocol.Location{URI: el.URI, Range: spanToRange(span)},
	}
}

func (s *Server) handleWorkspaceSymbol(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	matches := s.compiler.FindSymbols(p.Query, workspaceSymbolLimit)
	infos := make([]protocol.SymbolInformation, 0, len(matches))
	for _, m := range matches {
		infos = append(infos, s.asSymbolInformation(m.Element, m.Span))
	}
	return infos, nil
}

func (s *Server) handleDocumentSymbol(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	uri := p.TextDocument.URI
	if !s.store.IsJavaFile(uri) {
		return []protocol.SymbolInformation{}, nil
	}
	parse := s.updateCachedParse(uri)
	if parse == nil {
		return []protocol.SymbolInformation{}, nil
	}
	infos := make([]protocol.SymbolInformation, 0)
	for _, d := range parse.Declarations() {
		infos = append(infos, s.asSymbolInformation(d, parse.Span(parse.Node(d))))
	}
	return infos, nil
}
