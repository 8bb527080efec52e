package server

import (
	"encoding/json"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/protocol"
)

func (s *Server) handleHover(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.TextDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	uri := p.TextDocument.URI
	if !s.store.IsJavaFile(uri) {
		return nil, nil
	}
	active := s.updateActiveFile(uri)
	if active == nil {
		return nil, nil
	}

	line, column := position(p.Position)
	el, ok := active.Element(line, column)
	if !ok {
		debug.Infof("hover: no element at %s(%d,%d)", uri, line, column)
		return nil, nil
	}

	var contents []protocol.MarkedString
	if md, found := s.findDocs(el.Ptr()); found {
		contents = append(contents, protocol.MarkedString{Value: md.Value})
	}
	contents = append(contents, protocol.MarkedString{
		Language: "java",
		Value:    active.HoverCode(el),
	})
	return protocol.Hover{Contents: contents}, nil
}
