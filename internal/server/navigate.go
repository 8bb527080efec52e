package server

import (
	"encoding/json"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

func (s *Server) handleDefinition(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.TextDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	fromURI := p.TextDocument.URI
	if !s.store.IsJavaFile(fromURI) {
		return nil, nil
	}
	fromLine, fromColumn := position(p.Position)
	debug.Infof("go-to-def at %s:%d", pathutil.FileName(fromURI), fromLine)

	active := s.updateActiveFile(fromURI)
	if active == nil {
		return nil, nil
	}
	toEl, ok := active.Element(fromLine, fromColumn)
	if !ok {
		debug.Infof("...no element at cursor")
		return nil, nil
	}

	// Compile all files that might contain definitions, pruned to the
	// element's name.
	toURIs := s.compiler.PotentialDefinitions(toEl)
	toURIs = appendUnique(toURIs, fromURI)
	batch := s.compiler.CompileBatch(s.pruneWord(toURIs, toEl))
	defer batch.Close()

	// Re-resolve from the batch so definition search uses batch identities.
	elAgain, ok := batch.Element(fromURI, fromLine, fromColumn)
	if !ok {
		return nil, nil
	}
	var locations []protocol.Location
	for _, def := range batch.Definitions(elAgain) {
		span, ok := batch.Span(def)
		if !ok {
			debug.Warnf("couldn't locate declaration of %s", def.Name)
			continue
		}
		locations = append(locations, protocol.Location{URI: def.URI, Range: spanToRange(span)})
	}
	return locations, nil
}

func (s *Server) handleReferences(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.ReferenceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	toURI := p.TextDocument.URI
	if !s.store.IsJavaFile(toURI) {
		return nil, nil
	}
	toLine, toColumn := position(p.Position)
	debug.Infof("find references to %s(%d,%d)", pathutil.FileName(toURI), toLine, toColumn)

	active := s.updateActiveFile(toURI)
	if active == nil {
		return nil, nil
	}
	toEl, ok := active.Element(toLine, toColumn)
	if !ok {
		debug.Infof("...no element under cursor")
		return nil, nil
	}

	fromURIs := s.compiler.PotentialReferences(toEl)
	fromURIs = appendUnique(fromURIs, toURI)
	batch := s.compiler.CompileBatch(s.pruneWord(fromURIs, toEl))
	defer batch.Close()

	elAgain, ok := batch.Element(toURI, toLine, toColumn)
	if !ok {
		return nil, nil
	}
	var locations []protocol.Location
	for _, ref := range batch.References(elAgain) {
		locations = append(locations, protocol.Location{URI: ref.URI, Range: spanToRange(ref.Span)})
	}
	return locations, nil
}

// pruneWord reduces every file to the regions touching the element's simple
// name (the class name for constructors), preserving positions.
func (s *Server) pruneWord(uris []string, el *javac.Element) []javac.SourceFileObject {
	name := el.Name
	if el.Kind == javac.KindConstructor {
		name = lastName(el.OwnerChain())
	}
	var sources []javac.SourceFileObject
	for _, uri := range uris {
		content, err := s.store.Contents(uri)
		if err != nil {
			debug.Warnf("prune %s: %v", uri, err)
			continue
		}
		sources = append(sources, javac.SourceFileObject{URI: uri, Content: javac.Prune(content, name)})
	}
	return sources
}

func appendUnique(uris []string, uri string) []string {
	for _, u := range uris {
		if u == uri {
			return uris
		}
	}
	return append(uris, uri)
}
