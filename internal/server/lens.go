package server

import (
	"encoding/json"
	"fmt"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/internal/types"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

const findReferencesCommand = "java.command.findReferences"
const runTestCommand = "java.command.test.run"

func (s *Server) handleCodeLens(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.CodeLensParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	uri := p.TextDocument.URI
	if !s.store.IsJavaFile(uri) {
		return []protocol.CodeLens{}, nil
	}
	parse := s.updateCachedParse(uri)
	if parse == nil {
		return []protocol.CodeLens{}, nil
	}

	lenses := make([]protocol.CodeLens, 0)
	for _, d := range parse.Declarations() {
		if !d.Kind.IsType() && d.Kind != javac.KindMethod {
			continue
		}
		span := parse.Span(parse.Node(d))
		rng := spanToRange(span)
		className := javac.ClassName(d)

		if parse.IsTestClass(d) {
			lenses = append(lenses, protocol.CodeLens{
				Range: rng,
				Command: &protocol.Command{
					Title:     "Run All Tests",
					Command:   runTestCommand,
					Arguments: []any{uri, className, nil},
				},
			})
		}
		if parse.IsTestMethod(d) {
			var member any
			if name, ok := javac.MemberName(d); ok {
				member = name
			}
			lenses = append(lenses, protocol.CodeLens{
				Range: rng,
				Command: &protocol.Command{
					Title:     "Run Test",
					Command:   runTestCommand,
					Arguments: []any{uri, className, member},
				},
			})
			continue
		}
		if !parse.IsTestClass(d) {
			// Unresolved reference-count lens; the client calls back with
			// this data to fill in the title.
			lenses = append(lenses, protocol.CodeLens{
				Range: rng,
				Data:  []any{findReferencesCommand, uri, rng.Start.Line, rng.Start.Character},
			})
		}
	}
	return lenses, nil
}

func (s *Server) handleResolveCodeLens(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lens protocol.CodeLens
	if err := json.Unmarshal(params, &lens); err != nil {
		return nil, err
	}

	// Flush the pending lint for recently-opened documents first.
	if len(s.recentlyOpened) > 0 {
		s.reportErrors(s.recentlyOpened)
		s.recentlyOpened = nil
	}

	if len(lens.Data) != 4 {
		debug.Warnf("code lens data has %d entries", len(lens.Data))
		return lens, nil
	}
	command, _ := lens.Data[0].(string)
	if command != findReferencesCommand {
		debug.Warnf("unexpected code lens command %q", command)
		return lens, nil
	}
	uri, _ := lens.Data[1].(string)
	lineF, _ := lens.Data[2].(float64)
	charF, _ := lens.Data[3].(float64)
	// Lens data is 0-based; the facility is 1-based. Convert exactly once.
	line := int(lineF) + 1
	character := int(charF) + 1

	count := s.countReferences(uri, line, character)
	var title string
	switch {
	case count == -1:
		title = "? references"
	case count == 1:
		title = "1 reference"
	case count == tooExpensiveCount:
		title = "Find references"
	default:
		title = fmt.Sprintf("%d references", count)
	}
	lens.Command = &protocol.Command{
		Title:     title,
		Command:   command,
		Arguments: []any{uri, line - 1, character - 1},
	}
	return lens, nil
}

// countReferences implements the reference-count procedure: maintain the
// per-target-file index cache and sum the counts for the declaration at
// (toLine, toColumn).
func (s *Server) countReferences(toURI string, toLine, toColumn int) int {
	// If the user changes files, invalidate all cached indices in one step.
	if toURI != s.cacheReferencesFile {
		s.cacheReferences = make(map[types.Ptr]*refList)
		s.cacheIndex = make(map[string]*javac.Index)
		s.cacheIndexVersion = make(map[string]int)
		s.cacheReferencesFile = toURI
	}

	active := s.updateActiveFile(toURI)
	if active == nil {
		return -1
	}
	toEl, ok := active.Element(toLine, toColumn)
	if !ok {
		debug.Warnf("no element at code lens %s(%d,%d)", pathutil.FileName(toURI), toLine, toColumn)
		return -1
	}
	toPtr := toEl.Ptr()

	// The signature of the target file right now.
	declarations := active.Declarations()
	signature := javac.SignatureOf(declarations)

	if s.referencesNeedUpdate(toPtr, signature) {
		debug.LogIndex("count references to %s", toPtr)

		fromURIs := s.compiler.PotentialReferences(toEl)
		fromURIs = removeURI(fromURIs, toURI)

		if len(fromURIs) > maxReferenceCandidates {
			debug.LogIndex("...%d potential references, too expensive to compile", len(fromURIs))
			s.cacheReferences[toPtr] = &refList{tooExpensive: true}
		} else {
			s.cacheReferences[toPtr] = &refList{uris: s.referencesFile(fromURIs, toURI, signature)}
		}
	} else {
		debug.LogIndex("using cached reference count for %s", toPtr)
	}

	// The active file's own index is always recomputed.
	count := active.Index(declarations).Count(toPtr)

	entry := s.cacheReferences[toPtr]
	if entry.tooExpensive {
		return tooExpensiveCount
	}
	for _, fromURI := range entry.uris {
		count += s.cacheIndex[fromURI].Count(toPtr)
	}
	return count
}

func (s *Server) referencesNeedUpdate(toPtr types.Ptr, signature map[types.Ptr]bool) bool {
	entry, ok := s.cacheReferences[toPtr]
	if !ok {
		return true
	}
	if entry.tooExpensive {
		return false
	}
	for _, fromURI := range entry.uris {
		if s.indexNeedsUpdate(fromURI, signature) {
			return true
		}
	}
	return false
}

func (s *Server) indexNeedsUpdate(fromURI string, signature map[types.Ptr]bool) bool {
	idx, ok := s.cacheIndex[fromURI]
	if !ok {
		return true
	}
	if s.cacheIndexVersion[fromURI] != s.store.Version(fromURI) {
		debug.LogIndex("%s needs re-indexing: the file changed", pathutil.FileName(fromURI))
		return true
	}
	if idx.HasErrors {
		debug.LogIndex("%s needs re-indexing: it contains errors", pathutil.FileName(fromURI))
		return true
	}
	if idx.NeedsUpdate(signature) {
		debug.LogIndex("%s needs re-indexing: a referenced declaration changed", pathutil.FileName(fromURI))
		return true
	}
	return false
}

// referencesFile brings the per-source indices for (fromURIs -> toURI) up to
// date and returns the sources that actually hold references.
func (s *Server) referencesFile(fromURIs []string, toURI string, signature map[types.Ptr]bool) []string {
	var outOfDate []string
	for _, fromURI := range fromURIs {
		if s.indexNeedsUpdate(fromURI, signature) {
			outOfDate = append(outOfDate, fromURI)
		}
	}

	if len(outOfDate) > 0 {
		batchInputs := append(append([]string{}, outOfDate...), toURI)
		var sources []javac.SourceFileObject
		for _, uri := range batchInputs {
			content, err := s.store.Contents(uri)
			if err != nil {
				debug.Warnf("index %s: %v", uri, err)
				continue
			}
			sources = append(sources, javac.SourceFileObject{URI: uri, Content: content})
		}
		batch := s.compiler.CompileBatch(sources)
		defer batch.Close()

		toEls := batch.Declarations(toURI)
		debug.LogIndex("indexing %d files against %d declarations", len(outOfDate), len(toEls))
		for _, fromURI := range outOfDate {
			s.cacheIndex[fromURI] = batch.Index(fromURI, toEls)
			s.cacheIndexVersion[fromURI] = s.store.Version(fromURI)
		}
	} else {
		debug.LogIndex("all indexes are cached and up to date")
	}

	var actuallyReferences []string
	for _, fromURI := range fromURIs {
		if idx, ok := s.cacheIndex[fromURI]; ok && idx.Total() > 0 {
			actuallyReferences = append(actuallyReferences, fromURI)
		}
	}
	return actuallyReferences
}

func removeURI(uris []string, uri string) []string {
	out := uris[:0]
	for _, u := range uris {
		if u != uri {
			out = append(out, u)
		}
	}
	return out
}
