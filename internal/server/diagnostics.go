package server

import (
	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
)

func severity(kind javac.DiagnosticKind) int {
	switch kind {
	case javac.DiagError:
		return protocol.SeverityError
	case javac.DiagWarning, javac.DiagMandatoryWarning:
		return protocol.SeverityWarning
	case javac.DiagNote:
		return protocol.SeverityInformation
	default:
		return protocol.SeverityHint
	}
}

// offsetPosition converts a byte offset to a 0-based protocol position by a
// linear scan of the content.
func offsetPosition(content string, offset int) protocol.Position {
	line, column := 0, 0
	if offset > len(content) {
		offset = len(content)
	}
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			column = 0
		} else {
			column++
		}
	}
	return protocol.Position{Line: line, Character: column}
}

// publishDiagnostics pushes one publish message per file in files, even when
// a file has no diagnostics, so stale markers clear. Diagnostics for files
// outside the set are dropped with a warning.
func (s *Server) publishDiagnostics(files []string, diagnostics []javac.Diagnostic) {
	inSet := make(map[string]bool, len(files))
	for _, f := range files {
		inSet[f] = true
	}

	byURI := make(map[string][]protocol.Diagnostic)
	for _, d := range diagnostics {
		if !inSet[d.URI] {
			debug.Warnf("skipped diagnostic at %s(%d): file is not open", d.URI, d.Start)
			continue
		}
		content, err := s.store.Contents(d.URI)
		if err != nil {
			debug.Warnf("diagnostic content %s: %v", d.URI, err)
			continue
		}
		pd := protocol.Diagnostic{
			Range: protocol.Range{
				Start: offsetPosition(content, d.Start),
				End:   offsetPosition(content, d.End),
			},
			Severity: severity(d.Kind),
			Code:     d.Code,
			Message:  d.Message,
		}
		if d.Code == "unused" {
			pd.Tags = []int{protocol.TagUnnecessary}
		}
		byURI[d.URI] = append(byURI[d.URI], pd)
	}

	for _, f := range files {
		s.client.PublishDiagnostics(protocol.PublishDiagnosticsParams{
			URI:         f,
			Diagnostics: byURI[f],
		})
	}
}

// reportErrors lints a set of files and publishes the results.
func (s *Server) reportErrors(uris []string) {
	diagnostics := s.compiler.ReportErrors(uris)
	s.publishDiagnostics(uris, diagnostics)
}
