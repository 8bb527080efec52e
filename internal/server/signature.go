package server

import (
	"encoding/json"
	"strings"

	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
)

func (s *Server) handleSignatureHelp(params json.RawMessage) (any, error) {
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
	line, column := position(p.Position)
	focus := s.compiler.CompileFocus(uri, line, column)
	if focus == nil {
		return nil, nil
	}
	invoke, ok := focus.MethodInvocation()
	if !ok {
		return nil, nil
	}

	sigs := make([]protocol.SignatureInformation, 0, len(invoke.Overloads))
	for _, o := range invoke.Overloads {
		sigs = append(sigs, s.asSignatureInformation(o))
	}
	activeSignature := 0
	for i, o := range invoke.Overloads {
		if o == invoke.ActiveMethod {
			activeSignature = i
			break
		}
	}
	return protocol.SignatureHelp{
		Signatures:      sigs,
		ActiveSignature: activeSignature,
		ActiveParameter: invoke.ActiveParameter,
	}, nil
}

// asSignatureInformation composes a label from the parameter list, taking
// parameter names and @param docs from the declaring workspace source when
// available.
func (s *Server) asSignatureInformation(el *javac.Element) protocol.SignatureInformation {
	ps, ok := s.signatureParamsFromDocs(el)
	if !ok {
		ps = signatureParamsFromElement(el)
	}

	// Constructors already carry the enclosing type's name.
	name := el.Name
	var labels []string
	for _, p := range ps {
		labels = append(labels, p.Label)
	}
	return protocol.SignatureInformation{
		Label:      name + "(" + strings.Join(labels, ", ") + ")",
		Parameters: ps,
	}
}

func (s *Server) signatureParamsFromDocs(el *javac.Element) ([]protocol.ParameterInformation, bool) {
	docs := s.compiler.Docs()
	ptr := el.Ptr()
	uri, ok := docs.Find(ptr)
	if !ok {
		return nil, false
	}
	parse, ok := docs.Parse(uri)
	if !ok {
		return nil, false
	}
	found, ok := parse.FuzzyFind(ptr)
	if !ok || !found.IsExecutable() {
		return nil, false
	}
	doc, hasDoc := parse.Doc(found)

	ps := make([]protocol.ParameterInformation, 0, len(found.Params))
	for _, param := range found.Params {
		info := protocol.ParameterInformation{Label: param.Name}
		if hasDoc {
			if desc, ok := doc.Params[param.Name]; ok {
				info.Documentation = &protocol.MarkupContent{
					Kind:  protocol.MarkupKindMarkdown,
					Value: desc,
				}
				ps = append(ps, info)
				continue
			}
		}
		info.Documentation = &protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: param.Type,
		}
		ps = append(ps, info)
	}
	return ps, true
}

func signatureParamsFromElement(el *javac.Element) []protocol.ParameterInformation {
	missingNames := len(el.Params) > 0
	for _, p := range el.Params {
		if !argNPattern.MatchString(p.Name) {
			missingNames = false
			break
		}
	}
	ps := make([]protocol.ParameterInformation, 0, len(el.Params))
	for _, p := range el.Params {
		label := p.Name
		if missingNames || label == "" {
			label = p.Type
		}
		ps = append(ps, protocol.ParameterInformation{Label: label})
	}
	return ps
}
