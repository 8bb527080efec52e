package server

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/internal/types"
)

func completionItemKind(el *javac.Element) int {
	switch el.Kind {
	case javac.KindAnnotationType, javac.KindInterface:
		return protocol.CompletionKindInterface
	case javac.KindClass:
		return protocol.CompletionKindClass
	case javac.KindConstructor:
		return protocol.CompletionKindConstructor
	case javac.KindEnum:
		return protocol.CompletionKindEnum
	case javac.KindEnumConstant:
		return protocol.CompletionKindEnumMember
	case javac.KindField:
		return protocol.CompletionKindField
	case javac.KindLocalVariable, javac.KindParameter:
		return protocol.CompletionKindVariable
	case javac.KindMethod:
		return protocol.CompletionKindMethod
	case javac.KindPackage:
		return protocol.CompletionKindModule
	case javac.KindTypeParameter:
		return protocol.CompletionKindTypeParameter
	default:
		return 0
	}
}

func (s *Server) handleCompletion(params json.RawMessage) (any, error) {
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
	debug.LogLSP("complete at %s(%d,%d)", uri, line, column)

	parse := s.updateCachedParse(uri)
	if parse == nil {
		return nil, nil
	}
	ctx, ok := parse.CompletionContext(line, column)
	if !ok {
		items := make([]protocol.CompletionItem, 0, len(javac.TopLevelKeywords))
		for _, name := range javac.TopLevelKeywords {
			items = append(items, protocol.CompletionItem{
				Label:  name,
				Kind:   protocol.CompletionKindKeyword,
				Detail: "keyword",
			})
		}
		return protocol.CompletionList{IsIncomplete: true, Items: items}, nil
	}

	focus := s.compiler.CompileFocus(uri, ctx.Line, ctx.Character)
	if focus == nil {
		return nil, nil
	}
	var cs []javac.Completion
	isIncomplete := false
	switch ctx.Kind {
	case javac.ContextMemberSelect:
		cs = focus.CompleteMembers(false)
	case javac.ContextMemberReference:
		cs = focus.CompleteMembers(true)
	case javac.ContextIdentifier:
		cs = focus.CompleteIdentifiers(ctx.InClass, ctx.InMethod, ctx.PartialName)
		isIncomplete = len(cs) >= javac.MaxCompletionItems
	case javac.ContextAnnotation:
		cs = focus.CompleteAnnotations(ctx.PartialName)
		isIncomplete = len(cs) >= javac.MaxCompletionItems
	case javac.ContextCase:
		cs = focus.CompleteCases()
	default:
		return nil, protocol.NewRequestError(protocol.CodeInternalError,
			"unexpected completion context %d", ctx.Kind)
	}

	// The cache holds exactly the data of the latest completion call.
	s.lastCompletions = make(map[string]*javac.Completion, len(cs))
	items := make([]protocol.CompletionItem, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		item, err := s.asCompletionItem(c)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return protocol.CompletionList{IsIncomplete: isIncomplete, Items: items}, nil
}

// asCompletionItem maps one tagged completion datum to a reply item and
// registers it in the completion cache. Exactly one variant field may be
// set; anything else is a programmer error.
func (s *Server) asCompletionItem(c *javac.Completion) (protocol.CompletionItem, error) {
	id := uuid.NewString()
	item := protocol.CompletionItem{Data: id}
	switch {
	case c.Element != nil:
		el := c.Element
		item.Label = el.Name
		item.Kind = completionItemKind(el)
		// Detailed method signatures are resolved lazily from docs.
		if !el.IsExecutable() {
			item.Detail = elementDetail(el)
		}
		if el.IsMemberOfObject() {
			item.SortText = "9" + item.Label
		} else {
			item.SortText = "2" + item.Label
		}
	case c.PackagePart != nil:
		item.Label = c.PackagePart.Name
		item.Kind = protocol.CompletionKindModule
		item.Detail = c.PackagePart.FullName
		item.SortText = "2" + item.Label
	case c.Keyword != "":
		item.Label = c.Keyword
		item.Kind = protocol.CompletionKindKeyword
		item.Detail = "keyword"
		item.SortText = "3" + item.Label
	case c.ClassName != nil:
		item.Label = lastName(c.ClassName.Name)
		item.Kind = protocol.CompletionKindClass
		item.Detail = c.ClassName.Name
		if c.ClassName.Imported {
			item.SortText = "2" + item.Label
		} else {
			item.SortText = "4" + item.Label
		}
	case c.Snippet != nil:
		item.Label = c.Snippet.Label
		item.Kind = protocol.CompletionKindSnippet
		item.InsertText = c.Snippet.Snippet
		item.InsertTextFormat = protocol.InsertTextSnippet
		item.SortText = "1" + item.Label
	default:
		return item, protocol.NewRequestError(protocol.CodeInternalError,
			"completion datum has no variant set")
	}
	s.lastCompletions[id] = c
	return item, nil
}

func elementDetail(el *javac.Element) string {
	switch {
	case el.Kind.IsType():
		return el.Name
	case el.Type != "":
		return el.Type
	default:
		return el.Kind.String()
	}
}

func (s *Server) handleResolveCompletionItem(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item protocol.CompletionItem
	if err := json.Unmarshal(params, &item); err != nil {
		return nil, err
	}
	id, ok := item.Data.(string)
	if !ok || id == "" {
		return item, nil
	}
	cached, ok := s.lastCompletions[id]
	if !ok {
		debug.Warnf("completion item %s was not in the cache", id)
		return item, nil
	}
	switch {
	case cached.Element != nil:
		el := cached.Element
		if el.IsExecutable() {
			detail, ok := s.findMethodDetails(el)
			if !ok {
				detail = defaultDetails(el)
			}
			item.Detail = detail
		}
		if md, ok := s.findDocs(el.Ptr()); ok {
			item.Documentation = md
		}
	case cached.ClassName != nil:
		ptr := types.NewClassPtr(mostName(cached.ClassName.Name), lastName(cached.ClassName.Name))
		if md, ok := s.findDocs(ptr); ok {
			item.Documentation = md
		}
	}
	return item, nil
}

// findDocs renders the first sentence of the declaration's javadoc.
func (s *Server) findDocs(ptr types.Ptr) (*protocol.MarkupContent, bool) {
	docs := s.compiler.Docs()
	uri, ok := docs.Find(ptr)
	if !ok {
		return nil, false
	}
	parse, ok := docs.Parse(uri)
	if !ok {
		return nil, false
	}
	el, ok := parse.FuzzyFind(ptr)
	if !ok {
		return nil, false
	}
	doc, ok := parse.Doc(el)
	if !ok || doc.FirstSentence == "" {
		return nil, false
	}
	return &protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: doc.FirstSentence}, true
}

// findMethodDetails writes a method signature using parameter names from the
// declaring workspace source file.
func (s *Server) findMethodDetails(el *javac.Element) (string, bool) {
	docs := s.compiler.Docs()
	ptr := el.Ptr()
	uri, ok := docs.Find(ptr)
	if !ok {
		return "", false
	}
	parse, ok := docs.Parse(uri)
	if !ok {
		return "", false
	}
	found, ok := parse.FuzzyFind(ptr)
	if !ok || !found.IsExecutable() {
		if ok {
			debug.Warnf("method %s resolved to non-method declaration", el.Name)
		}
		return "", false
	}
	names := make([]string, len(found.Params))
	for i, p := range found.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s %s(%s)", found.Type, found.Name, strings.Join(names, ", ")), true
}

var argNPattern = regexp.MustCompile(`^arg\d+$`)

// defaultDetails renders a method signature from the element alone,
// substituting parameter types when every name is the synthetic argN form.
func defaultDetails(el *javac.Element) string {
	missingNames := len(el.Params) > 0
	for _, p := range el.Params {
		if !argNPattern.MatchString(p.Name) {
			missingNames = false
			break
		}
	}
	parts := make([]string, len(el.Params))
	for i, p := range el.Params {
		if missingNames {
			parts[i] = p.Type
		} else {
			parts[i] = p.Name
		}
	}
	return fmt.Sprintf("%s %s(%s)", el.Type, el.Name, strings.Join(parts, ", "))
}

// lastName returns the final segment of a dotted name.
func lastName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// mostName returns everything before the final segment of a dotted name.
func mostName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}
