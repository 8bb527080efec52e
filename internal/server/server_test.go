package server

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jls/internal/filestore"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

// testHarness wires a dispatcher to an in-memory transport whose outgoing
// frames land in out.
type testHarness struct {
	s   *Server
	out *bytes.Buffer
	dir string
}

func newHarness(t *testing.T, files map[string]string) *testHarness {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	out := &bytes.Buffer{}
	client := protocol.NewClient(protocol.NewServer(strings.NewReader(""), out))
	store := filestore.NewStore()
	s := New(client, store)

	_, err := s.handleInitialize(mustJSON(t, protocol.InitializeParams{
		RootURI: pathutil.ToURI(dir),
	}))
	require.NoError(t, err)
	s.handleInitialized(nil)

	return &testHarness{s: s, out: out, dir: dir}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func (h *testHarness) uri(name string) string {
	return pathutil.ToURI(filepath.Join(h.dir, name))
}

func (h *testHarness) open(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(h.dir, name))
	require.NoError(t, err)
	h.s.handleDidOpen(mustJSON(t, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI: h.uri(name), LanguageID: "java", Version: 1, Text: string(content),
		},
	}))
	return h.uri(name)
}

// posAfter returns the 0-based protocol position just past marker.
func posAfter(t *testing.T, content, marker string) protocol.Position {
	t.Helper()
	i := strings.Index(content, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q", marker)
	offset := i + len(marker)
	line := strings.Count(content[:offset], "\n")
	lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
	return protocol.Position{Line: line, Character: offset - lineStart}
}

func TestInitializeCapabilities(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.s.handleInitialize(mustJSON(t, protocol.InitializeParams{RootURI: pathutil.ToURI(h.dir)}))
	require.NoError(t, err)

	caps := res.(protocol.InitializeResult).Capabilities
	assert.Equal(t, protocol.SyncIncremental, caps.TextDocumentSync)
	assert.True(t, caps.HoverProvider)
	require.NotNil(t, caps.CompletionProvider)
	assert.True(t, caps.CompletionProvider.ResolveProvider)
	assert.Equal(t, []string{"."}, caps.CompletionProvider.TriggerCharacters)
	require.NotNil(t, caps.SignatureHelpProvider)
	assert.Equal(t, []string{"(", ","}, caps.SignatureHelpProvider.TriggerCharacters)
	require.NotNil(t, caps.CodeLensProvider)
	assert.True(t, caps.CodeLensProvider.ResolveProvider)
	assert.True(t, caps.FoldingRangeProvider)
}

// Scenario: empty completion context yields exactly the top-level keywords.
func TestCompletionTopLevelKeywords(t *testing.T) {
	content := "class A { \n}\n"
	h := newHarness(t, map[string]string{"A.java": content})
	uri := h.open(t, "A.java")

	res, err := h.s.handleCompletion(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: 0, Character: 10},
	}))
	require.NoError(t, err)
	list := res.(protocol.CompletionList)

	require.Len(t, list.Items, 10)
	for _, item := range list.Items {
		assert.Equal(t, protocol.CompletionKindKeyword, item.Kind)
		assert.Equal(t, "keyword", item.Detail)
	}
}

// Scenario: member completion on "this." includes the field with its type
// and the in-scope sort tier; Object members carry tier 9.
func TestCompletionMembers(t *testing.T) {
	content := "class B { int x; void m() { this.x; } }\n"
	h := newHarness(t, map[string]string{"B.java": content})
	uri := h.open(t, "B.java")

	res, err := h.s.handleCompletion(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     posAfter(t, content, "this."),
	}))
	require.NoError(t, err)
	list := res.(protocol.CompletionList)

	var sawField, sawObjectMember bool
	for _, item := range list.Items {
		if item.Label == "x" {
			sawField = true
			assert.Equal(t, protocol.CompletionKindField, item.Kind)
			assert.Equal(t, "int", item.Detail)
			assert.Equal(t, "2x", item.SortText)
		}
		if item.Label == "hashCode" {
			sawObjectMember = true
			assert.True(t, strings.HasPrefix(item.SortText, "9"))
		}
	}
	assert.True(t, sawField)
	assert.True(t, sawObjectMember)
}

// Every emitted item must resolve against the completion cache.
func TestCompletionItemRoundTrip(t *testing.T) {
	content := "class B { int x; void m() { this.x; } }\n"
	h := newHarness(t, map[string]string{"B.java": content})
	uri := h.open(t, "B.java")

	res, err := h.s.handleCompletion(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     posAfter(t, content, "this."),
	}))
	require.NoError(t, err)
	list := res.(protocol.CompletionList)
	require.NotEmpty(t, list.Items)

	for _, item := range list.Items {
		id, ok := item.Data.(string)
		require.True(t, ok)
		_, hit := h.s.lastCompletions[id]
		assert.True(t, hit, "item %s has a cache entry", item.Label)
	}

	// Resolving a method item fills in its signature detail.
	for _, item := range list.Items {
		if item.Label != "m" {
			continue
		}
		resolved, err := h.s.handleResolveCompletionItem(mustJSON(t, item))
		require.NoError(t, err)
		assert.Contains(t, resolved.(protocol.CompletionItem).Detail, "m(")
	}
}

func TestResolveUnknownCompletionItemPassesThrough(t *testing.T) {
	h := newHarness(t, nil)
	item := protocol.CompletionItem{Label: "ghost", Data: "not-a-cached-id"}
	res, err := h.s.handleResolveCompletionItem(mustJSON(t, item))
	require.NoError(t, err)
	assert.Equal(t, "ghost", res.(protocol.CompletionItem).Label)
}

// Scenario: a method overriding an interface method gets exactly one
// @Override insertion with the method's indentation.
func TestFormattingInsertsOverride(t *testing.T) {
	content := `package demo;

interface Runner {
    void run();
}

class Task implements Runner {
    void run() {
    }
}
`
	h := newHarness(t, map[string]string{"Task.java": content})
	uri := h.open(t, "Task.java")

	res, err := h.s.handleFormatting(mustJSON(t, protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.NoError(t, err)
	edits := res.([]protocol.TextEdit)

	var overrides []protocol.TextEdit
	for _, e := range edits {
		if strings.Contains(e.NewText, "@Override") {
			overrides = append(overrides, e)
		}
	}
	require.Len(t, overrides, 1)
	assert.Equal(t, "    @Override\n", overrides[0].NewText)
	assert.Equal(t, 0, overrides[0].Range.Start.Character)
	// The insertion sits on the method's own line, pushing it down.
	assert.Equal(t, 7, overrides[0].Range.Start.Line)
}

// Scenario: unused import deleted, missing import inserted at the first
// import line.
func TestFormattingFixesImports(t *testing.T) {
	content := `package demo;

import java.util.Map;

class A {
    List<String> names;
}
`
	h := newHarness(t, map[string]string{"A.java": content})
	uri := h.open(t, "A.java")

	res, err := h.s.handleFormatting(mustJSON(t, protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.NoError(t, err)
	edits := res.([]protocol.TextEdit)

	var deletion, insertion *protocol.TextEdit
	for i := range edits {
		if edits[i].NewText == "" {
			deletion = &edits[i]
		}
		if strings.Contains(edits[i].NewText, "import java.util.List;\n") {
			insertion = &edits[i]
		}
	}
	require.NotNil(t, deletion, "the Map import line is deleted")
	assert.Equal(t, 2, deletion.Range.Start.Line)
	assert.Equal(t, 3, deletion.Range.End.Line)
	require.NotNil(t, insertion)
	assert.Equal(t, 2, insertion.Range.Start.Line, "insert at the first existing import")
}

const lensTargetX = `package demo;

class X {
    void foo() {
    }
}
`

const lensSourceYTwoCalls = `package demo;

class Y {
    void run(X x) {
        x.foo();
        x.foo();
    }
}
`

const lensSourceYOneCall = `package demo;

class Y {
    void run(X x) {
        x.foo();
    }
}
`

func resolveFooLens(t *testing.T, h *testHarness, uri string) string {
	t.Helper()
	res, err := h.s.handleCodeLens(mustJSON(t, protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.NoError(t, err)
	lenses := res.([]protocol.CodeLens)

	var fooLens *protocol.CodeLens
	for i := range lenses {
		if len(lenses[i].Data) == 4 && lenses[i].Range.Start.Line == 3 {
			fooLens = &lenses[i]
		}
	}
	require.NotNil(t, fooLens, "unresolved lens on foo")

	resolved, err := h.s.handleResolveCodeLens(mustJSON(t, fooLens))
	require.NoError(t, err)
	lens := resolved.(protocol.CodeLens)
	require.NotNil(t, lens.Command)
	return lens.Command.Title
}

// Scenario: two calls count as "2 references"; after editing the caller to
// one call, only the caller re-indexes and the count drops to one.
func TestReferenceCountLensCached(t *testing.T) {
	h := newHarness(t, map[string]string{
		"X.java": lensTargetX,
		"Y.java": lensSourceYTwoCalls,
	})
	xURI := h.open(t, "X.java")
	yURI := h.open(t, "Y.java")

	assert.Equal(t, "2 references", resolveFooLens(t, h, xURI))

	h.s.handleDidChange(mustJSON(t, protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{URI: yURI, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: lensSourceYOneCall}},
	}))

	assert.Equal(t, "1 reference", resolveFooLens(t, h, xURI))
}

// Index monotonicity: with no changes, a second resolve reuses the cache and
// reports the same count.
func TestReferenceCountLensStableWithoutEdits(t *testing.T) {
	h := newHarness(t, map[string]string{
		"X.java": lensTargetX,
		"Y.java": lensSourceYTwoCalls,
	})
	xURI := h.open(t, "X.java")
	h.open(t, "Y.java")

	assert.Equal(t, "2 references", resolveFooLens(t, h, xURI))
	assert.Equal(t, "2 references", resolveFooLens(t, h, xURI))
}

// Scenario: more than ten candidate files stores the too-expensive marker
// and the title falls back to "Find references".
func TestReferenceCountLensTooExpensive(t *testing.T) {
	files := map[string]string{"X.java": lensTargetX}
	for _, suffix := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"} {
		files["Caller"+suffix+".java"] = `package demo;

class Caller` + suffix + ` {
    void run(X x) {
        x.foo();
    }
}
`
	}
	h := newHarness(t, files)
	xURI := h.open(t, "X.java")

	assert.Equal(t, "Find references", resolveFooLens(t, h, xURI))
}

// Clearing rule: switching the lens target file empties both cache maps
// before the new entry is written.
func TestReferenceCacheClearsOnTargetChange(t *testing.T) {
	h := newHarness(t, map[string]string{
		"X.java": lensTargetX,
		"Y.java": lensSourceYTwoCalls,
	})
	xURI := h.open(t, "X.java")
	yURI := h.open(t, "Y.java")

	h.s.countReferences(xURI, 4, 10)
	assert.NotEmpty(t, h.s.cacheReferences)
	assert.Equal(t, xURI, h.s.cacheReferencesFile)

	h.s.countReferences(yURI, 4, 10)
	assert.Equal(t, yURI, h.s.cacheReferencesFile)
	for ptr := range h.s.cacheReferences {
		assert.Contains(t, ptr.String(), "Y", "only entries for the new target survive: %s", ptr)
	}
}

func TestGoToDefinitionAcrossFiles(t *testing.T) {
	service := `package demo;

class Service {
    void handle(String request) {
    }
}
`
	client := `package demo;

class Client {
    void run(Service s) {
        s.handle("ping");
    }
}
`
	h := newHarness(t, map[string]string{"Service.java": service, "Client.java": client})
	clientURI := h.open(t, "Client.java")

	res, err := h.s.handleDefinition(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: clientURI},
		Position:     posAfter(t, client, "s.han"),
	}))
	require.NoError(t, err)
	locations := res.([]protocol.Location)
	require.Len(t, locations, 1)
	assert.Equal(t, h.uri("Service.java"), locations[0].URI)
	assert.Equal(t, 3, locations[0].Range.Start.Line)
}

func TestFindReferencesAcrossFiles(t *testing.T) {
	service := `package demo;

class Service {
    void handle(String request) {
    }
}
`
	client := `package demo;

class Client {
    void run(Service s) {
        s.handle("ping");
        s.handle("pong");
    }
}
`
	h := newHarness(t, map[string]string{"Service.java": service, "Client.java": client})
	serviceURI := h.open(t, "Service.java")

	res, err := h.s.handleReferences(mustJSON(t, protocol.ReferenceParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: serviceURI},
		Position:     posAfter(t, service, "void han"),
	}))
	require.NoError(t, err)
	locations := res.([]protocol.Location)
	require.Len(t, locations, 2)
	for _, l := range locations {
		assert.Equal(t, h.uri("Client.java"), l.URI)
	}
}

func TestDocumentSymbolContainers(t *testing.T) {
	content := `package demo;

class Outer {
    int field;

    class Inner {
        void m() {
        }
    }
}
`
	h := newHarness(t, map[string]string{"Outer.java": content})
	uri := h.open(t, "Outer.java")

	res, err := h.s.handleDocumentSymbol(mustJSON(t, protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.NoError(t, err)
	infos := res.([]protocol.SymbolInformation)

	byName := map[string]protocol.SymbolInformation{}
	for _, i := range infos {
		byName[i.Name] = i
	}
	assert.Equal(t, "demo", byName["Outer"].ContainerName, "top-level container is the package")
	assert.Equal(t, "Outer", byName["field"].ContainerName)
	assert.Equal(t, "Inner", byName["m"].ContainerName)
}

func TestNonJavaURIsYieldEmptyResults(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.s.handleDocumentSymbol(mustJSON(t, protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///p/pom.xml"},
	}))
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = h.s.handleCompletion(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///p/notes.txt"},
	}))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRenameIsUnimplemented(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.s.handleUnimplemented("rename")(nil)
	require.Error(t, err)
	re, ok := err.(*protocol.RequestError)
	require.True(t, ok)
	assert.Equal(t, protocol.CodeRequestFailed, re.Code)
}

func TestSignatureHelpActiveParameter(t *testing.T) {
	content := `package demo;

class App {
    void send(String to) {
    }

    void send(String to, int retries) {
    }

    void run() {
        send("bob",
    }
}
`
	h := newHarness(t, map[string]string{"App.java": content})
	uri := h.open(t, "App.java")

	res, err := h.s.handleSignatureHelp(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     posAfter(t, content, `send("bob",`),
	}))
	require.NoError(t, err)
	help := res.(protocol.SignatureHelp)
	require.Len(t, help.Signatures, 2)
	assert.Equal(t, 1, help.ActiveParameter)
	assert.Equal(t, "send(to, retries)", help.Signatures[help.ActiveSignature].Label)
}

func TestFoldingCoalescesImports(t *testing.T) {
	content := `package demo;

import java.util.List;
import java.util.Map;

class A {
    void m() {
    }
}
`
	h := newHarness(t, map[string]string{"A.java": content})
	uri := h.open(t, "A.java")

	res, err := h.s.handleFoldingRange(mustJSON(t, protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	require.NoError(t, err)
	folds := res.([]protocol.FoldingRange)

	var imports []protocol.FoldingRange
	for _, f := range folds {
		if f.Kind == protocol.FoldImports {
			imports = append(imports, f)
		}
	}
	require.Len(t, imports, 1, "adjacent imports merge into one range")
	assert.Equal(t, 2, imports[0].StartLine)
	assert.Equal(t, 3, imports[0].EndLine)
}

func TestHoverRendersDeclaration(t *testing.T) {
	content := `package demo;

class Point {
    int x;
}
`
	h := newHarness(t, map[string]string{"Point.java": content})
	uri := h.open(t, "Point.java")

	res, err := h.s.handleHover(mustJSON(t, protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     posAfter(t, content, "int "),
	}))
	require.NoError(t, err)
	hover := res.(protocol.Hover)
	require.NotEmpty(t, hover.Contents)
	code := hover.Contents[len(hover.Contents)-1]
	assert.Equal(t, "java", code.Language)
	assert.Contains(t, code.Value, "int x")
}

func TestWorkspaceSymbol(t *testing.T) {
	h := newHarness(t, map[string]string{
		"Mailer.java": "package demo;\nclass Mailer { void send() { } }\n",
	})

	res, err := h.s.handleWorkspaceSymbol(mustJSON(t, protocol.WorkspaceSymbolParams{Query: "Mailer"}))
	require.NoError(t, err)
	infos := res.([]protocol.SymbolInformation)
	require.NotEmpty(t, infos)
	assert.Equal(t, "Mailer", infos[0].Name)
	assert.Equal(t, protocol.SymbolKindClass, infos[0].Kind)
}

func TestClassPathToggleSemantics(t *testing.T) {
	h := newHarness(t, nil)

	before := h.s.compiler
	// Empty -> non-empty rebuilds.
	h.s.setClassPath([]string{"/libs/a.jar"})
	assert.NotSame(t, before, h.s.compiler)

	// Changing the contents of a non-empty set is a no-op. This pins the
	// original behaviour; see DESIGN.md before changing it.
	during := h.s.compiler
	h.s.setClassPath([]string{"/libs/b.jar"})
	assert.Same(t, during, h.s.compiler)

	// Non-empty -> empty rebuilds again.
	h.s.setClassPath(nil)
	assert.NotSame(t, during, h.s.compiler)
}
