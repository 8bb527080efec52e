// Package server is the query dispatcher: the public operation surface of
// the language server. It owns the open-file state, the single-entry parse
// and active-file caches, the completion cache, and the reference-index
// cache, and it orchestrates the compiler facility to answer every request.
//
// Scheduling is single-threaded cooperative: one request runs to completion
// before the next is dispatched, so no request ever observes a
// partially-updated cache. The handler mutex exists only because the file
// watcher posts external events from its own goroutine.
package server

import (
	"encoding/json"
	"sync"

	"github.com/standardbeagle/jls/internal/config"
	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/filestore"
	"github.com/standardbeagle/jls/internal/javac"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/internal/types"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

// Version is stamped at build time.
var Version = "0.1.0"

// refList is one entry of references_by_target: the source files that
// actually reference the target declaration, or the too-expensive marker.
type refList struct {
	uris         []string
	tooExpensive bool
}

// tooExpensiveCount is the sentinel reference count reported when the
// candidate set is too large to compile.
const tooExpensiveCount = 100

// maxReferenceCandidates bounds the batch size the lens resolver is willing
// to compile.
const maxReferenceCandidates = 10

// Server is the dispatcher. All fields are guarded by mu; handlers lock it
// for their full duration.
type Server struct {
	mu sync.Mutex

	client   *protocol.Client
	store    *filestore.Store
	compiler *javac.CompilerService

	workspaceRoot        string
	externalDependencies []string
	classPath            []string

	// Single-entry parse cache.
	cacheParse        *javac.ParseResult
	cacheParseFile    string
	cacheParseVersion int

	// Single-entry full-compile cache.
	activeFile        *javac.CompileFile
	activeFileURI     string
	activeFileVersion int

	// Completion cache: datum by opaque item identifier, replaced wholesale
	// on the next completion request.
	lastCompletions map[string]*javac.Completion

	// Reference-index cache, keyed by the current target file. Both maps
	// clear together whenever the target changes. cacheIndexVersion pins
	// each index to the source version it was built from.
	cacheReferencesFile string
	cacheReferences     map[types.Ptr]*refList
	cacheIndex          map[string]*javac.Index
	cacheIndexVersion   map[string]int

	// recentlyOpened holds documents awaiting their first lint, flushed at
	// code-lens resolution.
	recentlyOpened []string

	// onInitialized runs after the compiler is first created, with the
	// workspace root; the CLI uses it to start the file watcher.
	onInitialized func(root string)
}

// New builds a dispatcher over the given transport.
func New(client *protocol.Client, store *filestore.Store) *Server {
	return &Server{
		client:            client,
		store:             store,
		lastCompletions:   make(map[string]*javac.Completion),
		cacheReferences:   make(map[types.Ptr]*refList),
		cacheIndex:        make(map[string]*javac.Index),
		cacheIndexVersion: make(map[string]int),
	}
}

// Register wires every LSP handler onto the transport.
func (s *Server) Register(srv *protocol.Server) {
	srv.Handle("initialize", s.handleInitialize)
	srv.Handle("shutdown", func(json.RawMessage) (any, error) { return nil, nil })
	srv.Handle("workspace/symbol", s.handleWorkspaceSymbol)
	srv.Handle("textDocument/completion", s.handleCompletion)
	srv.Handle("completionItem/resolve", s.handleResolveCompletionItem)
	srv.Handle("textDocument/hover", s.handleHover)
	srv.Handle("textDocument/signatureHelp", s.handleSignatureHelp)
	srv.Handle("textDocument/definition", s.handleDefinition)
	srv.Handle("textDocument/references", s.handleReferences)
	srv.Handle("textDocument/documentSymbol", s.handleDocumentSymbol)
	srv.Handle("textDocument/codeLens", s.handleCodeLens)
	srv.Handle("codeLens/resolve", s.handleResolveCodeLens)
	srv.Handle("textDocument/formatting", s.handleFormatting)
	srv.Handle("textDocument/foldingRange", s.handleFoldingRange)
	srv.Handle("textDocument/prepareRename", s.handleUnimplemented("prepareRename"))
	srv.Handle("textDocument/rename", s.handleUnimplemented("rename"))

	srv.OnNotify("initialized", s.handleInitialized)
	srv.OnNotify("exit", func(json.RawMessage) {})
	srv.OnNotify("workspace/didChangeConfiguration", s.handleDidChangeConfiguration)
	srv.OnNotify("workspace/didChangeWatchedFiles", s.handleDidChangeWatchedFiles)
	srv.OnNotify("textDocument/didOpen", s.handleDidOpen)
	srv.OnNotify("textDocument/didChange", s.handleDidChange)
	srv.OnNotify("textDocument/didClose", s.handleDidClose)
	srv.OnNotify("textDocument/didSave", s.handleDidSave)
}

func (s *Server) handleUnimplemented(name string) protocol.HandlerFunc {
	return func(json.RawMessage) (any, error) {
		return nil, protocol.NewRequestError(protocol.CodeRequestFailed, "%s is not implemented", name)
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	root := pathutil.ToPath(p.RootURI)
	if root == "" {
		root = p.RootPath
	}
	s.workspaceRoot = root
	s.store.SetWorkspaceRoots([]string{root})

	settings, err := config.Load(root)
	if err != nil {
		debug.Warnf("project config: %v", err)
	} else {
		s.classPath = settings.ClassPath
		s.externalDependencies = settings.ExternalDependencies
	}

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.SyncIncremental,
			HoverProvider:    true,
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   true,
				TriggerCharacters: []string{"."},
			},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
			ReferencesProvider:         true,
			DefinitionProvider:         true,
			WorkspaceSymbolProvider:    true,
			DocumentSymbolProvider:     true,
			DocumentFormattingProvider: true,
			CodeLensProvider:           &protocol.CodeLensOptions{ResolveProvider: true},
			FoldingRangeProvider:       true,
		},
		ServerInfo: &protocol.ServerInfo{Name: "jls", Version: Version},
	}, nil
}

// OnInitialized registers a hook that runs once initialization completes.
func (s *Server) OnInitialized(fn func(root string)) {
	s.onInitialized = fn
}

func (s *Server) handleInitialized(json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCompiler()
	s.client.RegisterCapability("workspace/didChangeWatchedFiles",
		protocol.DidChangeWatchedFilesRegistrationOptions{
			Watchers: []protocol.FileSystemWatcher{{GlobPattern: "**/*.java"}},
		})
	if s.onInitialized != nil {
		s.onInitialized(s.workspaceRoot)
	}
}

// createCompiler (re)builds the facility. A new facility means new element
// identities, so every derived cache is dropped with it.
func (s *Server) createCompiler() {
	s.javaStartProgress("Configure javac")
	s.javaReportProgress("Finding source roots")

	if old := s.compiler; old != nil {
		old.Close()
	}
	if len(s.classPath) > 0 {
		s.compiler = javac.NewCompilerService(s.store, s.classPath, nil)
	} else {
		s.javaReportProgress("Inferring class path")
		s.compiler = javac.NewCompilerService(s.store, nil, nil)
	}
	s.javaEndProgress()

	s.cacheParse = nil
	s.cacheParseFile = ""
	s.cacheParseVersion = -1
	s.activeFile = nil
	s.activeFileURI = ""
	s.activeFileVersion = -1
	s.lastCompletions = make(map[string]*javac.Completion)
	s.cacheReferencesFile = ""
	s.cacheReferences = make(map[types.Ptr]*refList)
	s.cacheIndex = make(map[string]*javac.Index)
	s.cacheIndexVersion = make(map[string]int)
}

// setExternalDependencies rebuilds the compiler only when the set toggles
// between empty and non-empty; content changes of a non-empty set are a
// no-op.
func (s *Server) setExternalDependencies(deps []string) {
	changed := (len(s.externalDependencies) == 0) != (len(deps) == 0)
	s.externalDependencies = deps
	if changed && s.compiler != nil {
		s.createCompiler()
	}
}

// setClassPath follows the same toggle rule as setExternalDependencies.
func (s *Server) setClassPath(classPath []string) {
	changed := (len(s.classPath) == 0) != (len(classPath) == 0)
	s.classPath = classPath
	if changed && s.compiler != nil {
		s.createCompiler()
	}
}

func (s *Server) handleDidChangeConfiguration(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didChangeConfiguration: %v", err)
		return
	}
	settings, err := config.ParseDidChangeConfiguration(p.Settings)
	if err != nil {
		debug.Warnf("didChangeConfiguration: %v", err)
		return
	}
	s.setExternalDependencies(settings.ExternalDependencies)
	s.setClassPath(settings.ClassPath)
}

func (s *Server) handleDidChangeWatchedFiles(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidChangeWatchedFilesParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didChangeWatchedFiles: %v", err)
		return
	}
	for _, c := range p.Changes {
		if !s.store.IsJavaFile(c.URI) {
			continue
		}
		path := pathutil.ToPath(c.URI)
		switch c.Type {
		case protocol.FileCreated:
			s.store.ExternalCreate(path)
		case protocol.FileChanged:
			s.store.ExternalChange(path)
		case protocol.FileDeleted:
			s.store.ExternalDelete(path)
		}
	}
}

// ExternalFileEvent is the watcher's entry point; it reuses the watched-file
// handling under the dispatch lock.
func (s *Server) ExternalFileEvent(path string, eventType int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch eventType {
	case protocol.FileCreated:
		s.store.ExternalCreate(path)
	case protocol.FileChanged:
		s.store.ExternalChange(path)
	case protocol.FileDeleted:
		s.store.ExternalDelete(path)
	}
}

func (s *Server) handleDidOpen(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didOpen: %v", err)
		return
	}
	s.store.Open(p)
	uri := p.TextDocument.URI
	if s.store.IsJavaFile(uri) {
		// Lint this document later, and warm the parse cache so the first
		// documentSymbol and codeLens requests are fast.
		s.recentlyOpened = append(s.recentlyOpened, uri)
		s.updateCachedParse(uri)
	}
}

func (s *Server) handleDidChange(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didChange: %v", err)
		return
	}
	if err := s.store.Change(p); err != nil {
		debug.Warnf("didChange: %v", err)
	}
}

func (s *Server) handleDidClose(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didClose: %v", err)
		return
	}
	s.store.Close(p)
	if s.store.IsJavaFile(p.TextDocument.URI) {
		// Clear diagnostics.
		s.publishDiagnostics([]string{p.TextDocument.URI}, nil)
	}
}

func (s *Server) handleDidSave(params json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		debug.Warnf("didSave: %v", err)
		return
	}
	if s.store.IsJavaFile(p.TextDocument.URI) {
		// Re-lint all open documents.
		s.reportErrors(s.store.ActiveDocuments())
	}
}

// updateCachedParse maintains the single-entry parse cache keyed by
// (uri, version).
func (s *Server) updateCachedParse(uri string) *javac.ParseResult {
	version := s.store.Version(uri)
	if uri == s.cacheParseFile && version == s.cacheParseVersion && s.cacheParse != nil {
		return s.cacheParse
	}
	debug.LogCompile("updating cached parse to %s", pathutil.FileName(uri))
	s.cacheParse = s.compiler.ParseFile(uri)
	s.cacheParseFile = uri
	s.cacheParseVersion = version
	return s.cacheParse
}

// updateActiveFile maintains the single-entry full-compile cache keyed by
// (uri, version).
func (s *Server) updateActiveFile(uri string) *javac.CompileFile {
	version := s.store.Version(uri)
	if s.activeFile != nil && s.activeFileURI == uri && s.activeFileVersion == version {
		return s.activeFile
	}
	debug.LogCompile("recompiling active file %s", pathutil.FileName(uri))
	s.activeFile = s.compiler.CompileFile(uri)
	s.activeFileURI = uri
	s.activeFileVersion = version
	return s.activeFile
}

// position converts protocol coordinates (0-based) to facility coordinates
// (1-based). This is the only place the conversion happens on the way in.
func position(p protocol.Position) (line, column int) {
	return p.Line + 1, p.Character + 1
}

// spanToRange converts facility coordinates back to protocol coordinates.
func spanToRange(sp javac.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: sp.StartLine - 1, Character: sp.StartColumn - 1},
		End:   protocol.Position{Line: sp.EndLine - 1, Character: sp.EndColumn - 1},
	}
}
