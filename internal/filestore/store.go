// Package filestore owns the contents and versions of every document the
// server knows about: open editor buffers take priority over the disk, and
// files the editor never opened are read and fingerprinted on demand.
package filestore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

type entry struct {
	content string
	version int
	open    bool
	// hash fingerprints disk content for files the editor has not opened,
	// so external change events only bump the version on a real change.
	hash uint64
}

// Store is the single owner of document state. All mutation happens inside
// request handlers, but the watcher posts external events from its own
// goroutine, so access is guarded.
type Store struct {
	mu             sync.Mutex
	files          map[string]*entry
	workspaceRoots []string
}

func NewStore() *Store {
	return &Store{files: make(map[string]*entry)}
}

// SetWorkspaceRoots records the directories that contain workspace sources.
func (s *Store) SetWorkspaceRoots(roots []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaceRoots = roots
}

// WorkspaceRoots returns the configured root directories.
func (s *Store) WorkspaceRoots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.workspaceRoots...)
}

// Open registers an editor buffer. The buffer content shadows the disk until
// Close.
func (s *Store) Open(params protocol.DidOpenTextDocumentParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := params.TextDocument.URI
	e := s.files[uri]
	if e == nil {
		e = &entry{}
		s.files[uri] = e
	}
	e.content = params.TextDocument.Text
	e.open = true
	if params.TextDocument.Version > e.version {
		e.version = params.TextDocument.Version
	} else {
		e.version++
	}
}

// Change applies content changes to an open buffer. A change without a range
// replaces the whole document; a ranged change splices the given span.
func (s *Store) Change(params protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := params.TextDocument.URI
	e := s.files[uri]
	if e == nil || !e.open {
		return fmt.Errorf("change for document that is not open: %s", uri)
	}
	for _, c := range params.ContentChanges {
		if c.Range == nil {
			e.content = c.Text
			continue
		}
		start, err := offsetOf(e.content, c.Range.Start)
		if err != nil {
			return err
		}
		end, err := offsetOf(e.content, c.Range.End)
		if err != nil {
			return err
		}
		if start > end || end > len(e.content) {
			return fmt.Errorf("bad change range %v for %s", *c.Range, uri)
		}
		e.content = e.content[:start] + c.Text + e.content[end:]
	}
	if params.TextDocument.Version > e.version {
		e.version = params.TextDocument.Version
	} else {
		e.version++
	}
	return nil
}

// Close releases an editor buffer; subsequent reads come from disk.
func (s *Store) Close(params protocol.DidCloseTextDocumentParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := params.TextDocument.URI
	if e := s.files[uri]; e != nil {
		e.open = false
		e.content = ""
		e.hash = 0
	}
}

// ExternalCreate records a file created outside the editor.
func (s *Store) ExternalCreate(path string) {
	s.ExternalChange(path)
}

// ExternalChange bumps the version of a non-open file when its disk content
// actually changed. Open buffers are left alone: the editor's state wins.
func (s *Store) ExternalChange(path string) {
	uri := pathutil.ToURI(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.files[uri]
	if e != nil && e.open {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		debug.LogWatch("external change unreadable %s: %v", path, err)
		return
	}
	h := xxhash.Sum64(data)
	if e == nil {
		e = &entry{}
		s.files[uri] = e
	}
	if e.hash != h {
		e.hash = h
		e.version++
	}
}

// ExternalDelete forgets a file deleted outside the editor.
func (s *Store) ExternalDelete(path string) {
	uri := pathutil.ToURI(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.files[uri]; e != nil && !e.open {
		delete(s.files, uri)
	}
}

// Contents returns the current text of a document: the open buffer if the
// editor owns it, otherwise the disk content.
func (s *Store) Contents(uri string) (string, error) {
	s.mu.Lock()
	e := s.files[uri]
	if e != nil && e.open {
		content := e.content
		s.mu.Unlock()
		return content, nil
	}
	s.mu.Unlock()
	data, err := os.ReadFile(pathutil.ToPath(uri))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", uri, err)
	}
	return string(data), nil
}

// Version returns the monotonically increasing version of a document.
// Unknown files report 0.
func (s *Store) Version(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.files[uri]; e != nil {
		return e.version
	}
	return 0
}

// IsOpen reports whether the editor currently owns the document.
func (s *Store) IsOpen(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.files[uri]
	return e != nil && e.open
}

// ActiveDocuments lists the URIs of all open buffers.
func (s *Store) ActiveDocuments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var uris []string
	for uri, e := range s.files {
		if e.open {
			uris = append(uris, uri)
		}
	}
	return uris
}

// IsJavaFile reports whether the URI names a Java source file.
func (s *Store) IsJavaFile(uri string) bool {
	return pathutil.IsJavaURI(uri)
}

// JavaSourceURIs walks the workspace roots and returns every .java file,
// merged with any open Java buffers outside the roots.
func (s *Store) JavaSourceURIs() []string {
	seen := make(map[string]bool)
	var uris []string
	for _, root := range s.WorkspaceRoots() {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".java") {
				uri := pathutil.ToURI(path)
				if !seen[uri] {
					seen[uri] = true
					uris = append(uris, uri)
				}
			}
			return nil
		})
	}
	for _, uri := range s.ActiveDocuments() {
		if s.IsJavaFile(uri) && !seen[uri] {
			seen[uri] = true
			uris = append(uris, uri)
		}
	}
	return uris
}

// offsetOf converts a protocol position (0-based line and character) to a
// byte offset into content.
func offsetOf(content string, pos protocol.Position) (int, error) {
	offset := 0
	line := 0
	for line < pos.Line {
		next := strings.IndexByte(content[offset:], '\n')
		if next < 0 {
			return 0, fmt.Errorf("line %d out of range", pos.Line)
		}
		offset += next + 1
		line++
	}
	rest := content[offset:]
	col := pos.Character
	if lineEnd := strings.IndexByte(rest, '\n'); lineEnd >= 0 && col > lineEnd {
		col = lineEnd
	} else if lineEnd < 0 && col > len(rest) {
		col = len(rest)
	}
	return offset + col, nil
}
