package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jls/internal/protocol"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

func open(s *Store, uri, text string, version int) {
	s.Open(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "java", Version: version, Text: text},
	})
}

func TestOpenBufferShadowsDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.java")
	require.NoError(t, os.WriteFile(path, []byte("class Disk {}"), 0644))
	uri := pathutil.ToURI(path)

	s := NewStore()
	content, err := s.Contents(uri)
	require.NoError(t, err)
	assert.Equal(t, "class Disk {}", content)

	open(s, uri, "class Buffer {}", 1)
	content, err = s.Contents(uri)
	require.NoError(t, err)
	assert.Equal(t, "class Buffer {}", content)
	assert.True(t, s.IsOpen(uri))

	s.Close(protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}})
	content, err = s.Contents(uri)
	require.NoError(t, err)
	assert.Equal(t, "class Disk {}", content)
}

func TestIncrementalChange(t *testing.T) {
	s := NewStore()
	uri := "file:///mem/A.java"
	open(s, uri, "class A {\n  int x;\n}\n", 1)

	err := s.Change(protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 1, Character: 6},
				End:   protocol.Position{Line: 1, Character: 7},
			},
			Text: "y",
		}},
	})
	require.NoError(t, err)

	content, err := s.Contents(uri)
	require.NoError(t, err)
	assert.Equal(t, "class A {\n  int y;\n}\n", content)
	assert.Equal(t, 2, s.Version(uri))
}

func TestFullReplaceChange(t *testing.T) {
	s := NewStore()
	uri := "file:///mem/A.java"
	open(s, uri, "class A {}", 1)

	err := s.Change(protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{URI: uri, Version: 5},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "class B {}"}},
	})
	require.NoError(t, err)

	content, _ := s.Contents(uri)
	assert.Equal(t, "class B {}", content)
	assert.Equal(t, 5, s.Version(uri))
}

func TestChangeOnClosedDocumentFails(t *testing.T) {
	s := NewStore()
	err := s.Change(protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{URI: "file:///mem/X.java", Version: 1},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "x"}},
	})
	assert.Error(t, err)
}

func TestVersionsAreMonotonic(t *testing.T) {
	s := NewStore()
	uri := "file:///mem/A.java"
	open(s, uri, "class A {}", 3)
	v1 := s.Version(uri)

	// A stale client version must not move the version backwards.
	err := s.Change(protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{URI: uri, Version: 1},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "class A2 {}"}},
	})
	require.NoError(t, err)
	assert.Greater(t, s.Version(uri), v1)
}

func TestExternalChangeBumpsOnlyOnRealChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "B.java")
	require.NoError(t, os.WriteFile(path, []byte("class B {}"), 0644))
	uri := pathutil.ToURI(path)

	s := NewStore()
	s.ExternalChange(path)
	v1 := s.Version(uri)
	s.ExternalChange(path)
	assert.Equal(t, v1, s.Version(uri), "same content, same version")

	require.NoError(t, os.WriteFile(path, []byte("class B { int x; }"), 0644))
	s.ExternalChange(path)
	assert.Greater(t, s.Version(uri), v1)
}

func TestExternalChangeDoesNotTouchOpenBuffers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "C.java")
	require.NoError(t, os.WriteFile(path, []byte("class C {}"), 0644))
	uri := pathutil.ToURI(path)

	s := NewStore()
	open(s, uri, "class Edited {}", 1)
	v := s.Version(uri)

	require.NoError(t, os.WriteFile(path, []byte("class External {}"), 0644))
	s.ExternalChange(path)

	content, _ := s.Contents(uri)
	assert.Equal(t, "class Edited {}", content)
	assert.Equal(t, v, s.Version(uri))
}

func TestJavaSourceURIs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "A.java"), []byte("class A {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "notes.txt"), []byte("x"), 0644))

	s := NewStore()
	s.SetWorkspaceRoots([]string{dir})
	uris := s.JavaSourceURIs()
	require.Len(t, uris, 1)
	assert.Equal(t, "A.java", pathutil.FileName(uris[0]))
}

func TestActiveDocuments(t *testing.T) {
	s := NewStore()
	open(s, "file:///mem/A.java", "class A {}", 1)
	open(s, "file:///mem/B.java", "class B {}", 1)
	s.Close(protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: "file:///mem/B.java"}})
	assert.ElementsMatch(t, []string{"file:///mem/A.java"}, s.ActiveDocuments())
}
