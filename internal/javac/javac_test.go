package javac

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jls/internal/filestore"
	"github.com/standardbeagle/jls/pkg/pathutil"
)

func serviceOver(t *testing.T, files map[string]string) (*CompilerService, *filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	store := filestore.NewStore()
	store.SetWorkspaceRoots([]string{dir})
	svc := NewCompilerService(store, nil, nil)
	t.Cleanup(svc.Close)
	return svc, store, dir
}

func TestParseFileReusesTreeUntilVersionChanges(t *testing.T) {
	svc, _, dir := serviceOver(t, map[string]string{"A.java": "class A {}"})
	uri := pathutil.ToURI(filepath.Join(dir, "A.java"))

	p1 := svc.ParseFile(uri)
	p2 := svc.ParseFile(uri)
	assert.Same(t, p1, p2)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.java"), []byte("class A { int x; }"), 0644))
	svc.store.ExternalChange(filepath.Join(dir, "A.java"))

	p3 := svc.ParseFile(uri)
	assert.NotSame(t, p1, p3)
}

func TestPotentialReferencesScansByWord(t *testing.T) {
	svc, _, dir := serviceOver(t, map[string]string{
		"X.java":     "package demo;\nclass X { void foo() { } }\n",
		"Y.java":     "package demo;\nclass Y { void m(X x) { x.foo(); } }\n",
		"Other.java": "package demo;\nclass Other { void food() { } }\n",
	})

	uri := pathutil.ToURI(filepath.Join(dir, "X.java"))
	c := svc.CompileFile(uri)
	require.NotNil(t, c)
	line, col := cursorAfter(t, "package demo;\nclass X { void foo", "void fo")
	el, ok := c.Element(line, col)
	require.True(t, ok)

	refs := svc.PotentialReferences(el)
	names := map[string]bool{}
	for _, r := range refs {
		names[pathutil.FileName(r)] = true
	}
	assert.True(t, names["X.java"])
	assert.True(t, names["Y.java"])
	assert.False(t, names["Other.java"], "food is not the word foo")
}

func TestPotentialReferencesForConstructorUsesClassName(t *testing.T) {
	svc, _, dir := serviceOver(t, map[string]string{
		"Point.java": "package demo;\nclass Point { Point(int x) { } }\n",
		"Use.java":   "package demo;\nclass Use { Object o = new Point(1); }\n",
	})

	uri := pathutil.ToURI(filepath.Join(dir, "Point.java"))
	c := svc.CompileFile(uri)
	var ctor *Element
	for _, d := range c.Declarations() {
		if d.Kind == KindConstructor {
			ctor = d
		}
	}
	require.NotNil(t, ctor)

	refs := svc.PotentialReferences(ctor)
	assert.Len(t, refs, 2)
}

func TestFindSymbolsRanking(t *testing.T) {
	svc, _, _ := serviceOver(t, map[string]string{
		"A.java": "package demo;\nclass Mailer { void sendMail() { } }\n",
		"B.java": "package demo;\nclass MailQueue { int size; }\n",
	})

	matches := svc.FindSymbols("Mailer", 50)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Mailer", matches[0].Element.Name, "exact match ranks first")

	all := svc.FindSymbols("mail", 50)
	var names []string
	for _, m := range all {
		names = append(names, m.Element.Name)
	}
	assert.Contains(t, names, "Mailer")
	assert.Contains(t, names, "MailQueue")
	assert.Contains(t, names, "sendMail")
}

func TestFindSymbolsRespectsLimit(t *testing.T) {
	svc, _, _ := serviceOver(t, map[string]string{
		"A.java": "package demo;\nclass Mail1 { int mail2; void mail3() { } void mail4() { } }\n",
	})
	assert.Len(t, svc.FindSymbols("mail", 2), 2)
}

func TestReportErrorsFlagsSyntaxAndUnusedImports(t *testing.T) {
	svc, _, dir := serviceOver(t, map[string]string{
		"Bad.java":    "package demo;\nclass Bad { void m( { }\n",
		"Unused.java": "package demo;\nimport java.util.Map;\nclass Unused { }\n",
	})

	badURI := pathutil.ToURI(filepath.Join(dir, "Bad.java"))
	unusedURI := pathutil.ToURI(filepath.Join(dir, "Unused.java"))

	diags := svc.ReportErrors([]string{badURI, unusedURI, "file:///not/java.txt"})

	var sawSyntax, sawUnused bool
	for _, d := range diags {
		if d.URI == badURI && d.Kind == DiagError {
			sawSyntax = true
		}
		if d.URI == unusedURI && d.Code == "unused" {
			sawUnused = true
			assert.Equal(t, DiagWarning, d.Kind)
		}
	}
	assert.True(t, sawSyntax)
	assert.True(t, sawUnused)
}

func TestCompileFileResolvesSupertypeAcrossFiles(t *testing.T) {
	svc, _, dir := serviceOver(t, map[string]string{
		"Base.java": "package demo;\nclass Base { void run() { } }\n",
		"Sub.java":  "package demo;\nclass Sub extends Base {\n    void run() {\n    }\n}\n",
	})

	uri := pathutil.ToURI(filepath.Join(dir, "Sub.java"))
	c := svc.CompileFile(uri)
	require.NotNil(t, c)

	methods := c.NeedsOverrideAnnotation()
	require.Len(t, methods, 1)
	assert.Equal(t, "run", methods[0].Name)
}
