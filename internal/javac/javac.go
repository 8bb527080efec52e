package javac

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/jls/internal/debug"
	"github.com/standardbeagle/jls/internal/filestore"
)

// CompilerService is the facility facade. It is created once per classpath
// configuration and replaced atomically when the configuration toggles;
// everything it hands out is keyed to this instance, so replacement
// invalidates all downstream caches by construction.
type CompilerService struct {
	store     *filestore.Store
	classPath []string
	docPath   []string

	mu     sync.Mutex
	parses map[string]*parseEntry
}

type parseEntry struct {
	version int
	parse   *ParseResult
}

// classEntry locates a workspace type declaration.
type classEntry struct {
	Name    string
	Package string
	URI     string
}

// NewCompilerService builds a facility over the file store with the given
// classpath and doc path.
func NewCompilerService(store *filestore.Store, classPath, docPath []string) *CompilerService {
	return &CompilerService{
		store:     store,
		classPath: append([]string(nil), classPath...),
		docPath:   append([]string(nil), docPath...),
		parses:    make(map[string]*parseEntry),
	}
}

// Close releases every cached parse tree.
func (s *CompilerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.parses {
		e.parse.Close()
	}
	s.parses = make(map[string]*parseEntry)
}

// ParseFile parses a file, reusing the cached tree while the store version
// is unchanged.
func (s *CompilerService) ParseFile(uri string) *ParseResult {
	version := s.store.Version(uri)
	s.mu.Lock()
	if e, ok := s.parses[uri]; ok && e.version == version {
		p := e.parse
		s.mu.Unlock()
		return p
	}
	s.mu.Unlock()

	content, err := s.store.Contents(uri)
	if err != nil {
		debug.LogCompile("parse %s: %v", uri, err)
		return nil
	}
	p := Parse(uri, content)

	s.mu.Lock()
	if old, ok := s.parses[uri]; ok {
		old.parse.Close()
	}
	s.parses[uri] = &parseEntry{version: version, parse: p}
	s.mu.Unlock()
	return p
}

// CompileFile produces the full-file compilation for one source file.
func (s *CompilerService) CompileFile(uri string) *CompileFile {
	p := s.ParseFile(uri)
	if p == nil {
		return nil
	}
	res := newResolver([]*ParseResult{p}, s.classLookup())
	res.loader = s.typeLoader()
	return &CompileFile{Parse: p, res: res}
}

// CompileFocus produces the point-anchored compilation for completion and
// signature help.
func (s *CompilerService) CompileFocus(uri string, line, column int) *Focus {
	p := s.ParseFile(uri)
	if p == nil {
		return nil
	}
	res := newResolver([]*ParseResult{p}, s.classLookup())
	res.loader = s.typeLoader()
	return newFocus(p, res, s.classList(), line, column)
}

// CompileBatch compiles a set of (possibly pruned) sources together.
func (s *CompilerService) CompileBatch(files []SourceFileObject) *Batch {
	b := newBatch(files, s.classLookup())
	b.res.loader = s.typeLoader()
	return b
}

// PotentialDefinitions returns the URIs that might define el, by a parallel
// word scan over the workspace.
func (s *CompilerService) PotentialDefinitions(el *Element) []string {
	return s.scanForWord(wordOf(el))
}

// PotentialReferences returns the URIs that might reference el.
func (s *CompilerService) PotentialReferences(el *Element) []string {
	return s.scanForWord(wordOf(el))
}

// wordOf is the identifier to scan for: the element's simple name, or the
// class name for constructors.
func wordOf(el *Element) string {
	if el.Kind == KindConstructor {
		return lastSegment(el.OwnerChain())
	}
	return el.Name
}

func (s *CompilerService) scanForWord(word string) []string {
	uris := s.store.JavaSourceURIs()
	var (
		mu  sync.Mutex
		out []string
	)
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for _, uri := range uris {
		g.Go(func() error {
			content, err := s.store.Contents(uri)
			if err != nil {
				return nil
			}
			if containsWord(content, word) {
				mu.Lock()
				out = append(out, uri)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return out
}

// ReportErrors collects diagnostics for a set of files.
func (s *CompilerService) ReportErrors(uris []string) []Diagnostic {
	var out []Diagnostic
	for _, uri := range uris {
		if !s.store.IsJavaFile(uri) {
			continue
		}
		p := s.ParseFile(uri)
		if p == nil {
			continue
		}
		out = append(out, reportErrorsForParse(p)...)
	}
	return out
}

// Docs returns the doc facility bound to this service.
func (s *CompilerService) Docs() *DocFacility {
	return &DocFacility{svc: s}
}

// lookupClass finds the workspace declaration of a simple type name.
func (s *CompilerService) lookupClass(simpleName string) (classEntry, bool) {
	for _, uri := range s.store.JavaSourceURIs() {
		p := s.ParseFile(uri)
		if p == nil {
			continue
		}
		for _, d := range p.TypeDeclarations() {
			if d.Name == simpleName {
				return classEntry{Name: d.Name, Package: p.PackageName, URI: uri}, true
			}
		}
	}
	return classEntry{}, false
}

func (s *CompilerService) classLookup() ClassLookup {
	return func(simpleName string) (string, bool) {
		if e, ok := s.lookupClass(simpleName); ok {
			return e.Package, true
		}
		return "", false
	}
}

func (s *CompilerService) typeLoader() func(string) *ParseResult {
	return func(simpleName string) *ParseResult {
		e, ok := s.lookupClass(simpleName)
		if !ok {
			return nil
		}
		return s.ParseFile(e.URI)
	}
}

// classList enumerates workspace type declarations for identifier
// completion.
func (s *CompilerService) classList() []ClassInfo {
	var out []ClassInfo
	for _, uri := range s.store.JavaSourceURIs() {
		p := s.ParseFile(uri)
		if p == nil {
			continue
		}
		for _, d := range p.TypeDeclarations() {
			out = append(out, ClassInfo{Name: d.Name, Package: p.PackageName})
		}
	}
	return out
}

// ClassName returns the dotted type chain a declaration belongs to, for
// code-lens arguments.
func ClassName(el *Element) string {
	return el.QualifiedClassName()
}

// MemberName returns the member name of a declaration, or false for types.
func MemberName(el *Element) (string, bool) {
	if el.Kind.IsType() {
		return "", false
	}
	return el.Name, true
}
