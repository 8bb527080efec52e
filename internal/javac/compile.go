package javac

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// CompileFile is the full-file compilation: a parse result plus element
// resolution, the file's declaration list, reference indexing, import
// fix-ups, and missing-@Override detection. Supertype files reachable
// through the workspace class index are parsed into the same resolver so
// member lookup crosses file boundaries.
type CompileFile struct {
	Parse *ParseResult
	res   *resolver
}

func newCompileFile(p *ParseResult, supers []*ParseResult, classes ClassLookup) *CompileFile {
	parses := append([]*ParseResult{p}, supers...)
	return &CompileFile{Parse: p, res: newResolver(parses, classes)}
}

// Element resolves the program element at 1-based (line, column).
func (c *CompileFile) Element(line, column int) (*Element, bool) {
	return c.res.elementAt(c.Parse, line, column)
}

// Declarations lists the file's declaration elements.
func (c *CompileFile) Declarations() []*Element {
	return c.Parse.Declarations()
}

// Index builds the file's own reference index against the given target
// declarations.
func (c *CompileFile) Index(targets []*Element) *Index {
	return buildIndex(c.Parse, targets)
}

// FixImports computes the complete ordered set of import paths the file
// needs. Wildcard imports are kept verbatim: nothing proves them unused.
func (c *CompileFile) FixImports() []string {
	p := c.Parse

	declared := make(map[string]bool)
	for _, d := range p.decls {
		if d.Kind.IsType() {
			declared[d.Name] = true
		}
	}

	used := make(map[string]bool)
	visit(p.root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "import_declaration" {
			return false
		}
		if n.Kind() == "type_identifier" {
			used[nodeText(n, p.content)] = true
		}
		if n.Kind() == "marker_annotation" || n.Kind() == "annotation" {
			name := nodeText(n.ChildByFieldName("name"), p.content)
			used[lastSegment(name)] = true
		}
		return true
	})

	existing := make(map[string]string) // simple name -> full path
	var wildcards []string
	for _, imp := range p.Imports {
		if imp.Static {
			continue
		}
		if imp.Wildcard {
			wildcards = append(wildcards, imp.Path+".*")
			continue
		}
		existing[lastSegment(imp.Path)] = imp.Path
	}

	needed := make(map[string]bool)
	for _, w := range wildcards {
		needed[w] = true
	}
	for name := range used {
		if declared[name] {
			continue
		}
		if path, ok := existing[name]; ok {
			needed[path] = true
			continue
		}
		if _, ok := builtinClasses[name]; ok {
			continue
		}
		if c.res.classes != nil {
			if pkg, ok := c.res.classes(name); ok {
				if pkg == p.PackageName || pkg == "" {
					continue
				}
				needed[pkg+"."+name] = true
				continue
			}
		}
		if pkg, ok := wellKnownImports[name]; ok {
			needed[pkg+"."+name] = true
		}
	}

	out := make([]string, 0, len(needed))
	for path := range needed {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// NeedsOverrideAnnotation returns the methods that override a supertype
// method but lack the @Override annotation.
func (c *CompileFile) NeedsOverrideAnnotation() []*Element {
	p := c.Parse
	var out []*Element
	for _, m := range p.decls {
		if m.Kind != KindMethod || p.hasAnnotation(m.node, "Override") {
			continue
		}
		owner := c.ownerType(m)
		if owner == nil {
			continue
		}
		if c.overridesSupertype(owner, m, map[string]bool{}) {
			out = append(out, m)
		}
	}
	return out
}

func (c *CompileFile) ownerType(m *Element) *Element {
	chain := m.OwnerChain()
	for _, d := range c.res.decls {
		if d.Kind.IsType() && d.QualifiedClassName() == chain && d.URI == m.URI {
			return d
		}
	}
	return c.res.typeDecl(lastSegment(chain))
}

func (c *CompileFile) overridesSupertype(owner, m *Element, seen map[string]bool) bool {
	for _, superName := range c.res.superTypeNames(owner) {
		if seen[superName] {
			continue
		}
		seen[superName] = true
		super := c.res.typeDecl(superName)
		if super == nil {
			continue
		}
		for _, sm := range c.res.membersOf(super.QualifiedClassName()) {
			if sm.Kind == KindMethod && sm.Name == m.Name && len(sm.Params) == len(m.Params) {
				return true
			}
		}
		if c.overridesSupertype(super, m, seen) {
			return true
		}
	}
	return false
}

// ImportSpans returns the spans of all non-static import declarations, in
// document order, for the formatter's whole-line deletions.
func (c *CompileFile) ImportSpans() []Span {
	var spans []Span
	for _, imp := range c.Parse.Imports {
		if !imp.Static {
			spans = append(spans, c.Parse.Span(imp.node))
		}
	}
	return spans
}

// HoverCode renders the one-line (or for types, block) declaration text
// shown in hover.
func (c *CompileFile) HoverCode(el *Element) string {
	return c.res.hoverCode(el)
}

func (r *resolver) hoverCode(el *Element) string {
	switch {
	case el.IsExecutable():
		return printMethod(el)
	case el.Kind.IsType():
		var lines []string
		lines = append(lines, r.hoverTypeDeclaration(el)+" {")
		for _, m := range r.membersOf(el.QualifiedClassName()) {
			if m.Kind.IsType() {
				continue
			}
			lines = append(lines, "  "+r.hoverCode(m)+";")
		}
		for _, d := range r.decls {
			if d.Kind.IsType() && d.OwnerChain() == el.QualifiedClassName() {
				lines = append(lines, "  "+r.hoverTypeDeclaration(d)+" { /* removed */ }")
			}
		}
		lines = append(lines, "}")
		return strings.Join(lines, "\n")
	case el.Type != "":
		return el.Type + " " + el.Name
	default:
		return el.Name
	}
}

func (r *resolver) hoverTypeDeclaration(el *Element) string {
	var b strings.Builder
	b.WriteString(el.Kind.String())
	b.WriteByte(' ')
	b.WriteString(el.Name)
	for _, super := range r.superTypeNames(el) {
		if super == "Object" || super == "" {
			continue
		}
		b.WriteString(" extends ")
		b.WriteString(super)
		break
	}
	return b.String()
}

// printMethod renders "returnType name(type name, ...)".
func printMethod(m *Element) string {
	var b strings.Builder
	if m.Type != "" {
		b.WriteString(m.Type)
		b.WriteByte(' ')
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}
