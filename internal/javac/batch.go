package javac

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// SourceFileObject is one batch input: a URI and its (possibly pruned)
// content.
type SourceFileObject struct {
	URI     string
	Content string
}

// Ref is one reference occurrence found by a batch compilation.
type Ref struct {
	URI  string
	Span Span
}

// Batch is a multi-file compilation: it can resolve elements at positions in
// any included file, find definitions and references across the whole input
// set, and build per-file reference indices.
type Batch struct {
	parses map[string]*ParseResult
	order  []string
	res    *resolver
}

func newBatch(files []SourceFileObject, classes ClassLookup) *Batch {
	b := &Batch{parses: make(map[string]*ParseResult)}
	var parses []*ParseResult
	for _, f := range files {
		if _, ok := b.parses[f.URI]; ok {
			continue
		}
		p := Parse(f.URI, f.Content)
		b.parses[f.URI] = p
		b.order = append(b.order, f.URI)
		parses = append(parses, p)
	}
	b.res = newResolver(parses, classes)
	return b
}

// Close releases every tree in the batch.
func (b *Batch) Close() {
	for _, p := range b.parses {
		p.Close()
	}
}

// Element resolves the element at 1-based (line, column) in one of the
// batch files.
func (b *Batch) Element(uri string, line, column int) (*Element, bool) {
	p := b.parses[uri]
	if p == nil {
		return nil, false
	}
	return b.res.elementAt(p, line, column)
}

// Declarations lists the declarations of one batch file.
func (b *Batch) Declarations(uri string) []*Element {
	p := b.parses[uri]
	if p == nil {
		return nil
	}
	return p.Declarations()
}

// Definitions finds every declaration in the batch denoting the same program
// element as el.
func (b *Batch) Definitions(el *Element) []*Element {
	want := el.Ptr()
	var out []*Element
	for _, uri := range b.order {
		for _, d := range b.parses[uri].Declarations() {
			if d.Ptr() == want {
				out = append(out, d)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	// The element may have been synthesized without a full owner chain
	// (e.g. an unresolved workspace class); fall back to name matching.
	for _, uri := range b.order {
		for _, d := range b.parses[uri].Declarations() {
			if d.Name == el.Name && d.Kind == el.Kind {
				out = append(out, d)
			}
		}
	}
	return out
}

// References finds every occurrence in the batch referring to el, excluding
// its declarations.
func (b *Batch) References(el *Element) []Ref {
	want := el.Ptr()
	var out []Ref
	for _, uri := range b.order {
		p := b.parses[uri]
		visit(p.root, func(n *tree_sitter.Node) bool {
			kind := n.Kind()
			if kind != "identifier" && kind != "type_identifier" {
				return true
			}
			if nodeText(n, p.content) != el.Name {
				return true
			}
			if d := p.DeclarationAt(int(n.StartByte())); d != nil && d.Name == el.Name {
				return true
			}
			target := pickTarget(n, b.candidatesFor(el))
			if target != nil && target.Ptr() == want {
				out = append(out, Ref{URI: uri, Span: p.Span(n)})
			}
			return true
		})
	}
	return out
}

func (b *Batch) candidatesFor(el *Element) []*Element {
	var out []*Element
	for _, d := range b.res.decls {
		if d.Name == el.Name {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = append(out, el)
	}
	return out
}

// Index builds the reference index of one batch file against the given
// target declarations.
func (b *Batch) Index(uri string, targets []*Element) *Index {
	p := b.parses[uri]
	if p == nil {
		return &Index{counts: make(map[types.Ptr]int)}
	}
	return buildIndex(p, targets)
}

// Span returns the source span of a declaration element in the batch.
func (b *Batch) Span(el *Element) (Span, bool) {
	p := b.parses[el.URI]
	if p == nil || el.node == nil {
		return Span{}, false
	}
	return p.Span(el.node), true
}
