package javac

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is a source range in facility coordinates: 1-based lines and columns,
// plus the underlying byte offsets.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	StartByte   int
	EndByte     int
}

// Import is one import declaration.
type Import struct {
	Path     string
	Static   bool
	Wildcard bool
	node     *tree_sitter.Node
}

// FoldingRanges groups foldable regions by category.
type FoldingRanges struct {
	Imports  []*tree_sitter.Node
	Blocks   []*tree_sitter.Node
	Comments []*tree_sitter.Node
}

// CompletionContextKind is the tagged completion-context variant. An
// unclassifiable position yields no context at all (top-level keywords).
type CompletionContextKind int

const (
	ContextMemberSelect CompletionContextKind = iota
	ContextMemberReference
	ContextIdentifier
	ContextAnnotation
	ContextCase
)

// CompletionContext describes what kind of completion the cursor position
// calls for. Line and Character are 1-based facility coordinates.
type CompletionContext struct {
	Kind        CompletionContextKind
	Line        int
	Character   int
	PartialName string
	InClass     bool
	InMethod    bool
}

// ParseResult is the one-file syntactic artifact: tree, line map, imports,
// declarations, folding categories, and the completion-context classifier.
// It is an immutable snapshot; Close releases the underlying tree.
type ParseResult struct {
	URI         string
	Content     string
	PackageName string
	Imports     []Import

	content     []byte
	tree        *tree_sitter.Tree
	root        *tree_sitter.Node
	lineOffsets []int
	decls       []*Element
}

// Parse parses one Java source file.
func Parse(uri, content string) *ParseResult {
	data := []byte(content)
	tree := parseTree(data)
	p := &ParseResult{
		URI:     uri,
		Content: content,
		content: data,
		tree:    tree,
		root:    tree.RootNode(),
	}
	p.buildLineOffsets()
	p.extractHeader()
	p.decls = p.extractDeclarations()
	return p
}

// Close releases the syntax tree. Call when the owning cache entry is
// replaced.
func (p *ParseResult) Close() {
	if p.tree != nil {
		p.tree.Close()
		p.tree = nil
	}
}

// HasErrors reports whether the tree contains syntax errors.
func (p *ParseResult) HasErrors() bool {
	return p.root.HasError()
}

func (p *ParseResult) buildLineOffsets() {
	p.lineOffsets = append(p.lineOffsets, 0)
	for i, b := range p.content {
		if b == '\n' {
			p.lineOffsets = append(p.lineOffsets, i+1)
		}
	}
}

// OffsetAt converts 1-based (line, column) to a byte offset, clamped to the
// line's end.
func (p *ParseResult) OffsetAt(line, column int) int {
	if line < 1 {
		line = 1
	}
	if line > len(p.lineOffsets) {
		return len(p.content)
	}
	start := p.lineOffsets[line-1]
	end := len(p.content)
	if line < len(p.lineOffsets) {
		end = p.lineOffsets[line] - 1
	}
	off := start + column - 1
	if off > end {
		off = end
	}
	if off < start {
		off = start
	}
	return off
}

// PositionOf converts a byte offset to 1-based (line, column).
func (p *ParseResult) PositionOf(offset int) (int, int) {
	line := 1
	for line < len(p.lineOffsets) && p.lineOffsets[line] <= offset {
		line++
	}
	return line, offset - p.lineOffsets[line-1] + 1
}

// Span returns the source span of a node.
func (p *ParseResult) Span(n *tree_sitter.Node) Span {
	start := n.StartPosition()
	end := n.EndPosition()
	return Span{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column) + 1,
		StartByte:   int(n.StartByte()),
		EndByte:     int(n.EndByte()),
	}
}

// PackageSpan returns the span of the package declaration, if present.
func (p *ParseResult) PackageSpan() (Span, bool) {
	for i := uint(0); i < p.root.ChildCount(); i++ {
		c := p.root.Child(i)
		if c.Kind() == "package_declaration" {
			return p.Span(c), true
		}
	}
	return Span{}, false
}

func (p *ParseResult) extractHeader() {
	for i := uint(0); i < p.root.ChildCount(); i++ {
		c := p.root.Child(i)
		switch c.Kind() {
		case "package_declaration":
			for j := uint(0); j < c.ChildCount(); j++ {
				g := c.Child(j)
				if g.Kind() == "scoped_identifier" || g.Kind() == "identifier" {
					p.PackageName = nodeText(g, p.content)
				}
			}
		case "import_declaration":
			imp := Import{node: c}
			for j := uint(0); j < c.ChildCount(); j++ {
				g := c.Child(j)
				switch g.Kind() {
				case "static":
					imp.Static = true
				case "scoped_identifier", "identifier":
					imp.Path = nodeText(g, p.content)
				case "asterisk":
					imp.Wildcard = true
				}
			}
			p.Imports = append(p.Imports, imp)
		}
	}
}

var typeDeclKinds = map[string]ElemKind{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"annotation_type_declaration": KindAnnotationType,
}

// extractDeclarations walks the tree and builds Elements for every type,
// method, constructor, field, and enum constant declaration.
func (p *ParseResult) extractDeclarations() []*Element {
	var decls []*Element
	var owner []string
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			kind := c.Kind()
			if tk, ok := typeDeclKinds[kind]; ok {
				name := nodeText(c.ChildByFieldName("name"), p.content)
				decls = append(decls, &Element{
					Kind:        tk,
					Name:        name,
					PackageName: p.PackageName,
					Owner:       append([]string(nil), owner...),
					URI:         p.URI,
					node:        c,
				})
				owner = append(owner, name)
				if body := c.ChildByFieldName("body"); body != nil {
					walk(body)
				}
				owner = owner[:len(owner)-1]
				continue
			}
			switch kind {
			case "method_declaration":
				decls = append(decls, &Element{
					Kind:        KindMethod,
					Name:        nodeText(c.ChildByFieldName("name"), p.content),
					Type:        nodeText(c.ChildByFieldName("type"), p.content),
					Params:      p.parameters(c),
					PackageName: p.PackageName,
					Owner:       append([]string(nil), owner...),
					URI:         p.URI,
					node:        c,
				})
			case "constructor_declaration":
				decls = append(decls, &Element{
					Kind:        KindConstructor,
					Name:        nodeText(c.ChildByFieldName("name"), p.content),
					Params:      p.parameters(c),
					PackageName: p.PackageName,
					Owner:       append([]string(nil), owner...),
					URI:         p.URI,
					node:        c,
				})
			case "field_declaration", "constant_declaration":
				fieldType := nodeText(c.ChildByFieldName("type"), p.content)
				for _, d := range childrenOfKind(c, "variable_declarator") {
					decls = append(decls, &Element{
						Kind:        KindField,
						Name:        nodeText(d.ChildByFieldName("name"), p.content),
						Type:        fieldType,
						PackageName: p.PackageName,
						Owner:       append([]string(nil), owner...),
						URI:         p.URI,
						node:        c,
					})
				}
			case "enum_constant":
				decls = append(decls, &Element{
					Kind:        KindEnumConstant,
					Name:        nodeText(c.ChildByFieldName("name"), p.content),
					Type:        last(owner),
					PackageName: p.PackageName,
					Owner:       append([]string(nil), owner...),
					URI:         p.URI,
					node:        c,
				})
			case "enum_body", "enum_body_declarations", "class_body", "interface_body",
				"annotation_type_body":
				walk(c)
			}
		}
	}
	walk(p.root)
	return decls
}

func (p *ParseResult) parameters(decl *tree_sitter.Node) []Param {
	params := []Param{}
	formal := decl.ChildByFieldName("parameters")
	if formal == nil {
		return params
	}
	for i := uint(0); i < formal.ChildCount(); i++ {
		c := formal.Child(i)
		switch c.Kind() {
		case "formal_parameter":
			params = append(params, Param{
				Name: nodeText(c.ChildByFieldName("name"), p.content),
				Type: nodeText(c.ChildByFieldName("type"), p.content),
			})
		case "spread_parameter":
			// type followed by a variable_declarator
			var typ, name string
			for j := uint(0); j < c.ChildCount(); j++ {
				g := c.Child(j)
				if g.Kind() == "variable_declarator" {
					name = nodeText(g.ChildByFieldName("name"), p.content)
				} else if typ == "" && strings.Contains(g.Kind(), "type") {
					typ = nodeText(g, p.content)
				} else if g.Kind() == "identifier" && typ == "" {
					typ = nodeText(g, p.content)
				}
			}
			params = append(params, Param{Name: name, Type: typ + "..."})
		}
	}
	return params
}

// Declarations returns every declaration element in the file.
func (p *ParseResult) Declarations() []*Element {
	return p.decls
}

// TypeDeclarations returns only the type declarations.
func (p *ParseResult) TypeDeclarations() []*Element {
	var out []*Element
	for _, d := range p.decls {
		if d.Kind.IsType() {
			out = append(out, d)
		}
	}
	return out
}

// DeclarationAt returns the innermost declaration whose name token sits at
// the given offset, if any.
func (p *ParseResult) DeclarationAt(offset int) *Element {
	for _, d := range p.decls {
		name := d.node.ChildByFieldName("name")
		if name == nil {
			// field declarations share a node; check declarator names
			for _, v := range childrenOfKind(d.node, "variable_declarator") {
				vn := v.ChildByFieldName("name")
				if vn != nil && nodeText(vn, p.content) == d.Name &&
					int(vn.StartByte()) <= offset && offset <= int(vn.EndByte()) {
					return d
				}
			}
			continue
		}
		if int(name.StartByte()) <= offset && offset <= int(name.EndByte()) {
			return d
		}
	}
	return nil
}

// Node returns the declaration node of an element produced by this parse.
func (p *ParseResult) Node(el *Element) *tree_sitter.Node {
	return el.node
}

// nodeAt descends to the smallest node containing the offset.
func (p *ParseResult) nodeAt(offset int) *tree_sitter.Node {
	n := p.root
	for {
		var next *tree_sitter.Node
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if int(c.StartByte()) <= offset && offset < int(c.EndByte()) {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// FoldingRanges collects foldable regions: imports, type bodies and blocks,
// and comments.
func (p *ParseResult) FoldingRanges() FoldingRanges {
	var f FoldingRanges
	visit(p.root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_declaration":
			f.Imports = append(f.Imports, n)
			return false
		case "class_declaration", "interface_declaration", "enum_declaration",
			"annotation_type_declaration":
			f.Blocks = append(f.Blocks, n)
		case "block":
			f.Blocks = append(f.Blocks, n)
			return true
		case "block_comment":
			f.Comments = append(f.Comments, n)
			return false
		}
		return true
	})
	return f
}

// IsClassNode reports whether a folding node is a type declaration, which
// gets the brace-hugging adjustment.
func IsClassNode(n *tree_sitter.Node) bool {
	_, ok := typeDeclKinds[n.Kind()]
	return ok
}

// IsBlockNode reports whether a folding node is a block.
func IsBlockNode(n *tree_sitter.Node) bool {
	return n.Kind() == "block"
}

// hasAnnotation reports whether a declaration node carries the named
// annotation.
func (p *ParseResult) hasAnnotation(decl *tree_sitter.Node, name string) bool {
	for _, m := range childrenOfKind(decl, "modifiers") {
		for i := uint(0); i < m.ChildCount(); i++ {
			c := m.Child(i)
			if c.Kind() == "marker_annotation" || c.Kind() == "annotation" {
				annName := nodeText(c.ChildByFieldName("name"), p.content)
				if annName == name || strings.HasSuffix(annName, "."+name) {
					return true
				}
			}
		}
	}
	return false
}

// IsTestMethod reports whether the declaration is a @Test method.
func (p *ParseResult) IsTestMethod(el *Element) bool {
	return el.Kind == KindMethod && p.hasAnnotation(el.node, "Test")
}

// IsTestClass reports whether the declaration is a type containing at least
// one test method.
func (p *ParseResult) IsTestClass(el *Element) bool {
	if !el.Kind.IsType() {
		return false
	}
	chain := el.QualifiedClassName()
	for _, d := range p.decls {
		if d.Kind == KindMethod && d.OwnerChain() == chain && p.IsTestMethod(d) {
			return true
		}
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// CompletionContext classifies the completion the cursor position calls
// for; ok is false when only top-level keywords apply.
func (p *ParseResult) CompletionContext(line, column int) (CompletionContext, bool) {
	offset := p.OffsetAt(line, column)

	// Partial identifier immediately before the cursor.
	start := offset
	for start > 0 && isIdentByte(p.content[start-1]) {
		start--
	}
	partial := string(p.content[start:offset])

	ctx := CompletionContext{
		Line:        line,
		Character:   column,
		PartialName: partial,
	}
	node := p.nodeAt(max(start-1, 0))
	ctx.InClass, ctx.InMethod = p.enclosing(node)

	before := byte(0)
	if start > 0 {
		before = p.content[start-1]
	}
	switch {
	case start >= 2 && p.content[start-1] == ':' && p.content[start-2] == ':':
		ctx.Kind = ContextMemberReference
		return ctx, true
	case before == '.':
		ctx.Kind = ContextMemberSelect
		return ctx, true
	case before == '@':
		ctx.Kind = ContextAnnotation
		return ctx, true
	case p.inCaseLabel(start):
		ctx.Kind = ContextCase
		return ctx, true
	case partial != "":
		ctx.Kind = ContextIdentifier
		return ctx, true
	}
	return CompletionContext{}, false
}

// inCaseLabel reports whether everything between the line start and the
// partial name is a case keyword.
func (p *ParseResult) inCaseLabel(partialStart int) bool {
	lineStart := partialStart
	for lineStart > 0 && p.content[lineStart-1] != '\n' {
		lineStart--
	}
	prefix := strings.TrimSpace(string(p.content[lineStart:partialStart]))
	return prefix == "case"
}

func (p *ParseResult) enclosing(n *tree_sitter.Node) (inClass, inMethod bool) {
	for cur := n; cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case "method_declaration", "constructor_declaration":
			inMethod = true
		case "class_body", "interface_body", "enum_body", "annotation_type_body":
			inClass = true
		}
	}
	return inClass, inMethod
}

func last(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[len(xs)-1]
}
