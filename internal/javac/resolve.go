package javac

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// resolver is the shared name-resolution core used by full-file, focus, and
// batch compilations. decls spans every file in the compilation; classes
// answers "which package declares this simple name" for types outside it.
type resolver struct {
	parses  map[string]*ParseResult // by URI
	decls   []*Element
	classes ClassLookup
	// loader pulls the parse of a workspace file declaring a simple type
	// name, letting member lookup cross into files outside the compilation.
	loader  func(simpleName string) *ParseResult
	loading map[string]bool
}

// ClassLookup maps a simple type name to its declaring package.
type ClassLookup func(simpleName string) (pkg string, ok bool)

func newResolver(parses []*ParseResult, classes ClassLookup) *resolver {
	r := &resolver{parses: make(map[string]*ParseResult), classes: classes}
	for _, p := range parses {
		r.parses[p.URI] = p
		r.decls = append(r.decls, p.decls...)
	}
	return r
}

// membersOf returns the members declared by the type with the given
// simple-name chain. A bare simple name (no dot) also matches nested types
// by their innermost segment, since resolved expression types carry only the
// simple name.
func (r *resolver) membersOf(chain string) []*Element {
	if chain == "" {
		return nil
	}
	simple := !strings.Contains(chain, ".")
	var out []*Element
	for _, d := range r.decls {
		if d.Kind.IsType() {
			continue
		}
		oc := d.OwnerChain()
		if oc == chain || (simple && lastSegment(oc) == chain) {
			out = append(out, d)
		}
	}
	return out
}

// typeDecl finds a type declaration by simple name anywhere in the
// compilation, loading the declaring file on demand when a loader is set.
func (r *resolver) typeDecl(name string) *Element {
	for _, d := range r.decls {
		if d.Kind.IsType() && d.Name == name {
			return d
		}
	}
	if r.loader != nil && !r.loading[name] {
		if r.loading == nil {
			r.loading = make(map[string]bool)
		}
		r.loading[name] = true
		if p := r.loader(name); p != nil {
			if _, ok := r.parses[p.URI]; !ok {
				r.parses[p.URI] = p
				r.decls = append(r.decls, p.decls...)
			}
			for _, d := range r.decls {
				if d.Kind.IsType() && d.Name == name {
					return d
				}
			}
		}
	}
	return nil
}

// superTypeNames returns the declared supertype simple names of a type
// declaration (extends and implements clauses).
func (r *resolver) superTypeNames(el *Element) []string {
	p := r.parses[el.URI]
	if p == nil || el.node == nil {
		return nil
	}
	var supers []string
	for i := uint(0); i < el.node.ChildCount(); i++ {
		c := el.node.Child(i)
		switch c.Kind() {
		case "superclass", "super_interfaces", "extends_interfaces":
			visit(c, func(n *tree_sitter.Node) bool {
				if n.Kind() == "type_identifier" {
					supers = append(supers, nodeText(n, p.content))
				}
				return true
			})
		}
	}
	return supers
}

// localsAt collects parameters and local variables visible at offset inside
// the enclosing executable.
func (r *resolver) localsAt(p *ParseResult, offset int) []*Element {
	node := p.nodeAt(offset)
	var exec *tree_sitter.Node
	for cur := node; cur != nil; cur = cur.Parent() {
		k := cur.Kind()
		if k == "method_declaration" || k == "constructor_declaration" ||
			k == "static_initializer" || k == "lambda_expression" {
			exec = cur
			break
		}
	}
	if exec == nil {
		return nil
	}
	var out []*Element
	if formal := exec.ChildByFieldName("parameters"); formal != nil {
		for i := uint(0); i < formal.ChildCount(); i++ {
			c := formal.Child(i)
			if c.Kind() == "formal_parameter" || c.Kind() == "spread_parameter" {
				name := c.ChildByFieldName("name")
				if name == nil {
					for _, v := range childrenOfKind(c, "variable_declarator") {
						name = v.ChildByFieldName("name")
					}
				}
				if name != nil {
					out = append(out, &Element{
						Kind:        KindParameter,
						Name:        nodeText(name, p.content),
						Type:        nodeText(c.ChildByFieldName("type"), p.content),
						PackageName: p.PackageName,
						URI:         p.URI,
						node:        c,
					})
				}
			}
		}
	}
	visit(exec, func(n *tree_sitter.Node) bool {
		if n.Kind() != "local_variable_declaration" {
			return true
		}
		if int(n.StartByte()) > offset {
			return false
		}
		declType := nodeText(n.ChildByFieldName("type"), p.content)
		for _, v := range childrenOfKind(n, "variable_declarator") {
			name := v.ChildByFieldName("name")
			if name != nil && int(name.EndByte()) <= offset {
				out = append(out, &Element{
					Kind:        KindLocalVariable,
					Name:        nodeText(name, p.content),
					Type:        declType,
					PackageName: p.PackageName,
					URI:         p.URI,
					node:        n,
				})
			}
		}
		return true
	})
	return out
}

// enclosingTypeChain returns the dotted type chain around an offset.
func (r *resolver) enclosingTypeChain(p *ParseResult, offset int) string {
	var chain []string
	node := p.nodeAt(offset)
	for cur := node; cur != nil; cur = cur.Parent() {
		if _, ok := typeDeclKinds[cur.Kind()]; ok {
			name := nodeText(cur.ChildByFieldName("name"), p.content)
			chain = append([]string{name}, chain...)
		}
	}
	return strings.Join(chain, ".")
}

// typeOf resolves the declared type of an expression node to an erased
// simple type name, or "" when resolution fails.
func (r *resolver) typeOf(p *ParseResult, n *tree_sitter.Node, offset int) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "this":
		return r.enclosingTypeChain(p, int(n.StartByte()))
	case "identifier":
		name := nodeText(n, p.content)
		for _, l := range r.localsAt(p, offset) {
			if l.Name == name {
				return types.EraseType(l.Type)
			}
		}
		chain := r.enclosingTypeChain(p, int(n.StartByte()))
		for chain != "" {
			for _, f := range r.membersOf(chain) {
				if f.Kind == KindField && f.Name == name {
					return types.EraseType(f.Type)
				}
			}
			chain = parentChain(chain)
		}
		// A capitalized identifier that names a known type is a static
		// receiver.
		if r.typeDecl(name) != nil {
			return name
		}
		if _, ok := builtinClasses[name]; ok {
			return name
		}
		if r.classes != nil {
			if _, ok := r.classes(name); ok {
				return name
			}
		}
		return ""
	case "field_access":
		obj := n.ChildByFieldName("object")
		field := nodeText(n.ChildByFieldName("field"), p.content)
		objType := r.typeOf(p, obj, offset)
		for _, f := range r.membersOf(objType) {
			if f.Kind == KindField && f.Name == field {
				return types.EraseType(f.Type)
			}
		}
		return ""
	case "method_invocation":
		name := nodeText(n.ChildByFieldName("name"), p.content)
		var owner string
		if obj := n.ChildByFieldName("object"); obj != nil {
			owner = r.typeOf(p, obj, offset)
		} else {
			owner = r.enclosingTypeChain(p, int(n.StartByte()))
		}
		for _, m := range r.membersOf(owner) {
			if m.Kind == KindMethod && m.Name == name {
				return types.EraseType(m.Type)
			}
		}
		return ""
	case "object_creation_expression":
		return types.EraseType(nodeText(n.ChildByFieldName("type"), p.content))
	case "parenthesized_expression":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.IsNamed() {
				return r.typeOf(p, c, offset)
			}
		}
	}
	return ""
}

// elementAt resolves the program element denoted by the identifier at
// 1-based (line, column) in the given file.
func (r *resolver) elementAt(p *ParseResult, line, column int) (*Element, bool) {
	offset := p.OffsetAt(line, column)
	node := p.nodeAt(offset)
	if node.Kind() != "identifier" && node.Kind() != "type_identifier" {
		// The cursor may sit just past the identifier.
		if offset > 0 {
			node = p.nodeAt(offset - 1)
		}
		if node.Kind() != "identifier" && node.Kind() != "type_identifier" {
			return nil, false
		}
	}
	name := nodeText(node, p.content)

	// Declaration name itself.
	if d := p.DeclarationAt(int(node.StartByte())); d != nil && d.Name == name {
		return d, true
	}

	parent := node.Parent()

	// Method call: obj.name(...) or name(...)
	if parent != nil && parent.Kind() == "method_invocation" {
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil &&
			nameNode.StartByte() == node.StartByte() {
			var owner string
			if obj := parent.ChildByFieldName("object"); obj != nil {
				owner = r.typeOf(p, obj, offset)
			} else {
				owner = r.enclosingTypeChain(p, int(node.StartByte()))
			}
			argc := argumentCount(parent)
			if m := r.findMethod(owner, name, argc); m != nil {
				return m, true
			}
			// Fall back to any method with the name anywhere in the batch.
			for _, d := range r.decls {
				if d.Kind == KindMethod && d.Name == name {
					return d, true
				}
			}
			return nil, false
		}
	}

	// Constructor call: new Name(...)
	if parent != nil && parent.Kind() == "object_creation_expression" {
		argc := argumentCount(parent)
		for _, d := range r.decls {
			if d.Kind == KindConstructor && d.Name == name && len(d.Params) == argc {
				return d, true
			}
		}
		if t := r.typeDecl(name); t != nil {
			return t, true
		}
	}

	// Field access: obj.name
	if parent != nil && parent.Kind() == "field_access" {
		if fieldNode := parent.ChildByFieldName("field"); fieldNode != nil &&
			fieldNode.StartByte() == node.StartByte() {
			owner := r.typeOf(p, parent.ChildByFieldName("object"), offset)
			for _, f := range r.membersOf(owner) {
				if f.Kind == KindField && f.Name == name {
					return f, true
				}
			}
		}
	}

	// Method reference: obj::name
	if parent != nil && parent.Kind() == "method_reference" {
		for _, d := range r.decls {
			if d.Kind == KindMethod && d.Name == name {
				return d, true
			}
		}
	}

	// Plain identifier: locals, then fields up the owner chain.
	for _, l := range r.localsAt(p, offset) {
		if l.Name == name {
			return l, true
		}
	}
	chain := r.enclosingTypeChain(p, int(node.StartByte()))
	for chain != "" {
		for _, f := range r.membersOf(chain) {
			if (f.Kind == KindField || f.Kind == KindEnumConstant) && f.Name == name {
				return f, true
			}
		}
		chain = parentChain(chain)
	}

	// Type name.
	if node.Kind() == "type_identifier" || isUpper(name) {
		if t := r.typeDecl(name); t != nil {
			return t, true
		}
		if b, ok := builtinClassElement(name); ok {
			return b, true
		}
		if r.classes != nil {
			if pkg, ok := r.classes(name); ok {
				return &Element{Kind: KindClass, Name: name, PackageName: pkg}, true
			}
		}
	}
	// Enum constant in a case label.
	for _, d := range r.decls {
		if d.Kind == KindEnumConstant && d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// findMethod picks the overload of owner.name best matching the argument
// count, walking up through supertypes declared in the compilation.
func (r *resolver) findMethod(ownerChain, name string, argc int) *Element {
	seen := map[string]bool{}
	for chain := ownerChain; chain != "" && !seen[chain]; {
		seen[chain] = true
		// Pull the declaring file into the resolver before scanning members.
		r.typeDecl(lastSegment(chain))
		var candidates []*Element
		for _, m := range r.membersOf(chain) {
			if m.Kind == KindMethod && m.Name == name {
				candidates = append(candidates, m)
			}
		}
		for _, m := range candidates {
			if len(m.Params) == argc {
				return m
			}
		}
		if len(candidates) > 0 {
			return candidates[0]
		}
		// Try the supertype chain.
		if t := r.typeDecl(lastSegment(chain)); t != nil {
			supers := r.superTypeNames(t)
			if len(supers) > 0 {
				chain = supers[0]
				continue
			}
		}
		chain = parentChain(chain)
	}
	return nil
}

func argumentCount(call *tree_sitter.Node) int {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return 0
	}
	n := 0
	for i := uint(0); i < args.ChildCount(); i++ {
		if args.Child(i).IsNamed() {
			n++
		}
	}
	return n
}

// parentChain drops the innermost segment of a dotted chain.
func parentChain(chain string) string {
	if i := strings.LastIndexByte(chain, '.'); i >= 0 {
		return chain[:i]
	}
	return ""
}

func lastSegment(chain string) string {
	if i := strings.LastIndexByte(chain, '.'); i >= 0 {
		return chain[i+1:]
	}
	return chain
}

func isUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
