package javac

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// MaxCompletionItems caps identifier and annotation completion results;
// reaching the cap marks the reply incomplete.
const MaxCompletionItems = 50

// TopLevelKeywords are offered when the cursor position has no completion
// context at all.
var TopLevelKeywords = []string{
	"package", "import", "public", "private", "protected",
	"abstract", "class", "interface", "extends", "implements",
}

var classBodyKeywords = []string{
	"public", "private", "protected", "static", "final", "native",
	"synchronized", "abstract", "default", "class", "interface", "void",
	"boolean", "int", "long", "float", "double", "char", "byte", "short",
}

var methodBodyKeywords = []string{
	"new", "assert", "try", "catch", "finally", "throw", "return", "break",
	"case", "continue", "default", "do", "while", "for", "switch", "if",
	"else", "instanceof", "var", "final", "class", "void", "boolean", "int",
	"long", "float", "double", "char", "byte", "short",
}

// PackagePart is one segment of a package chain offered in completion.
type PackagePart struct {
	Name     string
	FullName string
}

// ClassName is a class offered in completion by name, possibly not yet
// imported.
type ClassName struct {
	Name     string // fully qualified
	Imported bool
}

// Snippet is a template completion.
type Snippet struct {
	Label   string
	Snippet string
}

// Completion is the tagged completion datum: exactly one field is set.
type Completion struct {
	Element     *Element
	PackagePart *PackagePart
	Keyword     string
	ClassName   *ClassName
	Snippet     *Snippet
}

// MethodInvocation describes the argument list the cursor sits in.
type MethodInvocation struct {
	Overloads       []*Element
	ActiveMethod    *Element // nil when no overload matches
	ActiveParameter int
}

// ClassInfo is one workspace or builtin class known to the focus compiler.
type ClassInfo struct {
	Name    string
	Package string
}

// Focus is the point-anchored compilation: it resolves just enough scope
// around one cursor position to answer completion and signature queries.
type Focus struct {
	parse  *ParseResult
	res    *resolver
	line   int
	column int
	offset int
	// classList enumerates known workspace classes for identifier
	// completion; imported-ness is judged against the focus file.
	classList []ClassInfo
}

func newFocus(p *ParseResult, res *resolver, classList []ClassInfo, line, column int) *Focus {
	return &Focus{
		parse:     p,
		res:       res,
		line:      line,
		column:    column,
		offset:    p.OffsetAt(line, column),
		classList: classList,
	}
}

// CompleteMembers lists the members reachable through "." or "::" from the
// receiver expression before the cursor.
func (f *Focus) CompleteMembers(afterMethodReference bool) []Completion {
	recv := f.receiverText()
	if recv == "" {
		return nil
	}
	chain := f.resolveReceiver(recv)
	if chain == "" {
		return nil
	}

	var out []Completion
	seen := map[string]bool{}
	visited := map[string]bool{}
	for cur := chain; cur != "" && !visited[cur]; {
		visited[cur] = true
		f.res.typeDecl(lastSegment(cur)) // pull the declaring file in if needed
		for _, m := range f.res.membersOf(cur) {
			if afterMethodReference && !m.IsExecutable() {
				continue
			}
			key := m.Name + "/" + m.Ptr().String()
			if !seen[key] {
				seen[key] = true
				out = append(out, Completion{Element: m})
			}
		}
		t := f.res.typeDecl(lastSegment(cur))
		if t == nil {
			break
		}
		supers := f.res.superTypeNames(t)
		if len(supers) == 0 {
			break
		}
		cur = supers[0]
	}
	for _, m := range objectMembers() {
		if afterMethodReference && !m.IsExecutable() {
			continue
		}
		if !seen[m.Name+"/"+m.Ptr().String()] {
			out = append(out, Completion{Element: m})
		}
	}
	return out
}

// receiverText extracts the expression token immediately before the "." or
// "::" at the cursor. The surrounding tree is usually broken mid-keystroke,
// so this works on text.
func (f *Focus) receiverText() string {
	content := f.parse.content
	i := f.offset
	// Skip the partial member name.
	for i > 0 && isIdentByte(content[i-1]) {
		i--
	}
	// Skip the selector.
	switch {
	case i >= 2 && content[i-1] == ':' && content[i-2] == ':':
		i -= 2
	case i >= 1 && content[i-1] == '.':
		i--
	default:
		return ""
	}
	end := i
	for i > 0 && isIdentByte(content[i-1]) {
		i--
	}
	recv := string(content[i:end])
	if recv == "" && end >= 4 && string(content[end-4:end]) == "this" {
		recv = "this"
	}
	return recv
}

func (f *Focus) resolveReceiver(recv string) string {
	if recv == "this" {
		return f.res.enclosingTypeChain(f.parse, f.offset)
	}
	for _, l := range f.res.localsAt(f.parse, f.offset) {
		if l.Name == recv {
			return erased(l.Type)
		}
	}
	chain := f.res.enclosingTypeChain(f.parse, f.offset)
	for cur := chain; cur != ""; cur = parentChain(cur) {
		for _, m := range f.res.membersOf(cur) {
			if m.Kind == KindField && m.Name == recv {
				return erased(m.Type)
			}
		}
	}
	// Static receiver: a type name.
	if f.res.typeDecl(recv) != nil {
		return recv
	}
	if _, ok := builtinClasses[recv]; ok {
		return recv
	}
	return ""
}

// CompleteIdentifiers lists the identifiers visible at the cursor, filtered
// by prefix and capped at MaxCompletionItems.
func (f *Focus) CompleteIdentifiers(inClass, inMethod bool, partial string) []Completion {
	var out []Completion
	add := func(c Completion) bool {
		if len(out) >= MaxCompletionItems {
			return false
		}
		out = append(out, c)
		return true
	}
	matches := func(name string) bool {
		return strings.HasPrefix(name, partial)
	}

	for _, s := range f.snippets(inClass, inMethod) {
		if matches(s.Label) {
			add(Completion{Snippet: &s})
		}
	}

	if inMethod {
		for _, l := range f.res.localsAt(f.parse, f.offset) {
			if matches(l.Name) {
				add(Completion{Element: l})
			}
		}
	}
	if inClass {
		chain := f.res.enclosingTypeChain(f.parse, f.offset)
		for cur := chain; cur != ""; cur = parentChain(cur) {
			for _, m := range f.res.membersOf(cur) {
				if matches(m.Name) {
					add(Completion{Element: m})
				}
			}
		}
	}

	// Types declared in the compilation.
	for _, d := range f.res.decls {
		if d.Kind.IsType() && matches(d.Name) {
			add(Completion{Element: d})
		}
	}
	// Imported classes.
	importedPkgs := map[string]bool{"java.lang": true, f.parse.PackageName: true}
	for _, imp := range f.parse.Imports {
		if imp.Static {
			continue
		}
		if imp.Wildcard {
			importedPkgs[imp.Path] = true
			continue
		}
		if matches(lastSegment(imp.Path)) {
			add(Completion{ClassName: &ClassName{Name: imp.Path, Imported: true}})
		}
	}
	for name, info := range builtinClasses {
		if matches(name) {
			add(Completion{ClassName: &ClassName{Name: info.Package + "." + name, Imported: true}})
		}
	}

	var keywords []string
	if inMethod {
		keywords = methodBodyKeywords
	} else if inClass {
		keywords = classBodyKeywords
	} else {
		keywords = TopLevelKeywords
	}
	for _, kw := range keywords {
		if matches(kw) {
			add(Completion{Keyword: kw})
		}
	}

	// Workspace classes come last; those whose package is not imported carry
	// sort tier 4.
	declaredHere := map[string]bool{}
	for _, d := range f.parse.decls {
		if d.Kind.IsType() {
			declaredHere[d.Name] = true
		}
	}
	for _, ci := range f.classList {
		if !matches(ci.Name) || declaredHere[ci.Name] {
			continue
		}
		full := ci.Name
		if ci.Package != "" {
			full = ci.Package + "." + ci.Name
		}
		add(Completion{ClassName: &ClassName{Name: full, Imported: importedPkgs[ci.Package]}})
	}
	return out
}

// CompleteAnnotations lists annotation types visible at the cursor.
func (f *Focus) CompleteAnnotations(partial string) []Completion {
	var out []Completion
	for _, d := range f.res.decls {
		if d.Kind == KindAnnotationType && strings.HasPrefix(d.Name, partial) {
			out = append(out, Completion{Element: d})
			if len(out) >= MaxCompletionItems {
				return out
			}
		}
	}
	for name, info := range builtinClasses {
		if info.Kind == KindAnnotationType && strings.HasPrefix(name, partial) {
			out = append(out, Completion{ClassName: &ClassName{Name: info.Package + "." + name, Imported: true}})
			if len(out) >= MaxCompletionItems {
				return out
			}
		}
	}
	return out
}

// CompleteCases lists the enum constants of the switched expression's type.
func (f *Focus) CompleteCases() []Completion {
	node := f.parse.nodeAt(f.offset)
	var sw *tree_sitter.Node
	for cur := node; cur != nil; cur = cur.Parent() {
		if cur.Kind() == "switch_expression" || cur.Kind() == "switch_statement" {
			sw = cur
			break
		}
	}
	if sw == nil {
		return nil
	}
	cond := sw.ChildByFieldName("condition")
	chain := f.res.typeOf(f.parse, innerExpression(cond), int(sw.StartByte()))
	if chain == "" {
		return nil
	}
	f.res.typeDecl(lastSegment(chain))
	var out []Completion
	for _, m := range f.res.membersOf(chain) {
		if m.Kind == KindEnumConstant {
			out = append(out, Completion{Element: m})
		}
	}
	return out
}

// MethodInvocation reports the argument list the cursor sits in, with
// overload candidates and the active parameter index.
func (f *Focus) MethodInvocation() (*MethodInvocation, bool) {
	content := f.parse.content
	// Find the unclosed "(" before the cursor and the callee name before it.
	depth := 0
	open := -1
	for i := f.offset - 1; i >= 0; i-- {
		switch content[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		case ';', '{', '}':
			i = -1
		}
		if open >= 0 {
			break
		}
	}
	if open < 0 {
		return nil, false
	}
	activeParameter := 0
	argDepth := 0
	for i := open + 1; i < f.offset; i++ {
		switch content[i] {
		case '(', '[':
			argDepth++
		case ')', ']':
			argDepth--
		case ',':
			if argDepth == 0 {
				activeParameter++
			}
		}
	}

	end := open
	for end > 0 && content[end-1] == ' ' {
		end--
	}
	start := end
	for start > 0 && isIdentByte(content[start-1]) {
		start--
	}
	name := string(content[start:end])
	if name == "" {
		return nil, false
	}

	isConstructor := false
	if prev := strings.TrimRight(string(content[:start]), " \t"); strings.HasSuffix(prev, "new") {
		isConstructor = true
	}

	var overloads []*Element
	if isConstructor {
		f.res.typeDecl(name)
		for _, d := range f.res.decls {
			if d.Kind == KindConstructor && d.Name == name {
				overloads = append(overloads, d)
			}
		}
	} else {
		// Resolve the receiver type when the call is qualified, so only that
		// type's overloads appear.
		owner := ""
		if start >= 1 && content[start-1] == '.' {
			save := f.offset
			f.offset = start
			if recv := f.receiverText(); recv != "" {
				owner = f.resolveReceiver(recv)
			}
			f.offset = save
		} else {
			owner = f.res.enclosingTypeChain(f.parse, open)
		}
		if owner != "" {
			f.res.typeDecl(lastSegment(owner))
			for cur := owner; cur != ""; cur = parentChain(cur) {
				for _, m := range f.res.membersOf(cur) {
					if m.Kind == KindMethod && m.Name == name {
						overloads = append(overloads, m)
					}
				}
				if len(overloads) > 0 {
					break
				}
			}
		}
		if len(overloads) == 0 {
			for _, d := range f.res.decls {
				if d.Kind == KindMethod && d.Name == name {
					overloads = append(overloads, d)
				}
			}
		}
	}
	if len(overloads) == 0 {
		return nil, false
	}

	var active *Element
	for _, o := range overloads {
		if len(o.Params) > activeParameter || (len(o.Params) == 0 && activeParameter == 0) {
			active = o
			break
		}
	}
	return &MethodInvocation{
		Overloads:       overloads,
		ActiveMethod:    active,
		ActiveParameter: activeParameter,
	}, true
}

func (f *Focus) snippets(inClass, inMethod bool) []Snippet {
	var out []Snippet
	if inMethod {
		out = append(out, Snippet{Label: "sout", Snippet: "System.out.println($0);"})
	} else if inClass {
		out = append(out, Snippet{Label: "main", Snippet: "public static void main(String[] args) {\n\t$0\n}"})
	}
	return out
}

func innerExpression(n *tree_sitter.Node) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	if n.Kind() == "parenthesized_expression" {
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c.IsNamed() {
				return c
			}
		}
	}
	return n
}

func erased(t string) string {
	return types.EraseType(t)
}
