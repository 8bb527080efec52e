package javac

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// DocFacility locates and parses the workspace source file a Ptr points at,
// and extracts javadoc text. Only classes found under the workspace roots are
// located; the doc path passed to NewCompilerService is not searched.
type DocFacility struct {
	svc *CompilerService
}

// Find returns the URI of the file declaring the Ptr's type, if reachable.
func (d *DocFacility) Find(ptr types.Ptr) (string, bool) {
	simple := lastSegment(ptr.ClassChain())
	if i := strings.IndexByte(ptr.ClassChain(), '.'); i >= 0 {
		simple = ptr.ClassChain()[:i]
	}
	info, ok := d.svc.lookupClass(simple)
	if !ok {
		return "", false
	}
	if info.Package != ptr.PackageName() {
		return "", false
	}
	return info.URI, true
}

// DocParse is a parsed file ready for doc lookup.
type DocParse struct {
	parse *ParseResult
}

// Parse parses the file a Ptr was located in.
func (d *DocFacility) Parse(uri string) (*DocParse, bool) {
	p := d.svc.ParseFile(uri)
	if p == nil {
		return nil, false
	}
	return &DocParse{parse: p}, true
}

// FuzzyFind locates the declaration a Ptr denotes, falling back from exact
// signature matching to name-only matching.
func (dp *DocParse) FuzzyFind(ptr types.Ptr) (*Element, bool) {
	chain := ptr.ClassChain()
	member := ptr.MemberName()
	if member == "" {
		for _, d := range dp.parse.Declarations() {
			if d.Kind.IsType() && d.QualifiedClassName() == chain {
				return d, true
			}
		}
		return nil, false
	}
	params, hasParams := ptr.ParamDescriptors()
	var byName *Element
	for _, d := range dp.parse.Declarations() {
		if d.Kind.IsType() || d.OwnerChain() != chain || d.Name != member {
			continue
		}
		if hasParams {
			if matchParams(d.erasedParams(), params) {
				return d, true
			}
			if byName == nil && d.IsExecutable() {
				byName = d
			}
		} else if !d.IsExecutable() {
			return d, true
		}
	}
	if byName != nil {
		return byName, true
	}
	return nil, false
}

func matchParams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DocComment is the parsed javadoc attached to a declaration.
type DocComment struct {
	FirstSentence string
	Full          string
	Params        map[string]string
}

// Doc extracts the javadoc block immediately preceding the declaration.
func (dp *DocParse) Doc(el *Element) (*DocComment, bool) {
	node := el.node
	if node == nil {
		return nil, false
	}
	comment := precedingJavadoc(dp.parse, node)
	if comment == "" {
		return nil, false
	}
	return parseJavadoc(comment), true
}

// precedingJavadoc finds a /** ... */ comment whose end is separated from
// the declaration start only by whitespace.
func precedingJavadoc(p *ParseResult, decl *tree_sitter.Node) string {
	declStart := int(decl.StartByte())
	var found string
	visit(p.root, func(n *tree_sitter.Node) bool {
		if int(n.StartByte()) >= declStart {
			return false
		}
		if n.Kind() == "block_comment" {
			end := int(n.EndByte())
			if end <= declStart && strings.TrimSpace(string(p.content[end:declStart])) == "" {
				text := nodeText(n, p.content)
				if strings.HasPrefix(text, "/**") {
					found = text
				}
			}
			return false
		}
		return true
	})
	return found
}

// parseJavadoc strips comment markers and splits the body into the first
// sentence and @param tags. Javadoc HTML is passed through untouched; the
// editor renders markdown and tolerates simple tags.
func parseJavadoc(comment string) *DocComment {
	body := strings.TrimPrefix(comment, "/**")
	body = strings.TrimSuffix(body, "*/")
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimPrefix(line, " ")
		lines = append(lines, line)
	}

	doc := &DocComment{Params: make(map[string]string)}
	var description []string
	for _, line := range lines {
		if strings.HasPrefix(line, "@param") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "@param"))
			name, desc, _ := strings.Cut(rest, " ")
			doc.Params[name] = strings.TrimSpace(desc)
			continue
		}
		if strings.HasPrefix(line, "@") {
			continue
		}
		description = append(description, line)
	}
	doc.Full = strings.TrimSpace(strings.Join(description, "\n"))
	doc.FirstSentence = firstSentence(doc.Full)
	return doc
}

// firstSentence cuts at the first period followed by whitespace or
// end-of-text.
func firstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
			return strings.TrimSpace(text[:i+1])
		}
	}
	return strings.TrimSpace(text)
}
