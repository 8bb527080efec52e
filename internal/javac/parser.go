// Package javac is the compiler facility: Java parsing and name resolution
// built on tree-sitter. It produces the four compilation artifacts the
// dispatcher consumes - parse results, full-file compilations, focus
// compilations, and batch compilations - plus the pruner, the per-file
// reference index, diagnostics, doc lookup, and workspace symbol search.
//
// Resolution is name-and-arity based over declared types; there is no full
// type inference. The batch compiler relies on pruned sources keeping every
// occurrence of the focal name, which is exactly what the pruner guarantees.
package javac

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

var javaLanguage = tree_sitter.NewLanguage(tree_sitter_java.Language())

// parserPool reuses parser instances; each Parse call takes one parser for
// the duration of the call.
var parserPool = sync.Pool{
	New: func() any {
		p := tree_sitter.NewParser()
		if err := p.SetLanguage(javaLanguage); err != nil {
			// The java grammar is compiled into the binary; a version
			// mismatch here is unrecoverable.
			panic("tree-sitter java grammar rejected: " + err.Error())
		}
		return p
	},
}

// parseTree parses Java source into a syntax tree. The caller owns the tree
// and must Close it when the owning snapshot is discarded.
func parseTree(content []byte) *tree_sitter.Tree {
	p := parserPool.Get().(*tree_sitter.Parser)
	defer parserPool.Put(p)
	return p.Parse(content, nil)
}

// nodeText returns the source text of a node.
func nodeText(n *tree_sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// childrenOfKind collects direct children with the given kind.
func childrenOfKind(n *tree_sitter.Node, kind string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// visit walks the subtree in document order, pruning descent when fn
// returns false.
func visit(n *tree_sitter.Node, fn func(*tree_sitter.Node) bool) {
	if !fn(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		visit(n.Child(i), fn)
	}
}
