package javac

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// Index is the per-source-file reverse reference index: how many times the
// file refers to each declaration of one target file. The referenced Ptrs
// double as the signature snapshot used for invalidation.
type Index struct {
	counts map[types.Ptr]int
	// HasErrors marks an index built from a file with syntax errors; such
	// an index is never trusted by the cache.
	HasErrors bool
}

// Count returns the number of references to the given declaration.
func (i *Index) Count(ptr types.Ptr) int {
	return i.counts[ptr]
}

// Total returns the number of references to any known target declaration.
func (i *Index) Total() int {
	sum := 0
	for _, n := range i.counts {
		sum += n
	}
	return sum
}

// NeedsUpdate reports whether any declaration this index references is
// absent from the target file's current signature, meaning a referenced
// declaration disappeared or changed identity.
func (i *Index) NeedsUpdate(currentSignature map[types.Ptr]bool) bool {
	for ptr := range i.counts {
		if !currentSignature[ptr] {
			return true
		}
	}
	return false
}

// buildIndex counts references from the parsed file to the target
// declarations. Matching is name based: calls bind to the overload with the
// matching argument count when one exists.
func buildIndex(p *ParseResult, targets []*Element) *Index {
	idx := &Index{counts: make(map[types.Ptr]int), HasErrors: p.HasErrors()}

	byName := make(map[string][]*Element)
	for _, t := range targets {
		byName[t.Name] = append(byName[t.Name], t)
	}
	if len(byName) == 0 {
		return idx
	}

	visit(p.root, func(n *tree_sitter.Node) bool {
		kind := n.Kind()
		if kind != "identifier" && kind != "type_identifier" {
			return true
		}
		name := nodeText(n, p.content)
		candidates := byName[name]
		if len(candidates) == 0 {
			return true
		}
		// The declaration itself is not a reference.
		if d := p.DeclarationAt(int(n.StartByte())); d != nil && d.Name == name {
			return true
		}
		target := pickTarget(n, candidates)
		if target != nil {
			idx.counts[target.Ptr()]++
		}
		return true
	})
	return idx
}

// pickTarget chooses which same-named target an occurrence refers to, using
// the syntactic context to separate calls from value references.
func pickTarget(n *tree_sitter.Node, candidates []*Element) *Element {
	parent := n.Parent()
	isCall := false
	argc := -1
	if parent != nil {
		switch parent.Kind() {
		case "method_invocation":
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil &&
				nameNode.StartByte() == n.StartByte() {
				isCall = true
				argc = argumentCount(parent)
			}
		case "object_creation_expression":
			isCall = true
			argc = argumentCount(parent)
		case "method_reference":
			isCall = true
		}
	}

	if isCall {
		for _, c := range candidates {
			if c.IsExecutable() && argc >= 0 && len(c.Params) == argc {
				return c
			}
		}
		for _, c := range candidates {
			if c.IsExecutable() {
				return c
			}
		}
	}
	for _, c := range candidates {
		if !c.IsExecutable() {
			return c
		}
	}
	return candidates[0]
}

// SignatureOf builds the signature set of a declaration list.
func SignatureOf(decls []*Element) map[types.Ptr]bool {
	sig := make(map[types.Ptr]bool, len(decls))
	for _, d := range decls {
		sig[d.Ptr()] = true
	}
	return sig
}
