package javac

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/jls/internal/types"
)

// ElemKind classifies resolved program elements.
type ElemKind int

const (
	KindClass ElemKind = iota
	KindInterface
	KindEnum
	KindAnnotationType
	KindMethod
	KindConstructor
	KindField
	KindEnumConstant
	KindParameter
	KindLocalVariable
	KindPackage
	KindTypeParameter
)

func (k ElemKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindAnnotationType:
		return "@interface"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	case KindEnumConstant:
		return "enum constant"
	case KindParameter:
		return "parameter"
	case KindLocalVariable:
		return "local variable"
	case KindPackage:
		return "package"
	case KindTypeParameter:
		return "type parameter"
	default:
		return "unknown"
	}
}

// IsType reports whether the kind names a type declaration.
func (k ElemKind) IsType() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindAnnotationType:
		return true
	}
	return false
}

// Param is a declared method or constructor parameter.
type Param struct {
	Name string
	Type string
}

// Element is a resolved program element within one compilation. Identity
// within a compilation is the struct pointer; cross-compilation identity is
// Ptr().
type Element struct {
	Kind        ElemKind
	Name        string
	Type        string // declared type for variables, return type for methods
	Params      []Param
	PackageName string
	// Owner is the enclosing type simple-name chain, outermost first. For a
	// type element it excludes the type itself.
	Owner []string
	URI   string

	// node is the declaration's syntax node, valid only within the
	// compilation that produced this element.
	node *tree_sitter.Node
}

// OwnerChain returns the dotted enclosing-type chain ("Outer.Inner").
func (e *Element) OwnerChain() string {
	return strings.Join(e.Owner, ".")
}

// QualifiedClassName returns the dotted type chain including the element
// itself when it is a type.
func (e *Element) QualifiedClassName() string {
	if e.Kind.IsType() {
		return strings.Join(append(append([]string{}, e.Owner...), e.Name), ".")
	}
	return e.OwnerChain()
}

// Ptr returns the compilation-independent identity of the element.
func (e *Element) Ptr() types.Ptr {
	if e.Kind.IsType() {
		return types.NewClassPtr(e.PackageName, e.QualifiedClassName())
	}
	switch e.Kind {
	case KindMethod, KindConstructor:
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Type
		}
		return types.NewMemberPtr(e.PackageName, e.OwnerChain(), e.Name, params)
	default:
		return types.NewMemberPtr(e.PackageName, e.OwnerChain(), e.Name, nil)
	}
}

// IsMemberOfObject reports whether the element is declared on the universal
// root type java.lang.Object; such members sort last in completion.
func (e *Element) IsMemberOfObject() bool {
	return e.PackageName == "java.lang" && e.OwnerChain() == "Object"
}

// IsExecutable reports whether the element has a parameter list.
func (e *Element) IsExecutable() bool {
	return e.Kind == KindMethod || e.Kind == KindConstructor
}

// erasedParams returns the erased parameter descriptors, for matching
// against Ptr signatures.
func (e *Element) erasedParams() []string {
	out := make([]string, len(e.Params))
	for i, p := range e.Params {
		out[i] = types.EraseType(p.Type)
	}
	return out
}
