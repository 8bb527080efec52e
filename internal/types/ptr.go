// Package types holds the identity types shared between the compiler
// facility and the language server dispatcher.
package types

import "strings"

// Ptr is a stable, compilation-independent identity for a Java declaration.
// Two Ptrs constructed from different compilations of the same source are
// equal iff they denote the same program element, which makes Ptr usable as a
// map key across compiler instances.
//
// The canonical form is a path string:
//
//	java.util/List                      type
//	java.util/Map.Entry                 nested type
//	java.util/List#size()               method, erased parameter descriptors
//	java.util/List#add(int,E)           overload disambiguation
//	demo/Point#x                        field
//	demo/Point#Point(int,int)           constructor (literal class name)
//
// A package-less class has an empty package component: "/Main".
type Ptr struct {
	path string
}

// NewClassPtr builds a Ptr for a type. className is the simple name chain for
// nested types ("Outer.Inner").
func NewClassPtr(packageName, className string) Ptr {
	return Ptr{path: packageName + "/" + className}
}

// NewMemberPtr builds a Ptr for a member of a type. For methods and
// constructors, params carries the declared parameter types in order; they
// are erased to simple descriptors. For fields, params is nil.
func NewMemberPtr(packageName, className, member string, params []string) Ptr {
	var b strings.Builder
	b.WriteString(packageName)
	b.WriteByte('/')
	b.WriteString(className)
	b.WriteByte('#')
	b.WriteString(member)
	if params != nil {
		b.WriteByte('(')
		for i, p := range params {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EraseType(p))
		}
		b.WriteByte(')')
	}
	return Ptr{path: b.String()}
}

// String returns the canonical path form.
func (p Ptr) String() string {
	return p.path
}

// IsZero reports whether the Ptr was never constructed.
func (p Ptr) IsZero() bool {
	return p.path == ""
}

// IsMember reports whether the Ptr names a member rather than a type.
func (p Ptr) IsMember() bool {
	return strings.Contains(p.path, "#")
}

// PackageName returns the package component, possibly empty.
func (p Ptr) PackageName() string {
	if i := strings.IndexByte(p.path, '/'); i >= 0 {
		return p.path[:i]
	}
	return ""
}

// ClassChain returns the dotted simple-name chain of the declaring type.
func (p Ptr) ClassChain() string {
	s := p.path
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s
}

// MemberName returns the member component without its parameter list, or ""
// for a type Ptr.
func (p Ptr) MemberName() string {
	i := strings.IndexByte(p.path, '#')
	if i < 0 {
		return ""
	}
	s := p.path[i+1:]
	if j := strings.IndexByte(s, '('); j >= 0 {
		s = s[:j]
	}
	return s
}

// ParamDescriptors returns the erased parameter descriptors of a method Ptr,
// and whether the Ptr carries a parameter list at all.
func (p Ptr) ParamDescriptors() ([]string, bool) {
	i := strings.IndexByte(p.path, '(')
	if i < 0 {
		return nil, false
	}
	inner := strings.TrimSuffix(p.path[i+1:], ")")
	if inner == "" {
		return []string{}, true
	}
	return strings.Split(inner, ","), true
}

// EraseType reduces a declared Java type to its erased simple descriptor:
// generic arguments are dropped, package qualifiers are stripped, and
// varargs are normalized to arrays.
//
//	List<String>       → List
//	java.util.Map      → Map
//	int...             → int[]
//	Outer.Inner[]      → Inner[]
func EraseType(t string) string {
	t = strings.TrimSpace(t)
	// Drop generic arguments, including nested ones.
	if i := strings.IndexByte(t, '<'); i >= 0 {
		depth := 0
		var b strings.Builder
		for _, r := range t {
			switch r {
			case '<':
				depth++
			case '>':
				depth--
			default:
				if depth == 0 {
					b.WriteRune(r)
				}
			}
		}
		t = b.String()
	}
	// Normalize varargs.
	if strings.HasSuffix(t, "...") {
		t = strings.TrimSuffix(t, "...") + "[]"
	}
	// Strip array suffix while qualifying, then re-attach.
	suffix := ""
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSuffix(t, "[]")
		suffix += "[]"
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return t + suffix
}
