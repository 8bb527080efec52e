package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassPtr(t *testing.T) {
	p := NewClassPtr("java.util", "List")
	assert.Equal(t, "java.util/List", p.String())
	assert.False(t, p.IsMember())
}

func TestNestedClassPtr(t *testing.T) {
	p := NewClassPtr("java.util", "Map.Entry")
	assert.Equal(t, "java.util/Map.Entry", p.String())
}

func TestPackagelessClassPtr(t *testing.T) {
	p := NewClassPtr("", "Main")
	assert.Equal(t, "/Main", p.String())
}

func TestMethodPtr(t *testing.T) {
	p := NewMemberPtr("java.util", "List", "add", []string{"int", "E"})
	assert.Equal(t, "java.util/List#add(int,E)", p.String())
	assert.True(t, p.IsMember())
}

func TestFieldPtr(t *testing.T) {
	p := NewMemberPtr("demo", "Point", "x", nil)
	assert.Equal(t, "demo/Point#x", p.String())
}

func TestZeroArgMethodDiffersFromField(t *testing.T) {
	method := NewMemberPtr("demo", "Point", "x", []string{})
	field := NewMemberPtr("demo", "Point", "x", nil)
	assert.NotEqual(t, method, field)
	assert.Equal(t, "demo/Point#x()", method.String())
}

func TestConstructorUsesClassName(t *testing.T) {
	p := NewMemberPtr("demo", "Point", "Point", []string{"int", "int"})
	assert.Equal(t, "demo/Point#Point(int,int)", p.String())
}

// Equality has to hold across independently constructed values so Ptr can key
// maps shared between compiler instances.
func TestPtrEqualityAndHashing(t *testing.T) {
	a := NewMemberPtr("demo", "Point", "distance", []string{"Point"})
	b := NewMemberPtr("demo", "Point", "distance", []string{"demo.Point"})
	assert.Equal(t, a, b)

	m := map[Ptr]int{a: 1}
	m[b]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[a])
}

func TestEraseType(t *testing.T) {
	cases := map[string]string{
		"List<String>":            "List",
		"java.util.Map":           "Map",
		"Map<String, List<Int>>":  "Map",
		"int...":                  "int[]",
		"Outer.Inner[]":           "Inner[]",
		"java.lang.String[][]":    "String[][]",
		" int ":                   "int",
		"Comparator<? super T>[]": "Comparator[]",
	}
	for in, want := range cases {
		assert.Equal(t, want, EraseType(in), "EraseType(%q)", in)
	}
}
