package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapInternDeduplicates(t *testing.T) {
	h := NewHeap()
	a := h.Intern("hello")
	b := h.Intern("hello")
	require.Same(t, a, b, "interning the same bytes twice must return the same *String")

	c := h.Intern("world")
	require.NotSame(t, a, c)
}

func TestHeapNewStructFieldsInitNil(t *testing.T) {
	h := NewHeap()
	def := h.NewStructDef(h.Intern("Point"))
	def.FieldNames = []*String{h.Intern("x"), h.Intern("y")}

	s := h.NewStruct(def)
	require.Len(t, s.Fields, 2)
	for _, f := range s.Fields {
		require.True(t, f.IsNil())
	}
}

func TestStructDefFieldIndex(t *testing.T) {
	h := NewHeap()
	def := h.NewStructDef(h.Intern("Point"))
	x, y := h.Intern("x"), h.Intern("y")
	def.FieldNames = []*String{x, y}

	require.Equal(t, 0, def.FieldIndex(x))
	require.Equal(t, 1, def.FieldIndex(y))
	require.Equal(t, -1, def.FieldIndex(h.Intern("z")))
}

// TestStructDefFieldIndexManyFields exercises the lazily-built map path
// once field count exceeds linearScanMaxFields.
func TestStructDefFieldIndexManyFields(t *testing.T) {
	h := NewHeap()
	def := h.NewStructDef(h.Intern("Big"))
	names := make([]*String, 0, linearScanMaxFields+4)
	for i := 0; i < linearScanMaxFields+4; i++ {
		names = append(names, h.Intern(string(rune('a'+i))))
	}
	def.FieldNames = names

	for i, n := range names {
		require.Equal(t, i, def.FieldIndex(n))
	}
	require.Equal(t, -1, def.FieldIndex(h.Intern("nonexistent")))
}

func TestHeapObjectsListsEveryAllocation(t *testing.T) {
	h := NewHeap()
	h.Intern("a")           // 1 String
	h.NewArray(nil)         // 1 Array
	h.NewStructDef(h.Intern("T")) // 1 String ("T") + 1 StructDef

	count := 0
	for o := h.Objects(); o != nil; o = o.Next() {
		count++
	}
	require.Equal(t, 4, count)
}
