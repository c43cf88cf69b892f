package types

import (
	"fmt"
	"strings"
)

// ObjType tags the concrete variant of a heap object.
type ObjType uint8

const (
	ObjStringType ObjType = iota
	ObjFunctionType
	ObjNativeType
	ObjClosureType
	ObjUpvalueType
	ObjArrayType
	ObjStructDefType
	ObjStructType
	ObjBoundMethodType
)

func (t ObjType) String() string {
	switch t {
	case ObjStringType:
		return "string"
	case ObjFunctionType:
		return "function"
	case ObjNativeType:
		return "native"
	case ObjClosureType:
		return "closure"
	case ObjUpvalueType:
		return "upvalue"
	case ObjArrayType:
		return "array"
	case ObjStructDefType:
		return "struct def"
	case ObjStructType:
		return "struct"
	case ObjBoundMethodType:
		return "bound method"
	default:
		return "unknown object"
	}
}

// Obj is implemented by every heap-allocated object. All variants embed
// ObjHeader, which carries the type tag, the GC mark bit reserved for a
// future collector, and the intrusive next-pointer that strings every
// allocation onto the VM's object list at creation time.
type Obj interface {
	ObjType() ObjType
	Marked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	// GoString returns the runtime's own textual rendering of the value, used
	// by the print statement and by str().
	GoString() string
}

// ObjHeader is the common header embedded as the first field of every heap
// object variant. Embedding it first is relied upon by the NaN-boxing build
// (value_nanbox.go), which recovers a concrete *T from a bare pointer to the
// header.
type ObjHeader struct {
	typ    ObjType
	marked bool
	next   Obj
}

func (h *ObjHeader) ObjType() ObjType   { return h.typ }
func (h *ObjHeader) Marked() bool       { return h.marked }
func (h *ObjHeader) SetMarked(m bool)   { h.marked = m }
func (h *ObjHeader) Next() Obj          { return h.next }
func (h *ObjHeader) SetNext(o Obj)      { h.next = o }

// String is an immutable, interned byte sequence. Every String reachable
// from a Chunk's constant pool or produced at runtime lives in exactly one
// copy in the VM's intern table (Heap.strings), so that identifier and
// string equality reduce to comparing this pointer.
type String struct {
	ObjHeader
	Chars string
	Hash  uint32
}

func (s *String) GoString() string { return s.Chars }

// Function is the compiled form of a function body: its arity, the number
// of upvalues a closure over it must allocate, the bytecode Chunk the
// compiler emitted for it, and its name (nil for the implicit top-level
// script function).
type Function struct {
	ObjHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *String
}

func (f *Function) GoString() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature every native (host-registered) function must
// implement: it receives the slice of argument Values and returns a result
// or an error. It must not retain args beyond the call.
type NativeFn func(args []Value) (Value, error)

// Native wraps a host function so it can be called like any other callable
// from sharo code.
type Native struct {
	ObjHeader
	Name string
	Fn   NativeFn
}

func (n *Native) GoString() string { return "<native fn>" }

// Upvalue stands for a variable captured by a closure. While Location
// points into a live VM stack slot the upvalue is "open"; once the frame
// that owns that slot returns (or the block that declared it exits), the
// upvalue is "closed": the value is copied into Closed and Location is
// redirected to point at it. Open upvalues form an intrusive list, sorted
// strictly descending by the stack address they reference, threaded through
// NextOpen.
type Upvalue struct {
	ObjHeader
	Location *Value
	Closed   Value
	NextOpen *Upvalue
}

func (u *Upvalue) GoString() string { return "<upvalue>" }

// Closure pairs a compiled Function with the concrete Upvalues it closes
// over. It, not the bare Function, is what a CLOSURE instruction leaves on
// the stack and what CALL actually invokes.
type Closure struct {
	ObjHeader
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) GoString() string { return c.Function.GoString() }

// Array is a growable, heterogeneous sequence of Values.
type Array struct {
	ObjHeader
	Elements []Value
}

func (a *Array) GoString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Stringify(e))
	}
	b.WriteByte(']')
	return b.String()
}

// StructDef is a user-defined record type: its ordered field names (and the
// index lookup built from them once fields exceed the linear-scan
// threshold), and its method table keyed by interned method name.
type StructDef struct {
	ObjHeader
	Name       *String
	FieldNames []*String
	fieldIndex map[*String]int // built lazily once len(FieldNames) > linearScanMaxFields
	Methods    *Table
}

// linearScanMaxFields is the field count at or below which GET_FIELD/SET_FIELD
// resolve a field name by linear scan instead of consulting fieldIndex.
const linearScanMaxFields = 8

func (d *StructDef) GoString() string { return fmt.Sprintf("<type %s>", d.Name.Chars) }

// FieldIndex returns the declaration-order index of name, or -1 if name is
// not a field of this definition.
func (d *StructDef) FieldIndex(name *String) int {
	if len(d.FieldNames) > linearScanMaxFields {
		if d.fieldIndex == nil {
			d.fieldIndex = make(map[*String]int, len(d.FieldNames))
			for i, n := range d.FieldNames {
				d.fieldIndex[n] = i
			}
		}
		if i, ok := d.fieldIndex[name]; ok {
			return i
		}
		return -1
	}
	for i, n := range d.FieldNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Struct is an instance of a StructDef: one Value per declared field, in
// declaration order, initialized to nil at construction.
type Struct struct {
	ObjHeader
	Def    *StructDef
	Fields []Value
}

func (s *Struct) GoString() string {
	var b strings.Builder
	b.WriteString(s.Def.Name.Chars)
	b.WriteByte('(')
	for i, name := range s.Def.FieldNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name.Chars)
		b.WriteString(": ")
		b.WriteString(Stringify(s.Fields[i]))
	}
	b.WriteByte(')')
	return b.String()
}

// BoundMethod pairs a method Closure with the receiver it was looked up on,
// as produced by a GET_FIELD that resolves to a method instead of a field.
type BoundMethod struct {
	ObjHeader
	Receiver Value
	Method   *Closure
}

func (m *BoundMethod) GoString() string { return m.Method.GoString() }

// Stringify implements the str() native and mixed-type ADD concatenation
// rules: ints print as decimal, floats in a compact general format,
// booleans and nil spell their literal keyword, strings pass through
// unchanged, and every other heap object falls back to its GoString.
func Stringify(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsInt():
		return fmt.Sprintf("%d", v.AsInt())
	case v.IsFloat():
		return fmt.Sprintf("%g", v.AsFloat())
	case v.IsPtr():
		return fmt.Sprintf("<ptr %p>", v.AsPtr())
	case v.IsObj():
		if s, ok := v.AsObj().(*String); ok {
			return s.Chars
		}
		return v.AsObj().GoString()
	default:
		return "<object>"
	}
}
