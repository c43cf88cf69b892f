package types

// Heap owns every object allocated by the compiler or the machine: the
// string intern table, and the intrusive linked list every object is
// strung onto at allocation (the root a future mark-sweep collector would
// walk; today the heap simply keeps everything alive until the process
// exits).
type Heap struct {
	objects Obj
	strings *Table
}

// NewHeap returns an empty Heap with its string intern table initialized.
func NewHeap() *Heap {
	return &Heap{strings: NewTable()}
}

// Objects returns the head of the intrusive allocation list, for a shutdown
// walk that releases every variant's owned arrays (Chunk code/constants,
// Closure upvalue slice, Array elements, Struct fields, StructDef field
// names and method table). Go's garbage collector makes this walk
// unnecessary for memory safety, but keeping it mirrors the ownership model
// a native holding an external resource (a hypothetical file handle) would
// need to hook a Close into.
func (h *Heap) Objects() Obj { return h.objects }

func (h *Heap) track(o Obj) Obj {
	o.SetNext(h.objects)
	h.objects = o
	return o
}

// fnv1a is the 32-bit FNV-1a hash used to key interned strings.
func fnv1a(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// Intern returns the unique *String for the byte sequence s, allocating and
// linking a new one only if s has never been seen before. Every string
// reachable from a Chunk's constants or produced at runtime (concatenation,
// str()) must go through Intern, which is what lets identifier and string
// comparisons reduce to pointer equality.
func (h *Heap) Intern(s string) *String {
	hash := fnv1a(s)
	if interned := h.strings.FindString(s, hash); interned != nil {
		return interned
	}
	str := &String{Chars: s, Hash: hash}
	str.typ = ObjStringType
	h.track(str)
	h.strings.Set(str, Nil)
	return str
}

// NewFunction allocates an empty Function object (zero arity, no upvalues,
// a fresh empty Chunk, no name — the caller, typically the compiler, fills
// these in as it compiles).
func (h *Heap) NewFunction() *Function {
	fn := &Function{Chunk: NewChunk()}
	fn.typ = ObjFunctionType
	return h.track(fn).(*Function)
}

// NewNative wraps fn as a callable native object under the given name.
func (h *Heap) NewNative(name string, fn NativeFn) *Native {
	n := &Native{Name: name, Fn: fn}
	n.typ = ObjNativeType
	return h.track(n).(*Native)
}

// NewClosure allocates a Closure over function, with an Upvalues slice sized
// to its UpvalueCount and initially nil (populated by the CLOSURE
// instruction's upvalue-capture loop).
func (h *Heap) NewClosure(function *Function) *Closure {
	c := &Closure{Function: function, Upvalues: make([]*Upvalue, function.UpvalueCount)}
	c.typ = ObjClosureType
	return h.track(c).(*Closure)
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *Value) *Upvalue {
	uv := &Upvalue{Location: slot}
	uv.typ = ObjUpvalueType
	return h.track(uv).(*Upvalue)
}

// NewArray allocates an Array holding elems.
func (h *Heap) NewArray(elems []Value) *Array {
	a := &Array{Elements: elems}
	a.typ = ObjArrayType
	return h.track(a).(*Array)
}

// NewStructDef allocates a StructDef named name, with an empty method
// table. The caller fills FieldNames in as the compiler parses the type's
// field list.
func (h *Heap) NewStructDef(name *String) *StructDef {
	d := &StructDef{Name: name, Methods: NewTable()}
	d.typ = ObjStructDefType
	return h.track(d).(*StructDef)
}

// NewStruct allocates an instance of def, with every field initialized to
// nil and sized to match def's field count.
func (h *Heap) NewStruct(def *StructDef) *Struct {
	fields := make([]Value, len(def.FieldNames))
	s := &Struct{Def: def, Fields: fields}
	s.typ = ObjStructType
	return h.track(s).(*Struct)
}

// NewBoundMethod allocates a BoundMethod pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	b.typ = ObjBoundMethodType
	return h.track(b).(*BoundMethod)
}
