// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "sync"

// Composite is the contract a user-defined type implements to be logged as
// a single named field of BasicType OTHER. Fields must be called against a
// live *receiver* instance and must return ValuePtrs bound into that same
// instance's memory — the same "ordered visitor over my fields" contract
// spec.md §6 describes, expressed here as "return your field list" rather
// than "push yourself through a codec" (ssz.Object.DefineSSZ's style),
// since that lets the existing ValuePtr recursion serialize nested
// composites for free.
type Composite interface {
	// TypeName is the composite's name as written into the schema. It must
	// be stable for a given Go type; the registry deduplicates by this
	// string, first writer wins.
	TypeName() string

	// Fields returns, in declaration order, the named ValuePtrs exposing
	// this instance's own fields.
	Fields() FieldList
}

// NamedField pairs a schema field name with the ValuePtr that reads it.
type NamedField struct {
	Name  string
	Value ValuePtr
}

// FieldList is the ordered field list a Composite.Fields() call returns.
type FieldList []NamedField

// CustomSerializer is the contract the registry derives from a Composite,
// and the shape an advanced user can implement directly (bypassing
// reflection over a live instance entirely) for a type whose on-wire
// layout isn't just "my Go fields in order" — spec.md §6's
// custom-serializer interface.
type CustomSerializer interface {
	TypeName() string
	TypeSchema() (CustomSchema, bool)
	SerializedSize(instance any) int
	IsFixedSize() bool
	Serialize(instance any, dst []byte) int
}

// CustomSchema is an opaque, user-supplied schema for a type whose fields
// the registry does not introspect (the "advanced path" of spec.md §3).
type CustomSchema struct {
	Encoding   string
	SchemaText string
}

// compositeSerializer is the CustomSerializer the registry builds
// automatically from a Composite implementation, mirroring the C++
// original's CustomSerializerT<T> (custom_types.hpp): it walks Fields()
// once at registration time to learn the flat TypeField list and the
// fixed/dynamic verdict, then walks it again per instance to size/serialize.
type compositeSerializer struct {
	typeName  string
	fields    []TypeField // this type's own fields, in declaration order (for schema text)
	fixedSize int         // 0 when not fixed
	isFixed   bool
}

func (s *compositeSerializer) TypeName() string { return s.typeName }

func (s *compositeSerializer) TypeSchema() (CustomSchema, bool) { return CustomSchema{}, false }

// FieldTypes exposes the flattened field list schema.go needs to render a
// custom type's nested definition in schema text (§4.3).
func (s *compositeSerializer) FieldTypes() []TypeField { return s.fields }

func (s *compositeSerializer) IsFixedSize() bool { return s.isFixed }

func (s *compositeSerializer) SerializedSize(instance any) int {
	if s.isFixed {
		return s.fixedSize
	}
	c := instance.(Composite)
	total := 0
	for _, f := range c.Fields() {
		total += f.Value.SerializedSize()
	}
	return total
}

func (s *compositeSerializer) Serialize(instance any, dst []byte) int {
	c := instance.(Composite)
	off := 0
	for _, f := range c.Fields() {
		off += f.Value.Serialize(dst[off:])
	}
	return off
}

// buildCompositeSerializer introspects a zero-value instance of a Composite
// once, at registration time, to learn its TypeField list and whether it is
// fixed size (recursively: every leaf is a numeric scalar or a fixed-size
// array/nested-composite of fixed-size elements — spec.md §4.2 rule 2).
func buildCompositeSerializer(zero Composite) *compositeSerializer {
	s := &compositeSerializer{typeName: zero.TypeName()}
	s.isFixed = true
	size := 0
	for _, f := range zero.Fields() {
		field := TypeField{
			FieldName: f.Name,
			Type:      f.Value.Type(),
			TypeName:  f.Value.Type().String(),
			IsVector:  f.Value.IsVector(),
			ArraySize: uint32(f.Value.VectorSize()),
		}
		if field.Type == TypeOther {
			field.TypeName = customTypeNameOf(f.Value)
		}
		s.fields = append(s.fields, field)

		switch {
		case f.Value.IsVector() && f.Value.VectorSize() == 0:
			// dynamic sequence anywhere in the tree => not fixed size.
			s.isFixed = false
		default:
			elemFixed, elemSize := fixedSizeOfValue(f.Value)
			if !elemFixed {
				s.isFixed = false
			} else {
				count := 1
				if f.Value.IsVector() {
					count = int(f.Value.VectorSize())
				}
				size += count * elemSize
			}
		}
	}
	if s.isFixed {
		s.fixedSize = size
	}
	return s
}

// fixedSizeOfValue reports whether a single element of v's kind has a
// compile-time-fixed serialized size, and what that size is.
func fixedSizeOfValue(v ValuePtr) (fixed bool, size int) {
	if v.Type() != TypeOther {
		return true, v.Type().ByteSize()
	}
	nested, ok := customSerializerOf(v)
	if !ok || !nested.IsFixedSize() {
		return false, 0
	}
	return true, nested.SerializedSize(nil)
}

// TypesRegistry deduplicates CustomSerializers by type name: first writer
// wins, mirroring original_source's TypesRegistry::addType/getSerializer.
type TypesRegistry struct {
	mu    sync.Mutex
	types map[string]CustomSerializer
}

// NewTypesRegistry returns an empty, independent registry (for tests, or
// for an application that wants isolation from the package-level default).
func NewTypesRegistry() *TypesRegistry {
	return &TypesRegistry{types: map[string]CustomSerializer{}}
}

var defaultTypesRegistry = NewTypesRegistry()

// DefaultTypesRegistry returns the process-wide singleton registry used by
// the Composite-based constructors when no explicit registry is supplied.
func DefaultTypesRegistry() *TypesRegistry { return defaultTypesRegistry }

// Clear empties the registry. Intended for test teardown.
func (r *TypesRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = map[string]CustomSerializer{}
}

// serializerFor returns the CustomSerializer for zero's concrete type,
// building and caching one (keyed by TypeName, first writer wins) if this
// is the first time this type name has been seen.
func (r *TypesRegistry) serializerFor(zero Composite) CustomSerializer {
	name := zero.TypeName()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.types[name]; ok {
		return s
	}
	s := buildCompositeSerializer(zero)
	r.types[name] = s
	return s
}

// lookup returns the already-registered serializer for name, if any, used
// by schema.go to recurse into a composite's own OTHER-kind fields.
func (r *TypesRegistry) lookup(name string) (CustomSerializer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.types[name]
	return s, ok
}

// Register pre-populates the registry with an explicit CustomSerializer
// (the "advanced path" for a type whose wire form the registry should not
// derive from Fields()), skipping registration if skipIfPresent is set and
// the name is already taken.
func (r *TypesRegistry) Register(s CustomSerializer, skipIfPresent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if skipIfPresent {
		if _, ok := r.types[s.TypeName()]; ok {
			return
		}
	}
	r.types[s.TypeName()] = s
}

// customValuePtrState carries a custom ValuePtr's CustomSerializer, the
// "Custom{serializer, ptr}" arm of the tagged-union design note (§9) — a
// ValuePtr would otherwise have no way to recover what composite type it
// refers to once type-erased into sizeFn/serializeFn.
type customValuePtrState struct {
	serializer CustomSerializer
	typeName   string
}

// customTypeNameOf and customSerializerOf recover the serializer a custom
// ValuePtr was built with, set by NewCustomValue/NewCustomSlice/NewCustomArray.
func customTypeNameOf(v ValuePtr) string {
	if v.custom != nil {
		return v.custom.serializer.TypeName()
	}
	return v.Type().String()
}

func customSerializerOf(v ValuePtr) (CustomSerializer, bool) {
	if v.custom == nil {
		return nil, false
	}
	return v.custom.serializer, true
}

// CompositePtr constrains T so that *T implements Composite, the standard
// Go generics idiom for "T's pointer type is the method receiver."
type CompositePtr[T any] interface {
	*T
	Composite
}

// NewCustomValue wraps a single composite value as a scalar OTHER field.
// reg may be nil to use the package-level DefaultTypesRegistry.
func NewCustomValue[T any, PT CompositePtr[T]](ptr *T, reg *TypesRegistry) ValuePtr {
	if reg == nil {
		reg = defaultTypesRegistry
	}
	zero := PT(new(T))
	ser := reg.serializerFor(zero)
	inst := PT(ptr)
	return ValuePtr{
		basicType: TypeOther,
		custom:    &customValuePtrState{serializer: ser, typeName: ser.TypeName()},
		sizeFn:    func() int { return ser.SerializedSize(Composite(inst)) },
		serializeFn: func(dst []byte) int {
			return ser.Serialize(Composite(inst), dst)
		},
	}
}

// NewCustomSlice wraps a dynamically-sized sequence of composite values.
func NewCustomSlice[T any, PT CompositePtr[T]](ptr *[]T, reg *TypesRegistry) ValuePtr {
	if reg == nil {
		reg = defaultTypesRegistry
	}
	zero := PT(new(T))
	ser := reg.serializerFor(zero)
	return ValuePtr{
		basicType: TypeOther,
		isVector:  true,
		custom:    &customValuePtrState{serializer: ser, typeName: ser.TypeName()},
		sizeFn: func() int {
			s := *ptr
			if len(s) == 0 {
				return 4
			}
			if ser.IsFixedSize() {
				return 4 + len(s)*ser.SerializedSize(nil)
			}
			total := 4
			for i := range s {
				total += ser.SerializedSize(Composite(PT(&s[i])))
			}
			return total
		},
		serializeFn: func(dst []byte) int {
			s := *ptr
			off := 0
			writeLE32(dst, uint32(len(s)))
			off += 4
			for i := range s {
				off += ser.Serialize(Composite(PT(&s[i])), dst[off:])
			}
			return off
		},
	}
}

// NewCustomArray wraps n contiguous composite values starting at ptr (the
// analogue of std::array<T,N>* for composites).
func NewCustomArray[T any, PT CompositePtr[T]](ptr *T, n int, reg *TypesRegistry) ValuePtr {
	if reg == nil {
		reg = defaultTypesRegistry
	}
	zero := PT(new(T))
	ser := reg.serializerFor(zero)
	elems := unsafeSliceOf(ptr, n)
	return ValuePtr{
		basicType:  TypeOther,
		isVector:   true,
		vectorSize: uint16(n),
		custom:     &customValuePtrState{serializer: ser, typeName: ser.TypeName()},
		sizeFn: func() int {
			if n == 0 {
				return 0
			}
			if ser.IsFixedSize() {
				return n * ser.SerializedSize(nil)
			}
			total := 0
			for i := range elems {
				total += ser.SerializedSize(Composite(PT(&elems[i])))
			}
			return total
		},
		serializeFn: func(dst []byte) int {
			off := 0
			for i := range elems {
				off += ser.Serialize(Composite(PT(&elems[i])), dst[off:])
			}
			return off
		},
	}
}
