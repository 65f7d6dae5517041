// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Package tamer implements an in-process telemetry snapshotter: an embedded
// library that periodically captures the current value of many live program
// variables into a compact binary snapshot and hands it to one or more
// background sinks.
package tamer

import (
	"fmt"
	"reflect"
)

// SchemaVersion is the text-form schema version written by Schema.Text and
// checked by ParseSchema. Bump it whenever the text grammar changes.
const SchemaVersion = 4

// BasicType is the closed set of scalar kinds a field can hold. OTHER marks
// a user-defined composite (see Composite).
type BasicType uint8

const (
	TypeBool BasicType = iota
	TypeChar
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeOther
)

// basicTypeInfo holds the canonical name and fixed byte size of every
// non-OTHER BasicType, indexed by the type itself.
var basicTypeInfo = [...]struct {
	name string
	size int
}{
	TypeBool:    {"bool", 1},
	TypeChar:    {"char", 1},
	TypeInt8:    {"int8", 1},
	TypeUint8:   {"uint8", 1},
	TypeInt16:   {"int16", 2},
	TypeUint16:  {"uint16", 2},
	TypeInt32:   {"int32", 4},
	TypeUint32:  {"uint32", 4},
	TypeInt64:   {"int64", 8},
	TypeUint64:  {"uint64", 8},
	TypeFloat32: {"float32", 4},
	TypeFloat64: {"float64", 8},
	TypeOther:   {"other", 0},
}

// legacyTypeNames maps the historical uppercase schema-text tokens (§6) to
// their modern lowercase equivalents, for backward-compatible parsing.
var legacyTypeNames = map[string]BasicType{
	"BOOL":   TypeBool,
	"CHAR":   TypeChar,
	"INT8":   TypeInt8,
	"UINT8":  TypeUint8,
	"INT16":  TypeInt16,
	"UINT16": TypeUint16,
	"INT32":  TypeInt32,
	"UINT32": TypeUint32,
	"INT64":  TypeInt64,
	"UINT64": TypeUint64,
	"FLOAT":  TypeFloat32,
	"DOUBLE": TypeFloat64,
	"OTHER":  TypeOther,
}

// String returns the canonical lowercase name of t.
func (t BasicType) String() string {
	if int(t) < len(basicTypeInfo) {
		return basicTypeInfo[t].name
	}
	return "other"
}

// ByteSize returns the fixed serialized size of t, or 0 for TypeOther (whose
// size is instance-dependent and resolved through a CustomSerializer).
func (t BasicType) ByteSize() int {
	if int(t) < len(basicTypeInfo) {
		return basicTypeInfo[t].size
	}
	return 0
}

// BasicTypeFromString parses the canonical (or legacy uppercase) name of a
// BasicType. It is the inverse of BasicType.String for every non-OTHER kind.
func BasicTypeFromString(s string) (BasicType, error) {
	for kind, info := range basicTypeInfo {
		if info.name == s {
			return BasicType(kind), nil
		}
	}
	if kind, ok := legacyTypeNames[s]; ok {
		return kind, nil
	}
	return TypeOther, fmt.Errorf("tamer: unknown basic type name %q", s)
}

// Numeric constrains the scalar Go types a ValuePtr can reference directly.
type Numeric interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 |
		~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// reflectKindToBasicType maps a reflect.Kind to its BasicType, the same way
// the C++ original maps an enum's underlying integer kind (IsNumericType,
// GetBasicType) regardless of the Go type's name.
var reflectKindToBasicType = map[reflect.Kind]BasicType{
	reflect.Bool:    TypeBool,
	reflect.Int8:    TypeInt8,
	reflect.Uint8:   TypeUint8,
	reflect.Int16:   TypeInt16,
	reflect.Uint16:  TypeUint16,
	reflect.Int32:   TypeInt32,
	reflect.Uint32:  TypeUint32,
	reflect.Int64:   TypeInt64,
	reflect.Uint64:  TypeUint64,
	reflect.Float32: TypeFloat32,
	reflect.Float64: TypeFloat64,
}

// basicTypeOf returns the BasicType tag matching the static Go type T. It
// mirrors the C++ original's GetBasicType<T>() compile-time dispatch: an
// enum (named type with, say, an int32 underlying representation) maps to
// the same BasicType as its underlying kind.
func basicTypeOf[T Numeric]() BasicType {
	var zero T
	kind, ok := reflectKindToBasicType[reflect.TypeOf(zero).Kind()]
	if !ok {
		// Not reached for the kinds Numeric admits, all of which have an
		// entry above. char has no dedicated Go kind, so an int8-kinded
		// value maps to TypeInt8 through reflect.Int8; TypeChar is only
		// produced by NewChar.
		return TypeInt8
	}
	return kind
}

// TypeField is one entry in a Schema's field list (flat or, recursively,
// inside a custom-type definition).
type TypeField struct {
	FieldName string
	Type      BasicType
	TypeName  string
	IsVector  bool
	// ArraySize is 0 for a dynamically-sized sequence (when IsVector is
	// true) or the element count of a fixed-size array; it is meaningless
	// (and left 0) for a plain scalar.
	ArraySize uint32
}

// typeToken renders the TypeField's shape as the schema-text type token
// (§4.3): the canonical name, optionally suffixed with "[]" or "[N]".
func (f TypeField) typeToken() string {
	if !f.IsVector {
		return f.TypeName
	}
	if f.ArraySize == 0 {
		return f.TypeName + "[]"
	}
	return fmt.Sprintf("%s[%d]", f.TypeName, f.ArraySize)
}

// RegistrationID identifies a contiguous range of slots in a channel,
// returned by register/registerCustom. Composite registrations concatenate
// with +=.
type RegistrationID struct {
	FirstIndex  int
	FieldsCount int
}

// Add concatenates a contiguous following registration into id, matching
// the C++ RegistrationID::operator+=.
func (id *RegistrationID) Add(other RegistrationID) {
	id.FieldsCount += other.FieldsCount
}
