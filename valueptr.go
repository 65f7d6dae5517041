// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"encoding/binary"
	"unsafe"
)

// ValuePtr is a type-erased, non-owning reference to a live variable: a
// scalar numeric, a dynamic sequence, a fixed-size array, or (via custom.go)
// a user-defined composite. It never outlives the caller's guarantee that
// the referenced memory stays valid between registration and unregister.
//
// Equality of two ValuePtrs (sameShape) compares only (type, isVector,
// vectorSize), matching the original's ValuePtr::operator== — used solely
// to validate that a re-registration under a previously-seen name keeps the
// same wire shape.
type ValuePtr struct {
	basicType  BasicType
	isVector   bool
	vectorSize uint16 // 0 for a dynamically-sized sequence

	// custom is non-nil only for a TypeOther value; it carries the
	// CustomSerializer the value was built with (see custom.go), since a
	// ValuePtr otherwise has no way to recover what composite type it
	// refers to once it has been type-erased into sizeFn/serializeFn.
	custom *customValuePtrState

	sizeFn      func() int
	serializeFn func(dst []byte) int // writes into dst, returns bytes written
}

// Type returns the element kind (TypeOther when a custom serializer is
// attached).
func (v ValuePtr) Type() BasicType { return v.basicType }

// IsVector reports whether the value is a sequence (dynamic or fixed-size
// array) rather than a plain scalar.
func (v ValuePtr) IsVector() bool { return v.isVector }

// VectorSize returns the fixed array length, or 0 for a scalar or a
// dynamically-sized sequence.
func (v ValuePtr) VectorSize() uint16 { return v.vectorSize }

// SerializedSize returns the number of bytes Serialize will write for the
// value's *current* contents (dynamic sequences may change size between
// calls as they grow or shrink).
func (v ValuePtr) SerializedSize() int { return v.sizeFn() }

// Serialize writes the value's current wire representation into dst, which
// must be at least SerializedSize() bytes long, and returns the number of
// bytes written.
func (v ValuePtr) Serialize(dst []byte) int { return v.serializeFn(dst) }

// sameShape reports whether v and other describe the same wire shape,
// ignoring what memory they point to. Used to validate re-registration.
func (v ValuePtr) sameShape(other ValuePtr) bool {
	return v.basicType == other.basicType &&
		v.isVector == other.isVector &&
		v.vectorSize == other.vectorSize
}

// encodeRaw reinterprets size bytes at ptr (a bool/int/uint/float of width
// 1, 2, 4 or 8) as a little-endian wire value, the same "raw memcpy, byte
// order normalized" operation the C++ original performs with
// std::memcpy(dest, v_ptr_, memory_size_) on a little-endian host and a
// byte-swapping store on a big-endian one. encoding/binary's PutUintN
// always emits little-endian regardless of host order, so this is correct
// on both.
func encodeRaw(dst []byte, ptr unsafe.Pointer, size int) int {
	switch size {
	case 1:
		dst[0] = *(*byte)(ptr)
	case 2:
		binary.LittleEndian.PutUint16(dst, *(*uint16)(ptr))
	case 4:
		binary.LittleEndian.PutUint32(dst, *(*uint32)(ptr))
	case 8:
		binary.LittleEndian.PutUint64(dst, *(*uint64)(ptr))
	}
	return size
}

// decodeRaw is the inverse of encodeRaw, used by the parser.
func decodeRaw(src []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(src))
	case 4:
		return uint64(binary.LittleEndian.Uint32(src))
	case 8:
		return binary.LittleEndian.Uint64(src)
	}
	return 0
}

// writeLE32 writes a little-endian u32 length prefix, the element-count
// header every dynamic sequence (numeric or custom) carries (§4.1).
func writeLE32(dst []byte, n uint32) {
	binary.LittleEndian.PutUint32(dst, n)
}

// unsafeSliceOf views n contiguous T values starting at ptr as a Go slice,
// the same "treat a fixed C array as a slice" trick unsafe.Slice exists for.
func unsafeSliceOf[T any](ptr *T, n int) []T {
	return unsafe.Slice(ptr, n)
}

func newScalar(bt BasicType, ptr unsafe.Pointer, size int) ValuePtr {
	return ValuePtr{
		basicType: bt,
		sizeFn:    func() int { return size },
		serializeFn: func(dst []byte) int {
			return encodeRaw(dst, ptr, size)
		},
	}
}

// Scalar constructors, one per BasicType kind, mirroring the teacher's
// EncodeBool/EncodeUint8/.../EncodeUint64 family of narrowly-constrained
// generic functions (one function per wire kind rather than one dispatching
// over every kind).

func NewBool[T ~bool](ptr *T) ValuePtr   { return newScalar(TypeBool, unsafe.Pointer(ptr), 1) }
func NewChar[T ~int8](ptr *T) ValuePtr   { return newScalar(TypeChar, unsafe.Pointer(ptr), 1) }
func NewInt8[T ~int8](ptr *T) ValuePtr   { return newScalar(TypeInt8, unsafe.Pointer(ptr), 1) }
func NewUint8[T ~uint8](ptr *T) ValuePtr { return newScalar(TypeUint8, unsafe.Pointer(ptr), 1) }
func NewInt16[T ~int16](ptr *T) ValuePtr { return newScalar(TypeInt16, unsafe.Pointer(ptr), 2) }
func NewUint16[T ~uint16](ptr *T) ValuePtr {
	return newScalar(TypeUint16, unsafe.Pointer(ptr), 2)
}
func NewInt32[T ~int32](ptr *T) ValuePtr { return newScalar(TypeInt32, unsafe.Pointer(ptr), 4) }
func NewUint32[T ~uint32](ptr *T) ValuePtr {
	return newScalar(TypeUint32, unsafe.Pointer(ptr), 4)
}
func NewInt64[T ~int64](ptr *T) ValuePtr { return newScalar(TypeInt64, unsafe.Pointer(ptr), 8) }
func NewUint64[T ~uint64](ptr *T) ValuePtr {
	return newScalar(TypeUint64, unsafe.Pointer(ptr), 8)
}
func NewFloat32[T ~float32](ptr *T) ValuePtr {
	return newScalar(TypeFloat32, unsafe.Pointer(ptr), 4)
}
func NewFloat64[T ~float64](ptr *T) ValuePtr {
	return newScalar(TypeFloat64, unsafe.Pointer(ptr), 8)
}

// elementSize returns the fixed byte width of a BasicType, panicking for
// TypeOther (composites go through custom.go's own size machinery instead).
func elementSize(bt BasicType) int {
	size := bt.ByteSize()
	if size == 0 {
		panic("tamer: elementSize called on a non-fixed-width BasicType")
	}
	return size
}

// newNumericSlice builds a dynamic-length ValuePtr over *ptr, one element
// at a time via unsafe pointer arithmetic keyed off elemSize. The wire form
// is a u32 element count followed by each element's raw bytes (§4.1).
func newNumericSlice[T any](bt BasicType, ptr *[]T, elemSize int) ValuePtr {
	return ValuePtr{
		basicType: bt,
		isVector:  true,
		sizeFn: func() int {
			return 4 + len(*ptr)*elemSize
		},
		serializeFn: func(dst []byte) int {
			n := len(*ptr)
			binary.LittleEndian.PutUint32(dst, uint32(n))
			off := 4
			base := unsafe.Pointer(unsafe.SliceData(*ptr))
			for i := 0; i < n; i++ {
				off += encodeRaw(dst[off:], unsafe.Add(base, i*elemSize), elemSize)
			}
			return off
		},
	}
}

// newNumericArray builds a fixed-length ValuePtr over the n contiguous
// elements starting at ptr (the Go analogue of a std::array<T,N>*). No
// length prefix is written; the count is fixed by the schema.
func newNumericArray[T any](bt BasicType, ptr *T, n int, elemSize int) ValuePtr {
	base := unsafe.Pointer(ptr)
	return ValuePtr{
		basicType:  bt,
		isVector:   true,
		vectorSize: uint16(n),
		sizeFn: func() int {
			return n * elemSize
		},
		serializeFn: func(dst []byte) int {
			off := 0
			for i := 0; i < n; i++ {
				off += encodeRaw(dst[off:], unsafe.Add(base, i*elemSize), elemSize)
			}
			return off
		},
	}
}

// NewBoolSlice, NewUint8Slice, etc. wrap a []T of the matching numeric kind
// as a dynamically-sized sequence field.
func NewBoolSlice[T ~bool](ptr *[]T) ValuePtr    { return newNumericSlice(TypeBool, ptr, 1) }
func NewInt8Slice[T ~int8](ptr *[]T) ValuePtr    { return newNumericSlice(TypeInt8, ptr, 1) }
func NewUint8Slice[T ~uint8](ptr *[]T) ValuePtr  { return newNumericSlice(TypeUint8, ptr, 1) }
func NewInt16Slice[T ~int16](ptr *[]T) ValuePtr  { return newNumericSlice(TypeInt16, ptr, 2) }
func NewUint16Slice[T ~uint16](ptr *[]T) ValuePtr {
	return newNumericSlice(TypeUint16, ptr, 2)
}
func NewInt32Slice[T ~int32](ptr *[]T) ValuePtr { return newNumericSlice(TypeInt32, ptr, 4) }
func NewUint32Slice[T ~uint32](ptr *[]T) ValuePtr {
	return newNumericSlice(TypeUint32, ptr, 4)
}
func NewInt64Slice[T ~int64](ptr *[]T) ValuePtr { return newNumericSlice(TypeInt64, ptr, 8) }
func NewUint64Slice[T ~uint64](ptr *[]T) ValuePtr {
	return newNumericSlice(TypeUint64, ptr, 8)
}
func NewFloat32Slice[T ~float32](ptr *[]T) ValuePtr {
	return newNumericSlice(TypeFloat32, ptr, 4)
}
func NewFloat64Slice[T ~float64](ptr *[]T) ValuePtr {
	return newNumericSlice(TypeFloat64, ptr, 8)
}

// NewBoolArray, NewUint8Array, etc. wrap n contiguous T values (pass
// &arr[0], len(arr) for a Go [N]T array) as a fixed-size sequence field.
func NewBoolArray[T ~bool](ptr *T, n int) ValuePtr   { return newNumericArray(TypeBool, ptr, n, 1) }
func NewInt8Array[T ~int8](ptr *T, n int) ValuePtr   { return newNumericArray(TypeInt8, ptr, n, 1) }
func NewUint8Array[T ~uint8](ptr *T, n int) ValuePtr { return newNumericArray(TypeUint8, ptr, n, 1) }
func NewInt16Array[T ~int16](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeInt16, ptr, n, 2)
}
func NewUint16Array[T ~uint16](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeUint16, ptr, n, 2)
}
func NewInt32Array[T ~int32](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeInt32, ptr, n, 4)
}
func NewUint32Array[T ~uint32](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeUint32, ptr, n, 4)
}
func NewInt64Array[T ~int64](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeInt64, ptr, n, 8)
}
func NewUint64Array[T ~uint64](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeUint64, ptr, n, 8)
}
func NewFloat32Array[T ~float32](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeFloat32, ptr, n, 4)
}
func NewFloat64Array[T ~float64](ptr *T, n int) ValuePtr {
	return newNumericArray(TypeFloat64, ptr, n, 8)
}
