// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"bytes"
	"math"
	"testing"
)

func TestScalarSerialize(t *testing.T) {
	var n int32 = -7
	v := NewInt32(&n)
	if v.Type() != TypeInt32 || v.IsVector() {
		t.Fatalf("unexpected shape: %+v", v)
	}
	if v.SerializedSize() != 4 {
		t.Fatalf("SerializedSize() = %d, want 4", v.SerializedSize())
	}
	buf := make([]byte, 4)
	if written := v.Serialize(buf); written != 4 {
		t.Fatalf("Serialize wrote %d bytes, want 4", written)
	}
	raw := decodeRaw(buf, 4)
	if rawToFloat64(TypeInt32, raw) != -7 {
		t.Errorf("round-trip value = %v, want -7", rawToFloat64(TypeInt32, raw))
	}
}

func TestScalarFloatSerialize(t *testing.T) {
	f := 3.14159
	v := NewFloat64(&f)
	buf := make([]byte, v.SerializedSize())
	v.Serialize(buf)
	got := math.Float64frombits(decodeRaw(buf, 8))
	if got != f {
		t.Errorf("round-tripped float = %v, want %v", got, f)
	}
}

func TestNumericSliceGrowsAndShrinks(t *testing.T) {
	xs := []float32{1, 2, 3, 4}
	v := NewFloat32Slice(&xs)
	if !v.IsVector() || v.VectorSize() != 0 {
		t.Fatalf("expected a dynamic-sized vector, got %+v", v)
	}
	if want := 4 + 4*4; v.SerializedSize() != want {
		t.Fatalf("SerializedSize() = %d, want %d", v.SerializedSize(), want)
	}

	xs = append(xs, 5, 6, 7, 8, 9, 10)
	if want := 4 + 10*4; v.SerializedSize() != want {
		t.Errorf("after growth SerializedSize() = %d, want %d", v.SerializedSize(), want)
	}

	xs = xs[:5]
	if want := 4 + 5*4; v.SerializedSize() != want {
		t.Errorf("after shrink SerializedSize() = %d, want %d", v.SerializedSize(), want)
	}
}

func TestNumericSliceSerializeLengthPrefix(t *testing.T) {
	xs := []int16{10, 20, 30}
	v := NewInt16Slice(&xs)
	buf := make([]byte, v.SerializedSize())
	n := v.Serialize(buf)
	if n != len(buf) {
		t.Fatalf("Serialize wrote %d, want %d", n, len(buf))
	}
	count := decodeRaw(buf[:4], 4)
	if count != 3 {
		t.Fatalf("length prefix = %d, want 3", count)
	}
	if decodeRaw(buf[4:6], 2) != 10 || decodeRaw(buf[6:8], 2) != 20 || decodeRaw(buf[8:10], 2) != 30 {
		t.Errorf("elements not written in order: %v", buf)
	}
}

func TestNumericArrayFixedSize(t *testing.T) {
	arr := [3]uint8{9, 8, 7}
	v := NewUint8Array(&arr[0], len(arr))
	if v.VectorSize() != 3 {
		t.Fatalf("VectorSize() = %d, want 3", v.VectorSize())
	}
	if v.SerializedSize() != 3 {
		t.Fatalf("SerializedSize() = %d, want 3 (no length prefix for a fixed array)", v.SerializedSize())
	}
	buf := make([]byte, 3)
	v.Serialize(buf)
	if !bytes.Equal(buf, []byte{9, 8, 7}) {
		t.Errorf("Serialize() = %v, want [9 8 7]", buf)
	}
}

func TestSameShape(t *testing.T) {
	var a, b int32
	v1, v2 := NewInt32(&a), NewInt32(&b)
	if !v1.sameShape(v2) {
		t.Error("two plain int32 scalars should have the same shape")
	}

	var c int64
	v3 := NewInt64(&c)
	if v1.sameShape(v3) {
		t.Error("int32 and int64 scalars must not share a shape")
	}

	arr1 := [4]float32{}
	arr2 := [5]float32{}
	va, vb := NewFloat32Array(&arr1[0], len(arr1)), NewFloat32Array(&arr2[0], len(arr2))
	if va.sameShape(vb) {
		t.Error("fixed arrays of different lengths must not share a shape")
	}
}
