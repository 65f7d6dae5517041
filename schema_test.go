// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "testing"

func TestCombineIsDeterministicAndOrderSensitive(t *testing.T) {
	h0 := strHash("demo")
	h1 := combine(h0, 1)
	h2 := combine(h1, 2)
	h2Again := combine(combine(h0, 1), 2)
	if h2 != h2Again {
		t.Fatal("combine must be a pure function of its inputs")
	}

	reordered := combine(combine(h0, 2), 1)
	if h2 == reordered {
		t.Error("folding the same two values in a different order should change the hash")
	}
}

func TestFoldFieldIncludesTypeNameOnlyForOther(t *testing.T) {
	plain := TypeField{FieldName: "x", Type: TypeFloat64}
	other := TypeField{FieldName: "x", Type: TypeOther, TypeName: "Point3D"}
	otherDifferentName := TypeField{FieldName: "x", Type: TypeOther, TypeName: "Quaternion"}

	h := uint64(42)
	if foldField(h, plain) == foldField(h, other) {
		t.Error("a OTHER-kind field must fold differently than a float64 field of the same name")
	}
	if foldField(h, other) == foldField(h, otherDifferentName) {
		t.Error("two OTHER-kind fields with different TypeName must fold to different hashes")
	}
}

func TestSchemaAddFieldUpdatesHashAndFields(t *testing.T) {
	s := newSchema("demo")
	h0 := s.Hash

	s.addField(TypeField{FieldName: "var", Type: TypeFloat64}, nil, nil)
	if s.Hash == h0 {
		t.Error("addField must change the rolling hash")
	}
	if len(s.Fields) != 1 || s.Fields[0].FieldName != "var" {
		t.Errorf("Fields = %+v, want one field named \"var\"", s.Fields)
	}
}

func TestSchemaAddFieldRecursesIntoCustomTypes(t *testing.T) {
	reg := NewTypesRegistry()
	var pose testPose
	NewCustomValue[testPose](&pose, reg) // populates reg with Pose; testPose.Fields puts Point3D and Quaternion in the default registry

	s := newSchema("demo")
	poseSer, _ := reg.lookup("Pose")
	s.addField(TypeField{FieldName: "pose", Type: TypeOther, TypeName: "Pose"}, poseSer.(*compositeSerializer), reg)

	for _, name := range []string{"Pose", "Point3D", "Quaternion"} {
		if _, ok := s.CustomTypes[name]; !ok {
			t.Errorf("CustomTypes missing transitively referenced type %q", name)
		}
	}
}

func TestSchemaTextContainsMsgBlocks(t *testing.T) {
	reg := NewTypesRegistry()
	var p testPoint3D
	ser := reg.serializerFor(&p)

	s := newSchema("demo")
	s.addField(TypeField{FieldName: "pose", Type: TypeOther, TypeName: "Point3D"}, ser.(*compositeSerializer), reg)

	text := s.Text()
	wantLines := []string{
		"### version: 4",
		"Point3D pose",
		"MSG: Point3D",
		"float64 x",
		"float64 y",
		"float64 z",
	}
	for _, want := range wantLines {
		if !containsLine(text, want) {
			t.Errorf("schema text missing %q, got:\n%s", want, text)
		}
	}
}

func containsLine(text, sub string) bool {
	for i := 0; i+len(sub) <= len(text); i++ {
		if text[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
