// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer_test

import (
	"testing"

	tamer "github.com/PickNikRobotics/data-tamer"
)

type point3D struct{ X, Y, Z float64 }

func (p *point3D) TypeName() string { return "Point3D" }
func (p *point3D) Fields() tamer.FieldList {
	return tamer.FieldList{
		{Name: "x", Value: tamer.NewFloat64(&p.X)},
		{Name: "y", Value: tamer.NewFloat64(&p.Y)},
		{Name: "z", Value: tamer.NewFloat64(&p.Z)},
	}
}

type quaternion struct{ W, X, Y, Z float64 }

func (q *quaternion) TypeName() string { return "Quaternion" }
func (q *quaternion) Fields() tamer.FieldList {
	return tamer.FieldList{
		{Name: "w", Value: tamer.NewFloat64(&q.W)},
		{Name: "x", Value: tamer.NewFloat64(&q.X)},
		{Name: "y", Value: tamer.NewFloat64(&q.Y)},
		{Name: "z", Value: tamer.NewFloat64(&q.Z)},
	}
}

type pose struct {
	Position point3D
	Rotation quaternion
}

func (p *pose) TypeName() string { return "Pose" }
func (p *pose) Fields() tamer.FieldList {
	return tamer.FieldList{
		{Name: "position", Value: tamer.NewCustomValue[point3D](&p.Position, nil)},
		{Name: "rotation", Value: tamer.NewCustomValue[quaternion](&p.Rotation, nil)},
	}
}

func TestCustomCompositeSchemaText(t *testing.T) {
	reg := tamer.NewTypesRegistry()
	ch := tamer.NewLogChannel("demo", reg)

	var p pose
	if _, err := ch.RegisterCustom("pose", tamer.NewCustomValue[pose](&p, reg), "Pose"); err != nil {
		t.Fatal(err)
	}

	text := ch.Schema().Text()
	for _, want := range []string{
		"Pose pose",
		"MSG: Point3D",
		"float64 x",
		"float64 y",
		"float64 z",
		"MSG: Quaternion",
		"MSG: Pose",
		"Point3D position",
		"Quaternion rotation",
	} {
		if !containsSub(text, want) {
			t.Errorf("schema text missing %q; got:\n%s", want, text)
		}
	}
}

func TestParserRoundTripOfNestedComposites(t *testing.T) {
	reg := tamer.NewTypesRegistry()
	ch := tamer.NewLogChannel("demo", reg)
	sink := newSpySink()
	ch.AddSink(sink)

	p := pose{
		Position: point3D{1, 2, 3},
		Rotation: quaternion{4, 5, 6, 7},
	}
	if _, err := ch.RegisterCustom("pose", tamer.NewCustomValue[pose](&p, reg), "Pose"); err != nil {
		t.Fatal(err)
	}
	ch.TakeSnapshot(0)

	schema, err := tamer.ParseSchema(ch.Schema().Text())
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}

	values := map[string]float64{}
	ok := tamer.ParseSnapshot(schema, sink.last(), func(path string, _ tamer.TypeField, value float64, _ uint64) {
		values[path] = value
	}, func(string, []byte, string) {})
	if !ok {
		t.Fatal("ParseSnapshot returned false")
	}

	want := map[string]float64{
		"pose/position/x": 1,
		"pose/position/y": 2,
		"pose/position/z": 3,
		"pose/rotation/w": 4,
		"pose/rotation/x": 5,
		"pose/rotation/y": 6,
		"pose/rotation/z": 7,
	}
	for path, wantVal := range want {
		gotVal, ok := values[path]
		if !ok {
			t.Errorf("missing decoded leaf %q", path)
			continue
		}
		if gotVal != wantVal {
			t.Errorf("%s = %v, want %v", path, gotVal, wantVal)
		}
	}
}

func TestParserPathsForArrays(t *testing.T) {
	reg := tamer.NewTypesRegistry()
	ch := tamer.NewLogChannel("demo", reg)
	sink := newSpySink()
	ch.AddSink(sink)

	points := [3]point3D{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	quats := []quaternion{{20, 21, 22, 23}, {30, 31, 32, 33}}

	if _, err := ch.RegisterCustom("points", tamer.NewCustomArray[point3D](&points[0], len(points), reg), "Point3D"); err != nil {
		t.Fatal(err)
	}
	if _, err := ch.RegisterCustom("quats", tamer.NewCustomSlice[quaternion](&quats, reg), "Quaternion"); err != nil {
		t.Fatal(err)
	}
	ch.TakeSnapshot(0)

	schema, err := tamer.ParseSchema(ch.Schema().Text())
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}

	values := map[string]float64{}
	ok := tamer.ParseSnapshot(schema, sink.last(), func(path string, _ tamer.TypeField, value float64, _ uint64) {
		values[path] = value
	}, func(string, []byte, string) {})
	if !ok {
		t.Fatal("ParseSnapshot returned false")
	}

	cases := map[string]float64{
		"points[0]/x": 1,
		"points[2]/z": 9,
		"quats[1]/w":  30,
	}
	for path, want := range cases {
		got, ok := values[path]
		if !ok {
			t.Fatalf("missing decoded leaf %q (all paths: %v)", path, keysOf(values))
		}
		if got != want {
			t.Errorf("%s = %v, want %v", path, got, want)
		}
	}
}

func keysOf(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func containsSub(text, sub string) bool {
	for i := 0; i+len(sub) <= len(text); i++ {
		if text[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
