// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Schema is a channel's field layout plus everything a standalone parser
// needs to reconstruct it: the flat top-level fields, any transitively
// referenced composite definitions, and any opaque user-supplied schemas.
type Schema struct {
	Hash          uint64
	ChannelName   string
	Fields        []TypeField
	CustomTypes   map[string][]TypeField
	CustomSchemas map[string]CustomSchema
}

// newSchema seeds a fresh schema with H0 = strHash(channelName), per §3.
func newSchema(channelName string) *Schema {
	return &Schema{
		Hash:          strHash(channelName),
		ChannelName:   channelName,
		CustomTypes:   map[string][]TypeField{},
		CustomSchemas: map[string]CustomSchema{},
	}
}

// addField folds f into the rolling hash, appends it to Fields, and (when
// f is a composite with a known field-list definition) recursively records
// every transitively referenced composite into CustomTypes, first-
// occurrence wins. Only the top-level TypeField is folded into the hash;
// the recursive walk never re-folds nested layouts (§4.3 point 4).
func (s *Schema) addField(f TypeField, nested *compositeSerializer, reg *TypesRegistry) {
	s.Hash = foldField(s.Hash, f)
	s.Fields = append(s.Fields, f)
	if nested != nil {
		s.addCustomType(nested, reg)
	}
}

// addCustomType registers cs's own field list under CustomTypes (first
// occurrence wins) and recurses into any of its own OTHER-kind fields. A
// nested type is looked up by name in reg and, failing that, in the default
// registry, where a Composite whose Fields passes a nil registry records it.
func (s *Schema) addCustomType(cs *compositeSerializer, reg *TypesRegistry) {
	if _, ok := s.CustomTypes[cs.TypeName()]; ok {
		return
	}
	s.CustomTypes[cs.TypeName()] = cs.FieldTypes()
	for _, f := range cs.FieldTypes() {
		if f.Type != TypeOther {
			continue
		}
		inner, ok := reg.lookup(f.TypeName)
		if !ok && reg != defaultTypesRegistry {
			inner, ok = defaultTypesRegistry.lookup(f.TypeName)
		}
		if ok {
			if innerCS, ok := inner.(*compositeSerializer); ok {
				s.addCustomType(innerCS, reg)
			}
		}
	}
}

// addCustomSchema records an opaque, user-supplied schema the registry does
// not introspect (the "advanced path", §4.2 last paragraph).
func (s *Schema) addCustomSchema(typeName string, cschema CustomSchema) {
	if _, ok := s.CustomSchemas[typeName]; ok {
		return
	}
	s.CustomSchemas[typeName] = cschema
}

// strHash is the leaf hash(x) for a string, used both as the seed H0 and
// inside foldField for the field-name and type-name leaves. xxhash is a
// real, maintained 64-bit hash already pulled in by the wider example
// corpus; nothing about the fold formula itself depends on which leaf hash
// is used, so there is no reason to hand-roll FNV here.
func strHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// combine implements combine(h, x) = h XOR (hash(x) + 0x9e3779b9 + (h<<6) +
// (h>>2)) exactly as specified (§3) — the classic boost::hash_combine
// constant, folded with XOR instead of the more common ADD so that field
// order within a single combine chain still matters while the overall
// schema hash stays a pure XOR-fold across fields.
func combine(h, x uint64) uint64 {
	return h ^ (x + 0x9e3779b9 + (h << 6) + (h >> 2))
}

// foldField folds one TypeField into the rolling schema hash, in the exact
// field order §3 mandates: name, type-kind, optional type-name, is_vector,
// array_size.
func foldField(h uint64, f TypeField) uint64 {
	h = combine(h, strHash(f.FieldName))
	h = combine(h, uint64(f.Type))
	if f.Type == TypeOther {
		h = combine(h, strHash(f.TypeName))
	}
	h = combine(h, boolToU64(f.IsVector))
	h = combine(h, uint64(f.ArraySize))
	return h
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Text renders the schema in the line-oriented form §4.3 specifies:
// a version/hash/channel_name header, the flat field list, then one
// "MSG: <name>" block per transitively referenced composite.
func (s *Schema) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### version: %d\n", SchemaVersion)
	fmt.Fprintf(&b, "### hash: %d\n", s.Hash)
	fmt.Fprintf(&b, "### channel_name: %s\n", s.ChannelName)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "%s %s\n", f.typeToken(), f.FieldName)
	}
	if len(s.CustomTypes) > 0 {
		b.WriteString("==============================\n")
		for _, name := range s.customTypeOrder() {
			fmt.Fprintf(&b, "MSG: %s\n", name)
			for _, f := range s.CustomTypes[name] {
				fmt.Fprintf(&b, "%s %s\n", f.typeToken(), f.FieldName)
			}
		}
	}
	return b.String()
}

// customTypeOrder returns CustomTypes' keys sorted, so Text() output is
// reproducible without tracking first-reference order separately.
func (s *Schema) customTypeOrder() []string {
	names := make([]string, 0, len(s.CustomTypes))
	for name := range s.CustomTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
