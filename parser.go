// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSchema parses the line-oriented text form (§4.3), recomputing the
// hash exactly as Schema.Text's writer folded it and rejecting on version
// or hash mismatch — the parser's one required consistency check besides
// ParseSnapshot's schema_hash comparison.
func ParseSchema(text string) (*Schema, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		version     int
		channelName string
		haveHash    bool
		declHash    uint64
	)

	s := &Schema{CustomTypes: map[string][]TypeField{}, CustomSchemas: map[string]CustomSchema{}}
	inCustomBlock := false
	var currentMsg string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "### version:"):
			v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "### version:")))
			if err != nil {
				return nil, fmt.Errorf("tamer: invalid version line %q: %w", line, err)
			}
			version = v
		case strings.HasPrefix(line, "### hash:"):
			h, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "### hash:")), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("tamer: invalid hash line %q: %w", line, err)
			}
			declHash = h
			haveHash = true
		case strings.HasPrefix(line, "### channel_name:"):
			channelName = strings.TrimSpace(strings.TrimPrefix(line, "### channel_name:"))
		case strings.HasPrefix(line, "=========="):
			inCustomBlock = true
		case strings.HasPrefix(line, "MSG:"):
			currentMsg = strings.TrimSpace(strings.TrimPrefix(line, "MSG:"))
			s.CustomTypes[currentMsg] = nil
		default:
			field, err := parseFieldLine(line)
			if err != nil {
				return nil, err
			}
			if inCustomBlock {
				s.CustomTypes[currentMsg] = append(s.CustomTypes[currentMsg], field)
			} else {
				s.Fields = append(s.Fields, field)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if version != SchemaVersion {
		return nil, ErrSchemaVersionMismatch
	}

	s.ChannelName = channelName
	h := strHash(channelName)
	for _, f := range s.Fields {
		h = foldField(h, f)
	}
	s.Hash = h
	if haveHash && h != declHash {
		return nil, ErrSchemaHashMismatch
	}
	return s, nil
}

// parseFieldLine parses one "<type_token> <field_name>" line, splitting
// the token into its base type name and optional []/[N] vector suffix.
func parseFieldLine(line string) (TypeField, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return TypeField{}, fmt.Errorf("tamer: malformed schema field line %q", line)
	}
	token, name := parts[0], parts[1]

	isVector := false
	arraySize := uint32(0)
	typeName := token
	if i := strings.IndexByte(token, '['); i >= 0 {
		isVector = true
		typeName = token[:i]
		inner := strings.TrimSuffix(token[i+1:], "]")
		if inner != "" {
			n, err := strconv.ParseUint(inner, 10, 32)
			if err != nil {
				return TypeField{}, fmt.Errorf("tamer: bad array size in %q: %w", token, err)
			}
			arraySize = uint32(n)
		}
	}

	bt, err := BasicTypeFromString(typeName)
	field := TypeField{FieldName: name, IsVector: isVector, ArraySize: arraySize}
	if err != nil {
		field.Type = TypeOther
		field.TypeName = typeName
	} else {
		field.Type = bt
		field.TypeName = bt.String()
	}
	return field, nil
}

// NumberCallback receives one decoded numeric leaf: path is the joined
// "a/b[2]/c"-style location (§4.7), value the decoded scalar as a float64
// (numeric leaves of every width fit losslessly except uint64/int64 values
// beyond 2^53, which is an accepted, documented limitation of this
// convenience surface — callers needing full 64-bit precision should read
// the raw argument instead).
type NumberCallback func(path string, field TypeField, value float64, raw uint64)

// CustomCallback is invoked once per opaque composite leaf (a type with no
// field list in schema.CustomTypes) with its path and type name. The raw
// argument is always nil: the parser has no size for such a value and does
// not pass its bytes.
type CustomCallback func(path string, raw []byte, typeName string)

// ParseSnapshot walks schema.Fields in registration order, decoding every
// field whose active_mask bit is set and invoking onNumber for numeric
// leaves (recursing into nested schema.CustomTypes) or onCustom for opaque
// composites. It returns false if snapshot.SchemaHash does not match
// schema.Hash (§4.7 last line).
func ParseSnapshot(schema *Schema, snapshot Snapshot, onNumber NumberCallback, onCustom CustomCallback) bool {
	if snapshot.SchemaHash != schema.Hash {
		return false
	}
	mask := activeMaskFromBytes(snapshot.ActiveMask, len(schema.Fields))
	payload := snapshot.Payload
	off := 0
	for i, f := range schema.Fields {
		if !mask.Get(i) {
			continue
		}
		off = decodeField(schema, f, f.FieldName, payload, off, onNumber, onCustom)
	}
	return true
}

// decodeField decodes one field (scalar, fixed array, dynamic sequence, or
// composite) starting at payload[off], returning the new offset.
func decodeField(schema *Schema, f TypeField, path string, payload []byte, off int, onNumber NumberCallback, onCustom CustomCallback) int {
	if f.Type == TypeOther {
		return decodeCustomField(schema, f, path, payload, off, onNumber, onCustom)
	}

	size := f.Type.ByteSize()
	switch {
	case !f.IsVector:
		raw := decodeRaw(payload[off:], size)
		onNumber(path, f, rawToFloat64(f.Type, raw), raw)
		return off + size

	case f.ArraySize > 0:
		for i := uint32(0); i < f.ArraySize; i++ {
			raw := decodeRaw(payload[off:], size)
			onNumber(fmt.Sprintf("%s[%d]", path, i), f, rawToFloat64(f.Type, raw), raw)
			off += size
		}
		return off

	default: // dynamic sequence
		n := uint32(decodeRaw(payload[off:], 4))
		off += 4
		for i := uint32(0); i < n; i++ {
			raw := decodeRaw(payload[off:], size)
			onNumber(fmt.Sprintf("%s[%d]", path, i), f, rawToFloat64(f.Type, raw), raw)
			off += size
		}
		return off
	}
}

// decodeCustomField decodes one OTHER-kind field by recursing into the
// nested field list recorded in schema.CustomTypes, or (when the type has
// no known field list, i.e. an opaque custom_schemas entry) by invoking
// onCustom with nil raw bytes; the cursor is not advanced past such a value.
func decodeCustomField(schema *Schema, f TypeField, path string, payload []byte, off int, onNumber NumberCallback, onCustom CustomCallback) int {
	nested, known := schema.CustomTypes[f.TypeName]

	decodeOne := func(base string, start int) int {
		if !known {
			// Opaque composite: caller's onCustom must know how to size it;
			// we cannot advance the cursor reliably, so report zero-length.
			onCustom(base, nil, f.TypeName)
			return start
		}
		pos := start
		for _, nf := range nested {
			pos = decodeField(schema, nf, base+"/"+nf.FieldName, payload, pos, onNumber, onCustom)
		}
		return pos
	}

	switch {
	case !f.IsVector:
		return decodeOne(path, off)
	case f.ArraySize > 0:
		for i := uint32(0); i < f.ArraySize; i++ {
			off = decodeOne(fmt.Sprintf("%s[%d]", path, i), off)
		}
		return off
	default:
		n := uint32(decodeRaw(payload[off:], 4))
		off += 4
		for i := uint32(0); i < n; i++ {
			off = decodeOne(fmt.Sprintf("%s[%d]", path, i), off)
		}
		return off
	}
}

// rawToFloat64 reinterprets a decoded raw word per f's BasicType, the
// int/uint/float discrimination encodeRaw's byte-for-byte write erased.
func rawToFloat64(bt BasicType, raw uint64) float64 {
	switch bt {
	case TypeBool:
		return float64(raw)
	case TypeChar, TypeInt8:
		return float64(int8(raw))
	case TypeUint8:
		return float64(uint8(raw))
	case TypeInt16:
		return float64(int16(raw))
	case TypeUint16:
		return float64(uint16(raw))
	case TypeInt32:
		return float64(int32(raw))
	case TypeUint32:
		return float64(uint32(raw))
	case TypeInt64:
		return float64(int64(raw))
	case TypeUint64:
		return float64(raw)
	case TypeFloat32:
		return float64(math.Float32frombits(uint32(raw)))
	case TypeFloat64:
		return math.Float64frombits(raw)
	default:
		return 0
	}
}
