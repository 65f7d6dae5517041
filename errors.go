// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (spec §7). Test with errors.Is against these; the
// concrete error returned from a failing registration additionally wraps
// the offending name/field for diagnostics, while ParseSchema returns the
// sentinels unwrapped.
var (
	// ErrNameInvalid is returned when a field name contains a space.
	ErrNameInvalid = errors.New("tamer: field name must not contain spaces")

	// ErrFrozenSchema is returned when registering a new name after the
	// channel's first TakeSnapshot call.
	ErrFrozenSchema = errors.New("tamer: schema is frozen after first snapshot")

	// ErrTypeMismatch is returned when re-registering a name with a
	// different (type, is_vector, vector_size) triple than before.
	ErrTypeMismatch = errors.New("tamer: re-registration type mismatch")

	// ErrAlreadyRegistered is returned when registering a name that is
	// still live (registered and not yet unregistered).
	ErrAlreadyRegistered = errors.New("tamer: name already registered")

	// ErrBufferOverflow is returned by the parser when it runs past the
	// end of the active mask or payload.
	ErrBufferOverflow = errors.New("tamer: parser ran past end of buffer")

	// ErrSchemaVersionMismatch is returned by ParseSchema when the text's
	// declared version does not match SchemaVersion.
	ErrSchemaVersionMismatch = errors.New("tamer: schema version mismatch")

	// ErrSchemaHashMismatch is returned by ParseSchema when the recomputed
	// hash does not match the text's declared hash. ParseSnapshot reports a
	// snapshot whose schema_hash does not match the schema's by returning
	// false, not with this error.
	ErrSchemaHashMismatch = errors.New("tamer: schema hash mismatch")
)

// RegistrationError wraps one of the sentinel kinds above with the field
// name and channel that triggered it.
type RegistrationError struct {
	Channel string
	Field   string
	Kind    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("tamer: channel %q, field %q: %v", e.Channel, e.Field, e.Kind)
}

func (e *RegistrationError) Unwrap() error { return e.Kind }

func registrationError(channel, field string, kind error) *RegistrationError {
	return &RegistrationError{Channel: channel, Field: field, Kind: kind}
}
