// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

// Canonicalize returns the byte sequence that is signed and verified for d.
// String data is used as is. Records are encoded as a compact JSON object
// with the keys in field order, so reordering the fields changes the result.
// Absent data canonicalizes to nil.
func Canonicalize(d Data) []byte {
	switch d.kind {
	case stringData:
		return []byte(d.text)
	case recordData:
		// Encoding strings into a buffer cannot fail.
		b, _ := d.fields.MarshalJSON()
		return b
	default:
		return nil
	}
}
