// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReservedSerialField is the template field bound to the license signature.
const ReservedSerialField = "serial"

// StringField is the implicit field name that holds bare string data.
const StringField = "string"

// StringFieldAlias is bound to bare string data next to StringField,
// it is the placeholder used by the default template.
const StringFieldAlias = "data"

// Field is a single named value of a license record.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered list of license record fields.
// The order is part of the signed canonical form.
type Fields []Field

// Get returns the value of the first field with the given name.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for _, field := range f {
		names = append(names, field.Name)
	}
	return names
}

// MarshalJSON encodes the fields as a compact JSON object
// with the keys in field order and without HTML escaping.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, field.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, field.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type dataKind int

const (
	absentData dataKind = iota
	stringData
	recordData
)

// Data holds the license payload, either a single string
// or an ordered record of string fields.
// The zero value is absent data.
type Data struct {
	kind   dataKind
	text   string
	fields Fields
}

// String returns Data holding the string s.
func String(s string) Data {
	return Data{kind: stringData, text: s}
}

// Record returns Data holding a copy of the given fields in order.
func Record(fields ...Field) Data {
	return Data{kind: recordData, fields: append(Fields{}, fields...)}
}

// IsAbsent reports whether d carries no data.
// An empty string counts as absent.
func (d Data) IsAbsent() bool {
	return d.kind == absentData || (d.kind == stringData && d.text == "")
}

// IsString reports whether d holds string data.
func (d Data) IsString() bool {
	return d.kind == stringData
}

// IsRecord reports whether d holds a record.
func (d Data) IsRecord() bool {
	return d.kind == recordData
}

// Text returns the string data, or an empty string for records.
func (d Data) Text() string {
	return d.text
}

// Fields returns a copy of the record fields, or nil for string data.
func (d Data) Fields() Fields {
	if d.kind != recordData {
		return nil
	}
	return append(Fields{}, d.fields...)
}

// String returns the canonical form of d as a string.
func (d Data) String() string {
	return string(Canonicalize(d))
}

// Equal reports whether d and o hold the same kind of data
// with the same values in the same order.
func (d Data) Equal(o Data) bool {
	if d.kind != o.kind || d.text != o.text || len(d.fields) != len(o.fields) {
		return false
	}
	for i := range d.fields {
		if d.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes string data as a JSON string,
// records as an ordered JSON object and absent data as null.
func (d Data) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case stringData:
		var buf bytes.Buffer
		if err := writeJSONString(&buf, d.text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case recordData:
		return d.fields.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// templateFields returns the fields a template is rendered with.
// String data is bound to StringField and StringFieldAlias.
func (d Data) templateFields(serial string) Fields {
	var fields Fields
	if d.kind == stringData {
		fields = Fields{{Name: StringField, Value: d.text}, {Name: StringFieldAlias, Value: d.text}}
	} else {
		fields = d.Fields()
	}
	return append(fields, Field{Name: ReservedSerialField, Value: serial})
}

// validate checks that d can be issued.
func (d Data) validate() error {
	if d.IsAbsent() {
		return ErrDataRequired
	}
	if d.kind != recordData {
		return nil
	}

	seen := make(map[string]struct{}, len(d.fields))
	for _, field := range d.fields {
		if field.Name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		if field.Name == ReservedSerialField {
			return fmt.Errorf("field name %q is reserved for the signature", ReservedSerialField)
		}
		if _, ok := seen[field.Name]; ok {
			return fmt.Errorf("duplicate field %q", field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	return nil
}

// writeJSONString appends s to buf as a JSON string without HTML escaping.
// U+2028 and U+2029 are written raw, as JSON.stringify does.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))

	for i := 0; i < len(out); i++ {
		if out[i] != '\\' || i+1 >= len(out) {
			buf.WriteByte(out[i])
			continue
		}
		switch string(out[i:min(i+6, len(out))]) {
		case `\u2028`:
			buf.WriteRune('\u2028')
			i += 5
		case `\u2029`:
			buf.WriteRune('\u2029')
			i += 5
		default:
			// Copy the escape pair so an escaped backslash is never re-read.
			buf.Write(out[i : i+2])
			i++
		}
	}
	return nil
}
