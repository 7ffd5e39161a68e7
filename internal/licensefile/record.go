// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// ParseRecord reads a flat YAML or JSON mapping into record Data,
// keeping the keys in document order. Scalar values are converted
// to their string form; nested mappings and sequences are rejected.
func ParseRecord(doc []byte) (Data, error) {
	var items yaml.MapSlice
	if err := yaml.Unmarshal(doc, &items); err != nil {
		return Data{}, InputError(fmt.Errorf("failed to parse record: %w", err))
	}

	fields := make(Fields, 0, len(items))
	for _, item := range items {
		name, ok := item.Key.(string)
		if !ok {
			name = fmt.Sprint(item.Key)
		}

		var value string
		switch v := item.Value.(type) {
		case nil:
			value = ""
		case string:
			value = v
		case yaml.MapSlice, map[string]any, []any:
			return Data{}, InputError(fmt.Errorf("field %q must be a scalar value", name))
		default:
			value = fmt.Sprint(v)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}

	d := Record(fields...)
	if err := d.validate(); err != nil {
		return Data{}, InputError(err)
	}
	return d, nil
}
