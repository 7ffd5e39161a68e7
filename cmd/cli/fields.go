// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

// fieldsValue is a repeatable name=value flag that keeps the fields
// in the order they were given on the command line.
type fieldsValue struct {
	fields licensefile.Fields
}

var _ pflag.SliceValue = &fieldsValue{}

func (v *fieldsValue) String() string {
	return "[" + strings.Join(v.GetSlice(), ",") + "]"
}

func (v *fieldsValue) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("field %q must be in the name=value format", s)
	}
	v.fields = append(v.fields, licensefile.Field{Name: name, Value: value})
	return nil
}

func (v *fieldsValue) Type() string {
	return "name=value"
}

func (v *fieldsValue) Append(s string) error {
	return v.Set(s)
}

func (v *fieldsValue) Replace(values []string) error {
	v.fields = nil
	for _, s := range values {
		if err := v.Set(s); err != nil {
			return err
		}
	}
	return nil
}

func (v *fieldsValue) GetSlice() []string {
	out := make([]string, 0, len(v.fields))
	for _, f := range v.fields {
		out = append(out, f.Name+"="+f.Value)
	}
	return out
}
