// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"errors"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// Extraction is the serial and data recovered from a license file.
type Extraction struct {
	// Serial is the base64 encoded signature.
	Serial string

	// Data is the signed license data.
	Data Data
}

// Extractor recovers the serial and data from a license file.
// Extractors only parse, they do not verify the signature.
type Extractor interface {
	Extract(artifact string) (*Extraction, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(artifact string) (*Extraction, error)

// Extract calls f(artifact).
func (f ExtractorFunc) Extract(artifact string) (*Extraction, error) {
	return f(artifact)
}

// defaultLineCount is the number of lines rendered by the default template.
const defaultLineCount = 4

type defaultExtractor struct{}

// DefaultExtractor returns the extractor for license files rendered with
// the default template. The file must have exactly four lines separated by
// line feeds. The second line is the string data and the third the serial.
// The first and last lines are ignored.
func DefaultExtractor() Extractor {
	return defaultExtractor{}
}

func (defaultExtractor) Extract(artifact string) (*Extraction, error) {
	lines := strings.Split(artifact, "\n")
	if len(lines) != defaultLineCount {
		return nil, FormatError(fmt.Errorf("license file must have %d lines, got %d",
			defaultLineCount, len(lines)))
	}

	return &Extraction{
		Serial: lines[2],
		Data:   String(lines[1]),
	}, nil
}

// LineExtractor is a declarative extractor for templates that render
// one value per line.
type LineExtractor struct {
	// Layout names the field bound to each line of the license file.
	// An empty name ignores the line and the name "serial" binds the signature.
	// If the only data field is "string" or "data", the data is a bare string,
	// otherwise it is a record with the fields in layout order.
	Layout []string `json:"layout"`
}

// Validate checks that the layout binds exactly one serial line
// and at least one data field, without duplicates.
func (e *LineExtractor) Validate() error {
	serials := 0
	var names []string
	seen := map[string]bool{}
	for _, name := range e.Layout {
		switch {
		case name == "":
		case name == ReservedSerialField:
			serials++
		case seen[name]:
			return fmt.Errorf("layout binds field %q more than once", name)
		default:
			seen[name] = true
			names = append(names, name)
		}
	}

	if serials != 1 {
		return fmt.Errorf("layout must bind exactly one %q line, got %d", ReservedSerialField, serials)
	}
	if len(names) == 0 {
		return errors.New("layout must bind at least one data field")
	}
	return nil
}

// Extract splits the license file on line feeds and maps each line
// to the field named by the layout.
func (e *LineExtractor) Extract(artifact string) (*Extraction, error) {
	if err := e.Validate(); err != nil {
		return nil, InputError(err)
	}

	lines := strings.Split(artifact, "\n")
	if len(lines) != len(e.Layout) {
		return nil, FormatError(fmt.Errorf("license file must have %d lines, got %d",
			len(e.Layout), len(lines)))
	}

	ext := &Extraction{}
	var fields Fields
	for i, name := range e.Layout {
		switch name {
		case "":
		case ReservedSerialField:
			ext.Serial = lines[i]
		default:
			fields = append(fields, Field{Name: name, Value: lines[i]})
		}
	}

	if len(fields) == 1 && (fields[0].Name == StringField || fields[0].Name == StringFieldAlias) {
		ext.Data = String(fields[0].Value)
	} else {
		ext.Data = Record(fields...)
	}
	return ext, nil
}

// ExtractorForTemplate derives a LineExtractor from a template in which
// every line is either literal text or a single placeholder.
func ExtractorForTemplate(t *Template) (*LineExtractor, error) {
	if t == nil {
		return nil, InputError(errors.New("template is required"))
	}

	lines := strings.Split(t.Source(), "\n")
	layout := make([]string, len(lines))
	for i, line := range lines {
		if !strings.Contains(line, "{{") {
			continue
		}

		loc := placeholderRegexp.FindStringIndex(line)
		if loc == nil || loc[0] != 0 || loc[1] != len(line) {
			return nil, TemplateError(fmt.Errorf("line %d must contain a single placeholder or none", i+1))
		}
		name, ok := placeholderName(line)
		if !ok {
			return nil, TemplateError(fmt.Errorf("line %d must contain a single placeholder or none", i+1))
		}
		layout[i] = name
	}

	e := &LineExtractor{Layout: layout}
	if err := e.Validate(); err != nil {
		return nil, TemplateError(err)
	}
	return e, nil
}

// LoadLayout reads a LineExtractor from a YAML or JSON document, e.g.:
//
//	layout:
//	  - ""
//	  - licenseVersion
//	  - email
//	  - serial
//	  - ""
func LoadLayout(doc []byte) (*LineExtractor, error) {
	var e LineExtractor
	if err := yaml.UnmarshalStrict(doc, &e); err != nil {
		return nil, InputError(fmt.Errorf("failed to parse layout: %w", err))
	}
	if err := e.Validate(); err != nil {
		return nil, InputError(err)
	}
	return &e, nil
}

// checkExtraction verifies that an extractor produced a serial and data.
func checkExtraction(ext *Extraction) error {
	if ext == nil {
		return ExtractionError(errors.New("extractor returned no result"))
	}
	if ext.Serial == "" {
		return ExtractionError(ErrSerialEmpty)
	}
	if ext.Data.kind == absentData {
		return ExtractionError(ErrDataEmpty)
	}
	return nil
}
