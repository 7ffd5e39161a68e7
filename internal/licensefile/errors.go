// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"errors"
	"fmt"
)

// ErrInput is returned when a required argument is missing or has the wrong shape.
var ErrInput = errors.New("invalid input")

// ErrKey is returned when key material cannot be read or parsed as a supported asymmetric key.
var ErrKey = errors.New("invalid key")

// ErrFormat is returned when a license file does not have the shape the extractor expects.
var ErrFormat = errors.New("invalid license format")

// ErrExtraction is returned when an extractor does not produce a serial and data.
var ErrExtraction = errors.New("extraction failed")

// ErrTemplate is returned when a license template cannot be parsed or rendered.
var ErrTemplate = errors.New("invalid template")

// ErrDataRequired is returned when the license data is absent.
var ErrDataRequired = errors.New("license data is required")

// ErrPrivateKeyRequired is returned when a private key is required but not provided.
var ErrPrivateKeyRequired = errors.New("private key is required")

// ErrPublicKeyRequired is returned when a public key is required but not provided.
var ErrPublicKeyRequired = errors.New("public key is required")

// ErrSerialEmpty is returned when the extracted serial is empty.
var ErrSerialEmpty = errors.New("serial cannot be empty")

// ErrDataEmpty is returned when the extracted data is absent.
var ErrDataEmpty = errors.New("data string or record was not extracted")

// InputError wraps an error with the ErrInput kind.
func InputError(err error) error {
	return fmt.Errorf("%w: %w", ErrInput, err)
}

// KeyError wraps an error with the ErrKey kind.
func KeyError(err error) error {
	return fmt.Errorf("%w: %w", ErrKey, err)
}

// FormatError wraps an error with the ErrFormat kind.
func FormatError(err error) error {
	return fmt.Errorf("%w: %w", ErrFormat, err)
}

// ExtractionError wraps an error with the ErrExtraction kind.
func ExtractionError(err error) error {
	return fmt.Errorf("%w: %w", ErrExtraction, err)
}

// TemplateError wraps an error with the ErrTemplate kind.
func TemplateError(err error) error {
	return fmt.Errorf("%w: %w", ErrTemplate, err)
}

// ErrorKind returns a short name for the kind of err,
// or "unknown" if err does not wrap any of the sentinel kinds.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrKey):
		return "key"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrTemplate):
		return "template"
	default:
		return "unknown"
	}
}
