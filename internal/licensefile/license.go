// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package licensefile

import (
	"errors"
)

// IssueOptions configures Issue. The zero value renders
// the default template in lenient mode.
type IssueOptions struct {
	// Template renders the license file.
	// Defaults to DefaultTemplate.
	Template *Template

	// Strict makes rendering fail with ErrTemplate when the template
	// references a field that is not defined.
	Strict bool
}

// ValidateOptions configures Validate. The zero value
// uses the default extractor.
type ValidateOptions struct {
	// Extractor recovers the serial and data from the license file.
	// Defaults to DefaultExtractor.
	Extractor Extractor
}

// Result is the outcome of a license file validation.
type Result struct {
	// Valid reports whether the serial is a valid signature of the data.
	Valid bool `json:"valid"`

	// Serial is the signature found in the license file.
	Serial string `json:"serial"`

	// Data is the license data found in the license file.
	Data Data `json:"data"`
}

// Issue signs the canonical form of the data with the private key
// and renders the license file with the data and the serial.
func Issue(data Data, key *PrivateKey, opts IssueOptions) (string, error) {
	if err := data.validate(); err != nil {
		return "", InputError(err)
	}
	if key == nil || key.Key == nil {
		return "", InputError(ErrPrivateKeyRequired)
	}

	tmpl := opts.Template
	if tmpl == nil {
		tmpl = defaultTemplate
	}

	serial, err := Sign(Canonicalize(data), key)
	if err != nil {
		return "", err
	}

	return tmpl.Render(data, serial, opts.Strict)
}

// Validate extracts the serial and data from the license file and verifies
// the serial against the canonical form of the data with the public key.
//
// A serial that does not match is not an error, the returned Result has
// Valid set to false. Errors are returned only when the license file cannot
// be parsed (ErrFormat, ErrExtraction) or the key is unusable (ErrKey, ErrInput).
func Validate(artifact string, key *PublicKey, opts ValidateOptions) (*Result, error) {
	if key == nil || key.Key == nil {
		return nil, InputError(ErrPublicKeyRequired)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = DefaultExtractor()
	}

	ext, err := extractor.Extract(artifact)
	if err != nil {
		if ErrorKind(err) == "unknown" {
			return nil, ExtractionError(err)
		}
		return nil, err
	}
	if err := checkExtraction(ext); err != nil {
		return nil, err
	}

	valid, err := Verify(Canonicalize(ext.Data), ext.Serial, key)
	if err != nil {
		return nil, err
	}

	return &Result{
		Valid:  valid,
		Serial: ext.Serial,
		Data:   ext.Data,
	}, nil
}

// IsStructural reports whether err is a license file parse failure,
// as opposed to a problem with the caller's input or key.
func IsStructural(err error) bool {
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrExtraction)
}
