// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package licensefile issues and validates signed, human-readable license files.
//
// A license file is the license data rendered with a template, with the
// signature of the data injected as the "serial" field. The signature covers
// the canonical form of the data:
//
//   - string data is signed as its UTF-8 bytes
//   - record data is signed as a compact JSON object with the keys in field order
//
// Issuing a license:
//
//	key, err := licensefile.ParsePrivateKey(pemData)
//	lic, err := licensefile.Issue(licensefile.String("hello"), key, licensefile.IssueOptions{})
//
// Validating it:
//
//	pub, err := licensefile.ParsePublicKey(pubData)
//	res, err := licensefile.Validate(lic, pub, licensefile.ValidateOptions{})
//	if err == nil && res.Valid { ... }
//
// The default template renders four lines: a header, the data,
// the serial and a footer. Templates with more fields are parsed back with
// a LineExtractor or any other Extractor implementation.
//
// Signatures use RSA-SHA256 (PKCS#1 v1.5) for RSA keys, ECDSA with SHA-256
// for EC keys and Ed25519 for Ed25519 keys. Keys are read from PEM documents
// or JSON Web Keys.
//
// The package holds no mutable state and is safe for concurrent use.
package licensefile
