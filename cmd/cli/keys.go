// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/controlplaneio-fluxcd/license-file/internal/keysource"
	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

const (
	privateKeyEnvVar = "LICENSE_FILE_PRIVATE_KEY"
	publicKeyEnvVar  = "LICENSE_FILE_PUBLIC_KEY"
)

// loadPrivateKey reads the signing key from file path, HTTP URL, or environment variable.
func loadPrivateKey(ctx context.Context, keyPath string) (*licensefile.PrivateKey, error) {
	data, err := keysource.Load(ctx, keyPath, privateKeyEnvVar, fetchUserAgent())
	if err != nil {
		return nil, err
	}
	return licensefile.ParsePrivateKey(data)
}

// loadPublicKey reads the verification key from file path, HTTP URL, or environment variable.
// A non-empty keyID selects the key from a JSON Web Key Set.
func loadPublicKey(ctx context.Context, keyPath, keyID string) (*licensefile.PublicKey, error) {
	opts := []keysource.FetchOption{fetchUserAgent()}
	if keyID != "" {
		opts = append(opts, keysource.FetchOpt.WithContentType(keysource.ContentTypeKeySet))
	}

	data, err := keysource.Load(ctx, keyPath, publicKeyEnvVar, opts...)
	if err != nil {
		return nil, err
	}
	return licensefile.ParsePublicKeyWithID(data, keyID)
}

// fetchUserAgent identifies the CLI version when fetching remote keys.
func fetchUserAgent() keysource.FetchOption {
	return keysource.FetchOpt.WithUserAgent("license-file/" + VERSION)
}

// loadTemplate parses the template file, or returns the default template
// when the path is empty.
func loadTemplate(templatePath string) (*licensefile.Template, error) {
	if templatePath == "" {
		return licensefile.DefaultTemplate(), nil
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return licensefile.ParseTemplate(string(data))
}

// loadExtractor returns the extractor derived from the template file,
// the extractor read from the layout file or the default extractor.
func loadExtractor(templatePath, layoutPath string) (licensefile.Extractor, error) {
	switch {
	case templatePath != "" && layoutPath != "":
		return nil, fmt.Errorf("--template and --layout flags are mutually exclusive")
	case templatePath != "":
		tmpl, err := loadTemplate(templatePath)
		if err != nil {
			return nil, err
		}
		return licensefile.ExtractorForTemplate(tmpl)
	case layoutPath != "":
		data, err := os.ReadFile(layoutPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout: %w", err)
		}
		return licensefile.LoadLayout(data)
	default:
		return licensefile.DefaultExtractor(), nil
	}
}
