// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package keysource loads key material from files, URLs and environment variables.
package keysource

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// IsURL reports whether ref is an HTTP or HTTPS URL.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load returns the key material referenced by ref.
// HTTP URLs are fetched with Fetch, anything else is read as a file path,
// including /dev/stdin. When ref is empty, the value of the envVar
// environment variable is used instead.
func Load(ctx context.Context, ref, envVar string, opts ...FetchOption) ([]byte, error) {
	switch {
	case IsURL(ref):
		return Fetch(ctx, ref, opts...)
	case ref != "":
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		return data, nil
	case envVar != "" && os.Getenv(envVar) != "":
		return []byte(os.Getenv(envVar)), nil
	default:
		return nil, fmt.Errorf("key must be specified with --key flag or %s environment variable", envVar)
	}
}
