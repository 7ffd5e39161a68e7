// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package keysource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

const testPEM = "-----BEGIN PUBLIC KEY-----\nMCowBQYDK2VwAyEA\n-----END PUBLIC KEY-----\n"

func TestFetch(t *testing.T) {
	t.Run("uses default options", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.Expect(r.UserAgent()).To(Equal("license-file/1.0"))
			g.Expect(r.Header.Get("Accept")).To(HavePrefix("application/x-pem-file"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(testPEM))
		}))
		defer server.Close()

		data, err := Fetch(context.TODO(), server.URL)

		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(string(data)).To(Equal(testPEM))
	})

	t.Run("applies multiple options", func(t *testing.T) {
		g := NewWithT(t)
		customUserAgent := "multi-option-agent/3.0"
		expectedData := []byte(`{"keys":[{"use":"sig","kty": "OKP","crv": "Ed25519","alg": "EdDSA"}]}`)

		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.Expect(r.Header.Get("Accept")).To(Equal("application/jwk-set+json, application/json"))
			g.Expect(r.UserAgent()).To(Equal(customUserAgent))
			w.Header().Set("Content-Type", "application/jwk-set+json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(expectedData)
		}))
		defer server.Close()

		data, err := Fetch(
			context.TODO(),
			server.URL,
			FetchOpt.WithRetries(1),
			FetchOpt.WithUserAgent(customUserAgent),
			FetchOpt.WithContentType(ContentTypeKeySet),
			FetchOpt.WithInsecureSkipVerify(true),
		)

		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(data).To(Equal(expectedData))
	})

	t.Run("requires HTTPS for remote hosts", func(t *testing.T) {
		g := NewWithT(t)

		_, err := Fetch(context.TODO(), "http://example.com/key.pem")
		g.Expect(err).To(MatchError("HTTPS scheme is required"))
	})

	t.Run("requires HTTPS for localhost when not allowed", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(testPEM))
		}))
		defer server.Close()

		_, err := Fetch(context.TODO(), server.URL, FetchOpt.WithLocalhost(false))
		g.Expect(err).To(MatchError("HTTPS scheme is required"))
	})

	t.Run("fails on invalid URL", func(t *testing.T) {
		g := NewWithT(t)

		_, err := Fetch(context.TODO(), "https://[::1")
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("invalid URL"))
	})

	t.Run("fails on status errors", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := Fetch(context.TODO(), server.URL, FetchOpt.WithRetries(0))
		g.Expect(err).To(MatchError("fetch failed with status: 404"))
	})

	t.Run("fails on empty body", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("\n"))
		}))
		defer server.Close()

		_, err := Fetch(context.TODO(), server.URL)
		g.Expect(err).To(MatchError("response body is empty"))
	})

	t.Run("fails on oversized body", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("a", maxBodySize+1)))
		}))
		defer server.Close()

		_, err := Fetch(context.TODO(), server.URL)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("exceeds"))
	})

	t.Run("validates content", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not a key</html>"))
		}))
		defer server.Close()

		_, err := Fetch(context.TODO(), server.URL)
		g.Expect(err).To(MatchError("response is neither PEM nor JSON"))

		_, err = Fetch(context.TODO(), server.URL, FetchOpt.WithContentType(ContentTypeKeySet))
		g.Expect(err).To(MatchError("invalid JWKS response"))
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		g := NewWithT(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(testPEM))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Fetch(ctx, server.URL)
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("failed to fetch"))
	})
}
