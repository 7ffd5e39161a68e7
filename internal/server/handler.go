// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

// MaxRequestBodySize caps the size of validation requests.
const MaxRequestBodySize = 1 << 20

// ValidateRequest is the JSON body of a validation request.
type ValidateRequest struct {
	// License is the license file content.
	License string `json:"license"`
}

// ErrorResponse is the JSON body returned when a validation request fails.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ValidateHandler handles POST /v1/validate requests.
// The body is the license file as plain text or a JSON ValidateRequest.
func (s *Server) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	artifact, status, err := readArtifact(w, r)
	if err != nil {
		s.metrics.RecordValidation(resultError, start)
		writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: licensefile.ErrorKind(err)})
		return
	}

	result, err := licensefile.Validate(artifact, s.key, licensefile.ValidateOptions{Extractor: s.extractor})
	if err != nil {
		s.metrics.RecordValidation(resultError, start)
		status := http.StatusBadRequest
		switch {
		case licensefile.IsStructural(err):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, licensefile.ErrKey):
			status = http.StatusInternalServerError
		}
		s.logger.V(1).Info("License validation failed", "error", err.Error(), "kind", licensefile.ErrorKind(err))
		writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: licensefile.ErrorKind(err)})
		return
	}

	if result.Valid {
		s.metrics.RecordValidation(resultValid, start)
	} else {
		s.metrics.RecordValidation(resultInvalid, start)
		s.logger.V(1).Info("License signature is invalid", "serial", result.Serial)
	}

	writeJSON(w, http.StatusOK, result)
}

// HealthzHandler reports that the server is up.
func (s *Server) HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readArtifact returns the license file from the request body along with
// the status code to respond with on failure.
func readArtifact(w http.ResponseWriter, r *http.Request) (string, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", http.StatusRequestEntityTooLarge,
				licensefile.InputError(errors.New("request body is too large"))
		}
		return "", http.StatusBadRequest, licensefile.InputError(err)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return string(body), 0, nil
	}

	var req ValidateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", http.StatusBadRequest,
			licensefile.InputError(errors.New("request body must be a JSON object with a license field"))
	}
	if req.License == "" {
		return "", http.StatusUnprocessableEntity,
			licensefile.InputError(errors.New("license is required"))
	}
	return req.License, 0, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
