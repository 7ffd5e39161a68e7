// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var timeout = 30 * time.Second

// executeCommand executes a CLI command with the given args and returns the output and error.
// This helper function can be reused across all CLI command tests.
func executeCommand(args []string) (string, error) {
	return executeCommandWithIn(args, nil)
}

// executeCommandWithIn is like executeCommand but reads stdin from the given reader.
func executeCommandWithIn(args []string, in io.Reader) (string, error) {
	defer resetCmdArgs()

	// Capture output
	buf := new(bytes.Buffer)

	// Set up the command
	cmd := rootCmd
	cmd.SetArgs(args)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(in)

	// Execute command
	err := cmd.Execute()

	return buf.String(), err
}

// resetCmdArgs resets all command-specific flags to their default values.
// This should be called between tests to ensure clean state.
func resetCmdArgs() {
	rootArgs.timeout = timeout
	rootCmd.SetIn(nil)

	issueArgs = issueFlags{}
	validateArgs = validateFlags{output: "table"}
	serveArgs = serveFlags{
		port:            8080,
		shutdownTimeout: 30 * time.Second,
		logLevel:        "info",
		logEncoding:     "json",
	}
	versionArgs = versionFlags{}
}

// readTestdata returns the content of a file from the testdata directory.
func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read testdata/%s: %v", name, err)
	}
	return string(data)
}

// isolateKeyEnv unsets the key environment variables for the duration of the test.
func isolateKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv(privateKeyEnvVar, "")
	t.Setenv(publicKeyEnvVar, "")
}
