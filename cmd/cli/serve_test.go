// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
)

// stopImmediately replaces the signal handler with an already cancelled context.
func stopImmediately(t *testing.T) {
	t.Helper()
	original := setupSignalHandler
	setupSignalHandler = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	t.Cleanup(func() { setupSignalHandler = original })
}

func TestServeCmd(t *testing.T) {
	t.Run("starts and stops the server", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)
		stopImmediately(t)

		output, err := executeCommand([]string{
			"serve",
			"--key=testdata/rsa.pub",
			"--template=testdata/custom.tpl",
			"--port=0",
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("Starting license validation server"))
		g.Expect(output).To(ContainSubstring(`"algorithm":"RSA-SHA256"`))
		g.Expect(output).To(ContainSubstring("License validation server stopped"))
	})

	t.Run("writes console logs", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)
		stopImmediately(t)

		output, err := executeCommand([]string{
			"serve",
			"--key=testdata/ec.pub",
			"--port=0",
			"--log-encoding=console",
			"--log-level=debug",
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("\tinfo\tserver\tStarting license validation server"))
		g.Expect(output).ToNot(ContainSubstring(`{"level"`))
	})

	t.Run("fails", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			err  string
		}{
			{
				name: "with invalid log level",
				args: []string{"serve", "--key=testdata/rsa.pub", "--log-level=verbose"},
				err:  `invalid log level "verbose"`,
			},
			{
				name: "with invalid log encoding",
				args: []string{"serve", "--key=testdata/rsa.pub", "--log-encoding=xml"},
				err:  "must be json or console",
			},
			{
				name: "without key",
				args: []string{"serve"},
				err:  "LICENSE_FILE_PUBLIC_KEY environment variable",
			},
			{
				name: "with invalid layout",
				args: []string{"serve", "--key=testdata/rsa.pub", "--layout=testdata/custom.yaml"},
				err:  "failed to parse layout",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				g := NewWithT(t)
				isolateKeyEnv(t)
				stopImmediately(t)

				_, err := executeCommand(tt.args)
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.err))
			})
		}
	})
}
