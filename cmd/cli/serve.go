// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-file/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the license validation HTTP server",
	Example: `  # Serve license validation for the default template on port 8080
  license-file serve --key=/path/to/public.pem

  # Serve license validation for a custom layout with debug logs
  license-file serve \
  --key=https://example.com/.well-known/jwks.json \
  --key-id=license-key \
  --layout=layout.yaml \
  --port=9090 \
  --log-level=debug

  # Validate a license file against the server
  curl -s --data-binary @license.lic http://localhost:8080/v1/validate
`,
	Args: cobra.NoArgs,
	RunE: serveCmdRun,
}

type serveFlags struct {
	keyPath         string
	keyID           string
	templatePath    string
	layoutPath      string
	port            int
	shutdownTimeout time.Duration
	logLevel        string
	logEncoding     string
}

var serveArgs = serveFlags{
	port:            8080,
	shutdownTimeout: 30 * time.Second,
	logLevel:        "info",
	logEncoding:     "json",
}

// setupSignalHandler returns a context that is cancelled on SIGINT or SIGTERM.
var setupSignalHandler = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	serveCmd.Flags().StringVarP(&serveArgs.keyPath, "key", "k", "",
		"path or URL of the public key (PEM, certificate, JWK or JWKS), defaults to the "+publicKeyEnvVar+" env var")
	serveCmd.Flags().StringVar(&serveArgs.keyID, "key-id", "",
		"ID of the key to select from a JSON Web Key Set")
	serveCmd.Flags().StringVar(&serveArgs.templatePath, "template", "",
		"path to the template the license files are rendered with")
	serveCmd.Flags().StringVar(&serveArgs.layoutPath, "layout", "",
		"path to a YAML file mapping the license file lines to fields")
	serveCmd.Flags().IntVar(&serveArgs.port, "port", serveArgs.port,
		"the port the HTTP server listens on")
	serveCmd.Flags().DurationVar(&serveArgs.shutdownTimeout, "shutdown-timeout", serveArgs.shutdownTimeout,
		"the request and graceful shutdown timeout of the HTTP server")
	serveCmd.Flags().StringVar(&serveArgs.logLevel, "log-level", serveArgs.logLevel,
		"log verbosity level, can be 'debug', 'info', 'warn' or 'error'")
	serveCmd.Flags().StringVar(&serveArgs.logEncoding, "log-encoding", serveArgs.logEncoding,
		"log encoding format, can be 'json' or 'console'")
	rootCmd.AddCommand(serveCmd)
}

func serveCmdRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(rootCmd.ErrOrStderr(), serveArgs.logLevel, serveArgs.logEncoding)
	if err != nil {
		return err
	}

	extractor, err := loadExtractor(serveArgs.templatePath, serveArgs.layoutPath)
	if err != nil {
		return err
	}

	keyCtx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()
	key, err := loadPublicKey(keyCtx, serveArgs.keyPath, serveArgs.keyID)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		PublicKey: key,
		Extractor: extractor,
		Logger:    logger.WithName("server"),
	})
	if err != nil {
		return err
	}

	ctx, stop := setupSignalHandler()
	defer stop()

	return srv.Start(ctx, fmt.Sprintf(":%d", serveArgs.port), serveArgs.shutdownTimeout)
}
