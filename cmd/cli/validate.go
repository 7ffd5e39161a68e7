// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

var validateCmd = &cobra.Command{
	Use:   "validate [LICENSE_FILE]",
	Short: "Validate a signed license file",
	Example: `  # Validate a license file rendered with the default template
  license-file validate license.lic --key=/path/to/public.pem

  # Validate a license file rendered with a custom template
  export LICENSE_FILE_PUBLIC_KEY="$(cat /path/to/public.pem)"
  license-file validate license.lic --template=license.tpl

  # Validate a license file read from stdin with a key from a JWKS endpoint
  cat license.lic | license-file validate \
  --key=https://example.com/.well-known/jwks.json \
  --key-id=license-key \
  --layout=layout.yaml \
  --output=json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateCmdRun,
}

type validateFlags struct {
	keyPath      string
	keyID        string
	templatePath string
	layoutPath   string
	output       string
}

var validateArgs = validateFlags{
	output: "table",
}

func init() {
	validateCmd.Flags().StringVarP(&validateArgs.keyPath, "key", "k", "",
		"path or URL of the public key (PEM, certificate, JWK or JWKS), defaults to the "+publicKeyEnvVar+" env var")
	validateCmd.Flags().StringVar(&validateArgs.keyID, "key-id", "",
		"ID of the key to select from a JSON Web Key Set")
	validateCmd.Flags().StringVar(&validateArgs.templatePath, "template", "",
		"path to the template the license file was rendered with")
	validateCmd.Flags().StringVar(&validateArgs.layoutPath, "layout", "",
		"path to a YAML file mapping the license file lines to fields")
	validateCmd.Flags().StringVarP(&validateArgs.output, "output", "o", validateArgs.output,
		"the format in which the license data should be printed, can be 'table', 'json' or 'yaml'")
	rootCmd.AddCommand(validateCmd)
}

func validateCmdRun(cmd *cobra.Command, args []string) error {
	switch validateArgs.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q, must be table, json or yaml", validateArgs.output)
	}

	artifact, err := readLicenseFile(cmd, args)
	if err != nil {
		return err
	}

	extractor, err := loadExtractor(validateArgs.templatePath, validateArgs.layoutPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()
	key, err := loadPublicKey(ctx, validateArgs.keyPath, validateArgs.keyID)
	if err != nil {
		return err
	}

	result, err := licensefile.Validate(artifact, key, licensefile.ValidateOptions{Extractor: extractor})
	if err != nil {
		return fmt.Errorf("failed to validate license file: %w", err)
	}

	if err := printResult(rootCmd.OutOrStdout(), result, validateArgs.output); err != nil {
		return err
	}

	if !result.Valid {
		return errors.New("license signature is invalid")
	}
	if validateArgs.output == "table" {
		rootCmd.Println(fmt.Sprintf("✔ license signature is valid (%s)", key.Algorithm()))
	}

	return nil
}

// readLicenseFile reads the license file from the path argument or stdin.
func readLicenseFile(cmd *cobra.Command, args []string) (string, error) {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("failed to read license file: %w", err)
	}
	return string(data), nil
}

// printResult writes the validation result as a table, JSON or YAML.
// The YAML output keeps the record fields in license order.
func printResult(w io.Writer, result *licensefile.Result, format string) error {
	switch format {
	case "json":
		output, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("unable to marshal output to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	case "yaml":
		var data any = result.Data.Text()
		if result.Data.IsRecord() {
			record := yaml.MapSlice{}
			for _, f := range result.Data.Fields() {
				record = append(record, yaml.MapItem{Key: f.Name, Value: f.Value})
			}
			data = record
		}
		output, err := yaml.Marshal(yaml.MapSlice{
			{Key: "valid", Value: result.Valid},
			{Key: "serial", Value: result.Serial},
			{Key: "data", Value: data},
		})
		if err != nil {
			return fmt.Errorf("unable to marshal output to YAML: %w", err)
		}
		_, err = w.Write(output)
		return err
	default:
		var rows [][]string
		if result.Data.IsRecord() {
			for _, f := range result.Data.Fields() {
				rows = append(rows, []string{f.Name, f.Value})
			}
		} else {
			rows = append(rows, []string{licensefile.StringFieldAlias, result.Data.Text()})
		}
		printTable(w, []string{"Field", "Value"}, rows)
		return nil
	}
}
