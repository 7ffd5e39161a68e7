// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/license-file/internal/licensefile"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed license file",
	Example: `  # Issue a license file for a string with the default template
  license-file issue --key=/path/to/private.pem --data="Company Name LLC"

  # Issue a license file for a record with a custom template
  export LICENSE_FILE_PRIVATE_KEY="$(cat /path/to/private.pem)"
  license-file issue \
  --field=licenseVersion=1 \
  --field=email=some@email.com \
  --field=expirationDate=2025/09/25 \
  --template=license.tpl \
  --strict \
  --output=license.lic

  # Issue a license file for a record read from a YAML file
  license-file issue --key=private.pem --data-file=license.yaml --with-id
`,
	Args: cobra.NoArgs,
	RunE: issueCmdRun,
}

type issueFlags struct {
	keyPath      string
	data         string
	fields       fieldsValue
	dataFile     string
	templatePath string
	strict       bool
	withID       bool
	outputPath   string
}

var issueArgs issueFlags

func init() {
	issueCmd.Flags().StringVarP(&issueArgs.keyPath, "key", "k", "",
		"path or URL of the private key (PEM or JWK), defaults to the "+privateKeyEnvVar+" env var")
	issueCmd.Flags().StringVar(&issueArgs.data, "data", "",
		"license data as a string")
	issueCmd.Flags().Var(&issueArgs.fields, "field",
		"license data field in the name=value format, can be repeated, the order is preserved")
	issueCmd.Flags().StringVar(&issueArgs.dataFile, "data-file", "",
		"path to a YAML or JSON file containing the license data fields")
	issueCmd.Flags().StringVar(&issueArgs.templatePath, "template", "",
		"path to the license template file, defaults to the four line template")
	issueCmd.Flags().BoolVar(&issueArgs.strict, "strict", false,
		"fail if the template references a field that is not defined")
	issueCmd.Flags().BoolVar(&issueArgs.withID, "with-id", false,
		"prepend an 'id' field holding a generated UUID to the license data")
	issueCmd.Flags().StringVarP(&issueArgs.outputPath, "output", "o", "",
		"path to the output file, defaults to stdout")
	rootCmd.AddCommand(issueCmd)
}

func issueCmdRun(cmd *cobra.Command, args []string) error {
	data, err := issueData()
	if err != nil {
		return err
	}

	tmpl, err := loadTemplate(issueArgs.templatePath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()
	key, err := loadPrivateKey(ctx, issueArgs.keyPath)
	if err != nil {
		return err
	}

	lic, err := licensefile.Issue(data, key, licensefile.IssueOptions{
		Template: tmpl,
		Strict:   issueArgs.strict,
	})
	if err != nil {
		return fmt.Errorf("failed to issue license file: %w", err)
	}

	if issueArgs.outputPath == "" {
		_, err = fmt.Fprint(rootCmd.OutOrStdout(), lic)
		return err
	}

	if err := os.WriteFile(issueArgs.outputPath, []byte(lic), 0644); err != nil {
		return fmt.Errorf("failed to write license file: %w", err)
	}
	rootCmd.Println(fmt.Sprintf("✔ license file signed with %s written to: %s",
		key.Algorithm(), issueArgs.outputPath))

	return nil
}

// issueData builds the license data from the --data, --field or --data-file flags.
func issueData() (licensefile.Data, error) {
	sources := 0
	for _, set := range []bool{issueArgs.data != "", len(issueArgs.fields.fields) > 0, issueArgs.dataFile != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return licensefile.Data{}, fmt.Errorf("one of --data, --field or --data-file flags is required")
	case sources > 1:
		return licensefile.Data{}, fmt.Errorf("--data, --field and --data-file flags are mutually exclusive")
	}

	var fields licensefile.Fields
	switch {
	case issueArgs.data != "":
		if issueArgs.withID {
			return licensefile.Data{}, fmt.Errorf("--with-id requires record data set with --field or --data-file")
		}
		return licensefile.String(issueArgs.data), nil
	case issueArgs.dataFile != "":
		doc, err := os.ReadFile(issueArgs.dataFile)
		if err != nil {
			return licensefile.Data{}, fmt.Errorf("failed to read data file: %w", err)
		}
		record, err := licensefile.ParseRecord(doc)
		if err != nil {
			return licensefile.Data{}, err
		}
		fields = record.Fields()
	default:
		fields = issueArgs.fields.fields
	}

	if issueArgs.withID {
		if _, ok := fields.Get("id"); ok {
			return licensefile.Data{}, fmt.Errorf("--with-id cannot be used when the data has an 'id' field")
		}
		id, err := uuid.NewV6()
		if err != nil {
			return licensefile.Data{}, fmt.Errorf("failed to generate license ID: %w", err)
		}
		fields = append(licensefile.Fields{{Name: "id", Value: id.String()}}, fields...)
	}

	return licensefile.Record(fields...), nil
}
