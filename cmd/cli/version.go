// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version information",
	Args:  cobra.NoArgs,
	RunE:  versionCmdRun,
}

type versionFlags struct {
	output string
}

var versionArgs versionFlags

func init() {
	versionCmd.Flags().StringVarP(&versionArgs.output, "output", "o", "",
		"If set to 'json', prints the version information as JSON.")
	rootCmd.AddCommand(versionCmd)
}

func versionCmdRun(cmd *cobra.Command, args []string) error {
	info := map[string]string{
		"client":   VERSION,
		"go":       runtime.Version(),
		"platform": runtime.GOOS + "/" + runtime.GOARCH,
	}

	if versionArgs.output == "json" {
		output, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("unable to marshal output to JSON: %w", err)
		}
		_, err = fmt.Fprintln(rootCmd.OutOrStdout(), string(output))
		return err
	}

	for _, key := range []string{"client", "go", "platform"} {
		if _, err := fmt.Fprintf(rootCmd.OutOrStdout(), "%s: %s\n", key, info[key]); err != nil {
			return fmt.Errorf("failed to print %s version: %w", key, err)
		}
	}
	return nil
}
