// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

func TestIssueCmd(t *testing.T) {
	t.Run("writes string license to stdout", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)

		output, err := executeCommand([]string{
			"issue",
			"--key=testdata/rsa.pem",
			"--data=data string",
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(Equal(readTestdata(t, "default.lic")))
	})

	t.Run("writes record license from data file", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)
		outputPath := filepath.Join(t.TempDir(), "license.lic")

		output, err := executeCommand([]string{
			"issue",
			"--key=testdata/rsa.pem",
			"--data-file=testdata/custom.yaml",
			"--template=testdata/custom.tpl",
			"--strict",
			"--output=" + outputPath,
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("✔ license file signed with RSA-SHA256 written to: " + outputPath))

		lic, err := os.ReadFile(outputPath)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(string(lic)).To(Equal(readTestdata(t, "custom.lic")))
	})

	t.Run("keeps the order of field flags", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)

		output, err := executeCommand([]string{
			"issue",
			"--key=testdata/rsa.pem",
			"--field=licenseVersion=1",
			"--field=applicationVersion=1.0.0",
			"--field=firstName=First Name",
			"--field=lastName=Last Name",
			"--field=email=some@email.com",
			"--field=expirationDate=2025/09/25",
			"--template=testdata/custom.tpl",
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(Equal(readTestdata(t, "custom.lic")))
	})

	t.Run("reads the key from the environment", func(t *testing.T) {
		g := NewWithT(t)
		t.Setenv(privateKeyEnvVar, readTestdata(t, "rsa.pem"))

		output, err := executeCommand([]string{
			"issue",
			"--data=data string",
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(Equal(readTestdata(t, "default.lic")))
	})

	t.Run("prepends a generated ID", func(t *testing.T) {
		g := NewWithT(t)
		isolateKeyEnv(t)

		tmplPath := filepath.Join(t.TempDir(), "id.tpl")
		g.Expect(os.WriteFile(tmplPath, []byte("{{id}}\n{{email}}\n{{serial}}"), 0o644)).To(Succeed())

		output, err := executeCommand([]string{
			"issue",
			"--key=testdata/ec.pem",
			"--field=email=some@email.com",
			"--template=" + tmplPath,
			"--with-id",
			"--strict",
		})
		g.Expect(err).ToNot(HaveOccurred())

		lines := strings.Split(output, "\n")
		g.Expect(lines).To(HaveLen(3))
		id, err := uuid.Parse(lines[0])
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(id.Version()).To(Equal(uuid.Version(6)))
		g.Expect(lines[1]).To(Equal("some@email.com"))
	})

	t.Run("fails", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			err  string
		}{
			{
				name: "without data",
				args: []string{"issue", "--key=testdata/rsa.pem"},
				err:  "one of --data, --field or --data-file flags is required",
			},
			{
				name: "with multiple data sources",
				args: []string{"issue", "--key=testdata/rsa.pem", "--data=x", "--field=a=b"},
				err:  "mutually exclusive",
			},
			{
				name: "with ID for string data",
				args: []string{"issue", "--key=testdata/rsa.pem", "--data=x", "--with-id"},
				err:  "--with-id requires record data",
			},
			{
				name: "with malformed field",
				args: []string{"issue", "--key=testdata/rsa.pem", "--field=noequals"},
				err:  "must be in the name=value format",
			},
			{
				name: "with reserved field",
				args: []string{"issue", "--key=testdata/rsa.pem", "--field=serial=x"},
				err:  `field name "serial" is reserved`,
			},
			{
				name: "without key",
				args: []string{"issue", "--data=x"},
				err:  "key must be specified with --key flag or LICENSE_FILE_PRIVATE_KEY environment variable",
			},
			{
				name: "with public key",
				args: []string{"issue", "--key=testdata/rsa.pub", "--data=x"},
				err:  "no PEM encoded private key found",
			},
			{
				name: "with undefined template field in strict mode",
				args: []string{"issue", "--key=testdata/rsa.pem", "--field=email=x", "--template=testdata/custom.tpl", "--strict"},
				err:  `field "licenseVersion" is not defined`,
			},
			{
				name: "with missing data file",
				args: []string{"issue", "--key=testdata/rsa.pem", "--data-file=testdata/missing.yaml"},
				err:  "failed to read data file",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				g := NewWithT(t)
				isolateKeyEnv(t)

				_, err := executeCommand(tt.args)
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.err))
			})
		}
	})
}

func TestFieldsValue(t *testing.T) {
	g := NewWithT(t)

	var v fieldsValue
	g.Expect(v.Set("b=2")).To(Succeed())
	g.Expect(v.Set("a=x=y")).To(Succeed())
	g.Expect(v.Set("empty=")).To(Succeed())
	g.Expect(v.GetSlice()).To(Equal([]string{"b=2", "a=x=y", "empty="}))
	g.Expect(v.String()).To(Equal("[b=2,a=x=y,empty=]"))

	g.Expect(v.Set("=value")).ToNot(Succeed())
	g.Expect(v.Set("value")).ToNot(Succeed())

	g.Expect(v.Replace([]string{"c=3"})).To(Succeed())
	g.Expect(v.fields).To(HaveLen(1))
	g.Expect(v.fields[0].Name).To(Equal("c"))
}
