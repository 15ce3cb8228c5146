// Copyright 2026 The Gradual Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"github.com/spf13/cobra"

	"gradual.dev/go/encoding/labelyaml"
	"gradual.dev/go/errors"
)

func newExportCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [flags] file.yaml",
		Short: "write a document back as YAML",
		Long: `export decodes a document and writes it to stdout in canonical form.
With --run, the document's checks are run first, so that the exported
flags record which obligations have fired.
`,
		Args: cobra.ExactArgs(1),
		RunE: mkRunE(c, runExport),
	}
	cmd.Flags().Bool(string(flagRun), false, "run the document's checks before exporting")
	return cmd
}

func runExport(cmd *Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		errors.Print(cmd.Stderr(), err)
		return nil
	}
	if flagRun.Bool(cmd) {
		doc.Run()
	}
	b, err := labelyaml.Encode(doc)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
