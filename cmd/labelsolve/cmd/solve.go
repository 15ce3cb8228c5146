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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gradual.dev/go/encoding/labelyaml"
	"gradual.dev/go/errors"
	"gradual.dev/go/label"
)

func newSolveCmd(c *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [flags] file.yaml...",
		Short: "resolve the label trees of YAML documents",
		Long: `solve loads each document and runs its checks in order. Each check
prints either "discharged" or the blamed obligation with its polarity and
source span, followed by the final state of every flag.

With --tree, the named trees are resolved at --polarity instead of the
document's checks. A document without checks resolves all of its trees
at --polarity.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: mkRunE(c, runSolve),
	}
	addCheckFlags(cmd.Flags())
	cmd.Flags().Bool(string(flagFailOnBlame), false,
		"exit with a non-zero status if any obligation is blamed")
	return cmd
}

func runSolve(cmd *Command, args []string) error {
	w := cmd.OutOrStdout()
	blamed := false
	for i, file := range args {
		doc, err := loadDocument(cmd, file)
		if err != nil {
			errors.Print(cmd.Stderr(), err)
			continue
		}
		results, err := runChecks(cmd, doc)
		if err != nil {
			errors.Print(cmd.Stderr(), err)
			continue
		}
		if len(args) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s\n", file)
		}
		for _, r := range results {
			if _, ok := label.AsBlame(r.Err); ok {
				blamed = true
			}
		}
		if err := labelyaml.WriteResults(w, doc, results); err != nil {
			return err
		}
	}
	if blamed && flagFailOnBlame.Bool(cmd) {
		cmd.errorf("blame reported")
	}
	return nil
}

func loadDocument(cmd *Command, file string) (*labelyaml.Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := labelyaml.Decode(file, data)
	if err != nil {
		return nil, err
	}
	doc.Tree.SetLogger(cmd.logger())
	return doc, nil
}

// runChecks selects the checks requested on the command line and runs
// them --repeat times.
func runChecks(cmd *Command, doc *labelyaml.Document) ([]labelyaml.Result, error) {
	p, err := label.ParsePolarity(flagPolarity.String(cmd))
	if err != nil {
		return nil, err
	}
	repeat := flagRepeat.Int(cmd)
	if repeat < 1 {
		return nil, fmt.Errorf("invalid --repeat %d: must be at least 1", repeat)
	}

	switch names := flagTree.StringArray(cmd); {
	case len(names) > 0:
		doc.Checks = doc.Checks[:0]
		for _, name := range names {
			n, ok := doc.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("no tree %q in %s", name, docName(doc))
			}
			doc.Checks = append(doc.Checks, labelyaml.Check{Tree: name, Node: n, Polarity: p})
		}
	case len(doc.Checks) == 0:
		for _, t := range doc.Trees {
			doc.Checks = append(doc.Checks, labelyaml.Check{Tree: t.Name, Node: t.Node, Polarity: p})
		}
	}

	var results []labelyaml.Result
	for i := 0; i < repeat; i++ {
		results = append(results, doc.Run()...)
	}
	return results, nil
}

func docName(doc *labelyaml.Document) string {
	if doc.File != nil {
		return doc.File.Name()
	}
	return "document"
}
