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

package labelyaml

import (
	"fmt"
	"io"

	"gradual.dev/go/label"
)

// A Result is the outcome of one check. Err is nil if the obligation was
// discharged and a *label.Blame otherwise.
type Result struct {
	Check Check
	Err   error
}

// Run performs the document's checks in order against its shared flag
// table.
func (d *Document) Run() []Result {
	res := make([]Result, 0, len(d.Checks))
	for _, c := range d.Checks {
		res = append(res, Result{Check: c, Err: d.Tree.Solve(c.Node, c.Polarity)})
	}
	return res
}

// WriteResults writes one line per result followed by the flag table.
func WriteResults(w io.Writer, d *Document, results []Result) error {
	for _, r := range results {
		outcome := "discharged"
		if r.Err != nil {
			outcome = r.Err.Error()
		}
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", r.Check.Tree, r.Check.Polarity.Sign(), outcome); err != nil {
			return err
		}
	}
	for i, name := range d.Flags {
		if _, err := fmt.Fprintf(w, "flag %s = %v\n", name, d.Tree.IsSet(label.Flag(i+1))); err != nil {
			return err
		}
	}
	return nil
}
