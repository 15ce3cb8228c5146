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

// Package labeltxtar runs golden tests stored as txtar archives.
package labeltxtar

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"gradual.dev/go/errors"
)

// A TxTarTest runs all .txtar archives rooted in a given directory.
type TxTarTest struct {
	// Root is the directory to search for archives.
	Root string

	// If Update is true, differing or missing out/ files are rewritten
	// in place instead of failing the test.
	Update bool

	// Skip maps test names to the reason they are skipped.
	Skip map[string]string
}

// A Test is a single archive. Output written through Writer is compared
// against the archive's out/ files.
type Test struct {
	*testing.T

	Archive *txtar.Archive

	// Dir is the absolute directory of the archive.
	Dir string

	outFiles []outFile
}

type outFile struct {
	name string
	buf  *bytes.Buffer
}

// File returns the contents of the named archive file.
func (t *Test) File(name string) ([]byte, bool) {
	for _, f := range t.Archive.Files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// HasTag reports whether the archive comment contains a line #key.
func (t *Test) HasTag(key string) bool {
	s := bufio.NewScanner(bytes.NewReader(t.Archive.Comment))
	for s.Scan() {
		if strings.TrimSpace(s.Text()) == "#"+key {
			return true
		}
	}
	return false
}

// Writer returns the writer for the golden file out/name.
func (t *Test) Writer(name string) io.Writer {
	name = path.Join("out", name)
	for _, f := range t.outFiles {
		if f.name == name {
			return f.buf
		}
	}
	w := &bytes.Buffer{}
	t.outFiles = append(t.outFiles, outFile{name, w})
	return w
}

// WriteErrors prints err to out/errors.
func (t *Test) WriteErrors(err error) {
	if err != nil {
		errors.Print(t.Writer("errors"), err)
	}
}

// Run calls f for every archive below x.Root and compares the output.
func (x *TxTarTest) Run(t *testing.T, f func(tc *Test)) {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	err = filepath.WalkDir(x.Root, func(fullpath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(fullpath) != ".txtar" {
			return nil
		}
		rel, err := filepath.Rel(x.Root, fullpath)
		if err != nil {
			return err
		}
		testName := strings.TrimSuffix(filepath.ToSlash(rel), ".txtar")

		t.Run(testName, func(t *testing.T) {
			a, err := txtar.ParseFile(fullpath)
			if err != nil {
				t.Fatalf("error parsing txtar file: %v", err)
			}
			tc := &Test{
				T:       t,
				Archive: a,
				Dir:     filepath.Dir(filepath.Join(dir, fullpath)),
			}
			if tc.HasTag("skip") {
				t.Skip()
			}
			if msg, ok := x.Skip[testName]; ok {
				t.Skip(msg)
			}

			f(tc)

			if x.check(tc) {
				if err := os.WriteFile(fullpath, txtar.Format(a), 0o644); err != nil {
					t.Fatal(err)
				}
			}
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// check compares the output of tc with its golden files and reports
// whether the archive needs to be rewritten.
func (x *TxTarTest) check(tc *Test) (update bool) {
	a := tc.Archive
	for _, sub := range tc.outFiles {
		var gold *txtar.File
		for i := range a.Files {
			if a.Files[i].Name == sub.name {
				gold = &a.Files[i]
			}
		}
		result := sub.buf.Bytes()
		switch {
		case gold == nil:
			a.Files = append(a.Files, txtar.File{Name: sub.name})
			gold = &a.Files[len(a.Files)-1]
		case bytes.Equal(gold.Data, result):
			continue
		}
		if x.Update {
			gold.Data = result
			update = true
			continue
		}
		tc.Errorf("result for %s differs (-want +got):\n%s",
			sub.name, cmp.Diff(string(gold.Data), string(result)))
	}
	for _, f := range a.Files {
		if !strings.HasPrefix(f.Name, "out/") || tc.produced(f.Name) {
			continue
		}
		if x.Update {
			continue
		}
		tc.Errorf("golden file %s was not produced", f.Name)
	}
	return update
}

func (t *Test) produced(name string) bool {
	for _, f := range t.outFiles {
		if f.name == name {
			return true
		}
	}
	return false
}
