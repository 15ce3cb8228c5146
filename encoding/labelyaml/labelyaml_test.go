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
	"flag"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"gradual.dev/go/internal/labeltxtar"
	"gradual.dev/go/label"
)

var update = flag.Bool("update", false, "update the golden files of this test")

func TestTxtar(t *testing.T) {
	test := labeltxtar.TxTarTest{
		Root:   "testdata",
		Update: *update,
	}
	test.Run(t, func(t *labeltxtar.Test) {
		in, ok := t.File("in.yaml")
		if !ok {
			t.Fatal("archive has no in.yaml")
		}
		doc, err := Decode("in.yaml", in)
		if err != nil {
			t.WriteErrors(err)
			return
		}
		if err := WriteResults(t.Writer("solve"), doc, doc.Run()); err != nil {
			t.Fatal(err)
		}
	})
}

const funcDoc = `
file: add.ncl
source: "let add : Num -> Num = fun x => x + 1"
flags:
  fn: false
  spare: true
trees:
  arg:
    domain:
      flag: fn
      child:
        root: {tag: Num, left: 10, right: 13}
  both:
    intersection:
      flags: [fn, spare]
      child:
        guard:
          flag: spare
          child:
            root: {tag: Str, left: 17, right: 20}
checks:
  - {tree: arg, polarity: positive}
  - {tree: both, polarity: "-"}
`

func TestDecode(t *testing.T) {
	doc, err := Decode("doc.yaml", []byte(funcDoc))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(doc.File.Name(), "add.ncl"))
	qt.Assert(t, qt.DeepEquals(doc.Flags, []string{"fn", "spare"}))
	qt.Assert(t, qt.DeepEquals(doc.Tree.FlagTable(), []bool{false, true}))

	arg, ok := doc.Lookup("arg")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(doc.Tree.Kind(arg), label.DomainKind))
	root := doc.Tree.Child(arg)
	qt.Assert(t, qt.Equals(doc.Tree.Obligation(root).Span().String(), "add.ncl:1:11-14"))

	both, _ := doc.Lookup("both")
	a, b := doc.Tree.FlagsOf(both)
	fn, _ := doc.Flag("fn")
	spare, _ := doc.Flag("spare")
	qt.Assert(t, qt.Equals(a, fn))
	qt.Assert(t, qt.Equals(b, spare))
	qt.Assert(t, qt.Equals(doc.FlagName(b), "spare"))

	_, ok = doc.Lookup("missing")
	qt.Assert(t, qt.IsFalse(ok))
	_, ok = doc.Flag("missing")
	qt.Assert(t, qt.IsFalse(ok))

	want := []Check{
		{Tree: "arg", Node: arg, Polarity: label.Positive},
		{Tree: "both", Node: both, Polarity: label.Negative},
	}
	qt.Assert(t, qt.DeepEquals(doc.Checks, want))
}

func TestRun(t *testing.T) {
	doc, err := Decode("doc.yaml", []byte(funcDoc))
	qt.Assert(t, qt.IsNil(err))
	res := doc.Run()
	qt.Assert(t, qt.HasLen(res, 2))

	b, ok := label.AsBlame(res[0].Err)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(b.Root.Polarity, label.Negative))

	// The intersection marks fn, reads spare (preset), and the guard
	// descends because spare is set.
	b, ok = label.AsBlame(res[1].Err)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(b.Root.Tag, "Str"))
	qt.Assert(t, qt.Equals(b.Root.Polarity, label.Negative))
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Decode("doc.yaml", []byte(funcDoc))
	qt.Assert(t, qt.IsNil(err))
	doc.Run()

	data, err := Encode(doc)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.StringContains(string(data), "fn: true"))

	got, err := Decode("out.yaml", data)
	qt.Assert(t, qt.IsNil(err), qt.Commentf("%s", data))
	qt.Assert(t, qt.DeepEquals(got.Flags, doc.Flags))
	qt.Assert(t, qt.DeepEquals(got.Tree.FlagTable(), []bool{true, true}))
	qt.Assert(t, qt.Equals(got.Source, doc.Source))

	summarize := func(d *Document) []string {
		var out []string
		for _, named := range d.Trees {
			for n := named.Node; ; n = d.Tree.Child(n) {
				k := d.Tree.Kind(n)
				if k == label.RootKind {
					r := d.Tree.Obligation(n)
					out = append(out, r.Tag, r.Span().String())
					break
				}
				out = append(out, k.String())
			}
		}
		return out
	}
	if diff := cmp.Diff(summarize(doc), summarize(got)); diff != "" {
		t.Errorf("round trip changed trees (-want +got):\n%s", diff)
	}
	qt.Assert(t, qt.HasLen(got.Checks, 2))
	qt.Assert(t, qt.Equals(got.Checks[1].Polarity, label.Negative))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{{
		name: "Empty",
		in:   "",
		want: "empty document",
	}, {
		name: "Syntax",
		in:   "trees: [",
		want: "cannot parse x.yaml: yaml: .*",
	}, {
		name: "NoTrees",
		in:   "flags: {}",
		want: "document has no trees",
	}, {
		name: "UnknownKind",
		in:   "trees: {t: {arrow: {}}}",
		want: `unknown label kind "arrow"`,
	}, {
		name: "MissingChild",
		in:   "flags: {f: false}\ntrees: {t: {guard: {flag: f}}}",
		want: "guard has no child",
	}, {
		name: "BadPair",
		in:   "flags: {f: false}\ntrees: {t: {union: {flags: [f], child: {root: {}}}}}",
		want: "flags must be a list of two flag names",
	}, {
		name: "BadPolarity",
		in:   "trees: {t: {root: {tag: A}}}\nchecks: [{tree: t, polarity: sideways}]",
		want: `invalid polarity "sideways"`,
	}, {
		name: "DuplicateTree",
		in:   "trees:\n  t: {root: {}}\n  t: {root: {}}",
		want: `(duplicate tree "t"|cannot parse .*)`,
	}, {
		name: "UnknownField",
		in:   "trees: {t: {root: {tag: A, width: 3}}}",
		want: `unknown field "width" in root`,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("x.yaml", []byte(tt.in))
			qt.Assert(t, qt.ErrorMatches(err, tt.want))
		})
	}
}
