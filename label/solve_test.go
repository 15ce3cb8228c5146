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

package label

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"gradual.dev/go/internal/labeldebug"
	"gradual.dev/go/token"
)

var polarities = []Polarity{Positive, Negative}

func num(t *Tree) (Node, Root) {
	r := Root{Tag: "Num", Polarity: Positive, Left: 3, Right: 10}
	return t.Root(r), r
}

func blameOf(t *testing.T, err error) Root {
	t.Helper()
	b, ok := AsBlame(err)
	qt.Assert(t, qt.IsTrue(ok), qt.Commentf("got %v", err))
	return b.Root
}

func TestSolveRoot(t *testing.T) {
	f := token.NewFileContent("main.ncl", []byte("let x : Num = 1"))
	for _, p := range polarities {
		t.Run(p.String(), func(t *testing.T) {
			tree := NewTree()
			r := Root{Tag: "Num", Polarity: Positive, Left: 8, Right: 11, File: f}
			n := tree.Root(r)

			got := blameOf(t, tree.Solve(n, p))
			want := r
			want.Polarity = p
			qt.Assert(t, qt.Equals(got, want))

			// The stored obligation keeps its construction polarity.
			qt.Assert(t, qt.Equals(tree.Obligation(n), r))
		})
	}
}

func TestDomainContravariance(t *testing.T) {
	for _, p := range polarities {
		for _, fired := range []bool{false, true} {
			t.Run(fmt.Sprintf("%v/fired=%v", p, fired), func(t *testing.T) {
				tree := NewTree()
				f1, f2 := tree.NewFlag(), tree.NewFlag()
				if fired {
					tree.Set(f2)
				}
				root, _ := num(tree)
				n := tree.Domain(tree.Codomain(root, f2), f1)

				err := tree.Solve(n, p)
				if fired {
					qt.Assert(t, qt.IsTrue(Discharged(err)))
				} else {
					qt.Assert(t, qt.Equals(blameOf(t, err).Polarity, p.Flip()))
				}
				qt.Assert(t, qt.IsTrue(tree.IsSet(f1)))
			})
		}
	}
}

// traceTree returns a tree that logs every resolution step into buf.
func traceTree(buf *bytes.Buffer) *Tree {
	tree := NewTree()
	tree.SetLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return tree
}

func TestCodomainShortCircuit(t *testing.T) {
	for _, p := range polarities {
		t.Run(p.String(), func(t *testing.T) {
			var buf bytes.Buffer
			tree := traceTree(&buf)
			f := tree.NewFlag()
			tree.Set(f)
			child, _ := num(tree)
			n := tree.Codomain(child, f)

			qt.Assert(t, qt.IsNil(tree.Solve(n, p)))
			qt.Assert(t, qt.StringContains(buf.String(), "kind=codomain"))
			qt.Assert(t, qt.StringContains(buf.String(), "outcome=discharged"))
			qt.Assert(t, qt.IsFalse(strings.Contains(buf.String(), "node="+child.String())))
		})
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		fired bool
		p     Polarity
		want  bool // descends
	}{
		{false, Negative, false},
		{false, Positive, true},
		{true, Negative, true},
		{true, Positive, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("fired=%v/%v", tt.fired, tt.p), func(t *testing.T) {
			tree := NewTree()
			f := tree.NewFlag()
			if tt.fired {
				tree.Set(f)
			}
			root, _ := num(tree)
			err := tree.Solve(tree.Guard(root, f), tt.p)
			if !tt.want {
				qt.Assert(t, qt.IsNil(err))
				return
			}
			qt.Assert(t, qt.Equals(blameOf(t, err).Polarity, tt.p))
			// Guards only read their flag.
			qt.Assert(t, qt.Equals(tree.IsSet(f), tt.fired))
		})
	}
}

// pair builds two nodes of kind k whose flags are cross-aliased:
// the second node's b flag is the first node's a flag.
func pair(tree *Tree, k Kind) (n1, n2 Node, fa, fb Flag) {
	fa, fb = tree.NewFlag(), tree.NewFlag()
	r1, _ := num(tree)
	r2, _ := num(tree)
	switch k {
	case IntersectionKind:
		n1, n2 = tree.Intersection(r1, fa, fb), tree.Intersection(r2, fb, fa)
	case UnionKind:
		n1, n2 = tree.Union(r1, fa, fb), tree.Union(r2, fb, fa)
	}
	return n1, n2, fa, fb
}

func TestIntersectionRendezvous(t *testing.T) {
	t.Run("first-then-second", func(t *testing.T) {
		tree := NewTree()
		n1, n2, fa, fb := pair(tree, IntersectionKind)

		qt.Assert(t, qt.IsNil(tree.Solve(n1, Negative)))
		qt.Assert(t, qt.IsTrue(tree.IsSet(fa)))
		qt.Assert(t, qt.IsFalse(tree.IsSet(fb)))

		qt.Assert(t, qt.Equals(blameOf(t, tree.Solve(n2, Negative)).Polarity, Negative))
		qt.Assert(t, qt.IsTrue(tree.IsSet(fb)))
	})
	t.Run("second-alone", func(t *testing.T) {
		tree := NewTree()
		_, n2, fa, fb := pair(tree, IntersectionKind)
		qt.Assert(t, qt.IsNil(tree.Solve(n2, Negative)))
		qt.Assert(t, qt.IsFalse(tree.IsSet(fa)))
		qt.Assert(t, qt.IsTrue(tree.IsSet(fb)))
	})
	t.Run("positive-descends", func(t *testing.T) {
		tree := NewTree()
		n1, _, _, _ := pair(tree, IntersectionKind)
		qt.Assert(t, qt.Equals(blameOf(t, tree.Solve(n1, Positive)).Polarity, Positive))
		qt.Assert(t, qt.DeepEquals(tree.FlagTable(), []bool{false, false}))
	})
}

func TestUnionRendezvous(t *testing.T) {
	t.Run("first-then-second", func(t *testing.T) {
		tree := NewTree()
		n1, n2, fa, _ := pair(tree, UnionKind)
		qt.Assert(t, qt.IsNil(tree.Solve(n1, Positive)))
		qt.Assert(t, qt.IsTrue(tree.IsSet(fa)))
		qt.Assert(t, qt.Equals(blameOf(t, tree.Solve(n2, Positive)).Polarity, Positive))
	})
	t.Run("second-alone", func(t *testing.T) {
		tree := NewTree()
		_, n2, _, _ := pair(tree, UnionKind)
		qt.Assert(t, qt.IsNil(tree.Solve(n2, Positive)))
	})
	t.Run("negative-descends", func(t *testing.T) {
		tree := NewTree()
		n1, _, _, _ := pair(tree, UnionKind)
		qt.Assert(t, qt.Equals(blameOf(t, tree.Solve(n1, Negative)).Polarity, Negative))
		qt.Assert(t, qt.DeepEquals(tree.FlagTable(), []bool{false, false}))
	})
}

func TestSecondPass(t *testing.T) {
	// A function contract whose domain and codomain share a flag, a guard
	// tied to the same flag, and an intersection pair.
	tree := NewTree()
	fn := tree.NewFlag()
	rd, _ := num(tree)
	rc, _ := num(tree)
	rg, _ := num(tree)
	dom := tree.Domain(rd, fn)
	cod := tree.Codomain(rc, fn)
	guard := tree.Guard(rg, fn)
	i1, i2, _, _ := pair(tree, IntersectionKind)

	type step struct {
		n Node
		p Polarity
	}
	steps := []step{
		{dom, Positive},
		{cod, Positive},
		{guard, Negative},
		{i1, Negative},
		{i2, Negative},
	}
	run := func() []string {
		var out []string
		for _, s := range steps {
			err := tree.Solve(s.n, s.p)
			if err == nil {
				out = append(out, "discharged")
				continue
			}
			out = append(out, blameOf(t, err).Polarity.Sign())
		}
		return out
	}

	first := run()
	flags := tree.FlagTable()
	qt.Assert(t, qt.DeepEquals(first, []string{"-", "discharged", "-", "discharged", "-"}))
	qt.Assert(t, qt.DeepEquals(flags, []bool{true, true, true}))

	second := run()
	qt.Assert(t, qt.DeepEquals(second, []string{"-", "discharged", "-", "-", "-"}))
	if diff := cmp.Diff(flags, tree.FlagTable()); diff != "" {
		t.Errorf("flags changed on second pass (-first +second):\n%s", diff)
	}
}

func TestEndToEnd(t *testing.T) {
	tree := NewTree()
	f := tree.NewFlag()
	n := tree.Domain(tree.Root(Root{Tag: "Num", Polarity: true, Left: 3, Right: 10}), f)

	err := tree.Solve(n, Positive)
	qt.Assert(t, qt.Equals(blameOf(t, err), Root{Tag: "Num", Polarity: false, Left: 3, Right: 10}))
	qt.Assert(t, qt.IsTrue(tree.IsSet(f)))
	qt.Assert(t, qt.Equals(err.Error(), "blame Num (negative) at [3,10)"))
}

func TestBlamePosition(t *testing.T) {
	f := token.NewFileContent("a.ncl", []byte("let id\n  : Num -> Num"))
	b := &Blame{Root: Root{Tag: "Num", Left: 11, Right: 14, File: f}}
	qt.Assert(t, qt.Equals(b.Position().String(), "a.ncl:2:5"))
	qt.Assert(t, qt.Equals(b.Error(), "blame Num (negative) at a.ncl:2:5-8"))

	wrapped := fmt.Errorf("checking id: %w", b)
	got, ok := AsBlame(wrapped)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, b))
}

func TestConstructionErrors(t *testing.T) {
	t.Run("shared-child", func(t *testing.T) {
		tree := NewTree()
		f := tree.NewFlag()
		r, _ := num(tree)
		tree.Domain(r, f)
		n := tree.Codomain(r, f)
		qt.Assert(t, qt.Equals(n, Node(0)))
		qt.Assert(t, qt.ErrorIs(tree.Err(), ErrShared))
		qt.Assert(t, qt.ErrorIs(tree.Validate(), ErrShared))
	})
	t.Run("bad-flag", func(t *testing.T) {
		tree := NewTree()
		r, _ := num(tree)
		tree.Intersection(r, tree.NewFlag(), Flag(7))
		qt.Assert(t, qt.ErrorIs(tree.Err(), ErrInvalid))
	})
	t.Run("bad-child", func(t *testing.T) {
		tree := NewTree()
		tree.Guard(Node(3), tree.NewFlag())
		qt.Assert(t, qt.ErrorIs(tree.Err(), ErrInvalid))
	})
	t.Run("solve-invalid", func(t *testing.T) {
		tree := NewTree()
		qt.Assert(t, qt.ErrorIs(tree.Solve(0, Positive), ErrInvalid))
		_, ok := AsBlame(tree.Solve(0, Positive))
		qt.Assert(t, qt.IsFalse(ok))
	})
	t.Run("first-error-sticks", func(t *testing.T) {
		tree := NewTree()
		tree.Set(Flag(2))
		r, _ := num(tree)
		tree.Domain(r, 0)
		qt.Assert(t, qt.ErrorMatches(tree.Err(), `flag f2: invalid label handle`))
	})
}

func TestStrict(t *testing.T) {
	old := labeldebug.Flags
	defer func() { labeldebug.Flags = old }()
	labeldebug.Flags.Strict = true

	tree := NewTree()
	f := tree.NewFlag()
	r, _ := num(tree)
	n := tree.Domain(r, f)
	tree.Guard(r, f) // rejected: r already owned
	qt.Assert(t, qt.ErrorIs(tree.Solve(n, Positive), ErrShared))
	// Strict mode refuses before touching any flag.
	qt.Assert(t, qt.IsFalse(tree.IsSet(f)))
}

func TestLogSolveFlag(t *testing.T) {
	old := labeldebug.Flags
	defer func() { labeldebug.Flags = old }()
	labeldebug.Flags.LogSolve = true

	var buf bytes.Buffer
	oldDefault := slog.Default()
	defer slog.SetDefault(oldDefault)
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	tree := NewTree()
	f := tree.NewFlag()
	r, _ := num(tree)
	tree.Solve(tree.Domain(r, f), Positive)

	out := buf.String()
	qt.Assert(t, qt.StringContains(out, "kind=domain polarity=+ outcome=descend"))
	qt.Assert(t, qt.StringContains(out, "kind=root polarity=- outcome=blame"))
}

func TestContract(t *testing.T) {
	tree := NewTree()
	fn := tree.NewFlag()
	rd, _ := num(tree)
	rc, _ := num(tree)
	dom := tree.Domain(rd, fn)
	cod := tree.Codomain(rc, fn)
	c := NewContract(tree)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Check(dom, Positive)
		}()
	}
	wg.Wait()
	qt.Assert(t, qt.DeepEquals(c.Snapshot(), []bool{true}))
	qt.Assert(t, qt.IsNil(c.Check(cod, Positive)))
}

func TestPolarity(t *testing.T) {
	qt.Assert(t, qt.Equals(Positive.Flip(), Negative))
	qt.Assert(t, qt.Equals(Negative.Flip().Flip(), Negative))
	for _, s := range []string{"+", "positive", "true"} {
		p, err := ParsePolarity(s)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(p, Positive))
	}
	p, err := ParsePolarity("-")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(p, Negative))
	_, err = ParsePolarity("up")
	qt.Assert(t, qt.ErrorMatches(err, `invalid polarity "up"`))
}

func TestKind(t *testing.T) {
	qt.Assert(t, qt.Equals(IntersectionKind.String(), "intersection"))
	qt.Assert(t, qt.Equals(Kind(42).String(), "Kind(42)"))
	qt.Assert(t, qt.Equals(RootKind.NumFlags(), 0))
	qt.Assert(t, qt.Equals(GuardKind.NumFlags(), 1))
	qt.Assert(t, qt.Equals(UnionKind.NumFlags(), 2))
}
