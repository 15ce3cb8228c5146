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

// Package label implements contract labels: the obligation trees attached to
// values that cross a typed boundary, and the resolution procedure that
// decides whether an obligation is discharged or must be blamed on a
// particular side of the boundary.
//
// A Tree is an arena. Nodes and flags are referred to by handles. Two nodes
// share a flag by storing the same Flag handle; setting it through one node
// is observed by every other node that refers to it. Flags are never reset.
//
// A Tree is not safe for concurrent use. Use a Contract to serialize
// resolutions that may run on different goroutines.
package label

import (
	"fmt"
	"log/slog"

	"gradual.dev/go/errors"
	"gradual.dev/go/internal/labeldebug"
	"gradual.dev/go/token"
)

var (
	// ErrInvalid is reported for handles that do not belong to a tree.
	ErrInvalid = errors.New("invalid label handle")

	// ErrShared is reported when a node would get a second parent.
	ErrShared = errors.New("label node already has a parent")
)

// Kind is the kind of a label node.
type Kind uint8

const (
	RootKind Kind = iota
	DomainKind
	CodomainKind
	IntersectionKind
	UnionKind
	GuardKind
)

var kindNames = [...]string{
	RootKind:         "root",
	DomainKind:       "domain",
	CodomainKind:     "codomain",
	IntersectionKind: "intersection",
	UnionKind:        "union",
	GuardKind:        "guard",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// NumFlags reports how many flag handles a node of kind k carries.
func (k Kind) NumFlags() int {
	switch k {
	case RootKind:
		return 0
	case IntersectionKind, UnionKind:
		return 2
	}
	return 1
}

// Root is the irreducible obligation: the value at Left..Right in File must
// satisfy the contract named Tag.
//
// The polarity of a Root stored in a tree is the polarity it was built
// with; the polarity of a Root carried by a Blame is the polarity that was
// active when resolution reached it.
type Root struct {
	Tag      string
	Polarity Polarity
	Left     int
	Right    int

	// File is the source the offsets refer to. It may be nil.
	File *token.File
}

// Span returns the source range of r.
func (r Root) Span() token.Span {
	return token.Span{File: r.File, Left: r.Left, Right: r.Right}
}

// A Node is a handle to a node of a Tree. The zero Node is invalid.
type Node int32

func (n Node) String() string { return fmt.Sprintf("n%d", int32(n)) }

// A Flag is a handle to a boolean cell of a Tree. The zero Flag is invalid.
type Flag int32

func (f Flag) String() string { return fmt.Sprintf("f%d", int32(f)) }

type node struct {
	kind   Kind
	child  Node
	a, b   Flag
	parent Node
	root   Root
}

// A Tree owns label nodes and the flag table they refer to.
type Tree struct {
	nodes []node
	flags []bool

	// err is the first construction error.
	err error

	logger *slog.Logger
}

// NewTree returns an empty tree. If LABEL_DEBUG=logsolve is in effect the
// tree logs resolution steps to slog.Default.
func NewTree() *Tree {
	t := &Tree{}
	if labeldebug.Flags.LogSolve {
		t.logger = slog.Default()
	}
	return t
}

// SetLogger sets the logger used to trace resolution steps at debug level.
// A nil logger disables tracing.
func (t *Tree) SetLogger(l *slog.Logger) { t.logger = l }

// Err returns the first error encountered while building t.
func (t *Tree) Err() error { return t.err }

func (t *Tree) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// NewFlag allocates a new unset flag.
func (t *Tree) NewFlag() Flag {
	t.flags = append(t.flags, false)
	return Flag(len(t.flags))
}

// NumFlags returns the number of flags allocated in t.
func (t *Tree) NumFlags() int { return len(t.flags) }

func (t *Tree) validFlag(f Flag) bool {
	return f > 0 && int(f) <= len(t.flags)
}

// IsSet reports whether f has been set. Invalid flags report false.
func (t *Tree) IsSet(f Flag) bool {
	return t.validFlag(f) && t.flags[f-1]
}

// Set sets f. Setting a flag is permanent.
func (t *Tree) Set(f Flag) {
	if !t.validFlag(f) {
		t.fail(fmt.Errorf("flag %v: %w", f, ErrInvalid))
		return
	}
	t.flags[f-1] = true
}

// FlagTable returns a copy of the state of all flags, indexed by Flag-1.
func (t *Tree) FlagTable() []bool {
	return append([]bool(nil), t.flags...)
}

// Len returns the number of nodes in t.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) validNode(n Node) bool {
	return n > 0 && int(n) <= len(t.nodes)
}

func (t *Tree) at(n Node) *node { return &t.nodes[n-1] }

// Root adds a root obligation.
func (t *Tree) Root(r Root) Node {
	t.nodes = append(t.nodes, node{kind: RootKind, root: r})
	return Node(len(t.nodes))
}

// Domain adds the argument position of a function contract.
func (t *Tree) Domain(child Node, f Flag) Node {
	return t.add(DomainKind, child, f, 0)
}

// Codomain adds the return position of a function contract.
func (t *Tree) Codomain(child Node, f Flag) Node {
	return t.add(CodomainKind, child, f, 0)
}

// Intersection adds one half of an intersection obligation. The node marks
// a when resolved negatively and proceeds only if b is already marked.
func (t *Tree) Intersection(child Node, a, b Flag) Node {
	return t.add(IntersectionKind, child, a, b)
}

// Union adds one half of a union obligation. The node marks a when
// resolved positively and proceeds only if b is already marked.
func (t *Tree) Union(child Node, a, b Flag) Node {
	return t.add(UnionKind, child, a, b)
}

// Guard adds a guard that discharges negative, unfired obligations.
func (t *Tree) Guard(child Node, f Flag) Node {
	return t.add(GuardKind, child, f, 0)
}

func (t *Tree) add(k Kind, child Node, a, b Flag) Node {
	if !t.validNode(child) {
		t.fail(fmt.Errorf("%v child %v: %w", k, child, ErrInvalid))
		return 0
	}
	if !t.validFlag(a) || (k.NumFlags() == 2 && !t.validFlag(b)) {
		t.fail(fmt.Errorf("%v flags %v, %v: %w", k, a, b, ErrInvalid))
		return 0
	}
	if p := t.at(child).parent; p != 0 {
		t.fail(fmt.Errorf("%v child %v (parent %v): %w", k, child, p, ErrShared))
		return 0
	}
	t.nodes = append(t.nodes, node{kind: k, child: child, a: a, b: b})
	n := Node(len(t.nodes))
	t.at(child).parent = n
	return n
}

// Kind returns the kind of n.
func (t *Tree) Kind(n Node) Kind { return t.at(n).kind }

// Child returns the child of n, or the zero Node for roots.
func (t *Tree) Child(n Node) Node { return t.at(n).child }

// Parent returns the node owning n, or the zero Node if n is unattached.
func (t *Tree) Parent(n Node) Node { return t.at(n).parent }

// FlagsOf returns the flag handles of n. Unused handles are zero.
func (t *Tree) FlagsOf(n Node) (a, b Flag) {
	x := t.at(n)
	return x.a, x.b
}

// Obligation returns the root obligation stored at n, which must be a root.
func (t *Tree) Obligation(n Node) Root { return t.at(n).root }

// Validate checks that t was built without errors and that its ownership
// edges form a forest in which every child precedes its parent.
func (t *Tree) Validate() error {
	if t.err != nil {
		return t.err
	}
	parents := make([]Node, len(t.nodes))
	for i := range t.nodes {
		x := &t.nodes[i]
		n := Node(i + 1)
		if x.kind == RootKind {
			continue
		}
		if !t.validNode(x.child) || x.child >= n {
			return fmt.Errorf("%v: %v child %v: %w", n, x.kind, x.child, ErrInvalid)
		}
		if p := parents[x.child-1]; p != 0 {
			return fmt.Errorf("%v: child %v also owned by %v: %w", n, x.child, p, ErrShared)
		}
		parents[x.child-1] = n
		if !t.validFlag(x.a) || (x.kind.NumFlags() == 2 && !t.validFlag(x.b)) {
			return fmt.Errorf("%v: %v flags %v, %v: %w", n, x.kind, x.a, x.b, ErrInvalid)
		}
	}
	return nil
}
