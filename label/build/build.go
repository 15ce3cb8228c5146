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

// Package build creates obligation trees for contract annotations.
//
// Compiling annotation syntax into trees is the job of a contract compiler
// that implements Builder. This package provides the root constructor and
// the combinators such a compiler uses to tie paired obligations together
// through shared flags.
package build

import (
	"fmt"

	"gradual.dev/go/label"
	"gradual.dev/go/token"
)

// A Description is a type annotation handed to a Builder.
type Description interface {
	String() string
}

// A Builder compiles the annotation desc, found at span, into a tree
// rooted at the returned node.
type Builder interface {
	Build(t *label.Tree, desc Description, span token.Span, tag string) (label.Node, error)
}

// Obligation returns the root obligation for a contract named tag that
// covers bytes left..right of f. Fresh obligations are positive.
func Obligation(f *token.File, tag string, left, right int) label.Root {
	return label.Root{
		Tag:      tag,
		Polarity: label.Positive,
		Left:     left,
		Right:    right,
		File:     f,
	}
}

// RootBuilder is the Builder that wraps nothing: every annotation becomes a
// single root obligation. If tag is empty, the description is used.
type RootBuilder struct{}

func (RootBuilder) Build(t *label.Tree, desc Description, span token.Span, tag string) (label.Node, error) {
	if tag == "" && desc != nil {
		tag = desc.String()
	}
	if span.Right < span.Left {
		return 0, fmt.Errorf("invalid span %v for %q", span, tag)
	}
	n := t.Root(Obligation(span.File, tag, span.Left, span.Right))
	return n, t.Err()
}

// Func wraps dom and cod as the argument and result positions of one
// function contract. Both share a single fresh flag, so once the domain
// has been resolved the codomain is discharged.
func Func(t *label.Tree, dom, cod label.Node) (label.Node, label.Node) {
	f := t.NewFlag()
	return t.Domain(dom, f), t.Codomain(cod, f)
}

// Meet wraps left and right as the two halves of an intersection. Each half
// marks its own flag and reads its counterpart's.
func Meet(t *label.Tree, left, right label.Node) (label.Node, label.Node) {
	a, b := t.NewFlag(), t.NewFlag()
	return t.Intersection(left, a, b), t.Intersection(right, b, a)
}

// Join is like Meet, but for the two halves of a union.
func Join(t *label.Tree, left, right label.Node) (label.Node, label.Node) {
	a, b := t.NewFlag(), t.NewFlag()
	return t.Union(left, a, b), t.Union(right, b, a)
}

// Guarded wraps child in a guard with a fresh flag, and returns the flag so
// that the caller can fire it.
func Guarded(t *label.Tree, child label.Node) (label.Node, label.Flag) {
	f := t.NewFlag()
	return t.Guard(child, f), f
}
