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

// Package labelyaml reads and writes label trees as YAML documents.
//
// A document names its flags, so that several nodes can share one, and
// lists the trees and the checks to run against them:
//
//	file: add.ncl
//	source: "let add : Num -> Num = fun x => x + 1"
//	flags:
//	  fn: false
//	trees:
//	  arg:
//	    domain:
//	      flag: fn
//	      child:
//	        root: {tag: Num, left: 10, right: 13}
//	checks:
//	  - {tree: arg, polarity: positive}
//
// Node kinds are root, domain, codomain, guard (one flag), and
// intersection and union (a list of two flags).
package labelyaml

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"gradual.dev/go/errors"
	"gradual.dev/go/label"
	"gradual.dev/go/token"
)

// A Document is a decoded set of label trees sharing one flag table.
type Document struct {
	// File is the source file the obligations' offsets refer to.
	// It is nil if the document names no file.
	File *token.File

	// Source is the content of File, if the document carries it.
	Source string

	Tree *label.Tree

	// Flags holds the flag names, indexed by Flag-1.
	Flags []string

	Trees  []Named
	Checks []Check
}

// Named is a top-level tree of a document.
type Named struct {
	Name string
	Node label.Node
}

// A Check resolves a named tree at a given polarity.
type Check struct {
	Tree     string
	Node     label.Node
	Polarity label.Polarity
}

// Flag returns the flag with the given name.
func (d *Document) Flag(name string) (label.Flag, bool) {
	for i, n := range d.Flags {
		if n == name {
			return label.Flag(i + 1), true
		}
	}
	return 0, false
}

// Lookup returns the top-level tree with the given name.
func (d *Document) Lookup(name string) (label.Node, bool) {
	for _, t := range d.Trees {
		if t.Name == name {
			return t.Node, true
		}
	}
	return 0, false
}

// FlagName returns the name of f.
func (d *Document) FlagName(f label.Flag) string {
	if f > 0 && int(f) <= len(d.Flags) {
		return d.Flags[f-1]
	}
	return f.String()
}

type decoder struct {
	filename string
	errs     errors.List
	doc      *Document
	flags    map[string]label.Flag
}

// Decode parses a YAML document. The filename is used to report errors.
func Decode(filename string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, token.Position{Filename: filename}, "cannot parse %s", filename)
	}
	d := &decoder{
		filename: filename,
		doc:      &Document{Tree: label.NewTree()},
		flags:    map[string]label.Flag{},
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		d.errf(&root, "empty document")
		return nil, d.errs.Err()
	}
	d.document(root.Content[0])
	if err := d.doc.Tree.Err(); err != nil {
		d.errs.Add(err)
	}
	d.errs.Sort()
	if err := d.errs.Err(); err != nil {
		return nil, err
	}
	return d.doc, nil
}

func (d *decoder) pos(n *yaml.Node) token.Position {
	return token.Position{Filename: d.filename, Line: n.Line, Column: n.Column}
}

func (d *decoder) errf(n *yaml.Node, format string, args ...any) {
	d.errs.Add(errors.Newf(d.pos(n), format, args...))
}

// fields returns the values of mapping n by key, reporting keys that are
// not in allowed and keys that occur twice.
func (d *decoder) fields(n *yaml.Node, what string, allowed ...string) map[string]*yaml.Node {
	if n.Kind != yaml.MappingNode {
		d.errf(n, "%s must be a mapping", what)
		return nil
	}
	m := map[string]*yaml.Node{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch {
		case !contains(allowed, k.Value):
			d.errf(k, "unknown field %q in %s", k.Value, what)
		case m[k.Value] != nil:
			d.errf(k, "duplicate field %q in %s", k.Value, what)
		default:
			m[k.Value] = v
		}
	}
	return m
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (d *decoder) document(n *yaml.Node) {
	m := d.fields(n, "document", "file", "source", "flags", "trees", "checks")
	if m == nil {
		return
	}
	var name string
	if v := m["file"]; v != nil {
		name = d.scalar(v, "file")
	}
	if v := m["source"]; v != nil {
		d.doc.Source = d.scalar(v, "source")
	}
	if v := m["flags"]; v != nil {
		d.flagTable(v)
	}
	if v := m["trees"]; v != nil {
		d.trees(v, name)
	} else {
		d.errf(n, "document has no trees")
	}
	if v := m["checks"]; v != nil {
		d.checks(v)
	}
}

func (d *decoder) scalar(n *yaml.Node, what string) string {
	if n.Kind != yaml.ScalarNode {
		d.errf(n, "%s must be a scalar", what)
		return ""
	}
	return n.Value
}

func (d *decoder) offset(n *yaml.Node, what string) int {
	s := d.scalar(n, what)
	if n.Kind != yaml.ScalarNode {
		return 0
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		d.errf(n, "%s must be a non-negative integer, found %q", what, s)
		return 0
	}
	return i
}

func (d *decoder) flagTable(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		d.errf(n, "flags must be a mapping")
		return
	}
	t := d.doc.Tree
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if _, ok := d.flags[k.Value]; ok {
			d.errf(k, "duplicate flag %q", k.Value)
			continue
		}
		var set bool
		if err := v.Decode(&set); err != nil {
			d.errf(v, "flag %q must be a boolean", k.Value)
		}
		f := t.NewFlag()
		if set {
			t.Set(f)
		}
		d.flags[k.Value] = f
		d.doc.Flags = append(d.doc.Flags, k.Value)
	}
}

func (d *decoder) trees(n *yaml.Node, filename string) {
	if n.Kind != yaml.MappingNode {
		d.errf(n, "trees must be a mapping")
		return
	}
	if filename != "" {
		if d.doc.Source != "" {
			d.doc.File = token.NewFileContent(filename, []byte(d.doc.Source))
		} else {
			d.doc.File = token.NewFile(filename, maxOffset(n))
		}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if _, ok := d.doc.Lookup(k.Value); ok {
			d.errf(k, "duplicate tree %q", k.Value)
			continue
		}
		d.doc.Trees = append(d.doc.Trees, Named{Name: k.Value, Node: d.node(v)})
	}
}

// maxOffset returns the largest integer value found under a right key, so
// that a File without content still covers every span.
func maxOffset(n *yaml.Node) int {
	hi := 0
	for i, c := range n.Content {
		if n.Kind == yaml.MappingNode && i%2 == 1 && n.Content[i-1].Value == "right" {
			if v, err := strconv.Atoi(c.Value); err == nil && v > hi {
				hi = v
			}
		}
		if m := maxOffset(c); m > hi {
			hi = m
		}
	}
	return hi
}

var kinds = map[string]label.Kind{
	"root":         label.RootKind,
	"domain":       label.DomainKind,
	"codomain":     label.CodomainKind,
	"intersection": label.IntersectionKind,
	"union":        label.UnionKind,
	"guard":        label.GuardKind,
}

func (d *decoder) node(n *yaml.Node) label.Node {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		d.errf(n, "label node must be a mapping with exactly one kind")
		return 0
	}
	k, v := n.Content[0], n.Content[1]
	kind, ok := kinds[k.Value]
	if !ok {
		d.errf(k, "unknown label kind %q", k.Value)
		return 0
	}
	t := d.doc.Tree
	if kind == label.RootKind {
		m := d.fields(v, "root", "tag", "left", "right")
		if m == nil {
			return 0
		}
		r := label.Root{Polarity: label.Positive, File: d.doc.File}
		if x := m["tag"]; x != nil {
			r.Tag = d.scalar(x, "tag")
		}
		if x := m["left"]; x != nil {
			r.Left = d.offset(x, "left")
		}
		if x := m["right"]; x != nil {
			r.Right = d.offset(x, "right")
		}
		if r.Right < r.Left {
			d.errf(v, "root span [%d,%d) is reversed", r.Left, r.Right)
		}
		return t.Root(r)
	}

	var m map[string]*yaml.Node
	var a, b label.Flag
	if kind.NumFlags() == 2 {
		m = d.fields(v, kind.String(), "flags", "child")
		if m == nil {
			return 0
		}
		a, b = d.flagPair(v, m["flags"])
	} else {
		m = d.fields(v, kind.String(), "flag", "child")
		if m == nil {
			return 0
		}
		a = d.flag(v, m["flag"])
	}
	c := m["child"]
	if c == nil {
		d.errf(v, "%s has no child", kind)
		return 0
	}
	child := d.node(c)
	if child == 0 || a == 0 || (kind.NumFlags() == 2 && b == 0) {
		return 0
	}
	switch kind {
	case label.DomainKind:
		return t.Domain(child, a)
	case label.CodomainKind:
		return t.Codomain(child, a)
	case label.GuardKind:
		return t.Guard(child, a)
	case label.IntersectionKind:
		return t.Intersection(child, a, b)
	case label.UnionKind:
		return t.Union(child, a, b)
	}
	panic(fmt.Sprintf("unreachable: %v", kind))
}

func (d *decoder) flag(parent, n *yaml.Node) label.Flag {
	if n == nil {
		d.errf(parent, "missing flag")
		return 0
	}
	name := d.scalar(n, "flag")
	f, ok := d.flags[name]
	if !ok && n.Kind == yaml.ScalarNode {
		d.errf(n, "undeclared flag %q", name)
	}
	return f
}

func (d *decoder) flagPair(parent, n *yaml.Node) (a, b label.Flag) {
	if n == nil {
		d.errf(parent, "missing flags")
		return 0, 0
	}
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		d.errf(n, "flags must be a list of two flag names")
		return 0, 0
	}
	return d.flag(n, n.Content[0]), d.flag(n, n.Content[1])
}

func (d *decoder) checks(n *yaml.Node) {
	if n.Kind != yaml.SequenceNode {
		d.errf(n, "checks must be a list")
		return
	}
	for _, c := range n.Content {
		m := d.fields(c, "check", "tree", "polarity")
		if m == nil {
			continue
		}
		var chk Check
		if x := m["tree"]; x != nil {
			chk.Tree = d.scalar(x, "tree")
		}
		node, ok := d.doc.Lookup(chk.Tree)
		if !ok {
			d.errf(c, "check refers to unknown tree %q", chk.Tree)
			continue
		}
		chk.Node = node
		chk.Polarity = label.Positive
		if x := m["polarity"]; x != nil {
			p, err := label.ParsePolarity(d.scalar(x, "polarity"))
			if err != nil {
				d.errs.Add(errors.Wrapf(err, d.pos(x), ""))
				continue
			}
			chk.Polarity = p
		}
		d.doc.Checks = append(d.doc.Checks, chk)
	}
}
