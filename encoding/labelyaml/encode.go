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
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"gradual.dev/go/label"
)

// Encode writes d as YAML. Flags are written with their current values, so
// encoding after running checks records which flags have fired.
func Encode(d *Document) ([]byte, error) {
	doc := mapping()
	if d.File != nil {
		add(doc, "file", str(d.File.Name()))
	}
	if d.Source != "" {
		add(doc, "source", str(d.Source))
	}

	flags := mapping()
	for i, name := range d.Flags {
		add(flags, name, boolean(d.Tree.IsSet(label.Flag(i+1))))
	}
	add(doc, "flags", flags)

	trees := mapping()
	for _, t := range d.Trees {
		n, err := encodeNode(d, t.Node)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", t.Name, err)
		}
		add(trees, t.Name, n)
	}
	add(doc, "trees", trees)

	if len(d.Checks) > 0 {
		checks := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range d.Checks {
			m := mapping()
			m.Style = yaml.FlowStyle
			add(m, "tree", str(c.Tree))
			add(m, "polarity", str(c.Polarity.String()))
			checks.Content = append(checks.Content, m)
		}
		add(doc, "checks", checks)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(d *Document, n label.Node) (*yaml.Node, error) {
	t := d.Tree
	if n <= 0 || int(n) > t.Len() {
		return nil, fmt.Errorf("node %v: %w", n, label.ErrInvalid)
	}
	kind := t.Kind(n)
	body := mapping()
	if kind == label.RootKind {
		r := t.Obligation(n)
		body.Style = yaml.FlowStyle
		add(body, "tag", str(r.Tag))
		add(body, "left", integer(r.Left))
		add(body, "right", integer(r.Right))
	} else {
		a, b := t.FlagsOf(n)
		if kind.NumFlags() == 2 {
			pair := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			pair.Content = append(pair.Content, str(d.FlagName(a)), str(d.FlagName(b)))
			add(body, "flags", pair)
		} else {
			add(body, "flag", str(d.FlagName(a)))
		}
		child, err := encodeNode(d, t.Child(n))
		if err != nil {
			return nil, err
		}
		add(body, "child", child)
	}
	m := mapping()
	add(m, kind.String(), body)
	return m, nil
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func add(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, str(key), v)
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func integer(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func boolean(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}
