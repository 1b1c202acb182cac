// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TargetKey is the mapping key under which a deferred call's constructor identifier
// is serialized. A YAML mapping carrying it decodes to a Call, everything else in
// the mapping becoming the call's arguments.
const TargetKey = "_target_"

// ToYAML serializes the tree to YAML, fields in insertion order, deferred calls as
// mappings with a leading TargetKey entry.
func ToYAML(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, errors.Wrap(err, "serializing configuration to YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "serializing configuration to YAML")
	}
	return buf.Bytes(), nil
}

// FromYAML parses a YAML document into a configuration tree. The document must be a
// mapping with string keys; mappings carrying TargetKey decode to deferred calls.
// Anchored nodes referenced by several aliases decode to one shared node.
func FromYAML(data []byte) (*Tree, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "parsing configuration YAML")
	}
	if node.Kind == 0 {
		return NewTree(), nil
	}
	value, err := nodeToValue(&node, make(map[*yaml.Node]Value))
	if err != nil {
		return nil, err
	}
	t, ok := value.(*Tree)
	if !ok {
		return nil, errors.Errorf("the document root must be a mapping, got a %s", value.Kind())
	}
	return t, nil
}

// MarshalYAML implements yaml.Marshaler.
func (t *Tree) MarshalYAML() (any, error) { return valueToNode(t), nil }

// MarshalYAML implements yaml.Marshaler.
func (c *Call) MarshalYAML() (any, error) { return valueToNode(c), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	value, err := nodeToValue(node, make(map[*yaml.Node]Value))
	if err != nil {
		return err
	}
	parsed, ok := value.(*Tree)
	if !ok {
		return errors.Errorf("line %d: expected a mapping, got a %s", node.Line, value.Kind())
	}
	t.keys = parsed.keys
	t.values = parsed.values
	return nil
}

func valueToNode(v Value) *yaml.Node {
	switch v := v.(type) {
	case *Scalar:
		return scalarToNode(v)
	case *List:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			node.Content = append(node.Content, valueToNode(item))
		}
		return node
	case *Tree:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for key, value := range v.All() {
			node.Content = append(node.Content, keyNode(key), valueToNode(value))
		}
		return node
	case *Call:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		node.Content = append(node.Content, keyNode(TargetKey), keyNode(string(v.target)))
		for key, value := range v.args.All() {
			node.Content = append(node.Content, keyNode(key), valueToNode(value))
		}
		return node
	}
	return nil // Unreachable: Value is sealed.
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func scalarToNode(s *Scalar) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode}
	switch s.kind {
	case KindNil:
		node.Tag = "!!null"
		node.Value = "null"
	case KindBool:
		node.Tag = "!!bool"
		node.Value = strconv.FormatBool(s.b)
	case KindInt:
		node.Tag = "!!int"
		node.Value = strconv.FormatInt(s.i, 10)
	case KindFloat:
		node.Tag = "!!float"
		node.Value = formatFloat(s.f)
	case KindString:
		node.Tag = "!!str"
		node.Value = s.s
	}
	return node
}

// formatFloat renders f so it parses back as a float: "2.0" rather than "2".
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text
}

// nodeToValue converts a parsed YAML node. anchors memoizes anchored nodes so every
// alias to one anchor resolves to the same Value.
func nodeToValue(node *yaml.Node, anchors map[*yaml.Node]Value) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, errors.Errorf("expected a single YAML document, got %d", len(node.Content))
		}
		return nodeToValue(node.Content[0], anchors)

	case yaml.AliasNode:
		if v, ok := anchors[node.Alias]; ok {
			return v, nil
		}
		return nodeToValue(node.Alias, anchors)

	case yaml.ScalarNode:
		v, err := scalarFromNode(node)
		if err != nil {
			return nil, err
		}
		rememberAnchor(node, v, anchors)
		return v, nil

	case yaml.SequenceNode:
		list := &List{}
		for _, item := range node.Content {
			v, err := nodeToValue(item, anchors)
			if err != nil {
				return nil, err
			}
			list.items = append(list.items, v)
		}
		rememberAnchor(node, list, anchors)
		return list, nil

	case yaml.MappingNode:
		tree := NewTree()
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			keyN, valueN := node.Content[idx], node.Content[idx+1]
			if keyN.Kind != yaml.ScalarNode || keyN.Tag != "!!str" {
				return nil, errors.Errorf("line %d: mapping keys must be strings, got %q (%s)",
					keyN.Line, keyN.Value, keyN.Tag)
			}
			v, err := nodeToValue(valueN, anchors)
			if err != nil {
				return nil, err
			}
			tree.setValue(keyN.Value, v)
		}
		target, isCall := tree.Get(TargetKey)
		if !isCall {
			rememberAnchor(node, tree, anchors)
			return tree, nil
		}
		name, ok := target.(*Scalar)
		if !ok || name.kind != KindString || name.s == "" {
			return nil, errors.Errorf("line %d: %q must be a non-empty constructor identifier, got %s",
				node.Line, TargetKey, target)
		}
		tree.Delete(TargetKey)
		call := &Call{target: Target(name.s), args: tree}
		rememberAnchor(node, call, anchors)
		return call, nil
	}
	return nil, errors.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
}

func rememberAnchor(node *yaml.Node, v Value, anchors map[*yaml.Node]Value) {
	if node.Anchor != "" {
		anchors[node] = v
	}
}

func scalarFromNode(node *yaml.Node) (Value, error) {
	switch node.Tag {
	case "!!null":
		return Nil(), nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: parsing %q as a bool", node.Line, node.Value)
		}
		return Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(node.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: parsing %q as an int", node.Line, node.Value)
		}
		return Int(i), nil
	case "!!float":
		switch strings.ToLower(node.Value) {
		case ".inf", "+.inf":
			return Float(math.Inf(1)), nil
		case "-.inf":
			return Float(math.Inf(-1)), nil
		case ".nan":
			return Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: parsing %q as a float", node.Line, node.Value)
		}
		return Float(f), nil
	case "!!str":
		return Str(node.Value), nil
	}
	return nil, errors.Errorf("line %d: unsupported YAML scalar tag %s for %q",
		node.Line, node.Tag, node.Value)
}
