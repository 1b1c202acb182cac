// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"fmt"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToYAML(t *testing.T) {
	tree := NewTree().
		Set("job", NewTree().Set("name", "probe").Set("debug", false)).
		Set("net", NewCall("nets.DiT").Set("num_blocks", 28).Set("dropout", 0.5)).
		Set("eps", 1e-10).
		Set("pad", nil).
		Set("tags", []string{"a", "b"})

	got := string(must.M1(ToYAML(tree)))
	fmt.Printf("%s", got)
	want := `job:
  name: probe
  debug: false
net:
  _target_: nets.DiT
  num_blocks: 28
  dropout: 0.5
eps: 1e-10
pad: null
tags:
  - a
  - b
`
	assert.Equal(t, want, got)
}

func TestYAMLRoundTrip(t *testing.T) {
	tree := NewTree().
		Set("job", NewTree().Set("name", "probe").Set("iters", 100_000)).
		Set("model", NewTree().
			Set("net", NewCall("nets.DiT").
				Set("num_blocks", 28).
				Set("mask", []bool{false, true}).
				Set("inner", NewCall("nets.Block").Set("width", 4096))).
			Set("latent_shape", []int{16, 16, 88, 160})).
		Set("lr", 2.0). // Must re-parse as a float, not an int.
		Set("caption_view_idx_map", NewTree().Set("0", 0).Set("3", 4)).
		Set("empty_list", ListOf()).
		Set("none", nil)

	data := must.M1(ToYAML(tree))
	parsed, err := FromYAML(data)
	require.NoError(t, err)
	if !Equal(tree, parsed) {
		t.Fatalf("round-trip changed the tree:\noriginal: %s\nparsed:   %s", tree, parsed)
	}

	// Field order survives the round trip.
	assert.Equal(t, tree.Keys(), parsed.Keys())
	net, ok := parsed.CallAt("model.net")
	require.True(t, ok)
	assert.Equal(t, []string{"num_blocks", "mask", "inner"}, net.Args().Keys())

	// Numeric-looking string keys stay strings.
	zero, ok := parsed.TreeAt("caption_view_idx_map")
	require.True(t, ok)
	assert.Equal(t, []string{"0", "3"}, zero.Keys())
}

func TestFromYAMLCallsAndAnchors(t *testing.T) {
	data := []byte(`
dataset: &ds
  _target_: data.Dataset
  dir: datasets/
train:
  _target_: data.Loader
  dataset: *ds
val:
  _target_: data.Loader
  dataset: *ds
`)
	tree, err := FromYAML(data)
	require.NoError(t, err)

	dataset, ok := tree.CallAt("dataset")
	require.True(t, ok)
	assert.Equal(t, Target("data.Dataset"), dataset.Target())

	// Aliases decode to one shared node.
	train, ok := tree.CallAt("train.dataset")
	require.True(t, ok)
	val, ok := tree.CallAt("val.dataset")
	require.True(t, ok)
	if train != val || train != dataset {
		t.Fatalf("aliases did not resolve to the anchored node")
	}
}

func TestFromYAMLErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"root not a mapping": "- a\n- b\n",
		"non-string key":     "1: x\n",
		"bad target":         "net:\n  _target_: 7\n",
		"empty target":       "net:\n  _target_: \"\"\n",
	} {
		_, err := FromYAML([]byte(doc))
		if err == nil {
			t.Errorf("%s: expected an error for %q", name, doc)
		}
	}

	// An empty document is an empty tree.
	tree, err := FromYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}
