// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiments_test

import (
	"testing"

	"github.com/gomlx/lazyexp/pkg/experiments"
	"github.com/gomlx/lazyexp/pkg/lazyconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func job(name string) *lazyconfig.Tree {
	return lazyconfig.NewTree().Set("job", lazyconfig.NewTree().Set("name", name))
}

func TestStoreAndLookup(t *testing.T) {
	reg := experiments.New()
	assert.Equal(t, 0, reg.Len())

	reg.Store("experiment", "b", job("b"))
	reg.Store("experiment", "a", job("a"))
	reg.Store("net", "faditv2_7b", lazyconfig.NewTree().Set("num_blocks", 28))

	tree, found := reg.Lookup("experiment", "a")
	require.True(t, found)
	name, _ := tree.StrAt("job.name")
	assert.Equal(t, "a", name)

	_, found = reg.Lookup("experiment", "missing")
	assert.False(t, found)
	_, found = reg.Lookup("missing", "a")
	assert.False(t, found)

	assert.True(t, reg.Has("net", "faditv2_7b"))
	assert.False(t, reg.Has("net", "faditv2_14b"))
	assert.Equal(t, 3, reg.Len())

	// Accessors are sorted for deterministic reports.
	assert.Equal(t, []string{"experiment", "net"}, reg.Groups())
	assert.Equal(t, []string{"a", "b"}, reg.Names("experiment"))
	assert.Nil(t, reg.Names("missing"))
}

func TestStoreOverwrites(t *testing.T) {
	reg := experiments.New()
	reg.Store("experiment", "job", job("first"))
	reg.Store("experiment", "job", job("second"))

	// Last write wins, silently: exactly one entry remains.
	assert.Equal(t, 1, reg.Len())
	tree, found := reg.Lookup("experiment", "job")
	require.True(t, found)
	name, _ := tree.StrAt("job.name")
	assert.Equal(t, "second", name)
}

func TestRegistryAsLayerSource(t *testing.T) {
	reg := experiments.New()
	fragment := lazyconfig.NewTree().Set("net", lazyconfig.NewTree().Set("num_blocks", 28))
	reg.Store("net", "faditv2_7b", fragment)

	// Axes are groups: the registry serves as the layer namespace for Resolve.
	var layers lazyconfig.LayerSource = reg
	got, found := layers.Layer("net", "faditv2_7b")
	require.True(t, found)
	assert.True(t, lazyconfig.Equal(fragment, got))

	tree := lazyconfig.NewTree().
		Set(lazyconfig.DefaultsKey, lazyconfig.ListOf(
			lazyconfig.Override("net", "faditv2_7b"),
			lazyconfig.Self(),
		)).
		Set("net", lazyconfig.NewTree().Set("num_blocks", 2))
	resolved, err := lazyconfig.Resolve(tree, reg)
	require.NoError(t, err)
	blocks, _ := resolved.IntAt("net.num_blocks")
	assert.Equal(t, int64(2), blocks)
}
