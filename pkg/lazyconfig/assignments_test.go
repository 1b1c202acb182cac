// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAssignments(t *testing.T) {
	tree := NewTree().
		Set("job", NewTree().Set("group", "experiment").Set("name", "probe")).
		Set("trainer", NewTree().Set("max_iter", 999_999_999).Set("amp", true)).
		Set("optimizer", NewTree().Set("lr", 1e-4).Set("betas", []float64{0.9, 0.99})).
		Set("checkpoint", NewTree().Set("load_path", "checkpoints/model.pt"))

	// The launcher-style override line: types are inferred from the fields
	// being replaced.
	paths, err := ApplyAssignments(tree,
		"job.group=debug;trainer.max_iter=100_000;trainer.amp=false;"+
			"optimizer.lr=3e-4;optimizer.betas=0.5,0.9;checkpoint.load_path=")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"job.group", "trainer.max_iter", "trainer.amp",
		"optimizer.lr", "optimizer.betas", "checkpoint.load_path",
	}, paths)

	group, _ := tree.StrAt("job.group")
	assert.Equal(t, "debug", group)
	maxIter, _ := tree.IntAt("trainer.max_iter")
	assert.Equal(t, int64(100_000), maxIter)
	amp, _ := tree.BoolAt("trainer.amp")
	assert.False(t, amp)
	lr, _ := tree.FloatAt("optimizer.lr")
	assert.Equal(t, 3e-4, lr)
	betas, _ := tree.ListAt("optimizer.betas")
	require.Equal(t, 2, betas.Len())
	assert.Equal(t, 0.5, betas.At(0).(*Scalar).Float())
	loadPath, _ := tree.StrAt("checkpoint.load_path")
	assert.Equal(t, "", loadPath)

	// Empty assignments between separators are skipped.
	paths, err = ApplyAssignments(tree, ";job.name=x;")
	require.NoError(t, err)
	assert.Equal(t, []string{"job.name"}, paths)
}

func TestApplyAssignmentsErrors(t *testing.T) {
	tree := NewTree().
		Set("trainer", NewTree().Set("max_iter", 1000)).
		Set("tags", ListOf()).
		Set("none", nil)

	for name, assignments := range map[string]string{
		"missing '='":        "trainer.max_iter",
		"unknown path":       "trainer.missing=1",
		"unparsable int":     "trainer.max_iter=ten",
		"tree-valued path":   "trainer=x",
		"nil current value":  "none=1",
		"untyped empty list": "tags=1,2",
	} {
		_, err := ApplyAssignments(tree, assignments)
		if err == nil {
			t.Errorf("%s: expected an error for %q", name, assignments)
		}
	}

	// Assignments before the failing one stick; the tree is not rolled back.
	_, err := ApplyAssignments(tree, "trainer.max_iter=5;trainer.missing=1")
	require.Error(t, err)
	maxIter, _ := tree.IntAt("trainer.max_iter")
	assert.Equal(t, int64(5), maxIter)
}
