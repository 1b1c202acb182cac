// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import "slices"

// CloneValue returns a deep copy of v. The clone shares no node with the original, so
// mutating one side never affects the other -- this is what makes derived variants of
// a configuration safe.
//
// Nodes reachable more than once inside v -- e.g. one dataset Call wired into both the
// train and the validation dataloader -- are cloned exactly once and stay shared
// inside the clone: internal aliasing is preserved, external aliasing is not created.
func CloneValue(v Value) Value {
	if v == nil {
		return nil
	}
	return cloneValue(v, make(map[Value]Value))
}

// Clone returns a deep copy of the tree. See CloneValue.
func (t *Tree) Clone() *Tree {
	return cloneValue(t, make(map[Value]Value)).(*Tree)
}

// Clone returns a deep copy of the call node. See CloneValue.
func (c *Call) Clone() *Call {
	return cloneValue(c, make(map[Value]Value)).(*Call)
}

// cloneValue deep-copies v. memo maps source nodes to their clones, for the whole
// cloning operation: it is what keeps shared nodes shared.
func cloneValue(v Value, memo map[Value]Value) Value {
	if cloned, found := memo[v]; found {
		return cloned
	}
	switch v := v.(type) {
	case *Scalar:
		copied := *v
		memo[v] = &copied
		return &copied
	case *List:
		cloned := &List{items: make([]Value, len(v.items))}
		memo[v] = cloned
		for i, item := range v.items {
			cloned.items[i] = cloneValue(item, memo)
		}
		return cloned
	case *Tree:
		cloned := &Tree{
			keys:   slices.Clone(v.keys),
			values: make(map[string]Value, len(v.values)),
		}
		memo[v] = cloned
		for key, value := range v.values {
			cloned.values[key] = cloneValue(value, memo)
		}
		return cloned
	case *Call:
		cloned := &Call{target: v.target}
		memo[v] = cloned
		cloned.args = cloneValue(v.args, memo).(*Tree)
		return cloned
	}
	return nil
}
