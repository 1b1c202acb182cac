// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"strings"

	"github.com/pkg/errors"
)

// PathSeparator separates the segments of a dotted path like "model.net.num_blocks".
const PathSeparator = "."

// fieldsOf returns the mapping behind v, if any: a Tree is its own mapping, a Call
// exposes its arguments. Paths descend through deferred calls transparently, the
// target does not add a segment.
func fieldsOf(v Value) (*Tree, bool) {
	switch t := v.(type) {
	case *Tree:
		return t, true
	case *Call:
		return t.args, true
	}
	return nil, false
}

// GetPath returns the value at a dotted path, descending through sub-trees and
// through the arguments of deferred calls. It returns false if any segment is
// missing or lands on a value with no fields.
func (t *Tree) GetPath(path string) (Value, bool) {
	current := Value(t)
	for _, segment := range strings.Split(path, PathSeparator) {
		fields, ok := fieldsOf(current)
		if !ok {
			return nil, false
		}
		current, ok = fields.Get(segment)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// scalarAt fetches the scalar of the given kind at path. The second result is false
// if the path is missing or holds anything else.
func (t *Tree) scalarAt(path string, kind Kind) (*Scalar, bool) {
	v, found := t.GetPath(path)
	if !found {
		return nil, false
	}
	s, ok := v.(*Scalar)
	if !ok || s.kind != kind {
		return nil, false
	}
	return s, true
}

// StrAt returns the string at a dotted path, or false if the path is missing or
// holds a different kind.
func (t *Tree) StrAt(path string) (string, bool) {
	s, ok := t.scalarAt(path, KindString)
	if !ok {
		return "", false
	}
	return s.s, true
}

// IntAt returns the integer at a dotted path.
func (t *Tree) IntAt(path string) (int64, bool) {
	s, ok := t.scalarAt(path, KindInt)
	if !ok {
		return 0, false
	}
	return s.i, true
}

// FloatAt returns the float at a dotted path.
func (t *Tree) FloatAt(path string) (float64, bool) {
	s, ok := t.scalarAt(path, KindFloat)
	if !ok {
		return 0, false
	}
	return s.f, true
}

// BoolAt returns the boolean at a dotted path.
func (t *Tree) BoolAt(path string) (bool, bool) {
	s, ok := t.scalarAt(path, KindBool)
	if !ok {
		return false, false
	}
	return s.b, true
}

// ListAt returns the list at a dotted path.
func (t *Tree) ListAt(path string) (*List, bool) {
	v, found := t.GetPath(path)
	if !found {
		return nil, false
	}
	l, ok := v.(*List)
	return l, ok
}

// TreeAt returns the sub-tree at a dotted path.
func (t *Tree) TreeAt(path string) (*Tree, bool) {
	v, found := t.GetPath(path)
	if !found {
		return nil, false
	}
	sub, ok := v.(*Tree)
	return sub, ok
}

// CallAt returns the deferred call at a dotted path.
func (t *Tree) CallAt(path string) (*Call, bool) {
	v, found := t.GetPath(path)
	if !found {
		return nil, false
	}
	c, ok := v.(*Call)
	return c, ok
}

// SetPath replaces the value at a dotted path. The path must already exist, final
// key included: edits patch a composed configuration, they never grow it, so a typo
// fails loudly instead of planting an orphan field. value goes through the same
// conversion as Tree.Set.
func (t *Tree) SetPath(path string, value any) error {
	segments := strings.Split(path, PathSeparator)
	current := Value(t)
	for idx, segment := range segments[:len(segments)-1] {
		fields, ok := fieldsOf(current)
		if !ok {
			return errors.Errorf("cannot set %q: %q holds a %s, not a tree or call",
				path, strings.Join(segments[:idx], PathSeparator), current.Kind())
		}
		current, ok = fields.Get(segment)
		if !ok {
			return errors.Errorf("cannot set %q: %q has no field %q",
				path, strings.Join(segments[:idx], PathSeparator), segment)
		}
	}
	fields, ok := fieldsOf(current)
	if !ok {
		return errors.Errorf("cannot set %q: %q holds a %s, not a tree or call",
			path, strings.Join(segments[:len(segments)-1], PathSeparator), current.Kind())
	}
	last := segments[len(segments)-1]
	if _, found := fields.Get(last); !found {
		return errors.Errorf("cannot set %q: %q has no field %q",
			path, strings.Join(segments[:len(segments)-1], PathSeparator), last)
	}
	fields.setValue(last, fromGo(value))
	return nil
}
