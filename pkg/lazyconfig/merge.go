// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DefaultsKey is the reserved tree key holding the ordered list of override
	// layers to merge before the tree's own fields take effect. Entries are either
	// single-pair {axis: name} trees (see Override) or the SelfMarker string.
	DefaultsKey = "defaults"

	// SelfMarker is the defaults-list entry standing for the tree's own literal
	// fields: they are merged at the position the marker occupies, normally last so
	// they win every conflict.
	SelfMarker = "_self_"
)

// LayerSource resolves an override-layer reference -- an (axis, name) pair such as
// ("net", "faditv2_7b") -- to the configuration fragment registered under it. The
// experiments.Registry implements it, with the axis as the registry group.
type LayerSource interface {
	Layer(axis, name string) (*Tree, bool)
}

// Override builds the defaults-list entry selecting layer name on the given axis.
func Override(axis, name string) *Tree {
	return NewTree().Set(axis, name)
}

// Self returns the defaults-list entry that stands for the tree's own literal fields.
func Self() *Scalar { return Str(SelfMarker) }

// Merge deep-merges overlay over base and returns the result; neither input is
// modified and the result shares no node with either.
//
// The merge rule: where both sides hold a mapping -- a Tree, or the arguments of a
// Call -- keys merge recursively; everywhere else the overlay value replaces the base
// one. Lists replace wholesale, they never concatenate. Calls are mappings that also
// carry a target: a Tree laid over a Call updates the call's arguments, a Call laid
// over a Tree absorbs its fields as arguments, and a Call laid over a Call merges the
// arguments with the overlay's target winning.
func Merge(base, overlay *Tree) *Tree {
	out := base.Clone()
	mergeTree(out, overlay, make(map[Value]Value))
	return out
}

// mergeTree merges overlay into dst, which must be privately owned by the caller.
// Values taken from overlay are cloned through memo, so dst never aliases overlay and
// nodes shared inside overlay stay shared inside dst.
func mergeTree(dst, overlay *Tree, memo map[Value]Value) {
	for key, value := range overlay.All() {
		existing, found := dst.Get(key)
		if !found {
			dst.setValue(key, cloneValue(value, memo))
			continue
		}
		dst.setValue(key, mergeValue(existing, value, memo))
	}
}

// mergeValue merges overlay into dst and returns the result. dst may be mutated in
// place; overlay never is.
func mergeValue(dst, overlay Value, memo map[Value]Value) Value {
	switch o := overlay.(type) {
	case *Tree:
		switch d := dst.(type) {
		case *Tree:
			mergeTree(d, o, memo)
			return d
		case *Call:
			// Plain fields laid over a deferred call update its arguments.
			mergeTree(d.args, o, memo)
			return d
		}
	case *Call:
		switch d := dst.(type) {
		case *Tree:
			// A call laid over plain fields absorbs them as arguments.
			mergeTree(d, o.args, memo)
			return &Call{target: o.target, args: d}
		case *Call:
			d.target = o.target
			mergeTree(d.args, o.args, memo)
			return d
		}
	}
	return cloneValue(overlay, memo)
}

// Resolve composes the tree's defaults list and returns the result; t is never
// modified. Each entry is processed in order:
//
//   - an {axis: name} entry fetches the fragment registered under (axis, name) in
//     layers and deep-merges it over the accumulated result (see Merge for the merge
//     rule); an unknown (axis, name) pair is an error, a broken experiment definition
//     must not compose silently;
//   - the SelfMarker entry merges the tree's own fields -- everything except
//     DefaultsKey -- at that position. Later entries win conflicts, so SelfMarker is
//     normally listed last, letting fields declared in the builder override anything
//     pulled in from named layers.
//
// A defaults list without SelfMarker drops the literal fields: only the named layers
// make up the result. That is not an error, it mirrors the composition rule this
// models. A tree with no DefaultsKey at all resolves to a plain clone of itself.
//
// The resolved tree carries no DefaultsKey: the list is fully consumed.
func Resolve(t *Tree, layers LayerSource) (*Tree, error) {
	defaultsValue, found := t.Get(DefaultsKey)
	if !found {
		return t.Clone(), nil
	}
	defaults, ok := defaultsValue.(*List)
	if !ok {
		return nil, errors.Errorf("%q must be a list of override entries, got a %s",
			DefaultsKey, defaultsValue.Kind())
	}
	resolved := NewTree()
	for idx, entry := range defaults.All() {
		if err := resolveEntry(resolved, t, layers, idx, entry); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// resolveEntry merges one defaults-list entry into dst.
func resolveEntry(dst, t *Tree, layers LayerSource, idx int, entry Value) error {
	switch e := entry.(type) {
	case *Scalar:
		if e.kind != KindString || e.s != SelfMarker {
			return errors.Errorf("defaults[%d]: unknown entry %s, only {axis: name} pairs and %q are accepted",
				idx, entry, SelfMarker)
		}
		mergeSelf(dst, t)
		klog.V(2).Infof("lazyconfig: merged literal fields (%q)", SelfMarker)
		return nil
	case *Tree:
		if e.Len() != 1 {
			return errors.Errorf("defaults[%d]: an override entry must hold exactly one axis: name pair, got %s",
				idx, entry)
		}
		axis := e.keys[0]
		nameValue, _ := e.Get(axis)
		name, ok := nameValue.(*Scalar)
		if !ok || name.kind != KindString {
			return errors.Errorf("defaults[%d]: the layer name for axis %q must be a string, got %s",
				idx, axis, nameValue)
		}
		fragment, found := layers.Layer(axis, name.s)
		if !found {
			return errors.Errorf("defaults[%d]: no layer %q registered under axis %q", idx, name.s, axis)
		}
		if _, nested := fragment.Get(DefaultsKey); nested {
			return errors.Errorf("defaults[%d]: layer %s/%s carries its own %q list, which is not supported",
				idx, axis, name.s, DefaultsKey)
		}
		mergeTree(dst, fragment, make(map[Value]Value))
		klog.V(2).Infof("lazyconfig: merged layer %s/%s", axis, name.s)
		return nil
	default:
		return errors.Errorf("defaults[%d]: entries must be {axis: name} mappings or %q, got a %s",
			idx, SelfMarker, entry.Kind())
	}
}

// mergeSelf merges t's literal fields -- everything except DefaultsKey -- into dst.
// One memo spans the whole merge, so nodes shared across t's branches (a dataset call
// wired into several dataloaders) remain shared in dst.
func mergeSelf(dst, t *Tree) {
	memo := make(map[Value]Value)
	for key, value := range t.All() {
		if key == DefaultsKey {
			continue
		}
		existing, found := dst.Get(key)
		if !found {
			dst.setValue(key, cloneValue(value, memo))
			continue
		}
		dst.setValue(key, mergeValue(existing, value, memo))
	}
}
