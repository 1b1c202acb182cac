// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package experiments implements the catalog of composed training-job
// configurations: a registry keyed by (group, name).
//
// The registry plays both roles of the composition model. Override-layer fragments
// are stored under their axis as group ("net", "tokenizer", ...), which makes a
// Registry a lazyconfig.LayerSource; fully composed jobs are stored under a group of
// their own ("experiment"). One catalog serves layer resolution and job lookup.
//
// A Registry has no internal locking: it is populated once at startup by a single
// writer and read-only thereafter. Callers that want concurrent writers must
// serialize them. Stored trees are treated as immutable; callers that want to edit
// one must Clone() it first.
package experiments

import (
	"github.com/gomlx/lazyexp/pkg/lazyconfig"
	"github.com/gomlx/lazyexp/pkg/support/xslices"
	"k8s.io/klog/v2"
)

// Registry maps (group, name) to a configuration tree.
type Registry struct {
	groups map[string]map[string]*lazyconfig.Tree
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{groups: make(map[string]map[string]*lazyconfig.Tree)}
}

// Store inserts the tree under (group, name), overwriting any previous entry: last
// write wins, and no error is reported on overwrite. Re-registration during
// iterative config authoring depends on that, but it also means duplicate names
// silently shadow earlier ones -- generated names must encode every varying
// parameter so they stay unique.
func (r *Registry) Store(group, name string, tree *lazyconfig.Tree) {
	entries, found := r.groups[group]
	if !found {
		entries = make(map[string]*lazyconfig.Tree)
		r.groups[group] = entries
	}
	if _, exists := entries[name]; exists {
		klog.V(1).Infof("experiments: overwriting %s/%s", group, name)
	}
	entries[name] = tree
}

// Lookup returns the tree stored under (group, name).
func (r *Registry) Lookup(group, name string) (*lazyconfig.Tree, bool) {
	tree, found := r.groups[group][name]
	return tree, found
}

// Has reports whether an entry is stored under (group, name).
func (r *Registry) Has(group, name string) bool {
	_, found := r.groups[group][name]
	return found
}

// Groups returns the sorted group names.
func (r *Registry) Groups() []string {
	return xslices.SortedKeys(r.groups)
}

// Names returns the sorted entry names of a group. It is nil for an unknown group.
func (r *Registry) Names(group string) []string {
	entries, found := r.groups[group]
	if !found {
		return nil
	}
	return xslices.SortedKeys(entries)
}

// Len returns the total number of entries across all groups.
func (r *Registry) Len() int {
	total := 0
	for _, entries := range r.groups {
		total += len(entries)
	}
	return total
}

// Layer implements lazyconfig.LayerSource: override axes are registry groups.
func (r *Registry) Layer(axis, name string) (*lazyconfig.Tree, bool) {
	return r.Lookup(axis, name)
}

var _ lazyconfig.LayerSource = (*Registry)(nil)
