// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package lazyconfig models lazy ("deferred") training-job configurations: trees of
// settings that record how to construct the objects of a job -- datasets, networks,
// dataloaders -- without ever constructing them.
//
// The model is a small tagged union. A Value is one of exactly four variants:
//
//   - *Scalar: a nil, bool, int64, float64 or string leaf.
//   - *List: an ordered sequence of values.
//   - *Tree: an ordered mapping from string keys to values.
//   - *Call: a deferred-construction node, i.e. "build Target with these arguments".
//
// Composing a configuration is pure description: no file is opened, no object built.
// The arguments of a Call may themselves be calls, and the same node can be wired,
// by reference, into several places -- e.g. one dataset node shared by the train and
// validation dataloaders. Materializing a tree into live objects is a separate phase,
// owned by whatever runtime consumes the tree; this package never invokes a Target.
//
// Trees compose through layered overrides: a tree may carry a DefaultsKey list naming
// configuration fragments to merge underneath its own fields (see Resolve and Merge),
// and a composed tree can be cheaply derived into variants via Clone plus strict
// SetPath edits.
package lazyconfig

import (
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
)

// Kind discriminates the variants of a Value -- and, for scalars, the payload type.
type Kind uint8

const (
	// KindNil tags the null scalar.
	KindNil Kind = iota

	// KindBool, KindInt, KindFloat and KindString tag the remaining scalar payloads.
	KindBool
	KindInt
	KindFloat
	KindString

	// KindList tags a *List, KindTree a *Tree and KindCall a *Call.
	KindList
	KindTree
	KindCall
)

// String returns a short lower-case name, used in error messages and reports.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTree:
		return "tree"
	case KindCall:
		return "call"
	}
	return "invalid"
}

// Value is one node of a configuration tree.
//
// Value is a closed interface: *Scalar, *List, *Tree and *Call are its only
// implementations. Code consuming a tree can type-switch over these four.
type Value interface {
	// Kind returns the variant (and scalar payload type) of the value.
	Kind() Kind

	// String returns a compact single-line rendering, meant for logs, error
	// messages and tests. See ToYAML for the interchange form.
	String() string

	// sealed restricts implementations of Value to this package.
	sealed()
}

// Scalar is a leaf value: nil, bool, int64, float64 or string.
// Scalars are immutable once created.
type Scalar struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Nil returns the null scalar.
func Nil() *Scalar { return &Scalar{kind: KindNil} }

// Bool returns a boolean scalar.
func Bool(b bool) *Scalar { return &Scalar{kind: KindBool, b: b} }

// Int returns an integer scalar.
func Int(i int64) *Scalar { return &Scalar{kind: KindInt, i: i} }

// Float returns a floating-point scalar.
func Float(f float64) *Scalar { return &Scalar{kind: KindFloat, f: f} }

// Str returns a string scalar.
func Str(s string) *Scalar { return &Scalar{kind: KindString, s: s} }

// Kind implements Value.
func (s *Scalar) Kind() Kind { return s.kind }

func (s *Scalar) sealed() {}

// IsNil reports whether s is the null scalar.
func (s *Scalar) IsNil() bool { return s.kind == KindNil }

// Bool returns the boolean payload. It panics if s is not a KindBool scalar.
func (s *Scalar) Bool() bool {
	if s.kind != KindBool {
		exceptions.Panicf("lazyconfig: Bool() called on a %s scalar", s.kind)
	}
	return s.b
}

// Int returns the integer payload. It panics if s is not a KindInt scalar.
func (s *Scalar) Int() int64 {
	if s.kind != KindInt {
		exceptions.Panicf("lazyconfig: Int() called on a %s scalar", s.kind)
	}
	return s.i
}

// Float returns the floating-point payload. It panics if s is not a KindFloat scalar.
func (s *Scalar) Float() float64 {
	if s.kind != KindFloat {
		exceptions.Panicf("lazyconfig: Float() called on a %s scalar", s.kind)
	}
	return s.f
}

// Str returns the string payload. It panics if s is not a KindString scalar.
func (s *Scalar) Str() string {
	if s.kind != KindString {
		exceptions.Panicf("lazyconfig: Str() called on a %s scalar", s.kind)
	}
	return s.s
}

// Value returns the payload as a plain Go value: nil, bool, int64, float64 or string.
func (s *Scalar) Value() any {
	switch s.kind {
	case KindNil:
		return nil
	case KindBool:
		return s.b
	case KindInt:
		return s.i
	case KindFloat:
		return s.f
	default:
		return s.s
	}
}

// String implements Value. Strings render quoted.
func (s *Scalar) String() string {
	switch s.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(s.b)
	case KindInt:
		return strconv.FormatInt(s.i, 10)
	case KindFloat:
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	default:
		return strconv.Quote(s.s)
	}
}

// List is an ordered sequence of values.
type List struct {
	items []Value
}

// ListOf builds a List from the given items, coercing each Go value -- see Tree.Set
// for the accepted types.
func ListOf(items ...any) *List {
	l := &List{items: make([]Value, 0, len(items))}
	for _, item := range items {
		l.items = append(l.items, fromGo(item))
	}
	return l
}

// Kind implements Value.
func (l *List) Kind() Kind { return KindList }

func (l *List) sealed() {}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at position i. It panics if i is out of range.
func (l *List) At(i int) Value { return l.items[i] }

// Append coerces value (see Tree.Set) and appends it, returning l for chaining.
func (l *List) Append(value any) *List {
	l.items = append(l.items, fromGo(value))
	return l
}

// All iterates over (index, item) pairs, in order.
func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i, item := range l.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// String implements Value.
func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Tree is an ordered mapping from string keys to values: the mapping variant of the
// configuration model, and also the type of a whole configuration.
//
// Insertion order is preserved -- Go maps alone are not enough here because layered
// configurations must render and compare deterministically -- and overwriting a key
// keeps its original position.
type Tree struct {
	keys   []string
	values map[string]Value
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{values: make(map[string]Value)}
}

// Kind implements Value.
func (t *Tree) Kind() Kind { return KindTree }

func (t *Tree) sealed() {}

// Set stores value under key and returns t for chaining. New keys append to the key
// order; existing keys keep their position.
//
// The value is coerced into the Value model. Accepted types: nil; any Value (*Scalar,
// *List, *Tree, *Call); bool; int, int32, int64, uint, uint32, uint64; float32,
// float64; string; and the slices []bool, []int, []int64, []float64, []string,
// []any and []Value (slices are copied, never aliased).
//
// Anything else panics: configuration values are restricted to the Value model. In
// particular Go maps are rejected, since their iteration order is not deterministic --
// build a nested *Tree instead.
func (t *Tree) Set(key string, value any) *Tree {
	t.setValue(key, fromGo(value))
	return t
}

// setValue stores an already-coerced value.
func (t *Tree) setValue(key string, v Value) {
	if _, found := t.values[key]; !found {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Get returns the value stored under key, and whether the key is present.
func (t *Tree) Get(key string) (Value, bool) {
	v, found := t.values[key]
	return v, found
}

// Delete removes key and reports whether it was present.
func (t *Tree) Delete(key string) bool {
	if _, found := t.values[key]; !found {
		return false
	}
	delete(t.values, key)
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool { return k == key })
	return true
}

// Len returns the number of keys.
func (t *Tree) Len() int { return len(t.keys) }

// Keys returns a copy of the keys, in insertion order.
func (t *Tree) Keys() []string { return slices.Clone(t.keys) }

// All iterates over (key, value) pairs, in insertion order.
func (t *Tree) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, key := range t.keys {
			if !yield(key, t.values[key]) {
				return
			}
		}
	}
}

// String implements Value: a compact single-line flow rendering.
func (t *Tree) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for key, value := range t.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Target identifies a constructible -- a dataset, network, model or dataloader class
// registered with the training runtime. Targets are opaque to this package: they are
// recorded, compared and serialized, never invoked.
type Target string

// Call is a deferred-construction node: it records that Target should be constructed
// with the arguments in Args, much later and by someone else. Building or embedding a
// Call never executes anything.
type Call struct {
	target Target
	args   *Tree
}

// NewCall creates a deferred-construction node for the given target, with no
// arguments yet. It panics if target is empty.
func NewCall(target Target) *Call {
	if target == "" {
		exceptions.Panicf("lazyconfig: NewCall with an empty target")
	}
	return &Call{target: target, args: NewTree()}
}

// Kind implements Value.
func (c *Call) Kind() Kind { return KindCall }

func (c *Call) sealed() {}

// Target returns the constructible reference this node defers to.
func (c *Call) Target() Target { return c.target }

// Args returns the argument mapping. The returned tree is the node's own storage:
// mutating it mutates the node.
func (c *Call) Args() *Tree { return c.args }

// Set stores an argument, with the same coercion rules as Tree.Set.
// Returns c for chaining.
func (c *Call) Set(key string, value any) *Call {
	c.args.Set(key, value)
	return c
}

// String implements Value: renders as "Target(arg: value, ...)".
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(string(c.target))
	b.WriteByte('(')
	first := true
	for key, value := range c.args.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value.String())
	}
	b.WriteByte(')')
	return b.String()
}

// fromGo coerces a Go value into a Value. This is the single conversion point behind
// Tree.Set, Call.Set, ListOf and List.Append; see Tree.Set for the accepted types.
func fromGo(value any) Value {
	switch v := value.(type) {
	case nil:
		return Nil()
	case *Scalar:
		return v
	case *List:
		return v
	case *Tree:
		return v
	case *Call:
		return v
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return Int(int64(v))
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case string:
		return Str(v)
	case []bool:
		l := &List{items: make([]Value, 0, len(v))}
		for _, b := range v {
			l.items = append(l.items, Bool(b))
		}
		return l
	case []int:
		l := &List{items: make([]Value, 0, len(v))}
		for _, i := range v {
			l.items = append(l.items, Int(int64(i)))
		}
		return l
	case []int64:
		l := &List{items: make([]Value, 0, len(v))}
		for _, i := range v {
			l.items = append(l.items, Int(i))
		}
		return l
	case []float64:
		l := &List{items: make([]Value, 0, len(v))}
		for _, f := range v {
			l.items = append(l.items, Float(f))
		}
		return l
	case []string:
		l := &List{items: make([]Value, 0, len(v))}
		for _, s := range v {
			l.items = append(l.items, Str(s))
		}
		return l
	case []any:
		return ListOf(v...)
	case []Value:
		return &List{items: slices.Clone(v)}
	default:
		exceptions.Panicf("lazyconfig: cannot use a value of type %T in a configuration tree "+
			"(Go maps are unordered -- build a *Tree instead)", value)
	}
	return nil // Unreachable, Panicf above always throws.
}

// Equal reports whether a and b are structurally equal: same kinds, same scalar
// payloads, same items in the same order for lists, and the same key set with equal
// values for trees and call arguments (plus the same target for calls).
//
// Key insertion order and node identity are ignored: a tree where two branches share
// one node equals a tree carrying two independent but equal copies.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Scalar:
		bv := b.(*Scalar)
		switch av.kind {
		case KindNil:
			return true
		case KindBool:
			return av.b == bv.b
		case KindInt:
			return av.i == bv.i
		case KindFloat:
			return av.f == bv.f
		default:
			return av.s == bv.s
		}
	case *List:
		bv := b.(*List)
		if len(av.items) != len(bv.items) {
			return false
		}
		for i, item := range av.items {
			if !Equal(item, bv.items[i]) {
				return false
			}
		}
		return true
	case *Tree:
		return treesEqual(av, b.(*Tree))
	case *Call:
		bv := b.(*Call)
		return av.target == bv.target && treesEqual(av.args, bv.args)
	}
	return false
}

func treesEqual(a, b *Tree) bool {
	if len(a.keys) != len(b.keys) {
		return false
	}
	for key, av := range a.values {
		bv, found := b.values[key]
		if !found || !Equal(av, bv) {
			return false
		}
	}
	return true
}
