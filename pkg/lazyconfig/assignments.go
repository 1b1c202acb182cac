// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lazyconfig

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ApplyAssignments applies a ";"-separated list of "path=value" assignments to the
// tree, typically the contents of a command-line flag:
//
//	"model.net.num_blocks=28;trainer.max_iter=100_000;job.name=probe"
//
// Paths are dotted (see SetPath) and must already exist. The textual value is parsed
// to the type of the value currently stored at the path, so assignments cannot
// change a field's kind. It returns the paths that were set.
func ApplyAssignments(t *Tree, assignments string) (pathsSet []string, err error) {
	for _, assignment := range strings.Split(assignments, ";") {
		if assignment == "" {
			continue
		}
		path, err := applyAssignment(t, assignment)
		if err != nil {
			return pathsSet, err
		}
		pathsSet = append(pathsSet, path)
	}
	return pathsSet, nil
}

func applyAssignment(t *Tree, assignment string) (string, error) {
	path, raw, found := strings.Cut(assignment, "=")
	if !found {
		return "", errors.Errorf("assignment %q is not in the form \"path=value\"", assignment)
	}
	current, found := t.GetPath(path)
	if !found {
		return "", errors.Errorf("cannot assign %q: no such path", path)
	}
	value, err := parseToKind(current, raw)
	if err != nil {
		return "", errors.WithMessagef(err, "cannot assign %q", path)
	}
	if err := t.SetPath(path, value); err != nil {
		return "", err
	}
	return path, nil
}

// parseToKind parses raw to the same kind as current.
func parseToKind(current Value, raw string) (Value, error) {
	switch c := current.(type) {
	case *Scalar:
		switch c.kind {
		case KindBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as a bool", raw)
			}
			return Bool(b), nil
		case KindInt:
			// Accept the "100_000" spelling configs are written with.
			i, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as an int", raw)
			}
			return Int(i), nil
		case KindFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %q as a float", raw)
			}
			return Float(f), nil
		case KindString:
			return Str(raw), nil
		default:
			return nil, errors.Errorf("the current value is nil, its type cannot be inferred")
		}
	case *List:
		if raw == "" {
			return &List{}, nil
		}
		if c.Len() == 0 {
			return nil, errors.Errorf("the current list is empty, its element type cannot be inferred")
		}
		out := &List{}
		for _, element := range strings.Split(raw, ",") {
			parsed, err := parseToKind(c.At(0), element)
			if err != nil {
				return nil, err
			}
			out.items = append(out.items, parsed)
		}
		return out, nil
	default:
		return nil, errors.Errorf("only scalar and list fields can be assigned, the path holds a %s",
			current.Kind())
	}
}
