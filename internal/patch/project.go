// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import (
	"strings"

	"nickandperla.net/sexpatch/internal/sexp"
)

// Projection selects which side of each directive a projection keeps.
type Projection int

const (
	// Old projects the form as it existed before patching.
	Old Projection = iota
	// New projects the form after patching.
	New
)

// String returns the string representation of a Projection.
func (p Projection) String() string {
	if p == New {
		return "NEW"
	}
	return "OLD"
}

// projEnv carries patch-let substitutions during projection.
type projEnv map[sexp.Symbol]sexp.Node

func (e projEnv) with(name sexp.Symbol, value sexp.Node) projEnv {
	child := make(projEnv, len(e)+1)
	for k, v := range e {
		child[k] = v
	}
	child[name] = value
	return child
}

// ProjectSeq collapses every directive in a template tree into concrete
// content and returns the elements the tree contributes to its
// enclosing sequence: one for most trees, several when a directive
// splices, none for a side the directive omits. Projection is a pure
// fold over the template; it consults no form and never fails.
func ProjectSeq(template sexp.Node, p Projection) []sexp.Node {
	return projectSeq(template, p, nil)
}

// Project collapses a template into a single tree. A template whose
// projection splices several elements (or none) is rendered as a list
// so the result is still one well-formed tree.
func Project(template sexp.Node, p Projection) sexp.Node {
	seq := projectSeq(template, p, nil)
	if len(seq) == 1 {
		return seq[0]
	}
	return sexp.NewList(seq...)
}

func projectSeq(n sexp.Node, p Projection, env projEnv) []sexp.Node {
	switch t := n.(type) {
	case sexp.Symbol:
		if v, ok := env[t]; ok {
			return []sexp.Node{v}
		}
		return []sexp.Node{t}
	case *sexp.List:
		if k, d, ok := directiveOf(t); ok {
			return projectDirective(k, d, p, env)
		}
		return []sexp.Node{sexp.NewList(projectItems(t.Items, p, env)...)}
	case *sexp.Vector:
		return []sexp.Node{sexp.NewVector(projectItems(t.Items, p, env)...)}
	default:
		return []sexp.Node{n}
	}
}

func projectItems(items []sexp.Node, p Projection, env projEnv) []sexp.Node {
	var out []sexp.Node
	for _, it := range items {
		out = append(out, projectSeq(it, p, env)...)
	}
	return out
}

// projectOne projects a template expected to stand for a single tree.
func projectOne(n sexp.Node, p Projection, env projEnv) sexp.Node {
	seq := projectSeq(n, p, env)
	if len(seq) == 1 {
		return seq[0]
	}
	return sexp.NewList(seq...)
}

func projectDirective(k Kind, d *sexp.List, p Projection, env projEnv) []sexp.Node {
	switch k {
	case Swap:
		if len(d.Items) != 3 {
			break
		}
		if p == Old {
			return []sexp.Node{projectOne(d.Items[1], p, env)}
		}
		return []sexp.Node{projectOne(d.Items[2], p, env)}
	case Wrap:
		trimL, trimR, body, err := wrapArgs(d)
		if err != nil {
			break
		}
		if p == Old {
			// The wrapper is added by the patch: before it, the inner
			// elements sat directly in the enclosing sequence.
			return projectItems(body.Items[trimL:len(body.Items)-trimR], p, env)
		}
		return []sexp.Node{sexp.NewList(projectItems(body.Items, p, env)...)}
	case Splice:
		trimL, trimR, body, err := wrapArgs(d)
		if err != nil {
			break
		}
		if p == Old {
			return []sexp.Node{sexp.NewList(projectItems(body.Items, p, env)...)}
		}
		// The wrapper disappears: its children become direct elements
		// of the enclosing sequence.
		return projectItems(body.Items[trimL:len(body.Items)-trimR], p, env)
	case Let:
		bindings, body, err := letArgs(d)
		if err != nil {
			break
		}
		child := env
		for _, b := range bindings {
			child = child.with(b.name, projectOne(b.value, p, env))
		}
		return projectItems(body, p, child)
	case Concat:
		return []sexp.Node{projectConcat(d)}
	case Literal:
		// Kept whole, like an unresolved concat: the projection acts as
		// a capture-slot pattern, and matching it goes through the
		// literal resolver so inner directives and wildcards stay data.
		return []sexp.Node{d}
	case Remove:
		if p == Old {
			return projectItems(d.Items[1:], p, env)
		}
		return nil
	case Add:
		if p == Old {
			return nil
		}
		return projectItems(d.Items[1:], p, env)
	}
	// Malformed directives are caught by Validate before projection;
	// fall back to treating the node as plain data.
	return []sexp.Node{d}
}

// projectConcat collapses a concat directive to a single string when
// every part is literal. A part that is still a wildcard keeps the
// whole node as a directive: the projection then acts as a capture-slot
// pattern consumed by concat matching, not as a concrete value.
func projectConcat(d *sexp.List) sexp.Node {
	var sb strings.Builder
	for _, part := range d.Items[1:] {
		s, ok := part.(sexp.Str)
		if !ok {
			return d
		}
		sb.WriteString(string(s))
	}
	return sexp.Str(sb.String())
}
