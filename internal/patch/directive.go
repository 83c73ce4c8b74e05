// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package patch implements the template matching and directive
// resolution core: a span matcher with backtracking wildcards, a
// resolver for the closed set of patch directives, pure old/new
// projections, and the template selector.
package patch

import (
	"fmt"

	"nickandperla.net/sexpatch/internal/sexp"
)

// Kind identifies a patch directive. The set is closed; dispatch is an
// exhaustive switch so a new kind is a compile-time-checked change.
type Kind int

const (
	Swap Kind = iota
	Wrap
	Splice
	Let
	Concat
	Literal
	Remove
	Add
)

// Directive tag symbols.
const (
	TagSwap    = sexp.Symbol("patch-swap")
	TagWrap    = sexp.Symbol("patch-wrap")
	TagSplice  = sexp.Symbol("patch-splice")
	TagLet     = sexp.Symbol("patch-let")
	TagConcat  = sexp.Symbol("patch-concat")
	TagLiteral = sexp.Symbol("patch-literal")
	TagRemove  = sexp.Symbol("patch-remove")
	TagAdd     = sexp.Symbol("patch-add")
)

// Wildcard matches one or more remaining elements of the enclosing
// sequence, greedily, backtracking to fewer when the remainder of the
// template cannot otherwise match.
const Wildcard = sexp.Symbol("...")

// String returns the tag symbol name for a kind.
func (k Kind) String() string {
	return string(k.Tag())
}

// Tag returns the tag symbol for a kind.
func (k Kind) Tag() sexp.Symbol {
	switch k {
	case Swap:
		return TagSwap
	case Wrap:
		return TagWrap
	case Splice:
		return TagSplice
	case Let:
		return TagLet
	case Concat:
		return TagConcat
	case Literal:
		return TagLiteral
	case Remove:
		return TagRemove
	case Add:
		return TagAdd
	}
	return sexp.Symbol("patch-unknown")
}

// kindOf maps a tag symbol to its directive kind.
func kindOf(s sexp.Symbol) (Kind, bool) {
	switch s {
	case TagSwap:
		return Swap, true
	case TagWrap:
		return Wrap, true
	case TagSplice:
		return Splice, true
	case TagLet:
		return Let, true
	case TagConcat:
		return Concat, true
	case TagLiteral:
		return Literal, true
	case TagRemove:
		return Remove, true
	case TagAdd:
		return Add, true
	}
	return 0, false
}

// directiveOf reports whether n is a directive node: a list whose first
// element is one of the directive tags.
func directiveOf(n sexp.Node) (Kind, *sexp.List, bool) {
	l, ok := n.(*sexp.List)
	if !ok || len(l.Items) == 0 {
		return 0, nil, false
	}
	tag, ok := l.Items[0].(sexp.Symbol)
	if !ok {
		return 0, nil, false
	}
	k, ok := kindOf(tag)
	if !ok {
		return 0, nil, false
	}
	return k, l, true
}

// wrapArgs destructures the operands of a wrap or splice directive:
// optional leading and trailing trim counts followed by the body list.
// Accepted shapes: (tag body), (tag trimL body), (tag trimL trimR body).
func wrapArgs(d *sexp.List) (trimL, trimR int, body *sexp.List, err error) {
	args := d.Items[1:]
	var trims []int
	for len(args) > 1 {
		n, ok := args[0].(sexp.Int)
		if !ok {
			break
		}
		trims = append(trims, int(n))
		args = args[1:]
	}
	switch len(trims) {
	case 0:
	case 1:
		trimL = trims[0]
	case 2:
		trimL, trimR = trims[0], trims[1]
	default:
		return 0, 0, nil, fmt.Errorf("%w: %s takes at most two trim counts", ErrMalformedDirective, d.Items[0])
	}
	if len(args) != 1 {
		return 0, 0, nil, fmt.Errorf("%w: %s expects a single body form", ErrMalformedDirective, d.Items[0])
	}
	body, ok := args[0].(*sexp.List)
	if !ok {
		return 0, 0, nil, fmt.Errorf("%w: %s body must be a list, got %s", ErrMalformedDirective, d.Items[0], args[0])
	}
	if trimL < 0 || trimR < 0 || trimL+trimR > len(body.Items) {
		return 0, 0, nil, fmt.Errorf("%w: %s trim counts %d/%d exceed body length %d",
			ErrMalformedDirective, d.Items[0], trimL, trimR, len(body.Items))
	}
	return trimL, trimR, body, nil
}

// letArgs destructures the operands of a patch-let directive: the
// bindings list followed by the body elements.
func letArgs(d *sexp.List) (bindings []letBinding, body []sexp.Node, err error) {
	if len(d.Items) < 2 {
		return nil, nil, fmt.Errorf("%w: %s expects a bindings list", ErrMalformedDirective, TagLet)
	}
	bl, ok := d.Items[1].(*sexp.List)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s bindings must be a list, got %s", ErrMalformedDirective, TagLet, d.Items[1])
	}
	for _, b := range bl.Items {
		pair, ok := b.(*sexp.List)
		if !ok || len(pair.Items) != 2 {
			return nil, nil, fmt.Errorf("%w: %s binding %s must be a (name value) pair", ErrMalformedDirective, TagLet, b)
		}
		name, ok := pair.Items[0].(sexp.Symbol)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidBindingName, pair.Items[0])
		}
		bindings = append(bindings, letBinding{name: name, value: pair.Items[1]})
	}
	return bindings, d.Items[2:], nil
}

// letBinding is a destructured (name value) pair from a patch-let
// bindings list.
type letBinding struct {
	name  sexp.Symbol
	value sexp.Node
}

// Validate checks directive shapes throughout a template tree. The
// matcher and the projections assume validated input, so any directive
// with missing or ill-typed operands is a construction-time error here
// rather than a projection-time one.
func Validate(template sexp.Node) error {
	switch n := template.(type) {
	case *sexp.List:
		if k, d, ok := directiveOf(n); ok {
			if err := validateDirective(k, d); err != nil {
				return err
			}
			return nil
		}
		return validateItems(n.Items)
	case *sexp.Vector:
		return validateItems(n.Items)
	}
	return nil
}

func validateItems(items []sexp.Node) error {
	for _, it := range items {
		if err := Validate(it); err != nil {
			return err
		}
	}
	return nil
}

func validateDirective(k Kind, d *sexp.List) error {
	switch k {
	case Swap:
		if len(d.Items) != 3 {
			return fmt.Errorf("%w: %s expects exactly (old new)", ErrMalformedDirective, TagSwap)
		}
		return validateItems(d.Items[1:])
	case Wrap, Splice:
		_, _, body, err := wrapArgs(d)
		if err != nil {
			return err
		}
		return validateItems(body.Items)
	case Let:
		bindings, body, err := letArgs(d)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			if err := Validate(b.value); err != nil {
				return err
			}
		}
		return validateItems(body)
	case Concat:
		for _, part := range d.Items[1:] {
			switch p := part.(type) {
			case sexp.Str:
			case sexp.Symbol:
				if p != Wildcard {
					return fmt.Errorf("%w: %s part %s is neither a string nor %s",
						ErrMalformedDirective, TagConcat, p, Wildcard)
				}
			default:
				return fmt.Errorf("%w: %s part %s is neither a string nor %s",
					ErrMalformedDirective, TagConcat, part, Wildcard)
			}
		}
		return nil
	case Literal:
		// Inner content is matched as literal data; no constraints.
		return nil
	case Remove, Add:
		return validateItems(d.Items[1:])
	}
	return nil
}
