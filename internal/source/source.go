// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package source locates named definitions in s-expression source.
package source

import (
	"errors"

	"nickandperla.net/sexpatch/internal/sexp"
)

// ErrNotFound is returned when no definition matches the requested
// kind and name.
var ErrNotFound = errors.New("definition not found")

// Locator supplies the concrete target definition a template set is
// resolved against.
type Locator interface {
	// Locate returns the top-level form (kind name ...) for the given
	// kind and name, or ErrNotFound.
	Locate(kind, name string) (sexp.Node, error)
}

// matches reports whether form is a definition of the given kind and
// name: a list headed by the kind symbol whose second element is the
// name symbol.
func matches(form sexp.Node, kind, name string) bool {
	l, ok := form.(*sexp.List)
	if !ok || len(l.Items) < 2 {
		return false
	}
	head, ok := l.Items[0].(sexp.Symbol)
	if !ok || string(head) != kind {
		return false
	}
	sym, ok := l.Items[1].(sexp.Symbol)
	return ok && string(sym) == name
}
