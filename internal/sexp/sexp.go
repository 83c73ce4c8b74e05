// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package sexp defines the symbolic expression tree types.
package sexp

import (
	"strconv"
	"strings"
)

// Node is the interface all tree node types implement.
// Nodes are immutable once constructed; transformations build new trees.
type Node interface {
	// String returns the serializable representation of the node,
	// readable back by the reader.
	String() string
}

// Symbol is an interned-by-value symbol atom.
type Symbol string

func (s Symbol) String() string { return string(s) }

// Str is a string atom.
type Str string

func (s Str) String() string { return strconv.Quote(string(s)) }

// Int is an integer atom.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating-point atom.
type Float float64

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Bool is a boolean atom, printed #t or #f.
type Bool bool

func (b Bool) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

// List is an ordered sequence of nodes, printed (a b c).
type List struct {
	Items []Node
}

func (l *List) String() string { return joinItems(l.Items, "(", ")") }

// Vector is an ordered sequence with fixed-arity semantics, printed [a b c].
// A vector only ever matches another vector, never a list.
type Vector struct {
	Items []Node
}

func (v *Vector) String() string { return joinItems(v.Items, "[", "]") }

func joinItems(items []Node, open, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, n := range items {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(n.String())
	}
	sb.WriteString(close)
	return sb.String()
}

// NewList creates a list node from the given items.
func NewList(items ...Node) *List {
	return &List{Items: items}
}

// NewVector creates a vector node from the given items.
func NewVector(items ...Node) *Vector {
	return &Vector{Items: items}
}

// Equal reports structural equality of two trees. Int and Float atoms
// never compare equal to each other.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case *List:
		bv, ok := b.(*List)
		return ok && equalItems(av.Items, bv.Items)
	case *Vector:
		bv, ok := b.(*Vector)
		return ok && equalItems(av.Items, bv.Items)
	}
	return false
}

func equalItems(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Format returns the serialized representation of a sequence of
// top-level nodes, one per line.
func Format(nodes []Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(n.String())
	}
	return sb.String()
}
