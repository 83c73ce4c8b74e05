// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import "nickandperla.net/sexpatch/internal/sexp"

// binding is the two-part state of a named placeholder: the value the
// template declared for it, and the tree it actually matched (nil until
// the name is first matched).
type binding struct {
	declared sexp.Node
	resolved sexp.Node
}

// Bindings is the named-binding table. Entries are never mutated in
// place: every change installs a fresh entry and logs the previous one,
// so Rollback restores any earlier state byte-for-byte, including
// re-deleting entries created inside the rolled-back scope.
type Bindings struct {
	entries map[sexp.Symbol]*binding
	log     []undoRecord
}

type undoRecord struct {
	name sexp.Symbol
	prev *binding // nil if the name was unbound before the change
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{entries: make(map[sexp.Symbol]*binding)}
}

// Mark returns a checkpoint for Rollback.
func (b *Bindings) Mark() int {
	return len(b.log)
}

// Rollback restores the table to the state it had at the checkpoint.
func (b *Bindings) Rollback(mark int) {
	for len(b.log) > mark {
		rec := b.log[len(b.log)-1]
		b.log = b.log[:len(b.log)-1]
		if rec.prev == nil {
			delete(b.entries, rec.name)
		} else {
			b.entries[rec.name] = rec.prev
		}
	}
}

// install enters a fresh entry for name with the declared value and no
// resolution yet, shadowing any outer entry. It returns the shadowed
// entry so the scope can restore it on success.
func (b *Bindings) install(name sexp.Symbol, declared sexp.Node) *binding {
	prev := b.entries[name]
	b.log = append(b.log, undoRecord{name: name, prev: prev})
	b.entries[name] = &binding{declared: declared}
	return prev
}

// restore puts back the entry a name had before its scope, as a logged
// change: an enclosing Rollback still unwinds it, while resolutions of
// other names made inside the scope survive.
func (b *Bindings) restore(name sexp.Symbol, prev *binding) {
	b.log = append(b.log, undoRecord{name: name, prev: b.entries[name]})
	if prev == nil {
		delete(b.entries, name)
	} else {
		b.entries[name] = prev
	}
}

// resolve records the tree a name matched.
func (b *Bindings) resolve(name sexp.Symbol, match sexp.Node) {
	prev := b.entries[name]
	b.log = append(b.log, undoRecord{name: name, prev: prev})
	b.entries[name] = &binding{declared: prev.declared, resolved: match}
}

// lookup returns the current entry for name, if any.
func (b *Bindings) lookup(name sexp.Symbol) (*binding, bool) {
	e, ok := b.entries[name]
	return e, ok
}
