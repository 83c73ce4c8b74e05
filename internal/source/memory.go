// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package source

import (
	"fmt"

	"nickandperla.net/sexpatch/internal/sexp"
)

// Memory is a form-backed locator for testing.
type Memory struct {
	forms []sexp.Node
}

// NewMemory creates a locator over the given top-level forms.
func NewMemory(forms ...sexp.Node) *Memory {
	return &Memory{forms: forms}
}

// Add appends a top-level form.
func (m *Memory) Add(form sexp.Node) {
	m.forms = append(m.forms, form)
}

// Locate finds the first (kind name ...) form.
func (m *Memory) Locate(kind, name string) (sexp.Node, error) {
	for _, form := range m.forms {
		if matches(form, kind, name) {
			return form, nil
		}
	}
	return nil, fmt.Errorf("%w: (%s %s)", ErrNotFound, kind, name)
}
