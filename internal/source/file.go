// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package source

import (
	"fmt"
	"os"
	"sync"

	"nickandperla.net/sexpatch/internal/reader"
	"nickandperla.net/sexpatch/internal/sexp"
)

// File locates definitions in s-expression source files. Files are
// parsed once on first use and the forms cached.
type File struct {
	paths []string

	mu    sync.Mutex
	forms []sexp.Node
}

// NewFile creates a locator over the given source files.
func NewFile(paths ...string) *File {
	return &File{paths: paths}
}

// Locate finds the first top-level (kind name ...) form across the
// configured files, in order.
func (f *File) Locate(kind, name string) (sexp.Node, error) {
	forms, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, form := range forms {
		if matches(form, kind, name) {
			return form, nil
		}
	}
	return nil, fmt.Errorf("%w: (%s %s)", ErrNotFound, kind, name)
}

func (f *File) load() ([]sexp.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forms != nil {
		return f.forms, nil
	}
	var forms []sexp.Node
	for _, path := range f.paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		parsed, err := reader.New(file).ReadAll()
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		forms = append(forms, parsed...)
	}
	f.forms = forms
	return forms, nil
}
