// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sexpatch

import (
	"io"

	"nickandperla.net/sexpatch/internal/registry"
	"nickandperla.net/sexpatch/internal/source"
	"nickandperla.net/sexpatch/internal/store"
)

// Option configures a Patcher.
type Option func(*Patcher)

// Mode mirrors the registry resolution modes.
type Mode = registry.Mode

// Resolution modes.
const (
	BuildTime = registry.BuildTime
	LoadTime  = registry.LoadTime
)

// ParseMode parses a string into a Mode.
func ParseMode(s string) (Mode, bool) {
	return registry.ParseMode(s)
}

// WithSQLiteStore uses a SQLite template store at the given path.
func WithSQLiteStore(path string) Option {
	return func(p *Patcher) {
		s, err := store.NewSQLite(path)
		if err != nil {
			p.storeErr = err
			return
		}
		p.store = s
	}
}

// WithMemoryStore uses an in-memory template store.
func WithMemoryStore() Option {
	return func(p *Patcher) { p.store = store.NewMemory() }
}

// WithStore sets an explicit template store.
func WithStore(s store.Store) Option {
	return func(p *Patcher) { p.store = s }
}

// WithSourceFiles locates definitions in the given s-expression files.
func WithSourceFiles(paths ...string) Option {
	return func(p *Patcher) { p.locator = source.NewFile(paths...) }
}

// WithLocator sets an explicit definition locator.
func WithLocator(l source.Locator) Option {
	return func(p *Patcher) { p.locator = l }
}

// WithMode sets build-time or load-time resolution.
func WithMode(m Mode) Option {
	return func(p *Patcher) { p.mode = m }
}

// WithTag maps a definition kind to an explicit patch tag.
func WithTag(kind, tag string) Option {
	return func(p *Patcher) { p.tags[kind] = tag }
}

// WithTagPrefix overrides the default patch tag prefix.
func WithTagPrefix(prefix string) Option {
	return func(p *Patcher) { p.prefix = prefix }
}

// WithWarnWriter sets the destination for load-time warnings.
func WithWarnWriter(w io.Writer) Option {
	return func(p *Patcher) { p.warnw.w = w }
}

// warnTarget lets options rebind the warning destination after the
// registry has captured the writer.
type warnTarget struct {
	w io.Writer
}

func (t *warnTarget) Write(b []byte) (int, error) {
	return t.w.Write(b)
}
