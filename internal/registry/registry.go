// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package registry stores template sets and resolves them against
// located definitions.
package registry

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/sexpatch/internal/patch"
	"nickandperla.net/sexpatch/internal/reader"
	"nickandperla.net/sexpatch/internal/sexp"
	"nickandperla.net/sexpatch/internal/source"
	"nickandperla.net/sexpatch/internal/store"
)

var (
	// ErrTemplateNotFound is returned when no template set is stored
	// for the requested name and kind.
	ErrTemplateNotFound = errors.New("no templates defined")
	// ErrVersionNotFound is returned when the requested version of a
	// template set does not exist.
	ErrVersionNotFound = errors.New("template version not found")
)

// Mode controls when template bookkeeping is kept.
type Mode int

const (
	// BuildTime resolves once and discards the stored template set.
	BuildTime Mode = iota
	// LoadTime keeps the template set for re-resolution every time
	// the defining unit loads, and emits a performance warning.
	LoadTime
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	if m == LoadTime {
		return "LOAD"
	}
	return "BUILD"
}

// ParseMode parses a string into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToUpper(s) {
	case "BUILD":
		return BuildTime, true
	case "LOAD":
		return LoadTime, true
	default:
		return BuildTime, false
	}
}

// DefaultTagPrefix prefixes the definition's head symbol to derive the
// resolved patch tag when no explicit kind mapping is configured.
const DefaultTagPrefix = "patch-"

// Registry holds template sets keyed by (object name, definition kind)
// and resolves them into patch forms.
type Registry struct {
	store     store.Store
	locator   source.Locator
	mode      Mode
	tags      map[string]string
	tagPrefix string
	warnw     io.Writer
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore sets the template persistence store.
func WithStore(s store.Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithLocator sets the definition locator.
func WithLocator(l source.Locator) Option {
	return func(r *Registry) { r.locator = l }
}

// WithMode sets build-time or load-time resolution.
func WithMode(m Mode) Option {
	return func(r *Registry) { r.mode = m }
}

// WithTag maps a definition kind to an explicit patch tag.
func WithTag(kind, tag string) Option {
	return func(r *Registry) { r.tags[kind] = tag }
}

// WithTagPrefix overrides the default tag prefix.
func WithTagPrefix(prefix string) Option {
	return func(r *Registry) { r.tagPrefix = prefix }
}

// WithWarnWriter sets the destination for load-time warnings.
func WithWarnWriter(w io.Writer) Option {
	return func(r *Registry) { r.warnw = w }
}

// New creates a Registry with the given options. The store defaults to
// an in-memory one.
func New(opts ...Option) *Registry {
	r := &Registry{
		tags:      make(map[string]string),
		tagPrefix: DefaultTagPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = store.NewMemory()
	}
	return r
}

// Close releases the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}

// Define validates and stores a template set for the object named by
// nameExpr and the given definition kind, returning the resolved name
// and the stored version.
func (r *Registry) Define(kind string, nameExpr sexp.Node, templates []sexp.Node) (string, int, error) {
	name, err := objectName(nameExpr)
	if err != nil {
		return "", 0, err
	}
	if len(templates) == 0 {
		return "", 0, fmt.Errorf("no templates given for (%s %s)", kind, name)
	}
	for _, t := range templates {
		if err := patch.Validate(t); err != nil {
			return "", 0, fmt.Errorf("template for (%s %s): %w", kind, name, err)
		}
	}
	version, err := r.store.Put(name, kind, sexp.Format(templates))
	if err != nil {
		return "", 0, err
	}
	return name, version, nil
}

// Resolve applies the latest template set for (name, kind) to the
// located definition and returns the assembled patch form.
func (r *Registry) Resolve(name, kind string) (sexp.Node, error) {
	rec, err := r.store.Get(name, kind)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: (%s %s)", ErrTemplateNotFound, kind, name)
	}
	return r.resolveRecord(rec)
}

// ResolveVersion is Resolve against a specific stored version.
func (r *Registry) ResolveVersion(name, kind string, version int) (sexp.Node, error) {
	rec, err := r.store.GetVersion(name, kind, version)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: (%s %s) version %d", ErrVersionNotFound, kind, name, version)
	}
	return r.resolveRecord(rec)
}

func (r *Registry) resolveRecord(rec *store.Record) (sexp.Node, error) {
	if r.mode == LoadTime && r.warnw != nil {
		fmt.Fprintf(r.warnw, "sexpatch: resolving templates for (%s %s) at load time; build-time resolution avoids this cost\n",
			rec.Kind, rec.Name)
	}

	templates, err := reader.ParseString(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("stored templates for (%s %s): %w", rec.Kind, rec.Name, err)
	}
	candidates := make([]*patch.Candidate, len(templates))
	for i, t := range templates {
		c, err := patch.NewCandidate(t)
		if err != nil {
			return nil, err
		}
		candidates[i] = c
	}

	if r.locator == nil {
		return nil, fmt.Errorf("no definition locator configured")
	}
	def, err := r.locator.Locate(rec.Kind, rec.Name)
	if err != nil {
		return nil, err
	}
	defList, ok := def.(*sexp.List)
	if !ok {
		return nil, fmt.Errorf("definition (%s %s) is not a list form", rec.Kind, rec.Name)
	}

	resolved, err := patch.Select(defList.Items, candidates)
	if err != nil {
		return nil, fmt.Errorf("resolving (%s %s): %w", rec.Kind, rec.Name, err)
	}

	out := r.tagged(rec.Kind, resolved)
	if r.mode == BuildTime {
		if err := r.store.Delete(rec.Name, rec.Kind); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// tagged wraps the resolved definition elements as a directive-tagged
// node: the configured tag for the kind, or the default prefix plus the
// definition's head symbol, replacing that head.
func (r *Registry) tagged(kind string, resolved []sexp.Node) sexp.Node {
	tag := r.tags[kind]
	if tag == "" {
		tag = r.tagPrefix + kind
	}
	items := []sexp.Node{sexp.Symbol(tag)}
	if len(resolved) > 0 {
		if head, ok := resolved[0].(sexp.Symbol); ok && string(head) == kind {
			resolved = resolved[1:]
		}
	}
	return sexp.NewList(append(items, resolved...)...)
}

// objectName resolves an object name expression: a symbol, a string, or
// a (quote sym) form.
func objectName(nameExpr sexp.Node) (string, error) {
	switch n := nameExpr.(type) {
	case sexp.Symbol:
		return string(n), nil
	case sexp.Str:
		return string(n), nil
	case *sexp.List:
		if len(n.Items) == 2 {
			if q, ok := n.Items[0].(sexp.Symbol); ok && q == "quote" {
				return objectName(n.Items[1])
			}
		}
	}
	return "", fmt.Errorf("cannot resolve object name from %s", nameExpr)
}
