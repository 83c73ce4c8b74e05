// Package sexpatch resolves patch templates against s-expression
// definitions, producing directive trees that describe both the old
// and the new shape of a patched form.
package sexpatch

import (
	"fmt"
	"os"

	"nickandperla.net/sexpatch/internal/reader"
	"nickandperla.net/sexpatch/internal/registry"
	"nickandperla.net/sexpatch/internal/source"
	"nickandperla.net/sexpatch/internal/store"
)

// Patcher is the template resolution runtime.
type Patcher struct {
	registry *Registry
	store    store.Store
	storeErr error
	locator  source.Locator
	mode     registry.Mode
	tags     map[string]string
	prefix   string
	warnw    *warnTarget
}

// Registry is re-exported so callers holding a Patcher can reach the
// underlying define/resolve operations directly.
type Registry = registry.Registry

// New creates a new Patcher with the given options.
func New(opts ...Option) (*Patcher, error) {
	p := &Patcher{
		tags:   make(map[string]string),
		prefix: registry.DefaultTagPrefix,
		warnw:  &warnTarget{w: os.Stderr},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.storeErr != nil {
		return nil, p.storeErr
	}
	if p.store == nil {
		p.store = store.NewMemory()
	}

	regOpts := []registry.Option{
		registry.WithStore(p.store),
		registry.WithMode(p.mode),
		registry.WithTagPrefix(p.prefix),
		registry.WithWarnWriter(p.warnw),
	}
	if p.locator != nil {
		regOpts = append(regOpts, registry.WithLocator(p.locator))
	}
	for kind, tag := range p.tags {
		regOpts = append(regOpts, registry.WithTag(kind, tag))
	}
	p.registry = registry.New(regOpts...)
	return p, nil
}

// Define parses templateSrc as an object name expression followed by
// one or more template forms, validates the templates, and stores the
// set for the given definition kind. It returns the resolved name.
func (p *Patcher) Define(kind, templateSrc string) (string, error) {
	forms, err := reader.ParseString(templateSrc)
	if err != nil {
		return "", err
	}
	if len(forms) < 2 {
		return "", fmt.Errorf("expected a name expression followed by templates, got %d forms", len(forms))
	}
	name, _, err := p.registry.Define(kind, forms[0], forms[1:])
	return name, err
}

// DefineFile is Define reading the template source from a file.
func (p *Patcher) DefineFile(kind, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.Define(kind, string(data))
}

// Resolve applies the latest template set for (name, kind) against the
// located definition and returns the printed patch form.
func (p *Patcher) Resolve(name, kind string) (string, error) {
	n, err := p.registry.Resolve(name, kind)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// ResolveVersion is Resolve against a specific stored version.
func (p *Patcher) ResolveVersion(name, kind string, version int) (string, error) {
	n, err := p.registry.ResolveVersion(name, kind, version)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// Registry returns the underlying registry.
func (p *Patcher) Registry() *Registry {
	return p.registry
}

// Close releases resources.
func (p *Patcher) Close() error {
	return p.registry.Close()
}
