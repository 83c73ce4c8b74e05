// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"nickandperla.net/sexpatch/internal/sexp"
)

// Matcher matches template trees against concrete forms and resolves
// directives into assembled patch nodes. A Matcher's scope is one
// top-level match or select invocation; it is not safe for concurrent
// use.
type Matcher struct {
	binds *Bindings
	// literal counts enclosing patch-literal bodies. While positive,
	// directive tags and the wildcard are matched as plain data.
	literal int
}

// NewMatcher creates a Matcher with an empty binding table.
func NewMatcher() *Matcher {
	return &Matcher{binds: NewBindings()}
}

// MatchSpan matches template elements against the leading elements of
// form. It returns the assembled output elements covering the whole
// template and the unconsumed remainder of form. A non-empty remainder
// is the caller's concern: the selector scans for sub-spans and accepts
// it, while nested sequences demand full consumption.
func (m *Matcher) MatchSpan(form, template []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	if len(template) == 0 {
		return nil, form, nil
	}
	head := template[0]

	if m.literal == 0 {
		if sym, ok := head.(sexp.Symbol); ok && sym == Wildcard {
			return m.matchWildcard(form, template)
		}
		if k, d, ok := directiveOf(head); ok {
			out, rest, err := m.resolveDirective(k, d, form)
			if err != nil {
				return nil, nil, err
			}
			tail, rest, err := m.MatchSpan(rest, template[1:])
			if err != nil {
				return nil, nil, err
			}
			return append(out, tail...), rest, nil
		}
	}

	if len(form) == 0 {
		return nil, nil, errNoMatch
	}
	got, err := m.matchTree(form[0], head)
	if err != nil {
		return nil, nil, err
	}
	tail, rest, err := m.MatchSpan(form[1:], template[1:])
	if err != nil {
		return nil, nil, err
	}
	return append([]sexp.Node{got}, tail...), rest, nil
}

// matchWildcard implements greedy-first-then-backtrack wildcard
// semantics: absorb the next form element, prefer extending the capture
// by retrying the still-wildcard-led template against the tail, and
// only when that whole chain fails settle for the capture so far and
// match the rest of the template. The wildcard always absorbs at least
// one element.
func (m *Matcher) matchWildcard(form, template []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	if len(form) == 0 {
		return nil, nil, errNoMatch
	}
	mark := m.binds.Mark()
	out, rest, err := m.MatchSpan(form[1:], template)
	if err == nil {
		return append([]sexp.Node{form[0]}, out...), rest, nil
	}
	if !errors.Is(err, errNoMatch) {
		return nil, nil, err
	}
	m.binds.Rollback(mark)
	out, rest, err = m.MatchSpan(form[1:], template[1:])
	if err != nil {
		return nil, nil, err
	}
	return append([]sexp.Node{form[0]}, out...), rest, nil
}

// matchTree matches a single template tree against a single form tree
// and returns the assembled output tree.
func (m *Matcher) matchTree(f, t sexp.Node) (sexp.Node, error) {
	if m.literal == 0 {
		if k, d, ok := directiveOf(t); ok {
			return m.matchDirectiveTree(f, k, d)
		}
		if name, ok := t.(sexp.Symbol); ok {
			if entry, bound := m.binds.lookup(name); bound {
				return m.matchBound(f, name, entry)
			}
		}
	}

	switch tt := t.(type) {
	case *sexp.List:
		fl, ok := f.(*sexp.List)
		if !ok {
			return nil, errNoMatch
		}
		out, err := m.matchFull(fl.Items, tt.Items)
		if err != nil {
			return nil, err
		}
		return sexp.NewList(out...), nil
	case *sexp.Vector:
		fv, ok := f.(*sexp.Vector)
		if !ok {
			return nil, errNoMatch
		}
		out, err := m.matchFull(fv.Items, tt.Items)
		if err != nil {
			return nil, err
		}
		return sexp.NewVector(out...), nil
	default:
		if sexp.Equal(f, t) {
			return t, nil
		}
		return nil, errNoMatch
	}
}

// matchFull matches a template sequence against a form sequence,
// requiring the form to be fully consumed.
func (m *Matcher) matchFull(form, template []sexp.Node) ([]sexp.Node, error) {
	out, rest, err := m.MatchSpan(form, template)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errNoMatch
	}
	return out, nil
}

// matchDirectiveTree handles a directive appearing where exactly one
// tree is expected (e.g. a swap operand): it must consume exactly one
// form element and assemble exactly one output node.
func (m *Matcher) matchDirectiveTree(f sexp.Node, k Kind, d *sexp.List) (sexp.Node, error) {
	out, rest, err := m.resolveDirective(k, d, []sexp.Node{f})
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 || len(out) != 1 {
		return nil, errNoMatch
	}
	return out[0], nil
}

// matchBound matches a form element against a let-bound name. The first
// occurrence performs a full match against the declared value and
// records the result; every later occurrence is an independent match
// demanding exact equality with the recorded tree.
func (m *Matcher) matchBound(f sexp.Node, name sexp.Symbol, entry *binding) (sexp.Node, error) {
	if entry.resolved != nil {
		if !sexp.Equal(f, entry.resolved) {
			return nil, errNoMatch
		}
		return name, nil
	}
	got, err := m.matchTree(f, entry.declared)
	if err != nil {
		return nil, err
	}
	m.binds.resolve(name, got)
	return name, nil
}

// resolveDirective matches a directive's operands against the leading
// elements of form and assembles the output capture. The returned
// elements replace the directive in the captured span; the remainder is
// form advanced past whatever the directive consumed.
func (m *Matcher) resolveDirective(k Kind, d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	switch k {
	case Swap:
		return m.resolveSwap(d, form)
	case Wrap:
		return m.resolveWrap(d, form)
	case Splice:
		return m.resolveSplice(d, form)
	case Let:
		return m.resolveLet(d, form)
	case Concat:
		return m.resolveConcat(d, form)
	case Literal:
		return m.resolveLiteral(d, form)
	case Remove:
		return m.resolveRemove(d, form)
	case Add:
		// Adds nothing to the old form; the operands are inserted
		// verbatim by the new projection.
		return []sexp.Node{d}, form, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown directive kind %d", ErrMalformedDirective, k)
}

func (m *Matcher) resolveSwap(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	if len(d.Items) != 3 {
		return nil, nil, fmt.Errorf("%w: %s expects exactly (old new)", ErrMalformedDirective, TagSwap)
	}
	if len(form) == 0 {
		return nil, nil, errNoMatch
	}
	got, err := m.matchTree(form[0], d.Items[1])
	if err != nil {
		return nil, nil, err
	}
	out := sexp.NewList(TagSwap, got, d.Items[2])
	return []sexp.Node{out}, form[1:], nil
}

func (m *Matcher) resolveWrap(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	trimL, trimR, body, err := wrapArgs(d)
	if err != nil {
		return nil, nil, err
	}
	boundL := body.Items[:trimL]
	boundR := body.Items[len(body.Items)-trimR:]
	inner := body.Items[trimL : len(body.Items)-trimR]

	captured, rest, err := m.MatchSpan(form, inner)
	if err != nil {
		return nil, nil, err
	}
	reassembled := make([]sexp.Node, 0, len(boundL)+len(captured)+len(boundR))
	reassembled = append(reassembled, boundL...)
	reassembled = append(reassembled, captured...)
	reassembled = append(reassembled, boundR...)
	out := sexp.NewList(TagWrap, sexp.Int(trimL), sexp.Int(trimR), sexp.NewList(reassembled...))
	return []sexp.Node{out}, rest, nil
}

func (m *Matcher) resolveSplice(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	trimL, trimR, body, err := wrapArgs(d)
	if err != nil {
		return nil, nil, err
	}
	if len(form) == 0 {
		return nil, nil, errNoMatch
	}
	got, err := m.matchTree(form[0], body)
	if err != nil {
		return nil, nil, err
	}
	out := sexp.NewList(TagSplice, sexp.Int(trimL), sexp.Int(trimR), got)
	return []sexp.Node{out}, form[1:], nil
}

func (m *Matcher) resolveLet(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	bindings, body, err := letArgs(d)
	if err != nil {
		return nil, nil, err
	}
	mark := m.binds.Mark()
	shadowed := make([]*binding, len(bindings))
	for i, b := range bindings {
		shadowed[i] = m.binds.install(b.name, b.value)
	}
	captured, rest, err := m.MatchSpan(form, body)
	if err != nil {
		m.binds.Rollback(mark)
		return nil, nil, err
	}

	// Assemble the resolved bindings list before the scope is popped:
	// the matched value when the name was matched, the declared value
	// when it never was. Popping restores only this scope's names, so
	// resolutions of enclosing names made inside the body survive.
	resolved := make([]sexp.Node, 0, len(bindings))
	for i, b := range bindings {
		entry, _ := m.binds.lookup(b.name)
		value := b.value
		if entry != nil && entry.resolved != nil {
			value = entry.resolved
		}
		resolved = append(resolved, sexp.NewList(b.name, value))
		m.binds.restore(b.name, shadowed[i])
	}

	items := append([]sexp.Node{TagLet, sexp.NewList(resolved...)}, captured...)
	return []sexp.Node{sexp.NewList(items...)}, rest, nil
}

// resolveConcat matches a string atom against the directive's parts by
// compiling them into a single anchored pattern: literal parts are
// quoted verbatim, each wildcard becomes a greedy capturing group that
// crosses line breaks. Groups capture leftmost-first, left to right, so
// an earlier wildcard absorbs as much as the remaining literals allow.
func (m *Matcher) resolveConcat(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	if len(form) == 0 {
		return nil, nil, errNoMatch
	}
	str, ok := form[0].(sexp.Str)
	if !ok {
		return nil, nil, errNoMatch
	}

	parts := d.Items[1:]
	var pat strings.Builder
	pat.WriteString(`\A`)
	for _, part := range parts {
		switch p := part.(type) {
		case sexp.Str:
			pat.WriteString(regexp.QuoteMeta(string(p)))
		case sexp.Symbol:
			if p != Wildcard {
				return nil, nil, fmt.Errorf("%w: %s part %s is neither a string nor %s",
					ErrMalformedDirective, TagConcat, p, Wildcard)
			}
			pat.WriteString(`((?s).*)`)
		default:
			return nil, nil, fmt.Errorf("%w: %s part %s is neither a string nor %s",
				ErrMalformedDirective, TagConcat, part, Wildcard)
		}
	}
	pat.WriteString(`\z`)
	re, err := regexp.Compile(pat.String())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s pattern: %v", ErrMalformedDirective, TagConcat, err)
	}
	groups := re.FindStringSubmatch(string(str))
	if groups == nil {
		return nil, nil, errNoMatch
	}

	// Rebuild the part list with every wildcard replaced by its
	// captured substring.
	items := []sexp.Node{TagConcat}
	g := 1
	for _, part := range parts {
		if sym, ok := part.(sexp.Symbol); ok && sym == Wildcard {
			items = append(items, sexp.Str(groups[g]))
			g++
			continue
		}
		items = append(items, part)
	}
	return []sexp.Node{sexp.NewList(items...)}, form[1:], nil
}

func (m *Matcher) resolveLiteral(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	m.literal++
	captured, rest, err := m.MatchSpan(form, d.Items[1:])
	m.literal--
	if err != nil {
		return nil, nil, err
	}
	items := append([]sexp.Node{TagLiteral}, captured...)
	return []sexp.Node{sexp.NewList(items...)}, rest, nil
}

func (m *Matcher) resolveRemove(d *sexp.List, form []sexp.Node) ([]sexp.Node, []sexp.Node, error) {
	captured, rest, err := m.MatchSpan(form, d.Items[1:])
	if err != nil {
		return nil, nil, err
	}
	items := append([]sexp.Node{TagRemove}, captured...)
	return []sexp.Node{sexp.NewList(items...)}, rest, nil
}
