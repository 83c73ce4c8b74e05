// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import (
	"errors"
	"fmt"

	"nickandperla.net/sexpatch/internal/sexp"
)

// Candidate is a template prepared for selection: the directive tree as
// written, its old projection computed once, and a matched flag that
// flips exactly once when the selector commits a span.
type Candidate struct {
	Template sexp.Node
	oldProj  []sexp.Node
	matched  bool
}

// NewCandidate validates a template and computes its old projection.
func NewCandidate(template sexp.Node) (*Candidate, error) {
	if err := Validate(template); err != nil {
		return nil, err
	}
	return &Candidate{
		Template: template,
		oldProj:  ProjectSeq(template, Old),
	}, nil
}

// Matched reports whether the selector has committed this candidate.
func (c *Candidate) Matched() bool {
	return c.matched
}

// Select locates, for each candidate, the unique contiguous span of the
// definition elements its old projection matches, resolves the span
// through the full directive match, and returns the definition with
// every matched span replaced by its assembled directive nodes.
// Elements matching no candidate are copied through with their own
// sub-trees searched recursively. Overlap, ambiguity, double matches,
// and leftover unmatched candidates are fatal.
func Select(definition []sexp.Node, candidates []*Candidate) ([]sexp.Node, error) {
	out, err := selectSeq(definition, candidates)
	if err != nil {
		if errors.Is(err, errNoMatch) {
			// A choice point was missed: engine bug, not a user error.
			return nil, fmt.Errorf("internal: unmatched no-match signal escaped selection: %w", err)
		}
		return nil, err
	}
	for _, c := range candidates {
		if !c.matched {
			return nil, fmt.Errorf("%w: %s", ErrTemplateUnmatched, c.Template)
		}
	}
	return out, nil
}

func selectSeq(seq []sexp.Node, candidates []*Candidate) ([]sexp.Node, error) {
	var out []sexp.Node
	i := 0
	for i < len(seq) {
		rest := seq[i:]
		hit, hitN, err := probeAll(rest, candidates)
		if err != nil {
			return nil, err
		}
		if hit == nil {
			replaced, err := selectInto(seq[i], candidates)
			if err != nil {
				return nil, err
			}
			out = append(out, replaced)
			i++
			continue
		}

		span := rest[:hitN]
		if err := checkInterior(span, candidates, hit); err != nil {
			return nil, err
		}
		hit.matched = true

		m := NewMatcher()
		captured, remainder, err := m.MatchSpan(span, []sexp.Node{hit.Template})
		if err != nil && !errors.Is(err, errNoMatch) {
			return nil, err
		}
		if err != nil || len(remainder) != 0 {
			// The old projection agreed with this span but the full
			// directive match did not consume it (a binding constraint
			// only the real match enforces, for instance).
			return nil, fmt.Errorf("%w: template %s against span at element %d",
				ErrIncompleteMatch, hit.Template, i)
		}
		out = append(out, captured...)
		i += hitN
	}
	return out, nil
}

// probeAll probes every candidate's old projection against the leading
// elements of rest. Exactly one candidate may match; a second
// concurrent match is ambiguous, and a match by an already-committed
// candidate is a double match.
func probeAll(rest []sexp.Node, candidates []*Candidate) (*Candidate, int, error) {
	var hit *Candidate
	hitN := 0
	for _, c := range candidates {
		n, ok := probe(rest, c.oldProj)
		if !ok {
			continue
		}
		if c.matched {
			return nil, 0, fmt.Errorf("%w: %s", ErrTemplateMatchedTwice, c.Template)
		}
		if hit != nil {
			return nil, 0, fmt.Errorf("%w: %s and %s both match at the same position",
				ErrAmbiguousTemplate, hit.Template, c.Template)
		}
		hit, hitN = c, n
	}
	return hit, hitN, nil
}

// probe runs the span matcher in count mode: no substitution is kept,
// only how many leading elements of rest the projection would consume.
// An empty consumption (a template whose old projection is empty) never
// counts as a match.
func probe(rest []sexp.Node, proj []sexp.Node) (int, bool) {
	m := NewMatcher()
	_, remainder, err := m.MatchSpan(rest, proj)
	if err != nil {
		return 0, false
	}
	n := len(rest) - len(remainder)
	if n == 0 {
		return 0, false
	}
	return n, true
}

// checkInterior verifies that no candidate other than hit matches any
// strict sub-tree of the span about to be committed. A nested match
// across templates is fatal ambiguity, not a silent pick.
func checkInterior(span []sexp.Node, candidates []*Candidate, hit *Candidate) error {
	others := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c != hit {
			others = append(others, c)
		}
	}
	// Overlap at the top level: another candidate matching partway
	// into the span would straddle the commit boundary.
	for j := 1; j < len(span); j++ {
		for _, c := range others {
			if _, ok := probe(span[j:], c.oldProj); ok {
				return fmt.Errorf("%w: %s overlaps a committed span", ErrAmbiguousForm, c.Template)
			}
		}
	}
	for _, node := range span {
		if err := checkSubtrees(node, others); err != nil {
			return err
		}
	}
	return nil
}

func checkSubtrees(node sexp.Node, others []*Candidate) error {
	var items []sexp.Node
	switch n := node.(type) {
	case *sexp.List:
		items = n.Items
	case *sexp.Vector:
		items = n.Items
	default:
		return nil
	}
	for i := range items {
		for _, c := range others {
			if _, ok := probe(items[i:], c.oldProj); ok {
				return fmt.Errorf("%w: %s matches inside a committed span", ErrAmbiguousForm, c.Template)
			}
		}
	}
	for _, it := range items {
		if err := checkSubtrees(it, others); err != nil {
			return err
		}
	}
	return nil
}

// selectInto copies an unmatched element, recursing into its children
// to look for matches at deeper levels.
func selectInto(node sexp.Node, candidates []*Candidate) (sexp.Node, error) {
	switch n := node.(type) {
	case *sexp.List:
		items, err := selectSeq(n.Items, candidates)
		if err != nil {
			return nil, err
		}
		return sexp.NewList(items...), nil
	case *sexp.Vector:
		items, err := selectSeq(n.Items, candidates)
		if err != nil {
			return nil, err
		}
		return sexp.NewVector(items...), nil
	}
	return node, nil
}
