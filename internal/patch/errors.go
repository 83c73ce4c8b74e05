// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import "errors"

// errNoMatch is the internal control-flow signal for a failed match
// attempt. It is caught at every choice point (wildcard alternatives,
// selector probes) and must never escape a top-level operation; if it
// does, the caller reports an engine bug instead.
var errNoMatch = errors.New("no match")

// Error taxonomy for template selection and resolution. All are
// returned wrapped with context and checked with errors.Is.
var (
	// ErrAmbiguousTemplate means two or more templates match at the
	// same position of the definition.
	ErrAmbiguousTemplate = errors.New("ambiguous template")
	// ErrAmbiguousForm means a matched span's interior contains a
	// nested match against a different template.
	ErrAmbiguousForm = errors.New("form matching a template has subforms matching other templates")
	// ErrTemplateMatchedTwice means a template matched more than one
	// span of the definition.
	ErrTemplateMatchedTwice = errors.New("template matched twice")
	// ErrTemplateUnmatched means a template did not match any form.
	ErrTemplateUnmatched = errors.New("template did not match any form")
	// ErrIncompleteMatch means a required full match consumed only
	// part of its input.
	ErrIncompleteMatch = errors.New("incomplete match")
	// ErrInvalidBindingName means a patch-let binding name is not a
	// symbol.
	ErrInvalidBindingName = errors.New("invalid binding name")
	// ErrMalformedDirective means a directive node is missing required
	// operands or carries operands of the wrong shape. It is raised at
	// validation time, never during projection or matching.
	ErrMalformedDirective = errors.New("malformed directive")
)

// IsNoMatch reports whether err is the internal no-match signal.
// Exposed for tests only; production callers catch it at choice points.
func IsNoMatch(err error) bool {
	return errors.Is(err, errNoMatch)
}
