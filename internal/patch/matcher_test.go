// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package patch

import (
	"testing"

	"nickandperla.net/sexpatch/internal/reader"
	"nickandperla.net/sexpatch/internal/sexp"
)

// parse is a test helper for building trees from source text.
func parse(t *testing.T, src string) sexp.Node {
	t.Helper()
	n, err := reader.ParseOne(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return n
}

func items(t *testing.T, src string) []sexp.Node {
	t.Helper()
	l, ok := parse(t, src).(*sexp.List)
	if !ok {
		t.Fatalf("parse %q: not a list", src)
	}
	return l.Items
}

// matchList matches a template list against a form list and returns the
// printed output.
func matchList(t *testing.T, formSrc, templateSrc string) (string, error) {
	t.Helper()
	m := NewMatcher()
	out, err := m.matchTree(parse(t, formSrc), parse(t, templateSrc))
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func TestWildcardGreedy(t *testing.T) {
	got, err := matchList(t, "(a x y z b)", "(a ... b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(a x y z b)" {
		t.Errorf("expected full capture, got %s", got)
	}
}

func TestWildcardBacktracks(t *testing.T) {
	// The wildcard over-consumes both b elements first and must back
	// off so the trailing template b still has one to match.
	got, err := matchList(t, "(b b)", "(... b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(b b)" {
		t.Errorf("expected (b b), got %s", got)
	}
}

func TestWildcardNeedsAtLeastOne(t *testing.T) {
	_, err := matchList(t, "(a b)", "(a ... b)")
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestWildcardConsumesRestWhenTrailing(t *testing.T) {
	got, err := matchList(t, "(f 1 2 3)", "(f ...)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(f 1 2 3)" {
		t.Errorf("expected (f 1 2 3), got %s", got)
	}
}

func TestAtomMismatch(t *testing.T) {
	_, err := matchList(t, "(a b)", "(a c)")
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestVectorOnlyMatchesVector(t *testing.T) {
	m := NewMatcher()
	if _, err := m.matchTree(parse(t, "(1 2)"), parse(t, "[1 2]")); !IsNoMatch(err) {
		t.Errorf("vector template against list form: expected no-match, got %v", err)
	}
	out, err := m.matchTree(parse(t, "[1 2]"), parse(t, "[1 2]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "[1 2]" {
		t.Errorf("expected [1 2], got %s", out)
	}
}

func TestVectorDemandsFullConsumption(t *testing.T) {
	m := NewMatcher()
	if _, err := m.matchTree(parse(t, "[1 2 3]"), parse(t, "[1 2]")); !IsNoMatch(err) {
		t.Errorf("expected no-match on partial vector, got %v", err)
	}
}

func TestSwapMatchesOldKeepsNew(t *testing.T) {
	got, err := matchList(t, "(f x)", "(f (patch-swap x y))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(f (patch-swap x y))" {
		t.Errorf("expected resolved swap, got %s", got)
	}
}

func TestSwapRejectsOtherForms(t *testing.T) {
	_, err := matchList(t, "(f z)", "(f (patch-swap x y))")
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestWrapMatchesInnerRun(t *testing.T) {
	got, err := matchList(t, "(defun f x y)", "(defun f (patch-wrap 2 (when c x y)))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(defun f (patch-wrap 2 0 (when c x y)))" {
		t.Errorf("got %s", got)
	}
}

func TestWrapCapturesWildcardRun(t *testing.T) {
	got, err := matchList(t, "(defun f x y z)", "(defun f (patch-wrap 2 (when c ...)))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(defun f (patch-wrap 2 0 (when c x y z)))" {
		t.Errorf("got %s", got)
	}
}

func TestSpliceMatchesWholeBody(t *testing.T) {
	got, err := matchList(t, "(defun f (when c x y))", "(defun f (patch-splice 2 (when c x y)))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(defun f (patch-splice 2 0 (when c x y)))" {
		t.Errorf("got %s", got)
	}
}

func TestLetConsistentOccurrences(t *testing.T) {
	// v is declared as (f ...); both occurrences must match the same
	// concrete tree.
	got, err := matchList(t, "(g (f 1 2) (f 1 2))", "(g (patch-let ((v (f ...))) v v))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(g (patch-let ((v (f 1 2))) v v))"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLetInconsistentOccurrences(t *testing.T) {
	_, err := matchList(t, "(g (f 1 2) (f 3))", "(g (patch-let ((v (f ...))) v v))")
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestLetUnmatchedNameKeepsDeclared(t *testing.T) {
	got, err := matchList(t, "(g x)", "(g (patch-let ((v (f 1))) x))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(g (patch-let ((v (f 1))) x))"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLetScopePopsAfterBody(t *testing.T) {
	// v outside the let body is an ordinary symbol again.
	got, err := matchList(t, "(g p v)", "(g (patch-let ((v p)) v) v)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(g (patch-let ((v p)) v) v)"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestConcatCapturesMiddle(t *testing.T) {
	got, err := matchList(t, `(f "foo-mid-bar")`, `(f (patch-concat "foo" ... "bar"))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `(f (patch-concat "foo" "-mid-" "bar"))`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestConcatAnchorsTrailingLiteral(t *testing.T) {
	// The trailing "bar" literal anchors at the end of the string, so
	// the wildcard captures the first "bar", not the empty string.
	got, err := matchList(t, `(f "foobarbar")`, `(f (patch-concat "foo" ... "bar"))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `(f (patch-concat "foo" "bar" "bar"))`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestConcatCrossesLineBreaks(t *testing.T) {
	got, err := matchList(t, "(f \"a\\nb\")", `(f (patch-concat "a" ...))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `(f (patch-concat "a" "\nb"))`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestConcatRejectsNonString(t *testing.T) {
	_, err := matchList(t, "(f 42)", `(f (patch-concat "foo" ...))`)
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestConcatDemandsWholeString(t *testing.T) {
	_, err := matchList(t, `(f "xfoo")`, `(f (patch-concat "foo" ...))`)
	if !IsNoMatch(err) {
		t.Fatalf("expected no-match, got %v", err)
	}
}

func TestLiteralSuppressesDirectives(t *testing.T) {
	// Inside patch-literal, a swap directive is matched as plain data.
	got, err := matchList(t, "(f (patch-swap a b))", "(f (patch-literal (patch-swap a b)))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(f (patch-literal (patch-swap a b)))"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if _, err := matchList(t, "(f a)", "(f (patch-literal (patch-swap a b)))"); !IsNoMatch(err) {
		t.Errorf("literal swap should not match its old operand, got %v", err)
	}
}

func TestLiteralSuppressesWildcard(t *testing.T) {
	got, err := matchList(t, "(f ...)", "(f (patch-literal ...))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "(f (patch-literal ...))" {
		t.Errorf("got %s", got)
	}
	if _, err := matchList(t, "(f x)", "(f (patch-literal ...))"); !IsNoMatch(err) {
		t.Errorf("literal wildcard should only match the ... symbol, got %v", err)
	}
}

func TestRemoveConsumesRun(t *testing.T) {
	got, err := matchList(t, "(f x y w)", "(f (patch-remove x y) w)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(f (patch-remove x y) w)"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestAddConsumesNothing(t *testing.T) {
	got, err := matchList(t, "(f x w)", "(f x (patch-add y z) w)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(f x (patch-add y z) w)"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNestedDirectives(t *testing.T) {
	got, err := matchList(t,
		"(defun f (message lo))",
		"(defun f (patch-swap (message (patch-let ((lvl lo)) lvl)) (log lvl)))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(defun f (patch-swap (message (patch-let ((lvl lo)) lvl)) (log lvl)))"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestBindingsRollbackAcrossWildcardBacktrack(t *testing.T) {
	// The wildcard first absorbs too much, resolving v against the
	// wrong element inside the failed attempt; the retry must see a
	// clean table and bind v to w.
	got, err := matchList(t, "(g q w w)", "(g ... (patch-let ((v w)) v v))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(g q (patch-let ((v w)) v v))"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
