// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package reader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"nickandperla.net/sexpatch/internal/sexp"
	"nickandperla.net/sexpatch/internal/token"
)

// Reader parses s-expression forms from a stream.
type Reader struct {
	scan *Scanner
}

// New creates a Reader from an io.Reader.
func New(r io.Reader) *Reader {
	return &Reader{scan: NewScanner(r)}
}

// NewFromString creates a Reader from a string.
func NewFromString(s string) *Reader {
	return New(strings.NewReader(s))
}

// Read parses the next form. Returns io.EOF when the input is exhausted.
func (r *Reader) Read() (sexp.Node, error) {
	item, err := r.scan.Next()
	if err != nil {
		return nil, err
	}
	return r.readForm(item)
}

// ReadAll parses every remaining form.
func (r *Reader) ReadAll() ([]sexp.Node, error) {
	var forms []sexp.Node
	for {
		n, err := r.Read()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return nil, err
		}
		forms = append(forms, n)
	}
}

// ParseString parses every form in the given string.
func ParseString(s string) ([]sexp.Node, error) {
	return NewFromString(s).ReadAll()
}

// ParseOne parses exactly one form from the given string.
func ParseOne(s string) (sexp.Node, error) {
	r := NewFromString(s)
	n, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, err
	}
	if extra, err := r.Read(); err == nil {
		return nil, fmt.Errorf("unexpected extra form %s at line %d", extra, r.scan.Line())
	} else if err != io.EOF {
		return nil, err
	}
	return n, nil
}

func (r *Reader) readForm(item *Item) (sexp.Node, error) {
	switch item.Token {
	case token.EOF:
		return nil, io.EOF
	case token.LPAREN:
		items, err := r.readSequence(token.RPAREN, item.Line)
		if err != nil {
			return nil, err
		}
		return sexp.NewList(items...), nil
	case token.LBRACK:
		items, err := r.readSequence(token.RBRACK, item.Line)
		if err != nil {
			return nil, err
		}
		return sexp.NewVector(items...), nil
	case token.RPAREN, token.RBRACK:
		return nil, fmt.Errorf("unexpected %q at line %d", item.Value, item.Line)
	case token.STRING:
		v, err := strconv.Unquote(item.Value)
		if err != nil {
			return nil, fmt.Errorf("bad string literal at line %d: %v", item.Line, err)
		}
		return sexp.Str(v), nil
	default:
		return parseAtom(item.Value), nil
	}
}

func (r *Reader) readSequence(closer token.Token, openLine int) ([]sexp.Node, error) {
	var items []sexp.Node
	for {
		item, err := r.scan.Next()
		if err != nil {
			return nil, err
		}
		if item.Token == closer {
			return items, nil
		}
		if item.Token == token.EOF {
			return nil, fmt.Errorf("unexpected EOF: unterminated sequence starting at line %d", openLine)
		}
		n, err := r.readForm(item)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

// parseAtom interprets an unquoted atom as an Int, Float, Bool, or Symbol.
func parseAtom(s string) sexp.Node {
	switch s {
	case "#t":
		return sexp.Bool(true)
	case "#f":
		return sexp.Bool(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sexp.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return sexp.Float(f)
	}
	return sexp.Symbol(s)
}
