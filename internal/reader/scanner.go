// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package reader provides a streaming Unicode-aware reader for
// s-expression forms.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"nickandperla.net/sexpatch/internal/token"
)

// Scanner tokenizes s-expression input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	peeked *Item
	line   int // Current line number (1-based)
}

// Item represents a scanned token with its value.
type Item struct {
	Token token.Token
	Value string
	Line  int // Line number where this token started
}

// NewScanner creates a new Scanner from an io.Reader.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Next returns the next token from the input.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}

	if err := s.skipSpaceAndComments(); err != nil {
		return nil, err
	}

	r, _, err := s.reader.ReadRune()
	if err == io.EOF {
		return &Item{Token: token.EOF, Line: s.line}, nil
	}
	if err != nil {
		return nil, err
	}

	if token.IsDelimiter(r) {
		return &Item{Token: token.TokenFromRune(r), Value: string(r), Line: s.line}, nil
	}
	if r == token.RuneQuote {
		return s.scanString()
	}

	s.reader.UnreadRune()
	return s.scanAtom()
}

// skipSpaceAndComments consumes whitespace and ; comments.
func (s *Scanner) skipSpaceAndComments() error {
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r == '\n' {
			s.line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		if r == token.RuneComment {
			for {
				r, _, err := s.reader.ReadRune()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if r == '\n' {
					s.line++
					break
				}
			}
			continue
		}
		s.reader.UnreadRune()
		return nil
	}
}

// scanString scans a double-quoted string. The opening quote has been
// consumed; the returned value includes both quotes so the reader can
// unquote it in one step.
func (s *Scanner) scanString() (*Item, error) {
	startLine := s.line
	s.buf.Reset()
	s.buf.WriteRune(token.RuneQuote)
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected EOF in string starting at line %d", startLine)
		}
		if err != nil {
			return nil, err
		}
		if r == '\n' {
			s.line++
		}
		s.buf.WriteRune(r)
		if r == '\\' {
			esc, _, err := s.reader.ReadRune()
			if err == io.EOF {
				return nil, fmt.Errorf("unexpected EOF in string starting at line %d", startLine)
			}
			if err != nil {
				return nil, err
			}
			if esc == '\n' {
				s.line++
			}
			s.buf.WriteRune(esc)
			continue
		}
		if r == token.RuneQuote {
			return &Item{Token: token.STRING, Value: s.buf.String(), Line: startLine}, nil
		}
	}
}

// scanAtom scans an unquoted atom up to whitespace, a delimiter, or a
// comment start.
func (s *Scanner) scanAtom() (*Item, error) {
	startLine := s.line
	s.buf.Reset()
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if unicode.IsSpace(r) || token.IsDelimiter(r) || r == token.RuneQuote || r == token.RuneComment {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
	}
	return &Item{Token: token.ATOM, Value: s.buf.String(), Line: startLine}, nil
}
