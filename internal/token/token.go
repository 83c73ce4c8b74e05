// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines s-expression token types and rune classification.
package token

// Token represents a token type.
type Token int

const (
	EOF Token = iota
	LPAREN
	RPAREN
	LBRACK
	RBRACK
	STRING
	ATOM
)

// Delimiter runes.
const (
	RuneLParen  = '('
	RuneRParen  = ')'
	RuneLBrack  = '['
	RuneRBrack  = ']'
	RuneQuote   = '"'
	RuneComment = ';'
)

// IsDelimiter returns true if the rune opens or closes a sequence.
func IsDelimiter(r rune) bool {
	switch r {
	case RuneLParen, RuneRParen, RuneLBrack, RuneRBrack:
		return true
	}
	return false
}

// TokenFromRune returns the token type for a delimiter rune.
func TokenFromRune(r rune) Token {
	switch r {
	case RuneLParen:
		return LPAREN
	case RuneRParen:
		return RPAREN
	case RuneLBrack:
		return LBRACK
	case RuneRBrack:
		return RBRACK
	}
	return ATOM
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACK:
		return "LBRACK"
	case RBRACK:
		return "RBRACK"
	case STRING:
		return "STRING"
	case ATOM:
		return "ATOM"
	}
	return "UNKNOWN"
}
