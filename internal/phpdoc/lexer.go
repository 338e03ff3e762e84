package phpdoc

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdentifier
	tokVariable
	tokThis
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind   tokenKind
	value  string
	offset int
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.value == punct
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of type"
	}
	return fmt.Sprintf("%q", t.value)
}

// tokenize splits a doc type expression into tokens
func tokenize(text string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case strings.HasPrefix(text[i:], "..."):
			tokens = append(tokens, token{kind: tokPunct, value: "...", offset: i})
			i += 3

		case strings.HasPrefix(text[i:], "::"):
			tokens = append(tokens, token{kind: tokPunct, value: "::", offset: i})
			i += 2

		case strings.ContainsRune("|&?[]<>(){},:=*", rune(c)):
			tokens = append(tokens, token{kind: tokPunct, value: string(c), offset: i})
			i++

		case c == '$':
			end := i + 1
			for end < len(text) && isIdentifierChar(text[end], false) {
				end++
			}
			value := text[i:end]
			kind := tokVariable
			if value == "$this" {
				kind = tokThis
			}
			tokens = append(tokens, token{kind: kind, value: value, offset: i})
			i = end

		case c == '\'' || c == '"':
			end := i + 1
			for end < len(text) && text[end] != c {
				if text[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(text) {
				return nil, fmt.Errorf("%w: unterminated string at offset %d in %q", ErrMalformedType, i, text)
			}
			tokens = append(tokens, token{kind: tokString, value: text[i+1 : end], offset: i})
			i = end + 1

		case c == '-' || (c >= '0' && c <= '9'):
			end := i + 1
			for end < len(text) && (text[end] >= '0' && text[end] <= '9' || text[end] == '.' || text[end] == '_') {
				end++
			}
			if c == '-' && end == i+1 {
				return nil, fmt.Errorf("%w: unexpected '-' at offset %d in %q", ErrMalformedType, i, text)
			}
			tokens = append(tokens, token{kind: tokNumber, value: text[i:end], offset: i})
			i = end

		case isIdentifierChar(c, true):
			end := i + 1
			for end < len(text) && isIdentifierChar(text[end], false) {
				end++
			}
			tokens = append(tokens, token{kind: tokIdentifier, value: text[i:end], offset: i})
			i = end

		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d in %q", ErrMalformedType, c, i, text)
		}
	}

	return append(tokens, token{kind: tokEOF, offset: len(text)}), nil
}

func isIdentifierChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '\\', c >= 0x80:
		return true
	case c >= '0' && c <= '9', c == '-':
		return !first
	}
	return false
}
