// Package jsonrepair is a best-effort fixer for near-valid JSON produced
// by truncated or sloppy model generations: trailing commas, unterminated
// strings, unbalanced braces, and bare control characters inside string
// values.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Repair attempts to coerce candidate into parseable JSON. Strategies are
// applied cumulatively, cheapest first, re-validating after each:
//
//  1. parse as-is (valid input is returned unchanged)
//  2. strip trailing commas before } and ]
//  3. close an unterminated string before the nearest structural character
//  4. append closers for unmatched { and [
//  5. escape bare control characters inside string values
//
// The second return value is false when no strategy yields parseable JSON;
// callers should fall back to the original string and surface a warning.
// Repair never panics.
func Repair(candidate string) (string, bool) {
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}

	s := candidate
	for _, fix := range []func(string) string{
		stripTrailingCommas,
		closeUnterminatedString,
		balanceBrackets,
		escapeControlChars,
	} {
		s = fix(s)
		if json.Valid([]byte(s)) {
			return s, true
		}
	}

	// Control-character escaping can expose a trailing comma or an
	// unbalanced bracket that the earlier passes scanned past while the
	// string state was confused. One more round picks those up.
	s = balanceBrackets(stripTrailingCommas(s))
	if json.Valid([]byte(s)) {
		return s, true
	}

	return "", false
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket, ignoring commas inside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			// Look past whitespace for a closer.
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// closeUnterminatedString detects a string literal left open at the end of
// the scan and inserts a closing quote before the nearest structural
// character that follows it, or at the end of input if none exists.
func closeUnterminatedString(s string) string {
	openAt := -1
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			openAt = i
		}
	}
	if !inString {
		return s
	}

	// Walk forward from the opening quote looking for a structural
	// character that plausibly ends the value.
	for i := openAt + 1; i < len(s); i++ {
		switch s[i] {
		case ',', '}', ']':
			return s[:i] + `"` + s[i:]
		}
	}
	return s + `"`
}

// balanceBrackets appends closers for unmatched { and [, tracking string
// state so braces inside string values are not counted as structural. A
// dangling comma before the appended closers is dropped.
func balanceBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return s
	}

	trimmed := strings.TrimRight(s, " \t\n\r")
	trimmed = strings.TrimSuffix(trimmed, ",")

	var b strings.Builder
	b.WriteString(trimmed)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// escapeControlChars escapes literal control characters (newlines, tabs,
// etc.) that appear inside string literals, where strict JSON forbids them.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
