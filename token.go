/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Tokenizer/Normalizer.

The first stage of the pipeline turns raw SQL text into a normalized,
single-space-separated token string:

	Input:  "select id,name -- who\n from users"
	Output: "SELECT id , name FROM users"

Normalization strips comments, collapses whitespace, isolates the
structural punctuation "," "(" ")" and ";" as their own tokens, and
uppercases reserved keywords. Identifiers are never case-folded, and
the single word immediately following AS keeps its original casing so
aliases survive untouched.

Single-quoted string literals are atomic: their content is carried
verbatim - no padding, no case folding, no comment stripping - and a
literal is always one token even when it contains spaces, commas,
parens or semicolons. Two adjacent single quotes inside a literal are
the escaped quote.

Four primitives operate on normalized text and are shared by all four
statement parsers:

  - NextToken:    pop the leading token
  - StartsWith:   test the leading token
  - ExtractUntil: take tokens up to a top-level terminator keyword
  - SplitTopLevel: split on a separator token at parenthesis depth zero

ExtractUntil and SplitTopLevel track parenthesis nesting, so a
terminator or separator inside an unbalanced "(...)" group is never
treated as a boundary. Depth is an ordinary int; nesting is unbounded.
*/
package sqlens

import "strings"

// reservedKeywords is the fixed keyword set recognized by the
// normalizer. Matching is done on whole words, case-insensitively, and
// the matched word is rewritten in its canonical uppercase form.
var reservedKeywords = map[string]bool{
	"SELECT": true, "DISTINCT": true, "FROM": true, "WHERE": true,
	"GROUP": true, "BY": true, "HAVING": true, "ORDER": true,
	"LIMIT": true, "OFFSET": true, "AS": true, "ON": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "OUTER": true, "CROSS": true,
	"UNION": true, "ALL": true, "INTERSECT": true, "EXCEPT": true,
	"WITH": true, "INSERT": true, "INTO": true, "VALUES": true,
	"UPDATE": true, "SET": true, "DELETE": true, "USING": true,
	"RETURNING": true, "CONFLICT": true, "DO": true, "NOTHING": true,
	"CONSTRAINT": true, "EXCLUDED": true, "OLD": true, "NEW": true,
	"AND": true, "OR": true, "NOT": true, "NULL": true,
	"TRUE": true, "FALSE": true, "IS": true, "IN": true,
	"LIKE": true, "BETWEEN": true, "ASC": true, "DESC": true,
	"DEFAULT": true,
	"COUNT":   true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// aggregateFuncs are the aggregate call heads the SELECT grammar
// recognizes in a column list.
var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// Normalize turns raw SQL text into the canonical token string all
// parsers consume. The steps, in order: strip "--" line comments and
// "/* */" block comments, collapse tabs/newlines/CRs to spaces, pad
// "," "(" ")" ";" with spaces, collapse space runs, then uppercase
// every word in the reserved-keyword set except the single word
// immediately following an AS token. Text inside single-quoted
// literals is exempt from every step and carried verbatim.
func Normalize(text string) string {
	s := stripComments(text)

	var b strings.Builder
	b.Grow(len(s) + 16)
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' {
			inQuote = !inQuote
			b.WriteByte(c)
			continue
		}
		if inQuote {
			b.WriteByte(c)
			continue
		}
		switch c {
		case '\t', '\r', '\n':
			b.WriteByte(' ')
		case ',', '(', ')', ';':
			b.WriteByte(' ')
			b.WriteByte(c)
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}

	words := tokens(b.String())
	prevWasAS := false
	for i, w := range words {
		if prevWasAS {
			// Alias position: original casing is preserved.
			prevWasAS = false
			continue
		}
		upper := strings.ToUpper(w)
		if reservedKeywords[upper] {
			words[i] = upper
		}
		prevWasAS = words[i] == "AS"
	}
	return strings.Join(words, " ")
}

// stripComments removes "--" line comments and "/* */" block comments.
// An unterminated block comment runs to the end of the input. Comment
// markers inside single-quoted literals are literal text.
func stripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inQuote := false
	for i := 0; i < len(text); {
		if text[i] == '\'' {
			inQuote = !inQuote
			b.WriteByte(text[i])
			i++
			continue
		}
		if inQuote {
			b.WriteByte(text[i])
			i++
			continue
		}
		if text[i] == '-' && i+1 < len(text) && text[i+1] == '-' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}
		if text[i] == '/' && i+1 < len(text) && text[i+1] == '*' {
			i += 2
			for i < len(text) && !(text[i] == '*' && i+1 < len(text) && text[i+1] == '/') {
				i++
			}
			if i < len(text) {
				i += 2
			}
			// Comments separate tokens, so leave a space behind.
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

// NextToken pops the leading token off normalized text and returns it
// together with the remaining text. A quoted literal is one token even
// when it contains spaces. An empty input yields ("", "").
func NextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return "", ""
	}
	i := tokenEnd(s, 0)
	return s[:i], strings.TrimLeft(s[i:], " ")
}

// tokenEnd scans normalized text from a non-space position and returns
// the index just past the token starting there, treating single-quoted
// spans as part of the token.
func tokenEnd(s string, start int) int {
	inQuote := false
	i := start
	for i < len(s) {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == ' ' && !inQuote:
			return i
		}
		i++
	}
	return i
}

// StartsWith reports whether the leading token of normalized text
// equals tok. Comparison is exact: keywords are already uppercased.
func StartsWith(s, tok string) bool {
	head, _ := NextToken(s)
	return head == tok
}

// ExtractUntil walks normalized text token by token and stops at the
// first token that is in terminators and sits at parenthesis depth
// zero. It returns the segment before the terminator and the rest of
// the text starting at the terminator itself. If no terminator occurs,
// the whole input is the segment and the rest is empty.
func ExtractUntil(s string, terminators map[string]bool) (string, string) {
	toks := tokens(s)
	depth := 0
	for i, t := range toks {
		switch t {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && terminators[t] {
				return strings.Join(toks[:i], " "), strings.Join(toks[i:], " ")
			}
		}
	}
	return strings.Join(toks, " "), ""
}

// SplitTopLevel splits normalized text on the separator token at
// parenthesis depth zero. Separators inside "(...)" groups are part of
// their segment. Segments are returned trimmed; an empty input yields
// no segments, but empty segments between two separators are kept so
// callers can report malformed lists.
func SplitTopLevel(s, sep string) []string {
	toks := tokens(s)
	if len(toks) == 0 {
		return nil
	}
	var out []string
	var cur []string
	depth := 0
	for _, t := range toks {
		switch t {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && t == sep {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
			continue
		}
		cur = append(cur, t)
	}
	return append(out, strings.Join(cur, " "))
}

// SplitStatements normalizes a script and splits it into individual
// statements on top-level semicolons, dropping empty segments. Used by
// the batch checker; single-statement callers never need it.
func SplitStatements(script string) []string {
	var out []string
	for _, seg := range SplitTopLevel(Normalize(script), ";") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// tokens splits normalized text into its space-separated tokens,
// keeping each quoted literal whole.
func tokens(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		if s[i] == ' ' {
			i++
			continue
		}
		j := tokenEnd(s, i)
		out = append(out, s[i:j])
		i = j
	}
	return out
}

// extractGroup consumes a leading "(" group from normalized text and
// returns the inner text (without the outer parens) and the rest after
// the matching ")". The group must be balanced.
func extractGroup(s string) (string, string, *ParseError) {
	toks := tokens(s)
	if len(toks) == 0 || toks[0] != "(" {
		found := "end of input"
		if len(toks) > 0 {
			found = toks[0]
		}
		return "", "", parseErrorf(ErrCodeUnexpectedToken, "expected ( but found %s", found)
	}
	depth := 0
	for i, t := range toks {
		switch t {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return strings.Join(toks[1:i], " "), strings.Join(toks[i+1:], " "), nil
			}
		}
	}
	return "", "", parseErrorf(ErrCodeUnbalancedParens, "unbalanced parentheses in %q", s)
}

// isIdentToken reports whether tok can serve as an identifier: not a
// reserved keyword, not punctuation, and not a literal.
func isIdentToken(tok string) bool {
	if tok == "" || reservedKeywords[tok] {
		return false
	}
	switch tok[0] {
	case '(', ')', ',', ';', '\'', '$', ':', '=', '<', '>', '!', '*':
		return false
	}
	if tok[0] >= '0' && tok[0] <= '9' {
		return false
	}
	return true
}

// unquote strips surrounding double quotes from a quoted identifier.
// Quoted identifiers keep their exact casing; unquoted ones are never
// case-folded either, so this only removes the quote characters.
func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return ident[1 : len(ident)-1]
	}
	return ident
}
