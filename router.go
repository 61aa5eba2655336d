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

// Statement router: inspects the leading keyword of a normalized
// statement and dispatches to the matching grammar. A leading WITH is
// skipped by scanning forward at parenthesis depth zero, so a CTE
// body's own SELECT is never mistaken for the outer statement kind.
package sqlens

// DetectKind reports which statement grammar the text belongs to.
// The input may be raw; it is normalized first.
func DetectKind(text string) StatementKind {
	return detectKindNorm(Normalize(text))
}

// detectKindNorm is DetectKind for already-normalized text.
func detectKindNorm(norm string) StatementKind {
	head, _ := NextToken(norm)
	if head == "WITH" {
		return detectAfterWith(norm)
	}
	return kindForKeyword(head)
}

// detectAfterWith scans past the WITH prefix, token by token, tracking
// parenthesis depth, and classifies by the first top-level statement
// keyword. Everything inside a CTE's parenthesized body sits at depth
// greater than zero and is ignored.
func detectAfterWith(norm string) StatementKind {
	depth := 0
	for _, t := range tokens(norm) {
		switch t {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			if depth == 0 {
				return kindForKeyword(t)
			}
		}
	}
	return KindUnknown
}

func kindForKeyword(kw string) StatementKind {
	switch kw {
	case "SELECT":
		return KindSelect
	case "INSERT":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	default:
		return KindUnknown
	}
}

// ParseStatement normalizes the statement text, routes it to the
// matching grammar, and returns the syntax tree. Failures are
// *ParseError values; no partial tree is ever returned. A trailing
// semicolon is tolerated, trailing text beyond the statement is not.
func ParseStatement(text string) (Statement, error) {
	norm := Normalize(text)
	norm = trimTrailingSemicolon(norm)
	if norm == "" {
		return nil, parseErrorf(ErrCodeEmptyStatement, "empty statement")
	}

	var (
		stmt Statement
		rest string
		err  *ParseError
	)
	switch detectKindNorm(norm) {
	case KindSelect:
		stmt, rest, err = parseSelect(norm)
	case KindInsert:
		stmt, rest, err = parseInsert(norm)
	case KindUpdate:
		stmt, rest, err = parseUpdate(norm)
	case KindDelete:
		stmt, rest, err = parseDelete(norm)
	default:
		head, _ := NextToken(norm)
		return nil, parseErrorf(ErrCodeUnknownStatement,
			"unsupported statement: expected SELECT, INSERT, UPDATE or DELETE but found %s", head)
	}
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, parseErrorf(ErrCodeTrailingInput, "unexpected input after statement: %q", rest)
	}
	return stmt, nil
}

// trimTrailingSemicolon drops a single statement-terminating ";".
func trimTrailingSemicolon(norm string) string {
	if len(norm) >= 2 && norm[len(norm)-2:] == " ;" {
		return norm[:len(norm)-2]
	}
	if norm == ";" {
		return ""
	}
	return norm
}
