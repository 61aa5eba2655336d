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
Error taxonomy for the analysis pipeline.

There are two independent error channels:

  - ParseError: the statement text is syntactically malformed. Parsing
    short-circuits at the first failure; no partial tree is produced.
  - MatchError: the syntax is fine but a name in the statement cannot
    be resolved against the schema. The matcher may embed MatchErrors
    in an otherwise successful result (one bad column among several);
    the validator surfaces the first one and stops.

Each error carries an ErrorCode so callers can branch programmatically
without string matching. Codes are grouped by range: 1000-1999 for
syntax, 2000-2999 for resolution.
*/
package sqlens

import "fmt"

// ErrorCode identifies a specific failure class.
type ErrorCode int

const (
	// Syntax errors (1000-1999)
	ErrCodeSyntax           ErrorCode = 1000
	ErrCodeEmptyStatement   ErrorCode = 1001
	ErrCodeUnknownStatement ErrorCode = 1002
	ErrCodeMissingKeyword   ErrorCode = 1003
	ErrCodeUnexpectedToken  ErrorCode = 1004
	ErrCodeMalformedList    ErrorCode = 1005
	ErrCodeUnbalancedParens ErrorCode = 1006
	ErrCodeTrailingInput    ErrorCode = 1007

	// Resolution errors (2000-2999)
	ErrCodeResolution       ErrorCode = 2000
	ErrCodeSchemaNotFound   ErrorCode = 2001
	ErrCodeTableNotFound    ErrorCode = 2002
	ErrCodeColumnNotFound   ErrorCode = 2003
	ErrCodeAliasNotFound    ErrorCode = 2004
	ErrCodeNotNumeric       ErrorCode = 2005
	ErrCodeArityMismatch    ErrorCode = 2006
	ErrCodeConflictTarget   ErrorCode = 2007
	ErrCodeEmptySubquery    ErrorCode = 2008
	ErrCodeRelationEndpoint ErrorCode = 2009
)

// ParseError reports a syntax failure. The message names the expected
// construct and what was found instead.
type ParseError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

// parseErrorf builds a *ParseError with a formatted message.
func parseErrorf(code ErrorCode, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// MatchError reports a single resolution failure: a schema, table,
// alias or column that the statement names but the schema does not
// define, or an aggregate applied to a non-numeric argument.
type MatchError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	return "match error: " + e.Message
}

func matchErrorf(code ErrorCode, format string, args ...any) *MatchError {
	return &MatchError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidateError is the validator's first semantic failure. Validation
// stops at the first error; there is no partial reporting.
type ValidateError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *ValidateError) Error() string {
	return e.Message
}

func validateErrorf(code ErrorCode, format string, args ...any) *ValidateError {
	return &ValidateError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// asValidateError converts a MatchError raised during strict context
// building into the validator's error channel.
func asValidateError(err *MatchError) *ValidateError {
	return &ValidateError{Code: err.Code, Message: err.Message}
}
