// Package validate holds the input rules shared by the HTTP layer and the
// services. Each rule returns a Result; callers collect field failures and
// turn them into an *Errors value.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"inkognito/internal/domain"
)

const (
	UsernameMin = 3
	UsernameMax = 20
	ContentMin  = 10
	ContentMax  = 300
	PasswordMin = 8
	CodeLength  = 6
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	codeRe     = regexp.MustCompile(`^[0-9]{6}$`)
)

// Result is the outcome of a single field rule. A zero Result is OK.
type Result struct {
	Field   string
	Message string
}

func (r Result) OK() bool { return r.Message == "" }

func fail(field, format string, args ...any) Result {
	return Result{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Errors is a set of field failures. It unwraps to domain.ErrInvalidInput.
type Errors struct {
	Fields map[string]string
}

func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *Errors) Unwrap() error { return domain.ErrInvalidInput }

// First returns the first failure message in field order.
func (e *Errors) First() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return e.Fields[keys[0]]
}

// Collect returns nil when every result is OK, otherwise an *Errors
// holding the first failure per field.
func Collect(results ...Result) error {
	var out *Errors
	for _, r := range results {
		if r.OK() {
			continue
		}
		if out == nil {
			out = &Errors{Fields: map[string]string{}}
		}
		if _, seen := out.Fields[r.Field]; !seen {
			out.Fields[r.Field] = r.Message
		}
	}
	if out == nil {
		return nil
	}
	return out
}

// FieldErrors extracts the field map from err, if it carries one.
func FieldErrors(err error) (map[string]string, bool) {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}

// NormalizeUsername is applied to every username before it is validated or
// looked up. Usernames are case-insensitive and stored lower-case, matching
// the citext columns in PostgreSQL.
func NormalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func Username(s string) Result {
	n := utf8.RuneCountInString(s)
	switch {
	case n < UsernameMin:
		return fail("username", "Username must be at least %d characters", UsernameMin)
	case n > UsernameMax:
		return fail("username", "Username must be no more than %d characters", UsernameMax)
	case !usernameRe.MatchString(s):
		return fail("username", "Username must not contain special characters")
	}
	return Result{}
}

func Content(s string) Result {
	n := utf8.RuneCountInString(s)
	switch {
	case n < ContentMin:
		return fail("content", "Content must be at least %d characters", ContentMin)
	case n > ContentMax:
		return fail("content", "Content must be no longer than %d characters", ContentMax)
	}
	return Result{}
}

func Email(s string) Result {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fail("email", "Invalid email address")
	}
	return Result{}
}

func Password(s string) Result {
	if utf8.RuneCountInString(s) < PasswordMin {
		return fail("password", "Password must be at least %d characters", PasswordMin)
	}
	return Result{}
}

func Code(s string) Result {
	if !codeRe.MatchString(s) {
		return fail("code", "Verification code must be %d digits", CodeLength)
	}
	return Result{}
}

func Required(field, s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail(field, "%s is required", field)
	}
	return Result{}
}
