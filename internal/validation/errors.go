// Package validation decodes request input and checks it against struct
// rules, reporting failures as per-field messages.
package validation

import (
	"strings"
	"unicode"
)

// FieldError is one failed rule for one input key.
type FieldError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Errors lists field failures in input order, at most one per key.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error)
	}
	return strings.Join(parts, " ")
}

// Has reports whether key already failed.
func (e Errors) Has(key string) bool {
	for _, fe := range e {
		if fe.Key == key {
			return true
		}
	}
	return false
}

// Add records msg for key unless key already failed.
func (e *Errors) Add(key, msg string) {
	if e.Has(key) {
		return
	}
	*e = append(*e, FieldError{Key: key, Error: msg})
}

// Merge adds every error of other that does not clash with an existing key.
func (e *Errors) Merge(other Errors) {
	for _, fe := range other {
		e.Add(fe.Key, fe.Error)
	}
}

// Empty reports whether no rule failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Err returns e as an error, or nil when empty.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Label renders a key for messages: "group_id" becomes "group id", while
// nested keys like "friends.0.user_id" stay verbatim.
func Label(key string) string {
	if strings.Contains(key, ".") {
		return key
	}
	return strings.ReplaceAll(key, "_", " ")
}

// Rule messages, keyed by input name.

func Required(key string) string { return "The " + Label(key) + " field is required." }
func Integer(key string) string  { return "The " + Label(key) + " must be an integer." }
func Numeric(key string) string  { return "The " + Label(key) + " must be a number." }
func Invalid(key string) string  { return "The selected " + Label(key) + " is invalid." }
func Taken(key string) string    { return "The " + Label(key) + " has already been taken." }
func Date(key string) string     { return "The " + Label(key) + " is not a valid date." }
func Array(key string) string    { return "The " + Label(key) + " must be an array." }
func String(key string) string   { return "The " + Label(key) + " must be a string." }
func Boolean(key string) string  { return "The " + Label(key) + " field must be true or false." }

// AfterOrEqual is the message for a date that precedes other.
func AfterOrEqual(key, other string) string {
	return "The " + Label(key) + " must be a date after or equal to " + Label(other) + "."
}

// Same is the message for a confirmation field that differs from other.
func Same(key, other string) string {
	return "The " + Label(key) + " and " + Label(other) + " must match."
}

// snake converts a Go field name to its snake_case key.
func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
