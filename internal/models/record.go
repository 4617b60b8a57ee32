package models

import "strings"

// Record is the flat key/value bag of applicant and case data as stored in
// the case collection. Values are strings, numbers, booleans, timestamps or
// nested maps.
type Record map[string]any

// Value returns the raw value stored under key.
func (r Record) Value(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Present reports whether key holds a value that counts as filled in:
// not absent, not nil and not an empty string.
func (r Record) Present(key string) bool {
	v, ok := r.Value(key)
	if !ok {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// String returns the value under key when it is a non-blank string.
func (r Record) String(key string) (string, bool) {
	v, ok := r.Value(key)
	if !ok {
		return "", false
	}
	s, isString := v.(string)
	if !isString || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
