package domain

import "strings"

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }

// Optional converts form input to an optional field: blank input becomes nil.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
