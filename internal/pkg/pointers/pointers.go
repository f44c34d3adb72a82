package pointers

import "strings"

func Int(v int) *int          { return &v }
func String(v string) *string { return &v }

// NonBlank trims s and returns nil when nothing is left, which gorm writes as
// NULL. Optional profile columns (ticket_number, real_name, memos) use it so
// an empty form field clears the column instead of storing "".
func NonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
