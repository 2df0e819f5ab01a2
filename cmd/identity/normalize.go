package identity

import "strings"

// NormalizeUsername is the case-insensitive comparison key for usernames.
// It must agree with LOWER(username) in SQL.
func NormalizeUsername(s string) string {
	return strings.ToLower(s)
}

// NormalizeEmail is the case-insensitive comparison key for emails.
func NormalizeEmail(s string) string {
	return strings.ToLower(s)
}
