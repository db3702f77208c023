package email

import (
	"strings"
)

// Normalize trims the address and lower-cases it so that the same inbox
// compares equal across edits.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LooksValid reports whether a normalized address has the local@domain.tld
// shape. It does not attempt RFC 5322 parsing.
func LooksValid(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
