package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Name returns the form used to compare player names case-insensitively.
func Name(name string) string {
	return folder.String(strings.TrimSpace(name))
}

// Email returns the form used to compare contact addresses.
func Email(email string) string {
	return folder.String(strings.TrimSpace(email))
}
