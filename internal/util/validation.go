package util

import (
	"regexp"
)

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// identifierRegex matches plain SQL identifiers. Quoted or schema-qualified
// names are rejected on purpose: table names arriving in URLs are only ever
// interpolated after passing this check.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

func IsValidIdentifier(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	return identifierRegex.MatchString(s)
}
