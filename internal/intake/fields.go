// Package intake turns source-specific webhook payloads into a FieldBag.
// Extraction never fails: a missing field is an empty string.
package intake

import (
	"fmt"
	"strings"
)

// Field names a FieldBag slot.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldLocation Field = "location"
	FieldPageURL  Field = "page_url"
)

// FieldBag is the intermediate record shared by every adapter.
type FieldBag struct {
	FullName     string
	Email        string
	Phone        string
	LocationHint string
	Notes        string
}

// IsEmpty reports whether none of the contact fields carry a value.
func (b FieldBag) IsEmpty() bool {
	return b.FullName == "" && b.Email == "" && b.Phone == "" && b.LocationHint == ""
}

// flatAliases lists the literal keys a site form may use for each field, in
// priority order.
var flatAliases = map[Field][]string{
	FieldName:     {"Name *", "Full Name", "Name", "name"},
	FieldEmail:    {"Email *", "Email", "email"},
	FieldPhone:    {"Phone *", "Phone", "phone"},
	FieldLocation: {"Select Location *", "Location", "location"},
	FieldPageURL:  {"pageUrl", "page_url"},
}

// labelKeywords are lower-case substrings matched against entry labels when
// the flat lookup found nothing.
var labelKeywords = map[Field][]string{
	FieldName:     {"name"},
	FieldEmail:    {"email"},
	FieldPhone:    {"phone", "tel"},
	FieldLocation: {"location", "campus", "school"},
}

// labelKeys are the attributes a labeled entry may carry its label under.
var labelKeys = []string{"label", "fieldLabel", "title"}

// lookupFlat returns the first non-empty value among field's aliases.
func lookupFlat(body map[string]any, field Field) string {
	for _, key := range flatAliases[field] {
		if v := stringify(body[key]); v != "" {
			return v
		}
	}
	return ""
}

// stringify renders scalar JSON values; anything else is treated as absent.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) == 0 {
			return ""
		}
		return strings.TrimSpace(val[0])
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64, int, int64:
		return fmt.Sprint(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}
