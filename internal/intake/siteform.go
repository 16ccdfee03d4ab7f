package intake

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// LabeledEntry is one field of an array-shaped site form submission.
type LabeledEntry struct {
	Label string
	Value string
}

// SiteForm is a decoded site form body. Flat holds top-level keys; Entries
// holds the optional "data" array.
type SiteForm struct {
	Flat    map[string]any
	Entries []LabeledEntry
}

// SiteFormFromJSON interprets a decoded JSON object.
func SiteFormFromJSON(body map[string]any) SiteForm {
	if body == nil {
		body = map[string]any{}
	}
	form := SiteForm{Flat: body}
	raw, _ := body["data"].([]any)
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		form.Entries = append(form.Entries, labeledEntry(obj))
	}
	return form
}

// entryKey matches bracketed array keys such as data[0][label].
var entryKey = regexp.MustCompile(`^data\[(\d+)\]\[([A-Za-z]+)\]$`)

// SiteFormFromValues interprets an urlencoded form body. Bracketed
// data[N][label|fieldLabel|title|value] keys become labeled entries in
// index order.
func SiteFormFromValues(values url.Values) SiteForm {
	flat := make(map[string]any, len(values))
	indexed := map[int]map[string]any{}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		m := entryKey.FindStringSubmatch(key)
		if m == nil {
			flat[key] = vals[0]
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if indexed[idx] == nil {
			indexed[idx] = map[string]any{}
		}
		indexed[idx][m[2]] = vals[0]
	}

	form := SiteForm{Flat: flat}
	indexes := make([]int, 0, len(indexed))
	for idx := range indexed {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)
	for _, idx := range indexes {
		form.Entries = append(form.Entries, labeledEntry(indexed[idx]))
	}
	return form
}

func labeledEntry(obj map[string]any) LabeledEntry {
	entry := LabeledEntry{Value: stringify(obj["value"])}
	for _, key := range labelKeys {
		if label := stringify(obj[key]); label != "" {
			entry.Label = label
			break
		}
	}
	return entry
}

// SiteFormAdapter extracts a FieldBag from site form submissions.
type SiteFormAdapter struct{}

// Extract tries the flat aliases first; if none of the contact fields are
// present it scans the labeled entries, first match per field.
func (SiteFormAdapter) Extract(form SiteForm) FieldBag {
	pageURL := lookupFlat(form.Flat, FieldPageURL)
	bag := FieldBag{
		FullName:     lookupFlat(form.Flat, FieldName),
		Email:        lookupFlat(form.Flat, FieldEmail),
		Phone:        lookupFlat(form.Flat, FieldPhone),
		LocationHint: lookupFlat(form.Flat, FieldLocation),
	}
	if bag.IsEmpty() {
		bag = FieldBag{
			FullName:     lookupLabeled(form.Entries, FieldName),
			Email:        lookupLabeled(form.Entries, FieldEmail),
			Phone:        lookupLabeled(form.Entries, FieldPhone),
			LocationHint: lookupLabeled(form.Entries, FieldLocation),
		}
	}
	bag.Notes = "From Duda | " + pageURL
	return bag
}

func lookupLabeled(entries []LabeledEntry, field Field) string {
	keywords := labelKeywords[field]
	for _, entry := range entries {
		label := strings.ToLower(entry.Label)
		for _, kw := range keywords {
			if strings.Contains(label, kw) {
				return entry.Value
			}
		}
	}
	return ""
}
