package leads

import (
	"slices"
	"strings"

	"github.com/wolfman30/lead-relay/internal/intake"
	"github.com/wolfman30/lead-relay/internal/locations"
	"github.com/wolfman30/lead-relay/internal/tenantconfig"
)

const (
	DefaultFirstName = "Lead"
	DefaultLastName  = "From Website"

	// GenericSource is used when no other source label is available.
	GenericSource = "Website"
)

// SplitName splits on whitespace runs: first token, then the rest joined by
// single spaces. Missing parts take the default names.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	first, last = DefaultFirstName, DefaultLastName
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

// NormalizePhone keeps digits and a leading plus. Exactly ten bare digits get
// countryCode prepended; anything else is returned as stripped.
func NormalizePhone(raw, countryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	if len(out) == 10 && !strings.HasPrefix(out, "+") {
		return countryCode + out
	}
	return out
}

// SourcePolicy decides which source label a lead carries.
type SourcePolicy struct {
	Configured string
	Force      bool
}

// Resolve returns the configured label when forced or approved, otherwise the
// first approved label, otherwise fallback (or GenericSource).
func (p SourcePolicy) Resolve(approved []string, fallback string) string {
	if p.Force && p.Configured != "" {
		return p.Configured
	}
	if p.Configured != "" && slices.Contains(approved, p.Configured) {
		return p.Configured
	}
	if len(approved) > 0 && approved[0] != "" {
		return approved[0]
	}
	if fallback != "" {
		return fallback
	}
	return GenericSource
}

// Normalizer assembles canonical leads.
type Normalizer struct {
	resolver    *locations.Resolver
	sources     SourcePolicy
	countryCode string
}

// NewNormalizer builds a normalizer. A nil resolver uses the default keywords.
func NewNormalizer(resolver *locations.Resolver, sources SourcePolicy, countryCode string) *Normalizer {
	if resolver == nil {
		resolver = locations.NewResolver(nil)
	}
	if countryCode == "" {
		countryCode = "+1"
	}
	return &Normalizer{resolver: resolver, sources: sources, countryCode: countryCode}
}

// Build combines the field bag with the tenant snapshot. matched reports
// whether the location came from the hint rather than the fallback.
func (n *Normalizer) Build(origin Origin, bag intake.FieldBag, snap tenantconfig.Snapshot) (lead Lead, matched bool) {
	fullName := strings.TrimSpace(bag.FullName)
	if fullName == "" {
		fullName = origin.DefaultFullName
	}
	lead.FirstName, lead.LastName = SplitName(fullName)

	lead.Phone = NormalizePhone(bag.Phone, n.countryCode)
	lead.Email = bag.Email
	lead.LocationLabel = strings.TrimSpace(bag.LocationHint)
	lead.LocationID, matched = n.resolver.ResolveID(lead.LocationLabel, snap.Locations)
	lead.Source = n.sources.Resolve(snap.Sources, origin.FallbackSource)
	lead.Notes = bag.Notes
	return lead, matched
}
