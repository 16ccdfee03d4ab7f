// Package locations maps free-text location answers onto the tenant's
// location identifiers.
package locations

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a tenant site. ID is opaque and must be passed through untouched.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Keyword is a distinguishing place-name fragment and the score it adds when
// both the hint and a location name contain it.
type Keyword struct {
	Term   string
	Weight int
}

// DefaultKeywords ranks the most distinctive fragments highest so that a
// specific neighbourhood beats a city name shared by several sites.
var DefaultKeywords = []Keyword{
	{Term: "ahwatukee", Weight: 20},
	{Term: "midtown", Weight: 18},
	{Term: "moon", Weight: 16},
	{Term: "mesa", Weight: 14},
	{Term: "scottsdale", Weight: 12},
	{Term: "phoenix", Weight: 10},
	{Term: "valley", Weight: 6},
	{Term: "32nd", Weight: 6},
}

// Resolver scores hints against location names using a keyword table.
type Resolver struct {
	keywords []Keyword
}

// NewResolver builds a resolver. A nil or empty table uses DefaultKeywords.
func NewResolver(keywords []Keyword) *Resolver {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	normalized := make([]Keyword, 0, len(keywords))
	for _, kw := range keywords {
		term := strings.ToLower(strings.TrimSpace(kw.Term))
		if term == "" || kw.Weight <= 0 {
			continue
		}
		normalized = append(normalized, Keyword{Term: term, Weight: kw.Weight})
	}
	return &Resolver{keywords: normalized}
}

// Keywords returns a copy of the resolver's table.
func (r *Resolver) Keywords() []Keyword {
	out := make([]Keyword, len(r.keywords))
	copy(out, r.keywords)
	return out
}

// Score returns the cumulative weight of keywords found in both hint and name.
func (r *Resolver) Score(hint, name string) int {
	h := strings.ToLower(hint)
	n := strings.ToLower(name)
	score := 0
	for _, kw := range r.keywords {
		if strings.Contains(h, kw.Term) && strings.Contains(n, kw.Term) {
			score += kw.Weight
		}
	}
	return score
}

// Resolve returns the highest scoring candidate. Ties keep the earliest
// candidate. ok is false when the hint is blank or nothing scores above zero.
func (r *Resolver) Resolve(hint string, candidates []Location) (Location, bool) {
	if strings.TrimSpace(hint) == "" {
		return Location{}, false
	}
	var (
		best      Location
		bestScore int
	)
	for _, loc := range candidates {
		if score := r.Score(hint, loc.Name); score > bestScore {
			best, bestScore = loc, score
		}
	}
	if bestScore == 0 {
		return Location{}, false
	}
	return best, true
}

// ResolveID resolves hint to an identifier, falling back to the first
// candidate. It returns "" only when candidates is empty.
func (r *Resolver) ResolveID(hint string, candidates []Location) (id string, matched bool) {
	if loc, ok := r.Resolve(hint, candidates); ok {
		return loc.ID, true
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].ID, false
}

// ParseKeywords parses "term:weight,term:weight" into a keyword table.
func ParseKeywords(raw string) ([]Keyword, error) {
	var out []Keyword
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term, weightStr, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("locations: keyword %q missing weight", part)
		}
		term = strings.TrimSpace(term)
		weight, err := strconv.Atoi(strings.TrimSpace(weightStr))
		if err != nil {
			return nil, fmt.Errorf("locations: keyword %q: %w", part, err)
		}
		if term == "" || weight <= 0 {
			return nil, fmt.Errorf("locations: keyword %q must have a term and positive weight", part)
		}
		out = append(out, Keyword{Term: term, Weight: weight})
	}
	return out, nil
}
