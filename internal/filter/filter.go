// Package filter narrows a listing set by a structured FilterSpec.
package filter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/textmatch"
)

// RoomsAtLeast is the room count that selects the "3+" bucket.
const RoomsAtLeast = 3

// Apply returns the listings matching every non-empty criterion of spec, in
// input order. The input slice is never modified; an empty spec returns it
// as is.
//
// PriceRange and Area are carried by FilterSpec but not evaluated.
func Apply(listings []model.Listing, spec model.FilterSpec) []model.Listing {
	if spec.IsEmpty() {
		return listings
	}
	m := compile(spec)
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if m.match(l) {
			out = append(out, l)
		}
	}
	return out
}

type matcher struct {
	spec     model.FilterSpec
	location string
	rooms    roomRule
}

type roomRule struct {
	set   bool
	valid bool
	n     int
}

func compile(spec model.FilterSpec) matcher {
	m := matcher{spec: spec}
	if spec.Location != "" {
		m.location = textmatch.Lower(spec.Location)
	}
	if spec.Rooms != "" {
		n, ok := ParseLeadingInt(spec.Rooms)
		m.rooms = roomRule{set: true, valid: ok, n: n}
	}
	return m
}

func (m matcher) match(l model.Listing) bool {
	if m.location != "" && !strings.Contains(textmatch.Lower(l.Title), m.location) {
		return false
	}
	if m.spec.PropertyType != "" && l.Type != m.spec.PropertyType {
		return false
	}
	if m.spec.Status != "" && l.Type != m.spec.Status {
		return false
	}
	if m.rooms.set {
		// an unparsable room value matches nothing
		if !m.rooms.valid {
			return false
		}
		if m.rooms.n == RoomsAtLeast {
			return l.Rooms >= RoomsAtLeast
		}
		return l.Rooms == m.rooms.n
	}
	return true
}

// ParseLeadingInt reads an optionally signed integer prefix after leading
// whitespace, ignoring whatever follows ("3+" is 3). ok is false when there
// are no digits or the value does not fit an int.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, false
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Active lists the names of the criteria spec sets, including the inert ones.
func Active(spec model.FilterSpec) []string {
	var out []string
	add := func(name, v string) {
		if v != "" {
			out = append(out, name)
		}
	}
	add("location", spec.Location)
	add("propertyType", spec.PropertyType)
	add("status", spec.Status)
	add("rooms", spec.Rooms)
	add("priceRange", spec.PriceRange)
	add("area", spec.Area)
	return out
}
