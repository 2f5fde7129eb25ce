package h3mapper

import (
	"fmt"
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/mapper"
)

const DefaultRes = 9

type Mapper struct {
	res int
}

var _ mapper.Interface = (*Mapper)(nil)

// New returns a mapper indexing listings at res; out-of-range values fall
// back to DefaultRes.
func New(res int) *Mapper {
	if validateRes(res) != nil {
		res = DefaultRes
	}
	return &Mapper{res: res}
}

func (m *Mapper) Res() int { return m.res }

// Within returns the listings located inside bb, in input order.
//
// Listings are bucketed by cell and a bucket is skipped when its cell cannot
// reach bb; every listing in the remaining buckets is point-tested. Work is
// bounded by the number of listings, never by the area of bb.
func (m *Mapper) Within(listings []model.Listing, bb model.BBox) ([]model.Listing, error) {
	if len(listings) == 0 {
		return []model.Listing{}, nil
	}
	buckets := make(map[h3.Cell][]int, len(listings))
	for i, l := range listings {
		c, err := cellFor(l.Location, m.res)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", l.ID, err)
		}
		buckets[c] = append(buckets[c], i)
	}

	var hits []int
	for c, members := range buckets {
		reach, err := mayOverlap(c, bb)
		if err != nil {
			return nil, err
		}
		if !reach {
			continue
		}
		for _, i := range members {
			if bb.Contains(listings[i].Location) {
				hits = append(hits, i)
			}
		}
	}
	sort.Ints(hits)

	out := make([]model.Listing, 0, len(hits))
	for _, i := range hits {
		out = append(out, listings[i])
	}
	return out, nil
}

// mayOverlap reports whether any point of cell c can lie inside bb. The
// cell's vertex extent is padded by its own span since edges are geodesic;
// cells crossing the antimeridian or covering a pole always qualify.
func mayOverlap(c h3.Cell, bb model.BBox) (bool, error) {
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return false, fmt.Errorf("h3 cell boundary: %w", err)
	}
	if len(b) == 0 {
		return true, nil
	}
	minLat, maxLat := b[0].Lat, b[0].Lat
	minLng, maxLng := b[0].Lng, b[0].Lng
	for _, v := range b[1:] {
		minLat = math.Min(minLat, v.Lat)
		maxLat = math.Max(maxLat, v.Lat)
		minLng = math.Min(minLng, v.Lng)
		maxLng = math.Max(maxLng, v.Lng)
	}
	if maxLng-minLng > 180 {
		return true, nil
	}
	padLat, padLng := maxLat-minLat, maxLng-minLng
	return minLng-padLng <= bb.X2 && maxLng+padLng >= bb.X1 &&
		minLat-padLat <= bb.Y2 && maxLat+padLat >= bb.Y1, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func cellFor(loc model.Location, res int) (h3.Cell, error) {
	if err := validateRes(res); err != nil {
		return 0, err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, res)
	if err != nil {
		return 0, fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return c, nil
}
