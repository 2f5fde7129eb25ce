// Package region derives map viewports that frame a set of listings.
package region

import (
	"errors"
	"math"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

const (
	// PaddingFactor inflates the bounding span so edge markers are not clipped.
	PaddingFactor = 1.1
	// MinDelta is the smallest span, in degrees, of a computed region.
	MinDelta = 0.02
	// DetailDelta is the span used when a single listing is shown on its own.
	DetailDelta = 0.005

	defaultLatDelta = 0.0922
	defaultLngDelta = 0.0421
)

// ErrEmptyInput is returned by Compute when there is nothing to frame.
var ErrEmptyInput = errors.New("region: no listings to frame")

// Compute returns the padded bounding region of all listing locations.
func Compute(listings []model.Listing) (model.MapRegion, error) {
	if len(listings) == 0 {
		return model.MapRegion{}, ErrEmptyInput
	}

	first := listings[0].Location
	minLat, maxLat := first.Latitude, first.Latitude
	minLng, maxLng := first.Longitude, first.Longitude
	for _, l := range listings[1:] {
		minLat = math.Min(minLat, l.Location.Latitude)
		maxLat = math.Max(maxLat, l.Location.Latitude)
		minLng = math.Min(minLng, l.Location.Longitude)
		maxLng = math.Max(maxLng, l.Location.Longitude)
	}

	return model.MapRegion{
		Latitude:       (minLat + maxLat) / 2,
		Longitude:      (minLng + maxLng) / 2,
		LatitudeDelta:  math.Max((maxLat-minLat)*PaddingFactor, MinDelta),
		LongitudeDelta: math.Max((maxLng-minLng)*PaddingFactor, MinDelta),
	}, nil
}

// ComputeOr is Compute with a fallback for an empty set.
func ComputeOr(listings []model.Listing, fallback model.MapRegion) model.MapRegion {
	r, err := Compute(listings)
	if err != nil {
		return fallback
	}
	return r
}

// ForListing centres a DetailDelta-wide region on a single listing.
func ForListing(l model.Listing) model.MapRegion {
	return model.MapRegion{
		Latitude:       l.Location.Latitude,
		Longitude:      l.Location.Longitude,
		LatitudeDelta:  DetailDelta,
		LongitudeDelta: DetailDelta,
	}
}

// DefaultRegion is the initial viewport around a device position.
func DefaultRegion(lat, lng float64) model.MapRegion {
	return model.MapRegion{
		Latitude:       lat,
		Longitude:      lng,
		LatitudeDelta:  defaultLatDelta,
		LongitudeDelta: defaultLngDelta,
	}
}
