// Package mapper narrows listing sets to map viewports.
package mapper

import (
	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

// Interface returns the listings located inside bb, in input order.
type Interface interface {
	Within(listings []model.Listing, bb model.BBox) ([]model.Listing, error)
}
