// Package listing defines the data-access contract for property listings.
//
// Every backend returns results in the store's natural order, never repeats
// an id within one result, and reports a missing id as (zero, false, nil).
// Errors are reserved for failures of the backing store itself.
package listing

import (
	"context"
	"slices"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/textmatch"
)

type Repository interface {
	FetchAll(ctx context.Context) ([]model.Listing, error)
	FetchByID(ctx context.Context, id string) (model.Listing, bool, error)
	SearchByText(ctx context.Context, query string) ([]model.Listing, error)
}

// Writer is implemented by stores whose content can change between queries.
type Writer interface {
	Put(ctx context.Context, l model.Listing) error
	Delete(ctx context.Context, id string) error
}

type Store interface {
	Repository
	Writer
}

// MatchesText reports whether the title or the type contains query, ignoring case.
func MatchesText(l model.Listing, query string) bool {
	return textmatch.AnyContains(query, l.Title, l.Type)
}

// Search filters listings by MatchesText, keeping order. Backends without a
// native text search use it over their full snapshot.
func Search(listings []model.Listing, query string) []model.Listing {
	if query == "" {
		return slices.Clone(listings)
	}
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if MatchesText(l, query) {
			out = append(out, l)
		}
	}
	return out
}

// Seed returns the fixed listing set the service starts with.
func Seed() []model.Listing {
	return []model.Listing{
		{
			ID: "1", Title: "Appart 12", Rooms: 1, Bathrooms: 1, Area: 100,
			Price: "100000 F CFA", Type: model.TypeForRent,
			Location: model.Location{Latitude: 6.1352, Longitude: 1.2217},
		},
		{
			ID: "2", Title: "Villa 5", Rooms: 3, Bathrooms: 2, Area: 150,
			Price: "200000 F CFA", Type: model.TypeForSale,
			Location: model.Location{Latitude: 6.1375, Longitude: 1.224},
		},
		{
			ID: "3", Title: "Studio 7", Rooms: 1, Bathrooms: 1, Area: 50,
			Price: "75000 F CFA", Type: model.TypeForRent,
			Location: model.Location{Latitude: 6.133, Longitude: 1.22},
		},
		{
			ID: "4", Title: "Maison 23", Rooms: 4, Bathrooms: 3, Area: 200,
			Price: "300000 F CFA", Type: model.TypeForSale,
			Location: model.Location{Latitude: 6.136, Longitude: 1.223},
		},
		{
			ID: "5", Title: "Duplex 8", Rooms: 2, Bathrooms: 2, Area: 120,
			Price: "150000 F CFA", Type: model.TypeForRent,
			Location: model.Location{Latitude: 6.134, Longitude: 1.221},
		},
	}
}
