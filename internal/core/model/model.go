// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"strings"
)

const PlaceholderImageURL = "https://via.placeholder.com/400x200"

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Listing struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Rooms     int      `json:"rooms"`
	Bathrooms int      `json:"bathrooms"`
	Area      float64  `json:"area"`
	Price     string   `json:"price"`
	Type      string   `json:"type"`
	Location  Location `json:"location"`
	ImageURL  string   `json:"imageUrl,omitempty"`
}

// Image returns the display image, falling back to the placeholder.
func (l Listing) Image() string {
	if strings.TrimSpace(l.ImageURL) == "" {
		return PlaceholderImageURL
	}
	return l.ImageURL
}

var ErrInvalidListing = errors.New("invalid listing")

func (l Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidListing)
	case l.Rooms < 0:
		return fmt.Errorf("%w %q: rooms must be >= 0", ErrInvalidListing, l.ID)
	case l.Bathrooms < 0:
		return fmt.Errorf("%w %q: bathrooms must be >= 0", ErrInvalidListing, l.ID)
	case !(l.Area > 0):
		return fmt.Errorf("%w %q: area must be > 0", ErrInvalidListing, l.ID)
	case !(l.Location.Latitude >= -90 && l.Location.Latitude <= 90):
		return fmt.Errorf("%w %q: latitude must be in [-90,90]", ErrInvalidListing, l.ID)
	case !(l.Location.Longitude >= -180 && l.Location.Longitude <= 180):
		return fmt.Errorf("%w %q: longitude must be in [-180,180]", ErrInvalidListing, l.ID)
	}
	return nil
}

// ValidateSet checks every record and id uniqueness across the set.
func ValidateSet(ls []Listing) error {
	seen := make(map[string]struct{}, len(ls))
	for _, l := range ls {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, ok := seen[l.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidListing, l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

type CategoryKind int

const (
	Other CategoryKind = iota
	ForRent
	ForSale
)

const (
	TypeForRent = "À louer"
	TypeForSale = "À vendre"
)

// Category is a normalised view of the open-string listing type.
type Category struct {
	Kind CategoryKind
	Raw  string
}

func CategoryOf(t string) Category {
	switch t {
	case TypeForRent:
		return Category{Kind: ForRent, Raw: t}
	case TypeForSale:
		return Category{Kind: ForSale, Raw: t}
	default:
		return Category{Kind: Other, Raw: t}
	}
}

func (c Category) String() string {
	switch c.Kind {
	case ForRent:
		return "for_rent"
	case ForSale:
		return "for_sale"
	default:
		return "other"
	}
}

// FilterSpec holds optional criteria; empty fields are no-ops.
type FilterSpec struct {
	Location     string `json:"location,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	Status       string `json:"status,omitempty"`
	Rooms        string `json:"rooms,omitempty"`
	PriceRange   string `json:"priceRange,omitempty"`
	Area         string `json:"area,omitempty"`
}

func (f FilterSpec) IsEmpty() bool {
	return f == FilterSpec{}
}

type MapRegion struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// BBox returns the lon/lat rectangle covered by the region.
func (r MapRegion) BBox() BBox {
	return BBox{
		X1:   r.Longitude - r.LongitudeDelta/2,
		Y1:   r.Latitude - r.LatitudeDelta/2,
		X2:   r.Longitude + r.LongitudeDelta/2,
		Y2:   r.Latitude + r.LatitudeDelta/2,
		SRID: "EPSG:4326",
	}
}

type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String renders the bbox as x1,y1,x2,y2,srid, the form the bbox query parameter accepts.
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

func (b BBox) Contains(loc Location) bool {
	return loc.Longitude >= b.X1 && loc.Longitude <= b.X2 &&
		loc.Latitude >= b.Y1 && loc.Latitude <= b.Y2
}
