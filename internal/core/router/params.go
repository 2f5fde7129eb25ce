package router

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

// ParseFilterSpec reads the six filter criteria from the query string.
// Values are passed through as sent; interpretation belongs to the filter
// engine.
func ParseFilterSpec(r *http.Request) model.FilterSpec {
	q := r.URL.Query()
	return model.FilterSpec{
		Location:     q.Get("location"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Rooms:        q.Get("rooms"),
		PriceRange:   q.Get("priceRange"),
		Area:         q.Get("area"),
	}
}

// viewport reads the bbox parameter, or failing that a map region.
func viewport(r *http.Request) (model.BBox, error) {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("bbox")); raw != "" {
		return parseBBOX(raw)
	}
	if q.Get("latitude") == "" && q.Get("longitude") == "" {
		return model.BBox{}, errors.New("missing required parameter: bbox (or latitude, longitude, latitudeDelta, longitudeDelta)")
	}
	reg, err := parseRegion(q.Get("latitude"), q.Get("longitude"), q.Get("latitudeDelta"), q.Get("longitudeDelta"))
	if err != nil {
		return model.BBox{}, err
	}
	return clamp(reg.BBox()), nil
}

func parseRegion(lat, lng, latDelta, lngDelta string) (model.MapRegion, error) {
	var reg model.MapRegion
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"latitude", lat, &reg.Latitude},
		{"longitude", lng, &reg.Longitude},
		{"latitudeDelta", latDelta, &reg.LatitudeDelta},
		{"longitudeDelta", lngDelta, &reg.LongitudeDelta},
	} {
		v, err := parseFloat(f.raw)
		if err != nil {
			return model.MapRegion{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	if err := checkPosition(reg.Latitude, reg.Longitude); err != nil {
		return model.MapRegion{}, err
	}
	if !(reg.LatitudeDelta > 0 && reg.LongitudeDelta > 0) {
		return model.MapRegion{}, errors.New("latitudeDelta and longitudeDelta must be > 0")
	}
	return reg, nil
}

// parsePosition reads the optional lat/lng pair; both or neither must be set.
func parsePosition(r *http.Request) (model.Location, bool, error) {
	q := r.URL.Query()
	rawLat, rawLng := q.Get("lat"), q.Get("lng")
	if rawLat == "" && rawLng == "" {
		return model.Location{}, false, nil
	}
	lat, err := parseFloat(rawLat)
	if err != nil {
		return model.Location{}, false, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(rawLng)
	if err != nil {
		return model.Location{}, false, fmt.Errorf("lng: %w", err)
	}
	if err := checkPosition(lat, lng); err != nil {
		return model.Location{}, false, err
	}
	return model.Location{Latitude: lat, Longitude: lng}, true, nil
}

func checkPosition(lat, lng float64) error {
	if !(lat >= -90 && lat <= 90) {
		return errors.New("latitude must be in [-90,90]")
	}
	if !(lng >= -180 && lng <= 180) {
		return errors.New("longitude must be in [-180,180]")
	}
	return nil
}

// clamp keeps a region-derived bbox on the map.
func clamp(bb model.BBox) model.BBox {
	bb.X1, bb.X2 = math.Max(bb.X1, -180), math.Min(bb.X2, 180)
	bb.Y1, bb.Y2 = math.Max(bb.Y1, -90), math.Min(bb.Y2, 90)
	return bb
}

func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) != 5 {
		return model.BBox{}, errors.New("expected 5 comma-separated values: x1,y1,x2,y2,EPSG:4326")
	}
	xMin, err := parseFloat(parts[0])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x1: %w", err)
	}
	yMin, err := parseFloat(parts[1])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y1: %w", err)
	}
	xMax, err := parseFloat(parts[2])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x2: %w", err)
	}
	yMax, err := parseFloat(parts[3])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y2: %w", err)
	}

	srid := strings.ToUpper(strings.TrimSpace(parts[4]))
	if srid != "EPSG:4326" {
		return model.BBox{}, fmt.Errorf("only EPSG:4326 is supported (got %q)", srid)
	}

	if !(xMin >= -180 && xMin <= 180 && xMax >= -180 && xMax <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(yMin >= -90 && yMin <= 90 && yMax >= -90 && yMax <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if xMax <= xMin || yMax <= yMin {
		return model.BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.BBox{X1: xMin, Y1: yMin, X2: xMax, Y2: yMax, SRID: srid}, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
