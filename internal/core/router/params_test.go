package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
)

func TestParseBBOX_Valid(t *testing.T) {
	bb, err := parseBBOX("1.2, 6.1, 1.3, 6.2, epsg:4326")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := model.BBox{X1: 1.2, Y1: 6.1, X2: 1.3, Y2: 6.2, SRID: "EPSG:4326"}
	if bb != want {
		t.Fatalf("got %+v want %+v", bb, want)
	}
}

func TestParseBBOX_Invalid(t *testing.T) {
	for _, in := range []string{
		"11,55,12,56,EPSG:3857",
		"11,55,11,56,EPSG:4326",
		"x,55,12,56,EPSG:4326",
		"181,55,182,56,EPSG:4326",
		"11,-91,12,56,EPSG:4326",
		"11,55,12,56",
	} {
		if _, err := parseBBOX(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestParseFilterSpec(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/v1/listings/filter?location=+Appart+&propertyType=A&status=B&rooms=3%2B&priceRange=x&area=y&unknown=z", nil)
	got := ParseFilterSpec(req)
	want := model.FilterSpec{Location: " Appart ", PropertyType: "A", Status: "B", Rooms: "3+", PriceRange: "x", Area: "y"}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if !ParseFilterSpec(httptest.NewRequest(http.MethodGet, "/", nil)).IsEmpty() {
		t.Fatal("no params should yield an empty spec")
	}
}

func TestParseRegion(t *testing.T) {
	reg, err := parseRegion("6.13", "1.22", "0.02", "0.04")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reg != (model.MapRegion{Latitude: 6.13, Longitude: 1.22, LatitudeDelta: 0.02, LongitudeDelta: 0.04}) {
		t.Fatalf("got %+v", reg)
	}
	for _, in := range [][4]string{
		{"", "1", "1", "1"},
		{"91", "1", "1", "1"},
		{"1", "181", "1", "1"},
		{"1", "1", "0", "1"},
		{"1", "1", "1", "-2"},
	} {
		if _, err := parseRegion(in[0], in[1], in[2], in[3]); err == nil {
			t.Fatalf("expected error for %v", in)
		}
	}
}

func TestViewport_RegionIsClamped(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?latitude=89&longitude=179&latitudeDelta=4&longitudeDelta=4", nil)
	bb, err := viewport(req)
	if err != nil {
		t.Fatalf("viewport: %v", err)
	}
	if bb.Y2 != 90 || bb.X2 != 180 || bb.Y1 != 87 || bb.X1 != 177 {
		t.Fatalf("got %+v", bb)
	}
}
