package h3mapper

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

func TestNew_InvalidResolution(t *testing.T) {
	if New(42).Res() != DefaultRes {
		t.Fatalf("out of range res should fall back to %d", DefaultRes)
	}
	if New(-1).Res() != DefaultRes {
		t.Fatalf("negative res should fall back to %d", DefaultRes)
	}
	if New(7).Res() != 7 {
		t.Fatalf("valid res should be kept")
	}
}

func ids(ls []model.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func bruteForce(ls []model.Listing, bb model.BBox) []string {
	want := []string{}
	for _, l := range ls {
		if bb.Contains(l.Location) {
			want = append(want, l.ID)
		}
	}
	return want
}

func TestWithin_MatchesPointInBBox(t *testing.T) {
	seed := listing.Seed()
	boxes := []model.BBox{
		{X1: 1.21, Y1: 6.12, X2: 1.23, Y2: 6.15},         // everything
		{X1: 1.2215, Y1: 6.135, X2: 1.2245, Y2: 6.138},   // ids 1, 2, 4
		{X1: 1.2199, Y1: 6.1329, X2: 1.2201, Y2: 6.1331}, // only 3, smaller than a cell
		{X1: 2.0, Y1: 7.0, X2: 2.1, Y2: 7.1},             // nothing
		{X1: -179, Y1: -1, X2: 179, Y2: 8},               // wider than a hemisphere
		{X1: -180, Y1: -90, X2: 180, Y2: 90},             // whole world
	}
	for _, res := range []int{0, 7, 9, 11, 15} {
		m := New(res)
		for _, bb := range boxes {
			got, err := m.Within(seed, bb)
			if err != nil {
				t.Fatalf("Within: %v", err)
			}
			if want := bruteForce(seed, bb); !reflect.DeepEqual(ids(got), want) {
				t.Fatalf("res=%d bbox=%v got %v want %v", res, bb, ids(got), want)
			}
		}
	}
}

func TestWithin_AntimeridianAndPoles(t *testing.T) {
	ls := []model.Listing{
		{ID: "east", Location: model.Location{Latitude: 0.5, Longitude: 179.95}},
		{ID: "west", Location: model.Location{Latitude: 0.5, Longitude: -179.95}},
		{ID: "north", Location: model.Location{Latitude: 89.999, Longitude: 10}},
		{ID: "south", Location: model.Location{Latitude: -89.999, Longitude: -170}},
	}
	boxes := []model.BBox{
		{X1: 179.9, Y1: 0, X2: 180, Y2: 1},
		{X1: -180, Y1: 0, X2: -179.9, Y2: 1},
		{X1: -179.99, Y1: -1, X2: 179.99, Y2: 1},
		{X1: 0, Y1: 89.99, X2: 20, Y2: 90},
		{X1: -180, Y1: -90, X2: -160, Y2: -89.99},
	}
	for _, res := range []int{2, 9} {
		m := New(res)
		for _, bb := range boxes {
			got, err := m.Within(ls, bb)
			if err != nil {
				t.Fatalf("Within: %v", err)
			}
			if want := bruteForce(ls, bb); !reflect.DeepEqual(ids(got), want) {
				t.Fatalf("res=%d bbox=%v got %v want %v", res, bb, ids(got), want)
			}
		}
	}
}

func TestWithin_RandomAgreesWithPointTest(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ls := make([]model.Listing, 300)
	for i := range ls {
		ls[i] = model.Listing{
			ID: strconv.Itoa(i),
			Location: model.Location{
				Latitude:  rng.Float64()*180 - 90,
				Longitude: rng.Float64()*360 - 180,
			},
		}
	}
	m := New(5)
	for range 200 {
		x1, x2 := rng.Float64()*360-180, rng.Float64()*360-180
		y1, y2 := rng.Float64()*180-90, rng.Float64()*180-90
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		bb := model.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
		got, err := m.Within(ls, bb)
		if err != nil {
			t.Fatalf("Within: %v", err)
		}
		if want := bruteForce(ls, bb); !reflect.DeepEqual(ids(got), want) {
			t.Fatalf("bbox=%v got %d listings want %d", bb, len(got), len(want))
		}
	}
}

func TestWithin_CostIndependentOfBBoxArea(t *testing.T) {
	seed := listing.Seed()
	m := New(9)
	small := model.BBox{X1: 1.21, Y1: 6.12, X2: 1.23, Y2: 6.15}
	world := model.BBox{X1: -180, Y1: -90, X2: 180, Y2: 90}

	a := testing.AllocsPerRun(5, func() { _, _ = m.Within(seed, small) })
	b := testing.AllocsPerRun(5, func() { _, _ = m.Within(seed, world) })
	if b > a+10 {
		t.Fatalf("world bbox allocs=%v small bbox allocs=%v", b, a)
	}
}

func TestWithin_Empty(t *testing.T) {
	got, err := New(9).Within(nil, model.BBox{X1: 0, Y1: 0, X2: 1, Y2: 1})
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v err %v", got, err)
	}
}
