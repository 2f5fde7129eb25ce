// Package listingtest holds the behavioural checks every listing backend must pass.
package listingtest

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

// Factory builds a repository holding exactly the given listings, in order.
type Factory func(t *testing.T, seed []model.Listing) listing.Repository

func IDs(ls []model.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

// Run exercises the read contract against a repository built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("FetchAllKeepsOrder", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		got, err := r.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if !reflect.DeepEqual(got, listing.Seed()) {
			t.Fatalf("FetchAll=%v want %v", IDs(got), IDs(listing.Seed()))
		}
	})

	t.Run("FetchByIDHit", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		l, ok, err := r.FetchByID(ctx(t), "2")
		if err != nil || !ok {
			t.Fatalf("FetchByID: ok=%v err=%v", ok, err)
		}
		if l.Title != "Villa 5" {
			t.Fatalf("got %+v", l)
		}
	})

	t.Run("FetchByIDMissIsNotAnError", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		_, ok, err := r.FetchByID(ctx(t), "nonexistent")
		if err != nil {
			t.Fatalf("miss returned error: %v", err)
		}
		if ok {
			t.Fatal("miss reported as found")
		}
	})

	t.Run("SearchCaseInsensitive", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		upper, err := r.SearchByText(ctx(t), "VILLA")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		lower, err := r.SearchByText(ctx(t), "villa")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if !reflect.DeepEqual(IDs(upper), IDs(lower)) || !reflect.DeepEqual(IDs(lower), []string{"2"}) {
			t.Fatalf("VILLA=%v villa=%v", IDs(upper), IDs(lower))
		}
	})

	t.Run("SearchMatchesType", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		got, err := r.SearchByText(ctx(t), "À LOUER")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if want := []string{"1", "3", "5"}; !reflect.DeepEqual(IDs(got), want) {
			t.Fatalf("got %v want %v", IDs(got), want)
		}
	})

	t.Run("SearchAppart", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		got, err := r.SearchByText(ctx(t), "appart")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Appart 12" {
			t.Fatalf("got %v", IDs(got))
		}
	})

	t.Run("SearchEmptyMatchesAll", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		got, err := r.SearchByText(ctx(t), "")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if len(got) != len(listing.Seed()) {
			t.Fatalf("got %v", IDs(got))
		}
	})

	t.Run("SearchWhitespaceIsLiteral", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		none, err := r.SearchByText(ctx(t), "  ")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("two spaces matched %v", IDs(none))
		}
		got, err := r.SearchByText(ctx(t), "villa ")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if !reflect.DeepEqual(IDs(got), []string{"2"}) {
			t.Fatalf("got %v", IDs(got))
		}
	})

	t.Run("ResultsDoNotAliasStore", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		first, err := r.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		first[0].Title = "mutated"
		second, err := r.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if second[0].Title != "Appart 12" {
			t.Fatalf("store changed through a result slice: %q", second[0].Title)
		}
	})

	t.Run("ConcurrentReads", func(t *testing.T) {
		r := newRepo(t, listing.Seed())
		c := ctx(t)
		var wg sync.WaitGroup
		errs := make(chan error, 30)
		for i := 0; i < 10; i++ {
			wg.Add(3)
			go func() {
				defer wg.Done()
				ls, err := r.FetchAll(c)
				if err == nil && len(ls) != 5 {
					t.Errorf("FetchAll size=%d", len(ls))
				}
				errs <- err
			}()
			go func() {
				defer wg.Done()
				_, _, err := r.FetchByID(c, "3")
				errs <- err
			}()
			go func() {
				defer wg.Done()
				_, err := r.SearchByText(c, "o")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("concurrent call: %v", err)
			}
		}
	})
}

// RunWriter checks that a writable store reflects updates between queries.
func RunWriter(t *testing.T, newStore func(t *testing.T, seed []model.Listing) listing.Store) {
	t.Run("PutAppendsNew", func(t *testing.T) {
		s := newStore(t, listing.Seed())
		nl := model.Listing{ID: "6", Title: "Villa 9", Rooms: 5, Bathrooms: 3, Area: 300,
			Price: "500000 F CFA", Type: "À vendre", Location: model.Location{Latitude: 6.14, Longitude: 1.23}}
		if err := s.Put(ctx(t), nl); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if want := []string{"1", "2", "3", "4", "5", "6"}; !reflect.DeepEqual(IDs(got), want) {
			t.Fatalf("got %v want %v", IDs(got), want)
		}
		villas, err := s.SearchByText(ctx(t), "villa")
		if err != nil {
			t.Fatalf("SearchByText: %v", err)
		}
		if !reflect.DeepEqual(IDs(villas), []string{"2", "6"}) {
			t.Fatalf("villas=%v", IDs(villas))
		}
	})

	t.Run("PutReplacesInPlace", func(t *testing.T) {
		s := newStore(t, listing.Seed())
		upd := listing.Seed()[1]
		upd.Price = "190000 F CFA"
		if err := s.Put(ctx(t), upd); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if !reflect.DeepEqual(IDs(got), IDs(listing.Seed())) {
			t.Fatalf("order changed: %v", IDs(got))
		}
		if got[1].Price != "190000 F CFA" {
			t.Fatalf("price not updated: %+v", got[1])
		}
	})

	t.Run("PutRejectsInvalid", func(t *testing.T) {
		s := newStore(t, listing.Seed())
		if err := s.Put(ctx(t), model.Listing{ID: "bad", Area: -1}); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("DeleteRemoves", func(t *testing.T) {
		s := newStore(t, listing.Seed())
		if err := s.Delete(ctx(t), "3"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok, err := s.FetchByID(ctx(t), "3"); err != nil || ok {
			t.Fatalf("after delete: ok=%v err=%v", ok, err)
		}
		got, err := s.FetchAll(ctx(t))
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if want := []string{"1", "2", "4", "5"}; !reflect.DeepEqual(IDs(got), want) {
			t.Fatalf("got %v want %v", IDs(got), want)
		}
		if err := s.Delete(ctx(t), "3"); err != nil {
			t.Fatalf("deleting a missing id should be a no-op: %v", err)
		}
	})
}
