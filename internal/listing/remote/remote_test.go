package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/core/router"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/listing/listingtest"
	"github.com/mohammed-shakir/listing-map/internal/listing/memstore"
	"github.com/mohammed-shakir/listing-map/internal/listing/remote"
)

func serve(t *testing.T, seed []model.Listing) *httptest.Server {
	t.Helper()
	store, err := memstore.New(seed)
	if err != nil {
		t.Fatalf("memstore: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	router.Register(r, router.Deps{Repo: store})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, base string, retries int) *remote.Client {
	t.Helper()
	c, err := remote.New(remote.Config{BaseURL: base, RetryMax: retries, Timeout: 2 * time.Second}, nil)
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	return c
}

func TestContract(t *testing.T) {
	listingtest.Run(t, func(t *testing.T, seed []model.Listing) listing.Repository {
		return newClient(t, serve(t, seed).URL, 0)
	})
}

func TestPing(t *testing.T) {
	c := newClient(t, serve(t, listing.Seed()).URL+"/", 0)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	upstream := serve(t, listing.Seed())
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		http.Redirect(w, r, upstream.URL+r.URL.RequestURI(), http.StatusTemporaryRedirect)
	}))
	defer flaky.Close()

	c := newClient(t, flaky.URL, 3)
	all, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 5 || calls.Load() != 3 {
		t.Fatalf("got %d listings after %d calls", len(all), calls.Load())
	}
}

func TestUpstreamFailureIsError(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer down.Close()

	c := newClient(t, down.URL, 1)
	if _, err := c.FetchAll(context.Background()); !errors.Is(err, remote.ErrUpstream) {
		t.Fatalf("FetchAll err=%v want ErrUpstream", err)
	}
	if _, ok, err := c.FetchByID(context.Background(), "1"); ok || !errors.Is(err, remote.ErrUpstream) {
		t.Fatalf("FetchByID ok=%v err=%v", ok, err)
	}
}

func TestCancelledContext(t *testing.T) {
	c := newClient(t, serve(t, listing.Seed()).URL, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.SearchByText(ctx, "villa"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := remote.New(remote.Config{BaseURL: "  "}, nil); err == nil {
		t.Fatal("expected error")
	}
}
