// Package router exposes the listing repository, filter engine and region
// calculator over HTTP.
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mmcloughlin/geohash"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/core/observability"
	"github.com/mohammed-shakir/listing-map/internal/filter"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	mylog "github.com/mohammed-shakir/listing-map/internal/logger"
	"github.com/mohammed-shakir/listing-map/internal/mapper"
	"github.com/mohammed-shakir/listing-map/internal/region"
)

// GeohashPrecision is the length of the geohash attached to every listing.
const GeohashPrecision = 9

// ViewRecorder is told about every successful detail fetch.
type ViewRecorder interface {
	Record(ctx context.Context, l model.Listing)
}

// Deps are the collaborators behind the /v1 routes. Repo is required.
type Deps struct {
	Repo    listing.Repository
	Spatial mapper.Interface
	Views   ViewRecorder
	Logger  *slog.Logger
	// Timeout bounds each repository call; zero means the request context only.
	Timeout time.Duration
}

type handlers struct {
	Deps
}

// Register mounts the /v1 routes on r.
func Register(r chi.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	h := &handlers{Deps: d}
	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/listings", h.list)
		r.Get("/listings/filter", h.filter)
		r.Get("/listings/within", h.within)
		r.Get("/listings/{id}", h.detail)
		r.Get("/listings/{id}/region", h.detailRegion)
		r.Get("/region", h.region)
	})
}

type listingDTO struct {
	model.Listing
	DisplayImage string `json:"displayImage"`
	Geohash      string `json:"geohash"`
}

func toDTO(l model.Listing) listingDTO {
	return listingDTO{
		Listing:      l,
		DisplayImage: l.Image(),
		Geohash:      geohash.EncodeWithPrecision(l.Location.Latitude, l.Location.Longitude, GeohashPrecision),
	}
}

func toDTOs(ls []model.Listing) []listingDTO {
	out := make([]listingDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, toDTO(l))
	}
	return out
}

type listResponse struct {
	Count    int          `json:"count"`
	Listings []listingDTO `json:"listings"`
}

type filterResponse struct {
	Count    int              `json:"count"`
	Filters  model.FilterSpec `json:"filters"`
	Listings []listingDTO     `json:"listings"`
	Region   *model.MapRegion `json:"region,omitempty"`
}

type errResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeErr(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	render.Status(r, status)
	render.JSON(w, r, errResponse{Error: code, Detail: detail})
}

func (h *handlers) repoCtx(r *http.Request) (context.Context, context.CancelFunc) {
	if h.Timeout > 0 {
		return context.WithTimeout(r.Context(), h.Timeout)
	}
	return context.WithCancel(r.Context())
}

// repoFailed answers a repository error with 502 so clients keep their last
// good data on screen.
func (h *handlers) repoFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.Logger.WarnContext(r.Context(), "repository call failed", "op", op, "err", err)
	code := "repository_unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "repository_timeout"
	}
	writeErr(w, r, http.StatusBadGateway, code, err.Error())
}

// load returns the searched set when q is non-empty, else the full set.
func (h *handlers) load(r *http.Request) (string, []model.Listing, error) {
	ctx, cancel := h.repoCtx(r)
	defer cancel()
	q := r.URL.Query().Get("q")
	if q == "" {
		ls, err := h.Repo.FetchAll(ctx)
		return "fetch_all", ls, err
	}
	ls, err := h.Repo.SearchByText(ctx, q)
	return "search", ls, err
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	op, ls, err := h.load(r)
	if err != nil {
		h.repoFailed(w, r, op, err)
		return
	}
	render.JSON(w, r, listResponse{Count: len(ls), Listings: toDTOs(ls)})
}

func (h *handlers) find(w http.ResponseWriter, r *http.Request) (model.Listing, bool) {
	id := chi.URLParam(r, "id")
	ctx, cancel := h.repoCtx(r)
	defer cancel()
	l, ok, err := h.Repo.FetchByID(ctx, id)
	if err != nil {
		h.repoFailed(w, r, "fetch_by_id", err)
		return model.Listing{}, false
	}
	if !ok {
		writeErr(w, r, http.StatusNotFound, "not_found", "no listing with id "+id)
		return model.Listing{}, false
	}
	return l, true
}

func (h *handlers) detail(w http.ResponseWriter, r *http.Request) {
	l, ok := h.find(w, r)
	if !ok {
		return
	}
	if h.Views != nil {
		h.Views.Record(mylog.WithListingID(r.Context(), l.ID), l)
	}
	render.JSON(w, r, toDTO(l))
}

func (h *handlers) detailRegion(w http.ResponseWriter, r *http.Request) {
	l, ok := h.find(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, region.ForListing(l))
}

func (h *handlers) filter(w http.ResponseWriter, r *http.Request) {
	spec := ParseFilterSpec(r)
	op, ls, err := h.load(r)
	if err != nil {
		h.repoFailed(w, r, op, err)
		return
	}
	out := filter.Apply(ls, spec)
	observability.ObserveFilter(len(ls), len(out))
	h.Logger.DebugContext(r.Context(), "filter applied",
		"criteria", filter.Active(spec), "in", len(ls), "out", len(out))

	resp := filterResponse{Count: len(out), Filters: spec, Listings: toDTOs(out)}
	if reg, err := region.Compute(out); err == nil {
		resp.Region = &reg
	}
	render.JSON(w, r, resp)
}

// region frames the (searched) set. With lat and lng an empty set falls back
// to the default viewport around that position instead of 422.
func (h *handlers) region(w http.ResponseWriter, r *http.Request) {
	pos, hasPos, err := parsePosition(r)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, "invalid_position", err.Error())
		return
	}
	op, ls, err := h.load(r)
	if err != nil {
		h.repoFailed(w, r, op, err)
		return
	}
	if hasPos {
		render.JSON(w, r, region.ComputeOr(ls, region.DefaultRegion(pos.Latitude, pos.Longitude)))
		return
	}
	reg, err := region.Compute(ls)
	if errors.Is(err, region.ErrEmptyInput) {
		writeErr(w, r, http.StatusUnprocessableEntity, "empty_input", "no listings match; region is undefined")
		return
	}
	if err != nil {
		writeErr(w, r, http.StatusInternalServerError, "region_failed", err.Error())
		return
	}
	render.JSON(w, r, reg)
}

// within accepts either bbox=x1,y1,x2,y2,EPSG:4326 or a map region given as
// latitude, longitude, latitudeDelta and longitudeDelta.
func (h *handlers) within(w http.ResponseWriter, r *http.Request) {
	bb, err := viewport(r)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, "invalid_bbox", err.Error())
		return
	}
	op, ls, err := h.load(r)
	if err != nil {
		h.repoFailed(w, r, op, err)
		return
	}
	if h.Spatial == nil {
		ls = pointFilter(ls, bb)
	} else if ls, err = h.Spatial.Within(ls, bb); err != nil {
		writeErr(w, r, http.StatusInternalServerError, "spatial_failed", err.Error())
		return
	}
	render.JSON(w, r, listResponse{Count: len(ls), Listings: toDTOs(ls)})
}

func pointFilter(ls []model.Listing, bb model.BBox) []model.Listing {
	out := make([]model.Listing, 0, len(ls))
	for _, l := range ls {
		if bb.Contains(l.Location) {
			out = append(out, l)
		}
	}
	return out
}
