// Package remote reads listings from another instance of the listing API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/mohammed-shakir/listing-map/internal/core/httpclient"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

var ErrUpstream = errors.New("remote: upstream error")

type Config struct {
	BaseURL  string
	RetryMax int
	RPS      float64
	Timeout  time.Duration
}

type Client struct {
	base    string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

var _ listing.Repository = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return &Client{
		base:    base,
		http:    httpclient.NewRetrying(logger, cfg.RetryMax, cfg.Timeout),
		limiter: lim,
	}, nil
}

type listResponse struct {
	Count    int             `json:"count"`
	Listings []model.Listing `json:"listings"`
}

func (c *Client) FetchAll(ctx context.Context) ([]model.Listing, error) {
	return c.list(ctx, c.base+"/v1/listings")
}

func (c *Client) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	if query == "" {
		return c.FetchAll(ctx)
	}
	return c.list(ctx, c.base+"/v1/listings?q="+url.QueryEscape(query))
}

func (c *Client) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	var l model.Listing
	status, err := c.get(ctx, c.base+"/v1/listings/"+url.PathEscape(id), &l)
	if status == http.StatusNotFound {
		return model.Listing{}, false, nil
	}
	if err != nil {
		return model.Listing{}, false, err
	}
	return l, true, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.get(ctx, c.base+"/healthz", nil); err != nil {
		return err
	}
	return nil
}

func (c *Client) list(ctx context.Context, u string) ([]model.Listing, error) {
	var resp listResponse
	if _, err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Listings == nil {
		resp.Listings = []model.Listing{}
	}
	return resp.Listings, nil
}

// get decodes a 200 JSON body into out. A 404 is returned as status with a
// nil error so callers can tell a miss from a failure.
func (c *Client) get(ctx context.Context, u string, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("remote: rate limit wait: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: GET %s: %w", ErrUpstream, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%w: GET %s: status %d: %s", ErrUpstream, u, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode %s: %w", ErrUpstream, u, err)
	}
	return resp.StatusCode, nil
}
