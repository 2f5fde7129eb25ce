package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeConsumer struct {
	ready bool
	parts []int32
}

func (f fakeConsumer) Readiness() (bool, []int32) { return f.ready, f.parts }

func TestReadiness(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	cases := []struct {
		name     string
		backend  Pinger
		consumer ReadinessReporter
		code     int
		body     string
	}{
		{"backend ok", ok, nil, http.StatusOK, `"status":"ready"`},
		{"backend down", down, nil, http.StatusServiceUnavailable, `"backend":"dial tcp: refused"`},
		{"consumer assigned", ok, fakeConsumer{true, []int32{0, 2}}, http.StatusOK, `"partitions":[0,2]`},
		{"consumer idle", ok, fakeConsumer{}, http.StatusServiceUnavailable, `"consumer":"not_ready"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Readiness(tc.backend, tc.consumer, time.Second)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tc.code {
				t.Fatalf("status=%d want %d", rr.Code, tc.code)
			}
			if !strings.Contains(rr.Body.String(), tc.body) {
				t.Fatalf("body=%s want substring %s", rr.Body.String(), tc.body)
			}
		})
	}
}

func TestReadiness_PingHonoursTimeout(t *testing.T) {
	slow := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	rr := httptest.NewRecorder()
	Readiness(slow, nil, 10*time.Millisecond)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rr.Code)
	}
}
