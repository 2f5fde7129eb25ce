package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessReporter is implemented by the change-event consumer.
type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Readiness reports ready when the backend answers a ping within timeout
// and, if a consumer is given, it holds at least one partition.
func Readiness(backend Pinger, consumer ReadinessReporter, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status     string  `json:"status"`
			Backend    string  `json:"backend"`
			Consumer   string  `json:"consumer,omitempty"`
			Partitions []int32 `json:"partitions,omitempty"`
		}
		out := resp{Status: "ready", Backend: "ok"}
		ready := true

		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			err := backend.Ping(ctx)
			cancel()
			if err != nil {
				ready = false
				out.Backend = err.Error()
			}
		}
		if consumer != nil {
			ok, parts := consumer.Readiness()
			if ok {
				out.Consumer = "ok"
				out.Partitions = parts
			} else {
				ready = false
				out.Consumer = "not_ready"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			out.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
