package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"BACKEND", "H3_RES", "CACHE_SIZE", "REPO_TIMEOUT", "CHANGES_ENABLED"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Backend != "memory" {
		t.Fatalf("Backend got %q want memory", c.Backend)
	}
	if c.H3Res != 9 || c.CacheSize != 256 || c.RepoTimeout != 2*time.Second {
		t.Fatalf("defaults got res=%d size=%d timeout=%v", c.H3Res, c.CacheSize, c.RepoTimeout)
	}
	if c.Changes.Enabled || c.Changes.Topic != "listing-changes" {
		t.Fatalf("changes defaults got %+v", c.Changes)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BACKEND", "Redis")
	t.Setenv("H3_RES", "99")
	t.Setenv("CACHE_SIZE", "-4")
	t.Setenv("CACHE_ENABLED", "no")
	t.Setenv("REPO_TIMEOUT", "750ms")
	t.Setenv("REMOTE_RPS", "2.5")
	c := FromEnv()
	if c.Backend != "redis" {
		t.Fatalf("Backend got %q want redis", c.Backend)
	}
	if c.H3Res != 9 {
		t.Fatalf("invalid H3_RES should fall back, got %d", c.H3Res)
	}
	if c.CacheSize != 256 || c.CacheEnabled {
		t.Fatalf("cache got size=%d enabled=%v", c.CacheSize, c.CacheEnabled)
	}
	if c.RepoTimeout != 750*time.Millisecond || c.RemoteRPS != 2.5 {
		t.Fatalf("got timeout=%v rps=%v", c.RepoTimeout, c.RemoteRPS)
	}
}

func TestBrokers(t *testing.T) {
	c := Config{KafkaBrokers: " a:9092, ,b:9092,"}
	if got := c.Brokers(); !reflect.DeepEqual(got, []string{"a:9092", "b:9092"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFromEnv_CacheTTL(t *testing.T) {
	cases := []struct {
		ttl, changes string
		want         time.Duration
	}{
		{"", "", 30 * time.Second},
		{"5s", "", 5 * time.Second},
		{"-1s", "", 30 * time.Second},
		{"0s", "false", 30 * time.Second},
		{"0s", "true", 0},
	}
	for _, tc := range cases {
		t.Setenv("CACHE_TTL", tc.ttl)
		t.Setenv("CHANGES_ENABLED", tc.changes)
		if got := FromEnv().CacheTTL; got != tc.want {
			t.Fatalf("CACHE_TTL=%q CHANGES_ENABLED=%q got %v want %v", tc.ttl, tc.changes, got, tc.want)
		}
	}
}
