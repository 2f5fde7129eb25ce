package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ChangesCfg struct {
	Enabled bool
	Topic   string
	GroupID string
}

type ViewEventsCfg struct {
	Enabled bool
	Topic   string
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr          string
	LogLevel      string
	LogConsole    bool
	LogSampleN    int
	Backend       string
	RedisAddr     string
	PostgresDSN   string
	RemoteURL     string
	RemoteRPS     float64
	RemoteRetries int
	RepoTimeout   time.Duration
	CacheEnabled  bool
	CacheSize     int
	// CacheTTL bounds how long a cached read may hide writes made by other
	// processes. Zero disables expiry and is only honoured when change
	// events keep the cache current.
	CacheTTL     time.Duration
	H3Res        int
	RateLimitRPM int
	SeedOnStart  bool
	KafkaBrokers string
	Changes      ChangesCfg
	ViewEvents   ViewEventsCfg
	Metrics      MetricsCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 9)
	if res < 0 || res > 15 {
		res = 9
	}
	cacheSize := getint("CACHE_SIZE", 256)
	if cacheSize <= 0 {
		cacheSize = 256
	}
	changes := getbool("CHANGES_ENABLED", false)
	cacheTTL := getduration("CACHE_TTL", 30*time.Second)
	if cacheTTL < 0 || (cacheTTL == 0 && !changes) {
		cacheTTL = 30 * time.Second
	}

	return Config{
		Addr:          getenv("ADDR", ":8090"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogConsole:    getbool("LOG_CONSOLE", false),
		LogSampleN:    getint("LOG_SAMPLE_N", 0),
		Backend:       strings.ToLower(getenv("BACKEND", "memory")),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		RemoteURL:     getenv("REMOTE_URL", "http://localhost:8090"),
		RemoteRPS:     getfloat("REMOTE_RPS", 20),
		RemoteRetries: getint("REMOTE_RETRIES", 3),
		RepoTimeout:   getduration("REPO_TIMEOUT", 2*time.Second),
		CacheEnabled:  getbool("CACHE_ENABLED", true),
		CacheSize:     cacheSize,
		CacheTTL:      cacheTTL,
		H3Res:         res,
		RateLimitRPM:  getint("RATE_LIMIT_RPM", 600),
		SeedOnStart:   getbool("SEED_ON_START", true),
		KafkaBrokers:  getenv("KAFKA_BROKERS", "localhost:9092"),
		Changes: ChangesCfg{
			Enabled: changes,
			Topic:   getenv("CHANGES_TOPIC", "listing-changes"),
			GroupID: getenv("CHANGES_GROUP_ID", "listing-map"),
		},
		ViewEvents: ViewEventsCfg{
			Enabled: getbool("VIEW_EVENTS_ENABLED", false),
			Topic:   getenv("VIEW_EVENTS_TOPIC", "listing-views"),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

// Brokers splits KafkaBrokers on commas, dropping blanks.
func (c Config) Brokers() []string {
	var out []string
	for p := range strings.SplitSeq(c.KafkaBrokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
