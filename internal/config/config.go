package config

import (
	"os"
	"time"
)

// Client holds dashboard configuration.
type Client struct {
	APIURL       string
	PollInterval time.Duration
	HTTPTimeout  time.Duration
}

// Server holds threat API configuration.
type Server struct {
	HTTPAddr    string
	MetricsAddr string
	ScanTTL     time.Duration
}

// LoadClient reads environment variables and returns a Client config.
func LoadClient() *Client {
	return &Client{
		APIURL:       getEnv("TW_API_URL", "http://localhost:8001"),
		PollInterval: getDuration("TW_POLL_INTERVAL", 5*time.Second),
		HTTPTimeout:  getDuration("TW_HTTP_TIMEOUT", 10*time.Second),
	}
}

// LoadServer reads environment variables and returns a Server config.
func LoadServer() *Server {
	return &Server{
		HTTPAddr:    getEnv("TW_HTTP_ADDR", ":8001"),
		MetricsAddr: getEnv("TW_METRICS_ADDR", ":9091"),
		ScanTTL:     getDuration("TW_SCAN_TTL", 2*time.Second),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
