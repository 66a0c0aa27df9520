package config

import "time"

// Config holds runtime settings for the DeepNote client.
//
// Units: intervals and timeouts are time.Duration values.
type Config struct {
	// ServerEndpointAddr is host:port of the backend gRPC endpoint.
	ServerEndpointAddr string
	// ServerHTTPURL is the base URL of the backend HTTP API and app shell.
	ServerHTTPURL       string
	OnlineCheckInterval time.Duration
	// DataFile is the local SQLite database.
	DataFile string

	CacheVersion   string
	PrecacheAssets []string

	NetworkTimeout     time.Duration
	InstallTimeout     time.Duration
	SyncRequestTimeout time.Duration

	// DisplayMode is "browser" or "standalone".
	DisplayMode   string
	InstallPrompt bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.ServerHTTPURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.DataFile = "deepnote.db"
	c.CacheVersion = "deepnote-v1"
	c.PrecacheAssets = []string{
		"/",
		"/index.html",
		"/manifest.webmanifest",
		"/icons/icon-192.png",
		"/icons/icon-512.png",
	}
	c.NetworkTimeout = 5 * time.Second
	c.InstallTimeout = 30 * time.Second
	c.SyncRequestTimeout = 10 * time.Second
	c.DisplayMode = "browser"
	c.InstallPrompt = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
