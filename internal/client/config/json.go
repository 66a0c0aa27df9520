package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/deepnote/internal/flagx"
	"github.com/dmitrijs2005/deepnote/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// reference fields tell an absent key from a zero value.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	ServerHTTPURL       string          `json:"server_http_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DataFile            string          `json:"data_file"`
	CacheVersion        string          `json:"cache_version"`
	PrecacheAssets      []string        `json:"precache_assets"`
	NetworkTimeout      *timex.Duration `json:"network_timeout"`
	InstallTimeout      *timex.Duration `json:"install_timeout"`
	SyncRequestTimeout  *timex.Duration `json:"sync_request_timeout"`
	DisplayMode         string          `json:"display_mode"`
	InstallPrompt       *bool           `json:"install_prompt"`
}

// parseJson overlays Config with values loaded from a JSON file named by
// -c or -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.ServerHTTPURL, jc.ServerHTTPURL)
	setString(&cfg.DataFile, jc.DataFile)
	setString(&cfg.CacheVersion, jc.CacheVersion)
	setString(&cfg.DisplayMode, jc.DisplayMode)
	if jc.PrecacheAssets != nil {
		cfg.PrecacheAssets = jc.PrecacheAssets
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.NetworkTimeout != nil {
		cfg.NetworkTimeout = jc.NetworkTimeout.Duration
	}
	if jc.InstallTimeout != nil {
		cfg.InstallTimeout = jc.InstallTimeout.Duration
	}
	if jc.SyncRequestTimeout != nil {
		cfg.SyncRequestTimeout = jc.SyncRequestTimeout.Duration
	}
	if jc.InstallPrompt != nil {
		cfg.InstallPrompt = *jc.InstallPrompt
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
