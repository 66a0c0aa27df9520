package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/deepnote/internal/flagx"
	"github.com/dmitrijs2005/deepnote/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Durations use timex.Duration, so both "1s" and
// integer nanoseconds are accepted. Absent keys leave Config unchanged.
type JsonConfig struct {
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	DatabaseDSN                  string          `json:"database_dsn"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string          `json:"s3_root_user"`
	S3RootPassword               string          `json:"s3_root_password"`
	S3Bucket                     string          `json:"s3_bucket"`
	S3Region                     string          `json:"s3_region"`
	S3BaseEndpoint               string          `json:"s3_base_endpoint"`
	AudioURLValidityDuration     *timex.Duration `json:"audio_url_validity_duration"`
	SyncRateLimit                *float64        `json:"sync_rate_limit"`
	SyncBurst                    *int            `json:"sync_burst"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config. If the file cannot be read or contains invalid JSON, it panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&config.EndpointAddrGRPC: c.EndpointAddrGRPC,
		&config.EndpointAddrHTTP: c.EndpointAddrHTTP,
		&config.DatabaseDSN:      c.DatabaseDSN,
		&config.SecretKey:        c.SecretKey,
		&config.S3RootUser:       c.S3RootUser,
		&config.S3RootPassword:   c.S3RootPassword,
		&config.S3Bucket:         c.S3Bucket,
		&config.S3Region:         c.S3Region,
		&config.S3BaseEndpoint:   c.S3BaseEndpoint,
	} {
		if v != "" {
			*dst = v
		}
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.AudioURLValidityDuration != nil {
		config.AudioURLValidityDuration = c.AudioURLValidityDuration.Duration
	}
	if c.SyncRateLimit != nil {
		config.SyncRateLimit = *c.SyncRateLimit
	}
	if c.SyncBurst != nil {
		config.SyncBurst = *c.SyncBurst
	}
}
