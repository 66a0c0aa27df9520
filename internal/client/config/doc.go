// Package config loads runtime configuration for the DeepNote client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-w string   base URL of the backend HTTP API
//	-i int      online status check interval (seconds)
//	-f string   local database file
//	-v string   cache version name
//	-m string   display mode (browser or standalone)
//	-n int      network timeout per request (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Absent keys keep their earlier
// value:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "server_http_url": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "data_file": "deepnote.db",
//	  "cache_version": "deepnote-v2",
//	  "precache_assets": ["/", "/index.html"],
//	  "network_timeout": "5s",
//	  "install_timeout": "30s",
//	  "sync_request_timeout": "10s",
//	  "display_mode": "standalone",
//	  "install_prompt": false
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
