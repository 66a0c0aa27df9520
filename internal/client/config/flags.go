package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-i", "-f", "-v", "-m", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.ServerHTTPURL, "w", cfg.ServerHTTPURL, "base URL of the server HTTP API")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DataFile, "f", cfg.DataFile, "local database file")
	fs.StringVar(&cfg.CacheVersion, "v", cfg.CacheVersion, "cache version")
	fs.StringVar(&cfg.DisplayMode, "m", cfg.DisplayMode, "display mode (browser|standalone)")
	networkTimeout := fs.Int("n", int(cfg.NetworkTimeout.Seconds()), "network timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.NetworkTimeout = time.Duration(*networkTimeout) * time.Second
}
