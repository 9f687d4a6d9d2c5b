package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/flagx"
)

// parseFlags populates selected gateway Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-u string   upstream base URL
//	-t int      upstream request timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-u", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run gateway")
	fs.StringVar(&config.UpstreamBaseURL, "u", config.UpstreamBaseURL, "upstream base URL")

	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "upstream request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
