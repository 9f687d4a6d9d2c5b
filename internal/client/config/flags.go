package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/libkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the gateway (default from Config)
//	-d string   path to the local SQLite store
//	-l int      books per catalog page
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GatewayAddr, "a", cfg.GatewayAddr, "base URL of the gateway")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	fs.IntVar(&cfg.PageLimit, "l", cfg.PageLimit, "books per catalog page")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
