package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("hubconnect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.String("config", "", "path to a YAML config file")
	fs.String("base-url", DefaultBaseURL, "integration gateway base URL")
	fs.StringP("user-id", "u", "", "user the tokens belong to")
	fs.StringP("org-id", "o", "", "organisation of the user")
	fs.Duration("timeout", 30*time.Second, "timeout for the whole command")
	fs.Bool("open", false, "open authorization URLs in the system browser")
	fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.String("otel-endpoint", "", "OTLP/HTTP collector URL; tracing is off when empty")

	fs.Bool("local", false, "authorize: build the URL from HubSpot config instead of asking the gateway")
	fs.String("code", "", "callback, connect: authorization code from the redirect")
	fs.String("tokens", "", "save: token JSON, @file to read a file, or - for stdin")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: hubconnect <command> [flags]\n\nCommands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-10s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nFlags:\n%s", fs.FlagUsages())
	}

	return fs
}
