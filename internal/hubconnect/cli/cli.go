// Package cli is the terminal front end of the connect flow. Each command
// is one button of the connect screen: it runs a single connector
// operation, prints the result on stdout and the notices on stderr.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/aussiebroadwan/crmconnect/internal/connector"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/otelx"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
	"github.com/spf13/pflag"
)

// Version is reported in logs and traces.
const Version = "v0.1.0"

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// BrowserOpener opens url in the user's browser. Tests replace it.
var BrowserOpener = openBrowser

type session struct {
	cfg    Config
	conn   *connector.Connector
	logger *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Run executes one hubconnect command and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return ExitUsage
	}
	cmd, ok := lookupCommand(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return ExitUsage
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}

	logger := slogx.New(slogx.Config{
		Service: "hubconnect",
		Version: Version,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  stderr,
	})

	shutdown, err := otelx.Setup(ctx, cfg.OTELEndpoint, "hubconnect", Version)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	s := &session{
		cfg:    cfg,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	s.conn = connector.New(connector.Config{
		Backend:   connectsdk.NewClient(cfg.BaseURL),
		Navigator: connector.NavigatorFunc(s.navigate),
		Provider:  cfg.provider(),
		Logger:    logger,
	})
	s.conn.SetUserID(cfg.UserID)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = cmd.run(ctx, s, fs)
	s.flushNotices()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitOK
}

// navigate prints url and optionally opens it. A browser that fails to start
// is not an error; the URL is already on screen.
func (s *session) navigate(url string) error {
	fmt.Fprintln(s.stdout, url)
	if !s.cfg.Open {
		return nil
	}
	if err := BrowserOpener(url); err != nil {
		s.logger.Warn("could not open browser", "error", err)
	}
	return nil
}

// flushNotices prints the notices raised so far.
func (s *session) flushNotices() {
	for {
		select {
		case n := <-s.conn.Notices():
			if n.Err != nil {
				fmt.Fprintf(s.stderr, "[%s] %s (%v)\n", n.Level, n.Message, n.Err)
			} else {
				fmt.Fprintf(s.stderr, "[%s] %s\n", n.Level, n.Message)
			}
		default:
			return
		}
	}
}

func (s *session) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(s.stdout)
	return err
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
