package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, s *session, fs *pflag.FlagSet) error
}

var commands = []command{
	{"authorize", "get the HubSpot authorization URL and hand it to the browser", runAuthorize},
	{"callback", "exchange an authorization code and save the tokens", runCallback},
	{"save", "save a token blob for the user", runSave},
	{"tokens", "print the stored tokens for the user", runTokens},
	{"items", "list the user's CRM items", runItems},
	{"connect", "authorize, wait for the code, then exchange and save", runConnect},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// usageError marks bad input; Run exits with ExitUsage.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func runAuthorize(ctx context.Context, s *session, fs *pflag.FlagSet) error {
	local, _ := fs.GetBool("local")
	if !local {
		_, err := s.conn.RequestAuthorization(ctx, s.cfg.UserID, s.cfg.OrgID)
		return err
	}

	if err := s.cfg.HubSpot.Validate(); err != nil {
		return err
	}
	url, err := s.conn.PrepareAuthorizationURL(s.cfg.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, url)
	return nil
}

func runCallback(ctx context.Context, s *session, fs *pflag.FlagSet) error {
	code, _ := fs.GetString("code")
	if code == "" {
		return usageError{"callback needs --code"}
	}
	return s.complete(ctx, code)
}

func runSave(ctx context.Context, s *session, fs *pflag.FlagSet) error {
	arg, _ := fs.GetString("tokens")
	raw, err := readTokens(s.stdin, arg)
	if err != nil {
		return err
	}
	return s.conn.SaveTokens(ctx, s.cfg.UserID, raw)
}

func runTokens(ctx context.Context, s *session, _ *pflag.FlagSet) error {
	tokens, err := s.conn.RetrieveTokens(ctx)
	if err != nil {
		return err
	}
	return s.printJSON(tokens)
}

func runItems(ctx context.Context, s *session, _ *pflag.FlagSet) error {
	items := s.conn.ListItems(ctx, s.cfg.UserID, s.cfg.OrgID)
	out, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.printJSON(out)
}

func runConnect(ctx context.Context, s *session, fs *pflag.FlagSet) error {
	if _, err := s.conn.RequestAuthorization(ctx, s.cfg.UserID, s.cfg.OrgID); err != nil {
		return err
	}
	s.flushNotices()

	code, _ := fs.GetString("code")
	if code == "" {
		fmt.Fprint(s.stderr, "Paste the code from the redirect URL: ")
		line, err := bufio.NewReader(s.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read code: %w", err)
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		return usageError{"no authorization code given"}
	}

	return s.complete(ctx, code)
}

// complete runs the callback step. Tokens are printed even when the save
// that follows the exchange fails.
func (s *session) complete(ctx context.Context, code string) error {
	tokens, err := s.conn.CompleteAuthorization(ctx, code)
	if tokens != nil {
		if perr := s.printJSON(tokens); perr != nil {
			return perr
		}
	}
	return err
}

// readTokens resolves the --tokens argument: "-" reads stdin, "@path" reads
// a file, anything else is the JSON itself.
func readTokens(stdin io.Reader, arg string) (json.RawMessage, error) {
	var data []byte
	switch {
	case arg == "":
		return nil, usageError{"save needs --tokens"}
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read tokens file: %w", err)
		}
		data = b
	default:
		data = []byte(arg)
	}

	data = []byte(strings.TrimSpace(string(data)))
	if !json.Valid(data) {
		return nil, usageError{"tokens must be valid JSON"}
	}
	return json.RawMessage(data), nil
}
