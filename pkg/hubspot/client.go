package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	// ErrExchange is returned when the token endpoint rejects a code.
	ErrExchange = errors.New("hubspot: token exchange failed")

	// ErrUpstream is returned when a CRM API call fails.
	ErrUpstream = errors.New("hubspot: upstream request failed")
)

// Tokens is the token set handed back to callers after an exchange.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`

	// Raw is the token endpoint's JSON response as received.
	Raw json.RawMessage `json:"-"`
}

// MarshalJSON emits Raw unchanged when it is set, so provider fields the
// struct does not model are kept.
func (t Tokens) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type plain Tokens
	return json.Marshal(plain(t))
}

// Object is a CRM v3 object.
type Object struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"createdAt,omitzero"`
	UpdatedAt  time.Time      `json:"updatedAt,omitzero"`
	Archived   bool           `json:"archived"`
}

// Client performs the server side of the OAuth handshake and reads CRM
// objects on behalf of a connected user.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient returns a Client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Config returns the provider configuration.
func (c *Client) Config() Config { return c.cfg }

// AuthorizationURL builds the consent URL carrying state.
func (c *Client) AuthorizationURL(state string) string {
	return c.cfg.AuthorizationURL(state)
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// maxTokenResponse bounds the token endpoint body kept by bodyRecorder.
const maxTokenResponse = 1 << 20

// bodyRecorder keeps a copy of a successful JSON response body.
type bodyRecorder struct {
	next http.RoundTripper
	body []byte
}

func (b *bodyRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := b.next.RoundTrip(r)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if json.Valid(data) {
		b.body = data
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Tokens, error) {
	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rec := &bodyRecorder{next: next}
	hc := *c.http
	hc.Transport = rec

	tok, err := c.cfg.OAuth2().Exchange(context.WithValue(ctx, oauth2.HTTPClient, &hc), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: HTTP %d %s", ErrExchange, re.Response.StatusCode, re.ErrorCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	return &Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
		Raw:          rec.body,
	}, nil
}

// ListContacts returns the first page of contacts visible to accessToken.
func (c *Client) ListContacts(ctx context.Context, accessToken string) ([]Object, error) {
	return c.listObjects(ctx, accessToken, "contacts")
}

func (c *Client) listObjects(ctx context.Context, accessToken, objectType string) ([]Object, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(c.ctx(ctx), src)

	base := strings.TrimSuffix(orDefault(c.cfg.APIBaseURL, DefaultAPIBaseURL), "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/crm/v3/objects/"+objectType, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: list %s: HTTP %d", ErrUpstream, objectType, resp.StatusCode)
	}

	var page struct {
		Results []Object `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUpstream, objectType, err)
	}
	if page.Results == nil {
		page.Results = []Object{}
	}
	return page.Results, nil
}
