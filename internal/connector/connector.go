// Package connector drives the client side of the HubSpot connect
// handshake: fetch an authorization URL, send the user to it, trade the
// returned code for tokens and keep them in the backend token store.
//
// A Connector holds the view state a UI renders. Every operation is an
// explicit call; nothing advances on its own and nothing is retried.
// Operations are not gated on the current state, so pressing a button twice
// issues two requests.
package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
)

// DefaultNoticeBuffer is used when Config.NoticeBuffer is zero.
const DefaultNoticeBuffer = 16

// ErrNoProvider is returned by PrepareAuthorizationURL without a provider
// config.
var ErrNoProvider = errors.New("connector: no provider configuration")

// Backend is the integration gateway. *connectsdk.Client implements it.
type Backend interface {
	AuthorizationURL(ctx context.Context, userID, orgID string) (string, error)
	ListItems(ctx context.Context, userID, orgID string) ([]connectsdk.Item, error)
	ExchangeCode(ctx context.Context, code, userID string) (json.RawMessage, error)
	SaveTokens(ctx context.Context, userID string, tokens json.RawMessage) error
	GetTokens(ctx context.Context, userID string) (json.RawMessage, error)
}

// Navigator sends the user's browser to url.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error { return f(url) }

type Config struct {
	Backend   Backend
	Navigator Navigator

	// Provider enables PrepareAuthorizationURL. Optional.
	Provider *hubspot.Config

	Logger       *slog.Logger
	NoticeBuffer int
}

type Connector struct {
	backend  Backend
	nav      Navigator
	provider *hubspot.Config
	log      *slog.Logger
	notices  chan Notice

	mu   sync.Mutex
	view ViewState
}

// New returns a Connector in the IDLE state. A nil Navigator discards
// navigation requests.
func New(cfg Config) *Connector {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) error { return nil })
	}
	buf := cfg.NoticeBuffer
	if buf <= 0 {
		buf = DefaultNoticeBuffer
	}

	return &Connector{
		backend:  cfg.Backend,
		nav:      nav,
		provider: cfg.Provider,
		log:      log.With("component", "connector"),
		notices:  make(chan Notice, buf),
	}
}

// Notices streams user-facing messages. The channel is never closed.
func (c *Connector) Notices() <-chan Notice { return c.notices }

// View returns a copy of the current view state.
func (c *Connector) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.view
	v.Tokens = cloneRaw(v.Tokens)
	return v
}

// SetUserID records the user the token operations act on.
func (c *Connector) SetUserID(id string) {
	c.mu.Lock()
	c.view.UserID = id
	c.mu.Unlock()
}

// Reset clears the view state back to IDLE. Requests already in flight
// still complete and may write to the cleared state.
func (c *Connector) Reset() {
	c.mu.Lock()
	c.view = ViewState{}
	c.mu.Unlock()
}

func (c *Connector) userID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.UserID
}

// RequestAuthorization asks the backend for the provider URL and navigates
// to it unchanged. On failure nothing is navigated and the view is left
// alone. userID and orgID are not validated.
func (c *Connector) RequestAuthorization(ctx context.Context, userID, orgID string) (string, error) {
	url, err := c.backend.AuthorizationURL(ctx, userID, orgID)
	if err != nil {
		c.log.Error("error during authorization", "user_id", userID, "org_id", orgID, "error", err)
		return "", err
	}

	c.mu.Lock()
	c.view.AuthURL = url
	c.view.State = StateURLRequested
	c.mu.Unlock()

	if err := c.nav.Navigate(url); err != nil {
		c.log.Error("navigate to authorization url", "error", err)
		return url, fmt.Errorf("navigate: %w", err)
	}

	return url, nil
}

// PrepareAuthorizationURL builds the provider URL locally with userID as
// state. The URL is stored for display but not navigated to.
func (c *Connector) PrepareAuthorizationURL(userID string) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	url := c.provider.AuthorizationURL(userID)

	c.mu.Lock()
	c.view.AuthURL = url
	c.view.State = StateURLRequested
	c.mu.Unlock()

	return url, nil
}

// CompleteAuthorization exchanges code for tokens for the current user and
// then saves them. If the exchange succeeds but the save fails the tokens
// are returned together with the save error and the state stays
// CALLBACK_RECEIVED.
func (c *Connector) CompleteAuthorization(ctx context.Context, code string) (json.RawMessage, error) {
	userID := c.userID()

	tokens, err := c.backend.ExchangeCode(ctx, code, userID)
	if err != nil {
		c.log.Error("error during oauth callback", "user_id", userID, "error", err)
		c.notify(Notice{Level: LevelError, Op: connectsdk.OpExchange, Message: MsgCallbackFailed, Err: err})
		return nil, err
	}

	c.mu.Lock()
	c.view.Tokens = cloneRaw(tokens)
	c.view.State = StateCallbackReceived
	c.mu.Unlock()

	if err := c.SaveTokens(ctx, userID, tokens); err != nil {
		return tokens, err
	}

	c.notify(Notice{Level: LevelInfo, Op: connectsdk.OpExchange, Message: MsgConnected})
	return tokens, nil
}

// SaveTokens persists tokens for userID, overwriting any earlier save.
// Both outcomes raise a notice.
func (c *Connector) SaveTokens(ctx context.Context, userID string, tokens json.RawMessage) error {
	if err := c.backend.SaveTokens(ctx, userID, tokens); err != nil {
		c.log.Error("error saving tokens", "user_id", userID, "error", err)
		c.notify(Notice{Level: LevelError, Op: connectsdk.OpSaveTokens, Message: MsgSaveFailed, Err: err})
		return err
	}

	c.mu.Lock()
	c.view.State = StateTokensSaved
	c.mu.Unlock()

	c.notify(Notice{Level: LevelInfo, Op: connectsdk.OpSaveTokens, Message: MsgSaved})
	return nil
}

// RetrieveTokens loads the stored tokens for the current user.
func (c *Connector) RetrieveTokens(ctx context.Context) (json.RawMessage, error) {
	userID := c.userID()

	tokens, err := c.backend.GetTokens(ctx, userID)
	if err != nil {
		c.log.Error("error retrieving tokens", "user_id", userID, "error", err)
		c.notify(Notice{Level: LevelError, Op: connectsdk.OpGetTokens, Message: MsgRetrieveFailed, Err: err})
		return nil, err
	}

	c.mu.Lock()
	c.view.Tokens = cloneRaw(tokens)
	c.view.State = StateTokensLoaded
	c.mu.Unlock()

	c.notify(Notice{Level: LevelInfo, Op: connectsdk.OpGetTokens, Message: MsgRetrieved})
	return tokens, nil
}

// ListItems returns the user's CRM items. Any failure is logged and yields
// an empty slice.
func (c *Connector) ListItems(ctx context.Context, userID, orgID string) []connectsdk.Item {
	items, err := c.backend.ListItems(ctx, userID, orgID)
	if err != nil {
		c.log.Error("error fetching items", "user_id", userID, "org_id", orgID, "error", err)
		return []connectsdk.Item{}
	}
	if items == nil {
		return []connectsdk.Item{}
	}
	return items
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}
