package connector

import "encoding/json"

// State is the position in the connect handshake.
type State int

const (
	StateIdle State = iota
	StateURLRequested
	StateCallbackReceived
	StateTokensSaved
	StateTokensLoaded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateURLRequested:
		return "URL_REQUESTED"
	case StateCallbackReceived:
		return "CALLBACK_RECEIVED"
	case StateTokensSaved:
		return "TOKENS_SAVED"
	case StateTokensLoaded:
		return "TOKENS_LOADED"
	default:
		return "UNKNOWN"
	}
}

// ViewState is what a UI renders. Tokens are opaque.
type ViewState struct {
	AuthURL string
	Tokens  json.RawMessage
	UserID  string
	State   State
}
