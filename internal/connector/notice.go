package connector

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is a user-facing message about the outcome of an operation.
type Notice struct {
	Level   Level
	Op      string
	Message string
	Err     error
}

// Notice messages.
const (
	MsgConnected      = "OAuth successful, tokens saved!"
	MsgCallbackFailed = "Error during OAuth callback!"
	MsgSaved          = "Tokens saved successfully!"
	MsgSaveFailed     = "Error saving tokens!"
	MsgRetrieved      = "Tokens retrieved!"
	MsgRetrieveFailed = "Error retrieving tokens!"
)

// notify delivers n without blocking. A full buffer drops it.
func (c *Connector) notify(n Notice) {
	select {
	case c.notices <- n:
	default:
		c.log.Warn("notice dropped, buffer full", "op", n.Op, "message", n.Message)
	}
}
