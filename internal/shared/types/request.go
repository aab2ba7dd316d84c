package types

// ExecuteRequest represents a tool execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// DiscoverRequest asks the registry for services matching an intent
type DiscoverRequest struct {
	Message string `json:"message" binding:"required"`
	Limit   int    `json:"limit,omitempty"`
}

// Stream message types
const (
	StreamExecute = "execute"
	StreamPing    = "ping"
	StreamPong    = "pong"
	StreamResult  = "result"
	StreamError   = "error"
	StreamSystem  = "system"
)

// StreamRequest is a message received over the WebSocket. Type defaults
// to "execute".
type StreamRequest struct {
	Type   string                 `json:"type,omitempty"`
	ID     string                 `json:"id,omitempty"`
	ToolID string                 `json:"tool_id,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// StreamResponse answers a StreamRequest with the same ID
type StreamResponse struct {
	Type    string  `json:"type"`
	ID      string  `json:"id,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}
