package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a status observation pushed to subscribers
type WSProgressMessage struct {
	Type   string           `json:"type"`
	TaskID string           `json:"taskId"`
	Status GenerationStatus `json:"status"`
	Tracks int              `json:"tracks"`
}

// WSCompleteMessage represents generation completion
type WSCompleteMessage struct {
	Type   string          `json:"type"`
	TaskID string          `json:"taskId"`
	Result *StatusSnapshot `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type   string  `json:"type"`
	TaskID string  `json:"taskId"`
	Error  WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
